// Package db provides a pgxpool-based connection pool with prepared statement
// registration, schema migration and health checking.
package db

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/albapepper/audl-stats/internal/config"
)

//go:embed schema.sql
var schemaSQL string

// Schema returns the embedded DDL applied by Migrate.
func Schema() string {
	return schemaSQL
}

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	if err := cfg.RequireDatabase(); err != nil {
		return nil, err
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection. Tables may not
	// exist yet on a fresh database, so the migrate path skips this.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// Migrate applies the embedded schema over a single plain connection.
func Migrate(ctx context.Context, databaseURL string) error {
	conn, err := pgx.Connect(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(ctx)

	// Simple protocol: the schema is several statements in one string.
	if _, err := conn.Exec(ctx, schemaSQL, pgx.QueryExecModeSimpleProtocol); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// Statement names shared by the seed and API layers.
const (
	StmtHealthCheck     = "health_check"
	StmtUpsertTeam      = "upsert_team"
	StmtUpsertPlayer    = "upsert_player"
	StmtUpsertRoster    = "upsert_roster"
	StmtGameLoadStatus  = "game_load_status"
	StmtMarkGameFailed  = "mark_game_failed"
	StmtGameByExtID     = "game_by_ext_id"
	StmtPointsByGame    = "points_by_game"
	StmtPointBySequence = "point_by_sequence"
	StmtEventsByPoint   = "events_by_point"
	StmtPlayedByPoint   = "played_by_point"
)

// statements holds every prepared statement, keyed by name.
var statements = map[string]string{
	// Health
	StmtHealthCheck: "SELECT 1",

	// Ingestion: dedup upserts return the stored id
	StmtUpsertTeam: `INSERT INTO team (id, audl_id, division, city, name, abbreviation)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (audl_id) DO UPDATE SET
			division = EXCLUDED.division, city = EXCLUDED.city, name = EXCLUDED.name,
			abbreviation = EXCLUDED.abbreviation, updated_at = now()
		RETURNING id`,
	StmtUpsertPlayer: `INSERT INTO player (id, audl_id, first_name, last_name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (audl_id) DO UPDATE SET
			first_name = EXCLUDED.first_name, last_name = EXCLUDED.last_name, updated_at = now()
		RETURNING id`,
	StmtUpsertRoster: `INSERT INTO roster (id, team_id, ext_game_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (team_id, ext_game_id) DO UPDATE SET team_id = EXCLUDED.team_id
		RETURNING id`,

	// Ingestion: load bookkeeping
	StmtGameLoadStatus: "SELECT load_status FROM game WHERE ext_game_id = $1",
	StmtMarkGameFailed: `INSERT INTO game (id, ext_game_id, load_status, load_error)
		VALUES ($1, $2, 'failed', $3)
		ON CONFLICT (ext_game_id) DO UPDATE SET load_status = 'failed', load_error = EXCLUDED.load_error, loaded_at = now()`,

	// API: reads
	StmtGameByExtID: `SELECT g.id, g.ext_game_id, g.home_score, g.away_score, g.start_timestamp, g.start_timezone,
			COALESCE(h.name, ''), COALESCE(h.abbreviation, ''), COALESCE(a.name, ''), COALESCE(a.abbreviation, '')
		FROM game g
		LEFT JOIN team h ON h.id = g.home_team_id
		LEFT JOIN team a ON a.id = g.away_team_id
		WHERE g.ext_game_id = $1 AND g.load_status = 'loaded'`,
	StmtPointsByGame:    "SELECT id, sequence, quarter, start_time, end_time FROM point WHERE game_id = $1 ORDER BY sequence",
	StmtPointBySequence: "SELECT id, sequence, quarter, start_time, end_time FROM point WHERE game_id = $1 AND sequence = $2",
	StmtEventsByPoint:   "SELECT id, sequence, side, type, x, y, player_id FROM event WHERE point_id = $1 ORDER BY sequence",
	StmtPlayedByPoint:   "SELECT player_id, side, substitution FROM played_point WHERE point_id = $1 ORDER BY side, substitution, player_id",
}

// registerPreparedStatements registers all statements the API and ingestion
// layers use. Prepared statements eliminate parse overhead on every request.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	for name, sql := range statements {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
