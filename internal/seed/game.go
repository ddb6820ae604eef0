package seed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/albapepper/audl-stats/internal/config"
	"github.com/albapepper/audl-stats/internal/possession"
	"github.com/albapepper/audl-stats/internal/provider"
)

var (
	eventColumns  = []string{"id", "point_id", "sequence", "side", "type", "x", "y", "player_id"}
	playedColumns = []string{"point_id", "player_id", "side", "substitution"}
)

const (
	deleteGameSQL = `DELETE FROM ` + config.GamesTable + ` WHERE ext_game_id = $1`

	insertGameSQL = `INSERT INTO ` + config.GamesTable + ` (
			id, ext_game_id, audl_id, home_team_id, away_team_id,
			home_roster_id, away_roster_id, home_score, away_score,
			start_timestamp, start_timezone, load_status
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,'loaded')`

	insertPointSQL = `INSERT INTO ` + config.PointsTable + ` (
			id, game_id, sequence, quarter, start_time, end_time
		) VALUES ($1,$2,$3,$4,$5,$6)`
)

// Loader writes whole games to Postgres.
type Loader struct {
	pool   *pgxpool.Pool
	ids    possession.IDAllocator
	tracer possession.Tracer
	logger *slog.Logger
}

// NewLoader creates a loader. A nil tracer discards trace output.
func NewLoader(pool *pgxpool.Pool, tracer possession.Tracer, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if tracer == nil {
		tracer = possession.NopTracer{}
	}
	return &Loader{pool: pool, ids: possession.UUIDAllocator{}, tracer: tracer, logger: logger}
}

// Status returns the stored load status of a game ("" when unknown).
func (l *Loader) Status(ctx context.Context, extGameID string) (string, error) {
	return Status(ctx, l.pool, extGameID)
}

// MarkFailed records a permanent failure for a game.
func (l *Loader) MarkFailed(ctx context.Context, extGameID string, cause error) error {
	return MarkFailed(ctx, l.pool, l.ids, extGameID, cause)
}

// LoadGame stores one game. Teams and players are deduplicated first, in
// short statements of their own, in ascending provider id order. Rosters
// and the tracker output then go into a single transaction: a tracker error
// rolls it back, so a game is either fully stored or not at all. Reloading
// a game replaces its points.
func (l *Loader) LoadGame(ctx context.Context, game *provider.Game) (Result, error) {
	var result Result

	teamIDs, err := UpsertTeams(ctx, l.pool, l.ids, game.Home.Team, game.Away.Team)
	if err != nil {
		return result, err
	}
	homeTeamID, awayTeamID := teamIDs[game.Home.Team.AUDLID], teamIDs[game.Away.Team.AUDLID]
	result.TeamsUpserted = len(teamIDs)

	playerIDs, err := UpsertPlayers(ctx, l.pool, l.ids, game.Home.Roster, game.Away.Roster)
	if err != nil {
		return result, err
	}
	result.PlayersUpserted = len(playerIDs)

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return result, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) // no-op after commit

	homeRoster, err := LoadRoster(ctx, tx, l.ids, homeTeamID, game.ExtGameID, game.Home.Roster, playerIDs)
	if err != nil {
		return result, err
	}
	awayRoster, err := LoadRoster(ctx, tx, l.ids, awayTeamID, game.ExtGameID, game.Away.Roster, playerIDs)
	if err != nil {
		return result, err
	}

	// Each game gets its own tracker and allocator.
	tracker := possession.NewTracker(func() possession.IDAllocator { return possession.UUIDAllocator{} }, l.tracer)
	parsed, err := tracker.Track(game.TrackerInput(homeRoster.Lookup, awayRoster.Lookup))
	if err != nil {
		return result, fmt.Errorf("track game %s: %w", game.ExtGameID, err)
	}

	if _, err := tx.Exec(ctx, deleteGameSQL, game.ExtGameID); err != nil {
		return result, fmt.Errorf("delete previous game %s: %w", game.ExtGameID, err)
	}

	gameID := l.ids.NewID()
	if _, err := tx.Exec(ctx, insertGameSQL,
		gameID, game.ExtGameID, game.AUDLID, homeTeamID, awayTeamID,
		homeRoster.ID, awayRoster.ID, game.HomeScore, game.AwayScore,
		nilZeroTime(game), game.StartTimezone,
	); err != nil {
		return result, fmt.Errorf("insert game %s: %w", game.ExtGameID, err)
	}
	result.GameID = gameID

	if err := insertPoints(ctx, tx, gameID, parsed.Points); err != nil {
		return result, err
	}
	result.PointsInserted = len(parsed.Points)

	n, err := tx.CopyFrom(ctx, pgx.Identifier{config.EventsTable}, eventColumns, pgx.CopyFromRows(eventRows(parsed.Points)))
	if err != nil {
		return result, fmt.Errorf("copy events: %w", err)
	}
	result.EventsInserted = int(n)

	n, err = tx.CopyFrom(ctx, pgx.Identifier{config.PlayedPointTable}, playedColumns, pgx.CopyFromRows(playedRows(parsed.PlayedPoints)))
	if err != nil {
		return result, fmt.Errorf("copy played points: %w", err)
	}
	result.PlayedPointsInserted = int(n)

	if err := tx.Commit(ctx); err != nil {
		return result, fmt.Errorf("commit game %s: %w", game.ExtGameID, err)
	}

	l.logger.Info("Game loaded",
		"ext_game_id", game.ExtGameID, "game_id", gameID,
		"points", result.PointsInserted, "events", result.EventsInserted)
	return result, nil
}

func insertPoints(ctx context.Context, tx pgx.Tx, gameID string, points []possession.Point) error {
	if len(points) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	for _, p := range points {
		b.Queue(insertPointSQL, p.ID, gameID, p.Sequence, p.Quarter, p.StartTime, p.EndTime)
	}
	if err := tx.SendBatch(ctx, b).Close(); err != nil {
		return fmt.Errorf("insert points: %w", err)
	}
	return nil
}

// eventRows flattens the events of every point into COPY rows matching
// eventColumns.
func eventRows(points []possession.Point) [][]any {
	var rows [][]any
	for _, p := range points {
		for _, e := range p.Events {
			rows = append(rows, []any{
				e.ID, e.PointID, e.Sequence, e.Side.String(), int(e.Type), e.X, e.Y, e.PlayerID,
			})
		}
	}
	return rows
}

// playedRows converts played-point records into COPY rows matching
// playedColumns.
func playedRows(played []possession.PlayedPoint) [][]any {
	rows := make([][]any, 0, len(played))
	for _, pp := range played {
		rows = append(rows, []any{pp.PointID, pp.PlayerID, pp.Side.String(), pp.Substitution})
	}
	return rows
}

func nilZeroTime(game *provider.Game) any {
	if game.StartTimestamp.IsZero() {
		return nil
	}
	return game.StartTimestamp
}
