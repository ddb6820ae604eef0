package handler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/albapepper/audl-stats/internal/db"
	"github.com/albapepper/audl-stats/internal/eventtype"
)

// ErrNotFound is returned when a game or point does not exist.
var ErrNotFound = errors.New("not found")

// --------------------------------------------------------------------------
// Response shapes
// --------------------------------------------------------------------------

// TeamView names one side of a game.
type TeamView struct {
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
}

// PointSummary is a point without its events.
type PointSummary struct {
	Sequence  int `json:"sequence"`
	Quarter   int `json:"quarter"`
	StartTime int `json:"start_time"`
	EndTime   int `json:"end_time"`
}

// GameView is a stored game with its ordered points.
type GameView struct {
	ID             string         `json:"id"`
	ExtGameID      string         `json:"ext_game_id"`
	HomeScore      int            `json:"home_score"`
	AwayScore      int            `json:"away_score"`
	StartTimestamp *time.Time     `json:"start_timestamp,omitempty"`
	StartTimezone  string         `json:"start_timezone"`
	Home           TeamView       `json:"home"`
	Away           TeamView       `json:"away"`
	Points         []PointSummary `json:"points"`
}

// EventView is one stored event.
type EventView struct {
	Sequence int      `json:"sequence"`
	Side     string   `json:"side"`
	Type     int      `json:"type"`
	TypeName string   `json:"type_name"`
	X        *float64 `json:"x,omitempty"`
	Y        *float64 `json:"y,omitempty"`
	PlayerID *string  `json:"player_id,omitempty"`
}

// PlayedView is one played-point row.
type PlayedView struct {
	PlayerID     string `json:"player_id"`
	Side         string `json:"side"`
	Substitution bool   `json:"substitution"`
}

// PointView is one point with its events and lines.
type PointView struct {
	ExtGameID string `json:"ext_game_id"`
	PointSummary
	Events []EventView  `json:"events"`
	Played []PlayedView `json:"played"`
}

// Store reads reconstructed games.
type Store interface {
	Ping(ctx context.Context) error
	Game(ctx context.Context, extGameID string) (*GameView, error)
	Point(ctx context.Context, extGameID string, sequence int) (*PointView, error)
}

// --------------------------------------------------------------------------
// Postgres store
// --------------------------------------------------------------------------

// PGStore implements Store with the prepared statements registered in db.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore wraps a pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// Ping runs the health check statement.
func (s *PGStore) Ping(ctx context.Context) error {
	var n int
	return s.pool.QueryRow(ctx, db.StmtHealthCheck).Scan(&n)
}

// Game loads a game and its point summaries.
func (s *PGStore) Game(ctx context.Context, extGameID string) (*GameView, error) {
	g, err := s.gameRow(ctx, extGameID)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, db.StmtPointsByGame, g.ID)
	if err != nil {
		return nil, fmt.Errorf("query points: %w", err)
	}
	g.Points, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (PointSummary, error) {
		var id string
		var p PointSummary
		err := row.Scan(&id, &p.Sequence, &p.Quarter, &p.StartTime, &p.EndTime)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan points: %w", err)
	}
	return g, nil
}

// Point loads one point by its 1-based sequence.
func (s *PGStore) Point(ctx context.Context, extGameID string, sequence int) (*PointView, error) {
	g, err := s.gameRow(ctx, extGameID)
	if err != nil {
		return nil, err
	}

	var pointID string
	p := &PointView{ExtGameID: g.ExtGameID}
	err = s.pool.QueryRow(ctx, db.StmtPointBySequence, g.ID, sequence).
		Scan(&pointID, &p.Sequence, &p.Quarter, &p.StartTime, &p.EndTime)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query point: %w", err)
	}

	rows, err := s.pool.Query(ctx, db.StmtEventsByPoint, pointID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	p.Events, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (EventView, error) {
		var id string
		var e EventView
		err := row.Scan(&id, &e.Sequence, &e.Side, &e.Type, &e.X, &e.Y, &e.PlayerID)
		e.TypeName = eventtype.Code(e.Type).String()
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan events: %w", err)
	}

	rows, err = s.pool.Query(ctx, db.StmtPlayedByPoint, pointID)
	if err != nil {
		return nil, fmt.Errorf("query played points: %w", err)
	}
	p.Played, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (PlayedView, error) {
		var pp PlayedView
		err := row.Scan(&pp.PlayerID, &pp.Side, &pp.Substitution)
		return pp, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan played points: %w", err)
	}
	return p, nil
}

func (s *PGStore) gameRow(ctx context.Context, extGameID string) (*GameView, error) {
	g := &GameView{}
	err := s.pool.QueryRow(ctx, db.StmtGameByExtID, extGameID).Scan(
		&g.ID, &g.ExtGameID, &g.HomeScore, &g.AwayScore, &g.StartTimestamp, &g.StartTimezone,
		&g.Home.Name, &g.Home.Abbreviation, &g.Away.Name, &g.Away.Abbreviation,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query game: %w", err)
	}
	return g, nil
}
