package seed

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/albapepper/audl-stats/internal/db"
	"github.com/albapepper/audl-stats/internal/possession"
	"github.com/albapepper/audl-stats/internal/provider"
)

// DBTX is the query surface shared by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// UpsertTeams writes both teams of a game, deduplicated on provider id, and
// returns the stored internal ids keyed by provider id. Teams are written in
// ascending provider id order so concurrent loads lock rows in the same
// order.
func UpsertTeams(ctx context.Context, q DBTX, ids possession.IDAllocator, teams ...provider.Team) (map[int]string, error) {
	out := make(map[int]string, len(teams))
	for _, team := range teamOrder(teams) {
		var id string
		err := q.QueryRow(ctx, db.StmtUpsertTeam,
			ids.NewID(), team.AUDLID, team.Division,
			team.City, team.Name, team.Abbreviation,
		).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("upsert team %d: %w", team.AUDLID, err)
		}
		out[team.AUDLID] = id
	}
	return out, nil
}

// UpsertPlayers writes every player named by the rosters in one batch and
// returns the internal ids keyed by provider id. Players are deduplicated
// and written in ascending provider id order.
func UpsertPlayers(ctx context.Context, q DBTX, ids possession.IDAllocator, rosters ...[]provider.RosterEntry) (map[int]string, error) {
	players := playerOrder(rosters...)
	out := make(map[int]string, len(players))
	if len(players) == 0 {
		return out, nil
	}

	b := &pgx.Batch{}
	for _, p := range players {
		b.Queue(db.StmtUpsertPlayer, ids.NewID(), p.AUDLID, p.FirstName, p.LastName)
	}

	br := q.SendBatch(ctx, b)
	defer br.Close()

	for _, p := range players {
		var id string
		if err := br.QueryRow().Scan(&id); err != nil {
			return nil, fmt.Errorf("upsert player %d: %w", p.AUDLID, err)
		}
		out[p.AUDLID] = id
	}
	return out, br.Close()
}

// teamOrder returns the distinct teams sorted by provider id.
func teamOrder(teams []provider.Team) []provider.Team {
	seen := make(map[int]bool, len(teams))
	out := make([]provider.Team, 0, len(teams))
	for _, t := range teams {
		if seen[t.AUDLID] {
			continue
		}
		seen[t.AUDLID] = true
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AUDLID < out[j].AUDLID })
	return out
}

// playerOrder returns the distinct players across rosters sorted by
// provider id. The first entry seen for a player wins.
func playerOrder(rosters ...[]provider.RosterEntry) []provider.Player {
	seen := make(map[int]bool)
	var out []provider.Player
	for _, roster := range rosters {
		for _, e := range roster {
			if seen[e.Player.AUDLID] {
				continue
			}
			seen[e.Player.AUDLID] = true
			out = append(out, e.Player)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AUDLID < out[j].AUDLID })
	return out
}

// Status returns the load status recorded for a game, or "" when the game
// has never been attempted.
func Status(ctx context.Context, q DBTX, extGameID string) (string, error) {
	var status string
	err := q.QueryRow(ctx, db.StmtGameLoadStatus, extGameID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("game status %s: %w", extGameID, err)
	}
	return status, nil
}

// MarkFailed records a permanent load failure so later batches skip it.
func MarkFailed(ctx context.Context, q DBTX, ids possession.IDAllocator, extGameID string, cause error) error {
	if _, err := q.Exec(ctx, db.StmtMarkGameFailed, ids.NewID(), extGameID, truncate(cause.Error(), 500)); err != nil {
		return fmt.Errorf("mark game %s failed: %w", extGameID, err)
	}
	return nil
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
