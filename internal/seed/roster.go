package seed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/albapepper/audl-stats/internal/db"
	"github.com/albapepper/audl-stats/internal/possession"
	"github.com/albapepper/audl-stats/internal/provider"
)

const upsertOnRosterSQL = `INSERT INTO on_roster (roster_id, player_id, rostered_id, jersey_number, active)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (roster_id, rostered_id) DO UPDATE SET
		player_id = EXCLUDED.player_id,
		jersey_number = EXCLUDED.jersey_number,
		active = EXCLUDED.active`

// Roster is a stored per-game roster and the lookup the tracker reads.
type Roster struct {
	ID      string
	Lookup  possession.RosterLookup
	Players int
}

// LoadRoster stores one team's game roster: the roster row and its
// on_roster links. playerIDs maps provider player ids to internal ids, as
// returned by UpsertPlayers. The returned lookup maps rostered ids to
// internal player ids.
func LoadRoster(ctx context.Context, q DBTX, ids possession.IDAllocator, teamID, extGameID string, entries []provider.RosterEntry, playerIDs map[int]string) (*Roster, error) {
	var rosterID string
	if err := q.QueryRow(ctx, db.StmtUpsertRoster, ids.NewID(), teamID, extGameID).Scan(&rosterID); err != nil {
		return nil, fmt.Errorf("upsert roster for team %s: %w", teamID, err)
	}

	if len(entries) > 0 {
		b := &pgx.Batch{}
		for _, e := range entries {
			playerID, ok := playerIDs[e.Player.AUDLID]
			if !ok {
				return nil, fmt.Errorf("roster %s: player %d was not upserted", rosterID, e.Player.AUDLID)
			}
			b.Queue(upsertOnRosterSQL, rosterID, playerID, e.RosteredID, e.JerseyNumber, e.Active)
		}
		if err := q.SendBatch(ctx, b).Close(); err != nil {
			return nil, fmt.Errorf("insert on_roster for roster %s: %w", rosterID, err)
		}
	}

	return &Roster{
		ID:      rosterID,
		Lookup:  buildLookup(entries, playerIDs),
		Players: len(entries),
	}, nil
}

// buildLookup maps each entry's rostered id to the internal id of its
// player. Entries whose player has no internal id are left out.
func buildLookup(entries []provider.RosterEntry, playerIDs map[int]string) possession.RosterLookup {
	m := make(map[int]string, len(entries))
	for _, e := range entries {
		if id, ok := playerIDs[e.Player.AUDLID]; ok {
			m[e.RosteredID] = id
		}
	}
	return possession.NewRosterLookup(m)
}
