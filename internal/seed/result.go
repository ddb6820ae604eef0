// Package seed writes decoded games to Postgres: team and player dedup,
// per-game rosters, and the reconstructed points with their events and
// played-point rows.
package seed

import "fmt"

// Result tracks counts from one game load.
type Result struct {
	GameID               string
	TeamsUpserted        int
	PlayersUpserted      int
	PointsInserted       int
	EventsInserted       int
	PlayedPointsInserted int
}

// Summary returns a human-readable summary of the load.
func (r *Result) Summary() string {
	return fmt.Sprintf(
		"teams=%d players=%d points=%d events=%d played_points=%d",
		r.TeamsUpserted, r.PlayersUpserted,
		r.PointsInserted, r.EventsInserted, r.PlayedPointsInserted,
	)
}
