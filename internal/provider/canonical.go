// Package provider defines canonical data types that provider payloads are
// normalized into. These structs are the contract between the provider
// decoder and the seed runner: the decoder outputs these, seeders write them
// to Postgres.
package provider

import (
	"strconv"
	"time"

	"github.com/albapepper/audl-stats/internal/possession"
)

// Team is the canonical team shape written to the team table.
type Team struct {
	AUDLID       int    `json:"audl_id"`
	Division     int    `json:"division"`
	City         string `json:"city"`
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
}

// Player is the canonical player profile shape written to the player table.
type Player struct {
	AUDLID    int    `json:"audl_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// RosterEntry is one player on a team's game roster. RosteredID is the id
// the event streams use to reference the player.
type RosterEntry struct {
	RosteredID   int    `json:"rostered_id"`
	JerseyNumber *int   `json:"jersey_number,omitempty"`
	Active       bool   `json:"active"`
	Player       Player `json:"player"`
}

// TeamGame is one team's side of a game: identity, roster and the raw
// streams the tracker consumes.
type TeamGame struct {
	Team       Team                  `json:"team"`
	Roster     []RosterEntry         `json:"roster"`
	Events     []possession.RawEvent `json:"events"`
	ScoreTimes []int                 `json:"score_times"`
}

// Game is a fully decoded provider game payload.
type Game struct {
	AUDLID         int       `json:"audl_id"`
	ExtGameID      string    `json:"ext_game_id"`
	HomeScore      int       `json:"home_score"`
	AwayScore      int       `json:"away_score"`
	StartTimestamp time.Time `json:"start_timestamp"`
	StartTimezone  string    `json:"start_timezone"`
	Home           TeamGame  `json:"home"`
	Away           TeamGame  `json:"away"`
}

// TrackerInput assembles the possession tracker input from the decoded
// streams and the two roster lookups.
func (g *Game) TrackerInput(home, away possession.RosterLookup) possession.Input {
	return possession.Input{
		HomeEvents:     g.Home.Events,
		AwayEvents:     g.Away.Events,
		ScoreTimesHome: g.Home.ScoreTimes,
		ScoreTimesAway: g.Away.ScoreTimes,
		HomeRoster:     home,
		AwayRoster:     away,
		HomeScore:      g.HomeScore,
		AwayScore:      g.AwayScore,
	}
}

// OfflineLookup maps rostered ids to the provider player id as a string.
// Used when parsing without a database, where no internal ids exist.
func (tg *TeamGame) OfflineLookup() possession.RosterLookup {
	m := make(map[int]string, len(tg.Roster))
	for _, r := range tg.Roster {
		m[r.RosteredID] = strconv.Itoa(r.Player.AUDLID)
	}
	return possession.NewRosterLookup(m)
}
