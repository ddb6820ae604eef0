// Package possession reconstructs the point-by-point structure of a game
// from the two per-team event streams the stats server reports.
//
// Each team reports the same play from its own perspective. The tracker
// reads both streams with independent cursors, takes events from whichever
// side currently has control, hands control over on possession-changing
// events and seals a point whenever both stream heads open a new point.
// Inputs are never modified, so a parse can be re-run on the same data.
package possession

import (
	"fmt"

	"github.com/albapepper/audl-stats/internal/eventtype"
)

// Side identifies which team's stream an event came from.
type Side int

const (
	Home Side = iota
	Away
)

// Other returns the opposing side.
func (s Side) Other() Side {
	if s == Home {
		return Away
	}
	return Home
}

func (s Side) String() string {
	switch s {
	case Home:
		return "home"
	case Away:
		return "away"
	default:
		return fmt.Sprintf("side(%d)", int(s))
	}
}

// MarshalText encodes the side as "home" or "away".
func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// RawEvent is one provider event as decoded from a team's event stream.
// Only the fields the tracker consumes are modelled.
type RawEvent struct {
	Type   int      `json:"t"`
	X      *float64 `json:"x,omitempty"`
	Y      *float64 `json:"y,omitempty"`
	Player *int     `json:"r,omitempty"`
	Line   []int    `json:"l,omitempty"`
}

// Point is one sealed possession span. Sequence is 1-based and contiguous
// across a game; StartTime and EndTime are game-clock units.
type Point struct {
	ID        string  `json:"id"`
	Sequence  int     `json:"sequence"`
	Quarter   int     `json:"quarter"`
	StartTime int     `json:"start_time"`
	EndTime   int     `json:"end_time"`
	Events    []Event `json:"events"`
}

// Event is a domain event inside a point. Sequence is 0-based within the
// owning point, in arrival order.
type Event struct {
	ID       string             `json:"id"`
	PointID  string             `json:"point_id"`
	Sequence int                `json:"sequence"`
	Side     Side               `json:"side"`
	Type     eventtype.Code     `json:"type"`
	Category eventtype.Category `json:"-"`
	X        *float64           `json:"x,omitempty"`
	Y        *float64           `json:"y,omitempty"`
	PlayerID *string            `json:"player_id,omitempty"`
}

// PlayedPoint records that a player was on the field for a point.
type PlayedPoint struct {
	PointID      string `json:"point_id"`
	PlayerID     string `json:"player_id"`
	Side         Side   `json:"side"`
	Substitution bool   `json:"substitution"`
}

// RosterLookup maps a provider rostered-player id to an internal player id.
// It is built once before tracking and is read-only afterwards, so one
// lookup can be shared by concurrent readers.
type RosterLookup struct {
	ids map[int]string
}

// NewRosterLookup copies m into a new lookup.
func NewRosterLookup(m map[int]string) RosterLookup {
	ids := make(map[int]string, len(m))
	for k, v := range m {
		ids[k] = v
	}
	return RosterLookup{ids: ids}
}

// Resolve returns the internal player id for a provider key.
func (r RosterLookup) Resolve(key int) (string, bool) {
	id, ok := r.ids[key]
	return id, ok
}

// Len returns the number of entries.
func (r RosterLookup) Len() int {
	return len(r.ids)
}

// Input is everything one parse needs. All slices are treated as read-only.
type Input struct {
	HomeEvents     []RawEvent
	AwayEvents     []RawEvent
	ScoreTimesHome []int
	ScoreTimesAway []int
	HomeRoster     RosterLookup
	AwayRoster     RosterLookup
	HomeScore      int
	AwayScore      int
}

// Result is the output of a successful parse.
type Result struct {
	Points       []Point
	PlayedPoints []PlayedPoint
}

// EventCount returns the total number of domain events across all points.
func (r *Result) EventCount() int {
	n := 0
	for _, p := range r.Points {
		n += len(p.Events)
	}
	return n
}
