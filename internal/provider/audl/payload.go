package audl

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/albapepper/audl-stats/internal/possession"
	"github.com/albapepper/audl-stats/internal/provider"
)

// --------------------------------------------------------------------------
// Wire shapes
// --------------------------------------------------------------------------

type gamePayload struct {
	Game struct {
		ID             int               `json:"id"`
		ExtGameID      string            `json:"ext_game_id"`
		ScoreHome      *int              `json:"score_home"`
		ScoreAway      *int              `json:"score_away"`
		StartTimestamp string            `json:"start_timestamp"`
		StartTimezone  string            `json:"start_timezone"`
		TeamSeasonHome teamSeasonPayload `json:"team_season_home"`
		TeamSeasonAway teamSeasonPayload `json:"team_season_away"`
	} `json:"game"`
	RostersHome []rosterPayload `json:"rostersHome"`
	RostersAway []rosterPayload `json:"rostersAway"`
	TsgHome     tsgPayload      `json:"tsgHome"`
	TsgAway     tsgPayload      `json:"tsgAway"`
}

type teamSeasonPayload struct {
	TeamID     int    `json:"team_id"`
	DivisionID int    `json:"division_id"`
	City       string `json:"city"`
	Abbrev     string `json:"abbrev"`
	Team       struct {
		Name string `json:"name"`
	} `json:"team"`
}

type rosterPayload struct {
	ID           int  `json:"id"`
	JerseyNumber *int `json:"jersey_number"`
	Active       bool `json:"active"`
	Player       struct {
		ID        int    `json:"id"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	} `json:"player"`
}

// tsgPayload is a team-season-game record. Both fields arrive either as JSON
// or as a string holding encoded JSON.
type tsgPayload struct {
	Events     json.RawMessage `json:"events"`
	ScoreTimes json.RawMessage `json:"scoreTimes"`
}

type eventPayload struct {
	T *int     `json:"t"`
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
	R *int     `json:"r"`
	L []int    `json:"l"`
}

// --------------------------------------------------------------------------
// Decoding
// --------------------------------------------------------------------------

// DecodeGame converts a stats-server game document into the canonical game.
// fallbackExtID is used when the document carries no ext_game_id.
func DecodeGame(body []byte, fallbackExtID string) (*provider.Game, error) {
	var p gamePayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	if p.Game.ScoreHome == nil || p.Game.ScoreAway == nil {
		return nil, fmt.Errorf("payload missing final score")
	}

	start, err := parseTimestamp(p.Game.StartTimestamp)
	if err != nil {
		return nil, err
	}

	home, err := decodeTeamGame(p.Game.TeamSeasonHome, p.RostersHome, p.TsgHome)
	if err != nil {
		return nil, fmt.Errorf("home: %w", err)
	}
	away, err := decodeTeamGame(p.Game.TeamSeasonAway, p.RostersAway, p.TsgAway)
	if err != nil {
		return nil, fmt.Errorf("away: %w", err)
	}

	extID := p.Game.ExtGameID
	if extID == "" {
		extID = fallbackExtID
	}

	return &provider.Game{
		AUDLID:         p.Game.ID,
		ExtGameID:      extID,
		HomeScore:      *p.Game.ScoreHome,
		AwayScore:      *p.Game.ScoreAway,
		StartTimestamp: start,
		StartTimezone:  p.Game.StartTimezone,
		Home:           *home,
		Away:           *away,
	}, nil
}

func decodeTeamGame(ts teamSeasonPayload, roster []rosterPayload, tsg tsgPayload) (*provider.TeamGame, error) {
	events, err := DecodeEvents(tsg.Events)
	if err != nil {
		return nil, err
	}
	times, err := provider.ExtractInts(tsg.ScoreTimes)
	if err != nil {
		return nil, fmt.Errorf("score times: %w", err)
	}

	tg := &provider.TeamGame{
		Team: provider.Team{
			AUDLID:       ts.TeamID,
			Division:     ts.DivisionID,
			City:         ts.City,
			Name:         ts.Team.Name,
			Abbreviation: ts.Abbrev,
		},
		Roster:     make([]provider.RosterEntry, 0, len(roster)),
		Events:     events,
		ScoreTimes: times,
	}
	for _, r := range roster {
		tg.Roster = append(tg.Roster, provider.RosterEntry{
			RosteredID:   r.ID,
			JerseyNumber: r.JerseyNumber,
			Active:       r.Active,
			Player: provider.Player{
				AUDLID:    r.Player.ID,
				FirstName: r.Player.FirstName,
				LastName:  r.Player.LastName,
			},
		})
	}
	return tg, nil
}

// DecodeEvents decodes one team's event stream. The stream may be a JSON
// array or a string containing one. Only the event type is required.
func DecodeEvents(raw json.RawMessage) ([]possession.RawEvent, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		if encoded == "" {
			return nil, nil
		}
		raw = json.RawMessage(encoded)
	}

	var items []eventPayload
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}

	events := make([]possession.RawEvent, len(items))
	for i, it := range items {
		if it.T == nil {
			return nil, fmt.Errorf("decode events: event %d has no type", i)
		}
		events[i] = possession.RawEvent{
			Type:   *it.T,
			X:      it.X,
			Y:      it.Y,
			Player: it.R,
			Line:   it.L,
		}
	}
	return events, nil
}

func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02T15:04:05", strings.TrimSuffix(s, "Z"))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse start_timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}
