package publisher

import (
	"testing"

	"github.com/redis/go-redis/v9"

	"github.com/albapepper/audl-stats/internal/provider"
	"github.com/albapepper/audl-stats/internal/seed"
)

func TestParseEntry(t *testing.T) {
	game := &provider.Game{ExtGameID: "2023-06-10-ATL-CAR", HomeScore: 21, AwayScore: 19}
	values, err := Message(game, seed.Result{GameID: "g-1", PointsInserted: 40})
	if err != nil {
		t.Fatal(err)
	}

	ev, err := ParseEntry(redis.XMessage{ID: "1-0", Values: values})
	if err != nil {
		t.Fatalf("ParseEntry: %v", err)
	}
	if ev.ExtGameID != "2023-06-10-ATL-CAR" || ev.GameID != "g-1" || ev.Points != 40 {
		t.Errorf("event = %+v", ev)
	}
}

func TestParseEntryErrors(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]interface{}
	}{
		{"no data", map[string]interface{}{"ext_game_id": "g1"}},
		{"bad json", map[string]interface{}{"data": "{"}},
		{"no game id", map[string]interface{}{"data": `{"points":3}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseEntry(redis.XMessage{ID: "1-0", Values: tt.values}); err == nil {
				t.Error("expected error")
			}
		})
	}
}
