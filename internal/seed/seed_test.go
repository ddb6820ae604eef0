package seed

import (
	"strings"
	"testing"

	"github.com/albapepper/audl-stats/internal/eventtype"
	"github.com/albapepper/audl-stats/internal/possession"
	"github.com/albapepper/audl-stats/internal/provider"
)

func TestBuildLookup(t *testing.T) {
	entries := []provider.RosterEntry{
		{RosteredID: 101, Player: provider.Player{AUDLID: 9001}},
		{RosteredID: 102, Player: provider.Player{AUDLID: 9002}},
	}
	lookup := buildLookup(entries, map[int]string{9001: "p-a", 9002: "p-b"})

	if lookup.Len() != 2 {
		t.Fatalf("Len = %d, want 2", lookup.Len())
	}
	if id, ok := lookup.Resolve(102); !ok || id != "p-b" {
		t.Errorf("Resolve(102) = %q, %v, want p-b", id, ok)
	}
	if _, ok := lookup.Resolve(9001); ok {
		t.Error("lookup keyed by provider player id instead of rostered id")
	}
}

func TestBuildLookupMissingPlayer(t *testing.T) {
	entries := []provider.RosterEntry{
		{RosteredID: 1, Player: provider.Player{AUDLID: 10}},
		{RosteredID: 2, Player: provider.Player{AUDLID: 20}},
	}
	lookup := buildLookup(entries, map[int]string{10: "only"})
	if lookup.Len() != 1 {
		t.Errorf("Len = %d, want 1", lookup.Len())
	}
}

// Two games between the same teams must lock team and player rows in the
// same order whichever side is home.
func TestTeamOrder(t *testing.T) {
	atl := provider.Team{AUDLID: 7, Abbreviation: "ATL"}
	car := provider.Team{AUDLID: 3, Abbreviation: "CAR"}

	tests := []struct {
		name  string
		teams []provider.Team
		want  []int
	}{
		{"home first", []provider.Team{atl, car}, []int{3, 7}},
		{"away first", []provider.Team{car, atl}, []int{3, 7}},
		{"same team twice", []provider.Team{atl, atl}, []int{7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := teamOrder(tt.teams)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d teams, want %d", len(got), len(tt.want))
			}
			for i, team := range got {
				if team.AUDLID != tt.want[i] {
					t.Errorf("teams[%d] = %d, want %d", i, team.AUDLID, tt.want[i])
				}
			}
		})
	}
}

func TestPlayerOrder(t *testing.T) {
	home := []provider.RosterEntry{
		{RosteredID: 1, Player: provider.Player{AUDLID: 900, FirstName: "A"}},
		{RosteredID: 2, Player: provider.Player{AUDLID: 120}},
	}
	away := []provider.RosterEntry{
		{RosteredID: 3, Player: provider.Player{AUDLID: 450}},
		{RosteredID: 4, Player: provider.Player{AUDLID: 900, FirstName: "B"}},
	}

	for _, rosters := range [][][]provider.RosterEntry{{home, away}, {away, home}} {
		got := playerOrder(rosters...)
		if len(got) != 3 {
			t.Fatalf("got %d players, want 3", len(got))
		}
		if got[0].AUDLID != 120 || got[1].AUDLID != 450 || got[2].AUDLID != 900 {
			t.Errorf("order = %d, %d, %d", got[0].AUDLID, got[1].AUDLID, got[2].AUDLID)
		}
	}

	if got := playerOrder(home, away); got[2].FirstName != "A" {
		t.Errorf("duplicate player kept %q, want first entry", got[2].FirstName)
	}
	if got := playerOrder(); len(got) != 0 {
		t.Errorf("empty rosters gave %d players", len(got))
	}
}

func TestEventRows(t *testing.T) {
	x, y := 10.5, 40.0
	player := "p-a"
	points := []possession.Point{
		{ID: "pt-1", Events: []possession.Event{
			{ID: "e-1", PointID: "pt-1", Sequence: 0, Side: possession.Home, Type: eventtype.Pass, X: &x, Y: &y, PlayerID: &player},
			{ID: "e-2", PointID: "pt-1", Sequence: 1, Side: possession.Away, Type: eventtype.Block},
		}},
		{ID: "pt-2"},
		{ID: "pt-3", Events: []possession.Event{
			{ID: "e-3", PointID: "pt-3", Sequence: 0, Side: possession.Home, Type: eventtype.Score},
		}},
	}

	rows := eventRows(points)
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	for _, row := range rows {
		if len(row) != len(eventColumns) {
			t.Fatalf("row has %d values, want %d", len(row), len(eventColumns))
		}
	}
	if rows[0][3] != "home" || rows[1][3] != "away" {
		t.Errorf("sides = %v, %v", rows[0][3], rows[1][3])
	}
	if rows[0][4] != int(eventtype.Pass) {
		t.Errorf("type = %v, want %d", rows[0][4], eventtype.Pass)
	}
	if got := rows[1][7].(*string); got != nil {
		t.Errorf("player = %v, want nil", *got)
	}
	if rows[2][1] != "pt-3" {
		t.Errorf("point id = %v, want pt-3", rows[2][1])
	}
}

func TestPlayedRows(t *testing.T) {
	rows := playedRows([]possession.PlayedPoint{
		{PointID: "pt-1", PlayerID: "p-a", Side: possession.Home},
		{PointID: "pt-1", PlayerID: "p-b", Side: possession.Away, Substitution: true},
	})
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if len(rows[0]) != len(playedColumns) {
		t.Fatalf("row has %d values, want %d", len(rows[0]), len(playedColumns))
	}
	if rows[1][2] != "away" || rows[1][3] != true {
		t.Errorf("row = %v", rows[1])
	}
}

func TestResultSummary(t *testing.T) {
	res := Result{TeamsUpserted: 2, PlayersUpserted: 40, PointsInserted: 30, EventsInserted: 400, PlayedPointsInserted: 210}
	want := "teams=2 players=40 points=30 events=400 played_points=210"
	if got := res.Summary(); got != want {
		t.Errorf("Summary = %q, want %q", got, want)
	}
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("x", 600)
	if got := truncate(long, 500); len(got) != 500 {
		t.Errorf("len = %d, want 500", len(got))
	}
	if got := truncate("short", 500); got != "short" {
		t.Errorf("truncate = %q", got)
	}
}
