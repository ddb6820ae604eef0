package batch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"testing"

	"github.com/albapepper/audl-stats/internal/config"
	"github.com/albapepper/audl-stats/internal/eventtype"
	"github.com/albapepper/audl-stats/internal/possession"
	"github.com/albapepper/audl-stats/internal/provider"
	"github.com/albapepper/audl-stats/internal/provider/audl"
	"github.com/albapepper/audl-stats/internal/seed"
)

const base = "https://stats.example/web-api/game-stats/"

type fakeFetcher struct {
	errs map[string]error
}

func (f *fakeFetcher) FetchGame(_ context.Context, gameURL string) (*provider.Game, error) {
	if err := f.errs[gameURL]; err != nil {
		return nil, err
	}
	extID, _ := audl.ExtGameID(gameURL)
	return &provider.Game{ExtGameID: extID, HomeScore: 1}, nil
}

type fakeStore struct {
	mu       sync.Mutex
	status   map[string]string
	loadErrs map[string]error
	loaded   []string
	failed   []string
}

func (s *fakeStore) Status(_ context.Context, extGameID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status[extGameID], nil
}

func (s *fakeStore) LoadGame(_ context.Context, game *provider.Game) (seed.Result, error) {
	if err := s.loadErrs[game.ExtGameID]; err != nil {
		return seed.Result{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = append(s.loaded, game.ExtGameID)
	return seed.Result{GameID: "id-" + game.ExtGameID, PointsInserted: 1, EventsInserted: 5}, nil
}

func (s *fakeStore) MarkFailed(_ context.Context, extGameID string, _ error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed = append(s.failed, extGameID)
	return nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	games []string
	err   error
}

func (n *fakeNotifier) GameLoaded(_ context.Context, game *provider.Game, _ seed.Result) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.games = append(n.games, game.ExtGameID)
	return n.err
}

func TestRun(t *testing.T) {
	fetcher := &fakeFetcher{errs: map[string]error{
		base + "flaky": &audl.StatusError{StatusCode: http.StatusServiceUnavailable},
		base + "gone":  &audl.StatusError{StatusCode: http.StatusNotFound},
	}}
	store := &fakeStore{
		status: map[string]string{"done": config.LoadStatusLoaded, "bad-before": config.LoadStatusFailed},
		loadErrs: map[string]error{
			"mismatch": fmt.Errorf("track game mismatch: %w", &possession.PointCountMismatchError{Expected: 3, Actual: 2}),
		},
	}
	notifier := &fakeNotifier{err: errors.New("redis down")}
	deps := &Deps{Fetcher: fetcher, Store: store, Notifier: notifier}

	urls := []string{base + "ok-1", base + "done", base + "mismatch", base + "flaky", base + "gone", base + "ok-2", base + "bad-before"}
	res := Run(context.Background(), deps, urls, Options{Workers: 3})

	if res.GamesFound != 7 || res.GamesLoaded != 2 || res.GamesSkipped != 2 || res.GamesFailed != 3 {
		t.Errorf("counts = %s", res.Summary())
	}
	if res.PermanentFailures != 2 {
		t.Errorf("PermanentFailures = %d, want 2", res.PermanentFailures)
	}
	if res.PointsInserted != 2 || res.EventsInserted != 10 {
		t.Errorf("points/events = %d/%d, want 2/10", res.PointsInserted, res.EventsInserted)
	}
	if len(res.Errors) != 3 || len(res.Games) != 7 {
		t.Errorf("errors = %d, games = %d", len(res.Errors), len(res.Games))
	}

	sort.Strings(store.failed)
	if want := []string{"gone", "mismatch"}; !equal(store.failed, want) {
		t.Errorf("marked failed = %v, want %v", store.failed, want)
	}
	sort.Strings(notifier.games)
	if want := []string{"ok-1", "ok-2"}; !equal(notifier.games, want) {
		t.Errorf("notified = %v, want %v", notifier.games, want)
	}
}

func TestRunRetryFailed(t *testing.T) {
	store := &fakeStore{status: map[string]string{"bad-before": config.LoadStatusFailed}}
	deps := &Deps{Fetcher: &fakeFetcher{}, Store: store}

	res := Run(context.Background(), deps, []string{base + "bad-before"}, Options{Workers: 4, RetryFailed: true})
	if res.GamesLoaded != 1 {
		t.Errorf("GamesLoaded = %d, want 1 (%s)", res.GamesLoaded, res.Summary())
	}
}

func TestRunEmpty(t *testing.T) {
	res := Run(context.Background(), &Deps{}, nil, Options{})
	if res.GamesFound != 0 || len(res.Games) != 0 {
		t.Errorf("empty run = %s", res.Summary())
	}
}

func TestLoadOneBadURL(t *testing.T) {
	g := LoadOne(context.Background(), &Deps{Store: &fakeStore{}}, "https://stats.example/", false)
	if g.Outcome != OutcomeFailed || !g.Permanent {
		t.Errorf("outcome = %s permanent = %v", g.Outcome, g.Permanent)
	}
}

func TestIsPermanent(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"unknown event type", fmt.Errorf("track: %w", &eventtype.UnknownTypeError{Code: 99}), true},
		{"point mismatch", &possession.PointCountMismatchError{Expected: 1, Actual: 0}, true},
		{"malformed payload", fmt.Errorf("decode game x: %w: %w", audl.ErrMalformedPayload, errors.New("eof")), true},
		{"not found", fmt.Errorf("fetch game x: %w", &audl.StatusError{StatusCode: 404}), true},
		{"rate limited", &audl.StatusError{StatusCode: 429}, false},
		{"server error", &audl.StatusError{StatusCode: 502}, false},
		{"network", errors.New("connection reset"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPermanent(tt.err); got != tt.want {
				t.Errorf("IsPermanent(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
