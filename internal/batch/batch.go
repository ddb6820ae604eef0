// Package batch loads many games from the stats server. Each game is
// fetched, tracked and stored independently across a bounded worker pool;
// one game's failure never stops the others.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/albapepper/audl-stats/internal/config"
	"github.com/albapepper/audl-stats/internal/possession"
	"github.com/albapepper/audl-stats/internal/provider"
	"github.com/albapepper/audl-stats/internal/provider/audl"
	"github.com/albapepper/audl-stats/internal/seed"
)

// --------------------------------------------------------------------------
// Dependencies
// --------------------------------------------------------------------------

// Fetcher downloads and decodes one game.
type Fetcher interface {
	FetchGame(ctx context.Context, gameURL string) (*provider.Game, error)
}

// Store persists games and their load status.
type Store interface {
	Status(ctx context.Context, extGameID string) (string, error)
	LoadGame(ctx context.Context, game *provider.Game) (seed.Result, error)
	MarkFailed(ctx context.Context, extGameID string, cause error) error
}

// Notifier is told about every stored game.
type Notifier interface {
	GameLoaded(ctx context.Context, game *provider.Game, res seed.Result) error
}

// Deps holds the collaborators a run needs. Notifier may be nil.
type Deps struct {
	Fetcher  Fetcher
	Store    Store
	Notifier Notifier
	Logger   *slog.Logger
}

// Options tune a run.
type Options struct {
	Workers int
	// RetryFailed reloads games previously marked failed.
	RetryFailed bool
}

// --------------------------------------------------------------------------
// Results
// --------------------------------------------------------------------------

// Outcome is the final state of one game in a run.
type Outcome string

const (
	OutcomeLoaded  Outcome = "loaded"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// GameResult tracks the outcome of loading a single game.
type GameResult struct {
	URL       string
	ExtGameID string
	Outcome   Outcome
	Permanent bool
	Points    int
	Events    int
	Error     string
	Duration  time.Duration
}

// Summary returns a human-readable summary.
func (r *GameResult) Summary() string {
	return fmt.Sprintf("game=%s outcome=%s points=%d events=%d dur=%s",
		r.ExtGameID, r.Outcome, r.Points, r.Events, r.Duration.Round(time.Millisecond))
}

// Result tracks the outcome of a full batch run.
type Result struct {
	GamesFound        int
	GamesSkipped      int
	GamesLoaded       int
	GamesFailed       int
	PermanentFailures int
	PointsInserted    int
	EventsInserted    int
	Duration          time.Duration
	Errors            []string
	Games             []GameResult
}

// Summary returns a human-readable summary.
func (r *Result) Summary() string {
	return fmt.Sprintf(
		"found=%d skipped=%d loaded=%d failed=%d permanent=%d points=%d events=%d errors=%d dur=%s",
		r.GamesFound, r.GamesSkipped, r.GamesLoaded, r.GamesFailed, r.PermanentFailures,
		r.PointsInserted, r.EventsInserted, len(r.Errors), r.Duration.Round(time.Second),
	)
}

func (r *Result) add(g GameResult) {
	r.Games = append(r.Games, g)
	switch g.Outcome {
	case OutcomeSkipped:
		r.GamesSkipped++
	case OutcomeLoaded:
		r.GamesLoaded++
		r.PointsInserted += g.Points
		r.EventsInserted += g.Events
	case OutcomeFailed:
		r.GamesFailed++
		if g.Permanent {
			r.PermanentFailures++
		}
		r.Errors = append(r.Errors, fmt.Sprintf("game %s: %s", g.ExtGameID, g.Error))
	}
}

// --------------------------------------------------------------------------
// Run
// --------------------------------------------------------------------------

// Run loads every URL across a worker pool and returns aggregate counts.
func Run(ctx context.Context, deps *Deps, urls []string, opts Options) Result {
	start := time.Now()
	logger := deps.logger()
	result := Result{GamesFound: len(urls)}

	if len(urls) == 0 {
		logger.Info("No games to load")
		return result
	}

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(urls) {
		workers = len(urls)
	}

	ch := make(chan string, len(urls))
	for _, u := range urls {
		ch <- u
	}
	close(ch)

	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for u := range ch {
				if ctx.Err() != nil {
					return
				}
				g := LoadOne(ctx, deps, u, opts.RetryFailed)

				mu.Lock()
				result.add(g)
				done := len(result.Games)
				mu.Unlock()

				if done%25 == 0 {
					logger.Info("Batch progress", "processed", done, "total", len(urls))
				}
			}
		}()
	}

	wg.Wait()
	result.Duration = time.Since(start)

	logger.Info("Batch run complete", "summary", result.Summary())
	return result
}

// LoadOne fetches, tracks and stores a single game. Games already loaded
// (or permanently failed, unless retryFailed) are skipped.
func LoadOne(ctx context.Context, deps *Deps, gameURL string, retryFailed bool) GameResult {
	start := time.Now()
	logger := deps.logger()
	g := GameResult{URL: gameURL}

	extID, err := audl.ExtGameID(gameURL)
	if err != nil {
		return g.fail(err, true, start)
	}
	g.ExtGameID = extID

	status, err := deps.Store.Status(ctx, extID)
	if err != nil {
		return g.fail(err, false, start)
	}
	if status == config.LoadStatusLoaded || (status == config.LoadStatusFailed && !retryFailed) {
		g.Outcome = OutcomeSkipped
		g.Duration = time.Since(start)
		logger.Debug("Game skipped", "ext_game_id", extID, "status", status)
		return g
	}

	game, err := deps.Fetcher.FetchGame(ctx, gameURL)
	if err != nil {
		return g.record(ctx, deps, err, start)
	}

	res, err := deps.Store.LoadGame(ctx, game)
	if err != nil {
		return g.record(ctx, deps, err, start)
	}
	g.Outcome = OutcomeLoaded
	g.Points = res.PointsInserted
	g.Events = res.EventsInserted
	g.Duration = time.Since(start)
	logger.Debug("Game stored", "ext_game_id", extID, "summary", res.Summary())

	if deps.Notifier != nil {
		if err := deps.Notifier.GameLoaded(ctx, game, res); err != nil {
			logger.Warn("Publish failed", "ext_game_id", extID, "error", err)
		}
	}
	return g
}

// record stores a permanent failure in the database before returning it.
func (g GameResult) record(ctx context.Context, deps *Deps, err error, start time.Time) GameResult {
	permanent := IsPermanent(err)
	if permanent {
		if markErr := deps.Store.MarkFailed(ctx, g.ExtGameID, err); markErr != nil {
			deps.logger().Error("Could not record failure", "ext_game_id", g.ExtGameID, "error", markErr)
		}
	}
	return g.fail(err, permanent, start)
}

func (g GameResult) fail(err error, permanent bool, start time.Time) GameResult {
	g.Outcome = OutcomeFailed
	g.Permanent = permanent
	g.Error = err.Error()
	g.Duration = time.Since(start)
	return g
}

// IsPermanent reports whether a load error will recur on retry: the game
// data is bad, or the server says the game does not exist.
func IsPermanent(err error) bool {
	if possession.IsParseError(err) || errors.Is(err, audl.ErrMalformedPayload) {
		return true
	}
	var se *audl.StatusError
	return errors.As(err, &se) && !se.Temporary()
}

func (d *Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}
