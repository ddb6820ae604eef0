// Package audl provides the HTTP client and payload decoder for the AUDL
// stats server.
//
// The server returns one JSON document per game. Requests are paced by a
// token bucket limiter; transient failures (network errors, 429, 5xx) are
// retried with exponential backoff, anything else fails immediately.
package audl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/time/rate"

	"github.com/albapepper/audl-stats/internal/provider"
)

// DefaultBaseURL is the game-stats endpoint root.
const DefaultBaseURL = "https://audl-stat-server.herokuapp.com/web-api/game-stats"

// ErrMalformedPayload marks a response that downloaded fine but could not be
// decoded. Retrying will not help.
var ErrMalformedPayload = errors.New("malformed game payload")

// Client is the HTTP client for the stats server.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	maxTries   uint
	backOff    func() backoff.BackOff
	logger     *slog.Logger
}

// NewClient creates a stats-server client with rate limiting and retries.
// maxRetries is the number of retries after the first attempt.
func NewClient(baseURL string, requestsPerMinute, maxRetries int, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if requestsPerMinute < 1 {
		requestsPerMinute = 1
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	rps := float64(requestsPerMinute) / 60.0
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		maxTries:   uint(maxRetries) + 1,
		backOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 2 * time.Second
			b.MaxInterval = 30 * time.Second
			return b
		},
		logger: logger,
	}
}

// GameURL returns the stats-server URL for an external game id.
func (c *Client) GameURL(extGameID string) string {
	return c.baseURL + "/" + url.PathEscape(extGameID)
}

// FetchGame downloads and decodes one game.
func (c *Client) FetchGame(ctx context.Context, gameURL string) (*provider.Game, error) {
	extID, err := ExtGameID(gameURL)
	if err != nil {
		return nil, err
	}

	body, err := c.get(ctx, gameURL)
	if err != nil {
		return nil, fmt.Errorf("fetch game %s: %w", extID, err)
	}

	game, err := DecodeGame(body, extID)
	if err != nil {
		return nil, fmt.Errorf("decode game %s: %w: %w", extID, ErrMalformedPayload, err)
	}
	// Load status is keyed by the URL's id, so the stored game must use it too.
	if game.ExtGameID != extID {
		return nil, fmt.Errorf("decode game %s: %w: payload is for game %q", extID, ErrMalformedPayload, game.ExtGameID)
	}
	return game, nil
}

// StatusError is a non-200 response from the stats server.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("stats server %s returned %d: %s", e.URL, e.StatusCode, e.Body)
}

// Temporary reports whether a retry could succeed.
// 429 and 5xx are transient; every other status is final.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// get performs a rate-limited GET with retries on transient failures.
func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	attempt := 0
	op := func() ([]byte, error) {
		attempt++
		body, err := c.getOnce(ctx, u)
		if err == nil {
			return body, nil
		}
		var se *StatusError
		if errors.As(err, &se) && !se.Temporary() {
			return nil, backoff.Permanent(err)
		}
		if ctx.Err() != nil {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(c.backOff()),
		backoff.WithMaxTries(c.maxTries),
		backoff.WithNotify(func(err error, wait time.Duration) {
			c.logger.Warn("Stats server request failed, retrying",
				"url", u, "attempt", attempt, "wait", wait, "error", err)
		}),
	)
}

func (c *Client) getOnce(ctx context.Context, u string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: u, StatusCode: resp.StatusCode, Body: truncate(body, 200)}
	}
	return body, nil
}

// ExtGameID derives the external game id from a game URL: the gameID query
// parameter when present, otherwise the last path segment.
func ExtGameID(gameURL string) (string, error) {
	u, err := url.Parse(gameURL)
	if err != nil {
		return "", fmt.Errorf("parse game url %q: %w", gameURL, err)
	}
	if id := u.Query().Get("gameID"); id != "" {
		return id, nil
	}
	base := path.Base(strings.TrimRight(u.Path, "/"))
	if base == "." || base == "/" || base == "" {
		return "", fmt.Errorf("game url %q has no game id", gameURL)
	}
	return base, nil
}

// truncate returns a truncated string representation for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
