// Command ingest is the AUDL game ingestion CLI.
//
// Usage:
//
//	audl-ingest migrate
//	audl-ingest parse --file game.json
//	audl-ingest load --url https://audl-stat-server.herokuapp.com/web-api/game-stats/2023-06-10-ATL-CAR
//	audl-ingest load --game 2023-06-10-ATL-CAR
//	audl-ingest batch --manifest urls_2021.csv --workers 4
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/albapepper/audl-stats/internal/batch"
	"github.com/albapepper/audl-stats/internal/config"
	"github.com/albapepper/audl-stats/internal/db"
	"github.com/albapepper/audl-stats/internal/possession"
	"github.com/albapepper/audl-stats/internal/provider/audl"
	"github.com/albapepper/audl-stats/internal/publisher"
	"github.com/albapepper/audl-stats/internal/seed"
)

var (
	logLevel = new(slog.LevelVar)
	logger   = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:          "audl-ingest",
		Short:        "AUDL game ingestion CLI",
		SilenceUsage: true,
	}

	root.AddCommand(migrateCmd())
	root.AddCommand(parseCmd())
	root.AddCommand(loadCmd())
	root.AddCommand(batchCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// migrate command
// --------------------------------------------------------------------------

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.RequireDatabase(); err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			if err := db.Migrate(ctx, cfg.DatabaseURL); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			logger.Info("Schema applied")
			return nil
		},
	}
}

// --------------------------------------------------------------------------
// parse command
// --------------------------------------------------------------------------

func parseCmd() *cobra.Command {
	var file string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Reconstruct a saved game payload offline, without a database",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(); err != nil {
				return err
			}
			return parseFile(file, asJSON, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Path to a game-stats JSON document")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the reconstructed points as JSON")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// parseFile decodes and tracks one saved payload and prints the points.
func parseFile(path string, asJSON bool, out io.Writer) error {
	body, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	game, err := audl.DecodeGame(body, "")
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	tracker := possession.NewTracker(
		func() possession.IDAllocator { return possession.NewSequentialAllocator(game.ExtGameID) },
		possession.NewSlogTracer(logger),
	)
	res, err := tracker.Track(game.TrackerInput(game.Home.OfflineLookup(), game.Away.OfflineLookup()))
	if err != nil {
		return fmt.Errorf("track %s: %w", game.ExtGameID, err)
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	return writeSummary(out, game.ExtGameID, game.HomeScore, game.AwayScore, res)
}

func writeSummary(out io.Writer, extGameID string, home, away int, res *possession.Result) error {
	played := make(map[string]int, len(res.Points))
	for _, pp := range res.PlayedPoints {
		played[pp.PointID]++
	}

	fmt.Fprintf(out, "%s  %d-%d  points=%d events=%d\n", extGameID, home, away, len(res.Points), res.EventCount())
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "POINT\tQ\tSTART\tEND\tEVENTS\tPLAYED")
	for _, p := range res.Points {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%d\t%d\n", p.Sequence, p.Quarter, p.StartTime, p.EndTime, len(p.Events), played[p.ID])
	}
	return tw.Flush()
}

// --------------------------------------------------------------------------
// load command
// --------------------------------------------------------------------------

func loadCmd() *cobra.Command {
	var gameURL, extGameID string
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Fetch one game and store its reconstruction",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(func(ctx context.Context, cfg *config.Config, deps *batch.Deps) error {
				u := gameURL
				if u == "" {
					if extGameID == "" {
						return fmt.Errorf("one of --url or --game is required")
					}
					u = deps.Fetcher.(*audl.Client).GameURL(extGameID)
				}
				// A single explicit load retries games previously marked failed.
				g := batch.LoadOne(ctx, deps, u, true)
				logger.Info("Load finished", "summary", g.Summary())
				if g.Outcome == batch.OutcomeFailed {
					return fmt.Errorf("load %s: %s", g.ExtGameID, g.Error)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&gameURL, "url", "", "Stats-server game URL")
	cmd.Flags().StringVar(&extGameID, "game", "", "External game id (resolved against AUDL_BASE_URL)")
	return cmd
}

// --------------------------------------------------------------------------
// batch command
// --------------------------------------------------------------------------

func batchCmd() *cobra.Command {
	var manifest string
	var workers int
	var retryFailed bool
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Load every game listed in a CSV or YAML manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			urls, err := batch.ReadManifest(manifest)
			if err != nil {
				return err
			}
			return runIngest(func(ctx context.Context, cfg *config.Config, deps *batch.Deps) error {
				start := time.Now()
				result := batch.Run(ctx, deps, urls, batch.Options{Workers: workers, RetryFailed: retryFailed})
				logger.Info("Batch finished", "duration", time.Since(start).Round(time.Second), "summary", result.Summary())
				for _, e := range result.Errors {
					logger.Error("load error", "error", e)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&manifest, "manifest", "", "Path to a .csv or .yaml manifest of game URLs")
	cmd.Flags().IntVar(&workers, "workers", 4, "Number of concurrent workers")
	cmd.Flags().BoolVar(&retryFailed, "retry-failed", false, "Reload games previously marked failed")
	_ = cmd.MarkFlagRequired("manifest")
	return cmd
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logLevel.Set(cfg.SlogLevel())
	return cfg, nil
}

// runIngest connects the database, the stats-server client and, when
// configured, the Redis publisher, then runs fn.
func runIngest(fn func(ctx context.Context, cfg *config.Config, deps *batch.Deps) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	deps := &batch.Deps{
		Fetcher: audl.NewClient(cfg.AUDLBaseURL, cfg.AUDLRequestsPerMinute, cfg.AUDLMaxRetries, logger),
		Store:   seed.NewLoader(pool.Pool, possession.NewSlogTracer(logger), logger),
		Logger:  logger,
	}

	if cfg.RedisURL != "" {
		pub, err := publisher.Connect(ctx, cfg.RedisURL, cfg.RedisStream, logger)
		if err != nil {
			logger.Warn("Publishing disabled", "error", err)
		} else {
			defer pub.Close()
			deps.Notifier = pub
			logger.Info("Publishing enabled", "stream", cfg.RedisStream)
		}
	}

	return fn(ctx, cfg, deps)
}
