// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/poiesic/profilematch"
	"github.com/poiesic/profilematch/api"
	"github.com/poiesic/profilematch/config"
	"github.com/poiesic/profilematch/core"
	"github.com/poiesic/profilematch/reembed"
	"github.com/poiesic/profilematch/report"
	"github.com/poiesic/profilematch/search"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "profilematch",
		Usage: "Researcher profile ingestion and match scoring",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
			},
			&cli.StringSliceFlag{
				Name:  "env-file",
				Usage: "Dotenv files to read before the process environment",
				Value: cli.NewStringSlice(".env"),
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory (overrides config)",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address (overrides config)",
					},
					&cli.IntFlag{
						Name:  "max-concurrency",
						Usage: "Maximum requests handled at once (overrides config)",
					},
				},
			},
			{
				Name:      "scrape",
				Usage:     "Scrape, extract, embed and store profiles",
				ArgsUsage: "URL [URL...]",
				Action:    scrapeCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "initialize-schema",
						Usage: "Prepare the store before inserting",
					},
					&cli.IntFlag{
						Name:  "partitions",
						Usage: "Number of URL partitions processed concurrently (overrides config)",
					},
				},
			},
			{
				Name:   "score",
				Usage:  "Score profiles from a JSON file against a query",
				Action: scoreCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "query",
						Aliases:  []string{"q"},
						Usage:    "Research interest to match",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "profiles",
						Aliases:  []string{"p"},
						Usage:    "JSON file holding an array of profiles",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "strategy",
						Usage: "Rerank strategy (semantic or hybrid)",
						Value: string(core.RerankHybrid),
					},
					&cli.StringFlag{
						Name:  "xlsx",
						Usage: "Also write the results to an Excel workbook at this path",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Search stored profiles",
				ArgsUsage: "QUERY",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results",
						Value: search.DefaultLimit,
					},
					&cli.StringSliceFlag{
						Name:  "url",
						Usage: "Profile URL to scrape before searching (repeatable)",
					},
					&cli.StringFlag{
						Name:  "xlsx",
						Usage: "Also write the results to an Excel workbook at this path",
					},
				},
			},
			{
				Name:      "embed",
				Usage:     "Print embeddings for the given texts",
				ArgsUsage: "TEXT [TEXT...]",
				Action:    embedCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "normalize",
						Usage: "L2-normalize the vectors",
						Value: true,
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Reembed all stored profiles with the configured embedding model",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of profiles to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N profiles",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
					&cli.BoolFlag{
						Name:  "fresh",
						Usage: "Ignore any saved checkpoint and start from the beginning",
					},
				},
			},
		},
	}
}

// loadConfig reads configuration and applies global flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"), c.StringSlice("env-file")...)
	if err != nil {
		return nil, err
	}
	if db := c.String("db"); db != "" {
		cfg.Database.Path = db
	}
	return cfg, nil
}

func openService(cfg *config.Config) (*profilematch.Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	svc, err := profilematch.NewService(cfg, profilematch.WithLogger(slog.Default()))
	if err != nil {
		return nil, fmt.Errorf("failed to start service: %w", err)
	}
	return svc, nil
}

func serveCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if addr := c.String("addr"); addr != "" {
		cfg.Server.Addr = addr
	}
	if n := c.Int("max-concurrency"); n > 0 {
		cfg.Server.MaxConcurrency = n
	}

	svc, err := openService(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	server, err := api.NewServer(svc,
		api.WithMaxConcurrency(cfg.Server.MaxConcurrency),
		api.WithRequestTimeout(cfg.Server.RequestTimeout),
		api.WithConfigErrorClassifier(profilematch.IsConfigurationError),
		api.WithLogger(slog.Default()))
	if err != nil {
		return err
	}
	defer server.Release()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("listening", "addr", cfg.Server.Addr, "db", cfg.Database.Path)
	return server.ListenAndServe(ctx, cfg.Server.Addr)
}

func scrapeCommand(c *cli.Context) error {
	urls := c.Args().Slice()
	if len(urls) == 0 {
		return fmt.Errorf("at least one URL is required")
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if n := c.Int("partitions"); n > 0 {
		cfg.Ingestion.Partitions = n
	}

	svc, err := openService(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	summary, err := svc.Scrape(c.Context, urls, c.Bool("initialize-schema"))
	if err != nil {
		return fmt.Errorf("scrape failed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Scraped %d URLs: %d succeeded, %d failed\n",
		summary.Total(), summary.SuccessCount(), summary.FailureCount())
	return printJSON(summary)
}

func scoreCommand(c *cli.Context) error {
	strategy, err := core.ParseRerankStrategy(c.String("strategy"))
	if err != nil {
		return err
	}
	profiles, err := readProfiles(c.String("profiles"))
	if err != nil {
		return err
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	svc, err := openService(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	results, err := svc.Score(c.Context, c.String("query"), profiles, strategy)
	if err != nil {
		return fmt.Errorf("scoring failed: %w", err)
	}
	if err := writeReport(c.String("xlsx"), c.String("query"), results); err != nil {
		return err
	}
	return printJSON(results)
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("a search query is required")
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	svc, err := openService(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	results, err := svc.Search(c.Context, query, search.Options{
		Limit: c.Int("limit"),
		URLs:  c.StringSlice("url"),
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if err := writeReport(c.String("xlsx"), query, results); err != nil {
		return err
	}

	fmt.Printf("Found %d hits\n", len(results))
	for i, r := range results {
		fmt.Printf("%d: %s (%s)[%0.3f]\n", i, r.Profile.Name, r.Profile.ProfileURL, r.Scores.FinalScore)
	}
	return nil
}

func embedCommand(c *cli.Context) error {
	texts := c.Args().Slice()
	if len(texts) == 0 {
		return fmt.Errorf("at least one text is required")
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	svc, err := openService(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	vectors, model, err := svc.Embed(c.Context, texts, c.Bool("normalize"))
	if err != nil {
		return fmt.Errorf("embedding failed: %w", err)
	}
	return printJSON(map[string]any{"embeddings": vectors, "model": model})
}

func reembedCommand(c *cli.Context) error {
	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
		Resume:         !c.Bool("fresh"),
	}

	// Validate config
	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	svc, err := openService(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	fmt.Fprintf(os.Stderr, "Database: %s\n", cfg.Database.Path)
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", cfg.AI.EmbeddingHost)
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", cfg.AI.EmbeddingModel)
	fmt.Fprintln(os.Stderr)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := svc.Reembed(ctx, reembedConfig, os.Stderr); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}

func readProfiles(path string) ([]*core.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profiles: %w", err)
	}
	var profiles []*core.Profile
	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("failed to parse profiles: %w", err)
	}
	for i, p := range profiles {
		if err := core.ValidateProfile(p); err != nil {
			return nil, fmt.Errorf("profile %d: %w", i, err)
		}
	}
	return profiles, nil
}

// writeReport is a no-op when path is empty.
func writeReport(path, query string, results []*core.ScoreResult) error {
	if path == "" {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	if err := report.WriteXLSX(f, query, results); err != nil {
		f.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	slog.Info("wrote report", "path", path, "results", len(results))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

var _ api.Backend = (*profilematch.Service)(nil)
