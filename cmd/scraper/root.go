package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/aluiziolira/go-scrape-prices/config"
	"github.com/aluiziolira/go-scrape-prices/models"
	"github.com/aluiziolira/go-scrape-prices/pipeline"
	"github.com/aluiziolira/go-scrape-prices/scraper"
)

// NewRootCmd creates the scraper command.
func NewRootCmd() *cobra.Command {
	defaults := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "scraper",
		Short: "Crawl a price comparison site into a deduplicated product dataset",
		Long: `scraper walks every category of the comparison site, extracts one record
per store offering each product and groups offers of the same product under a
shared batch_id. The dataset is rewritten after every product.

Settings are read from the defaults, then an optional YAML file (--config),
then SCRAPER_* environment variables, then flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd.Flags())
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("config", "", "YAML configuration file")
	flags.String("base-url", defaults.BaseURL, "Site root to crawl")
	flags.StringP("output", "o", defaults.OutputFile, "Output file path")
	flags.String("format", defaults.OutputFormat, "Output format: json, csv, sqlite, or dual")
	flags.Int("workers", defaults.Workers, "Product pages fetched concurrently per category")
	flags.Int("pages", defaults.MaxPages, "Maximum listing pages per category")
	flags.Duration("delay", defaults.Delay, "Pause between requests")
	flags.Duration("random-delay", defaults.RandomDelay, "Random jitter added to each request")
	flags.Duration("timeout", defaults.Timeout, "Per-request timeout")
	flags.Int("max-retries", defaults.MaxRetries, "Maximum retry attempts per URL")
	flags.Duration("retry-backoff", defaults.RetryBackoff, "Initial retry backoff")
	flags.Duration("retry-backoff-max", defaults.RetryBackoffMax, "Maximum retry backoff")
	flags.Bool("respect-robots", defaults.RespectRobotsTxt, "Respect robots.txt directives")
	flags.String("metrics-addr", defaults.MetricsAddr, "Prometheus metrics listen address (e.g. :9090)")
	flags.Int("cache-size", defaults.ProductCacheSize, "Product pages remembered across categories; a product listed again reuses its first extraction (0 refetches every time)")
	flags.BoolP("verbose", "v", defaults.Verbose, "Enable verbose logging")

	return cmd
}

// resolveConfig layers the config file, environment and explicitly set flags
// over the defaults.
func resolveConfig(flags *pflag.FlagSet) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if path, _ := flags.GetString("config"); path != "" {
		loaded, err := config.LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return nil, err
	}

	var err error
	set := func(name string, apply func()) {
		if err == nil && flags.Changed(name) {
			apply()
		}
	}
	str := func(name string) string {
		v, e := flags.GetString(name)
		err = errors.Join(err, e)
		return v
	}
	num := func(name string) int {
		v, e := flags.GetInt(name)
		err = errors.Join(err, e)
		return v
	}
	dur := func(name string) time.Duration {
		v, e := flags.GetDuration(name)
		err = errors.Join(err, e)
		return v
	}
	boolean := func(name string) bool {
		v, e := flags.GetBool(name)
		err = errors.Join(err, e)
		return v
	}

	set("base-url", func() { cfg.BaseURL = str("base-url") })
	set("output", func() { cfg.OutputFile = str("output") })
	set("format", func() { cfg.OutputFormat = strings.ToLower(str("format")) })
	set("workers", func() { cfg.Workers = num("workers") })
	set("pages", func() { cfg.MaxPages = num("pages") })
	set("delay", func() { cfg.Delay = dur("delay") })
	set("random-delay", func() { cfg.RandomDelay = dur("random-delay") })
	set("timeout", func() { cfg.Timeout = dur("timeout") })
	set("max-retries", func() { cfg.MaxRetries = num("max-retries") })
	set("retry-backoff", func() { cfg.RetryBackoff = dur("retry-backoff") })
	set("retry-backoff-max", func() { cfg.RetryBackoffMax = dur("retry-backoff-max") })
	set("respect-robots", func() { cfg.RespectRobotsTxt = boolean("respect-robots") })
	set("metrics-addr", func() { cfg.MetricsAddr = str("metrics-addr") })
	set("cache-size", func() { cfg.ProductCacheSize = num("cache-size") })
	set("verbose", func() { cfg.Verbose = boolean("verbose") })
	if err != nil {
		return nil, fmt.Errorf("read flags: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func run(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	logger, level := newLogger(cfg.Verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	slog.Info("starting crawl",
		slog.String("base_url", cfg.BaseURL),
		slog.String("output", cfg.OutputFile),
		slog.String("format", cfg.OutputFormat),
		slog.Int("workers", cfg.Workers),
	)

	s, err := scraper.NewScraper(cfg,
		scraper.WithLogger(logger),
		scraper.WithReporter(scraper.NewConsoleReporter(os.Stderr)),
	)
	if err != nil {
		return fmt.Errorf("initialising scraper: %w", err)
	}

	writer, err := createWriter(cfg.OutputFormat, cfg.OutputFile)
	if err != nil {
		return fmt.Errorf("creating writer: %w", err)
	}
	p := pipeline.NewPipeline(writer, nil)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           promhttp.HandlerFor(s.Metrics.Registry, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	result, runErr := s.Run(ctx, p)

	// A crawl that kept nothing still leaves an empty dataset behind.
	if result != nil && (runErr == nil || errors.Is(runErr, context.Canceled)) {
		if err := p.Flush(); err != nil {
			runErr = fmt.Errorf("writing dataset: %w", err)
		}
	}

	if err := p.Close(); err != nil && runErr == nil {
		runErr = fmt.Errorf("pipeline shutdown failed: %w", err)
	}
	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	if result != nil {
		printSummary(result, cfg.OutputFile)
	}
	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			slog.Info("crawl interrupted, dataset holds every product completed so far")
			return nil
		}
		return runErr
	}

	if err := writer.Validate(); err != nil {
		return fmt.Errorf("output validation failed: %w", err)
	}
	slog.Info("all data saved", slog.String("output", cfg.OutputFile))
	return nil
}

func createWriter(format, filename string) (pipeline.DatasetWriter, error) {
	switch format {
	case "json":
		return pipeline.NewJSONWriter(filename)
	case "csv":
		return pipeline.NewCSVWriter(filename)
	case "sqlite":
		return pipeline.NewSQLiteWriter(filename)
	case "dual":
		csvFilename := strings.TrimSuffix(filename, ".json") + ".csv"
		return pipeline.NewDualWriter(filename, csvFilename)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func printSummary(result *models.CrawlResult, outputFile string) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Crawl complete")
	fmt.Printf("  Run ID:        %s\n", result.RunID)
	fmt.Printf("  Categories:    %d (%d skipped)\n", result.Categories, len(result.FailedCategories))
	fmt.Printf("  Products:      %d (%d failed)\n", result.Products, len(result.FailedProducts))
	fmt.Printf("  Offers:        %d\n", result.Offers)
	fmt.Printf("  Batches:       %d\n", result.Batches)
	fmt.Printf("  Pages:         %d\n", result.PageCount)
	fmt.Printf("  Requests:      %d\n", result.RequestCount)
	fmt.Printf("  Retries:       %d\n", result.RetryCount)
	if len(result.ErrorsByType) > 0 {
		fmt.Printf("  Error types:   %v\n", result.ErrorsByType)
	}
	fmt.Printf("  Duration:      %v\n", result.EndTime.Sub(result.StartTime))
	fmt.Printf("  Output file:   %s\n", outputFile)
	fmt.Println(separator)
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
