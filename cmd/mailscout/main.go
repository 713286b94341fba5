// cmd/mailscout/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"google.golang.org/api/youtube/v3"

	"mailscout/internal/adapters/output"
	"mailscout/internal/adapters/webpage"
	"mailscout/internal/adapters/youtubeapi"
	"mailscout/internal/adapters/ytdlp"
	"mailscout/internal/core/domain"
	"mailscout/internal/core/ports"
	"mailscout/internal/core/usecases"
	"mailscout/internal/platform/config"
	"mailscout/internal/platform/logx"
	"mailscout/internal/platform/rate"
	"mailscout/internal/platform/resilience"
	"mailscout/internal/platform/ui"
)

var (
	// Set with -ldflags at build time
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	// 1. Environment file, then layered config
	_ = godotenv.Load()

	cfg, err := config.Load(args)
	if err != nil {
		logx.NewWithWriter(stderr, logx.LevelInfo).Err(err, "phase", "config")
		fmt.Fprintln(stderr, "Try: mailscout -h for help")
		return 2
	}
	if cfg.ShowHelp {
		config.PrintHelp(stdout)
		return 0
	}
	if cfg.PrintVersion {
		config.PrintVersion(stdout, version, commit, date)
		return 0
	}

	// 2. Shared logger
	logger := logx.NewWithWriter(stderr, logx.ParseLevel(cfg.Log.Level))
	if js, err := cfg.ToJSON(); err == nil {
		logger.Debug("configuration loaded", "config", js)
	}

	// 3. Context and signals for clean shutdown
	ctx, cancel := rootContextWithSignals(cfg.Core.Timeout)
	defer cancel()

	// 4. Backends, sharing one limiter with the retries
	limiter := rate.New(cfg.RateConfig())
	backends, err := buildBackends(ctx, cfg, limiter, logger)
	if err != nil {
		logger.Err(err, "phase", "config")
		return 2
	}
	defer backends.close(logger)

	runID := uuid.NewString()
	if !cfg.Output.Quiet {
		ui.PrintRunInfo(stdout, ui.RunInfo{
			RunID:      runID,
			Channel:    cfg.Core.ChannelURL,
			MaxVideos:  cfg.Core.MaxVideos,
			Workers:    cfg.Core.Workers,
			Delay:      cfg.Rate.Delay,
			BatchSize:  cfg.Rate.BatchSize,
			BatchDelay: cfg.Rate.BatchDelay,
			Enumerator: backends.enumerator.Name(),
			Fetcher:    backends.fetcher.Name(),
		})
	}

	// 5. Harvest
	harvester := usecases.NewHarvester(usecases.HarvesterOptions{
		Fetcher:  backends.fetcher,
		Limiter:  limiter,
		Workers:  cfg.Core.Workers,
		Logger:   logger,
		Progress: ui.NewProgress(stdout, cfg.Output.Quiet),
	})
	orch := usecases.NewOrchestrator(usecases.OrchestratorOptions{
		Enumerator: backends.enumerator,
		Harvester:  harvester,
		MaxVideos:  cfg.Core.MaxVideos,
		RunID:      runID,
		Logger:     logger,
	})

	logger.Info("mailscout starting",
		"version", version,
		"channel", cfg.Core.ChannelURL,
		"max_videos", cfg.Core.MaxVideos,
		"workers", cfg.Core.Workers,
	)

	result, runErr := orch.Run(ctx, cfg.Core.ChannelURL)
	if result == nil {
		logger.Err(runErr, "phase", "enumerate")
		fmt.Fprintf(stderr, "Error: %v\n", runErr)
		return 2
	}
	if runErr != nil {
		// partial results are still written
		logger.Err(runErr, "phase", "process")
	}

	// 6. Outputs
	files, outErr := writeOutputs(cfg, result, stdout)
	if outErr != nil {
		logger.Err(outErr, "phase", "output")
		return 1
	}

	stats := result.Stats()
	logger.Info("mailscout finished",
		"elapsed_ms", result.Metadata.Duration.Milliseconds(),
		"processed", stats.Processed,
		"failed", stats.Failed,
		"emails", stats.DistinctEmails,
		"files", len(files),
	)

	if runErr != nil {
		return 1
	}
	return 0
}

// backends holds the enumerator and fetcher of a run together with the
// resources to release once it is over.
type backends struct {
	enumerator ports.Enumerator
	fetcher    ports.Fetcher
	closers    []io.Closer
}

func (b *backends) close(logger logx.Logger) {
	for _, c := range b.closers {
		if err := c.Close(); err != nil {
			logger.Warn("failed to release backend", "error", err.Error())
		}
	}
}

// buildBackends wires the configured enumerator and fetcher. The enumerator
// and the fetcher never share a yt-dlp runner: the enumerator's runner is
// closed before harvesting starts.
func buildBackends(ctx context.Context, cfg config.Config, limiter *rate.Limiter, logger logx.Logger) (*backends, error) {
	b := &backends{}

	var svc *youtube.Service
	if cfg.Source.Enumerator == config.BackendAPI || cfg.Source.Fetcher == config.BackendAPI {
		s, err := youtubeapi.NewService(ctx, cfg.Source.APIKey)
		if err != nil {
			return nil, fmt.Errorf("youtube api: %w", err)
		}
		svc = s
	}

	newRunner := func() (*ytdlp.ExecRunner, error) {
		r := ytdlp.NewExecRunner(cfg.Source.YtDlpPath, logger)
		if err := r.Init(ctx); err != nil {
			return nil, fmt.Errorf("yt-dlp unavailable (install it or use --enumerator webpage --fetcher api): %w", err)
		}
		return r, nil
	}

	switch cfg.Source.Enumerator {
	case config.BackendWebpage:
		b.enumerator = webpage.NewEnumerator(nil, logger)
	case config.BackendAPI:
		b.enumerator = youtubeapi.NewEnumerator(svc, logger)
	default:
		r, err := newRunner()
		if err != nil {
			return nil, err
		}
		b.enumerator = ytdlp.NewEnumerator(r, logger)
	}

	var fetcher ports.Fetcher
	switch cfg.Source.Fetcher {
	case config.BackendAPI:
		fetcher = youtubeapi.NewFetcher(svc)
	default:
		r, err := newRunner()
		if err != nil {
			_ = b.enumerator.Close()
			return nil, err
		}
		b.closers = append(b.closers, r)
		fetcher = ytdlp.NewFetcher(r, ytdlp.FetcherOptions{
			Timeout: cfg.Source.FetchTimeout,
			Logger:  logger,
		})
	}

	if cfg.Source.Retries > 0 {
		fetcher = resilience.NewRetryableFetcher(
			fetcher,
			limiter,
			cfg.Source.Retries,
			cfg.Source.RetryBackoff,
			2.0,
			logger,
		)
		logger.Debug("wrapped fetcher with retries",
			"fetcher", fetcher.Name(),
			"max_retries", cfg.Source.Retries,
		)
	}
	b.fetcher = fetcher

	return b, nil
}

// writeOutputs always writes JSON and CSV, then the summary unless disabled.
func writeOutputs(cfg config.Config, result *domain.AggregateResult, stdout io.Writer) ([]string, error) {
	exporters := []ports.Exporter{
		output.NewJSONExporter(cfg.Output.Prefix),
		output.NewCSVExporter(cfg.Output.Prefix),
	}

	files := make([]string, 0, len(exporters))
	var errs []error
	for _, e := range exporters {
		if err := e.Export(result); err != nil {
			errs = append(errs, fmt.Errorf("%s output: %w", e.Name(), err))
			continue
		}
		files = append(files, e.Path())
	}
	if len(errs) > 0 {
		return files, errors.Join(errs...)
	}

	if !cfg.Output.Quiet && !cfg.Output.TableDisabled {
		if err := output.WriteSummary(stdout, result, files); err != nil {
			return files, fmt.Errorf("summary output: %w", err)
		}
	}

	return files, nil
}

// rootContextWithSignals creates a root context with optional timeout and
// signal cancellation. The returned cancel function releases the signal
// handler.
func rootContextWithSignals(timeout time.Duration) (context.Context, context.CancelFunc) {
	var base context.Context
	var baseCancel context.CancelFunc

	if timeout > 0 {
		base, baseCancel = context.WithTimeout(context.Background(), timeout)
	} else {
		base, baseCancel = context.WithCancel(context.Background())
	}

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-ch:
			baseCancel()
		case <-base.Done():
		}
	}()

	cleanup := func() {
		signal.Stop(ch)
		baseCancel()
	}

	return base, cleanup
}
