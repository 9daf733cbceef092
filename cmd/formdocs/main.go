package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/formulary/formdocs/internal/build"
	"github.com/formulary/formdocs/internal/config"
	"github.com/formulary/formdocs/internal/history"
	"github.com/formulary/formdocs/internal/logfields"
	"github.com/formulary/formdocs/internal/metrics"
	"github.com/formulary/formdocs/internal/search"
	"github.com/formulary/formdocs/internal/watch"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"formdocs.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Build struct {
		Output string `short:"o" help:"Override output content directory"`
	} `cmd:"" default:"1" help:"Rebuild the content tree from the registry index"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Write a default configuration file"`

	Watch struct {
		Interval    time.Duration `help:"Periodic full rebuild interval (0 disables)"`
		MetricsAddr string        `help:"Serve Prometheus metrics on this address (e.g. :9130)"`
	} `cmd:"" help:"Rebuild continuously on registry changes"`

	Search struct {
		Query  []string `arg:"" help:"Query tokens"`
		Latest bool     `help:"Match only latest versions"`
		Limit  int      `default:"20" help:"Maximum results to print"`
	} `cmd:"" help:"Search the generated package metadata"`

	History struct {
		Limit int `default:"10" help:"Number of recent runs to show"`
	} `cmd:"" help:"Show recent build runs"`
}

func main() {
	ctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	var err error
	switch ctx.Command() {
	case "build":
		err = runBuild()
	case "init":
		err = config.Init(CLI.Config, CLI.Init.Force)
	case "watch":
		err = runWatch()
	case "search <query>":
		err = runSearch()
	case "history":
		err = runHistory()
	default:
		err = fmt.Errorf("unknown command %q", ctx.Command())
	}
	if err != nil {
		slog.Error("Command failed", logfields.Error(err))
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return nil, err
	}
	if CLI.Build.Output != "" {
		cfg.Output.Dir = CLI.Build.Output
	}
	return cfg, nil
}

func runBuild() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	res, err := build.New(cfg).Run(context.Background())
	if err != nil {
		return err
	}
	return recordRun(cfg, res)
}

func runWatch() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if CLI.Watch.Interval > 0 {
		cfg.Watch.Interval = config.Duration(CLI.Watch.Interval)
	}
	if CLI.Watch.MetricsAddr != "" {
		cfg.Metrics.Addr = CLI.Watch.MetricsAddr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	recorder := metrics.Recorder(metrics.NoopRecorder{})
	if cfg.Metrics.Addr != "" {
		reg := prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(reg)
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: metrics.HTTPHandler(reg)}
		go func() {
			slog.Info("Serving metrics", slog.String("addr", cfg.Metrics.Addr))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("Metrics server failed", logfields.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	rebuild := func(ctx context.Context) error {
		res, err := build.New(cfg).SetRecorder(recorder).Run(ctx)
		if err != nil {
			return err
		}
		return recordRun(cfg, res)
	}

	// One full build up front so the watcher starts from current state.
	if err := rebuild(ctx); err != nil {
		return err
	}

	exclude := []string{
		cfg.Output.Dir,
		cfg.Output.Dir + "_stage",
		cfg.Output.Dir + ".prev",
	}
	if cfg.History.Path != "" {
		exclude = append(exclude, filepath.Dir(cfg.History.Path))
	}
	w, err := watch.New(cfg.Registry.Root, exclude, cfg.Watch.Debounce.Std(), cfg.Watch.Interval.Std(), rebuild)
	if err != nil {
		return err
	}
	if err := w.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	slog.Info("Watch stopped")
	return nil
}

func runSearch() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	docs, err := search.LoadDocuments(cfg.Output.Dir)
	if err != nil {
		return err
	}

	results := search.Query(docs, strings.Join(CLI.Search.Query, " "), CLI.Search.Latest)
	if CLI.Search.Limit > 0 && len(results) > CLI.Search.Limit {
		results = results[:CLI.Search.Limit]
	}
	if len(results) == 0 {
		fmt.Println("no matches")
		return nil
	}
	for _, doc := range results {
		marker := " "
		if doc.Latest {
			marker = "*"
		}
		fmt.Printf("%s %s@%s\t%s\n", marker, doc.Name, doc.Version, doc.Description)
	}
	return nil
}

func runHistory() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.History.Path == "" {
		return fmt.Errorf("build history is disabled (history.path is empty)")
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Recent(context.Background(), CLI.History.Limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no recorded runs")
		return nil
	}
	for _, run := range runs {
		fmt.Printf("%s  %s  %-7s  packages=%d versions=%d skipped=%d warnings=%d  %s\n",
			run.StartedAt.Format(time.RFC3339), run.ID, run.Outcome,
			run.Packages, run.Versions, run.Skipped, run.Warnings, run.Duration)
	}
	return nil
}

// recordRun appends the run summary to the history database when enabled.
// History is an operator convenience; failures there never fail the build.
func recordRun(cfg *config.Config, res *build.Result) error {
	if cfg.History.Path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.History.Path), 0o755); err != nil {
		slog.Warn("Failed to create history directory", logfields.Error(err))
		return nil
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		slog.Warn("Failed to open history database", logfields.Error(err))
		return nil
	}
	defer store.Close()

	err = store.Record(context.Background(), history.Run{
		ID:        res.RunID,
		StartedAt: res.StartedAt,
		Duration:  res.Duration,
		Packages:  res.Packages,
		Versions:  res.Versions,
		Skipped:   res.Skipped,
		Warnings:  res.Warnings,
		Outcome:   "success",
	})
	if err != nil {
		slog.Warn("Failed to record build run", logfields.Error(err))
	}
	return nil
}
