// Command dispatcher runs the fan-out dispatcher: it reads records from
// a configured input artifact, transforms and delivers each one to every
// configured sink under per-sink rate limits, retries soft failures up
// to a ceiling, and durably captures terminal failures to the DLQ.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/lgreene/fanout-dispatcher/internal/config"
	"github.com/lgreene/fanout-dispatcher/internal/dlq"
	"github.com/lgreene/fanout-dispatcher/internal/logging"
	"github.com/lgreene/fanout-dispatcher/internal/metrics"
	"github.com/lgreene/fanout-dispatcher/internal/model"
	"github.com/lgreene/fanout-dispatcher/internal/orchestrator"
	"github.com/lgreene/fanout-dispatcher/internal/queue"
	"github.com/lgreene/fanout-dispatcher/internal/report"
	"github.com/lgreene/fanout-dispatcher/internal/sink"
	"github.com/lgreene/fanout-dispatcher/internal/source"
	"github.com/lgreene/fanout-dispatcher/internal/transform"
	"github.com/lgreene/fanout-dispatcher/pkg/storage"
)

const defaultTestModeRecords = 5

func main() {
	os.Exit(run())
}

func run() int {
	var configPath string
	var verbose bool
	flag.StringVar(&configPath, "config", "", "path to YAML config file")
	flag.BoolVar(&verbose, "verbose", false, "enable debug-level logging")

	// --testMode is an optional-value flag: bare `--testMode` selects the
	// caller default (5 records); `--testMode=N` bounds the run to N.
	var testModeFlag testModeValue
	flag.Var(&testModeFlag, "testMode", "bounded test mode; optional record count (default 5)")
	flag.Parse()

	logger := logging.New(verbose)

	testMode, err := parseTestMode(string(testModeFlag), isFlagSet(flag.CommandLine, "testMode"))
	if err != nil {
		logger.Error("dispatcher: invalid --testMode value: {Error}", err)
		return 1
	}

	cfg, err := config.Load(configPath, logger)
	if err != nil {
		logger.Error("dispatcher: failed to load config {Path}: {Error}", configPath, err)
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Information("dispatcher: shutdown signal received, draining")
		cancel()
	}()

	src, err := source.Build(cfg.Input.Format, cfg.Input.FilePath, cfg.Input.FixedWidths, cfg.Input.CSVHeader, logger)
	if err != nil {
		logger.Error("dispatcher: failed to build record source: {Error}", err)
		return 1
	}

	q := queue.New[model.Record](cfg.Queue.Capacity)

	registry := transform.DefaultRegistry()

	sinkCfgs := []sink.Config{
		{Role: model.RoleREST, RateLimit: cfg.Sinks.REST.RateLimit, RESTEndpoint: cfg.Sinks.REST.Endpoint},
		{Role: model.RoleGRPC, RateLimit: cfg.Sinks.GRPC.RateLimit, StoreDir: cfg.Sinks.GRPC.StoreDir},
		{Role: model.RoleMQ, RateLimit: cfg.Sinks.MQ.RateLimit, StoreDir: cfg.Sinks.MQ.StoreDir},
		{Role: model.RoleDB, RateLimit: cfg.Sinks.DB.RateLimit, StoreDir: cfg.Sinks.DB.StoreDir},
	}
	built, err := sink.BuildAll(ctx, sinkCfgs, logger)
	if err != nil {
		logger.Error("dispatcher: failed to build sinks: {Error}", err)
		return 1
	}
	go sink.RunLimiters(ctx, built)

	dead := dlq.New(cfg.DLQ.FilePath, cfg.DLQ.Enabled, logger)
	defer dead.Close()

	if cfg.DLQ.ArchiveIntervalSeconds > 0 {
		archiveStore, err := storage.NewLocalStore(archiveDirOrDefault(cfg.DLQ.ArchivePath))
		if err != nil {
			logger.Warning("dispatcher: failed to initialize DLQ archive store: {Error}", err)
		} else {
			archiver := dlq.NewArchiver(dead, archiveStore, "dlq-archive", time.Duration(cfg.DLQ.ArchiveIntervalSeconds)*time.Second, logger)
			go archiver.Run(ctx)
		}
	}

	m := metrics.New()

	if cfg.Metrics.IntervalSeconds > 0 {
		roles := []model.SinkRole{model.RoleREST, model.RoleGRPC, model.RoleMQ, model.RoleDB}
		reporter := report.NewReporter(m, roles, time.Duration(cfg.Metrics.IntervalSeconds)*time.Second, logger)
		go reporter.Run(ctx)
	}
	if cfg.Metrics.ListenAddr != "" {
		srv := report.NewServer(cfg.Metrics.ListenAddr, logger)
		go srv.Run(ctx)
	}

	orch := orchestrator.New(
		orchestrator.Config{MaxRetries: cfg.DLQ.MaxRetries, TestMode: testMode},
		q, src, registry, built, dead, m, logger,
	)

	if err := orch.Run(ctx); err != nil {
		logger.Error("dispatcher: run failed: {Error}", err)
		return 1
	}

	logger.Information("dispatcher: drained cleanly, processed={Processed}", m.Processed())
	return 0
}

// parseTestMode interprets the optional-value --testMode flag: absent
// means streaming mode (0), present with no value means the caller
// default, present with a value means that bound.
func parseTestMode(value string, set bool) (int, error) {
	if !set {
		return 0, nil
	}
	if value == "" {
		return defaultTestModeRecords, nil
	}
	return strconv.Atoi(value)
}

// testModeValue reports itself as a boolean flag so a bare --testMode
// parses; the flag package then passes "true", read here as no value.
type testModeValue string

func (v *testModeValue) String() string   { return string(*v) }
func (v *testModeValue) IsBoolFlag() bool { return true }
func (v *testModeValue) Set(s string) error {
	if s == "true" {
		s = ""
	}
	*v = testModeValue(s)
	return nil
}

func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			found = true
		}
	})
	return found
}

func archiveDirOrDefault(path string) string {
	if path != "" {
		return path
	}
	return "dlq/archive"
}
