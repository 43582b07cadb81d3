// Package config loads the dispatcher's YAML configuration file,
// applying documented defaults field-by-field when the file or an
// individual key is absent.
package config

import (
	"os"

	"github.com/willibrandon/mtlog/core"
	"go.yaml.in/yaml/v2"
)

// Input describes the record source.
type Input struct {
	FilePath string `yaml:"filePath"`
	Format   string `yaml:"format"`
	// FixedWidths configures column widths for the fixedwidth format.
	FixedWidths []int `yaml:"fixedWidths"`
	CSVHeader   bool  `yaml:"csvHeader"`
}

// SinkConfig describes one sink role's rate limit and delivery target.
type SinkConfig struct {
	RateLimit int    `yaml:"rateLimit"`
	Endpoint  string `yaml:"endpoint"`
	StoreDir  string `yaml:"storeDir"`
}

// Sinks groups the four fixed sink roles.
type Sinks struct {
	REST SinkConfig `yaml:"rest"`
	GRPC SinkConfig `yaml:"grpc"`
	MQ   SinkConfig `yaml:"mq"`
	DB   SinkConfig `yaml:"db"`
}

// DLQ configures dead-letter capture and the optional Parquet archiver.
type DLQ struct {
	Enabled                bool   `yaml:"enabled"`
	FilePath               string `yaml:"filePath"`
	MaxRetries             int    `yaml:"maxRetries"`
	ArchiveIntervalSeconds int    `yaml:"archiveIntervalSeconds"`
	ArchivePath            string `yaml:"archivePath"`
}

// Metrics configures reporting cadence and the optional scrape endpoint.
type Metrics struct {
	IntervalSeconds int    `yaml:"intervalSeconds"`
	ListenAddr      string `yaml:"listenAddr"`
}

// Queue configures the bounded record queue.
type Queue struct {
	Capacity int `yaml:"capacity"`
}

// Config is the top-level configuration document.
type Config struct {
	Input   Input   `yaml:"input"`
	Queue   Queue   `yaml:"queue"`
	Sinks   Sinks   `yaml:"sinks"`
	DLQ     DLQ     `yaml:"dlq"`
	Metrics Metrics `yaml:"metrics"`
}

// Defaults returns the documented default configuration.
func Defaults() Config {
	return Config{
		Input: Input{
			FilePath: "sample-data/input.json",
			Format:   "jsonl",
		},
		Queue: Queue{Capacity: 1000},
		Sinks: Sinks{
			REST: SinkConfig{RateLimit: 50, Endpoint: "http://localhost:8080/rest"},
			GRPC: SinkConfig{RateLimit: 200, StoreDir: "dispatch-store/grpc"},
			MQ:   SinkConfig{RateLimit: 500, StoreDir: "dispatch-store/mq"},
			DB:   SinkConfig{RateLimit: 1000, StoreDir: "dispatch-store/db"},
		},
		DLQ: DLQ{
			Enabled:    true,
			FilePath:   "dlq/failed-records.jsonl",
			MaxRetries: 3,
		},
		Metrics: Metrics{IntervalSeconds: 5},
	}
}

// Load reads path and overlays it onto Defaults(). A missing file is not
// an error: it logs one warning and returns the defaults unchanged, per
// the configuration error policy (missing optional file falls back
// silently save for the warning).
func Load(path string, logger core.Logger) (Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warning("config: {Path} not found, using defaults", path)
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
