package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/nndescent"
)

// envPrefix prefixes every environment override, e.g. NNDESCENT_ROUNDS.
const envPrefix = "NNDESCENT"

var (
	errInvalidDataset   = errors.New("dataset must be uniform or clustered")
	errInvalidLogFormat = errors.New("log format must be text or json")
	errInvalidRecall    = errors.New("recall samples must not be negative")
)

// Config describes one benchmark run.
type Config struct {
	// Dataset
	N        int     `yaml:"n" envconfig:"N"`
	Dim      int     `yaml:"dim" envconfig:"DIM"`
	Dataset  string  `yaml:"dataset" envconfig:"DATASET"`
	Clusters int     `yaml:"clusters" envconfig:"CLUSTERS"`
	Spread   float32 `yaml:"spread" envconfig:"SPREAD"`
	DataSeed int64   `yaml:"data_seed" envconfig:"DATA_SEED"`

	// Graph
	MaxDegree     int     `yaml:"max_degree" envconfig:"MAX_DEGREE"`
	Rounds        int     `yaml:"rounds" envconfig:"ROUNDS"`
	SampleRate    float32 `yaml:"sample_rate" envconfig:"SAMPLE_RATE"`
	RejoinSampled bool    `yaml:"rejoin_sampled" envconfig:"REJOIN_SAMPLED"`
	Seed          uint64  `yaml:"seed" envconfig:"SEED"`
	Workers       int     `yaml:"workers" envconfig:"WORKERS"`
	EarlyStop     bool    `yaml:"early_stop" envconfig:"EARLY_STOP"`
	StopDelta     float64 `yaml:"stop_delta" envconfig:"STOP_DELTA"`

	// Limits
	MemoryLimitBytes int64         `yaml:"memory_limit_bytes" envconfig:"MEMORY_LIMIT_BYTES"`
	Timeout          time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`

	// Reporting
	RecallSamples int        `yaml:"recall_samples" envconfig:"RECALL_SAMPLES"`
	MetricsAddr   string     `yaml:"metrics_addr" envconfig:"METRICS_ADDR"`
	LogLevel      slog.Level `yaml:"log_level" envconfig:"LOG_LEVEL"`
	LogFormat     string     `yaml:"log_format" envconfig:"LOG_FORMAT"`
}

// DefaultConfig mirrors the classic NN-descent accuracy check: 10,000
// uniform 64-dimensional points with 24 neighbors each.
func DefaultConfig() Config {
	return Config{
		N:          10000,
		Dim:        64,
		Dataset:    "uniform",
		Clusters:   16,
		Spread:     0.05,
		DataSeed:   42,
		MaxDegree:  24,
		Rounds:     nndescent.DefaultRounds,
		SampleRate: nndescent.DefaultSampleRate,
		Seed:       nndescent.DefaultSeed,
		StopDelta:  0.001,

		RecallSamples: 200,
		LogLevel:      slog.LevelInfo,
		LogFormat:     "text",
	}
}

// LoadConfig starts from DefaultConfig, overlays the YAML file at path (if
// any) and then NNDESCENT_* environment variables.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return cfg, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := yaml.NewDecoder(file)
		decoder.KnownFields(true)

		if err := decoder.Decode(&cfg); err != nil {
			return cfg, fmt.Errorf("decode config %s: %w", path, err)
		}
	}

	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return cfg, fmt.Errorf("environment overrides: %w", err)
	}

	return cfg, ValidateConfig(cfg)
}

// ValidateConfig checks the fields the graph itself does not validate.
func ValidateConfig(cfg Config) error {
	switch cfg.Dataset {
	case "uniform":
	case "clustered":
		if cfg.Clusters < 1 {
			return fmt.Errorf("%w: clusters=%d", errInvalidDataset, cfg.Clusters)
		}
	default:
		return fmt.Errorf("%w: %q", errInvalidDataset, cfg.Dataset)
	}

	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return fmt.Errorf("%w: %q", errInvalidLogFormat, cfg.LogFormat)
	}

	if cfg.RecallSamples < 0 {
		return fmt.Errorf("%w: %d", errInvalidRecall, cfg.RecallSamples)
	}

	return nil
}

// options translates the config into graph options.
func (c Config) options() []nndescent.Option {
	opts := []nndescent.Option{
		nndescent.WithSeed(c.Seed),
		nndescent.WithRounds(c.Rounds),
		nndescent.WithSampleRate(c.SampleRate),
	}
	if c.RejoinSampled {
		opts = append(opts, nndescent.WithRejoinSampled())
	}
	if c.Workers > 0 {
		opts = append(opts, nndescent.WithWorkers(c.Workers))
	}
	if c.EarlyStop {
		opts = append(opts, nndescent.WithEarlyStop(c.StopDelta))
	}
	return opts
}
