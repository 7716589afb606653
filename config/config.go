// Package config loads scheduler configuration from YAML, the same
// Load/Validate shape the reference config package uses.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Torpedoes/DAGFrameScheduler/scheduler"
)

// Config is the on-disk representation of a scheduler's configuration,
// plus the optional telemetry sink built-in work units read from.
type Config struct {
	InstanceID    string        `yaml:"instance_id"`
	ThreadCount   int           `yaml:"thread_count"`
	FrameLengthUs int64         `yaml:"frame_length_us"`
	HistoryLength int           `yaml:"history_length"`
	WorkerModel   string        `yaml:"worker_model"` // "persistent" or "per_frame"
	SorterConfig  SorterConfig  `yaml:"sorter"`
	Telemetry     TelemetryYAML `yaml:"telemetry"`
}

// SorterConfig configures the built-in dependency-cache sorter work unit.
type SorterConfig struct {
	Enabled    bool `yaml:"enabled"`
	IntervalFr int  `yaml:"interval_frames"`
}

// TelemetryYAML configures the built-in MQTT telemetry emitter.
type TelemetryYAML struct {
	Enabled bool            `yaml:"enabled"`
	Broker  string          `yaml:"broker"`
	Topic   string          `yaml:"topic"`
	QoS     map[string]byte `yaml:"qos"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scheduler config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse scheduler config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid scheduler config: %w", err)
	}
	return &cfg, nil
}

// Validate rejects out-of-range values at load time instead of passing them
// on to scheduler.New, which would silently clamp ThreadCount and
// HistoryLength to 1.
func Validate(cfg *Config) error {
	if cfg.ThreadCount < 1 {
		return fmt.Errorf("thread_count must be >= 1, got %d", cfg.ThreadCount)
	}
	if cfg.FrameLengthUs < 0 {
		return fmt.Errorf("frame_length_us must be >= 0, got %d", cfg.FrameLengthUs)
	}
	if cfg.HistoryLength < 1 {
		return fmt.Errorf("history_length must be >= 1, got %d", cfg.HistoryLength)
	}
	switch cfg.WorkerModel {
	case "", "persistent", "per_frame":
	default:
		return fmt.Errorf("worker_model must be \"persistent\" or \"per_frame\", got %q", cfg.WorkerModel)
	}
	if cfg.SorterConfig.Enabled && cfg.SorterConfig.IntervalFr < 1 {
		return fmt.Errorf("sorter.interval_frames must be >= 1 when sorter is enabled")
	}
	return nil
}

// SchedulerConfig converts the parsed YAML into a scheduler.Config ready
// to pass to scheduler.New.
func (cfg *Config) SchedulerConfig() scheduler.Config {
	model := scheduler.WorkerModelPersistent
	if cfg.WorkerModel == "per_frame" {
		model = scheduler.WorkerModelPerFrame
	}
	return scheduler.Config{
		ThreadCount:            cfg.ThreadCount,
		FrameLength:            time.Duration(cfg.FrameLengthUs) * time.Microsecond,
		HistoryLength:          cfg.HistoryLength,
		WorkerModel:            model,
		CacheFlushOptimization: cfg.SorterConfig.Enabled,
	}
}
