// Package config loads and validates the YAML configuration for the
// dqueued daemon.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level daemon configuration.
type Config struct {
	InstanceID       string        `yaml:"instance_id"`
	ShutdownTimeoutS int           `yaml:"shutdown_timeout_s"`
	Queue            QueueConfig   `yaml:"queue"`
	Display          DisplayConfig `yaml:"display"`
	MQTT             MQTTConfig    `yaml:"mqtt"`
	Health           HealthConfig  `yaml:"health"`
}

// QueueConfig mirrors core.Config's tunables.
type QueueConfig struct {
	FramePoolCount    int    `yaml:"frame_pool_count"`
	FramePoolLimit    int    `yaml:"frame_pool_limit"`
	TimeoutForReadyMS int    `yaml:"timeout_for_ready_ms"`
	TimeoutForLimitMS int    `yaml:"timeout_for_limit_ms"`
	ErrorThreshold    uint32 `yaml:"error_threshold"`
	SyncBeforeFlip    bool   `yaml:"sync_before_flip"`
}

// TimeoutForReady returns the configured duration, zero if unset.
func (q QueueConfig) TimeoutForReady() time.Duration {
	return time.Duration(q.TimeoutForReadyMS) * time.Millisecond
}

// TimeoutForLimit returns the configured duration, zero if unset.
func (q QueueConfig) TimeoutForLimit() time.Duration {
	return time.Duration(q.TimeoutForLimitMS) * time.Millisecond
}

// DisplayConfig configures the simulated downstream display.
type DisplayConfig struct {
	VsyncHz int `yaml:"vsync_hz"`
}

// MQTTConfig contains MQTT broker settings.
type MQTTConfig struct {
	Broker      string `yaml:"broker"`
	Topic       string `yaml:"topic"`
	QoS         byte   `yaml:"qos"`
	IntervalMS  int    `yaml:"interval_ms"`
}

// HealthConfig controls the HTTP health server.
type HealthConfig struct {
	Addr string `yaml:"addr"`
}

// Load reads and parses a YAML configuration file, filling defaults
// and validating the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
