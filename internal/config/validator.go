package config

import (
	"fmt"
	"regexp"
)

var instanceIDPattern = regexp.MustCompile(`^[a-z0-9\-]+$`)

// Validate checks if the configuration is valid, filling in defaults
// for anything left unset.
func Validate(cfg *Config) error {
	if cfg.InstanceID == "" {
		return fmt.Errorf("instance_id is required")
	}
	if !instanceIDPattern.MatchString(cfg.InstanceID) {
		return fmt.Errorf("instance_id must match pattern [a-z0-9-]+")
	}

	if cfg.ShutdownTimeoutS <= 0 {
		cfg.ShutdownTimeoutS = 5
	}

	if cfg.Queue.FramePoolCount <= 0 {
		cfg.Queue.FramePoolCount = 8
	}
	if cfg.Queue.FramePoolLimit <= 0 {
		cfg.Queue.FramePoolLimit = cfg.Queue.FramePoolCount
	}
	if cfg.Queue.FramePoolLimit > cfg.Queue.FramePoolCount {
		return fmt.Errorf("queue.frame_pool_limit (%d) must not exceed queue.frame_pool_count (%d)",
			cfg.Queue.FramePoolLimit, cfg.Queue.FramePoolCount)
	}

	if cfg.Display.VsyncHz <= 0 {
		cfg.Display.VsyncHz = 60
	}

	if cfg.MQTT.Broker != "" {
		if cfg.MQTT.Topic == "" {
			cfg.MQTT.Topic = fmt.Sprintf("dqueue/health/%s", cfg.InstanceID)
		}
		if cfg.MQTT.IntervalMS <= 0 {
			cfg.MQTT.IntervalMS = 1000
		}
	}

	if cfg.Health.Addr == "" {
		cfg.Health.Addr = ":8090"
	}

	return nil
}
