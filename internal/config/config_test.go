package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, yaml string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoadFillsDefaults(t *testing.T) {
	path := writeTempConfig(t, "instance_id: primary-display\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Queue.FramePoolCount != 8 {
		t.Fatalf("FramePoolCount = %d, want default 8", cfg.Queue.FramePoolCount)
	}
	if cfg.Display.VsyncHz != 60 {
		t.Fatalf("VsyncHz = %d, want default 60", cfg.Display.VsyncHz)
	}
	if cfg.Health.Addr != ":8090" {
		t.Fatalf("Health.Addr = %q, want :8090", cfg.Health.Addr)
	}
}

func TestValidateRejectsMissingInstanceID(t *testing.T) {
	cfg := &Config{}
	if err := Validate(cfg); err == nil {
		t.Fatal("Validate accepted a config with no instance_id")
	}
}

func TestValidateRejectsBadInstanceIDPattern(t *testing.T) {
	cfg := &Config{InstanceID: "Not Valid!"}
	if err := Validate(cfg); err == nil {
		t.Fatal("Validate accepted an instance_id with invalid characters")
	}
}

func TestValidateRejectsLimitAboveCount(t *testing.T) {
	cfg := &Config{
		InstanceID: "primary",
		Queue:      QueueConfig{FramePoolCount: 4, FramePoolLimit: 8},
	}
	if err := Validate(cfg); err == nil {
		t.Fatal("Validate accepted frame_pool_limit > frame_pool_count")
	}
}

func TestValidateFillsMQTTDefaultsOnlyWhenBrokerSet(t *testing.T) {
	cfg := &Config{InstanceID: "primary"}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.MQTT.Topic != "" {
		t.Fatalf("MQTT.Topic = %q, want empty when no broker configured", cfg.MQTT.Topic)
	}

	cfg2 := &Config{InstanceID: "primary", MQTT: MQTTConfig{Broker: "localhost:1883"}}
	if err := Validate(cfg2); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg2.MQTT.Topic == "" {
		t.Fatal("MQTT.Topic still empty after Validate with a broker configured")
	}
}
