package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/visiona/dqueue/internal/bufferhandle"
	"github.com/visiona/dqueue/internal/config"
	"github.com/visiona/dqueue/internal/core"
	"github.com/visiona/dqueue/internal/displaydrv"
	"github.com/visiona/dqueue/internal/telemetry"
)

func newServeCmd() *cobra.Command {
	var configPath string
	var debug bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a display queue against a simulated downstream display",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath, debug)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "config/dqueued.yaml", "path to configuration file")
	cmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging and assertions")
	return cmd
}

func runServe(configPath string, debug bool) error {
	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	core.SetDebug(debug)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger.Info("starting dqueued", "config", configPath, "instance_id", cfg.InstanceID)

	bufMgr := bufferhandle.New()

	display := displaydrv.New(logger, nil, time.Second/time.Duration(cfg.Display.VsyncHz))

	queue := core.New(core.Config{
		Name:            cfg.InstanceID,
		FramePoolCount:  cfg.Queue.FramePoolCount,
		FramePoolLimit:  cfg.Queue.FramePoolLimit,
		TimeoutForReady: cfg.Queue.TimeoutForReady(),
		TimeoutForLimit: cfg.Queue.TimeoutForLimit(),
		ErrorThreshold:  cfg.Queue.ErrorThreshold,
		BehaviourFlags:  behaviourFlags(cfg.Queue.SyncBeforeFlip),
	}, display, bufMgr)
	queue.SetLogger(logger)
	display.SetReleaser(queue)

	queue.Start()
	defer queue.Stop()

	health := telemetry.NewHealthServer(logger, queue, cfg.Health.Addr)
	health.Start()
	defer health.Stop()

	var publisher *telemetry.Publisher
	if cfg.MQTT.Broker != "" {
		publisher = telemetry.NewPublisher(logger, queue, telemetry.MQTTConfig{
			Broker: cfg.MQTT.Broker,
			Topic:  cfg.MQTT.Topic,
			QoS:    cfg.MQTT.QoS,
		})
		if err := publisher.Connect(); err != nil {
			logger.Error("mqtt connect failed, continuing without telemetry publishing", "error", err)
			publisher = nil
		}
	}

	stop := make(chan struct{})
	if publisher != nil {
		go publisher.Run(stop, time.Duration(cfg.MQTT.IntervalMS)*time.Millisecond)
		defer publisher.Disconnect()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
	}

	close(stop)
	logger.Info("dqueued stopped")
	return nil
}

func behaviourFlags(syncBeforeFlip bool) core.BehaviourFlags {
	var flags core.BehaviourFlags
	if syncBeforeFlip {
		flags |= core.SyncBeforeFlip
	}
	return flags
}
