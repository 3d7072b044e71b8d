package main

import (
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/visiona/dqueue/internal/bufferhandle"
	"github.com/visiona/dqueue/internal/core"
	"github.com/visiona/dqueue/internal/displaydrv"
)

func newSimulateCmd() *cobra.Command {
	var frames int
	var rateHz float64
	var dropRate float64
	var poolCount int

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Drive a display queue with a synthetic producer",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(frames, rateHz, dropRate, poolCount)
		},
	}

	cmd.Flags().IntVar(&frames, "frames", 100, "number of frames to produce")
	cmd.Flags().Float64Var(&rateHz, "rate", 60, "frame production rate in Hz")
	cmd.Flags().Float64Var(&dropRate, "drop-rate", 0, "fraction of frames (0-1) to drop instead of queueing")
	cmd.Flags().IntVar(&poolCount, "pool-count", 4, "frame pool size")
	return cmd
}

func runSimulate(frames int, rateHz, dropRate float64, poolCount int) error {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	sessionID := uuid.New()

	bufMgr := bufferhandle.New()

	display := displaydrv.New(logger, nil, 16*time.Millisecond)
	queue := core.New(core.Config{
		Name:           "simulate",
		FramePoolCount: poolCount,
	}, display, bufMgr)
	queue.SetLogger(logger)
	display.SetReleaser(queue)
	queue.Start()
	defer queue.Stop()

	logger.Info("starting simulation", "session_id", sessionID, "frames", frames, "rate_hz", rateHz)

	period := time.Duration(float64(time.Second) / rateHz)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	var hwc, timeline uint32
	for i := 0; i < frames; i++ {
		<-ticker.C

		hwc++
		timeline++
		id := core.FrameID{HWCIndex: hwc, TimelineIndex: timeline}
		frameID := uuid.New()

		if dropRate > 0 && rand.Float64() < dropRate {
			queue.QueueDrop(id)
			logger.Info("dropped frame", "session_id", sessionID, "frame_id", frameID, "hwc", id.HWCIndex)
			continue
		}

		stack := newSimulatedStack(2)
		if err := queue.QueueFrame(stack, 0, id, core.FrameConfig{}); err != nil {
			logger.Warn("queue frame failed", "session_id", sessionID, "frame_id", frameID, "hwc", id.HWCIndex, "error", err)
			continue
		}
		logger.Info("queued frame", "session_id", sessionID, "frame_id", frameID, "hwc", id.HWCIndex)
	}

	stats := queue.Stats()
	fmt.Printf("done: consumed=%d dropped-last=%s pool-peak=%d\n", stats.ConsumedWork, stats.LastDroppedFrame, stats.FramePoolPeak)
	return nil
}

type simulatedLayer struct{}

func (simulatedLayer) IsDisabled() bool             { return false }
func (simulatedLayer) Handle() core.BufferHandle    { return nil }
func (simulatedLayer) BufferDeviceID() int64        { return 0 }
func (simulatedLayer) AcquireFence() core.FenceSource { return nil }
func (simulatedLayer) ReleaseFence() core.ReleaseFence { return nil }

type simulatedStack struct {
	layers []simulatedLayer
}

func newSimulatedStack(n int) *simulatedStack {
	return &simulatedStack{layers: make([]simulatedLayer, n)}
}

func (s *simulatedStack) Len() int           { return len(s.layers) }
func (s *simulatedStack) Layer(i int) core.Layer { return s.layers[i] }
