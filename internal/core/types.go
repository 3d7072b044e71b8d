package core

import (
	"errors"
	"time"
)

// BehaviourFlags is a bitset controlling optional DisplayQueue behaviour.
type BehaviourFlags uint32

const (
	// SyncBeforeFlip makes doConsumeFrame wait for every layer's acquire
	// fence to signal before handing the frame to the downstream display,
	// re-checking for redundancy afterwards.
	SyncBeforeFlip BehaviourFlags = 1 << 0
)

// Config configures a new DisplayQueue.
type Config struct {
	// Name identifies this queue instance in logs — useful when a
	// process owns one DisplayQueue per physical display.
	Name string

	// FramePoolCount is the fixed size of the frame pool. Must be >= 1.
	FramePoolCount int

	// FramePoolLimit is the soft cap limitUsedFrames waits against
	// before giving up and letting findFree drop the oldest slot.
	// Defaults to FramePoolCount if zero.
	FramePoolLimit int

	BehaviourFlags BehaviourFlags

	// TimeoutForReady bounds the worker's "display not ready" wait.
	TimeoutForReady time.Duration
	// TimeoutForLimit bounds limitUsedFrames' wait for the pool to drain.
	TimeoutForLimit time.Duration

	// ErrorThreshold is the hwc-index gap past which queueFrame logs a
	// warning that the downstream display is falling behind while a
	// frame is locked for display.
	ErrorThreshold uint32
}

// defaults fills in zero-valued fields with the reference constants.
func (c Config) defaults() Config {
	if c.FramePoolCount <= 0 {
		c.FramePoolCount = 8
	}
	if c.FramePoolLimit <= 0 {
		c.FramePoolLimit = c.FramePoolCount
	}
	if c.TimeoutForReady <= 0 {
		c.TimeoutForReady = 200 * time.Millisecond
	}
	if c.TimeoutForLimit <= 0 {
		c.TimeoutForLimit = 50 * time.Millisecond
	}
	if c.ErrorThreshold == 0 {
		c.ErrorThreshold = 16
	}
	return c
}

var (
	// ErrPoolExhausted is returned by QueueFrame when every pool frame is
	// locked for display (-ENOSYS in the original).
	ErrPoolExhausted = errors.New("dqueue: frame pool exhausted, all frames locked for display")
	// ErrAlreadyQueued reports a work item that is already linked into a
	// work list. QueueEvent links a freshly created Event on every call,
	// so no Queue method returns it.
	ErrAlreadyQueued = errors.New("dqueue: work item is already queued")
)

// Display is the downstream collaborator the worker drives.
// Implementations must call ReleaseFrame synchronously on a failed
// ConsumeWork of a Frame, and may release asynchronously on success.
type Display interface {
	ReadyForNextWork() bool
	ConsumeWork(item any) // item is *Frame or *Event
	SyncFlip()
}

// Stats is a point-in-time snapshot of DisplayQueue counters, returned
// by Queue.Stats() for telemetry.
type Stats struct {
	Name                     string
	QueuedWork               int
	QueuedFrames             int
	FramesLockedForDisplay   int
	FramePoolUsed            int
	FramePoolPeak            int
	ConsumedWork             uint64
	ConsumedFramesSinceInit  uint64
	LastQueuedFrame          FrameID
	LastIssuedFrame          FrameID
	LastDroppedFrame         FrameID
	ConsumerBlocked          bool
}
