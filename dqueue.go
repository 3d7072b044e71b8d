package dqueue

import (
	"time"

	"github.com/visiona/dqueue/internal/core"
)

// Types re-exported from internal/core to avoid import cycles between
// the public API and the collaborators it accepts. See
// internal/core for full documentation.
type (
	FrameID        = core.FrameID
	FrameConfig    = core.FrameConfig
	BehaviourFlags = core.BehaviourFlags
	Config         = core.Config
	Stats          = core.Stats

	Layer          = core.Layer
	LayerStack     = core.LayerStack
	BufferHandle   = core.BufferHandle
	BufferUsage    = core.BufferUsage
	AcquiredBuffer = core.AcquiredBuffer
	BufferManager  = core.BufferManager
	FenceSource    = core.FenceSource
	ReleaseFence   = core.ReleaseFence
	Display        = core.Display

	Frame      = core.Frame
	Event      = core.Event
	FrameLayer = core.FrameLayer
)

const (
	SyncBeforeFlip     = core.SyncBeforeFlip
	BufferUsageNone    = core.BufferUsageNone
	BufferUsageDisplay = core.BufferUsageDisplay
)

var (
	ErrPoolExhausted    = core.ErrPoolExhausted
	ErrAlreadyQueued    = core.ErrAlreadyQueued
	ErrLayerAllocFailed = core.ErrLayerAllocFailed
)

// SetDebug toggles the internal-build style invariant checks and
// monotonicity assertions across every Queue in the process. Intended
// for tests and debug CLI builds, not production use.
func SetDebug(enabled bool) { core.SetDebug(enabled) }

// DebugEnabled reports the current debug-check state.
func DebugEnabled() bool { return core.DebugEnabled() }

// Queue is the DisplayQueue of this package: the work list, frame
// pool, and worker goroutine that together drive a Display.
//
// Lifecycle: New(cfg, display, bufMgr) -> QueueFrame/QueueEvent/... ->
// Stop(). The worker goroutine starts lazily on the first queued item
// and stops on Stop.
type Queue = core.Queue

// New creates a Queue bound to display and bufMgr, the two external
// collaborators a DisplayQueue depends on. Neither may be nil.
func New(cfg Config, display Display, bufMgr BufferManager) *Queue {
	return core.New(cfg, display, bufMgr)
}

// FlushAll is a convenience wrapper for Flush(FrameID{}, timeout) —
// waiting for every currently queued work item to drain rather than a
// specific frame.
func FlushAll(q *Queue, timeout time.Duration) bool {
	return q.Flush(FrameID{}, timeout)
}
