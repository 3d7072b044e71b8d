// Package displaydrv provides downstream Display implementations: a
// software-simulated scanout for the CLI demo and tests, and a mode
// table for display timing enumeration.
package displaydrv

import (
	"log/slog"
	"sync"
	"time"

	"github.com/visiona/dqueue/internal/core"
)

// releaser is implemented by the queue that owns the frames a Display
// consumes; ConsumeWork calls back into it to release the previously
// held frame once a newer one replaces it, modelling hardware that can
// only keep a single frame locked for scanout at a time.
type releaser interface {
	ReleaseFrame(f *core.Frame)
}

// Display is a software-simulated single-buffered scanout.
// ReadyForNextWork can be pinned not-ready with SetReady to exercise
// backpressure in tests; SyncFlip advances a simulated vsync ticker.
type Display struct {
	log   *slog.Logger
	queue releaser
	vsync time.Duration

	mu    sync.Mutex
	ready bool
	held  *core.Frame
	flips uint64
}

// New creates a Display whose ReadyForNextWork starts true. queue is
// used to release a previously held frame once it is superseded; vsync
// is the simulated flip period used by SyncFlip's caller to pace calls
// (the Display itself does not run a ticker goroutine). queue may be
// nil if the owning Queue does not exist yet — see SetReleaser.
func New(log *slog.Logger, queue releaser, vsync time.Duration) *Display {
	if log == nil {
		log = slog.Default()
	}
	return &Display{log: log, queue: queue, ready: true, vsync: vsync}
}

// SetReleaser wires the queue a Display releases superseded frames
// back to. Needed when a Display must be constructed before its Queue
// exists, since core.New requires a Display up front.
func (d *Display) SetReleaser(queue releaser) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queue = queue
}

// SetReady pins ReadyForNextWork's return value, for tests that need
// to simulate the downstream falling behind.
func (d *Display) SetReady(ready bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ready = ready
}

// ReadyForNextWork implements core.Display.
func (d *Display) ReadyForNextWork() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ready
}

// ConsumeWork implements core.Display. Frames are locked for scanout
// until the next frame arrives; events pass straight through.
func (d *Display) ConsumeWork(item any) {
	f, ok := item.(*core.Frame)
	if !ok {
		d.log.Debug("simdisplay: consumed event")
		return
	}

	d.mu.Lock()
	prev := d.held
	d.held = f
	d.mu.Unlock()

	if prev != nil {
		d.mu.Lock()
		queue := d.queue
		d.mu.Unlock()
		if queue != nil {
			queue.ReleaseFrame(prev)
		}
	}
	d.log.Debug("simdisplay: consumed frame")
}

// SyncFlip implements core.Display: counts a simulated vsync flip.
func (d *Display) SyncFlip() {
	d.mu.Lock()
	d.flips++
	d.mu.Unlock()
}

// Flips returns the number of SyncFlip calls observed so far.
func (d *Display) Flips() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.flips
}

// VsyncPeriod returns the configured simulated flip period.
func (d *Display) VsyncPeriod() time.Duration {
	return d.vsync
}
