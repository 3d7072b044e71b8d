package core

import (
	"log/slog"
	"sync"
)

// Queue is a DisplayQueue: the bounded, pipelined handoff between a
// frame producer and a single display consumer. All public methods
// acquire mu on entry and release it on exit, except where noted that
// the lock is released across a downstream call.
type Queue struct {
	cfg Config
	log *slog.Logger

	mu                     sync.Mutex
	condWorkConsumed       *sync.Cond // broadcast on dequeue/drop/advance/block-transition
	condFrameReleased      *sync.Cond // broadcast when a pool frame returns to the pool

	head workItem // oldest queued item, or nil

	framePool []Frame

	queuedWork              int
	queuedFrames            int
	framesLockedForDisplay  int
	framePoolUsed           int
	framePoolPeak           int
	consumedWork            uint64
	consumedFramesSinceInit uint64

	lastQueuedFrame  FrameID
	lastIssuedFrame  FrameID
	lastDroppedFrame FrameID

	consumerBlocked bool

	// inConsumeCallback is true for the duration of the worker's unlocked
	// call into display.ConsumeWork, the only window in which a
	// caller-supplied Display can call back into the queue on the worker
	// goroutine itself. Flush checks it to detect a self-flush.
	inConsumeCallback bool

	display Display
	bufMgr  BufferManager

	worker *worker
}

// New creates a DisplayQueue. display and bufMgr are the external
// collaborators it depends on; neither may be nil.
func New(cfg Config, display Display, bufMgr BufferManager) *Queue {
	cfg = cfg.defaults()
	q := &Queue{
		cfg:       cfg,
		log:       slog.Default().With("queue", cfg.Name),
		framePool: make([]Frame, cfg.FramePoolCount),
		display:   display,
		bufMgr:    bufMgr,
	}
	for i := range q.framePool {
		q.framePool[i] = *newFrame()
	}
	q.condWorkConsumed = sync.NewCond(&q.mu)
	q.condFrameReleased = sync.NewCond(&q.mu)
	return q
}

// SetLogger overrides the default slog logger (useful for tests that
// want to capture log output, or a CLI wiring a handler with extra
// attributes).
func (q *Queue) SetLogger(l *slog.Logger) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.log = l
}

// Start spins up the dedicated worker goroutine if one is not already
// running. Producers do not normally need to call this directly — the
// first queued work item starts the worker automatically — but it is
// exposed so a caller can pre-warm the queue before any work arrives.
func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.startWorkerLocked()
}

// Stop joins and tears down the worker goroutine. Safe to call multiple
// times; safe to call with no work queued.
func (q *Queue) Stop() {
	q.mu.Lock()
	w := q.worker
	q.worker = nil
	q.mu.Unlock()
	if w != nil {
		w.stop()
	}
}

func (q *Queue) startWorkerLocked() {
	if q.worker == nil {
		q.worker = newWorker(q)
	}
}

// Stats returns a snapshot of queue counters, safe for concurrent
// telemetry polling.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Stats{
		Name:                    q.cfg.Name,
		QueuedWork:              q.queuedWork,
		QueuedFrames:            q.queuedFrames,
		FramesLockedForDisplay:  q.framesLockedForDisplay,
		FramePoolUsed:           q.framePoolUsed,
		FramePoolPeak:           q.framePoolPeak,
		ConsumedWork:            q.consumedWork,
		ConsumedFramesSinceInit: q.consumedFramesSinceInit,
		LastQueuedFrame:         q.lastQueuedFrame,
		LastIssuedFrame:         q.lastIssuedFrame,
		LastDroppedFrame:        q.lastDroppedFrame,
		ConsumerBlocked:         q.consumerBlocked,
	}
}

// QueueEvent appends a synchronization event to the work list. The
// event's effective frame is set to the last queued frame id, so
// consuming it advances lastIssuedFrame to exactly that point.
func (q *Queue) QueueEvent(id uint32) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	ev := newEvent(id)
	ev.setEffectiveFrame(q.lastQueuedFrame)
	return q.doQueueWork(ev)
}

// QueueFrame snapshots stack into a pool frame and appends it to the
// work list. id must be monotonically
// non-decreasing relative to every previously queued frame.
func (q *Queue) QueueFrame(stack LayerStack, zorder uint32, id FrameID, config FrameConfig) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.lastQueuedFrame.ValidateFutureFrame(id)

	delta := int32(id.HWCIndex - q.lastIssuedFrame.HWCIndex)
	if q.consumedFramesSinceInit > 0 && q.framesLockedForDisplay > 0 && uint32(delta) > q.cfg.ErrorThreshold {
		q.log.Warn("display worker falling behind",
			"last_issued", q.lastIssuedFrame, "new_frame", id)
	}

	q.limitUsedFramesLocked()

	frame := q.findFreeLocked()
	if frame == nil {
		q.log.Error("frame pool exhausted: check that ReleaseFrame is being called",
			"queued_frames", q.queuedFrames, "locked", q.framesLockedForDisplay, "pool", len(q.framePool))
		return ErrPoolExhausted
	}

	q.framePoolUsed++
	if q.framePoolUsed > q.framePoolPeak {
		q.framePoolPeak = q.framePoolUsed
		q.log.Debug("pool peak usage", "peak", q.framePoolPeak)
	}

	if err := frame.Set(stack, zorder, id, config, q.bufMgr); err != nil {
		q.framePoolUsed--
		q.log.Error("failed to set display frame", "error", err)
		return ErrPoolExhausted
	}

	frame.setEffectiveFrame(id)
	q.lastQueuedFrame = id

	return q.doQueueWork(frame)
}

// QueueDrop records that frame id will never be produced (or has been
// superseded before being queued). If the list is empty, lastIssuedFrame
// advances immediately; otherwise the drop is coalesced into the tail
// item's effective frame, to be applied when that item is eventually
// consumed.
func (q *Queue) QueueDrop(id FrameID) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.lastQueuedFrame.ValidateFutureFrame(id)

	if q.head == nil {
		q.log.Debug("drop frame (queue empty)", "id", id)
		q.advanceIssuedFrameLocked(id)
	} else {
		tail := q.head.header().prev
		tail.header().setEffectiveFrame(id)
		q.log.Debug("drop frame coalesced into tail", "id", id, "tail", dumpItem(tail))
	}

	q.lastQueuedFrame = id
	q.validateLocked()
}

// DropAllFrames drops every queued, non-locked, pool-owned frame.
func (q *Queue) DropAllFrames() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.validateLocked()

	item := q.head
	done := item == nil
	for !done {
		next := item.header().next
		done = next == q.head
		if f, ok := item.(*Frame); ok && !f.lockedForDisplay && f.frameKind == FrameKindDisplayQueue {
			q.dropFrameLocked(f)
		}
		item = next
	}
	q.validateLocked()
}

// ConsumerBlocked records that the downstream display cannot currently
// accept work, and always broadcasts condWorkConsumed so a flusher
// stuck waiting on the predicate can re-evaluate it.
func (q *Queue) ConsumerBlocked() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.consumerBlocked = true
	q.condWorkConsumed.Broadcast()
}

// ConsumerUnblocked clears the block flag set by ConsumerBlocked.
func (q *Queue) ConsumerUnblocked() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if debugEnabled && !q.consumerBlocked {
		panic("dqueue: ConsumerUnblocked called without a prior ConsumerBlocked")
	}
	q.consumerBlocked = false
	q.condWorkConsumed.Broadcast()
}

// NotifyReady wakes the worker because the downstream display's
// readiness may have changed.
func (q *Queue) NotifyReady() {
	q.mu.Lock()
	w := q.worker
	q.mu.Unlock()
	if w != nil {
		w.signalWork()
	}
}

// ReleaseFrame returns a previously-consumed frame to the pool. frame
// must be the exact *Frame the worker handed to Display.ConsumeWork.
func (q *Queue) ReleaseFrame(frame *Frame) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.doReleaseFrameLocked(frame)
}

// doQueueWork is the shared tail of QueueEvent/QueueFrame: link the item
// in, bump counters, start/signal the worker. mu must be held.
func (q *Queue) doQueueWork(item workItem) error {
	h := item.header()
	isFrame := h.kind == kindFrame

	q.log.Debug("queue work", "item", dumpItem(item), "queued_work", q.queuedWork+1)

	q.lastIssuedFrame.ValidateFutureFrame(h.getEffectiveFrame())

	queueAppend(&q.head, item)
	q.queuedWork++
	if isFrame {
		q.queuedFrames++
	}

	q.startWorkerLocked()
	q.condWorkConsumed.Broadcast()

	q.validateLocked()
	return nil
}

func (q *Queue) advanceIssuedFrameLocked(id FrameID) {
	q.lastIssuedFrame.ValidateFutureFrame(id)
	q.lastIssuedFrame = id
	q.condWorkConsumed.Broadcast()
}

func (q *Queue) doReleaseFrameLocked(frame *Frame) {
	if debugEnabled {
		if frame.frameKind != FrameKindDisplayQueue {
			panic("dqueue: ReleaseFrame called on a non-pool frame")
		}
		if !frame.lockedForDisplay {
			panic("dqueue: ReleaseFrame called on a frame that is not locked for display")
		}
	}
	q.validateLocked()

	q.log.Debug("release frame", "frame", dumpItem(frame), "pool_used", q.framePoolUsed-1)

	if debugEnabled {
		if q.framesLockedForDisplay <= 0 || q.framePoolUsed <= 0 {
			panic("dqueue: ReleaseFrame pool counters already at zero")
		}
	}
	q.unlockFrameForDisplayLocked(frame)
	frame.Reset(false)
	q.framePoolUsed--

	q.validateLocked()
	q.condFrameReleased.Broadcast()
}

func (q *Queue) lockFrameForDisplayLocked(f *Frame) {
	f.lockedForDisplay = true
	q.framesLockedForDisplay++
}

func (q *Queue) unlockFrameForDisplayLocked(f *Frame) {
	f.lockedForDisplay = false
	q.framesLockedForDisplay--
}
