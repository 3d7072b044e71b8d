package core

import "time"

// findFreeLocked returns a pool frame ready for Frame.Set: preferably
// one that is neither queued nor locked for display, falling back to
// dropping the oldest queued, unlocked frame and reusing its slot
//. Returns nil if every pool frame is locked
// for display.
func (q *Queue) findFreeLocked() *Frame {
	for i := range q.framePool {
		f := &q.framePool[i]
		if !f.isQueued() && !f.lockedForDisplay {
			return f
		}
	}

	oldest := q.oldestDroppableFrameLocked()
	if oldest == nil {
		return nil
	}
	q.dropFrameLocked(oldest)
	return oldest
}

// oldestDroppableFrameLocked returns the queued, non-locked,
// pool-owned frame with the smallest timeline index, or nil if there
// is none.
func (q *Queue) oldestDroppableFrameLocked() *Frame {
	var oldest *Frame
	for i := range q.framePool {
		f := &q.framePool[i]
		if !f.isQueued() || f.lockedForDisplay || f.frameKind != FrameKindDisplayQueue {
			continue
		}
		if oldest == nil || !f.frameID.timelineAtOrAfter(oldest.frameID) {
			oldest = f
		}
	}
	return oldest
}

// limitUsedFramesLocked blocks, bounded by cfg.TimeoutForLimit, while
// the pool is at or past its soft limit, giving the consumer a chance
// to release frames before queueFrame forces findFree to drop one.
func (q *Queue) limitUsedFramesLocked() {
	q.doDropRedundantFramesLocked()

	if q.framePoolUsed < q.cfg.FramePoolLimit {
		return
	}
	deadline := time.Now().Add(q.cfg.TimeoutForLimit)
	for q.framePoolUsed >= q.cfg.FramePoolLimit {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			q.log.Debug("limitUsedFrames timed out waiting for a release",
				"pool_used", q.framePoolUsed, "limit", q.cfg.FramePoolLimit)
			return
		}
		if !condWaitTimeout(q.condWorkConsumed, remaining) {
			return
		}
	}
}

// dropFrameLocked removes f from the work list (if queued), resets its
// layers cancelling pending state, and decrements the queued/pool
// counters. It does not touch any other item's effective frame and
// does not advance lastIssuedFrame — that bookkeeping is queueDrop's
// job for frame ids that were never produced; a frame already in the
// work list that gets pool-stolen or redundant-dropped was never
// issued, so dropping it here must not look like issuing it.
func (q *Queue) dropFrameLocked(f *Frame) {
	if !f.isQueued() {
		return
	}

	q.log.Debug("drop frame", "frame", dumpItem(f))

	dequeue(&q.head, f)
	q.queuedWork--
	q.queuedFrames--
	q.framePoolUsed--
	q.lastDroppedFrame = f.frameID

	f.Reset(true)
	q.condWorkConsumed.Broadcast()
}
