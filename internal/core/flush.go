package core

import "time"

// Flush waits until the worker has consumed through id (or, if id is the
// zero FrameID, until every item queued at call time has been consumed),
// then calls the downstream SyncFlip. If called from inside a
// downstream Display.ConsumeWork callback running on the worker
// goroutine, or if the consumer is currently blocked, or if the wait
// times out, Flush instead falls back to invalidating every frame still
// queued — a producer must never block itself waiting on a thread it is
// running on. It returns true if the wait completed normally and
// SyncFlip was called, false if the fallback fired.
func (q *Queue) Flush(id FrameID, timeout time.Duration) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.inConsumeCallback {
		q.log.Debug("self-flush detected, falling back to invalidate", "target", id)
		q.doInvalidateFramesLocked()
		return false
	}

	if q.consumerBlocked {
		q.log.Debug("flush while consumer blocked, falling back to invalidate", "target", id)
		q.doInvalidateFramesLocked()
		return false
	}

	if !q.doFlushLocked(id, timeout) {
		q.log.Warn("flush timed out, invalidating frames", "target", id, "last_issued", q.lastIssuedFrame)
		q.doInvalidateFramesLocked()
		return false
	}

	if q.consumerBlocked {
		q.log.Debug("consumer blocked during flush, falling back to invalidate", "target", id)
		q.doInvalidateFramesLocked()
		return false
	}

	q.mu.Unlock()
	q.display.SyncFlip()
	q.mu.Lock()
	return true
}

// doFlushLocked implements the flush protocol: loop while the consumer
// is not blocked, there is still queued work, fewer than maxConsume
// (the amount of work queued when the flush began) items have been
// consumed since, and the target hasn't been reached — id's zero value
// means "reached" never triggers early, so the loop runs until the
// queue drains or maxConsume is exhausted instead. Each iteration wakes
// the worker and waits on condWorkConsumed, bounded by timeout if
// non-zero. Returns false on a timed-out or errored wait; true
// otherwise, including when the consumer became blocked while waiting
// (the caller checks consumerBlocked itself).
func (q *Queue) doFlushLocked(id FrameID, timeout time.Duration) bool {
	flushAll := id == FrameID{}
	maxConsume := uint64(q.queuedWork)
	consumedAtStart := q.consumedWork

	var deadline time.Time
	hasDeadline := timeout > 0
	if hasDeadline {
		deadline = time.Now().Add(timeout)
	}

	for !q.consumerBlocked &&
		q.queuedWork > 0 &&
		q.consumedWork-consumedAtStart < maxConsume &&
		(flushAll || !q.lastIssuedFrame.AtOrAfter(id)) {

		q.condWorkConsumed.Broadcast()

		if !hasDeadline {
			q.condWorkConsumed.Wait()
			continue
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false
		}
		if !condWaitTimeout(q.condWorkConsumed, remaining) {
			return false
		}
	}

	return true
}

// InvalidateFrames marks every queued, non-locked, pool-owned frame
// invalid so the worker retires each one without handing it to the
// display, the next time it would be delivered. It does not itself
// wait for the worker to catch up — callers that need that should use
// Flush instead.
func (q *Queue) InvalidateFrames() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.doInvalidateFramesLocked()
}

func (q *Queue) doInvalidateFramesLocked() {
	item := q.head
	done := item == nil
	for !done {
		next := item.header().next
		done = next == q.head
		if f, ok := item.(*Frame); ok && !f.lockedForDisplay && f.frameKind == FrameKindDisplayQueue {
			f.Invalidate()
		}
		item = next
	}
	q.condWorkConsumed.Broadcast()
}
