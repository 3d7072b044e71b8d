package core

// validateLocked checks the DisplayQueue's structural invariants: work
// list bookkeeping matches the actual list contents, effective frame
// ids never regress, and pool usage stays within bounds. Release
// ordering and flush/timeout properties are exercised by tests instead,
// since they aren't checkable from a single snapshot. This is a no-op
// unless debug checks are enabled, so callers sprinkle it liberally
// without a release-build cost.
func (q *Queue) validateLocked() {
	if !debugEnabled {
		return
	}

	walked, frames := 0, 0
	var prevEff FrameID
	havePrevEff := false
	item := q.head
	for item != nil {
		walked++
		h := item.header()
		if f, ok := item.(*Frame); ok {
			frames++
			_ = f
		}
		if havePrevEff && !h.getEffectiveFrame().AtOrAfter(prevEff) {
			panic("dqueue: effective frame ids out of order in work list")
		}
		prevEff = h.getEffectiveFrame()
		havePrevEff = true

		item = h.next
		if item == q.head {
			break
		}
	}

	if (q.queuedWork == 0) != (q.head == nil) {
		panic("dqueue: queuedWork == 0 must hold iff the work list is empty")
	}
	if walked != q.queuedWork {
		panic("dqueue: queuedWork does not match the work list length")
	}
	if frames != q.queuedFrames {
		panic("dqueue: queuedFrames does not match the number of frames in the work list")
	}
	if !q.lastQueuedFrame.AtOrAfter(q.lastIssuedFrame) {
		panic("dqueue: lastIssuedFrame ahead of lastQueuedFrame")
	}

	inListPoolFrames := 0
	for i := range q.framePool {
		if q.framePool[i].isQueued() {
			inListPoolFrames++
		}
	}
	if inListPoolFrames > q.framePoolUsed || q.framePoolUsed > len(q.framePool) {
		panic("dqueue: framePoolUsed out of range")
	}
}
