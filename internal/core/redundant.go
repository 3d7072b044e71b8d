package core

// DropRedundantFrames walks the work list tail-to-head, dropping any
// frame that is followed (later in display order, i.e. closer to the
// tail) by a rendering-complete frame, whether or not its own rendering
// is complete — flipping to it would be pointless since its content can
// never reach the screen. Locked-for-display frames and events are never
// dropped. The worker calls this automatically before every consume
// attempt; producers may also call it directly, e.g. after learning
// out-of-band that an earlier frame's content is stale.
func (q *Queue) DropRedundantFrames() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.doDropRedundantFramesLocked()
}

func (q *Queue) doDropRedundantFramesLocked() {
	if q.head == nil {
		return
	}

	tail := q.head.header().prev
	newerComplete := false

	item := tail
	for {
		prev := item.header().prev
		isTail := item == tail
		isHead := item == q.head

		if f, ok := item.(*Frame); ok && f.frameKind == FrameKindDisplayQueue {
			if newerComplete {
				// A locked-for-display frame can't be dropped, but it still
				// stays in the list and still counts as "newer complete" for
				// whatever is behind it.
				if !isTail && !f.lockedForDisplay {
					q.dropFrameLocked(f)
				}
			} else if f.IsRenderingComplete() {
				newerComplete = true
			}
		}

		if isHead {
			break
		}
		item = prev
	}
}
