package core

import (
	"fmt"
	"strings"
)

// String renders a short diagnostic dump of the queue's state: counters,
// markers, and the full work list in order. Intended for logs, not a
// stable machine-readable format.
func (q *Queue) String() string {
	q.mu.Lock()
	defer q.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "DisplayQueue[%s]: queuedWork=%d queuedFrames=%d locked=%d poolUsed=%d/%d poolPeak=%d consumed=%d consumedFrames=%d blocked=%t\n",
		q.cfg.Name, q.queuedWork, q.queuedFrames, q.framesLockedForDisplay,
		q.framePoolUsed, len(q.framePool), q.framePoolPeak,
		q.consumedWork, q.consumedFramesSinceInit, q.consumerBlocked)
	fmt.Fprintf(&b, "  lastQueued=%s lastIssued=%s lastDropped=%s\n",
		q.lastQueuedFrame, q.lastIssuedFrame, q.lastDroppedFrame)

	item := q.head
	for item != nil {
		fmt.Fprintf(&b, "  %s\n", dumpItem(item))
		item = item.header().next
		if item == q.head {
			break
		}
	}
	return b.String()
}
