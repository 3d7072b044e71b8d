package core

import "fmt"

// workKind discriminates the two WorkItem variants. Implemented as a
// tagged variant with a shared header (itemHeader, via embedding) rather
// than an inheritance hierarchy, since Go has no subclassing to model
// the original's WorkItem/Frame/Event hierarchy directly.
type workKind uint8

const (
	kindEvent workKind = iota
	kindFrame
)

// workItem is satisfied by *Event and *Frame. It is the minimal
// interface the intrusive circular list needs: access to the shared
// header carrying the prev/next links and the effective frame id.
type workItem interface {
	header() *itemHeader
}

// itemHeader is the header every WorkItem variant embeds. Node identity
// is the *Event or *Frame pointer itself; the header never moves
// independently of its owner, so links stay stable across list mutation
// even though the underlying Frame lives in a fixed pool array.
type itemHeader struct {
	kind           workKind
	prev, next     workItem
	effectiveFrame FrameID
}

// isQueued holds iff both links are non-nil.
func (h *itemHeader) isQueued() bool {
	return h.prev != nil && h.next != nil
}

func (h *itemHeader) setEffectiveFrame(id FrameID) {
	h.effectiveFrame = id
}

func (h *itemHeader) getEffectiveFrame() FrameID {
	return h.effectiveFrame
}

// queueAppend appends item to the tail of the circular list rooted at
// *head. *head always points at the oldest item; head's prev is always
// the newest (tail). O(1), matching DisplayQueue::WorkItem::queue.
func queueAppend(head *workItem, item workItem) {
	h := item.header()
	if debugEnabled && h.isQueued() {
		panic("dqueue: queueAppend called on an already-queued item")
	}
	if *head == nil {
		*head = item
		h.prev = item
		h.next = item
		return
	}
	headH := (*head).header()
	tail := headH.prev
	tailH := tail.header()

	tailH.next = item
	h.prev = tail
	h.next = *head
	headH.prev = item
}

// dequeue removes item from the circular list rooted at *head, advancing
// *head if item was the head. O(1), matching
// DisplayQueue::WorkItem::dequeue.
func dequeue(head *workItem, item workItem) {
	h := item.header()
	if debugEnabled && !h.isQueued() {
		panic("dqueue: dequeue called on an item that is not queued")
	}
	next := h.next
	prevH := h.prev.header()
	nextH := h.next.header()

	prevH.next = h.next
	nextH.prev = h.prev
	h.prev = nil
	h.next = nil

	if item == *head {
		if next == item {
			*head = nil
		} else {
			*head = next
		}
	}
}

// dumpItem renders a short diagnostic identity for an item, used by
// Queue.String().
func dumpItem(item workItem) string {
	h := item.header()
	switch v := item.(type) {
	case *Event:
		return fmt.Sprintf("Event{id=%d eff=%s}", v.id, h.effectiveFrame)
	case *Frame:
		return fmt.Sprintf("Frame{id=%s z=%d eff=%s locked=%t valid=%t}",
			v.frameID, v.zOrder, h.effectiveFrame, v.lockedForDisplay, v.valid)
	default:
		return "WorkItem{?}"
	}
}
