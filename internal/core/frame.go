package core

import "errors"

// minimumLayerAllocCount is the minimum number of layers a Frame
// pre-allocates, to avoid reallocation churn for the common case of a
// small, stable layer stack. Allocation can grow beyond this.
const minimumLayerAllocCount = 8

// FrameKind distinguishes pool-owned display queue frames from any
// other frame-shaped object that might flow through shared plumbing.
// Only FrameKindDisplayQueue frames are ever touched by pool ownership
// logic (dropAllFrames, findFree, releaseFrame) — this is the Go
// equivalent of the original's Frame::eFT_DISPLAY_QUEUE vs eFT_CUSTOM
// tag, made explicit so ownership checks have something concrete to
// test against instead of an implicit "pool-owned" assumption.
type FrameKind uint8

const (
	FrameKindDisplayQueue FrameKind = iota
	FrameKindCustom
)

// FrameConfig is the per-frame configuration threaded through from the
// producer (e.g. blending mode, transform) to the downstream display.
// The core never interprets it.
type FrameConfig struct {
	Transform int
	Blend     int
}

// LayerStack is the producer-supplied ordered set of layers composing a
// frame, snapshotted into a Frame's FrameLayer slice by Frame.Set.
type LayerStack interface {
	Len() int
	Layer(i int) Layer
}

var (
	// ErrLayerAllocFailed is returned by Frame.Set when layer storage
	// could not be grown to fit the incoming stack.
	ErrLayerAllocFailed = errors.New("dqueue: failed to allocate frame layers")
)

// Frame is the WorkItem variant carrying a snapshotted layer stack
//. Frames are pool-allocated: the
// DisplayQueue owns a fixed array of Frame and hands out slots via
// findFree, never allocating a Frame on the heap itself.
type Frame struct {
	itemHeader

	frameKind FrameKind
	zOrder    uint32
	frameID   FrameID
	config    FrameConfig

	layers     []FrameLayer
	layerCount int

	lockedForDisplay bool
	valid            bool
}

func newFrame() *Frame {
	return &Frame{itemHeader: itemHeader{kind: kindFrame}, frameKind: FrameKindDisplayQueue}
}

func (f *Frame) header() *itemHeader { return &f.itemHeader }

func (f *Frame) isLockedForDisplay() bool { return f.lockedForDisplay }

func (f *Frame) ensureLayerCapacity(n int) {
	if n <= len(f.layers) {
		return
	}
	allocCount := n
	if allocCount < minimumLayerAllocCount {
		allocCount = minimumLayerAllocCount
	}
	grown := make([]FrameLayer, allocCount)
	for i := range grown {
		grown[i] = newFrameLayer()
	}
	f.layers = grown
}

// Set snapshots stack into f. f must not
// already be queued or locked for display.
func (f *Frame) Set(stack LayerStack, zorder uint32, id FrameID, config FrameConfig, bm BufferManager) error {
	if debugEnabled && f.isQueued() {
		panic("dqueue: Frame.Set called on a still-queued frame")
	}
	if debugEnabled && f.lockedForDisplay {
		panic("dqueue: Frame.Set called on a frame locked for display")
	}

	stackSize := stack.Len()
	f.ensureLayerCapacity(stackSize)
	if len(f.layers) < stackSize {
		f.layerCount = 0
		return ErrLayerAllocFailed
	}

	for i := 0; i < stackSize; i++ {
		if err := f.layers[i].Set(stack.Layer(i), bm); err != nil {
			// Leave the frame in a clean, resettable state: the layers
			// already set this call, and the one that failed part-way,
			// are torn back down, the caller sees an error and no pool
			// counters change.
			for j := 0; j <= i; j++ {
				f.layers[j].Reset(true)
			}
			return err
		}
	}

	f.layerCount = stackSize
	f.zOrder = zorder
	f.frameID = id
	f.config = config
	f.valid = true
	return nil
}

// Reset tears down every set layer. cancel
// distinguishes an explicit drop (true) from an ordinary release (false).
func (f *Frame) Reset(cancel bool) {
	f.lockedForDisplay = false
	for i := 0; i < f.layerCount; i++ {
		f.layers[i].Reset(cancel)
	}
	f.layerCount = 0
}

// Invalidate marks f invalid so the worker skips/retires it the next
// time it would be delivered, rather than dropping it immediately.
func (f *Frame) Invalidate() { f.valid = false }

// IsValid reports whether f is still eligible for delivery.
func (f *Frame) IsValid() bool { return f.valid }

// WaitRendering blocks on every layer's acquire fence in turn.
func (f *Frame) WaitRendering() {
	for i := 0; i < f.layerCount; i++ {
		f.layers[i].WaitRendering()
	}
}

// IsRenderingComplete reports whether every layer's acquire fence has
// already signalled (0-timeout poll on each).
func (f *Frame) IsRenderingComplete() bool {
	for i := 0; i < f.layerCount; i++ {
		if !f.layers[i].IsRenderingComplete() {
			return false
		}
	}
	return true
}

// FrameID returns the frame's own id (not its effective frame, which
// may have advanced past it due to coalesced drops).
func (f *Frame) FrameID() FrameID { return f.frameID }

// ZOrder returns the frame's z-order.
func (f *Frame) ZOrder() uint32 { return f.zOrder }

// Config returns the frame's per-frame config.
func (f *Frame) Config() FrameConfig { return f.config }

// LayerCount returns the number of set layers.
func (f *Frame) LayerCount() int { return f.layerCount }

// Layer returns the i'th set layer, or nil if out of range.
func (f *Frame) Layer(i int) *FrameLayer {
	if i < 0 || i >= f.layerCount {
		return nil
	}
	return &f.layers[i]
}
