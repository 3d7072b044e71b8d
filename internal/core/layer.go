package core

// BufferHandle is an opaque identifier for a native graphics buffer,
// supplied by the producer. The core never interprets it; it is only
// ever handed back to a BufferManager.
type BufferHandle any

// BufferUsage is a hint passed to the buffer manager describing how a
// buffer is currently being used. Display is the only usage the core
// ever sets, matching AbstractBufferManager::eBufferUsage_Display.
type BufferUsage int

const (
	BufferUsageNone BufferUsage = iota
	BufferUsageDisplay
)

// AcquiredBuffer is a strong reference to a native buffer, held by a
// FrameLayer between Set and Reset.
type AcquiredBuffer interface {
	Release()
}

// BufferManager is the external collaborator that owns native buffer
// lifetime. The core only ever acquires, tags, and (in
// debug builds) validates buffers through this interface — allocation
// policy is entirely out of scope.
type BufferManager interface {
	AcquireBuffer(handle BufferHandle) (AcquiredBuffer, error)
	SetBufferUsage(handle BufferHandle, usage BufferUsage)
	Validate(buf AcquiredBuffer, handle BufferHandle, deviceID int64)
}

// FenceSource is a producer-owned acquire fence. Dup creates a new,
// independently-closable descriptor for the fence; Signalled polls (timeoutNs == 0) or
// blocks (timeoutNs > 0) until the fence is signalled or the timeout
// elapses, returning true iff signalled.
type FenceSource interface {
	Dup() (fd int, err error)
	Signalled(timeoutNs int64) bool
}

// ReleaseFence is a producer-owned release fence. Only non-native
// release fences are retained by a FrameLayer past snapshot time — see
// Native's doc comment for why.
type ReleaseFence interface {
	// Native reports whether this is a native (kernel sync-fence backed)
	// release fence. Native release fences are never retained by a
	// FrameLayer: release is signalled later by advancing the fence
	// timeline, not by holding a reference. Non-native fences are kept to
	// support out-of-order composition-buffer release.
	Native() bool
	Cancel()
}

// Layer is the read-only view of one producer layer that a FrameLayer
// snapshots at enqueue time. The core holds no reference to the
// producer's own layer object past Set — SnapshotOf-equivalent
// behaviour is enforced by FrameLayer.Set copying every field it needs
// out of Layer immediately.
type Layer interface {
	IsDisabled() bool
	Handle() BufferHandle
	BufferDeviceID() int64
	AcquireFence() FenceSource // nil if the producer supplied none
	ReleaseFence() ReleaseFence
}

const defaultWaitRenderingTimeoutNs = int64(150 * 1e6) // 150ms

// FrameLayer is a snapshot of one producer layer at the moment of
// enqueue. It is disjoint from the producer's
// layer: any native release-fence reference is dropped immediately,
// while non-native release-fence references are preserved to support
// out-of-order composition-buffer release.
type FrameLayer struct {
	disabled       bool
	handle         BufferHandle
	bufferDeviceID int64
	fence          FenceSource // retained for WaitRendering/IsRenderingComplete polling
	acquireFD      int         // duplicated fd, -1 if none; owned, closed on Reset
	acquired       AcquiredBuffer
	releaseFence   ReleaseFence // retained only if non-native
	set            bool
}

func newFrameLayer() FrameLayer {
	return FrameLayer{acquireFD: -1}
}

// Set snapshots layer into fl. fl must not already be set.
func (fl *FrameLayer) Set(layer Layer, bm BufferManager) error {
	if debugEnabled && fl.set {
		panic("dqueue: FrameLayer.Set called on an already-set layer")
	}
	if debugEnabled && fl.acquired != nil {
		panic("dqueue: FrameLayer.Set called with a buffer still acquired")
	}

	fl.disabled = layer.IsDisabled()
	fl.bufferDeviceID = layer.BufferDeviceID()

	fl.acquireFD = -1
	fl.fence = layer.AcquireFence()
	if fl.fence != nil {
		fd, err := fl.fence.Dup()
		if err != nil {
			return err
		}
		fl.acquireFD = fd
	}

	// Our frame layer copy must not reference native release fences past
	// this point: we have no guarantee these will remain valid, and
	// frame release is signalled by advancing the timeline, not by
	// holding the reference. Non-native release fences are retained to
	// support out-of-order composition-buffer release.
	if rel := layer.ReleaseFence(); rel != nil && !rel.Native() {
		fl.releaseFence = rel
	} else {
		fl.releaseFence = nil
	}

	fl.handle = layer.Handle()
	if fl.handle != nil {
		acquired, err := bm.AcquireBuffer(fl.handle)
		if err != nil {
			return err
		}
		fl.acquired = acquired
		if debugEnabled {
			bm.Validate(fl.acquired, fl.handle, fl.bufferDeviceID)
		}
		bm.SetBufferUsage(fl.handle, BufferUsageDisplay)
	}

	fl.set = true

	if debugEnabled {
		if fl.set && (fl.acquired != nil) != (fl.handle != nil) {
			panic("dqueue: FrameLayer invariant violated: acquired buffer without a handle, or vice versa")
		}
	}
	return nil
}

// Reset closes the acquire fence and, if cancel, drops the queue's
// release-fence reference so composition buffers can be reused as soon
// as possible. cancel is true on drop, false on ordinary release (where
// the release fence is allowed to signal naturally via timeline
// advance).
func (fl *FrameLayer) Reset(cancel bool) {
	if fl.acquireFD >= 0 {
		closeFD(fl.acquireFD)
		fl.acquireFD = -1
	}
	if cancel && fl.releaseFence != nil {
		fl.releaseFence.Cancel()
	}
	fl.releaseFence = nil
	fl.fence = nil
	if fl.acquired != nil {
		fl.acquired.Release()
		fl.acquired = nil
	}
	fl.handle = nil
	fl.set = false
}

// IsDisabled reports whether this layer is disabled, or has no valid
// buffer device id — either way it is excluded from rendering-complete
// checks and real scanout.
func (fl *FrameLayer) IsDisabled() bool {
	return fl.disabled || fl.bufferDeviceID == 0
}

// WaitRendering blocks until this layer's acquire fence signals, or a
// bounded timeout elapses. Disabled layers are always considered ready.
func (fl *FrameLayer) WaitRendering() {
	if fl.IsDisabled() || fl.fence == nil {
		return
	}
	fl.fence.Signalled(defaultWaitRenderingTimeoutNs)
}

// IsRenderingComplete polls (0 timeout) whether this layer's acquire
// fence has already signalled. Disabled layers are always complete.
func (fl *FrameLayer) IsRenderingComplete() bool {
	if fl.IsDisabled() {
		return true
	}
	if fl.fence == nil {
		return true
	}
	return fl.fence.Signalled(0)
}
