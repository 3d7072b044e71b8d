// Package bufferhandle is a reference-counted stand-in for the native
// buffer manager the core depends on through core.BufferManager. Real
// GPU/gralloc buffer allocation is out of scope; this package only
// implements the acquire/usage/validate surface the queue exercises.
package bufferhandle

import (
	"fmt"
	"sync/atomic"

	"github.com/visiona/dqueue/internal/core"
)

// nativeBuffer is the backing object a handle resolves to. Production
// callers would plug in real gralloc/dmabuf-backed buffers here; this
// one just tracks a device id and a refcount.
type nativeBuffer struct {
	deviceID int64
	refs     atomic.Int64
}

// Manager resolves opaque core.BufferHandle values to refcounted
// buffers. A Manager owns the registry; handles must be registered
// with Register before any Frame can reference them.
type Manager struct {
	buffers map[core.BufferHandle]*nativeBuffer
}

// New creates an empty Manager.
func New() *Manager {
	return &Manager{buffers: make(map[core.BufferHandle]*nativeBuffer)}
}

// Register associates handle with deviceID so AcquireBuffer and
// Validate can resolve it later. Safe to call again for the same
// handle to update its device id.
func (m *Manager) Register(handle core.BufferHandle, deviceID int64) {
	if b, ok := m.buffers[handle]; ok {
		b.deviceID = deviceID
		return
	}
	m.buffers[handle] = &nativeBuffer{deviceID: deviceID}
}

// AcquiredRef is a strong reference returned by AcquireBuffer. Release
// decrements the buffer's refcount; it is safe to call at most once.
type AcquiredRef struct {
	buf *nativeBuffer
}

// Release implements core.AcquiredBuffer.
func (r *AcquiredRef) Release() {
	if r == nil || r.buf == nil {
		return
	}
	r.buf.refs.Add(-1)
	r.buf = nil
}

// AcquireBuffer implements core.BufferManager. The returned reference
// must be released exactly once via AcquiredRef.Release.
func (m *Manager) AcquireBuffer(handle core.BufferHandle) (core.AcquiredBuffer, error) {
	b, ok := m.buffers[handle]
	if !ok {
		return nil, fmt.Errorf("bufferhandle: unregistered handle %v", handle)
	}
	b.refs.Add(1)
	return &AcquiredRef{buf: b}, nil
}

// SetBufferUsage implements core.BufferManager. The stand-in does not
// track usage hints beyond acknowledging the call; a real manager would
// use this to influence allocation placement (scanout-capable memory,
// compression, etc).
func (m *Manager) SetBufferUsage(core.BufferHandle, core.BufferUsage) {}

// Validate implements core.BufferManager's debug-only cross-check: the
// acquired reference must still point at the buffer registered under
// handle, and that buffer's device id must match deviceID. Panics on
// mismatch — Validate is only ever called when debug checks are
// enabled, so a mismatch here is always a programmer error upstream.
func (m *Manager) Validate(buf core.AcquiredBuffer, handle core.BufferHandle, deviceID int64) {
	ref, ok := buf.(*AcquiredRef)
	if !ok || ref.buf == nil {
		panic("bufferhandle: Validate called with a reference not owned by this manager")
	}
	want, ok := m.buffers[handle]
	if !ok || ref.buf != want {
		panic("bufferhandle: Validate called with a reference that does not match its handle")
	}
	if ref.buf.deviceID != deviceID {
		panic(fmt.Sprintf("bufferhandle: device id mismatch: buffer=%d frame=%d", ref.buf.deviceID, deviceID))
	}
}

// RefCount returns the current refcount for handle, for tests and
// telemetry. Returns 0 for an unregistered handle.
func (m *Manager) RefCount(handle core.BufferHandle) int64 {
	b, ok := m.buffers[handle]
	if !ok {
		return 0
	}
	return b.refs.Load()
}
