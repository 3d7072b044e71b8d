// Package timeline is a software stand-in for a kernel sync-fence
// timeline. Each fence is backed by a real os.Pipe descriptor pair (Dup
// duplicates the read end) so Dup/Close exercise genuine fd lifetime rules
// instead of a fake int, following the fd-duplication idiom the pack's
// Wayland shm examples use for buffer handles.
package timeline

import (
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// Timeline is a monotonically advancing counter. Advancing it signals
// every outstanding FenceReference whose target value is now reached.
type Timeline struct {
	mu      sync.Mutex
	current uint64
}

// New creates a Timeline starting at zero.
func New() *Timeline {
	return &Timeline{}
}

// Advance bumps the timeline to value if value is greater than its
// current position; advancing backwards is a no-op.
func (t *Timeline) Advance(value uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if value > t.current {
		t.current = value
	}
}

// Current returns the timeline's current position.
func (t *Timeline) Current() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// NewFence creates a FenceReference that becomes signalled once the
// timeline reaches target.
func (t *Timeline) NewFence(target uint64) (*FenceReference, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	return &FenceReference{timeline: t, target: target, r: r, w: w}, nil
}

// FenceReference is a producer-owned acquire or release fence backed by
// a real file descriptor pair. It implements both core.FenceSource and
// core.ReleaseFence.
type FenceReference struct {
	timeline *Timeline
	target   uint64

	mu        sync.Mutex
	r, w      *os.File
	cancelled bool
}

// Dup returns a new, independently-closable descriptor naming the same
// fence. The caller owns the returned fd and must close it via
// unix.Close.
func (f *FenceReference) Dup() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.r == nil {
		return -1, os.ErrClosed
	}
	return unix.Dup(int(f.r.Fd()))
}

// Signalled reports whether the timeline has reached f's target.
// timeoutNs is accepted for interface compatibility with a blocking
// poll on a real sync-fence fd; this simulation is non-blocking
// regardless of timeoutNs since the timeline advances synchronously.
func (f *FenceReference) Signalled(timeoutNs int64) bool {
	return f.timeline.Current() >= f.target
}

// Native reports whether this is a kernel sync-fence-backed release
// fence. FenceReference always is.
func (f *FenceReference) Native() bool { return true }

// Cancel releases the fence's file descriptors without signalling it.
// Safe to call more than once.
func (f *FenceReference) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = true
	f.closeLocked()
}

// CloseFence closes the fd pointed to by fd and resets it to -1, the Go
// analogue of a C++ RAII fd guard going out of scope.
func CloseFence(fd *int) {
	if fd == nil || *fd < 0 {
		return
	}
	unix.Close(*fd)
	*fd = -1
}

func (f *FenceReference) closeLocked() {
	if f.r != nil {
		f.r.Close()
		f.r = nil
	}
	if f.w != nil {
		f.w.Close()
		f.w = nil
	}
}
