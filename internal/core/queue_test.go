package core

import (
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// TestMain turns on the internal-build style invariant checks for the
// whole package's test run, so validateLocked and ValidateFutureFrame
// actually exercise their panic paths instead of sitting dead.
func TestMain(m *testing.M) {
	SetDebug(true)
	os.Exit(m.Run())
}

// --- test doubles -----------------------------------------------------

type fakeFence struct {
	signalled atomic.Bool
}

func (f *fakeFence) Dup() (int, error)          { return 0, nil }
func (f *fakeFence) Signalled(_ int64) bool      { return f.signalled.Load() }
func (f *fakeFence) signal()                     { f.signalled.Store(true) }

type fakeReleaseFence struct{ native bool }

func (r *fakeReleaseFence) Native() bool { return r.native }
func (r *fakeReleaseFence) Cancel()      {}

type fakeLayer struct {
	handle  BufferHandle
	device  int64
	fence   *fakeFence
	release ReleaseFence
}

func (l *fakeLayer) IsDisabled() bool          { return false }
func (l *fakeLayer) Handle() BufferHandle      { return l.handle }
func (l *fakeLayer) BufferDeviceID() int64     { return l.device }
func (l *fakeLayer) AcquireFence() FenceSource {
	if l.fence == nil {
		return nil
	}
	return l.fence
}
func (l *fakeLayer) ReleaseFence() ReleaseFence { return l.release }

type fakeStack struct {
	layers []*fakeLayer
}

func (s *fakeStack) Len() int { return len(s.layers) }
func (s *fakeStack) Layer(i int) Layer { return s.layers[i] }

// newStack builds a single-layer stack whose acquire fence is not yet
// signalled, i.e. not rendering-complete — the right default for tests
// that are not specifically exercising dropRedundantFrames, so the
// worker's automatic redundant-drop pass never interferes.
func newStack() *fakeStack {
	return newStackWithFence(&fakeFence{})
}

func newStackWithFence(f *fakeFence) *fakeStack {
	return &fakeStack{layers: []*fakeLayer{{handle: "h", device: 1, fence: f}}}
}

// newCompleteStack builds a single-layer stack whose acquire fence is
// already signalled — rendering-complete, eligible to make an earlier
// queued frame redundant.
func newCompleteStack() *fakeStack {
	f := &fakeFence{}
	f.signal()
	return newStackWithFence(f)
}

type fakeBufferManager struct{}

func (fakeBufferManager) AcquireBuffer(BufferHandle) (AcquiredBuffer, error) { return fakeBuffer{}, nil }
func (fakeBufferManager) SetBufferUsage(BufferHandle, BufferUsage)           {}
func (fakeBufferManager) Validate(AcquiredBuffer, BufferHandle, int64)       {}

type fakeBuffer struct{}

func (fakeBuffer) Release() {}

// fakeDisplay simulates double-buffered scanout hardware: consuming a
// new frame releases whichever frame it was previously holding on
// screen, so exactly one pool frame stays locked at any time, matching
// a real display's behavior (the queue's own contract never implies
// this — it is this test double's choice of how "success, asynchronously"
// release happens).
type fakeDisplay struct {
	mu        sync.Mutex
	ready     bool
	queue     *Queue
	held      *Frame
	consume   func(item any)
}

func (d *fakeDisplay) ReadyForNextWork() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ready
}

func (d *fakeDisplay) setReady(r bool) {
	d.mu.Lock()
	d.ready = r
	d.mu.Unlock()
}

func (d *fakeDisplay) ConsumeWork(item any) {
	if f, ok := item.(*Frame); ok {
		d.mu.Lock()
		prev := d.held
		d.held = f
		d.mu.Unlock()
		if prev != nil {
			d.queue.ReleaseFrame(prev)
		}
	}
	if d.consume != nil {
		d.consume(item)
	}
}

func (d *fakeDisplay) SyncFlip() {}

func testConfig(poolCount int) Config {
	return Config{
		Name:            "test",
		FramePoolCount:  poolCount,
		TimeoutForReady: 5 * time.Millisecond,
		TimeoutForLimit: 5 * time.Millisecond,
	}
}

func waitForStats(t *testing.T, q *Queue, timeout time.Duration, pred func(Stats) bool) Stats {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		s := q.Stats()
		if pred(s) {
			return s
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for stats predicate, last stats: %+v", s)
		}
		time.Sleep(time.Millisecond)
	}
}

// --- scenarios --------------------------------------------

func TestSteadyState(t *testing.T) {
	var consumed []uint32
	var mu sync.Mutex
	display := &fakeDisplay{ready: true}
	display.consume = func(item any) {
		if f, ok := item.(*Frame); ok {
			mu.Lock()
			consumed = append(consumed, f.FrameID().HWCIndex)
			mu.Unlock()
		}
	}
	q := New(testConfig(4), display, fakeBufferManager{})
	display.queue = q
	defer q.Stop()

	for i := uint32(1); i <= 10; i++ {
		if err := q.QueueFrame(newStack(), 0, FrameID{HWCIndex: i, TimelineIndex: i}, FrameConfig{}); err != nil {
			t.Fatalf("QueueFrame(%d): %v", i, err)
		}
	}

	waitForStats(t, q, time.Second, func(s Stats) bool { return s.ConsumedWork == 10 })

	stats := q.Stats()
	if stats.FramePoolUsed != 1 {
		t.Errorf("FramePoolUsed = %d, want 1 (last frame still locked)", stats.FramePoolUsed)
	}
	if stats.LastIssuedFrame.HWCIndex != 10 {
		t.Errorf("LastIssuedFrame.HWCIndex = %d, want 10", stats.LastIssuedFrame.HWCIndex)
	}
}

func TestBackpressureDrop(t *testing.T) {
	display := &fakeDisplay{ready: false}
	q := New(testConfig(4), display, fakeBufferManager{})
	display.queue = q
	defer q.Stop()

	for i := uint32(1); i <= 12; i++ {
		if err := q.QueueFrame(newStack(), 0, FrameID{HWCIndex: i, TimelineIndex: i}, FrameConfig{}); err != nil {
			t.Fatalf("QueueFrame(%d): %v", i, err)
		}
	}

	stats := q.Stats()
	if stats.QueuedFrames > 4 {
		t.Errorf("QueuedFrames = %d, want <= 4", stats.QueuedFrames)
	}
	if stats.LastQueuedFrame.HWCIndex != 12 {
		t.Errorf("LastQueuedFrame.HWCIndex = %d, want 12", stats.LastQueuedFrame.HWCIndex)
	}
	if stats.LastDroppedFrame.HWCIndex != 8 {
		t.Errorf("LastDroppedFrame.HWCIndex = %d, want 8", stats.LastDroppedFrame.HWCIndex)
	}
}

func TestDropCoalescing(t *testing.T) {
	display := &fakeDisplay{ready: false}
	q := New(testConfig(4), display, fakeBufferManager{})
	display.queue = q
	defer q.Stop()

	if err := q.QueueFrame(newStack(), 0, FrameID{HWCIndex: 1, TimelineIndex: 1}, FrameConfig{}); err != nil {
		t.Fatal(err)
	}
	if err := q.QueueFrame(newStack(), 0, FrameID{HWCIndex: 2, TimelineIndex: 2}, FrameConfig{}); err != nil {
		t.Fatal(err)
	}
	q.QueueDrop(FrameID{HWCIndex: 3, TimelineIndex: 3})
	q.QueueDrop(FrameID{HWCIndex: 4, TimelineIndex: 4})

	q.mu.Lock()
	tailEff := q.head.header().prev.header().getEffectiveFrame()
	q.mu.Unlock()
	if tailEff.HWCIndex != 4 {
		t.Fatalf("tail effectiveFrame.HWCIndex = %d, want 4", tailEff.HWCIndex)
	}

	display.setReady(true)
	q.NotifyReady()

	waitForStats(t, q, time.Second, func(s Stats) bool { return s.LastIssuedFrame.HWCIndex == 4 })
}

func TestRedundantDrop(t *testing.T) {
	var consumedHWC []uint32
	var mu sync.Mutex
	// Pinned not-ready while all three frames are queued, so the worker
	// cannot consume frame 1 before frames 2 and 3 exist to make it
	// redundant — the equivalent of the scenario's "run worker once"
	// after setup completes.
	display := &fakeDisplay{ready: false}
	display.consume = func(item any) {
		if f, ok := item.(*Frame); ok {
			mu.Lock()
			consumedHWC = append(consumedHWC, f.FrameID().HWCIndex)
			mu.Unlock()
		}
	}
	q := New(testConfig(4), display, fakeBufferManager{})
	display.queue = q
	defer q.Stop()

	for i := uint32(1); i <= 3; i++ {
		if err := q.QueueFrame(newCompleteStack(), 0, FrameID{HWCIndex: i, TimelineIndex: i}, FrameConfig{}); err != nil {
			t.Fatal(err)
		}
	}

	display.setReady(true)
	q.NotifyReady()

	waitForStats(t, q, time.Second, func(s Stats) bool { return s.ConsumedFramesSinceInit >= 1 })

	mu.Lock()
	defer mu.Unlock()
	if len(consumedHWC) != 1 || consumedHWC[0] != 3 {
		t.Errorf("consumed frames = %v, want [3]", consumedHWC)
	}
}

func TestFlushTimeout(t *testing.T) {
	display := &fakeDisplay{ready: false}
	q := New(testConfig(4), display, fakeBufferManager{})
	display.queue = q
	defer q.Stop()

	for i := uint32(1); i <= 3; i++ {
		f := &fakeFence{}
		if err := q.QueueFrame(newStackWithFence(f), 0, FrameID{HWCIndex: i, TimelineIndex: i}, FrameConfig{}); err != nil {
			t.Fatal(err)
		}
	}

	start := time.Now()
	ok := q.Flush(FrameID{HWCIndex: 3}, 10*time.Millisecond)
	elapsed := time.Since(start)

	if ok {
		t.Errorf("Flush returned true, want false (timeout)")
	}
	if elapsed > 200*time.Millisecond {
		t.Errorf("Flush took %s, want roughly bounded by its timeout, not blocked on the stalled display", elapsed)
	}

	// The fallback invalidates every queued frame; the worker retires
	// them without ever handing them to the still-not-ready display.
	// None of them was ever issued, so lastIssuedFrame stays put.
	stats := waitForStats(t, q, time.Second, func(s Stats) bool { return s.QueuedFrames == 0 })
	if stats.LastIssuedFrame != (FrameID{}) {
		t.Errorf("LastIssuedFrame = %v, want zero value (invalidated frames were never issued)", stats.LastIssuedFrame)
	}
	if stats.FramePoolUsed != 0 {
		t.Errorf("FramePoolUsed = %d, want 0 after invalidated frames are retired", stats.FramePoolUsed)
	}
}

func TestEventOrdering(t *testing.T) {
	var order []string
	var mu sync.Mutex
	display := &fakeDisplay{ready: true}
	display.consume = func(item any) {
		mu.Lock()
		defer mu.Unlock()
		switch v := item.(type) {
		case *Frame:
			order = append(order, "frame")
			_ = v
		case *Event:
			order = append(order, "event")
		}
	}
	q := New(testConfig(4), display, fakeBufferManager{})
	display.queue = q
	defer q.Stop()

	if err := q.QueueFrame(newStack(), 0, FrameID{HWCIndex: 1, TimelineIndex: 1}, FrameConfig{}); err != nil {
		t.Fatal(err)
	}
	if err := q.QueueEvent(42); err != nil {
		t.Fatal(err)
	}
	if err := q.QueueFrame(newStack(), 0, FrameID{HWCIndex: 2, TimelineIndex: 2}, FrameConfig{}); err != nil {
		t.Fatal(err)
	}

	waitForStats(t, q, time.Second, func(s Stats) bool { return s.ConsumedWork == 3 })

	mu.Lock()
	defer mu.Unlock()
	want := []string{"frame", "event", "frame"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestFlushAllDrainsQueuedWork(t *testing.T) {
	display := &fakeDisplay{ready: false}
	q := New(testConfig(4), display, fakeBufferManager{})
	display.queue = q
	defer q.Stop()

	for i := uint32(1); i <= 3; i++ {
		f := &fakeFence{}
		if err := q.QueueFrame(newStackWithFence(f), 0, FrameID{HWCIndex: i, TimelineIndex: i}, FrameConfig{}); err != nil {
			t.Fatal(err)
		}
	}

	display.setReady(true)

	if ok := q.Flush(FrameID{}, time.Second); !ok {
		t.Fatal("Flush(zero id) returned false, want true once all queued work drains")
	}

	stats := q.Stats()
	if stats.ConsumedWork != 3 {
		t.Errorf("ConsumedWork = %d, want 3 (Flush with a zero id should drain everything queued at call time)", stats.ConsumedWork)
	}
}

func TestSelfFlush(t *testing.T) {
	display := &fakeDisplay{ready: true}
	var flushCalled bool
	var flushResult bool
	display.consume = func(item any) {
		if _, ok := item.(*Frame); ok && !flushCalled {
			flushCalled = true
			flushResult = display.queue.Flush(FrameID{}, 0)
		}
	}
	q := New(testConfig(4), display, fakeBufferManager{})
	display.queue = q
	defer q.Stop()

	if err := q.QueueFrame(newStack(), 0, FrameID{HWCIndex: 1, TimelineIndex: 1}, FrameConfig{}); err != nil {
		t.Fatal(err)
	}

	waitForStats(t, q, time.Second, func(s Stats) bool { return s.ConsumedWork >= 1 })

	if !flushCalled {
		t.Fatal("display.ConsumeWork was never called")
	}
	if flushResult {
		t.Errorf("Flush called from inside ConsumeWork returned true, want false (self-flush fallback)")
	}
}

func TestDropAllFramesReleasesNonLocked(t *testing.T) {
	display := &fakeDisplay{ready: false}
	q := New(testConfig(4), display, fakeBufferManager{})
	display.queue = q
	defer q.Stop()

	for i := uint32(1); i <= 3; i++ {
		if err := q.QueueFrame(newStack(), 0, FrameID{HWCIndex: i, TimelineIndex: i}, FrameConfig{}); err != nil {
			t.Fatal(err)
		}
	}

	q.DropAllFrames()

	stats := q.Stats()
	if stats.QueuedFrames != 0 {
		t.Errorf("QueuedFrames = %d, want 0 after DropAllFrames", stats.QueuedFrames)
	}
	if stats.FramePoolUsed != 0 {
		t.Errorf("FramePoolUsed = %d, want 0 (nothing was locked for display)", stats.FramePoolUsed)
	}
}
