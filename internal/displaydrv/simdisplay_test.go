package displaydrv

import (
	"testing"
	"time"

	"github.com/visiona/dqueue/internal/core"
)

type fakeReleaser struct {
	released []*core.Frame
}

func (r *fakeReleaser) ReleaseFrame(f *core.Frame) {
	r.released = append(r.released, f)
}

func TestReadyForNextWorkDefaultsTrue(t *testing.T) {
	d := New(nil, &fakeReleaser{}, 16*time.Millisecond)
	if !d.ReadyForNextWork() {
		t.Fatal("ReadyForNextWork() = false, want true by default")
	}
}

func TestSetReadyPinsState(t *testing.T) {
	d := New(nil, &fakeReleaser{}, 16*time.Millisecond)
	d.SetReady(false)
	if d.ReadyForNextWork() {
		t.Fatal("ReadyForNextWork() = true after SetReady(false)")
	}
}

func TestConsumeWorkReleasesPreviousFrame(t *testing.T) {
	rel := &fakeReleaser{}
	d := New(nil, rel, 16*time.Millisecond)

	f1 := &core.Frame{}
	f2 := &core.Frame{}

	d.ConsumeWork(f1)
	if len(rel.released) != 0 {
		t.Fatalf("first ConsumeWork released a frame, want none: %v", rel.released)
	}

	d.ConsumeWork(f2)
	if len(rel.released) != 1 || rel.released[0] != f1 {
		t.Fatalf("second ConsumeWork released %v, want [f1]", rel.released)
	}
}

func TestConsumeWorkIgnoresNonFrameItems(t *testing.T) {
	rel := &fakeReleaser{}
	d := New(nil, rel, 16*time.Millisecond)
	d.ConsumeWork("not a frame")
	if len(rel.released) != 0 {
		t.Fatalf("ConsumeWork released on a non-frame item: %v", rel.released)
	}
}

func TestSyncFlipCountsFlips(t *testing.T) {
	d := New(nil, &fakeReleaser{}, 16*time.Millisecond)
	d.SyncFlip()
	d.SyncFlip()
	if d.Flips() != 2 {
		t.Fatalf("Flips() = %d, want 2", d.Flips())
	}
}
