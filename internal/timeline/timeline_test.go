package timeline

import (
	"testing"

	"golang.org/x/sys/unix"
)

func TestSignalledAfterAdvance(t *testing.T) {
	tl := New()
	f, err := tl.NewFence(5)
	if err != nil {
		t.Fatalf("NewFence: %v", err)
	}
	defer f.Cancel()

	if f.Signalled(0) {
		t.Fatal("fence signalled before timeline reached target")
	}

	tl.Advance(3)
	if f.Signalled(0) {
		t.Fatal("fence signalled before target reached")
	}

	tl.Advance(5)
	if !f.Signalled(0) {
		t.Fatal("fence not signalled after timeline reached target")
	}
}

func TestAdvanceNeverGoesBackwards(t *testing.T) {
	tl := New()
	tl.Advance(10)
	tl.Advance(4)
	if tl.Current() != 10 {
		t.Fatalf("Current() = %d, want 10", tl.Current())
	}
}

func TestDupIsIndependentlyClosable(t *testing.T) {
	tl := New()
	f, err := tl.NewFence(1)
	if err != nil {
		t.Fatalf("NewFence: %v", err)
	}
	defer f.Cancel()

	dup, err := f.Dup()
	if err != nil {
		t.Fatalf("Dup: %v", err)
	}
	if dup < 0 {
		t.Fatal("Dup returned invalid fd")
	}

	if err := unix.Close(dup); err != nil {
		t.Fatalf("closing dup: %v", err)
	}

	// The original fence must still be usable after its dup was closed.
	tl.Advance(1)
	if !f.Signalled(0) {
		t.Fatal("fence unusable after its dup was closed")
	}
}

func TestCancelClosesUnderlyingFDs(t *testing.T) {
	tl := New()
	f, err := tl.NewFence(1)
	if err != nil {
		t.Fatalf("NewFence: %v", err)
	}
	f.Cancel()

	if _, err := f.Dup(); err == nil {
		t.Fatal("Dup succeeded after Cancel")
	}
}

func TestNativeIsAlwaysTrue(t *testing.T) {
	tl := New()
	f, err := tl.NewFence(1)
	if err != nil {
		t.Fatalf("NewFence: %v", err)
	}
	defer f.Cancel()
	if !f.Native() {
		t.Fatal("FenceReference.Native() = false, want true")
	}
}
