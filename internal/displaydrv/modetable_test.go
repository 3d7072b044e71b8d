package displaydrv

import "testing"

func TestLookupActiveConfigHandle(t *testing.T) {
	tbl := NewModeTable(
		Mode{Width: 1920, Height: 1080, RefreshHz: 60},
		Mode{Width: 3840, Height: 2160, RefreshHz: 30},
	)

	mode, ok := tbl.Lookup(ActiveConfigHandle)
	if !ok {
		t.Fatal("Lookup(ActiveConfigHandle) returned ok=false")
	}
	if mode.Width != 1920 || mode.Height != 1080 {
		t.Fatalf("active mode = %+v, want the first registered mode", mode)
	}
}

func TestSetActiveChangesActiveConfigResolution(t *testing.T) {
	tbl := NewModeTable(
		Mode{Width: 1920, Height: 1080, RefreshHz: 60},
		Mode{Width: 3840, Height: 2160, RefreshHz: 30},
	)

	handles := tbl.Modes()
	var fourK uint32
	for h, m := range handles {
		if m.Width == 3840 {
			fourK = h
		}
	}

	if !tbl.SetActive(fourK) {
		t.Fatal("SetActive returned false for a known handle")
	}

	mode, ok := tbl.Lookup(ActiveConfigHandle)
	if !ok || mode.Width != 3840 {
		t.Fatalf("active mode after SetActive = %+v, ok=%v", mode, ok)
	}
}

func TestSetActiveRejectsUnknownHandle(t *testing.T) {
	tbl := NewModeTable(Mode{Width: 1920, Height: 1080, RefreshHz: 60})
	if tbl.SetActive(0xdeadbeef) {
		t.Fatal("SetActive accepted an unknown handle")
	}
}

func TestLookupUnknownHandleFails(t *testing.T) {
	tbl := NewModeTable(Mode{Width: 1920, Height: 1080, RefreshHz: 60})
	if _, ok := tbl.Lookup(0xdeadbeef); ok {
		t.Fatal("Lookup succeeded for an unknown handle")
	}
}
