package displaydrv

// ActiveConfigHandle is the reserved handle meaning "whatever mode is
// currently active", carried over from the original's
// CONFIG_HANDLE_RSVD_ACTIVE_CONFIG.
const ActiveConfigHandle uint32 = 0

// Mode is one display timing a physical display advertises support
// for, the Go analogue of the original's Timing.
type Mode struct {
	Width     int
	Height    int
	RefreshHz int
}

// ModeTable enumerates the modes a display supports and resolves
// config handles to them, grounded on physicaldisplay.h's
// CONFIG_HANDLE_BASE-indexed config handle scheme.
type ModeTable struct {
	modes  []Mode
	active uint32
}

const configHandleBase uint32 = 0x12340000

// NewModeTable builds a table from modes in the order a display
// reported them. The first mode becomes the initially active one.
func NewModeTable(modes ...Mode) *ModeTable {
	t := &ModeTable{modes: modes}
	if len(modes) > 0 {
		t.active = configHandleBase
	}
	return t
}

// Modes returns every supported mode with its assigned handle.
func (t *ModeTable) Modes() map[uint32]Mode {
	out := make(map[uint32]Mode, len(t.modes))
	for i, m := range t.modes {
		out[configHandleBase+uint32(i)] = m
	}
	return out
}

// Lookup resolves handle to a Mode. ActiveConfigHandle resolves to
// whichever mode SetActive last selected.
func (t *ModeTable) Lookup(handle uint32) (Mode, bool) {
	if handle == ActiveConfigHandle {
		handle = t.active
	}
	idx := handle - configHandleBase
	if idx >= uint32(len(t.modes)) {
		return Mode{}, false
	}
	return t.modes[idx], true
}

// SetActive makes handle the mode ActiveConfigHandle resolves to.
// Returns false if handle does not name a known mode.
func (t *ModeTable) SetActive(handle uint32) bool {
	if _, ok := t.Lookup(handle); !ok {
		return false
	}
	t.active = handle
	return true
}

// ActiveHandle returns the concrete handle ActiveConfigHandle currently
// resolves to.
func (t *ModeTable) ActiveHandle() uint32 {
	return t.active
}
