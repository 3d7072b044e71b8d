package core

import "fmt"

// FrameID identifies a frame by a pair of wrap-around counters: the
// producer's own frame counter (HWCIndex) and the fence-timeline counter
// that the frame's layers were snapshotted against (TimelineIndex).
//
// Both counters wrap at 2^32. Ordering between two ids is defined by
// signed-delta comparison, not by plain integer comparison, so wrap is
// handled transparently as long as no two compared ids are more than
// 2^31 apart.
type FrameID struct {
	HWCIndex      uint32
	TimelineIndex uint32
}

// After reports whether id is strictly newer than other by hwc index.
func (id FrameID) After(other FrameID) bool {
	return int32(id.HWCIndex-other.HWCIndex) > 0
}

// AtOrAfter reports whether id is newer than or equal to other by hwc index.
func (id FrameID) AtOrAfter(other FrameID) bool {
	return int32(id.HWCIndex-other.HWCIndex) >= 0
}

// timelineAtOrAfter compares by timeline index, used when picking the
// oldest queued frame in the pool.
func (id FrameID) timelineAtOrAfter(other FrameID) bool {
	return int32(id.TimelineIndex-other.TimelineIndex) >= 0
}

// ValidateFutureFrame panics (when debug checks are enabled) if other is
// in the past relative to id. This is the Go analogue of
// FrameId::validateFutureFrame: a programmer error in release builds is
// accepted silently (the caller has already corrupted ordering upstream),
// but debug builds fail loudly and immediately.
func (id FrameID) ValidateFutureFrame(other FrameID) {
	if !debugEnabled {
		return
	}
	if !other.AtOrAfter(id) || !other.timelineAtOrAfter(id) {
		panic(fmt.Sprintf("dqueue: frame id went backwards: %s -> %s", id, other))
	}
}

func (id FrameID) String() string {
	return fmt.Sprintf("Frame[hwc=%d tl=%d]", id.HWCIndex, id.TimelineIndex)
}
