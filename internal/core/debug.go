package core

// debugEnabled gates the invariant checks the original C++ implementation
// compiled in only for INTEL_HWC_INTERNAL_BUILD. Go has no separate
// internal/release build of the same binary in the way the original did,
// so this is a runtime flag instead of a build tag: tests turn it on to
// get the strict checking, production wiring (cmd/dqueued) leaves it off
// so a genuine upstream ordering bug degrades rather than crashing a
// running compositor.
var debugEnabled = false

// SetDebug enables or disables internal-build style invariant checking
// (validateLocked, ValidateFutureFrame panics) for the whole core package.
// Intended for use from tests and from a CLI --debug flag, not for
// toggling mid-flight in production.
func SetDebug(enabled bool) {
	debugEnabled = enabled
}

// DebugEnabled reports the current debug-check state.
func DebugEnabled() bool {
	return debugEnabled
}
