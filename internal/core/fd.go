package core

import "golang.org/x/sys/unix"

// closeFD closes a duplicated acquire-fence descriptor owned by a
// FrameLayer. Errors are swallowed: a double-close or an already-dead fd
// is not actionable by the caller, and this mirrors Timeline::closeFence
// in the original, which is likewise fire-and-forget.
func closeFD(fd int) {
	_ = unix.Close(fd)
}
