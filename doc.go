// Package dqueue implements the bounded, pipelined handoff between a
// frame producer (a compositor preparing layer stacks for a physical
// display) and a single display consumer that performs the page-flip.
//
// The queue owns the lifetime of in-flight frames, arbitrates between
// newly-produced frames and in-progress scanout, drops frames that
// become redundant once a newer frame is already render-complete, and
// coordinates producer/consumer synchronization around acquire/release
// fences. A dedicated worker goroutine drives the queue toward the
// downstream Display; producers never block on the worker except
// through Flush (bounded only when given a non-zero timeout) and the
// bounded wait of the frame pool limit.
//
// Implementation is in internal/core (hidden from clients).
package dqueue
