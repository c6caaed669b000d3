/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package bridge

import "sync/atomic"

// Ring is the bounded SPSC command channel: the UI thread is
// the sole producer (Push), the audio thread is the sole consumer
// (Drain). Overflow drops the newest structural command and sets a sticky
// pending-recompile flag rather than blocking the producer; non-structural
// commands are simply refused so the caller can log a backpressure signal
// (never silently dropped).
type Ring struct {
	buf  []Command
	head uint64 // atomic; advanced only by the audio-thread consumer
	tail uint64 // atomic; advanced only by the UI-thread producer

	pendingRecompile uint32 // atomic bool
}

// NewRing returns a ring with the given fixed capacity.
func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{buf: make([]Command, capacity)}
}

// Push enqueues cmd. Returns false if the ring was full: for a structural
// command this also sets the sticky pending-recompile flag so the next
// successful drain forces a full rebuild ("Recovery"); for any other
// command the caller is expected to log the drop itself.
func (r *Ring) Push(cmd Command) bool {
	tail := atomic.LoadUint64(&r.tail)
	head := atomic.LoadUint64(&r.head)
	if tail-head >= uint64(len(r.buf)) {
		if cmd.Kind.Structural() {
			atomic.StoreUint32(&r.pendingRecompile, 1)
		}
		return false
	}
	r.buf[tail%uint64(len(r.buf))] = cmd
	atomic.AddUint64(&r.tail, 1)
	return true
}

// Drain removes and returns every currently enqueued command, oldest
// first. Called once per block from the audio thread; the result length
// is bounded by the ring's fixed capacity, so the caller's loop is
// bounded too.
func (r *Ring) Drain() []Command {
	tail := atomic.LoadUint64(&r.tail)
	head := atomic.LoadUint64(&r.head)
	if head == tail {
		return nil
	}
	n := tail - head
	out := make([]Command, n)
	for i := uint64(0); i < n; i++ {
		out[i] = r.buf[(head+i)%uint64(len(r.buf))]
	}
	atomic.StoreUint64(&r.head, tail)
	return out
}

// TakePendingRecompile reports whether overflow forced a structural
// command to be dropped since the last call, clearing the flag.
func (r *Ring) TakePendingRecompile() bool {
	return atomic.SwapUint32(&r.pendingRecompile, 0) == 1
}

// MarkPendingRecompile sets the sticky recompile flag directly (used when
// a CmdRecompileGraph is itself successfully enqueued, or when the caller
// wants to force a rebuild outside the overflow path).
func (r *Ring) MarkPendingRecompile() {
	atomic.StoreUint32(&r.pendingRecompile, 1)
}
