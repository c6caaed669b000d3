/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package engine implements the audio-owned EngineController: the
// per-block loop tying together the compiled Graph, Scheduler,
// ClipPlayback and NodeRegistry.
package engine

import (
	"sync/atomic"

	"github.com/friendsincode/hyasynth/internal/runtime"
)

// ReclaimQueue receives retired *runtime.Graph pointers from a hot-swap so
// the audio thread never has to run a destructor or free a large
// allocation itself, deferred by handing it off to
// a UI-side reclaim queue"). Push only ever writes a pointer into a
// pre-sized slot, so it is safe to call from the audio thread; Drain runs
// on the UI thread and is where the old graph's memory actually becomes
// eligible for GC.
type ReclaimQueue struct {
	slots []*runtime.Graph
	head  uint64 // atomic; UI-thread owned
	tail  uint64 // atomic; audio-thread owned
}

// NewReclaimQueue returns a queue with the given fixed capacity. Capacity
// only needs to cover the number of recompiles that could plausibly
// happen between two UI-side drains; one structural command per block is
// the realistic upper bound.
func NewReclaimQueue(capacity int) *ReclaimQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &ReclaimQueue{slots: make([]*runtime.Graph, capacity)}
}

// Push hands off a retired graph. If the queue is full (the UI thread has
// fallen behind draining it), the oldest retired graph is overwritten;
// its memory simply becomes unreachable a block later than ideal, which
// is harmless since nothing retains a reference to it once replaced.
func (q *ReclaimQueue) Push(g *runtime.Graph) {
	tail := atomic.LoadUint64(&q.tail)
	head := atomic.LoadUint64(&q.head)
	if tail-head >= uint64(len(q.slots)) {
		atomic.AddUint64(&q.head, 1)
	}
	q.slots[tail%uint64(len(q.slots))] = g
	atomic.AddUint64(&q.tail, 1)
}

// Drain returns and clears every retired graph queued since the last
// call. Called from the UI thread only.
func (q *ReclaimQueue) Drain() []*runtime.Graph {
	tail := atomic.LoadUint64(&q.tail)
	head := atomic.LoadUint64(&q.head)
	if head == tail {
		return nil
	}
	n := tail - head
	out := make([]*runtime.Graph, n)
	for i := uint64(0); i < n; i++ {
		idx := (head + i) % uint64(len(q.slots))
		out[i] = q.slots[idx]
		q.slots[idx] = nil
	}
	atomic.StoreUint64(&q.head, tail)
	return out
}
