// SPDX-License-Identifier: MIT
/*
Package frames holds the stereo Frame type and the RingBuffer that carries
the tail of a decoded audio stream from the audio callback to the render loop.

Thread Safety:
  - Exactly one producer goroutine calls Push (the audio callback)
  - Exactly one consumer goroutine calls Snapshot (the render tick)
  - Push never blocks and never waits for the consumer
  - Snapshots are never torn: each one reflects a whole number of pushes

The buffer is a triple buffer. The producer keeps the authoritative contents
in a private array, copies them into its back slot after every push and
publishes that slot by swapping it with the shared middle slot. The consumer
swaps its front slot with the middle slot whenever the middle one is newer.
Every slot is owned by exactly one side at a time and ownership changes hands
only through the atomic swap.
*/
package frames

import (
	"fmt"
	"sync/atomic"
)

// DefaultCapacity is the number of frames retained when no capacity is configured.
const DefaultCapacity = 4024

type slot struct {
	frames []Frame
	count  int
	seq    atomic.Uint64
}

// RingBuffer retains the most recent frames pushed into it, oldest first.
type RingBuffer struct {
	capacity int

	// Producer side.
	work  []Frame
	count int
	back  *slot
	seq   uint64

	middle atomic.Pointer[slot]

	// Consumer side.
	front *slot
}

// NewRingBuffer pre-allocates a buffer holding up to capacity frames.
// It panics if capacity is not positive.
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity < 1 {
		panic(fmt.Sprintf("frames: ring buffer capacity must be positive, got %d", capacity))
	}
	newSlot := func() *slot {
		return &slot{frames: make([]Frame, capacity)}
	}
	r := &RingBuffer{
		capacity: capacity,
		work:     make([]Frame, capacity),
		back:     newSlot(),
		front:    newSlot(),
	}
	r.middle.Store(newSlot())
	return r
}

// Cap returns the capacity C in frames.
func (r *RingBuffer) Cap() int {
	return r.capacity
}

// Push appends batch, discarding the oldest frames once the buffer is full.
// If len(batch) exceeds the capacity only its last Cap() frames are kept.
// batch must not alias the buffer's storage. Producer side only.
func (r *RingBuffer) Push(batch []Frame) {
	n := len(batch)
	if n == 0 {
		return
	}

	c := r.capacity
	switch {
	case n <= c-r.count:
		copy(r.work[r.count:], batch)
		r.count += n
	case n <= c:
		// Drop exactly enough of the oldest frames to make room.
		drop := r.count + n - c
		copy(r.work, r.work[drop:r.count])
		copy(r.work[c-n:], batch)
		r.count = c
	default:
		copy(r.work, batch[n-c:])
		r.count = c
	}

	r.publish()
}

func (r *RingBuffer) publish() {
	b := r.back
	copy(b.frames, r.work[:r.count])
	b.count = r.count
	r.seq++
	b.seq.Store(r.seq)
	r.back = r.middle.Swap(b)
}

// Snapshot returns the frames held as of the latest completed push, oldest
// first, together with their count. The slice is only valid until the next
// call to Snapshot and must not be modified. Consumer side only.
func (r *RingBuffer) Snapshot() ([]Frame, int) {
	if r.middle.Load().seq.Load() > r.front.seq.Load() {
		r.front = r.middle.Swap(r.front)
	}
	return r.front.frames[:r.front.count], r.front.count
}
