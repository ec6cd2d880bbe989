// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package spsc

import "code.hybscloud.com/atomix"

// cacheLineSize is the alignment unit for the head and tail counters.
// It is part of the shared-memory layout and must not change.
const cacheLineSize = 64

// pad is cache line padding to prevent false sharing.
type pad [cacheLineSize]byte

// padShort is padding to fill cache line after 8-byte field.
type padShort [cacheLineSize - 8]byte

// cursors holds the monotonic head/tail counters of a Lamport ring.
//
// head is written only by the consumer, tail only by the producer. Each
// counter owns a full cache line. Counters never reset; slots are addressed
// by counter&mask, and tail-head (mod 2^64) is the number of queued elements.
type cursors struct {
	head atomix.Uint64 // Consumer position
	_    padShort
	tail atomix.Uint64 // Producer position
	_    padShort
}

// reserve returns the producer's slot counter (producer only).
// Reports false when the ring holds size-1 elements; nothing is modified.
func (c *cursors) reserve(size uint64) (uint64, bool) {
	tail := c.tail.LoadRelaxed()
	head := c.head.LoadAcquire()
	if tail+1-head >= size {
		return 0, false
	}
	return tail, true
}

// publish makes the slot at tail visible to the consumer.
// The slot must be fully written before publish is called.
func (c *cursors) publish(tail uint64) {
	c.tail.StoreRelease(tail + 1)
}

// acquire returns the consumer's slot counter (consumer only).
// Reports false when the ring is empty.
func (c *cursors) acquire() (uint64, bool) {
	head := c.head.LoadRelaxed()
	tail := c.tail.LoadAcquire()
	if head == tail {
		return 0, false
	}
	return head, true
}

// release hands the slot at head back to the producer.
func (c *cursors) release(head uint64) {
	c.head.StoreRelease(head + 1)
}

// full is an advisory snapshot; it does not synchronize with the peer.
func (c *cursors) full(size uint64) bool {
	head := c.head.LoadRelaxed()
	tail := c.tail.LoadRelaxed()
	return tail+1-head >= size
}

// empty is an advisory snapshot; it does not synchronize with the peer.
func (c *cursors) empty() bool {
	head := c.head.LoadRelaxed()
	tail := c.tail.LoadAcquire()
	return head == tail
}

// reset zeroes both counters. Only valid while no producer or consumer runs.
func (c *cursors) reset() {
	c.head.StoreRelaxed(0)
	c.tail.StoreRelease(0)
}

// bufferSize returns the number of physical slots for a requested capacity.
// Panics if capacity < 2.
func bufferSize(capacity int) uint64 {
	if capacity < 2 {
		panic("spsc: capacity must be >= 2")
	}
	return uint64(roundToPow2(capacity))
}

// roundToPow2 rounds n up to the next power of 2.
func roundToPow2(n int) int {
	if n < 2 {
		return 2
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}
