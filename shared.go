// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package spsc

import (
	"fmt"
	"reflect"
	"unsafe"

	"code.hybscloud.com/atomix"
)

// sharedHeader is the fixed prefix of a shared queue region.
//
// Layout (offsets in bytes, native endianness):
//
//	0    offset  uint64  bytes from region start to slot 0
//	8    size    uint64  physical slot count (power of 2)
//	16   mask    uint64  size - 1
//	64   head    uint64  consumer position (own cache line)
//	128  tail    uint64  producer position (own cache line)
//	192  end of header
//
// The header is only ever reached through a pointer into caller-supplied
// memory. It is unexported so that it cannot be declared, copied or
// constructed outside this package.
type sharedHeader struct {
	offset uint64
	size   atomix.Uint64 // written last by Init, with release ordering
	mask   uint64
	_      [cacheLineSize - 24]byte
	cursors
}

// sharedHeaderSize is the byte length of the header.
const sharedHeaderSize = unsafe.Sizeof(sharedHeader{})

// slotsOffset is the byte offset of slot 0: the header rounded up to a cache
// line, which satisfies the alignment of every element type.
const slotsOffset = (uint64(sharedHeaderSize) + cacheLineSize - 1) &^ (cacheLineSize - 1)

// Shared is a single-producer single-consumer queue laid out in a
// caller-supplied memory region, usually a MAP_SHARED mapping.
//
// Shared is a view: it owns neither the region nor the elements. The region
// holds a fixed header followed by an inline slot array, and every address
// is computed relative to the start of the region, so two processes that map
// the same segment at different addresses operate on the same queue.
//
// Contract:
//   - T must be trivially copyable: no pointers, slices, strings, maps,
//     channels, functions or interfaces. Elements move by raw copy.
//   - Init runs exactly once, by one participant, after the region is
//     visible to both and before any push or pop.
//   - Exactly one producer and one consumer context operate on a region.
//   - Both sides agree on T, pointer width and endianness.
//
// Violations are undefined behavior and are not detected at runtime.
type Shared[T any] struct {
	hdr *sharedHeader
	mem []byte
}

// SharedSize returns the number of bytes a region needs to hold a shared
// queue of element type T created with the given capacity.
// Panics if capacity < 2.
func SharedSize[T any](capacity int) int {
	return sharedBytes(capacity, elemSize[T]())
}

// Attach returns a view of the shared queue in mem.
//
// Attach does not modify mem. If the region has already been initialized,
// Attach verifies that the slot array recorded in the header fits in mem.
// A view attached before Init must not be used until Ready reports true.
// The view keeps mem reachable; the caller keeps it mapped.
func Attach[T any](mem []byte) (*Shared[T], error) {
	if err := checkTriviallyCopyable(reflect.TypeFor[T]()); err != nil {
		return nil, err
	}
	if uintptr(len(mem)) < sharedHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes, header needs %d", ErrRegionTooSmall, len(mem), sharedHeaderSize)
	}
	base := unsafe.Pointer(unsafe.SliceData(mem))
	if uintptr(base)%8 != 0 {
		return nil, fmt.Errorf("%w: base %#x", ErrMisaligned, uintptr(base))
	}
	q := &Shared[T]{hdr: (*sharedHeader)(base), mem: mem}
	if size := q.hdr.size.LoadAcquire(); size != 0 {
		if err := q.fits(q.hdr.offset, size); err != nil {
			return nil, err
		}
	}
	return q, nil
}

// Init lays out an empty queue for the given capacity.
//
// The slot count is published last, with release ordering, so a peer that
// observes Ready also observes the rest of the header.
//
// Capacity rounds up to the next power of 2; usable capacity is one less.
// Returns ErrRegionTooSmall if the region cannot hold the slot array.
// Panics if capacity < 2.
func (q *Shared[T]) Init(capacity int) error {
	n := bufferSize(capacity)
	if err := q.fits(slotsOffset, n); err != nil {
		return err
	}
	h := q.hdr
	h.offset = slotsOffset
	h.mask = n - 1
	h.reset()
	h.size.StoreRelease(n)
	return nil
}

// Ready reports whether the region has been initialized.
// Once Ready returns true, the view may be used.
func (q *Shared[T]) Ready() bool {
	return q.hdr.size.LoadAcquire() != 0
}

// TryPush copies elem into the queue (producer only).
// Returns false if the queue is full.
func (q *Shared[T]) TryPush(elem T) bool {
	h := q.hdr
	tail, ok := h.reserve(h.size.LoadRelaxed())
	if !ok {
		return false
	}
	*q.slot(tail & h.mask) = elem
	h.publish(tail)
	return true
}

// TryPop copies the front element into *out (consumer only).
// Returns false if the queue is empty; *out is then left untouched.
func (q *Shared[T]) TryPop(out *T) bool {
	h := q.hdr
	head, ok := h.acquire()
	if !ok {
		return false
	}
	*out = *q.slot(head & h.mask)
	h.release(head)
	return true
}

// Enqueue adds an element to the queue (producer only).
// Returns ErrWouldBlock if the queue is full.
func (q *Shared[T]) Enqueue(elem *T) error {
	if !q.TryPush(*elem) {
		return ErrWouldBlock
	}
	return nil
}

// Dequeue removes and returns an element (consumer only).
// Returns (zero-value, ErrWouldBlock) if the queue is empty.
func (q *Shared[T]) Dequeue() (T, error) {
	var elem T
	if !q.TryPop(&elem) {
		return elem, ErrWouldBlock
	}
	return elem, nil
}

// Cap returns the maximum number of elements the queue can hold.
// Only meaningful after Init.
func (q *Shared[T]) Cap() int {
	return int(q.hdr.size.LoadRelaxed() - 1)
}

// Full reports whether the queue appeared full at the time of the call.
// The result is advisory and does not synchronize with the consumer.
func (q *Shared[T]) Full() bool {
	return q.hdr.full(q.hdr.size.LoadRelaxed())
}

// Empty reports whether the queue appeared empty at the time of the call.
// The result is advisory and does not synchronize with the producer.
func (q *Shared[T]) Empty() bool {
	return q.hdr.empty()
}

// slot returns the address of slot i in the inline array.
func (q *Shared[T]) slot(i uint64) *T {
	return (*T)(unsafe.Add(unsafe.Pointer(q.hdr), q.hdr.offset+i*elemSize[T]()))
}

// fits reports ErrRegionTooSmall unless size slots starting at offset lie
// inside the region.
func (q *Shared[T]) fits(offset, size uint64) error {
	need := offset + size*elemSize[T]()
	if need > uint64(len(q.mem)) {
		return fmt.Errorf("%w: %d bytes, need %d for %d slots of %s",
			ErrRegionTooSmall, len(q.mem), need, size, reflect.TypeFor[T]())
	}
	return nil
}

// sharedBytes returns the region size for a queue of capacity elements of
// elemSize bytes.
func sharedBytes(capacity int, elemSize uint64) int {
	return int(slotsOffset + bufferSize(capacity)*elemSize)
}

func elemSize[T any]() uint64 {
	var zero T
	return uint64(unsafe.Sizeof(zero))
}
