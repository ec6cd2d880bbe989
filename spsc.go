// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package spsc

import "reflect"

// SPSC is a single-producer single-consumer bounded queue that owns its
// elements.
//
// Based on Lamport's ring buffer. The slot array is allocated once, at
// creation, and never resized. One slot always stays unused, so a queue
// created for capacity n holds at most roundToPow2(n)-1 elements.
//
// The producer goroutine may call TryPush, TryMove, TryEmplace and Enqueue.
// The consumer goroutine may call TryPop and Dequeue. Cap, Full and Empty
// may be called from either side.
//
// Memory: O(capacity), one allocation for the queue's lifetime
type SPSC[T any] struct {
	_ pad
	cursors
	buffer []T
	size   uint64
	mask   uint64
	alloc  Allocator[T]
}

// NewSPSC creates a new SPSC queue backed by the Go heap.
// Capacity rounds up to the next power of 2; usable capacity is one less.
// Panics if capacity < 2.
func NewSPSC[T any](capacity int) *SPSC[T] {
	return NewSPSCWith[T](capacity, HeapAllocator[T]{})
}

// NewSPSCWith creates a new SPSC queue whose slots come from alloc.
// Panics if capacity < 2 or alloc returns a slice of the wrong length.
func NewSPSCWith[T any](capacity int, alloc Allocator[T]) *SPSC[T] {
	n := bufferSize(capacity)
	buffer := alloc.Alloc(int(n))
	if uint64(len(buffer)) != n {
		panic("spsc: allocator returned wrong slot count")
	}
	return &SPSC[T]{
		buffer: buffer,
		size:   n,
		mask:   n - 1,
		alloc:  alloc,
	}
}

// TryPush copies elem into the queue (producer only).
// Returns false if the queue is full.
func (q *SPSC[T]) TryPush(elem T) bool {
	tail, ok := q.reserve(q.size)
	if !ok {
		return false
	}
	q.buffer[tail&q.mask] = elem
	q.publish(tail)
	return true
}

// TryMove transfers *elem into the queue and resets *elem to the zero value
// (producer only). Returns false if the queue is full; *elem is then left
// untouched.
func (q *SPSC[T]) TryMove(elem *T) bool {
	tail, ok := q.reserve(q.size)
	if !ok {
		return false
	}
	q.buffer[tail&q.mask] = *elem
	var zero T
	*elem = zero
	q.publish(tail)
	return true
}

// TryEmplace constructs an element in place (producer only).
//
// construct receives the zeroed slot and fills it. If the queue is full,
// construct is not called and TryEmplace returns (false, nil). If construct
// returns an error, the slot is cleared, nothing is published, and the error
// is returned; the queue remains usable.
func (q *SPSC[T]) TryEmplace(construct func(slot *T) error) (bool, error) {
	tail, ok := q.reserve(q.size)
	if !ok {
		return false, nil
	}
	slot := &q.buffer[tail&q.mask]
	if err := construct(slot); err != nil {
		var zero T
		*slot = zero
		return false, err
	}
	q.publish(tail)
	return true, nil
}

// TryPop moves the front element into *out and clears its slot
// (consumer only). Returns false if the queue is empty; *out is then left
// untouched.
func (q *SPSC[T]) TryPop(out *T) bool {
	head, ok := q.acquire()
	if !ok {
		return false
	}
	slot := &q.buffer[head&q.mask]
	*out = *slot
	var zero T
	*slot = zero
	q.release(head)
	return true
}

// Enqueue adds an element to the queue (producer only).
// Returns ErrWouldBlock if the queue is full.
func (q *SPSC[T]) Enqueue(elem *T) error {
	if !q.TryPush(*elem) {
		return ErrWouldBlock
	}
	return nil
}

// Dequeue removes and returns an element (consumer only).
// Returns (zero-value, ErrWouldBlock) if the queue is empty.
func (q *SPSC[T]) Dequeue() (T, error) {
	var elem T
	if !q.TryPop(&elem) {
		return elem, ErrWouldBlock
	}
	return elem, nil
}

// Cap returns the maximum number of elements the queue can hold.
func (q *SPSC[T]) Cap() int {
	return int(q.size - 1)
}

// Full reports whether the queue appeared full at the time of the call.
//
// The result is a racy snapshot: it does not synchronize with the consumer
// and may be stale by the time it is observed. Use TryPush for a definitive
// answer.
func (q *SPSC[T]) Full() bool {
	return q.full(q.size)
}

// Empty reports whether the queue appeared empty at the time of the call.
//
// Like Full, the result is advisory and may be stale. Use TryPop for a
// definitive answer.
func (q *SPSC[T]) Empty() bool {
	return q.empty()
}

// Close destroys every element still enqueued and returns the slot storage
// to the allocator.
//
// Elements are visited in FIFO order; Destroy is called once on each one
// that implements [Destroyer], either as stored (pointer or interface
// elements) or through its address. Close must only be called after both the
// producer and the consumer have stopped. Calling Close again is a no-op;
// pushing or popping after Close panics.
func (q *SPSC[T]) Close() {
	if q.buffer == nil {
		return
	}
	head := q.head.LoadRelaxed()
	tail := q.tail.LoadRelaxed()
	var zero T
	for ; head != tail; head++ {
		slot := &q.buffer[head&q.mask]
		destroy(slot)
		*slot = zero
	}
	q.reset()
	q.alloc.Free(q.buffer)
	q.buffer = nil
}

// destroy calls Destroy on the element in slot. The element itself is
// checked first so that pointer elements are reached; its address covers
// value elements with pointer-receiver methods. Nil elements hold nothing.
func destroy[T any](slot *T) {
	if d, ok := any(*slot).(Destroyer); ok {
		if !isNil(d) {
			d.Destroy()
		}
		return
	}
	if d, ok := any(slot).(Destroyer); ok {
		d.Destroy()
	}
}

func isNil(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return rv.IsNil()
	}
	return false
}
