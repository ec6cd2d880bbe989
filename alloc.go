// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package spsc

// Allocator supplies the slot storage of an [SPSC] queue.
//
// Alloc is called exactly once, when the queue is created, and must return a
// slice of length n whose elements are zero values. Free is called exactly
// once, from [SPSC.Close], after every remaining element has been destroyed
// and every slot has been reset to the zero value.
//
// Allocators let callers back queues with pooled or arena memory. The queue
// never grows, so no other allocation happens during its lifetime.
type Allocator[T any] interface {
	Alloc(n int) []T
	Free(slots []T)
}

// HeapAllocator allocates slot storage from the Go heap.
// Free is a no-op; the garbage collector reclaims the slice.
type HeapAllocator[T any] struct{}

// Alloc returns make([]T, n).
func (HeapAllocator[T]) Alloc(n int) []T {
	return make([]T, n)
}

// Free does nothing.
func (HeapAllocator[T]) Free([]T) {}
