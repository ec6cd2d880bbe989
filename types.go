// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package spsc

// Queue is the combined producer-consumer interface for a FIFO queue.
//
// Queue provides non-blocking Enqueue and Dequeue operations. Both operations
// return ErrWouldBlock when they cannot proceed (queue full or empty).
//
// Both [SPSC] and [Shared] implement Queue. One goroutine (or process) may
// act as producer and one as consumer; no other access pattern is supported.
//
// The interface intentionally excludes length because accurate counts
// require synchronizing with the peer. Use Full and Empty on the concrete
// types for advisory snapshots.
//
// Example:
//
//	var q spsc.Queue[int] = spsc.NewSPSC[int](1024)
//
//	// Producer
//	val := 42
//	if err := q.Enqueue(&val); err != nil {
//	    // Handle full queue
//	}
//
//	// Consumer
//	elem, err := q.Dequeue()
//	if err == nil {
//	    fmt.Println(elem)
//	}
type Queue[T any] interface {
	Producer[T]
	Consumer[T]
	Cap() int
}

// Producer is the interface for enqueueing elements.
//
// The element is passed by pointer to avoid copying large structs. The queue
// stores a copy of the pointed-to value, so the caller may reuse the variable
// after Enqueue returns.
type Producer[T any] interface {
	// Enqueue adds an element to the queue (non-blocking, producer only).
	// Returns nil on success, ErrWouldBlock if the queue is full.
	Enqueue(elem *T) error
}

// Consumer is the interface for dequeueing elements.
//
// The element is returned by value. The slot it occupied is cleared before
// it is handed back to the producer.
type Consumer[T any] interface {
	// Dequeue removes and returns an element (non-blocking, consumer only).
	// Returns (zero-value, ErrWouldBlock) if the queue is empty.
	Dequeue() (T, error)
}

// Destroyer is implemented by element types that hold resources which must
// be released when an element is discarded without being dequeued.
//
// [SPSC.Close] calls Destroy exactly once on every element still enqueued.
// The element is checked as stored first, so SPSC[*Conn] with a
// pointer-receiver Destroy works, then through its slot address, so
// SPSC[Conn] with the same method works too.
// Nil pointer, map, slice, channel and function elements are skipped.
// Elements removed through TryPop or Dequeue are moved to the caller and are
// never destroyed by the queue.
type Destroyer interface {
	Destroy()
}
