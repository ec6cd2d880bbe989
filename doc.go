// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package spsc provides bounded single-producer single-consumer queues.
//
// The package offers two variants of the same Lamport ring buffer:
//
//   - SPSC: in-process queue that owns its elements (any type)
//   - Shared: queue laid out in caller-supplied memory, for trivially
//     copyable types, usable across processes
//
// # Quick Start
//
// In-process:
//
//	q := spsc.NewSPSC[Event](1024)
//	q := spsc.Build[Event](spsc.New(1024))
//
// Across processes, over a shared mapping (see package shm):
//
//	region, _ := shm.Create("events", spsc.SharedSize[Event](1024))
//	q, err := spsc.BuildShared[Event](spsc.New(1024), region.Bytes())
//
//	// In the other process, after initialization:
//	region, _ := shm.Open("events", spsc.SharedSize[Event](1024))
//	q, err := spsc.Attach[Event](region.Bytes())
//
// # Basic Usage
//
// Every operation is a single non-blocking attempt. Try methods report
// success as a bool:
//
//	if !q.TryPush(ev) {
//	    // Queue is full - handle backpressure
//	}
//
//	var ev Event
//	if q.TryPop(&ev) {
//	    process(ev)
//	}
//
// Both variants also implement [Queue], which reports full and empty
// through [ErrWouldBlock]:
//
//	if err := q.Enqueue(&ev); spsc.IsWouldBlock(err) {
//	    // Queue is full
//	}
//
// Retrying is the caller's job. The queues never spin, yield or sleep:
//
//	backoff := iox.Backoff{}
//	for !q.TryPush(ev) {
//	    backoff.Wait()
//	}
//	backoff.Reset()
//
// # Element Lifecycle
//
// SPSC owns the elements it holds. TryPush copies a value in, TryMove
// transfers it and clears the source, and TryEmplace constructs it in the
// slot:
//
//	ok, err := q.TryEmplace(func(slot *Conn) error {
//	    return slot.Dial(addr)
//	})
//
// A failing constructor leaves the queue unchanged: the slot is cleared and
// never published. TryPop moves the front element out and clears its slot so
// the garbage collector can reclaim anything it referenced.
//
// Close discards the elements that were never dequeued, calling Destroy on
// each one whose pointer implements [Destroyer], then returns the storage to
// the [Allocator].
//
// Shared elements have no lifecycle. They are copied byte for byte, which is
// why Attach rejects element types that contain pointers, slices, strings,
// maps, channels, functions or interfaces.
//
// # Capacity
//
// Capacity rounds up to the next power of 2, and one slot always stays empty
// so that equal head and tail counters mean "empty":
//
//	spsc.NewSPSC[int](7)     // Cap() = 7
//	spsc.NewSPSC[int](8)     // Cap() = 7
//	spsc.NewSPSC[int](9)     // Cap() = 15
//	spsc.NewSPSC[int](1024)  // Cap() = 1023
//
// Capacity below 2 panics.
//
// # Shared Memory Layout
//
// A shared region starts with a 192-byte header followed by the slot array:
//
//	offset 0    buffer offset (bytes from region start to slot 0)
//	offset 8    buffer size (physical slots, power of 2)
//	offset 16   mask (buffer size - 1)
//	offset 64   head counter (own cache line)
//	offset 128  tail counter (own cache line)
//	offset 192  slot 0
//
// All addresses are relative to the region start, so each process may map
// the region anywhere. Both sides must agree on the element type, pointer
// width and endianness. [SharedSize] reports the number of bytes a region
// needs.
//
// Exactly one participant calls Init (or BuildShared), once, before either
// side pushes or pops. Init publishes the header with release ordering; a
// peer that may attach before initialization polls Ready before using its
// view. Calling other methods first, or running more than one
// producer or consumer, is undefined behavior and is not detected.
//
// # Memory Ordering
//
// The producer writes a slot and then publishes it with a release store of
// the tail counter; the consumer's acquire load of tail therefore observes
// the complete element. The consumer hands the slot back with a release
// store of head, which the producer reads with acquire ordering. Counters
// are accessed through [code.hybscloud.com/atomix], which compiles to plain
// hardware atomics and so remains correct when the counters live in memory
// mapped by two processes.
//
// Full and Empty are snapshots taken without that pairing. They are hints
// for monitoring and tests, not synchronization points.
//
// # Thread Safety
//
// One goroutine (or process) may produce and one may consume. Violating this
// constraint causes undefined behavior including data corruption.
//
// # Race Detection
//
// Go's race detector cannot observe happens-before relationships established
// through atomix acquire-release operations on one variable that protect
// plain writes to another. Concurrent producer/consumer tests therefore
// report false positives and are skipped when [RaceEnabled] is true.
//
// # Dependencies
//
// This package uses [code.hybscloud.com/iox] for semantic errors and
// [code.hybscloud.com/atomix] for atomic primitives with explicit memory
// ordering.
package spsc
