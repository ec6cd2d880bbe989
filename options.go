// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package spsc

// Options configures queue creation.
type Options struct {
	// Capacity (rounds up to next power of 2; usable capacity is one less)
	capacity int
}

// Builder creates queues with fluent configuration.
//
// Example:
//
//	// Heap-backed queue
//	q := spsc.Build[Event](spsc.New(1024))
//
//	// Queue over a shared mapping
//	region, _ := shm.Create("events", spsc.New(1024).SharedSize(unsafe.Sizeof(Event{})))
//	q, err := spsc.BuildShared[Event](spsc.New(1024), region.Bytes())
type Builder struct {
	opts Options
}

// New creates a queue builder with the given capacity.
//
// Capacity rounds up to the next power of 2 and one slot stays unused:
// capacity=7 and capacity=8 both result in Cap()=7, capacity=9 results in
// Cap()=15.
//
// Panics if capacity < 2.
func New(capacity int) *Builder {
	if capacity < 2 {
		panic("spsc: capacity must be >= 2")
	}
	return &Builder{opts: Options{capacity: capacity}}
}

// Capacity returns the requested capacity.
func (b *Builder) Capacity() int {
	return b.opts.capacity
}

// SharedSize returns the region size in bytes for elements of elemSize
// bytes. For elemSize = unsafe.Sizeof(T{}) it equals SharedSize[T].
func (b *Builder) SharedSize(elemSize uintptr) int {
	return sharedBytes(b.opts.capacity, uint64(elemSize))
}

// Build creates a heap-backed SPSC queue.
func Build[T any](b *Builder) *SPSC[T] {
	return NewSPSC[T](b.opts.capacity)
}

// BuildWith creates an SPSC queue whose slots come from alloc.
func BuildWith[T any](b *Builder, alloc Allocator[T]) *SPSC[T] {
	return NewSPSCWith(b.opts.capacity, alloc)
}

// BuildShared attaches to mem and initializes an empty shared queue.
//
// Only the participant that owns initialization calls BuildShared; the other
// side calls [Attach] once the region has been initialized.
func BuildShared[T any](b *Builder, mem []byte) (*Shared[T], error) {
	q, err := Attach[T](mem)
	if err != nil {
		return nil, err
	}
	if err := q.Init(b.opts.capacity); err != nil {
		return nil, err
	}
	return q, nil
}
