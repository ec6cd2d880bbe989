// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package spsc_test

import (
	"errors"
	"fmt"
	"unsafe"

	"code.hybscloud.com/spsc"
)

// ExampleNewSPSC demonstrates basic push and pop.
func ExampleNewSPSC() {
	q := spsc.NewSPSC[int](8)

	for i := 1; i <= 5; i++ {
		q.TryPush(i * 10)
	}

	var v int
	for q.TryPop(&v) {
		fmt.Println(v)
	}

	// Output:
	// 10
	// 20
	// 30
	// 40
	// 50
}

// ExampleSPSC_Cap shows how requested capacity maps to usable capacity.
func ExampleSPSC_Cap() {
	for _, n := range []int{2, 7, 8, 9, 1024} {
		fmt.Printf("capacity %d -> Cap() = %d\n", n, spsc.NewSPSC[int](n).Cap())
	}

	// Output:
	// capacity 2 -> Cap() = 1
	// capacity 7 -> Cap() = 7
	// capacity 8 -> Cap() = 7
	// capacity 9 -> Cap() = 15
	// capacity 1024 -> Cap() = 1023
}

// ExampleSPSC_Enqueue demonstrates backpressure through ErrWouldBlock.
func ExampleSPSC_Enqueue() {
	q := spsc.NewSPSC[string](4)

	for _, s := range []string{"a", "b", "c", "d"} {
		if err := q.Enqueue(&s); spsc.IsWouldBlock(err) {
			fmt.Println("full, dropped", s)
		}
	}

	for {
		s, err := q.Dequeue()
		if err != nil {
			break
		}
		fmt.Println(s)
	}

	// Output:
	// full, dropped d
	// a
	// b
	// c
}

// ExampleSPSC_TryMove transfers ownership of a buffer into the queue.
func ExampleSPSC_TryMove() {
	q := spsc.NewSPSC[[]byte](4)

	buf := []byte("payload")
	q.TryMove(&buf)
	fmt.Println("source after move:", buf == nil)

	var out []byte
	q.TryPop(&out)
	fmt.Println(string(out))

	// Output:
	// source after move: true
	// payload
}

type conn struct {
	addr string
}

func (c *conn) Destroy() {
	fmt.Println("closing", c.addr)
}

// ExampleSPSC_TryEmplace constructs elements in their slots. A failed
// constructor leaves the queue unchanged.
func ExampleSPSC_TryEmplace() {
	q := spsc.NewSPSC[conn](4)

	dial := func(addr string) func(*conn) error {
		return func(c *conn) error {
			if addr == "" {
				return errors.New("empty address")
			}
			c.addr = addr
			return nil
		}
	}

	for _, addr := range []string{"10.0.0.1:80", "", "10.0.0.2:80"} {
		if _, err := q.TryEmplace(dial(addr)); err != nil {
			fmt.Println("emplace:", err)
		}
	}

	var c conn
	q.TryPop(&c)
	fmt.Println("popped", c.addr)

	// Remaining elements are destroyed on Close.
	q.Close()

	// Output:
	// emplace: empty address
	// popped 10.0.0.1:80
	// closing 10.0.0.2:80
}

type sample struct {
	Seq   uint32
	Value float64
}

// ExampleBuildShared lays out a queue in a byte region. Any mapping of the
// same bytes, in this or another process, can Attach to it.
func ExampleBuildShared() {
	size := spsc.SharedSize[sample](8)
	words := make([]uint64, (size+7)/8)
	mem := unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), size)

	producer, err := spsc.BuildShared[sample](spsc.New(8), mem)
	if err != nil {
		fmt.Println(err)
		return
	}
	consumer, err := spsc.Attach[sample](mem)
	if err != nil {
		fmt.Println(err)
		return
	}

	producer.TryPush(sample{Seq: 1, Value: 0.5})
	producer.TryPush(sample{Seq: 2, Value: 1.5})

	var s sample
	for consumer.TryPop(&s) {
		fmt.Printf("seq=%d value=%.1f\n", s.Seq, s.Value)
	}
	fmt.Println("region bytes:", size, "cap:", consumer.Cap())

	// Output:
	// seq=1 value=0.5
	// seq=2 value=1.5
	// region bytes: 320 cap: 7
}

// ExampleAttach shows that only trivially copyable element types are accepted.
func ExampleAttach() {
	mem := make([]byte, 4096)

	_, err := spsc.Attach[string](mem)
	fmt.Println(errors.Is(err, spsc.ErrNotTriviallyCopyable))

	// Output:
	// true
}
