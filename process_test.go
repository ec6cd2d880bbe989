// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build unix

package spsc_test

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"testing"
	"time"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/spsc"
	"code.hybscloud.com/spsc/shm"
)

// Environment read by TestHelperProcess in the child.
const (
	envHelper   = "SPSC_HELPER_ROLE"
	envSegment  = "SPSC_HELPER_SEGMENT"
	envCapacity = "SPSC_HELPER_CAPACITY"
	envCount    = "SPSC_HELPER_COUNT"
	envDelay    = "SPSC_HELPER_DELAY"
)

// crossProcess describes one parent/child exchange.
type crossProcess struct {
	name     string
	capacity int
	count    int
	// childRole is "consume" (parent produces) or "produce".
	childRole string
	// parentDelay and childDelay are per-item sleeps.
	parentDelay time.Duration
	childDelay  time.Duration
	// burst makes the parent pause 10µs after every burst items.
	burst int
}

// TestCrossProcess runs the producer and the consumer in different processes
// that map the same named segment at independent addresses.
func TestCrossProcess(t *testing.T) {
	if testing.Short() {
		t.Skip("skip: spawns child processes")
	}
	tests := []crossProcess{
		{name: "Basic", capacity: 16, count: 100, childRole: "consume"},
		{name: "Throughput", capacity: 1024, count: 100_000, childRole: "consume"},
		{name: "Bursty", capacity: 64, count: 10_000, childRole: "consume", burst: 100},
		{name: "SlowConsumer", capacity: 8, count: 500, childRole: "consume", childDelay: 50 * time.Microsecond},
		{name: "ChildProduces", capacity: 256, count: 50_000, childRole: "produce"},
		{name: "SlowProducer", capacity: 8, count: 500, childRole: "produce", childDelay: 50 * time.Microsecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runCrossProcess(t, tt)
		})
	}
}

func runCrossProcess(t *testing.T, tt crossProcess) {
	name := segmentName(t)
	size := spsc.SharedSize[int64](tt.capacity)
	region := createSegment(t, name, size)

	q, err := spsc.BuildShared[int64](spsc.New(tt.capacity), region.Bytes())
	if err != nil {
		t.Fatalf("BuildShared: %v", err)
	}

	cmd := exec.Command(os.Args[0], "-test.run=^TestHelperProcess$", "-test.count=1")
	cmd.Env = append(os.Environ(),
		envHelper+"="+tt.childRole,
		envSegment+"="+name,
		envCapacity+"="+strconv.Itoa(tt.capacity),
		envCount+"="+strconv.Itoa(tt.count),
		envDelay+"="+tt.childDelay.String(),
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		t.Fatalf("start helper: %v", err)
	}

	var parentErr error
	if tt.childRole == "consume" {
		parentErr = produceSequence(q, tt.count, tt.parentDelay, tt.burst)
	} else {
		parentErr = consumeSequence(q, tt.count, tt.parentDelay)
	}
	if parentErr != nil {
		cmd.Process.Kill()
		cmd.Wait()
		t.Fatalf("parent: %v", parentErr)
	}
	if err := cmd.Wait(); err != nil {
		t.Fatalf("helper: %v", err)
	}
	if !q.Empty() {
		t.Fatalf("Empty after exchange: got false, want true")
	}
}

// TestHelperProcess is the child side of TestCrossProcess. It does nothing
// unless started by the parent.
func TestHelperProcess(t *testing.T) {
	role := os.Getenv(envHelper)
	if role == "" {
		return
	}
	capacity, _ := strconv.Atoi(os.Getenv(envCapacity))
	count, _ := strconv.Atoi(os.Getenv(envCount))
	delay, _ := time.ParseDuration(os.Getenv(envDelay))

	region, err := shm.Open(os.Getenv(envSegment), spsc.SharedSize[int64](capacity))
	if err != nil {
		t.Fatalf("shm.Open: %v", err)
	}
	defer region.Close()

	q, err := spsc.Attach[int64](region.Bytes())
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if q.Cap() < capacity-1 {
		t.Fatalf("Cap: got %d, want >= %d", q.Cap(), capacity-1)
	}

	switch role {
	case "consume":
		err = consumeSequence(q, count, delay)
	case "produce":
		err = produceSequence(q, count, delay, 0)
	default:
		err = fmt.Errorf("unknown role %q", role)
	}
	if err != nil {
		t.Fatal(err)
	}
}

const exchangeTimeout = 60 * time.Second

// produceSequence pushes 0..count-1, pausing after every burst items.
func produceSequence(q *spsc.Shared[int64], count int, delay time.Duration, burst int) error {
	deadline := time.Now().Add(exchangeTimeout)
	backoff := iox.Backoff{}
	for i := range count {
		for !q.TryPush(int64(i)) {
			if time.Now().After(deadline) {
				return fmt.Errorf("push %d: timeout after %v", i, exchangeTimeout)
			}
			backoff.Wait()
		}
		backoff.Reset()
		if burst > 0 && (i+1)%burst == 0 {
			time.Sleep(10 * time.Microsecond)
		}
		if delay > 0 {
			time.Sleep(delay)
		}
	}
	return nil
}

// consumeSequence pops count values and checks that they are 0..count-1.
func consumeSequence(q *spsc.Shared[int64], count int, delay time.Duration) error {
	deadline := time.Now().Add(exchangeTimeout)
	backoff := iox.Backoff{}
	for expected := range count {
		var v int64
		for !q.TryPop(&v) {
			if time.Now().After(deadline) {
				return fmt.Errorf("pop %d: timeout after %v", expected, exchangeTimeout)
			}
			backoff.Wait()
		}
		backoff.Reset()
		if v != int64(expected) {
			return fmt.Errorf("pop %d: got %d", expected, v)
		}
		if delay > 0 {
			time.Sleep(delay)
		}
	}
	return nil
}
