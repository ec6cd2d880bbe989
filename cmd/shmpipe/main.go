// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command shmpipe streams records between two processes through a
// shared-memory SPSC queue.
//
// Usage:
//
//	shmpipe run -count 10000000 -capacity 4096
//
//	shmpipe produce -name pipe -count 1000000 &
//	shmpipe consume -name pipe -count 1000000
//
// run creates the segment, starts a consumer child (a re-exec of shmpipe),
// produces into the queue and reports throughput. produce and consume run the
// two halves separately; produce owns the segment and removes it once the
// consumer has drained the queue.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strconv"
	"time"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/spin"
	"code.hybscloud.com/spsc"
	"code.hybscloud.com/spsc/shm"
)

// record is the element type carried by the queue. Sum lets the consumer
// detect torn or stale slots.
type record struct {
	Seq uint64
	Sum uint64
}

func checksum(seq uint64) uint64 {
	return seq*0x9E3779B97F4A7C15 ^ 0xA5A5A5A5A5A5A5A5
}

type config struct {
	name     string
	capacity int
	count    int
	spin     bool
	timeout  time.Duration
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("shmpipe: ")

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	mode := os.Args[1]

	fs := flag.NewFlagSet(mode, flag.ExitOnError)
	cfg := config{}
	fs.StringVar(&cfg.name, "name", fmt.Sprintf("shmpipe-%d", os.Getpid()), "shared-memory segment name")
	fs.IntVar(&cfg.capacity, "capacity", 4096, "queue capacity (rounded up to a power of 2, minus one)")
	fs.IntVar(&cfg.count, "count", 1_000_000, "number of records")
	fs.BoolVar(&cfg.spin, "spin", false, "busy-spin instead of backing off when full or empty")
	fs.DurationVar(&cfg.timeout, "timeout", time.Minute, "give up when the peer makes no progress for this long")
	fs.Parse(os.Args[2:])

	if cfg.capacity < 2 {
		log.Fatalf("capacity must be >= 2, got %d", cfg.capacity)
	}
	if cfg.count < 0 {
		log.Fatalf("count must be >= 0, got %d", cfg.count)
	}

	var err error
	switch mode {
	case "run":
		err = run(cfg)
	case "produce":
		err = produceStandalone(cfg)
	case "consume":
		err = consumeStandalone(cfg)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: shmpipe run|produce|consume [-name N] [-capacity C] [-count K] [-spin] [-timeout D]")
}

// run produces in this process and consumes in a child process.
func run(cfg config) error {
	region, q, err := create(cfg)
	if err != nil {
		return err
	}
	defer region.Unlink()
	defer region.Close()

	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}
	args := []string{"consume",
		"-name", cfg.name,
		"-capacity", strconv.Itoa(cfg.capacity),
		"-count", strconv.Itoa(cfg.count),
		"-timeout", cfg.timeout.String(),
	}
	if cfg.spin {
		args = append(args, "-spin")
	}
	child := exec.Command(self, args...)
	child.Stdout = os.Stdout
	child.Stderr = os.Stderr
	if err := child.Start(); err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}
	log.Printf("segment %s: %d bytes, cap %d, consumer pid %d", cfg.name, region.Size(), q.Cap(), child.Process.Pid)

	start := time.Now()
	if err := produce(q, cfg); err != nil {
		child.Process.Kill()
		child.Wait()
		return err
	}
	if err := child.Wait(); err != nil {
		return fmt.Errorf("consumer: %w", err)
	}
	report("transferred", cfg.count, time.Since(start))
	return nil
}

// produceStandalone owns the segment for an independently started consumer.
func produceStandalone(cfg config) error {
	region, q, err := create(cfg)
	if err != nil {
		return err
	}
	defer region.Unlink()
	defer region.Close()
	log.Printf("segment %s: %d bytes, cap %d, waiting for consumer", cfg.name, region.Size(), q.Cap())

	start := time.Now()
	if err := produce(q, cfg); err != nil {
		return err
	}
	report("produced", cfg.count, time.Since(start))

	// Keep the segment until the consumer has taken everything.
	w := newWaiter(cfg)
	for !q.Empty() {
		if err := w.wait(); err != nil {
			return fmt.Errorf("drain: %w", err)
		}
	}
	return nil
}

func consumeStandalone(cfg config) error {
	region, q, err := attach(cfg)
	if err != nil {
		return err
	}
	defer region.Close()

	start := time.Now()
	if err := consume(q, cfg); err != nil {
		return err
	}
	report("consumed", cfg.count, time.Since(start))
	return nil
}

// create makes a fresh segment and initializes an empty queue in it.
func create(cfg config) (*shm.Region, *spsc.Shared[record], error) {
	b := spsc.New(cfg.capacity)
	region, err := shm.Create(cfg.name, spsc.SharedSize[record](cfg.capacity))
	if err != nil {
		return nil, nil, err
	}
	q, err := spsc.BuildShared[record](b, region.Bytes())
	if err != nil {
		region.Close()
		region.Unlink()
		return nil, nil, err
	}
	return region, q, nil
}

// attach opens the segment and waits until the producer's Init is visible.
// The producer may still be creating the segment when attach starts.
func attach(cfg config) (*shm.Region, *spsc.Shared[record], error) {
	size := spsc.SharedSize[record](cfg.capacity)
	w := newWaiter(cfg)
	for {
		region, err := shm.Open(cfg.name, size)
		if err == nil {
			q, err := spsc.Attach[record](region.Bytes())
			if err != nil {
				region.Close()
				return nil, nil, err
			}
			if q.Ready() {
				// Attach again so the published slot array is checked
				// against the mapping.
				if q, err = spsc.Attach[record](region.Bytes()); err != nil {
					region.Close()
					return nil, nil, err
				}
				return region, q, nil
			}
			region.Close()
		} else if errors.Is(err, shm.ErrInvalidName) || errors.Is(err, errors.ErrUnsupported) {
			return nil, nil, err
		}
		if err := w.wait(); err != nil {
			return nil, nil, fmt.Errorf("open %s: %w", cfg.name, err)
		}
	}
}

func produce(q *spsc.Shared[record], cfg config) error {
	w := newWaiter(cfg)
	for seq := range uint64(cfg.count) {
		rec := record{Seq: seq, Sum: checksum(seq)}
		for !q.TryPush(rec) {
			if err := w.wait(); err != nil {
				return fmt.Errorf("push %d: %w", seq, err)
			}
		}
		w.reset()
	}
	return nil
}

func consume(q *spsc.Shared[record], cfg config) error {
	w := newWaiter(cfg)
	var rec record
	for seq := range uint64(cfg.count) {
		for !q.TryPop(&rec) {
			if err := w.wait(); err != nil {
				return fmt.Errorf("pop %d: %w", seq, err)
			}
		}
		w.reset()
		if rec.Seq != seq {
			return fmt.Errorf("record %d: got sequence %d", seq, rec.Seq)
		}
		if rec.Sum != checksum(seq) {
			return fmt.Errorf("record %d: checksum %#x, want %#x", seq, rec.Sum, checksum(seq))
		}
	}
	return nil
}

func report(what string, count int, d time.Duration) {
	if d <= 0 {
		d = time.Nanosecond
	}
	perOp := float64(d.Nanoseconds()) / float64(max(count, 1))
	log.Printf("%s %d records in %v (%.2f ns/record, %.2f M records/sec)",
		what, count, d.Round(time.Microsecond), perOp, 1000/perOp)
}

var errStalled = errors.New("peer stalled")

// waiter paces a side that is blocked on a full or empty queue and gives up
// after the configured timeout without progress.
type waiter struct {
	spin     bool
	timeout  time.Duration
	deadline time.Time
	backoff  iox.Backoff
	sw       spin.Wait
}

func newWaiter(cfg config) *waiter {
	return &waiter{spin: cfg.spin, timeout: cfg.timeout}
}

func (w *waiter) wait() error {
	now := time.Now()
	if w.deadline.IsZero() {
		w.deadline = now.Add(w.timeout)
	} else if now.After(w.deadline) {
		return fmt.Errorf("%w for %v", errStalled, w.timeout)
	}
	if w.spin {
		w.sw.Once()
	} else {
		w.backoff.Wait()
	}
	return nil
}

func (w *waiter) reset() {
	w.deadline = time.Time{}
	if w.spin {
		w.sw.Reset()
	} else {
		w.backoff.Reset()
	}
}
