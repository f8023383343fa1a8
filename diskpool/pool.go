// Package diskpool implements the disk-bound worker pool: a fixed set of OS
// threads, each with its own FIFO task queue, used for every blocking
// file-system call the engine makes. Routing a path's writes through
// hash(path) mod N to one worker is what guarantees per-file write ordering
// without a per-file lock (see Index below).
/*
 * Copyright (c) 2019, Beeri 15. All rights reserved.
 * Author: Roman Gershman (romange@gmail.com)
 */
package diskpool

import (
	"sync"

	"github.com/OneOfOne/xxhash"
)

// Task is a unit of blocking work submitted to one bucket of the pool.
type Task func()

type bucket struct {
	tasks chan Task
	done  chan struct{}
}

// Pool is a fixed-size set of single-consumer queues. Tasks submitted to the
// same Index() always execute, in submission order, on the same goroutine -
// this is the pool's only ordering guarantee, and the one the destination
// file set relies on.
type Pool struct {
	buckets []*bucket
	wg      sync.WaitGroup
}

const defaultQueueDepth = 256

// New starts n worker goroutines, each draining its own bounded queue.
func New(n int) *Pool {
	if n <= 0 {
		n = 1
	}
	p := &Pool{buckets: make([]*bucket, n)}
	for i := range p.buckets {
		b := &bucket{tasks: make(chan Task, defaultQueueDepth), done: make(chan struct{})}
		p.buckets[i] = b
		p.wg.Add(1)
		go p.run(b)
	}
	return p
}

func (p *Pool) run(b *bucket) {
	defer p.wg.Done()
	for t := range b.tasks {
		t()
	}
	close(b.done)
}

// Index maps a routing key (typically a file path) to a stable bucket
// number; equal keys always map to the same bucket for the lifetime of the
// pool.
func (p *Pool) Index(key string) int {
	return int(xxhash.Checksum64S([]byte(key), 1) % uint64(len(p.buckets)))
}

// Add submits a fire-and-forget task to the bucket at index. Tasks for the
// same index run strictly in FIFO order.
func (p *Pool) Add(index int, t Task) {
	p.buckets[index%len(p.buckets)].tasks <- t
}

// Await submits fn to the bucket at index and blocks the calling goroutine
// until it has run, returning its result. This is the pool's sole blocking
// entrypoint; every destination-file open, roll and close goes through it.
// Input files are opened and read by the executors directly, not through
// the pool.
func Await[T any](p *Pool, index int, fn func() T) T {
	res := make(chan T, 1)
	p.Add(index, func() { res <- fn() })
	return <-res
}

// AwaitErr is the common case of Await where fn only returns an error.
func AwaitErr(p *Pool, index int, fn func() error) error {
	return Await(p, index, fn)
}

// Shutdown closes every bucket's queue and waits for in-flight and queued
// tasks to drain before returning.
func (p *Pool) Shutdown() {
	for _, b := range p.buckets {
		close(b.tasks)
	}
	p.wg.Wait()
}

// Size returns the number of worker buckets in the pool.
func (p *Pool) Size() int { return len(p.buckets) }
