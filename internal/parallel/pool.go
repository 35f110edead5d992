// Package parallel runs independent slices of image work across a
// small pool of workers.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool distributes work items across a fixed set of goroutines.
// Each worker owns a queue and steals from the others when its own
// runs dry, which keeps the load even when items take uneven time.
//
// The pool is safe for concurrent use.
type WorkerPool struct {
	workers int
	queues  []chan func()
	done    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool
}

// NewWorkerPool creates a pool with the given number of workers, or
// GOMAXPROCS workers when n is zero or negative. Workers start
// immediately and wait for work.
func NewWorkerPool(n int) *WorkerPool {
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}

	queueSize := n * 4
	if queueSize < 8 {
		queueSize = 8
	}

	p := &WorkerPool{
		workers: n,
		queues:  make([]chan func(), n),
		done:    make(chan struct{}),
	}
	for i := range p.queues {
		p.queues[i] = make(chan func(), queueSize)
	}
	p.running.Store(true)

	p.wg.Add(n)
	for i := 0; i < n; i++ {
		go p.worker(i)
	}
	return p
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	own := p.queues[id]
	for {
		select {
		case <-p.done:
			p.drain(own)
			return
		case work := <-own:
			if work != nil {
				work()
			}
		default:
			if stolen := p.steal(id); stolen != nil {
				stolen()
				continue
			}
			// Nothing to steal, block on the own queue.
			select {
			case <-p.done:
				p.drain(own)
				return
			case work := <-own:
				if work != nil {
					work()
				}
			}
		}
	}
}

// drain executes whatever is left in a queue during shutdown.
func (p *WorkerPool) drain(queue chan func()) {
	for {
		select {
		case work := <-queue:
			if work != nil {
				work()
			}
		default:
			return
		}
	}
}

// steal takes one work item from another worker's queue, or returns
// nil when every queue is empty.
func (p *WorkerPool) steal(self int) func() {
	for i := 0; i < p.workers; i++ {
		if i == self {
			continue
		}
		select {
		case work := <-p.queues[i]:
			return work
		default:
		}
	}
	return nil
}

// ExecuteAll queues the work items round-robin across the workers and
// blocks until every item has run. A closed pool ignores the call.
func (p *WorkerPool) ExecuteAll(work []func()) {
	if len(work) == 0 || !p.running.Load() {
		return
	}

	var pending sync.WaitGroup
	pending.Add(len(work))

	for i, fn := range work {
		run := fn
		wrapped := func() {
			defer pending.Done()
			run()
		}
		select {
		case p.queues[i%p.workers] <- wrapped:
		case <-p.done:
			pending.Done()
		}
	}
	pending.Wait()
}

// For splits the half-open range [from, to) into bands of at least
// minBand items and runs fn on every band, blocking until the whole
// range is processed. fn must be safe to call concurrently for
// disjoint sub-ranges. Ranges shorter than two bands, and calls on a
// closed pool, run serially on the caller's goroutine.
func (p *WorkerPool) For(from, to, minBand int, fn func(lo, hi int)) {
	n := to - from
	if n <= 0 {
		return
	}
	if minBand < 1 {
		minBand = 1
	}

	bands := n / minBand
	if limit := p.workers * 2; bands > limit {
		bands = limit
	}
	if bands < 2 || !p.running.Load() {
		fn(from, to)
		return
	}

	size := (n + bands - 1) / bands
	work := make([]func(), 0, bands)
	for lo := from; lo < to; lo += size {
		lo, hi := lo, min(lo+size, to)
		work = append(work, func() { fn(lo, hi) })
	}
	p.ExecuteAll(work)
}

// Close stops accepting work, finishes whatever is queued, and stops
// the workers. It is safe to call more than once.
func (p *WorkerPool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}

// Workers reports the number of worker goroutines.
func (p *WorkerPool) Workers() int {
	return p.workers
}
