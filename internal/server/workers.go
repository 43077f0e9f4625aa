package server

import (
	"fmt"
	"sync"
)

// keyedPool runs jobs with bounded global concurrency while keeping
// strict FIFO order per key. A slow resolver call for one user never
// blocks the stream for other conversations, but a user's successive
// clicks are never reordered.
type keyedPool struct {
	sem chan struct{}

	mu     sync.Mutex
	queues map[string]*keyQueue
}

type keyQueue struct {
	jobs    []func()
	running bool
}

func newKeyedPool(workers int) *keyedPool {
	if workers < 1 {
		workers = 1
	}
	return &keyedPool{
		sem:    make(chan struct{}, workers),
		queues: make(map[string]*keyQueue),
	}
}

// Submit enqueues a job under a key and starts the key's drainer if
// none is running
func (p *keyedPool) Submit(key string, job func()) {
	p.mu.Lock()
	q, ok := p.queues[key]
	if !ok {
		q = &keyQueue{}
		p.queues[key] = q
	}
	q.jobs = append(q.jobs, job)
	start := !q.running
	if start {
		q.running = true
	}
	p.mu.Unlock()

	if start {
		go p.drain(key, q)
	}
}

func (p *keyedPool) drain(key string, q *keyQueue) {
	for {
		p.mu.Lock()
		if len(q.jobs) == 0 {
			q.running = false
			delete(p.queues, key)
			p.mu.Unlock()
			return
		}
		job := q.jobs[0]
		q.jobs = q.jobs[1:]
		p.mu.Unlock()

		p.sem <- struct{}{}
		runSafe(key, job)
		<-p.sem
	}
}

// runSafe isolates a single job; a panic must not take the pool down
func runSafe(key string, job func()) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("[Pool] Recovered panic handling %s: %v\n", key, r)
		}
	}()
	job()
}
