package http

import "sync"

// serialQueue runs submitted operations one at a time, in submission
// order, on a background goroutine. A queue created suspended holds
// operations until resumed, and stays running from then on. No goroutine
// is kept alive while the queue is idle.
type serialQueue struct {
	mu        sync.Mutex
	ops       []func()
	suspended bool
	draining  bool
}

func newSerialQueue(suspended bool) *serialQueue {
	return &serialQueue{suspended: suspended}
}

// async enqueues op and returns immediately.
func (q *serialQueue) async(op func()) {
	q.mu.Lock()
	q.ops = append(q.ops, op)
	q.kickLocked()
	q.mu.Unlock()
}

// sync enqueues op and waits for it to run. It must not be called from an
// operation on the same queue, or on a suspended queue that nothing will
// resume.
func (q *serialQueue) sync(op func()) {
	done := make(chan struct{})
	q.async(func() {
		defer close(done)
		op()
	})
	<-done
}

func (q *serialQueue) resume() {
	q.mu.Lock()
	q.suspended = false
	q.kickLocked()
	q.mu.Unlock()
}

func (q *serialQueue) kickLocked() {
	if q.suspended || q.draining || len(q.ops) == 0 {
		return
	}
	q.draining = true
	go q.drain()
}

func (q *serialQueue) drain() {
	for {
		q.mu.Lock()
		if q.suspended || len(q.ops) == 0 {
			q.draining = false
			q.mu.Unlock()
			return
		}
		op := q.ops[0]
		q.ops[0] = nil
		q.ops = q.ops[1:]
		q.mu.Unlock()

		op()
	}
}
