// Package workerpool runs a bounded number of error returning jobs
// concurrently.
package workerpool

import (
	"fmt"
	"sync"
)

// MultiErr collects the errors of failed jobs.
type MultiErr []error

func (m MultiErr) Error() string {
	if len(m) == 1 {
		return m[0].Error()
	}
	return fmt.Sprintf("%d errors: %v", len(m), []error(m))
}

// Unwrap exposes the individual errors to errors.Is and errors.As.
func (m MultiErr) Unwrap() []error { return m }

// WorkerPool runs at most concurrency jobs at a time. A concurrency of 0
// or less means unbounded.
type WorkerPool struct {
	tickets chan struct{}
	wg      sync.WaitGroup

	mu   sync.Mutex
	errs MultiErr
}

// New returns a pool that runs at most concurrency jobs at once.
func New(concurrency int) *WorkerPool {
	w := &WorkerPool{}
	if concurrency > 0 {
		w.tickets = make(chan struct{}, concurrency)
	}
	return w
}

// Go schedules f. It blocks while the pool is full.
func (w *WorkerPool) Go(f func() error) {
	if w.tickets != nil {
		w.tickets <- struct{}{}
	}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		err := f()
		if w.tickets != nil {
			<-w.tickets
		}
		if err != nil {
			w.mu.Lock()
			w.errs = append(w.errs, err)
			w.mu.Unlock()
		}
	}()
}

// Wait blocks until every scheduled job has returned. It returns nil or a
// MultiErr holding each job error in completion order.
func (w *WorkerPool) Wait() error {
	w.wg.Wait()
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.errs) == 0 {
		return nil
	}
	out := append(MultiErr(nil), w.errs...)
	return out
}
