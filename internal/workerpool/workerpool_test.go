package workerpool

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

func TestWorkerPoolLimitsConcurrency(t *testing.T) {
	const limit = 3
	wp := New(limit)
	var running, peak int64
	for i := 0; i < 30; i++ {
		wp.Go(func() error {
			n := atomic.AddInt64(&running, 1)
			for {
				p := atomic.LoadInt64(&peak)
				if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt64(&running, -1)
			return nil
		})
	}
	if err := wp.Wait(); err != nil {
		t.Fatalf("Wait() = %v, want nil", err)
	}
	if peak > limit {
		t.Fatalf("peak concurrency = %d, want <= %d", peak, limit)
	}
}

func TestWorkerPoolCollectsErrors(t *testing.T) {
	sentinel := errors.New("boom")
	wp := New(0)
	var done int64
	for i := 0; i < 10; i++ {
		i := i
		wp.Go(func() error {
			atomic.AddInt64(&done, 1)
			if i%3 == 0 {
				return fmt.Errorf("job %d: %w", i, sentinel)
			}
			return nil
		})
	}
	err := wp.Wait()
	if done != 10 {
		t.Fatalf("%d jobs ran, want 10", done)
	}
	var me MultiErr
	if !errors.As(err, &me) || len(me) != 4 {
		t.Fatalf("Wait() = %v, want MultiErr with 4 errors", err)
	}
	if !errors.Is(err, sentinel) {
		t.Fatalf("errors.Is(Wait(), sentinel) = false")
	}
}

func TestMultiErrMessage(t *testing.T) {
	one := MultiErr{errors.New("a")}
	if one.Error() != "a" {
		t.Fatalf("Error() = %q, want %q", one.Error(), "a")
	}
	two := MultiErr{errors.New("a"), errors.New("b")}
	if two.Error() != "2 errors: [a b]" {
		t.Fatalf("Error() = %q", two.Error())
	}
}
