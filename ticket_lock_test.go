package handoff

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// waiters returns the queued waiters of c in list order and checks that
// tail is the last of them.
func waiters(t *testing.T, c *Counter) []*counterWaiter {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	var ws []*counterWaiter
	var last *counterWaiter
	for w := c.head; w != nil; w = w.next {
		ws = append(ws, w)
		last = w
	}
	if c.tail != last {
		t.Fatalf("tail %p is not the last waiter %p", c.tail, last)
	}
	return ws
}

func TestTicketLock_WaiterListUnderChurn(t *testing.T) {
	const (
		parkers = 64
		target  = 32
	)
	c := NewCounter(Park)

	var wg sync.WaitGroup
	errs := make([]error, parkers)
	for i := range parkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx := context.Background()
			if i%2 == 1 {
				// Odd waiters give up part way through the advances.
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, time.Duration(i)*100*time.Microsecond)
				defer cancel()
			}
			errs[i] = c.AwaitCount(ctx, uint32(1+i%target))
		}()
	}

	for range target {
		time.Sleep(200 * time.Microsecond)
		c.Advance()
	}
	wg.Wait()

	for i, err := range errs {
		if i%2 == 0 && err != nil {
			t.Fatalf("waiter %d: %v", i, err)
		}
		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("waiter %d: %v, want nil or deadline", i, err)
		}
	}
	if ws := waiters(t, c); len(ws) != 0 {
		t.Fatalf("%d waiters left queued", len(ws))
	}
}

func TestTicketLock_UnlinkKeepsOrder(t *testing.T) {
	c := NewCounter(Park)
	ws := make([]*counterWaiter, 6)
	c.mu.Lock()
	for i := range ws {
		ws[i] = &counterWaiter{target: uint32(i + 1)}
		if c.tail == nil {
			c.head = ws[i]
		} else {
			c.tail.next = ws[i]
		}
		c.tail = ws[i]
	}
	c.mu.Unlock()

	// Head, middle and tail removed concurrently.
	var wg sync.WaitGroup
	for _, i := range []int{0, 3, 5} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.mu.Lock()
			removed := c.unlink(ws[i])
			c.mu.Unlock()
			if !removed {
				t.Errorf("unlink(%d) found nothing", i)
			}
		}()
	}
	wg.Wait()

	c.mu.Lock()
	again := c.unlink(ws[3])
	c.mu.Unlock()
	if again {
		t.Fatal("second unlink of the same waiter succeeded")
	}

	left := waiters(t, c)
	want := []uint32{2, 3, 5}
	if len(left) != len(want) {
		t.Fatalf("%d waiters left, want %d", len(left), len(want))
	}
	for i, w := range left {
		if w.target != want[i] {
			t.Fatalf("waiter %d has target %d, want %d", i, w.target, want[i])
		}
	}

	c.wake(5)
	if left := waiters(t, c); len(left) != 0 {
		t.Fatalf("wake(5) left %d waiters", len(left))
	}
}
