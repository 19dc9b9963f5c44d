package handoff

import (
	"context"
	"sync/atomic"

	"github.com/llxisdsh/handoff/internal/opt"
)

// WaitMode selects how a Counter waiter blocks.
type WaitMode uint8

const (
	// Spin polls the counter and yields the processor between polls.
	// Lowest wake latency, burns a core while waiting.
	Spin WaitMode = iota
	// Park queues the waiter and sleeps until Advance satisfies it.
	// Same ordering as Spin.
	Park
)

func (m WaitMode) String() string {
	switch m {
	case Spin:
		return "spin"
	case Park:
		return "park"
	default:
		return "unknown"
	}
}

// Counter is the CountingBarrier: a single-writer monotone counter with
// "wait until at least n" semantics.
//
// Behavior:
//   - Advance(): increments the count and wakes satisfied waiters. Never blocks.
//   - AwaitCount(n): returns once count >= n. Level-triggered: a waiter that
//     arrives late returns immediately, so a coalesced wakeup is never missed.
//   - Await(): waits for the next step (1, 2, 3, ...). The step cursor belongs
//     to the Counter, not to a package global, so runs never leak into each other.
//
// Every write made before Advance() is visible after the AwaitCount() that
// it satisfies returns.
//
// The zero value is a Spin counter at 0.
type Counter struct {
	_ noCopy

	count atomic.Uint32
	_     opt.Pad_

	mode WaitMode
	// step is the last target Await returned for. Owned by the waiting side.
	step uint32

	mu   ticketLock
	head *counterWaiter
	tail *counterWaiter
}

type counterWaiter struct {
	target   uint32
	sema     opt.Sema
	canceled atomic.Bool
	// next is protected by Counter.mu
	next *counterWaiter
}

// NewCounter creates a counter at 0 that blocks waiters according to mode.
func NewCounter(mode WaitMode) *Counter {
	return &Counter{mode: mode}
}

// Mode returns the counter's wait mode.
func (c *Counter) Mode() WaitMode {
	return c.mode
}

// Current returns the current count.
func (c *Counter) Current() uint32 {
	return c.count.Load()
}

// Advance increments the count by one and returns the new value.
func (c *Counter) Advance() uint32 {
	v := c.count.Add(1)
	if c.mode == Park {
		c.wake(v)
	}
	return v
}

// AwaitCount blocks until the count reaches at least target, or ctx is done.
func (c *Counter) AwaitCount(ctx context.Context, target uint32) error {
	if c.count.Load() >= target {
		return nil
	}
	if c.mode == Park {
		return c.park(ctx, target)
	}
	return c.spin(ctx, target)
}

// Await waits for the step after the last one it returned for and reports
// that step. It must only be called from the single waiting unit.
func (c *Counter) Await(ctx context.Context) (uint32, error) {
	target := c.step + 1
	if err := c.AwaitCount(ctx, target); err != nil {
		return c.step, err
	}
	c.step = target
	return target, nil
}

// Step returns the last step Await returned for.
func (c *Counter) Step() uint32 {
	return c.step
}

func (c *Counter) spin(ctx context.Context, target uint32) error {
	done := ctx.Done()
	var spins int
	for c.count.Load() < target {
		select {
		case <-done:
			return ctx.Err()
		default:
		}
		yield(&spins)
	}
	return nil
}

func (c *Counter) park(ctx context.Context, target uint32) error {
	c.mu.Lock()
	if c.count.Load() >= target {
		c.mu.Unlock()
		return nil
	}
	w := &counterWaiter{target: target}
	if c.tail == nil {
		c.head = w
	} else {
		c.tail.next = w
	}
	c.tail = w
	c.mu.Unlock()

	stop := context.AfterFunc(ctx, func() {
		c.mu.Lock()
		removed := c.unlink(w)
		c.mu.Unlock()
		if removed {
			w.canceled.Store(true)
			w.sema.Release()
		}
	})
	w.sema.Acquire()
	stop()

	if w.canceled.Load() && c.count.Load() < target {
		return ctx.Err()
	}
	return nil
}

// wake releases every queued waiter whose target is met by v.
func (c *Counter) wake(v uint32) {
	c.mu.Lock()
	var prev *counterWaiter
	curr := c.head
	for curr != nil {
		next := curr.next
		if curr.target <= v {
			if prev == nil {
				c.head = next
			} else {
				prev.next = next
			}
			if curr == c.tail {
				c.tail = prev
			}
			curr.sema.Release()
		} else {
			prev = curr
		}
		curr = next
	}
	c.mu.Unlock()
}

// unlink removes w from the waiter list. Caller holds c.mu.
func (c *Counter) unlink(w *counterWaiter) bool {
	var prev *counterWaiter
	for curr := c.head; curr != nil; curr = curr.next {
		if curr != w {
			prev = curr
			continue
		}
		if prev == nil {
			c.head = curr.next
		} else {
			prev.next = curr.next
		}
		if curr == c.tail {
			c.tail = prev
		}
		return true
	}
	return false
}
