package handoff

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

var waitModes = []WaitMode{Spin, Park}

func TestCounter_AwaitBeforeAdvance(t *testing.T) {
	for _, mode := range waitModes {
		t.Run(mode.String(), func(t *testing.T) {
			c := NewCounter(mode)
			done := make(chan error, 1)
			go func() {
				done <- c.AwaitCount(context.Background(), 1)
			}()

			select {
			case <-done:
				t.Fatal("AwaitCount returned before Advance")
			case <-time.After(20 * time.Millisecond):
			}

			if v := c.Advance(); v != 1 {
				t.Fatalf("Advance = %d, want 1", v)
			}
			select {
			case err := <-done:
				if err != nil {
					t.Fatalf("AwaitCount: %v", err)
				}
			case <-time.After(time.Second):
				t.Fatal("AwaitCount did not return after Advance")
			}
		})
	}
}

func TestCounter_LateWaiterReturnsImmediately(t *testing.T) {
	for _, mode := range waitModes {
		t.Run(mode.String(), func(t *testing.T) {
			c := NewCounter(mode)
			c.Advance()
			c.Advance()
			c.Advance()
			// Three advances before anyone waited: every lower target passes.
			for target := uint32(0); target <= 3; target++ {
				if err := c.AwaitCount(context.Background(), target); err != nil {
					t.Fatalf("AwaitCount(%d): %v", target, err)
				}
			}
		})
	}
}

func TestCounter_AwaitSteps(t *testing.T) {
	for _, mode := range waitModes {
		t.Run(mode.String(), func(t *testing.T) {
			c := NewCounter(mode)
			const steps = 50
			var seen []uint32
			done := make(chan struct{})
			go func() {
				defer close(done)
				for range steps {
					s, err := c.Await(context.Background())
					if err != nil {
						t.Errorf("Await: %v", err)
						return
					}
					seen = append(seen, s)
				}
			}()
			for range steps {
				c.Advance()
			}
			select {
			case <-done:
			case <-time.After(5 * time.Second):
				t.Fatal("waiter stuck")
			}
			for i, s := range seen {
				if s != uint32(i+1) {
					t.Fatalf("step %d = %d, want %d", i, s, i+1)
				}
			}
			if c.Step() != steps {
				t.Fatalf("Step() = %d, want %d", c.Step(), steps)
			}
		})
	}
}

func TestCounter_Cancel(t *testing.T) {
	for _, mode := range waitModes {
		t.Run(mode.String(), func(t *testing.T) {
			c := NewCounter(mode)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
			defer cancel()
			if err := c.AwaitCount(ctx, 1); !errors.Is(err, context.DeadlineExceeded) {
				t.Fatalf("AwaitCount = %v, want deadline", err)
			}
			if _, err := c.Await(ctx); err == nil {
				t.Fatal("Await succeeded without Advance")
			}
			if c.Step() != 0 {
				t.Fatalf("failed Await moved the step to %d", c.Step())
			}
			// The canceled waiter must not be left in the queue.
			c.Advance()
			if err := c.AwaitCount(context.Background(), 1); err != nil {
				t.Fatalf("AwaitCount after cancel: %v", err)
			}
		})
	}
}

func TestCounter_ParkManyTargets(t *testing.T) {
	c := NewCounter(Park)
	const waiters = 16
	var woke atomic.Int32
	var wg sync.WaitGroup
	wg.Add(waiters)
	for i := range waiters {
		target := uint32(i%4 + 1)
		go func() {
			defer wg.Done()
			if err := c.AwaitCount(context.Background(), target); err != nil {
				t.Errorf("AwaitCount(%d): %v", target, err)
			}
			if c.Current() < target {
				t.Errorf("woke at %d before target %d", c.Current(), target)
			}
			woke.Add(1)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	c.Advance()
	c.Advance()
	time.Sleep(20 * time.Millisecond)
	if n := woke.Load(); n != waiters/2 {
		t.Fatalf("woke %d waiters at count 2, want %d", n, waiters/2)
	}
	c.Advance()
	c.Advance()
	wg.Wait()
}

func TestCounter_PublishesWrites(t *testing.T) {
	for _, mode := range waitModes {
		t.Run(mode.String(), func(t *testing.T) {
			c := NewCounter(mode)
			data := make([]int, 64)
			done := make(chan struct{})
			go func() {
				defer close(done)
				for step := range 64 {
					if _, err := c.Await(context.Background()); err != nil {
						t.Errorf("Await: %v", err)
						return
					}
					if data[step] != step+1 {
						t.Errorf("data[%d] = %d, not visible after step", step, data[step])
					}
				}
			}()
			for i := range data {
				data[i] = i + 1
				c.Advance()
			}
			<-done
		})
	}
}
