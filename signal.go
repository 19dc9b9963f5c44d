package handoff

import (
	"context"
	"sync"
	"sync/atomic"
)

// Signal is a one-shot, coalescing notification (Doorbell) between two
// independently scheduled units.
//
// Behavior:
//   - Notify(): never blocks. Leaves one notification pending and wakes the
//     receiver if it is parked.
//   - Wait(): blocks until a notification is pending, then consumes it.
//   - Two Notify() calls that land before the receiver consumes either are
//     observed as ONE. Never assume sends equal receives.
//   - Hangup(): the sender is gone. A pending notification can still be
//     consumed; after that every Wait() fails with ErrHungUp.
//
// A Notify happens-before the Wait that consumes it.
type Signal struct {
	_    noCopy
	bell chan struct{}
	gone chan struct{}
	hang sync.Once

	sent     atomic.Uint64
	observed atomic.Uint64
}

// NewSignal creates a signal with nothing pending.
func NewSignal() *Signal {
	return &Signal{
		bell: make(chan struct{}, 1),
		gone: make(chan struct{}),
	}
}

// Notify rings the bell. It reports false when the notification coalesced
// with one that was already pending.
func (s *Signal) Notify() bool {
	s.sent.Add(1)
	select {
	case s.bell <- struct{}{}:
		return true
	default:
		return false
	}
}

// Wait blocks until a notification is pending and consumes it.
// It returns ctx.Err() if ctx is done first, or ErrHungUp once the sender
// hung up and nothing is pending.
func (s *Signal) Wait(ctx context.Context) error {
	select {
	case <-s.bell:
		s.observed.Add(1)
		return nil
	default:
	}

	select {
	case <-s.bell:
		s.observed.Add(1)
		return nil
	case <-s.gone:
		// A final Notify may race with Hangup; drain it first.
		select {
		case <-s.bell:
			s.observed.Add(1)
			return nil
		default:
		}
		return ErrHungUp
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending reports whether a notification is waiting to be consumed.
func (s *Signal) Pending() bool {
	return len(s.bell) > 0
}

// Hangup marks the sending side as gone. It is idempotent.
func (s *Signal) Hangup() {
	s.hang.Do(func() { close(s.gone) })
}

// HungUp reports whether Hangup has been called.
func (s *Signal) HungUp() bool {
	select {
	case <-s.gone:
		return true
	default:
		return false
	}
}

// Sent returns how many times Notify has been called.
func (s *Signal) Sent() uint64 {
	return s.sent.Load()
}

// Observed returns how many notifications Wait has consumed. It is at most
// Sent(), and lower when notifications coalesced.
func (s *Signal) Observed() uint64 {
	return s.observed.Load()
}
