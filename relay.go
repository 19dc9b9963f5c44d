package handoff

import (
	"context"
	"errors"
)

// Relay is the receiving side's notification handler.
// For every notification observed on its own line it advances the counter
// and then echoes to the sender, in that order, so the sender's
// SignalAndBlock returns only after the step is visible to AwaitCount.
type Relay struct {
	board   *Switchboard
	self    PeerID
	peer    PeerID
	counter *Counter
}

// NewRelay creates a relay that listens on the line of self, advances
// counter on every notification and acknowledges to peer.
func NewRelay(board *Switchboard, self, peer PeerID, counter *Counter) *Relay {
	return &Relay{board: board, self: self, peer: peer, counter: counter}
}

// Serve announces readiness to peer, then handles notifications until its
// line is hung up (nil), ctx is done (ctx.Err()), or peer can no longer be
// reached (ErrUnknownPeer).
func (r *Relay) Serve(ctx context.Context) error {
	if err := r.board.Notify(r.peer); err != nil {
		return err
	}
	for {
		if err := r.board.Await(ctx, r.self); err != nil {
			// Hangup removes the line, so a relay between two waits sees
			// its own id as unknown.
			if errors.Is(err, ErrHungUp) || errors.Is(err, ErrUnknownPeer) {
				return nil
			}
			return err
		}
		r.counter.Advance()
		if err := r.board.Notify(r.peer); err != nil {
			return err
		}
	}
}
