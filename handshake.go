package handoff

import (
	"context"
	"sync/atomic"
)

// Handshake is the HandshakeBarrier: a closed-loop, two-party rendezvous.
//
// SignalAndBlock rings the peer and then parks until the peer rings back.
// Because the caller never sends a second notification before the echo of
// the first arrives, no step can coalesce with another and every step is
// observed individually by the peer.
//
// Both sides are addressed by PeerID through a Switchboard, so a peer that
// hung up is reported as ErrUnknownPeer or ErrHungUp instead of a silent stall.
//
// Usage:
//
//	var board handoff.Switchboard
//	board.Register(producer)
//	board.Register(consumer)
//	h := handoff.NewHandshake(&board, producer, consumer)
//	// peer: handoff.NewRelay(&board, consumer, producer, counter).Serve(ctx)
//	_ = h.AwaitReady(ctx)
//	_ = h.SignalAndBlock(ctx) // step 1 observed and acknowledged
type Handshake struct {
	_      noCopy
	board  *Switchboard
	self   PeerID
	peer   PeerID
	rounds atomic.Uint32
}

// NewHandshake creates the signaling side of a rendezvous. Echoes arrive on
// the line of self; notifications are sent to peer.
func NewHandshake(board *Switchboard, self, peer PeerID) *Handshake {
	return &Handshake{board: board, self: self, peer: peer}
}

// AwaitReady blocks until the peer announces it is receptive.
// It must be called once, before the first SignalAndBlock.
func (h *Handshake) AwaitReady(ctx context.Context) error {
	return h.board.Await(ctx, h.self)
}

// SignalAndBlock notifies the peer and blocks until the peer acknowledges.
func (h *Handshake) SignalAndBlock(ctx context.Context) error {
	if err := h.board.Notify(h.peer); err != nil {
		return err
	}
	if err := h.board.Await(ctx, h.self); err != nil {
		return err
	}
	h.rounds.Add(1)
	return nil
}

// Rounds returns how many rendezvous completed.
func (h *Handshake) Rounds() uint32 {
	return h.rounds.Load()
}
