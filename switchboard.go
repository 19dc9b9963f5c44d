package handoff

import (
	"context"
	"fmt"

	"github.com/llxisdsh/pb"
)

// PeerID is the opaque handle a unit is addressed by.
type PeerID uint32

// Switchboard routes notifications to peers by id.
// Each registered peer owns one inbound Signal.
//
// It is zero-value usable and safe for concurrent use.
type Switchboard struct {
	_     noCopy
	lines pb.MapOf[PeerID, *Signal]
}

// Register creates the inbound line for id.
// It fails with ErrPeerExists if id already has one.
func (b *Switchboard) Register(id PeerID) (*Signal, error) {
	line, exists := b.lines.ProcessEntry(
		id,
		func(l *pb.EntryOf[PeerID, *Signal]) (*pb.EntryOf[PeerID, *Signal], *Signal, bool) {
			if l != nil {
				return l, l.Value, true
			}
			s := NewSignal()
			return &pb.EntryOf[PeerID, *Signal]{Value: s}, s, false
		},
	)
	if exists {
		return nil, fmt.Errorf("%w: %d", ErrPeerExists, id)
	}
	return line, nil
}

// Line returns the inbound signal of id.
func (b *Switchboard) Line(id PeerID) (*Signal, bool) {
	return b.lines.Load(id)
}

// Notify rings the line of target. It never blocks.
func (b *Switchboard) Notify(target PeerID) error {
	line, ok := b.lines.Load(target)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownPeer, target)
	}
	line.Notify()
	return nil
}

// Await blocks on the inbound line of self.
func (b *Switchboard) Await(ctx context.Context, self PeerID) error {
	line, ok := b.lines.Load(self)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownPeer, self)
	}
	return line.Wait(ctx)
}

// Hangup hangs up the line of id and forgets it. Waiters already parked on
// the line observe ErrHungUp.
func (b *Switchboard) Hangup(id PeerID) {
	if line, ok := b.lines.LoadAndDelete(id); ok {
		line.Hangup()
	}
}

// Close hangs up every line.
func (b *Switchboard) Close() {
	var ids []PeerID
	b.lines.Range(func(id PeerID, _ *Signal) bool {
		ids = append(ids, id)
		return true
	})
	for _, id := range ids {
		b.Hangup(id)
	}
}

// Peers returns the number of registered lines.
func (b *Switchboard) Peers() int {
	return b.lines.Size()
}
