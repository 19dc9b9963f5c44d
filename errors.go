package handoff

import "errors"

var (
	// ErrHungUp is returned by a wait whose sender hung up with nothing
	// left pending.
	ErrHungUp = errors.New("handoff: peer hung up")

	// ErrUnknownPeer is returned when a notification targets a peer that
	// is not registered on the switchboard.
	ErrUnknownPeer = errors.New("handoff: unknown peer")

	// ErrPeerExists is returned when a peer id is registered twice.
	ErrPeerExists = errors.New("handoff: peer already registered")
)
