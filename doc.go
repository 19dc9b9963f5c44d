// Package handoff provides the barriers two units of execution use to pass
// ownership of a shared region back and forth.
//
//   - Signal: a coalescing, fire-and-forget notification.
//   - Switchboard: peers addressed by PeerID, one inbound Signal each.
//   - Counter: a monotone counter with level-triggered AwaitCount (open loop).
//   - Handshake: notify, then block for the peer's echo (closed loop).
//   - Relay: the peer side of a Handshake that advances a Counter per step.
//
// A Signal may fold two notifications into one wakeup. Counter survives
// that because a poll of a monotone value cannot miss progress, and
// Handshake survives it because it never has two notifications in flight.
package handoff
