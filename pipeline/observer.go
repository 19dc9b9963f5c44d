package pipeline

import "time"

// EventKind distinguishes observer events.
type EventKind uint8

const (
	// Transition: Side entered State.
	Transition EventKind = iota
	// AcquireRange: Side is about to write output[Lo:Hi).
	AcquireRange
	// ReleaseRange: Side finished writing output[Lo:Hi).
	ReleaseRange
)

// Event is what an Observer sees. Events are delivered synchronously on
// the unit that caused them, so an Observer can delay that unit.
type Event struct {
	Kind  EventKind
	Side  Side
	State State
	Lo    int
	Hi    int
}

// Observer receives controller events. It must be safe for concurrent use:
// the producer and the consumer deliver events in parallel.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }

// Recorder receives run statistics. internal/metrics.Metrics implements it.
type Recorder interface {
	RunFinished(outcome string, in, out int, d time.Duration)
	Handoff(phase int, side string, wait time.Duration)
}
