package pipeline

import "fmt"

// Side names a unit of execution.
type Side uint8

const (
	// Host is the calling unit. It sizes the run before the others start.
	Host Side = iota
	Producer
	Consumer
)

func (s Side) String() string {
	switch s {
	case Host:
		return "host"
	case Producer:
		return "producer"
	case Consumer:
		return "consumer"
	default:
		return fmt.Sprintf("Side(%d)", uint8(s))
	}
}

// Stage is a step of the controller state machine. For two phases:
//
//	Sizing -> Producing(1) -> Handoff(1) -> Producing(2) | Consuming(1)
//	       -> Handoff(2) -> Consuming(2) -> Done
type Stage uint8

const (
	Sizing Stage = iota
	Producing
	Handoff
	Consuming
	Done
	Failed
)

func (s Stage) String() string {
	switch s {
	case Sizing:
		return "sizing"
	case Producing:
		return "producing"
	case Handoff:
		return "handoff"
	case Consuming:
		return "consuming"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Stage(%d)", uint8(s))
	}
}

// State is a stage and the 1-based phase it applies to (0 when the stage
// is not tied to a phase).
type State struct {
	Stage Stage
	Phase int
}

func (s State) String() string {
	if s.Phase == 0 {
		return s.Stage.String()
	}
	return fmt.Sprintf("%v[%d]", s.Stage, s.Phase)
}
