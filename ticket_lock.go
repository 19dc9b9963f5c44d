package handoff

import (
	"sync/atomic"
)

// ticketLock is a fair FIFO spin-lock guarding the Counter's waiter list.
//
// Lock takes a ticket and spins (with adaptive delay) until it is served;
// Unlock serves the next ticket. Critical sections are a few pointer
// updates, so no goroutine ever parks while holding it.
type ticketLock struct {
	_       noCopy
	next    atomic.Uint32
	serving atomic.Uint32
}

func (m *ticketLock) Lock() {
	my := m.next.Add(1) - 1
	var spins int
	for m.serving.Load() != my {
		delay(&spins)
	}
}

func (m *ticketLock) Unlock() {
	m.serving.Add(1)
}
