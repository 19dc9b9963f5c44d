//go:build race

package opt

import (
	"sync"
)

// Sema under the race detector is built on sync.Cond so that every
// Release/Acquire pair is a visible happens-before edge.
type Sema struct {
	mu   sync.Mutex
	cond *sync.Cond
	n    uint32
}

func (s *Sema) Acquire() {
	s.mu.Lock()
	if s.cond == nil {
		s.cond = sync.NewCond(&s.mu)
	}
	for s.n == 0 {
		s.cond.Wait()
	}
	s.n--
	s.mu.Unlock()
}

func (s *Sema) Release() {
	s.mu.Lock()
	if s.cond == nil {
		s.cond = sync.NewCond(&s.mu)
	}
	s.n++
	s.cond.Signal()
	s.mu.Unlock()
}
