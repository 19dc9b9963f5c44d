package opt

import (
	"unsafe"

	"golang.org/x/sys/cpu"
)

// CacheLineSize_ is the padding unit used to keep the producer-written and
// the consumer-written words of a barrier on separate cache lines.
const CacheLineSize_ = unsafe.Sizeof(cpu.CacheLinePad{})

// Pad_ fills the remainder of a cache line after a 4-byte word.
type Pad_ [CacheLineSize_ - 4]byte
