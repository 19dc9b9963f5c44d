package transform

import "fmt"

// MaxPhases is the largest phase count Split accepts.
const MaxPhases = 1 << 16

// Split divides an input of n bytes into phases contiguous segments and
// returns phases+1 boundaries, bounds[0] = 0 and bounds[phases] = n.
// Boundary k is ceil(k*n/phases), so the two-phase midpoint is ceil(n/2).
func Split(n, phases int) ([]int, error) {
	if phases < 1 || phases > MaxPhases {
		return nil, fmt.Errorf("transform: %d phases, want 1..%d", phases, MaxPhases)
	}
	if n < 0 {
		return nil, fmt.Errorf("transform: negative length %d", n)
	}
	// ceil(k*n/phases) without forming k*n, which overflows for large n.
	q, rem, p := n/phases, int64(n%phases), int64(phases)
	bounds := make([]int, phases+1)
	for k := 1; k <= phases; k++ {
		bounds[k] = k*q + int((int64(k)*rem+p-1)/p)
	}
	return bounds, nil
}
