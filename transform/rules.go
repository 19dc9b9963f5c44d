package transform

import (
	"fmt"
	"io"
)

// DefaultPlaceholder fills digit runs.
const DefaultPlaceholder = '*'

// ZeroPolicy decides what the digit '0' becomes.
type ZeroPolicy uint8

const (
	// ZeroDrop removes '0' from the output. It contributes -1 to the length.
	ZeroDrop ZeroPolicy = iota
	// ZeroKeep copies '0' through. It contributes 0 to the length.
	ZeroKeep
)

func (p ZeroPolicy) String() string {
	switch p {
	case ZeroDrop:
		return "drop"
	case ZeroKeep:
		return "keep"
	default:
		return fmt.Sprintf("ZeroPolicy(%d)", uint8(p))
	}
}

// ParseZeroPolicy parses "drop" or "keep".
func ParseZeroPolicy(s string) (ZeroPolicy, error) {
	switch s {
	case "drop", "":
		return ZeroDrop, nil
	case "keep":
		return ZeroKeep, nil
	default:
		return 0, fmt.Errorf("transform: unknown zero policy %q", s)
	}
}

// Rules is a rule set. The zero value is not valid; use Default.
type Rules struct {
	Placeholder byte
	Zero        ZeroPolicy
}

// Default returns '*' placeholders with '0' dropped.
func Default() Rules {
	return Rules{Placeholder: DefaultPlaceholder, Zero: ZeroDrop}
}

// Validate rejects a NUL placeholder, which is what the producer leaves in
// a reserved run, and placeholders that the consumer pass would mistake for
// markers.
func (r Rules) Validate() error {
	if r.Placeholder == 0 {
		return fmt.Errorf("transform: NUL placeholder")
	}
	if isDigit(r.Placeholder) {
		return fmt.Errorf("transform: placeholder %q is a digit", r.Placeholder)
	}
	if r.Zero > ZeroKeep {
		return fmt.Errorf("transform: invalid %v", r.Zero)
	}
	return nil
}

func isDigit(b byte) bool { return '0' <= b && b <= '9' }

// Fold maps 'A'..'Z' to lowercase and leaves every other byte alone.
func Fold(b byte) byte {
	if 'A' <= b && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}

// Width returns how many output bytes b produces.
func (r Rules) Width(b byte) int {
	switch {
	case b == '0':
		if r.Zero == ZeroKeep {
			return 1
		}
		return 0
	case '1' <= b && b <= '9':
		return int(b - '0')
	default:
		return 1
	}
}

// NewLength is the sizing prepass: len(src) plus d-1 for every digit d
// (with '0' at -1 under ZeroDrop).
func (r Rules) NewLength(src []byte) int {
	n := 0
	for _, b := range src {
		n += r.Width(b)
	}
	return n
}

// Plan returns the output offsets matching input boundaries, so that
// out[plan[k]:plan[k+1]] is what src[bounds[k]:bounds[k+1]] expands into.
func (r Rules) Plan(src []byte, bounds []int) []int {
	plan := make([]int, len(bounds))
	for k := 1; k < len(bounds); k++ {
		plan[k] = plan[k-1] + r.NewLength(src[bounds[k-1]:bounds[k]])
	}
	return plan
}

// ExpandAndFold writes the fully transformed src into dst and returns the
// number of bytes written. dst must hold NewLength(src) bytes.
func (r Rules) ExpandAndFold(dst, src []byte) (int, error) {
	return r.emit(dst, src, true)
}

// MarkAndFold is ExpandAndFold with deferred runs: a digit d is written as
// itself at the head of its run and the next d-1 slots are zeroed, for
// ExpandInPlace to fill.
func (r Rules) MarkAndFold(dst, src []byte) (int, error) {
	return r.emit(dst, src, false)
}

func (r Rules) emit(dst, src []byte, eager bool) (int, error) {
	j := 0
	for i, b := range src {
		w := r.Width(b)
		if j+w > len(dst) {
			return j, fmt.Errorf("transform: input byte %d needs %d bytes at %d of %d: %w",
				i, w, j, len(dst), io.ErrShortBuffer)
		}
		switch {
		case w == 0:
		case '1' <= b && b <= '9':
			run := dst[j : j+w]
			if eager {
				fill(run, r.Placeholder)
			} else {
				run[0] = b
				clear(run[1:])
			}
		default:
			dst[j] = Fold(b)
		}
		j += w
	}
	return j, nil
}

// ExpandInPlace scans seg left to right and turns each marker digit d into
// d placeholders starting at the marker, then skips past the run. A run
// never extends past the end of seg. '0' and every other byte are left as
// they are, and since placeholders are not digits a second pass changes
// nothing.
func (r Rules) ExpandInPlace(seg []byte) {
	for i := 0; i < len(seg); {
		b := seg[i]
		if b < '1' || b > '9' {
			i++
			continue
		}
		end := min(i+int(b-'0'), len(seg))
		fill(seg[i:end], r.Placeholder)
		i = end
	}
}

// Reference transforms src in one single-threaded pass with no phase split.
func (r Rules) Reference(src []byte) []byte {
	out := make([]byte, r.NewLength(src))
	// Cannot fail: out is sized by the same rules.
	_, _ = r.ExpandAndFold(out, src)
	return out
}

func fill(b []byte, c byte) {
	for i := range b {
		b[i] = c
	}
}
