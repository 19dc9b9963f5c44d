package transform

import (
	"bytes"
	"io"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLength(t *testing.T) {
	drop := Default()
	keep := Rules{Placeholder: '*', Zero: ZeroKeep}

	cases := []struct {
		in         string
		drop, keep int
	}{
		{"", 0, 0},
		{"abc", 3, 3},
		{"1", 1, 1},
		{"3AB5c", 11, 11},
		{"2A0b3C", 8, 9},
		{"0000", 0, 4},
		{"9", 9, 9},
	}
	for _, c := range cases {
		assert.Equal(t, c.drop, drop.NewLength([]byte(c.in)), "drop %q", c.in)
		assert.Equal(t, c.keep, keep.NewLength([]byte(c.in)), "keep %q", c.in)
	}
}

func TestNewLengthMatchesDigitSum(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, r := range []Rules{Default(), {Placeholder: '.', Zero: ZeroKeep}} {
		for range 200 {
			src := randomInput(rng, rng.Intn(64))
			want := len(src)
			for _, b := range src {
				switch {
				case '1' <= b && b <= '9':
					want += int(b-'0') - 1
				case b == '0' && r.Zero == ZeroDrop:
					want--
				}
			}
			require.Equal(t, want, r.NewLength(src), "%q", src)
		}
	}
}

func TestReference(t *testing.T) {
	r := Default()
	assert.Equal(t, "***ab*****c", string(r.Reference([]byte("3AB5c"))))
	assert.Equal(t, "**ab***c", string(r.Reference([]byte("2A0b3C"))))
	assert.Equal(t, "x-y_z", string(r.Reference([]byte("X-Y_z"))))

	keep := Rules{Placeholder: '#', Zero: ZeroKeep}
	assert.Equal(t, "##a0b###c", string(keep.Reference([]byte("2A0b3C"))))
}

func TestMarkAndFold(t *testing.T) {
	r := Default()
	src := []byte("3AB5c0")
	dst := make([]byte, r.NewLength(src))
	n, err := r.MarkAndFold(dst, src)
	require.NoError(t, err)
	assert.Equal(t, len(dst), n)
	assert.Equal(t, []byte{'3', 0, 0, 'a', 'b', '5', 0, 0, 0, 0, 'c'}, dst)

	r.ExpandInPlace(dst)
	assert.Equal(t, r.Reference(src), dst)
}

func TestEmitShortBuffer(t *testing.T) {
	r := Default()
	src := []byte("ab9")
	dst := make([]byte, 5)
	n, err := r.ExpandAndFold(dst, src)
	require.ErrorIs(t, err, io.ErrShortBuffer)
	assert.Equal(t, 2, n)

	_, err = r.MarkAndFold(dst, src)
	require.ErrorIs(t, err, io.ErrShortBuffer)
}

func TestExpandInPlace(t *testing.T) {
	r := Default()
	cases := map[string]string{
		"":       "",
		"abc":    "abc",
		"3xxx":   "***x",
		"21x":    "**x",
		"x9":     "x*",
		"0a0":    "0a0",
		"1*2":    "***",
		"4\x00\x00\x00q": "****q",
	}
	for in, want := range cases {
		seg := []byte(in)
		r.ExpandInPlace(seg)
		assert.Equal(t, want, string(seg), "input %q", in)
	}
}

func TestExpandInPlaceIdempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	alphabet := []byte("0123456789**ab")
	r := Default()
	for range 500 {
		seg := make([]byte, rng.Intn(40))
		for i := range seg {
			seg[i] = alphabet[rng.Intn(len(alphabet))]
		}
		once := bytes.Clone(seg)
		r.ExpandInPlace(once)
		twice := bytes.Clone(once)
		r.ExpandInPlace(twice)
		require.Equal(t, once, twice, "input %q", seg)
	}
}

func TestCaseFoldingOrderPreserving(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	r := Default()
	for range 200 {
		src := randomInput(rng, rng.Intn(48))
		out := r.Reference(src)
		j := 0
		for _, b := range src {
			w := r.Width(b)
			if 'A' <= b && b <= 'Z' {
				require.Equal(t, b+('a'-'A'), out[j], "src %q at out %d", src, j)
			}
			j += w
		}
		require.Equal(t, len(out), j)
		for _, b := range out {
			assert.False(t, 'A' <= b && b <= 'Z', "uppercase survived in %q", out)
		}
	}
}

func TestPlan(t *testing.T) {
	r := Default()
	src := []byte("2A0b3C")
	bounds, err := Split(len(src), 2)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3, 6}, bounds)
	assert.Equal(t, []int{0, 3, 8}, r.Plan(src, bounds))
}

func TestValidate(t *testing.T) {
	require.NoError(t, Default().Validate())
	require.Error(t, Rules{Placeholder: '7'}.Validate())
	require.Error(t, Rules{Placeholder: 0, Zero: ZeroKeep}.Validate())
	require.Error(t, Rules{Placeholder: '*', Zero: 9}.Validate())
}

func TestParseZeroPolicy(t *testing.T) {
	p, err := ParseZeroPolicy("keep")
	require.NoError(t, err)
	assert.Equal(t, ZeroKeep, p)
	p, err = ParseZeroPolicy("drop")
	require.NoError(t, err)
	assert.Equal(t, ZeroDrop, p)
	_, err = ParseZeroPolicy("pad")
	assert.Error(t, err)
	assert.Equal(t, "keep", ZeroKeep.String())
}

func randomInput(rng *rand.Rand, n int) []byte {
	const alphabet = "0123456789ABCDEFXYZabcxyz -_."
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[rng.Intn(len(alphabet))]
	}
	return b
}
