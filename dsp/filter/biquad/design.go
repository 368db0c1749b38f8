package biquad

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-daq/dsp/filter/biquad/internal/arch/registry"
)

var (
	// ErrCoefficientLength indicates feedforward and feedback slices of
	// different lengths.
	ErrCoefficientLength = errors.New("biquad: feedforward and feedback lengths differ")
	// ErrOrderTooLow indicates fewer than two coefficients per side.
	ErrOrderTooLow = errors.New("biquad: filter order must be at least 1")
	// ErrNonFinite indicates a NaN or infinite coefficient.
	ErrNonFinite = errors.New("biquad: non-finite coefficient")
)

// Design is an immutable IIR coefficient set of a given order.
//
// It is built from the classic (b, a) pair with len(b) == len(a) == order+1.
// The recursion uses a[1..order]; a[0] is kept as an explicit output gain
// and is not used to normalise the other coefficients. For a normalised
// design a[0] is 1.
type Design struct {
	ff   []float64 // b[0..order]
	fb   []float64 // a[0..order]; fb[0] is always 0
	gain float64
}

// NewDesign validates b and a and returns a Design that owns copies of them.
func NewDesign(b, a []float64) (*Design, error) {
	if len(b) != len(a) {
		return nil, fmt.Errorf("%w: len(b)=%d len(a)=%d", ErrCoefficientLength, len(b), len(a))
	}

	if len(b) < 2 {
		return nil, ErrOrderTooLow
	}

	for i := range b {
		if !isFinite(b[i]) || !isFinite(a[i]) {
			return nil, fmt.Errorf("%w at index %d", ErrNonFinite, i)
		}
	}

	d := &Design{
		ff:   make([]float64, len(b)),
		fb:   make([]float64, len(a)),
		gain: a[0],
	}
	copy(d.ff, b)
	copy(d.fb[1:], a[1:])

	return d, nil
}

// MustDesign is like NewDesign but panics on invalid coefficients.
// It is intended for package-level coefficient tables.
func MustDesign(b, a []float64) *Design {
	d, err := NewDesign(b, a)
	if err != nil {
		panic(err)
	}
	return d
}

// Order returns the filter order.
func (d *Design) Order() int {
	return len(d.ff) - 1
}

// Gain returns the output gain (the a[0] slot).
func (d *Design) Gain() float64 {
	return d.gain
}

// B returns a copy of the feedforward coefficients b[0..order].
func (d *Design) B() []float64 {
	out := make([]float64, len(d.ff))
	copy(out, d.ff)
	return out
}

// A returns a copy of the coefficients in (b, a) form: a[0] is the output
// gain, a[1..order] the feedback coefficients.
func (d *Design) A() []float64 {
	out := make([]float64, len(d.fb))
	copy(out, d.fb)
	out[0] = d.gain
	return out
}

// Equal reports whether d and o hold identical coefficients.
func (d *Design) Equal(o *Design) bool {
	if d == o {
		return true
	}
	if d == nil || o == nil || len(d.ff) != len(o.ff) || d.gain != o.gain {
		return false
	}
	for i := range d.ff {
		if d.ff[i] != o.ff[i] || d.fb[i] != o.fb[i] {
			return false
		}
	}
	return true
}

// String formats the design as "b=[...] a=[...]".
func (d *Design) String() string {
	return fmt.Sprintf("b=%v a=%v", d.ff, d.A())
}

func (d *Design) section() registry.Section {
	return registry.Section{
		B0: d.ff[0], B1: d.ff[1], B2: d.ff[2],
		A1: d.fb[1], A2: d.fb[2],
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
