package biquad

import (
	"sync"

	archregistry "github.com/cwbudde/algo-daq/dsp/filter/biquad/internal/arch/registry"
	"github.com/cwbudde/algo-vecmath"
	"github.com/cwbudde/algo-vecmath/cpu"
)

var (
	processBlockImpl     archregistry.ProcessBlockFn
	processBlockInitOnce sync.Once
)

// Filter is a stateful Direct Form II filter bound to a shared Design.
type Filter struct {
	design *Design
	z      []float64 // order+1 accumulators, z[order] stays zero
}

// NewFilter returns a Filter for d with a zeroed delay line.
func NewFilter(d *Design) *Filter {
	return &Filter{
		design: d,
		z:      make([]float64, d.Order()+1),
	}
}

// Design returns the shared coefficient set.
func (f *Filter) Design() *Design {
	return f.design
}

// Order returns the filter order.
func (f *Filter) Order() int {
	return f.design.Order()
}

// ProcessSample filters one sample and returns the output.
func (f *Filter) ProcessSample(x float64) float64 {
	b, a, z := f.design.ff, f.design.fb, f.z
	o := len(b) - 1

	y := b[0]*x + z[0]
	for j := 1; j < o; j++ {
		z[j-1] = b[j]*x + z[j] - a[j]*y
	}
	z[o-1] = b[o]*x - a[o]*y

	return f.design.gain * y
}

// Process filters buf in place. Zero-alloc.
func (f *Filter) Process(buf []float64) {
	if len(buf) == 0 {
		return
	}

	if f.design.Order() == 2 {
		processBlockInitOnce.Do(initProcessBlockKernel)
		f.z[0], f.z[1] = processBlockImpl(f.design.section(), f.z[0], f.z[1], buf)
	} else {
		f.processScalar(buf)
	}

	if g := f.design.gain; g != 1 {
		vecmath.ScaleBlockInPlace(buf, g)
	}
}

// ProcessTo filters src into dst. Both slices must have the same length.
// src is left untouched unless it aliases dst.
func (f *Filter) ProcessTo(dst, src []float64) {
	if len(dst) != len(src) {
		panic("biquad: ProcessTo length mismatch")
	}
	copy(dst, src)
	f.Process(dst)
}

func (f *Filter) processScalar(buf []float64) {
	b, a, z := f.design.ff, f.design.fb, f.z
	o := len(b) - 1

	for i, x := range buf {
		y := b[0]*x + z[0]
		for j := 1; j < o; j++ {
			z[j-1] = b[j]*x + z[j] - a[j]*y
		}
		z[o-1] = b[o]*x - a[o]*y
		buf[i] = y
	}
}

// Reset zeroes the delay line. Coefficients are unchanged.
func (f *Filter) Reset() {
	for i := range f.z {
		f.z[i] = 0
	}
}

// State returns a copy of the delay line.
func (f *Filter) State() []float64 {
	out := make([]float64, len(f.z))
	copy(out, f.z)
	return out
}

// SetState restores a delay line previously returned by State.
// Extra values are ignored and missing values are zeroed.
func (f *Filter) SetState(state []float64) {
	n := copy(f.z, state)
	for i := n; i < len(f.z); i++ {
		f.z[i] = 0
	}
}

// Clone returns a Filter sharing f's Design with a deep copy of its
// delay line.
func (f *Filter) Clone() *Filter {
	return &Filter{
		design: f.design,
		z:      f.State(),
	}
}

// KernelName reports which block kernel second-order filters dispatch to.
func KernelName() string {
	processBlockInitOnce.Do(initProcessBlockKernel)
	return kernelName
}

var kernelName string

func initProcessBlockKernel() {
	entry := archregistry.Global.Lookup(cpu.DetectFeatures())
	if entry == nil {
		panic("biquad: no ProcessBlock kernel registered (missing generic fallback?)")
	}

	if entry.ProcessBlock == nil {
		panic("biquad: selected kernel missing ProcessBlock")
	}

	processBlockImpl = entry.ProcessBlock
	kernelName = entry.Name
}
