//go:build amd64 && !purego

package avx2

import (
	"github.com/cwbudde/algo-daq/dsp/filter/biquad/internal/arch/registry"
	"github.com/cwbudde/algo-vecmath/cpu"
)

func init() {
	registry.Global.Register(registry.OpEntry{
		Name:         "avx2",
		SIMDLevel:    cpu.SIMDAVX2,
		Priority:     20,
		ProcessBlock: processBlock,
	})
}

// processBlock is a 4x-unrolled scalar kernel registered at AVX2 priority.
// It keeps the generic kernel's expression order, so results are bit-identical.
func processBlock(s registry.Section, z0, z1 float64, buf []float64) (newZ0, newZ1 float64) {
	b0, b1, b2 := s.B0, s.B1, s.B2
	a1, a2 := s.A1, s.A2

	i := 0
	n := len(buf)
	for ; i+3 < n; i += 4 {
		x0 := buf[i]
		y0 := b0*x0 + z0
		z0n0 := b1*x0 + z1 - a1*y0
		z1n0 := b2*x0 - a2*y0

		x1 := buf[i+1]
		y1 := b0*x1 + z0n0
		z0n1 := b1*x1 + z1n0 - a1*y1
		z1n1 := b2*x1 - a2*y1

		x2 := buf[i+2]
		y2 := b0*x2 + z0n1
		z0n2 := b1*x2 + z1n1 - a1*y2
		z1n2 := b2*x2 - a2*y2

		x3 := buf[i+3]
		y3 := b0*x3 + z0n2
		z0 = b1*x3 + z1n2 - a1*y3
		z1 = b2*x3 - a2*y3

		buf[i] = y0
		buf[i+1] = y1
		buf[i+2] = y2
		buf[i+3] = y3
	}

	for ; i < n; i++ {
		x := buf[i]
		y := b0*x + z0
		z0 = b1*x + z1 - a1*y
		z1 = b2*x - a2*y
		buf[i] = y
	}

	return z0, z1
}
