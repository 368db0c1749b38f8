package generic

import (
	"github.com/cwbudde/algo-daq/dsp/filter/biquad/internal/arch/registry"
	"github.com/cwbudde/algo-vecmath/cpu"
)

func init() {
	registry.Global.Register(registry.OpEntry{
		Name:         "generic",
		SIMDLevel:    cpu.SIMDNone,
		Priority:     0,
		ProcessBlock: processBlock,
	})
}

func processBlock(s registry.Section, z0, z1 float64, buf []float64) (newZ0, newZ1 float64) {
	b0, b1, b2 := s.B0, s.B1, s.B2
	a1, a2 := s.A1, s.A2

	i := 0
	n := len(buf)
	for ; i+1 < n; i += 2 {
		x0 := buf[i]
		y0 := b0*x0 + z0
		z0n := b1*x0 + z1 - a1*y0
		z1n := b2*x0 - a2*y0

		x1 := buf[i+1]
		y1 := b0*x1 + z0n
		z0 = b1*x1 + z1n - a1*y1
		z1 = b2*x1 - a2*y1

		buf[i] = y0
		buf[i+1] = y1
	}

	if i < n {
		x := buf[i]
		y := b0*x + z0
		z0 = b1*x + z1 - a1*y
		z1 = b2*x - a2*y
		buf[i] = y
	}

	return z0, z1
}
