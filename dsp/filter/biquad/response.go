package biquad

import (
	"math"
	"math/cmplx"
)

// Response computes the complex frequency response H(e^jw) of the design
// at the given frequency (Hz) and sample rate (Hz), output gain included.
func (d *Design) Response(freqHz, sampleRate float64) complex128 {
	w := 2 * math.Pi * freqHz / sampleRate

	var num, den complex128
	den = 1
	for k := range d.ff {
		ejwk := cmplx.Exp(complex(0, -w*float64(k)))
		num += complex(d.ff[k], 0) * ejwk
		if k > 0 {
			den += complex(d.fb[k], 0) * ejwk
		}
	}

	return complex(d.gain, 0) * num / den
}

// MagnitudeDB returns 20*log10(|H(f)|).
func (d *Design) MagnitudeDB(freqHz, sampleRate float64) float64 {
	return 20 * math.Log10(cmplx.Abs(d.Response(freqHz, sampleRate)))
}

// Phase returns the phase response in radians at the given frequency.
func (d *Design) Phase(freqHz, sampleRate float64) float64 {
	return cmplx.Phase(d.Response(freqHz, sampleRate))
}

// DCGain returns H(1), the steady-state gain for a constant input.
func (d *Design) DCGain() float64 {
	num, den := 0.0, 1.0
	for k := range d.ff {
		num += d.ff[k]
		if k > 0 {
			den += d.fb[k]
		}
	}
	return d.gain * num / den
}

// ImpulseResponse computes n samples of the impulse response h[n] by
// feeding an impulse through the filter. The delay line is saved and
// restored, so f's streaming state is not modified.
func (f *Filter) ImpulseResponse(n int) []float64 {
	if n <= 0 {
		return nil
	}

	saved := f.State()
	f.Reset()

	ir := make([]float64, n)
	ir[0] = 1
	f.Process(ir)

	f.SetState(saved)
	return ir
}
