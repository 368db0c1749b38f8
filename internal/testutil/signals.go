package testutil

import (
	"math"
	"math/rand"
)

// DeterministicSine generates a deterministic sine wave.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// Impulse generates a unit impulse at the given position.
func Impulse(length, pos int) []float64 {
	out := make([]float64, length)
	if pos >= 0 && pos < length {
		out[pos] = 1
	}
	return out
}

// DC generates a constant-valued signal.
func DC(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}
	return out
}

// Ramp returns [start, start+1, ..., start+length-1].
func Ramp(start float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = start + float64(i)
	}
	return out
}

// Step returns a marker sequence holding from before index at and to from
// index at onwards.
func Step(from, to uint16, at, length int) []uint16 {
	out := make([]uint16, length)
	for i := range out {
		if i < at {
			out[i] = from
		} else {
			out[i] = to
		}
	}
	return out
}

// Interleave builds a frame-major raw chunk from per-channel samples and a
// marker sequence: each frame holds one word per channel followed by the
// marker word. All sequences must have the same length.
func Interleave(channels [][]int16, marker []uint16) []int16 {
	frames := len(marker)
	width := len(channels) + 1
	out := make([]int16, frames*width)
	for f := 0; f < frames; f++ {
		for c, ch := range channels {
			out[f*width+c] = ch[f]
		}
		out[f*width+width-1] = int16(marker[f])
	}
	return out
}

// NoiseChannels returns n channels of deterministic int16 noise.
func NoiseChannels(seed int64, n, length int, amplitude float64) [][]int16 {
	out := make([][]int16, n)
	for c := range out {
		noise := DeterministicNoise(seed+int64(c), amplitude, length)
		out[c] = make([]int16, length)
		for i, v := range noise {
			out[c][i] = int16(v)
		}
	}
	return out
}

// Float64s converts int16 samples to float64.
func Float64s(in []int16) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}
