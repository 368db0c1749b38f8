// Package synth provides a deterministic stand-in for an amplifier.
//
// Channel i carries a 15 Hz sine with amplitude full*sqrt(i/n), each channel
// shifted by 0.01 rad. The marker channel reads 1 on every 40000th frame and
// 0 otherwise.
package synth

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// DefaultRate is the default raw sample rate in Hz.
const DefaultRate = 5000

const (
	toneHz         = 15
	phaseStep      = 0.01
	markerInterval = 40000
	fullScaleLow   = 32767
	fullScaleHigh  = 3277
)

// ErrChannels indicates a non-positive channel count.
var ErrChannels = errors.New("synth: channel count must be >= 1")

type config struct {
	rate          float64
	realtime      bool
	highImpedance bool
}

// Option configures a Source.
type Option func(*config)

// WithRate sets the raw sample rate used for the tone and pacing.
func WithRate(hz float64) Option {
	return func(cfg *config) {
		if hz > 0 {
			cfg.rate = hz
		}
	}
}

// WithRealtime makes ReadChunk wait one chunk duration per call.
func WithRealtime(enabled bool) Option {
	return func(cfg *config) {
		cfg.realtime = enabled
	}
}

// WithHighImpedance lowers the amplitude tenfold, as in impedance mode.
func WithHighImpedance(enabled bool) Option {
	return func(cfg *config) {
		cfg.highImpedance = enabled
	}
}

// Source generates raw chunks. It is not safe for concurrent use.
type Source struct {
	channels  int
	cfg       config
	amplitude []float64
	frame     int64
}

// New returns a Source with channels signal channels.
func New(channels int, opts ...Option) (*Source, error) {
	if channels < 1 {
		return nil, fmt.Errorf("%w: %d", ErrChannels, channels)
	}

	cfg := config{rate: DefaultRate}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	full := float64(fullScaleLow)
	if cfg.highImpedance {
		full = fullScaleHigh
	}

	amp := make([]float64, channels)
	for i := range amp {
		amp[i] = math.Trunc(full * math.Sqrt(float64(i)/float64(channels)))
	}

	return &Source{channels: channels, cfg: cfg, amplitude: amp}, nil
}

// Channels returns the number of signal channels.
func (s *Source) Channels() int { return s.channels }

// Rate returns the raw sample rate.
func (s *Source) Rate() float64 { return s.cfg.rate }

// ReadChunk fills buf with len(buf)/(channels+1) frames.
func (s *Source) ReadChunk(ctx context.Context, buf []int16) error {
	stride := s.channels + 1
	if len(buf)%stride != 0 {
		return fmt.Errorf("synth: buffer of %d words is not a multiple of %d", len(buf), stride)
	}

	frames := len(buf) / stride
	for f := range frames {
		s.frame++
		phase := 2 * math.Pi * toneHz / s.cfg.rate * float64(s.frame)

		out := buf[f*stride : (f+1)*stride]
		for c := range s.channels {
			out[c] = int16(math.Sin(phase+phaseStep*float64(c)) * s.amplitude[c])
		}

		out[s.channels] = 0
		if s.frame%markerInterval == 0 {
			out[s.channels] = 1
		}
	}

	if !s.cfg.realtime {
		return ctx.Err()
	}

	d := time.Duration(float64(frames) / s.cfg.rate * float64(time.Second))
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
