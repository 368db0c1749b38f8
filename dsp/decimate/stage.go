package decimate

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-daq/dsp/filter/biquad"
)

var (
	// ErrInvalidFactor indicates a decimation factor below 1.
	ErrInvalidFactor = errors.New("decimate: factor must be >= 1")
	// ErrUnsupportedFactor indicates a filtering stage whose factor has no
	// built-in design and no explicit one was supplied.
	ErrUnsupportedFactor = errors.New("decimate: no built-in coefficients for factor")
	// ErrInvalidChunkLength indicates a negative output chunk length.
	ErrInvalidChunkLength = errors.New("decimate: chunk length must be >= 0")
	// ErrChunkLength indicates an input buffer of the wrong size.
	ErrChunkLength = errors.New("decimate: input length does not match chunk contract")
	// ErrEmptyChain indicates a chain without stages.
	ErrEmptyChain = errors.New("decimate: chain needs at least one stage")
)

// Path is a single-channel decimation path: a Stage or a Chain.
type Path interface {
	// Decimate turns len(raw) input samples into len(raw)/Factor() output
	// samples. The returned slice is owned by the path and is overwritten by
	// the next call.
	Decimate(raw []float64) ([]float64, error)
	// Factor returns the composite decimation factor.
	Factor() int
	// ChunkLen returns the fixed number of output samples per Decimate
	// call, or 0 when any multiple of Factor() is accepted.
	ChunkLen() int
	// Reset clears filter state and buffered input, keeping coefficients.
	Reset()
	// Clone returns an independent copy sharing immutable coefficients.
	Clone() Path
}

type stageConfig struct {
	design *biquad.Design
	bypass bool
}

// StageOption configures a Stage.
type StageOption func(*stageConfig)

// WithDesign supplies explicit filter coefficients instead of the built-in
// table entry for the factor.
func WithDesign(d *biquad.Design) StageOption {
	return func(cfg *stageConfig) {
		cfg.design = d
	}
}

// WithoutFilter disables filtering: the stage only selects samples.
func WithoutFilter() StageOption {
	return func(cfg *stageConfig) {
		cfg.bypass = true
	}
}

// Stage decimates by a fixed integer factor, optionally filtering first.
type Stage struct {
	factor   int
	chunkLen int
	filter   *biquad.Filter // nil for selection-only stages

	work  []float64
	carry []float64 // fewer than factor samples between calls
	out   []float64
}

// NewStage creates a stage producing chunkLen output samples per Decimate
// call. A chunkLen of 0 lets Decimate accept any multiple of factor.
//
// Filtering stages use the design from WithDesign, or the built-in design
// for factor; construction fails with ErrUnsupportedFactor when neither is
// available.
func NewStage(factor, chunkLen int, opts ...StageOption) (*Stage, error) {
	if factor < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFactor, factor)
	}

	if chunkLen < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChunkLength, chunkLen)
	}

	var cfg stageConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	s := &Stage{
		factor:   factor,
		chunkLen: chunkLen,
		work:     make([]float64, 0, chunkLen*factor+factor),
		carry:    make([]float64, 0, factor),
		out:      make([]float64, 0, chunkLen),
	}

	if !cfg.bypass {
		d := cfg.design
		if d == nil {
			var ok bool
			if d, ok = Lookup(factor); !ok {
				return nil, fmt.Errorf("%w: %d", ErrUnsupportedFactor, factor)
			}
		}
		s.filter = biquad.NewFilter(d)
	}

	return s, nil
}

// Factor returns the decimation factor.
func (s *Stage) Factor() int { return s.factor }

// ChunkLen returns the configured output chunk length (0 = any).
func (s *Stage) ChunkLen() int { return s.chunkLen }

// Filtered reports whether the stage filters before selecting samples.
func (s *Stage) Filtered() bool { return s.filter != nil }

// Design returns the stage's coefficients, or nil for selection-only stages.
func (s *Stage) Design() *biquad.Design {
	if s.filter == nil {
		return nil
	}
	return s.filter.Design()
}

// Pending returns the number of buffered input samples awaiting a full
// group of factor samples.
func (s *Stage) Pending() int { return len(s.carry) }

// Decimate filters raw (when enabled) and returns every factor-th sample,
// starting at index 0. raw must hold exactly ChunkLen()*Factor() samples,
// or any multiple of Factor() when ChunkLen() is 0.
func (s *Stage) Decimate(raw []float64) ([]float64, error) {
	if err := s.checkLength(len(raw)); err != nil {
		return nil, err
	}

	s.out = s.push(s.out[:0], raw)
	return s.out, nil
}

func (s *Stage) checkLength(n int) error {
	if s.chunkLen > 0 && n != s.chunkLen*s.factor {
		return fmt.Errorf("%w: got %d samples, want %d (%d x %d)",
			ErrChunkLength, n, s.chunkLen*s.factor, s.chunkLen, s.factor)
	}

	if n%s.factor != 0 {
		return fmt.Errorf("%w: %d samples is not a multiple of factor %d", ErrChunkLength, n, s.factor)
	}

	return nil
}

// push appends the decimated output for in to dst. Samples that do not
// complete a group of factor samples stay unfiltered in the carry buffer
// and are processed first on the next call.
func (s *Stage) push(dst, in []float64) []float64 {
	s.work = append(s.work[:0], s.carry...)
	s.work = append(s.work, in...)

	n := len(s.work) / s.factor * s.factor
	block := s.work[:n]

	if s.filter != nil {
		s.filter.Process(block)
	}

	for i := 0; i < n; i += s.factor {
		dst = append(dst, block[i])
	}

	s.carry = append(s.carry[:0], s.work[n:]...)
	return dst
}

// Reset zeroes the delay line and drops buffered input.
func (s *Stage) Reset() {
	if s.filter != nil {
		s.filter.Reset()
	}
	s.carry = s.carry[:0]
}

// Clone returns a deep copy of the stage's mutable state that shares the
// immutable coefficients.
func (s *Stage) Clone() Path {
	return s.clone()
}

func (s *Stage) clone() *Stage {
	c := &Stage{
		factor:   s.factor,
		chunkLen: s.chunkLen,
		work:     make([]float64, 0, cap(s.work)),
		carry:    append(make([]float64, 0, s.factor), s.carry...),
		out:      make([]float64, 0, cap(s.out)),
	}
	if s.filter != nil {
		c.filter = s.filter.Clone()
	}
	return c
}

// String describes the stage, e.g. "10x lowpass(order 2)" or "4x select".
func (s *Stage) String() string {
	if s.filter == nil {
		return fmt.Sprintf("%dx select", s.factor)
	}
	return fmt.Sprintf("%dx lowpass(order %d)", s.factor, s.filter.Order())
}
