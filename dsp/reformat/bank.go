package reformat

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cwbudde/algo-daq/dsp/decimate"
)

var (
	// ErrChannelCount indicates a bank or reformatter without signal channels.
	ErrChannelCount = errors.New("reformat: channel count must be >= 1")
	// ErrNilPath indicates a missing template path.
	ErrNilPath = errors.New("reformat: template path is nil")
)

type bankConfig struct {
	parallel bool
}

// BankOption configures a Bank.
type BankOption func(*bankConfig)

// WithParallel decimates signal channels concurrently. Channel states are
// independent, so the output is identical to sequential processing.
func WithParallel(enabled bool) BankOption {
	return func(cfg *bankConfig) {
		cfg.parallel = enabled
	}
}

// Bank holds one decimation path per signal channel plus a selection-only
// path for the marker channel. All paths share the same factor.
type Bank struct {
	signal   []decimate.Path
	marker   *decimate.Stage
	parallel bool

	outs [][]float64
	errs []error
}

// NewBank clones template once per signal channel. The marker path selects
// every Factor()-th sample without filtering. template itself is not used
// after NewBank returns.
func NewBank(channelCount int, template decimate.Path, opts ...BankOption) (*Bank, error) {
	if channelCount < 1 {
		return nil, fmt.Errorf("%w: %d", ErrChannelCount, channelCount)
	}

	if template == nil {
		return nil, ErrNilPath
	}

	var cfg bankConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	marker, err := decimate.NewStage(template.Factor(), 0, decimate.WithoutFilter())
	if err != nil {
		return nil, err
	}

	b := &Bank{
		signal:   make([]decimate.Path, channelCount),
		marker:   marker,
		parallel: cfg.parallel,
		outs:     make([][]float64, channelCount),
		errs:     make([]error, channelCount),
	}
	for i := range b.signal {
		b.signal[i] = template.Clone()
	}

	return b, nil
}

// NewFactorBank builds a bank of single-stage paths for factor using the
// built-in coefficient table. Factor 1 needs no anti-aliasing and yields
// pass-through paths.
func NewFactorBank(channelCount, chunkLen, factor int, opts ...BankOption) (*Bank, error) {
	var stageOpts []decimate.StageOption
	if factor == 1 {
		stageOpts = append(stageOpts, decimate.WithoutFilter())
	}

	template, err := decimate.NewStage(factor, chunkLen, stageOpts...)
	if err != nil {
		return nil, err
	}

	return NewBank(channelCount, template, opts...)
}

// Channels returns the number of signal channels.
func (b *Bank) Channels() int { return len(b.signal) }

// Factor returns the decimation factor shared by all paths.
func (b *Bank) Factor() int { return b.marker.Factor() }

// ChunkLen returns the fixed output chunk length of the signal paths, or 0
// when they accept any multiple of Factor().
func (b *Bank) ChunkLen() int { return b.signal[0].ChunkLen() }

// Path returns the decimation path of signal channel i.
func (b *Bank) Path(i int) decimate.Path { return b.signal[i] }

// Decimate runs signal[i] through channel i's path and marker through the
// marker path. The returned slices are owned by the paths.
func (b *Bank) Decimate(signal [][]float64, marker []float64) ([][]float64, []float64, error) {
	if len(signal) != len(b.signal) {
		return nil, nil, fmt.Errorf("%w: got %d signal channels, want %d", ErrChannelCount, len(signal), len(b.signal))
	}

	if b.parallel && len(b.signal) > 1 {
		var wg sync.WaitGroup
		for i := range b.signal {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				b.outs[i], b.errs[i] = b.signal[i].Decimate(signal[i])
			}(i)
		}
		wg.Wait()
	} else {
		for i := range b.signal {
			b.outs[i], b.errs[i] = b.signal[i].Decimate(signal[i])
		}
	}

	for i, err := range b.errs {
		if err != nil {
			return nil, nil, fmt.Errorf("reformat: channel %d: %w", i, err)
		}
	}

	m, err := b.marker.Decimate(marker)
	if err != nil {
		return nil, nil, fmt.Errorf("reformat: marker channel: %w", err)
	}

	return b.outs, m, nil
}

// Reset clears the state of every path.
func (b *Bank) Reset() {
	for _, p := range b.signal {
		p.Reset()
	}
	b.marker.Reset()
}
