package alias

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/cwbudde/algo-fft"
	vecmath "github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-daq/dsp/decimate"
	"github.com/cwbudde/algo-daq/dsp/filter/biquad"
)

// DefaultFFTSize is the number of frequency bins used by Analyze.
const DefaultFFTSize = 8192

var (
	ErrInvalidSampleRate = errors.New("alias: sample rate must be positive")
	ErrInvalidFFTSize    = errors.New("alias: FFT size must be a power of two >= 16")
	ErrUnsupportedPath   = errors.New("alias: unsupported decimation path")
)

// Report holds the composite response of a decimation path.
type Report struct {
	Factor     int
	InputRate  float64
	OutputRate float64
	NyquistHz  float64 // output Nyquist frequency

	DCGainDB     float64
	CornerHz     float64 // first -3 dB point relative to DC; InputRate/2 if none
	NyquistDB    float64 // level at NyquistHz
	WorstAliasDB float64 // highest level above NyquistHz
	WorstAliasHz float64

	BinHz     float64
	Magnitude []float64 // linear magnitude, bins 0..FFTSize/2
}

// Option configures Analyze.
type Option func(*config)

type config struct {
	fftSize int
}

// WithFFTSize sets the analysis resolution.
func WithFFTSize(n int) Option {
	return func(c *config) {
		c.fftSize = n
	}
}

// Analyze computes the composite magnitude response of p at inputRate.
// p must be a *decimate.Stage or a *decimate.Chain.
func Analyze(p decimate.Path, inputRate float64, opts ...Option) (Report, error) {
	cfg := config{fftSize: DefaultFFTSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	n := cfg.fftSize
	if n < 16 || n&(n-1) != 0 {
		return Report{}, fmt.Errorf("%w: %d", ErrInvalidFFTSize, n)
	}

	if !(inputRate > 0) {
		return Report{}, ErrInvalidSampleRate
	}

	var stages []*decimate.Stage
	switch v := p.(type) {
	case *decimate.Stage:
		stages = []*decimate.Stage{v}
	case *decimate.Chain:
		for i := range v.Len() {
			stages = append(stages, v.Stage(i))
		}
	default:
		return Report{}, fmt.Errorf("%w: %T", ErrUnsupportedPath, p)
	}

	plan, err := algofft.NewPlan64(n)
	if err != nil {
		return Report{}, err
	}

	total := make([]float64, n)
	for i := range total {
		total[i] = 1
	}

	m := 1
	for _, s := range stages {
		if d := s.Design(); d != nil {
			mag, err := stageMagnitude(plan, d, n)
			if err != nil {
				return Report{}, err
			}
			for b := range total {
				total[b] *= mag[(b*m)%n]
			}
		}
		m *= s.Factor()
	}

	half := total[:n/2+1]
	r := Report{
		Factor:     p.Factor(),
		InputRate:  inputRate,
		OutputRate: inputRate / float64(p.Factor()),
		BinHz:      inputRate / float64(n),
		Magnitude:  append([]float64(nil), half...),
	}
	r.NyquistHz = r.OutputRate / 2
	r.summarize()

	return r, nil
}

// stageMagnitude returns |H| on n bins of the stage's own rate.
func stageMagnitude(plan *algofft.Plan[complex128], d *biquad.Design, n int) ([]float64, error) {
	ir := biquad.NewFilter(d).ImpulseResponse(n)

	in := make([]complex128, n)
	for i, v := range ir {
		in[i] = complex(v, 0)
	}

	spec := make([]complex128, n)
	if err := plan.Forward(spec, in); err != nil {
		return nil, err
	}

	re := make([]float64, n)
	im := make([]float64, n)
	for i, c := range spec {
		re[i], im[i] = real(c), imag(c)
	}

	mag := make([]float64, n)
	vecmath.Magnitude(mag, re, im)
	return mag, nil
}

func (r *Report) summarize() {
	db := make([]float64, len(r.Magnitude))
	for i, v := range r.Magnitude {
		db[i] = toDB(v)
	}

	r.DCGainDB = db[0]
	r.NyquistDB = r.ResponseDB(r.NyquistHz)

	r.CornerHz = r.InputRate / 2
	ref := db[0] - 3
	for i := 1; i < len(db); i++ {
		if db[i] < ref {
			frac := (db[i-1] - ref) / (db[i-1] - db[i])
			r.CornerHz = (float64(i-1) + frac) * r.BinHz
			break
		}
	}

	// First bin strictly above the output Nyquist frequency.
	first := int(math.Floor(r.NyquistHz/r.BinHz)) + 1
	if first >= len(db) {
		r.WorstAliasDB = math.Inf(-1)
		r.WorstAliasHz = r.InputRate / 2
		return
	}

	i := floats.MaxIdx(db[first:]) + first
	r.WorstAliasDB = db[i]
	r.WorstAliasHz = float64(i) * r.BinHz
}

// ResponseDB returns the composite response in dB at f, interpolated
// linearly in dB between bins.
func (r Report) ResponseDB(f float64) float64 {
	pos := f / r.BinHz
	i := int(pos)
	if i >= len(r.Magnitude)-1 {
		return toDB(r.Magnitude[len(r.Magnitude)-1])
	}
	lo, hi := toDB(r.Magnitude[i]), toDB(r.Magnitude[i+1])
	return lo + (pos-float64(i))*(hi-lo)
}

func toDB(v float64) float64 {
	return 20 * math.Log10(v)
}
