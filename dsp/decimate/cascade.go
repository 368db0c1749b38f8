package decimate

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mitchellh/go-homedir"

	"github.com/cwbudde/algo-daq/dsp/filter/biquad"
)

var (
	// ErrCascadeSyntax indicates a malformed cascade specification.
	ErrCascadeSyntax = errors.New("decimate: malformed cascade specification")
	// ErrCoefficientFile indicates an unreadable or malformed coefficient file.
	ErrCoefficientFile = errors.New("decimate: malformed coefficient file")
	// ErrUnstableDesign indicates loaded feedback coefficients with poles on
	// or outside the unit circle.
	ErrUnstableDesign = errors.New("decimate: unstable filter design")
)

// Special cascade sources.
const (
	SourceBuiltin = "builtin"
	SourceNone    = "none"
)

// Opener opens a coefficient source by path.
type Opener func(path string) (io.ReadCloser, error)

type cascadeConfig struct {
	open Opener
}

// CascadeOption configures ParseCascade.
type CascadeOption func(*cascadeConfig)

// WithOpener replaces the file opener used for coefficient paths.
func WithOpener(open Opener) CascadeOption {
	return func(cfg *cascadeConfig) {
		if open != nil {
			cfg.open = open
		}
	}
}

func openFile(path string) (io.ReadCloser, error) {
	p, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}
	return os.Open(p)
}

// ParseCascade builds a Chain from a specification of the form
//
//	factor:source;factor:source;...
//
// listing stages in processing order. source is a coefficient file path
// (see [LoadDesign]; a leading ~ is expanded), "builtin" or empty for the
// built-in design of the factor, or "none" for a selection-only stage.
func ParseCascade(spec string, opts ...CascadeOption) (*Chain, error) {
	cfg := cascadeConfig{open: openFile}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, ErrEmptyChain
	}

	parts := strings.Split(spec, ";")
	stages := make([]*Stage, 0, len(parts))

	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		s, err := parseSegment(part, cfg)
		if err != nil {
			return nil, fmt.Errorf("decimate: cascade segment %d %q: %w", i, part, err)
		}
		stages = append(stages, s)
	}

	return NewChain(stages...)
}

func parseSegment(seg string, cfg cascadeConfig) (*Stage, error) {
	factorStr, source, ok := strings.Cut(seg, ":")
	if !ok {
		return nil, fmt.Errorf("%w: no ':' found", ErrCascadeSyntax)
	}

	factor, err := strconv.Atoi(strings.TrimSpace(factorStr))
	if err != nil {
		return nil, fmt.Errorf("%w: factor %q", ErrCascadeSyntax, factorStr)
	}

	switch source = strings.TrimSpace(source); source {
	case "", SourceBuiltin:
		return NewStage(factor, 0)
	case SourceNone:
		return NewStage(factor, 0, WithoutFilter())
	}

	if factor < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFactor, factor)
	}

	rc, err := cfg.open(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCoefficientFile, err)
	}
	defer rc.Close()

	d, err := LoadDesign(rc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}

	return NewStage(factor, 0, WithDesign(d))
}

// LoadDesignFile reads a coefficient file, expanding a leading ~.
func LoadDesignFile(path string) (*biquad.Design, error) {
	rc, err := openFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCoefficientFile, err)
	}
	defer rc.Close()

	return LoadDesign(rc)
}

// LoadDesign parses filter coefficients. The first non-empty line holds the
// feedforward coefficients b; an optional second line holds the feedback
// coefficients a, including a[0]. With a single line the filter is FIR and
// a is [1, 0, ...]. Values are separated by whitespace or commas and '#'
// starts a comment.
//
// Designs with unstable feedback are rejected with ErrUnstableDesign.
func LoadDesign(r io.Reader) (*biquad.Design, error) {
	var rows [][]float64

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}

		fields := strings.FieldsFunc(line, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == '\r'
		})
		if len(fields) == 0 {
			continue
		}

		if len(rows) == 2 {
			return nil, fmt.Errorf("%w: line %d: more than two coefficient rows", ErrCoefficientFile, lineNo)
		}

		row := make([]float64, len(fields))
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %q is not a number", ErrCoefficientFile, lineNo, f)
			}
			row[i] = v
		}
		rows = append(rows, row)
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCoefficientFile, err)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no coefficients", ErrCoefficientFile)
	}

	b := rows[0]
	var a []float64
	if len(rows) == 2 {
		a = rows[1]
	} else {
		if len(b) == 1 {
			b = append(b, 0)
		}
		a = make([]float64, len(b))
		a[0] = 1
	}

	d, err := biquad.NewDesign(b, a)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCoefficientFile, err)
	}

	if !d.Stable() {
		return nil, fmt.Errorf("%w: %s", ErrUnstableDesign, d)
	}

	return d, nil
}
