package reformat

import (
	"errors"
	"testing"

	"github.com/cwbudde/algo-daq/dsp/decimate"
	"github.com/cwbudde/algo-daq/internal/testutil"
)

func TestNewBankValidation(t *testing.T) {
	s, _ := decimate.NewStage(2, 4)

	if _, err := NewBank(0, s); !errors.Is(err, ErrChannelCount) {
		t.Fatalf("NewBank(0) error = %v", err)
	}
	if _, err := NewBank(2, nil); !errors.Is(err, ErrNilPath) {
		t.Fatalf("NewBank(nil) error = %v", err)
	}
	if _, err := NewFactorBank(2, 4, 3); !errors.Is(err, decimate.ErrUnsupportedFactor) {
		t.Fatalf("NewFactorBank(factor 3) error = %v", err)
	}
}

func TestBankPathsAreIndependentClones(t *testing.T) {
	tmpl, err := decimate.ParseCascade("10:builtin;5:builtin")
	if err != nil {
		t.Fatalf("ParseCascade() error = %v", err)
	}

	b, err := NewBank(3, tmpl)
	if err != nil {
		t.Fatalf("NewBank() error = %v", err)
	}
	if b.Factor() != 50 || b.Channels() != 3 {
		t.Fatalf("bank = %d channels, factor %d", b.Channels(), b.Factor())
	}
	if b.Path(0) == b.Path(1) || b.Path(0) == decimate.Path(tmpl) {
		t.Fatal("bank paths alias each other or the template")
	}

	n := 50 * 8
	in := [][]float64{
		testutil.DeterministicNoise(1, 100, n),
		testutil.DeterministicSine(20, 5000, 100, n),
		make([]float64, n),
	}
	marker := testutil.Ramp(0, n)

	out, m, err := b.Decimate(in, marker)
	if err != nil {
		t.Fatalf("Decimate() error = %v", err)
	}

	for c := range in {
		ref, _ := decimate.ParseCascade("10:builtin;5:builtin")
		want, _ := ref.Decimate(in[c])
		testutil.RequireExact(t, out[c], want)
	}

	for i, v := range m {
		if v != float64(i*50) {
			t.Fatalf("marker[%d] = %v, want %d", i, v, i*50)
		}
	}
}

func TestBankDecimateChannelMismatch(t *testing.T) {
	b, _ := NewFactorBank(2, 4, 2)
	if _, _, err := b.Decimate([][]float64{make([]float64, 8)}, make([]float64, 8)); !errors.Is(err, ErrChannelCount) {
		t.Fatalf("Decimate() error = %v", err)
	}

	_, _, err := b.Decimate([][]float64{make([]float64, 8), make([]float64, 6)}, make([]float64, 8))
	if !errors.Is(err, decimate.ErrChunkLength) {
		t.Fatalf("Decimate(short channel) error = %v", err)
	}
}
