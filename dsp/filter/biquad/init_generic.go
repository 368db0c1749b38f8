//go:build !amd64 || purego

package biquad

import (
	_ "github.com/cwbudde/algo-daq/dsp/filter/biquad/internal/arch/generic" // register generic kernel
)
