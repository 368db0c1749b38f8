package biquad_test

import (
	"fmt"

	"github.com/cwbudde/algo-daq/dsp/filter/biquad"
)

func ExampleFilter_ProcessSample() {
	d := biquad.MustDesign(
		[]float64{0.25, 0.5, 0.25},
		[]float64{1, -0.2, 0.04},
	)
	f := biquad.NewFilter(d)

	// Process an impulse.
	for i := range 6 {
		var x float64
		if i == 0 {
			x = 1
		}

		y := f.ProcessSample(x)
		fmt.Printf("y[%d] = %.6f\n", i, y)
	}
	// Output:
	// y[0] = 0.250000
	// y[1] = 0.550000
	// y[2] = 0.350000
	// y[3] = 0.048000
	// y[4] = -0.004400
	// y[5] = -0.002800
}

func ExampleFilter_Process() {
	d := biquad.MustDesign(
		[]float64{0.25, 0.5, 0.25},
		[]float64{2, -0.2, 0.04}, // a[0] = 2 doubles the output
	)
	f := biquad.NewFilter(d)

	buf := []float64{1, 0, 0, 0}
	f.Process(buf)
	fmt.Printf("%.3f\n", buf)
	// Output:
	// [0.500 1.100 0.700 0.096]
}
