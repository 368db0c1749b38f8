package decimate

import (
	"sort"

	"github.com/cwbudde/algo-daq/dsp/filter/biquad"
)

// Second-order lowpass designs with the cutoff at the output Nyquist
// frequency of their factor. Factor 50 reuses the factor-10 design.
var (
	lowpass2 = biquad.MustDesign(
		[]float64{0.292893218813452, 0.585786437626905, 0.292893218813452},
		[]float64{1.0, -0.0, 0.171572875253810},
	)
	lowpass5 = biquad.MustDesign(
		[]float64{0.067455273889072, 0.134910547778144, 0.067455273889072},
		[]float64{1.0, -1.142980502539901, 0.412801598096189},
	)
	lowpass10 = biquad.MustDesign(
		[]float64{0.020083365564211, 0.040166731128423, 0.020083365564211},
		[]float64{1.0, -1.561018075800718, 0.641351538057563},
	)
	lowpass20 = biquad.MustDesign(
		[]float64{0.005542717210281, 0.011085434420561, 0.005542717210281},
		[]float64{1.0, -1.778631777824585, 0.800802646665708},
	)
	lowpass25 = biquad.MustDesign(
		[]float64{0.003621681514929, 0.007243363029857, 0.003621681514929},
		[]float64{1.0, -1.822694925196308, 0.837181651256023},
	)
)

var table = map[int]*biquad.Design{
	2:  lowpass2,
	5:  lowpass5,
	10: lowpass10,
	20: lowpass20,
	25: lowpass25,
	50: lowpass10,
}

// Lookup returns the built-in design for factor. The returned Design is
// shared and immutable.
func Lookup(factor int) (*biquad.Design, bool) {
	d, ok := table[factor]
	return d, ok
}

// Factors returns the tabulated decimation factors in ascending order.
func Factors() []int {
	out := make([]int, 0, len(table))
	for k := range table {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
