// Package biquad provides the stateful IIR filter runtime used by the
// decimation stages.
//
// A [Design] is an immutable coefficient set: feedforward b[0..order],
// feedback a[1..order] and an output gain taken from the a[0] slot of the
// classic (b, a) pair. A [Filter] owns a delay line of order+1 accumulators
// and applies a Direct Form II recursion to a block of samples in place,
// carrying the delay line to the next call:
//
//	y      = b[0]*x + z[0]
//	z[j-1] = b[j]*x + z[j] - a[j]*y     for j in 1..order-1
//	z[o-1] = b[o]*x - a[o]*y
//	out    = gain * y
//
// Second-order designs run through a CPU-dispatched block kernel; other
// orders use the scalar recursion. Filters cloned from one another share
// their Design and never share delay lines.
package biquad
