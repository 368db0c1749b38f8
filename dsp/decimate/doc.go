// Package decimate provides integer-factor decimation for streaming
// acquisition data.
//
// A [Stage] pairs an optional anti-aliasing [biquad.Filter] with a fixed
// factor k and turns chunks of k*L samples into L samples, keeping phase-0
// samples (input indices 0, k, 2k, ...). Unfiltered stages perform the same
// selection without filtering, which is what discrete marker channels need.
//
// A [Chain] cascades stages for multi-rate conversion (for example 50x as
// 10x followed by 5x, or stages loaded from coefficient files with
// [ParseCascade]). It accepts input of any length and carries both filter
// state and not-yet-decimated samples between calls, so splitting the input
// across calls never changes the output.
//
// The built-in second-order coefficients are available through [Lookup]:
//
//	factor  source
//	2       Butterworth, cutoff fs/4
//	5       Butterworth, cutoff fs/10
//	10, 50  Butterworth, cutoff fs/20
//	20      Butterworth, cutoff fs/40
//	25      Butterworth, cutoff fs/50
package decimate
