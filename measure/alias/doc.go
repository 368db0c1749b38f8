// Package alias measures the anti-aliasing performance of decimation paths.
//
// The composite response of a multi-rate cascade is evaluated on the input
// rate's frequency grid: a stage that runs after an accumulated factor m
// contributes its own response at m times the input frequency. Components
// above the output Nyquist frequency fold back into the output band after
// decimation, so the level of the response above that frequency is the
// level at which they alias.
package alias
