// Command decinfo prints anti-aliasing properties of decimation cascades.
//
// Usage:
//
//	decinfo [flags] [cascade ...]
//
// Each cascade uses the downsampling syntax of the acquisition
// configuration, e.g. "10:builtin;5:builtin". Without arguments it analyzes
// every built-in factor as a single stage.
//
// Examples:
//
//	decinfo
//	decinfo -rate 5000 "10:builtin;5:builtin" "50:builtin"
//	decinfo "2:~/coeffs/lp2.txt;25:builtin"
//	decinfo -list
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/cwbudde/algo-daq/dsp/decimate"
	"github.com/cwbudde/algo-daq/internal/config"
	"github.com/cwbudde/algo-daq/measure/alias"
)

func main() {
	rate := flag.Float64("rate", config.DefaultSampleRate, "raw sample rate in Hz")
	fftSize := flag.Int("fft", alias.DefaultFFTSize, "analysis FFT size (power of two)")
	list := flag.Bool("list", false, "print the built-in coefficient table")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: decinfo [flags] [cascade ...]\n\n")
		fmt.Fprintf(os.Stderr, "Prints the composite response of decimation cascades.\n")
		fmt.Fprintf(os.Stderr, "Without arguments, analyzes every built-in factor.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  decinfo \"10:builtin;5:builtin\" 50:builtin\n")
		fmt.Fprintf(os.Stderr, "  decinfo -rate 2500 -fft 16384 20:builtin\n")
		fmt.Fprintf(os.Stderr, "  decinfo -list\n")
	}
	flag.Parse()

	if *list {
		printTable()
		return
	}

	specs := flag.Args()
	if len(specs) == 0 {
		for _, k := range decimate.Factors() {
			specs = append(specs, strconv.Itoa(k)+":"+decimate.SourceBuiltin)
		}
	}

	var rows []row
	for _, spec := range specs {
		chain, err := decimate.ParseCascade(spec)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
			continue
		}

		r, err := alias.Analyze(chain, *rate, alias.WithFFTSize(*fftSize))
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		rows = append(rows, row{spec: spec, chain: chain, report: r})
	}

	if len(rows) == 0 {
		fmt.Fprintf(os.Stderr, "error: no valid cascades\n")
		os.Exit(1)
	}

	printAnalysis(rows)
}

type row struct {
	spec   string
	chain  *decimate.Chain
	report alias.Report
}

func printTable() {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Factor\tb\ta\n")
	fmt.Fprintf(tw, "------\t-\t-\n")
	for _, k := range decimate.Factors() {
		d, _ := decimate.Lookup(k)
		fmt.Fprintf(tw, "%d\t%.15f\t%.15f\n", k, d.B(), d.A())
	}
	if err := tw.Flush(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: failed to flush output: %v\n", err)
	}
}

func printAnalysis(rows []row) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(tw, "Cascade\tStages\tFactor\tOut [Hz]\tDC [dB]\t-3dB [Hz]\tNyquist [dB]\tWorst alias [dB]\tat [Hz]\n"); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: failed to write output header: %v\n", err)
		return
	}
	if _, err := fmt.Fprintf(tw, "-------\t------\t------\t--------\t-------\t---------\t------------\t----------------\t-------\n"); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: failed to write output header: %v\n", err)
		return
	}

	for _, r := range rows {
		a := r.report
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%d\t%.2f\t%.4f\t%.2f\t%.2f\t%.2f\t%.2f\n",
			r.spec,
			r.chain,
			a.Factor,
			a.OutputRate,
			a.DCGainDB,
			a.CornerHz,
			a.NyquistDB,
			a.WorstAliasDB,
			a.WorstAliasHz,
		); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "error: failed to write output row: %v\n", err)
			return
		}
	}
	if err := tw.Flush(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: failed to flush output: %v\n", err)
	}
}
