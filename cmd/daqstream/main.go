// Command daqstream reads raw multi-channel acquisition data, decimates and
// reformats it, and streams the result to the log and an optional WAV
// recording.
//
// Usage:
//
//	daqstream [flags]
//
// Settings come from an INI file (see internal/config). Without -config,
// daqstream.cfg is looked up in the working directory, the user
// configuration directory and the executable's directory; if none exists
// the defaults are used.
//
// Examples:
//
//	daqstream -config ~/eeg.cfg
//	daqstream -source recording.wav -record out.wav
//	daqstream -chunks 100 -log debug
//	daqstream -save ~/eeg.cfg
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mitchellh/go-homedir"

	"github.com/cwbudde/algo-daq/acquire"
	"github.com/cwbudde/algo-daq/acquire/synth"
	"github.com/cwbudde/algo-daq/acquire/wavfile"
	"github.com/cwbudde/algo-daq/dsp/reformat"
	"github.com/cwbudde/algo-daq/internal/config"
)

const defaultConfigName = "daqstream.cfg"

func main() {
	cfgPath := flag.String("config", "", "configuration file")
	source := flag.String("source", "", "override the raw source: \"synth\" or a WAV file")
	record := flag.String("record", "", "override the WAV recording path")
	chunks := flag.Uint64("chunks", 0, "stop after n output chunks (0 = unlimited)")
	level := flag.String("log", "", "override the log level (debug, info, warn, error)")
	save := flag.String("save", "", "write the effective configuration to a file and exit")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: daqstream [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Decimates and reformats raw acquisition data.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, found, err := loadConfig(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *source != "" {
		cfg.Source = *source
	}
	if *record != "" {
		cfg.Record = *record
	}
	if *level != "" {
		cfg.LogLevel = *level
	}

	if *save != "" {
		if err := cfg.Save(*save); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	logger, err := NewLogger(os.Stderr, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if found == "" {
		logger.Info("no configuration file, using defaults")
	} else {
		logger.Info("configuration loaded", "path", found)
	}

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.SendRawStream {
		err = run[int16](ctx, cfg, logger, *chunks)
	} else {
		err = run[float32](ctx, cfg, logger, *chunks)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("acquisition failed", "err", err)
		os.Exit(1)
	}
}

// loadConfig returns the settings and the path they were read from, or
// the defaults and "" when no file exists.
func loadConfig(explicit string) (config.Config, string, error) {
	path, err := config.Find(explicit, defaultConfigName)
	if errors.Is(err, config.ErrNotFound) {
		return config.Default(), "", nil
	}
	if err != nil {
		return config.Config{}, "", err
	}

	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, "", err
	}
	return cfg, path, nil
}

func run[T reformat.Sample](ctx context.Context, cfg config.Config, logger *slog.Logger, maxChunks uint64) error {
	bank, err := cfg.Bank()
	if err != nil {
		return err
	}

	rf, err := reformat.NewReformatter[T](cfg.Reformat(bank.Factor()), bank)
	if err != nil {
		return err
	}

	logger.Info("decimation", "path", bank.Path(0), "factor", bank.Factor())

	src, closeSrc, err := openSource(cfg, logger)
	if err != nil {
		return err
	}
	defer closeSrc()

	sinks := acquire.MultiSink[T]{acquire.NewLogSink[T](logger)}
	if cfg.Record != "" {
		var opts []wavfile.SinkOption
		for _, l := range []struct {
			path string
			opt  func(io.Writer) wavfile.SinkOption
		}{
			{cfg.MarkerLog, wavfile.WithMarkerLog},
			{cfg.SampledMarkerLog, wavfile.WithSampledMarkerLog},
		} {
			if l.path == "" {
				continue
			}
			f, err := createExpanded(l.path)
			if err != nil {
				return err
			}
			defer f.Close()
			opts = append(opts, l.opt(f))
		}

		w, err := wavfile.Create[T](cfg.Record, opts...)
		if err != nil {
			return err
		}
		sinks = append(sinks, w)
		logger.Info("recording", "path", cfg.Record, "markers", cfg.MarkerLog, "sampled", cfg.SampledMarkerLog)
	}
	defer func() {
		if err := sinks.Close(); err != nil {
			logger.Error("close sinks", "err", err)
		}
	}()

	session, err := acquire.NewSession[T](src, rf, sinks,
		acquire.WithLogger(logger),
		acquire.WithMaxChunks(maxChunks),
		acquire.WithMarkerEvents(cfg.UnsampledMarkers),
	)
	if err != nil {
		return err
	}

	err = session.Run(ctx)
	st := session.Stats()
	logger.Info("session finished", "chunks", st.Chunks, "markers", st.Markers)
	return err
}

func createExpanded(path string) (*os.File, error) {
	p, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}
	return os.Create(p)
}

func openSource(cfg config.Config, logger *slog.Logger) (acquire.Source, func(), error) {
	if cfg.Source == config.SourceSynth {
		s, err := synth.New(cfg.ChannelCount,
			synth.WithRate(cfg.SampleRate),
			synth.WithRealtime(cfg.Realtime),
		)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	}

	s, err := wavfile.Open(cfg.Source)
	if err != nil {
		return nil, nil, err
	}

	if s.Channels() != cfg.ChannelCount {
		_ = s.Close()
		return nil, nil, fmt.Errorf("%s: %d channels, configured %d", cfg.Source, s.Channels(), cfg.ChannelCount)
	}
	if s.Rate() != cfg.SampleRate {
		logger.Warn("source rate differs from configuration", "source", s.Rate(), "configured", cfg.SampleRate)
	}

	return s, func() { _ = s.Close() }, nil
}
