// Package config loads and saves acquisition settings from INI files.
//
// The [settings] and [channels] keys match the files written by the
// amplifier connector's configuration dialog, so existing .cfg files load
// unchanged. Keys under [acquisition] and [log] configure the parts that
// have no counterpart there: the raw source, recording and logging.
package config

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/ini.v1"

	"github.com/cwbudde/algo-daq/dsp/decimate"
	"github.com/cwbudde/algo-daq/dsp/reformat"
)

var (
	// ErrInvalidValue indicates a key whose value cannot be parsed.
	ErrInvalidValue = errors.New("config: invalid value")
	// ErrInvalid indicates settings that parse but cannot be used together.
	ErrInvalid = errors.New("config: invalid settings")
)

// SourceSynth selects the built-in synthetic source.
const SourceSynth = "synth"

// DefaultSampleRate is the amplifier's raw sample rate in Hz.
const DefaultSampleRate = 5000

// Cascade specifications contain ';', so inline comments are not stripped.
var loadOptions = ini.LoadOptions{IgnoreInlineComment: true}

// Config holds all acquisition settings.
type Config struct {
	DeviceNumber     int
	ChannelOffset    int
	ChannelCount     int
	LowImpedance     bool
	Resolution       reformat.Resolution
	DCCoupling       bool
	ChunkSize        int
	UsePolyBox       bool
	SendRawStream    bool
	UnsampledMarkers bool
	SampledMarkers   bool
	MarkerChannel    bool
	Downsampling     string
	PullUpLow        bool
	PullUpHigh       bool
	Labels           []string

	StreamPrefix     string
	Source           string
	SampleRate       float64
	Realtime         bool
	Record           string
	MarkerLog        string
	SampledMarkerLog string
	Parallel         bool

	LogLevel string
}

// Default returns the settings used for keys missing from a file.
func Default() Config {
	return Config{
		DeviceNumber:   1,
		ChannelCount:   32,
		ChunkSize:      32,
		SampledMarkers: true,
		StreamPrefix:   "BrainAmpSeries",
		Source:         SourceSynth,
		SampleRate:     DefaultSampleRate,
		Realtime:       true,
		LogLevel:       "info",
	}
}

// Load reads path (a leading ~ is expanded) on top of Default.
func Load(path string) (Config, error) {
	p, err := homedir.Expand(path)
	if err != nil {
		return Config{}, err
	}

	f, err := ini.LoadSources(loadOptions, p)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	return fromFile(f)
}

// Parse reads INI data from r on top of Default.
func Parse(r io.Reader) (Config, error) {
	f, err := ini.LoadSources(loadOptions, r)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	return fromFile(f)
}

func fromFile(f *ini.File) (Config, error) {
	c := Default()
	settings := f.Section("settings")
	acq := f.Section("acquisition")

	p := parser{}
	c.DeviceNumber = p.intKey(settings, "devicenumber", c.DeviceNumber)
	c.ChannelOffset = p.intKey(settings, "channelOffset", c.ChannelOffset)
	c.ChannelCount = p.intKey(settings, "channelcount", c.ChannelCount)
	c.LowImpedance = p.intKey(settings, "impedancemode", 0) == 1
	c.Resolution = reformat.Resolution(p.intKey(settings, "resolution", int(c.Resolution)))
	c.DCCoupling = p.intKey(settings, "dccoupling", 0) != 0
	c.ChunkSize = p.intKey(settings, "chunksize", c.ChunkSize)
	c.UsePolyBox = p.boolKey(settings, "usepolybox", c.UsePolyBox)
	c.SendRawStream = p.boolKey(settings, "sendrawstream", c.SendRawStream)
	c.UnsampledMarkers = p.boolKey(settings, "unsampledmarkers", c.UnsampledMarkers)
	c.SampledMarkers = p.boolKey(settings, "sampledmarkers", c.SampledMarkers)
	c.MarkerChannel = p.boolKey(settings, "sampledmarkersEEG", c.MarkerChannel)
	c.Downsampling = strings.TrimSpace(settings.Key("downsampling").MustString(c.Downsampling))
	c.PullUpLow = p.boolKey(settings, "pulluplow", c.PullUpLow)
	c.PullUpHigh = p.boolKey(settings, "pulluphigh", c.PullUpHigh)

	if labels := f.Section("channels").Key("labels").Strings(","); len(labels) > 0 {
		c.Labels = labels
	}

	c.StreamPrefix = acq.Key("streamprefix").MustString(c.StreamPrefix)
	c.Source = acq.Key("source").MustString(c.Source)
	c.SampleRate = p.floatKey(acq, "samplerate", c.SampleRate)
	c.Realtime = p.boolKey(acq, "realtime", c.Realtime)
	c.Record = acq.Key("record").MustString(c.Record)
	c.MarkerLog = acq.Key("markerlog").MustString(c.MarkerLog)
	c.SampledMarkerLog = acq.Key("sampledmarkerlog").MustString(c.SampledMarkerLog)
	c.Parallel = p.boolKey(acq, "parallel", c.Parallel)

	c.LogLevel = f.Section("log").Key("level").MustString(c.LogLevel)

	if p.err != nil {
		return Config{}, p.err
	}

	return c, nil
}

// parser keeps the first conversion error.
type parser struct {
	err error
}

func (p *parser) fail(sec *ini.Section, name string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("%w: %s/%s: %w", ErrInvalidValue, sec.Name(), name, err)
	}
}

func (p *parser) intKey(sec *ini.Section, name string, def int) int {
	if !sec.HasKey(name) {
		return def
	}
	v, err := sec.Key(name).Int()
	if err != nil {
		p.fail(sec, name, err)
		return def
	}
	return v
}

func (p *parser) boolKey(sec *ini.Section, name string, def bool) bool {
	if !sec.HasKey(name) {
		return def
	}
	v, err := sec.Key(name).Bool()
	if err != nil {
		p.fail(sec, name, err)
		return def
	}
	return v
}

func (p *parser) floatKey(sec *ini.Section, name string, def float64) float64 {
	if !sec.HasKey(name) {
		return def
	}
	v, err := sec.Key(name).Float64()
	if err != nil {
		p.fail(sec, name, err)
		return def
	}
	return v
}

// Validate checks settings that must hold before a session starts.
func (c Config) Validate() error {
	switch {
	case c.ChannelCount < 1:
		return fmt.Errorf("%w: channel count %d", ErrInvalid, c.ChannelCount)
	case c.ChunkSize < 1:
		return fmt.Errorf("%w: chunk size %d", ErrInvalid, c.ChunkSize)
	case !c.Resolution.Valid():
		return fmt.Errorf("%w: resolution index %d", ErrInvalid, int(c.Resolution))
	case !(c.SampleRate > 0):
		return fmt.Errorf("%w: sample rate %v", ErrInvalid, c.SampleRate)
	case len(c.Labels) > 0 && len(c.Labels) != c.ChannelCount:
		return fmt.Errorf("%w: %d channel labels for %d channels", ErrInvalid, len(c.Labels), c.ChannelCount)
	}
	return nil
}

// PullMask returns the marker XOR mask for the configured pull-up wiring.
func (c Config) PullMask() uint16 {
	var m uint16
	if c.PullUpLow {
		m |= 0x00ff
	}
	if c.PullUpHigh {
		m |= 0xff00
	}
	return m
}

// StreamName returns the output stream name, e.g. "BrainAmpSeries-1".
func (c Config) StreamName() string {
	return c.StreamPrefix + "-" + strconv.Itoa(c.DeviceNumber)
}

// Path builds the per-channel decimation path from Downsampling. An empty
// setting yields a pass-through stage.
func (c Config) Path(opts ...decimate.CascadeOption) (decimate.Path, error) {
	if c.Downsampling == "" {
		return decimate.NewStage(1, c.ChunkSize, decimate.WithoutFilter())
	}

	chain, err := decimate.ParseCascade(c.Downsampling, opts...)
	if err != nil {
		return nil, fmt.Errorf("config: downsampling: %w", err)
	}
	return chain, nil
}

// Bank builds the channel bank for the configured channels.
func (c Config) Bank(opts ...decimate.CascadeOption) (*reformat.Bank, error) {
	path, err := c.Path(opts...)
	if err != nil {
		return nil, err
	}
	return reformat.NewBank(c.ChannelCount, path, reformat.WithParallel(c.Parallel))
}

// Reformat returns the reformatter settings for a path with the given
// composite decimation factor.
func (c Config) Reformat(factor int) reformat.Config {
	dc := "AC"
	if c.DCCoupling {
		dc = "DC"
	}

	return reformat.Config{
		Name:           c.StreamName(),
		Labels:         c.Labels,
		ChunkLen:       c.ChunkSize,
		OutputRate:     c.SampleRate / float64(factor),
		PullMask:       c.PullMask(),
		Resolution:     c.Resolution,
		MarkerChannel:  c.MarkerChannel,
		SampledMarkers: c.SampledMarkers,
		Meta: map[string]string{
			"low_impedance_mode": strconv.FormatBool(c.LowImpedance),
			"dc_coupling":        dc,
			"channel_offset":     strconv.Itoa(c.ChannelOffset),
			"device_number":      strconv.Itoa(c.DeviceNumber),
		},
	}
}
