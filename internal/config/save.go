package config

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/ini.v1"
)

func (c Config) file() *ini.File {
	f := ini.Empty(loadOptions)

	boolStr := strconv.FormatBool
	itoa := strconv.Itoa
	b2i := func(b bool) string {
		if b {
			return "1"
		}
		return "0"
	}

	settings := f.Section("settings")
	for _, kv := range [][2]string{
		{"devicenumber", itoa(c.DeviceNumber)},
		{"channelOffset", itoa(c.ChannelOffset)},
		{"channelcount", itoa(c.ChannelCount)},
		{"impedancemode", b2i(c.LowImpedance)},
		{"resolution", itoa(int(c.Resolution))},
		{"dccoupling", b2i(c.DCCoupling)},
		{"chunksize", itoa(c.ChunkSize)},
		{"usepolybox", boolStr(c.UsePolyBox)},
		{"sendrawstream", boolStr(c.SendRawStream)},
		{"unsampledmarkers", boolStr(c.UnsampledMarkers)},
		{"sampledmarkers", boolStr(c.SampledMarkers)},
		{"sampledmarkersEEG", boolStr(c.MarkerChannel)},
		{"downsampling", c.Downsampling},
		{"pulluplow", boolStr(c.PullUpLow)},
		{"pulluphigh", boolStr(c.PullUpHigh)},
	} {
		settings.Key(kv[0]).SetValue(kv[1])
	}

	f.Section("channels").Key("labels").SetValue(strings.Join(c.Labels, ", "))

	acq := f.Section("acquisition")
	for _, kv := range [][2]string{
		{"streamprefix", c.StreamPrefix},
		{"source", c.Source},
		{"samplerate", strconv.FormatFloat(c.SampleRate, 'f', -1, 64)},
		{"realtime", boolStr(c.Realtime)},
		{"record", c.Record},
		{"markerlog", c.MarkerLog},
		{"sampledmarkerlog", c.SampledMarkerLog},
		{"parallel", boolStr(c.Parallel)},
	} {
		acq.Key(kv[0]).SetValue(kv[1])
	}

	f.Section("log").Key("level").SetValue(c.LogLevel)

	return f
}

// WriteTo writes c in INI format.
func (c Config) WriteTo(w io.Writer) (int64, error) {
	return c.file().WriteTo(w)
}

// Save writes c to path; a leading ~ is expanded.
func (c Config) Save(path string) error {
	p, err := homedir.Expand(path)
	if err != nil {
		return err
	}

	if err := c.file().SaveTo(p); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
