package reformat

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/cwbudde/algo-vecmath"
)

var (
	// ErrChunkLength indicates a raw chunk of the wrong size.
	ErrChunkLength = errors.New("reformat: raw chunk length mismatch")
	// ErrChunkFrames indicates a non-positive output chunk length.
	ErrChunkFrames = errors.New("reformat: chunk length must be >= 1")
	// ErrSampleRate indicates a non-positive output sample rate.
	ErrSampleRate = errors.New("reformat: output sample rate must be > 0")
	// ErrChunkContract indicates bank paths built for a different chunk
	// length than the reformatter's.
	ErrChunkContract = errors.New("reformat: bank chunk length does not match chunk length")
	// ErrLabelCount indicates channel labels that do not match the channel count.
	ErrLabelCount = errors.New("reformat: label count does not match channel count")
)

// MarkerChannelLabel is the label of the synthetic marker channel.
const MarkerChannelLabel = "triggerStream"

// Config configures a Reformatter.
type Config struct {
	// Name is the stream name reported in StreamInfo.
	Name string
	// Labels names the signal channels. Empty means "Ch1", "Ch2", ...
	Labels []string
	// ChunkLen is the number of output frames per chunk.
	ChunkLen int
	// OutputRate is the output sample rate in Hz.
	OutputRate float64
	// PullMask is XORed into every raw marker code to undo pull-up wiring.
	PullMask uint16
	// Resolution selects the physical scale for float32 output.
	Resolution Resolution
	// MarkerChannel appends a channel carrying the marker code on
	// transitions and 0 elsewhere.
	MarkerChannel bool
	// SampledMarkers attaches one marker string per output frame.
	SampledMarkers bool
	// Meta is copied into StreamInfo.
	Meta map[string]string
}

// Reformatter converts raw chunks into output chunks of type T and marker
// events. It is not safe for concurrent use.
type Reformatter[T Sample] struct {
	cfg    Config
	bank   *Bank
	scale  float64
	labels []string

	rawLen int
	signal [][]float64
	marker []float64

	chunk  Chunk[T]
	events []MarkerEvent
	prev   uint16
}

// NewReformatter builds a reformatter driving bank. int16 output passes ADC
// counts through; float32 output is scaled to microvolts by
// cfg.Resolution.Scale().
func NewReformatter[T Sample](cfg Config, bank *Bank) (*Reformatter[T], error) {
	if bank == nil {
		return nil, ErrNilPath
	}

	if cfg.ChunkLen < 1 {
		return nil, fmt.Errorf("%w: %d", ErrChunkFrames, cfg.ChunkLen)
	}

	if cl := bank.ChunkLen(); cl != 0 && cl != cfg.ChunkLen {
		return nil, fmt.Errorf("%w: bank produces %d frames, want %d", ErrChunkContract, cl, cfg.ChunkLen)
	}

	if !(cfg.OutputRate > 0) {
		return nil, fmt.Errorf("%w: %v", ErrSampleRate, cfg.OutputRate)
	}

	if !cfg.Resolution.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownResolution, int(cfg.Resolution))
	}

	n := bank.Channels()
	labels := cfg.Labels
	switch {
	case len(labels) == 0:
		labels = make([]string, n)
		for i := range labels {
			labels[i] = "Ch" + strconv.Itoa(i+1)
		}
	case len(labels) != n:
		return nil, fmt.Errorf("%w: %d labels for %d channels", ErrLabelCount, len(labels), n)
	default:
		labels = append([]string(nil), labels...)
	}

	r := &Reformatter[T]{
		cfg:    cfg,
		bank:   bank,
		scale:  1,
		labels: labels,
		rawLen: (n + 1) * cfg.ChunkLen * bank.Factor(),
		signal: make([][]float64, n),
		marker: make([]float64, cfg.ChunkLen*bank.Factor()),
	}
	if r.isFloat() {
		r.scale = cfg.Resolution.Scale()
	}
	for i := range r.signal {
		r.signal[i] = make([]float64, cfg.ChunkLen*bank.Factor())
	}

	outCh := n
	if cfg.MarkerChannel {
		outCh++
	}
	r.chunk = Chunk[T]{
		Data:     make([]T, cfg.ChunkLen*outCh),
		Channels: outCh,
		Frames:   cfg.ChunkLen,
	}
	if cfg.SampledMarkers {
		r.chunk.Markers = make([]string, cfg.ChunkLen)
	}

	return r, nil
}

func (r *Reformatter[T]) isFloat() bool {
	var zero T
	_, ok := any(zero).(float32)
	return ok
}

// RawLen returns the expected raw chunk length in words.
func (r *Reformatter[T]) RawLen() int { return r.rawLen }

// Scale returns the factor applied to decimated samples.
func (r *Reformatter[T]) Scale() float64 { return r.scale }

// Process reformats one raw chunk that arrived at time arrival (seconds).
//
// The returned chunk and event slice are owned by the reformatter and stay
// valid until the next call. A raw chunk of the wrong length is rejected
// with ErrChunkLength before any state changes.
func (r *Reformatter[T]) Process(raw []int16, arrival float64) (*Chunk[T], []MarkerEvent, error) {
	if len(raw) != r.rawLen {
		return nil, nil, fmt.Errorf("%w: got %d words, want %d", ErrChunkLength, len(raw), r.rawLen)
	}

	n := len(r.signal)
	stride := n + 1
	for f := range r.marker {
		frame := raw[f*stride : (f+1)*stride]
		for c := range n {
			r.signal[c][f] = float64(frame[c])
		}
		r.marker[f] = float64(uint16(frame[n]))
	}

	signal, marker, err := r.bank.Decimate(r.signal, r.marker)
	if err != nil {
		return nil, nil, err
	}

	l := r.cfg.ChunkLen
	outCh := r.chunk.Channels
	for c, ch := range signal {
		if len(ch) != l {
			return nil, nil, fmt.Errorf("reformat: channel %d produced %d samples, want %d", c, len(ch), l)
		}
		if r.scale != 1 {
			vecmath.ScaleBlockInPlace(ch, r.scale)
		}
		for i, v := range ch {
			r.chunk.Data[i*outCh+c] = convert[T](v)
		}
	}

	r.events = r.events[:0]
	for i := range l {
		code := uint16(marker[i]) ^ r.cfg.PullMask
		changed := code != r.prev

		if changed {
			r.events = append(r.events, MarkerEvent{
				Code:      code,
				Timestamp: arrival + float64(i+1-l)/r.cfg.OutputRate,
			})
		}

		if r.cfg.MarkerChannel {
			var v T
			if changed {
				v = T(code)
			}
			r.chunk.Data[i*outCh+n] = v
		}

		if r.chunk.Markers != nil {
			r.chunk.Markers[i] = ""
			if changed {
				r.chunk.Markers[i] = strconv.Itoa(int(code))
			}
		}

		r.prev = code
	}

	r.chunk.Timestamp = arrival
	return &r.chunk, r.events, nil
}

// convert narrows a decimated sample. Integer output is truncated toward
// zero after clamping to the int16 range.
func convert[T Sample](v float64) T {
	var zero T
	if _, ok := any(zero).(int16); ok {
		if v > math.MaxInt16 {
			v = math.MaxInt16
		} else if v < math.MinInt16 {
			v = math.MinInt16
		}
	}
	return T(v)
}

// Reset clears filter state and the retained marker value.
func (r *Reformatter[T]) Reset() {
	r.bank.Reset()
	r.prev = 0
}

// StreamInfo describes the output stream.
func (r *Reformatter[T]) StreamInfo() StreamInfo {
	info := StreamInfo{
		Name:           r.cfg.Name,
		Type:           "EEG",
		Format:         "int16",
		SampleRate:     r.cfg.OutputRate,
		Channels:       make([]ChannelInfo, 0, r.chunk.Channels),
		Resolution:     r.cfg.Resolution,
		SampledMarkers: r.cfg.SampledMarkers,
		Meta: map[string]string{
			"resolution":       r.cfg.Resolution.String(),
			"resolutionfactor": strconv.FormatFloat(r.cfg.Resolution.Scale(), 'f', -1, 64),
		},
	}

	scaling := r.cfg.Resolution.Scale()
	if r.isFloat() {
		info.Format = "float32"
		scaling = 1
	}

	for _, l := range r.labels {
		info.Channels = append(info.Channels, ChannelInfo{
			Label:         l,
			Type:          "EEG",
			Unit:          "microvolts",
			ScalingFactor: scaling,
		})
	}

	if r.cfg.MarkerChannel {
		info.Channels = append(info.Channels, ChannelInfo{
			Label:         MarkerChannelLabel,
			Type:          "EEG",
			Unit:          "code",
			ScalingFactor: 1,
		})
	}

	for k, v := range r.cfg.Meta {
		info.Meta[k] = v
	}

	return info
}
