package wavfile

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/mitchellh/go-homedir"

	"github.com/cwbudde/algo-daq/dsp/reformat"
)

// FractionBits is the number of fractional ADC-count bits kept when
// recording float32 streams.
const FractionBits = 8

// ErrNotOpen indicates a chunk pushed before Open.
var ErrNotOpen = errors.New("wavfile: sink not opened")

type sinkConfig struct {
	markers io.Writer
	sampled io.Writer
}

// SinkOption configures a Sink.
type SinkOption func(*sinkConfig)

// WithMarkerLog writes one "timestamp<TAB>code" line per marker event to w.
func WithMarkerLog(w io.Writer) SinkOption {
	return func(cfg *sinkConfig) {
		cfg.markers = w
	}
}

// WithSampledMarkerLog writes one "timestamp<TAB>code" line per non-empty
// sampled marker to w, using the frame's back-dated time.
func WithSampledMarkerLog(w io.Writer) SinkOption {
	return func(cfg *sinkConfig) {
		cfg.sampled = w
	}
}

// Sink records output chunks to a WAV file.
type Sink[T reformat.Sample] struct {
	w      io.WriteSeeker
	cfg    sinkConfig
	closer io.Closer

	enc    *wav.Encoder
	buf    *audio.IntBuffer
	factor []float64 // per-channel multiplier to the stored integer
	rate   float64
}

// Create creates path (a leading ~ is expanded) and returns a Sink
// writing to it.
func Create[T reformat.Sample](path string, opts ...SinkOption) (*Sink[T], error) {
	p, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Create(p)
	if err != nil {
		return nil, err
	}

	s := NewSink[T](f, opts...)
	s.closer = f

	return s, nil
}

// NewSink returns a Sink writing to w. The WAV header is written on Open.
func NewSink[T reformat.Sample](w io.WriteSeeker, opts ...SinkOption) *Sink[T] {
	var cfg sinkConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Sink[T]{w: w, cfg: cfg}
}

// Open starts the WAV stream described by info.
func (s *Sink[T]) Open(info reformat.StreamInfo) error {
	n := info.ChannelCount()
	if n < 1 {
		return fmt.Errorf("wavfile: stream has no channels")
	}

	bitDepth := 16
	if info.Format == "float32" {
		bitDepth = 32
	}

	s.factor = make([]float64, n)
	for i, ch := range info.Channels {
		s.factor[i] = 1
		if bitDepth == 32 && ch.Unit != "code" {
			s.factor[i] = math.Ldexp(1, FractionBits) / info.Resolution.Scale()
		}
	}

	s.rate = info.SampleRate
	rate := int(math.Round(info.SampleRate))
	s.enc = wav.NewEncoder(s.w, rate, bitDepth, n, 1)
	s.buf = &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: n, SampleRate: rate},
		SourceBitDepth: bitDepth,
	}

	return nil
}

// PushChunk appends chunk to the WAV data.
func (s *Sink[T]) PushChunk(chunk *reformat.Chunk[T]) error {
	if s.enc == nil {
		return ErrNotOpen
	}

	if chunk.Channels != len(s.factor) {
		return fmt.Errorf("wavfile: chunk has %d channels, stream has %d", chunk.Channels, len(s.factor))
	}

	if cap(s.buf.Data) < len(chunk.Data) {
		s.buf.Data = make([]int, len(chunk.Data))
	}
	s.buf.Data = s.buf.Data[:len(chunk.Data)]

	for i, v := range chunk.Data {
		s.buf.Data[i] = int(math.Round(float64(v) * s.factor[i%chunk.Channels]))
	}

	if err := s.enc.Write(s.buf); err != nil {
		return err
	}

	if s.cfg.sampled == nil {
		return nil
	}
	for i, m := range chunk.Markers {
		if m == "" {
			continue
		}
		if _, err := fmt.Fprintf(s.cfg.sampled, "%.6f\t%s\n", chunk.FrameTime(i, s.rate), m); err != nil {
			return err
		}
	}
	return nil
}

// PushMarker writes ev to the marker log, if one is configured.
func (s *Sink[T]) PushMarker(ev reformat.MarkerEvent) error {
	if s.cfg.markers == nil {
		return nil
	}
	_, err := fmt.Fprintf(s.cfg.markers, "%.6f\t%d\n", ev.Timestamp, ev.Code)
	return err
}

// Close finalises the WAV header and closes the file opened by Create.
func (s *Sink[T]) Close() error {
	var err error
	if s.enc != nil {
		err = s.enc.Close()
	}
	if s.closer != nil {
		err = errors.Join(err, s.closer.Close())
	}
	return err
}
