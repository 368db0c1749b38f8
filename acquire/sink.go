package acquire

import (
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/cwbudde/algo-daq/dsp/reformat"
)

// Sink consumes reformatted output. Chunks passed to PushChunk are only
// valid for the duration of the call.
type Sink[T reformat.Sample] interface {
	PushChunk(chunk *reformat.Chunk[T]) error
	PushMarker(ev reformat.MarkerEvent) error
}

// StreamOpener is implemented by sinks that need the stream description
// before the first chunk.
type StreamOpener interface {
	Open(info reformat.StreamInfo) error
}

// LogSink writes the stream header, marker events and sampled markers to a
// logger. Chunks are logged at debug level.
type LogSink[T reformat.Sample] struct {
	Logger *slog.Logger

	rate float64
}

// NewLogSink returns a LogSink writing to logger, or slog.Default when nil.
func NewLogSink[T reformat.Sample](logger *slog.Logger) *LogSink[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink[T]{Logger: logger}
}

// Open logs the stream description.
func (s *LogSink[T]) Open(info reformat.StreamInfo) error {
	s.rate = info.SampleRate
	s.Logger.Info("stream opened",
		"name", info.Name,
		"format", info.Format,
		"rate", info.SampleRate,
		"channels", info.ChannelCount(),
		"resolution", info.Resolution.String(),
		"labels", info.Labels(),
	)
	return nil
}

// PushChunk logs the chunk size and timestamp at debug level and each
// non-empty sampled marker with its frame time.
func (s *LogSink[T]) PushChunk(chunk *reformat.Chunk[T]) error {
	for i, m := range chunk.Markers {
		if m == "" {
			continue
		}
		ts := chunk.Timestamp
		if s.rate > 0 {
			ts = chunk.FrameTime(i, s.rate)
		}
		s.Logger.Info("sampled marker", "frame", i, "code", m, "ts", ts)
	}
	s.Logger.Debug("chunk", "frames", chunk.Frames, "channels", chunk.Channels, "ts", chunk.Timestamp)
	return nil
}

// PushMarker logs the event.
func (s *LogSink[T]) PushMarker(ev reformat.MarkerEvent) error {
	s.Logger.Info("marker", "code", ev.Code, "ts", ev.Timestamp)
	return nil
}

// Recorder keeps copies of everything pushed to it. It is safe for
// concurrent use.
type Recorder[T reformat.Sample] struct {
	mu      sync.Mutex
	info    *reformat.StreamInfo
	chunks  []*reformat.Chunk[T]
	markers []reformat.MarkerEvent
}

// Open records the stream description.
func (r *Recorder[T]) Open(info reformat.StreamInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.info = &info
	return nil
}

// PushChunk stores a copy of chunk.
func (r *Recorder[T]) PushChunk(chunk *reformat.Chunk[T]) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chunks = append(r.chunks, chunk.Clone())
	return nil
}

// PushMarker stores ev.
func (r *Recorder[T]) PushMarker(ev reformat.MarkerEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markers = append(r.markers, ev)
	return nil
}

// Info returns the recorded stream description and whether Open was called.
func (r *Recorder[T]) Info() (reformat.StreamInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.info == nil {
		return reformat.StreamInfo{}, false
	}
	return *r.info, true
}

// Chunks returns the recorded chunks.
func (r *Recorder[T]) Chunks() []*reformat.Chunk[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*reformat.Chunk[T](nil), r.chunks...)
}

// Markers returns the recorded marker events.
func (r *Recorder[T]) Markers() []reformat.MarkerEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]reformat.MarkerEvent(nil), r.markers...)
}

// Samples concatenates the data of all recorded chunks.
func (r *Recorder[T]) Samples() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []T
	for _, c := range r.chunks {
		out = append(out, c.Data...)
	}
	return out
}

// MultiSink forwards everything to each of its sinks in order and stops
// at the first error.
type MultiSink[T reformat.Sample] []Sink[T]

// Open opens every sink implementing StreamOpener.
func (m MultiSink[T]) Open(info reformat.StreamInfo) error {
	for _, s := range m {
		if o, ok := s.(StreamOpener); ok {
			if err := o.Open(info); err != nil {
				return err
			}
		}
	}
	return nil
}

// PushChunk forwards chunk.
func (m MultiSink[T]) PushChunk(chunk *reformat.Chunk[T]) error {
	for _, s := range m {
		if err := s.PushChunk(chunk); err != nil {
			return err
		}
	}
	return nil
}

// PushMarker forwards ev.
func (m MultiSink[T]) PushMarker(ev reformat.MarkerEvent) error {
	for _, s := range m {
		if err := s.PushMarker(ev); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sink implementing io.Closer and joins their errors.
func (m MultiSink[T]) Close() error {
	var errs []error
	for _, s := range m {
		if c, ok := s.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}
