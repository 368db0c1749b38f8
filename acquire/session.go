package acquire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cwbudde/algo-daq/dsp/reformat"
)

// ErrNilComponent indicates a session built without source, reformatter
// or sink.
var ErrNilComponent = errors.New("acquire: source, reformatter and sink are required")

// Clock returns the current time in seconds. Chunk and marker timestamps
// are taken from it right after each raw chunk is read.
type Clock func() float64

var epoch = time.Now()

// MonotonicClock returns seconds since process start on the monotonic clock.
func MonotonicClock() float64 {
	return time.Since(epoch).Seconds()
}

// Stats summarises a session.
type Stats struct {
	Chunks  uint64
	Markers uint64
}

type sessionConfig struct {
	logger    *slog.Logger
	clock     Clock
	maxChunks uint64
	noMarkers bool
}

// Option configures a Session.
type Option func(*sessionConfig)

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *sessionConfig) {
		if l != nil {
			cfg.logger = l
		}
	}
}

// WithClock replaces the timestamp clock.
func WithClock(c Clock) Option {
	return func(cfg *sessionConfig) {
		if c != nil {
			cfg.clock = c
		}
	}
}

// WithMaxChunks ends the session after n chunks. 0 means no limit.
func WithMaxChunks(n uint64) Option {
	return func(cfg *sessionConfig) {
		cfg.maxChunks = n
	}
}

// WithMarkerEvents controls whether marker changes are pushed to the sink
// as separate events. Enabled by default.
func WithMarkerEvents(enabled bool) Option {
	return func(cfg *sessionConfig) {
		cfg.noMarkers = !enabled
	}
}

// Session owns one reformatter and moves chunks from a source to a sink on
// a single goroutine.
type Session[T reformat.Sample] struct {
	src  Source
	rf   *reformat.Reformatter[T]
	sink Sink[T]
	cfg  sessionConfig

	raw     []int16
	stop    atomic.Bool
	chunks  atomic.Uint64
	markers atomic.Uint64
}

// NewSession wires src, rf and sink together.
func NewSession[T reformat.Sample](src Source, rf *reformat.Reformatter[T], sink Sink[T], opts ...Option) (*Session[T], error) {
	if src == nil || rf == nil || sink == nil {
		return nil, ErrNilComponent
	}

	cfg := sessionConfig{
		logger: slog.Default(),
		clock:  MonotonicClock,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return &Session[T]{
		src:  src,
		rf:   rf,
		sink: sink,
		cfg:  cfg,
		raw:  make([]int16, rf.RawLen()),
	}, nil
}

// Stop asks Run to return before reading the next chunk. A read already
// in progress is not interrupted.
func (s *Session[T]) Stop() {
	s.stop.Store(true)
}

// Stats returns the number of chunks and marker events emitted so far.
func (s *Session[T]) Stats() Stats {
	return Stats{Chunks: s.chunks.Load(), Markers: s.markers.Load()}
}

// Run processes chunks until the source returns io.EOF, Stop is called,
// the chunk limit is reached or ctx is cancelled. The first source,
// reformat or sink error aborts the loop and is returned; cancellation
// returns ctx.Err(). Sinks implementing StreamOpener are opened first.
func (s *Session[T]) Run(ctx context.Context) error {
	log := s.cfg.logger
	info := s.rf.StreamInfo()

	if o, ok := s.sink.(StreamOpener); ok {
		if err := o.Open(info); err != nil {
			return fmt.Errorf("acquire: open sink: %w", err)
		}
	}

	log.Info("session started",
		"stream", info.Name,
		"channels", info.ChannelCount(),
		"rate", info.SampleRate,
		"format", info.Format,
		"raw_words", len(s.raw),
	)

	for {
		if err := ctx.Err(); err != nil {
			log.Info("session cancelled", "chunks", s.chunks.Load())
			return err
		}

		if s.stop.Load() {
			log.Info("session stopped", "chunks", s.chunks.Load())
			return nil
		}

		n := s.chunks.Load()
		if limit := s.cfg.maxChunks; limit > 0 && n >= limit {
			log.Info("chunk limit reached", "chunks", n)
			return nil
		}

		if err := s.src.ReadChunk(ctx, s.raw); err != nil {
			if errors.Is(err, io.EOF) {
				log.Info("source exhausted", "chunks", n)
				return nil
			}
			return fmt.Errorf("acquire: read chunk %d: %w", n, err)
		}

		now := s.cfg.clock()

		chunk, events, err := s.rf.Process(s.raw, now)
		if err != nil {
			return fmt.Errorf("acquire: reformat chunk %d: %w", n, err)
		}

		if s.cfg.noMarkers {
			events = nil
		}

		for _, ev := range events {
			if err := s.sink.PushMarker(ev); err != nil {
				return fmt.Errorf("acquire: push marker: %w", err)
			}
		}
		s.markers.Add(uint64(len(events)))

		if err := s.sink.PushChunk(chunk); err != nil {
			return fmt.Errorf("acquire: push chunk %d: %w", n, err)
		}
		s.chunks.Add(1)

		if len(events) > 0 {
			log.Debug("markers", "chunk", n, "count", len(events))
		}
	}
}
