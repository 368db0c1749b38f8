package wavfile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/mitchellh/go-homedir"
)

var (
	// ErrInvalidFile indicates input that is not a readable WAV file.
	ErrInvalidFile = errors.New("wavfile: not a valid WAV file")
	// ErrFormat indicates a WAV layout that cannot carry raw chunks.
	ErrFormat = errors.New("wavfile: unsupported WAV layout")
)

// Source replays raw chunks from a WAV file. A trailing partial chunk is
// dropped and reported as io.EOF.
type Source struct {
	dec    *wav.Decoder
	buf    *audio.IntBuffer
	data   []int
	closer io.Closer
}

// Open opens a replay file; a leading ~ in path is expanded.
func Open(path string) (*Source, error) {
	p, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}

	s, err := NewSource(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", p, err)
	}
	s.closer = f

	return s, nil
}

// NewSource reads the WAV header from r.
func NewSource(r io.ReadSeeker) (*Source, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, ErrInvalidFile
	}

	if dec.BitDepth != 16 {
		return nil, fmt.Errorf("%w: %d-bit samples, want 16", ErrFormat, dec.BitDepth)
	}

	if dec.NumChans < 2 {
		return nil, fmt.Errorf("%w: %d channels, want signal channels plus marker", ErrFormat, dec.NumChans)
	}

	return &Source{
		dec: dec,
		buf: &audio.IntBuffer{
			Format: &audio.Format{NumChannels: int(dec.NumChans), SampleRate: int(dec.SampleRate)},
		},
	}, nil
}

// Channels returns the number of signal channels (WAV channels minus the
// marker channel).
func (s *Source) Channels() int { return int(s.dec.NumChans) - 1 }

// Rate returns the raw sample rate.
func (s *Source) Rate() float64 { return float64(s.dec.SampleRate) }

// ReadChunk fills buf with the next len(buf) words.
func (s *Source) ReadChunk(ctx context.Context, buf []int16) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	stride := int(s.dec.NumChans)
	if len(buf)%stride != 0 {
		return fmt.Errorf("wavfile: buffer of %d words is not a multiple of %d", len(buf), stride)
	}

	if cap(s.data) < len(buf) {
		s.data = make([]int, len(buf))
	}

	got := 0
	for got < len(buf) {
		s.buf.Data = s.data[:len(buf)-got]

		n, err := s.dec.PCMBuffer(s.buf)
		if err != nil {
			return fmt.Errorf("wavfile: read: %w", err)
		}
		if n == 0 {
			return io.EOF
		}

		for i, v := range s.buf.Data[:n] {
			buf[got+i] = int16(v)
		}
		got += n
	}

	return nil
}

// Close closes the underlying file when the source was opened by Open.
func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
