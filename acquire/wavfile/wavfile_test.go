package wavfile

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-daq/dsp/reformat"
)

func writeRaw(t *testing.T, channels, rate int, data []int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "raw.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	enc := wav.NewEncoder(f, rate, 16, channels, 1)
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: rate},
		Data:           data,
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())
	return path
}

func readAll(t *testing.T, path string) (*wav.Decoder, []int) {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	require.NoError(t, err)
	return dec, buf.Data
}

func TestSourceReplaysChunks(t *testing.T) {
	// Two signal channels plus marker, 5 frames; the marker uses the full
	// 16-bit range.
	data := []int{
		1, -1, 0,
		2, -2, 0,
		3, -3, -1,
		4, -4, -1,
		5, -5, 0,
	}
	src, err := Open(writeRaw(t, 3, 5000, data))
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, 2, src.Channels())
	assert.InDelta(t, 5000, src.Rate(), 0)

	buf := make([]int16, 2*3)
	require.NoError(t, src.ReadChunk(context.Background(), buf))
	assert.Equal(t, []int16{1, -1, 0, 2, -2, 0}, buf)

	require.NoError(t, src.ReadChunk(context.Background(), buf))
	assert.Equal(t, []int16{3, -3, -1, 4, -4, -1}, buf)
	assert.Equal(t, uint16(0xffff), uint16(buf[2]))

	// One frame left: a partial chunk ends the stream.
	assert.ErrorIs(t, src.ReadChunk(context.Background(), buf), io.EOF)
}

func TestSourceRejectsLayouts(t *testing.T) {
	_, err := NewSource(bytes.NewReader([]byte("not a wav file at all, just text")))
	assert.ErrorIs(t, err, ErrInvalidFile)

	mono, err := Open(writeRaw(t, 1, 5000, []int{1, 2, 3}))
	assert.ErrorIs(t, err, ErrFormat)
	assert.Nil(t, mono)

	src, err := Open(writeRaw(t, 3, 5000, make([]int, 30)))
	require.NoError(t, err)
	defer src.Close()
	assert.Error(t, src.ReadChunk(context.Background(), make([]int16, 4)))
}

func TestSinkRecordsInt16(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	var markers strings.Builder

	s, err := Create[int16](path, WithMarkerLog(&markers))
	require.NoError(t, err)

	assert.ErrorIs(t, s.PushChunk(&reformat.Chunk[int16]{}), ErrNotOpen)

	require.NoError(t, s.Open(reformat.StreamInfo{
		Format:     "int16",
		SampleRate: 500,
		Channels:   []reformat.ChannelInfo{{Label: "Fz"}, {Label: "Cz"}},
	}))
	require.NoError(t, s.PushChunk(&reformat.Chunk[int16]{Data: []int16{1, -2, 3, -4}, Channels: 2, Frames: 2}))
	require.NoError(t, s.PushChunk(&reformat.Chunk[int16]{Data: []int16{32767, -32768}, Channels: 2, Frames: 1}))
	require.NoError(t, s.PushMarker(reformat.MarkerEvent{Code: 7, Timestamp: 1.25}))
	require.NoError(t, s.Close())

	dec, data := readAll(t, path)
	assert.Equal(t, uint16(2), dec.NumChans)
	assert.Equal(t, uint16(16), dec.BitDepth)
	assert.Equal(t, uint32(500), dec.SampleRate)
	assert.Equal(t, []int{1, -2, 3, -4, 32767, -32768}, data)
	assert.Equal(t, "1.250000\t7\n", markers.String())
}

func TestSinkSampledMarkerLog(t *testing.T) {
	var sampled strings.Builder
	s, err := Create[int16](filepath.Join(t.TempDir(), "m.wav"), WithSampledMarkerLog(&sampled))
	require.NoError(t, err)

	require.NoError(t, s.Open(reformat.StreamInfo{
		Format:     "int16",
		SampleRate: 1000,
		Channels:   []reformat.ChannelInfo{{Label: "Fz"}},
	}))
	chunk := &reformat.Chunk[int16]{
		Data: []int16{0, 0, 0, 0}, Channels: 1, Frames: 4,
		Timestamp: 2, Markers: []string{"", "7", "", "12"},
	}
	require.NoError(t, s.PushChunk(chunk))
	require.NoError(t, s.PushChunk(&reformat.Chunk[int16]{Data: []int16{0}, Channels: 1, Frames: 1, Timestamp: 3}))
	require.NoError(t, s.Close())

	assert.InDelta(t, 1.998, chunk.FrameTime(1, 1000), 1e-12)
	assert.Equal(t, "1.998000\t7\n2.000000\t12\n", sampled.String())
}

func TestSinkRecordsFloat32AsFixedPoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "phys.wav")
	s, err := Create[float32](path)
	require.NoError(t, err)

	require.NoError(t, s.Open(reformat.StreamInfo{
		Format:     "float32",
		SampleRate: 1000,
		Resolution: reformat.Resolution500nV,
		Channels: []reformat.ChannelInfo{
			{Label: "Fz", Unit: "microvolts"},
			{Label: reformat.MarkerChannelLabel, Unit: "code"},
		},
	}))
	// 1.5 µV at 0.5 µV per count is 3 counts.
	require.NoError(t, s.PushChunk(&reformat.Chunk[float32]{Data: []float32{1.5, 0, -0.25, 9}, Channels: 2, Frames: 2}))
	require.NoError(t, s.Close())

	dec, data := readAll(t, path)
	assert.Equal(t, uint16(32), dec.BitDepth)
	assert.Equal(t, []int{3 << FractionBits, 0, -(1 << (FractionBits - 1)), 9}, data)
}

func TestSinkChannelMismatch(t *testing.T) {
	s, err := Create[int16](filepath.Join(t.TempDir(), "x.wav"))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Open(reformat.StreamInfo{SampleRate: 100, Channels: make([]reformat.ChannelInfo, 2)}))
	assert.Error(t, s.PushChunk(&reformat.Chunk[int16]{Data: []int16{1, 2, 3}, Channels: 3, Frames: 1}))
}
