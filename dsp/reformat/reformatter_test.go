package reformat

import (
	"errors"
	"slices"
	"testing"

	"github.com/cwbudde/algo-daq/dsp/decimate"
	"github.com/cwbudde/algo-daq/internal/testutil"
)

func newReformatter[T Sample](t *testing.T, channels, factor int, cfg Config, opts ...BankOption) *Reformatter[T] {
	t.Helper()
	bank, err := NewFactorBank(channels, cfg.ChunkLen, factor, opts...)
	if err != nil {
		t.Fatalf("NewFactorBank() error = %v", err)
	}
	r, err := NewReformatter[T](cfg, bank)
	if err != nil {
		t.Fatalf("NewReformatter() error = %v", err)
	}
	return r
}

// stamp mirrors the back-dating rule for frame i of an l-frame chunk.
func stamp(arrival float64, i, l int, rate float64) float64 {
	return arrival + float64(i+1-l)/rate
}

func constMarker(v uint16, n int) []uint16 {
	m := make([]uint16, n)
	for i := range m {
		m[i] = v
	}
	return m
}

func TestNewReformatterValidation(t *testing.T) {
	bank, _ := NewFactorBank(2, 4, 2)

	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{"zero chunk", Config{ChunkLen: 0, OutputRate: 100}, ErrChunkFrames},
		{"zero rate", Config{ChunkLen: 4}, ErrSampleRate},
		{"bad resolution", Config{ChunkLen: 4, OutputRate: 100, Resolution: 9}, ErrUnknownResolution},
		{"label mismatch", Config{ChunkLen: 4, OutputRate: 100, Labels: []string{"Fz"}}, ErrLabelCount},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewReformatter[float32](tc.cfg, bank); !errors.Is(err, tc.want) {
				t.Fatalf("NewReformatter() error = %v, want %v", err, tc.want)
			}
		})
	}

	if _, err := NewReformatter[int16](Config{ChunkLen: 4, OutputRate: 100}, nil); !errors.Is(err, ErrNilPath) {
		t.Fatalf("NewReformatter(nil bank) error = %v", err)
	}
}

func TestNewReformatterChunkContract(t *testing.T) {
	fixed, err := NewFactorBank(2, 32, 10)
	if err != nil {
		t.Fatal(err)
	}
	if fixed.ChunkLen() != 32 {
		t.Fatalf("ChunkLen() = %d, want 32", fixed.ChunkLen())
	}

	_, err = NewReformatter[int16](Config{ChunkLen: 16, OutputRate: 500}, fixed)
	if !errors.Is(err, ErrChunkContract) {
		t.Fatalf("NewReformatter() error = %v, want ErrChunkContract", err)
	}

	// Chains accept any multiple of their factor.
	chain, err := decimate.ParseCascade("10:builtin;5:none")
	if err != nil {
		t.Fatal(err)
	}
	free, err := NewBank(2, chain)
	if err != nil {
		t.Fatal(err)
	}
	for _, l := range []int{1, 16, 32} {
		r, err := NewReformatter[int16](Config{ChunkLen: l, OutputRate: 100}, free)
		if err != nil {
			t.Fatalf("NewReformatter(ChunkLen %d) error = %v", l, err)
		}
		if _, _, err := r.Process(make([]int16, r.RawLen()), 0); err != nil {
			t.Fatalf("Process(ChunkLen %d) error = %v", l, err)
		}
	}
}

func TestProcessPassthroughInt16(t *testing.T) {
	const l = 5
	r := newReformatter[int16](t, 3, 1, Config{ChunkLen: l, OutputRate: 5000})

	channels := [][]int16{
		{1, 2, 3, 4, 5},
		{-1, -2, -3, -4, -5},
		{100, 200, 300, 400, 500},
	}
	raw := testutil.Interleave(channels, constMarker(0, l))
	if len(raw) != r.RawLen() {
		t.Fatalf("RawLen() = %d, want %d", r.RawLen(), len(raw))
	}

	chunk, events, err := r.Process(raw, 1)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("events = %v, want none", events)
	}
	if chunk.Channels != 3 || chunk.Frames != l || chunk.Timestamp != 1 {
		t.Fatalf("chunk header = %d ch, %d frames, ts %v", chunk.Channels, chunk.Frames, chunk.Timestamp)
	}
	for c, want := range channels {
		if got := chunk.Channel(c); !slices.Equal(got, want) {
			t.Fatalf("channel %d = %v, want %v", c, got, want)
		}
	}
	if f := chunk.Frame(2); !slices.Equal(f, []int16{3, -3, 300}) {
		t.Fatalf("Frame(2) = %v", f)
	}
}

func TestProcessFloatScaling(t *testing.T) {
	r := newReformatter[float32](t, 1, 1, Config{ChunkLen: 3, OutputRate: 5000, Resolution: Resolution10uV})
	if r.Scale() != 10 {
		t.Fatalf("Scale() = %v, want 10", r.Scale())
	}

	raw := testutil.Interleave([][]int16{{3, -7, 0}}, constMarker(0, 3))
	chunk, _, err := r.Process(raw, 0)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if !slices.Equal(chunk.Data, []float32{30, -70, 0}) {
		t.Fatalf("Data = %v, want [30 -70 0]", chunk.Data)
	}
}

func TestProcessFilteredMatchesStage(t *testing.T) {
	const (
		k = 10
		l = 16
	)
	r := newReformatter[float32](t, 2, k, Config{ChunkLen: l, OutputRate: 500, Resolution: Resolution500nV})

	refs := make([]*decimate.Stage, 2)
	for i := range refs {
		refs[i], _ = decimate.NewStage(k, l)
	}

	for chunkNo := range 3 {
		channels := testutil.NoiseChannels(int64(chunkNo+1), 2, l*k, 3000)
		raw := testutil.Interleave(channels, constMarker(0, l*k))

		chunk, _, err := r.Process(raw, float64(chunkNo))
		if err != nil {
			t.Fatalf("Process() error = %v", err)
		}

		for c := range channels {
			want, _ := refs[c].Decimate(testutil.Float64s(channels[c]))
			got := chunk.Channel(c)
			for i := range want {
				if w := float32(want[i] * 0.5); got[i] != w {
					t.Fatalf("chunk %d channel %d frame %d = %v, want %v", chunkNo, c, i, got[i], w)
				}
			}
		}
	}
}

func TestProcessMarkerEdgeSingularity(t *testing.T) {
	const (
		k    = 2
		l    = 8
		rate = 2500.0
	)

	for edge := range l {
		r := newReformatter[int16](t, 1, k, Config{ChunkLen: l, OutputRate: rate})

		// Phase-0 selection maps output index i to raw index i*k.
		marker := testutil.Step(0, 5, edge*k, l*k)
		raw := testutil.Interleave([][]int16{make([]int16, l*k)}, marker)

		_, events, err := r.Process(raw, 100)
		if err != nil {
			t.Fatalf("Process() error = %v", err)
		}
		if len(events) != 1 {
			t.Fatalf("edge %d: %d events, want 1", edge, len(events))
		}

		want := MarkerEvent{Code: 5, Timestamp: stamp(100, edge, l, rate)}
		if events[0] != want {
			t.Fatalf("edge %d: event = %+v, want %+v", edge, events[0], want)
		}
	}
}

func TestProcessConstantMarker(t *testing.T) {
	const l = 4
	r := newReformatter[int16](t, 1, 1, Config{ChunkLen: l, OutputRate: 1000})
	silent := [][]int16{make([]int16, l)}

	_, events, _ := r.Process(testutil.Interleave(silent, constMarker(0, l)), 1)
	if len(events) != 0 {
		t.Fatalf("zero marker: events = %v", events)
	}

	// The first chunk differs from the retained 0, the second does not.
	_, events, _ = r.Process(testutil.Interleave(silent, constMarker(7, l)), 2)
	if len(events) != 1 || events[0].Code != 7 || events[0].Timestamp != stamp(2, 0, l, 1000) {
		t.Fatalf("first constant chunk: events = %v", events)
	}

	_, events, _ = r.Process(testutil.Interleave(silent, constMarker(7, l)), 3)
	if len(events) != 0 {
		t.Fatalf("second constant chunk: events = %v", events)
	}
}

func TestProcessMarkerAcrossChunks(t *testing.T) {
	const l = 4
	r := newReformatter[int16](t, 1, 1, Config{ChunkLen: l, OutputRate: 1000})
	silent := [][]int16{make([]int16, l)}

	_, _, _ = r.Process(testutil.Interleave(silent, []uint16{0, 0, 3, 3}), 1)
	_, events, _ := r.Process(testutil.Interleave(silent, []uint16{0, 0, 0, 0}), 2)

	if len(events) != 1 || events[0].Code != 0 {
		t.Fatalf("events = %v, want one transition to 0 at frame 0", events)
	}
}

func TestProcessPullMask(t *testing.T) {
	const l = 4
	r := newReformatter[int16](t, 1, 1, Config{ChunkLen: l, OutputRate: 1000, PullMask: 0xffff})
	silent := [][]int16{make([]int16, l)}

	_, events, _ := r.Process(testutil.Interleave(silent, constMarker(0xffff, l)), 1)
	if len(events) != 0 {
		t.Fatalf("masked idle level: events = %v", events)
	}

	_, events, _ = r.Process(testutil.Interleave(silent, []uint16{0xffff, 0xfffe, 0xfffe, 0xffff}), 2)
	want := []MarkerEvent{
		{Code: 1, Timestamp: stamp(2, 1, l, 1000)},
		{Code: 0, Timestamp: stamp(2, 3, l, 1000)},
	}
	if !slices.Equal(events, want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
}

func TestProcessMarkerChannelAndSampledMarkers(t *testing.T) {
	const l = 5
	r := newReformatter[float32](t, 2, 1, Config{
		ChunkLen:       l,
		OutputRate:     1000,
		Resolution:     Resolution100nV,
		MarkerChannel:  true,
		SampledMarkers: true,
	})

	raw := testutil.Interleave(
		[][]int16{{10, 20, 30, 40, 50}, {1, 1, 1, 1, 1}},
		[]uint16{0, 4, 4, 9, 0},
	)

	chunk, events, err := r.Process(raw, 1)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if chunk.Channels != 3 {
		t.Fatalf("Channels = %d, want 3", chunk.Channels)
	}
	if got := chunk.Channel(2); !slices.Equal(got, []float32{0, 4, 0, 9, 0}) {
		t.Fatalf("marker channel = %v", got)
	}
	if !slices.Equal(chunk.Markers, []string{"", "4", "", "9", "0"}) {
		t.Fatalf("Markers = %q", chunk.Markers)
	}
	if len(events) != 3 {
		t.Fatalf("events = %v, want 3", events)
	}
	// Each sampled marker lands on the same time as its event.
	j := 0
	for i, m := range chunk.Markers {
		if m == "" {
			continue
		}
		if got := chunk.FrameTime(i, 1000); got != events[j].Timestamp {
			t.Fatalf("FrameTime(%d) = %v, event %d at %v", i, got, j, events[j].Timestamp)
		}
		j++
	}
	if got := chunk.Channel(0); !slices.Equal(got, []float32{1, 2, 3, 4, 5}) {
		t.Fatalf("channel 0 = %v", got)
	}
}

func TestProcessRejectsMalformedChunk(t *testing.T) {
	const l, k = 4, 2
	cfg := Config{ChunkLen: l, OutputRate: 1000}
	r := newReformatter[int16](t, 2, k, cfg)
	fresh := newReformatter[int16](t, 2, k, cfg)

	for _, n := range []int{0, r.RawLen() - 1, r.RawLen() + 3} {
		chunk, events, err := r.Process(make([]int16, n), 0)
		if !errors.Is(err, ErrChunkLength) || chunk != nil || events != nil {
			t.Fatalf("Process(len %d) = %v, %v, %v; want ErrChunkLength", n, chunk, events, err)
		}
	}

	channels := testutil.NoiseChannels(4, 2, l*k, 1000)
	raw := testutil.Interleave(channels, testutil.Step(0, 2, 3, l*k))

	got, gotEv, _ := r.Process(raw, 5)
	got = got.Clone()
	gotEv = slices.Clone(gotEv)
	want, wantEv, _ := fresh.Process(raw, 5)

	if !slices.Equal(got.Data, want.Data) || !slices.Equal(gotEv, wantEv) {
		t.Fatal("rejected chunks changed reformatter state")
	}
}

func TestProcessClampsInt16(t *testing.T) {
	if got := convert[int16](40000.7); got != 32767 {
		t.Fatalf("convert(40000.7) = %d", got)
	}
	if got := convert[int16](-40000); got != -32768 {
		t.Fatalf("convert(-40000) = %d", got)
	}
	if got := convert[int16](-1.9); got != -1 {
		t.Fatalf("convert(-1.9) = %d", got)
	}
	if got := convert[float32](40000.5); got != 40000.5 {
		t.Fatalf("convert[float32](40000.5) = %v", got)
	}
}

func TestReset(t *testing.T) {
	const l, k = 8, 5
	cfg := Config{ChunkLen: l, OutputRate: 1000}
	r := newReformatter[float32](t, 1, k, cfg)
	fresh := newReformatter[float32](t, 1, k, cfg)

	channels := testutil.NoiseChannels(9, 1, l*k, 2000)
	raw := testutil.Interleave(channels, constMarker(3, l*k))

	_, _, _ = r.Process(raw, 0)
	r.Reset()

	got, gotEv, _ := r.Process(raw, 1)
	got = got.Clone()
	gotEv = slices.Clone(gotEv)
	want, wantEv, _ := fresh.Process(raw, 1)

	if !slices.Equal(got.Data, want.Data) || !slices.Equal(gotEv, wantEv) {
		t.Fatal("Reset did not restore the initial state")
	}
}

func TestParallelBankMatchesSequential(t *testing.T) {
	const l, k = 32, 10
	cfg := Config{ChunkLen: l, OutputRate: 500}
	seq := newReformatter[float32](t, 8, k, cfg)
	par := newReformatter[float32](t, 8, k, cfg, WithParallel(true))

	for chunkNo := range 4 {
		channels := testutil.NoiseChannels(int64(10+chunkNo), 8, l*k, 5000)
		raw := testutil.Interleave(channels, constMarker(0, l*k))

		a, _, err := seq.Process(raw, 0)
		if err != nil {
			t.Fatalf("sequential Process() error = %v", err)
		}
		b, _, err := par.Process(raw, 0)
		if err != nil {
			t.Fatalf("parallel Process() error = %v", err)
		}
		if !slices.Equal(a.Data, b.Data) {
			t.Fatalf("chunk %d: parallel output differs", chunkNo)
		}
	}
}

func TestStreamInfo(t *testing.T) {
	raw := newReformatter[int16](t, 2, 1, Config{
		Name:          "amp-0",
		Labels:        []string{"Fz", "Cz"},
		ChunkLen:      4,
		OutputRate:    5000,
		Resolution:    Resolution152uV,
		MarkerChannel: true,
		Meta:          map[string]string{"dc_coupling": "AC"},
	}).StreamInfo()

	if raw.Format != "int16" || raw.Type != "EEG" || raw.SampleRate != 5000 || raw.Name != "amp-0" {
		t.Fatalf("StreamInfo() = %+v", raw)
	}
	if got := raw.Labels(); !slices.Equal(got, []string{"Fz", "Cz", MarkerChannelLabel}) {
		t.Fatalf("Labels() = %v", got)
	}
	if raw.Channels[0].ScalingFactor != 152.6 || raw.Channels[0].Unit != "microvolts" {
		t.Fatalf("signal channel = %+v", raw.Channels[0])
	}
	if raw.Channels[2].Unit != "code" {
		t.Fatalf("marker channel = %+v", raw.Channels[2])
	}
	if raw.Meta["resolution"] != "152.6 muV" || raw.Meta["dc_coupling"] != "AC" {
		t.Fatalf("Meta = %v", raw.Meta)
	}

	phys := newReformatter[float32](t, 2, 1, Config{ChunkLen: 4, OutputRate: 5000}).StreamInfo()
	if phys.Format != "float32" || phys.Channels[1].ScalingFactor != 1 || phys.ChannelCount() != 2 {
		t.Fatalf("StreamInfo() = %+v", phys)
	}
	if phys.Channels[1].Label != "Ch2" {
		t.Fatalf("default label = %q, want Ch2", phys.Channels[1].Label)
	}
}
