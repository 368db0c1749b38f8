package reformat

// Sample is an output sample type: int16 for raw ADC counts or float32 for
// microvolts.
type Sample interface {
	int16 | float32
}

// Chunk is one block of reformatted output.
type Chunk[T Sample] struct {
	// Data holds Frames frames of Channels values each, frame-major.
	Data     []T
	Channels int
	Frames   int
	// Timestamp is the arrival time of the raw chunk, in seconds.
	Timestamp float64
	// Markers holds one string per frame when sampled markers are enabled:
	// the marker code on a transition, empty otherwise.
	Markers []string
}

// Frame returns the values of frame i. The slice aliases Data.
func (c *Chunk[T]) Frame(i int) []T {
	return c.Data[i*c.Channels : (i+1)*c.Channels]
}

// Channel copies channel ch out of the interleaved data.
func (c *Chunk[T]) Channel(ch int) []T {
	out := make([]T, c.Frames)
	for i := range out {
		out[i] = c.Data[i*c.Channels+ch]
	}
	return out
}

// FrameTime returns the time of frame i at the given output rate,
// back-dated from Timestamp the same way marker events are.
func (c *Chunk[T]) FrameTime(i int, rate float64) float64 {
	return c.Timestamp + float64(i+1-c.Frames)/rate
}

// Clone returns a deep copy of c.
func (c *Chunk[T]) Clone() *Chunk[T] {
	n := *c
	n.Data = append([]T(nil), c.Data...)
	if c.Markers != nil {
		n.Markers = append([]string(nil), c.Markers...)
	}
	return &n
}

// MarkerEvent is a marker code transition.
type MarkerEvent struct {
	Code      uint16
	Timestamp float64
}

// ChannelInfo describes one output channel.
type ChannelInfo struct {
	Label string
	Type  string
	Unit  string
	// ScalingFactor converts stored values to Unit: the resolution scale for
	// raw int16 output, 1 for float32 output.
	ScalingFactor float64
}

// StreamInfo describes the output stream of a Reformatter.
type StreamInfo struct {
	Name       string
	Type       string
	Format     string // "int16" or "float32"
	SampleRate float64
	Channels   []ChannelInfo
	Resolution Resolution
	// SampledMarkers reports whether chunks carry per-frame marker strings.
	SampledMarkers bool
	// Meta holds free-form amplifier and acquisition settings.
	Meta map[string]string
}

// ChannelCount returns the number of output channels.
func (s StreamInfo) ChannelCount() int { return len(s.Channels) }

// Labels returns the channel labels in output order.
func (s StreamInfo) Labels() []string {
	out := make([]string, len(s.Channels))
	for i, ch := range s.Channels {
		out[i] = ch.Label
	}
	return out
}
