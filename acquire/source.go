package acquire

import "context"

// Source produces raw acquisition chunks.
type Source interface {
	// ReadChunk fills buf with exactly one raw chunk: frame-major int16
	// words, channelCount+1 per frame, the marker code last. It may block
	// until the chunk is available. io.EOF ends the session cleanly.
	ReadChunk(ctx context.Context, buf []int16) error
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, buf []int16) error

// ReadChunk calls f.
func (f SourceFunc) ReadChunk(ctx context.Context, buf []int16) error {
	return f(ctx, buf)
}
