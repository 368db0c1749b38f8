// Package reformat turns raw multi-channel acquisition chunks into
// decimated, physically scaled output chunks plus marker events.
//
// Raw chunks are frame-major int16 buffers with channelCount+1 words per
// frame; the last word of each frame is the marker (trigger) code. A [Bank]
// holds one decimation path per signal channel and an unfiltered path for
// the marker channel, and a [Reformatter] drives it chunk by chunk:
// deinterleave, decimate, scale, detect marker transitions, reinterleave.
//
// Marker events are back-dated from the chunk arrival time: the event for
// output frame i of an L-frame chunk gets the timestamp
//
//	arrival + (i+1-L)/outputRate
//
// so the last frame of a chunk is stamped with the arrival time itself.
package reformat
