// Package acquire runs acquisition sessions: a single worker loop that
// reads raw chunks from a [Source], reformats them with a
// [reformat.Reformatter] and hands chunks and marker events to a [Sink].
//
// Device transports and network publishers live outside this module; they
// plug in by implementing Source and Sink. The synth and wavfile
// subpackages provide implementations that need no hardware.
package acquire
