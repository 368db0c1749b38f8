// Package wavfile replays raw acquisition data from WAV files and records
// reformatted output to WAV files.
//
// A replay file holds channelCount+1 channels of 16-bit PCM; the last
// channel is the marker code. Recorded files hold one WAV channel per
// output channel: 16-bit ADC counts for int16 streams, and 32-bit
// fixed-point counts with [FractionBits] fractional bits for float32
// streams. Marker channels are stored unscaled.
package wavfile
