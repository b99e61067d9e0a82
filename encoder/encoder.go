// Package encoder compresses raw PCM before it is shipped to a remote
// transcription API. Uploading FLAC instead of raw samples cuts the payload
// roughly in half without the lossy artifacts that hurt speech models.
package encoder

const (
	SampleRate    = 16000
	Channels      = 1
	BitsPerSample = 16
	BlockSize     = 4096
)
