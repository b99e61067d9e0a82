package dictation

import (
	"fmt"
	"time"
)

const (
	DefaultSampleRate = 16000
	DefaultFrameSize  = 320 // 20 ms at 16 kHz
)

// Config is the per-session configuration. It is a plain value, fixed for
// the session's lifetime; threshold, gain, per-character delay and VAD
// enablement have live setters on the session that take effect on the next
// processing tick.
type Config struct {
	// Model identifies the transcription model or backend. Required.
	Model    string
	Language string

	SampleRate int
	FrameSize  int // samples per frame

	// AmplitudeThreshold is the mean-absolute sample amplitude above which
	// a frame counts as speech.
	AmplitudeThreshold float64
	// SilenceDuration is how long amplitude must stay at or below the
	// threshold before an utterance is flushed.
	SilenceDuration time.Duration
	// Gain scales samples before amplitude measurement, clamped to the
	// int16 range.
	Gain float64

	// CharDelay paces plain-text injection, one character at a time.
	// Zero types each text run in a single call.
	CharDelay time.Duration

	VADEnabled bool

	// TickInterval is the processing loop period.
	TickInterval time.Duration
	// MaxFramesPerTick bounds how many frames one tick consumes, capping
	// per-tick latency when transcription has let the channel back up.
	MaxFramesPerTick int
	// ChannelCapacity bounds the frame channel between the driver callback
	// and the processing loop.
	ChannelCapacity int

	// FilterWords are phrases discarded entirely when a transcript matches
	// one exactly (trimmed, case-insensitive). Nil selects the defaults.
	FilterWords []string
	// NewLinePhrases map a whole transcript to a newline. Nil selects
	// "new line" / "next line".
	NewLinePhrases []string

	// OwnWindowProbe reports whether the focused window belongs to this
	// application; when it returns true the consumer skips injection for
	// that item. Nil disables the check.
	OwnWindowProbe func() bool
}

func DefaultConfig() Config {
	return Config{
		SampleRate:         DefaultSampleRate,
		FrameSize:          DefaultFrameSize,
		AmplitudeThreshold: 500,
		SilenceDuration:    time.Second,
		Gain:               1.0,
		CharDelay:          10 * time.Millisecond,
		VADEnabled:         true,
		TickInterval:       50 * time.Millisecond,
		MaxFramesPerTick:   5,
		ChannelCapacity:    256,
	}
}

func (c *Config) validate() error {
	if c.Model == "" {
		return fmt.Errorf("%w: model identifier is empty", ErrConfiguration)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrConfiguration, c.SampleRate)
	}
	if c.FrameSize <= 0 {
		return fmt.Errorf("%w: frame size %d", ErrConfiguration, c.FrameSize)
	}
	if c.SilenceDuration <= 0 {
		return fmt.Errorf("%w: silence duration %v", ErrConfiguration, c.SilenceDuration)
	}
	if c.Gain <= 0 {
		return fmt.Errorf("%w: gain %v", ErrConfiguration, c.Gain)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("%w: tick interval %v", ErrConfiguration, c.TickInterval)
	}
	if c.MaxFramesPerTick <= 0 {
		return fmt.Errorf("%w: max frames per tick %d", ErrConfiguration, c.MaxFramesPerTick)
	}
	if c.ChannelCapacity <= 0 {
		return fmt.Errorf("%w: channel capacity %d", ErrConfiguration, c.ChannelCapacity)
	}
	return nil
}

// silenceFrames derives the flush threshold in frames from the configured
// silence duration.
func (c *Config) silenceFrames() int {
	perSecond := float64(c.SampleRate) / float64(c.FrameSize)
	return int(c.SilenceDuration.Seconds() * perSecond)
}
