// Package transcriber turns captured speech segments into text. Two remote
// backends are provided: a local whisper.cpp server and the Groq cloud API.
// Both accept mono 16 kHz audio and return the recognized text with
// per-segment detail where the backend reports it.
package transcriber

import (
	"context"
	"fmt"
	"net/http"
	"os"
)

const SampleRate = 16000

type Segment struct {
	Text         string
	Start        float64
	End          float64
	NoSpeechProb float64
	AvgLogProb   float64
}

type Result struct {
	Text     string
	Duration float64
	Segments []Segment
}

// Engine is a speech-to-text backend. Load prepares the backend before the
// first segment arrives so model warmup does not eat into first-word
// latency; Unload releases whatever Load acquired. Transcribe takes
// normalized mono samples in [-1, 1].
type Engine interface {
	Name() string
	SetLanguage(lang string)
	Load(ctx context.Context) error
	Unload()
	Transcribe(ctx context.Context, samples []float32) (*Result, error)
}

// New picks a backend from the environment: WHISPER_SERVER_URL selects a
// local whisper.cpp server, otherwise GROQ_API_KEY selects the Groq API.
func New() (Engine, error) {
	if url := os.Getenv("WHISPER_SERVER_URL"); url != "" {
		return NewWhisperServer(url), nil
	}
	if key := os.Getenv("GROQ_API_KEY"); key != "" {
		return NewGroq(key), nil
	}
	return nil, fmt.Errorf("set WHISPER_SERVER_URL or GROQ_API_KEY environment variable")
}

func firstNonEmpty(h http.Header, keys ...string) string {
	for _, k := range keys {
		if v := h.Get(k); v != "" {
			return v
		}
	}
	return "?"
}
