package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"murmur/encoder"
	"murmur/log"
)

const groqAPIURL = "https://api.groq.com/openai/v1/audio/transcriptions"

// Groq uploads segments to the Groq transcription API. Audio goes up as
// FLAC, which roughly halves the payload versus WAV without losing samples.
type Groq struct {
	apiKey string
	apiURL string
	lang   string
	client *http.Client
}

func NewGroq(apiKey string) *Groq {
	return &Groq{
		apiKey: apiKey,
		apiURL: groqAPIURL,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

func (g *Groq) Name() string { return "groq" }

func (g *Groq) SetLanguage(lang string) { g.lang = lang }

func (g *Groq) Load(ctx context.Context) error {
	if g.apiKey == "" {
		return fmt.Errorf("groq API key is empty")
	}
	return nil
}

func (g *Groq) Unload() {
	g.client.CloseIdleConnections()
}

type groqResponse struct {
	Text     string  `json:"text"`
	Duration float64 `json:"duration"`
	Segments []struct {
		Text         string  `json:"text"`
		Start        float64 `json:"start"`
		End          float64 `json:"end"`
		NoSpeechProb float64 `json:"no_speech_prob"`
		AvgLogProb   float64 `json:"avg_logprob"`
	} `json:"segments"`
}

func (g *Groq) Transcribe(ctx context.Context, samples []float32) (*Result, error) {
	flacData, err := encoder.Compress(samplesToPCM(samples))
	if err != nil {
		return nil, fmt.Errorf("flac encode: %w", err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "audio.flac")
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(flacData); err != nil {
		return nil, err
	}

	writer.WriteField("model", "whisper-large-v3-turbo")
	writer.WriteField("response_format", "verbose_json")
	if g.lang != "" {
		writer.WriteField("language", g.lang)
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiURL, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("groq API error %d: %s", resp.StatusCode, string(data))
	}

	var gResp groqResponse
	if err := json.Unmarshal(data, &gResp); err != nil {
		return nil, fmt.Errorf("groq response parse error: %w", err)
	}

	remaining := firstNonEmpty(resp.Header, "x-ratelimit-remaining-requests")
	limit := firstNonEmpty(resp.Header, "x-ratelimit-limit-requests")
	log.Infof("groq rate limit %s/%s", remaining, limit)

	segments := make([]Segment, 0, len(gResp.Segments))
	for _, seg := range gResp.Segments {
		segments = append(segments, Segment{
			Text:         seg.Text,
			Start:        seg.Start,
			End:          seg.End,
			NoSpeechProb: seg.NoSpeechProb,
			AvgLogProb:   seg.AvgLogProb,
		})
	}

	return &Result{
		Text:     strings.TrimSpace(gResp.Text),
		Duration: gResp.Duration,
		Segments: segments,
	}, nil
}
