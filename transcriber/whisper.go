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
)

// WhisperServer talks to a whisper.cpp server's /inference endpoint.
// Audio is uploaded as WAV; whisper.cpp does not accept FLAC.
type WhisperServer struct {
	baseURL string
	lang    string
	client  *http.Client
}

func NewWhisperServer(baseURL string) *WhisperServer {
	return &WhisperServer{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

func (w *WhisperServer) Name() string { return "whisper-server" }

func (w *WhisperServer) SetLanguage(lang string) { w.lang = lang }

// Load probes the server so a misconfigured URL fails at startup rather
// than on the first spoken segment.
func (w *WhisperServer) Load(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.baseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("whisper server unreachable at %s: %w", w.baseURL, err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return nil
}

func (w *WhisperServer) Unload() {
	w.client.CloseIdleConnections()
}

type whisperResponse struct {
	Text  string `json:"text"`
	Error string `json:"error"`
}

func (w *WhisperServer) Transcribe(ctx context.Context, samples []float32) (*Result, error) {
	wav := encodeWAV(samplesToPCM(samples), SampleRate)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "audio.wav")
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(wav); err != nil {
		return nil, err
	}

	writer.WriteField("temperature", "0.0")
	writer.WriteField("response_format", "json")
	if w.lang != "" {
		writer.WriteField("language", w.lang)
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.baseURL+"/inference", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("whisper server error %d: %s", resp.StatusCode, string(data))
	}

	var wResp whisperResponse
	if err := json.Unmarshal(data, &wResp); err != nil {
		return nil, fmt.Errorf("whisper response parse error: %w", err)
	}
	if wResp.Error != "" {
		return nil, fmt.Errorf("whisper server: %s", wResp.Error)
	}

	return &Result{
		Text:     strings.TrimSpace(wResp.Text),
		Duration: float64(len(samples)) / SampleRate,
	}, nil
}
