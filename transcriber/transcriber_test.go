package transcriber

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

func genTone(freq float64, durationMs int) []float32 {
	n := SampleRate * durationMs / 1000
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = float32(0.3 * math.Sin(2*math.Pi*freq*float64(i)/SampleRate))
	}
	return samples
}

func TestSamplesToPCMClamps(t *testing.T) {
	pcm := samplesToPCM([]float32{0, 0.5, 1.5, -1.5})
	if pcm[0] != 0 {
		t.Errorf("expected 0, got %d", pcm[0])
	}
	if pcm[2] != 32767 {
		t.Errorf("expected clamp to 32767, got %d", pcm[2])
	}
	if pcm[3] != -32767 {
		t.Errorf("expected clamp to -32767, got %d", pcm[3])
	}
}

func TestEncodeWAVHeader(t *testing.T) {
	pcm := make([]int16, 160)
	wav := encodeWAV(pcm, SampleRate)

	if len(wav) != 44+len(pcm)*2 {
		t.Fatalf("expected %d bytes, got %d", 44+len(pcm)*2, len(wav))
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		t.Errorf("bad RIFF header: %q %q", wav[0:4], wav[8:12])
	}
	if rate := binary.LittleEndian.Uint32(wav[24:28]); rate != SampleRate {
		t.Errorf("expected sample rate %d, got %d", SampleRate, rate)
	}
	if dataLen := binary.LittleEndian.Uint32(wav[40:44]); dataLen != uint32(len(pcm)*2) {
		t.Errorf("expected data length %d, got %d", len(pcm)*2, dataLen)
	}
}

func TestWhisperServerTranscribe(t *testing.T) {
	var gotFile []byte
	var gotLang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/inference" {
			w.WriteHeader(404)
			return
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing file part: %v", err)
			w.WriteHeader(400)
			return
		}
		gotFile, _ = io.ReadAll(f)
		gotLang = r.FormValue("language")
		w.Write([]byte(`{"text": " hello world \n"}`))
	}))
	defer srv.Close()

	eng := NewWhisperServer(srv.URL)
	eng.SetLanguage("en")

	res, err := eng.Transcribe(context.Background(), genTone(440, 100))
	if err != nil {
		t.Fatal(err)
	}
	if res.Text != "hello world" {
		t.Errorf("expected trimmed text, got %q", res.Text)
	}
	if gotLang != "en" {
		t.Errorf("expected language en, got %q", gotLang)
	}
	if !bytes.HasPrefix(gotFile, []byte("RIFF")) {
		t.Error("uploaded file is not WAV")
	}
}

func TestWhisperServerErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
		w.Write([]byte("model not loaded"))
	}))
	defer srv.Close()

	eng := NewWhisperServer(srv.URL)
	if _, err := eng.Transcribe(context.Background(), genTone(440, 20)); err == nil {
		t.Fatal("expected error on 500 response")
	}
}

func TestWhisperServerLoadProbe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
	}))
	eng := NewWhisperServer(srv.URL)
	if err := eng.Load(context.Background()); err != nil {
		t.Fatalf("load against live server: %v", err)
	}
	srv.Close()
	if err := eng.Load(context.Background()); err == nil {
		t.Fatal("expected load error against closed server")
	}
}

func TestGroqTranscribe(t *testing.T) {
	var gotAuth string
	var gotFile []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		f, _, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing file part: %v", err)
			w.WriteHeader(400)
			return
		}
		gotFile, _ = io.ReadAll(f)
		if model := r.FormValue("model"); model != "whisper-large-v3-turbo" {
			t.Errorf("unexpected model %q", model)
		}
		w.Write([]byte(`{"text": "testing one two", "duration": 1.5,
			"segments": [{"text": "testing one two", "start": 0, "end": 1.5, "no_speech_prob": 0.01, "avg_logprob": -0.2}]}`))
	}))
	defer srv.Close()

	eng := NewGroq("test-key")
	eng.apiURL = srv.URL

	res, err := eng.Transcribe(context.Background(), genTone(440, 100))
	if err != nil {
		t.Fatal(err)
	}
	if res.Text != "testing one two" {
		t.Errorf("unexpected text %q", res.Text)
	}
	if len(res.Segments) != 1 || res.Segments[0].NoSpeechProb != 0.01 {
		t.Errorf("unexpected segments %+v", res.Segments)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("unexpected auth header %q", gotAuth)
	}
	if !bytes.HasPrefix(gotFile, []byte("fLaC")) {
		t.Error("uploaded file is not FLAC")
	}
}

func TestGroqLoadRequiresKey(t *testing.T) {
	if err := NewGroq("").Load(context.Background()); err == nil {
		t.Fatal("expected error for empty key")
	}
}

func TestFakeEngineSequence(t *testing.T) {
	f := NewFake("first", "second")
	r1, _ := f.Transcribe(context.Background(), make([]float32, 100))
	r2, _ := f.Transcribe(context.Background(), make([]float32, 200))
	r3, _ := f.Transcribe(context.Background(), make([]float32, 300))
	if r1.Text != "first" || r2.Text != "second" || r3.Text != "" {
		t.Errorf("unexpected results %q %q %q", r1.Text, r2.Text, r3.Text)
	}
	calls := f.Calls()
	if len(calls) != 3 || calls[0] != 100 || calls[2] != 300 {
		t.Errorf("unexpected calls %v", calls)
	}
}
