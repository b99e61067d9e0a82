package transcriber

import (
	"context"
	"sync"
)

// FakeEngine returns canned results and records every call, for pipeline
// tests that must not reach the network.
type FakeEngine struct {
	mu      sync.Mutex
	calls   []int
	results []string
	next    int

	LoadErr       error
	TranscribeErr error
	Delay         func() // called inside Transcribe while holding no locks
	loaded        bool
}

func NewFake(results ...string) *FakeEngine {
	return &FakeEngine{results: results}
}

func (f *FakeEngine) Name() string { return "fake" }

func (f *FakeEngine) SetLanguage(string) {}

func (f *FakeEngine) Load(ctx context.Context) error {
	if f.LoadErr != nil {
		return f.LoadErr
	}
	f.mu.Lock()
	f.loaded = true
	f.mu.Unlock()
	return nil
}

func (f *FakeEngine) Unload() {
	f.mu.Lock()
	f.loaded = false
	f.mu.Unlock()
}

func (f *FakeEngine) Transcribe(ctx context.Context, samples []float32) (*Result, error) {
	if f.Delay != nil {
		f.Delay()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, len(samples))
	if f.TranscribeErr != nil {
		return nil, f.TranscribeErr
	}
	text := ""
	if f.next < len(f.results) {
		text = f.results[f.next]
		f.next++
	}
	return &Result{Text: text, Duration: float64(len(samples)) / SampleRate}, nil
}

// Calls returns the sample count of each Transcribe call in order.
func (f *FakeEngine) Calls() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *FakeEngine) Loaded() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loaded
}
