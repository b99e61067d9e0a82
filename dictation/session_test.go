package dictation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"murmur/audio"
	"murmur/injector"
	"murmur/rewrite"
	"murmur/transcriber"
)

// testCapture stands in for the audio backend: feed pushes PCM through the
// registered callback the way a driver would.
type testCapture struct {
	mu       sync.Mutex
	cb       audio.DataCallback
	startErr error
}

func (c *testCapture) Start() error { return c.startErr }
func (c *testCapture) Stop()        {}
func (c *testCapture) Close()       {}

func (c *testCapture) SetCallback(cb audio.DataCallback) {
	c.mu.Lock()
	c.cb = cb
	c.mu.Unlock()
}

func (c *testCapture) ClearCallback() {
	c.mu.Lock()
	c.cb = nil
	c.mu.Unlock()
}

func (c *testCapture) DeviceName() string { return "test" }

func (c *testCapture) feed(samples []int16) {
	c.mu.Lock()
	cb := c.cb
	c.mu.Unlock()
	if cb != nil {
		cb(pcmBytes(samples), uint32(len(samples)))
	}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Model = "fake"
	cfg.TickInterval = 2 * time.Millisecond
	cfg.CharDelay = 0
	cfg.VADEnabled = false
	return cfg
}

type harness struct {
	session  *Session
	capture  *testCapture
	engine   *transcriber.FakeEngine
	injector *injector.FakeInjector
	rewriter *rewrite.FakeRewriter
}

func newHarness(t *testing.T, cfg Config, results ...string) *harness {
	t.Helper()
	h := &harness{
		capture:  &testCapture{},
		engine:   transcriber.NewFake(results...),
		injector: injector.NewFake(),
		rewriter: rewrite.NewFake("REWRITTEN"),
	}
	s, err := NewSession(cfg, Deps{
		Capture:  h.capture,
		Engine:   h.engine,
		Injector: h.injector,
		Rewriter: h.rewriter,
	})
	if err != nil {
		t.Fatal(err)
	}
	h.session = s
	return h
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func waitEvent(t *testing.T, s *Session, kind EventKind) Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-s.Events():
			if ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %v event", kind)
		}
	}
}

func TestSessionLifecycle(t *testing.T) {
	h := newHarness(t, testConfig())

	if h.session.State() != Stopped {
		t.Fatalf("new session should be stopped, is %v", h.session.State())
	}
	if err := h.session.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if h.session.State() != Running {
		t.Fatalf("expected running, got %v", h.session.State())
	}
	if !h.engine.Loaded() {
		t.Error("engine should be loaded while running")
	}

	h.session.Stop()
	if h.session.State() != Stopped {
		t.Fatalf("expected stopped, got %v", h.session.State())
	}
	if h.engine.Loaded() {
		t.Error("engine should be unloaded after stop")
	}

	// Idempotent: a second stop is a no-op.
	h.session.Stop()
	if h.session.State() != Stopped {
		t.Error("repeated stop changed state")
	}
}

func TestSessionRestart(t *testing.T) {
	h := newHarness(t, testConfig())
	if err := h.session.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	h.session.Stop()
	if err := h.session.Start(context.Background()); err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	h.session.Stop()
}

func TestSessionConfigValidation(t *testing.T) {
	cfg := testConfig()
	cfg.Model = ""
	_, err := NewSession(cfg, Deps{
		Capture:  &testCapture{},
		Engine:   transcriber.NewFake(),
		Injector: injector.NewFake(),
	})
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}

	_, err = NewSession(testConfig(), Deps{})
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected configuration error for missing deps, got %v", err)
	}
}

func TestSessionModelLoadFailure(t *testing.T) {
	h := newHarness(t, testConfig())
	h.engine.LoadErr = errors.New("no such model")

	err := h.session.Start(context.Background())
	if !errors.Is(err, ErrModelLoad) {
		t.Fatalf("expected model load error, got %v", err)
	}
	if h.session.State() != Stopped {
		t.Errorf("failed start must leave session stopped, is %v", h.session.State())
	}
}

func TestSessionAudioDeviceFailure(t *testing.T) {
	h := newHarness(t, testConfig())
	h.capture.startErr = errors.New("device busy")

	err := h.session.Start(context.Background())
	if !errors.Is(err, ErrAudioDevice) {
		t.Fatalf("expected audio device error, got %v", err)
	}
	if h.session.State() != Stopped {
		t.Errorf("failed start must leave session stopped, is %v", h.session.State())
	}
	if h.engine.Loaded() {
		t.Error("engine must be unloaded after failed start")
	}
}

func TestSessionPTTDictation(t *testing.T) {
	h := newHarness(t, testConfig(), "hello world")
	if err := h.session.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer h.session.Stop()

	h.session.SetPTT(true)
	time.Sleep(20 * time.Millisecond) // let the tick observe the press
	for i := 0; i < 3; i++ {
		h.capture.feed(frame(50))
	}
	time.Sleep(30 * time.Millisecond) // let the frames drain into the buffer
	h.session.SetPTT(false)

	waitFor(t, "typed transcript", func() bool {
		return h.injector.Typed() == "hello world "
	})

	// Sample conservation: the engine saw exactly the buffered frames.
	calls := h.engine.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 transcription, got %d", len(calls))
	}
	if want := 3 * DefaultFrameSize; calls[0] != want {
		t.Errorf("engine got %d samples, want %d", calls[0], want)
	}
}

func TestSessionVADDictation(t *testing.T) {
	cfg := testConfig()
	cfg.VADEnabled = true
	cfg.SilenceDuration = 100 * time.Millisecond // 5 frames at 20 ms
	h := newHarness(t, cfg, "ok")
	if err := h.session.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer h.session.Stop()

	for i := 0; i < 4; i++ {
		h.capture.feed(frame(800))
	}
	for i := 0; i < 8; i++ {
		h.capture.feed(frame(50))
	}

	waitFor(t, "vad segment transcribed", func() bool {
		return len(h.engine.Calls()) == 1
	})
	if got, want := h.engine.Calls()[0], 4*DefaultFrameSize; got != want {
		t.Errorf("engine got %d samples, want %d speech-only samples", got, want)
	}
}

func TestSessionTranscriptionErrorRecoverable(t *testing.T) {
	h := newHarness(t, testConfig())
	h.engine.TranscribeErr = errors.New("backend down")
	if err := h.session.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer h.session.Stop()

	h.session.SetPTT(true)
	time.Sleep(20 * time.Millisecond)
	h.capture.feed(frame(50))
	time.Sleep(30 * time.Millisecond)
	h.session.SetPTT(false)

	ev := waitEvent(t, h.session, EventError)
	if !errors.Is(ev.Err, ErrTranscription) {
		t.Errorf("expected transcription error, got %v", ev.Err)
	}
	if h.session.State() != Running {
		t.Errorf("recoverable error must not stop the session, state %v", h.session.State())
	}
}

func TestSessionCommandRouting(t *testing.T) {
	h := newHarness(t, testConfig())
	s := h.session

	// Punctuation goes through the queue as a single character item.
	s.handleTranscript("comma")
	item, ok := s.queue.pop()
	if !ok || item.kind != itemPunct || item.punct != ',' {
		t.Errorf("expected ',' item, got %+v ok=%v", item, ok)
	}

	// Newline likewise.
	s.handleTranscript("new line")
	item, ok = s.queue.pop()
	if !ok || item.kind != itemNewLine {
		t.Errorf("expected newline item, got %+v ok=%v", item, ok)
	}

	// Delete acts on the injector directly; the queue stays untouched.
	s.handleTranscript("delete last three words")
	if s.queue.len() != 0 {
		t.Errorf("delete enqueued %d items", s.queue.len())
	}
	ops := h.injector.Ops()
	if len(ops) != 1 || ops[0].Kind != injector.OpDelete || ops[0].Count != 3 {
		t.Errorf("expected DeleteLastWords(3), got %+v", ops)
	}

	// Plain text gains a trailing space.
	s.handleTranscript("hello world")
	item, ok = s.queue.pop()
	if !ok || item.kind != itemText || item.text != "hello world " {
		t.Errorf("expected text item, got %+v ok=%v", item, ok)
	}
}

func TestSessionFilterWordDiscarded(t *testing.T) {
	cfg := testConfig()
	cfg.FilterWords = []string{"thank you"}
	h := newHarness(t, cfg)
	s := h.session

	s.handleTranscript("Thank you")

	if s.queue.len() != 0 {
		t.Errorf("filtered transcript enqueued %d items", s.queue.len())
	}
	if len(h.injector.Ops()) != 0 {
		t.Error("filtered transcript reached the injector")
	}
	select {
	case ev := <-s.Events():
		t.Errorf("filtered transcript emitted event %+v", ev)
	default:
	}
}

func TestSessionRewrite(t *testing.T) {
	h := newHarness(t, testConfig())
	s := h.session

	s.handleTranscript("the quick brown fox")
	s.handleTranscript("rewrite last two words")

	if got := h.rewriter.Inputs(); len(got) != 1 || got[0] != "brown fox" {
		t.Fatalf("rewriter got %v, want [brown fox]", got)
	}

	first, _ := s.queue.pop()
	second, ok := s.queue.pop()
	if first.text != "the quick " {
		t.Errorf("leading words wrong: %q", first.text)
	}
	if !ok || second.text != "REWRITTEN " {
		t.Errorf("rewritten text wrong: %q ok=%v", second.text, ok)
	}
}

func TestSessionRewriteFailureRestoresWords(t *testing.T) {
	h := newHarness(t, testConfig())
	h.rewriter.Err = errors.New("ollama down")
	s := h.session

	s.handleTranscript("alpha beta")
	s.handleTranscript("rewrite last two words")

	item, ok := s.queue.pop()
	if !ok || item.text != "alpha beta " {
		t.Errorf("original words not restored, got %q ok=%v", item.text, ok)
	}
}

func TestSessionOwnWindowExclusion(t *testing.T) {
	cfg := testConfig()
	cfg.OwnWindowProbe = func() bool { return true }
	h := newHarness(t, cfg)
	if err := h.session.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer h.session.Stop()

	h.session.queue.push(outputItem{kind: itemText, text: "secret "})
	waitFor(t, "item consumed", func() bool {
		return h.session.queue.len() == 0
	})
	time.Sleep(10 * time.Millisecond)
	if len(h.injector.Ops()) != 0 {
		t.Error("injection must be skipped while own window is focused")
	}
}

func TestSessionInjectionErrorContinues(t *testing.T) {
	h := newHarness(t, testConfig())
	h.injector.Err = errors.New("uinput gone")
	if err := h.session.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer h.session.Stop()

	h.session.queue.push(outputItem{kind: itemNewLine})
	h.session.queue.push(outputItem{kind: itemPunct, punct: '.'})

	waitFor(t, "both items attempted", func() bool {
		return len(h.injector.Ops()) == 2
	})
	ev := waitEvent(t, h.session, EventError)
	if !errors.Is(ev.Err, ErrInjection) {
		t.Errorf("expected injection error, got %v", ev.Err)
	}
	if h.session.State() != Running {
		t.Errorf("injection failure must not stop the session, state %v", h.session.State())
	}
}

func TestSessionLiveSetters(t *testing.T) {
	h := newHarness(t, testConfig())

	h.session.SetThreshold(750)
	h.session.SetGain(2.5)
	h.session.SetCharDelay(3 * time.Millisecond)
	h.session.SetVADEnabled(true)

	if got := h.session.threshold.Load(); got != 750 {
		t.Errorf("threshold = %v", got)
	}
	if got := h.session.gain.Load(); got != 2.5 {
		t.Errorf("gain = %v", got)
	}
	if got := time.Duration(h.session.charDelay.Load()); got != 3*time.Millisecond {
		t.Errorf("char delay = %v", got)
	}
	if !h.session.vadEnabled.Load() {
		t.Error("vad enable not applied")
	}
}
