package dictation

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"murmur/audio"
	"murmur/injector"
	"murmur/log"
	"murmur/rewrite"
	"murmur/transcriber"
)

type LifecycleState int32

const (
	Stopped LifecycleState = iota
	Starting
	Running
	Stopping
)

func (s LifecycleState) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	}
	return "unknown"
}

// joinTimeout bounds how long Stop waits for the processing and consumer
// goroutines to observe cancellation. A missed join is logged, not fatal.
const joinTimeout = 1500 * time.Millisecond

// Deps are the session's external collaborators. Capture, Engine and
// Injector are required; Rewriter is optional and only used by the rewrite
// voice command.
type Deps struct {
	Capture  audio.CaptureDevice
	Engine   transcriber.Engine
	Injector injector.Injector
	Rewriter rewrite.Rewriter
}

// Session owns the dictation pipeline: the frame source fed by the audio
// callback, the processing tick running the utterance machine and the
// blocking transcription call, and the output consumer pacing text into the
// injector. At most one transcription call is in flight at any time; audio
// keeps buffering in the frame channel while it runs.
type Session struct {
	cfg   Config
	deps  Deps
	vocab *Vocabulary

	state atomic.Int32

	// live-updatable configuration, read each tick
	threshold  atomicFloat64
	gain       atomicFloat64
	charDelay  atomic.Int64
	vadEnabled atomic.Bool
	ptt        atomic.Bool

	frames *frameSource
	queue  *outputQueue
	events chan Event

	mu       sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	stopCh   chan struct{}
	procDone chan struct{}
	consDone chan struct{}

	segments int
}

// NewSession validates cfg and builds a stopped session. Configuration
// problems are rejected here, before any resource is touched.
func NewSession(cfg Config, deps Deps) (*Session, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if deps.Capture == nil || deps.Engine == nil || deps.Injector == nil {
		return nil, fmt.Errorf("%w: capture, engine and injector are required", ErrConfiguration)
	}
	s := &Session{
		cfg:    cfg,
		deps:   deps,
		vocab:  NewVocabulary(cfg.FilterWords, cfg.NewLinePhrases),
		frames: newFrameSource(cfg.FrameSize, cfg.ChannelCapacity),
		queue:  newOutputQueue(),
		events: make(chan Event, 64),
	}
	s.threshold.Store(cfg.AmplitudeThreshold)
	s.gain.Store(cfg.Gain)
	s.charDelay.Store(int64(cfg.CharDelay))
	s.vadEnabled.Store(cfg.VADEnabled)
	return s, nil
}

// Events is the session's status stream. Best-effort delivery: slow readers
// lose events, the pipeline never blocks on them.
func (s *Session) Events() <-chan Event { return s.events }

func (s *Session) State() LifecycleState {
	return LifecycleState(s.state.Load())
}

// Start loads the engine, clears queues, spawns the consumer and processing
// goroutines, and opens the audio stream. On any failure the session is
// returned to Stopped with everything torn down.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if LifecycleState(s.state.Load()) != Stopped {
		return fmt.Errorf("%w: session is not stopped", ErrConfiguration)
	}
	s.state.Store(int32(Starting))

	if err := s.deps.Engine.Load(ctx); err != nil {
		s.state.Store(int32(Stopped))
		return fmt.Errorf("%w: %s: %s", ErrModelLoad, s.cfg.Model, err)
	}

	s.frames.flushQueued()
	s.queue.clear()
	s.segments = 0

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.stopCh = make(chan struct{})
	s.procDone = make(chan struct{})
	s.consDone = make(chan struct{})

	go s.consumeLoop()
	go s.processLoop()

	s.deps.Capture.SetCallback(s.frames.push)
	if err := s.deps.Capture.Start(); err != nil {
		s.deps.Capture.ClearCallback()
		s.cancel()
		close(s.stopCh)
		<-s.procDone
		<-s.consDone
		s.deps.Engine.Unload()
		s.state.Store(int32(Stopped))
		return fmt.Errorf("%w: %s", ErrAudioDevice, err)
	}

	s.state.Store(int32(Running))
	log.SessionStart(s.deps.Engine.Name(), s.cfg.Language)
	s.emit(Event{Kind: EventStatus, Text: Running.String()})
	return nil
}

// Stop is idempotent: calling it on a stopped or stopping session does
// nothing. Teardown order matters: the audio stream closes first so no new
// frames arrive, then both loops are cancelled and joined with a bounded
// wait, then queues drain and the engine unloads.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := LifecycleState(s.state.Load())
	if st == Stopped || st == Stopping {
		return
	}
	s.state.Store(int32(Stopping))

	s.deps.Capture.Stop()
	s.deps.Capture.ClearCallback()

	s.cancel()
	close(s.stopCh)

	deadline := time.NewTimer(joinTimeout)
	defer deadline.Stop()
	for _, done := range []chan struct{}{s.procDone, s.consDone} {
		select {
		case <-done:
		case <-deadline.C:
			log.Warn("pipeline goroutine did not stop within join timeout")
		}
	}

	s.frames.flushQueued()
	s.queue.clear()
	s.deps.Engine.Unload()

	dropped, malformed := s.frames.counters()
	if dropped > 0 || malformed > 0 {
		log.DroppedFrames(dropped, malformed)
	}
	log.SessionEnd(s.segments)

	s.state.Store(int32(Stopped))
	s.emit(Event{Kind: EventStatus, Text: Stopped.String()})
}

// Live reconfiguration, honored on the next processing tick.

func (s *Session) SetThreshold(v float64)       { s.threshold.Store(v) }
func (s *Session) SetGain(v float64)            { s.gain.Store(v) }
func (s *Session) SetCharDelay(d time.Duration) { s.charDelay.Store(int64(d)) }
func (s *Session) SetVADEnabled(on bool)        { s.vadEnabled.Store(on) }

// SetPTT asserts or releases push-to-talk. The edge is picked up by the
// next processing tick; a release flushes the buffered utterance.
func (s *Session) SetPTT(on bool) { s.ptt.Store(on) }

// DroppedFrames reports how many frames the driver callback discarded
// because the channel was full, and how many blocks were malformed.
func (s *Session) DroppedFrames() (dropped, malformed uint64) {
	return s.frames.counters()
}

func (s *Session) processLoop() {
	defer close(s.procDone)

	m := newMachine(s.cfg.silenceFrames(), s.vadEnabled.Load())
	pttPrev := false

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	var lastDropped uint64

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
		}

		if ptt := s.ptt.Load(); ptt != pttPrev {
			pttPrev = ptt
			s.dispatch(m.setPTT(ptt))
		}
		m.setVADEnabled(s.vadEnabled.Load())

		threshold := s.threshold.Load()
		gain := s.gain.Load()

		var raw, processed float64
		metered := false
		for _, frame := range s.frames.drain(s.cfg.MaxFramesPerTick) {
			raw = meanAbs(frame)
			applyGain(frame, gain)
			processed = raw
			if gain != 1.0 {
				processed = meanAbs(frame)
			}
			metered = true
			s.dispatch(m.feed(frame, processed > threshold))
		}
		if metered {
			s.emit(Event{Kind: EventLevel, Raw: raw, Processed: processed})
		}

		if dropped, _ := s.frames.counters(); dropped != lastDropped {
			log.Warnf("frame channel overflow, %d frames dropped", dropped-lastDropped)
			lastDropped = dropped
		}
	}
}

// dispatch runs one flushed segment through transcription and the
// classifier. It blocks the processing loop, so at most one transcription
// is ever in flight.
func (s *Session) dispatch(seg []int16) {
	if len(seg) == 0 {
		return
	}
	samples := normalize(seg)

	start := time.Now()
	res, err := s.deps.Engine.Transcribe(s.ctx, samples)
	latency := time.Since(start)
	if err != nil {
		if s.ctx.Err() != nil {
			return
		}
		log.Errorf("transcription failed: %v", err)
		s.emit(Event{Kind: EventError, Err: fmt.Errorf("%w: %s", ErrTranscription, err)})
		return
	}

	s.segments++
	audioS := float64(len(samples)) / float64(s.cfg.SampleRate)
	log.Segment(len(samples), audioS, latency.Seconds())

	if res.Text != "" {
		log.TranscriptionText(res.Text)
	}
	s.handleTranscript(res.Text)
}

func (s *Session) handleTranscript(text string) {
	cmd := s.vocab.Classify(text)
	switch cmd.Kind {
	case CmdFiltered:
		if cmd.Text != "" {
			log.Filtered(cmd.Text)
		}

	case CmdNewLine:
		s.queue.push(outputItem{kind: itemNewLine})
		log.Command(cmd.Kind.String(), 0)
		s.emit(Event{Kind: EventCommand, Text: cmd.Kind.String()})

	case CmdPunctuation:
		s.queue.push(outputItem{kind: itemPunct, punct: cmd.Punct})
		log.Command(cmd.Kind.String(), 0)
		s.emit(Event{Kind: EventCommand, Text: cmd.Kind.String()})

	case CmdDeleteWords:
		// Acts on the injector directly; nothing is enqueued.
		if err := s.deps.Injector.DeleteLastWords(cmd.Count); err != nil {
			log.Errorf("delete words failed: %v", err)
			s.emit(Event{Kind: EventError, Err: fmt.Errorf("%w: %s", ErrInjection, err)})
			return
		}
		log.Command(cmd.Kind.String(), cmd.Count)
		s.emit(Event{Kind: EventCommand, Text: cmd.Kind.String()})

	case CmdRewrite:
		s.rewriteLast(cmd.Count)

	case CmdPlainText:
		s.queue.push(outputItem{kind: itemText, text: cmd.Text})
		s.emit(Event{Kind: EventTranscript, Text: cmd.Text})
	}
}

// rewriteLast pulls the trailing words still pending in the output queue,
// rewrites them, and re-queues the result. Words already typed are out of
// reach; an empty queue makes the command a no-op.
func (s *Session) rewriteLast(count int) {
	if s.deps.Rewriter == nil {
		log.Warn("rewrite command ignored, no rewriter configured")
		return
	}
	words := s.queue.takeLastWords(count)
	if words == "" {
		log.Warn("rewrite command ignored, output queue is empty")
		return
	}
	out, err := s.deps.Rewriter.Rewrite(s.ctx, words)
	if err != nil {
		// Put the original words back so text is not silently lost.
		s.queue.push(outputItem{kind: itemText, text: words + " "})
		log.Errorf("rewrite failed: %v", err)
		s.emit(Event{Kind: EventError, Err: fmt.Errorf("%w: %s", ErrTranscription, err)})
		return
	}
	s.queue.push(outputItem{kind: itemText, text: out + " "})
	log.Command(CmdRewrite.String(), count)
	s.emit(Event{Kind: EventCommand, Text: CmdRewrite.String()})
}

// consumeLoop is the only writer to the injector. Item failures are logged
// and reported, never fatal to the loop.
func (s *Session) consumeLoop() {
	defer close(s.consDone)

	for {
		select {
		case <-s.stopCh:
			return
		default:
		}

		item, ok := s.queue.pop()
		if !ok {
			s.queue.wait(200*time.Millisecond, s.stopCh)
			continue
		}

		if s.cfg.OwnWindowProbe != nil && s.cfg.OwnWindowProbe() {
			log.InjectionSkipped()
			continue
		}

		var err error
		switch item.kind {
		case itemText:
			err = s.typeText(item.text)
		case itemPunct:
			err = s.deps.Injector.InsertPunctuation(item.punct)
		case itemNewLine:
			err = s.deps.Injector.InsertNewLine()
		}
		if err != nil {
			log.Errorf("injection failed: %v", err)
			s.emit(Event{Kind: EventError, Err: fmt.Errorf("%w: %s", ErrInjection, err)})
		}
	}
}

// typeText paces output one character at a time when a delay is set. The
// stop signal is honored between characters so shutdown is not held up by
// a long transcript.
func (s *Session) typeText(text string) error {
	delay := time.Duration(s.charDelay.Load())
	if delay <= 0 {
		return s.deps.Injector.TypeText(text)
	}
	for _, r := range text {
		if err := s.deps.Injector.TypeText(string(r)); err != nil {
			return err
		}
		select {
		case <-s.stopCh:
			return nil
		case <-time.After(delay):
		}
	}
	return nil
}

func (s *Session) emit(ev Event) {
	select {
	case s.events <- ev:
	default:
	}
}

// atomicFloat64 stores a float64 via its bit pattern.
type atomicFloat64 struct {
	bits atomic.Uint64
}

func (a *atomicFloat64) Store(v float64) { a.bits.Store(math.Float64bits(v)) }
func (a *atomicFloat64) Load() float64   { return math.Float64frombits(a.bits.Load()) }
