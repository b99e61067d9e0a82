package dictation

// RecordingState is the mode the utterance machine is in. Exactly one
// state is active; push-to-talk always wins over voice activation.
type RecordingState int

const (
	Idle RecordingState = iota
	RecordingPTT
	RecordingVAD
)

func (s RecordingState) String() string {
	switch s {
	case Idle:
		return "idle"
	case RecordingPTT:
		return "recording-ptt"
	case RecordingVAD:
		return "recording-vad"
	}
	return "unknown"
}

// machine decides utterance boundaries. It is owned by the processing
// goroutine and deliberately free of locks and time: state transitions are
// a pure function of the frame/speech trace and the PTT edge sequence,
// which is what makes the tests below table-driven.
type machine struct {
	state         RecordingState
	silenceFrames int
	silence       int
	buf           []int16
	vadEnabled    bool
	ptt           bool
}

func newMachine(silenceFrames int, vadEnabled bool) *machine {
	return &machine{silenceFrames: silenceFrames, vadEnabled: vadEnabled}
}

// setPTT applies a press or release edge. A release flushes whatever is
// buffered regardless of amplitude; the returned segment is nil otherwise.
// Pressing while a VAD utterance is open keeps its frames, so speech that
// started just before the key went down is not lost.
func (m *machine) setPTT(on bool) []int16 {
	if on == m.ptt {
		return nil
	}
	m.ptt = on
	m.silence = 0
	if on {
		if m.state == Idle {
			m.buf = m.buf[:0]
		}
		m.state = RecordingPTT
		return nil
	}
	m.state = Idle
	return m.takeBuffer()
}

// setVADEnabled aborts an open VAD utterance when turned off; the buffer
// is discarded, not flushed.
func (m *machine) setVADEnabled(on bool) {
	if on == m.vadEnabled {
		return
	}
	m.vadEnabled = on
	if !on && m.state == RecordingVAD {
		m.state = Idle
		m.silence = 0
		m.buf = nil
	}
}

// feed consumes one frame. speech is the caller's amplitude-vs-threshold
// verdict. The returned segment is non-nil exactly when this frame closed
// an utterance.
//
// Below-threshold frames are counted but never appended, so a flushed
// segment holds only speech-qualifying frames and no trailing hangover
// silence.
func (m *machine) feed(frame []int16, speech bool) []int16 {
	if m.ptt {
		m.state = RecordingPTT
		m.buf = append(m.buf, frame...)
		m.silence = 0
		return nil
	}
	if !m.vadEnabled {
		return nil
	}
	switch m.state {
	case Idle:
		if speech {
			m.state = RecordingVAD
			m.buf = m.buf[:0]
			m.buf = append(m.buf, frame...)
			m.silence = 0
		}
	case RecordingVAD:
		if speech {
			m.buf = append(m.buf, frame...)
			m.silence = 0
		} else {
			m.silence++
			if m.silence > m.silenceFrames {
				m.state = Idle
				m.silence = 0
				return m.takeBuffer()
			}
		}
	case RecordingPTT:
		// PTT released out of band; release edges flush via setPTT.
		m.state = Idle
	}
	return nil
}

func (m *machine) takeBuffer() []int16 {
	if len(m.buf) == 0 {
		return nil
	}
	seg := m.buf
	m.buf = nil
	return seg
}

// meanAbs is the amplitude measure: mean absolute sample value.
func meanAbs(frame []int16) float64 {
	if len(frame) == 0 {
		return 0
	}
	var sum float64
	for _, s := range frame {
		if s < 0 {
			sum -= float64(s)
		} else {
			sum += float64(s)
		}
	}
	return sum / float64(len(frame))
}

// applyGain scales samples in place, clamping at the int16 limits.
func applyGain(frame []int16, gain float64) {
	if gain == 1.0 {
		return
	}
	for i, s := range frame {
		v := float64(s) * gain
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		frame[i] = int16(v)
	}
}

// normalize converts a segment to float samples in [-1, 1] for the engine.
func normalize(seg []int16) []float32 {
	out := make([]float32, len(seg))
	for i, s := range seg {
		out[i] = float32(s) / 32768
	}
	return out
}
