package dictation

import (
	"sync/atomic"
)

// frameSource sits between the audio driver callback and the processing
// loop. The driver delivers blocks of arbitrary size; push slices them into
// fixed frames and hands them to a bounded channel. push never blocks: when
// the channel is full the newest frame is dropped and counted, and odd-length
// blocks are dropped as malformed. Ingestion keeps running while a
// transcription call stalls the processing loop, bounded by the channel
// capacity.
type frameSource struct {
	frames    chan []int16
	frameSize int
	partial   []int16

	dropped   atomic.Uint64
	malformed atomic.Uint64
}

func newFrameSource(frameSize, capacity int) *frameSource {
	return &frameSource{
		frames:    make(chan []int16, capacity),
		frameSize: frameSize,
		partial:   make([]int16, 0, frameSize),
	}
}

// push runs on the driver's real-time thread. Only this method touches
// partial; drivers serialize their data callbacks.
func (s *frameSource) push(data []byte, _ uint32) {
	if len(data)%2 != 0 {
		s.malformed.Add(1)
		return
	}
	for i := 0; i+1 < len(data); i += 2 {
		s.partial = append(s.partial, int16(uint16(data[i])|uint16(data[i+1])<<8))
	}
	for len(s.partial) >= s.frameSize {
		frame := make([]int16, s.frameSize)
		copy(frame, s.partial[:s.frameSize])
		s.partial = s.partial[:copy(s.partial, s.partial[s.frameSize:])]
		select {
		case s.frames <- frame:
		default:
			s.dropped.Add(1)
		}
	}
}

// drain takes up to max queued frames without blocking.
func (s *frameSource) drain(max int) [][]int16 {
	var out [][]int16
	for len(out) < max {
		select {
		case f := <-s.frames:
			out = append(out, f)
		default:
			return out
		}
	}
	return out
}

// flushQueued empties the channel, for teardown and session start.
func (s *frameSource) flushQueued() {
	for {
		select {
		case <-s.frames:
		default:
			return
		}
	}
}

func (s *frameSource) counters() (dropped, malformed uint64) {
	return s.dropped.Load(), s.malformed.Load()
}
