package audio

import (
	"os"
	"sync"
	"time"
)

const fakeBytesPerFrame = 2 // 16-bit mono

// FakeContext replays a WAV file through the CaptureDevice interface so the
// whole pipeline can run headless. In realtime mode the PCM is paced at the
// configured sample rate and followed by synthetic silence; otherwise the
// file is delivered as fast as the consumer accepts it.
type FakeContext struct {
	pcm      []byte
	realtime bool
}

func NewFakeContext(wavPath string, realtime bool) (*FakeContext, error) {
	data, err := os.ReadFile(wavPath)
	if err != nil {
		return nil, err
	}
	if len(data) > WAVHeaderSize {
		data = data[WAVHeaderSize:]
	}
	return &FakeContext{pcm: data, realtime: realtime}, nil
}

func (f *FakeContext) Devices() ([]DeviceInfo, error) { return nil, nil }
func (f *FakeContext) Close()                         {}

func (f *FakeContext) NewCapture(_ *DeviceInfo, cfg CaptureConfig) (CaptureDevice, error) {
	return &FakeCapture{
		pcm:        f.pcm,
		realtime:   f.realtime,
		sampleRate: int(cfg.SampleRate),
		chunkBytes: 1024 * fakeBytesPerFrame,
		audioDone:  make(chan struct{}),
	}, nil
}

type FakeCapture struct {
	pcm        []byte
	realtime   bool
	sampleRate int
	chunkBytes int
	audioDone  chan struct{}

	mu       sync.Mutex
	cb       DataCallback
	stopCh   chan struct{}
	feedDone chan struct{}
}

// AudioDone is closed once the WAV payload has been fully delivered.
func (f *FakeCapture) AudioDone() <-chan struct{} { return f.audioDone }

func (f *FakeCapture) SetCallback(cb DataCallback) {
	f.mu.Lock()
	f.cb = cb
	f.mu.Unlock()
}

func (f *FakeCapture) ClearCallback() {
	f.mu.Lock()
	f.cb = nil
	f.mu.Unlock()
}

func (f *FakeCapture) DeviceName() string { return "fake" }

func (f *FakeCapture) loadCallback() DataCallback {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cb
}

func (f *FakeCapture) feedChunk(cb DataCallback, pos int) int {
	end := min(pos+f.chunkBytes, len(f.pcm))
	chunk := make([]byte, end-pos)
	copy(chunk, f.pcm[pos:end])
	cb(chunk, uint32(len(chunk)/fakeBytesPerFrame))
	return end
}

func (f *FakeCapture) Start() error {
	f.stopCh = make(chan struct{})
	f.feedDone = make(chan struct{})
	// audioDone is NOT recreated here -- callers may already be waiting on it.
	// It's reset in Stop() for replay.

	if !f.realtime {
		if cb := f.loadCallback(); cb != nil {
			for pos := 0; pos < len(f.pcm); {
				pos = f.feedChunk(cb, pos)
			}
		}
		close(f.audioDone)

		go func() {
			defer close(f.feedDone)
			silence := make([]byte, f.chunkBytes)
			for {
				select {
				case <-f.stopCh:
					return
				case <-time.After(time.Millisecond):
				}
				if cb := f.loadCallback(); cb != nil {
					cb(silence, uint32(f.chunkBytes/fakeBytesPerFrame))
				}
			}
		}()
		return nil
	}

	interval := time.Duration(f.chunkBytes/fakeBytesPerFrame) * time.Second / time.Duration(f.sampleRate)
	go func() {
		defer close(f.feedDone)
		pos := 0
		silence := make([]byte, f.chunkBytes)
		audioFinished := false

		for {
			select {
			case <-f.stopCh:
				return
			default:
			}

			cb := f.loadCallback()
			if cb == nil {
				time.Sleep(time.Millisecond)
				continue
			}

			if pos < len(f.pcm) {
				pos = f.feedChunk(cb, pos)
			} else {
				if !audioFinished {
					audioFinished = true
					close(f.audioDone)
				}
				cb(silence, uint32(f.chunkBytes/fakeBytesPerFrame))
			}

			select {
			case <-f.stopCh:
				return
			case <-time.After(interval):
			}
		}
	}()

	return nil
}

func (f *FakeCapture) Stop() {
	select {
	case <-f.stopCh:
	default:
		close(f.stopCh)
	}
	if f.feedDone != nil {
		<-f.feedDone
	}
	f.audioDone = make(chan struct{}) // reset for replay
}

func (f *FakeCapture) Close() {}
