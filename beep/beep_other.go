//go:build !linux

package beep

import (
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"
)

var (
	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device
	devOnce  sync.Once

	cueData atomic.Pointer[[]int16]
	cuePos  atomic.Uint32
	playMu  sync.Mutex
)

func initDevice() {
	if malgoCtx == nil {
		ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
		if err != nil {
			return
		}
		malgoCtx = ctx
	}

	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.Playback.Format = malgo.FormatS16
	config.Playback.Channels = 1
	config.SampleRate = cueSampleRate

	dev, err := malgo.InitDevice(malgoCtx.Context, config, malgo.DeviceCallbacks{
		Data: dataCallback,
	})
	if err != nil {
		malgoCtx.Uninit()
		malgoCtx = nil
		return
	}
	device = dev
}

func dataCallback(pOutput, _ []byte, frameCount uint32) {
	for i := range pOutput {
		pOutput[i] = 0
	}
	samples := cueData.Load()
	if samples == nil {
		return
	}
	pos := cuePos.Load()
	total := uint32(len(*samples))
	if pos >= total {
		cueData.Store(nil)
		return
	}
	n := frameCount
	if n > total-pos {
		n = total - pos
	}
	for i := uint32(0); i < n; i++ {
		s := (*samples)[pos+i]
		pOutput[i*2] = byte(s)
		pOutput[i*2+1] = byte(s >> 8)
	}
	cuePos.Store(pos + n)
}

func play(samples []int16) {
	devOnce.Do(initDevice)
	if device == nil || len(samples) == 0 {
		return
	}

	playMu.Lock()
	defer playMu.Unlock()

	device.Stop()
	cuePos.Store(0)
	cueData.Store(&samples)

	if err := device.Start(); err != nil {
		// Recreate after sleep/wake invalidated the device
		device.Uninit()
		device = nil
		initDevice()
		if device == nil || device.Start() != nil {
			cueData.Store(nil)
		}
	}
}
