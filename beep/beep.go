// Package beep plays short audio cues marking recording start, recording
// stop, and errors. Cues are synthesized sine ticks with an exponential
// decay envelope; nothing is loaded from disk.
package beep

import (
	"math"
	"sync"
)

var disabled bool

// Disable silences all cues. Used in headless test mode.
func Disable() { disabled = true }

const cueSampleRate = 44100

var soundOnce sync.Once

// genCue produces a mono sine tick at freq with an exponential decay.
func genCue(freq, duration, volume, decay float64) []int16 {
	n := int(cueSampleRate * duration)
	samples := make([]int16, n)
	for i := range samples {
		t := float64(i) / cueSampleRate
		envelope := math.Exp(-t * decay)
		samples[i] = int16(math.Sin(2*math.Pi*freq*t) * 32767 * volume * envelope)
	}
	return samples
}

func genDoubleCue(freq, beepDur, gapDur, volume, decay float64) []int16 {
	tick := genCue(freq, beepDur, volume, decay)
	gap := make([]int16, int(cueSampleRate*gapDur))
	out := make([]int16, 0, len(tick)*2+len(gap))
	out = append(out, tick...)
	out = append(out, gap...)
	out = append(out, tick...)
	return out
}

var (
	startCue []int16
	endCue   []int16
	errorCue []int16
)

func initCues() {
	// Start is a short high tick, stop a slightly longer medium one,
	// errors a low double-buzz.
	startCue = genCue(1250, 0.15, 0.5, 60)
	endCue = genCue(880, 0.18, 0.5, 40)
	errorCue = genDoubleCue(330, 0.08, 0.05, 0.6, 30)
}

func PlayStart() {
	if disabled {
		return
	}
	soundOnce.Do(initCues)
	go play(startCue)
}

func PlayEnd() {
	if disabled {
		return
	}
	soundOnce.Do(initCues)
	go play(endCue)
}

func PlayError() {
	if disabled {
		return
	}
	soundOnce.Do(initCues)
	go play(errorCue)
}
