package encoder

import (
	"bytes"
	"fmt"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
)

// FlacWriter streams mono 16-bit PCM into an in-memory FLAC file. Samples
// are accumulated into fixed blocks; a short final block is flushed by
// Finish. Not safe for concurrent use.
type FlacWriter struct {
	out     bytes.Buffer
	enc     *flac.Encoder
	pending []int16
	written uint64
}

func NewFlacWriter() (*FlacWriter, error) {
	w := &FlacWriter{}
	enc, err := flac.NewEncoder(&w.out, &meta.StreamInfo{
		BlockSizeMin:  BlockSize,
		BlockSizeMax:  BlockSize,
		SampleRate:    SampleRate,
		NChannels:     Channels,
		BitsPerSample: BitsPerSample,
	})
	if err != nil {
		return nil, fmt.Errorf("creating flac encoder: %w", err)
	}
	enc.EnablePredictionAnalysis(true)
	w.enc = enc
	return w, nil
}

// Write buffers samples and emits a frame for every full block.
func (w *FlacWriter) Write(samples []int16) error {
	w.pending = append(w.pending, samples...)
	for len(w.pending) >= BlockSize {
		if err := w.emit(w.pending[:BlockSize]); err != nil {
			return err
		}
		w.pending = w.pending[BlockSize:]
	}
	return nil
}

func (w *FlacWriter) emit(block []int16) error {
	widened := make([]int32, len(block))
	for i, s := range block {
		widened[i] = int32(s)
	}
	f := &frame.Frame{
		Header: frame.Header{
			BlockSize:     uint16(len(block)),
			SampleRate:    SampleRate,
			Channels:      frame.ChannelsMono,
			BitsPerSample: BitsPerSample,
		},
		Subframes: []*frame.Subframe{{
			SubHeader: frame.SubHeader{Pred: frame.PredVerbatim},
			Samples:   widened,
			NSamples:  len(block),
		}},
	}
	if err := w.enc.WriteFrame(f); err != nil {
		return fmt.Errorf("writing flac frame: %w", err)
	}
	w.written += uint64(len(block))
	return nil
}

// Finish flushes any short trailing block, closes the stream, and returns
// the complete FLAC file. The writer cannot be reused afterwards.
func (w *FlacWriter) Finish() ([]byte, error) {
	if len(w.pending) > 0 {
		if err := w.emit(w.pending); err != nil {
			return nil, err
		}
		w.pending = nil
	}
	if err := w.enc.Close(); err != nil {
		return nil, fmt.Errorf("closing flac stream: %w", err)
	}
	return w.out.Bytes(), nil
}

// SampleCount reports how many samples have been encoded into frames so far.
func (w *FlacWriter) SampleCount() uint64 {
	return w.written
}

// Compress is the one-shot path used for segment uploads.
func Compress(samples []int16) ([]byte, error) {
	w, err := NewFlacWriter()
	if err != nil {
		return nil, err
	}
	if err := w.Write(samples); err != nil {
		return nil, err
	}
	return w.Finish()
}
