package dictation

import "errors"

// Failure classes for the pipeline. Fatal classes (audio device, model
// load, configuration) abort session start or force a stop; transcription
// and injection failures are recoverable and the session continues.
var (
	ErrAudioDevice   = errors.New("audio device error")
	ErrModelLoad     = errors.New("model load error")
	ErrTranscription = errors.New("transcription error")
	ErrInjection     = errors.New("injection error")
	ErrConfiguration = errors.New("configuration error")
)
