// Package hotkey delivers global push-to-talk press/release events,
// independent of the audio pipeline's threading.
package hotkey

type Hotkey interface {
	Register() error
	Unregister()
	Keydown() <-chan struct{}
	Keyup() <-chan struct{}
}
