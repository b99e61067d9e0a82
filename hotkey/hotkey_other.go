//go:build !linux

package hotkey

import (
	"sync"

	"golang.design/x/hotkey"
)

// xHotkey wraps the system-wide ctrl+shift+space registration. The library
// delivers events on its own channels; a forwarding goroutine decouples the
// consumer so a slow reader never backs up the library.
type xHotkey struct {
	hk      *hotkey.Hotkey
	keydown chan struct{}
	keyup   chan struct{}
	quit    chan struct{}
	once    sync.Once
}

func New() Hotkey {
	return &xHotkey{
		hk:      hotkey.New([]hotkey.Modifier{hotkey.ModCtrl, hotkey.ModShift}, hotkey.KeySpace),
		keydown: make(chan struct{}, 1),
		keyup:   make(chan struct{}, 1),
		quit:    make(chan struct{}),
	}
}

func (h *xHotkey) Register() error {
	if err := h.hk.Register(); err != nil {
		return err
	}
	go func() {
		for {
			select {
			case <-h.hk.Keydown():
				h.forward(h.keydown)
			case <-h.hk.Keyup():
				h.forward(h.keyup)
			case <-h.quit:
				return
			}
		}
	}()
	return nil
}

func (h *xHotkey) forward(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

func (h *xHotkey) Unregister() {
	h.once.Do(func() {
		close(h.quit)
		h.hk.Unregister()
	})
}

func (h *xHotkey) Keydown() <-chan struct{} { return h.keydown }
func (h *xHotkey) Keyup() <-chan struct{}   { return h.keyup }
