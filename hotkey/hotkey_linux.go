//go:build linux

package hotkey

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// Chord is ctrl+shift+space. Events come straight from evdev instead of an
// X11 grab, so the chord stays invisible to the focused application and
// works on Wayland too.

const (
	evKey      = 1
	valPress   = 1
	valRelease = 0

	codeLCtrl  = 29
	codeLShift = 42
	codeSpace  = 57
	codeRShift = 54
	codeRCtrl  = 97
)

// struct input_event is 24 bytes on 64-bit kernels.
const inputEventSize = 24

type mod uint8

const (
	modCtrl mod = 1 << iota
	modShift
)

// chordState tracks one device's modifier and space key state. Autorepeat
// events (value 2) leave the state unchanged.
type chordState struct {
	held  mod
	space bool
}

// apply consumes one key event and reports a chord transition:
// +1 when the chord engages, -1 when space is let go, 0 otherwise.
func (s *chordState) apply(code uint16, value int32) int {
	var bit mod
	switch code {
	case codeLCtrl, codeRCtrl:
		bit = modCtrl
	case codeLShift, codeRShift:
		bit = modShift
	case codeSpace:
		switch {
		case value == valPress && !s.space && s.held == modCtrl|modShift:
			s.space = true
			return 1
		case value == valRelease && s.space:
			s.space = false
			return -1
		}
		return 0
	default:
		return 0
	}
	switch value {
	case valPress:
		s.held |= bit
	case valRelease:
		s.held &^= bit
	}
	return 0
}

type evdevHotkey struct {
	keydown chan struct{}
	keyup   chan struct{}
	devices []*os.File
	quit    chan struct{}
	once    sync.Once
}

func New() Hotkey {
	return &evdevHotkey{
		keydown: make(chan struct{}, 1),
		keyup:   make(chan struct{}, 1),
	}
}

func (h *evdevHotkey) Register() error {
	paths, err := keyboardDevices()
	if err != nil {
		return fmt.Errorf("scanning input devices: %w", err)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no keyboard devices found (is user in 'input' group?)")
	}

	h.quit = make(chan struct{})
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		h.devices = append(h.devices, f)
		go h.watch(f)
	}
	if len(h.devices) == 0 {
		return fmt.Errorf("could not open any keyboard device (run: sudo usermod -aG input $USER, then re-login)")
	}
	return nil
}

func (h *evdevHotkey) watch(f *os.File) {
	var state chordState
	buf := make([]byte, inputEventSize*16)
	for {
		n, err := f.Read(buf)
		if err != nil {
			return
		}
		select {
		case <-h.quit:
			return
		default:
		}
		for off := 0; off+inputEventSize <= n; off += inputEventSize {
			ev := buf[off : off+inputEventSize]
			if binary.LittleEndian.Uint16(ev[16:]) != evKey {
				continue
			}
			code := binary.LittleEndian.Uint16(ev[18:])
			value := int32(binary.LittleEndian.Uint32(ev[20:]))
			switch state.apply(code, value) {
			case 1:
				h.signal(h.keydown)
			case -1:
				h.signal(h.keyup)
			}
		}
	}
}

func (h *evdevHotkey) signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

func (h *evdevHotkey) Unregister() {
	h.once.Do(func() {
		if h.quit != nil {
			close(h.quit)
		}
		for _, f := range h.devices {
			f.Close()
		}
	})
}

func (h *evdevHotkey) Keydown() <-chan struct{} { return h.keydown }
func (h *evdevHotkey) Keyup() <-chan struct{}   { return h.keyup }

// keyboardDevices lists /dev/input/event* nodes whose key capability mask
// includes the space bar. Mice and headset buttons report key events too,
// but only real keyboards can produce the chord.
func keyboardDevices() ([]string, error) {
	entries, err := os.ReadDir("/dev/input")
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "event") {
			continue
		}
		if hasKeyBit(e.Name(), codeSpace) {
			paths = append(paths, filepath.Join("/dev/input", e.Name()))
		}
	}
	return paths, nil
}

// hasKeyBit checks one bit of the sysfs key capability bitmap. The file is
// whitespace-separated 64-bit hex words, most significant word first.
func hasKeyBit(eventName string, code uint) bool {
	raw, err := os.ReadFile(filepath.Join("/sys/class/input", eventName, "device", "capabilities", "key"))
	if err != nil {
		return false
	}
	words := strings.Fields(strings.TrimSpace(string(raw)))
	idx := len(words) - 1 - int(code/64)
	if idx < 0 {
		return false
	}
	word, err := strconv.ParseUint(words[idx], 16, 64)
	if err != nil {
		return false
	}
	return word&(1<<(code%64)) != 0
}
