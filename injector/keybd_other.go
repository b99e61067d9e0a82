//go:build !linux

package injector

import (
	"fmt"
	"sync"

	"github.com/micmonay/keybd_event"
)

var (
	kb     keybd_event.KeyBonding
	kbOnce sync.Once
	kbErr  error
)

func initKeybd() error {
	kbOnce.Do(func() {
		kb, kbErr = keybd_event.NewKeyBonding()
	})
	return kbErr
}

type vk struct {
	code  int
	shift bool
}

var vkLetters = [26]int{
	keybd_event.VK_A, keybd_event.VK_B, keybd_event.VK_C, keybd_event.VK_D,
	keybd_event.VK_E, keybd_event.VK_F, keybd_event.VK_G, keybd_event.VK_H,
	keybd_event.VK_I, keybd_event.VK_J, keybd_event.VK_K, keybd_event.VK_L,
	keybd_event.VK_M, keybd_event.VK_N, keybd_event.VK_O, keybd_event.VK_P,
	keybd_event.VK_Q, keybd_event.VK_R, keybd_event.VK_S, keybd_event.VK_T,
	keybd_event.VK_U, keybd_event.VK_V, keybd_event.VK_W, keybd_event.VK_X,
	keybd_event.VK_Y, keybd_event.VK_Z,
}

var vkDigits = [10]int{
	keybd_event.VK_0, keybd_event.VK_1, keybd_event.VK_2, keybd_event.VK_3,
	keybd_event.VK_4, keybd_event.VK_5, keybd_event.VK_6, keybd_event.VK_7,
	keybd_event.VK_8, keybd_event.VK_9,
}

// VK_SP1..VK_SP11 are the library's portable names for the punctuation row,
// identical across the windows and darwin keycode tables.
var vkPunct = map[byte]vk{
	'-': {keybd_event.VK_SP1, false}, '=': {keybd_event.VK_SP2, false},
	'[': {keybd_event.VK_SP3, false}, ']': {keybd_event.VK_SP4, false},
	';': {keybd_event.VK_SP5, false}, '\'': {keybd_event.VK_SP6, false},
	'`': {keybd_event.VK_SP7, false}, '\\': {keybd_event.VK_SP8, false},
	',': {keybd_event.VK_SP9, false}, '.': {keybd_event.VK_SP10, false},
	'/': {keybd_event.VK_SP11, false},
	'!': {keybd_event.VK_1, true}, '@': {keybd_event.VK_2, true},
	'#': {keybd_event.VK_3, true}, '$': {keybd_event.VK_4, true},
	'%': {keybd_event.VK_5, true}, '^': {keybd_event.VK_6, true},
	'&': {keybd_event.VK_7, true}, '*': {keybd_event.VK_8, true},
	'(': {keybd_event.VK_9, true}, ')': {keybd_event.VK_0, true},
	'_': {keybd_event.VK_SP1, true}, '+': {keybd_event.VK_SP2, true},
	'{': {keybd_event.VK_SP3, true}, '}': {keybd_event.VK_SP4, true},
	':': {keybd_event.VK_SP5, true}, '"': {keybd_event.VK_SP6, true},
	'~': {keybd_event.VK_SP7, true}, '|': {keybd_event.VK_SP8, true},
	'<': {keybd_event.VK_SP9, true}, '>': {keybd_event.VK_SP10, true},
	'?': {keybd_event.VK_SP11, true},
}

func charToVK(c byte) (vk, bool) {
	switch {
	case c >= 'a' && c <= 'z':
		return vk{vkLetters[c-'a'], false}, true
	case c >= 'A' && c <= 'Z':
		return vk{vkLetters[c-'A'], true}, true
	case c >= '0' && c <= '9':
		return vk{vkDigits[c-'0'], false}, true
	case c == ' ':
		return vk{keybd_event.VK_SPACE, false}, true
	case c == '\n':
		return vk{keybd_event.VK_ENTER, false}, true
	case c == '\t':
		return vk{keybd_event.VK_TAB, false}, true
	}
	k, ok := vkPunct[c]
	return k, ok
}

func tapVK(k vk) error {
	kb.Clear()
	kb.SetKeys(k.code)
	kb.HasSHIFT(k.shift)
	return kb.Launching()
}

type keybdInjector struct{}

// NewKeystroke returns the per-character keystroke injector for this platform.
func NewKeystroke() (Injector, error) {
	if err := initKeybd(); err != nil {
		return nil, err
	}
	return &keybdInjector{}, nil
}

func (j *keybdInjector) TypeText(text string) error {
	for i := 0; i < len(text); i++ {
		k, ok := charToVK(text[i])
		if !ok {
			continue // skip unsupported characters
		}
		if err := tapVK(k); err != nil {
			return err
		}
	}
	return nil
}

func (j *keybdInjector) InsertPunctuation(ch rune) error {
	if ch > 127 {
		return fmt.Errorf("unsupported punctuation %q", ch)
	}
	k, ok := charToVK(byte(ch))
	if !ok {
		return fmt.Errorf("unsupported punctuation %q", ch)
	}
	return tapVK(k)
}

func (j *keybdInjector) InsertNewLine() error {
	return tapVK(vk{keybd_event.VK_ENTER, false})
}

func (j *keybdInjector) DeleteLastWords(count int) error {
	for i := 0; i < count; i++ {
		kb.Clear()
		kb.SetKeys(keybd_event.VK_LEFT)
		kb.HasCTRL(true)
		kb.HasSHIFT(true)
		if err := kb.Launching(); err != nil {
			return err
		}
	}
	kb.Clear()
	kb.SetKeys(keybd_event.VK_DELETE)
	return kb.Launching()
}

// pasteChord sends the platform paste shortcut.
func pasteChord() error {
	if err := initKeybd(); err != nil {
		return err
	}
	kb.Clear()
	kb.SetKeys(keybd_event.VK_V)
	kb.HasCTRL(true)
	return kb.Launching()
}
