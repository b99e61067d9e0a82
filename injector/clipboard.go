package injector

import (
	"github.com/atotto/clipboard"
)

// ClipboardInjector puts text on the system clipboard and sends a paste
// chord instead of typing each character. Much faster for long transcripts
// at the cost of overwriting the user's clipboard. Edit operations still go
// through the keystroke injector.
type ClipboardInjector struct {
	keys Injector
}

func NewClipboard(keys Injector) *ClipboardInjector {
	return &ClipboardInjector{keys: keys}
}

func (c *ClipboardInjector) TypeText(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return err
	}
	return pasteChord()
}

func (c *ClipboardInjector) DeleteLastWords(count int) error {
	return c.keys.DeleteLastWords(count)
}

func (c *ClipboardInjector) InsertPunctuation(ch rune) error {
	return c.keys.InsertPunctuation(ch)
}

func (c *ClipboardInjector) InsertNewLine() error {
	return c.keys.InsertNewLine()
}
