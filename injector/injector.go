// Package injector types text and edit actions into whatever window holds
// input focus. Two strategies exist: synthesizing one keystroke per
// character, or copying text to the clipboard and sending a paste chord.
// Keystroke injection preserves the focused application's undo history;
// clipboard paste is faster for long runs but clobbers the clipboard.
package injector

// Injector is the capability set the output consumer drives. Implementations
// operate on the currently focused window; callers are responsible for not
// injecting into the application's own window.
type Injector interface {
	TypeText(text string) error
	DeleteLastWords(count int) error
	InsertPunctuation(ch rune) error
	InsertNewLine() error
}
