package injector

import (
	"strings"
	"sync"
)

type OpKind int

const (
	OpType OpKind = iota
	OpDelete
	OpPunctuation
	OpNewLine
)

type Op struct {
	Kind  OpKind
	Text  string
	Punct rune
	Count int
}

// FakeInjector records every call for assertions. Err, when set, is returned
// by all methods.
type FakeInjector struct {
	mu  sync.Mutex
	ops []Op

	Err error
}

func NewFake() *FakeInjector {
	return &FakeInjector{}
}

func (f *FakeInjector) TypeText(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, Op{Kind: OpType, Text: text})
	return f.Err
}

func (f *FakeInjector) DeleteLastWords(count int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, Op{Kind: OpDelete, Count: count})
	return f.Err
}

func (f *FakeInjector) InsertPunctuation(ch rune) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, Op{Kind: OpPunctuation, Punct: ch})
	return f.Err
}

func (f *FakeInjector) InsertNewLine() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, Op{Kind: OpNewLine})
	return f.Err
}

// Ops returns a copy of all recorded operations in call order.
func (f *FakeInjector) Ops() []Op {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Op, len(f.ops))
	copy(out, f.ops)
	return out
}

// Typed concatenates all TypeText calls, which the consumer issues one rune
// at a time when pacing output.
func (f *FakeInjector) Typed() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var b strings.Builder
	for _, op := range f.ops {
		if op.Kind == OpType {
			b.WriteString(op.Text)
		}
	}
	return b.String()
}

func (f *FakeInjector) Reset() {
	f.mu.Lock()
	f.ops = nil
	f.mu.Unlock()
}
