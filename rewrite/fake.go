package rewrite

import (
	"context"
	"sync"
)

// FakeRewriter returns a fixed transform and records inputs.
type FakeRewriter struct {
	mu     sync.Mutex
	inputs []string

	Result string
	Err    error
}

func NewFake(result string) *FakeRewriter {
	return &FakeRewriter{Result: result}
}

func (f *FakeRewriter) Rewrite(ctx context.Context, text string) (string, error) {
	f.mu.Lock()
	f.inputs = append(f.inputs, text)
	f.mu.Unlock()
	if f.Err != nil {
		return "", f.Err
	}
	return f.Result, nil
}

func (f *FakeRewriter) Inputs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.inputs))
	copy(out, f.inputs)
	return out
}
