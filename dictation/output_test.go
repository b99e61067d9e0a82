package dictation

import (
	"testing"
	"time"
)

func TestOutputQueueFIFO(t *testing.T) {
	q := newOutputQueue()
	q.push(outputItem{kind: itemText, text: "one "})
	q.push(outputItem{kind: itemPunct, punct: ','})
	q.push(outputItem{kind: itemText, text: "two "})
	q.push(outputItem{kind: itemNewLine})

	want := []itemKind{itemText, itemPunct, itemText, itemNewLine}
	for i, k := range want {
		item, ok := q.pop()
		if !ok {
			t.Fatalf("queue empty at item %d", i)
		}
		if item.kind != k {
			t.Errorf("item %d: expected kind %v, got %v", i, k, item.kind)
		}
	}
	if _, ok := q.pop(); ok {
		t.Error("queue should be empty")
	}
}

func TestOutputQueueWaitWake(t *testing.T) {
	q := newOutputQueue()
	stop := make(chan struct{})

	done := make(chan struct{})
	go func() {
		q.wait(5*time.Second, stop)
		close(done)
	}()

	q.push(outputItem{kind: itemNewLine})
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("push did not wake waiter")
	}
}

func TestOutputQueueWaitStop(t *testing.T) {
	q := newOutputQueue()
	stop := make(chan struct{})

	done := make(chan struct{})
	go func() {
		q.wait(5*time.Second, stop)
		close(done)
	}()

	close(stop)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stop did not unblock waiter")
	}
}

func TestTakeLastWordsSingleItem(t *testing.T) {
	q := newOutputQueue()
	q.push(outputItem{kind: itemText, text: "the quick brown fox "})

	if got := q.takeLastWords(2); got != "brown fox" {
		t.Errorf("expected %q, got %q", "brown fox", got)
	}
	item, ok := q.pop()
	if !ok || item.text != "the quick " {
		t.Errorf("remainder wrong: %q", item.text)
	}
}

func TestTakeLastWordsSpansItems(t *testing.T) {
	q := newOutputQueue()
	q.push(outputItem{kind: itemText, text: "alpha beta "})
	q.push(outputItem{kind: itemText, text: "gamma "})

	if got := q.takeLastWords(2); got != "beta gamma" {
		t.Errorf("expected %q, got %q", "beta gamma", got)
	}
	if q.len() != 1 {
		t.Fatalf("expected 1 remaining item, got %d", q.len())
	}
	item, _ := q.pop()
	if item.text != "alpha " {
		t.Errorf("remainder wrong: %q", item.text)
	}
}

func TestTakeLastWordsWholeQueue(t *testing.T) {
	q := newOutputQueue()
	q.push(outputItem{kind: itemText, text: "only two "})

	if got := q.takeLastWords(10); got != "only two" {
		t.Errorf("expected everything, got %q", got)
	}
	if q.len() != 0 {
		t.Errorf("queue should be empty, has %d", q.len())
	}
}

func TestTakeLastWordsStopsAtBoundary(t *testing.T) {
	// Collection never crosses a punctuation or newline item.
	q := newOutputQueue()
	q.push(outputItem{kind: itemText, text: "before "})
	q.push(outputItem{kind: itemPunct, punct: '.'})
	q.push(outputItem{kind: itemText, text: "after "})

	if got := q.takeLastWords(5); got != "after" {
		t.Errorf("expected %q, got %q", "after", got)
	}
	if q.len() != 2 {
		t.Errorf("expected text+punct to remain, got %d items", q.len())
	}
}

func TestTakeLastWordsEmpty(t *testing.T) {
	q := newOutputQueue()
	if got := q.takeLastWords(3); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}
