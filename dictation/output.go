package dictation

import (
	"strings"
	"sync"
	"time"
)

type itemKind int

const (
	itemText itemKind = iota
	itemPunct
	itemNewLine
)

// outputItem is one unit of injection work: a text run, a single
// punctuation character, or a newline.
type outputItem struct {
	kind  itemKind
	text  string
	punct rune
}

// outputQueue is the FIFO between the classifier and the injection
// consumer. push wakes a blocked waiter; ordering is submission order.
type outputQueue struct {
	mu    sync.Mutex
	items []outputItem
	wake  chan struct{}
}

func newOutputQueue() *outputQueue {
	return &outputQueue{wake: make(chan struct{}, 1)}
}

func (q *outputQueue) push(item outputItem) {
	q.mu.Lock()
	q.items = append(q.items, item)
	q.mu.Unlock()
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *outputQueue) pop() (outputItem, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return outputItem{}, false
	}
	item := q.items[0]
	q.items = q.items[1:]
	return item, true
}

// wait blocks until push signals, the timeout lapses, or stop closes.
func (q *outputQueue) wait(timeout time.Duration, stop <-chan struct{}) {
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-q.wake:
	case <-t.C:
	case <-stop:
	}
}

func (q *outputQueue) clear() {
	q.mu.Lock()
	q.items = nil
	q.mu.Unlock()
}

func (q *outputQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// takeLastWords removes up to n trailing words from pending text items and
// returns them in reading order. Collection stops at the first punctuation
// or newline item from the tail, so a rewrite never reaches back across a
// structural boundary. Returns "" when nothing is pending.
func (q *outputQueue) takeLastWords(n int) string {
	q.mu.Lock()
	defer q.mu.Unlock()

	var taken []string
	need := n
	i := len(q.items) - 1
	for ; i >= 0 && need > 0; i-- {
		if q.items[i].kind != itemText {
			break
		}
		words := strings.Fields(q.items[i].text)
		take := need
		if take > len(words) {
			take = len(words)
		}
		tail := append([]string(nil), words[len(words)-take:]...)
		taken = append(tail, taken...)
		need -= take
		if take == len(words) {
			q.items = q.items[:i]
			continue
		}
		q.items[i].text = strings.Join(words[:len(words)-take], " ") + " "
		break
	}
	return strings.Join(taken, " ")
}
