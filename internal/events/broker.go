// Package events carries run progress from the optimizer to whoever is
// listening. Publishing never blocks the optimizer: slow subscribers drop
// events.
package events

import (
	"sync"
	"time"
)

// Event types published by the engine.
const (
	RunStarted   = "run.started"
	RunReduced   = "run.reduced"
	RunSample    = "run.sample"
	RunCompleted = "run.completed"
	RunFailed    = "run.failed"
)

// Event is one progress notification for a run.
type Event struct {
	RunID string         `json:"runId"`
	Type  string         `json:"type"`
	Time  time.Time      `json:"ts"`
	Data  map[string]any `json:"data,omitempty"`
}

// Publisher accepts events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(evt Event)
}

// Broker fans events out to subscribers of a run id.
type Broker interface {
	Publisher
	Subscribe(runID string) chan Event
	Unsubscribe(runID string, ch chan Event)
}

// All subscribes to every run.
const All = "*"

// Memory is an in-process Broker.
type Memory struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{}
	buf  int
}

// NewMemory returns a Broker whose subscriber channels hold buf events.
func NewMemory(buf int) *Memory {
	if buf < 1 {
		buf = 8
	}
	return &Memory{subs: map[string]map[chan Event]struct{}{}, buf: buf}
}

func (b *Memory) Subscribe(runID string) chan Event {
	ch := make(chan Event, b.buf)
	b.mu.Lock()
	if b.subs[runID] == nil {
		b.subs[runID] = map[chan Event]struct{}{}
	}
	b.subs[runID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Memory) Unsubscribe(runID string, ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m := b.subs[runID]
	if _, ok := m[ch]; !ok {
		return
	}
	delete(m, ch)
	if len(m) == 0 {
		delete(b.subs, runID)
	}
	close(ch)
}

func (b *Memory) Publish(evt Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, key := range []string{evt.RunID, All} {
		for ch := range b.subs[key] {
			select {
			case ch <- evt:
			default:
			}
		}
	}
}

// Func adapts a function to Publisher.
type Func func(Event)

func (f Func) Publish(evt Event) { f(evt) }

// Multi publishes to each non-nil publisher in turn.
func Multi(pubs ...Publisher) Publisher {
	var out []Publisher
	for _, p := range pubs {
		if p != nil {
			out = append(out, p)
		}
	}
	if len(out) == 1 {
		return out[0]
	}
	return Func(func(evt Event) {
		for _, p := range out {
			p.Publish(evt)
		}
	})
}

// Discard drops every event.
var Discard Publisher = Func(func(Event) {})
