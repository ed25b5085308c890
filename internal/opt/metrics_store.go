package opt

import (
	"sort"
	"sync"
	"time"

	"quboassign/internal/model"
)

// Summary is the comparable outcome of one run.
type Summary struct {
	RunID     string          `json:"runId"`
	Label     string          `json:"label"`
	Strategy  Strategy        `json:"strategy"`
	Aggregate model.Aggregate `json:"aggregate"`
	Variables int             `json:"variables"`
	Warnings  int             `json:"warnings"`
	Duration  time.Duration   `json:"duration"`
}

type recordKey struct {
	Label    string
	Strategy Strategy
}

// Recorder keeps the latest Summary per (label, strategy). It is owned by
// the caller; the engine never writes to one on its own.
type Recorder struct {
	mu   sync.Mutex
	runs map[recordKey]Summary
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{runs: make(map[recordKey]Summary)}
}

// Record stores the summary of res under label.
func (r *Recorder) Record(label string, res *Result) {
	s := res.Summary(label)
	r.mu.Lock()
	r.runs[recordKey{Label: label, Strategy: s.Strategy}] = s
	r.mu.Unlock()
}

// Get returns every strategy recorded for label.
func (r *Recorder) Get(label string) map[Strategy]Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[Strategy]Summary{}
	for k, v := range r.runs {
		if k.Label == label {
			out[k.Strategy] = v
		}
	}
	return out
}

// Labels lists recorded labels in sorted order.
func (r *Recorder) Labels() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[string]struct{}{}
	for k := range r.runs {
		seen[k.Label] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for l := range seen {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}
