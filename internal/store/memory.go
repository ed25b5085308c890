package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Memory keeps runs for the lifetime of the process. The CLI falls back to
// it when no database URL is configured.
type Memory struct {
	mu   sync.Mutex
	runs map[string]Run
}

func NewMemory() *Memory {
	return &Memory{runs: map[string]Run{}}
}

func (m *Memory) SaveRun(_ context.Context, run Run) error {
	if run.ID == "" {
		return fmt.Errorf("store: run id required")
	}
	m.mu.Lock()
	m.runs[run.ID] = run
	m.mu.Unlock()
	return nil
}

func (m *Memory) GetRun(_ context.Context, id string) (Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.runs[id]
	if !ok {
		return Run{}, ErrNotFound
	}
	return r, nil
}

func (m *Memory) ListRuns(_ context.Context, label string, limit int) ([]Run, error) {
	m.mu.Lock()
	out := make([]Run, 0, len(m.runs))
	for _, r := range m.runs {
		if label == "" || r.Label == label {
			out = append(out, r)
		}
	}
	m.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if n := clampLimit(limit); len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (m *Memory) Close() error { return nil }
