// Package store persists finished optimizer runs so results can be listed
// and compared after the process that produced them has exited.
package store

import (
	"context"
	"errors"
	"time"

	"quboassign/internal/model"
	"quboassign/internal/opt"
)

// ErrNotFound is returned when a run id is unknown.
var ErrNotFound = errors.New("store: run not found")

// Run is the persisted form of one optimizer result.
type Run struct {
	ID         string            `json:"id"`
	Label      string            `json:"label"`
	Strategy   string            `json:"strategy"`
	CreatedAt  time.Time         `json:"createdAt"`
	Aggregate  model.Aggregate   `json:"aggregate"`
	Variables  int               `json:"variables"`
	Assignment map[string]string `json:"assignment"`
	Warnings   []model.Warning   `json:"warnings,omitempty"`
	Duration   time.Duration     `json:"duration"`
}

// NewRun snapshots res under label.
func NewRun(label string, res *opt.Result) Run {
	assignment := make(map[string]string, len(res.Assignment))
	for c, w := range res.Assignment {
		assignment[c] = w
	}
	return Run{
		ID:         res.RunID,
		Label:      label,
		Strategy:   string(res.Strategy),
		CreatedAt:  time.Now().UTC(),
		Aggregate:  res.Aggregate,
		Variables:  res.Variables,
		Assignment: assignment,
		Warnings:   append([]model.Warning(nil), res.Warnings...),
		Duration:   res.Duration,
	}
}

// Store saves and reads runs. Implementations are safe for concurrent use.
type Store interface {
	SaveRun(ctx context.Context, run Run) error
	GetRun(ctx context.Context, id string) (Run, error)
	// ListRuns returns the newest runs first; an empty label matches all.
	ListRuns(ctx context.Context, label string, limit int) ([]Run, error)
	Close() error
}

// DefaultListLimit applies when ListRuns is called with limit <= 0.
const DefaultListLimit = 50

func clampLimit(limit int) int {
	if limit <= 0 || limit > 1000 {
		return DefaultListLimit
	}
	return limit
}
