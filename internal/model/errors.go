package model

import (
	"errors"
	"fmt"
)

// ErrInputShape matches every *InputShapeError via errors.Is.
var ErrInputShape = errors.New("input shape")

// InputShapeError is fatal: the pipeline stops as soon as one is returned.
type InputShapeError struct {
	Op     string
	Detail string
}

func (e *InputShapeError) Error() string {
	return fmt.Sprintf("%s: invalid input: %s", e.Op, e.Detail)
}

func (e *InputShapeError) Is(target error) bool { return target == ErrInputShape }

// ShapeErrorf builds an InputShapeError for op.
func ShapeErrorf(op, format string, args ...any) error {
	return &InputShapeError{Op: op, Detail: fmt.Sprintf(format, args...)}
}

// WarningKind classifies non-fatal diagnostics attached to results.
type WarningKind string

const (
	// InfeasibleRepair: capacity repair left at least one warehouse over capacity.
	InfeasibleRepair WarningKind = "InfeasibleRepairWarning"
	// DegenerateInput: zero or no-variance costs; calibration used its floor.
	DegenerateInput WarningKind = "DegenerateInputWarning"
	// PenaltySaturated: the assignment penalty hit its ceiling and may not
	// dominate the costs.
	PenaltySaturated WarningKind = "PenaltySaturatedWarning"
	// SamplerFailed: the sampler errored or returned nothing.
	SamplerFailed WarningKind = "SamplerFailedWarning"
)

// Warning is a non-fatal diagnostic.
type Warning struct {
	Kind    WarningKind `json:"kind" yaml:"kind"`
	Message string      `json:"message" yaml:"message"`
}

func (w Warning) String() string { return string(w.Kind) + ": " + w.Message }

// Warnf builds a Warning.
func Warnf(kind WarningKind, format string, args ...any) Warning {
	return Warning{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// HasWarning reports whether ws contains a warning of the given kind.
func HasWarning(ws []Warning, kind WarningKind) bool {
	for _, w := range ws {
		if w.Kind == kind {
			return true
		}
	}
	return false
}
