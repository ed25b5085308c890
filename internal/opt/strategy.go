package opt

import (
	"strings"

	"quboassign/internal/model"
)

// Strategy selects how candidate assignments are produced. It is resolved
// once per Optimize call.
type Strategy string

const (
	// StrategyAuto picks Samples, then Sampler, then Greedy by availability.
	StrategyAuto Strategy = "auto"
	// StrategySampler runs the engine's sampler against the Hamiltonian.
	StrategySampler Strategy = "sampler"
	// StrategySamples evaluates caller-supplied bitstrings.
	StrategySamples Strategy = "samples"
	// StrategyGreedy skips the QUBO and returns the classical baseline.
	StrategyGreedy Strategy = "greedy"
)

// ParseStrategy accepts the names above, case-insensitively. Empty means auto.
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(strings.ToLower(strings.TrimSpace(s))); st {
	case "":
		return StrategyAuto, nil
	case StrategyAuto, StrategySampler, StrategySamples, StrategyGreedy:
		return st, nil
	default:
		return "", model.ShapeErrorf("opt.ParseStrategy", "unknown strategy %q (allowed: auto, sampler, samples, greedy)", s)
	}
}

// resolveStrategy turns the requested strategy into a concrete one and
// explains the choice.
func resolveStrategy(want Strategy, haveSamples, haveSampler bool) (Strategy, string, error) {
	const op = "opt.Optimize"
	switch want {
	case StrategyAuto, "":
		switch {
		case haveSamples:
			return StrategySamples, "caller supplied samples", nil
		case haveSampler:
			return StrategySampler, "sampler configured", nil
		default:
			return StrategyGreedy, "no samples and no sampler", nil
		}
	case StrategySamples:
		if !haveSamples {
			return "", "", model.ShapeErrorf(op, "strategy %q requires at least one sample", want)
		}
		return want, "requested", nil
	case StrategySampler:
		if !haveSampler {
			return "", "", model.ShapeErrorf(op, "strategy %q requires a configured sampler", want)
		}
		return want, "requested", nil
	case StrategyGreedy:
		return want, "requested", nil
	default:
		return "", "", model.ShapeErrorf(op, "unknown strategy %q", want)
	}
}
