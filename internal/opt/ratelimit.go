package opt

import (
	"context"

	"golang.org/x/time/rate"

	"quboassign/internal/qubo"
)

// RateLimited wraps s so calls are admitted by limiter. Remote samplers are
// usually metered per call; a waiting call gives up when ctx is done.
func RateLimited(s Sampler, limiter *rate.Limiter) Sampler {
	if limiter == nil {
		return s
	}
	return SamplerFunc(func(ctx context.Context, h *qubo.Hamiltonian, job SampleJob) ([]string, error) {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}
		return s.Sample(ctx, h, job)
	})
}

// NewLimiter returns a limiter for perSecond calls with the given burst, or
// nil when perSecond is not positive.
func NewLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}
