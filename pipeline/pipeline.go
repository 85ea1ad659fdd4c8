// Package pipeline runs tool calls through ordered stages: instrumentation,
// rate limiting, wire-contract validation and output sanitizing.
package pipeline

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrRateLimited = errors.New("rate limit exceeded")
	ErrContract    = errors.New("output violates document contract")
)

// Call is one tool invocation as seen by the stages.
type Call struct {
	Tool      string
	Caller    string
	RequestID string
	Arguments map[string]any
}

// Handler produces the result of a call.
type Handler func(ctx context.Context, call *Call) (any, error)

// Stage wraps a Handler.
type Stage func(next Handler) Handler

// Chain wraps h in stages. The first stage is outermost and runs first.
func Chain(h Handler, stages ...Stage) Handler {
	for i := len(stages) - 1; i >= 0; i-- {
		h = stages[i](h)
	}
	return h
}

// Admit rejects calls once the caller has used up its window.
func Admit(limiter *RateLimiter) Stage {
	return func(next Handler) Handler {
		return func(ctx context.Context, call *Call) (any, error) {
			if !limiter.Admit(call.Caller) {
				rateLimitedTotal.WithLabelValues(call.Tool).Inc()
				return nil, fmt.Errorf("%w: %d requests per minute", ErrRateLimited, limiter.limit)
			}
			return next(ctx, call)
		}
	}
}

// SanitizeOutput strips credential keys from the handler's result.
func SanitizeOutput() Stage {
	return func(next Handler) Handler {
		return func(ctx context.Context, call *Call) (any, error) {
			out, err := next(ctx, call)
			if err != nil {
				return nil, err
			}
			return SanitizeJSON(out)
		}
	}
}

// Validate checks successful results with check. Failures wrap ErrContract.
func Validate(check func(any) error) Stage {
	return func(next Handler) Handler {
		return func(ctx context.Context, call *Call) (any, error) {
			out, err := next(ctx, call)
			if err != nil {
				return nil, err
			}
			if err := check(out); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrContract, err)
			}
			return out, nil
		}
	}
}
