package core

import (
	"context"
	"fmt"
	"time"

	"github.com/mikey/contact-intake/internal/metrics"
)

// Stage names an external call made while processing a submission
type Stage string

const (
	StageClassify       Stage = "classify"
	StagePersonalize    Stage = "personalize"
	StageNotifyOperator Stage = "notify_operator"
	StageNotifySender   Stage = "notify_sender"
)

// FailurePolicy decides what a failed external call does to the run
type FailurePolicy int

const (
	// PolicyFatal ends the run; the error is returned to the caller
	PolicyFatal FailurePolicy = iota
	// PolicyContinue logs the failure and carries on
	PolicyContinue
	// PolicyFallback substitutes a fixed value and carries on
	PolicyFallback
)

func (p FailurePolicy) String() string {
	switch p {
	case PolicyFatal:
		return "fatal"
	case PolicyContinue:
		return "continue"
	case PolicyFallback:
		return "fallback"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// attempt runs op once under its own timeout. onFailure, when set, is called
// with every failure regardless of policy; only PolicyFatal propagates it.
func attempt(
	ctx context.Context,
	stage Stage,
	timeout time.Duration,
	policy FailurePolicy,
	op func(ctx context.Context) error,
	onFailure func(err error),
) error {
	callCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	err := runGuarded(callCtx, op)
	result := "success"
	if err != nil {
		result = "failure"
	}
	metrics.ExternalCallDuration.WithLabelValues(string(stage), result).Observe(time.Since(start).Seconds())

	if err == nil {
		return nil
	}
	if onFailure != nil {
		onFailure(err)
	}
	if policy == PolicyFatal {
		return fmt.Errorf("%s: %w", stage, err)
	}
	return nil
}

// runGuarded turns a panic inside an adapter into an ordinary failure
func runGuarded(ctx context.Context, op func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return op(ctx)
}
