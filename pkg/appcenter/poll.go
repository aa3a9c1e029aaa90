package appcenter

import (
	"context"
	"time"
)

// DefaultPollInterval is the fixed delay between release processing polls.
const DefaultPollInterval = 2 * time.Second

// PollDecision classifies one polled value.
type PollDecision int

// Poll decisions.
const (
	// PollContinue means the value is not terminal; poll again.
	PollContinue PollDecision = iota
	// PollSucceeded means the value is terminal and the wait is over.
	PollSucceeded
	// PollFailed means the value is terminal and the wait failed.
	PollFailed
)

// PollFunc fetches the current value of the polled resource.
type PollFunc[T any] func(ctx context.Context) (T, error)

// PollClassifier maps a polled value to a decision. The error is returned to
// the caller when the decision is PollFailed.
type PollClassifier[T any] func(value T) (PollDecision, error)

// PollUntilDone polls fetch on a fixed interval until classify reports a
// terminal decision. The first fetch happens immediately. A fetch error is
// treated as "not ready yet" and polling continues, so transient read
// failures do not abort a long wait. The loop has no iteration cap; bound it
// through ctx.
func PollUntilDone[T any](ctx context.Context, interval time.Duration, fetch PollFunc[T], classify PollClassifier[T]) (T, error) {
	var zero T

	if interval <= 0 {
		interval = DefaultPollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		value, err := fetch(ctx)
		if err == nil {
			decision, classifyErr := classify(value)
			switch decision {
			case PollSucceeded:
				return value, nil
			case PollFailed:
				return zero, classifyErr
			case PollContinue:
			}
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-ticker.C:
		}
	}
}
