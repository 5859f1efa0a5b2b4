package login

import (
	"context"
	"errors"
	"time"
)

// Condition reports whether the awaited page state holds. A nil error with
// false means "not yet"; errors wrapping ErrElementNotFound are treated the
// same way. Any other error stops the wait.
type Condition func(ctx context.Context) (bool, error)

// WaitFor polls cond every interval until it holds, returns a non-retryable
// error, or timeout elapses. On timeout it returns a *TimeoutError carrying
// the last retryable error seen. Cancellation of ctx is returned as is.
func WaitFor(ctx context.Context, timeout, interval time.Duration, what string, cond Condition) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last error
	for {
		ok, err := cond(ctx)
		switch {
		case err == nil && ok:
			return nil
		case err != nil && !errors.Is(err, ErrElementNotFound):
			return err
		}
		last = err

		if !time.Now().Before(deadline) {
			return &TimeoutError{What: what, After: timeout, Last: last}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// waitElement polls s.Find until loc matches an element.
func waitElement(ctx context.Context, s Session, loc Locator, timeout, interval time.Duration) (Element, error) {
	var el Element
	err := WaitFor(ctx, timeout, interval, loc.String(), func(ctx context.Context) (bool, error) {
		found, err := s.Find(ctx, loc)
		if err != nil {
			return false, err
		}
		el = found
		return true, nil
	})
	if err != nil {
		var te *TimeoutError
		if errors.As(err, &te) {
			return nil, &ElementNotFoundError{Locator: loc, Err: te}
		}
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, &SessionError{Op: "find " + loc.String(), Err: err}
	}
	return el, nil
}

// waitAny polls until one of locs matches and returns its index.
func waitAny(ctx context.Context, s Session, timeout, interval time.Duration, what string, locs ...Locator) (int, Element, error) {
	idx := -1
	var el Element
	err := WaitFor(ctx, timeout, interval, what, func(ctx context.Context) (bool, error) {
		for i, loc := range locs {
			found, err := s.Find(ctx, loc)
			if errors.Is(err, ErrElementNotFound) {
				continue
			}
			if err != nil {
				return false, err
			}
			idx, el = i, found
			return true, nil
		}
		return false, nil
	})
	return idx, el, err
}
