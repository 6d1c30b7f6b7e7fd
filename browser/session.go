package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/uuid"

	"github.com/networkteam/sitecheck/locator"
)

// pollInterval is used by backends that have to poll for a condition themselves.
const pollInterval = 100 * time.Millisecond

func newSessionID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// closer makes Close idempotent and lets operations detect a closed session.
type closer struct {
	once   sync.Once
	closed atomic.Bool
	err    error
}

func (c *closer) close(release func() error) error {
	c.once.Do(func() {
		c.closed.Store(true)
		c.err = release()
	})
	return c.err
}

func (c *closer) check(ctx context.Context) error {
	if c.closed.Load() {
		return ErrSessionClosed
	}
	return ctx.Err()
}

// boundedTimeout shortens d to the deadline of ctx, if that is earlier.
func boundedTimeout(ctx context.Context, d time.Duration) time.Duration {
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < d {
			return max(remaining, 0)
		}
	}
	return d
}

// pollCount calls count until it reports at least one match or timeout elapses.
func pollCount(ctx context.Context, timeout time.Duration, count func() (int, error)) (int, error) {
	deadline := time.Now().Add(timeout)
	for {
		n, err := count()
		if err != nil || n > 0 {
			return n, err
		}
		if !time.Now().Before(deadline) {
			return 0, nil
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(min(pollInterval, time.Until(deadline))):
		}
	}
}

// pollUntil calls check until it returns true or timeout elapses.
func pollUntil(ctx context.Context, timeout time.Duration, check func() (bool, error)) (bool, error) {
	deadline := time.Now().Add(timeout)
	for {
		ok, err := check()
		if err != nil || ok {
			return ok, err
		}
		if !time.Now().Before(deadline) {
			return false, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(min(pollInterval, time.Until(deadline))):
		}
	}
}

// isDeadline reports whether err stems from a context deadline, but not from the
// caller's own context being done.
func isDeadline(callerCtx context.Context, err error) bool {
	return errors.Is(err, context.DeadlineExceeded) && callerCtx.Err() == nil
}

// cssSelector translates locators that have a CSS form.
func cssSelector(l locator.Locator) (string, error) {
	switch l.Strategy {
	case locator.CSS, locator.TagName:
		return l.Selector, nil
	case locator.ID:
		return `[id="` + strings.ReplaceAll(l.Selector, `"`, `\"`) + `"]`, nil
	default:
		return "", fmt.Errorf("%w: %s has no CSS form", ErrUnsupportedStrategy, l.Strategy)
	}
}

// firstXPath restricts an XPath expression to its first match in document order.
func firstXPath(expr string) string {
	return "(" + expr + ")[1]"
}

const scrollToBottomJS = `() => window.scrollTo(0, document.body.scrollHeight)`
