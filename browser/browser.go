// Package browser is the boundary to the browser automation driver.
//
// A Driver launches Sessions. A Session owns exactly one browser process with one page
// and is closed exactly once. Element lookups come in two flavours:
//
//   - Find and Count apply the session wide implicit wait and report absence as
//     ErrNoSuchElement (Find) or zero (Count).
//   - WaitFor applies an explicit per call timeout for a Condition and reports the
//     result as an Outcome. A timeout is a TimedOut outcome, not an error.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/networkteam/sitecheck/locator"
)

var (
	// ErrNoSuchElement is returned when a required element cannot be resolved within the implicit wait.
	ErrNoSuchElement = errors.New("no such element")
	// ErrTimeout is returned by required waits (e.g. clicking) that did not meet their condition in time.
	ErrTimeout = errors.New("timed out waiting for condition")
	// ErrSessionClosed is returned by operations on a closed session.
	ErrSessionClosed = errors.New("session closed")
	// ErrUnknownDriver is returned by New for unregistered driver names.
	ErrUnknownDriver = errors.New("unknown driver")
	// ErrUnsupportedStrategy is returned when a backend cannot translate a locator strategy.
	ErrUnsupportedStrategy = errors.New("unsupported locator strategy")
)

// Condition is the state an element has to reach in WaitFor.
type Condition int

const (
	// Present waits for the element to be attached to the DOM.
	Present Condition = iota
	// Visible waits for the element to be rendered with a non-empty box.
	Visible
	// Clickable waits for the element to be visible and enabled.
	Clickable
)

func (c Condition) String() string {
	switch c {
	case Present:
		return "present"
	case Visible:
		return "visible"
	case Clickable:
		return "clickable"
	default:
		return fmt.Sprintf("Condition(%d)", int(c))
	}
}

// Outcome is the result of an explicit wait.
type Outcome int

const (
	// TimedOut means the condition was not met before the timeout.
	TimedOut Outcome = iota
	// Found means the condition was met.
	Found
)

func (o Outcome) String() string {
	if o == Found {
		return "found"
	}
	return "timed_out"
}

// WaitResult carries the outcome of WaitFor and, when Found, the matched element.
type WaitResult struct {
	Outcome Outcome
	Element Element
}

// Found reports whether the condition was met.
func (r WaitResult) Found() bool {
	return r.Outcome == Found && r.Element != nil
}

// Element is a transient handle to a resolved element.
// It is valid until the next navigation or DOM mutation and must not be stored.
type Element interface {
	// Attribute returns the attribute value and whether the attribute is present.
	Attribute(ctx context.Context, name string) (string, bool, error)
	// Displayed reports whether the element is currently rendered visibly.
	Displayed(ctx context.Context) (bool, error)
	// Text returns the text content of the element.
	Text(ctx context.Context) (string, error)
	// Click dispatches a click on the element.
	Click(ctx context.Context) error
}

// Session is a live browser instance with one page.
type Session interface {
	// ID identifies the session in logs and artifacts.
	ID() string
	// Navigate loads url and waits for the load event.
	Navigate(ctx context.Context, url string) error
	// Title returns the document title.
	Title(ctx context.Context) (string, error)
	// URL returns the current page URL.
	URL(ctx context.Context) (string, error)
	// Content returns the serialized DOM of the current page.
	Content(ctx context.Context) (string, error)
	// ScrollToBottom scrolls the window to the bottom of the document.
	ScrollToBottom(ctx context.Context) error
	// Find resolves the first element matching l, waiting up to the implicit wait.
	// It returns ErrNoSuchElement if nothing matched in time.
	Find(ctx context.Context, l locator.Locator) (Element, error)
	// Count returns the number of elements matching l. It waits up to the implicit wait
	// for at least one match and returns 0 if none appeared.
	Count(ctx context.Context, l locator.Locator) (int, error)
	// WaitFor waits up to timeout for the first element matching l to reach cond.
	// A timeout is reported as TimedOut with a nil error.
	WaitFor(ctx context.Context, l locator.Locator, cond Condition, timeout time.Duration) (WaitResult, error)
	// Screenshot captures the viewport as PNG.
	Screenshot(ctx context.Context) ([]byte, error)
	// Close releases the browser process. Subsequent calls return the first result.
	Close() error
}

// LaunchOptions configure a new session.
type LaunchOptions struct {
	// Headless runs the browser without a visible window.
	Headless bool
	// ImplicitWait bounds Find and Count. Default: 10s
	ImplicitWait time.Duration
	// WindowWidth and WindowHeight size the browser window. Default: 1920x1080
	WindowWidth  int
	WindowHeight int
	// Args are extra browser command line switches without leading dashes.
	Args []string
	// Logger receives session lifecycle logs. Default: slog.Default()
	Logger *slog.Logger
}

// DefaultArgs are the switches every session is started with.
var DefaultArgs = []string{
	"no-sandbox",
	"disable-dev-shm-usage",
	"start-maximized",
}

// DefaultLaunchOptions returns the launch options used when nothing is configured.
func DefaultLaunchOptions() LaunchOptions {
	return LaunchOptions{
		ImplicitWait: 10 * time.Second,
		WindowWidth:  1920,
		WindowHeight: 1080,
	}
}

func (o LaunchOptions) withDefaults() LaunchOptions {
	defaults := DefaultLaunchOptions()
	if o.ImplicitWait <= 0 {
		o.ImplicitWait = defaults.ImplicitWait
	}
	if o.WindowWidth <= 0 {
		o.WindowWidth = defaults.WindowWidth
	}
	if o.WindowHeight <= 0 {
		o.WindowHeight = defaults.WindowHeight
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

func (o LaunchOptions) args() []string {
	args := make([]string, 0, len(DefaultArgs)+len(o.Args))
	args = append(args, DefaultArgs...)
	return append(args, o.Args...)
}

// Driver launches sessions of one automation backend.
type Driver interface {
	Name() string
	Launch(ctx context.Context, opts LaunchOptions) (Session, error)
}

// Driver names accepted by New.
const (
	DriverPlaywright = "playwright"
	DriverChromedp   = "chromedp"
	DriverRod        = "rod"
)

// Drivers lists the names accepted by New.
func Drivers() []string {
	return []string{DriverPlaywright, DriverChromedp, DriverRod}
}

// New returns the driver registered under name.
func New(name string) (Driver, error) {
	switch name {
	case DriverPlaywright:
		return NewPlaywrightDriver(DefaultPlaywrightOptions()), nil
	case DriverChromedp:
		return NewChromedpDriver(), nil
	case DriverRod:
		return NewRodDriver(), nil
	default:
		return nil, fmt.Errorf("%w: %q (want one of %v)", ErrUnknownDriver, name, Drivers())
	}
}
