package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/networkteam/sitecheck/locator"
)

// PlaywrightOptions configure the playwright backend.
type PlaywrightOptions struct {
	// Browser is one of "chromium", "firefox" or "webkit". Default: chromium
	Browser string
	// RunOptions are passed to playwright.Run. Default: nil
	RunOptions *playwright.RunOptions
}

// DefaultPlaywrightOptions returns options launching Chromium.
func DefaultPlaywrightOptions() PlaywrightOptions {
	return PlaywrightOptions{Browser: "chromium"}
}

// PlaywrightDriver launches sessions with playwright-go. Every session runs its own
// playwright driver process and browser.
type PlaywrightDriver struct {
	options PlaywrightOptions
}

// NewPlaywrightDriver creates a playwright backed driver.
func NewPlaywrightDriver(options PlaywrightOptions) *PlaywrightDriver {
	if options.Browser == "" {
		options.Browser = "chromium"
	}
	return &PlaywrightDriver{options: options}
}

func (d *PlaywrightDriver) Name() string {
	return DriverPlaywright
}

func (d *PlaywrightDriver) Launch(ctx context.Context, opts LaunchOptions) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	var runOptions []*playwright.RunOptions
	if d.options.RunOptions != nil {
		runOptions = append(runOptions, d.options.RunOptions)
	}
	pw, err := playwright.Run(runOptions...)
	if err != nil {
		return nil, fmt.Errorf("starting playwright: %w", err)
	}

	browserType, err := d.browserType(pw)
	if err != nil {
		_ = pw.Stop()
		return nil, err
	}

	args := make([]string, 0, len(opts.args()))
	for _, arg := range opts.args() {
		args = append(args, "--"+arg)
	}
	browser, err := browserType.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args:     args,
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launching %s: %w", d.options.Browser, err)
	}

	browserCtx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{Width: opts.WindowWidth, Height: opts.WindowHeight},
	})
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("creating browser context: %w", err)
	}
	browserCtx.SetDefaultTimeout(milliseconds(opts.ImplicitWait))

	page, err := browserCtx.NewPage()
	if err != nil {
		_ = browserCtx.Close()
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("opening page: %w", err)
	}

	s := &playwrightSession{
		id:           newSessionID(),
		pw:           pw,
		browser:      browser,
		browserCtx:   browserCtx,
		page:         page,
		implicitWait: opts.ImplicitWait,
	}
	s.logger = opts.Logger.With(slog.String("session_id", s.id), slog.String("driver", DriverPlaywright))
	s.logger.Debug("Session launched", slog.Bool("headless", opts.Headless), slog.String("browser", d.options.Browser))

	return s, nil
}

func (d *PlaywrightDriver) browserType(pw *playwright.Playwright) (playwright.BrowserType, error) {
	switch d.options.Browser {
	case "chromium":
		return pw.Chromium, nil
	case "firefox":
		return pw.Firefox, nil
	case "webkit":
		return pw.WebKit, nil
	default:
		return nil, fmt.Errorf("unknown playwright browser %q", d.options.Browser)
	}
}

type playwrightSession struct {
	id         string
	pw         *playwright.Playwright
	browser    playwright.Browser
	browserCtx playwright.BrowserContext
	page       playwright.Page
	logger     *slog.Logger

	implicitWait time.Duration
	closer       closer
}

var _ Session = (*playwrightSession)(nil)

func (s *playwrightSession) ID() string {
	return s.id
}

func (s *playwrightSession) Navigate(ctx context.Context, url string) error {
	if err := s.closer.check(ctx); err != nil {
		return err
	}
	s.logger.Debug("Navigating", slog.String("url", url))
	_, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
	})
	if err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	return nil
}

func (s *playwrightSession) Title(ctx context.Context) (string, error) {
	if err := s.closer.check(ctx); err != nil {
		return "", err
	}
	return s.page.Title()
}

func (s *playwrightSession) URL(ctx context.Context) (string, error) {
	if err := s.closer.check(ctx); err != nil {
		return "", err
	}
	return s.page.URL(), nil
}

func (s *playwrightSession) Content(ctx context.Context) (string, error) {
	if err := s.closer.check(ctx); err != nil {
		return "", err
	}
	return s.page.Content()
}

func (s *playwrightSession) ScrollToBottom(ctx context.Context) error {
	if err := s.closer.check(ctx); err != nil {
		return err
	}
	_, err := s.page.Evaluate(scrollToBottomJS)
	return err
}

func (s *playwrightSession) Find(ctx context.Context, l locator.Locator) (Element, error) {
	if err := s.closer.check(ctx); err != nil {
		return nil, err
	}
	loc, err := s.locate(l)
	if err != nil {
		return nil, err
	}
	loc = loc.First()

	err = loc.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(milliseconds(boundedTimeout(ctx, s.implicitWait))),
	})
	if errors.Is(err, playwright.ErrTimeout) {
		return nil, fmt.Errorf("%s: %w", l, ErrNoSuchElement)
	}
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", l, err)
	}
	return &playwrightElement{locator: loc}, nil
}

func (s *playwrightSession) Count(ctx context.Context, l locator.Locator) (int, error) {
	if err := s.closer.check(ctx); err != nil {
		return 0, err
	}
	loc, err := s.locate(l)
	if err != nil {
		return 0, err
	}
	return pollCount(ctx, boundedTimeout(ctx, s.implicitWait), loc.Count)
}

func (s *playwrightSession) WaitFor(ctx context.Context, l locator.Locator, cond Condition, timeout time.Duration) (WaitResult, error) {
	if err := s.closer.check(ctx); err != nil {
		return WaitResult{}, err
	}
	loc, err := s.locate(l)
	if err != nil {
		return WaitResult{}, err
	}
	loc = loc.First()

	timeout = boundedTimeout(ctx, timeout)
	start := time.Now()

	state := playwright.WaitForSelectorStateVisible
	if cond == Present {
		state = playwright.WaitForSelectorStateAttached
	}
	err = loc.WaitFor(playwright.LocatorWaitForOptions{
		State:   state,
		Timeout: playwright.Float(milliseconds(timeout)),
	})
	if errors.Is(err, playwright.ErrTimeout) {
		return WaitResult{Outcome: TimedOut}, nil
	}
	if err != nil {
		return WaitResult{}, fmt.Errorf("waiting for %s to be %s: %w", l, cond, err)
	}

	if cond == Clickable {
		enabled, err := pollUntil(ctx, timeout-time.Since(start), func() (bool, error) {
			return loc.IsEnabled()
		})
		if err != nil {
			return WaitResult{}, fmt.Errorf("waiting for %s to be %s: %w", l, cond, err)
		}
		if !enabled {
			return WaitResult{Outcome: TimedOut}, nil
		}
	}

	return WaitResult{Outcome: Found, Element: &playwrightElement{locator: loc}}, nil
}

func (s *playwrightSession) Screenshot(ctx context.Context) ([]byte, error) {
	if err := s.closer.check(ctx); err != nil {
		return nil, err
	}
	return s.page.Screenshot()
}

func (s *playwrightSession) Close() error {
	return s.closer.close(func() error {
		s.logger.Debug("Closing session")
		return errors.Join(
			s.browserCtx.Close(),
			s.browser.Close(),
			s.pw.Stop(),
		)
	})
}

func (s *playwrightSession) locate(l locator.Locator) (playwright.Locator, error) {
	selector, err := playwrightSelector(l)
	if err != nil {
		return nil, err
	}
	return s.page.Locator(selector), nil
}

// playwrightSelector prefixes the selector with the playwright selector engine for its strategy.
func playwrightSelector(l locator.Locator) (string, error) {
	switch l.Strategy {
	case locator.XPath:
		return "xpath=" + l.Selector, nil
	case locator.CSS, locator.TagName, locator.ID:
		css, err := cssSelector(l)
		if err != nil {
			return "", err
		}
		return "css=" + css, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedStrategy, l.Strategy)
	}
}

type playwrightElement struct {
	locator playwright.Locator
}

func (e *playwrightElement) Attribute(ctx context.Context, name string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	value, err := e.locator.Evaluate(`(el, name) => el.getAttribute(name)`, name)
	if err != nil {
		return "", false, err
	}
	s, ok := value.(string)
	return s, ok, nil
}

func (e *playwrightElement) Displayed(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return e.locator.IsVisible()
}

func (e *playwrightElement) Text(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return e.locator.TextContent()
}

func (e *playwrightElement) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.locator.Click()
}

// milliseconds converts d for playwright timeouts. Playwright treats 0 as "no timeout",
// so the result is at least one millisecond.
func milliseconds(d time.Duration) float64 {
	return max(float64(d)/float64(time.Millisecond), 1)
}
