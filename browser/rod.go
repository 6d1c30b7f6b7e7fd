package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"

	"github.com/networkteam/sitecheck/locator"
)

// RodDriver launches sessions with go-rod. Chrome is downloaded by rod if none is installed.
type RodDriver struct{}

// NewRodDriver creates a rod backed driver.
func NewRodDriver() *RodDriver {
	return &RodDriver{}
}

func (d *RodDriver) Name() string {
	return DriverRod
}

func (d *RodDriver) Launch(ctx context.Context, opts LaunchOptions) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	l := launcher.New().
		Headless(opts.Headless).
		Set("window-size", strconv.Itoa(opts.WindowWidth)+","+strconv.Itoa(opts.WindowHeight))
	for _, arg := range opts.args() {
		l = l.Set(flags.Flag(arg))
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching chrome: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).NoDefaultDevice()
	if err := browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("connecting to chrome: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = browser.Close()
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("opening page: %w", err)
	}

	s := &rodSession{
		id:           newSessionID(),
		launcher:     l,
		browser:      browser,
		page:         page,
		implicitWait: opts.ImplicitWait,
	}
	s.logger = opts.Logger.With(slog.String("session_id", s.id), slog.String("driver", DriverRod))
	s.logger.Debug("Session launched", slog.Bool("headless", opts.Headless))

	return s, nil
}

type rodSession struct {
	id       string
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	logger   *slog.Logger

	implicitWait time.Duration
	closer       closer
}

var _ Session = (*rodSession)(nil)

func (s *rodSession) ID() string {
	return s.id
}

// bind returns a context for one operation: bounded by timeout (if positive) and
// cancelled together with ctx.
func (s *rodSession) bind(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc, error) {
	if err := s.closer.check(ctx); err != nil {
		return nil, nil, err
	}
	opCtx, cancel := context.WithCancel(context.Background())
	if timeout > 0 {
		var cancelTimeout context.CancelFunc
		opCtx, cancelTimeout = context.WithTimeout(opCtx, boundedTimeout(ctx, timeout))
		cancelBoth := cancel
		cancel = func() {
			cancelTimeout()
			cancelBoth()
		}
	}
	stop := context.AfterFunc(ctx, cancel)
	return opCtx, func() {
		stop()
		cancel()
	}, nil
}

func (s *rodSession) Navigate(ctx context.Context, url string) error {
	opCtx, cancel, err := s.bind(ctx, 0)
	if err != nil {
		return err
	}
	defer cancel()

	s.logger.Debug("Navigating", slog.String("url", url))
	p := s.page.Context(opCtx)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("waiting for load of %s: %w", url, err)
	}
	return nil
}

func (s *rodSession) info(ctx context.Context) (*proto.TargetTargetInfo, error) {
	opCtx, cancel, err := s.bind(ctx, s.implicitWait)
	if err != nil {
		return nil, err
	}
	defer cancel()
	return s.page.Context(opCtx).Info()
}

func (s *rodSession) Title(ctx context.Context) (string, error) {
	info, err := s.info(ctx)
	if err != nil {
		return "", err
	}
	return info.Title, nil
}

func (s *rodSession) URL(ctx context.Context) (string, error) {
	info, err := s.info(ctx)
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

func (s *rodSession) Content(ctx context.Context) (string, error) {
	opCtx, cancel, err := s.bind(ctx, s.implicitWait)
	if err != nil {
		return "", err
	}
	defer cancel()
	return s.page.Context(opCtx).HTML()
}

func (s *rodSession) ScrollToBottom(ctx context.Context) error {
	opCtx, cancel, err := s.bind(ctx, s.implicitWait)
	if err != nil {
		return err
	}
	defer cancel()
	_, err = s.page.Context(opCtx).Eval(scrollToBottomJS)
	return err
}

// element resolves the first match of l on p. rod retries until the page context is done.
func (s *rodSession) element(p *rod.Page, l locator.Locator) (*rod.Element, error) {
	if l.Strategy == locator.XPath {
		return p.ElementX(l.Selector)
	}
	css, err := cssSelector(l)
	if err != nil {
		return nil, err
	}
	return p.Element(css)
}

func (s *rodSession) Find(ctx context.Context, l locator.Locator) (Element, error) {
	opCtx, cancel, err := s.bind(ctx, s.implicitWait)
	if err != nil {
		return nil, err
	}
	defer cancel()

	el, err := s.element(s.page.Context(opCtx), l)
	if isDeadline(ctx, err) {
		return nil, fmt.Errorf("%s: %w", l, ErrNoSuchElement)
	}
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", l, err)
	}
	return &rodElement{session: s, el: el}, nil
}

func (s *rodSession) Count(ctx context.Context, l locator.Locator) (int, error) {
	var css string
	if l.Strategy != locator.XPath {
		var err error
		if css, err = cssSelector(l); err != nil {
			return 0, err
		}
	}

	return pollCount(ctx, boundedTimeout(ctx, s.implicitWait), func() (int, error) {
		opCtx, cancel, err := s.bind(ctx, s.implicitWait)
		if err != nil {
			return 0, err
		}
		defer cancel()

		p := s.page.Context(opCtx)
		var elements rod.Elements
		if l.Strategy == locator.XPath {
			elements, err = p.ElementsX(l.Selector)
		} else {
			elements, err = p.Elements(css)
		}
		return len(elements), err
	})
}

func (s *rodSession) WaitFor(ctx context.Context, l locator.Locator, cond Condition, timeout time.Duration) (WaitResult, error) {
	opCtx, cancel, err := s.bind(ctx, timeout)
	if err != nil {
		return WaitResult{}, err
	}
	defer cancel()

	el, err := s.element(s.page.Context(opCtx), l)
	if err == nil && cond != Present {
		err = el.WaitVisible()
	}
	if err == nil && cond == Clickable {
		err = el.WaitEnabled()
	}
	if isDeadline(ctx, err) {
		return WaitResult{Outcome: TimedOut}, nil
	}
	if err != nil {
		return WaitResult{}, fmt.Errorf("waiting for %s to be %s: %w", l, cond, err)
	}
	return WaitResult{Outcome: Found, Element: &rodElement{session: s, el: el}}, nil
}

func (s *rodSession) Screenshot(ctx context.Context) ([]byte, error) {
	opCtx, cancel, err := s.bind(ctx, 0)
	if err != nil {
		return nil, err
	}
	defer cancel()
	return s.page.Context(opCtx).Screenshot(false, nil)
}

func (s *rodSession) Close() error {
	return s.closer.close(func() error {
		s.logger.Debug("Closing session")
		err := s.browser.Close()
		s.launcher.Kill()
		s.launcher.Cleanup()
		return err
	})
}

type rodElement struct {
	session *rodSession
	el      *rod.Element
}

func (e *rodElement) bind(ctx context.Context) (*rod.Element, context.CancelFunc, error) {
	opCtx, cancel, err := e.session.bind(ctx, e.session.implicitWait)
	if err != nil {
		return nil, nil, err
	}
	return e.el.Context(opCtx), cancel, nil
}

func (e *rodElement) Attribute(ctx context.Context, name string) (string, bool, error) {
	el, cancel, err := e.bind(ctx)
	if err != nil {
		return "", false, err
	}
	defer cancel()

	value, err := el.Attribute(name)
	if err != nil || value == nil {
		return "", false, err
	}
	return *value, true, nil
}

func (e *rodElement) Displayed(ctx context.Context) (bool, error) {
	el, cancel, err := e.bind(ctx)
	if err != nil {
		return false, err
	}
	defer cancel()
	return el.Visible()
}

func (e *rodElement) Text(ctx context.Context) (string, error) {
	el, cancel, err := e.bind(ctx)
	if err != nil {
		return "", err
	}
	defer cancel()
	return el.Text()
}

func (e *rodElement) Click(ctx context.Context) error {
	el, cancel, err := e.bind(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	err = el.Click(proto.InputMouseButtonLeft, 1)
	if isDeadline(ctx, err) {
		return errors.Join(ErrTimeout, err)
	}
	return err
}
