package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"

	"github.com/networkteam/sitecheck/locator"
)

// displayedCheckWindow bounds the single visibility check of a chromedp element.
const displayedCheckWindow = 250 * time.Millisecond

// ChromedpDriver launches sessions through the Chrome DevTools Protocol with chromedp.
type ChromedpDriver struct{}

// NewChromedpDriver creates a chromedp backed driver.
func NewChromedpDriver() *ChromedpDriver {
	return &ChromedpDriver{}
}

func (d *ChromedpDriver) Name() string {
	return DriverChromedp
}

func (d *ChromedpDriver) Launch(ctx context.Context, opts LaunchOptions) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight),
	)
	for _, arg := range opts.args() {
		allocOpts = append(allocOpts, chromedp.Flag(arg, true))
	}

	// The browser lives as long as the session, not as long as the launching context.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	stop := context.AfterFunc(ctx, browserCancel)
	err := chromedp.Run(browserCtx)
	stop()
	if err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("starting chrome: %w", err)
	}

	s := &chromedpSession{
		id:            newSessionID(),
		ctx:           browserCtx,
		browserCancel: browserCancel,
		allocCancel:   allocCancel,
		implicitWait:  opts.ImplicitWait,
	}
	s.logger = opts.Logger.With(slog.String("session_id", s.id), slog.String("driver", DriverChromedp))
	s.logger.Debug("Session launched", slog.Bool("headless", opts.Headless))

	return s, nil
}

type chromedpSession struct {
	id            string
	ctx           context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
	logger        *slog.Logger

	implicitWait time.Duration
	closer       closer
}

var _ Session = (*chromedpSession)(nil)

func (s *chromedpSession) ID() string {
	return s.id
}

// run executes actions on the session browser, bounded by timeout (if positive) and
// cancelled together with ctx.
func (s *chromedpSession) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if err := s.closer.check(ctx); err != nil {
		return err
	}
	runCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	if timeout > 0 {
		var cancelTimeout context.CancelFunc
		runCtx, cancelTimeout = context.WithTimeout(runCtx, boundedTimeout(ctx, timeout))
		defer cancelTimeout()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func (s *chromedpSession) Navigate(ctx context.Context, url string) error {
	s.logger.Debug("Navigating", slog.String("url", url))
	if err := s.run(ctx, 0, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	return nil
}

func (s *chromedpSession) Title(ctx context.Context) (string, error) {
	var title string
	err := s.run(ctx, s.implicitWait, chromedp.Title(&title))
	return title, err
}

func (s *chromedpSession) URL(ctx context.Context) (string, error) {
	var url string
	err := s.run(ctx, s.implicitWait, chromedp.Location(&url))
	return url, err
}

func (s *chromedpSession) Content(ctx context.Context) (string, error) {
	var html string
	err := s.run(ctx, s.implicitWait, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

func (s *chromedpSession) ScrollToBottom(ctx context.Context) error {
	return s.run(ctx, s.implicitWait, chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil))
}

func (s *chromedpSession) Find(ctx context.Context, l locator.Locator) (Element, error) {
	selector, opts, err := chromedpQuery(l, true)
	if err != nil {
		return nil, err
	}

	var nodes []*cdp.Node
	err = s.run(ctx, s.implicitWait, chromedp.Nodes(selector, &nodes, opts...))
	if isDeadline(ctx, err) || (err == nil && len(nodes) == 0) {
		return nil, fmt.Errorf("%s: %w", l, ErrNoSuchElement)
	}
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", l, err)
	}
	return &chromedpElement{session: s, node: nodes[0]}, nil
}

func (s *chromedpSession) Count(ctx context.Context, l locator.Locator) (int, error) {
	selector, opts, err := chromedpQuery(l, false)
	if err != nil {
		return 0, err
	}
	opts = append(opts, chromedp.AtLeast(0))

	return pollCount(ctx, boundedTimeout(ctx, s.implicitWait), func() (int, error) {
		var nodes []*cdp.Node
		if err := s.run(ctx, s.implicitWait, chromedp.Nodes(selector, &nodes, opts...)); err != nil {
			return 0, err
		}
		return len(nodes), nil
	})
}

func (s *chromedpSession) WaitFor(ctx context.Context, l locator.Locator, cond Condition, timeout time.Duration) (WaitResult, error) {
	selector, opts, err := chromedpQuery(l, true)
	if err != nil {
		return WaitResult{}, err
	}

	var nodes []*cdp.Node
	actions := []chromedp.Action{}
	switch cond {
	case Present:
		actions = append(actions, chromedp.Nodes(selector, &nodes, opts...))
	case Visible:
		actions = append(actions, chromedp.Nodes(selector, &nodes, append(opts, chromedp.NodeVisible)...))
	case Clickable:
		actions = append(actions,
			chromedp.Nodes(selector, &nodes, append(opts, chromedp.NodeVisible)...),
			chromedp.WaitEnabled(selector, opts...),
		)
	}

	err = s.run(ctx, timeout, actions...)
	if isDeadline(ctx, err) {
		return WaitResult{Outcome: TimedOut}, nil
	}
	if err != nil {
		return WaitResult{}, fmt.Errorf("waiting for %s to be %s: %w", l, cond, err)
	}
	if len(nodes) == 0 {
		return WaitResult{Outcome: TimedOut}, nil
	}
	return WaitResult{Outcome: Found, Element: &chromedpElement{session: s, node: nodes[0]}}, nil
}

func (s *chromedpSession) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	err := s.run(ctx, 0, chromedp.CaptureScreenshot(&buf))
	return buf, err
}

func (s *chromedpSession) Close() error {
	return s.closer.close(func() error {
		s.logger.Debug("Closing session")
		err := chromedp.Cancel(s.ctx)
		s.browserCancel()
		s.allocCancel()
		return err
	})
}

// chromedpQuery translates a locator into a chromedp selector. With first set, the
// query targets only the first match in document order.
func chromedpQuery(l locator.Locator, first bool) (string, []chromedp.QueryOption, error) {
	switch l.Strategy {
	case locator.XPath:
		selector := l.Selector
		if first {
			selector = firstXPath(selector)
		}
		return selector, []chromedp.QueryOption{chromedp.BySearch}, nil
	case locator.CSS, locator.TagName, locator.ID:
		css, err := cssSelector(l)
		if err != nil {
			return "", nil, err
		}
		if first {
			return css, []chromedp.QueryOption{chromedp.ByQuery}, nil
		}
		return css, []chromedp.QueryOption{chromedp.ByQueryAll}, nil
	default:
		return "", nil, fmt.Errorf("%w: %s", ErrUnsupportedStrategy, l.Strategy)
	}
}

type chromedpElement struct {
	session *chromedpSession
	node    *cdp.Node
}

func (e *chromedpElement) ids() []cdp.NodeID {
	return []cdp.NodeID{e.node.NodeID}
}

func (e *chromedpElement) Attribute(ctx context.Context, name string) (string, bool, error) {
	var (
		value string
		ok    bool
	)
	err := e.session.run(ctx, e.session.implicitWait, chromedp.AttributeValue(e.ids(), name, &value, &ok, chromedp.ByNodeID))
	return value, ok, err
}

func (e *chromedpElement) Displayed(ctx context.Context) (bool, error) {
	err := e.session.run(ctx, displayedCheckWindow, chromedp.Query(e.ids(), chromedp.ByNodeID, chromedp.NodeVisible))
	if isDeadline(ctx, err) {
		return false, nil
	}
	return err == nil, err
}

func (e *chromedpElement) Text(ctx context.Context) (string, error) {
	var text string
	err := e.session.run(ctx, e.session.implicitWait, chromedp.TextContent(e.ids(), &text, chromedp.ByNodeID))
	return text, err
}

func (e *chromedpElement) Click(ctx context.Context) error {
	return e.session.run(ctx, e.session.implicitWait, chromedp.Click(e.ids(), chromedp.ByNodeID))
}
