// Package browsertest provides an in-memory browser.Driver for tests that exercise
// page objects and fixtures without launching a browser.
package browsertest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/uuid"

	"github.com/networkteam/sitecheck/browser"
	"github.com/networkteam/sitecheck/locator"
)

// Element is a fake DOM element.
type Element struct {
	Visible  bool
	Disabled bool
	Attrs    map[string]string
	Text     string
	// Lazy elements are only attached after the page was scrolled to the bottom.
	Lazy bool
	// OnClick is called on every click.
	OnClick func()

	clicks int
}

// Clicks returns how often the element was clicked.
func (e *Element) Clicks() int {
	return e.clicks
}

// Page is the fake document served by every session of a Driver.
type Page struct {
	Title    string
	Content  string
	Elements map[locator.Locator][]*Element
}

// Driver is a browser.Driver backed by a Page.
type Driver struct {
	// LaunchErr is returned by Launch when set.
	LaunchErr error
	// NavigateErr is returned by Session.Navigate when set.
	NavigateErr error
	// WaitErr is returned by Session.WaitFor when set.
	WaitErr error
	// CloseErr is returned by Session.Close when set.
	CloseErr error

	page *Page

	mu       sync.Mutex
	sessions []*Session
	launches []browser.LaunchOptions
}

var _ browser.Driver = (*Driver)(nil)

// NewDriver returns a driver whose sessions all show page.
func NewDriver(page *Page) *Driver {
	return &Driver{page: page}
}

func (d *Driver) Name() string {
	return "fake"
}

func (d *Driver) Launch(ctx context.Context, opts browser.LaunchOptions) (browser.Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.launches = append(d.launches, opts)
	if d.LaunchErr != nil {
		return nil, d.LaunchErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := &Session{
		id:     uuid.Must(uuid.NewV7()).String(),
		driver: d,
		page:   d.page,
	}
	d.sessions = append(d.sessions, s)
	return s, nil
}

// Sessions returns all sessions launched so far.
func (d *Driver) Sessions() []*Session {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*Session(nil), d.sessions...)
}

// LaunchOptions returns the options of every Launch call.
func (d *Driver) LaunchOptions() []browser.LaunchOptions {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]browser.LaunchOptions(nil), d.launches...)
}

// Session is a fake browser.Session.
type Session struct {
	id     string
	driver *Driver
	page   *Page

	mu          sync.Mutex
	url         string
	navigations []string
	scrolled    bool
	closeCalls  int
	waits       []time.Duration
}

var _ browser.Session = (*Session)(nil)

func (s *Session) ID() string {
	return s.id
}

// CloseCalls returns how often Close was called.
func (s *Session) CloseCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeCalls
}

// Navigations returns the URLs passed to Navigate.
func (s *Session) Navigations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.navigations...)
}

// Waits returns the timeouts passed to WaitFor.
func (s *Session) Waits() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.waits...)
}

func (s *Session) check(ctx context.Context) error {
	if s.closeCalls > 0 {
		return browser.ErrSessionClosed
	}
	return ctx.Err()
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}
	s.navigations = append(s.navigations, url)
	if s.driver.NavigateErr != nil {
		return s.driver.NavigateErr
	}
	s.url = url
	s.scrolled = false
	return nil
}

func (s *Session) Title(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return "", err
	}
	return s.page.Title, nil
}

func (s *Session) URL(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return "", err
	}
	return s.url, nil
}

func (s *Session) Content(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return "", err
	}
	return s.page.Content, nil
}

func (s *Session) ScrollToBottom(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}
	s.scrolled = true
	return nil
}

// attached returns the elements matching l that are part of the current document.
func (s *Session) attached(l locator.Locator) []*Element {
	var result []*Element
	for _, el := range s.page.Elements[l] {
		if el.Lazy && !s.scrolled {
			continue
		}
		result = append(result, el)
	}
	return result
}

func (s *Session) Find(ctx context.Context, l locator.Locator) (browser.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	matches := s.attached(l)
	if len(matches) == 0 {
		return nil, fmt.Errorf("%s: %w", l, browser.ErrNoSuchElement)
	}
	return &element{session: s, el: matches[0]}, nil
}

func (s *Session) Count(ctx context.Context, l locator.Locator) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return 0, err
	}
	return len(s.attached(l)), nil
}

func (s *Session) WaitFor(ctx context.Context, l locator.Locator, cond browser.Condition, timeout time.Duration) (browser.WaitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return browser.WaitResult{}, err
	}
	s.waits = append(s.waits, timeout)
	if s.driver.WaitErr != nil {
		return browser.WaitResult{}, s.driver.WaitErr
	}

	matches := s.attached(l)
	if len(matches) == 0 {
		return browser.WaitResult{Outcome: browser.TimedOut}, nil
	}
	first := matches[0]
	switch {
	case cond == browser.Visible && !first.Visible,
		cond == browser.Clickable && (!first.Visible || first.Disabled):
		return browser.WaitResult{Outcome: browser.TimedOut}, nil
	}
	return browser.WaitResult{Outcome: browser.Found, Element: &element{session: s, el: first}}, nil
}

func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	// PNG signature only
	return []byte("\x89PNG\r\n\x1a\n"), nil
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeCalls++
	return s.driver.CloseErr
}

type element struct {
	session *Session
	el      *Element
}

func (e *element) Attribute(ctx context.Context, name string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	value, ok := e.el.Attrs[name]
	return value, ok, nil
}

func (e *element) Displayed(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return e.el.Visible, nil
}

func (e *element) Text(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return e.el.Text, nil
}

func (e *element) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.session.mu.Lock()
	e.el.clicks++
	onClick := e.el.OnClick
	e.session.mu.Unlock()
	if onClick != nil {
		onClick()
	}
	return nil
}
