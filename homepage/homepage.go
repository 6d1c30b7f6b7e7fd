// Package homepage is the page object of the only.digital home page.
//
// Probes (Is...Visible) wait for their element up to the explicit wait and report a
// timeout as false. Getters, counters and actions return errors.
package homepage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/networkteam/sitecheck/browser"
	"github.com/networkteam/sitecheck/locator"
)

// DefaultWait is the explicit wait of probes and actions.
const DefaultWait = 15 * time.Second

// HomePage wraps a session showing the home page.
type HomePage struct {
	session  browser.Session
	locators *locator.Registry
	wait     time.Duration
	logger   *slog.Logger
}

// Option configures a HomePage.
type Option func(*HomePage)

// WithWait sets the explicit wait. Non-positive values are ignored.
func WithWait(d time.Duration) Option {
	return func(p *HomePage) {
		if d > 0 {
			p.wait = d
		}
	}
}

// WithLocators replaces the locator registry, e.g. with one carrying overrides.
func WithLocators(r *locator.Registry) Option {
	return func(p *HomePage) {
		if r != nil {
			p.locators = r
		}
	}
}

// WithLogger sets the logger for probe outcomes and actions.
func WithLogger(logger *slog.Logger) Option {
	return func(p *HomePage) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates the page object for session.
func New(session browser.Session, opts ...Option) *HomePage {
	p := &HomePage{
		session:  session,
		locators: Locators,
		wait:     DefaultWait,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With(slog.String("page", p.locators.Page()))
	return p
}

// Locators returns the registry the page object resolves elements with.
func (p *HomePage) Locators() *locator.Registry {
	return p.locators
}

// Wait returns the explicit wait.
func (p *HomePage) Wait() time.Duration {
	return p.wait
}

// IsVisible waits for the named element to become visible. Timeouts and driver
// errors are reported as false, the latter logged as warnings.
func (p *HomePage) IsVisible(ctx context.Context, name locator.Name) bool {
	l, err := p.locators.Lookup(name)
	if err != nil {
		p.logger.Warn("Probe failed", slog.String("element", string(name)), slog.Any("error", err))
		return false
	}

	start := time.Now()
	result, err := p.session.WaitFor(ctx, l, browser.Visible, p.wait)
	if err != nil {
		p.logger.Warn("Probe failed",
			slog.String("element", string(name)),
			slog.String("locator", l.String()),
			slog.Any("error", err),
		)
		return false
	}

	p.logger.Debug("Probe finished",
		slog.String("element", string(name)),
		slog.String("outcome", result.Outcome.String()),
		slog.Duration("elapsed", time.Since(start)),
	)
	return result.Found()
}

func (p *HomePage) IsLogoVisible(ctx context.Context) bool {
	return p.IsVisible(ctx, Logo)
}

func (p *HomePage) IsEmailVisible(ctx context.Context) bool {
	return p.IsVisible(ctx, EmailLink)
}

func (p *HomePage) IsPhoneVisible(ctx context.Context) bool {
	return p.IsVisible(ctx, PhoneLink)
}

func (p *HomePage) IsStartProjectButtonVisible(ctx context.Context) bool {
	return p.IsVisible(ctx, StartProjectButton)
}

func (p *HomePage) IsProjectsSectionVisible(ctx context.Context) bool {
	return p.IsVisible(ctx, ProjectsHeading)
}

func (p *HomePage) IsFooterVisible(ctx context.Context) bool {
	return p.IsVisible(ctx, Footer)
}

// Attribute returns an attribute of the named element. A missing element is
// reported as browser.ErrNoSuchElement, a missing attribute as an empty string.
func (p *HomePage) Attribute(ctx context.Context, name locator.Name, attr string) (string, error) {
	l, err := p.locators.Lookup(name)
	if err != nil {
		return "", err
	}
	el, err := p.session.Find(ctx, l)
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	value, _, err := el.Attribute(ctx, attr)
	if err != nil {
		return "", fmt.Errorf("reading %s of %s: %w", attr, name, err)
	}
	return value, nil
}

// GetEmail returns the href of the email link, e.g. "mailto:hello@only.digital".
func (p *HomePage) GetEmail(ctx context.Context) (string, error) {
	return p.Attribute(ctx, EmailLink, "href")
}

// GetPhone returns the href of the phone link.
func (p *HomePage) GetPhone(ctx context.Context) (string, error) {
	return p.Attribute(ctx, PhoneLink, "href")
}

// GetTelegramURL returns the href of the first Telegram link.
func (p *HomePage) GetTelegramURL(ctx context.Context) (string, error) {
	return p.Attribute(ctx, TelegramLink, "href")
}

// Count returns the number of elements matching the named locator, 0 if there are none.
func (p *HomePage) Count(ctx context.Context, name locator.Name) (int, error) {
	l, err := p.locators.Lookup(name)
	if err != nil {
		return 0, err
	}
	n, err := p.session.Count(ctx, l)
	if err != nil {
		return 0, fmt.Errorf("counting %s: %w", name, err)
	}
	return n, nil
}

func (p *HomePage) GetProjectCardsCount(ctx context.Context) (int, error) {
	return p.Count(ctx, ProjectCards)
}

func (p *HomePage) GetClientLogosCount(ctx context.Context) (int, error) {
	return p.Count(ctx, ClientLogos)
}

// Click waits for the named element to be clickable and clicks it.
// If it does not become clickable in time, the error wraps browser.ErrTimeout.
func (p *HomePage) Click(ctx context.Context, name locator.Name) error {
	l, err := p.locators.Lookup(name)
	if err != nil {
		return err
	}
	result, err := p.session.WaitFor(ctx, l, browser.Clickable, p.wait)
	if err != nil {
		return fmt.Errorf("waiting for %s: %w", name, err)
	}
	if !result.Found() {
		return fmt.Errorf("%s not clickable after %s: %w", name, p.wait, browser.ErrTimeout)
	}

	p.logger.Info("Clicking", slog.String("element", string(name)))
	if err := result.Element.Click(ctx); err != nil {
		return fmt.Errorf("clicking %s: %w", name, err)
	}
	return nil
}

func (p *HomePage) ClickStartProjectButton(ctx context.Context) error {
	return p.Click(ctx, StartProjectButton)
}

func (p *HomePage) ClickEmailLink(ctx context.Context) error {
	return p.Click(ctx, EmailLink)
}

// ClickNextSlide clicks the next slide button if it becomes clickable and reports
// whether it did.
func (p *HomePage) ClickNextSlide(ctx context.Context) bool {
	err := p.Click(ctx, NextSlideButton)
	switch {
	case errors.Is(err, browser.ErrTimeout):
		p.logger.Debug("Next slide not clickable", slog.Duration("wait", p.wait))
		return false
	case err != nil:
		p.logger.Warn("Next slide not clicked", slog.Any("error", err))
		return false
	}
	return true
}

func (p *HomePage) GetPageTitle(ctx context.Context) (string, error) {
	return p.session.Title(ctx)
}

func (p *HomePage) GetCurrentURL(ctx context.Context) (string, error) {
	return p.session.URL(ctx)
}

func (p *HomePage) GetPageSource(ctx context.Context) (string, error) {
	return p.session.Content(ctx)
}

// ScrollToBottom scrolls to the end of the page, which renders lazily loaded sections.
func (p *HomePage) ScrollToBottom(ctx context.Context) error {
	return p.session.ScrollToBottom(ctx)
}
