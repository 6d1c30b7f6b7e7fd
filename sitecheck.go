// Package sitecheck opens browser sessions on the only.digital home page and wires
// them with the home page object, a session journal and logging.
package sitecheck

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	slogmulti "github.com/samber/slog-multi"

	"github.com/networkteam/sitecheck/browser"
	"github.com/networkteam/sitecheck/config"
	"github.com/networkteam/sitecheck/homepage"
	"github.com/networkteam/sitecheck/journal"
	"github.com/networkteam/sitecheck/report"
)

// Instance is an open session positioned at the base URL.
type Instance struct {
	cfg     config.Config
	driver  string
	session browser.Session
	home    *homepage.HomePage
	journal *journal.Journal
	logger  *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

// Options configure Open.
type Options struct {
	// Driver launches the session.
	// Default: nil, will use browser.New with the configured driver name
	Driver browser.Driver
	// Logger receives all session logs in addition to the session journal.
	// Default: slog.Default()
	Logger *slog.Logger
}

// Open launches a session and navigates to the configured base URL.
// If navigation fails, the session is closed before the error is returned.
func Open(ctx context.Context, cfg config.Config, options Options) (*Instance, error) {
	driver := options.Driver
	if driver == nil {
		var err error
		if driver, err = browser.New(cfg.Driver); err != nil {
			return nil, err
		}
	}
	baseLogger := options.Logger
	if baseLogger == nil {
		baseLogger = slog.Default()
	}

	overrides, err := cfg.LocatorOverrides()
	if err != nil {
		return nil, fmt.Errorf("locator overrides: %w", err)
	}
	locators, err := homepage.Locators.WithOverrides(overrides)
	if err != nil {
		return nil, fmt.Errorf("locator overrides: %w", err)
	}

	j := journal.New(cfg.JournalCapacity)
	logger := slog.New(slogmulti.Fanout(
		baseLogger.Handler(),
		journal.NewHandler(j, journal.HandlerOptions{}),
	))

	launchOptions := cfg.LaunchOptions()
	launchOptions.Logger = logger
	session, err := driver.Launch(ctx, launchOptions)
	if err != nil {
		return nil, fmt.Errorf("launching %s session: %w", driver.Name(), err)
	}
	logger = logger.With(slog.String("session_id", session.ID()))

	logger.Info("Opening base URL", slog.String("url", cfg.BaseURL), slog.String("driver", driver.Name()))
	if err := session.Navigate(ctx, cfg.BaseURL); err != nil {
		return nil, errors.Join(
			fmt.Errorf("opening %s: %w", cfg.BaseURL, err),
			session.Close(),
		)
	}

	return &Instance{
		cfg:     cfg,
		driver:  driver.Name(),
		session: session,
		home: homepage.New(session,
			homepage.WithWait(cfg.ExplicitWait),
			homepage.WithLocators(locators),
			homepage.WithLogger(logger),
		),
		journal: j,
		logger:  logger,
	}, nil
}

// ID returns the session ID.
func (i *Instance) ID() string {
	return i.session.ID()
}

// Driver returns the name of the driver that launched the session.
func (i *Instance) Driver() string {
	return i.driver
}

func (i *Instance) Config() config.Config {
	return i.cfg
}

func (i *Instance) Session() browser.Session {
	return i.session
}

func (i *Instance) HomePage() *homepage.HomePage {
	return i.home
}

func (i *Instance) Journal() *journal.Journal {
	return i.journal
}

func (i *Instance) Logger() *slog.Logger {
	return i.logger
}

// Capture collects the current page state for a failure report.
func (i *Instance) Capture(ctx context.Context, name string) report.Artifact {
	a := report.Capture(ctx, name, i.session, i.journal)
	a.Driver = i.driver
	return a
}

// Close closes the session. It is safe to call Close more than once; later calls
// return the result of the first.
func (i *Instance) Close() error {
	i.closeOnce.Do(func() {
		i.logger.Debug("Closing session")
		i.closeErr = i.session.Close()
	})
	return i.closeErr
}
