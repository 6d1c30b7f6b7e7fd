// Package sitechecktest provides test fixtures that open a session per test and
// release it when the test ends.
package sitechecktest

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/networkteam/sitecheck"
	"github.com/networkteam/sitecheck/browser"
	"github.com/networkteam/sitecheck/config"
	"github.com/networkteam/sitecheck/homepage"
	"github.com/networkteam/sitecheck/logging"
	"github.com/networkteam/sitecheck/report"
)

// captureTimeout bounds collecting the failure report of a test.
const captureTimeout = 30 * time.Second

var (
	loadConfig = sync.OnceValues(func() (config.Config, error) {
		return config.Load(config.LoadOptions{})
	})
	processLogger = sync.OnceValues(func() (*logging.Logger, error) {
		cfg, err := loadConfig()
		if err != nil {
			return nil, err
		}
		return logging.New(cfg.Log, logging.Options{})
	})
)

// Config returns the configuration of the test binary. It is loaded once from
// .env and the environment.
func Config(tb testing.TB) config.Config {
	tb.Helper()

	cfg, err := loadConfig()
	require.NoError(tb, err, "failed to load configuration")
	return cfg
}

type options struct {
	config *config.Config
	driver browser.Driver
	logger *slog.Logger
}

// Option configures Acquire.
type Option func(*options)

// WithConfig uses cfg instead of the configuration of the test binary.
func WithConfig(cfg config.Config) Option {
	return func(o *options) {
		o.config = &cfg
	}
}

// WithDriver launches the session with d instead of the configured driver.
func WithDriver(d browser.Driver) Option {
	return func(o *options) {
		o.driver = d
	}
}

// WithLogger sets the logger of the session.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Acquire opens a session at the base URL that is released when the test ends.
// If the test failed and an artifacts dir is configured, a failure report is
// written before the session is closed.
func Acquire(tb testing.TB, opts ...Option) *sitecheck.Instance {
	tb.Helper()

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	var cfg config.Config
	if o.config != nil {
		cfg = *o.config
	} else {
		cfg = Config(tb)
	}
	if o.logger == nil {
		logger, err := processLogger()
		require.NoError(tb, err, "failed to create logger")
		o.logger = logger.Logger
	}

	inst, err := sitecheck.Open(tb.Context(), cfg, sitecheck.Options{
		Driver: o.driver,
		Logger: o.logger.With(slog.String("test", tb.Name())),
	})
	require.NoError(tb, err, "failed to open session")

	tb.Cleanup(func() {
		release(tb, inst, cfg.ArtifactsDir)
	})

	return inst
}

func release(tb testing.TB, inst *sitecheck.Instance, artifactsDir string) {
	if tb.Failed() && artifactsDir != "" {
		ctx, cancel := context.WithTimeout(context.Background(), captureTimeout)
		path, err := report.Write(artifactsDir, inst.Capture(ctx, tb.Name()))
		cancel()
		if err != nil {
			tb.Logf("failed to write failure report: %v", err)
		} else {
			tb.Logf("failure report: %s", path)
		}
	}

	if err := inst.Close(); err != nil {
		tb.Logf("failed to close session %s: %v", inst.ID(), err)
	}
}

// Fixtures bundles what a test of the home page needs.
type Fixtures struct {
	Instance *sitecheck.Instance
	Session  browser.Session
	Home     *homepage.HomePage
}

// WithFixtures acquires a session and calls fn with it. The session is released
// with t.Cleanup.
func WithFixtures(t *testing.T, fn func(t *testing.T, f *Fixtures), opts ...Option) {
	t.Helper()

	inst := Acquire(t, opts...)

	fn(t, &Fixtures{
		Instance: inst,
		Session:  inst.Session(),
		Home:     inst.HomePage(),
	})
}
