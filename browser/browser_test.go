package browser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/networkteam/sitecheck/locator"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNew(t *testing.T) {
	for _, name := range Drivers() {
		d, err := New(name)
		require.NoError(t, err)
		assert.Equal(t, name, d.Name())
	}

	_, err := New("selenium")
	assert.ErrorIs(t, err, ErrUnknownDriver)
	assert.ErrorContains(t, err, `"selenium"`)
}

func TestConditionAndOutcome_String(t *testing.T) {
	assert.Equal(t, "present", Present.String())
	assert.Equal(t, "visible", Visible.String())
	assert.Equal(t, "clickable", Clickable.String())
	assert.Equal(t, "Condition(7)", Condition(7).String())

	assert.Equal(t, "found", Found.String())
	assert.Equal(t, "timed_out", TimedOut.String())
}

func TestWaitResult_Found(t *testing.T) {
	assert.False(t, WaitResult{}.Found(), "zero value is a timeout")
	assert.False(t, WaitResult{Outcome: Found}.Found(), "found without element")
	assert.True(t, WaitResult{Outcome: Found, Element: &playwrightElement{}}.Found())
}

func TestLaunchOptions_withDefaults(t *testing.T) {
	opts := LaunchOptions{Headless: true, WindowWidth: 800}.withDefaults()

	assert.True(t, opts.Headless)
	assert.Equal(t, 10*time.Second, opts.ImplicitWait)
	assert.Equal(t, 800, opts.WindowWidth)
	assert.Equal(t, 1080, opts.WindowHeight)
	assert.NotNil(t, opts.Logger)
}

func TestLaunchOptions_args(t *testing.T) {
	opts := LaunchOptions{Args: []string{"lang=ru"}}

	assert.Equal(t, []string{"no-sandbox", "disable-dev-shm-usage", "start-maximized", "lang=ru"}, opts.args())
	assert.Len(t, DefaultArgs, 3, "args must not modify the defaults")
}

func TestPlaywrightSelector(t *testing.T) {
	tests := []struct {
		locator locator.Locator
		want    string
	}{
		{locator.ByXPath("//a[@href='/']"), "xpath=//a[@href='/']"},
		{locator.ByCSS("button[aria-label*='menu']"), "css=button[aria-label*='menu']"},
		{locator.ByTagName("footer"), "css=footer"},
		{locator.ByID("main"), `css=[id="main"]`},
	}
	for _, tt := range tests {
		t.Run(tt.locator.String(), func(t *testing.T) {
			got, err := playwrightSelector(tt.locator)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := playwrightSelector(locator.Locator{Strategy: 0, Selector: "x"})
	assert.ErrorIs(t, err, ErrUnsupportedStrategy)
}

func TestChromedpQuery(t *testing.T) {
	selector, opts, err := chromedpQuery(locator.ByXPath("//a[contains(@href, 'tel:+7')]"), true)
	require.NoError(t, err)
	assert.Equal(t, "(//a[contains(@href, 'tel:+7')])[1]", selector)
	assert.Len(t, opts, 1)

	selector, _, err = chromedpQuery(locator.ByXPath("//a"), false)
	require.NoError(t, err)
	assert.Equal(t, "//a", selector, "counting keeps all matches")

	selector, opts, err = chromedpQuery(locator.ByCSS("[class*='project']"), false)
	require.NoError(t, err)
	assert.Equal(t, "[class*='project']", selector)
	assert.Len(t, opts, 1)

	_, _, err = chromedpQuery(locator.Locator{Strategy: 9, Selector: "x"}, true)
	assert.ErrorIs(t, err, ErrUnsupportedStrategy)
}

func TestCSSSelector(t *testing.T) {
	css, err := cssSelector(locator.ByID(`say"hi`))
	require.NoError(t, err)
	assert.Equal(t, `[id="say\"hi"]`, css)

	_, err = cssSelector(locator.ByXPath("//a"))
	assert.ErrorIs(t, err, ErrUnsupportedStrategy)
}

func TestCloser(t *testing.T) {
	var (
		c     closer
		calls int
	)
	release := func() error {
		calls++
		return errors.New("boom")
	}

	require.NoError(t, c.check(context.Background()))

	err1 := c.close(release)
	err2 := c.close(release)

	assert.Equal(t, 1, calls)
	assert.EqualError(t, err1, "boom")
	assert.Equal(t, err1, err2, "second close returns first result")
	assert.ErrorIs(t, c.check(context.Background()), ErrSessionClosed)
}

func TestCloser_checkCancelledContext(t *testing.T) {
	var c closer
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, c.check(ctx), context.Canceled)
}

func TestBoundedTimeout(t *testing.T) {
	assert.Equal(t, 15*time.Second, boundedTimeout(context.Background(), 15*time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.LessOrEqual(t, boundedTimeout(ctx, 15*time.Second), time.Second)
	assert.Equal(t, time.Millisecond, boundedTimeout(ctx, time.Millisecond))
}

func TestPollCount(t *testing.T) {
	t.Run("returns first non-zero count", func(t *testing.T) {
		calls := 0
		n, err := pollCount(context.Background(), time.Second, func() (int, error) {
			calls++
			if calls < 3 {
				return 0, nil
			}
			return 4, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 4, n)
		assert.Equal(t, 3, calls)
	})

	t.Run("zero after timeout", func(t *testing.T) {
		n, err := pollCount(context.Background(), 50*time.Millisecond, func() (int, error) {
			return 0, nil
		})
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("zero timeout checks once", func(t *testing.T) {
		calls := 0
		n, err := pollCount(context.Background(), 0, func() (int, error) {
			calls++
			return 0, nil
		})
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Equal(t, 1, calls)
	})

	t.Run("propagates errors", func(t *testing.T) {
		_, err := pollCount(context.Background(), time.Second, func() (int, error) {
			return 0, ErrSessionClosed
		})
		assert.ErrorIs(t, err, ErrSessionClosed)
	})
}

func TestPollUntil_cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ok, err := pollUntil(ctx, time.Second, func() (bool, error) {
		return false, nil
	})
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsDeadline(t *testing.T) {
	assert.True(t, isDeadline(context.Background(), context.DeadlineExceeded))
	assert.False(t, isDeadline(context.Background(), errors.New("other")))
	assert.False(t, isDeadline(context.Background(), nil))

	ctx, cancel := context.WithTimeout(context.Background(), 0)
	defer cancel()
	<-ctx.Done()
	assert.False(t, isDeadline(ctx, context.DeadlineExceeded), "caller deadline is not a wait timeout")
}

func TestMilliseconds(t *testing.T) {
	assert.Equal(t, float64(15000), milliseconds(15*time.Second))
	assert.Equal(t, float64(1), milliseconds(0))
}
