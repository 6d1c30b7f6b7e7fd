package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/networkteam/sitecheck/config"
	"github.com/networkteam/sitecheck/locator"
)

// clearEnv unsets all variables read by Load for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, env := range []string{
		"BASE_URL", "HEADLESS", "SITECHECK_DRIVER", "IMPLICIT_WAIT", "EXPLICIT_WAIT",
		"WINDOW_WIDTH", "WINDOW_HEIGHT", "ARTIFACTS_DIR", "JOURNAL_CAPACITY",
		"LOG_LEVEL", "LOG_FORMAT", "LOG_FILE",
	} {
		t.Setenv(env, "")
		require.NoError(t, os.Unsetenv(env))
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestDefault(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, "https://only.digital/", cfg.BaseURL)
	assert.False(t, cfg.Headless)
	assert.Equal(t, "playwright", cfg.Driver)
	assert.Equal(t, 10*time.Second, cfg.ImplicitWait)
	assert.Equal(t, 15*time.Second, cfg.ExplicitWait)
	assert.Equal(t, 1920, cfg.WindowWidth)
	assert.Equal(t, 1080, cfg.WindowHeight)
	assert.Empty(t, cfg.ArtifactsDir)
	assert.Equal(t, 500, cfg.JournalCapacity)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Empty(t, cfg.Locators)
}

func TestLoad_environment(t *testing.T) {
	clearEnv(t)
	t.Setenv("BASE_URL", "http://127.0.0.1:8080/")
	t.Setenv("SITECHECK_DRIVER", "rod")
	t.Setenv("IMPLICIT_WAIT", "2s")
	t.Setenv("WINDOW_WIDTH", "1280")

	cfg, err := config.Load(config.LoadOptions{Dir: t.TempDir()})
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:8080/", cfg.BaseURL)
	assert.Equal(t, "rod", cfg.Driver)
	assert.Equal(t, 2*time.Second, cfg.ImplicitWait)
	assert.Equal(t, 15*time.Second, cfg.ExplicitWait)
	assert.Equal(t, 1280, cfg.WindowWidth)
}

func TestLoad_headless(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"true", true},
		{"TRUE", true},
		{" True ", true},
		{"false", false},
		{"1", false},
		{"yes", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("HEADLESS", tt.value)

			cfg, err := config.Load(config.LoadOptions{Dir: t.TempDir()})
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Headless)
		})
	}
}

func TestLoad_dotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".env"), "BASE_URL=https://staging.only.digital/\nHEADLESS=true\nEXPLICIT_WAIT=5s\n")

	t.Run("fills unset variables", func(t *testing.T) {
		cfg, err := config.Load(config.LoadOptions{Dir: dir})
		require.NoError(t, err)

		assert.Equal(t, "https://staging.only.digital/", cfg.BaseURL)
		assert.True(t, cfg.Headless)
		assert.Equal(t, 5*time.Second, cfg.ExplicitWait)
	})

	t.Run("environment wins", func(t *testing.T) {
		t.Setenv("BASE_URL", "https://only.digital/")

		cfg, err := config.Load(config.LoadOptions{Dir: dir})
		require.NoError(t, err)

		assert.Equal(t, "https://only.digital/", cfg.BaseURL)
		assert.True(t, cfg.Headless)
	})
}

func TestLoad_configFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "sitecheck.yaml")
	writeFile(t, path, `
driver: chromedp
artifacts_dir: /tmp/sitecheck
log:
  level: debug
  format: json
locators:
  start_project_button: "css=[data-test-id='start-project']"
`)

	cfg, err := config.Load(config.LoadOptions{ConfigFile: path, Dir: dir})
	require.NoError(t, err)

	assert.Equal(t, "chromedp", cfg.Driver)
	assert.Equal(t, "/tmp/sitecheck", cfg.ArtifactsDir)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	overrides, err := cfg.LocatorOverrides()
	require.NoError(t, err)
	assert.Equal(t, map[locator.Name]locator.Locator{
		"start_project_button": locator.ByCSS("[data-test-id='start-project']"),
	}, overrides)
}

func TestLoad_missingConfigFile(t *testing.T) {
	clearEnv(t)

	_, err := config.Load(config.LoadOptions{ConfigFile: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)
}

func TestFromViper_validation(t *testing.T) {
	v := viper.New()
	config.SetDefaults(v)
	v.Set("base_url", "only.digital")
	v.Set("driver", "selenium")
	v.Set("implicit_wait", "0s")
	v.Set("window_height", -1)
	v.Set("locators", map[string]string{"logo": "link=Only"})

	_, err := config.FromViper(v)
	require.Error(t, err)

	assert.ErrorContains(t, err, "base_url must be an absolute URL")
	assert.ErrorContains(t, err, "driver must be one of")
	assert.ErrorContains(t, err, "implicit_wait must be positive")
	assert.ErrorContains(t, err, "window size must be positive")
	assert.ErrorContains(t, err, "locators: logo")
}

func TestConfig_LaunchOptions(t *testing.T) {
	cfg := config.Default()
	cfg.Headless = true
	cfg.ImplicitWait = 3 * time.Second

	opts := cfg.LaunchOptions()

	assert.True(t, opts.Headless)
	assert.Equal(t, 3*time.Second, opts.ImplicitWait)
	assert.Equal(t, 1920, opts.WindowWidth)
	assert.Equal(t, 1080, opts.WindowHeight)
}
