// Package config loads the settings of a check run from defaults, an optional YAML file,
// a .env file and the environment (in increasing precedence).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/networkteam/sitecheck/browser"
	"github.com/networkteam/sitecheck/locator"
)

// Config holds all settings of a check run.
type Config struct {
	BaseURL         string            `mapstructure:"base_url" yaml:"base_url"`
	Headless        bool              `mapstructure:"-" yaml:"headless"`
	Driver          string            `mapstructure:"driver" yaml:"driver"`
	ImplicitWait    time.Duration     `mapstructure:"implicit_wait" yaml:"implicit_wait"`
	ExplicitWait    time.Duration     `mapstructure:"explicit_wait" yaml:"explicit_wait"`
	WindowWidth     int               `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight    int               `mapstructure:"window_height" yaml:"window_height"`
	ArtifactsDir    string            `mapstructure:"artifacts_dir" yaml:"artifacts_dir"`
	JournalCapacity int               `mapstructure:"journal_capacity" yaml:"journal_capacity"`
	Log             LogConfig         `mapstructure:"log" yaml:"log"`
	Locators        map[string]string `mapstructure:"locators" yaml:"locators"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `mapstructure:"level" yaml:"level"`
	// Format is console or json.
	Format string `mapstructure:"format" yaml:"format"`
	// File enables a rotated log file in addition to stderr.
	File       string `mapstructure:"file" yaml:"file"`
	MaxSize    int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// envBindings maps configuration keys to the environment variables that set them.
var envBindings = map[string]string{
	"base_url":         "BASE_URL",
	"headless":         "HEADLESS",
	"driver":           "SITECHECK_DRIVER",
	"implicit_wait":    "IMPLICIT_WAIT",
	"explicit_wait":    "EXPLICIT_WAIT",
	"window_width":     "WINDOW_WIDTH",
	"window_height":    "WINDOW_HEIGHT",
	"artifacts_dir":    "ARTIFACTS_DIR",
	"journal_capacity": "JOURNAL_CAPACITY",
	"log.level":        "LOG_LEVEL",
	"log.format":       "LOG_FORMAT",
	"log.file":         "LOG_FILE",
}

// SetDefaults initializes default values for all configuration keys.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("base_url", "https://only.digital/")
	v.SetDefault("headless", "false")
	v.SetDefault("driver", browser.DriverPlaywright)
	v.SetDefault("implicit_wait", "10s")
	v.SetDefault("explicit_wait", "15s")
	v.SetDefault("window_width", 1920)
	v.SetDefault("window_height", 1080)
	v.SetDefault("artifacts_dir", "")
	v.SetDefault("journal_capacity", 500)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size", 50)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 14)
	v.SetDefault("log.compress", true)

	v.SetDefault("locators", map[string]string{})
}

// Default returns the configuration without any file or environment applied.
func Default() Config {
	v := viper.New()
	SetDefaults(v)

	cfg, err := FromViper(v)
	if err != nil {
		panic(fmt.Sprintf("invalid default config: %v", err))
	}
	return cfg
}

// LoadOptions control where Load looks for configuration.
type LoadOptions struct {
	// ConfigFile is an optional YAML file. Default: none
	ConfigFile string
	// Dir is searched for a .env file. Default: working directory
	Dir string
}

// Load reads the configuration. A missing .env file is not an error, a missing ConfigFile is.
func Load(opts LoadOptions) (Config, error) {
	v := viper.New()
	SetDefaults(v)

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file %s: %w", opts.ConfigFile, err)
		}
	}

	if err := applyDotEnv(v, filepath.Join(opts.Dir, ".env")); err != nil {
		return Config{}, err
	}

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("binding %s: %w", env, err)
		}
	}

	return FromViper(v)
}

// applyDotEnv copies variables of a .env file into v for every binding whose
// environment variable is unset, so the process environment keeps precedence.
func applyDotEnv(v *viper.Viper, path string) error {
	dotenv := viper.New()
	dotenv.SetConfigFile(path)
	dotenv.SetConfigType("env")
	if err := dotenv.ReadInConfig(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", path, err)
	}

	for key, env := range envBindings {
		if _, set := os.LookupEnv(env); set {
			continue
		}
		// Keys of env files are lower cased by viper.
		if name := strings.ToLower(env); dotenv.IsSet(name) {
			v.Set(key, dotenv.GetString(name))
		}
	}
	return nil
}

// FromViper unmarshals and validates the configuration held by v.
func FromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.Headless = parseHeadless(v.GetString("headless"))

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// parseHeadless only accepts a case-insensitive "true". Values like "1" or "yes" keep
// the browser visible.
func parseHeadless(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "true")
}

// Validate checks all settings and reports every problem found.
func (c Config) Validate() error {
	var errs []error

	if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("base_url must be an absolute URL, got %q", c.BaseURL))
	}
	if !slices.Contains(browser.Drivers(), c.Driver) {
		errs = append(errs, fmt.Errorf("driver must be one of %v, got %q", browser.Drivers(), c.Driver))
	}
	if c.ImplicitWait <= 0 {
		errs = append(errs, errors.New("implicit_wait must be positive"))
	}
	if c.ExplicitWait <= 0 {
		errs = append(errs, errors.New("explicit_wait must be positive"))
	}
	if c.WindowWidth <= 0 || c.WindowHeight <= 0 {
		errs = append(errs, fmt.Errorf("window size must be positive, got %dx%d", c.WindowWidth, c.WindowHeight))
	}
	if c.JournalCapacity <= 0 {
		errs = append(errs, errors.New("journal_capacity must be a positive integer"))
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be console or json, got %q", c.Log.Format))
	}
	if _, err := locator.ParseOverrides(c.Locators); err != nil {
		errs = append(errs, fmt.Errorf("locators: %w", err))
	}

	return errors.Join(errs...)
}

// LocatorOverrides returns the parsed locator overrides.
func (c Config) LocatorOverrides() (map[locator.Name]locator.Locator, error) {
	return locator.ParseOverrides(c.Locators)
}

// LaunchOptions returns the browser launch options for this configuration.
func (c Config) LaunchOptions() browser.LaunchOptions {
	return browser.LaunchOptions{
		Headless:     c.Headless,
		ImplicitWait: c.ImplicitWait,
		WindowWidth:  c.WindowWidth,
		WindowHeight: c.WindowHeight,
	}
}
