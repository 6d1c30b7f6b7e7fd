package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/networkteam/sitecheck/browser"
	"github.com/networkteam/sitecheck/config"
	"github.com/networkteam/sitecheck/logging"
)

// app holds what the subcommands share. It is populated in PersistentPreRunE.
type app struct {
	cfgFile  string
	driver   string
	baseURL  string
	headless bool

	// launcher replaces the configured driver, nil in production.
	launcher browser.Driver

	cfg    config.Config
	logger *logging.Logger
}

func newRootCmd(launcher browser.Driver) *cobra.Command {
	a := &app{launcher: launcher}

	cmd := &cobra.Command{
		Use:           "sitecheck",
		Short:         "Check the only.digital home page in a real browser",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&a.cfgFile, "config", "c", "", "YAML config file")
	flags.StringVar(&a.driver, "driver", "", fmt.Sprintf("browser driver, one of %v", browser.Drivers()))
	flags.StringVar(&a.baseURL, "base-url", "", "URL of the home page")
	flags.BoolVar(&a.headless, "headless", false, "run the browser without a window")

	cmd.AddCommand(
		newProbeCmd(a),
		newLocatorsCmd(a),
	)

	return cmd
}

// init loads the configuration, applies flags set on the command line and builds the logger.
func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(config.LoadOptions{ConfigFile: a.cfgFile})
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("driver") {
		cfg.Driver = a.driver
	}
	if flags.Changed("base-url") {
		cfg.BaseURL = a.baseURL
	}
	if flags.Changed("headless") {
		cfg.Headless = a.headless
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.Log, logging.Options{Writer: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	return nil
}

// run wraps the RunE of a subcommand so the logger is flushed on every exit path.
func (a *app) run(fn func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			if a.logger != nil {
				err = errors.Join(err, a.logger.Close())
			}
		}()
		return fn(cmd, args)
	}
}
