package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/networkteam/sitecheck"
	"github.com/networkteam/sitecheck/homepage"
	"github.com/networkteam/sitecheck/report"
)

// check is one page object operation of a probe run. It returns a detail for
// the report and an error if the check failed.
type check struct {
	name string
	run  func(ctx context.Context, home *homepage.HomePage) (string, error)
}

var errCheckFailed = errors.New("check failed")

func probe(name string, visible func(*homepage.HomePage, context.Context) bool) check {
	return check{name: name, run: func(ctx context.Context, home *homepage.HomePage) (string, error) {
		if !visible(home, ctx) {
			return "not visible", errCheckFailed
		}
		return "visible", nil
	}}
}

func contains(name, want string, get func(*homepage.HomePage, context.Context) (string, error)) check {
	return check{name: name, run: func(ctx context.Context, home *homepage.HomePage) (string, error) {
		got, err := get(home, ctx)
		if err != nil {
			return "", err
		}
		if !strings.Contains(got, want) {
			return fmt.Sprintf("%q does not contain %q", got, want), errCheckFailed
		}
		return got, nil
	}}
}

func atLeastOne(name string, count func(*homepage.HomePage, context.Context) (int, error)) check {
	return check{name: name, run: func(ctx context.Context, home *homepage.HomePage) (string, error) {
		n, err := count(home, ctx)
		if err != nil {
			return "", err
		}
		detail := fmt.Sprintf("%d found", n)
		if n == 0 {
			return detail, errCheckFailed
		}
		return detail, nil
	}}
}

// checks are run in order. Scrolling comes last since it changes the page.
var checks = []check{
	contains("page title", "Only", (*homepage.HomePage).GetPageTitle),
	probe("logo visible", (*homepage.HomePage).IsLogoVisible),
	probe("email visible", (*homepage.HomePage).IsEmailVisible),
	contains("email", "hello@only.digital", (*homepage.HomePage).GetEmail),
	probe("phone visible", (*homepage.HomePage).IsPhoneVisible),
	contains("phone", "+7", (*homepage.HomePage).GetPhone),
	contains("telegram", "t.me", (*homepage.HomePage).GetTelegramURL),
	probe("start project button visible", (*homepage.HomePage).IsStartProjectButtonVisible),
	atLeastOne("project cards", (*homepage.HomePage).GetProjectCardsCount),
	atLeastOne("client logos", (*homepage.HomePage).GetClientLogosCount),
	{name: "page source", run: func(ctx context.Context, home *homepage.HomePage) (string, error) {
		source, err := home.GetPageSource(ctx)
		if err != nil {
			return "", err
		}
		detail := fmt.Sprintf("%d bytes", len(source))
		if !strings.Contains(strings.ToLower(source), "only.digital") {
			return detail, errCheckFailed
		}
		return detail, nil
	}},
	probe("footer visible", (*homepage.HomePage).IsFooterVisible),
	{name: "projects section after scroll", run: func(ctx context.Context, home *homepage.HomePage) (string, error) {
		if err := home.ScrollToBottom(ctx); err != nil {
			return "", err
		}
		if !home.IsProjectsSectionVisible(ctx) {
			return "not visible", errCheckFailed
		}
		return "visible", nil
	}},
}

func newProbeCmd(a *app) *cobra.Command {
	var htmlPath string

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Open the home page and run every check once",
		Long: `Opens a browser session at the base URL and runs every page object operation once.
One line is printed per check. The command fails if any check fails.`,
		Args: cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			return runProbe(cmd.Context(), a, cmd.OutOrStdout(), htmlPath)
		}),
	}

	cmd.Flags().StringVar(&htmlPath, "html", "", "write an HTML run report to this file")

	return cmd
}

func runProbe(ctx context.Context, a *app, out io.Writer, htmlPath string) error {
	inst, err := sitecheck.Open(ctx, a.cfg, sitecheck.Options{
		Driver: a.launcher,
		Logger: a.logger.Logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := inst.Close(); err != nil {
			a.logger.Warn("Closing session failed", slog.Any("error", err))
		}
	}()

	run := report.Run{
		BaseURL:   a.cfg.BaseURL,
		Driver:    inst.Driver(),
		SessionID: inst.ID(),
		Started:   time.Now(),
	}
	home := inst.HomePage()
	for _, c := range checks {
		start := time.Now()
		detail, err := c.run(ctx, home)
		result := report.Check{
			Name:     c.name,
			Passed:   err == nil,
			Detail:   detail,
			Duration: time.Since(start),
		}
		if err != nil && !errors.Is(err, errCheckFailed) {
			result.Err = err
		}
		run.Checks = append(run.Checks, result)
		printCheck(out, result)
	}
	run.Duration = time.Since(run.Started)
	run.Entries = inst.Journal().Entries()

	if htmlPath != "" {
		if err := report.WriteRun(htmlPath, run); err != nil {
			return err
		}
		fmt.Fprintf(out, "report: %s\n", htmlPath)
	}

	failed := run.Failed()
	if failed == 0 {
		return nil
	}
	if a.cfg.ArtifactsDir != "" {
		path, err := report.Write(a.cfg.ArtifactsDir, inst.Capture(ctx, "probe"))
		if err != nil {
			a.logger.Warn("Writing failure report failed", slog.Any("error", err))
		} else {
			fmt.Fprintf(out, "failure report: %s\n", path)
		}
	}
	return fmt.Errorf("%d of %d checks failed", failed, len(run.Checks))
}

func printCheck(out io.Writer, c report.Check) {
	status := "ok  "
	if !c.Passed {
		status = "FAIL"
	}
	line := fmt.Sprintf("%s %-32s %8s", status, c.Name, c.Duration.Round(time.Millisecond))
	if c.Detail != "" {
		line += "  " + c.Detail
	}
	if c.Err != nil {
		line += "  " + c.Err.Error()
	}
	fmt.Fprintln(out, line)
}
