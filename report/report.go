// Package report renders HTML reports of check runs and of failed tests.
package report

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/networkteam/sitecheck/browser"
	"github.com/networkteam/sitecheck/journal"
)

// Artifact is the state of a session at the time a test failed.
type Artifact struct {
	Name       string
	SessionID  string
	Driver     string
	Time       time.Time
	Title      string
	URL        string
	Source     string
	Screenshot []byte
	Entries    []journal.Entry
	// Errors are problems met while capturing the state.
	Errors []string
}

// Capture collects title, URL, page source and a screenshot from session.
// Capturing is best effort: failures are recorded in Artifact.Errors.
func Capture(ctx context.Context, name string, session browser.Session, j *journal.Journal) Artifact {
	a := Artifact{
		Name:      name,
		SessionID: session.ID(),
		Time:      time.Now(),
	}
	if j != nil {
		a.Entries = j.Entries()
	}

	var err error
	if a.Title, err = session.Title(ctx); err != nil {
		a.Errors = append(a.Errors, fmt.Sprintf("title: %v", err))
	}
	if a.URL, err = session.URL(ctx); err != nil {
		a.Errors = append(a.Errors, fmt.Sprintf("url: %v", err))
	}
	if a.Source, err = session.Content(ctx); err != nil {
		a.Errors = append(a.Errors, fmt.Sprintf("source: %v", err))
	}
	if a.Screenshot, err = session.Screenshot(ctx); err != nil {
		a.Errors = append(a.Errors, fmt.Sprintf("screenshot: %v", err))
	}
	return a
}

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// baseName derives a file name from the artifact name and session.
func (a Artifact) baseName() string {
	name := strings.Trim(unsafeFileChars.ReplaceAllString(a.Name, "_"), "_")
	if name == "" {
		name = "session"
	}
	if id := a.SessionID; id != "" {
		name += "-" + id[max(len(id)-12, 0):]
	}
	return name
}

// Write stores the artifact as HTML report (and PNG screenshot, if any) in dir and
// returns the path of the report.
func Write(dir string, a Artifact) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating artifacts dir: %w", err)
	}
	base := a.baseName()

	var screenshot string
	if len(a.Screenshot) > 0 {
		screenshot = base + ".png"
		if err := os.WriteFile(filepath.Join(dir, screenshot), a.Screenshot, 0o644); err != nil {
			return "", fmt.Errorf("writing screenshot: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := FailurePage(a, screenshot).Render(context.Background(), &buf); err != nil {
		return "", fmt.Errorf("rendering report: %w", err)
	}

	path := filepath.Join(dir, base+".html")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return path, nil
}

// Check is the result of one page object operation in a run.
type Check struct {
	Name     string
	Passed   bool
	Detail   string
	Err      error
	Duration time.Duration
}

// Run is the result of a probe run.
type Run struct {
	BaseURL   string
	Driver    string
	SessionID string
	Started   time.Time
	Duration  time.Duration
	Checks    []Check
	Entries   []journal.Entry
}

// Failed returns the number of failed checks.
func (r Run) Failed() int {
	return lo.CountBy(r.Checks, func(c Check) bool {
		return !c.Passed
	})
}

// WriteRun renders the run report to path.
func WriteRun(path string, r Run) error {
	var buf bytes.Buffer
	if err := RunPage(r).Render(context.Background(), &buf); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating report dir: %w", err)
		}
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
