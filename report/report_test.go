package report_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/networkteam/sitecheck/browser"
	"github.com/networkteam/sitecheck/browser/browsertest"
	"github.com/networkteam/sitecheck/journal"
	"github.com/networkteam/sitecheck/report"
)

func launch(t *testing.T) browser.Session {
	t.Helper()

	driver := browsertest.NewDriver(&browsertest.Page{
		Title:   "Only | digital-агентство",
		Content: `<html><body><a href="mailto:hello@only.digital">hello@only.digital</a></body></html>`,
	})
	session, err := driver.Launch(context.Background(), browser.DefaultLaunchOptions())
	require.NoError(t, err)
	require.NoError(t, session.Navigate(context.Background(), "https://only.digital/"))
	return session
}

func TestCapture(t *testing.T) {
	session := launch(t)
	j := journal.New(10)
	slog.New(journal.NewHandler(j, journal.HandlerOptions{})).Warn("Probe failed", slog.String("element", "footer"))

	a := report.Capture(context.Background(), "TestFooterVisible", session, j)

	assert.Equal(t, "TestFooterVisible", a.Name)
	assert.Equal(t, session.ID(), a.SessionID)
	assert.Equal(t, "Only | digital-агентство", a.Title)
	assert.Equal(t, "https://only.digital/", a.URL)
	assert.Contains(t, a.Source, "hello@only.digital")
	assert.NotEmpty(t, a.Screenshot)
	assert.Len(t, a.Entries, 1)
	assert.Empty(t, a.Errors)
}

func TestCapture_closedSession(t *testing.T) {
	session := launch(t)
	require.NoError(t, session.Close())

	a := report.Capture(context.Background(), "TestClosed", session, nil)

	assert.Len(t, a.Errors, 4)
	assert.Contains(t, a.Errors[0], "session closed")
}

func TestWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "artifacts")
	a := report.Artifact{
		Name:       "TestLocators/email <contact>",
		SessionID:  "0192f7a4-5c1e-7bde-9a4f-3c2b1a0f9e8d",
		Time:       time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC),
		Title:      "Only",
		URL:        "https://only.digital/",
		Source:     `<a href="mailto:hello@only.digital">hello</a>`,
		Screenshot: []byte("\x89PNG\r\n\x1a\n"),
		Entries: []journal.Entry{
			{Time: time.Now(), Level: slog.LevelWarn, Message: "Probe failed", Attrs: []slog.Attr{slog.String("element", "email_link")}},
		},
		Errors: []string{"screenshot: <timeout>"},
	}

	path, err := report.Write(dir, a)
	require.NoError(t, err)

	assert.Equal(t, "TestLocators_email_contact-3c2b1a0f9e8d.html", filepath.Base(path))

	png, err := os.ReadFile(filepath.Join(dir, "TestLocators_email_contact-3c2b1a0f9e8d.png"))
	require.NoError(t, err)
	assert.Equal(t, a.Screenshot, png)

	html, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(html)

	assert.True(t, strings.HasPrefix(content, "<!DOCTYPE html>"))
	assert.Contains(t, content, "TestLocators/email &lt;contact&gt;", "name is escaped")
	assert.Contains(t, content, `src="TestLocators_email_contact-3c2b1a0f9e8d.png"`)
	assert.Contains(t, content, "element=email_link")
	assert.Contains(t, content, "screenshot: &lt;timeout&gt;")
	assert.Contains(t, content, `class="chroma"`, "source is highlighted")
	assert.NotContains(t, content, `<a href="mailto:hello@only.digital">`, "source is not rendered as markup")
}

func TestWrite_withoutScreenshot(t *testing.T) {
	dir := t.TempDir()

	path, err := report.Write(dir, report.Artifact{Name: "TestPageLoads"})
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, filepath.Base(path), entries[0].Name())

	html, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(html), "<img")
	assert.Contains(t, string(html), "No entries.")
}

func TestRunPage(t *testing.T) {
	r := report.Run{
		BaseURL: "https://only.digital/",
		Driver:  "chromedp",
		Started: time.Now(),
		Checks: []report.Check{
			{Name: "logo visible", Passed: true, Duration: 120 * time.Millisecond},
			{Name: "phone", Passed: false, Err: errors.New("phone_link: no such element")},
		},
	}
	assert.Equal(t, 1, r.Failed())

	var buf bytes.Buffer
	require.NoError(t, report.RunPage(r).Render(context.Background(), &buf))

	assert.Contains(t, buf.String(), "1 failed")
	assert.Contains(t, buf.String(), "logo visible")
	assert.Contains(t, buf.String(), "phone_link: no such element")
}

func TestWriteRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "run.html")

	require.NoError(t, report.WriteRun(path, report.Run{
		BaseURL: "https://only.digital/",
		Checks:  []report.Check{{Name: "footer visible", Passed: true}},
	}))

	html, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(html), "passed")
}
