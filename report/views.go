package report

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/networkteam/sitecheck/journal"
)

const baseCSS = `
body { font-family: ui-sans-serif, system-ui, sans-serif; margin: 0; padding: 24px 32px; color: #171717; }
h1 { font-size: 20px; margin: 0 0 16px; }
h2 { font-size: 16px; margin: 24px 0 8px; }
table { border-collapse: collapse; width: 100%; font-size: 13px; }
th, td { text-align: left; padding: 4px 8px; border-bottom: 1px solid #e5e5e5; vertical-align: top; }
dl { display: grid; grid-template-columns: max-content auto; gap: 4px 16px; font-size: 13px; }
dt { color: #737373; }
img { max-width: 100%; border: 1px solid #e5e5e5; }
.mono { font-family: ui-monospace, monospace; }
.badge { display: inline-block; border-radius: 9999px; padding: 1px 10px; font-size: 12px; font-weight: 600; font-family: ui-monospace, monospace; }
.badge-default { background: #000; color: #fff; }
.badge-secondary { background: #e5e5e5; color: #000; }
.badge-success { background: #16a34a; color: #fff; }
.badge-warning { background: #fb923c; color: #fff; }
.badge-error { background: #ef4444; color: #fff; }
`

type badgeVariant string

const (
	badgeDefault   badgeVariant = "default"
	badgeSecondary badgeVariant = "secondary"
	badgeSuccess   badgeVariant = "success"
	badgeWarning   badgeVariant = "warning"
	badgeError     badgeVariant = "error"
)

func levelVariant(level slog.Level) badgeVariant {
	switch {
	case level >= slog.LevelError:
		return badgeError
	case level >= slog.LevelWarn:
		return badgeWarning
	case level >= slog.LevelInfo:
		return badgeDefault
	default:
		return badgeSecondary
	}
}

// htmlWriter writes markup until the first error.
type htmlWriter struct {
	ctx context.Context
	w   io.Writer
	err error
}

func (hw *htmlWriter) raw(s string) {
	if hw.err == nil {
		_, hw.err = io.WriteString(hw.w, s)
	}
}

func (hw *htmlWriter) rawf(format string, args ...any) {
	hw.raw(fmt.Sprintf(format, args...))
}

func (hw *htmlWriter) text(s string) {
	hw.raw(templ.EscapeString(s))
}

func (hw *htmlWriter) component(c templ.Component) {
	if hw.err == nil {
		hw.err = c.Render(hw.ctx, hw.w)
	}
}

func (hw *htmlWriter) badge(variant badgeVariant, label string) {
	hw.rawf(`<span class="badge badge-%s">`, variant)
	hw.text(label)
	hw.raw(`</span>`)
}

func (hw *htmlWriter) field(name, value string) {
	hw.raw("<dt>")
	hw.text(name)
	hw.raw(`</dt><dd class="mono">`)
	hw.text(value)
	hw.raw("</dd>")
}

func component(render func(hw *htmlWriter)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{ctx: ctx, w: w}
		render(hw)
		return hw.err
	})
}

func layout(title string, body templ.Component) templ.Component {
	return component(func(hw *htmlWriter) {
		hw.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>`)
		hw.text(title)
		hw.raw(`</title><style>` + baseCSS + `</style>`)
		hw.component(chromaStyles())
		hw.raw(`</head><body>`)
		hw.component(body)
		hw.raw(`</body></html>`)
	})
}

// FailurePage renders the state of a session after a failed test. screenshotFile is
// the file name of the screenshot relative to the report, empty if there is none.
func FailurePage(a Artifact, screenshotFile string) templ.Component {
	return layout("Failed: "+a.Name, component(func(hw *htmlWriter) {
		hw.raw("<h1>")
		hw.badge(badgeError, "failed")
		hw.raw(" ")
		hw.text(a.Name)
		hw.raw("</h1><dl>")
		hw.field("Session", a.SessionID)
		if a.Driver != "" {
			hw.field("Driver", a.Driver)
		}
		hw.field("Captured", a.Time.Format(time.RFC3339))
		hw.field("Title", a.Title)
		hw.field("URL", a.URL)
		hw.raw("</dl>")

		if len(a.Errors) > 0 {
			hw.raw("<h2>Capture errors</h2><ul>")
			for _, e := range a.Errors {
				hw.raw(`<li class="mono">`)
				hw.text(e)
				hw.raw("</li>")
			}
			hw.raw("</ul>")
		}

		if screenshotFile != "" {
			hw.raw(`<h2>Screenshot</h2><img alt="screenshot" src="`)
			hw.text(screenshotFile)
			hw.raw(`">`)
		}

		hw.raw("<h2>Journal</h2>")
		hw.component(journalTable(a.Entries))

		if a.Source != "" {
			hw.raw("<h2>Page source</h2>")
			hw.component(highlightContent(a.Source, "text/html"))
		}
	}))
}

// RunPage renders the results of a probe run.
func RunPage(r Run) templ.Component {
	return layout("sitecheck "+r.BaseURL, component(func(hw *htmlWriter) {
		hw.raw("<h1>")
		if failed := r.Failed(); failed > 0 {
			hw.badge(badgeError, fmt.Sprintf("%d failed", failed))
		} else {
			hw.badge(badgeSuccess, "passed")
		}
		hw.raw(" ")
		hw.text(r.BaseURL)
		hw.raw("</h1><dl>")
		hw.field("Driver", r.Driver)
		hw.field("Session", r.SessionID)
		hw.field("Started", r.Started.Format(time.RFC3339))
		hw.field("Duration", r.Duration.Round(time.Millisecond).String())
		hw.raw("</dl>")

		hw.raw("<h2>Checks</h2><table><thead><tr><th>Check</th><th>Result</th><th>Detail</th><th>Duration</th></tr></thead><tbody>")
		for _, c := range r.Checks {
			hw.raw(`<tr><td class="mono">`)
			hw.text(c.Name)
			hw.raw("</td><td>")
			if c.Passed {
				hw.badge(badgeSuccess, "ok")
			} else {
				hw.badge(badgeError, "fail")
			}
			hw.raw(`</td><td class="mono">`)
			hw.text(c.Detail)
			if c.Err != nil {
				hw.text(" " + c.Err.Error())
			}
			hw.raw(`</td><td class="mono">`)
			hw.text(c.Duration.Round(time.Millisecond).String())
			hw.raw("</td></tr>")
		}
		hw.raw("</tbody></table>")

		hw.raw("<h2>Journal</h2>")
		hw.component(journalTable(r.Entries))
	}))
}

func journalTable(entries []journal.Entry) templ.Component {
	return component(func(hw *htmlWriter) {
		if len(entries) == 0 {
			hw.raw("<p>No entries.</p>")
			return
		}
		hw.raw("<table><thead><tr><th>Time</th><th>Level</th><th>Message</th><th>Attributes</th></tr></thead><tbody>")
		for _, e := range entries {
			hw.raw(`<tr><td class="mono">`)
			hw.text(e.Time.Format("15:04:05.000"))
			hw.raw("</td><td>")
			hw.badge(levelVariant(e.Level), e.Level.String())
			hw.raw("</td><td>")
			hw.text(e.Message)
			hw.raw(`</td><td class="mono">`)
			hw.text(e.AttrString())
			hw.raw("</td></tr>")
		}
		hw.raw("</tbody></table>")
	})
}

// highlightContent applies syntax highlighting to the content
func highlightContent(content string, contentType string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		contentType = strings.Split(contentType, ";")[0]

		lexer := lexers.MatchMimeType(contentType)
		if lexer == nil {
			lexer = lexers.Fallback
		}

		formatter, style := chromaFormatterAndStyle()

		iterator, err := lexer.Tokenise(nil, content)
		if err != nil {
			return err
		}
		return formatter.Format(w, style, iterator)
	})
}

func chromaFormatterAndStyle() (*html.Formatter, *chroma.Style) {
	formatter := html.New(
		html.Standalone(false),
		html.WithClasses(true),
		html.TabWidth(2),
	)

	style := styles.Get("github")
	if style == nil {
		style = styles.Fallback
	}
	return formatter, style
}

func chromaStyles() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, _ = io.WriteString(w, "<style>")
		formatter, style := chromaFormatterAndStyle()
		err := formatter.WriteCSS(w, style)
		_, _ = io.WriteString(w, ".chroma { white-space: pre-wrap; font-size: 12px; }\n</style>")
		return err
	})
}
