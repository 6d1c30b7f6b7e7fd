// Package testsite serves a local replica of the only.digital home page markup.
// Backends and page objects are checked against it without network access.
package testsite

import (
	_ "embed"
	"net/http"
	"net/http/httptest"
	"testing"
)

//go:embed index.html
var indexHTML []byte

// Facts about the replica that tests assert on.
const (
	Title           = "Only | digital-агентство"
	Email           = "mailto:hello@only.digital"
	Phone           = "tel:+74957401199"
	TelegramURL     = "https://t.me/onlydigitalagency"
	ProjectCards    = 3
	ClientLogos     = 4
	ProjectsHeading = "Наши проекты"
)

// Handler serves the replica at "/" and answers every other path with 404.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(indexHTML)
	})
	return mux
}

// NewServer starts a server for the replica that is closed when the test ends.
// The returned URL ends with a slash like the production base URL.
func NewServer(tb testing.TB) string {
	tb.Helper()

	srv := httptest.NewServer(Handler())
	tb.Cleanup(srv.Close)

	return srv.URL + "/"
}
