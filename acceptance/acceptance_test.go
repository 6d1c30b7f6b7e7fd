//go:build acceptance
// +build acceptance

// Package acceptance runs the home page suite in real browsers. The conformance
// tests use a local replica of the page, the home page tests the configured base URL.
package acceptance

import (
	"log"
	"os"
	"testing"

	"github.com/playwright-community/playwright-go"
)

// TestMain installs the Playwright driver and Chromium before running tests.
func TestMain(m *testing.M) {
	if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
		log.Fatalf("could not install playwright: %v", err)
	}
	os.Exit(m.Run())
}
