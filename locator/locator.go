// Package locator describes how elements are found on a rendered page.
//
// A Locator is an immutable (strategy, selector) pair. Locators are declared once,
// grouped per page in a Registry and translated into driver specific queries by the
// browser package.
package locator

import (
	"errors"
	"fmt"
	"strings"
)

// Strategy selects how a selector string is interpreted.
type Strategy int

const (
	// ID matches the element id attribute.
	ID Strategy = iota + 1
	// CSS matches a CSS selector.
	CSS
	// XPath matches an XPath 1.0 expression.
	XPath
	// TagName matches elements by tag name.
	TagName
)

var strategyNames = map[Strategy]string{
	ID:      "id",
	CSS:     "css",
	XPath:   "xpath",
	TagName: "tag",
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy returns the strategy for its string form ("id", "css", "xpath" or "tag").
func ParseStrategy(s string) (Strategy, error) {
	for strategy, name := range strategyNames {
		if strings.EqualFold(s, name) {
			return strategy, nil
		}
	}
	return 0, fmt.Errorf("unknown locator strategy %q", s)
}

var (
	// ErrEmptySelector is returned when a locator has a blank selector.
	ErrEmptySelector = errors.New("empty selector")
	// ErrInvalidStrategy is returned when a locator has no known strategy.
	ErrInvalidStrategy = errors.New("invalid locator strategy")
)

// Locator identifies zero or more elements in the current page state.
type Locator struct {
	Strategy Strategy
	Selector string
}

// ByID returns a locator matching the element with the given id.
func ByID(id string) Locator {
	return Locator{Strategy: ID, Selector: id}
}

// ByCSS returns a locator for a CSS selector.
func ByCSS(selector string) Locator {
	return Locator{Strategy: CSS, Selector: selector}
}

// ByXPath returns a locator for an XPath expression.
func ByXPath(expr string) Locator {
	return Locator{Strategy: XPath, Selector: expr}
}

// ByTagName returns a locator matching elements by tag name.
func ByTagName(tag string) Locator {
	return Locator{Strategy: TagName, Selector: tag}
}

// Parse reads a locator in the "strategy=selector" form produced by String,
// e.g. "xpath=//a[@href='/']" or "css=footer a".
func Parse(s string) (Locator, error) {
	rawStrategy, selector, ok := strings.Cut(s, "=")
	if !ok {
		return Locator{}, fmt.Errorf("locator %q: expected strategy=selector", s)
	}
	strategy, err := ParseStrategy(strings.TrimSpace(rawStrategy))
	if err != nil {
		return Locator{}, fmt.Errorf("locator %q: %w", s, err)
	}
	l := Locator{Strategy: strategy, Selector: strings.TrimSpace(selector)}
	if err := l.Validate(); err != nil {
		return Locator{}, err
	}
	return l, nil
}

// Validate checks that the locator has a known strategy and a non-blank selector.
func (l Locator) Validate() error {
	if _, ok := strategyNames[l.Strategy]; !ok {
		return fmt.Errorf("%w: %d", ErrInvalidStrategy, int(l.Strategy))
	}
	if strings.TrimSpace(l.Selector) == "" {
		return fmt.Errorf("%s locator: %w", l.Strategy, ErrEmptySelector)
	}
	return nil
}

func (l Locator) String() string {
	return l.Strategy.String() + "=" + l.Selector
}
