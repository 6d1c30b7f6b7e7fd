package locator

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/samber/lo"
)

// Name identifies an element of a page, e.g. "email_link".
type Name string

// Registry maps element names to locators. It is read-only once constructed.
type Registry struct {
	page     string
	locators map[Name]Locator
}

// NewRegistry validates all locators and returns a registry for the given page.
func NewRegistry(page string, locators map[Name]Locator) (*Registry, error) {
	var errs []error
	for _, name := range sortedNames(locators) {
		if name == "" {
			errs = append(errs, fmt.Errorf("%s: locator with empty name", page))
			continue
		}
		if err := locators[name].Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s.%s: %w", page, name, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	return &Registry{
		page:     page,
		locators: maps.Clone(locators),
	}, nil
}

// MustRegistry is like NewRegistry but panics on invalid locators.
// It is meant for package level declarations.
func MustRegistry(page string, locators map[Name]Locator) *Registry {
	r, err := NewRegistry(page, locators)
	if err != nil {
		panic(err)
	}
	return r
}

// Page returns the name of the page the registry belongs to.
func (r *Registry) Page() string {
	return r.page
}

// Get returns the locator registered for name.
func (r *Registry) Get(name Name) (Locator, bool) {
	l, ok := r.locators[name]
	return l, ok
}

// Lookup returns the locator for name or an error naming the page and element.
func (r *Registry) Lookup(name Name) (Locator, error) {
	l, ok := r.locators[name]
	if !ok {
		return Locator{}, fmt.Errorf("%s: no locator named %q", r.page, name)
	}
	return l, nil
}

// Names returns all registered names in lexical order.
func (r *Registry) Names() []Name {
	return sortedNames(r.locators)
}

// Len returns the number of registered locators.
func (r *Registry) Len() int {
	return len(r.locators)
}

// WithOverrides returns a new registry where the given locators replace the registered ones.
// Overrides must name existing elements.
func (r *Registry) WithOverrides(overrides map[Name]Locator) (*Registry, error) {
	if len(overrides) == 0 {
		return r, nil
	}

	unknown := lo.Filter(sortedNames(overrides), func(name Name, _ int) bool {
		_, ok := r.locators[name]
		return !ok
	})
	if len(unknown) > 0 {
		return nil, fmt.Errorf("%s: overrides for unknown elements %v", r.page, unknown)
	}

	merged := maps.Clone(r.locators)
	maps.Copy(merged, overrides)
	return NewRegistry(r.page, merged)
}

// ParseOverrides parses a name -> "strategy=selector" map as found in configuration.
func ParseOverrides(raw map[string]string) (map[Name]Locator, error) {
	overrides := make(map[Name]Locator, len(raw))
	var errs []error
	for _, key := range slices.Sorted(maps.Keys(raw)) {
		l, err := Parse(raw[key])
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			continue
		}
		overrides[Name(key)] = l
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return overrides, nil
}

func sortedNames(m map[Name]Locator) []Name {
	names := lo.Keys(m)
	slices.Sort(names)
	return names
}
