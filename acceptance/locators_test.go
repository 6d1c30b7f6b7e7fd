//go:build acceptance
// +build acceptance

package acceptance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/networkteam/sitecheck/homepage"
	"github.com/networkteam/sitecheck/locator"
	"github.com/networkteam/sitecheck/sitechecktest"
)

func TestLocators_pageObject(t *testing.T) {
	t.Parallel()

	sitechecktest.WithFixtures(t, func(t *testing.T, f *sitechecktest.Fixtures) {
		ctx := t.Context()
		home := f.Home

		t.Run("logo", func(t *testing.T) {
			assert.True(t, home.IsLogoVisible(ctx))
		})

		t.Run("email", func(t *testing.T) {
			require.True(t, home.IsEmailVisible(ctx))
			email, err := home.GetEmail(ctx)
			require.NoError(t, err)
			assert.Contains(t, email, "hello@only.digital")
		})

		t.Run("phone", func(t *testing.T) {
			require.True(t, home.IsPhoneVisible(ctx))
			phone, err := home.GetPhone(ctx)
			require.NoError(t, err)
			assert.Contains(t, phone, "+7")
		})

		t.Run("telegram", func(t *testing.T) {
			telegram, err := home.GetTelegramURL(ctx)
			require.NoError(t, err)
			assert.Contains(t, telegram, "t.me")
		})

		t.Run("start project button", func(t *testing.T) {
			assert.True(t, home.IsStartProjectButtonVisible(ctx))
		})

		t.Run("projects section", func(t *testing.T) {
			require.NoError(t, home.ScrollToBottom(ctx))
			assert.True(t, home.IsProjectsSectionVisible(ctx))
		})

		t.Run("project cards", func(t *testing.T) {
			n, err := home.GetProjectCardsCount(ctx)
			require.NoError(t, err)
			assert.Positive(t, n)
		})

		t.Run("footer", func(t *testing.T) {
			assert.True(t, home.IsFooterVisible(ctx))
		})
	})
}

func TestLocators_direct(t *testing.T) {
	t.Parallel()

	for _, name := range []locator.Name{
		homepage.EmailLink,
		homepage.PhoneLink,
		homepage.StartProjectButton,
		homepage.ProjectsHeading,
	} {
		t.Run(string(name), func(t *testing.T) {
			t.Parallel()

			sitechecktest.WithFixtures(t, func(t *testing.T, f *sitechecktest.Fixtures) {
				ctx := t.Context()
				if name == homepage.ProjectsHeading {
					require.NoError(t, f.Session.ScrollToBottom(ctx))
				}

				l, err := f.Home.Locators().Lookup(name)
				require.NoError(t, err)

				el, err := f.Session.Find(ctx, l)
				require.NoError(t, err)
				displayed, err := el.Displayed(ctx)
				require.NoError(t, err)
				assert.True(t, displayed)
			})
		})
	}
}
