package locator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/networkteam/sitecheck/locator"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    locator.Locator
		wantErr bool
	}{
		{
			name:  "xpath with equals sign in selector",
			input: "xpath=//a[@href='/']",
			want:  locator.ByXPath("//a[@href='/']"),
		},
		{
			name:  "css with surrounding spaces",
			input: " css = footer a ",
			want:  locator.ByCSS("footer a"),
		},
		{
			name:  "upper case strategy",
			input: "TAG=footer",
			want:  locator.ByTagName("footer"),
		},
		{
			name:  "id",
			input: "id=main",
			want:  locator.ByID("main"),
		},
		{
			name:    "missing separator",
			input:   "//a",
			wantErr: true,
		},
		{
			name:    "unknown strategy",
			input:   "link=Contacts",
			wantErr: true,
		},
		{
			name:    "blank selector",
			input:   "css=   ",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := locator.Parse(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLocator_StringRoundTrip(t *testing.T) {
	l := locator.ByXPath("//*[contains(text(), 'проекты')]")

	parsed, err := locator.Parse(l.String())
	require.NoError(t, err)
	assert.Equal(t, l, parsed)
}

func TestLocator_Validate(t *testing.T) {
	assert.NoError(t, locator.ByCSS("button").Validate())
	assert.ErrorIs(t, locator.ByCSS("").Validate(), locator.ErrEmptySelector)
	assert.ErrorIs(t, locator.Locator{Selector: "button"}.Validate(), locator.ErrInvalidStrategy)
}

func TestStrategy_String(t *testing.T) {
	assert.Equal(t, "xpath", locator.XPath.String())
	assert.Equal(t, "Strategy(42)", locator.Strategy(42).String())
}
