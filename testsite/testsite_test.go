package testsite_test

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/networkteam/sitecheck/testsite"
)

func TestNewServer(t *testing.T) {
	url := testsite.NewServer(t)
	require.True(t, strings.HasSuffix(url, "/"))

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, string(body), "<title>"+testsite.Title+"</title>")
	assert.Contains(t, string(body), testsite.Email)
	assert.Contains(t, string(body), testsite.Phone)
	assert.Equal(t, testsite.ProjectCards, strings.Count(string(body), `class="project-card"`))
	assert.Equal(t, testsite.ClientLogos, strings.Count(string(body), `class="client-logo"`))
	assert.NotContains(t, string(body), ">"+testsite.ProjectsHeading+"<", "projects heading is rendered on scroll")
}

func TestHandler_notFound(t *testing.T) {
	url := testsite.NewServer(t)

	resp, err := http.Get(url + "projects")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
