package pages

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHomePage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, HomePage("https://cdn.example.com").Render(context.Background(), &buf))

	html := buf.String()
	assert.True(t, strings.HasPrefix(strings.ToLower(html), "<!doctype html>"))
	assert.Contains(t, html, "POST https://cdn.example.com/upload")
	assert.Contains(t, html, "DELETE https://cdn.example.com/delete/")
}

func TestHomePage_EscapesBaseURL(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, HomePage(`http://x/"><script>`).Render(context.Background(), &buf))
	assert.NotContains(t, buf.String(), "<script>")
}

func TestError404(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Error404().Render(context.Background(), &buf))
	assert.Contains(t, buf.String(), "The requested file was not found on the CDN.")
	assert.Contains(t, buf.String(), "<title>Not found</title>")
}
