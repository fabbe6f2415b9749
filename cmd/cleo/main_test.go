package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestMigrate_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	migrateDatabaseURL = ""

	_, err := execute(t, "migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database URL is required")
}

func TestCrawl_RequiresDomain(t *testing.T) {
	_, err := execute(t, "crawl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestLogo_PrintsBrandfetchResult(t *testing.T) {
	brandfetch := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/v2/brands/acme.com") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"logos": [{"type": "logo", "formats": [{"format": "png", "src": "https://cdn.example/acme.png"}]}],
			"colors": [{"hex": "#ff0000", "type": "accent"}]
		}`))
	}))
	defer brandfetch.Close()

	t.Setenv("BRANDFETCH_BASE_URL", brandfetch.URL)
	t.Setenv("SESSION_STORE", "memory")
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("PROFILE_EXTRACTION", "structured")

	out, err := execute(t, "logo", "https://www.acme.com/about")
	require.NoError(t, err)

	var got struct {
		LogoURL     string `json:"logo_url"`
		BrandColors []struct {
			Color string `json:"color"`
			Hex   string `json:"hex"`
		} `json:"brand_colors"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got), out)
	assert.Equal(t, "https://cdn.example/acme.png", got.LogoURL)
	require.Len(t, got.BrandColors, 1)
	assert.Equal(t, "#ff0000", got.BrandColors[0].Hex)
}
