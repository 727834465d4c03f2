package service

import (
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestComposeCarriesMarkerAndCacheBuster(t *testing.T) {
	svc, err := NewPreviewService("https://example.com")
	require.NoError(t, err)

	composed := svc.Compose("42")

	u, err := url.Parse(composed)
	require.NoError(t, err)
	require.Equal(t, "https", u.Scheme)
	require.Equal(t, "example.com", u.Host)
	require.Equal(t, "/", u.Path)

	q := u.Query()
	require.Equal(t, "42", q.Get("p"))
	require.Equal(t, "42", q.Get(CaptureParam))
	require.NotEmpty(t, q.Get("ver"))
}

func TestComposeNormalizesScheme(t *testing.T) {
	svc, err := NewPreviewService("http://intranet.local:8090")
	require.NoError(t, err)

	u, err := url.Parse(svc.Compose("7"))
	require.NoError(t, err)
	require.Equal(t, "http", u.Scheme)
	require.Equal(t, "intranet.local:8090", u.Host)
}

func TestComposeRejectsRelativeSiteURL(t *testing.T) {
	_, err := NewPreviewService("/just/a/path")
	require.Error(t, err)
}

func TestComposeIsDeterministicUpToCacheBuster(t *testing.T) {
	svc, err := NewPreviewService("https://example.com")
	require.NoError(t, err)

	now := time.Unix(1700000000, 0)
	svc.now = func() time.Time { return now }

	first, err := url.Parse(svc.Compose("42"))
	require.NoError(t, err)

	now = now.Add(time.Second)
	second, err := url.Parse(svc.Compose("42"))
	require.NoError(t, err)

	require.Equal(t, first.Path, second.Path)
	require.Equal(t, first.Query().Get("p"), second.Query().Get("p"))
	require.Equal(t, first.Query().Get(CaptureParam), second.Query().Get(CaptureParam))

	v1, err := strconv.ParseInt(first.Query().Get("ver"), 10, 64)
	require.NoError(t, err)
	v2, err := strconv.ParseInt(second.Query().Get("ver"), 10, 64)
	require.NoError(t, err)
	require.GreaterOrEqual(t, v2, v1)
}

func TestExtendDocumentConfigMergesRecursively(t *testing.T) {
	svc, err := NewPreviewService("https://example.com")
	require.NoError(t, err)

	base := map[string]any{
		"id": "42",
		"urls": map[string]any{
			"permalink": "/p/launch",
		},
	}

	merged := svc.ExtendDocumentConfig(base, "42")

	urls, ok := merged["urls"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "/p/launch", urls["permalink"], "sibling keys must survive the merge")
	require.Contains(t, urls["screenshot"], CaptureParam+"=42")
	require.Equal(t, "42", merged["id"])

	// Input config must not be mutated
	baseURLs := base["urls"].(map[string]any)
	_, leaked := baseURLs["screenshot"]
	require.False(t, leaked)
}
