package service

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/previewcap/previewcap/internal/nonce"
	"github.com/stretchr/testify/require"
)

func TestCapturePageID(t *testing.T) {
	issuer := nonce.NewIssuer("secret", time.Minute)
	svc := NewCaptureService(issuer, "https://example.com", "/assets", false)

	r := httptest.NewRequest("GET", "/?p=42&"+CaptureParam+"=42", nil)
	id, ok := svc.CapturePageID(r)
	require.True(t, ok)
	require.Equal(t, "42", id)

	r = httptest.NewRequest("GET", "/?p=42", nil)
	_, ok = svc.CapturePageID(r)
	require.False(t, ok)
}

func decodeInlineConfig(t *testing.T, inline string) CaptureConfig {
	t.Helper()

	payload := strings.TrimPrefix(inline, "var PreviewcapScreenshotConfig = ")
	payload = strings.TrimSuffix(payload, ";")

	var config CaptureConfig
	require.NoError(t, json.Unmarshal([]byte(payload), &config))
	return config
}

func TestInstrumentationPayload(t *testing.T) {
	issuer := nonce.NewIssuer("secret", time.Minute)
	svc := NewCaptureService(issuer, "https://example.com/", "/assets/", false)

	inst, err := svc.Instrumentation("42")
	require.NoError(t, err)

	config := decodeInlineConfig(t, inst.InlineConfig)
	require.Equal(t, ".page-42", config.Selector)
	require.Equal(t, "https://example.com", config.HomeURL)
	require.Equal(t, "42", config.PostID)
	require.False(t, config.Debug)

	// The emitted nonce must actually unlock the relay scope
	require.NoError(t, issuer.Verify(config.Nonce, nonce.ScopeScreenshotProxy))

	require.Len(t, inst.ScriptURLs, 2)
	require.Equal(t, "/assets/lib/dom-to-image/dom-to-image.min.js", inst.ScriptURLs[0])
	require.Equal(t, "/assets/js/screenshot.min.js", inst.ScriptURLs[1])
	require.Equal(t, "/assets/css/preview-42.css", inst.StylesheetURL)
}

func TestInstrumentationDebugUsesUnminifiedScripts(t *testing.T) {
	issuer := nonce.NewIssuer("secret", time.Minute)
	svc := NewCaptureService(issuer, "https://example.com", "/assets", true)

	inst, err := svc.Instrumentation("42")
	require.NoError(t, err)

	require.Equal(t, "/assets/lib/dom-to-image/dom-to-image.js", inst.ScriptURLs[0])
	require.Equal(t, "/assets/js/screenshot.js", inst.ScriptURLs[1])

	config := decodeInlineConfig(t, inst.InlineConfig)
	require.True(t, config.Debug)
}
