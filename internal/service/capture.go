package service

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/previewcap/previewcap/internal/nonce"
)

// CaptureConfig is the per-request payload injected inline next to the
// capture scripts. Field names are part of the client contract.
type CaptureConfig struct {
	Selector string `json:"selector"`
	Nonce    string `json:"nonce"`
	HomeURL  string `json:"home_url"`
	PostID   string `json:"post_id"`
	Debug    bool   `json:"debug"`
}

// Instrumentation is everything the page template needs to drive a
// capture: script URLs in load order, the serialized inline config, and
// the preview stylesheet matching the editor's intended layout.
type Instrumentation struct {
	ScriptURLs    []string
	InlineConfig  string
	StylesheetURL string
}

// CaptureService decides per request whether a page render enters static
// capture mode and emits the client instrumentation for it. The mode is
// re-derived from every request; nothing persists across renders.
type CaptureService struct {
	nonces    *nonce.Issuer
	homeURL   string
	assetsURL string
	debug     bool
}

func NewCaptureService(nonces *nonce.Issuer, homeURL, assetsURL string, debug bool) *CaptureService {
	return &CaptureService{
		nonces:    nonces,
		homeURL:   strings.TrimSuffix(homeURL, "/"),
		assetsURL: strings.TrimSuffix(assetsURL, "/"),
		debug:     debug,
	}
}

// CapturePageID returns the page id from the activation marker, if the
// request carries one.
func (s *CaptureService) CapturePageID(r *http.Request) (string, bool) {
	id := r.URL.Query().Get(CaptureParam)
	return id, id != ""
}

// Instrumentation issues a fresh relay nonce and assembles the capture
// payload for the page. Callers must have verified edit capability first;
// this method performs no authorization of its own.
func (s *CaptureService) Instrumentation(pageID string) (*Instrumentation, error) {
	relayNonce, err := s.nonces.Issue(nonce.ScopeScreenshotProxy)
	if err != nil {
		return nil, fmt.Errorf("failed to issue relay nonce: %w", err)
	}

	config := CaptureConfig{
		Selector: ".page-" + pageID,
		Nonce:    relayNonce,
		HomeURL:  s.homeURL,
		PostID:   pageID,
		Debug:    s.debug,
	}

	payload, err := json.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal capture config: %w", err)
	}

	suffix := ".min"
	if s.debug {
		suffix = ""
	}

	return &Instrumentation{
		ScriptURLs: []string{
			fmt.Sprintf("%s/lib/dom-to-image/dom-to-image%s.js", s.assetsURL, suffix),
			fmt.Sprintf("%s/js/screenshot%s.js", s.assetsURL, suffix),
		},
		InlineConfig:  "var PreviewcapScreenshotConfig = " + string(payload) + ";",
		StylesheetURL: fmt.Sprintf("%s/css/preview-%s.css", s.assetsURL, pageID),
	}, nil
}
