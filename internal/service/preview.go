package service

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// CaptureParam is the activation marker: its presence on a page render
// switches that single render into static capture mode.
const CaptureParam = "previewcap-screenshot"

// PreviewService composes the externally reachable URL that triggers a
// fresh capture for a page, and merges it into the editor's document
// config. Pure computation; it holds no mutable state and never touches
// global URL-rewriting configuration.
type PreviewService struct {
	homeURL *url.URL
	now     func() time.Time
}

func NewPreviewService(siteURL string) (*PreviewService, error) {
	home, err := url.Parse(siteURL)
	if err != nil {
		return nil, fmt.Errorf("invalid site URL %q: %w", siteURL, err)
	}
	if home.Scheme == "" || home.Host == "" {
		return nil, fmt.Errorf("site URL %q must be absolute", siteURL)
	}

	return &PreviewService{
		homeURL: home,
		now:     time.Now,
	}, nil
}

// Compose builds the capture-trigger URL for a page: the plain query-style
// permalink (immune to any pretty-permalink rewriting), the activation
// marker, and a time-based cache buster so proxies never serve a stale
// render. The scheme always matches the site's configured scheme.
func (s *PreviewService) Compose(pageID string) string {
	u := *s.homeURL
	u.Path = "/"

	q := url.Values{}
	q.Set("p", pageID)
	q.Set(CaptureParam, pageID)
	q.Set("ver", strconv.FormatInt(s.now().Unix(), 10))
	u.RawQuery = q.Encode()

	return u.String()
}

// ExtendDocumentConfig merges {urls: {screenshot: <composed>}} into the
// host-provided editor config. The merge is recursive so sibling keys
// under "urls" survive.
func (s *PreviewService) ExtendDocumentConfig(config map[string]any, pageID string) map[string]any {
	return mergeRecursive(config, map[string]any{
		"urls": map[string]any{
			"screenshot": s.Compose(pageID),
		},
	})
}

// mergeRecursive overlays src onto dst, descending into nested maps.
// Returns a new map; neither input is mutated.
func mergeRecursive(dst, src map[string]any) map[string]any {
	out := make(map[string]any, len(dst)+len(src))
	for k, v := range dst {
		out[k] = v
	}
	for k, v := range src {
		srcMap, srcOK := v.(map[string]any)
		dstMap, dstOK := out[k].(map[string]any)
		if srcOK && dstOK {
			out[k] = mergeRecursive(dstMap, srcMap)
			continue
		}
		out[k] = v
	}
	return out
}
