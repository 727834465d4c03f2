package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/previewcap/previewcap/internal/nonce"
)

// RelayOutcome classifies a relay attempt internally. Externally every
// non-OK outcome renders as an empty body; the distinction exists for
// logging and tests only.
type RelayOutcome int

const (
	RelayOK RelayOutcome = iota
	RelayDenied
	RelayMissingInput
	RelayFetchFailed
)

func (o RelayOutcome) String() string {
	switch o {
	case RelayOK:
		return "ok"
	case RelayDenied:
		return "denied"
	case RelayMissingInput:
		return "missing_input"
	case RelayFetchFailed:
		return "fetch_failed"
	}
	return "unknown"
}

// RelayService fetches a caller-supplied URL server-side so client-side
// canvas capture can read pixels from images that would otherwise be
// cross-origin tainted. Stateless: every call is a fresh fetch.
type RelayService struct {
	nonces       *nonce.Issuer
	client       *http.Client
	siteHost     string
	allowedHosts []string
	maxBytes     int64
}

func NewRelayService(nonces *nonce.Issuer, siteURL string, allowedHosts []string, timeout time.Duration, maxBytes int64) *RelayService {
	siteHost := ""
	if u, err := url.Parse(siteURL); err == nil {
		siteHost = u.Hostname()
	}

	s := &RelayService{
		nonces:       nonces,
		siteHost:     siteHost,
		allowedHosts: allowedHosts,
		maxBytes:     maxBytes,
	}

	// Redirects re-validate the allow-list on every hop: an allowed host
	// must not be able to bounce the relay onto a disallowed one.
	s.client = &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if !s.hostAllowed(req.URL.Hostname()) {
				return fmt.Errorf("redirect to disallowed host %q", req.URL.Hostname())
			}
			return nil
		},
	}

	return s
}

// Fetch validates the token, fetches href and returns the body verbatim.
// Any failure returns a nil body with the classifying outcome. The ctx
// carries the inbound request's lifetime: a caller that abandons the
// connection cancels the outbound fetch too.
func (s *RelayService) Fetch(ctx context.Context, token, href string) ([]byte, RelayOutcome) {
	if err := s.nonces.Verify(token, nonce.ScopeScreenshotProxy); err != nil {
		return nil, RelayDenied
	}

	if href == "" {
		return nil, RelayMissingInput
	}

	target, err := url.Parse(href)
	if err != nil || target.Host == "" {
		return nil, RelayMissingInput
	}

	if !s.hostAllowed(target.Hostname()) {
		slog.Debug("relay target host not allowed", "host", target.Hostname())
		return nil, RelayDenied
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, RelayFetchFailed
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, RelayFetchFailed
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, RelayFetchFailed
	}

	// Read one byte past the cap to detect oversize responses.
	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes+1))
	if err != nil || len(body) == 0 {
		return nil, RelayFetchFailed
	}
	if int64(len(body)) > s.maxBytes {
		slog.Warn("relay response exceeds size cap", "host", target.Hostname(), "cap", s.maxBytes)
		return nil, RelayFetchFailed
	}

	return body, RelayOK
}

// hostAllowed restricts relaying to the site's own host plus configured
// suffixes (e.g. "cdn.example.com" or ".example-cdn.net"). The relay is
// otherwise an open proxy behind a nonce.
func (s *RelayService) hostAllowed(host string) bool {
	if host == "" {
		return false
	}
	if host == s.siteHost {
		return true
	}
	for _, allowed := range s.allowedHosts {
		if host == allowed || strings.HasSuffix(host, "."+strings.TrimPrefix(allowed, ".")) {
			return true
		}
	}
	return false
}
