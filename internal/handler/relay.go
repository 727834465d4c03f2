package handler

import (
	"log/slog"
	"net/http"

	"github.com/previewcap/previewcap/internal/service"
)

type RelayHandler struct {
	relayService *service.RelayService
}

func NewRelayHandler(relayService *service.RelayService) *RelayHandler {
	return &RelayHandler{
		relayService: relayService,
	}
}

// Proxy relays the resource at ?href= back to the caller, gated by the
// ?nonce= token. The external contract is deliberately opaque: every
// failure mode is a 200 with an empty body, so callers learn nothing
// about why a fetch was refused.
func (h *RelayHandler) Proxy(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("nonce")
	href := r.URL.Query().Get("href")

	body, outcome := h.relayService.Fetch(r.Context(), token, href)
	if outcome != service.RelayOK {
		slog.Debug("relay request not served", "outcome", outcome.String())
		return
	}

	_, err := w.Write(body)
	if err != nil {
		slog.Debug("relay client went away mid-write", "error", err)
	}
}
