package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/previewcap/previewcap/internal/ctxkeys"
	"github.com/previewcap/previewcap/internal/repository"
	"github.com/previewcap/previewcap/internal/service"
)

type ScreenshotHandler struct {
	screenshotService *service.ScreenshotService
	pageService       *service.PageService
}

func NewScreenshotHandler(screenshotService *service.ScreenshotService, pageService *service.PageService) *ScreenshotHandler {
	return &ScreenshotHandler{
		screenshotService: screenshotService,
		pageService:       pageService,
	}
}

type screenshotSaveRequest struct {
	PostID     string `json:"post_id"`
	Screenshot string `json:"screenshot"`
}

// Save persists a captured screenshot for a page. An absent payload
// returns the literal JSON sentinel false; storage failures surface as a
// structured error so they are not silently swallowed.
func (h *ScreenshotHandler) Save(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req screenshotSaveRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil || req.PostID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request"})
		return
	}

	page, err := h.pageService.ByID(req.PostID)
	if err != nil {
		if errors.Is(err, repository.ErrPageNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "page_not_found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "store_write_failed"})
		return
	}

	if !user.CanEdit(page) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
		return
	}

	url, err := h.screenshotService.Persist(r.Context(), page.ID, req.Screenshot)
	if err != nil {
		if errors.Is(err, service.ErrScreenshotMissing) {
			writeJSON(w, http.StatusOK, false)
			return
		}
		slog.Error("failed to persist screenshot", "page_id", page.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "store_write_failed"})
		return
	}

	writeJSON(w, http.StatusOK, url)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Debug("failed to encode response", "error", err)
	}
}
