package handler

import (
	"errors"
	"net/http"

	"github.com/previewcap/previewcap/internal/ctxkeys"
	"github.com/previewcap/previewcap/internal/repository"
	"github.com/previewcap/previewcap/internal/service"
)

type EditorHandler struct {
	pageService    *service.PageService
	previewService *service.PreviewService
}

func NewEditorHandler(pageService *service.PageService, previewService *service.PreviewService) *EditorHandler {
	return &EditorHandler{
		pageService:    pageService,
		previewService: previewService,
	}
}

// Config returns the editor's document configuration for a page, with the
// screenshot trigger URL merged in under urls.screenshot. The editor UI
// navigates a hidden frame to that URL to kick off a fresh capture.
func (h *EditorHandler) Config(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	postID := r.URL.Query().Get("post_id")
	if postID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request"})
		return
	}

	page, err := h.pageService.ByID(postID)
	if err != nil {
		if errors.Is(err, repository.ErrPageNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "page_not_found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal"})
		return
	}

	if !user.CanEdit(page) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
		return
	}

	config := map[string]any{
		"id":     page.ID,
		"title":  page.Title,
		"status": page.Status,
		"urls": map[string]any{
			"permalink": "/p/" + page.Slug,
		},
	}

	writeJSON(w, http.StatusOK, h.previewService.ExtendDocumentConfig(config, page.ID))
}
