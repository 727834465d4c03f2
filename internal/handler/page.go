package handler

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/previewcap/previewcap/internal/ctxkeys"
	"github.com/previewcap/previewcap/internal/model"
	"github.com/previewcap/previewcap/internal/repository"
	"github.com/previewcap/previewcap/internal/service"
)

// pageTemplate renders a composed page. In static capture mode the editor
// chrome and interactive scripts are omitted entirely so repeated captures
// rasterize identically.
var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Page.Title}}</title>
<link rel="stylesheet" href="{{.AssetsURL}}/css/site.css">
{{- if .Instrumentation}}
<link rel="stylesheet" href="{{.Instrumentation.StylesheetURL}}">
{{- end}}
</head>
<body{{if .StaticMode}} class="static-capture"{{end}}>
{{- if .ShowAdminBar}}
<div id="admin-bar"><a href="/editor?post_id={{.Page.ID}}">Edit page</a></div>
{{- end}}
<div class="page-{{.Page.ID}}">
{{.Body}}
</div>
{{- if not .StaticMode}}
<script src="{{.AssetsURL}}/js/widgets.js"></script>
{{- end}}
{{- if .Instrumentation}}
{{- range .Instrumentation.ScriptURLs}}
<script src="{{.}}"></script>
{{- end}}
<script>{{.InlineConfig}}</script>
{{- end}}
</body>
</html>
`))

type PageHandler struct {
	pageService    *service.PageService
	captureService *service.CaptureService
	assetsURL      string
}

func NewPageHandler(pageService *service.PageService, captureService *service.CaptureService, assetsURL string) *PageHandler {
	return &PageHandler{
		pageService:    pageService,
		captureService: captureService,
		assetsURL:      assetsURL,
	}
}

type pageData struct {
	Page            *model.Page
	Body            template.HTML
	AssetsURL       string
	StaticMode      bool
	ShowAdminBar    bool
	Instrumentation *service.Instrumentation
	InlineConfig    template.JS
}

// Show renders a page, resolved by ?p=<id> or by slug. A request carrying
// the capture activation marker for this page renders in static capture
// mode; capture instrumentation is additionally emitted only for
// principals with edit capability on the page.
func (h *PageHandler) Show(w http.ResponseWriter, r *http.Request) {
	var page *model.Page
	var err error

	if id := r.URL.Query().Get("p"); id != "" {
		page, err = h.pageService.ByID(id)
	} else if slug := r.PathValue("slug"); slug != "" {
		page, err = h.pageService.BySlug(slug)
	} else {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		if errors.Is(err, repository.ErrPageNotFound) {
			http.NotFound(w, r)
			return
		}
		slog.Error("failed to load page", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	body, err := h.pageService.RenderBody(page)
	if err != nil {
		slog.Error("failed to render page body", "page_id", page.ID, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	user := ctxkeys.User(r.Context())
	captureID, inCapture := h.captureService.CapturePageID(r)
	staticMode := inCapture && captureID == page.ID

	data := pageData{
		Page:         page,
		Body:         body,
		AssetsURL:    h.assetsURL,
		StaticMode:   staticMode,
		ShowAdminBar: user != nil && !staticMode,
	}

	// Hard authorization gate: the marker alone never unlocks capture
	// scripts; the principal must hold edit capability on this page.
	if staticMode && user.CanEdit(page) {
		inst, err := h.captureService.Instrumentation(page.ID)
		if err != nil {
			slog.Error("failed to build capture instrumentation", "page_id", page.ID, "error", err)
		} else {
			data.Instrumentation = inst
			data.InlineConfig = template.JS(inst.InlineConfig)
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err = pageTemplate.Execute(w, data)
	if err != nil {
		slog.Error("failed to execute page template", "page_id", page.ID, "error", err)
	}
}
