package routes

import (
	"net/http"

	"github.com/previewcap/previewcap/internal/app"
	"github.com/previewcap/previewcap/internal/handler"
	"github.com/previewcap/previewcap/internal/middleware"
)

func SetupRoutes(a *app.App) http.Handler {
	// Handlers
	auth := handler.NewAuthHandler(a.AuthService)
	page := handler.NewPageHandler(a.PageService, a.CaptureService, a.Cfg.AssetsURL)
	relay := handler.NewRelayHandler(a.RelayService)
	screenshot := handler.NewScreenshotHandler(a.ScreenshotService, a.PageService)
	editor := handler.NewEditorHandler(a.PageService, a.PreviewService)

	mux := http.NewServeMux()

	// Auth
	mux.HandleFunc("POST /auth/login", auth.Login)
	mux.HandleFunc("POST /auth/logout", auth.Logout)

	// Pages; "/?p=<id>" is the plain permalink the preview link composer
	// emits, "/p/{slug}" the pretty one
	mux.HandleFunc("GET /{$}", page.Show)
	mux.HandleFunc("GET /p/{slug}", page.Show)

	// Screenshot capture surface
	mux.HandleFunc("GET /screenshot/proxy", relay.Proxy)
	mux.HandleFunc("POST /screenshot/save", middleware.RequireAuth(screenshot.Save))

	// Editor document config
	mux.HandleFunc("GET /editor/config", middleware.RequireAuth(editor.Config))

	// Global middleware - executed in order (top to bottom)
	h := middleware.Chain(
		mux,
		middleware.Config(a.Cfg),
		middleware.RequestLogging,
		middleware.AuthMiddleware(a.AuthService, a.UserRepository),
	)

	return h
}
