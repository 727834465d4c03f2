package app

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/previewcap/previewcap/internal/config"
	"github.com/previewcap/previewcap/internal/db"
	"github.com/previewcap/previewcap/internal/nonce"
	"github.com/previewcap/previewcap/internal/repository"
	"github.com/previewcap/previewcap/internal/service"
	"github.com/previewcap/previewcap/internal/storage"
)

type App struct {
	Cfg               *config.Config
	DB                *sqlx.DB
	UserRepository    repository.UserRepository
	AuthService       *service.AuthService
	PageService       *service.PageService
	RelayService      *service.RelayService
	ScreenshotService *service.ScreenshotService
	PreviewService    *service.PreviewService
	CaptureService    *service.CaptureService
}

func New(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	// Repositories
	userRepository := repository.NewUserRepository(database)
	pageRepository := repository.NewPageRepository(database)
	artifactRepository := repository.NewArtifactRepository(database)

	// Storage
	blobStorage, err := storage.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %v", err)
	}

	// Relay nonces are deliberately issued from their own secret so a
	// leaked session token can never authorize relay fetches
	nonceIssuer := nonce.NewIssuer(cfg.NonceSecret, cfg.NonceExpiry)

	// Services
	authService := service.NewAuthService(userRepository, cfg.JWTSecret, cfg.JWTExpiry, cfg.IsProduction())
	pageService := service.NewPageService(pageRepository)
	relayService := service.NewRelayService(nonceIssuer, cfg.AppURL, cfg.RelayAllowedHosts, cfg.RelayTimeout, cfg.RelayMaxBytes)
	screenshotService := service.NewScreenshotService(artifactRepository, blobStorage)
	captureService := service.NewCaptureService(nonceIssuer, cfg.AppURL, cfg.AssetsURL, cfg.ScriptDebug)

	previewService, err := service.NewPreviewService(cfg.AppURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize preview service: %v", err)
	}

	return &App{
		Cfg:               cfg,
		DB:                database,
		UserRepository:    userRepository,
		AuthService:       authService,
		PageService:       pageService,
		RelayService:      relayService,
		ScreenshotService: screenshotService,
		PreviewService:    previewService,
		CaptureService:    captureService,
	}, nil
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
