package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/previewcap/previewcap/internal/model"
	"github.com/previewcap/previewcap/internal/repository"
	"github.com/previewcap/previewcap/internal/storage"
	"golang.org/x/sync/singleflight"
)

const screenshotDataURIPrefix = "data:image/png;base64,"

var (
	// ErrScreenshotMissing is the documented sentinel for an absent payload.
	ErrScreenshotMissing = errors.New("screenshot payload missing")
)

// ScreenshotService persists a captured page preview as exactly one
// artifact per page. Repeated captures return the first artifact's URL
// and never re-upload bytes.
type ScreenshotService struct {
	artifacts repository.ArtifactRepository
	storage   storage.Storage
	group     singleflight.Group
}

func NewScreenshotService(artifacts repository.ArtifactRepository, storage storage.Storage) *ScreenshotService {
	return &ScreenshotService{
		artifacts: artifacts,
		storage:   storage,
	}
}

// Persist stores the data-URI encoded PNG for the page and returns the
// artifact URL. Idempotent: an existing artifact short-circuits before any
// decode or upload. The artifacts table's unique page_id key is the
// authoritative race guard; singleflight only collapses concurrent
// in-process calls so they share one upload.
func (s *ScreenshotService) Persist(ctx context.Context, pageID, payload string) (string, error) {
	if payload == "" {
		return "", ErrScreenshotMissing
	}

	// The winning call serves every collapsed caller, so it must not die
	// with the arbitrary request that happened to arrive first.
	url, err, _ := s.group.Do(pageID, func() (any, error) {
		return s.persist(context.WithoutCancel(ctx), pageID, payload)
	})
	if err != nil {
		return "", err
	}

	return url.(string), nil
}

func (s *ScreenshotService) persist(ctx context.Context, pageID, payload string) (string, error) {
	existing, err := s.artifacts.ByPageID(pageID)
	if err == nil {
		return existing.URL, nil
	}
	if !errors.Is(err, repository.ErrArtifactNotFound) {
		return "", fmt.Errorf("failed to look up artifact: %w", err)
	}

	data, err := decodeScreenshot(payload)
	if err != nil {
		return "", err
	}

	// Deterministic name derived from the page id. Collisions with a
	// previous upload for the same page are desirable: the blob is
	// overwritten in place instead of accumulating variants.
	storagePath := fmt.Sprintf("screenshots/page-screenshot-%s.png", pageID)

	err = s.storage.Save(ctx, storagePath, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to save screenshot blob: %w", err)
	}

	artifact := &model.Artifact{
		PageID:      pageID,
		URL:         s.storage.URL(storagePath),
		MimeType:    http.DetectContentType(data),
		Size:        int64(len(data)),
		StoragePath: storagePath,
		CreatedAt:   time.Now(),
	}

	// Mapping is written last, after the blob exists. If the insert loses a
	// cross-process race the canonical row comes back and our upload is
	// harmless: it landed on the same deterministic path.
	canonical, err := s.artifacts.CreateIfAbsent(artifact)
	if err != nil {
		return "", fmt.Errorf("failed to record artifact: %w", err)
	}
	if canonical.ID != artifact.ID {
		slog.Debug("concurrent capture lost create race, returning canonical artifact", "page_id", pageID)
	}

	return canonical.URL, nil
}

// decodeScreenshot strips the data-URI prefix and decodes the base64 body.
func decodeScreenshot(payload string) ([]byte, error) {
	encoded := strings.TrimPrefix(payload, screenshotDataURIPrefix)

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode screenshot payload: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrScreenshotMissing
	}

	return data, nil
}
