package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/previewcap/previewcap/internal/model"
)

var (
	ErrArtifactNotFound = errors.New("artifact not found")
)

type ArtifactRepository interface {
	ByPageID(pageID string) (*model.Artifact, error)
	CreateIfAbsent(artifact *model.Artifact) (*model.Artifact, error)
	DeleteByPageID(pageID string) error
}

type artifactRepository struct {
	db *sqlx.DB
}

func NewArtifactRepository(db *sqlx.DB) ArtifactRepository {
	return &artifactRepository{db: db}
}

func (r *artifactRepository) ByPageID(pageID string) (*model.Artifact, error) {
	artifact := &model.Artifact{}
	query := `SELECT * FROM artifacts WHERE page_id = $1`

	err := r.db.Get(artifact, query, pageID)
	if err == sql.ErrNoRows {
		return nil, ErrArtifactNotFound
	}

	return artifact, err
}

// CreateIfAbsent inserts the artifact unless one already exists for the
// page, then returns the canonical row. The ON CONFLICT DO NOTHING on the
// page_id unique key makes two racing first captures converge on a single
// artifact: exactly one insert wins and both callers read back the winner.
func (r *artifactRepository) CreateIfAbsent(artifact *model.Artifact) (*model.Artifact, error) {
	if artifact.ID == "" {
		artifact.ID = uuid.New().String()
	}
	if artifact.CreatedAt.IsZero() {
		artifact.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO artifacts (id, page_id, url, mime_type, size, storage_path, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (page_id) DO NOTHING
	`
	_, err := r.db.Exec(query,
		artifact.ID,
		artifact.PageID,
		artifact.URL,
		artifact.MimeType,
		artifact.Size,
		artifact.StoragePath,
		artifact.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return r.ByPageID(artifact.PageID)
}

func (r *artifactRepository) DeleteByPageID(pageID string) error {
	query := `DELETE FROM artifacts WHERE page_id = $1`
	_, err := r.db.Exec(query, pageID)
	return err
}
