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
	ErrPageNotFound = errors.New("page not found")
)

type PageRepository interface {
	Create(page *model.Page) error
	ByID(id string) (*model.Page, error)
	BySlug(slug string) (*model.Page, error)
	Delete(id string) error
}

type pageRepository struct {
	db *sqlx.DB
}

func NewPageRepository(db *sqlx.DB) PageRepository {
	return &pageRepository{db: db}
}

func (r *pageRepository) Create(page *model.Page) error {
	if page.ID == "" {
		page.ID = uuid.New().String()
	}
	now := time.Now()
	if page.CreatedAt.IsZero() {
		page.CreatedAt = now
	}
	page.UpdatedAt = now

	query := `INSERT INTO pages (id, slug, title, body, author_id, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(query,
		page.ID,
		page.Slug,
		page.Title,
		page.Body,
		page.AuthorID,
		page.Status,
		page.CreatedAt,
		page.UpdatedAt,
	)

	return err
}

func (r *pageRepository) ByID(id string) (*model.Page, error) {
	page := &model.Page{}
	query := `SELECT * FROM pages WHERE id = $1`

	err := r.db.Get(page, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrPageNotFound
	}

	return page, err
}

func (r *pageRepository) BySlug(slug string) (*model.Page, error) {
	page := &model.Page{}
	query := `SELECT * FROM pages WHERE slug = $1`

	err := r.db.Get(page, query, slug)
	if err == sql.ErrNoRows {
		return nil, ErrPageNotFound
	}

	return page, err
}

func (r *pageRepository) Delete(id string) error {
	query := `DELETE FROM pages WHERE id = $1`
	_, err := r.db.Exec(query, id)
	return err
}
