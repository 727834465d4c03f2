package model

import (
	"time"
)

const (
	PageStatusDraft     = "draft"
	PageStatusPublished = "published"
)

// Page is the subject entity being captured. The body is stored as
// markdown and rendered to HTML for the preview surface.
type Page struct {
	ID        string    `db:"id"`
	Slug      string    `db:"slug"`
	Title     string    `db:"title"`
	Body      string    `db:"body"`
	AuthorID  string    `db:"author_id"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
