package model

import (
	"time"
)

// Artifact is the persisted preview image for a page. Exactly one
// artifact exists per page_id (unique constraint in the schema); its
// lifetime is tied to the page and it is removed by the page's
// ON DELETE CASCADE, never independently.
type Artifact struct {
	ID          string    `db:"id"`
	PageID      string    `db:"page_id"`
	URL         string    `db:"url"`
	MimeType    string    `db:"mime_type"`
	Size        int64     `db:"size"`
	StoragePath string    `db:"storage_path"`
	CreatedAt   time.Time `db:"created_at"`
}
