// Package source models configured log ingestion sources.
package source

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a source id does not exist.
var ErrNotFound = errors.New("source not found")

// KindTail marks sources consumed by the file tailer.
const KindTail = "tail"

// Source describes a tailed path configured for an application.
type Source struct {
	ID          int64     `json:"id"`
	AppID       string    `json:"app_id"`
	Kind        string    `json:"kind"`
	Path        string    `json:"path"`
	Recursive   bool      `json:"recursive"`
	Encoding    string    `json:"encoding"`
	IncludeGlob *string   `json:"include_glob"`
	ExcludeGlob *string   `json:"exclude_glob"`
	Enabled     bool      `json:"enabled"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateRequest is the POST /api/sources payload.
type CreateRequest struct {
	AppID       string  `json:"app_id"`
	Kind        string  `json:"kind"`
	Path        string  `json:"path"`
	Recursive   *bool   `json:"recursive"`
	Encoding    *string `json:"encoding"`
	IncludeGlob *string `json:"include_glob"`
	ExcludeGlob *string `json:"exclude_glob"`
	Enabled     *bool   `json:"enabled"`
}

// UpdateRequest is the PUT /api/sources/:id payload. Nil fields are left
// untouched.
type UpdateRequest struct {
	Path        *string `json:"path"`
	Recursive   *bool   `json:"recursive"`
	Encoding    *string `json:"encoding"`
	IncludeGlob *string `json:"include_glob"`
	ExcludeGlob *string `json:"exclude_glob"`
	Enabled     *bool   `json:"enabled"`
}
