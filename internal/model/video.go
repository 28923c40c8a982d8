package model

import (
	"time"

	"github.com/narravid/narravid-go/internal/uuid"
)

// Status is the server-driven lifecycle of a generation job. The client never
// transitions it; it only mirrors what the backend reports.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// IsTerminal reports whether no further server-side transition can occur.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

func (s Status) IsValid() bool {
	switch s {
	case StatusQueued, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Video is one user-submitted generation job/result as the sync engine sees
// it. Fields up to ErrorMessage mirror the backend row; the signed-URL fields
// are client-derived and never leave this process.
type Video struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"user_id"`
	Prompt       string     `json:"prompt"`
	Status       Status     `json:"status"`
	BucketPath   *string    `json:"bucket_path"`
	Duration     *float64   `json:"duration"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at"`
	ErrorMessage *string    `json:"error_message"`

	SignedURL          *string    `json:"signed_url"`
	SignedURLLoading   bool       `json:"signed_url_loading"`
	SignedURLCreatedAt *time.Time `json:"signed_url_created_at"`
}

// ClearSignedURL drops every client-derived URL field. Any status transition
// away from completed must go through here.
func (v *Video) ClearSignedURL() {
	v.SignedURL = nil
	v.SignedURLLoading = false
	v.SignedURLCreatedAt = nil
}

// Resolvable reports whether a signed URL can be produced for this record.
func (v *Video) Resolvable() bool {
	return v.Status == StatusCompleted && v.BucketPath != nil && *v.BucketPath != ""
}
