package domain

import "time"

type DocumentStatus string

const (
	StatusSubmitted  DocumentStatus = "submitted"
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusFailed     DocumentStatus = "failed"
)

// Document is an ownership root identified by a stable external key
// (source URL or caller-provided id). Re-submitting a document whose
// content hash changed supersedes all previously indexed chunks.
type Document struct {
	ID          string         `json:"id"`
	SourceKey   string         `json:"source_key"`
	Title       string         `json:"title"`
	Text        string         `json:"text,omitempty"`
	Category    string         `json:"category"`
	Language    string         `json:"language,omitempty"`
	PublishedAt string         `json:"published_at,omitempty"`
	ContentHash string         `json:"content_hash"`
	Status      DocumentStatus `json:"status"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
