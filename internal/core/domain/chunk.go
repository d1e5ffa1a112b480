package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Chunk is the unit of indexing and retrieval. Its identity is derived
// from (document content hash, position), so it is stable across re-runs
// with unchanged content and changes only when content changes.
type Chunk struct {
	ID          string `json:"id"`
	DocumentID  string `json:"document_id"`
	DocHash     string `json:"doc_hash"`
	Index       int    `json:"index"`
	Total       int    `json:"total"`
	Text        string `json:"text"`
	Title       string `json:"title,omitempty"`
	Category    string `json:"category,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
	Language    string `json:"language,omitempty"`
}

// ChunkWithVector pairs a chunk with its L2-normalized embedding.
type ChunkWithVector struct {
	Chunk
	Vector []float32
}

// ChunkID derives the deterministic chunk identity.
func ChunkID(docHash string, index int) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s-%d", docHash, index))
	return hex.EncodeToString(sum[:])
}

// ContentHash derives the document content hash used for change detection.
func ContentHash(sourceKey, text string) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s|%s", sourceKey, text))
	return hex.EncodeToString(sum[:])
}

// UpsertStats reports the outcome of one chunk store upsert batch.
type UpsertStats struct {
	Inserted   int `json:"inserted"`
	Superseded int `json:"superseded"`
	Skipped    int `json:"skipped"`
}
