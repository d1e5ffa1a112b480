package domain

type SearchFilter struct {
	Category string
}

// Candidate is an ephemeral retrieval record produced per query.
type Candidate struct {
	ChunkID      string    `json:"chunk_id"`
	DocumentID   string    `json:"document_id"`
	Title        string    `json:"title,omitempty"`
	Category     string    `json:"category,omitempty"`
	PublishedAt  string    `json:"published_at,omitempty"`
	Text         string    `json:"text"`
	Vector       []float32 `json:"-"`
	VectorScore  float64   `json:"vector_score"`
	LexicalScore float64   `json:"lexical_score"`
	FusedScore   float64   `json:"fused_score"`
	Spillover    bool      `json:"spillover,omitempty"`
}
