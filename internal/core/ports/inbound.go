package ports

import (
	"context"

	"github.com/kirillkom/rag-content-pipeline/internal/core/domain"
)

// DocumentSubmission is the ingestion boundary payload. Unknown fields are
// rejected at the HTTP layer; empty optional fields are coerced to defaults.
type DocumentSubmission struct {
	SourceKey   string `json:"source_key"`
	Title       string `json:"title"`
	Text        string `json:"text"`
	Category    string `json:"category"`
	Language    string `json:"language"`
	PublishedAt string `json:"published_at"`
}

// DocumentIngestor is the inbound contract for document submission.
type DocumentIngestor interface {
	Submit(ctx context.Context, sub DocumentSubmission) (*domain.Document, error)
}

// DocumentProcessor is the inbound contract for asynchronous indexing.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}

// DocumentReader is the inbound read model for document metadata/state.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}

// SearchRequest scopes one retrieval call.
type SearchRequest struct {
	Query               string   `json:"query"`
	Category            string   `json:"category"`
	TopK                int      `json:"top_k"`
	SpilloverCategories []string `json:"spillover_categories"`
}

// CandidateRetriever is the inbound contract for hybrid retrieval.
type CandidateRetriever interface {
	Retrieve(ctx context.Context, req SearchRequest) ([]domain.Candidate, error)
}

// ArticleRequest drives one quality-gated generation run.
type ArticleRequest struct {
	Topic               string   `json:"topic"`
	Category            string   `json:"category"`
	SpilloverCategories []string `json:"spillover_categories"`
}

// ArticleGenerator is the inbound contract for quality-gated generation.
type ArticleGenerator interface {
	GenerateArticle(ctx context.Context, req ArticleRequest) (*domain.GenerationResult, error)
}
