package ports

import (
	"context"

	"github.com/kirillkom/rag-content-pipeline/internal/core/domain"
)

// DocumentRepository persists and reads document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	GetBySourceKey(ctx context.Context, sourceKey string) (*domain.Document, error)
	Update(ctx context.Context, doc *domain.Document) error
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
}

// MessageQueue publishes/consumes document processing events.
type MessageQueue interface {
	PublishDocumentSubmitted(ctx context.Context, documentID string) error
	SubscribeDocumentSubmitted(ctx context.Context, handler func(context.Context, string) error) error
}

// Normalizer cleans raw document text before hashing and chunking.
type Normalizer interface {
	Normalize(text string) string
	DetectLanguage(text string) string
}

// Chunker splits normalized text into indexable chunks.
type Chunker interface {
	Split(text string) []string
}

// Deduplicator drops near-duplicate chunks within one document.
type Deduplicator interface {
	Filter(chunks []domain.Chunk) []domain.Chunk
}

// Embedder builds unit-normalized vectors for chunks and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// ChunkStore persists chunks with vectors in validated, immutable segments.
type ChunkStore interface {
	Upsert(ctx context.Context, batch []domain.ChunkWithVector) (domain.UpsertStats, error)
	Search(ctx context.Context, queryVector []float32, limit int, filter domain.SearchFilter) ([]domain.Candidate, error)
	VisibleChunks() []domain.Chunk
}

// LexicalScorer scores chunks against a query over the lexical index.
// Rebuild is a full batch operation run whenever the chunk set changes.
type LexicalScorer interface {
	Rebuild(chunks []domain.Chunk)
	Score(query string) map[string]float64
}

// RelevanceScorer is the pairwise (query, candidate) reranking oracle.
type RelevanceScorer interface {
	Score(ctx context.Context, query string, candidates []string) ([]float64, error)
}

// TextGenerator is the generation oracle.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
