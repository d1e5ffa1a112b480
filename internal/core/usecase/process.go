package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/rag-content-pipeline/internal/core/domain"
	"github.com/kirillkom/rag-content-pipeline/internal/core/ports"
	"github.com/kirillkom/rag-content-pipeline/internal/observability/metrics"
)

type ProcessDocumentUseCase struct {
	repo       ports.DocumentRepository
	normalizer ports.Normalizer
	chunker    ports.Chunker
	dedup      ports.Deduplicator
	embedder   ports.Embedder
	store      ports.ChunkStore
	lexical    ports.LexicalScorer
	batchSize  int
	metrics    *metrics.PipelineMetrics
	log        *slog.Logger
}

func NewProcessDocumentUseCase(
	repo ports.DocumentRepository,
	normalizer ports.Normalizer,
	chunker ports.Chunker,
	dedup ports.Deduplicator,
	embedder ports.Embedder,
	store ports.ChunkStore,
	lexical ports.LexicalScorer,
	batchSize int,
	m *metrics.PipelineMetrics,
	log *slog.Logger,
) *ProcessDocumentUseCase {
	if batchSize <= 0 {
		batchSize = 64
	}
	return &ProcessDocumentUseCase{
		repo:       repo,
		normalizer: normalizer,
		chunker:    chunker,
		dedup:      dedup,
		embedder:   embedder,
		store:      store,
		lexical:    lexical,
		batchSize:  batchSize,
		metrics:    m,
		log:        log,
	}
}

func (uc *ProcessDocumentUseCase) ProcessByID(ctx context.Context, documentID string) error {
	if err := uc.repo.UpdateStatus(ctx, documentID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	started := time.Now()
	stats, err := uc.pipeline(ctx, documentID)
	if uc.metrics != nil {
		uc.metrics.FinishDocument("worker", time.Since(started), err)
	}
	if err != nil {
		if failErr := uc.repo.UpdateStatus(ctx, documentID, domain.StatusFailed, err.Error()); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.repo.UpdateStatus(ctx, documentID, domain.StatusReady, ""); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}
	uc.log.Info("document indexed",
		"document_id", documentID,
		"inserted", stats.Inserted,
		"superseded", stats.Superseded,
		"skipped", stats.Skipped,
	)
	return nil
}

func (uc *ProcessDocumentUseCase) pipeline(ctx context.Context, documentID string) (domain.UpsertStats, error) {
	var stats domain.UpsertStats

	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return stats, fmt.Errorf("fetch document by id: %w", err)
	}

	text := uc.normalizer.Normalize(doc.Text)
	if text == "" {
		return stats, domain.WrapError(domain.ErrInvalidInput, "normalize document", errors.New("empty text after normalization"))
	}
	language := doc.Language
	if language == "" {
		language = uc.normalizer.DetectLanguage(text)
	}

	parts := uc.chunker.Split(text)
	if len(parts) == 0 {
		return stats, domain.WrapError(domain.ErrInvalidInput, "chunk document", errors.New("chunking produced zero chunks"))
	}

	chunks := make([]domain.Chunk, len(parts))
	for i, part := range parts {
		chunks[i] = domain.Chunk{
			ID:          domain.ChunkID(doc.ContentHash, i),
			DocumentID:  doc.ID,
			DocHash:     doc.ContentHash,
			Index:       i,
			Total:       len(parts),
			Text:        part,
			Title:       doc.Title,
			Category:    doc.Category,
			PublishedAt: doc.PublishedAt,
			Language:    language,
		}
	}

	kept := uc.dedup.Filter(chunks)
	if dropped := len(chunks) - len(kept); dropped > 0 {
		uc.log.Info("near-duplicate chunks dropped", "document_id", doc.ID, "dropped", dropped)
		if uc.metrics != nil {
			uc.metrics.AddChunksDeduplicated(dropped)
		}
	}
	if len(kept) == 0 {
		return stats, domain.WrapError(domain.ErrInvalidInput, "dedup chunks", errors.New("all chunks deduplicated"))
	}

	vectors, err := uc.embedChunks(ctx, kept)
	if err != nil {
		return stats, err
	}

	batch := make([]domain.ChunkWithVector, len(kept))
	for i := range kept {
		batch[i] = domain.ChunkWithVector{Chunk: kept[i], Vector: vectors[i]}
	}

	stats, err = uc.store.Upsert(ctx, batch)
	if err != nil {
		return stats, fmt.Errorf("upsert chunks: %w", err)
	}
	if uc.metrics != nil {
		uc.metrics.AddChunksIndexed(stats.Inserted)
	}

	uc.lexical.Rebuild(uc.store.VisibleChunks())
	return stats, nil
}

// embedChunks embeds in batches, halving the batch size when the model
// reports resource exhaustion.
func (uc *ProcessDocumentUseCase) embedChunks(ctx context.Context, chunks []domain.Chunk) ([][]float32, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	out := make([][]float32, 0, len(texts))
	size := uc.batchSize
	for start := 0; start < len(texts); {
		end := min(start+size, len(texts))
		vectors, err := uc.embedder.Embed(ctx, texts[start:end])
		if err != nil {
			if domain.IsKind(err, domain.ErrResourceExhausted) && size > 1 {
				size = size / 2
				uc.log.Warn("embed batch halved", "batch_size", size, "error", err)
				continue
			}
			return nil, fmt.Errorf("embed chunks: %w", err)
		}
		if len(vectors) != end-start {
			return nil, domain.WrapError(
				domain.ErrInvalidInput,
				"embed chunks",
				fmt.Errorf("vectors/chunks mismatch: %d/%d", len(vectors), end-start),
			)
		}
		out = append(out, vectors...)
		start = end
	}
	return out, nil
}
