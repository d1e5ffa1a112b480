package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/rag-content-pipeline/internal/core/domain"
	"github.com/kirillkom/rag-content-pipeline/internal/core/ports"
	"github.com/kirillkom/rag-content-pipeline/internal/observability/metrics"
)

type RetrieverConfig struct {
	TopK                int
	CandidateMultiplier int
	LexicalWeight       float64
	SpilloverFloor      float64
	SpilloverK          int
	PerDocumentCap      int
}

func (c RetrieverConfig) normalize() RetrieverConfig {
	if c.TopK <= 0 {
		c.TopK = 8
	}
	if c.CandidateMultiplier <= 0 {
		c.CandidateMultiplier = 3
	}
	if c.LexicalWeight <= 0 {
		c.LexicalWeight = 0.3
	}
	if c.SpilloverFloor <= 0 {
		c.SpilloverFloor = 0.72
	}
	if c.SpilloverK <= 0 {
		c.SpilloverK = 2
	}
	if c.PerDocumentCap <= 0 {
		c.PerDocumentCap = 2
	}
	return c
}

// HybridRetriever runs category-scoped hybrid search: cosine similarity
// over the segment store fused with normalized lexical scores, a
// spillover pass into allow-listed categories when the primary category
// looks weak, and a per-document cap on the final slate.
type HybridRetriever struct {
	embedder ports.Embedder
	store    ports.ChunkStore
	lexical  ports.LexicalScorer
	cfg      RetrieverConfig
	metrics  *metrics.PipelineMetrics
	log      *slog.Logger
}

func NewHybridRetriever(
	embedder ports.Embedder,
	store ports.ChunkStore,
	lexical ports.LexicalScorer,
	cfg RetrieverConfig,
	m *metrics.PipelineMetrics,
	log *slog.Logger,
) *HybridRetriever {
	return &HybridRetriever{
		embedder: embedder,
		store:    store,
		lexical:  lexical,
		cfg:      cfg.normalize(),
		metrics:  m,
		log:      log,
	}
}

func (r *HybridRetriever) Retrieve(ctx context.Context, req ports.SearchRequest) ([]domain.Candidate, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "retrieve", errors.New("empty query"))
	}
	topK := req.TopK
	if topK <= 0 {
		topK = r.cfg.TopK
	}
	started := time.Now()

	queryVector, err := r.embedder.EmbedQuery(ctx, req.Query)
	if err != nil {
		return nil, domain.WrapError(domain.ErrRetrievalUnavailable, "embed query", err)
	}

	poolSize := topK * r.cfg.CandidateMultiplier
	primary, err := r.store.Search(ctx, queryVector, poolSize, domain.SearchFilter{Category: req.Category})
	if err != nil {
		return nil, domain.WrapError(domain.ErrRetrievalUnavailable, "vector search", err)
	}

	lexScores := r.lexical.Score(req.Query)
	fuseCandidates(primary, lexScores, r.cfg.LexicalWeight)
	sortByFused(primary)

	spilled := false
	if r.needsSpillover(primary) && len(req.SpilloverCategories) > 0 {
		extra := r.spillover(ctx, queryVector, lexScores, req)
		if len(extra) > 0 {
			primary = append(primary, extra...)
			sortByFused(primary)
			spilled = true
		}
	}

	result := capPerDocument(primary, r.cfg.PerDocumentCap)
	if len(result) > topK {
		result = result[:topK]
	}

	if r.metrics != nil {
		r.metrics.ObserveRetrieval(time.Since(started), spilled)
	}
	return result, nil
}

// needsSpillover checks the mean vector similarity of the top fused
// results against the floor.
func (r *HybridRetriever) needsSpillover(candidates []domain.Candidate) bool {
	if len(candidates) == 0 {
		return true
	}
	n := min(3, len(candidates))
	var sum float64
	for _, c := range candidates[:n] {
		sum += c.VectorScore
	}
	return sum/float64(n) < r.cfg.SpilloverFloor
}

// spillover is best-effort: a failing category search is logged and
// skipped, never fatal.
func (r *HybridRetriever) spillover(ctx context.Context, queryVector []float32, lexScores map[string]float64, req ports.SearchRequest) []domain.Candidate {
	var pool []domain.Candidate
	for _, category := range req.SpilloverCategories {
		if category == "" || category == req.Category {
			continue
		}
		extra, err := r.store.Search(ctx, queryVector, r.cfg.SpilloverK, domain.SearchFilter{Category: category})
		if err != nil {
			r.log.Warn("spillover search failed", "category", category, "error", err)
			continue
		}
		pool = append(pool, extra...)
	}
	if len(pool) == 0 {
		return nil
	}

	fuseCandidates(pool, lexScores, r.cfg.LexicalWeight)
	sortByFused(pool)
	if len(pool) > r.cfg.SpilloverK {
		pool = pool[:r.cfg.SpilloverK]
	}
	for i := range pool {
		pool[i].Spillover = true
	}
	r.log.Info("spillover engaged", "candidates", len(pool), "query", fmt.Sprintf("%.40s", req.Query))
	return pool
}
