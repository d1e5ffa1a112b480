package usecase

import (
	"context"
	"log/slog"
	"sort"

	"github.com/kirillkom/rag-content-pipeline/internal/core/domain"
	"github.com/kirillkom/rag-content-pipeline/internal/core/ports"
)

// CrossEncoderReranker reorders candidates by an external pairwise
// scorer. When the scorer fails it degrades to truncating the incoming
// order so generation can still proceed.
type CrossEncoderReranker struct {
	scorer ports.RelevanceScorer
	topK   int
	log    *slog.Logger
}

func NewCrossEncoderReranker(scorer ports.RelevanceScorer, topK int, log *slog.Logger) *CrossEncoderReranker {
	if topK <= 0 {
		topK = 6
	}
	return &CrossEncoderReranker{scorer: scorer, topK: topK, log: log}
}

func (r *CrossEncoderReranker) Rerank(ctx context.Context, query string, candidates []domain.Candidate) []domain.Candidate {
	if len(candidates) <= r.topK {
		return candidates
	}
	if r.scorer == nil {
		return candidates[:r.topK]
	}

	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Text
	}

	scores, err := r.scorer.Score(ctx, query, texts)
	if err != nil || len(scores) != len(candidates) {
		r.log.Warn("rerank degraded to retrieval order", "error", err)
		return candidates[:r.topK]
	}

	idx := make([]int, len(candidates))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return scores[idx[a]] > scores[idx[b]]
	})

	out := make([]domain.Candidate, r.topK)
	for i := 0; i < r.topK; i++ {
		out[i] = candidates[idx[i]]
	}
	return out
}
