package usecase

import (
	"sort"

	"github.com/kirillkom/rag-content-pipeline/internal/core/domain"
)

// fuseCandidates fills LexicalScore and FusedScore in place. Lexical
// scores are min-max normalized across the candidate set before mixing
// so the weight stays comparable between queries.
func fuseCandidates(candidates []domain.Candidate, lexScores map[string]float64, weight float64) {
	if len(candidates) == 0 {
		return
	}

	minLex, maxLex := 0.0, 0.0
	first := true
	for _, c := range candidates {
		s := lexScores[c.ChunkID]
		if first {
			minLex, maxLex = s, s
			first = false
			continue
		}
		if s < minLex {
			minLex = s
		}
		if s > maxLex {
			maxLex = s
		}
	}

	span := maxLex - minLex
	for i := range candidates {
		raw := lexScores[candidates[i].ChunkID]
		norm := 0.0
		if span > 0 {
			norm = (raw - minLex) / span
		} else if raw > 0 {
			norm = 1
		}
		candidates[i].LexicalScore = norm
		candidates[i].FusedScore = candidates[i].VectorScore + weight*norm
	}
}

func sortByFused(candidates []domain.Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].FusedScore != candidates[j].FusedScore {
			return candidates[i].FusedScore > candidates[j].FusedScore
		}
		if candidates[i].DocumentID != candidates[j].DocumentID {
			return candidates[i].DocumentID < candidates[j].DocumentID
		}
		return candidates[i].ChunkID < candidates[j].ChunkID
	})
}

// capPerDocument keeps at most limit chunks per document, preserving
// order.
func capPerDocument(candidates []domain.Candidate, limit int) []domain.Candidate {
	if limit <= 0 {
		return candidates
	}
	counts := make(map[string]int)
	out := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if counts[c.DocumentID] >= limit {
			continue
		}
		counts[c.DocumentID]++
		out = append(out, c)
	}
	return out
}
