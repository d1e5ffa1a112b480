package usecase

import (
	"math"

	"github.com/kirillkom/rag-content-pipeline/internal/core/domain"
)

// selectDiverse applies maximal marginal relevance: the first pick is
// the most relevant candidate, each further pick maximizes
// lambda*relevance - (1-lambda)*max similarity to the picks so far.
func selectDiverse(candidates []domain.Candidate, k int, lambda float64) []domain.Candidate {
	if k <= 0 || len(candidates) == 0 {
		return nil
	}
	if k > len(candidates) {
		k = len(candidates)
	}
	if lambda < 0 || lambda > 1 {
		lambda = 0.7
	}

	remaining := make([]domain.Candidate, len(candidates))
	copy(remaining, candidates)

	best := 0
	for i, c := range remaining {
		if c.FusedScore > remaining[best].FusedScore {
			best = i
		}
	}

	selected := make([]domain.Candidate, 0, k)
	selected = append(selected, remaining[best])
	remaining = append(remaining[:best], remaining[best+1:]...)

	for len(selected) < k && len(remaining) > 0 {
		bestIdx := 0
		bestScore := math.Inf(-1)
		for i, c := range remaining {
			maxSim := 0.0
			for _, s := range selected {
				if sim := cosineSimilarity(c.Vector, s.Vector); sim > maxSim {
					maxSim = sim
				}
			}
			score := lambda*c.FusedScore - (1-lambda)*maxSim
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}
		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
	return selected
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
