package usecase

import "strings"

// plagiarismRatio is the share of the draft's contiguous word n-grams
// that also appear in any source passage. Drafts shorter than one
// n-gram score zero.
func plagiarismRatio(draft string, sources []string, n int) float64 {
	if n <= 0 {
		n = 8
	}
	draftGrams := ngrams(draft, n)
	if len(draftGrams) == 0 {
		return 0
	}

	sourceGrams := make(map[string]struct{})
	for _, s := range sources {
		for g := range ngrams(s, n) {
			sourceGrams[g] = struct{}{}
		}
	}

	overlap := 0
	for g := range draftGrams {
		if _, ok := sourceGrams[g]; ok {
			overlap++
		}
	}
	return float64(overlap) / float64(len(draftGrams))
}

func ngrams(text string, n int) map[string]struct{} {
	words := strings.Fields(strings.ToLower(text))
	if len(words) < n {
		return nil
	}
	out := make(map[string]struct{}, len(words)-n+1)
	for i := 0; i+n <= len(words); i++ {
		out[strings.Join(words[i:i+n], " ")] = struct{}{}
	}
	return out
}
