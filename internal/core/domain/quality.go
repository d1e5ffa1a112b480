package domain

// QualityVerdict is the result of validating one generation attempt.
// Score is informational: the verdict passes only when every check passed.
type QualityVerdict struct {
	Passed       bool     `json:"passed"`
	Score        float64  `json:"score"`
	FailedChecks []string `json:"failed_checks,omitempty"`
	Suggestions  []string `json:"suggestions,omitempty"`
}

// Attempt records one generation attempt for audit.
type Attempt struct {
	Number          int            `json:"number"`
	Text            string         `json:"text,omitempty"`
	Verdict         QualityVerdict `json:"verdict"`
	PlagiarismRatio float64        `json:"plagiarism_ratio"`
	Flagged         bool           `json:"flagged"`
	Error           string         `json:"error,omitempty"`
}

// GenerationResult is the orchestrator's final output: the best-scoring
// attempt across all tries, annotated with its verdict and full history.
// Passed false with non-empty Text is a valid best-effort outcome.
type GenerationResult struct {
	Text            string         `json:"text"`
	Verdict         QualityVerdict `json:"verdict"`
	PlagiarismRatio float64        `json:"plagiarism_ratio"`
	Flagged         bool           `json:"flagged"`
	Passed          bool           `json:"passed"`
	Attempts        []Attempt      `json:"attempts"`
	Sources         []Candidate    `json:"sources,omitempty"`
}
