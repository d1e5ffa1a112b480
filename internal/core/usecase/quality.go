package usecase

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kirillkom/rag-content-pipeline/internal/core/domain"
)

var subheadingRe = regexp.MustCompile(`(?m)^#{1,3}\s+.+`)

// QualityRules parametrize the draft gate. All marker matches are
// case-insensitive substring checks.
type QualityRules struct {
	MinChars          int
	MaxChars          int
	MinSubheadings    int
	RequireChecklist  bool
	RequireDisclaimer bool
	MinKeywords       int
	Keywords          []string
	ChecklistMarkers  []string
	DisclaimerMarkers []string
	EmpathyMarkers    []string
	CaseMarkers       []string
	ProcedureMarkers  []string
	EmpathyWindow     int
}

// QualityGate evaluates a draft against every rule; a draft passes only
// when every check passes. The per-check names feed the retry prompt.
type QualityGate struct {
	rules QualityRules
}

func NewQualityGate(rules QualityRules) *QualityGate {
	if rules.EmpathyWindow <= 0 {
		rules.EmpathyWindow = 200
	}
	return &QualityGate{rules: rules}
}

type qualityCheck struct {
	name       string
	pass       bool
	suggestion string
}

func (g *QualityGate) Evaluate(text string) domain.QualityVerdict {
	checks := g.run(text)

	verdict := domain.QualityVerdict{Passed: true}
	for _, c := range checks {
		if c.pass {
			continue
		}
		verdict.Passed = false
		verdict.FailedChecks = append(verdict.FailedChecks, c.name)
		verdict.Suggestions = append(verdict.Suggestions, c.suggestion)
	}
	passed := len(checks) - len(verdict.FailedChecks)
	verdict.Score = float64(passed) / float64(len(checks))
	return verdict
}

func (g *QualityGate) run(text string) []qualityCheck {
	r := g.rules
	runes := []rune(text)
	lower := strings.ToLower(text)

	intro := lower
	if len(runes) > r.EmpathyWindow {
		intro = strings.ToLower(string(runes[:r.EmpathyWindow]))
	}

	keywordHits := 0
	for _, kw := range r.Keywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			keywordHits++
		}
	}

	return []qualityCheck{
		{
			name:       "length",
			pass:       len(runes) >= r.MinChars && len(runes) <= r.MaxChars,
			suggestion: fmt.Sprintf("adjust length to %d-%d characters, currently %d", r.MinChars, r.MaxChars, len(runes)),
		},
		{
			name:       "subheadings",
			pass:       len(subheadingRe.FindAllString(text, -1)) >= r.MinSubheadings,
			suggestion: fmt.Sprintf("structure the body with at least %d markdown subheadings", r.MinSubheadings),
		},
		{
			name:       "checklist",
			pass:       !r.RequireChecklist || containsAny(lower, r.ChecklistMarkers),
			suggestion: "include a practical checklist section",
		},
		{
			name:       "disclaimer",
			pass:       !r.RequireDisclaimer || containsAny(lower, r.DisclaimerMarkers),
			suggestion: "add a safety disclaimer advising professional consultation",
		},
		{
			name:       "keywords",
			pass:       keywordHits >= r.MinKeywords,
			suggestion: fmt.Sprintf("work in at least %d of the topic keywords", r.MinKeywords),
		},
		{
			name:       "empathy_intro",
			pass:       containsAny(intro, r.EmpathyMarkers),
			suggestion: "open with an empathetic acknowledgement of the reader's situation",
		},
		{
			name:       "case_study",
			pass:       containsAny(lower, r.CaseMarkers),
			suggestion: "add a short real-world case or example",
		},
		{
			name:       "procedure",
			pass:       containsAny(lower, r.ProcedureMarkers),
			suggestion: "describe the steps as a numbered procedure",
		},
	}
}

func containsAny(haystack string, markers []string) bool {
	for _, m := range markers {
		if m != "" && strings.Contains(haystack, strings.ToLower(m)) {
			return true
		}
	}
	return false
}
