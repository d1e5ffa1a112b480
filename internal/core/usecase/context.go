package usecase

import (
	"fmt"
	"strings"

	"github.com/kirillkom/rag-content-pipeline/internal/core/domain"
)

const contextPassageBudget = 1200

// buildArticlePrompt lays out the retrieved passages with stable
// numbering so the draft can be checked back against them.
func buildArticlePrompt(topic, category string, sources []domain.Candidate) string {
	var b strings.Builder
	b.WriteString("You are writing a practical guide article for people dealing with debt collection.\n")
	fmt.Fprintf(&b, "Topic: %s\n", topic)
	if category != "" {
		fmt.Fprintf(&b, "Category: %s\n", category)
	}
	b.WriteString("\nReference passages:\n")
	for i, src := range sources {
		text := src.Text
		if r := []rune(text); len(r) > contextPassageBudget {
			text = string(r[:contextPassageBudget])
		}
		fmt.Fprintf(&b, "[%d] (%s) %s\n", i+1, src.Title, text)
	}
	b.WriteString(`
Write the article in markdown. Requirements:
- ground every claim in the reference passages, in your own words
- open with an empathetic acknowledgement of the reader's situation
- use markdown subheadings to structure the body
- include a short real-world case example
- describe concrete steps as a numbered procedure
- close with a practical checklist and a legal disclaimer
`)
	return b.String()
}

// buildRetryPrompt appends the failed check names and per-check
// directives so the next attempt can repair the specific gaps.
func buildRetryPrompt(base string, verdict domain.QualityVerdict, flagged bool) string {
	var b strings.Builder
	b.WriteString(base)
	b.WriteString("\nThe previous draft was rejected.\n")
	fmt.Fprintf(&b, "Quality score: %.2f\n", verdict.Score)
	if len(verdict.FailedChecks) > 0 {
		fmt.Fprintf(&b, "Failed checks: %s\n", strings.Join(verdict.FailedChecks, ", "))
		b.WriteString("Fix the following:\n")
		for i, s := range verdict.Suggestions {
			fmt.Fprintf(&b, "- %s: %s\n", verdict.FailedChecks[i], s)
		}
	}
	if flagged {
		b.WriteString("- plagiarism: rephrase passages copied from the references in your own words\n")
	}
	return b.String()
}
