package usecase

import (
	"fmt"
	"strings"
	"testing"
)

func TestPlagiarismRatioCopiedText(t *testing.T) {
	source := "one two three four five six seven eight nine ten eleven twelve"

	if got := plagiarismRatio(source, []string{source}, 8); got != 1 {
		t.Fatalf("verbatim copy must score 1, got %f", got)
	}
	if got := plagiarismRatio("totally different words with no shared sequences at all here now", []string{source}, 8); got != 0 {
		t.Fatalf("unrelated text must score 0, got %f", got)
	}
}

func TestPlagiarismRatioPartialOverlap(t *testing.T) {
	source := strings.Repeat("alpha beta gamma delta epsilon zeta eta theta ", 4)

	var fresh strings.Builder
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&fresh, "fresh original wording item%d ", i)
	}
	draft := source + fresh.String()

	got := plagiarismRatio(draft, []string{source}, 8)
	if got <= 0 || got >= 1 {
		t.Fatalf("partial overlap must land strictly between 0 and 1, got %f", got)
	}
}

func TestPlagiarismShortDraftScoresZero(t *testing.T) {
	if got := plagiarismRatio("only five words right here", []string{"anything"}, 8); got != 0 {
		t.Fatalf("draft shorter than one n-gram must score 0, got %f", got)
	}
}

func TestPlagiarismCaseAndSpacingInsensitive(t *testing.T) {
	source := "One Two Three Four Five Six Seven Eight"
	draft := "one   two three four five six seven eight"

	if got := plagiarismRatio(draft, []string{source}, 8); got != 1 {
		t.Fatalf("case and spacing must not matter, got %f", got)
	}
}

func TestPlagiarismRatioExactBoundary(t *testing.T) {
	// 57 distinct words give 50 distinct 8-grams; the first 16 words
	// shared with the source contribute 9 of them, so the ratio lands
	// exactly on 9/50 = 0.18
	words := make([]string, 57)
	for i := range words {
		words[i] = fmt.Sprintf("word%02d", i)
	}
	draft := strings.Join(words, " ")
	source := strings.Join(words[:16], " ")

	if got := plagiarismRatio(draft, []string{source}, 8); got != 0.18 {
		t.Fatalf("expected ratio exactly 0.18, got %f", got)
	}
}
