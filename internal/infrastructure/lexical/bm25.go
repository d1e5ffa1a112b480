package lexical

import (
	"strings"
	"sync"
	"unicode"

	"github.com/kirillkom/rag-content-pipeline/internal/core/domain"
)

const (
	k1 = 1.2
	b  = 0.75
)

// Index is an in-memory BM25 index over the visible chunk set. Rebuild
// replaces the whole index; Score runs against the last snapshot.
type Index struct {
	mu     sync.RWMutex
	docs   []indexedDoc
	df     map[string]int
	avgLen float64
}

type indexedDoc struct {
	chunkID string
	terms   map[string]int
	length  int
}

func NewIndex() *Index {
	return &Index{df: make(map[string]int)}
}

func (ix *Index) Rebuild(chunks []domain.Chunk) {
	docs := make([]indexedDoc, 0, len(chunks))
	df := make(map[string]int)
	totalLen := 0

	for _, c := range chunks {
		tokens := Tokenize(c.Text)
		terms := make(map[string]int, len(tokens))
		for _, t := range tokens {
			terms[t]++
		}
		for t := range terms {
			df[t]++
		}
		totalLen += len(tokens)
		docs = append(docs, indexedDoc{chunkID: c.ID, terms: terms, length: len(tokens)})
	}

	avgLen := 0.0
	if len(docs) > 0 {
		avgLen = float64(totalLen) / float64(len(docs))
	}

	ix.mu.Lock()
	ix.docs = docs
	ix.df = df
	ix.avgLen = avgLen
	ix.mu.Unlock()
}

// Score returns raw BM25 scores per chunk id for every chunk matching at
// least one query term.
func (ix *Index) Score(query string) map[string]float64 {
	terms := Tokenize(query)
	if len(terms) == 0 {
		return nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	n := float64(len(ix.docs))
	if n == 0 {
		return nil
	}

	scores := make(map[string]float64)
	for _, doc := range ix.docs {
		var s float64
		for _, t := range terms {
			tf := float64(doc.terms[t])
			if tf == 0 {
				continue
			}
			idf := 1 + n/(float64(ix.df[t])+1)
			norm := tf * (k1 + 1) / (tf + k1*(1-b+b*float64(doc.length)/ix.avgLen))
			s += idf * norm
		}
		if s > 0 {
			scores[doc.chunkID] = s
		}
	}
	return scores
}

// Tokenize lowercases and splits on non-letter/digit runes. Runs of
// ideographic or hangul script carry no whitespace word boundaries, so
// they are expanded into character bi-grams instead.
func Tokenize(text string) []string {
	text = strings.ToLower(text)

	var tokens []string
	var word []rune
	var cjkRun []rune

	flushWord := func() {
		if len(word) > 0 {
			tokens = append(tokens, string(word))
			word = word[:0]
		}
	}
	flushCJK := func() {
		if len(cjkRun) == 1 {
			tokens = append(tokens, string(cjkRun))
		}
		for i := 0; i+1 < len(cjkRun); i++ {
			tokens = append(tokens, string(cjkRun[i:i+2]))
		}
		cjkRun = cjkRun[:0]
	}

	for _, r := range text {
		switch {
		case isCJK(r):
			flushWord()
			cjkRun = append(cjkRun, r)
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			flushCJK()
			word = append(word, r)
		default:
			flushWord()
			flushCJK()
		}
	}
	flushWord()
	flushCJK()
	return tokens
}

func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r) || unicode.Is(unicode.Hangul, r) ||
		unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r)
}
