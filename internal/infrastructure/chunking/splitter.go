package chunking

import (
	"regexp"
	"strings"
)

var sentenceRe = regexp.MustCompile(`[^.!?。！？]+[.!?。！？]*\s*`)

// Splitter cuts text into overlapping chunks along sentence boundaries.
// Sentences longer than the chunk size are split hard at the size limit.
type Splitter struct {
	size    int
	overlap int
}

func NewSplitter(size, overlap int) *Splitter {
	if size <= 0 {
		size = 400
	}
	if overlap < 0 || overlap >= size {
		overlap = size / 8
	}
	return &Splitter{size: size, overlap: overlap}
}

func (s *Splitter) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	sentences := s.sentences(text)

	var chunks []string
	var cur []rune
	for _, sent := range sentences {
		r := []rune(sent)
		if len(cur)+len(r) > s.size && len(cur) > 0 {
			chunks = append(chunks, strings.TrimSpace(string(cur)))
			cur = s.tail(cur)
		}
		cur = append(cur, r...)
	}
	if trimmed := strings.TrimSpace(string(cur)); trimmed != "" {
		chunks = append(chunks, trimmed)
	}
	return chunks
}

// sentences returns sentence-like units, hard-splitting any unit that
// alone exceeds the chunk size.
func (s *Splitter) sentences(text string) []string {
	raw := sentenceRe.FindAllString(text, -1)
	if len(raw) == 0 {
		raw = []string{text}
	}

	var out []string
	for _, sent := range raw {
		r := []rune(sent)
		for len(r) > s.size {
			out = append(out, string(r[:s.size]))
			r = r[s.size:]
		}
		if len(r) > 0 {
			out = append(out, string(r))
		}
	}
	return out
}

// tail keeps the trailing overlap window when starting the next chunk.
func (s *Splitter) tail(cur []rune) []rune {
	if s.overlap == 0 || len(cur) <= s.overlap {
		return nil
	}
	keep := cur[len(cur)-s.overlap:]
	next := make([]rune, len(keep))
	copy(next, keep)
	return next
}
