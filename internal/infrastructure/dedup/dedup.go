package dedup

import (
	"crypto/md5"
	"math/bits"
	"strings"

	"github.com/kirillkom/rag-content-pipeline/internal/core/domain"
)

const fingerprintWindow = 800

// Deduplicator drops near-identical chunks inside one document.
// Two chunks are duplicates when their fingerprints agree on more than
// the configured share of bits; the first occurrence wins.
type Deduplicator struct {
	similarity float64
}

func New(similarity float64) *Deduplicator {
	if similarity <= 0 || similarity > 1 {
		similarity = 0.9
	}
	return &Deduplicator{similarity: similarity}
}

func (d *Deduplicator) Filter(chunks []domain.Chunk) []domain.Chunk {
	kept := make([]domain.Chunk, 0, len(chunks))
	seen := make(map[string][][16]byte)

	for _, c := range chunks {
		fp := Fingerprint(c.Text)
		dup := false
		for _, prev := range seen[c.DocumentID] {
			if similarity(fp, prev) > d.similarity {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		seen[c.DocumentID] = append(seen[c.DocumentID], fp)
		kept = append(kept, c)
	}
	return kept
}

// Fingerprint hashes the whitespace-normalized head of the text into
// 128 bits. The window keeps long chunks comparable by their openings.
func Fingerprint(text string) [16]byte {
	norm := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	r := []rune(norm)
	if len(r) > fingerprintWindow {
		r = r[:fingerprintWindow]
	}
	return md5.Sum([]byte(string(r)))
}

func similarity(a, b [16]byte) float64 {
	diff := 0
	for i := range a {
		diff += bits.OnesCount8(a[i] ^ b[i])
	}
	return 1 - float64(diff)/128
}
