package segment

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/kirillkom/rag-content-pipeline/internal/core/domain"
)

const (
	manifestFile = "manifest.json"
	metaFile     = "meta.json"
	vectorsFile  = "vectors.bin"
)

type manifest struct {
	Version    int       `json:"version"`
	Count      int       `json:"count"`
	Dim        int       `json:"dim"`
	CreatedAt  time.Time `json:"created_at"`
	Supersedes []string  `json:"supersedes,omitempty"`
}

type chunkRecord struct {
	ID          string `json:"id"`
	DocumentID  string `json:"document_id"`
	DocHash     string `json:"doc_hash"`
	Index       int    `json:"index"`
	Total       int    `json:"total"`
	Text        string `json:"text"`
	Title       string `json:"title"`
	Category    string `json:"category"`
	PublishedAt string `json:"published_at"`
	Language    string `json:"language"`
}

type loadedSegment struct {
	manifest manifest
	chunks   []domain.ChunkWithVector
}

// writeSegmentFiles lays a segment out in dir. Vectors are float32
// little-endian, row-major, one row per meta record.
func writeSegmentFiles(dir string, m manifest, chunks []domain.ChunkWithVector) error {
	records := make([]chunkRecord, len(chunks))
	for i, c := range chunks {
		records[i] = chunkRecord{
			ID:          c.ID,
			DocumentID:  c.DocumentID,
			DocHash:     c.DocHash,
			Index:       c.Index,
			Total:       c.Total,
			Text:        c.Text,
			Title:       c.Title,
			Category:    c.Category,
			PublishedAt: c.PublishedAt,
			Language:    c.Language,
		}
	}

	metaBytes, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal meta: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, metaFile), metaBytes, 0o644); err != nil {
		return err
	}

	buf := make([]byte, 0, len(chunks)*m.Dim*4)
	var scratch [4]byte
	for _, c := range chunks {
		if len(c.Vector) != m.Dim {
			return fmt.Errorf("vector dim %d, want %d", len(c.Vector), m.Dim)
		}
		for _, v := range c.Vector {
			binary.LittleEndian.PutUint32(scratch[:], math.Float32bits(v))
			buf = append(buf, scratch[:]...)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, vectorsFile), buf, 0o644); err != nil {
		return err
	}

	manifestBytes, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, manifestFile), manifestBytes, 0o644)
}

// readSegment loads and verifies one segment directory. It fails when a
// file is missing, counts disagree or chunk ids repeat.
func readSegment(dir string) (loadedSegment, error) {
	var seg loadedSegment

	manifestBytes, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		return seg, err
	}
	if err := json.Unmarshal(manifestBytes, &seg.manifest); err != nil {
		return seg, fmt.Errorf("decode manifest: %w", err)
	}

	metaBytes, err := os.ReadFile(filepath.Join(dir, metaFile))
	if err != nil {
		return seg, err
	}
	var records []chunkRecord
	if err := json.Unmarshal(metaBytes, &records); err != nil {
		return seg, fmt.Errorf("decode meta: %w", err)
	}
	if len(records) != seg.manifest.Count {
		return seg, fmt.Errorf("meta count %d, manifest says %d", len(records), seg.manifest.Count)
	}

	vecBytes, err := os.ReadFile(filepath.Join(dir, vectorsFile))
	if err != nil {
		return seg, err
	}
	dim := seg.manifest.Dim
	if len(vecBytes) != seg.manifest.Count*dim*4 {
		return seg, fmt.Errorf("vectors size %d, want %d", len(vecBytes), seg.manifest.Count*dim*4)
	}

	seen := make(map[string]struct{}, len(records))
	seg.chunks = make([]domain.ChunkWithVector, len(records))
	for i, r := range records {
		if _, dup := seen[r.ID]; dup {
			return seg, fmt.Errorf("duplicate chunk id %s", r.ID)
		}
		seen[r.ID] = struct{}{}

		vec := make([]float32, dim)
		off := i * dim * 4
		for j := 0; j < dim; j++ {
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(vecBytes[off+j*4:]))
		}
		seg.chunks[i] = domain.ChunkWithVector{
			Chunk: domain.Chunk{
				ID:          r.ID,
				DocumentID:  r.DocumentID,
				DocHash:     r.DocHash,
				Index:       r.Index,
				Total:       r.Total,
				Text:        r.Text,
				Title:       r.Title,
				Category:    r.Category,
				PublishedAt: r.PublishedAt,
				Language:    r.Language,
			},
			Vector: vec,
		}
	}
	return seg, nil
}
