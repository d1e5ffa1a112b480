package segment

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/kirillkom/rag-content-pipeline/internal/core/domain"
)

// Store keeps chunk vectors in immutable versioned segment directories.
// Writes land in a fresh segment; readers see the overlay of all
// segments minus superseded documents. A failed write never disturbs
// the already visible segments.
type Store struct {
	dir         string
	backupDir   string
	maxSegments int
	fragRatio   float64
	log         *slog.Logger

	mu       sync.RWMutex
	segments []loadedSegment
	visible  []domain.ChunkWithVector
	docHash  map[string]string
}

type Config struct {
	Dir         string
	BackupDir   string
	MaxSegments int
	FragRatio   float64
}

func NewStore(cfg Config, log *slog.Logger) (*Store, error) {
	if cfg.MaxSegments <= 0 {
		cfg.MaxSegments = 10
	}
	if cfg.FragRatio <= 0 {
		cfg.FragRatio = 0.8
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create segment dir: %w", err)
	}
	if err := os.MkdirAll(cfg.BackupDir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}

	s := &Store{
		dir:         cfg.Dir,
		backupDir:   cfg.BackupDir,
		maxSegments: cfg.MaxSegments,
		fragRatio:   cfg.FragRatio,
		log:         log,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}

	var segs []loadedSegment
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := strconv.Atoi(e.Name()); err != nil {
			continue
		}
		seg, err := readSegment(filepath.Join(s.dir, e.Name()))
		if err != nil {
			s.log.Warn("segment skipped", "segment", e.Name(), "error", err)
			continue
		}
		segs = append(segs, seg)
	}
	sort.Slice(segs, func(i, j int) bool {
		return segs[i].manifest.Version < segs[j].manifest.Version
	})

	s.mu.Lock()
	s.segments = segs
	s.refreshVisible()
	s.mu.Unlock()
	return nil
}

// refreshVisible recomputes the overlay. Newer segments win: a document
// present in (or superseded by) a newer segment hides its older chunks.
// Callers hold the write lock.
func (s *Store) refreshVisible() {
	hidden := make(map[string]struct{})
	var visible []domain.ChunkWithVector

	for i := len(s.segments) - 1; i >= 0; i-- {
		seg := s.segments[i]
		newlyHidden := make(map[string]struct{})
		for _, c := range seg.chunks {
			if _, ok := hidden[c.DocumentID]; ok {
				continue
			}
			visible = append(visible, c)
			newlyHidden[c.DocumentID] = struct{}{}
		}
		for doc := range newlyHidden {
			hidden[doc] = struct{}{}
		}
		for _, doc := range seg.manifest.Supersedes {
			hidden[doc] = struct{}{}
		}
	}

	sort.Slice(visible, func(i, j int) bool {
		if visible[i].DocumentID != visible[j].DocumentID {
			return visible[i].DocumentID < visible[j].DocumentID
		}
		return visible[i].Index < visible[j].Index
	})

	docHash := make(map[string]string)
	for _, c := range visible {
		docHash[c.DocumentID] = c.DocHash
	}
	s.visible = visible
	s.docHash = docHash
}

// Upsert writes one new segment for the batch. Documents whose content
// hash is unchanged are skipped entirely; changed documents are listed
// in the segment manifest so their old chunks disappear from the
// overlay. Stats count chunks inserted and skipped and documents
// superseded.
func (s *Store) Upsert(ctx context.Context, batch []domain.ChunkWithVector) (domain.UpsertStats, error) {
	var stats domain.UpsertStats
	if len(batch) == 0 {
		return stats, nil
	}
	if err := ctx.Err(); err != nil {
		return stats, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	byDoc := make(map[string][]domain.ChunkWithVector)
	var docOrder []string
	for _, c := range batch {
		if _, ok := byDoc[c.DocumentID]; !ok {
			docOrder = append(docOrder, c.DocumentID)
		}
		byDoc[c.DocumentID] = append(byDoc[c.DocumentID], c)
	}

	var toWrite []domain.ChunkWithVector
	var supersedes []string
	for _, doc := range docOrder {
		chunks := byDoc[doc]
		prev, exists := s.docHash[doc]
		if exists && prev == chunks[0].DocHash {
			stats.Skipped += len(chunks)
			continue
		}
		if exists {
			stats.Superseded++
			supersedes = append(supersedes, doc)
		}
		stats.Inserted += len(chunks)
		toWrite = append(toWrite, chunks...)
	}
	if len(toWrite) == 0 {
		return stats, nil
	}

	version := 1
	if n := len(s.segments); n > 0 {
		version = s.segments[n-1].manifest.Version + 1
	}
	m := manifest{
		Version:    version,
		Count:      len(toWrite),
		Dim:        len(toWrite[0].Vector),
		CreatedAt:  time.Now().UTC(),
		Supersedes: supersedes,
	}

	seg, err := s.writeAndVerify(m, toWrite)
	if err != nil {
		return domain.UpsertStats{}, err
	}

	s.segments = append(s.segments, seg)
	s.refreshVisible()
	return stats, nil
}

// writeAndVerify stages the segment in a temp directory, re-reads it
// for validation and only then renames it into place. Callers hold the
// write lock.
func (s *Store) writeAndVerify(m manifest, chunks []domain.ChunkWithVector) (loadedSegment, error) {
	tmp, err := os.MkdirTemp(s.dir, ".staging-")
	if err != nil {
		return loadedSegment{}, fmt.Errorf("stage segment: %w", err)
	}
	defer os.RemoveAll(tmp)

	if err := writeSegmentFiles(tmp, m, chunks); err != nil {
		return loadedSegment{}, domain.WrapError(domain.ErrSegmentValidation, "segment.write", err)
	}
	seg, err := readSegment(tmp)
	if err != nil {
		return loadedSegment{}, domain.WrapError(domain.ErrSegmentValidation, "segment.verify", err)
	}

	final := filepath.Join(s.dir, fmt.Sprintf("%06d", m.Version))
	if err := os.Rename(tmp, final); err != nil {
		return loadedSegment{}, fmt.Errorf("activate segment %d: %w", m.Version, err)
	}
	s.log.Info("segment activated", "version", m.Version, "chunks", m.Count)
	return seg, nil
}

// Search scores the query vector against every visible chunk by cosine
// similarity and returns the top matches. An empty filter category
// matches everything.
func (s *Store) Search(ctx context.Context, queryVector []float32, limit int, filter domain.SearchFilter) ([]domain.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	candidates := make([]domain.Candidate, 0, limit)
	for _, c := range s.visible {
		if filter.Category != "" && c.Category != filter.Category {
			continue
		}
		candidates = append(candidates, domain.Candidate{
			ChunkID:     c.ID,
			DocumentID:  c.DocumentID,
			Title:       c.Title,
			Category:    c.Category,
			PublishedAt: c.PublishedAt,
			Text:        c.Text,
			Vector:      c.Vector,
			VectorScore: cosine(queryVector, c.Vector),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].VectorScore > candidates[j].VectorScore
	})
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

func (s *Store) VisibleChunks() []domain.Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Chunk, len(s.visible))
	for i, c := range s.visible {
		out[i] = c.Chunk
	}
	return out
}

func cosine(a, b []float32) float64 {
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
