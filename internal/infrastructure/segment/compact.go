package segment

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Compact merges all visible chunks into a single fresh segment when
// the store is fragmented. Old segment directories are archived under
// the backup dir, never deleted. Returns true when a merge ran.
func (s *Store) Compact(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.fragmented() {
		return false, nil
	}
	if len(s.visible) == 0 {
		return false, nil
	}

	version := s.segments[len(s.segments)-1].manifest.Version + 1
	m := manifest{
		Version:   version,
		Count:     len(s.visible),
		Dim:       len(s.visible[0].Vector),
		CreatedAt: time.Now().UTC(),
	}

	old := make([]int, 0, len(s.segments))
	for _, seg := range s.segments {
		old = append(old, seg.manifest.Version)
	}

	merged, err := s.writeAndVerify(m, s.visible)
	if err != nil {
		return false, err
	}

	// merged segment is live; archival failures leave harmless shadowed
	// directories behind
	stamp := time.Now().UTC().Format("20060102T150405")
	for _, v := range old {
		src := filepath.Join(s.dir, fmt.Sprintf("%06d", v))
		dst := filepath.Join(s.backupDir, fmt.Sprintf("%s-%06d", stamp, v))
		if err := os.Rename(src, dst); err != nil {
			s.log.Warn("segment archive failed", "version", v, "error", err)
		}
	}

	s.segments = []loadedSegment{merged}
	s.refreshVisible()
	s.log.Info("compaction finished", "merged_segments", len(old), "chunks", m.Count)
	return true, nil
}

// fragmented applies the merge heuristic: too many segments outright,
// or more segments per 100MB of index than the configured ratio.
// Callers hold the write lock.
func (s *Store) fragmented() bool {
	n := len(s.segments)
	if n <= 1 {
		return false
	}
	if n > s.maxSegments {
		return true
	}

	var bytes int64
	for _, seg := range s.segments {
		dir := filepath.Join(s.dir, fmt.Sprintf("%06d", seg.manifest.Version))
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if info, err := e.Info(); err == nil {
				bytes += info.Size()
			}
		}
	}

	sizeMB := float64(bytes) / (1 << 20)
	if sizeMB <= 0 {
		return false
	}
	return float64(n)/(sizeMB/100) > s.fragRatio
}
