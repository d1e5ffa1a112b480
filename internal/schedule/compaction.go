package schedule

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kirillkom/rag-content-pipeline/internal/observability/metrics"
)

// Compactor merges fragmented index segments into a single generation.
type Compactor interface {
	Compact(ctx context.Context) (bool, error)
}

const compactionTimeout = 10 * time.Minute

// CompactionScheduler runs segment compaction on a cron schedule. Runs are
// serialized by the underlying store; an overlapping tick is a cheap no-op.
type CompactionScheduler struct {
	cron      *cron.Cron
	compactor Compactor
	metrics   *metrics.PipelineMetrics
	log       *slog.Logger
}

func NewCompactionScheduler(spec string, compactor Compactor, m *metrics.PipelineMetrics, log *slog.Logger) (*CompactionScheduler, error) {
	s := &CompactionScheduler{
		cron:      cron.New(),
		compactor: compactor,
		metrics:   m,
		log:       log,
	}
	if _, err := s.cron.AddFunc(spec, s.runOnce); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *CompactionScheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for an in-flight run to finish.
func (s *CompactionScheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *CompactionScheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), compactionTimeout)
	defer cancel()

	started := time.Now()
	ran, err := s.compactor.Compact(ctx)
	if s.metrics != nil {
		s.metrics.FinishCompaction("worker", err)
	}
	if err != nil {
		s.log.Error("scheduled compaction failed", "error", err, "duration", time.Since(started))
		return
	}
	if ran {
		s.log.Info("scheduled compaction finished", "duration", time.Since(started))
		return
	}
	s.log.Debug("scheduled compaction skipped, store not fragmented")
}
