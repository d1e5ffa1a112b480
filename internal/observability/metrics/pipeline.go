package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PipelineMetrics tracks ingestion, retrieval and generation outcomes on a
// private registry so worker and api processes expose disjoint series.
type PipelineMetrics struct {
	registry *prometheus.Registry

	processTotal      *prometheus.CounterVec
	processDuration   *prometheus.HistogramVec
	chunksIndexed     prometheus.Counter
	chunksDeduped     prometheus.Counter
	retrievalDuration prometheus.Histogram
	spilloverTotal    prometheus.Counter
	generationTotal   *prometheus.CounterVec
	attemptsPerRun    prometheus.Histogram
	qualityScore      prometheus.Histogram
	compactionTotal   *prometheus.CounterVec
}

func NewPipelineMetrics(service string) *PipelineMetrics {
	registry := prometheus.NewRegistry()

	processTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rcp",
			Subsystem: "pipeline",
			Name:      "document_process_total",
			Help:      "Total processed documents by status.",
		},
		[]string{"service", "status"},
	)
	processDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rcp",
			Subsystem: "pipeline",
			Name:      "document_process_duration_seconds",
			Help:      "Document processing duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	chunksIndexed := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "rcp",
		Subsystem: "pipeline",
		Name:      "chunks_indexed_total",
		Help:      "Total chunks written to the chunk store.",
		ConstLabels: prometheus.Labels{
			"service": service,
		},
	})
	chunksDeduped := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "rcp",
		Subsystem: "pipeline",
		Name:      "chunks_deduplicated_total",
		Help:      "Total near-duplicate chunks dropped before indexing.",
		ConstLabels: prometheus.Labels{
			"service": service,
		},
	})
	retrievalDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "rcp",
		Subsystem: "retrieval",
		Name:      "duration_seconds",
		Help:      "Hybrid retrieval duration in seconds.",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		ConstLabels: prometheus.Labels{
			"service": service,
		},
	})
	spilloverTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "rcp",
		Subsystem: "retrieval",
		Name:      "spillover_total",
		Help:      "Retrievals that fell below the quality floor and spilled over.",
		ConstLabels: prometheus.Labels{
			"service": service,
		},
	})
	generationTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rcp",
			Subsystem: "generation",
			Name:      "runs_total",
			Help:      "Generation runs by outcome (accepted, exhausted, error).",
		},
		[]string{"service", "outcome"},
	)
	attemptsPerRun := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "rcp",
		Subsystem: "generation",
		Name:      "attempts_per_run",
		Help:      "Generation attempts consumed per run.",
		Buckets:   []float64{1, 2, 3, 4, 5},
		ConstLabels: prometheus.Labels{
			"service": service,
		},
	})
	qualityScore := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "rcp",
		Subsystem: "generation",
		Name:      "quality_score",
		Help:      "Quality score of the returned attempt.",
		Buckets:   []float64{0.125, 0.25, 0.375, 0.5, 0.625, 0.75, 0.875, 1},
		ConstLabels: prometheus.Labels{
			"service": service,
		},
	})
	compactionTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rcp",
			Subsystem: "segments",
			Name:      "compaction_total",
			Help:      "Segment compaction runs by outcome.",
		},
		[]string{"service", "outcome"},
	)

	registry.MustRegister(
		processTotal, processDuration, chunksIndexed, chunksDeduped,
		retrievalDuration, spilloverTotal, generationTotal, attemptsPerRun,
		qualityScore, compactionTotal,
	)

	return &PipelineMetrics{
		registry:          registry,
		processTotal:      processTotal,
		processDuration:   processDuration,
		chunksIndexed:     chunksIndexed,
		chunksDeduped:     chunksDeduped,
		retrievalDuration: retrievalDuration,
		spilloverTotal:    spilloverTotal,
		generationTotal:   generationTotal,
		attemptsPerRun:    attemptsPerRun,
		qualityScore:      qualityScore,
		compactionTotal:   compactionTotal,
	}
}

func (m *PipelineMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *PipelineMetrics) FinishDocument(service string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.processTotal.WithLabelValues(service, status).Inc()
	m.processDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *PipelineMetrics) AddChunksIndexed(n int) {
	m.chunksIndexed.Add(float64(n))
}

func (m *PipelineMetrics) AddChunksDeduplicated(n int) {
	if n > 0 {
		m.chunksDeduped.Add(float64(n))
	}
}

func (m *PipelineMetrics) ObserveRetrieval(duration time.Duration, spilled bool) {
	m.retrievalDuration.Observe(duration.Seconds())
	if spilled {
		m.spilloverTotal.Inc()
	}
}

func (m *PipelineMetrics) FinishGeneration(service, outcome string, attempts int, score float64) {
	m.generationTotal.WithLabelValues(service, outcome).Inc()
	m.attemptsPerRun.Observe(float64(attempts))
	m.qualityScore.Observe(score)
}

func (m *PipelineMetrics) FinishCompaction(service string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.compactionTotal.WithLabelValues(service, outcome).Inc()
}
