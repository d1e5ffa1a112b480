package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/rag-content-pipeline/internal/config"
	"github.com/kirillkom/rag-content-pipeline/internal/core/ports"
	"github.com/kirillkom/rag-content-pipeline/internal/core/usecase"
	"github.com/kirillkom/rag-content-pipeline/internal/infrastructure/chunking"
	"github.com/kirillkom/rag-content-pipeline/internal/infrastructure/dedup"
	"github.com/kirillkom/rag-content-pipeline/internal/infrastructure/embedcache"
	"github.com/kirillkom/rag-content-pipeline/internal/infrastructure/lexical"
	"github.com/kirillkom/rag-content-pipeline/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/rag-content-pipeline/internal/infrastructure/llm/reranker"
	"github.com/kirillkom/rag-content-pipeline/internal/infrastructure/queue/nats"
	"github.com/kirillkom/rag-content-pipeline/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/rag-content-pipeline/internal/infrastructure/resilience"
	"github.com/kirillkom/rag-content-pipeline/internal/infrastructure/segment"
	"github.com/kirillkom/rag-content-pipeline/internal/observability/logging"
	"github.com/kirillkom/rag-content-pipeline/internal/observability/metrics"
	"github.com/kirillkom/rag-content-pipeline/internal/schedule"
)

type App struct {
	Config  config.Config
	Log     *slog.Logger
	Metrics *metrics.PipelineMetrics

	Queue ports.MessageQueue
	Repo  ports.DocumentRepository
	Store *segment.Store

	IngestUC  ports.DocumentIngestor
	ProcessUC ports.DocumentProcessor
	Retriever ports.CandidateRetriever
	ArticleUC ports.ArticleGenerator

	Scheduler *schedule.CompactionScheduler

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, service string) (*App, error) {
	log := logging.NewJSONLogger(service, cfg.LogLevel)
	m := metrics.NewPipelineMetrics(service)
	executor := resilience.NewExecutor(resilience.DefaultConfig())

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	store, err := segment.NewStore(segment.Config{
		Dir:         cfg.SegmentPath,
		BackupDir:   cfg.SegmentBackupPath,
		MaxSegments: cfg.MaxSegments,
		FragRatio:   cfg.FragmentationRatio,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("open segment store: %w", err)
	}

	lexicalIndex := lexical.NewIndex()
	lexicalIndex.Rebuild(store.VisibleChunks())

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel).WithExecutor(executor)
	embedder := embedcache.New(
		ollama.NewEmbedder(ollamaClient),
		cfg.EmbedCacheSize,
		time.Duration(cfg.EmbedCacheTTLSeconds)*time.Second,
	)
	generator := ollama.NewGenerator(ollamaClient)

	var relevance ports.RelevanceScorer
	if cfg.RerankerURL != "" {
		relevance = reranker.New(cfg.RerankerURL)
	}

	profile, err := config.LoadQualityProfile(cfg.QualityProfilePath)
	if err != nil {
		return nil, fmt.Errorf("load quality profile: %w", err)
	}
	gate := usecase.NewQualityGate(qualityRules(profile))

	splitter := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	normalizer := chunking.NewNormalizer()
	deduplicator := dedup.New(cfg.DedupSimilarity)

	ingestUC := usecase.NewIngestDocumentUseCase(repo, queue)
	processUC := usecase.NewProcessDocumentUseCase(
		repo, normalizer, splitter, deduplicator,
		embedder, store, lexicalIndex, cfg.EmbedBatchSize, m, log,
	)
	retriever := usecase.NewHybridRetriever(embedder, store, lexicalIndex, usecase.RetrieverConfig{
		TopK:                cfg.RetrievalTopK,
		CandidateMultiplier: cfg.CandidateMultiplier,
		LexicalWeight:       cfg.LexicalWeight,
		SpilloverFloor:      cfg.SpilloverFloor,
		SpilloverK:          cfg.SpilloverK,
		PerDocumentCap:      cfg.PerDocumentCap,
	}, m, log)
	articleUC := usecase.NewGenerateArticleUseCase(
		retriever,
		usecase.NewCrossEncoderReranker(relevance, cfg.RerankTopK, log),
		generator,
		gate,
		usecase.GeneratorConfig{
			SourcePool:      cfg.GenerationSourcePool,
			DiversityK:      cfg.GenerationDiversityK,
			MMRLambda:       cfg.MMRLambda,
			PlagiarismNGram: cfg.PlagiarismNGram,
			PlagiarismMax:   cfg.PlagiarismThreshold,
			MaxRetries:      cfg.GenerationRetries,
		},
		m, log,
	)

	scheduler, err := schedule.NewCompactionScheduler(cfg.CompactionSchedule, store, m, log)
	if err != nil {
		return nil, fmt.Errorf("init compaction scheduler: %w", err)
	}

	return &App{
		Config:  cfg,
		Log:     log,
		Metrics: m,

		Queue: queue,
		Repo:  repo,
		Store: store,

		IngestUC:  ingestUC,
		ProcessUC: processUC,
		Retriever: retriever,
		ArticleUC: articleUC,

		Scheduler: scheduler,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func qualityRules(p config.QualityProfile) usecase.QualityRules {
	return usecase.QualityRules{
		MinChars:          p.MinChars,
		MaxChars:          p.MaxChars,
		MinSubheadings:    p.MinSubheadings,
		RequireChecklist:  p.RequireChecklist,
		RequireDisclaimer: p.RequireDisclaimer,
		MinKeywords:       p.MinKeywords,
		Keywords:          p.Keywords,
		ChecklistMarkers:  p.ChecklistMarkers,
		DisclaimerMarkers: p.DisclaimerMarkers,
		EmpathyMarkers:    p.EmpathyMarkers,
		CaseMarkers:       p.CaseMarkers,
		ProcedureMarkers:  p.ProcedureMarkers,
		EmpathyWindow:     p.EmpathyWindow,
	}
}
