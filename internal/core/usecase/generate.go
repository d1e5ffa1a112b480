package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/rag-content-pipeline/internal/core/domain"
	"github.com/kirillkom/rag-content-pipeline/internal/core/ports"
	"github.com/kirillkom/rag-content-pipeline/internal/observability/metrics"
)

type GeneratorConfig struct {
	SourcePool      int
	DiversityK      int
	MMRLambda       float64
	PlagiarismNGram int
	PlagiarismMax   float64
	MaxRetries      int
}

func (c GeneratorConfig) normalize() GeneratorConfig {
	if c.SourcePool <= 0 {
		c.SourcePool = 24
	}
	if c.DiversityK <= 0 {
		c.DiversityK = 15
	}
	if c.DiversityK > c.SourcePool {
		c.DiversityK = c.SourcePool
	}
	if c.MMRLambda <= 0 || c.MMRLambda > 1 {
		c.MMRLambda = 0.7
	}
	if c.PlagiarismNGram <= 0 {
		c.PlagiarismNGram = 8
	}
	if c.PlagiarismMax <= 0 {
		c.PlagiarismMax = 0.18
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 2
	}
	return c
}

// GenerateArticleUseCase drives the full authoring loop: retrieve,
// diversify, rerank, generate, gate, and retry with targeted feedback
// until the gate passes or attempts run out. The best-scoring draft is
// returned either way.
type GenerateArticleUseCase struct {
	retriever ports.CandidateRetriever
	reranker  *CrossEncoderReranker
	generator ports.TextGenerator
	gate      *QualityGate
	cfg       GeneratorConfig
	metrics   *metrics.PipelineMetrics
	log       *slog.Logger
}

func NewGenerateArticleUseCase(
	retriever ports.CandidateRetriever,
	reranker *CrossEncoderReranker,
	generator ports.TextGenerator,
	gate *QualityGate,
	cfg GeneratorConfig,
	m *metrics.PipelineMetrics,
	log *slog.Logger,
) *GenerateArticleUseCase {
	return &GenerateArticleUseCase{
		retriever: retriever,
		reranker:  reranker,
		generator: generator,
		gate:      gate,
		cfg:       cfg.normalize(),
		metrics:   m,
		log:       log,
	}
}

func (uc *GenerateArticleUseCase) GenerateArticle(ctx context.Context, req ports.ArticleRequest) (*domain.GenerationResult, error) {
	if strings.TrimSpace(req.Topic) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "generate article", errors.New("empty topic"))
	}

	sources, err := uc.collectSources(ctx, req)
	if err != nil {
		return nil, err
	}

	contexts := make([]string, len(sources))
	for i, s := range sources {
		contexts[i] = s.Text
	}
	basePrompt := buildArticlePrompt(req.Topic, req.Category, sources)

	result := &domain.GenerationResult{Sources: sources}
	prompt := basePrompt
	bestScore := -1.0

	maxAttempts := 1 + uc.cfg.MaxRetries
	for number := 1; number <= maxAttempts; number++ {
		attempt := uc.runAttempt(ctx, number, prompt, contexts)
		result.Attempts = append(result.Attempts, attempt)

		if attempt.Error != "" {
			uc.log.Warn("generation attempt failed", "attempt", number, "error", attempt.Error)
			continue
		}

		if attempt.Verdict.Score > bestScore {
			bestScore = attempt.Verdict.Score
			result.Text = attempt.Text
			result.Verdict = attempt.Verdict
			result.PlagiarismRatio = attempt.PlagiarismRatio
			result.Flagged = attempt.Flagged
		}

		if attempt.Verdict.Passed && !attempt.Flagged {
			result.Passed = true
			break
		}
		prompt = buildRetryPrompt(basePrompt, attempt.Verdict, attempt.Flagged)
	}

	if bestScore < 0 {
		uc.finish("exhausted_oracle", result)
		return nil, domain.WrapError(domain.ErrOracleFailure, "generate article", errors.New("all generation attempts failed"))
	}

	if result.Passed {
		uc.finish("accepted", result)
	} else {
		uc.finish("exhausted", result)
	}
	return result, nil
}

func (uc *GenerateArticleUseCase) collectSources(ctx context.Context, req ports.ArticleRequest) ([]domain.Candidate, error) {
	candidates, err := uc.retriever.Retrieve(ctx, ports.SearchRequest{
		Query:               req.Topic,
		Category:            req.Category,
		TopK:                uc.cfg.SourcePool,
		SpilloverCategories: req.SpilloverCategories,
	})
	if err != nil {
		return nil, fmt.Errorf("retrieve sources: %w", err)
	}
	if len(candidates) == 0 {
		return nil, domain.WrapError(domain.ErrRetrievalUnavailable, "generate article", errors.New("no sources for topic"))
	}

	diverse := selectDiverse(candidates, uc.cfg.DiversityK, uc.cfg.MMRLambda)
	return uc.reranker.Rerank(ctx, req.Topic, diverse), nil
}

func (uc *GenerateArticleUseCase) runAttempt(ctx context.Context, number int, prompt string, contexts []string) domain.Attempt {
	attempt := domain.Attempt{Number: number}

	text, err := uc.generator.Generate(ctx, prompt)
	if err != nil {
		attempt.Error = err.Error()
		return attempt
	}

	attempt.Text = text
	attempt.Verdict = uc.gate.Evaluate(text)
	attempt.PlagiarismRatio = plagiarismRatio(text, contexts, uc.cfg.PlagiarismNGram)
	attempt.Flagged = attempt.PlagiarismRatio >= uc.cfg.PlagiarismMax
	return attempt
}

func (uc *GenerateArticleUseCase) finish(outcome string, result *domain.GenerationResult) {
	uc.log.Info("generation finished",
		"outcome", outcome,
		"attempts", len(result.Attempts),
		"score", result.Verdict.Score,
		"plagiarism_ratio", result.PlagiarismRatio,
	)
	if uc.metrics != nil {
		uc.metrics.FinishGeneration("generator", outcome, len(result.Attempts), result.Verdict.Score)
	}
}
