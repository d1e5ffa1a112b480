package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/rag-content-pipeline/internal/core/domain"
	"github.com/kirillkom/rag-content-pipeline/internal/core/ports"
)

type IngestDocumentUseCase struct {
	repo  ports.DocumentRepository
	queue ports.MessageQueue
}

func NewIngestDocumentUseCase(repo ports.DocumentRepository, queue ports.MessageQueue) *IngestDocumentUseCase {
	return &IngestDocumentUseCase{repo: repo, queue: queue}
}

// Submit registers a document for indexing. Resubmitting an unchanged
// source key is a no-op; changed content re-enters the pipeline under
// the same document id.
func (uc *IngestDocumentUseCase) Submit(ctx context.Context, sub ports.DocumentSubmission) (*domain.Document, error) {
	if err := validateSubmission(sub); err != nil {
		return nil, err
	}

	hash := domain.ContentHash(sub.SourceKey, sub.Text)
	now := time.Now().UTC()

	existing, err := uc.repo.GetBySourceKey(ctx, sub.SourceKey)
	switch {
	case err == nil:
		if existing.ContentHash == hash && existing.Status == domain.StatusReady {
			return existing, nil
		}
		uc.applySubmission(existing, sub, hash, now)
		if err := uc.repo.Update(ctx, existing); err != nil {
			return nil, fmt.Errorf("update document: %w", err)
		}
		if err := uc.queue.PublishDocumentSubmitted(ctx, existing.ID); err != nil {
			return nil, fmt.Errorf("publish submission event: %w", err)
		}
		return existing, nil

	case domain.IsKind(err, domain.ErrDocumentNotFound):
		doc := &domain.Document{
			ID:          uuid.NewString(),
			SourceKey:   sub.SourceKey,
			Title:       sub.Title,
			Text:        sub.Text,
			Category:    sub.Category,
			Language:    sub.Language,
			PublishedAt: sub.PublishedAt,
			ContentHash: hash,
			Status:      domain.StatusSubmitted,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := uc.repo.Create(ctx, doc); err != nil {
			return nil, fmt.Errorf("create document: %w", err)
		}
		if err := uc.queue.PublishDocumentSubmitted(ctx, doc.ID); err != nil {
			return nil, fmt.Errorf("publish submission event: %w", err)
		}
		return doc, nil

	default:
		return nil, fmt.Errorf("lookup source key: %w", err)
	}
}

func (uc *IngestDocumentUseCase) applySubmission(doc *domain.Document, sub ports.DocumentSubmission, hash string, now time.Time) {
	doc.Title = sub.Title
	doc.Text = sub.Text
	doc.Category = sub.Category
	doc.Language = sub.Language
	doc.PublishedAt = sub.PublishedAt
	doc.ContentHash = hash
	doc.Status = domain.StatusSubmitted
	doc.Error = ""
	doc.UpdatedAt = now
}

func validateSubmission(sub ports.DocumentSubmission) error {
	if strings.TrimSpace(sub.SourceKey) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "submit document", errors.New("empty source key"))
	}
	if strings.TrimSpace(sub.Text) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "submit document", errors.New("empty text"))
	}
	if strings.TrimSpace(sub.Category) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "submit document", errors.New("empty category"))
	}
	return nil
}
