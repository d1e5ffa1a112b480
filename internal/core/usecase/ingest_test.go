package usecase

import (
	"context"
	"testing"

	"github.com/kirillkom/rag-content-pipeline/internal/core/domain"
	"github.com/kirillkom/rag-content-pipeline/internal/core/ports"
)

func validSubmission() ports.DocumentSubmission {
	return ports.DocumentSubmission{
		SourceKey:   "guide-007",
		Title:       "Wound Care at Home",
		Text:        "Full body text of the guide.",
		Category:    "care",
		Language:    "en",
		PublishedAt: "2026-05-01",
	}
}

func TestSubmitCreatesAndPublishes(t *testing.T) {
	repo := newFakeRepo()
	queue := &fakeQueue{}
	uc := NewIngestDocumentUseCase(repo, queue)

	doc, err := uc.Submit(context.Background(), validSubmission())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if doc.ID == "" || doc.Status != domain.StatusSubmitted {
		t.Fatalf("unexpected document: %+v", doc)
	}
	if doc.ContentHash == "" {
		t.Fatal("content hash must be set at submission")
	}
	if len(queue.published) != 1 || queue.published[0] != doc.ID {
		t.Fatalf("expected one published event, got %v", queue.published)
	}
}

func TestSubmitUnchangedReadyDocumentIsNoop(t *testing.T) {
	repo := newFakeRepo()
	queue := &fakeQueue{}
	uc := NewIngestDocumentUseCase(repo, queue)

	first, err := uc.Submit(context.Background(), validSubmission())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := repo.UpdateStatus(context.Background(), first.ID, domain.StatusReady, ""); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	queue.published = nil

	second, err := uc.Submit(context.Background(), validSubmission())
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("resubmission must keep the document id: %s vs %s", second.ID, first.ID)
	}
	if len(queue.published) != 0 {
		t.Fatalf("unchanged content must not republish, got %v", queue.published)
	}
}

func TestSubmitChangedContentReprocessesSameID(t *testing.T) {
	repo := newFakeRepo()
	queue := &fakeQueue{}
	uc := NewIngestDocumentUseCase(repo, queue)

	first, err := uc.Submit(context.Background(), validSubmission())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	queue.published = nil

	changed := validSubmission()
	changed.Text = "Revised body text of the guide."
	second, err := uc.Submit(context.Background(), changed)
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}

	if second.ID != first.ID {
		t.Fatalf("changed content must reuse the document id: %s vs %s", second.ID, first.ID)
	}
	if second.ContentHash == first.ContentHash {
		t.Fatal("content hash must change with the text")
	}
	if second.Status != domain.StatusSubmitted {
		t.Fatalf("changed document must re-enter the pipeline, status=%s", second.Status)
	}
	if len(queue.published) != 1 {
		t.Fatalf("changed content must republish, got %v", queue.published)
	}
}

func TestSubmitValidation(t *testing.T) {
	uc := NewIngestDocumentUseCase(newFakeRepo(), &fakeQueue{})

	cases := []struct {
		name   string
		mutate func(*ports.DocumentSubmission)
	}{
		{"empty source key", func(s *ports.DocumentSubmission) { s.SourceKey = " " }},
		{"empty text", func(s *ports.DocumentSubmission) { s.Text = "" }},
		{"empty category", func(s *ports.DocumentSubmission) { s.Category = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sub := validSubmission()
			tc.mutate(&sub)
			if _, err := uc.Submit(context.Background(), sub); !domain.IsKind(err, domain.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}
