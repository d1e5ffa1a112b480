package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/rag-content-pipeline/internal/core/domain"
	"github.com/kirillkom/rag-content-pipeline/internal/core/ports"
)

func newRetriever(store *fakeStore, embedder *fakeEmbedder, lexical *fakeLexical) *HybridRetriever {
	return NewHybridRetriever(embedder, store, lexical, RetrieverConfig{
		TopK:                4,
		CandidateMultiplier: 3,
		LexicalWeight:       0.3,
		SpilloverFloor:      0.72,
		SpilloverK:          2,
		PerDocumentCap:      2,
	}, nil, discardLogger())
}

func TestRetrieveEmptyQueryRejected(t *testing.T) {
	r := newRetriever(&fakeStore{}, &fakeEmbedder{}, &fakeLexical{})

	_, err := r.Retrieve(context.Background(), ports.SearchRequest{Query: "   "})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRetrieveEmbedFailureIsFatal(t *testing.T) {
	r := newRetriever(&fakeStore{}, &fakeEmbedder{queryErr: errors.New("model down")}, &fakeLexical{})

	_, err := r.Retrieve(context.Background(), ports.SearchRequest{Query: "wound care"})
	if !domain.IsKind(err, domain.ErrRetrievalUnavailable) {
		t.Fatalf("expected ErrRetrievalUnavailable, got %v", err)
	}
}

func TestRetrieveAppliesPerDocumentCap(t *testing.T) {
	store := &fakeStore{byCategory: map[string][]domain.Candidate{
		"care": {
			{ChunkID: "a1", DocumentID: "a", VectorScore: 0.95},
			{ChunkID: "a2", DocumentID: "a", VectorScore: 0.94},
			{ChunkID: "a3", DocumentID: "a", VectorScore: 0.93},
			{ChunkID: "b1", DocumentID: "b", VectorScore: 0.90},
		},
	}}
	r := newRetriever(store, &fakeEmbedder{}, &fakeLexical{})

	got, err := r.Retrieve(context.Background(), ports.SearchRequest{Query: "wound care", Category: "care"})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}

	perDoc := map[string]int{}
	for _, c := range got {
		perDoc[c.DocumentID]++
	}
	if perDoc["a"] > 2 {
		t.Fatalf("per-document cap violated: %+v", got)
	}
	if perDoc["b"] != 1 {
		t.Fatalf("capped slate must backfill other documents: %+v", got)
	}
}

func TestRetrieveSpilloverBelowFloor(t *testing.T) {
	store := &fakeStore{byCategory: map[string][]domain.Candidate{
		"care": {
			{ChunkID: "weak1", DocumentID: "w1", Category: "care", VectorScore: 0.40},
			{ChunkID: "weak2", DocumentID: "w2", Category: "care", VectorScore: 0.38},
		},
		"nutrition": {
			{ChunkID: "spill1", DocumentID: "n1", Category: "nutrition", VectorScore: 0.85},
			{ChunkID: "spill2", DocumentID: "n2", Category: "nutrition", VectorScore: 0.80},
			{ChunkID: "spill3", DocumentID: "n3", Category: "nutrition", VectorScore: 0.75},
		},
	}}
	r := newRetriever(store, &fakeEmbedder{}, &fakeLexical{})

	got, err := r.Retrieve(context.Background(), ports.SearchRequest{
		Query:               "protein intake",
		Category:            "care",
		SpilloverCategories: []string{"nutrition"},
	})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}

	spilled := 0
	for _, c := range got {
		if c.Spillover {
			spilled++
			if c.Category != "nutrition" {
				t.Fatalf("spillover from wrong category: %+v", c)
			}
		}
	}
	if spilled == 0 {
		t.Fatal("expected spillover candidates below the similarity floor")
	}
	if spilled > 2 {
		t.Fatalf("spillover contributes at most 2 candidates, got %d", spilled)
	}
}

func TestRetrieveNoSpilloverAboveFloor(t *testing.T) {
	store := &fakeStore{byCategory: map[string][]domain.Candidate{
		"care": {
			{ChunkID: "s1", DocumentID: "d1", Category: "care", VectorScore: 0.90},
			{ChunkID: "s2", DocumentID: "d2", Category: "care", VectorScore: 0.85},
			{ChunkID: "s3", DocumentID: "d3", Category: "care", VectorScore: 0.80},
		},
		"nutrition": {
			{ChunkID: "n1", DocumentID: "n1", Category: "nutrition", VectorScore: 0.99},
		},
	}}
	r := newRetriever(store, &fakeEmbedder{}, &fakeLexical{})

	got, err := r.Retrieve(context.Background(), ports.SearchRequest{
		Query:               "wound care",
		Category:            "care",
		SpilloverCategories: []string{"nutrition"},
	})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	for _, c := range got {
		if c.Spillover {
			t.Fatalf("spillover must not trigger above the floor: %+v", c)
		}
	}
}

func TestRetrieveSpilloverSearchFailureNonFatal(t *testing.T) {
	store := &fakeStore{byCategory: map[string][]domain.Candidate{
		"care": {
			{ChunkID: "weak1", DocumentID: "w1", Category: "care", VectorScore: 0.30},
		},
	}}
	r := newRetriever(store, &fakeEmbedder{}, &fakeLexical{})

	// unknown category yields no candidates rather than an error here;
	// a store-level error path is covered by the primary search test
	got, err := r.Retrieve(context.Background(), ports.SearchRequest{
		Query:               "rare topic",
		Category:            "care",
		SpilloverCategories: []string{"missing"},
	})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("primary candidates must survive, got %d", len(got))
	}
}

func TestRetrieveLexicalBoostReorders(t *testing.T) {
	store := &fakeStore{byCategory: map[string][]domain.Candidate{
		"care": {
			{ChunkID: "v", DocumentID: "dv", Category: "care", VectorScore: 0.80},
			{ChunkID: "l", DocumentID: "dl", Category: "care", VectorScore: 0.75},
			{ChunkID: "x", DocumentID: "dx", Category: "care", VectorScore: 0.74},
		},
	}}
	lexical := &fakeLexical{scores: map[string]float64{"l": 9.0, "v": 1.0}}
	r := newRetriever(store, &fakeEmbedder{}, lexical)

	got, err := r.Retrieve(context.Background(), ports.SearchRequest{Query: "wound dressing", Category: "care"})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if got[0].ChunkID != "l" {
		t.Fatalf("lexical hit must rank first after fusion: %+v", got)
	}
}
