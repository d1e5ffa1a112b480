package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/kirillkom/rag-content-pipeline/internal/core/domain"
	"github.com/kirillkom/rag-content-pipeline/internal/core/ports"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeRepo struct {
	mu        sync.Mutex
	docs      map[string]*domain.Document
	bySource  map[string]string
	statusLog []domain.DocumentStatus
	failGet   bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{docs: map[string]*domain.Document{}, bySource: map[string]string{}}
}

func (r *fakeRepo) put(doc *domain.Document) {
	r.docs[doc.ID] = doc
	r.bySource[doc.SourceKey] = doc.ID
}

func (r *fakeRepo) Create(_ context.Context, doc *domain.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *doc
	r.put(&copied)
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (*domain.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failGet {
		return nil, errors.New("repo down")
	}
	doc, ok := r.docs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "fake.get", errors.New(id))
	}
	copied := *doc
	return &copied, nil
}

func (r *fakeRepo) GetBySourceKey(_ context.Context, sourceKey string) (*domain.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.bySource[sourceKey]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "fake.get", errors.New(sourceKey))
	}
	copied := *r.docs[id]
	return &copied, nil
}

func (r *fakeRepo) Update(_ context.Context, doc *domain.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *doc
	r.put(&copied)
	return nil
}

func (r *fakeRepo) UpdateStatus(_ context.Context, id string, status domain.DocumentStatus, errMessage string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return domain.WrapError(domain.ErrDocumentNotFound, "fake.update", errors.New(id))
	}
	doc.Status = status
	doc.Error = errMessage
	r.statusLog = append(r.statusLog, status)
	return nil
}

type fakeQueue struct {
	published   []string
	failPublish bool
}

func (q *fakeQueue) PublishDocumentSubmitted(_ context.Context, documentID string) error {
	if q.failPublish {
		return errors.New("queue down")
	}
	q.published = append(q.published, documentID)
	return nil
}

func (q *fakeQueue) SubscribeDocumentSubmitted(context.Context, func(context.Context, string) error) error {
	return nil
}

type fakeNormalizer struct{}

func (fakeNormalizer) Normalize(text string) string { return strings.TrimSpace(text) }
func (fakeNormalizer) DetectLanguage(string) string { return "en" }

type paragraphChunker struct{}

func (paragraphChunker) Split(text string) []string {
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

type passthroughDedup struct{ drop int }

func (d passthroughDedup) Filter(chunks []domain.Chunk) []domain.Chunk {
	if d.drop <= 0 || d.drop >= len(chunks) {
		return chunks
	}
	return chunks[:len(chunks)-d.drop]
}

type fakeEmbedder struct {
	queryVec  []float32
	queryErr  error
	batchErrs []error
	calls     int
	batches   [][]string
}

func (e *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	idx := e.calls
	e.calls++
	e.batches = append(e.batches, texts)
	if idx < len(e.batchErrs) && e.batchErrs[idx] != nil {
		return nil, e.batchErrs[idx]
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (e *fakeEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	if e.queryErr != nil {
		return nil, e.queryErr
	}
	if e.queryVec == nil {
		return []float32{1, 0}, nil
	}
	return e.queryVec, nil
}

type fakeStore struct {
	byCategory map[string][]domain.Candidate
	searchErr  error
	upserts    []domain.ChunkWithVector
	visible    []domain.Chunk
}

func (s *fakeStore) Upsert(_ context.Context, batch []domain.ChunkWithVector) (domain.UpsertStats, error) {
	s.upserts = append(s.upserts, batch...)
	for _, c := range batch {
		s.visible = append(s.visible, c.Chunk)
	}
	return domain.UpsertStats{Inserted: len(batch)}, nil
}

func (s *fakeStore) Search(_ context.Context, _ []float32, limit int, filter domain.SearchFilter) ([]domain.Candidate, error) {
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	out := append([]domain.Candidate(nil), s.byCategory[filter.Category]...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeStore) VisibleChunks() []domain.Chunk { return s.visible }

type fakeLexical struct {
	scores   map[string]float64
	rebuilds int
}

func (l *fakeLexical) Rebuild([]domain.Chunk)          { l.rebuilds++ }
func (l *fakeLexical) Score(string) map[string]float64 { return l.scores }

type fakeScorer struct {
	scores []float64
	err    error
}

func (s *fakeScorer) Score(_ context.Context, _ string, candidates []string) ([]float64, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.scores[:len(candidates)], nil
}

type scriptedGenerator struct {
	outputs []string
	errs    []error
	prompts []string
	calls   int
}

func (g *scriptedGenerator) Generate(_ context.Context, prompt string) (string, error) {
	idx := g.calls
	g.calls++
	g.prompts = append(g.prompts, prompt)
	if idx < len(g.errs) && g.errs[idx] != nil {
		return "", g.errs[idx]
	}
	if idx < len(g.outputs) {
		return g.outputs[idx], nil
	}
	return g.outputs[len(g.outputs)-1], nil
}

type fixedRetriever struct {
	candidates []domain.Candidate
	err        error
	requests   []ports.SearchRequest
}

func (r *fixedRetriever) Retrieve(_ context.Context, req ports.SearchRequest) ([]domain.Candidate, error) {
	r.requests = append(r.requests, req)
	if r.err != nil {
		return nil, r.err
	}
	return r.candidates, nil
}
