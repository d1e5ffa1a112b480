package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kirillkom/rag-content-pipeline/internal/core/domain"
	"github.com/kirillkom/rag-content-pipeline/internal/core/ports"
)

type ingestFake struct {
	err  error
	last ports.DocumentSubmission
}

func (f *ingestFake) Submit(_ context.Context, sub ports.DocumentSubmission) (*domain.Document, error) {
	f.last = sub
	if f.err != nil {
		return nil, f.err
	}
	now := time.Now().UTC()
	return &domain.Document{
		ID:          "doc-1",
		SourceKey:   sub.SourceKey,
		Title:       sub.Title,
		Category:    sub.Category,
		ContentHash: "abc",
		Status:      domain.StatusSubmitted,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

type readerFake struct {
	err error
}

func (f readerFake) GetByID(context.Context, string) (*domain.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Document{ID: "doc-1", SourceKey: "src", Status: domain.StatusReady}, nil
}

type retrieverFake struct {
	err  error
	last ports.SearchRequest
}

func (f *retrieverFake) Retrieve(_ context.Context, req ports.SearchRequest) ([]domain.Candidate, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return []domain.Candidate{{ChunkID: "c1", DocumentID: "doc-1", Text: "passage"}}, nil
}

type articleFake struct {
	err error
}

func (f articleFake) GenerateArticle(context.Context, ports.ArticleRequest) (*domain.GenerationResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.GenerationResult{Text: "draft", Passed: true}, nil
}

func newTestHandler(ingest *ingestFake, reader readerFake, retr *retrieverFake, art articleFake) http.Handler {
	if ingest == nil {
		ingest = &ingestFake{}
	}
	if retr == nil {
		retr = &retrieverFake{}
	}
	return NewRouter(ingest, reader, retr, art).Handler()
}

func TestHealthzEndpoint(t *testing.T) {
	handler := newTestHandler(nil, readerFake{}, nil, articleFake{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if res.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected X-Request-Id header to be set")
	}
}

func TestSubmitDocumentAccepted(t *testing.T) {
	ingest := &ingestFake{}
	handler := newTestHandler(ingest, readerFake{}, nil, articleFake{})

	payload, _ := json.Marshal(map[string]any{
		"source_key": "https://example.com/a",
		"title":      "Wound care",
		"text":       "body text",
		"category":   "nursing",
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/documents", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", res.Code, res.Body.String())
	}
	if ingest.last.SourceKey != "https://example.com/a" || ingest.last.Category != "nursing" {
		t.Fatalf("submission not forwarded: %+v", ingest.last)
	}

	var docResp map[string]any
	if err := json.NewDecoder(res.Body).Decode(&docResp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if docResp["id"] != "doc-1" {
		t.Fatalf("unexpected response: %+v", docResp)
	}
}

func TestSubmitDocumentRejectsUnknownFields(t *testing.T) {
	handler := newTestHandler(nil, readerFake{}, nil, articleFake{})

	req := httptest.NewRequest(http.MethodPost, "/v1/documents",
		bytes.NewBufferString(`{"source_key":"a","bogus":true}`))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestSubmitDocumentMapsInvalidInputTo400(t *testing.T) {
	ingest := &ingestFake{err: domain.WrapError(domain.ErrInvalidInput, "submit", errors.New("text is required"))}
	handler := newTestHandler(ingest, readerFake{}, nil, articleFake{})

	req := httptest.NewRequest(http.MethodPost, "/v1/documents", bytes.NewBufferString(`{"source_key":"a"}`))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestGetDocumentByIDReturns404ForNotFound(t *testing.T) {
	reader := readerFake{err: domain.WrapError(domain.ErrDocumentNotFound, "get", errors.New("id=missing"))}
	handler := newTestHandler(nil, reader, nil, articleFake{})

	req := httptest.NewRequest(http.MethodGet, "/v1/documents/missing", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestGetDocumentByIDRequiresID(t *testing.T) {
	handler := newTestHandler(nil, readerFake{}, nil, articleFake{})

	req := httptest.NewRequest(http.MethodGet, "/v1/documents/", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestSearchForwardsRequestAndReturnsCandidates(t *testing.T) {
	retr := &retrieverFake{}
	handler := newTestHandler(nil, readerFake{}, retr, articleFake{})

	payload, _ := json.Marshal(map[string]any{
		"query":                "dressing change",
		"category":             "nursing",
		"top_k":                4,
		"spillover_categories": []string{"caregiving"},
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/search", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if retr.last.Query != "dressing change" || retr.last.TopK != 4 {
		t.Fatalf("request not forwarded: %+v", retr.last)
	}
	if len(retr.last.SpilloverCategories) != 1 || retr.last.SpilloverCategories[0] != "caregiving" {
		t.Fatalf("spillover categories not forwarded: %+v", retr.last)
	}

	var body struct {
		Candidates []domain.Candidate `json:"candidates"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Candidates) != 1 || body.Candidates[0].ChunkID != "c1" {
		t.Fatalf("unexpected candidates: %+v", body.Candidates)
	}
}

func TestSearchMapsRetrievalUnavailableTo503(t *testing.T) {
	retr := &retrieverFake{err: domain.WrapError(domain.ErrRetrievalUnavailable, "retrieve", errors.New("embedder down"))}
	handler := newTestHandler(nil, readerFake{}, retr, articleFake{})

	req := httptest.NewRequest(http.MethodPost, "/v1/search", bytes.NewBufferString(`{"query":"q"}`))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", res.Code)
	}
}

func TestGenerateArticleSuccess(t *testing.T) {
	handler := newTestHandler(nil, readerFake{}, nil, articleFake{})

	req := httptest.NewRequest(http.MethodPost, "/v1/articles",
		bytes.NewBufferString(`{"topic":"pressure sores","category":"nursing"}`))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}

	var result domain.GenerationResult
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.Text != "draft" || !result.Passed {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestGenerateArticleMapsOracleFailureTo502(t *testing.T) {
	art := articleFake{err: domain.WrapError(domain.ErrOracleFailure, "generate", errors.New("all attempts failed"))}
	handler := newTestHandler(nil, readerFake{}, nil, art)

	req := httptest.NewRequest(http.MethodPost, "/v1/articles", bytes.NewBufferString(`{"topic":"t"}`))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", res.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	handler := newTestHandler(nil, readerFake{}, nil, articleFake{})

	req := httptest.NewRequest(http.MethodGet, "/v1/search", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", res.Code)
	}
}
