package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/kirillkom/rag-content-pipeline/internal/core/ports"
)

type Router struct {
	ingestUC  ports.DocumentIngestor
	reader    ports.DocumentReader
	retriever ports.CandidateRetriever
	articleUC ports.ArticleGenerator
}

func NewRouter(
	ingestUC ports.DocumentIngestor,
	reader ports.DocumentReader,
	retriever ports.CandidateRetriever,
	articleUC ports.ArticleGenerator,
) *Router {
	return &Router{
		ingestUC:  ingestUC,
		reader:    reader,
		retriever: retriever,
		articleUC: articleUC,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/documents", rt.submitDocument)
	mux.HandleFunc("/v1/documents/", rt.getDocumentByID)
	mux.HandleFunc("/v1/search", rt.search)
	mux.HandleFunc("/v1/articles", rt.generateArticle)
	return requestIDMiddleware(accessLogMiddleware(mux))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) submitDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		SourceKey   string `json:"source_key"`
		Title       string `json:"title"`
		Text        string `json:"text"`
		Category    string `json:"category"`
		Language    string `json:"language"`
		PublishedAt string `json:"published_at"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json: " + err.Error()})
		return
	}

	doc, err := rt.ingestUC.Submit(r.Context(), ports.DocumentSubmission{
		SourceKey:   req.SourceKey,
		Title:       req.Title,
		Text:        req.Text,
		Category:    req.Category,
		Language:    req.Language,
		PublishedAt: req.PublishedAt,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) getDocumentByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	if id == "" || strings.Contains(id, "/") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}

	doc, err := rt.reader.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Query               string   `json:"query"`
		Category            string   `json:"category"`
		TopK                int      `json:"top_k"`
		SpilloverCategories []string `json:"spillover_categories"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json: " + err.Error()})
		return
	}

	candidates, err := rt.retriever.Retrieve(r.Context(), ports.SearchRequest{
		Query:               req.Query,
		Category:            req.Category,
		TopK:                req.TopK,
		SpilloverCategories: req.SpilloverCategories,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"candidates": candidates})
}

func (rt *Router) generateArticle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Topic               string   `json:"topic"`
		Category            string   `json:"category"`
		SpilloverCategories []string `json:"spillover_categories"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json: " + err.Error()})
		return
	}

	result, err := rt.articleUC.GenerateArticle(r.Context(), ports.ArticleRequest{
		Topic:               req.Topic,
		Category:            req.Category,
		SpilloverCategories: req.SpilloverCategories,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}
