package transporthttp

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/stazcp/ai-news-aggregator-sub000/internal/cluster"
	"github.com/stazcp/ai-news-aggregator-sub000/internal/config"
)

// Server exposes the clustering pipeline over HTTP.
type Server struct {
	pipeline      *cluster.Pipeline
	store         *cluster.ArticleStore
	defaultWindow time.Duration
}

// NewServer wires the pipeline and article store into a handler set.
func NewServer(pipeline *cluster.Pipeline, cfg config.Config, store *cluster.ArticleStore) *Server {
	return &Server{
		pipeline:      pipeline,
		store:         store,
		defaultWindow: cfg.DefaultWindow,
	}
}

// Routes returns the HTTP handler for the API surface.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.health)
	mux.HandleFunc("/articles", s.handleArticles)
	mux.HandleFunc("/stories", s.handleStories)
	mux.HandleFunc("/swagger/openapi.yaml", serveSwaggerYAML)
	mux.HandleFunc("/swagger", serveSwaggerUI)
	mux.HandleFunc("/swagger/", serveSwaggerUI)
	return mux
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleArticles ingests a single article into the store.
func (s *Server) handleArticles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.store == nil {
		s.writeError(w, http.StatusServiceUnavailable, "ingest disabled")
		return
	}

	var payload struct {
		ID          string         `json:"id"`
		Title       string         `json:"title"`
		Description string         `json:"description"`
		Content     string         `json:"content"`
		URL         string         `json:"url"`
		URLToImage  string         `json:"urlToImage"`
		PublishedAt string         `json:"publishedAt"`
		Source      cluster.Source `json:"source"`
		Category    string         `json:"category"`
		ImageWidth  int            `json:"imageWidth"`
		ImageHeight int            `json:"imageHeight"`
	}

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	if payload.Title == "" || payload.URL == "" {
		s.writeError(w, http.StatusBadRequest, "title and url are required")
		return
	}

	published := time.Now().UTC()
	if payload.PublishedAt != "" {
		ts, err := time.Parse(time.RFC3339, payload.PublishedAt)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "publishedAt must be RFC3339")
			return
		}
		published = ts
	}

	article := cluster.Article{
		ID:          payload.ID,
		Title:       payload.Title,
		Description: payload.Description,
		Content:     payload.Content,
		URL:         payload.URL,
		URLToImage:  payload.URLToImage,
		PublishedAt: published,
		Source:      payload.Source,
		Category:    defaultString(payload.Category, "general"),
		ImageWidth:  payload.ImageWidth,
		ImageHeight: payload.ImageHeight,
	}
	if article.Source.Name == "" {
		article.Source.Name = "ingest"
	}

	stored := s.store.Add(article)

	response := map[string]any{
		"status":      "accepted",
		"id":          stored.ID,
		"publishedAt": stored.PublishedAt,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(response)
}

// handleStories runs the pipeline. GET clusters the stored article window;
// POST clusters the articles supplied in the request body.
func (s *Server) handleStories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 120*time.Second)
	defer cancel()

	var articles []cluster.Article
	switch r.Method {
	case http.MethodGet:
		if s.store == nil {
			s.writeError(w, http.StatusServiceUnavailable, "article store disabled")
			return
		}
		articles = s.store.Recent(time.Now().UTC(), s.parseWindow(r))
	case http.MethodPost:
		var payload struct {
			Articles []cluster.Article `json:"articles"`
		}
		decoder := json.NewDecoder(r.Body)
		if err := decoder.Decode(&payload); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid payload")
			return
		}
		articles = payload.Articles
	default:
		w.Header().Set("Allow", strings.Join([]string{http.MethodGet, http.MethodPost}, ", "))
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	result, err := s.pipeline.Run(ctx, articles)
	if err != nil {
		// Unexpected failure: fall back to ungrouped articles rather
		// than failing the whole request.
		result = cluster.Result{Clusters: []cluster.StoryCluster{}}
	}
	if limit := parseLimit(r); limit > 0 && len(result.Clusters) > limit {
		result.Clusters = result.Clusters[:limit]
	}

	response := map[string]any{
		"as_of":       time.Now().UTC(),
		"clusters":    result.Clusters,
		"rateLimited": result.RateLimited,
	}
	if len(result.Clusters) == 0 {
		response["articles"] = articles
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}

func (s *Server) parseWindow(r *http.Request) time.Duration {
	if v := r.URL.Query().Get("window_hours"); v != "" {
		if hours, err := strconv.Atoi(v); err == nil && hours > 0 {
			return time.Duration(hours) * time.Hour
		}
	}
	return s.defaultWindow
}

func parseLimit(r *http.Request) int {
	if v := r.URL.Query().Get("limit"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil && limit > 0 {
			return limit
		}
	}
	return 0
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func defaultString(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
