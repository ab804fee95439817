// Package api exposes the crawl control plane and search engine over HTTP,
// on stdlib net/http.ServeMux. Kept deliberately off a router framework:
// SPEC_FULL.md treats the outer HTTP surface as explicitly out of scope
// for third-party wiring, so this is the one ambient concern carried on
// the standard library rather than an ecosystem package.
package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/corvuscrawl/seeker/internal/crawl/anomaly"
	"github.com/corvuscrawl/seeker/internal/crawl/repository"
	"github.com/corvuscrawl/seeker/internal/crawl/robots"
	"github.com/corvuscrawl/seeker/internal/search/engine"
	searchmodel "github.com/corvuscrawl/seeker/internal/search/model"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

// Server wires the search engine and crawl repository to HTTP handlers.
type Server struct {
	engine  *engine.Engine
	repo    repository.Repository
	anomaly *anomaly.Gate
	robots  *robots.Gate
	log     zerolog.Logger
	mux     *http.ServeMux
}

// New builds a Server with every route registered.
func New(searchEngine *engine.Engine, repo repository.Repository, anomalyGate *anomaly.Gate, robotsGate *robots.Gate, log zerolog.Logger) *Server {
	s := &Server{
		engine:  searchEngine,
		repo:    repo,
		anomaly: anomalyGate,
		robots:  robotsGate,
		log:     log.With().Str("component", "api").Logger(),
		mux:     http.NewServeMux(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /search", s.handleSearch)
	s.mux.HandleFunc("POST /search/click", s.handleClick)
	s.mux.HandleFunc("POST /admin/crawl", s.handleAdminCrawl)
	s.mux.HandleFunc("GET /crawl/status", s.handleCrawlStatus)
	s.mux.HandleFunc("GET /crawl/domains", s.handleCrawlDomains)
	s.mux.HandleFunc("GET /crawl/queue", s.handleCrawlQueue)
	s.mux.HandleFunc("GET /health", s.handleHealth)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rawQuery := q.Get("q")
	if rawQuery == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "q is required"})
		return
	}

	limit := parseLimit(q.Get("limit"))

	filters := searchmodel.Filters{
		Category:      q.Get("category"),
		Domain:        q.Get("domain"),
		IncludeImages: q.Get("include_images") == "true",
		DateFrom:      parseDate(q.Get("date_from")),
		DateTo:        parseDate(q.Get("date_to")),
	}

	payload, searchID, err := s.engine.Search(r.Context(), rawQuery, filters, limit)
	if err != nil {
		if err == engine.ErrEmptyQuery {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "q is required"})
			return
		}
		s.log.Error().Err(err).Msg("search failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "search failed"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"query":     payload.Query,
		"search_id": searchID,
		"count":     payload.Count,
		"results":   payload.Results,
		"keywords":  payload.Keywords,
	})
}

func parseLimit(raw string) int {
	if raw == "" {
		return defaultSearchLimit
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return defaultSearchLimit
	}
	if n > maxSearchLimit {
		return maxSearchLimit
	}
	return n
}

func parseDate(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil
	}
	return &t
}

type clickRequest struct {
	SearchID string `json:"search_id"`
	URL      string `json:"url"`
	Rank     int    `json:"rank"`
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	var req clickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "error"})
		return
	}
	s.engine.LogClick(r.Context(), req.SearchID, req.URL, req.Rank)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type adminCrawlRequest struct {
	URLs []string `json:"urls"`
}

// handleAdminCrawl registers each seed URL, running the same anomaly and
// robots pre-checks as the Worker's own link-registration path
// (internal/crawl/worker.Pool.registerLinks) before any Register call.
func (s *Server) handleAdminCrawl(w http.ResponseWriter, r *http.Request) {
	var req adminCrawlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}

	registered := 0
	for _, seedURL := range req.URLs {
		if s.anomaly.IsAnomalous(seedURL) {
			s.log.Warn().Str("url", seedURL).Msg("seed rejected as anomalous")
			continue
		}
		allowed, err := s.robots.Allowed(r.Context(), seedURL)
		if err != nil || !allowed {
			s.log.Warn().Err(err).Str("url", seedURL).Msg("seed disallowed by robots.txt")
			continue
		}
		if err := s.repo.Register(r.Context(), seedURL, domainOf(seedURL), 0); err != nil {
			s.log.Warn().Err(err).Str("url", seedURL).Msg("failed to register seed")
			continue
		}
		registered++
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":      "seeds registered",
		"target_count": registered,
	})
}

func (s *Server) handleCrawlStatus(w http.ResponseWriter, r *http.Request) {
	counts, err := s.repo.StatusCounts(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("status_counts failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "status query failed"})
		return
	}
	out := make(map[string]int, len(counts))
	for status, count := range counts {
		out[string(status)] = count
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCrawlDomains(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r.URL.Query().Get("limit"))
	domains, err := s.repo.TopDomains(r.Context(), limit)
	if err != nil {
		s.log.Error().Err(err).Msg("top_domains failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "domains query failed"})
		return
	}
	writeJSON(w, http.StatusOK, domains)
}

func (s *Server) handleCrawlQueue(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r.URL.Query().Get("limit"))
	items, err := s.repo.QueueHead(r.Context(), limit)
	if err != nil {
		s.log.Error().Err(err).Msg("queue_head failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "queue query failed"})
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func domainOf(target string) string {
	parsed, err := url.Parse(target)
	if err != nil {
		return ""
	}
	return parsed.Host
}
