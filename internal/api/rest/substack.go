package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nDmitry/stackfeed/internal/app"
	"github.com/nDmitry/stackfeed/internal/cache"
	"github.com/nDmitry/stackfeed/internal/entity"
	"github.com/nDmitry/stackfeed/internal/parser"
)

const maxAnalyzeBodyBytes = 1 << 20

// Crawler is the set of publication operations served over HTTP
type Crawler interface {
	Crawl(ctx context.Context, params entity.CrawlParams) (*entity.CrawlResult, error)
	Posts(ctx context.Context, handle string, limit int) (*parser.FeedDocument, error)
	Post(ctx context.Context, rawURL string) (*entity.PostContent, error)
	AuthorProfile(ctx context.Context, handle string) (*entity.AuthorProfile, error)
	Notes(ctx context.Context, handle string, limit int) ([]entity.Note, error)
	SearchNotes(ctx context.Context, handle, query string, limit int) ([]entity.Note, error)
	Analyze(text string) entity.ContentAnalytics
}

// Generator renders a crawl result as a feed
type Generator interface {
	Generate(result *entity.CrawlResult, params *entity.FeedParams) ([]byte, error)
}

// Health describes the outbound policy reported by the health route
type Health struct {
	MinInterval time.Duration
	CacheTTL    time.Duration
}

// SubstackHandler handles routes for Substack publications
type SubstackHandler struct {
	crawler   Crawler
	generator Generator
	feeds     cache.Cache
	health    Health
	logger    *slog.Logger
	now       func() time.Time
}

// NewSubstackHandler creates a new SubstackHandler and registers its routes on mux
func NewSubstackHandler(mux *http.ServeMux, c Crawler, g Generator, feeds cache.Cache, health Health) *SubstackHandler {
	handler := &SubstackHandler{
		crawler:   c,
		generator: g,
		feeds:     feeds,
		health:    health,
		logger:    app.Logger(),
		now:       time.Now,
	}

	mux.HandleFunc("GET /health", handler.GetHealth)
	mux.HandleFunc("GET /publications/{handle}/posts", handler.GetPosts)
	mux.HandleFunc("GET /publications/{handle}/crawl", handler.GetCrawl)
	mux.HandleFunc("GET /publications/{handle}/feed", handler.GetFeed)
	mux.HandleFunc("GET /publications/{handle}/author", handler.GetAuthorProfile)
	mux.HandleFunc("GET /publications/{handle}/notes", handler.GetNotes)
	mux.HandleFunc("GET /posts", handler.GetPost)
	mux.HandleFunc("POST /analyze", handler.PostAnalyze)

	return handler
}

type healthResponse struct {
	Status          string  `json:"status"`
	MinIntervalSecs float64 `json:"min_interval_seconds"`
	CacheTTLSeconds float64 `json:"cache_ttl_seconds"`
}

// GetHealth reports liveness and the outbound policy
func (h *SubstackHandler) GetHealth(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, healthResponse{
		Status:          "ok",
		MinIntervalSecs: h.health.MinInterval.Seconds(),
		CacheTTLSeconds: h.health.CacheTTL.Seconds(),
	})
}

type postsResponse struct {
	Publication  entity.PublicationMetadata `json:"publication"`
	Posts        []entity.PostSummary       `json:"posts"`
	SkippedItems int                        `json:"skipped_items"`
}

// GetPosts lists the latest posts of a publication
func (h *SubstackHandler) GetPosts(w http.ResponseWriter, r *http.Request) {
	limit, err := entity.LimitFromRequest(r, entity.PostLimitDefault, entity.PostLimitMax)

	if err != nil {
		h.handleError(w, err)
		return
	}

	doc, err := h.crawler.Posts(r.Context(), strings.ToLower(r.PathValue("handle")), limit)

	if err != nil {
		h.handleError(w, err)
		return
	}

	posts := doc.Posts

	if posts == nil {
		posts = []entity.PostSummary{}
	}

	h.writeJSON(w, http.StatusOK, postsResponse{
		Publication:  doc.Metadata,
		Posts:        posts,
		SkippedItems: doc.SkipCount,
	})
}

// GetCrawl runs a full crawl of a publication
func (h *SubstackHandler) GetCrawl(w http.ResponseWriter, r *http.Request) {
	params, err := entity.NewCrawlParamsFromRequest(r)

	if err != nil {
		h.handleError(w, err)
		return
	}

	result, err := h.crawler.Crawl(r.Context(), *params)

	if err != nil {
		h.handleError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// GetFeed re-syndicates a crawl as RSS or Atom with analytics in every item
func (h *SubstackHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	params, err := entity.NewFeedParamsFromRequest(r)

	if err != nil {
		h.handleError(w, err)
		return
	}

	cacheKey := buildCacheKey(params)

	// Try to get from cache first if caching is enabled
	if params.CacheTTL > 0 {
		entry, cacheErr := h.feeds.Get(r.Context(), cacheKey)

		if cacheErr == nil {
			w.Header().Set("X-CACHE-STATUS", "HIT")
			h.serveContent(w, entry.Body, params.Format, params.CacheTTL)

			return
		} else if !errors.Is(cacheErr, cache.ErrCacheMiss) {
			h.logger.Error("Cache error", "error", cacheErr)
		}
	}

	result, err := h.crawler.Crawl(r.Context(), entity.CrawlParams{
		Handle:       params.Handle,
		PostLimit:    params.PostLimit,
		RunAnalytics: true,
	})

	if err != nil {
		h.handleError(w, err)
		return
	}

	content, err := h.generator.Generate(result, params)

	if err != nil {
		h.handleError(w, err)
		return
	}

	if params.CacheTTL > 0 {
		entry := cache.Entry{
			Body:        content,
			ContentType: contentType(params.Format),
			ExpiresAt:   h.now().Add(time.Duration(params.CacheTTL) * time.Minute),
		}

		// Use background context for caching to avoid cancellation
		cacheCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := h.feeds.Set(cacheCtx, cacheKey, entry); err != nil {
			h.logger.Error("Failed to cache content", "error", err)
		}
	}

	w.Header().Set("X-CACHE-STATUS", "MISS")
	h.serveContent(w, content, params.Format, params.CacheTTL)
}

// GetAuthorProfile returns the author profile of a publication
func (h *SubstackHandler) GetAuthorProfile(w http.ResponseWriter, r *http.Request) {
	handle := strings.ToLower(r.PathValue("handle"))
	profile, err := h.crawler.AuthorProfile(r.Context(), handle)

	if err != nil {
		h.handleError(w, err)
		return
	}

	if profile == nil {
		h.handleError(w, &entity.UpstreamStatusError{URL: handle, StatusCode: http.StatusNotFound})
		return
	}

	h.writeJSON(w, http.StatusOK, profile)
}

// GetNotes lists recent notes, filtered by the q parameter when present
func (h *SubstackHandler) GetNotes(w http.ResponseWriter, r *http.Request) {
	limit, err := entity.LimitFromRequest(r, entity.NoteLimitDefault, entity.NoteLimitMax)

	if err != nil {
		h.handleError(w, err)
		return
	}

	handle := strings.ToLower(r.PathValue("handle"))

	var notes []entity.Note

	if r.URL.Query().Has("q") {
		notes, err = h.crawler.SearchNotes(r.Context(), handle, r.URL.Query().Get("q"), limit)
	} else {
		notes, err = h.crawler.Notes(r.Context(), handle, limit)
	}

	if err != nil {
		h.handleError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, notes)
}

// GetPost extracts a single post given by the url parameter
func (h *SubstackHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")

	if rawURL == "" {
		h.handleError(w, &entity.ConfigurationError{Field: "url", Reason: "is required"})
		return
	}

	content, err := h.crawler.Post(r.Context(), rawURL)

	if err != nil {
		h.handleError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, content)
}

type analyzeRequest struct {
	Text *string `json:"text"`
}

// PostAnalyze runs the analytics engine over the submitted text
func (h *SubstackHandler) PostAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest

	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAnalyzeBodyBytes)).Decode(&req); err != nil {
		h.handleError(w, &entity.ConfigurationError{Field: "body", Reason: err.Error()})
		return
	}

	if req.Text == nil {
		h.handleError(w, &entity.ConfigurationError{Field: "text", Reason: "is required"})
		return
	}

	h.writeJSON(w, http.StatusOK, h.crawler.Analyze(*req.Text))
}

// buildCacheKey generates a cache key based on request parameters
func buildCacheKey(params *entity.FeedParams) string {
	caseSensitive := "0"

	if params.ExcludeCaseSensitive {
		caseSensitive = "1"
	}

	return fmt.Sprintf("substack:feed:%s:%s:%d:%s:%s",
		params.Handle,
		params.Format,
		params.PostLimit,
		strings.Join(params.ExcludeWords, "|"),
		caseSensitive)
}

func contentType(format string) string {
	switch format {
	case entity.FormatRSS:
		return "application/rss+xml"
	case entity.FormatAtom:
		return "application/atom+xml"
	default:
		return "application/xml"
	}
}

// serveContent sends the content to the client with appropriate headers
func (h *SubstackHandler) serveContent(w http.ResponseWriter, content []byte, format string, cacheTTL int) {
	w.Header().Set("Content-Type", contentType(format)+"; charset=utf-8")

	if cacheTTL > 0 {
		w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", cacheTTL*60))
	} else {
		w.Header().Set("Cache-Control", "no-cache")
	}

	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(content); err != nil {
		handleBadErrorResponse(err, string(content))
	}
}

func (h *SubstackHandler) writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		handleBadErrorResponse(err, v)
	}
}

// handleError responds with an error message and a status derived from err
func (h *SubstackHandler) handleError(w http.ResponseWriter, err error) {
	statusCode := statusCodeOf(err)

	if statusCode >= http.StatusInternalServerError {
		h.logger.Error("Request error", "error", err, "status", statusCode)
	} else {
		h.logger.Warn("Request error", "error", err, "status", statusCode)
	}

	h.writeJSON(w, statusCode, map[string]string{"error": err.Error()})
}

// statusCodeOf maps the error taxonomy onto HTTP statuses
func statusCodeOf(err error) int {
	var (
		configErr    *entity.ConfigurationError
		statusErr    *entity.UpstreamStatusError
		transportErr *entity.TransportError
		malformedErr *entity.MalformedResponseError
		parseErr     *entity.ParseError
	)

	switch {
	case errors.As(err, &configErr):
		return http.StatusBadRequest
	case errors.As(err, &statusErr):
		if statusErr.StatusCode == http.StatusNotFound || statusErr.StatusCode == http.StatusGone {
			return http.StatusNotFound
		}

		return http.StatusBadGateway
	case errors.Is(err, entity.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &transportErr), errors.As(err, &malformedErr), errors.As(err, &parseErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func handleBadErrorResponse(err error, resp any) {
	app.Logger().Error(
		"failed to encode an error response",
		"error", err,
		"response", resp,
	)
}
