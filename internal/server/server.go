package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/voyagen/m3uvault/api"
	"github.com/voyagen/m3uvault/internal/cache"
	"github.com/voyagen/m3uvault/internal/config"
	"github.com/voyagen/m3uvault/internal/m3u"
	"github.com/voyagen/m3uvault/internal/metrics"
	"github.com/voyagen/m3uvault/internal/models"
	"github.com/voyagen/m3uvault/internal/service"
	"github.com/voyagen/m3uvault/internal/store"
)

// Server holds dependencies for the HTTP API.
type Server struct {
	svc   *service.Service
	store store.Store
	cfg   *config.Config
	log   *logrus.Entry
	mux   *http.ServeMux
}

// New creates a Server and registers routes.
func New(svc *service.Service, s store.Store, cfg *config.Config, log *logrus.Entry) *Server {
	srv := &Server{svc: svc, store: s, cfg: cfg, log: log, mux: http.NewServeMux()}
	srv.routes()
	return srv
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.HandleFunc("POST /api/parse", s.handleParse)

	// Sources
	s.mux.HandleFunc("GET /api/sources", s.handleListSources)
	s.mux.HandleFunc("POST /api/sources", s.handleAddSource)
	s.mux.HandleFunc("GET /api/sources/{id}", s.handleGetSource)
	s.mux.HandleFunc("DELETE /api/sources/{id}", s.handleDeleteSource)
	s.mux.HandleFunc("POST /api/sources/{id}/refresh", s.handleRefreshSource)
	s.mux.HandleFunc("GET /api/sources/{id}/entries", s.handleListEntries)
	s.mux.HandleFunc("GET /api/sources/{id}/groups", s.handleListGroups)

	// Docs and metrics
	s.mux.HandleFunc("GET /api/docs", handleSwaggerUI)
	s.mux.HandleFunc("GET /api/docs/openapi.yaml", handleOpenAPISpec)
	s.mux.Handle("GET /metrics", metrics.Handler())
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe starts the HTTP server on the configured port.
// It blocks until the server is shut down or ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := ":" + s.cfg.ServerPort
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      withCORS(s.withLogging(s)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.log.WithError(err).Error("server shutdown")
		}
	}()

	s.log.WithField("addr", addr).Info("listening")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("ListenAndServe: %w", err)
	}
	return nil
}

// --- handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleParse parses the request body (raw playlist text, or JSON
// {"content": "..."}) without storing it.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	body, err := s.readPlaylistBody(w, r)
	if err != nil {
		s.writeErr(w, http.StatusBadRequest, err)
		return
	}
	pl, err := s.svc.Parse(r.Context(), body)
	if err != nil {
		s.writeErr(w, statusFor(err), err)
		return
	}
	if r.URL.Query().Get("complete") == "true" {
		pl = &models.Playlist{Header: pl.Header, Items: pl.Complete()}
	}
	if pl.Items == nil {
		pl.Items = []models.Entry{}
	}
	writeJSON(w, http.StatusOK, pl)
}

// --- source handlers ---

func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	sources, err := s.store.ListSources(r.Context())
	if err != nil {
		s.writeErr(w, http.StatusInternalServerError, err)
		return
	}
	if sources == nil {
		sources = []models.Source{}
	}
	writeJSON(w, http.StatusOK, sources)
}

type addSourceRequest struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// handleAddSource stores a playlist either fetched from url or given
// inline as content. With ?async=true a url is ingested in the background.
func (s *Server) handleAddSource(w http.ResponseWriter, r *http.Request) {
	var req addSourceRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.cfg.MaxPlaylistBytes))
	if err := dec.Decode(&req); err != nil {
		s.writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}

	switch {
	case req.Content != "":
		if req.Name == "" {
			s.writeErr(w, http.StatusBadRequest, fmt.Errorf("name is required with content"))
			return
		}
		sourceID, count, err := s.svc.StoreText(r.Context(), req.Name, req.Content)
		if err != nil {
			s.writeErr(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"source_id": sourceID, "entry_count": count})

	case req.URL != "":
		if !m3u.IsHTTPURL(req.URL) {
			s.writeErr(w, http.StatusBadRequest, fmt.Errorf("url must be a valid http or https URL"))
			return
		}
		if r.URL.Query().Get("async") == "true" {
			job, err := s.svc.Enqueue(r.Context(), req.URL, req.Name)
			if err != nil {
				s.writeErr(w, statusFor(err), err)
				return
			}
			writeJSON(w, http.StatusAccepted, job)
			return
		}
		sourceID, count, err := s.svc.Ingest(r.Context(), req.URL, req.Name)
		if err != nil {
			s.writeErr(w, statusFor(err), fmt.Errorf("ingest: %w", err))
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"source_id": sourceID, "entry_count": count})

	default:
		s.writeErr(w, http.StatusBadRequest, fmt.Errorf("url or content is required"))
	}
}

func (s *Server) handleGetSource(w http.ResponseWriter, r *http.Request) {
	sourceID, err := parseID(r, "id")
	if err != nil {
		s.writeErr(w, http.StatusBadRequest, err)
		return
	}
	src, err := s.store.GetSource(r.Context(), sourceID)
	if err != nil {
		s.writeErr(w, statusFor(err), fmt.Errorf("source %d: %w", sourceID, err))
		return
	}
	writeJSON(w, http.StatusOK, src)
}

func (s *Server) handleDeleteSource(w http.ResponseWriter, r *http.Request) {
	sourceID, err := parseID(r, "id")
	if err != nil {
		s.writeErr(w, http.StatusBadRequest, err)
		return
	}
	if err := s.store.DeleteSource(r.Context(), sourceID); err != nil {
		s.writeErr(w, statusFor(err), fmt.Errorf("source %d: %w", sourceID, err))
		return
	}
	writeNoContent(w)
}

func (s *Server) handleRefreshSource(w http.ResponseWriter, r *http.Request) {
	sourceID, err := parseID(r, "id")
	if err != nil {
		s.writeErr(w, http.StatusBadRequest, err)
		return
	}
	count, err := s.svc.Refresh(r.Context(), sourceID)
	if err != nil {
		s.writeErr(w, statusFor(err), fmt.Errorf("refresh source %d: %w", sourceID, err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"source_id": sourceID, "entry_count": count})
}

// --- entry handlers ---

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	sourceID, err := parseID(r, "id")
	if err != nil {
		s.writeErr(w, http.StatusBadRequest, err)
		return
	}
	filter := store.EntryFilter{SourceID: sourceID}
	q := r.URL.Query()
	if q.Has("group") {
		g := q.Get("group")
		filter.Group = &g
	}
	filter.Search = strings.TrimSpace(q.Get("search"))
	if v := q.Get("complete"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			s.writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid complete: %s (use true or false)", v))
			return
		}
		filter.CompleteOnly = b
	}
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		s.writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid limit: %w", err))
		return
	}
	if filter.Offset, err = intParam(q.Get("offset")); err != nil {
		s.writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid offset: %w", err))
		return
	}
	filter = filter.Normalize()

	if _, err := s.store.GetSource(r.Context(), sourceID); err != nil {
		s.writeErr(w, statusFor(err), fmt.Errorf("source %d: %w", sourceID, err))
		return
	}
	entries, total, err := s.store.ListEntries(r.Context(), filter)
	if err != nil {
		s.writeErr(w, http.StatusInternalServerError, err)
		return
	}
	if entries == nil {
		entries = []models.StoredEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"total":   total,
		"limit":   filter.Limit,
		"offset":  filter.Offset,
	})
}

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	sourceID, err := parseID(r, "id")
	if err != nil {
		s.writeErr(w, http.StatusBadRequest, err)
		return
	}
	groups, err := s.store.ListGroups(r.Context(), sourceID)
	if err != nil {
		s.writeErr(w, http.StatusInternalServerError, err)
		return
	}
	if groups == nil {
		groups = []models.GroupCount{}
	}
	writeJSON(w, http.StatusOK, groups)
}

// --- middleware ---

// withCORS adds CORS headers to every response and handles preflight OPTIONS requests.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// withLogging logs each request with method, path, status and duration.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		s.log.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"query":       r.URL.RawQuery,
			"status":      sw.status,
			"duration_ms": time.Since(start).Milliseconds(),
		}).Info("request")
	})
}

// --- helpers ---

// APIError is the standard error envelope for all error responses.
type APIError struct {
	Status int    `json:"status"`
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, m3u.ErrInvalidPlaylist):
		return http.StatusUnprocessableEntity
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, cache.ErrLocked):
		return http.StatusConflict
	case errors.Is(err, service.ErrNotRefreshable):
		return http.StatusConflict
	case errors.Is(err, service.ErrQueueUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// readPlaylistBody returns the playlist text of a parse request.
func (s *Server) readPlaylistBody(w http.ResponseWriter, r *http.Request) (string, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxPlaylistBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req struct {
			Content string `json:"content"`
		}
		if err := json.Unmarshal(data, &req); err != nil {
			return "", fmt.Errorf("invalid JSON: %w", err)
		}
		return req.Content, nil
	}
	return string(data), nil
}

// parseID extracts a path parameter by name and parses it as int64.
func parseID(r *http.Request, param string) (int64, error) {
	v := r.PathValue(param)
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %s", param, v)
	}
	return id, nil
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeErr(w http.ResponseWriter, status int, err error) {
	if status >= 500 {
		s.log.WithError(err).WithField("status", status).Error("request failed")
	}
	writeJSON(w, status, APIError{
		Status: status,
		Error:  http.StatusText(status),
		Detail: err.Error(),
	})
}

// --- docs handlers ---

func handleOpenAPISpec(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(api.OpenAPISpec)
}

func handleSwaggerUI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, swaggerUIHTML)
}

const swaggerUIHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>m3uvault API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({
      url: "/api/docs/openapi.yaml",
      dom_id: "#swagger-ui",
      presets: [SwaggerUIBundle.presets.apis, SwaggerUIBundle.SwaggerUIStandalonePreset],
      layout: "BaseLayout",
    });
  </script>
</body>
</html>`
