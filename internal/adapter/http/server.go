package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/firewatch/internal/domain"
	"github.com/couchcryptid/firewatch/internal/proxy"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxRequestBody = 1 << 20

// Searcher runs a logical search request and returns the provider payload.
type Searcher interface {
	Search(ctx context.Context, req domain.SearchRequest) (json.RawMessage, error)
}

// Server exposes the search endpoint alongside health, readiness, and metrics.
type Server struct {
	httpServer *http.Server
	searcher   Searcher
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /health, /readyz, /metrics and
// /api/search routes.
func NewServer(addr string, searcher Searcher, ready sharedobs.ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		searcher: searcher,
		logger:   logger,
	}

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /api/search", s.handleSearch)

	s.httpServer.Handler = withCORS(withRequestID(withLogging(logger, withRecover(logger, mux))))

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	req, err := decodeSearchRequest(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	payload, err := s.searcher.Search(r.Context(), req)
	if err != nil {
		status, msg := errorResponse(err)
		writeError(w, status, msg)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(payload) //nolint:errcheck // client may have gone away
}

// decodeSearchRequest reads the JSON body. An empty body decodes to an empty
// request, which then fails index validation like an explicit one would.
func decodeSearchRequest(w http.ResponseWriter, r *http.Request) (domain.SearchRequest, error) {
	var req domain.SearchRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return req, errors.New("request body too large")
		}
		return req, errors.New("malformed request body")
	}
	return req, nil
}

func errorResponse(err error) (int, string) {
	var perr *proxy.ProviderError
	switch {
	case errors.Is(err, domain.ErrMissingIndex):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &perr):
		return http.StatusInternalServerError, perr.Message
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": msg})
}
