package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	httpadapter "github.com/couchcryptid/firewatch/internal/adapter/http"
	"github.com/couchcryptid/firewatch/internal/observability"
	"github.com/couchcryptid/firewatch/internal/proxy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminKey = "admin-secret-key"

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockProvider struct {
	mu      sync.Mutex
	calls   int
	payload string
	err     error
	panics  bool
}

func (m *mockProvider) Search(_ context.Context, _, _ string, _ map[string]any) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.panics {
		panic("provider exploded")
	}
	if m.err != nil {
		return nil, m.err
	}
	return json.RawMessage(m.payload), nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(provider *mockProvider, readyErr error) *httpadapter.Server {
	svc := proxy.New(provider, discardLogger(), observability.NewMetricsForTesting(),
		proxy.WithRedactedSecrets(adminKey))
	return httpadapter.NewServer(":0", svc, &mockReadiness{err: readyErr}, discardLogger())
}

func postSearch(t *testing.T, srv http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	srv.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthReturns200(t *testing.T) {
	srv := newTestServer(&mockProvider{}, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(&mockProvider{}, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", decodeBody(t, rec)["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(&mockProvider{}, fmt.Errorf("proxy is shutting down"))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "proxy is shutting down", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(&mockProvider{}, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestSearch_ReturnsProviderPayload(t *testing.T) {
	payload := `{"hits":[{"objectID":"a"},{"objectID":"b"},{"objectID":"c"}],"nbHits":3,"processingTimeMS":4}`
	provider := &mockProvider{payload: payload}
	srv := newTestServer(provider, nil)

	rec := postSearch(t, srv, `{"index":"fires","query":"","params":{"hitsPerPage":500}}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, payload, rec.Body.String())
	assert.Equal(t, 1, provider.calls)
}

func TestSearch_MissingIndex(t *testing.T) {
	for name, body := range map[string]string{
		"empty object": `{}`,
		"no index":     `{"query":"x"}`,
		"empty index":  `{"index":"","query":"x"}`,
		"empty body":   ``,
	} {
		t.Run(name, func(t *testing.T) {
			provider := &mockProvider{payload: `{"hits":[]}`}
			srv := newTestServer(provider, nil)

			rec := postSearch(t, srv, body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, `{"error":"'index' is required"}`, rec.Body.String())
			assert.Equal(t, 0, provider.calls)
		})
	}
}

func TestSearch_MalformedBody(t *testing.T) {
	provider := &mockProvider{payload: `{"hits":[]}`}
	srv := newTestServer(provider, nil)

	rec := postSearch(t, srv, `{"index":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "malformed request body", decodeBody(t, rec)["error"])
	assert.Equal(t, 0, provider.calls)
}

func TestSearch_BodyTooLarge(t *testing.T) {
	provider := &mockProvider{payload: `{"hits":[]}`}
	srv := newTestServer(provider, nil)

	rec := postSearch(t, srv, `{"index":"fires","query":"`+strings.Repeat("x", 2<<20)+`"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "request body too large", decodeBody(t, rec)["error"])
	assert.Equal(t, 0, provider.calls)
}

func TestSearch_ProviderFailureThenRecovery(t *testing.T) {
	provider := &mockProvider{err: errors.New("Invalid Application-ID or API key " + adminKey)}
	srv := newTestServer(provider, nil)

	rec := postSearch(t, srv, `{"index":"fires"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	msg := decodeBody(t, rec)["error"]
	assert.Equal(t, "Invalid Application-ID or API key [REDACTED]", msg)
	assert.NotContains(t, rec.Body.String(), adminKey)

	provider.mu.Lock()
	provider.err = nil
	provider.payload = `{"hits":[]}`
	provider.mu.Unlock()

	rec = postSearch(t, srv, `{"index":"fires"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"hits":[]}`, rec.Body.String())
}

func TestSearch_PanicReturns500(t *testing.T) {
	provider := &mockProvider{panics: true}
	srv := newTestServer(provider, nil)

	rec := postSearch(t, srv, `{"index":"fires"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", decodeBody(t, rec)["error"])
}

func TestSearch_WrongMethod(t *testing.T) {
	srv := newTestServer(&mockProvider{}, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/search", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRequestID(t *testing.T) {
	srv := newTestServer(&mockProvider{payload: `{"hits":[]}`}, nil)

	rec := postSearch(t, srv, `{"index":"fires"}`)
	assert.NotEmpty(t, rec.Header().Get(observability.RequestIDHeader))

	rec2 := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(observability.RequestIDHeader, "dash-42")
	srv.ServeHTTP(rec2, req)
	assert.Equal(t, "dash-42", rec2.Header().Get(observability.RequestIDHeader))
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(&mockProvider{}, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/search", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	// Browsers send the requested header names lowercased.
	req.Header.Set("Access-Control-Request-Headers", "content-type")

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
}

func TestCORSPreflightRejectsMixedCaseHeaderList(t *testing.T) {
	srv := newTestServer(&mockProvider{}, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/search", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Methods"))
}

func TestCORSSimpleRequest(t *testing.T) {
	srv := newTestServer(&mockProvider{payload: `{"hits":[]}`}, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(`{"index":"fires"}`))
	req.Header.Set("Origin", "http://localhost:5173")

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t,
		strings.ToLower(rec.Header().Get("Access-Control-Expose-Headers")),
		strings.ToLower(observability.RequestIDHeader))
}
