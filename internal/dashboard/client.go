// Package dashboard drives the map view: it fetches collections through the
// search proxy, tracks per-collection loading state, and turns records into
// map markers.
package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/firewatch/internal/domain"
	"github.com/couchcryptid/firewatch/internal/observability"
	"github.com/hashicorp/go-cleanhttp"
)

const maxResponseBody = 32 << 20

// ProxyError is a non-200 answer from the search proxy.
type ProxyError struct {
	Status  int
	Message string
}

func (e *ProxyError) Error() string {
	return fmt.Sprintf("proxy: status %d: %s", e.Status, e.Message)
}

// ProxyClient sends logical search requests to the search proxy. It never
// holds provider credentials.
type ProxyClient struct {
	searchURL  string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewProxyClient creates a client for the proxy at baseURL. Requests are not
// retried; a failed fetch surfaces to the coordinator as a failed collection.
func NewProxyClient(baseURL string, timeout time.Duration, logger *slog.Logger) *ProxyClient {
	hc := cleanhttp.DefaultPooledClient()
	hc.Timeout = timeout
	return &ProxyClient{
		searchURL:  strings.TrimRight(baseURL, "/") + "/api/search",
		httpClient: hc,
		logger:     logger,
	}
}

// Search posts req to the proxy and decodes the hits it returns. Requests for
// collections the dashboard cannot render are rejected without a round trip.
func (c *ProxyClient) Search(ctx context.Context, req domain.SearchRequest) (domain.SearchResult, error) {
	if err := domain.Collection(req.Index).Validate(); err != nil {
		return domain.SearchResult{}, err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return domain.SearchResult{}, fmt.Errorf("encode search request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.searchURL, bytes.NewReader(body))
	if err != nil {
		return domain.SearchResult{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if id := observability.RequestID(ctx); id != "" {
		httpReq.Header.Set(observability.RequestIDHeader, id)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return domain.SearchResult{}, fmt.Errorf("proxy request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return domain.SearchResult{}, fmt.Errorf("read proxy response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return domain.SearchResult{}, &ProxyError{Status: resp.StatusCode, Message: proxyMessage(resp.Status, data)}
	}

	var result domain.SearchResult
	if err := json.Unmarshal(data, &result); err != nil {
		return domain.SearchResult{}, fmt.Errorf("decode proxy response: %w", err)
	}
	c.logger.Debug("search response",
		"index", req.Index,
		"hits", len(result.Hits),
		"request_id", resp.Header.Get(observability.RequestIDHeader),
	)
	return result, nil
}

// proxyMessage extracts the {"error": ...} message, falling back to the
// status line.
func proxyMessage(status string, body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return e.Error
	}
	return status
}
