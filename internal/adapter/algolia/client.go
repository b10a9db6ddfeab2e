package algolia

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/firewatch/internal/observability"
	"github.com/hashicorp/go-retryablehttp"
)

const maxErrorBody = 4 << 10

// APIError is a non-2xx answer from the search provider.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("algolia: status %d: %s", e.Status, e.Message)
}

// Options tunes the provider HTTP client.
type Options struct {
	// BaseURL overrides https://<app id>-dsn.algolia.net.
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	CacheSize  int
}

// Client implements domain.SearchProvider against the Algolia REST search API.
// It is created once at startup and shared by all requests.
type Client struct {
	appID      string
	apiKey     string
	baseURL    string
	httpClient *http.Client
	handles    *handleCache
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a provider client holding the admin credential. Failed
// connections, 429 and 5xx answers are retried up to opts.MaxRetries times.
func NewClient(appID, apiKey string, opts Options, metrics *observability.Metrics, logger *slog.Logger) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = opts.MaxRetries
	rc.RetryWaitMin = 100 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.HTTPClient.Timeout = opts.Timeout
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = logger

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s-dsn.algolia.net", strings.ToLower(appID))
	}

	return &Client{
		appID:      appID,
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: rc.StandardClient(),
		handles:    newHandleCache(max(opts.CacheSize, 1)),
		metrics:    metrics,
		logger:     logger,
	}
}

// Search runs query with params against the named index and returns the
// provider payload unmodified.
func (c *Client) Search(ctx context.Context, index, query string, params map[string]any) (json.RawMessage, error) {
	return c.Index(index).Search(ctx, query, params)
}

// Index returns the handle for the named index, reusing a cached one when possible.
func (c *Client) Index(name string) *Index {
	if idx, ok := c.handles.get(name); ok {
		c.metrics.IndexCache.WithLabelValues("hit").Inc()
		return idx
	}
	c.metrics.IndexCache.WithLabelValues("miss").Inc()

	idx := &Index{
		name:     name,
		queryURL: fmt.Sprintf("%s/1/indexes/%s/query", c.baseURL, url.PathEscape(name)),
		client:   c,
	}
	c.handles.put(name, idx)
	return idx
}

// Index is a handle on one named provider index.
type Index struct {
	name     string
	queryURL string
	client   *Client
}

// Name returns the index name.
func (i *Index) Name() string {
	return i.name
}

// Search posts {...params, "query": query} to the index query endpoint.
func (i *Index) Search(ctx context.Context, query string, params map[string]any) (json.RawMessage, error) {
	body := make(map[string]any, len(params)+1)
	for k, v := range params {
		body[k] = v
	}
	body["query"] = query

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode search params: %w", err)
	}

	start := time.Now()
	raw, err := i.client.doRequest(ctx, i.queryURL, payload)
	i.client.metrics.ProviderDuration.WithLabelValues(i.name).Observe(time.Since(start).Seconds())
	if err != nil {
		i.client.logger.Debug("provider search failed", "index", i.name, "error", err)
		return nil, err
	}
	return raw, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string, payload []byte) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Algolia-Application-Id", c.appID)
	req.Header.Set("X-Algolia-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", stripURL(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &APIError{Status: resp.StatusCode, Message: errorMessage(body, resp.Status)}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if !json.Valid(raw) {
		return nil, errors.New("decode response: provider returned invalid JSON")
	}
	return raw, nil
}

// errorMessage extracts the provider's {"message": "..."} text, falling back
// to the raw body or the HTTP status line.
func errorMessage(body []byte, status string) string {
	var apiErr struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		return apiErr.Message
	}
	if s := strings.TrimSpace(string(body)); s != "" {
		return s
	}
	return status
}

// stripURL drops the request URL from transport errors.
func stripURL(err error) error {
	for {
		var urlErr *url.Error
		if !errors.As(err, &urlErr) {
			return err
		}
		err = urlErr.Err
	}
}
