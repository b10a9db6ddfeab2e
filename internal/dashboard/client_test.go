package dashboard_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/firewatch/internal/dashboard"
	"github.com/couchcryptid/firewatch/internal/domain"
	"github.com/couchcryptid/firewatch/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProxyClient_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/search", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "dash-1", r.Header.Get(observability.RequestIDHeader))
		assert.Empty(t, r.Header.Get("X-Algolia-API-Key"))

		var req domain.SearchRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "fires", req.Index)
		assert.Equal(t, "ca", req.Query)
		assert.Equal(t, float64(500), req.Params["hitsPerPage"])

		_, _ = w.Write([]byte(`{"hits":[{"objectID":"1"},{"objectID":"2"}],"nbHits":2,"processingTimeMS":3,"page":0}`))
	}))
	defer srv.Close()

	c := dashboard.NewProxyClient(srv.URL+"/", 5*time.Second, discardLogger())
	ctx := observability.WithRequestID(context.Background(), "dash-1")

	res, err := c.Search(ctx, domain.SearchRequest{Index: "fires", Query: "ca", Params: map[string]any{"hitsPerPage": 500}})

	require.NoError(t, err)
	assert.Len(t, res.Hits, 2)
	assert.Equal(t, 2, res.NbHits)
	assert.Equal(t, 3, res.ProcessingTimeMS)
}

func TestProxyClient_RejectsUnknownCollection(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		calls++
	}))
	defer srv.Close()

	c := dashboard.NewProxyClient(srv.URL, 5*time.Second, discardLogger())

	_, err := c.Search(context.Background(), domain.SearchRequest{Index: "aqi"})
	require.ErrorIs(t, err, domain.ErrUnknownCollection)

	_, err = c.Search(context.Background(), domain.SearchRequest{})
	require.ErrorIs(t, err, domain.ErrMissingIndex)

	assert.Equal(t, 0, calls)
}

func TestProxyClient_ProxyError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Index does not exist"}`))
	}))
	defer srv.Close()

	c := dashboard.NewProxyClient(srv.URL, 5*time.Second, discardLogger())

	_, err := c.Search(context.Background(), domain.SearchRequest{Index: "shelters"})

	var perr *dashboard.ProxyError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, http.StatusInternalServerError, perr.Status)
	assert.Equal(t, "Index does not exist", perr.Message)
}

func TestProxyClient_ProxyErrorWithoutBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := dashboard.NewProxyClient(srv.URL, 5*time.Second, discardLogger())

	_, err := c.Search(context.Background(), domain.SearchRequest{Index: "fires"})

	var perr *dashboard.ProxyError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "502 Bad Gateway", perr.Message)
}

func TestProxyClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"hits":[]}`))
	}))
	defer srv.Close()

	c := dashboard.NewProxyClient(srv.URL, 50*time.Millisecond, discardLogger())

	_, err := c.Search(context.Background(), domain.SearchRequest{Index: "fires"})
	require.Error(t, err)
}

func TestProxyClient_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	c := dashboard.NewProxyClient(srv.URL, 5*time.Second, discardLogger())

	_, err := c.Search(context.Background(), domain.SearchRequest{Index: "fires"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode proxy response")
}
