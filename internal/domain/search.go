package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Collection names a provider index the dashboard knows how to render.
type Collection string

const (
	CollectionFires    Collection = "fires"
	CollectionShelters Collection = "shelters"
)

var (
	// ErrMissingIndex is returned for a search request without an index name.
	ErrMissingIndex = errors.New("'index' is required")

	// ErrUnknownCollection is returned by clients asked to query an index
	// they have no renderer for.
	ErrUnknownCollection = errors.New("unknown collection")
)

// Validate rejects collections other than fires and shelters.
func (c Collection) Validate() error {
	switch c {
	case CollectionFires, CollectionShelters:
		return nil
	case "":
		return ErrMissingIndex
	default:
		return fmt.Errorf("%w %q", ErrUnknownCollection, string(c))
	}
}

// SearchRequest is the logical search request passed from the dashboard to
// the proxy and on to the provider. Params are provider search parameters
// (hitsPerPage, insideBoundingBox, ...) forwarded without inspection.
type SearchRequest struct {
	Index  string         `json:"index"`
	Query  string         `json:"query"`
	Params map[string]any `json:"params,omitempty"`
}

// Validate checks the only precondition the proxy enforces: a non-empty index.
func (r SearchRequest) Validate() error {
	if r.Index == "" {
		return ErrMissingIndex
	}
	return nil
}

// SearchResult is the part of a provider response the dashboard reads. The
// remaining metadata is carried through untouched by the proxy.
type SearchResult struct {
	Hits             []json.RawMessage `json:"hits"`
	NbHits           int               `json:"nbHits"`
	ProcessingTimeMS int               `json:"processingTimeMS"`
}

// SearchProvider is the hosted index-search service. Implementations return
// the provider payload verbatim.
type SearchProvider interface {
	Search(ctx context.Context, index, query string, params map[string]any) (json.RawMessage, error)
}

// CountHits returns the number of hits in a raw provider payload, or 0 when
// the payload has no hits array.
func CountHits(payload json.RawMessage) int {
	var res struct {
		Hits []json.RawMessage `json:"hits"`
	}
	if err := json.Unmarshal(payload, &res); err != nil {
		return 0
	}
	return len(res.Hits)
}
