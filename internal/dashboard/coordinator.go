package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/couchcryptid/firewatch/internal/domain"
	"github.com/couchcryptid/firewatch/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Status is the lifecycle state of one collection.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

// Ordering decides what happens when fetches for the same collection
// complete in a different order than they were started.
type Ordering int

const (
	// LastArrivedWins applies every completion as it lands, so a slow stale
	// response can overwrite a newer one.
	LastArrivedWins Ordering = iota
	// LatestInitiatedWins discards a response once a later-started fetch for
	// the same collection has been applied.
	LatestInitiatedWins
)

// ParseOrdering maps a configuration value onto an Ordering.
func ParseOrdering(s string) (Ordering, error) {
	switch s {
	case "", "last-arrived":
		return LastArrivedWins, nil
	case "latest-initiated":
		return LatestInitiatedWins, nil
	default:
		return 0, fmt.Errorf("unknown ordering %q", s)
	}
}

// ErrInvalidConfidence is returned for a confidence filter outside 0-100.
var ErrInvalidConfidence = errors.New("confidence filter must be within 0-100")

// Searcher is the proxy client as seen by the coordinator.
type Searcher interface {
	Search(ctx context.Context, req domain.SearchRequest) (domain.SearchResult, error)
}

// CollectionState is an immutable view of one collection.
type CollectionState[T any] struct {
	Status    Status
	Items     []T
	Seq       uint64 // sequence number of the fetch whose result is shown
	UpdatedAt time.Time
	Err       string
}

// Snapshot is a consistent view of the whole dashboard.
type Snapshot struct {
	Fires         CollectionState[domain.Detection]
	Shelters      CollectionState[domain.Shelter]
	Query         string
	MinConfidence float64
	Bounds        *domain.Bounds
	Loading       bool
}

// Options tunes a Coordinator.
type Options struct {
	HitsPerPage  int
	Ordering     Ordering
	BoundsFilter bool
	Clock        clockwork.Clock
}

type slot[T any] struct {
	name    domain.Collection
	state   CollectionState[T]
	issued  uint64
	applied uint64
	pending int
}

// Coordinator owns the fires and shelters collections shown on the map.
// Each collection is replaced wholesale by its own fetch completions.
type Coordinator struct {
	searcher Searcher
	opts     Options
	logger   *slog.Logger
	metrics  *observability.Metrics

	mu            sync.Mutex
	fires         slot[domain.Detection]
	shelters      slot[domain.Shelter]
	query         string
	minConfidence float64
	bounds        *domain.Bounds
}

// NewCoordinator creates a Coordinator with both collections idle.
func NewCoordinator(searcher Searcher, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Coordinator {
	if opts.HitsPerPage <= 0 {
		opts.HitsPerPage = 500
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Coordinator{
		searcher: searcher,
		opts:     opts,
		logger:   logger,
		metrics:  metrics,
		fires:    slot[domain.Detection]{name: domain.CollectionFires, state: CollectionState[domain.Detection]{Status: StatusIdle}},
		shelters: slot[domain.Shelter]{name: domain.CollectionShelters, state: CollectionState[domain.Shelter]{Status: StatusIdle}},
	}
}

// Mount loads every fire and every shelter concurrently. Shelters are not
// fetched again afterwards.
func (c *Coordinator) Mount(ctx context.Context) error {
	var (
		wg                   sync.WaitGroup
		firesErr, shelterErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		firesErr = c.fetchFires(ctx)
	}()
	go func() {
		defer wg.Done()
		shelterErr = fetchInto(ctx, c, &c.shelters, c.request(domain.CollectionShelters, "", nil))
	}()
	wg.Wait()
	return errors.Join(firesErr, shelterErr)
}

// SearchFires replaces the fires collection with the hits for query. An
// empty query matches every record.
func (c *Coordinator) SearchFires(ctx context.Context, query string) error {
	c.mu.Lock()
	c.query = query
	c.mu.Unlock()
	return c.fetchFires(ctx)
}

// SetConfidenceFilter records the minimum confidence chosen on the slider and
// refetches fires with the current query. The value is kept for display
// only and is not sent with the request.
func (c *Coordinator) SetConfidenceFilter(ctx context.Context, minConfidence float64) error {
	if math.IsNaN(minConfidence) || minConfidence < 0 || minConfidence > 100 {
		return ErrInvalidConfidence
	}
	c.mu.Lock()
	c.minConfidence = minConfidence
	c.mu.Unlock()
	return c.fetchFires(ctx)
}

// UpdateBounds records the settled viewport. With the bounds filter enabled
// fires are refetched restricted to the viewport; otherwise nothing is fetched.
func (c *Coordinator) UpdateBounds(ctx context.Context, b domain.Bounds) error {
	c.mu.Lock()
	c.bounds = &b
	c.mu.Unlock()
	if !c.opts.BoundsFilter {
		return nil
	}
	return c.fetchFires(ctx)
}

// Snapshot returns the current state of both collections.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	var bounds *domain.Bounds
	if c.bounds != nil {
		b := *c.bounds
		bounds = &b
	}
	return Snapshot{
		Fires:         c.fires.state,
		Shelters:      c.shelters.state,
		Query:         c.query,
		MinConfidence: c.minConfidence,
		Bounds:        bounds,
		Loading:       c.fires.pending > 0 || c.shelters.pending > 0,
	}
}

// Loading reports whether any fetch is still in flight.
func (c *Coordinator) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fires.pending > 0 || c.shelters.pending > 0
}

func (c *Coordinator) fetchFires(ctx context.Context) error {
	c.mu.Lock()
	query := c.query
	var extra map[string]any
	if c.opts.BoundsFilter && c.bounds != nil {
		extra = map[string]any{"insideBoundingBox": c.bounds.BoundingBoxParam()}
	}
	c.mu.Unlock()
	return fetchInto(ctx, c, &c.fires, c.request(domain.CollectionFires, query, extra))
}

func (c *Coordinator) request(collection domain.Collection, query string, extra map[string]any) domain.SearchRequest {
	params := map[string]any{"hitsPerPage": c.opts.HitsPerPage}
	for k, v := range extra {
		params[k] = v
	}
	return domain.SearchRequest{Index: string(collection), Query: query, Params: params}
}

// fetchInto runs one fetch for s and applies its outcome under the ordering
// policy. Superseded fetches are never canceled.
func fetchInto[T any](ctx context.Context, c *Coordinator, s *slot[T], req domain.SearchRequest) error {
	c.mu.Lock()
	s.issued++
	seq := s.issued
	s.pending++
	s.state.Status = StatusLoading
	c.mu.Unlock()

	res, err := c.searcher.Search(ctx, req)
	var items []T
	if err == nil {
		items = decodeHits[T](res.Hits, s.name, c.logger)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	s.pending--

	if c.opts.Ordering == LatestInitiatedWins && seq < s.applied {
		c.metrics.DiscardedResponses.WithLabelValues(string(s.name)).Inc()
		c.logger.Debug("discarding stale response", "collection", s.name, "seq", seq, "applied", s.applied)
		return err
	}
	s.applied = seq

	state := CollectionState[T]{Seq: seq, UpdatedAt: c.opts.Clock.Now()}
	if err != nil {
		state.Status = StatusFailed
		state.Items = []T{}
		state.Err = err.Error()
		c.metrics.CollectionFetches.WithLabelValues(string(s.name), "error").Inc()
		c.logger.Error("fetch failed", "collection", s.name, "error", err)
	} else {
		state.Status = StatusReady
		state.Items = items
		c.metrics.CollectionFetches.WithLabelValues(string(s.name), "success").Inc()
	}
	s.state = state
	c.metrics.CollectionItems.WithLabelValues(string(s.name)).Set(float64(len(state.Items)))
	return err
}

// decodeHits decodes each hit on its own so one malformed record does not
// drop the rest.
func decodeHits[T any](hits []json.RawMessage, collection domain.Collection, logger *slog.Logger) []T {
	items := make([]T, 0, len(hits))
	for i, raw := range hits {
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			logger.Warn("skipping malformed hit", "collection", collection, "position", i, "error", err)
			continue
		}
		items = append(items, item)
	}
	return items
}
