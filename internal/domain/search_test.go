package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollection_Validate(t *testing.T) {
	require.NoError(t, CollectionFires.Validate())
	require.NoError(t, CollectionShelters.Validate())
	require.ErrorIs(t, Collection("").Validate(), ErrMissingIndex)

	err := Collection("aqi").Validate()
	require.ErrorIs(t, err, ErrUnknownCollection)
	assert.Contains(t, err.Error(), "aqi")
}

func TestSearchRequest_Validate(t *testing.T) {
	require.ErrorIs(t, SearchRequest{}.Validate(), ErrMissingIndex)
	require.ErrorIs(t, SearchRequest{Query: "2025-01-08"}.Validate(), ErrMissingIndex)

	// Any non-empty index is forwarded; the provider decides whether it exists.
	require.NoError(t, SearchRequest{Index: "aqi"}.Validate())
}

func TestCountHits(t *testing.T) {
	assert.Equal(t, 2, CountHits(json.RawMessage(`{"hits":[{"objectID":"a"},{"objectID":"b"}],"nbHits":2}`)))
	assert.Equal(t, 0, CountHits(json.RawMessage(`{"hits":[]}`)))
	assert.Equal(t, 0, CountHits(json.RawMessage(`{"message":"no hits key"}`)))
	assert.Equal(t, 0, CountHits(json.RawMessage(`not json`)))
}

func TestNewSearchEvent(t *testing.T) {
	fixed := time.Date(2025, 1, 8, 12, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(fixed))
	t.Cleanup(func() { SetClock(nil) })

	req := SearchRequest{Index: "fires", Query: "2025-01-08"}
	event := NewSearchEvent("req-1", req, OutcomeSuccess, 3, 150*time.Millisecond)

	assert.Equal(t, SearchEvent{
		RequestID:  "req-1",
		Index:      "fires",
		Query:      "2025-01-08",
		HitCount:   3,
		Outcome:    OutcomeSuccess,
		DurationMS: 150,
		At:         fixed,
	}, event)
}
