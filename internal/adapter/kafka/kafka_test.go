package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/couchcryptid/firewatch/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeEvent(t *testing.T) {
	at := time.Date(2025, 1, 8, 12, 30, 0, 0, time.UTC)
	event := domain.SearchEvent{
		RequestID:  "req-1",
		Index:      "fires",
		Query:      "2025-01-08",
		HitCount:   3,
		Outcome:    domain.OutcomeSuccess,
		DurationMS: 42,
		At:         at,
	}

	msg, err := serializeEvent(event)
	require.NoError(t, err)

	assert.Equal(t, []byte("fires"), msg.Key)
	assert.Equal(t, at, msg.Time)
	assert.JSONEq(t, `{
		"request_id": "req-1",
		"index": "fires",
		"query": "2025-01-08",
		"hit_count": 3,
		"outcome": "success",
		"duration_ms": 42,
		"at": "2025-01-08T12:30:00Z"
	}`, string(msg.Value))
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "request_id", msg.Headers[0].Key)
	assert.Equal(t, []byte("req-1"), msg.Headers[0].Value)
	assert.Equal(t, "outcome", msg.Headers[1].Key)
	assert.Equal(t, []byte("success"), msg.Headers[1].Value)
}

func TestSerializeEvent_CarriesError(t *testing.T) {
	event := domain.SearchEvent{Index: "fires", Outcome: domain.OutcomeError, Error: "algolia: status 403: [REDACTED]"}

	msg, err := serializeEvent(event)
	require.NoError(t, err)

	var decoded domain.SearchEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, event.Error, decoded.Error)
	assert.Equal(t, domain.OutcomeError, decoded.Outcome)
}
