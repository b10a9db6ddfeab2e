package domain

import "time"

// Search outcomes recorded in audit events and metrics.
const (
	OutcomeSuccess = "success"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

// SearchEvent records one proxied search for the audit topic. It never
// carries provider credentials.
type SearchEvent struct {
	RequestID  string    `json:"request_id"`
	Index      string    `json:"index"`
	Query      string    `json:"query"`
	HitCount   int       `json:"hit_count"`
	Outcome    string    `json:"outcome"`
	Error      string    `json:"error,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	At         time.Time `json:"at"`
}

// NewSearchEvent stamps an audit event with the package clock.
func NewSearchEvent(requestID string, req SearchRequest, outcome string, hits int, took time.Duration) SearchEvent {
	return SearchEvent{
		RequestID:  requestID,
		Index:      req.Index,
		Query:      req.Query,
		HitCount:   hits,
		Outcome:    outcome,
		DurationMS: took.Milliseconds(),
		At:         clock.Now().UTC(),
	}
}
