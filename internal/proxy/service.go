// Package proxy forwards dashboard search requests to the hosted search
// provider with the proxy's own credential.
package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/couchcryptid/firewatch/internal/domain"
	"github.com/couchcryptid/firewatch/internal/observability"
	"github.com/jonboulle/clockwork"
)

const redacted = "[REDACTED]"

// ErrDraining is reported by CheckReadiness once Drain has been called.
var ErrDraining = errors.New("proxy is shutting down")

// ProviderError is a provider failure with credentials removed from the
// message. Its message is safe to return to callers.
type ProviderError struct {
	Message string
	err     error
}

func (e *ProviderError) Error() string { return e.Message }

func (e *ProviderError) Unwrap() error { return e.err }

// AuditRecorder receives one event per proxied search.
type AuditRecorder interface {
	Record(ctx context.Context, event domain.SearchEvent) error
}

// Service validates and forwards search requests. It is safe for concurrent use.
type Service struct {
	provider domain.SearchProvider
	recorder AuditRecorder
	logger   *slog.Logger
	metrics  *observability.Metrics
	clock    clockwork.Clock
	secrets  []string
	draining atomic.Bool
}

// Option configures a Service.
type Option func(*Service)

// WithAuditRecorder publishes an audit event for every search.
func WithAuditRecorder(r AuditRecorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithClock overrides the clock used to time provider calls.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithRedactedSecrets lists values that must never appear in an error
// returned to a caller, typically the provider admin key.
func WithRedactedSecrets(secrets ...string) Option {
	return func(s *Service) {
		for _, v := range secrets {
			if v != "" {
				s.secrets = append(s.secrets, v)
			}
		}
	}
}

// New creates a Service that forwards to provider.
func New(provider domain.SearchProvider, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Service {
	s := &Service{
		provider: provider,
		logger:   logger,
		metrics:  metrics,
		clock:    clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search forwards req to the provider and returns its payload unchanged.
// A request without an index fails with domain.ErrMissingIndex before the
// provider is contacted. Provider failures are returned as *ProviderError.
func (s *Service) Search(ctx context.Context, req domain.SearchRequest) (json.RawMessage, error) {
	requestID := observability.RequestID(ctx)
	start := s.clock.Now()

	if err := req.Validate(); err != nil {
		s.metrics.SearchRequests.WithLabelValues(req.Index, domain.OutcomeInvalid).Inc()
		s.audit(ctx, domain.NewSearchEvent(requestID, req, domain.OutcomeInvalid, 0, 0), err)
		return nil, err
	}

	payload, err := s.provider.Search(ctx, req.Index, req.Query, req.Params)
	took := s.clock.Since(start)
	if err != nil {
		perr := &ProviderError{Message: s.redact(err.Error()), err: err}
		s.metrics.SearchRequests.WithLabelValues(req.Index, domain.OutcomeError).Inc()
		s.logger.Error("search failed",
			"request_id", requestID,
			"index", req.Index,
			"error", perr.Message,
		)
		s.audit(ctx, domain.NewSearchEvent(requestID, req, domain.OutcomeError, 0, took), perr)
		return nil, perr
	}

	hits := domain.CountHits(payload)
	s.metrics.SearchRequests.WithLabelValues(req.Index, domain.OutcomeSuccess).Inc()
	s.metrics.SearchHits.Observe(float64(hits))
	s.logger.Debug("search complete",
		"request_id", requestID,
		"index", req.Index,
		"hits", hits,
		"duration", took,
	)
	s.audit(ctx, domain.NewSearchEvent(requestID, req, domain.OutcomeSuccess, hits, took), nil)
	return payload, nil
}

// CheckReadiness returns nil until Drain is called.
func (s *Service) CheckReadiness(_ context.Context) error {
	if s.draining.Load() {
		return ErrDraining
	}
	return nil
}

// Drain marks the proxy as shutting down so load balancers stop routing to it.
// In-flight and new searches are still served.
func (s *Service) Drain() {
	if s.draining.CompareAndSwap(false, true) {
		s.metrics.ProxyDraining.Set(1)
		s.logger.Info("proxy draining")
	}
}

func (s *Service) audit(ctx context.Context, event domain.SearchEvent, cause error) {
	if s.recorder == nil {
		return
	}
	if cause != nil {
		event.Error = s.redact(cause.Error())
	}
	// The audit write must not be aborted by the client hanging up.
	if err := s.recorder.Record(context.WithoutCancel(ctx), event); err != nil {
		s.metrics.AuditEvents.WithLabelValues("error").Inc()
		s.logger.Warn("audit record failed", "request_id", event.RequestID, "error", err)
		return
	}
	s.metrics.AuditEvents.WithLabelValues("queued").Inc()
}

func (s *Service) redact(msg string) string {
	for _, secret := range s.secrets {
		msg = strings.ReplaceAll(msg, secret, redacted)
	}
	return msg
}
