package instrumentation

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all metric instruments for the client library
type Metrics struct {
	// Backend Call Metrics
	BackendCallsTotal   metric.Int64Counter
	BackendCallDuration metric.Float64Histogram
	BackendCallErrors   metric.Int64Counter

	// Token Lifecycle Metrics
	TokensIssued    metric.Int64Counter
	TokensRefreshed metric.Int64Counter
	TokensRevoked   metric.Int64Counter
	TokensVerified  metric.Int64Counter
	ScopeDenied     metric.Int64Counter
	RedirectsIssued metric.Int64Counter
}

// newMetrics creates and registers all metric instruments
func newMetrics(inst *Instrumentation) (*Metrics, error) {
	m := &Metrics{}

	backendMeter := inst.Meter("backend")
	tokenMeter := inst.Meter("token")

	var err error
	m.BackendCallsTotal, err = backendMeter.Int64Counter(
		"oauth.backend.calls.total",
		metric.WithDescription("Total number of outbound backend requests"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create backend.calls.total counter: %w", err)
	}

	m.BackendCallDuration, err = backendMeter.Float64Histogram(
		"oauth.backend.call.duration",
		metric.WithDescription("Backend call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create backend.call.duration histogram: %w", err)
	}

	m.BackendCallErrors, err = backendMeter.Int64Counter(
		"oauth.backend.call.errors.total",
		metric.WithDescription("Total number of failed backend calls"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create backend.call.errors.total counter: %w", err)
	}

	m.TokensIssued, err = tokenMeter.Int64Counter(
		"oauth.token.issued",
		metric.WithDescription("Number of tokens issued"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create token.issued counter: %w", err)
	}

	m.TokensRefreshed, err = tokenMeter.Int64Counter(
		"oauth.token.refreshed",
		metric.WithDescription("Number of tokens refreshed"),
		metric.WithUnit("{refresh}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create token.refreshed counter: %w", err)
	}

	m.TokensRevoked, err = tokenMeter.Int64Counter(
		"oauth.token.revoked",
		metric.WithDescription("Number of tokens revoked"),
		metric.WithUnit("{revocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create token.revoked counter: %w", err)
	}

	m.TokensVerified, err = tokenMeter.Int64Counter(
		"oauth.token.verified",
		metric.WithDescription("Number of token verifications performed"),
		metric.WithUnit("{verification}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create token.verified counter: %w", err)
	}

	m.ScopeDenied, err = tokenMeter.Int64Counter(
		"oauth.scope.denied",
		metric.WithDescription("Number of verifications rejected for insufficient scope"),
		metric.WithUnit("{rejection}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scope.denied counter: %w", err)
	}

	m.RedirectsIssued, err = tokenMeter.Int64Counter(
		"oauth.redirect.issued",
		metric.WithDescription("Number of authorization redirects obtained"),
		metric.WithUnit("{redirect}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create redirect.issued counter: %w", err)
	}

	return m, nil
}

// Helper methods for common metric recording patterns

// RecordBackendCall records an outbound backend call. A zero status code
// means the call failed at the transport layer before a response arrived.
func (m *Metrics) RecordBackendCall(ctx context.Context, operation string, statusCode int, durationMs float64) {
	attrs := []attribute.KeyValue{
		attribute.String("operation", operation),
		attribute.Int("status", statusCode),
	}

	m.BackendCallsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.BackendCallDuration.Record(ctx, durationMs, metric.WithAttributes(
		attribute.String("operation", operation),
	))

	if statusCode == 0 || statusCode >= 400 {
		errorType := "transport"
		if statusCode >= 400 && statusCode < 500 {
			errorType = "client_error"
		} else if statusCode >= 500 {
			errorType = "server_error"
		}

		m.BackendCallErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("error_type", errorType),
		))
	}
}

// RecordTokenIssued records a successful token issuance
func (m *Metrics) RecordTokenIssued(ctx context.Context, grantType string) {
	m.TokensIssued.Add(ctx, 1, metric.WithAttributes(
		attribute.String("grant_type", grantType),
	))
}

// RecordTokenRefreshed records a successful token refresh
func (m *Metrics) RecordTokenRefreshed(ctx context.Context) {
	m.TokensRefreshed.Add(ctx, 1)
}

// RecordTokenRevoked records a successful token revocation
func (m *Metrics) RecordTokenRevoked(ctx context.Context) {
	m.TokensRevoked.Add(ctx, 1)
}

// RecordTokenVerified records a token verification outcome
func (m *Metrics) RecordTokenVerified(ctx context.Context, valid bool) {
	m.TokensVerified.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("valid", valid),
	))
}

// RecordScopeDenied records a verification rejected for insufficient scope
func (m *Metrics) RecordScopeDenied(ctx context.Context) {
	m.ScopeDenied.Add(ctx, 1)
}

// RecordRedirectIssued records an authorization redirect obtained from the backend
func (m *Metrics) RecordRedirectIssued(ctx context.Context, responseType string) {
	m.RedirectsIssued.Add(ctx, 1, metric.WithAttributes(
		attribute.String("response_type", responseType),
	))
}
