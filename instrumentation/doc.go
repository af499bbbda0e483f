// Package instrumentation provides OpenTelemetry (OTEL) instrumentation for
// the oauth-backend client library.
//
// It exposes metrics and traces for every backend call:
//   - Metrics: counters and histograms for token issuance, refresh,
//     revocation, verification, scope denials, and raw backend calls
//   - Traces: one client span per outbound backend request
//
// # Quick Start
//
//	inst, err := instrumentation.New(instrumentation.Config{
//		ServiceName:    "my-gateway",
//		ServiceVersion: "1.0.0",
//		Enabled:        true,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer inst.Shutdown(context.Background())
//
//	client, err := backend.New(&backend.Config{
//		BaseURL:         "https://auth.example.com",
//		APIKey:          apiKey,
//		Instrumentation: inst,
//	})
//
// # Available Metrics
//
// Backend calls:
//   - oauth.backend.calls.total{operation, status} - outbound backend requests
//   - oauth.backend.call.duration{operation} - call duration in milliseconds
//   - oauth.backend.call.errors.total{operation, error_type} - failed calls
//
// Token lifecycle:
//   - oauth.token.issued{grant_type} - tokens issued
//   - oauth.token.refreshed - tokens refreshed
//   - oauth.token.revoked - tokens revoked
//   - oauth.token.verified{valid} - verification outcomes
//   - oauth.scope.denied - verifications rejected for insufficient scope
//   - oauth.redirect.issued{response_type} - authorization redirects obtained
//
// # Performance
//
// When instrumentation is not configured or disabled, no-op providers are
// used and recording has effectively zero overhead.
//
// # Security Considerations
//
// Only metadata is recorded: operation names, grant types, status codes, and
// durations. Token values, credentials, and authorization codes must never
// appear in metric attributes or span attributes.
package instrumentation
