package instrumentation

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Common span attribute keys
//
// SECURITY WARNING: never record actual sensitive values (access tokens,
// refresh tokens, authorization codes, client secrets) on spans. Only record
// metadata such as operation names, grant types, and status codes.
const (
	// Backend call attributes
	AttrOperation  = "backend.operation"
	AttrStatusCode = "backend.status_code"

	// OAuth attributes - metadata only
	AttrGrantType    = "oauth.grant_type"
	AttrResponseType = "oauth.response_type"
	AttrErrorCode    = "oauth.error_code"
	AttrScope        = "oauth.scope"

	// HTTP attributes
	AttrHTTPMethod = "http.method"
)

// RecordError records an error on a span with proper status codes (nil-safe)
func RecordError(span trace.Span, err error) {
	if span != nil && err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanStatus marks a span according to the HTTP status of the backend
// response (nil-safe). Client spans follow the OTEL convention: only 4xx/5xx
// are errors.
func SetSpanStatus(span trace.Span, statusCode int) {
	if span == nil {
		return
	}
	span.SetAttributes(attribute.Int(AttrStatusCode, statusCode))
	if statusCode >= 400 {
		span.SetStatus(codes.Error, "")
		return
	}
	span.SetStatus(codes.Ok, "")
}

// SetSpanAttributes sets attributes on a span (nil-safe)
func SetSpanAttributes(span trace.Span, attrs ...attribute.KeyValue) {
	if span != nil {
		span.SetAttributes(attrs...)
	}
}
