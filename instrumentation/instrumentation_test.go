package instrumentation

import (
	"context"
	"testing"
)

func TestNew_Defaults(t *testing.T) {
	inst, err := New(Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if inst.config.ServiceName != "oauth-backend" {
		t.Errorf("ServiceName = %q, want %q", inst.config.ServiceName, "oauth-backend")
	}
	if inst.config.ServiceVersion != DefaultServiceVersion {
		t.Errorf("ServiceVersion = %q, want %q", inst.config.ServiceVersion, DefaultServiceVersion)
	}
	if inst.Metrics() == nil {
		t.Error("Metrics() = nil, want non-nil holder even when disabled")
	}
	if inst.MeterProvider() == nil {
		t.Error("MeterProvider() = nil")
	}
	if inst.TracerProvider() == nil {
		t.Error("TracerProvider() = nil")
	}
}

func TestNew_Enabled(t *testing.T) {
	inst, err := New(Config{
		ServiceName:    "test-service",
		ServiceVersion: "1.2.3",
		Enabled:        true,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if inst.Metrics() == nil {
		t.Fatal("Metrics() = nil")
	}
	if err := inst.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
	// Second shutdown must be a no-op
	if err := inst.Shutdown(context.Background()); err != nil {
		t.Errorf("second Shutdown() error = %v", err)
	}
}

func TestInstrumentation_NamedScopes(t *testing.T) {
	inst, err := New(Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if inst.Meter("backend") == nil {
		t.Error("Meter() = nil")
	}
	if inst.Tracer("backend") == nil {
		t.Error("Tracer() = nil")
	}
}

func TestMetrics_RecordHelpers(t *testing.T) {
	inst, err := New(Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// All recording helpers must work against no-op providers.
	ctx := context.Background()
	m := inst.Metrics()

	m.RecordBackendCall(ctx, "create_token.client_credentials", 200, 12.5)
	m.RecordBackendCall(ctx, "create_token.client_credentials", 0, 3.0)
	m.RecordBackendCall(ctx, "refresh_token", 400, 8.0)
	m.RecordBackendCall(ctx, "verify_token", 503, 20.0)
	m.RecordTokenIssued(ctx, "client_credentials")
	m.RecordTokenRefreshed(ctx)
	m.RecordTokenRevoked(ctx)
	m.RecordTokenVerified(ctx, true)
	m.RecordTokenVerified(ctx, false)
	m.RecordScopeDenied(ctx)
	m.RecordRedirectIssued(ctx, "code")
}

func TestSpanHelpers_NilSafe(t *testing.T) {
	RecordError(nil, context.Canceled)
	SetSpanStatus(nil, 500)
	SetSpanAttributes(nil)
}
