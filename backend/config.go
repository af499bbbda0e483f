package backend

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/gatekit/oauth-backend/instrumentation"
)

// DefaultRequestTimeout is applied to backend calls when the caller's context
// carries no deadline and no custom timeout is configured.
const DefaultRequestTimeout = 30 * time.Second

// Config holds the client configuration. BaseURL and APIKey are required;
// everything else has sensible defaults.
type Config struct {
	// BaseURL is the base URI of the authorization backend
	// (e.g. "https://auth.example.com"). The scheme must be http or https;
	// any other scheme is rejected at construction time.
	BaseURL string

	// APIKey identifies this caller to the backend. Sent on every request.
	APIKey string

	// HTTPClient is an optional custom HTTP client. It must not follow
	// redirects: the authorization-code and implicit flows interpret the raw
	// 302 response. The default client is configured accordingly.
	HTTPClient *http.Client

	// RequestTimeout is the per-call timeout applied when the caller's
	// context has no deadline (default: 30s).
	RequestTimeout time.Duration

	// RateLimit caps outbound requests per second. Zero disables limiting.
	RateLimit rate.Limit

	// RateBurst is the burst size for the rate limiter (default: 1).
	RateBurst int

	// Logger is an optional structured logger. Defaults to slog.Default().
	Logger *slog.Logger

	// Instrumentation provides OpenTelemetry metrics and tracing.
	// When nil, no-op instrumentation is used.
	Instrumentation *instrumentation.Instrumentation
}

// Validate checks the required construction parameters.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL is required")
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme %q: must be http or https", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}

	if c.APIKey == "" {
		return fmt.Errorf("API key is required")
	}

	return nil
}
