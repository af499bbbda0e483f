package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	oauth "github.com/gatekit/oauth-backend"
	"github.com/gatekit/oauth-backend/instrumentation"
)

// Client issues, verifies, refreshes, and revokes tokens by delegating to a
// remote authorization backend. Each call performs exactly one outbound HTTP
// request; there is no internal retry, caching, or shared mutable state, so a
// Client is safe for concurrent use.
type Client struct {
	baseURL        *url.URL
	apiKey         string
	httpClient     *http.Client
	requestTimeout time.Duration
	limiter        *rate.Limiter
	logger         *slog.Logger
	metrics        *instrumentation.Metrics
	tracer         trace.Tracer
}

// New creates a backend client. Missing required configuration (base URL,
// API key) is a fatal construction-time error.
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	baseURL, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	requestTimeout := cfg.RequestTimeout
	if requestTimeout == 0 {
		requestTimeout = DefaultRequestTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: requestTimeout,
			// The redirect interpreter reads the raw 302; never follow it.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(cfg.RateLimit, burst)
	}

	inst := cfg.Instrumentation
	if inst == nil {
		inst, err = instrumentation.New(instrumentation.Config{})
		if err != nil {
			return nil, fmt.Errorf("failed to create instrumentation: %w", err)
		}
	}

	return &Client{
		baseURL:        baseURL,
		apiKey:         cfg.APIKey,
		httpClient:     httpClient,
		requestTimeout: requestTimeout,
		limiter:        limiter,
		logger:         logger,
		metrics:        inst.Metrics(),
		tracer:         inst.Tracer("backend"),
	}, nil
}

// ClientCredentialsToken obtains a token via the client_credentials grant.
func (c *Client) ClientCredentialsToken(ctx context.Context, opts *ClientCredentialsOptions) (*oauth.TokenResponse, error) {
	req, err := buildClientCredentialsRequest(opts)
	if err != nil {
		return nil, err
	}

	tok, err := c.token(ctx, req)
	if err != nil {
		return nil, err
	}
	c.metrics.RecordTokenIssued(ctx, oauth.GrantClientCredentials)
	return tok, nil
}

// PasswordToken obtains a token via the resource-owner password grant.
func (c *Client) PasswordToken(ctx context.Context, opts *PasswordOptions) (*oauth.TokenResponse, error) {
	req, err := buildPasswordRequest(opts)
	if err != nil {
		return nil, err
	}

	tok, err := c.token(ctx, req)
	if err != nil {
		return nil, err
	}
	c.metrics.RecordTokenIssued(ctx, oauth.GrantPassword)
	return tok, nil
}

// ExchangeAuthorizationCode exchanges an authorization code for a token.
// Known backend rejections (invalid or replayed code, missing or mismatched
// redirect_uri) surface with the invalid_grant code.
func (c *Client) ExchangeAuthorizationCode(ctx context.Context, opts *AuthorizationCodeOptions) (*oauth.TokenResponse, error) {
	req, err := buildAuthorizationCodeRequest(opts)
	if err != nil {
		return nil, err
	}

	tok, err := c.token(ctx, req)
	if err != nil {
		return nil, remapAuthCodeExchangeError(err)
	}
	c.metrics.RecordTokenIssued(ctx, oauth.GrantAuthorizationCode)
	return tok, nil
}

// GenerateAuthorizationCode initiates the authorization_code flow and returns
// the redirect URI carrying the generated code. The redirect is not followed.
func (c *Client) GenerateAuthorizationCode(ctx context.Context, opts *AuthorizeOptions) (string, error) {
	req, err := buildAuthorizeRequest(opts)
	if err != nil {
		return "", err
	}

	location, err := c.redirect(ctx, req)
	if err != nil {
		return "", err
	}
	c.metrics.RecordRedirectIssued(ctx, "code")
	return location, nil
}

// ImplicitGrantURL initiates the implicit grant and returns the redirect URI
// carrying the token fragment. The redirect is not followed.
func (c *Client) ImplicitGrantURL(ctx context.Context, opts *ImplicitOptions) (string, error) {
	req, err := buildImplicitRequest(opts)
	if err != nil {
		return "", err
	}

	location, err := c.redirect(ctx, req)
	if err != nil {
		return "", err
	}
	c.metrics.RecordRedirectIssued(ctx, "token")
	return location, nil
}

// RefreshToken exchanges a refresh token for a fresh access token. The known
// backend scope rejection surfaces with the invalid_scope code.
func (c *Client) RefreshToken(ctx context.Context, opts *RefreshOptions) (*oauth.TokenResponse, error) {
	req, err := buildRefreshRequest(opts)
	if err != nil {
		return nil, err
	}

	tok, err := c.token(ctx, req)
	if err != nil {
		return nil, remapRefreshError(err)
	}
	c.metrics.RecordTokenRefreshed(ctx)
	return tok, nil
}

// InvalidateToken revokes a token at the backend.
func (c *Client) InvalidateToken(ctx context.Context, opts *InvalidateOptions) error {
	req, err := buildInvalidateRequest(opts)
	if err != nil {
		return err
	}

	if _, err := c.token(ctx, req); err != nil {
		return err
	}
	c.metrics.RecordTokenRevoked(ctx)
	return nil
}

// VerifyToken asks the backend to verify a token and reconciles the granted
// scopes against opts.RequiredScopes. Insufficient grants fail with the
// invalid_scope code.
func (c *Client) VerifyToken(ctx context.Context, opts *VerifyOptions) (*oauth.VerificationResult, error) {
	req, err := buildVerifyRequest(opts)
	if err != nil {
		return nil, err
	}

	resp, body, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}

	result, err := decodeVerifyResponse(resp.StatusCode, body, opts.RequiredScopes)
	if err != nil {
		var berr *oauth.Error
		if errors.As(err, &berr) && berr.Code == oauth.ErrorCodeInvalidScope {
			c.metrics.RecordScopeDenied(ctx)
		}
		c.metrics.RecordTokenVerified(ctx, false)
		return nil, err
	}

	publishVariables(ctx, resp.Header)
	c.metrics.RecordTokenVerified(ctx, true)
	return result, nil
}

// token dispatches a token-shaped request and interprets the response.
func (c *Client) token(ctx context.Context, r *request) (*oauth.TokenResponse, error) {
	resp, body, err := c.do(ctx, r)
	if err != nil {
		return nil, err
	}

	tok, err := decodeTokenResponse(r.grant, resp.StatusCode, body)
	if err != nil {
		return nil, err
	}

	publishVariables(ctx, resp.Header)
	return tok, nil
}

// redirect dispatches a redirect-shaped request and returns the Location.
func (c *Client) redirect(ctx context.Context, r *request) (string, error) {
	resp, body, err := c.do(ctx, r)
	if err != nil {
		return "", err
	}
	return decodeRedirectResponse(resp.StatusCode, resp.Header, body)
}

// do performs the single HTTP round trip for a built request: rate-limit
// wait, scheme check, dispatch, body drain, metrics and span recording.
// Transport-level failures are returned wrapped and carry no OAuth code.
func (c *Client) do(ctx context.Context, r *request) (*http.Response, []byte, error) {
	ctx, cancel := c.ensureContextTimeout(ctx)
	defer cancel()

	ctx, span := c.tracer.Start(ctx, "backend."+r.operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(instrumentation.AttrOperation, r.operation),
			attribute.String(instrumentation.AttrHTTPMethod, r.method),
		),
	)
	defer span.End()

	target := c.baseURL.JoinPath(r.path)
	if r.query != nil {
		target.RawQuery = r.query.Encode()
	}

	// The scheme is validated at construction; exactly http and https are
	// dispatchable. Anything else must fail before any network I/O.
	if target.Scheme != "http" && target.Scheme != "https" {
		err := fmt.Errorf("unsupported URL scheme %q: must be http or https", target.Scheme)
		instrumentation.RecordError(span, err)
		return nil, nil, err
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			instrumentation.RecordError(span, err)
			return nil, nil, fmt.Errorf("rate limit wait aborted: %w", err)
		}
	}

	var reqBody io.Reader
	if r.form != nil {
		reqBody = strings.NewReader(r.form.Encode())
	}

	httpReq, err := http.NewRequestWithContext(ctx, r.method, target.String(), reqBody)
	if err != nil {
		instrumentation.RecordError(span, err)
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}

	for name, values := range r.header {
		for _, v := range values {
			httpReq.Header.Add(name, v)
		}
	}
	httpReq.Header.Set(headerAPIKey, c.apiKey)
	if r.form != nil {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	c.logger.Debug("dispatching backend request",
		"operation", r.operation,
		"method", r.method,
		"path", r.path,
	)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	durationMs := float64(time.Since(start).Milliseconds())
	if err != nil {
		c.metrics.RecordBackendCall(ctx, r.operation, 0, durationMs)
		instrumentation.RecordError(span, err)
		return nil, nil, fmt.Errorf("backend request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := drainBody(resp.Body)
	if err != nil {
		c.metrics.RecordBackendCall(ctx, r.operation, resp.StatusCode, durationMs)
		instrumentation.RecordError(span, err)
		return nil, nil, err
	}

	c.metrics.RecordBackendCall(ctx, r.operation, resp.StatusCode, durationMs)
	instrumentation.SetSpanStatus(span, resp.StatusCode)
	return resp, body, nil
}

// ensureContextTimeout applies the configured request timeout when the
// caller's context has no deadline of its own.
func (c *Client) ensureContextTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.requestTimeout)
}
