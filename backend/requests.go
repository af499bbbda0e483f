package backend

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	oauth "github.com/gatekit/oauth-backend"
)

// Backend endpoint path suffixes
const (
	pathClientTokens   = "/tokentypes/client/tokens"
	pathPasswordTokens = "/tokentypes/password/tokens"
	pathAuthCodeTokens = "/tokentypes/authcode/tokens"
	pathAuthCodes      = "/tokentypes/authcode/authcodes"
	pathImplicitTokens = "/tokentypes/implicit/tokens"
	pathRefresh        = "/tokentypes/all/refresh"
	pathInvalidate     = "/tokentypes/all/invalidate"
	pathVerify         = "/tokentypes/all/verify"
)

// Outbound header names
const (
	headerAPIKey        = "x-api-key"
	headerTokenLifetime = "x-token-lifetime"
)

// request is a fully-built request descriptor consumed by the dispatcher.
type request struct {
	operation string // stable label for metrics and spans
	grant     string // grant tag written into TokenType, empty for non-token calls
	method    string
	path      string
	query     url.Values
	form      url.Values
	header    http.Header
}

func newRequest(operation, grant, method, path string) *request {
	return &request{
		operation: operation,
		grant:     grant,
		method:    method,
		path:      path,
		header:    make(http.Header),
	}
}

// setBasicAuth attaches client authentication for confidential-client calls.
func (r *request) setBasicAuth(c Credentials) {
	r.header.Set("Authorization", "Basic "+c.basicAuth())
}

// setTokenLifetime attaches the requested token lifetime in milliseconds.
func (r *request) setTokenLifetime(d time.Duration) {
	if d > 0 {
		r.header.Set(headerTokenLifetime, strconv.FormatInt(d.Milliseconds(), 10))
	}
}

// Credentials identify a confidential client to the backend. They are used
// per call and never stored by the client.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

func (c Credentials) validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("client ID is required")
	}
	if c.ClientSecret == "" {
		return fmt.Errorf("client secret is required")
	}
	return nil
}

func (c Credentials) basicAuth() string {
	return base64.StdEncoding.EncodeToString([]byte(c.ClientID + ":" + c.ClientSecret))
}

// ClientCredentialsOptions configures a client_credentials token request.
type ClientCredentialsOptions struct {
	Credentials

	// Scopes are the requested scopes, space-joined on the wire. Optional.
	Scopes []string

	// TokenLifetime is the requested token lifetime. Optional.
	TokenLifetime time.Duration

	// Attributes is opaque custom metadata to attach to the token. Optional.
	Attributes map[string]string
}

// PasswordOptions configures a resource-owner password token request.
// Username and password are forwarded as-is; validating them is the caller's
// responsibility.
type PasswordOptions struct {
	Credentials

	Username string
	Password string

	Scopes        []string
	TokenLifetime time.Duration
	Attributes    map[string]string
}

// AuthorizationCodeOptions configures the exchange of an authorization code
// for a token.
type AuthorizationCodeOptions struct {
	Credentials

	// Code is the authorization code obtained from the redirect.
	Code string

	// RedirectURI must match the URI used when the code was generated. Optional.
	RedirectURI string

	TokenLifetime time.Duration
}

// AuthorizeOptions configures authorization-code generation (the GET leg of
// the authorization_code flow).
type AuthorizeOptions struct {
	ClientID    string
	RedirectURI string
	Scopes      []string
	State       string
}

// ImplicitOptions configures an implicit-grant authorization request.
type ImplicitOptions struct {
	ClientID    string
	RedirectURI string
	Scopes      []string
	State       string
	Attributes  map[string]string
}

// RefreshOptions configures a refresh_token request.
type RefreshOptions struct {
	Credentials

	RefreshToken string

	// Scopes optionally narrows the scopes of the refreshed token.
	Scopes []string
}

// InvalidateOptions configures a token revocation request.
type InvalidateOptions struct {
	Credentials

	Token string

	// TokenTypeHint is an optional hint ("access_token" or "refresh_token").
	TokenTypeHint string
}

// VerifyOptions configures a token verification request. RequiredScopes are
// reconciled locally against the scopes the backend reports as granted.
type VerifyOptions struct {
	Token          string
	RequiredScopes []string
}

func buildClientCredentialsRequest(opts *ClientCredentialsOptions) (*request, error) {
	if err := opts.Credentials.validate(); err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("grant_type", oauth.GrantClientCredentials)
	setOptionalScope(form, opts.Scopes)
	if err := setAttributes(form, opts.Attributes); err != nil {
		return nil, err
	}

	req := newRequest("create_token.client_credentials", oauth.GrantClientCredentials,
		http.MethodPost, pathClientTokens)
	req.form = form
	req.setBasicAuth(opts.Credentials)
	req.setTokenLifetime(opts.TokenLifetime)
	return req, nil
}

func buildPasswordRequest(opts *PasswordOptions) (*request, error) {
	if err := opts.Credentials.validate(); err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("grant_type", oauth.GrantPassword)
	form.Set("username", opts.Username)
	form.Set("password", opts.Password)
	setOptionalScope(form, opts.Scopes)
	if err := setAttributes(form, opts.Attributes); err != nil {
		return nil, err
	}

	req := newRequest("create_token.password", oauth.GrantPassword,
		http.MethodPost, pathPasswordTokens)
	req.form = form
	req.setBasicAuth(opts.Credentials)
	req.setTokenLifetime(opts.TokenLifetime)
	return req, nil
}

func buildAuthorizationCodeRequest(opts *AuthorizationCodeOptions) (*request, error) {
	if err := opts.Credentials.validate(); err != nil {
		return nil, err
	}
	if opts.Code == "" {
		return nil, fmt.Errorf("authorization code is required")
	}

	form := url.Values{}
	form.Set("grant_type", oauth.GrantAuthorizationCode)
	form.Set("code", opts.Code)
	if opts.RedirectURI != "" {
		form.Set("redirect_uri", opts.RedirectURI)
	}
	if opts.ClientID != "" {
		form.Set("client_id", opts.ClientID)
	}

	req := newRequest("create_token.authorization_code", oauth.GrantAuthorizationCode,
		http.MethodPost, pathAuthCodeTokens)
	req.form = form
	req.setBasicAuth(opts.Credentials)
	req.setTokenLifetime(opts.TokenLifetime)
	return req, nil
}

func buildAuthorizeRequest(opts *AuthorizeOptions) (*request, error) {
	if opts.ClientID == "" {
		return nil, fmt.Errorf("client ID is required")
	}

	query := url.Values{}
	query.Set("response_type", "code")
	query.Set("client_id", opts.ClientID)
	if opts.RedirectURI != "" {
		query.Set("redirect_uri", opts.RedirectURI)
	}
	setOptionalScope(query, opts.Scopes)
	if opts.State != "" {
		query.Set("state", opts.State)
	}

	req := newRequest("generate_authorization_code", "",
		http.MethodGet, pathAuthCodes)
	req.query = query
	return req, nil
}

func buildImplicitRequest(opts *ImplicitOptions) (*request, error) {
	if opts.ClientID == "" {
		return nil, fmt.Errorf("client ID is required")
	}

	query := url.Values{}
	query.Set("response_type", "token")
	query.Set("client_id", opts.ClientID)
	if err := setAttributes(query, opts.Attributes); err != nil {
		return nil, err
	}
	if opts.RedirectURI != "" {
		query.Set("redirect_uri", opts.RedirectURI)
	}
	setOptionalScope(query, opts.Scopes)
	if opts.State != "" {
		query.Set("state", opts.State)
	}

	req := newRequest("create_token.implicit", "",
		http.MethodGet, pathImplicitTokens)
	req.query = query
	return req, nil
}

func buildRefreshRequest(opts *RefreshOptions) (*request, error) {
	if err := opts.Credentials.validate(); err != nil {
		return nil, err
	}
	if opts.RefreshToken == "" {
		return nil, fmt.Errorf("refresh token is required")
	}

	form := url.Values{}
	form.Set("grant_type", oauth.GrantRefreshToken)
	form.Set("refresh_token", opts.RefreshToken)
	setOptionalScope(form, opts.Scopes)

	req := newRequest("refresh_token", oauth.GrantRefreshToken,
		http.MethodPost, pathRefresh)
	req.form = form
	req.setBasicAuth(opts.Credentials)
	return req, nil
}

func buildInvalidateRequest(opts *InvalidateOptions) (*request, error) {
	if err := opts.Credentials.validate(); err != nil {
		return nil, err
	}
	if opts.Token == "" {
		return nil, fmt.Errorf("token is required")
	}

	form := url.Values{}
	form.Set("token", opts.Token)
	if opts.TokenTypeHint != "" {
		form.Set("tokenTypeHint", opts.TokenTypeHint)
	}

	req := newRequest("invalidate_token", "",
		http.MethodPost, pathInvalidate)
	req.form = form
	req.setBasicAuth(opts.Credentials)
	return req, nil
}

func buildVerifyRequest(opts *VerifyOptions) (*request, error) {
	if opts.Token == "" {
		return nil, fmt.Errorf("token is required")
	}

	req := newRequest("verify_token", "",
		http.MethodGet, pathVerify)
	req.header.Set("Authorization", "Bearer "+opts.Token)
	return req, nil
}

// setOptionalScope writes the space-joined scope parameter, omitting it
// entirely when no scopes were requested.
func setOptionalScope(v url.Values, scopes []string) {
	if len(scopes) > 0 {
		v.Set("scope", oauth.JoinScopes(scopes))
	}
}

// setAttributes writes the JSON-serialized attributes parameter, omitting it
// entirely when no attributes were supplied.
func setAttributes(v url.Values, attrs map[string]string) error {
	if len(attrs) == 0 {
		return nil
	}
	data, err := json.Marshal(attrs)
	if err != nil {
		return fmt.Errorf("failed to encode attributes: %w", err)
	}
	v.Set("attributes", string(data))
	return nil
}
