// Package oauth provides the shared data model for the backend delegation
// client: normalized token responses, verification results, grant type tags,
// and the error model used across the library.
package oauth

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// Grant type tags as defined by OAuth 2.0 (RFC 6749)
const (
	GrantClientCredentials = "client_credentials"
	GrantPassword          = "password"
	GrantAuthorizationCode = "authorization_code"
	GrantImplicit          = "implicit"
	GrantRefreshToken      = "refresh_token"
)

// TokenResponse represents a normalized OAuth 2.0 token response from the
// authorization backend.
//
// Two normalizations are applied while decoding:
//   - expires_in is coerced to an integer even when the backend returns it
//     as a numeric JSON string
//   - attributes is accepted either as a JSON object or as an embedded JSON
//     string containing an object (some backends double-encode it)
//
// The client additionally overwrites TokenType with the grant tag that was
// used for the request, regardless of what the backend returned.
type TokenResponse struct {
	// AccessToken is the issued access token
	AccessToken string `json:"access_token"`

	// TokenType carries the grant tag used to obtain the token
	TokenType string `json:"token_type,omitempty"`

	// ExpiresIn is the token lifetime in seconds
	ExpiresIn int64 `json:"expires_in,omitempty"`

	// RefreshToken is the optional refresh token
	RefreshToken string `json:"refresh_token,omitempty"`

	// Attributes holds opaque custom metadata attached to the token
	Attributes map[string]string `json:"attributes,omitempty"`
}

// UnmarshalJSON decodes a backend token response, normalizing expires_in and
// re-parsing a string-encoded attributes field into a map.
func (t *TokenResponse) UnmarshalJSON(data []byte) error {
	var raw struct {
		AccessToken  string          `json:"access_token"`
		TokenType    string          `json:"token_type"`
		ExpiresIn    json.RawMessage `json:"expires_in"`
		RefreshToken string          `json:"refresh_token"`
		Attributes   json.RawMessage `json:"attributes"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	t.AccessToken = raw.AccessToken
	t.TokenType = raw.TokenType
	t.RefreshToken = raw.RefreshToken

	if isPresent(raw.ExpiresIn) {
		n, err := decodeFlexibleInt(raw.ExpiresIn)
		if err != nil {
			return fmt.Errorf("invalid expires_in: %w", err)
		}
		t.ExpiresIn = n
	}

	if isPresent(raw.Attributes) {
		attrs, err := DecodeAttributes(raw.Attributes)
		if err != nil {
			return fmt.Errorf("invalid attributes: %w", err)
		}
		t.Attributes = attrs
	}

	return nil
}

// OAuth2Token converts the response into a standard golang.org/x/oauth2 token.
// Expiry is computed from ExpiresIn relative to the current time.
func (t *TokenResponse) OAuth2Token() *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  t.AccessToken,
		TokenType:    t.TokenType,
		RefreshToken: t.RefreshToken,
	}
	if t.ExpiresIn > 0 {
		tok.Expiry = time.Now().Add(time.Duration(t.ExpiresIn) * time.Second)
	}
	return tok
}

// VerificationResult holds the verified claims returned by the backend for a
// valid token whose granted scopes cover all required scopes.
type VerificationResult struct {
	// Scopes are the scopes granted to the token
	Scopes []string

	// Claims are the remaining verified fields, first value per field
	Claims map[string]string

	// Attributes holds custom metadata attached to the token, if any
	Attributes map[string]string
}

// HasScope reports whether the given scope was granted to the token.
func (r *VerificationResult) HasScope(scope string) bool {
	for _, s := range r.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// SplitScopes splits a space-delimited scope string into individual scopes.
// Empty input yields a nil slice.
func SplitScopes(s string) []string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// JoinScopes joins scopes into the space-delimited wire format.
func JoinScopes(scopes []string) string {
	return strings.Join(scopes, " ")
}

// DecodeAttributes decodes a token attributes value that may be either a JSON
// object or a JSON string containing an encoded object.
func DecodeAttributes(raw json.RawMessage) (map[string]string, error) {
	data := []byte(strings.TrimSpace(string(raw)))
	if len(data) == 0 {
		return nil, nil
	}

	if data[0] == '"' {
		var encoded string
		if err := json.Unmarshal(data, &encoded); err != nil {
			return nil, err
		}
		data = []byte(encoded)
	}

	var attrs map[string]string
	if err := json.Unmarshal(data, &attrs); err != nil {
		return nil, err
	}
	return attrs, nil
}

// isPresent reports whether a raw JSON field was set to a non-null value.
func isPresent(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s != "" && s != "null"
}

// decodeFlexibleInt decodes a JSON value that may be a number or a numeric
// string into an int64.
func decodeFlexibleInt(raw json.RawMessage) (int64, error) {
	data := []byte(strings.TrimSpace(string(raw)))
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return 0, err
		}
		return strconv.ParseInt(s, 10, 64)
	}

	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return 0, err
	}
	return n, nil
}
