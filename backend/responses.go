package backend

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	oauth "github.com/gatekit/oauth-backend"
)

// Backend error messages that remap to OAuth error codes. The backend reports
// these failures as literal messages; matching is limited to this fixed set
// and everything else passes through uncoded.
const (
	msgInvalidAuthCode          = "Invalid Authorization Code"
	msgMissingRedirectURI       = "Required param : redirect_uri"
	msgInvalidRedirectURIPrefix = "Invalid redirect_uri : "
	msgInvalidScope             = "Invalid Scope"
)

// drainBody reads a response body to end-of-stream.
func drainBody(r io.Reader) ([]byte, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

// backendErrorBody matches the backend's JSON error envelope.
type backendErrorBody struct {
	ErrorCode string `json:"ErrorCode"`
	Error     string `json:"Error"`
}

// decodeTokenResponse interprets a response from a token-shaped endpoint.
//
// A 2xx body that does not parse as JSON is treated as a success with no
// token: the invalidate endpoint legitimately returns an empty body.
func decodeTokenResponse(grant string, status int, body []byte) (*oauth.TokenResponse, error) {
	if status >= 300 {
		return nil, decodeTokenError(status, body)
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, nil
	}

	var tok oauth.TokenResponse
	if err := json.Unmarshal(trimmed, &tok); err != nil {
		return nil, nil
	}

	tok.TokenType = grant
	return &tok, nil
}

// decodeTokenError interprets a non-success status from a token-shaped
// endpoint. 400 and 401 bodies carry the backend's JSON error envelope; any
// other failure surfaces as status plus raw body.
func decodeTokenError(status int, body []byte) *oauth.Error {
	if status == http.StatusBadRequest || status == http.StatusUnauthorized {
		var envelope backendErrorBody
		if err := json.Unmarshal(body, &envelope); err == nil &&
			(envelope.ErrorCode != "" || envelope.Error != "") {
			return &oauth.Error{
				Code:        envelope.ErrorCode,
				Description: envelope.Error,
				Status:      status,
			}
		}
	}

	return &oauth.Error{
		Description: string(body),
		Status:      status,
	}
}

// decodeRedirectResponse interprets a response from a code or implicit
// authorization endpoint. The backend answers with a 302 whose Location is
// where the user agent should be sent; the redirect is not followed here.
func decodeRedirectResponse(status int, header http.Header, body []byte) (string, error) {
	if status != http.StatusFound {
		return "", &oauth.Error{
			Description: string(body),
			Status:      status,
		}
	}
	return header.Get("Location"), nil
}

// decodeVerifyResponse interprets a response from the verify endpoint: a 200
// with a form-encoded body of verified claims. Required scopes are reconciled
// against the granted scopes; any missing requirement is a terminal
// invalid_scope error.
func decodeVerifyResponse(status int, body []byte, requiredScopes []string) (*oauth.VerificationResult, error) {
	if status != http.StatusOK {
		return nil, &oauth.Error{
			Description: string(body),
			Status:      status,
		}
	}

	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, &oauth.Error{
			Description: fmt.Sprintf("malformed verify response: %v", err),
			Status:      status,
		}
	}

	granted := oauth.SplitScopes(values.Get("scope"))
	if missing := missingScopes(requiredScopes, granted); len(missing) > 0 {
		return nil, oauth.ErrInvalidScope(
			fmt.Sprintf("token is missing required scopes: %s", oauth.JoinScopes(missing)))
	}

	result := &oauth.VerificationResult{
		Scopes: granted,
		Claims: make(map[string]string, len(values)),
	}
	for name, vals := range values {
		if name == "attributes" || len(vals) == 0 {
			continue
		}
		result.Claims[name] = vals[0]
	}

	if raw := values.Get("attributes"); raw != "" {
		// Validity is already established; undecodable attributes are dropped
		// rather than failing the verification.
		if attrs, err := oauth.DecodeAttributes(json.RawMessage(raw)); err == nil {
			result.Attributes = attrs
		}
	}

	return result, nil
}

// missingScopes returns the required scopes not present in the granted set.
func missingScopes(required, granted []string) []string {
	set := make(map[string]struct{}, len(granted))
	for _, s := range granted {
		set[s] = struct{}{}
	}

	var missing []string
	for _, s := range required {
		if _, ok := set[s]; !ok {
			missing = append(missing, s)
		}
	}
	return missing
}

// remapAuthCodeExchangeError assigns the invalid_grant code when the backend
// rejected an authorization-code exchange with one of its known messages.
func remapAuthCodeExchangeError(err error) error {
	var berr *oauth.Error
	if !errors.As(err, &berr) {
		return err
	}
	if berr.Description == msgInvalidAuthCode ||
		berr.Description == msgMissingRedirectURI ||
		strings.HasPrefix(berr.Description, msgInvalidRedirectURIPrefix) {
		berr.Code = oauth.ErrorCodeInvalidGrant
	}
	return berr
}

// remapRefreshError assigns the invalid_scope code when the backend rejected
// a refresh with its known scope message.
func remapRefreshError(err error) error {
	var berr *oauth.Error
	if !errors.As(err, &berr) {
		return err
	}
	if berr.Description == msgInvalidScope {
		berr.Code = oauth.ErrorCodeInvalidScope
	}
	return berr
}
