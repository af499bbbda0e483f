// Package backend implements the client for a remote OAuth 2.0 authorization
// backend. It maps each grant type (client_credentials, password,
// authorization_code, implicit, refresh_token) plus revocation and
// verification onto the backend's HTTP endpoints, normalizes the responses,
// and remaps known backend error messages to OAuth error codes.
//
// The backend owns token issuance, storage, and the authorization rules; this
// package only shapes and interprets the wire exchange. Credentials are
// supplied per call and never persisted.
package backend
