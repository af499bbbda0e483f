package oauth

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"
)

func TestTokenResponse_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    TokenResponse
		wantErr bool
	}{
		{
			name: "numeric expires_in",
			body: `{"access_token":"tok-1","token_type":"Bearer","expires_in":3600}`,
			want: TokenResponse{AccessToken: "tok-1", TokenType: "Bearer", ExpiresIn: 3600},
		},
		{
			name: "string expires_in is coerced to an integer",
			body: `{"access_token":"tok-2","expires_in":"1800"}`,
			want: TokenResponse{AccessToken: "tok-2", ExpiresIn: 1800},
		},
		{
			name: "refresh token",
			body: `{"access_token":"tok-3","refresh_token":"ref-3"}`,
			want: TokenResponse{AccessToken: "tok-3", RefreshToken: "ref-3"},
		},
		{
			name: "attributes as object",
			body: `{"access_token":"tok-4","attributes":{"tier":"gold"}}`,
			want: TokenResponse{AccessToken: "tok-4", Attributes: map[string]string{"tier": "gold"}},
		},
		{
			name: "attributes as embedded JSON string",
			body: `{"access_token":"tok-5","attributes":"{\"tier\":\"gold\",\"region\":\"eu\"}"}`,
			want: TokenResponse{AccessToken: "tok-5", Attributes: map[string]string{"tier": "gold", "region": "eu"}},
		},
		{
			name: "null attributes are ignored",
			body: `{"access_token":"tok-6","attributes":null}`,
			want: TokenResponse{AccessToken: "tok-6"},
		},
		{
			name:    "non-numeric expires_in",
			body:    `{"access_token":"tok-7","expires_in":"soon"}`,
			wantErr: true,
		},
		{
			name:    "malformed attributes",
			body:    `{"access_token":"tok-8","attributes":"not json"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got TokenResponse
			err := json.Unmarshal([]byte(tt.body), &got)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Unmarshal() expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Unmarshal() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestTokenResponse_OAuth2Token(t *testing.T) {
	tok := &TokenResponse{
		AccessToken:  "tok-1",
		TokenType:    GrantClientCredentials,
		ExpiresIn:    3600,
		RefreshToken: "ref-1",
	}

	got := tok.OAuth2Token()
	if got.AccessToken != "tok-1" {
		t.Errorf("AccessToken = %q, want %q", got.AccessToken, "tok-1")
	}
	if got.RefreshToken != "ref-1" {
		t.Errorf("RefreshToken = %q, want %q", got.RefreshToken, "ref-1")
	}
	if got.Expiry.IsZero() {
		t.Error("Expiry should be set when ExpiresIn > 0")
	}
	if remaining := time.Until(got.Expiry); remaining > time.Hour || remaining < 59*time.Minute {
		t.Errorf("Expiry roughly an hour out, got %s", remaining)
	}

	noExpiry := (&TokenResponse{AccessToken: "tok-2"}).OAuth2Token()
	if !noExpiry.Expiry.IsZero() {
		t.Errorf("Expiry should be zero when ExpiresIn is unset, got %s", noExpiry.Expiry)
	}
}

func TestSplitScopes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "empty", input: "", want: nil},
		{name: "whitespace only", input: "   ", want: nil},
		{name: "single", input: "read", want: []string{"read"}},
		{name: "multiple", input: "read write admin", want: []string{"read", "write", "admin"}},
		{name: "extra whitespace", input: "  read   write ", want: []string{"read", "write"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SplitScopes(tt.input); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitScopes(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestJoinScopes(t *testing.T) {
	if got := JoinScopes([]string{"read", "write"}); got != "read write" {
		t.Errorf("JoinScopes() = %q, want %q", got, "read write")
	}
	if got := JoinScopes(nil); got != "" {
		t.Errorf("JoinScopes(nil) = %q, want empty", got)
	}
}

func TestVerificationResult_HasScope(t *testing.T) {
	result := &VerificationResult{Scopes: []string{"read", "write"}}

	if !result.HasScope("read") {
		t.Error("HasScope(read) = false, want true")
	}
	if result.HasScope("admin") {
		t.Error("HasScope(admin) = true, want false")
	}
}

func TestDecodeAttributes(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    map[string]string
		wantErr bool
	}{
		{name: "object", raw: `{"a":"1"}`, want: map[string]string{"a": "1"}},
		{name: "string-encoded object", raw: `"{\"a\":\"1\"}"`, want: map[string]string{"a": "1"}},
		{name: "empty", raw: ``, want: nil},
		{name: "garbage", raw: `12x`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeAttributes(json.RawMessage(tt.raw))
			if tt.wantErr {
				if err == nil {
					t.Fatal("DecodeAttributes() expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeAttributes() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DecodeAttributes() = %v, want %v", got, tt.want)
			}
		})
	}
}
