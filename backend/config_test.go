package backend

import (
	"strings"
	"testing"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
		errMsg  string
	}{
		{
			name:   "valid https config",
			config: &Config{BaseURL: "https://auth.example.com", APIKey: "key-1"},
		},
		{
			name:   "valid http config",
			config: &Config{BaseURL: "http://localhost:8080", APIKey: "key-1"},
		},
		{
			name:   "valid config with base path",
			config: &Config{BaseURL: "https://auth.example.com/oauth/v2", APIKey: "key-1"},
		},
		{
			name:    "missing base URL",
			config:  &Config{APIKey: "key-1"},
			wantErr: true,
			errMsg:  "base URL is required",
		},
		{
			name:    "unsupported scheme",
			config:  &Config{BaseURL: "ftp://auth.example.com", APIKey: "key-1"},
			wantErr: true,
			errMsg:  "unsupported URL scheme",
		},
		{
			name:    "missing host",
			config:  &Config{BaseURL: "https://", APIKey: "key-1"},
			wantErr: true,
			errMsg:  "must include a host",
		},
		{
			name:    "missing API key",
			config:  &Config{BaseURL: "https://auth.example.com"},
			wantErr: true,
			errMsg:  "API key is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("Validate() expected error")
				}
				if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("Validate() error = %q, want containing %q", err, tt.errMsg)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
		})
	}
}
