package shared

import (
	"strings"
	"testing"
)

func TestEnvOr(t *testing.T) {
	t.Setenv("SHARED_TEST_SET", "from-env")
	t.Setenv("SHARED_TEST_EMPTY", "")

	tests := []struct {
		name     string
		key      string
		fallback string
		want     string
	}{
		{name: "set variable wins", key: "SHARED_TEST_SET", fallback: "fallback", want: "from-env"},
		{name: "empty variable falls back", key: "SHARED_TEST_EMPTY", fallback: "fallback", want: "fallback"},
		{name: "unset variable falls back", key: "SHARED_TEST_UNSET", fallback: "fallback", want: "fallback"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EnvOr(tt.key, tt.fallback); got != tt.want {
				t.Errorf("EnvOr(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestMaskDSN(t *testing.T) {
	tests := []struct {
		name string
		dsn  string
		want string
	}{
		{
			name: "password redacted",
			dsn:  "postgres://alerts:s3cret@db:5432/notifications?sslmode=disable",
			want: "postgres://alerts:***@db:5432/notifications?sslmode=disable",
		},
		{
			name: "no credentials left intact",
			dsn:  "postgres://db:5432/notifications",
			want: "postgres://db:5432/notifications",
		},
		{
			name: "key-value form masked entirely",
			dsn:  "host=db port=5432 password=s3cret",
			want: "***",
		},
		{
			name: "empty masked entirely",
			dsn:  "",
			want: "***",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MaskDSN(tt.dsn)
			if got != tt.want {
				t.Errorf("MaskDSN(%q) = %q, want %q", tt.dsn, got, tt.want)
			}
			if strings.Contains(got, "s3cret") {
				t.Errorf("MaskDSN(%q) leaked the password: %q", tt.dsn, got)
			}
		})
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		want   string
	}{
		{name: "long secret keeps prefix", secret: "abcdef123", want: "ab***"},
		{name: "short secret fully masked", secret: "abcd", want: "***"},
		{name: "empty secret fully masked", secret: "", want: "***"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MaskSecret(tt.secret); got != tt.want {
				t.Errorf("MaskSecret(%q) = %q, want %q", tt.secret, got, tt.want)
			}
		})
	}
}
