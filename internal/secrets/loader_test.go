package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadPrefersFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(path, []byte("  from-file \n"), 0o600); err != nil {
		t.Fatalf("write token file: %v", err)
	}
	t.Setenv("TEST_TOKEN", "from-env")

	got, err := Load(Source{Name: "token", File: path, Value: "inline", Env: "TEST_TOKEN"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "from-file" {
		t.Fatalf("expected file secret, got %q", got)
	}
}

func TestLoadFallsBackToEnv(t *testing.T) {
	t.Setenv("TEST_TOKEN", " from-env ")

	got, err := Load(Source{Name: "token", Env: "TEST_TOKEN"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "from-env" {
		t.Fatalf("expected env secret, got %q", got)
	}
}

func TestLoadErrors(t *testing.T) {
	empty := filepath.Join(t.TempDir(), "empty")
	if err := os.WriteFile(empty, nil, 0o600); err != nil {
		t.Fatalf("write empty file: %v", err)
	}
	t.Setenv("TEST_TOKEN_UNSET", "")

	tests := []struct {
		name    string
		src     Source
		message string
	}{
		{name: "missing file", src: Source{Name: "token", File: filepath.Join(t.TempDir(), "nope")}, message: "reading token from file"},
		{name: "empty file", src: Source{Name: "token", File: empty}, message: "is empty"},
		{name: "unset env", src: Source{Name: "token", Env: "TEST_TOKEN_UNSET"}, message: "set TEST_TOKEN_UNSET"},
		{name: "nothing", src: Source{}, message: "secret is not configured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.src)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.message) {
				t.Fatalf("expected %q in error, got %v", tt.message, err)
			}
		})
	}
}
