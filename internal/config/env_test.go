package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEnvMissingFile(t *testing.T) {
	if err := LoadEnv(filepath.Join(t.TempDir(), "does-not-exist.env")); err != nil {
		t.Fatalf("expected nil for missing file, got %v", err)
	}
}

func TestLoadEnvSetsValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "# comment\nGATE_TEST_KEY=abc\nGATE_TEST_QUOTED=\"with spaces\"\nexport GATE_TEST_EXPORTED=yes\nbroken-line\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GATE_TEST_KEY", "")
	_ = os.Unsetenv("GATE_TEST_KEY")
	t.Setenv("GATE_TEST_QUOTED", "")
	_ = os.Unsetenv("GATE_TEST_QUOTED")
	t.Setenv("GATE_TEST_EXPORTED", "")
	_ = os.Unsetenv("GATE_TEST_EXPORTED")
	if err := LoadEnv(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := os.Getenv("GATE_TEST_KEY"); got != "abc" {
		t.Fatalf("expected abc, got %q", got)
	}
	if got := os.Getenv("GATE_TEST_QUOTED"); got != "with spaces" {
		t.Fatalf("expected unquoted value, got %q", got)
	}
	if got := os.Getenv("GATE_TEST_EXPORTED"); got != "yes" {
		t.Fatalf("expected export prefix stripped, got %q", got)
	}
}

func TestLoadEnvDoesNotOverrideExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("GATE_TEST_EXISTING=file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GATE_TEST_EXISTING", "env")
	if err := LoadEnv(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := os.Getenv("GATE_TEST_EXISTING"); got != "env" {
		t.Fatalf("expected existing env to win, got %q", got)
	}
}
