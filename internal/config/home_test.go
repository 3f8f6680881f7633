package config

import (
	"os"
	"path/filepath"
	"testing"
)

// TestGetHomeWithEnvVar tests FUNNELCHECK_HOME takes precedence
func TestGetHomeWithEnvVar(t *testing.T) {
	customHome := filepath.Join(t.TempDir(), "custom")
	t.Setenv(HomeEnv, customHome)

	home, err := GetHome(t.TempDir())
	if err != nil {
		t.Fatalf("GetHome() error = %v", err)
	}
	if home != customHome {
		t.Errorf("GetHome() = %q, want %q", home, customHome)
	}
	if _, err := os.Stat(home); err != nil {
		t.Errorf("home directory not created: %v", err)
	}
}

// TestGetHomeWithRoot tests the root fallback and directory creation
func TestGetHomeWithRoot(t *testing.T) {
	t.Setenv(HomeEnv, "")
	root := t.TempDir()

	home, err := GetHome(root)
	if err != nil {
		t.Fatalf("GetHome() error = %v", err)
	}
	if want := filepath.Join(root, ".funnelcheck"); home != want {
		t.Errorf("GetHome() = %q, want %q", home, want)
	}
	if info, err := os.Stat(home); err != nil || !info.IsDir() {
		t.Errorf("expected directory at %q", home)
	}
}

func TestDefaultConfigPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv(HomeEnv, home)

	path, err := DefaultConfigPath()
	if err != nil {
		t.Fatalf("DefaultConfigPath() error = %v", err)
	}
	if want := filepath.Join(home, "config.yaml"); path != want {
		t.Errorf("DefaultConfigPath() = %q, want %q", path, want)
	}
}
