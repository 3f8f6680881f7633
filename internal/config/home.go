package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// HomeEnv overrides the funnelcheck home directory
const HomeEnv = "FUNNELCHECK_HOME"

// GetHome returns the funnelcheck home directory
// Priority order:
//  1. FUNNELCHECK_HOME environment variable (if set)
//  2. <root>/.funnelcheck when root is non-empty
//  3. <cwd>/.funnelcheck (fallback)
//
// The directory is created if it doesn't exist
func GetHome(root string) (string, error) {
	if home := os.Getenv(HomeEnv); home != "" {
		if err := os.MkdirAll(home, 0755); err != nil {
			return "", fmt.Errorf("create funnelcheck home directory: %w", err)
		}
		return home, nil
	}

	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}
		root = cwd
	}

	home := filepath.Join(root, ".funnelcheck")
	if err := os.MkdirAll(home, 0755); err != nil {
		return "", fmt.Errorf("create funnelcheck home directory: %w", err)
	}
	return home, nil
}

// DefaultConfigPath returns the path of config.yaml inside the home directory
func DefaultConfigPath() (string, error) {
	home, err := GetHome("")
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "config.yaml"), nil
}
