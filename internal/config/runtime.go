package config

import (
	"os"
	"path/filepath"
)

const defaultRuntimeDir = ".coeus"

// GetRuntimePath resolves COEUS_RUNTIME_PATH. Relative paths are taken from the home directory.
func GetRuntimePath() string {
	path := os.Getenv("COEUS_RUNTIME_PATH")
	if path == "" {
		path = defaultRuntimeDir
	}

	if !filepath.IsAbs(path) {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path)
	}
	return path
}
