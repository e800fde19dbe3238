// Package config provides configuration utilities for the application.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// Default locations, expanded with ExpandPath before use.
const (
	DefaultConfigDir     = "~/.config/raseed"
	DefaultDatabasePath  = "$HOME/.local/share/raseed/raseed.db"
	DefaultNutritionPath = "$HOME/.local/share/raseed/nutrition_cache.csv"
)

// ExpandPath expands ~ and environment variables in a file path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}

	return os.ExpandEnv(path)
}

// PathOrDefault returns the expanded path, or the expanded fallback when path is blank.
func PathOrDefault(path, fallback string) string {
	if strings.TrimSpace(path) == "" {
		path = fallback
	}
	return ExpandPath(path)
}
