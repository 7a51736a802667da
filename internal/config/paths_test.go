package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultPaths(t *testing.T) {
	paths, err := DefaultPaths()
	assert.NoError(t, err)
	assert.Contains(t, paths.ConfigFile, ".asset-pipeline")
	assert.Contains(t, paths.ConfigFile, "config.yaml")
}

func TestExpandTilde(t *testing.T) {
	homeDir, err := os.UserHomeDir()
	assert.NoError(t, err)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string", "", ""},
		{"no tilde", "/absolute/path", "/absolute/path"},
		{"tilde only", "~", homeDir},
		{"tilde with slash", "~/.asset-pipeline/config.yaml", filepath.Join(homeDir, ".asset-pipeline", "config.yaml")},
		{"tilde username pattern", "~username/file", "~username/file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExpandTilde(tt.input))
		})
	}
}
