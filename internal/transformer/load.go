package transformer

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adobe/asset-compute-pipeline/internal/manifest"
)

// LoadDir scans dir for transformer subdirectories: each one names a
// transformer by its directory name and must contain either
// manifest.json or manifest.cue plus an executable named "transform".
// Mirrors the teacher's module-directory scanning convention
// (internal/loader/module.go's cueFilesInDir), generalized from "find
// .cue files in a module directory" to "find transformer directories".
func LoadDir(dir string) ([]*ShellTransformer, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading transformer directory %s: %w", dir, err)
	}

	var loaded []*ShellTransformer
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := e.Name()
		subdir := filepath.Join(dir, name)

		man, err := loadManifestFile(subdir)
		if err != nil {
			return nil, fmt.Errorf("transformer %q: %w", name, err)
		}

		command := filepath.Join(subdir, "transform")
		if _, statErr := os.Stat(command); statErr != nil {
			return nil, fmt.Errorf("transformer %q: no \"transform\" executable in %s", name, subdir)
		}

		loaded = append(loaded, NewShellTransformer(name, man, command))
	}
	return loaded, nil
}

func loadManifestFile(subdir string) (manifest.Manifest, error) {
	jsonPath := filepath.Join(subdir, "manifest.json")
	if data, err := os.ReadFile(jsonPath); err == nil {
		return manifest.DecodeJSON(data)
	}

	cuePath := filepath.Join(subdir, "manifest.cue")
	data, err := os.ReadFile(cuePath)
	if err != nil {
		return manifest.Manifest{}, fmt.Errorf("no manifest.json or manifest.cue found: %w", err)
	}

	validator, err := manifest.NewCUEValidator()
	if err != nil {
		return manifest.Manifest{}, err
	}
	return validator.DecodeCUE(data)
}
