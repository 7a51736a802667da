package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adobe/asset-compute-pipeline/internal/metadataprobe"
)

func TestGet(t *testing.T) {
	info := Get()
	require.NotEmpty(t, info.GoVersion, "GoVersion should be populated")
}

func TestInfoString(t *testing.T) {
	info := Info{
		Version:   "v1.0.0",
		GitCommit: "abc123",
		BuildDate: "2026-01-29",
		GoVersion: "go1.25",
	}

	str := info.String()

	assert.Contains(t, str, "v1.0.0")
	assert.Contains(t, str, "abc123")
	assert.Contains(t, str, "2026-01-29")
	assert.Contains(t, str, "go1.25")
}

func TestDetectTools_MissingBinaryProducesWarning(t *testing.T) {
	tools := ToolCompatibility{
		Exiftool:  metadataprobe.BinaryInfo{Name: "exiftool", Found: false},
		Mediainfo: metadataprobe.BinaryInfo{Name: "mediainfo", Found: false},
	}

	warnings := tools.Warnings()
	assert.Len(t, warnings, 2)
}

func TestDetectTools_FoundBinaryProducesNoWarning(t *testing.T) {
	tools := ToolCompatibility{
		Exiftool:  metadataprobe.BinaryInfo{Name: "exiftool", Found: true, Path: "/usr/bin/exiftool"},
		Mediainfo: metadataprobe.BinaryInfo{Name: "mediainfo", Found: true, Path: "/usr/bin/mediainfo"},
	}

	assert.Empty(t, tools.Warnings())
}
