// Package version provides version information for the CLI and
// detects the exiftool/mediainfo tool compatibility the way the
// teacher detected the cue binary (spec.md §A.6).
package version

import (
	"fmt"
	"runtime"

	"github.com/adobe/asset-compute-pipeline/internal/metadataprobe"
)

// These variables are set via ldflags at build time.
var (
	// Version is the CLI version.
	Version = "dev"

	// GitCommit is the git commit hash.
	GitCommit = "unknown"

	// BuildDate is the build timestamp.
	BuildDate = "unknown"
)

// Info contains version information.
type Info struct {
	// Version is the CLI version (set via ldflags).
	Version string

	// GitCommit is the git commit hash.
	GitCommit string

	// BuildDate is the build timestamp.
	BuildDate string

	// GoVersion is the Go version used to build.
	GoVersion string
}

// Get returns the current version information.
func Get() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
	}
}

// String returns a formatted version string.
func (i Info) String() string {
	return fmt.Sprintf("asset-pipeline %s (%s) built %s with %s", i.Version, i.GitCommit, i.BuildDate, i.GoVersion)
}

// ToolCompatibility reports whether exiftool and mediainfo were found
// on $PATH. Their absence is never fatal (spec.md §4.6 falls back to
// raster introspection, or skips media metadata), but `version`
// surfaces it as a warning the way the teacher warned on a CUE
// binary/SDK mismatch.
type ToolCompatibility struct {
	Exiftool  metadataprobe.BinaryInfo
	Mediainfo metadataprobe.BinaryInfo
}

// DetectTools probes for exiftool and mediainfo on $PATH.
func DetectTools() ToolCompatibility {
	return ToolCompatibility{
		Exiftool:  metadataprobe.DetectBinary("exiftool"),
		Mediainfo: metadataprobe.DetectBinary("mediainfo"),
	}
}

// Warnings returns one human-readable line per tool that is missing,
// for `version` to print instead of failing the command.
func (t ToolCompatibility) Warnings() []string {
	var warnings []string
	if !t.Exiftool.Found {
		warnings = append(warnings, "exiftool not found on $PATH: image metadata probing falls back to raster header introspection")
	}
	if !t.Mediainfo.Found {
		warnings = append(warnings, "mediainfo not found on $PATH: video/audio metadata will be unavailable")
	}
	return warnings
}
