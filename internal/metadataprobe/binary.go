package metadataprobe

import (
	"os/exec"
	"strings"
)

// BinaryInfo describes one of the exiftool/mediainfo binaries this
// package shells out to: whether it was found on $PATH, where, and the
// version it reports.
type BinaryInfo struct {
	Name    string
	Path    string
	Version string
	Found   bool
}

// DetectBinary locates name on $PATH and parses its reported version.
// Absence is not an error: callers fall back to raster introspection
// for images, or skip metadata for media (spec.md §4.6).
func DetectBinary(name string) BinaryInfo {
	path, err := exec.LookPath(name)
	if err != nil {
		return BinaryInfo{Name: name, Found: false}
	}

	var versionArgs []string
	switch name {
	case "exiftool":
		versionArgs = []string{"-ver"}
	case "mediainfo":
		versionArgs = []string{"--Version"}
	default:
		versionArgs = []string{"--version"}
	}

	out, err := exec.Command(path, versionArgs...).Output()
	if err != nil {
		return BinaryInfo{Name: name, Path: path, Found: true}
	}

	return BinaryInfo{
		Name:    name,
		Path:    path,
		Found:   true,
		Version: parseBinaryVersion(name, string(out)),
	}
}

// parseBinaryVersion extracts a bare version token from the binary's
// version output, accommodating exiftool's bare "12.70" and
// mediainfo's "MediaInfoLib - v23.04" forms.
func parseBinaryVersion(name, output string) string {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		last := fields[len(fields)-1]
		return strings.TrimPrefix(last, "v")
	}
	return ""
}
