// Package output provides terminal output utilities for the rendition CLI.
package output

import "strings"

// Format specifies a CLI command's output format.
type Format string

const (
	// FormatYAML outputs in YAML format.
	FormatYAML Format = "yaml"

	// FormatJSON outputs in JSON format.
	FormatJSON Format = "json"

	// FormatTable outputs in table format.
	FormatTable Format = "table"

	// FormatDir outputs to a directory structure.
	FormatDir Format = "dir"
)

// String returns the string representation of the format.
func (f Format) String() string {
	return string(f)
}

// Valid reports whether f is one of the known formats.
func (f Format) Valid() bool {
	switch f {
	case FormatYAML, FormatJSON, FormatTable, FormatDir:
		return true
	default:
		return false
	}
}

// ParseFormat parses a string into a Format, reporting whether it was recognized.
func ParseFormat(s string) (Format, bool) {
	switch strings.ToLower(s) {
	case "yaml", "yml":
		return FormatYAML, true
	case "json":
		return FormatJSON, true
	case "table":
		return FormatTable, true
	case "dir", "directory":
		return FormatDir, true
	default:
		return Format(s), false
	}
}

// ValidFormats returns the accepted format strings.
func ValidFormats() []string {
	return []string{"yaml", "json", "table", "dir"}
}
