package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// VerboseOptions controls verbose output.
type VerboseOptions struct {
	// JSON outputs structured JSON instead of human-readable text.
	JSON bool
	// Writer is the output destination.
	Writer io.Writer
}

// StepInfo is one plan step's name and resolved attribute bags, the
// shape render.go builds from plan.Node.
type StepInfo struct {
	Name    string         `json:"name"`
	Current bool           `json:"current,omitempty"`
	Input   map[string]any `json:"input,omitempty"`
	Output  map[string]any `json:"output,omitempty"`
}

// RenditionTrace is the structured verbose output for a single
// render activation: the plan it found and how the run ended.
type RenditionTrace struct {
	RequestID string     `json:"requestId"`
	Steps     []StepInfo `json:"steps"`
	Errors    []string   `json:"errors,omitempty"`
}

// WriteRenditionTrace writes a rendition's plan trace, either as
// indented JSON or as a human-readable step list.
func WriteRenditionTrace(trace RenditionTrace, opts VerboseOptions) error {
	if opts.JSON {
		encoder := json.NewEncoder(opts.Writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(trace)
	}
	return writeRenditionTraceHuman(trace, opts.Writer)
}

func writeRenditionTraceHuman(trace RenditionTrace, w io.Writer) error {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Request: %s\n\n", trace.RequestID))

	if len(trace.Steps) == 0 {
		sb.WriteString("Plan: (no steps)\n")
	} else {
		sb.WriteString("Plan:\n")
		for _, step := range trace.Steps {
			marker := "  "
			if step.Current {
				marker = "▸ "
			}
			sb.WriteString(fmt.Sprintf("  %s%s\n", marker, step.Name))
			if len(step.Input) > 0 {
				sb.WriteString(fmt.Sprintf("      in:  %v\n", step.Input))
			}
			if len(step.Output) > 0 {
				sb.WriteString(fmt.Sprintf("      out: %v\n", step.Output))
			}
		}
	}

	if len(trace.Errors) > 0 {
		sb.WriteString("\nErrors:\n")
		for _, e := range trace.Errors {
			sb.WriteString(fmt.Sprintf("  ✗ %s\n", e))
		}
	}

	_, err := w.Write([]byte(sb.String()))
	return err
}

// ConfigTraceEntry is one resolved configuration field, the shape
// internal/config.ResolvedValue is rendered as for --verbose output.
type ConfigTraceEntry struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

// WriteConfigTrace writes the resolved configuration ledger, one
// field per line, aligned at a fixed column.
func WriteConfigTrace(entries []ConfigTraceEntry, w io.Writer) error {
	var sb strings.Builder
	sb.WriteString("Configuration:\n")
	for _, e := range entries {
		padding := 28 - len(e.Key)
		if padding < 2 {
			padding = 2
		}
		sb.WriteString(fmt.Sprintf("  %s%s%s  %s\n", e.Key, strings.Repeat(" ", padding), e.Value, styleDim.Render("("+e.Source+")")))
	}
	_, err := w.Write([]byte(sb.String()))
	return err
}
