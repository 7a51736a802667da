// Package plandiff renders a dyff-style unified diff between two plan
// snapshots (spec.md §6's plan serialization format), grounded on the
// teacher's live-vs-desired Kubernetes resource diff.
package plandiff

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/gonvenience/ytbx"
	"github.com/homeport/dyff/pkg/dyff"
	"sigs.k8s.io/yaml"

	"github.com/adobe/asset-compute-pipeline/internal/plan"
)

// Options configures the rendered diff.
type Options struct {
	// UseColor enables dyff's colorized table-style output.
	UseColor bool
}

// Result is the outcome of comparing two plan snapshots.
type Result struct {
	// HasChanges reports whether before and after differ at all.
	HasChanges bool

	// Report is the rendered dyff diff; empty when HasChanges is false.
	Report string
}

// Diff compares two plan snapshots (e.g. the output of
// plan.Plan.ToObject before and after a refinement) and renders their
// differences.
func Diff(before, after []*plan.Node, opts Options) (*Result, error) {
	beforeYAML, err := yaml.Marshal(before)
	if err != nil {
		return nil, fmt.Errorf("serializing before snapshot: %w", err)
	}
	afterYAML, err := yaml.Marshal(after)
	if err != nil {
		return nil, fmt.Errorf("serializing after snapshot: %w", err)
	}

	report, err := diffYAML(beforeYAML, afterYAML, opts.UseColor)
	if err != nil {
		return nil, err
	}

	return &Result{HasChanges: report != "", Report: report}, nil
}

func diffYAML(before, after []byte, useColor bool) (string, error) {
	if len(bytes.TrimSpace(before)) == 0 && len(bytes.TrimSpace(after)) == 0 {
		return "", nil
	}

	beforeInput, err := parseYAMLInput("before", before)
	if err != nil {
		return "", fmt.Errorf("parsing before snapshot: %w", err)
	}
	afterInput, err := parseYAMLInput("after", after)
	if err != nil {
		return "", fmt.Errorf("parsing after snapshot: %w", err)
	}

	report, err := dyff.CompareInputFiles(beforeInput, afterInput)
	if err != nil {
		return "", fmt.Errorf("comparing plan snapshots: %w", err)
	}
	if len(report.Diffs) == 0 {
		return "", nil
	}

	return renderReport(report, useColor)
}

func parseYAMLInput(name string, data []byte) (ytbx.InputFile, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return ytbx.InputFile{Location: name}, nil
	}

	docs, err := ytbx.LoadYAMLDocuments(data)
	if err != nil {
		return ytbx.InputFile{}, err
	}
	return ytbx.InputFile{Location: name, Documents: docs}, nil
}

func renderReport(report dyff.Report, useColor bool) (string, error) {
	var buf bytes.Buffer

	reportWriter := &dyff.HumanReport{
		Report:            report,
		DoNotInspectCerts: true,
		NoTableStyle:      !useColor,
		OmitHeader:        true,
	}
	if err := reportWriter.WriteReport(io.Writer(&buf)); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}

	lines := strings.Split(buf.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}
