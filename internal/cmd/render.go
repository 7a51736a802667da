package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/adobe/asset-compute-pipeline/internal/engine"
	"github.com/adobe/asset-compute-pipeline/internal/eventsink"
	"github.com/adobe/asset-compute-pipeline/internal/manifest"
	"github.com/adobe/asset-compute-pipeline/internal/metadataprobe"
	"github.com/adobe/asset-compute-pipeline/internal/metricsink"
	"github.com/adobe/asset-compute-pipeline/internal/output"
	"github.com/adobe/asset-compute-pipeline/internal/plan"
	"github.com/adobe/asset-compute-pipeline/internal/storage"
	"github.com/adobe/asset-compute-pipeline/internal/transfer"
	"github.com/adobe/asset-compute-pipeline/internal/transformer"
)

var (
	renderTransformersFlag string
	renderRequestIDFlag    string
	renderJSONFlag         bool
)

// renderRequestWire is the on-disk request shape: "inputs"/"outputs"
// decode via manifest.DecodeJSON's attribute-expression wire format
// (spec.md §6) since a concrete source/output descriptor is just a
// manifest whose entries happen to all be KindValue.
type renderRequestWire struct {
	Target *struct {
		URL string `json:"url"`
	} `json:"target"`
	MultiPart *struct {
		URLs []string `json:"urls"`
	} `json:"multiPart"`
	Auth     map[string]string `json:"auth"`
	UserData map[string]any    `json:"userData"`
}

// NewRenderCmd creates the render command.
func NewRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <request-file>",
		Short: "Run a single rendition activation",
		Long: `Render reads a JSON request file (source/output attributes, an
optional upload target, auth, and user data), finds a transformer
chain from the source to the requested output, and runs it.`,
		Args: cobra.ExactArgs(1),
		RunE: runRender,
	}

	cmd.Flags().StringVar(&renderTransformersFlag, "transformers", "./transformers", "Directory of transformer subdirectories to load")
	cmd.Flags().StringVar(&renderRequestIDFlag, "request-id", "", "Request ID (default: derived from the request file name)")
	cmd.Flags().BoolVar(&renderJSONFlag, "json", false, "Print the plan trace as JSON")

	return cmd
}

func runRender(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := GetEngineConfig()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return NewExitError(fmt.Errorf("reading request file: %w", err), ExitGeneralError)
	}

	man, err := manifest.DecodeJSON(data)
	if err != nil {
		return NewExitError(fmt.Errorf("decoding request source/output: %w", err), ExitGeneralError)
	}

	var wire renderRequestWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return NewExitError(fmt.Errorf("decoding request: %w", err), ExitGeneralError)
	}

	requestID := renderRequestIDFlag
	if requestID == "" {
		requestID = baseNameWithoutExt(args[0])
	}

	transformers, err := transformer.LoadDir(renderTransformersFlag)
	if err != nil {
		return NewExitError(fmt.Errorf("loading transformers: %w", err), ExitGeneralError)
	}

	registry := transformer.NewRegistry()
	for _, t := range transformers {
		registry.Register(t)
	}

	transferAdapter := transfer.NewHTTPSAdapter(0)
	if !cfg.RetryEnabled {
		transferAdapter.MaxRetries = 0
	}

	eng := engine.NewEngine(
		engine.EngineConfig{
			BaseDirectory:         cfg.BaseDirectory,
			MaxSteps:              cfg.MaxPlanSteps,
			MaxExpansions:         cfg.MaxExpansions,
			ProbeSourceMetadata:   true,
			AllowedUserDataFields: cfg.AllowedUserDataFields,
			KillOnCleanupLeak:     cfg.KillOnCleanupLeak,
			CleanupLeakExitCode:   cfg.CleanupLeakExitCode,
		},
		registry,
		metadataprobe.NewAdapter().WithTimeout(cfg.MetadataProbeTimeout),
		transferAdapter,
		storage.NewLocalAdapter(filepath.Join(cfg.BaseDirectory, "storage")),
		eventsink.NewLoggingSink(),
		metricsink.NewPrometheusSink(prometheus.NewRegistry()),
	)

	req := engine.RenditionRequest{
		Source:   man.Inputs,
		Output:   man.Outputs,
		Auth:     wire.Auth,
		UserData: wire.UserData,
	}
	if wire.Target != nil {
		req.Target = &transfer.Target{URL: wire.Target.URL}
	}
	if wire.MultiPart != nil {
		req.MultiPart = &transfer.MultiPartTarget{URLs: wire.MultiPart.URLs}
	}

	var p *plan.Plan
	var result engine.RunResult
	err = output.RunWithSpinner(ctx, func() error {
		p = eng.RefinePlan(ctx, requestID, req)
		result = eng.Run(ctx, requestID, p, req)
		return nil
	}, output.WithTitle("rendering "+requestID))
	if err != nil {
		return NewExitError(err, ExitGeneralError)
	}

	if IsVerbose() {
		writeRenderTrace(cmd, requestID, p, result)
	}

	if len(result.RenditionErrors) > 0 {
		for _, e := range result.RenditionErrors {
			output.Error(e.Error())
		}
		return NewExitError(fmt.Errorf("%d rendition error(s)", len(result.RenditionErrors)), ExitCodeFromError(result.RenditionErrors[0]))
	}

	output.Print(output.FormatCheckmark(fmt.Sprintf("rendition %s complete", requestID)))
	return nil
}

func writeRenderTrace(cmd *cobra.Command, requestID string, p *plan.Plan, result engine.RunResult) {
	// Successive plan steps nest under one another in ToObject's tree,
	// so walk it depth-first to list every step in execution order.
	steps := make([]output.StepInfo, 0, p.Count())
	var walk func(nodes []*plan.Node)
	walk = func(nodes []*plan.Node) {
		for _, n := range nodes {
			steps = append(steps, output.StepInfo{Name: n.Name, Current: n.Current, Input: n.Input, Output: n.Output})
			walk(n.Steps)
		}
	}
	walk(p.ToObject())

	errs := make([]string, 0, len(result.RenditionErrors))
	for _, e := range result.RenditionErrors {
		errs = append(errs, e.Error())
	}

	trace := output.RenditionTrace{RequestID: requestID, Steps: steps, Errors: errs}
	_ = output.WriteRenditionTrace(trace, output.VerboseOptions{JSON: renderJSONFlag, Writer: cmd.ErrOrStderr()})
}

func baseNameWithoutExt(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return base[:len(base)-len(ext)]
}
