// Package engine implements the rendition pipeline orchestrator
// (spec.md §4.5): it owns the transformer registry, asks the plan
// finder for a chain, walks that chain step by step, and guarantees
// cleanup of every working directory and temporary cloud object it
// created along the way.
package engine

import (
	"context"
	"path/filepath"

	"github.com/adobe/asset-compute-pipeline/internal/attribute"
	"github.com/adobe/asset-compute-pipeline/internal/eventsink"
	"github.com/adobe/asset-compute-pipeline/internal/metadataprobe"
	"github.com/adobe/asset-compute-pipeline/internal/metricsink"
	"github.com/adobe/asset-compute-pipeline/internal/plan"
	"github.com/adobe/asset-compute-pipeline/internal/planfinder"
	"github.com/adobe/asset-compute-pipeline/internal/storage"
	"github.com/adobe/asset-compute-pipeline/internal/transfer"
	"github.com/adobe/asset-compute-pipeline/internal/transformer"
)

// EngineConfig carries the engine's operating parameters (spec.md
// §4.5, §5). It is built from internal/config.EngineConfig by the
// CLI's render command.
type EngineConfig struct {
	// BaseDirectory is the parent of every activation's working
	// directory: "<BaseDirectory>/<requestID>".
	BaseDirectory string

	// MaxSteps bounds a single plan's step count (plan.DefaultMaxSteps if 0).
	MaxSteps int

	// MaxExpansions bounds the plan finder's BFS visit counter
	// (planfinder.MaxExpansions if 0).
	MaxExpansions int

	// ProbeSourceMetadata enables the refinePlan metadata probe step.
	ProbeSourceMetadata bool

	// AllowedUserDataFields allow-lists the fields of a request's
	// UserData bag forwarded to transformers.
	AllowedUserDataFields []string

	// KillOnCleanupLeak terminates the process with CleanupLeakExitCode
	// when a working directory cannot be removed during cleanup.
	KillOnCleanupLeak bool

	// CleanupLeakExitCode is the exit code used when KillOnCleanupLeak fires.
	CleanupLeakExitCode int
}

// DefaultEngineConfig returns sensible defaults for local/dev use.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		BaseDirectory:       "work",
		MaxSteps:            plan.DefaultMaxSteps,
		ProbeSourceMetadata: true,
		KillOnCleanupLeak:   true,
		CleanupLeakExitCode: 70,
	}
}

// RenditionRequest is a single rendition activation's instructions.
type RenditionRequest struct {
	Source    attribute.Dict
	Output    attribute.Dict
	Target    *transfer.Target
	MultiPart *transfer.MultiPartTarget
	Auth      map[string]string
	UserData  map[string]any
}

// RunResult is the caller-visible result of a completed activation
// (spec.md §7): rendition failures are recorded in RenditionErrors;
// Run itself returns no separate error value.
type RunResult struct {
	RequestID       string
	RenditionErrors []error
}

// Engine orchestrates one plan at a time; it is not safe to run two
// plans concurrently on the same instance (spec.md §5).
type Engine struct {
	config EngineConfig

	registry *transformer.Registry
	finder   *planfinder.Finder
	probe    metadataprobe.Probe

	transfer transfer.Adapter
	storage  storage.Adapter
	events   eventsink.Sink
	metrics  metricsink.Sink

	ctx *engineContext
}

// NewEngine wires an Engine from its adapters. A nil registry starts
// empty; a nil events sink defaults to the logging sink.
func NewEngine(
	cfg EngineConfig,
	registry *transformer.Registry,
	probe metadataprobe.Probe,
	transferAdapter transfer.Adapter,
	storageAdapter storage.Adapter,
	events eventsink.Sink,
	metrics metricsink.Sink,
) *Engine {
	if registry == nil {
		registry = transformer.NewRegistry()
	}
	if events == nil {
		events = eventsink.NewLoggingSink()
	}
	return &Engine{
		config:   cfg,
		registry: registry,
		finder:   planfinder.New(registry, orientationProbeFrom(probe)).WithMaxExpansions(cfg.MaxExpansions),
		probe:    probe,
		transfer: transferAdapter,
		storage:  storageAdapter,
		events:   events,
		metrics:  metrics,
	}
}

// RegisterTransformer adds or replaces a transformer by name
// (last-writer-wins, spec.md §4.5).
func (e *Engine) RegisterTransformer(t transformer.Transformer) {
	e.registry.Register(t)
}

// Registry exposes the underlying registry (e.g. for `transformer
// list`/`transformer vet` CLI commands).
func (e *Engine) Registry() *transformer.Registry { return e.registry }

// RefinePlan finds a transformer chain from req.Source to req.Output
// and populates plan with its steps (spec.md §4.5). It never returns
// an error: plan-finder failures mark the plan failed and are
// reported through the event sink, matching spec.md §7's
// non-throwing propagation policy.
func (e *Engine) RefinePlan(ctx context.Context, requestID string, req RenditionRequest) *plan.Plan {
	p := plan.New(e.config.MaxSteps)

	baseDir := filepath.Join(e.config.BaseDirectory, requestID)
	ec := newEngineContext(requestID, baseDir)
	e.ctx = ec

	source := req.Source.Clone()

	if e.config.ProbeSourceMetadata && e.probe != nil {
		if localPath, err := e.materializeForProbe(ctx, ec, source); err == nil {
			if md, perr := e.probe.ProbeFile(ctx, localPath, declaredType(source)); perr == nil {
				mergeProbedMetadata(source, md)
			}
		}
	}

	steps, err := e.finder.Find(source, req.Output)
	if err != nil {
		e.renditionFailure(ec, err, dictToMap(source))
		p.Fail()
		return p
	}

	p.UpdateOriginalInput(dictToMap(source))
	for _, step := range steps {
		if _, addErr := p.Add(step.Name, plan.Attributes{
			Input:  dictToMap(step.Input),
			Output: dictToMap(step.Output),
		}); addErr != nil {
			e.renditionFailure(ec, addErr, dictToMap(source))
			p.Fail()
			return p
		}
	}

	return p
}

// Run walks plan to completion, executing each step's transformer in
// order and uploading the final rendition on success. Cleanup always
// runs, regardless of how the plan terminates (spec.md §4.5, §7).
func (e *Engine) Run(ctx context.Context, requestID string, p *plan.Plan, req RenditionRequest) RunResult {
	ec := e.ctx
	if ec == nil || ec.requestID != requestID {
		ec = newEngineContext(requestID, filepath.Join(e.config.BaseDirectory, requestID))
	}
	defer e.cleanup(ec)

	if p.State() == plan.StateInitial {
		p.Advance()
	}

	var finalOutput map[string]any
	stepIndex := 0

	for p.State() == plan.StateInProgress {
		step := p.Current()

		out, err := e.executeTransformer(ctx, ec, step, stepIndex, req.Auth, req.UserData)
		if err != nil {
			p.Fail()
			e.renditionFailure(ec, err, step.Attributes.Input)
			break
		}

		finalOutput = out
		stepIndex++

		if err := e.updateNextStep(p, out); err != nil {
			p.Fail()
			e.renditionFailure(ec, err, out)
			break
		}
	}

	if p.State() == plan.StateSucceeded {
		_ = e.upload(ctx, ec, finalOutput, req.Target, req.MultiPart)
	}

	return RunResult{RequestID: requestID, RenditionErrors: ec.errors()}
}

func orientationProbeFrom(probe metadataprobe.Probe) planfinder.OrientationProbe {
	if probe == nil {
		return nil
	}
	return func(source attribute.Dict) (string, bool) {
		pathExpr, ok := source["path"]
		if !ok || pathExpr.Kind != attribute.KindValue {
			return "", false
		}
		path, ok := pathExpr.Value.(string)
		if !ok {
			return "", false
		}
		md, err := probe.ProbeFile(context.Background(), path, declaredType(source))
		if err != nil || md.Orientation == "" {
			return "", false
		}
		return md.Orientation, true
	}
}
