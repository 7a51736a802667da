package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adobe/asset-compute-pipeline/internal/errors"
	"github.com/adobe/asset-compute-pipeline/internal/eventsink"
	"github.com/adobe/asset-compute-pipeline/internal/manifest"
	"github.com/adobe/asset-compute-pipeline/internal/output"
	"github.com/adobe/asset-compute-pipeline/internal/plan"
	"github.com/adobe/asset-compute-pipeline/internal/transfer"
	"github.com/adobe/asset-compute-pipeline/internal/transformer"
)

// executeTransformer runs one plan step's transformer to completion:
// prepare its working directory and input/output objects, invoke
// compute, and verify it produced an artifact (spec.md §4.5).
func (e *Engine) executeTransformer(ctx context.Context, ec *engineContext, step *plan.Step, stepIndex int, auth map[string]string, userData map[string]any) (map[string]any, error) {
	location := fmt.Sprintf("%s_executeTransformer", step.Name)

	t, ok := e.registry.Get(step.Name)
	if !ok {
		return nil, errors.NewGeneric(location, fmt.Errorf("transformer %q is not registered", step.Name))
	}

	start := time.Now()

	workDir, preparedInput, output, err := e.prepare(ctx, ec, stepIndex, t, step.Attributes.Input)
	if err != nil {
		return nil, err
	}
	for k, v := range step.Attributes.Output {
		if _, exists := output[k]; !exists {
			output[k] = v
		}
	}

	tctx := &transformerContext{
		Context:  ctx,
		dir:      workDir,
		auth:     auth,
		userData: filterUserData(userData, e.config.AllowedUserDataFields),
	}

	if computeErr := t.Compute(tctx, preparedInput, output); computeErr != nil {
		return nil, errors.NewGeneric(location, computeErr)
	}

	if err := verifyOutputExists(output); err != nil {
		return nil, errors.NewGeneric(location, err)
	}

	if e.metrics != nil {
		e.metrics.Send("step_duration", map[string]any{"transformer": t.Name(), "duration": time.Since(start)})
	}

	return output, nil
}

func verifyOutputExists(output map[string]any) error {
	if path, ok := stringField(output, "path"); ok {
		if _, statErr := os.Stat(path); statErr != nil {
			return fmt.Errorf("transformer did not produce output at %s", path)
		}
		return nil
	}
	if _, hasURL := stringField(output, "url"); hasURL {
		return nil
	}
	return fmt.Errorf("transformer produced neither output.path nor output.url")
}

// prepare builds a step's working directory (in/, out/), materializes
// its input object per the sourceType × url × path table (spec.md
// §4.5), and returns a fresh output object rooted under the same
// directory.
func (e *Engine) prepare(ctx context.Context, ec *engineContext, stepIndex int, t transformer.Transformer, input map[string]any) (workDir string, preparedInput, preparedOutput map[string]any, err error) {
	workDir = filepath.Join(ec.baseDir, fmt.Sprintf("%d-%s", stepIndex, t.Name()))

	if mkErr := os.MkdirAll(filepath.Join(workDir, "in"), 0o755); mkErr != nil {
		return "", nil, nil, errors.NewGeneric("engine.prepare", mkErr)
	}
	if mkErr := os.MkdirAll(filepath.Join(workDir, "out"), 0o755); mkErr != nil {
		return "", nil, nil, errors.NewGeneric("engine.prepare", mkErr)
	}
	ec.addCleanupPath(workDir)

	preparedInput, err = e.prepareInput(ctx, ec, t.Manifest(), workDir, input)
	if err != nil {
		return "", nil, nil, err
	}

	preparedOutput = map[string]any{"path": filepath.Join(workDir, "out", "rendition")}
	return workDir, preparedInput, preparedOutput, nil
}

// prepareInput materializes a step's input object to satisfy its
// manifest's declared sourceType, per the table in spec.md §4.5.
func (e *Engine) prepareInput(ctx context.Context, ec *engineContext, man manifest.Manifest, workDir string, input map[string]any) (map[string]any, error) {
	sourceType, declared := man.DeclaredSourceType()
	if !declared {
		sourceType = manifest.SourceTypeLocal
	}

	url, hasURL := stringField(input, "url")
	path, hasPath := stringField(input, "path")

	if sourceType == manifest.SourceTypeURL {
		switch {
		case hasURL && isHTTPSURL(url):
			return input, nil
		case hasURL && isDataURL(url):
			localPath := filepath.Join(workDir, "in", "source")
			if werr := writeDataURL(url, localPath); werr != nil {
				return nil, errors.NewSourceUnsupported("malformed data URI", "engine.prepare", nil)
			}
			obj, perr := e.storage.Put(localPath)
			if perr != nil {
				return nil, errors.NewGeneric("engine.prepare", perr)
			}
			ec.addCloudKey(obj.Key)
			out := cloneMap(input)
			out["url"] = obj.PresignedURL
			return out, nil
		case hasURL:
			return nil, errors.NewSourceUnsupported(fmt.Sprintf("url %q is neither https nor a data URI", url), "engine.prepare", nil)
		case hasPath:
			obj, perr := e.storage.Put(path)
			if perr != nil {
				return nil, errors.NewGeneric("engine.prepare", perr)
			}
			ec.addCloudKey(obj.Key)
			out := cloneMap(input)
			out["url"] = obj.PresignedURL
			return out, nil
		default:
			return nil, errors.NewGeneric("engine.prepare", fmt.Errorf("no source file accessible"))
		}
	}

	// LOCAL (default).
	if hasURL {
		if !isHTTPSURL(url) && !isDataURL(url) {
			return nil, errors.NewSourceUnsupported(fmt.Sprintf("url %q is neither https nor a data URI", url), "engine.prepare", nil)
		}
		localPath := filepath.Join(workDir, "in", "source")
		if isDataURL(url) {
			if werr := writeDataURL(url, localPath); werr != nil {
				return nil, errors.NewSourceUnsupported("malformed data URI", "engine.prepare", nil)
			}
		} else {
			asset := transfer.Asset{URL: url, RetryOK: true}
			if derr := e.transfer.Download(ctx, asset, localPath); derr != nil {
				return nil, errors.NewGeneric("engine.prepare", derr)
			}
		}
		out := cloneMap(input)
		out["path"] = localPath
		delete(out, "url")
		return out, nil
	}
	if hasPath {
		return input, nil
	}
	return nil, errors.NewGeneric("engine.prepare", fmt.Errorf("no source file accessible"))
}

// updateNextStep advances the plan and, if a next step remains,
// forwards the previous step's path/url/size into it (spec.md §4.5).
func (e *Engine) updateNextStep(p *plan.Plan, previousOutput map[string]any) error {
	next := p.Advance()
	if next == nil {
		return nil
	}
	if previousOutput == nil {
		return errors.NewGeneric("engine.updateNextStep", fmt.Errorf("missing previous output while a next step remains"))
	}

	if next.Attributes.Input == nil {
		next.Attributes.Input = map[string]any{}
	}
	for _, key := range []string{"path", "url", "size"} {
		if v, ok := previousOutput[key]; ok {
			next.Attributes.Input[key] = v
		}
	}
	return nil
}

// upload delegates the final rendition to the transfer adapter and
// emits the terminal event (spec.md §4.5).
func (e *Engine) upload(ctx context.Context, ec *engineContext, finalOutput map[string]any, target *transfer.Target, multiPart *transfer.MultiPartTarget) error {
	if target == nil && multiPart == nil {
		e.events.Emit(eventsink.RenditionCreated, eventsink.Payload{Metadata: finalOutput})
		ec.setFinalEmitted()
		return nil
	}

	path, _ := stringField(finalOutput, "path")
	start := time.Now()
	err := e.transfer.Upload(ctx, transfer.Rendition{Path: path, Target: target, MultiPart: multiPart})
	if e.metrics != nil {
		e.metrics.Send("upload_duration", map[string]any{"duration": time.Since(start)})
	}
	if err != nil {
		return e.renditionFailure(ec, err, finalOutput)
	}

	e.events.Emit(eventsink.RenditionCreated, eventsink.Payload{Metadata: finalOutput})
	ec.setFinalEmitted()
	return nil
}

// renditionFailure records a rendition-scoped failure: it emits the
// failure event, forwards the error to the metrics sink, and appends
// it to the activation's rendition-errors list (spec.md §7).
func (e *Engine) renditionFailure(ec *engineContext, err error, instructions map[string]any) error {
	reason := errorReason(err)

	e.events.Emit(eventsink.RenditionFailed, eventsink.Payload{
		Instructions: instructions,
		ErrorReason:  reason,
		ErrorMessage: err.Error(),
	})
	if e.metrics != nil {
		e.metrics.HandleError(err, map[string]any{"reason": reason})
	}
	ec.recordError(err)
	ec.setFinalEmitted()
	return err
}

// cleanup runs unconditionally after Run: it removes every per-step
// working directory and probe-source download the activation created,
// releases any temporary cloud storage objects, aggregates final
// metrics, and — if no terminal event was ever emitted — emits a
// synthetic failure so the event sink's ledger never silently drops
// an activation (spec.md §4.5). The activation's base directory
// itself is left in place so it can be reused by a later activation.
func (e *Engine) cleanup(ec *engineContext) {
	leaked := false

	for _, path := range ec.takeCleanupPaths() {
		if err := os.RemoveAll(path); err != nil {
			output.Warn("failed to remove activation working path", "path", path, "err", err)
			leaked = true
		}
	}

	if e.storage != nil {
		for _, key := range ec.takeCloudKeys() {
			if err := e.storage.Release(key); err != nil {
				output.Warn("failed to release temporary cloud storage object", "key", key, "err", err)
			}
		}
	}

	if e.metrics != nil {
		e.metrics.Send("rendition_duration", map[string]any{"duration": time.Since(ec.startedAt)})
	}

	if !ec.isFinalEmitted() {
		e.events.Emit(eventsink.RenditionFailed, eventsink.Payload{
			ErrorReason:  "generic error",
			ErrorMessage: "activation ended without an emitted final event",
		})
	}

	if leaked && e.config.KillOnCleanupLeak {
		os.Exit(e.config.CleanupLeakExitCode)
	}
}
