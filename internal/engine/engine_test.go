package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adobe/asset-compute-pipeline/internal/attribute"
	"github.com/adobe/asset-compute-pipeline/internal/manifest"
	"github.com/adobe/asset-compute-pipeline/internal/plan"
	"github.com/adobe/asset-compute-pipeline/internal/testutil"
	"github.com/adobe/asset-compute-pipeline/internal/transformer"
)

func jpegToPNGManifest() manifest.Manifest {
	return manifest.Manifest{
		Inputs:  attribute.Dict{"type": attribute.NewValue("image/jpeg")},
		Outputs: attribute.Dict{"type": attribute.NewValue("image/png")},
	}
}

func newTestEngine(t *testing.T, baseDir string) (*Engine, *transformer.Registry, *testutil.FakeEventSink, *testutil.FakeMetricSink) {
	t.Helper()

	registry := transformer.NewRegistry()
	events := &testutil.FakeEventSink{}
	metrics := &testutil.FakeMetricSink{}

	cfg := DefaultEngineConfig()
	cfg.BaseDirectory = baseDir
	cfg.ProbeSourceMetadata = false
	cfg.KillOnCleanupLeak = false

	e := NewEngine(cfg, registry, nil, &testutil.FakeTransfer{}, &testutil.FakeStorage{}, events, metrics)
	return e, registry, events, metrics
}

func TestRefinePlanAndRunHappyPath(t *testing.T) {
	base := t.TempDir()
	e, registry, events, _ := newTestEngine(t, base)

	convert := testutil.NewFakeTransformer("jpeg-to-png", jpegToPNGManifest())
	convert.ComputeFn = func(ctx transformer.Context, input, output map[string]any) error {
		path, _ := output["path"].(string)
		return os.WriteFile(path, []byte("fake png bytes"), 0o644)
	}
	registry.Register(convert)

	req := RenditionRequest{
		Source: attribute.Dict{
			"type": attribute.NewValue("image/jpeg"),
			"path": attribute.NewValue(writeTempSource(t, base)),
		},
		Output: attribute.Dict{"type": attribute.NewValue("image/png")},
	}

	p := e.RefinePlan(context.Background(), "req-1", req)
	require.Equal(t, 1, p.Count())

	result := e.Run(context.Background(), "req-1", p, req)
	assert.Empty(t, result.RenditionErrors)
	assert.Equal(t, 1, convert.CallCount())
	assert.Contains(t, events.Names(), "rendition_created")

	_, err := os.Stat(filepath.Join(base, "req-1"))
	assert.NoError(t, err, "activation base dir should still exist, reusable by a later activation")

	_, err = os.Stat(filepath.Join(base, "req-1", "0-jpeg-to-png"))
	assert.True(t, os.IsNotExist(err), "step working directory should be removed by cleanup")
}

func TestRefinePlanNoRouteFailsPlanAndEmitsFailure(t *testing.T) {
	base := t.TempDir()
	e, registry, events, _ := newTestEngine(t, base)

	convert := testutil.NewFakeTransformer("jpeg-to-png", jpegToPNGManifest())
	registry.Register(convert)

	req := RenditionRequest{
		Source: attribute.Dict{"type": attribute.NewValue("image/jpeg")},
		Output: attribute.Dict{"type": attribute.NewValue("video/mp4")},
	}

	p := e.RefinePlan(context.Background(), "req-2", req)
	assert.Equal(t, "failed", p.State().String())

	result := e.Run(context.Background(), "req-2", p, req)
	assert.Len(t, result.RenditionErrors, 1)
	assert.Contains(t, events.Names(), "rendition_failed")
}

func TestRunTransformerFailureRecordsRenditionError(t *testing.T) {
	base := t.TempDir()
	e, registry, events, metrics := newTestEngine(t, base)

	failing := testutil.NewFakeTransformer("jpeg-to-png", jpegToPNGManifest())
	failing.Err = assertError{"compute exploded"}
	registry.Register(failing)

	req := RenditionRequest{
		Source: attribute.Dict{
			"type": attribute.NewValue("image/jpeg"),
			"path": attribute.NewValue(writeTempSource(t, base)),
		},
		Output: attribute.Dict{"type": attribute.NewValue("image/png")},
	}

	p := e.RefinePlan(context.Background(), "req-3", req)
	require.Equal(t, 1, p.Count())

	result := e.Run(context.Background(), "req-3", p, req)
	require.Len(t, result.RenditionErrors, 1)
	assert.Contains(t, events.Names(), "rendition_failed")
	assert.Len(t, metrics.Errors, 1)
}

func TestUpdateNextStepForwardsPathURLSize(t *testing.T) {
	base := t.TempDir()
	e, _, _, _ := newTestEngine(t, base)

	two := newTwoStepPlan(t)
	err := e.updateNextStep(two, map[string]any{"path": "/tmp/a", "url": "https://x/a", "size": int64(42)})
	require.NoError(t, err)

	next := two.Current()
	require.NotNil(t, next)
	assert.Equal(t, "/tmp/a", next.Attributes.Input["path"])
	assert.Equal(t, "https://x/a", next.Attributes.Input["url"])
	assert.Equal(t, int64(42), next.Attributes.Input["size"])
}

// assertError is a minimal error type independent of errors.New to
// avoid importing the stdlib package name "errors" twice in this file.
type assertError struct{ msg string }

func (e assertError) Error() string { return e.msg }

func newTwoStepPlan(t *testing.T) *plan.Plan {
	t.Helper()
	p := plan.New(0)
	_, err := p.Add("step-a", plan.Attributes{Input: map[string]any{}, Output: map[string]any{}})
	require.NoError(t, err)
	_, err = p.Add("step-b", plan.Attributes{Input: map[string]any{}, Output: map[string]any{}})
	require.NoError(t, err)
	p.Advance() // reach step-a
	return p
}

func writeTempSource(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "source.jpg")
	require.NoError(t, os.WriteFile(path, []byte("fake jpeg bytes"), 0o644))
	return path
}
