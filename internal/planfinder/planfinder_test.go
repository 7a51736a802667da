package planfinder_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adobe/asset-compute-pipeline/internal/attribute"
	"github.com/adobe/asset-compute-pipeline/internal/errors"
	"github.com/adobe/asset-compute-pipeline/internal/manifest"
	"github.com/adobe/asset-compute-pipeline/internal/planfinder"
	"github.com/adobe/asset-compute-pipeline/internal/testutil"
	"github.com/adobe/asset-compute-pipeline/internal/transformer"
)

func chainManifest(in, out string) manifest.Manifest {
	return manifest.Manifest{
		Inputs:  attribute.Dict{"type": attribute.NewValue(in)},
		Outputs: attribute.Dict{"type": attribute.NewValue(out)},
	}
}

func dict(t string) attribute.Dict {
	return attribute.Dict{"type": attribute.NewValue(t)}
}

func TestFindShortestChainWithAlternateEdge(t *testing.T) {
	registry := transformer.NewRegistry()
	registry.Register(testutil.NewFakeTransformer("T1", chainManifest("1", "2")))
	registry.Register(testutil.NewFakeTransformer("T2", chainManifest("2", "3")))
	registry.Register(testutil.NewFakeTransformer("T3", chainManifest("3", "4")))
	registry.Register(testutil.NewFakeTransformer("T4", chainManifest("2", "3")))

	f := planfinder.New(registry, nil)

	steps, err := f.Find(dict("1"), dict("4"))
	require.NoError(t, err)
	assert.Equal(t, []string{"T1", "T2", "T3"}, names(steps))

	steps, err = f.Find(dict("1"), dict("2"))
	require.NoError(t, err)
	assert.Equal(t, []string{"T1"}, names(steps))

	steps, err = f.Find(dict("1"), dict("3"))
	require.NoError(t, err)
	assert.Len(t, steps, 2)
}

func TestFindOneHundredChain(t *testing.T) {
	registry := transformer.NewRegistry()
	for i := 0; i < 100; i++ {
		registry.Register(testutil.NewFakeTransformer(fmt.Sprintf("T%d", i), chainManifest(fmt.Sprintf("%d", i), fmt.Sprintf("%d", i+1))))
	}

	f := planfinder.New(registry, nil)
	steps, err := f.Find(dict("0"), dict("100"))
	require.NoError(t, err)
	require.Len(t, steps, 100)
	assert.Equal(t, "T50", steps[50].Name)
	assert.Equal(t, attribute.NewValue("50"), steps[50].Input["type"])
	assert.Equal(t, attribute.NewValue("51"), steps[50].Output["type"])
}

func TestFindExpansionBoundOnLongChain(t *testing.T) {
	registry := transformer.NewRegistry()
	for i := 0; i < 302; i++ {
		registry.Register(testutil.NewFakeTransformer(fmt.Sprintf("T%d", i), chainManifest(fmt.Sprintf("%d", i), fmt.Sprintf("%d", i+1))))
	}

	f := planfinder.New(registry, nil)

	_, err := f.Find(dict("0"), dict("301"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrRenditionFormatUnsupported)

	steps, err := f.Find(dict("0"), dict("300"))
	require.NoError(t, err)
	assert.Len(t, steps, 300)
}

func TestFindRejectsMalformedSourceType(t *testing.T) {
	registry := transformer.NewRegistry()
	f := planfinder.New(registry, nil)

	_, err := f.Find(attribute.Dict{"type": attribute.NewValue("not-a-mime-token")}, dict("image/png"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrSourceCorrupt)
}

func TestFindNoMatchingSeedFailsRenditionFormatUnsupported(t *testing.T) {
	registry := transformer.NewRegistry()
	registry.Register(testutil.NewFakeTransformer("T1", chainManifest("image/png", "image/gif")))

	f := planfinder.New(registry, nil)
	_, err := f.Find(dict("image/tiff"), dict("image/gif"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrRenditionFormatUnsupported)
}

func names(steps []planfinder.Step) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = s.Name
	}
	return out
}
