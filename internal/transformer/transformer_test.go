package transformer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adobe/asset-compute-pipeline/internal/attribute"
	"github.com/adobe/asset-compute-pipeline/internal/manifest"
	"github.com/adobe/asset-compute-pipeline/internal/transformer"
	"github.com/adobe/asset-compute-pipeline/internal/testutil"
)

func TestRegisterLastWriterWins(t *testing.T) {
	r := transformer.NewRegistry()

	first := testutil.NewFakeTransformer("resize", manifest.Manifest{
		Inputs:  attribute.Dict{"type": attribute.NewValue("image/png")},
		Outputs: attribute.Dict{"type": attribute.NewValue("image/png")},
	})
	second := testutil.NewFakeTransformer("resize", manifest.Manifest{
		Inputs:  attribute.Dict{"type": attribute.NewValue("image/jpeg")},
		Outputs: attribute.Dict{"type": attribute.NewValue("image/jpeg")},
	})

	r.Register(first)
	r.Register(second)

	got, ok := r.Get("resize")
	require.True(t, ok)
	assert.Equal(t, second, got)
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, []string{"resize"}, r.Names())
}

func TestRegistryNamesPreservesFirstSeenOrder(t *testing.T) {
	r := transformer.NewRegistry()
	r.Register(testutil.NewFakeTransformer("b", manifest.Manifest{}))
	r.Register(testutil.NewFakeTransformer("a", manifest.Manifest{}))
	r.Register(testutil.NewFakeTransformer("b", manifest.Manifest{}))

	names := r.Names()
	assert.Equal(t, []string{"b", "a"}, names)
}
