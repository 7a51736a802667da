package attribute_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adobe/asset-compute-pipeline/internal/attribute"
)

func TestIntersectRangeRange(t *testing.T) {
	got := attribute.Intersect(attribute.NewRange(0, 10), attribute.NewRange(5, 20))
	require.Equal(t, attribute.KindRange, got.Kind)
	assert.Equal(t, 5.0, got.Range.Min)
	assert.Equal(t, 10.0, got.Range.Max)

	none := attribute.Intersect(attribute.NewRange(0, 5), attribute.NewRange(10, 20))
	assert.Equal(t, attribute.KindAbsent, none.Kind)
}

func TestIntersectRangeList(t *testing.T) {
	got := attribute.Intersect(attribute.NewRange(100, 300), attribute.NewList("50", "200", "400"))
	require.Equal(t, attribute.KindAbsent, got.Kind)

	got = attribute.Intersect(attribute.NewRange(100.0, 300.0), attribute.NewList(50.0, 200.0, 400.0))
	require.Equal(t, attribute.KindList, got.Kind)
	assert.Equal(t, []attribute.Value{200.0}, got.List)
}

func TestIntersectListListPreservesFirstOperandOrder(t *testing.T) {
	got := attribute.Intersect(attribute.NewList("c", "a", "b"), attribute.NewList("a", "b", "c"))
	require.Equal(t, attribute.KindList, got.Kind)
	assert.Equal(t, []attribute.Value{"c", "a", "b"}, got.List)

	reversed := attribute.Intersect(attribute.NewList("a", "b", "c"), attribute.NewList("c", "a", "b"))
	assert.Equal(t, []attribute.Value{"a", "b", "c"}, reversed.List)
}

func TestIntersectListEmptyIsAbsent(t *testing.T) {
	got := attribute.Intersect(attribute.NewList(), attribute.NewList("a"))
	assert.Equal(t, attribute.KindAbsent, got.Kind)
}

func TestIntersectValueValue(t *testing.T) {
	same := attribute.Intersect(attribute.NewValue("image/png"), attribute.NewValue("image/png"))
	assert.Equal(t, attribute.NewValue("image/png"), same)

	diff := attribute.Intersect(attribute.NewValue("image/png"), attribute.NewValue("image/jpeg"))
	assert.Equal(t, attribute.KindAbsent, diff.Kind)
}

func TestIntersectAbsentIsWildcard(t *testing.T) {
	assert.Equal(t, attribute.NewValue("x"), attribute.Intersect(attribute.Absent, attribute.NewValue("x")))
	assert.Equal(t, attribute.NewRange(1, 2), attribute.Intersect(attribute.NewRange(1, 2), attribute.Absent))
}

func TestIntersectIsIdempotentForIdenticalManifests(t *testing.T) {
	a := attribute.Dict{
		"type":   attribute.NewValue("image/png"),
		"width":  attribute.NewRange(0, 2000),
		"format": attribute.NewList("a", "b", "c"),
	}
	got := attribute.IntersectDict(a, a.Clone())
	assert.Equal(t, a, got)
}

func TestIntersectCommutativeInValueContent(t *testing.T) {
	a := attribute.NewList("x", "y", "z")
	b := attribute.NewList("y", "z", "w")

	ab := attribute.Intersect(a, b)
	ba := attribute.Intersect(b, a)

	assert.ElementsMatch(t, ab.List, ba.List)
}

func TestIntersectDictSkipsAttributesNotOnBothSides(t *testing.T) {
	a := attribute.Dict{"type": attribute.NewValue("image/png"), "width": attribute.NewRange(0, 100)}
	b := attribute.Dict{"type": attribute.NewValue("image/png"), "height": attribute.NewRange(0, 100)}

	got := attribute.IntersectDict(a, b)
	assert.Equal(t, attribute.Dict{"type": attribute.NewValue("image/png")}, got)
}

func TestMatchesRejectsMultiValuedInstance(t *testing.T) {
	target := attribute.Dict{"type": attribute.NewList("image/png", "image/jpeg")}
	instance := attribute.Dict{"type": attribute.NewRange(1, 2)}

	assert.False(t, attribute.Matches(target, instance))
}

func TestMatchesOmittedTargetAttributeIsWildcard(t *testing.T) {
	target := attribute.Dict{"type": attribute.NewValue("image/png")}
	instance := attribute.Dict{"type": attribute.NewValue("image/png"), "width": attribute.NewValue(500.0)}

	assert.True(t, attribute.Matches(target, instance))
}

func TestMatchesRejectsInadmissibleValue(t *testing.T) {
	target := attribute.Dict{"type": attribute.NewList("image/png", "image/jpeg")}
	instance := attribute.Dict{"type": attribute.NewValue("image/gif")}

	assert.False(t, attribute.Matches(target, instance))
}

func TestMatchesServiceFeatureSentinel(t *testing.T) {
	target := attribute.Dict{
		"type":                         attribute.NewValue("machine-json"),
		attribute.ServiceFeatureAttr: attribute.NewValue("thumbnail"),
	}
	instance := attribute.Dict{"type": attribute.NewValue("machine-json")}

	assert.False(t, attribute.MatchesWithFeatures(target, instance, map[string]bool{"thumbnail": false}))
	assert.True(t, attribute.MatchesWithFeatures(target, instance, map[string]bool{"thumbnail": true}))
}

func TestBestCollapsesEachKind(t *testing.T) {
	intersection := attribute.Dict{
		"type":   attribute.NewValue("image/png"),
		"format": attribute.NewList("a", "b"),
		"width":  attribute.NewRange(10, 200),
	}

	got := attribute.Best(intersection, nil)

	assert.Equal(t, attribute.NewValue("image/png"), got["type"])
	assert.Equal(t, attribute.NewValue(attribute.Value("a")), got["format"])
	assert.Equal(t, attribute.NewValue(200.0), got["width"])
}

func TestBestNeverUpscales(t *testing.T) {
	intersection := attribute.Dict{"width": attribute.NewRange(0, 2000), "height": attribute.NewRange(0, 2000)}
	sourceHints := attribute.Dict{"width": attribute.NewValue(500.0), "height": attribute.NewValue(500.0)}

	got := attribute.Best(intersection, sourceHints)

	assert.Equal(t, attribute.NewValue(500.0), got["width"])
	assert.Equal(t, attribute.NewValue(500.0), got["height"])
}

func TestBestNeverConvertsFormatWhenSourceTypeAdmissible(t *testing.T) {
	intersection := attribute.Dict{"type": attribute.NewList("image/png", "image/jpeg")}
	sourceHints := attribute.Dict{"type": attribute.NewValue("image/jpeg")}

	got := attribute.Best(intersection, sourceHints)

	assert.Equal(t, attribute.NewValue("image/jpeg"), got["type"])
}

func TestBestIgnoresInadmissibleSourceType(t *testing.T) {
	intersection := attribute.Dict{"type": attribute.NewList("image/png", "image/jpeg")}
	sourceHints := attribute.Dict{"type": attribute.NewValue("image/gif")}

	got := attribute.Best(intersection, sourceHints)

	assert.Equal(t, attribute.NewValue("image/png"), got["type"])
}
