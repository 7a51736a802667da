// Package planfinder implements the BFS graph search that selects a
// minimal transformer chain from source to target, and the plan
// realization that resolves concrete per-step attributes along it
// (spec.md §4.3).
package planfinder

import (
	"fmt"
	"regexp"

	"github.com/adobe/asset-compute-pipeline/internal/attribute"
	"github.com/adobe/asset-compute-pipeline/internal/errors"
	"github.com/adobe/asset-compute-pipeline/internal/graph"
	"github.com/adobe/asset-compute-pipeline/internal/manifest"
	"github.com/adobe/asset-compute-pipeline/internal/transformer"
)

// MaxExpansions bounds the BFS visit counter (spec.md §4.3).
const MaxExpansions = 300

// mimeToken is a loose MIME-like token validator: "type/subtype" with
// non-empty, slash-free segments. It intentionally does not enforce
// the full RFC 2045 grammar — only enough to reject obviously
// malformed source/output descriptors.
var mimeToken = regexp.MustCompile(`^[A-Za-z0-9.+-]+/[A-Za-z0-9.+-]+$`)

// OrientationNormalizerPrefix names the callback-style transformer
// family the finder prepends when a single-step, metadata-consuming
// plan needs orientation normalization (spec.md §4.3).
const OrientationNormalizerPrefix = "orientation-normalize"

// MetadataServicePrefix is the transformer-name prefix that marks a
// transformer as a metadata-consuming service eligible for pre-chain
// orientation normalization.
const MetadataServicePrefix = "service-"

// OrientationProbe reports the source's orientation, if known. It is
// the finder's narrow view onto the metadata probe adapter (spec.md §4.6).
type OrientationProbe func(source attribute.Dict) (orientation string, present bool)

// Finder searches a TransformerGraph for a chain from a source
// descriptor to a target output descriptor.
type Finder struct {
	registry *transformer.Registry
	graph    *graph.TransformerGraph
	probe    OrientationProbe

	// MaxExpansions bounds the BFS visit counter. Defaults to the
	// package MaxExpansions (config.EngineConfig.MaxExpansions).
	MaxExpansions int
}

// New returns a Finder over registry, building its graph lazily.
func New(registry *transformer.Registry, probe OrientationProbe) *Finder {
	return &Finder{registry: registry, graph: graph.New(registry), probe: probe, MaxExpansions: MaxExpansions}
}

// WithMaxExpansions overrides the finder's BFS visit-counter bound.
func (f *Finder) WithMaxExpansions(n int) *Finder {
	if n > 0 {
		f.MaxExpansions = n
	}
	return f
}

// Step is one realized plan step: the transformer name plus its
// resolved concrete input/output attribute bags.
type Step struct {
	Name   string
	Input  attribute.Dict
	Output attribute.Dict
}

// candidatePlan is an internal BFS search-frontier entry: an ordered
// chain of transformer names.
type candidatePlan struct {
	names []string
}

func (c candidatePlan) tail() string { return c.names[len(c.names)-1] }

func (c candidatePlan) extend(name string) candidatePlan {
	names := make([]string, len(c.names)+1)
	copy(names, c.names)
	names[len(c.names)] = name
	return candidatePlan{names: names}
}

// Find performs the BFS search and returns the realized step chain.
func (f *Finder) Find(source, output attribute.Dict) ([]Step, error) {
	sourceType, ok := typeOf(source)
	if !ok || !mimeToken.MatchString(sourceType) {
		return nil, errors.NewSourceCorrupt(fmt.Sprintf("source.type %q is not a well-formed MIME-like token", sourceType), "planfinder.Find")
	}
	outputType, ok := typeOf(output)
	if !ok || !mimeToken.MatchString(outputType) {
		return nil, errors.NewRenditionFormatUnsupported(outputType)
	}

	names := f.names()

	var frontier []candidatePlan
	for _, name := range names {
		t, _ := f.registry.Get(name)
		if attribute.Matches(t.Manifest().Inputs, source) {
			frontier = append(frontier, candidatePlan{names: []string{name}})
		}
	}
	if len(frontier) == 0 {
		return nil, errors.NewRenditionFormatUnsupported(outputType)
	}

	visited := make(map[string]bool)
	var best *candidatePlan

	expansions := 0
	for len(frontier) > 0 {
		p := frontier[0]
		frontier = frontier[1:]

		tail := p.tail()
		t, _ := f.registry.Get(tail)

		// A candidate reached only by exhausting the expansion budget
		// cannot be accepted: the budget bounds how many tails may be
		// visited before a match is found, not just how many may be
		// expanded further (spec.md §8).
		if expansions >= f.MaxExpansions {
			continue
		}

		if attribute.Matches(t.Manifest().Outputs, output) {
			best = &p
			break
		}

		if visited[tail] {
			continue
		}
		visited[tail] = true
		expansions++

		for _, next := range f.graph.Adjacent(tail) {
			frontier = append(frontier, p.extend(next))
		}
	}

	if best == nil {
		return nil, errors.NewRenditionFormatUnsupported(outputType)
	}

	steps, err := f.realize(best.names, source, output)
	if err != nil {
		return nil, err
	}

	return f.applyOrientationPreChain(steps, source)
}

func (f *Finder) names() []string {
	return f.registry.Names()
}

func typeOf(d attribute.Dict) (string, bool) {
	expr, ok := d["type"]
	if !ok || expr.Kind != attribute.KindValue {
		return "", false
	}
	s, ok := expr.Value.(string)
	return s, ok
}

// realize produces the concrete step list for a chosen transformer
// sequence per spec.md §4.3's plan-realization rules.
func (f *Finder) realize(names []string, source, output attribute.Dict) ([]Step, error) {
	steps := make([]Step, len(names))

	input := source.Clone()
	userData := output["userData"]

	for i, name := range names {
		t, _ := f.registry.Get(name)

		var stepOutput attribute.Dict
		if i < len(names)-1 {
			next, _ := f.registry.Get(names[i+1])
			inter, ok := f.graph.Intersection(name, next.Name())
			if !ok {
				inter = attribute.IntersectDict(t.Manifest().Outputs, next.Manifest().Inputs)
			}
			stepOutput = attribute.Best(inter, input)

			if userData.Kind != attribute.KindAbsent {
				stepOutput["userData"] = userData
			}
			if _, hasW := stepOutput["width"]; !hasW {
				if w, ok := input["width"]; ok {
					stepOutput["width"] = w
				}
			}
			if _, hasH := stepOutput["height"]; !hasH {
				if h, ok := input["height"]; ok {
					stepOutput["height"] = h
				}
			}
		} else {
			stepOutput = output.Clone()
		}

		if sourceTypeExpr, ok := t.Manifest().Inputs[manifest.SourceTypeAttr]; ok && sourceTypeExpr.Kind == attribute.KindValue {
			input["sourceType"] = sourceTypeExpr
		}

		steps[i] = Step{Name: name, Input: input, Output: stepOutput}

		nextInput := stepOutput.Clone()
		delete(nextInput, "userData")
		input = nextInput
	}

	return steps, nil
}

// applyOrientationPreChain prepends a callback-style orientation
// normalizer when the realized plan is a single metadata-consuming
// service step and the source carries non-trivial orientation
// metadata (spec.md §4.3).
func (f *Finder) applyOrientationPreChain(steps []Step, source attribute.Dict) ([]Step, error) {
	if len(steps) != 1 || f.probe == nil {
		return steps, nil
	}
	if !isMetadataService(steps[0].Name) {
		return steps, nil
	}

	orientation, present := f.probe(source)
	if !present || orientation == "" || orientation == "1" {
		return steps, nil
	}

	normalizerName := f.findOrientationNormalizer()
	if normalizerName == "" {
		return steps, nil
	}

	sourceType, _ := typeOf(source)
	preStep := Step{
		Name:   normalizerName,
		Input:  source.Clone(),
		Output: attribute.Dict{"type": attribute.NewValue(sourceType)},
	}

	steps[0].Input = attribute.Dict{"type": attribute.NewValue(sourceType)}
	return append([]Step{preStep}, steps...), nil
}

func isMetadataService(name string) bool {
	return len(name) >= len(MetadataServicePrefix) && name[:len(MetadataServicePrefix)] == MetadataServicePrefix
}

func (f *Finder) findOrientationNormalizer() string {
	for _, name := range f.registry.Names() {
		if len(name) >= len(OrientationNormalizerPrefix) && name[:len(OrientationNormalizerPrefix)] == OrientationNormalizerPrefix {
			return name
		}
	}
	return ""
}
