// Package graph builds the directed transformer capability graph the
// plan finder searches (spec.md §4.2).
package graph

import (
	"github.com/adobe/asset-compute-pipeline/internal/attribute"
	"github.com/adobe/asset-compute-pipeline/internal/transformer"
)

// edgeKey identifies a directed edge by its endpoint names.
type edgeKey struct {
	from, to string
}

// TransformerGraph is a directed multigraph over registered
// transformers: an edge A→B exists iff intersect(A.outputs, B.inputs)
// has at least one attribute and contains attribute "type". It is
// built lazily on first use and cached for the lifetime of the
// PlanFinder that owns it.
type TransformerGraph struct {
	registry *transformer.Registry
	built    bool
	adj      map[string][]string
	edges    map[edgeKey]attribute.Dict
}

// New returns a graph over registry, unbuilt until first use.
func New(registry *transformer.Registry) *TransformerGraph {
	return &TransformerGraph{registry: registry}
}

func (g *TransformerGraph) ensureBuilt() {
	if g.built {
		return
	}
	g.built = true
	g.adj = make(map[string][]string)
	g.edges = make(map[edgeKey]attribute.Dict)

	all := g.registry.All()
	for _, a := range all {
		for _, b := range all {
			if a.Name() == b.Name() {
				continue
			}
			inter := attribute.IntersectDict(a.Manifest().Outputs, b.Manifest().Inputs)
			if len(inter) == 0 || !attribute.HasType(inter) {
				continue
			}
			g.adj[a.Name()] = append(g.adj[a.Name()], b.Name())
			g.edges[edgeKey{from: a.Name(), to: b.Name()}] = inter
		}
	}
}

// Adjacent returns the names reachable from name by a single edge, in
// registry-order.
func (g *TransformerGraph) Adjacent(name string) []string {
	g.ensureBuilt()
	out := make([]string, len(g.adj[name]))
	copy(out, g.adj[name])
	return out
}

// Intersection returns the cached edge intersection object for a→b, if
// an edge exists.
func (g *TransformerGraph) Intersection(a, b string) (attribute.Dict, bool) {
	g.ensureBuilt()
	inter, ok := g.edges[edgeKey{from: a, to: b}]
	return inter, ok
}
