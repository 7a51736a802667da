// Package manifest models a transformer's declared capability surface
// (spec.md §3) and decodes it from its JSON wire format or from an
// author-friendly CUE source, validated against an embedded schema.
package manifest

import (
	"encoding/json"
	"fmt"

	"github.com/adobe/asset-compute-pipeline/internal/attribute"
)

// Manifest declares a transformer's accepted inputs and produced
// outputs as attribute-name → attribute-expression mappings.
type Manifest struct {
	Inputs  attribute.Dict `json:"inputs"`
	Outputs attribute.Dict `json:"outputs"`
}

// SourceTypeAttr is the reserved attribute a manifest's inputs may
// declare to request "URL" or "LOCAL" materialization (spec.md §6).
const SourceTypeAttr = "sourceType"

const (
	// SourceTypeURL requests the engine hand the transformer a
	// reachable URL rather than a local path.
	SourceTypeURL = "URL"
	// SourceTypeLocal requests the engine materialize a local path.
	SourceTypeLocal = "LOCAL"
)

// DeclaredSourceType returns the sourceType value declared by m's
// inputs, and whether one was declared at all.
func (m Manifest) DeclaredSourceType() (string, bool) {
	expr, ok := m.Inputs[SourceTypeAttr]
	if !ok || expr.Kind != attribute.KindValue {
		return "", false
	}
	s, ok := expr.Value.(string)
	return s, ok
}

// wireExpression is the JSON-wire-format shape of an attribute
// expression (spec.md §6): a bare value, a bare array (list), or an
// object with min/max (range). Missing attribute entries are wildcards.
type wireExpression struct {
	raw json.RawMessage
}

// wireManifest mirrors the JSON wire format before decoding into Manifest.
type wireManifest struct {
	Inputs  map[string]wireExpression `json:"inputs"`
	Outputs map[string]wireExpression `json:"outputs"`
}

func (w *wireExpression) UnmarshalJSON(data []byte) error {
	w.raw = append([]byte(nil), data...)
	return nil
}

func (w wireExpression) decode() (attribute.Expression, error) {
	if len(w.raw) == 0 {
		return attribute.Absent, nil
	}

	var rangeCandidate struct {
		Min *float64 `json:"min"`
		Max *float64 `json:"max"`
	}
	if err := json.Unmarshal(w.raw, &rangeCandidate); err == nil && rangeCandidate.Min != nil && rangeCandidate.Max != nil {
		return attribute.NewRange(*rangeCandidate.Min, *rangeCandidate.Max), nil
	}

	var list []any
	if err := json.Unmarshal(w.raw, &list); err == nil {
		values := make([]attribute.Value, len(list))
		for i, v := range list {
			values[i] = v
		}
		return attribute.NewList(values...), nil
	}

	var scalar any
	if err := json.Unmarshal(w.raw, &scalar); err != nil {
		return attribute.Expression{}, fmt.Errorf("decoding attribute expression: %w", err)
	}
	return attribute.NewValue(scalar), nil
}

// DecodeJSON decodes a manifest from its canonical JSON wire format.
func DecodeJSON(data []byte) (Manifest, error) {
	var wire wireManifest
	if err := json.Unmarshal(data, &wire); err != nil {
		return Manifest{}, fmt.Errorf("decoding manifest json: %w", err)
	}

	m := Manifest{
		Inputs:  make(attribute.Dict, len(wire.Inputs)),
		Outputs: make(attribute.Dict, len(wire.Outputs)),
	}
	for name, we := range wire.Inputs {
		expr, err := we.decode()
		if err != nil {
			return Manifest{}, fmt.Errorf("input %q: %w", name, err)
		}
		m.Inputs[name] = expr
	}
	for name, we := range wire.Outputs {
		expr, err := we.decode()
		if err != nil {
			return Manifest{}, fmt.Errorf("output %q: %w", name, err)
		}
		m.Outputs[name] = expr
	}
	return m, nil
}

// EncodeJSON renders m back to its canonical wire format.
func EncodeJSON(m Manifest) ([]byte, error) {
	wire := struct {
		Inputs  map[string]any `json:"inputs"`
		Outputs map[string]any `json:"outputs"`
	}{
		Inputs:  encodeDict(m.Inputs),
		Outputs: encodeDict(m.Outputs),
	}
	return json.Marshal(wire)
}

func encodeDict(d attribute.Dict) map[string]any {
	out := make(map[string]any, len(d))
	for name, expr := range d {
		switch expr.Kind {
		case attribute.KindValue:
			out[name] = expr.Value
		case attribute.KindList:
			out[name] = expr.List
		case attribute.KindRange:
			out[name] = map[string]float64{"min": expr.Range.Min, "max": expr.Range.Max}
		case attribute.KindAbsent:
			// omitted entirely: absence from the map IS the wildcard
		}
	}
	return out
}
