// Package attribute implements the attribute intersection algebra: the
// tagged-variant expression type transformer manifests use to declare
// accepted inputs and produced outputs, and the operations (Intersect,
// Matches, Best) that drive plan finding.
package attribute

import "sort"

// Kind tags the shape of an Expression.
type Kind int

const (
	// KindAbsent means "any value accepted" when declared explicitly,
	// and "no admissible value" when produced as an intersection result.
	KindAbsent Kind = iota
	// KindValue is a singleton concrete value.
	KindValue
	// KindList is an ordered priority list of values.
	KindList
	// KindRange is an inclusive numeric range.
	KindRange
)

// Value is a concrete attribute value: string, float64, or bool.
type Value any

// Range is an inclusive numeric bound.
type Range struct {
	Min float64
	Max float64
}

// Expression is the tagged variant {Value | List | Range | Absent}.
type Expression struct {
	Kind  Kind
	Value Value
	List  []Value
	Range Range
}

// Absent is the wildcard/no-value expression.
var Absent = Expression{Kind: KindAbsent}

// NewValue builds a singleton-value expression.
func NewValue(v Value) Expression {
	return Expression{Kind: KindValue, Value: v}
}

// NewList builds a priority-list expression. An empty list means
// "supports nothing for this attribute".
func NewList(values ...Value) Expression {
	return Expression{Kind: KindList, List: values}
}

// NewRange builds an inclusive-range expression.
func NewRange(min, max float64) Expression {
	return Expression{Kind: KindRange, Range: Range{Min: min, Max: max}}
}

// Dict is a mapping of attribute name to attribute expression — a
// manifest's inputs or outputs, or a concrete source/output descriptor
// (in which case every entry should be Kind: KindValue).
type Dict map[string]Expression

// Clone returns a shallow copy of d safe to mutate independently.
func (d Dict) Clone() Dict {
	if d == nil {
		return nil
	}
	out := make(Dict, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// ServiceFeatureAttr is the reserved sentinel attribute name a target
// manifest uses to require a named service feature be truthy on the
// matched instance (spec.md §4.1, implementation-defined per §9 Open
// Questions — see DESIGN.md).
const ServiceFeatureAttr = "serviceFeature"

// Intersect computes the attribute expression accepted by both a and b.
// List×list intersection preserves a's order (intersect is commutative
// in value content, not in list ordering).
func Intersect(a, b Expression) Expression {
	switch {
	case a.Kind == KindAbsent:
		return b
	case b.Kind == KindAbsent:
		return a
	case a.Kind == KindRange && b.Kind == KindRange:
		return intersectRangeRange(a.Range, b.Range)
	case a.Kind == KindRange && b.Kind == KindList:
		return filterListByRange(a.Range, b.List)
	case a.Kind == KindList && b.Kind == KindRange:
		return filterListByRange(b.Range, a.List)
	case a.Kind == KindRange && b.Kind == KindValue:
		return valueInRange(a.Range, b.Value)
	case a.Kind == KindValue && b.Kind == KindRange:
		return valueInRange(b.Range, a.Value)
	case a.Kind == KindList && b.Kind == KindList:
		return intersectListList(a.List, b.List)
	case a.Kind == KindList && b.Kind == KindValue:
		return valueInList(a.List, b.Value)
	case a.Kind == KindValue && b.Kind == KindList:
		return valueInList(b.List, a.Value)
	case a.Kind == KindValue && b.Kind == KindValue:
		if equalValue(a.Value, b.Value) {
			return a
		}
		return Absent
	default:
		return Absent
	}
}

// IntersectDict intersects two manifest dictionaries attribute by
// attribute, skipping names not present on both sides. The result
// carries only attributes whose intersection is non-absent.
func IntersectDict(a, b Dict) Dict {
	result := make(Dict)
	for name, ea := range a {
		eb, ok := b[name]
		if !ok {
			continue
		}
		inter := Intersect(ea, eb)
		if inter.Kind == KindAbsent {
			continue
		}
		result[name] = inter
	}
	return result
}

// HasType reports whether d declares the mandatory graph-edge attribute "type".
func HasType(d Dict) bool {
	_, ok := d["type"]
	return ok
}

// Matches reports whether instance is admissible under target. Every
// attribute present in instance must either be omitted from target
// (wildcard) or fall within target's expression for that attribute. If
// instance carries a multi-valued (list or range) attribute, Matches
// always returns false — instances must be concrete.
func Matches(target Dict, instance Dict) bool {
	return MatchesWithFeatures(target, instance, nil)
}

// MatchesWithFeatures is Matches plus the service-feature sentinel
// check: if target declares ServiceFeatureAttr, the named feature must
// be truthy in features.
func MatchesWithFeatures(target, instance Dict, features map[string]bool) bool {
	for _, expr := range instance {
		if expr.Kind == KindList || expr.Kind == KindRange {
			return false
		}
	}

	for name, expr := range instance {
		texpr, ok := target[name]
		if !ok {
			continue
		}
		if expr.Kind != KindValue {
			continue
		}
		if !admits(texpr, expr.Value) {
			return false
		}
	}

	if sentinel, ok := target[ServiceFeatureAttr]; ok && sentinel.Kind == KindValue {
		featureName, ok := sentinel.Value.(string)
		if !ok || !features[featureName] {
			return false
		}
	}

	return true
}

// admits reports whether v is an admissible concrete value under expr.
func admits(expr Expression, v Value) bool {
	switch expr.Kind {
	case KindAbsent:
		return true
	case KindValue:
		return equalValue(expr.Value, v)
	case KindList:
		return containsValue(expr.List, v)
	case KindRange:
		n, ok := toFloat(v)
		return ok && n >= expr.Range.Min && n <= expr.Range.Max
	default:
		return false
	}
}

// Best collapses an intersection dict to concrete singleton values,
// applying the no-upscale rule for width/height and the
// no-unnecessary-conversion rule for type, given sourceHints (the
// concrete attributes of the upstream source or step input).
func Best(intersection Dict, sourceHints Dict) Dict {
	result := make(Dict, len(intersection))

	for name, expr := range intersection {
		var candidate Value
		switch expr.Kind {
		case KindList:
			if len(expr.List) == 0 {
				continue
			}
			candidate = expr.List[0]
		case KindRange:
			candidate = expr.Range.Max
		case KindValue:
			candidate = expr.Value
		default:
			continue
		}
		result[name] = NewValue(candidate)
	}

	for _, dim := range []string{"width", "height"} {
		hint, ok := sourceHints[dim]
		if !ok || hint.Kind != KindValue {
			continue
		}
		cur, ok := result[dim]
		if !ok || cur.Kind != KindValue {
			continue
		}
		curNum, okc := toFloat(cur.Value)
		hintNum, okh := toFloat(hint.Value)
		if okc && okh && hintNum < curNum {
			result[dim] = NewValue(hintNum)
		}
	}

	if hint, ok := sourceHints["type"]; ok && hint.Kind == KindValue {
		if origExpr, ok := intersection["type"]; ok && admits(origExpr, hint.Value) {
			result["type"] = NewValue(hint.Value)
		}
	}

	return result
}

func intersectRangeRange(a, b Range) Expression {
	min := a.Min
	if b.Min > min {
		min = b.Min
	}
	max := a.Max
	if b.Max < max {
		max = b.Max
	}
	if min > max {
		return Absent
	}
	return NewRange(min, max)
}

func filterListByRange(r Range, list []Value) Expression {
	var kept []Value
	for _, v := range list {
		n, ok := toFloat(v)
		if ok && n >= r.Min && n <= r.Max {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		return Absent
	}
	return NewList(kept...)
}

func valueInRange(r Range, v Value) Expression {
	n, ok := toFloat(v)
	if !ok || n < r.Min || n > r.Max {
		return Absent
	}
	return NewValue(v)
}

func intersectListList(a, b []Value) Expression {
	var kept []Value
	for _, v := range a {
		if containsValue(b, v) {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		return Absent
	}
	return NewList(kept...)
}

func valueInList(list []Value, v Value) Expression {
	if !containsValue(list, v) {
		return Absent
	}
	return NewValue(v)
}

func containsValue(list []Value, v Value) bool {
	for _, item := range list {
		if equalValue(item, v) {
			return true
		}
	}
	return false
}

func equalValue(a, b Value) bool {
	an, aok := toFloat(a)
	bn, bok := toFloat(b)
	if aok && bok {
		return an == bn
	}
	return a == b
}

func toFloat(v Value) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// SortedNames returns the names present in d, sorted — used for
// deterministic iteration in logging and serialization.
func SortedNames(d Dict) []string {
	names := make([]string, 0, len(d))
	for name := range d {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
