package transpiler

import (
	"fmt"
	"slices"
)

// Well-known PropertySet keys.
const (
	KeyLayout       = "layout"
	KeyFinalLayout  = "final_layout"
	KeySwapCount    = "swap_count"
	KeyIsSwapMapped = "is_swap_mapped"
	KeyDepth        = "depth"
	KeySize         = "size"
	KeyCountOps     = "count_ops"
	KeyFixedPoint   = "fixed_point_iterations"
)

// PropertySet is the key/value side channel shared by the passes of one
// run. Keys are added or overwritten, never removed.
type PropertySet struct {
	values map[string]any
	order  []string
}

// NewPropertySet returns an empty property set.
func NewPropertySet() *PropertySet {
	return &PropertySet{values: make(map[string]any)}
}

// Set stores v under key.
func (ps *PropertySet) Set(key string, v any) {
	if _, ok := ps.values[key]; !ok {
		ps.order = append(ps.order, key)
	}
	ps.values[key] = v
}

// Get returns the value under key.
func (ps *PropertySet) Get(key string) (any, bool) {
	v, ok := ps.values[key]
	return v, ok
}

// Has reports whether key is set.
func (ps *PropertySet) Has(key string) bool {
	_, ok := ps.values[key]
	return ok
}

// Keys returns the keys in first-set order.
func (ps *PropertySet) Keys() []string {
	return slices.Clone(ps.order)
}

// Select returns a new property set holding only the given keys that are
// present, in the order given.
func (ps *PropertySet) Select(keys ...string) *PropertySet {
	out := NewPropertySet()
	for _, k := range keys {
		if v, ok := ps.values[k]; ok {
			out.Set(k, v)
		}
	}
	return out
}

// Layout returns the initial layout, if one was chosen.
func (ps *PropertySet) Layout() (*Layout, bool) {
	return typed[*Layout](ps, KeyLayout)
}

// FinalLayout returns the virtual-to-physical mapping after routing.
func (ps *PropertySet) FinalLayout() (*Layout, bool) {
	return typed[*Layout](ps, KeyFinalLayout)
}

// Int returns an integer-valued property.
func (ps *PropertySet) Int(key string) (int, bool) {
	return typed[int](ps, key)
}

// Bool returns a boolean-valued property.
func (ps *PropertySet) Bool(key string) (bool, bool) {
	return typed[bool](ps, key)
}

func typed[T any](ps *PropertySet, key string) (T, bool) {
	v, ok := ps.values[key]
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// Export renders the properties as plain data for output and storage.
// Layouts become their virtual-to-physical slices.
func (ps *PropertySet) Export() map[string]any {
	out := make(map[string]any, len(ps.values))
	for k, v := range ps.values {
		switch val := v.(type) {
		case *Layout:
			out[k] = val.Mapping()
		case fmt.Stringer:
			out[k] = val.String()
		default:
			out[k] = val
		}
	}
	return out
}
