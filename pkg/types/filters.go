package types

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

type NumberRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func (r NumberRange) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// FilterValue is the value stored for one facet. The zero value is null.
type FilterValue struct {
	Kind   ValueKind
	Text   string
	List   []string
	Number float64
	Range  NumberRange
}

func Text(s string) FilterValue {
	return FilterValue{Kind: TextValue, Text: s}
}

func List(values ...string) FilterValue {
	return FilterValue{Kind: ListValue, List: values}
}

func Number(n float64) FilterValue {
	return FilterValue{Kind: NumberValue, Number: n}
}

func Between(min, max float64) FilterValue {
	return FilterValue{Kind: RangeValue, Range: NumberRange{Min: min, Max: max}}
}

// IsEmpty reports whether the value carries nothing worth storing.
func (v FilterValue) IsEmpty() bool {
	switch v.Kind {
	case TextValue:
		return strings.TrimSpace(v.Text) == ""
	case ListValue:
		return len(v.List) == 0
	case NumberValue, RangeValue:
		return false
	default:
		return true
	}
}

func (v FilterValue) Clone() FilterValue {
	if v.Kind == ListValue {
		v.List = slices.Clone(v.List)
	}
	return v
}

// Values returns the value as a list of strings.
func (v FilterValue) Values() []string {
	switch v.Kind {
	case TextValue:
		return []string{v.Text}
	case ListValue:
		return v.List
	case NumberValue:
		return []string{strconv.FormatFloat(v.Number, 'f', -1, 64)}
	default:
		return nil
	}
}

// First returns the first value, used where the backend only accepts one.
func (v FilterValue) First() (string, bool) {
	values := v.Values()
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}

func (v FilterValue) Equal(other FilterValue) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case TextValue:
		return v.Text == other.Text
	case ListValue:
		return slices.Equal(v.List, other.List)
	case NumberValue:
		return v.Number == other.Number
	case RangeValue:
		return v.Range == other.Range
	}
	return true
}

func (v FilterValue) String() string {
	switch v.Kind {
	case TextValue:
		return v.Text
	case ListValue:
		return strings.Join(v.List, ", ")
	case NumberValue:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case RangeValue:
		return fmt.Sprintf("%g-%g", v.Range.Min, v.Range.Max)
	}
	return ""
}

func (v FilterValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case TextValue:
		return json.Marshal(v.Text)
	case ListValue:
		if v.List == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.List)
	case NumberValue:
		return json.Marshal(v.Number)
	case RangeValue:
		return json.Marshal(v.Range)
	}
	return []byte("null"), nil
}

func (v *FilterValue) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch t := raw.(type) {
	case nil:
		*v = FilterValue{}
	case string:
		*v = Text(t)
	case float64:
		*v = Number(t)
	case []any:
		list := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("list value must hold strings, got %T", item)
			}
			list = append(list, s)
		}
		*v = List(list...)
	case map[string]any:
		min, minOk := t["min"].(float64)
		max, maxOk := t["max"].(float64)
		if !minOk || !maxOk || len(t) != 2 {
			return fmt.Errorf("range value must be {min,max}")
		}
		*v = Between(min, max)
	default:
		return fmt.Errorf("unsupported filter value %T", raw)
	}
	return nil
}

// Coerce converts a decoded value to the kind a facet expects.
func (v FilterValue) Coerce(spec FacetSpec) (FilterValue, error) {
	if v.IsEmpty() {
		return FilterValue{}, nil
	}
	if v.Kind == spec.Kind {
		return v, nil
	}
	switch spec.Kind {
	case ListValue:
		if v.Kind == TextValue {
			return List(v.Text), nil
		}
	case TextValue:
		if v.Kind == NumberValue {
			return Text(strconv.FormatFloat(v.Number, 'f', -1, 64)), nil
		}
	case NumberValue:
		if v.Kind == TextValue {
			n, err := strconv.ParseFloat(strings.TrimSpace(v.Text), 64)
			if err != nil {
				return FilterValue{}, fmt.Errorf("facet %s: %w", spec.Key, err)
			}
			return Number(n), nil
		}
	}
	return FilterValue{}, fmt.Errorf("facet %s expects %s, got %s", spec.Key, spec.Kind, v.Kind)
}

// FilterEntry is one stored facet selection.
type FilterEntry struct {
	Key   FacetKey    `json:"key"`
	Label string      `json:"label"`
	Value FilterValue `json:"value"`
}

// Filters is a plain snapshot of the active facet selections.
type Filters map[FacetKey]FilterValue

func (f Filters) Clone() Filters {
	ret := make(Filters, len(f))
	for k, v := range f {
		ret[k] = v.Clone()
	}
	return ret
}

func (f Filters) HasField(key FacetKey) bool {
	_, ok := f[key]
	return ok
}

func (f Filters) Number(key FacetKey) (float64, bool) {
	v, ok := f[key]
	if !ok || v.Kind != NumberValue {
		return 0, false
	}
	return v.Number, true
}

func (f Filters) Text(key FacetKey) (string, bool) {
	v, ok := f[key]
	if !ok || v.Kind != TextValue {
		return "", false
	}
	return v.Text, true
}

// RangeOf resolves a min/max key pair, falling back to the default bounds.
func (f Filters) RangeOf(minKey, maxKey FacetKey, defaults NumberRange) (NumberRange, bool) {
	min, hasMin := f.Number(minKey)
	max, hasMax := f.Number(maxKey)
	r := defaults
	if hasMin {
		r.Min = min
	}
	if hasMax {
		r.Max = max
	}
	return r, hasMin || hasMax
}
