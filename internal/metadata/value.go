package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/bstardust/photo-metadata/internal/exif"
)

// ErrNotNumeric is returned when a numeric view is requested of a text or
// nested value.
var ErrNotNumeric = errors.New("metadata: value is not numeric")

// Kind identifies which payload of a Value is set
type Kind int

const (
	KindInt Kind = iota + 1
	KindFloat
	KindRational
	KindText
	KindNested
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindRational:
		return "rational"
	case KindText:
		return "text"
	case KindNested:
		return "nested"
	default:
		return "invalid"
	}
}

// Value is a resolved tag value: either a scalar (possibly multi-valued, as
// EXIF counts allow) or a nested tag mapping.
type Value struct {
	Kind      Kind
	Ints      []int64
	Floats    []float64
	Rationals []exif.Rational
	Text      string
	Nested    Metadata
}

// IntValue holds integer components
func IntValue(v ...int64) Value { return Value{Kind: KindInt, Ints: v} }

// FloatValue holds floating-point components
func FloatValue(v ...float64) Value { return Value{Kind: KindFloat, Floats: v} }

// RationalValue holds rational components
func RationalValue(v ...exif.Rational) Value { return Value{Kind: KindRational, Rationals: v} }

// TextValue holds decoded text
func TextValue(s string) Value { return Value{Kind: KindText, Text: s} }

// NestedValue holds a tag mapping such as GPSInfo
func NestedValue(m Metadata) Value { return Value{Kind: KindNested, Nested: m} }

// Len returns the number of scalar components, 1 for text and the number of
// entries for a nested value.
func (v Value) Len() int {
	switch v.Kind {
	case KindInt:
		return len(v.Ints)
	case KindFloat:
		return len(v.Floats)
	case KindRational:
		return len(v.Rationals)
	case KindText:
		return 1
	case KindNested:
		return len(v.Nested)
	}
	return 0
}

// Float64s returns the numeric components as floats. A rational with a zero
// denominator yields exif.ErrZeroDenominator.
func (v Value) Float64s() ([]float64, error) {
	switch v.Kind {
	case KindInt:
		out := make([]float64, len(v.Ints))
		for i, n := range v.Ints {
			out[i] = float64(n)
		}
		return out, nil
	case KindFloat:
		return append([]float64(nil), v.Floats...), nil
	case KindRational:
		out := make([]float64, len(v.Rationals))
		for i, r := range v.Rationals {
			f, err := r.Float64()
			if err != nil {
				return nil, err
			}
			out[i] = f
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotNumeric, v.Kind)
}

// String renders the value for display
func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		parts := make([]string, len(v.Ints))
		for i, n := range v.Ints {
			parts[i] = strconv.FormatInt(n, 10)
		}
		return joinScalars(parts)
	case KindFloat:
		parts := make([]string, len(v.Floats))
		for i, f := range v.Floats {
			parts[i] = strconv.FormatFloat(f, 'g', -1, 64)
		}
		return joinScalars(parts)
	case KindRational:
		parts := make([]string, len(v.Rationals))
		for i, r := range v.Rationals {
			parts[i] = r.String()
		}
		return joinScalars(parts)
	case KindText:
		return v.Text
	case KindNested:
		keys := v.Nested.Keys()
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + v.Nested[k].String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return ""
}

func joinScalars(parts []string) string {
	if len(parts) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// MarshalJSON encodes scalars as JSON scalars (arrays when multi-valued),
// rationals as "num/den" strings and nested values as objects.
func (v Value) MarshalJSON() ([]byte, error) {
	var out any
	switch v.Kind {
	case KindInt:
		out = scalarOrSlice(v.Ints)
	case KindFloat:
		fs := make([]any, len(v.Floats))
		for i, f := range v.Floats {
			if math.IsNaN(f) || math.IsInf(f, 0) {
				fs[i] = strconv.FormatFloat(f, 'g', -1, 64)
			} else {
				fs[i] = f
			}
		}
		out = scalarOrSlice(fs)
	case KindRational:
		rs := make([]string, len(v.Rationals))
		for i, r := range v.Rationals {
			rs[i] = r.String()
		}
		out = scalarOrSlice(rs)
	case KindText:
		out = v.Text
	case KindNested:
		out = map[string]Value(v.Nested)
	default:
		out = nil
	}
	return json.Marshal(out)
}

func scalarOrSlice[T any](vals []T) any {
	if len(vals) == 1 {
		return vals[0]
	}
	return vals
}

// Metadata maps canonical tag names to values. Iteration order is
// unspecified; use Keys for a stable order.
type Metadata map[string]Value

// Keys returns the tag names in sorted order
func (m Metadata) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value stored under name
func (m Metadata) Get(name string) (Value, bool) {
	v, ok := m[name]
	return v, ok
}

// Nested returns the mapping stored under name when it is a nested value
func (m Metadata) Nested(name string) (Metadata, bool) {
	v, ok := m[name]
	if !ok || v.Kind != KindNested {
		return nil, false
	}
	return v.Nested, true
}

// Text returns the text stored under name when it is a text value
func (m Metadata) Text(name string) (string, bool) {
	v, ok := m[name]
	if !ok || v.Kind != KindText {
		return "", false
	}
	return v.Text, true
}
