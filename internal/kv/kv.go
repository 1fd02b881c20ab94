// Package kv reads loosely typed key/value data such as decoded JSON: every
// accessor tolerates missing keys and mismatched numeric types and falls
// back to a caller-supplied default.
package kv

import (
	"encoding/json"
	"math"
	"strconv"
)

// Map is nested key/value data: strings, numbers, slices and maps only.
type Map map[string]any

// Float returns the numeric field key, or def when missing or malformed.
func (m Map) Float(key string, def float64) float64 {
	if f, ok := toFloat(m[key]); ok {
		return f
	}
	return def
}

// Int returns the integer field key, or def when missing or malformed.
// Fractional numbers are truncated.
func (m Map) Int(key string, def int) int {
	if f, ok := toFloat(m[key]); ok && math.Abs(f) < 1<<62 {
		return int(f)
	}
	return def
}

// Uint64 returns the unsigned field key. Decimal strings are preferred
// since 64-bit values do not survive float64 decoding.
func (m Map) Uint64(key string, def uint64) uint64 {
	switch v := m[key].(type) {
	case string:
		if u, err := strconv.ParseUint(v, 10, 64); err == nil {
			return u
		}
	case uint64:
		return v
	case json.Number:
		if u, err := strconv.ParseUint(v.String(), 10, 64); err == nil {
			return u
		}
	default:
		if f, ok := toFloat(v); ok && f >= 0 {
			return uint64(f)
		}
	}
	return def
}

// String returns the string field key, or def.
func (m Map) String(key, def string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return def
}

// Floats returns the numeric slice field key. Malformed elements become NaN
// so callers can replace them individually.
func (m Map) Floats(key string) ([]float64, bool) {
	switch v := m[key].(type) {
	case []float64:
		return v, true
	case []int:
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out, true
	case []any:
		out := make([]float64, len(v))
		for i, x := range v {
			f, ok := toFloat(x)
			if !ok {
				f = math.NaN()
			}
			out[i] = f
		}
		return out, true
	}
	return nil, false
}

// Ints returns the integer slice field key. Malformed elements become 0.
func (m Map) Ints(key string) ([]int, bool) {
	if v, ok := m[key].([]int); ok {
		return v, true
	}
	fs, ok := m.Floats(key)
	if !ok {
		return nil, false
	}
	out := make([]int, len(fs))
	for i, f := range fs {
		if !math.IsNaN(f) {
			out[i] = int(f)
		}
	}
	return out, true
}

// Maps returns the list-of-maps field key. Elements that are not maps
// decode as empty maps.
func (m Map) Maps(key string) ([]Map, bool) {
	switch v := m[key].(type) {
	case []Map:
		return v, true
	case []map[string]any:
		out := make([]Map, len(v))
		for i, e := range v {
			out[i] = e
		}
		return out, true
	case []any:
		out := make([]Map, len(v))
		for i, x := range v {
			switch e := x.(type) {
			case map[string]any:
				out[i] = e
			case Map:
				out[i] = e
			default:
				out[i] = Map{}
			}
		}
		return out, true
	}
	return nil, false
}

// toFloat converts any numeric representation to a finite float64.
func toFloat(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint64:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
