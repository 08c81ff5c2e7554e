// Package field implements the wire-field conventions shared by every entity.
//
// Each field of an entity is described by up to three functions keyed by its
// wire name: a parser reading it from a decoded payload, a putter writing it
// back, and a validator checking a value handed to a constructor. The
// functions are produced by the factories of this package so entities only
// declare which factory and which key they use.
package field

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
)

// Data is a decoded JSON object as sent or received by Discord.
type Data = map[string]any

// Marshaler is implemented by entities that serialize themselves to Data.
type Marshaler interface {
	ToData(defaults, includeInternals bool) Data
}

// Decode decodes a JSON object. Numbers are kept as json.Number so 64-bit
// values are not rounded.
func Decode(raw []byte) (Data, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var data Data
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	if data == nil {
		return nil, fmt.Errorf("decode payload: expected a JSON object")
	}
	return data, nil
}

// DecodeArray decodes a JSON array of objects.
func DecodeArray(raw []byte) ([]Data, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var items []Data
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("decode payload array: %w", err)
	}
	return items, nil
}

// Encode encodes Data as JSON.
func Encode(data Data) ([]byte, error) {
	return json.Marshal(data)
}

// ══════════════════════════════════════════════════════════════════════════════
// COERCION
// ══════════════════════════════════════════════════════════════════════════════

// Int64 coerces a decoded JSON value to int64.
func Int64(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return int64(f), true
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}

// Uint64 coerces a decoded JSON value to uint64.
func Uint64(v any) (uint64, bool) {
	switch n := v.(type) {
	case json.Number:
		u, err := strconv.ParseUint(n.String(), 10, 64)
		return u, err == nil
	case string:
		u, err := strconv.ParseUint(n, 10, 64)
		return u, err == nil
	case uint64:
		return n, true
	default:
		i, ok := Int64(v)
		if !ok || i < 0 {
			return 0, false
		}
		return uint64(i), true
	}
}

// Object returns v as Data when it is a JSON object.
func Object(v any) (Data, bool) {
	switch o := v.(type) {
	case map[string]any:
		return o, true
	default:
		return nil, false
	}
}

// Array returns v as a slice when it is a JSON array.
func Array(v any) ([]any, bool) {
	switch a := v.(type) {
	case []any:
		return a, true
	case []Data:
		out := make([]any, len(a))
		for i, item := range a {
			out[i] = item
		}
		return out, true
	default:
		return nil, false
	}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
