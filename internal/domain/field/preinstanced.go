package field

import (
	"cmp"

	"github.com/hata-go/hata/internal/domain/preinstanced"
	"github.com/hata-go/hata/internal/domain/shared"
)

// PreinstancedParser reads an enum value and resolves it through registry.
// Absent or null reads as def.
func PreinstancedParser[V cmp.Ordered](key string, registry *preinstanced.Registry[V], def *preinstanced.Instance[V]) Parser[*preinstanced.Instance[V]] {
	return func(data Data) *preinstanced.Instance[V] {
		value, ok := coerce[V](data[key])
		if !ok {
			return def
		}
		return registry.Get(value)
	}
}

// PreinstancedPutter writes the value of an enum instance. A nil instance
// is written as def.
func PreinstancedPutter[V cmp.Ordered](key string, def *preinstanced.Instance[V]) Putter[*preinstanced.Instance[V]] {
	return func(value *preinstanced.Instance[V], data Data, defaults bool) Data {
		if value == nil {
			value = def
		}
		if defaults || value != def {
			data[key] = value.Value()
		}
		return data
	}
}

// PreinstancedValidator checks that an instance belongs to registry.
// Instances of another enumeration with the same value type are rejected.
func PreinstancedValidator[V cmp.Ordered](name string, registry *preinstanced.Registry[V]) func(*preinstanced.Instance[V]) (*preinstanced.Instance[V], error) {
	return func(value *preinstanced.Instance[V]) (*preinstanced.Instance[V], error) {
		if value == nil {
			return nil, invalid(name, shared.ErrInvalidInput, "%s instance required, got nil", registry.Kind())
		}
		if value.Kind() != registry.Kind() {
			return nil, invalid(name, shared.ErrInvalidInput, "%s instance required, got %s", registry.Kind(), value)
		}
		return registry.Get(value.Value()), nil
	}
}

func coerce[V cmp.Ordered](raw any) (V, bool) {
	var zero V
	if raw == nil {
		return zero, false
	}
	switch any(zero).(type) {
	case string:
		s, ok := raw.(string)
		if !ok {
			return zero, false
		}
		return any(s).(V), true
	case int:
		n, ok := Int64(raw)
		if !ok {
			return zero, false
		}
		return any(int(n)).(V), true
	case int64:
		n, ok := Int64(raw)
		if !ok {
			return zero, false
		}
		return any(n).(V), true
	case float64:
		n, ok := Int64(raw)
		if !ok {
			return zero, false
		}
		return any(float64(n)).(V), true
	default:
		return zero, false
	}
}
