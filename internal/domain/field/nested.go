package field

// NestedParser reads a nested object with fromData. Absent or null yields
// the zero value of T and no error.
func NestedParser[T any](key string, fromData func(Data) (T, error)) func(Data) (T, error) {
	return func(data Data) (T, error) {
		var zero T
		object, ok := Object(data[key])
		if !ok {
			return zero, nil
		}
		return fromData(object)
	}
}

// NestedPutter writes a nested entity. A nil entity is written as null when
// defaults is set and nullable is true, and omitted otherwise.
func NestedPutter[T Marshaler](key string, nullable bool) func(value T, data Data, defaults, includeInternals bool) Data {
	return func(value T, data Data, defaults, includeInternals bool) Data {
		if isNil(value) {
			if defaults && nullable {
				data[key] = nil
			}
			return data
		}
		data[key] = value.ToData(defaults, includeInternals)
		return data
	}
}

// NestedArrayParser reads an array of nested objects. Empty reads as nil.
// Non-object items are skipped.
func NestedArrayParser[T any](key string, fromData func(Data) (T, error)) func(Data) ([]T, error) {
	return func(data Data) ([]T, error) {
		raw, ok := Array(data[key])
		if !ok || len(raw) == 0 {
			return nil, nil
		}
		out := make([]T, 0, len(raw))
		for _, item := range raw {
			object, ok := Object(item)
			if !ok {
				continue
			}
			value, err := fromData(object)
			if err != nil {
				return nil, err
			}
			out = append(out, value)
		}
		if len(out) == 0 {
			return nil, nil
		}
		return out, nil
	}
}

// NestedArrayPutter writes an array of nested entities.
func NestedArrayPutter[T Marshaler](key string) func(value []T, data Data, defaults, includeInternals bool) Data {
	return func(value []T, data Data, defaults, includeInternals bool) Data {
		if len(value) == 0 && !defaults {
			return data
		}
		out := make([]any, 0, len(value))
		for _, item := range value {
			if isNil(item) {
				continue
			}
			out = append(out, item.ToData(defaults, includeInternals))
		}
		data[key] = out
		return data
	}
}
