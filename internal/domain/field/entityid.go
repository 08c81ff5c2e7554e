package field

import (
	"slices"

	"github.com/hata-go/hata/internal/domain/shared"
)

// Identifier is implemented by entities that carry a snowflake.
type Identifier interface {
	EntityID() shared.Snowflake
}

// EntityIDParser reads a snowflake; absent or malformed reads as 0.
func EntityIDParser(key string) Parser[shared.Snowflake] {
	return func(data Data) shared.Snowflake {
		if v, ok := Uint64(data[key]); ok {
			return shared.Snowflake(v)
		}
		return 0
	}
}

// EntityIDPutter always writes the snowflake as a decimal string.
func EntityIDPutter(key string) Putter[shared.Snowflake] {
	return func(value shared.Snowflake, data Data, defaults bool) Data {
		data[key] = value.String()
		return data
	}
}

// EntityIDOptionalPutter writes the snowflake, or null when it is 0.
func EntityIDOptionalPutter(key string) Putter[shared.Snowflake] {
	return func(value shared.Snowflake, data Data, defaults bool) Data {
		if value != 0 {
			data[key] = value.String()
		} else if defaults {
			data[key] = nil
		}
		return data
	}
}

// EntityIDValidator resolves a snowflake from an id, a decimal string or an
// entity implementing Identifier.
func EntityIDValidator(name string) func(any) (shared.Snowflake, error) {
	return func(value any) (shared.Snowflake, error) {
		switch v := value.(type) {
		case nil:
			return 0, nil
		case shared.Snowflake:
			return v, nil
		case Identifier:
			if isNil(v) {
				return 0, nil
			}
			return v.EntityID(), nil
		case uint64:
			return shared.Snowflake(v), nil
		case int:
			if v < 0 {
				return 0, invalid(name, shared.ErrInvalidID, "must be non-negative, got %d", v)
			}
			return shared.Snowflake(v), nil
		case int64:
			if v < 0 {
				return 0, invalid(name, shared.ErrInvalidID, "must be non-negative, got %d", v)
			}
			return shared.Snowflake(v), nil
		case string:
			id, err := shared.ParseSnowflake(v)
			if err != nil {
				return 0, invalid(name, shared.ErrInvalidID, "not a snowflake: %q", v)
			}
			return id, nil
		default:
			return 0, invalid(name, shared.ErrInvalidID, "can be a snowflake, string or entity, got %T", value)
		}
	}
}

// EntityIDArrayParser reads an array of snowflakes, sorted. Empty reads as nil.
func EntityIDArrayParser(key string) Parser[[]shared.Snowflake] {
	return func(data Data) []shared.Snowflake {
		raw, ok := Array(data[key])
		if !ok || len(raw) == 0 {
			return nil
		}
		ids := make([]shared.Snowflake, 0, len(raw))
		for _, item := range raw {
			if v, ok := Uint64(item); ok {
				ids = append(ids, shared.Snowflake(v))
			}
		}
		return normalizeIDs(ids)
	}
}

// EntityIDArrayPutter writes an array of snowflakes as strings.
func EntityIDArrayPutter(key string) Putter[[]shared.Snowflake] {
	return func(value []shared.Snowflake, data Data, defaults bool) Data {
		if len(value) == 0 && !defaults {
			return data
		}
		out := make([]any, len(value))
		for i, id := range value {
			out[i] = id.String()
		}
		data[key] = out
		return data
	}
}

// EntityIDArrayValidator deduplicates and sorts ids. Zero ids are rejected.
func EntityIDArrayValidator(name string) func([]shared.Snowflake) ([]shared.Snowflake, error) {
	return func(value []shared.Snowflake) ([]shared.Snowflake, error) {
		for _, id := range value {
			if id == 0 {
				return nil, invalid(name, shared.ErrInvalidID, "contains a zero snowflake")
			}
		}
		return normalizeIDs(slices.Clone(value)), nil
	}
}

func normalizeIDs(ids []shared.Snowflake) []shared.Snowflake {
	if len(ids) == 0 {
		return nil
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}
