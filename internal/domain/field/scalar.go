package field

import (
	"time"
	"unicode/utf8"

	"github.com/hata-go/hata/internal/domain/shared"
)

// Parser reads one field from a payload.
type Parser[T any] func(data Data) T

// Putter writes one field into a payload. Fields equal to their default are
// only written when defaults is set.
type Putter[T any] func(value T, data Data, defaults bool) Data

// ══════════════════════════════════════════════════════════════════════════════
// BOOL
// ══════════════════════════════════════════════════════════════════════════════

// BoolParser reads a boolean, falling back to def when absent or null.
func BoolParser(key string, def bool) Parser[bool] {
	return func(data Data) bool {
		if v, ok := data[key].(bool); ok {
			return v
		}
		return def
	}
}

// BoolPutter writes a boolean.
func BoolPutter(key string, def bool) Putter[bool] {
	return func(value bool, data Data, defaults bool) Data {
		if defaults || value != def {
			data[key] = value
		}
		return data
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// STRING
// ══════════════════════════════════════════════════════════════════════════════

// NullableStringParser reads a string that Discord may send as null or omit.
// Both map to "".
func NullableStringParser(key string) Parser[string] {
	return func(data Data) string {
		if v, ok := data[key].(string); ok {
			return v
		}
		return ""
	}
}

// NullableStringPutter writes a string, or null when empty.
func NullableStringPutter(key string) Putter[string] {
	return func(value string, data Data, defaults bool) Data {
		if value != "" {
			data[key] = value
		} else if defaults {
			data[key] = nil
		}
		return data
	}
}

// NullableStringValidator accepts "" or a string within [min, max] characters.
func NullableStringValidator(name string, min, max int) func(string) (string, error) {
	return func(value string) (string, error) {
		if value == "" {
			return "", nil
		}
		return checkLength(name, value, min, max)
	}
}

// ForceStringParser reads a string that is always present on the wire.
func ForceStringParser(key string) Parser[string] {
	return NullableStringParser(key)
}

// ForceStringPutter always writes the string, even when empty.
func ForceStringPutter(key string) Putter[string] {
	return func(value string, data Data, defaults bool) Data {
		data[key] = value
		return data
	}
}

// ForceStringValidator requires a string within [min, max] characters.
func ForceStringValidator(name string, min, max int) func(string) (string, error) {
	return func(value string) (string, error) {
		return checkLength(name, value, min, max)
	}
}

func checkLength(name, value string, min, max int) (string, error) {
	length := utf8.RuneCountInString(value)
	if length < min {
		return "", invalid(name, shared.ErrValueOutOfRange,
			"length must be >= %d, got %d; value=%q", min, length, value)
	}
	if max > 0 && length > max {
		return "", invalid(name, shared.ErrValueOutOfRange,
			"length must be <= %d, got %d; value=%q", max, length, value)
	}
	return value, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// INT
// ══════════════════════════════════════════════════════════════════════════════

// IntParser reads an integer, falling back to def.
func IntParser(key string, def int) Parser[int] {
	return func(data Data) int {
		if v, ok := Int64(data[key]); ok {
			return int(v)
		}
		return def
	}
}

// IntPutter writes an integer.
func IntPutter(key string, def int) Putter[int] {
	return func(value int, data Data, defaults bool) Data {
		if defaults || value != def {
			data[key] = value
		}
		return data
	}
}

// NullableIntParser reads an integer that may be null; null reads as 0.
func NullableIntParser(key string) Parser[int] {
	return IntParser(key, 0)
}

// NullableIntPutter writes an integer, or null when 0.
func NullableIntPutter(key string) Putter[int] {
	return func(value int, data Data, defaults bool) Data {
		if value != 0 {
			data[key] = value
		} else if defaults {
			data[key] = nil
		}
		return data
	}
}

// IntConditionalValidator accepts integers in [lower, upper].
func IntConditionalValidator(name string, lower, upper int) func(int) (int, error) {
	return func(value int) (int, error) {
		if value < lower || value > upper {
			return 0, invalid(name, shared.ErrValueOutOfRange,
				"must be in [%d, %d], got %d", lower, upper, value)
		}
		return value, nil
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// FLAGS
// ══════════════════════════════════════════════════════════════════════════════

// Flag is a bitfield stored as an integer on the wire.
type Flag interface {
	~uint64
}

// FlagParser reads a bitfield; absent reads as 0.
func FlagParser[F Flag](key string) Parser[F] {
	return func(data Data) F {
		if v, ok := Uint64(data[key]); ok {
			return F(v)
		}
		return 0
	}
}

// FlagPutter writes a bitfield.
func FlagPutter[F Flag](key string) Putter[F] {
	return func(value F, data Data, defaults bool) Data {
		if defaults || value != 0 {
			data[key] = uint64(value)
		}
		return data
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// TIMESTAMP
// ══════════════════════════════════════════════════════════════════════════════

// TimestampLayout is the ISO 8601 layout Discord sends and accepts.
const TimestampLayout = "2006-01-02T15:04:05.000000+00:00"

// ParseTimestamp parses a Discord timestamp into UTC.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// FormatTimestamp formats t as a Discord timestamp.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// NullableDateParser reads an ISO 8601 timestamp; absent or malformed reads as zero.
func NullableDateParser(key string) Parser[time.Time] {
	return func(data Data) time.Time {
		s, ok := data[key].(string)
		if !ok || s == "" {
			return time.Time{}
		}
		t, err := ParseTimestamp(s)
		if err != nil {
			return time.Time{}
		}
		return t
	}
}

// NullableDatePutter writes an ISO 8601 timestamp, or null when zero.
func NullableDatePutter(key string) Putter[time.Time] {
	return func(value time.Time, data Data, defaults bool) Data {
		if !value.IsZero() {
			data[key] = FormatTimestamp(value)
		} else if defaults {
			data[key] = nil
		}
		return data
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ICON
// ══════════════════════════════════════════════════════════════════════════════

// IconParser reads an image hash; absent or malformed reads as no icon.
func IconParser(key string) Parser[shared.Icon] {
	return func(data Data) shared.Icon {
		s, ok := data[key].(string)
		if !ok {
			return shared.Icon{}
		}
		icon, err := shared.ParseIcon(s)
		if err != nil {
			return shared.Icon{}
		}
		return icon
	}
}

// IconPutter writes an image hash, or null when there is none.
func IconPutter(key string) Putter[shared.Icon] {
	return func(value shared.Icon, data Data, defaults bool) Data {
		if !value.IsZero() {
			data[key] = value.String()
		} else if defaults {
			data[key] = nil
		}
		return data
	}
}
