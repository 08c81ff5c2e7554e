package shared

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// ═══════════════════════════════════════════════════════════════════════════
// Snowflake
// ═══════════════════════════════════════════════════════════════════════════

// DiscordEpoch is the first millisecond of 2015, the zero point of snowflakes.
const DiscordEpoch int64 = 1420070400000

// Snowflake is Discord's 64-bit unique identifier.
// The top 42 bits hold milliseconds since DiscordEpoch.
type Snowflake uint64

// ParseSnowflake parses the decimal wire form of a snowflake.
func ParseSnowflake(s string) (Snowflake, error) {
	if s == "" {
		return 0, WrapError("snowflake", "Parse", ErrInvalidID, "invalid snowflake", ErrEmptyValue)
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, WrapError("snowflake", "Parse", ErrInvalidID, "invalid snowflake", err)
	}
	return Snowflake(v), nil
}

// SnowflakeFromTime returns the smallest snowflake created at t.
// Useful as a pagination cursor.
func SnowflakeFromTime(t time.Time) Snowflake {
	ms := t.UnixMilli() - DiscordEpoch
	if ms < 0 {
		return 0
	}
	return Snowflake(uint64(ms) << 22)
}

// String returns the decimal representation.
func (s Snowflake) String() string {
	return strconv.FormatUint(uint64(s), 10)
}

// IsZero reports whether the snowflake is unset.
func (s Snowflake) IsZero() bool {
	return s == 0
}

// CreatedAt returns when the snowflake was generated.
func (s Snowflake) CreatedAt() time.Time {
	return time.UnixMilli(int64(s>>22) + DiscordEpoch).UTC()
}

// MarshalJSON encodes the snowflake as a JSON string.
func (s Snowflake) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(s.String())), nil
}

// UnmarshalJSON accepts a quoted decimal, a bare number or null.
func (s *Snowflake) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		if str == "" {
			*s = 0
			return nil
		}
		v, err := ParseSnowflake(str)
		if err != nil {
			return err
		}
		*s = v
		return nil
	}
	v, err := ParseSnowflake(string(data))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
