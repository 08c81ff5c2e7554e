package shared

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// ═══════════════════════════════════════════════════════════════════════════
// Icon (image hash)
// ═══════════════════════════════════════════════════════════════════════════

// CDNEndpoint is the base of every image url.
const CDNEndpoint = "https://cdn.discordapp.com"

// IconType tells whether an image is absent, static or animated.
type IconType uint8

const (
	IconTypeNone IconType = iota
	IconTypeStatic
	IconTypeAnimated
)

// String returns the name of the icon type.
func (t IconType) String() string {
	switch t {
	case IconTypeStatic:
		return "static"
	case IconTypeAnimated:
		return "animated"
	default:
		return "none"
	}
}

const animatedPrefix = "a_"

// Icon is a Discord image hash: a 128-bit value, animated hashes carry an "a_" prefix on the wire.
type Icon struct {
	Type IconType
	Hash [16]byte
}

// ParseIcon parses the wire form of an image hash. An empty string is no icon.
func ParseIcon(s string) (Icon, error) {
	if s == "" {
		return Icon{}, nil
	}

	iconType := IconTypeStatic
	if strings.HasPrefix(s, animatedPrefix) {
		iconType = IconTypeAnimated
		s = s[len(animatedPrefix):]
	}

	if len(s) != 32 {
		return Icon{}, WrapError("icon", "Parse", ErrInvalidFormat, "invalid image hash",
			fmt.Errorf("hash %q has %d characters, expected 32", s, len(s)))
	}

	var icon Icon
	if _, err := hex.Decode(icon.Hash[:], []byte(s)); err != nil {
		return Icon{}, WrapError("icon", "Parse", ErrInvalidFormat, "invalid image hash", err)
	}
	icon.Type = iconType
	return icon, nil
}

// MustParseIcon is ParseIcon that panics; for constants in tests and examples.
func MustParseIcon(s string) Icon {
	icon, err := ParseIcon(s)
	if err != nil {
		panic(err)
	}
	return icon
}

// IsZero reports whether there is no icon.
func (i Icon) IsZero() bool {
	return i.Type == IconTypeNone
}

// IsAnimated reports whether the icon is animated.
func (i Icon) IsAnimated() bool {
	return i.Type == IconTypeAnimated
}

// String returns the wire form, empty when there is no icon.
func (i Icon) String() string {
	switch i.Type {
	case IconTypeStatic:
		return hex.EncodeToString(i.Hash[:])
	case IconTypeAnimated:
		return animatedPrefix + hex.EncodeToString(i.Hash[:])
	default:
		return ""
	}
}

// URL returns the default CDN url of the icon, or "" when there is none.
func (i Icon) URL(prefix string, id Snowflake) string {
	u, _ := i.URLAs(prefix, id, "", 0)
	return u
}

// URLAs returns the CDN url with an explicit extension and size.
// An empty ext picks gif for animated and png otherwise; size 0 omits the size.
func (i Icon) URLAs(prefix string, id Snowflake, ext string, size int) (string, error) {
	if i.IsZero() {
		return "", nil
	}

	if size != 0 && (size < 16 || size > 4096 || size&(size-1) != 0) {
		return "", ErrInvalidIconSize
	}

	if ext == "" {
		ext = "png"
		if i.IsAnimated() {
			ext = "gif"
		}
	}

	url := fmt.Sprintf("%s/%s/%s/%s.%s", CDNEndpoint, prefix, id, i.String(), ext)
	if size != 0 {
		url = fmt.Sprintf("%s?size=%d", url, size)
	}
	return url, nil
}

// MarshalJSON encodes the icon as its wire string or null.
func (i Icon) MarshalJSON() ([]byte, error) {
	if i.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(i.String())
}

// UnmarshalJSON decodes the wire string or null.
func (i *Icon) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil {
		*i = Icon{}
		return nil
	}
	icon, err := ParseIcon(*s)
	if err != nil {
		return err
	}
	*i = icon
	return nil
}
