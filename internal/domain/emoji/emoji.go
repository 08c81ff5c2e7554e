// Package emoji models emojis and message reactions.
package emoji

import (
	"net/url"
	"strings"
	"time"

	"github.com/hata-go/hata/internal/domain/field"
	"github.com/hata-go/hata/internal/domain/shared"
)

// Emoji is either a unicode emoji (zero id) or a custom guild emoji.
type Emoji struct {
	ID       shared.Snowflake
	Animated bool
	Name     string
}

// Option configures an Emoji.
type Option func(*Emoji) error

// WithID sets the custom emoji id.
func WithID(id any) Option {
	return func(e *Emoji) error {
		id, err := validateID(id)
		if err != nil {
			return err
		}
		e.ID = id
		return nil
	}
}

// WithName sets the emoji name, or the emoji itself for unicode emojis.
func WithName(name string) Option {
	return func(e *Emoji) error {
		name, err := validateName(name)
		if err != nil {
			return err
		}
		e.Name = name
		return nil
	}
}

// WithAnimated marks a custom emoji as animated.
func WithAnimated(animated bool) Option {
	return func(e *Emoji) error {
		e.Animated = animated
		return nil
	}
}

// New creates an emoji.
func New(opts ...Option) (*Emoji, error) {
	e := &Emoji{}
	if err := e.apply(opts); err != nil {
		return nil, err
	}
	return e, nil
}

// Unicode returns the unicode emoji with the given value.
func Unicode(value string) *Emoji {
	return &Emoji{Name: value}
}

func (e *Emoji) apply(opts []Option) error {
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return err
		}
	}
	return nil
}

// FromData parses a partial emoji object.
func FromData(data field.Data) (*Emoji, error) {
	return &Emoji{
		ID:       parseID(data),
		Animated: parseAnimated(data),
		Name:     parseName(data),
	}, nil
}

// Parse reads the text form of an emoji: "<:name:id>", "<a:name:id>",
// "name:id" or a unicode emoji.
func Parse(text string) (*Emoji, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, shared.NewDomainError("emoji", "Parse", shared.ErrEmptyValue, "emoji text is empty")
	}

	animated := false
	if strings.HasPrefix(text, "<") && strings.HasSuffix(text, ">") {
		text = text[1 : len(text)-1]
		if rest, ok := strings.CutPrefix(text, "a:"); ok {
			animated = true
			text = rest
		} else {
			text = strings.TrimPrefix(text, ":")
		}
	}

	name, rawID, ok := strings.Cut(text, ":")
	if !ok {
		return Unicode(text), nil
	}
	id, err := shared.ParseSnowflake(rawID)
	if err != nil {
		return nil, shared.WrapError("emoji", "Parse", shared.ErrInvalidFormat, "invalid custom emoji id", err)
	}
	return &Emoji{ID: id, Animated: animated, Name: name}, nil
}

// ToData serializes the emoji.
func (e *Emoji) ToData(defaults, includeInternals bool) field.Data {
	data := field.Data{}
	putName(e.Name, data, defaults)
	if e.IsCustom() {
		putID(e.ID, data, defaults)
		putAnimated(e.Animated, data, defaults)
	} else if defaults {
		data["id"] = nil
	}
	return data
}

// IsCustom reports whether the emoji is a custom emoji.
func (e *Emoji) IsCustom() bool {
	return e.ID != 0
}

// IsUnicode reports whether the emoji is a unicode emoji.
func (e *Emoji) IsUnicode() bool {
	return e.ID == 0
}

// CreatedAt returns when a custom emoji was created; zero for unicode ones.
func (e *Emoji) CreatedAt() time.Time {
	if e.IsUnicode() {
		return time.Time{}
	}
	return e.ID.CreatedAt()
}

// AsReaction returns the form used in reaction endpoints, already escaped
// for use as a path segment.
func (e *Emoji) AsReaction() string {
	if e.IsUnicode() {
		return url.PathEscape(e.Name)
	}
	return url.PathEscape(e.Name) + ":" + e.ID.String()
}

// AsEmoji returns the message markup of the emoji.
func (e *Emoji) AsEmoji() string {
	if e.IsUnicode() {
		return e.Name
	}
	prefix := "<:"
	if e.Animated {
		prefix = "<a:"
	}
	return prefix + e.Name + ":" + e.ID.String() + ">"
}

// URL returns the CDN url of a custom emoji, or "" for unicode ones.
func (e *Emoji) URL() string {
	if e.IsUnicode() {
		return ""
	}
	ext := "png"
	if e.Animated {
		ext = "gif"
	}
	return shared.CDNEndpoint + "/emojis/" + e.ID.String() + "." + ext
}

// Copy returns a copy of the emoji.
func (e *Emoji) Copy() *Emoji {
	c := *e
	return &c
}

// CopyWith copies the emoji and applies the given options.
func (e *Emoji) CopyWith(opts ...Option) (*Emoji, error) {
	c := e.Copy()
	if err := c.apply(opts); err != nil {
		return nil, err
	}
	return c, nil
}

// Equal reports whether two emojis are the same. Custom emojis compare by
// id, unicode ones by value.
func (e *Emoji) Equal(other *Emoji) bool {
	if e == nil || other == nil {
		return e == other
	}
	if e.IsCustom() || other.IsCustom() {
		return e.ID == other.ID
	}
	return e.Name == other.Name
}

// Hash returns the emoji hash.
func (e *Emoji) Hash() uint64 {
	if e.IsCustom() {
		return uint64(e.ID)
	}
	return field.NewHasher().String(e.Name).Sum()
}

// String returns the emoji representation.
func (e *Emoji) String() string {
	return field.NewRepr("Emoji").
		FieldIf(e.IsCustom(), "id", e.ID).
		Field("name", e.Name).
		FieldIf(e.Animated, "animated", true).
		String()
}
