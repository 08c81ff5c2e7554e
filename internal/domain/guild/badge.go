package guild

import (
	"github.com/hata-go/hata/internal/domain/field"
	"github.com/hata-go/hata/internal/domain/shared"
)

// Badge is the guild tag a user shows next to their name
// (the "primary_guild" object of a user payload).
type Badge struct {
	Badge   shared.Icon
	Enabled bool
	GuildID shared.Snowflake
	Tag     string
}

// BadgeOption configures a Badge.
type BadgeOption func(*Badge) error

// WithBadgeIcon sets the badge image.
func WithBadgeIcon(icon shared.Icon) BadgeOption {
	return func(b *Badge) error {
		b.Badge = icon
		return nil
	}
}

// WithBadgeEnabled sets whether the user displays the tag.
func WithBadgeEnabled(enabled bool) BadgeOption {
	return func(b *Badge) error {
		b.Enabled = enabled
		return nil
	}
}

// WithBadgeGuild sets the guild the tag belongs to. Accepts a snowflake,
// its string form or anything with an ID.
func WithBadgeGuild(guild any) BadgeOption {
	return func(b *Badge) error {
		id, err := validateBadgeGuildID(guild)
		if err != nil {
			return err
		}
		b.GuildID = id
		return nil
	}
}

// WithBadgeTag sets the tag text.
func WithBadgeTag(tag string) BadgeOption {
	return func(b *Badge) error {
		tag, err := validateBadgeTag(tag)
		if err != nil {
			return err
		}
		b.Tag = tag
		return nil
	}
}

// NewBadge creates a guild badge.
func NewBadge(opts ...BadgeOption) (*Badge, error) {
	b := &Badge{}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// BadgeFromData parses a guild badge.
func BadgeFromData(data field.Data) (*Badge, error) {
	return &Badge{
		Badge:   parseBadge(data),
		Enabled: parseBadgeEnabled(data),
		GuildID: parseBadgeGuildID(data),
		Tag:     parseBadgeTag(data),
	}, nil
}

// ToData serializes the badge.
func (b *Badge) ToData(defaults, includeInternals bool) field.Data {
	data := field.Data{}
	putBadge(b.Badge, data, defaults)
	putBadgeEnabled(b.Enabled, data, defaults)
	putBadgeGuildID(b.GuildID, data, defaults)
	putBadgeTag(b.Tag, data, defaults)
	return data
}

// BadgeURL returns the url of the badge image.
func (b *Badge) BadgeURL() string {
	return b.Badge.URL("guild-tag-badges", b.GuildID)
}

// Copy returns a copy of the badge.
func (b *Badge) Copy() *Badge {
	c := *b
	return &c
}

// CopyWith copies the badge and applies the given options.
func (b *Badge) CopyWith(opts ...BadgeOption) (*Badge, error) {
	c := b.Copy()
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Equal reports whether two badges hold the same values.
func (b *Badge) Equal(other *Badge) bool {
	if b == nil || other == nil {
		return b == other
	}
	return *b == *other
}

// Hash returns the badge hash.
func (b *Badge) Hash() uint64 {
	return field.NewHasher().
		Icon(b.Badge).
		Bool(b.Enabled).
		ID(b.GuildID).
		String(b.Tag).
		Sum()
}

// String returns the badge representation.
func (b *Badge) String() string {
	return field.NewRepr("GuildBadge").
		Field("guild_id", b.GuildID).
		Field("tag", b.Tag).
		FieldIf(b.Enabled, "enabled", true).
		String()
}
