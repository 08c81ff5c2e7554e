// Package user models Discord users and keeps the process-wide user cache.
package user

import (
	"fmt"
	"time"

	"github.com/hata-go/hata/internal/domain/field"
	"github.com/hata-go/hata/internal/domain/guild"
	"github.com/hata-go/hata/internal/domain/shared"
	"github.com/hata-go/hata/pkg/identitymap"
)

// Users is the process-wide user cache.
var Users = identitymap.New[*User]("users", identitymap.DefaultCapacity)

// User is a Discord user.
type User struct {
	ID                shared.Snowflake
	Avatar            shared.Icon
	Banner            shared.Icon
	Bot               bool
	Discriminator     int
	DisplayName       string
	Flags             Flag
	Name              string
	PrimaryGuildBadge *guild.Badge

	partial bool
}

// Option configures a User.
type Option func(*User) error

// WithName sets the username.
func WithName(name string) Option {
	return func(u *User) error {
		name, err := validateName(name)
		if err != nil {
			return err
		}
		u.Name = name
		return nil
	}
}

// WithDisplayName sets the global display name.
func WithDisplayName(name string) Option {
	return func(u *User) error {
		name, err := validateDisplayName(name)
		if err != nil {
			return err
		}
		u.DisplayName = name
		return nil
	}
}

// WithDiscriminator sets the legacy discriminator.
func WithDiscriminator(discriminator int) Option {
	return func(u *User) error {
		discriminator, err := validateDiscriminator(discriminator)
		if err != nil {
			return err
		}
		u.Discriminator = discriminator
		return nil
	}
}

// WithAvatar sets the avatar.
func WithAvatar(avatar shared.Icon) Option {
	return func(u *User) error {
		u.Avatar = avatar
		return nil
	}
}

// WithBanner sets the banner.
func WithBanner(banner shared.Icon) Option {
	return func(u *User) error {
		u.Banner = banner
		return nil
	}
}

// WithBot marks the user as a bot account.
func WithBot(bot bool) Option {
	return func(u *User) error {
		u.Bot = bot
		return nil
	}
}

// WithFlags sets the public flags.
func WithFlags(flags Flag) Option {
	return func(u *User) error {
		u.Flags = flags
		return nil
	}
}

// WithPrimaryGuildBadge sets the displayed guild tag.
func WithPrimaryGuildBadge(badge *guild.Badge) Option {
	return func(u *User) error {
		if badge != nil {
			badge = badge.Copy()
		}
		u.PrimaryGuildBadge = badge
		return nil
	}
}

// New creates a user that is not cached.
func New(opts ...Option) (*User, error) {
	u := &User{partial: true}
	if err := u.apply(opts); err != nil {
		return nil, err
	}
	return u, nil
}

func (u *User) apply(opts []Option) error {
	for _, opt := range opts {
		if err := opt(u); err != nil {
			return err
		}
	}
	return nil
}

// FromData parses a user and stores it in Users, replacing any cached
// snapshot with the same id.
func FromData(data field.Data) (*User, error) {
	id := parseID(data)
	if id == 0 {
		return nil, shared.ErrMissingID
	}
	u := &User{ID: id}
	if err := u.updateAttributes(data); err != nil {
		return nil, err
	}
	Users.Upsert(id, u)
	return u, nil
}

// Update parses a user payload and returns the new snapshot along with the
// old values of the fields that changed.
func Update(data field.Data) (*User, field.Data, error) {
	old, cached := Users.Peek(parseID(data))
	u, err := FromData(data)
	if err != nil {
		return nil, nil, err
	}
	if !cached {
		return u, field.Data{}, nil
	}
	return u, Difference(old, u), nil
}

// Difference returns the old value of every wire field that changed between
// two snapshots of the same user.
func Difference(old, new *User) field.Data {
	return field.Diff(old.ToData(true, false), new.ToData(true, false))
}

// Precreate returns the cached user with the given id, creating and caching
// a partial one when missing.
func Precreate(id shared.Snowflake, opts ...Option) (*User, error) {
	if u, ok := Users.Get(id); ok {
		return u, nil
	}
	u := &User{ID: id, partial: true}
	if err := u.apply(opts); err != nil {
		return nil, err
	}
	u, _ = Users.GetOrCreate(id, func() *User { return u })
	return u, nil
}

func (u *User) updateAttributes(data field.Data) error {
	badge, err := parsePrimaryGuildBadge(data)
	if err != nil {
		return fmt.Errorf("parse primary guild: %w", err)
	}
	u.Avatar = parseAvatar(data)
	u.Banner = parseBanner(data)
	u.Bot = parseBot(data)
	u.Discriminator = parseDiscriminator(data)
	u.DisplayName = parseDisplayName(data)
	u.Flags = parseFlags(data)
	u.Name = parseName(data)
	u.PrimaryGuildBadge = badge
	return nil
}

// ToData serializes the user. The id, bot and public flags are written only
// when includeInternals is set.
func (u *User) ToData(defaults, includeInternals bool) field.Data {
	data := field.Data{}
	putAvatar(u.Avatar, data, defaults)
	putBanner(u.Banner, data, defaults)
	putDiscriminator(u.Discriminator, data, defaults)
	putDisplayName(u.DisplayName, data, defaults)
	putName(u.Name, data, defaults)
	putPrimaryGuildBadge(u.PrimaryGuildBadge, data, defaults, includeInternals)
	if includeInternals {
		putID(u.ID, data, defaults)
		putBot(u.Bot, data, defaults)
		putFlags(u.Flags, data, defaults)
	}
	return data
}

// Partial reports whether the user was not received from Discord.
func (u *User) Partial() bool {
	return u.partial
}

// EntityID returns the user id.
func (u *User) EntityID() shared.Snowflake {
	return u.ID
}

// CreatedAt returns when the account was created.
func (u *User) CreatedAt() time.Time {
	return u.ID.CreatedAt()
}

// Mention returns the mention markup of the user.
func (u *User) Mention() string {
	return "<@" + u.ID.String() + ">"
}

// FullName returns the username with the discriminator for legacy accounts.
func (u *User) FullName() string {
	if u.Discriminator == 0 {
		return u.Name
	}
	return fmt.Sprintf("%s#%04d", u.Name, u.Discriminator)
}

// DisplayNameOrName returns the display name, falling back to the username.
func (u *User) DisplayNameOrName() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Name
}

// AvatarURL returns the avatar url, or the default avatar when the user has
// none set.
func (u *User) AvatarURL() string {
	if url := u.Avatar.URL("avatars", u.ID); url != "" {
		return url
	}
	return u.DefaultAvatarURL()
}

// DefaultAvatarURL returns the url of the built-in avatar Discord assigns.
func (u *User) DefaultAvatarURL() string {
	var index uint64
	if u.Discriminator == 0 {
		index = (uint64(u.ID) >> 22) % 6
	} else {
		index = uint64(u.Discriminator % 5)
	}
	return fmt.Sprintf("%s/embed/avatars/%d.png", shared.CDNEndpoint, index)
}

// BannerURL returns the banner url, or "" when the user has none.
func (u *User) BannerURL() string {
	return u.Banner.URL("banners", u.ID)
}

// Copy returns an uncached copy of the user.
func (u *User) Copy() *User {
	c := *u
	if u.PrimaryGuildBadge != nil {
		c.PrimaryGuildBadge = u.PrimaryGuildBadge.Copy()
	}
	return &c
}

// CopyWith copies the user and applies the given options.
func (u *User) CopyWith(opts ...Option) (*User, error) {
	c := u.Copy()
	if err := c.apply(opts); err != nil {
		return nil, err
	}
	return c, nil
}

// Equal reports whether two users are the same. Users with ids compare by
// id, others by their fields.
func (u *User) Equal(other *User) bool {
	if u == nil || other == nil {
		return u == other
	}
	if u.ID != 0 || other.ID != 0 {
		return u.ID == other.ID
	}
	return u.Avatar == other.Avatar &&
		u.Banner == other.Banner &&
		u.Bot == other.Bot &&
		u.Discriminator == other.Discriminator &&
		u.DisplayName == other.DisplayName &&
		u.Flags == other.Flags &&
		u.Name == other.Name &&
		u.PrimaryGuildBadge.Equal(other.PrimaryGuildBadge)
}

// Hash returns the user hash.
func (u *User) Hash() uint64 {
	if u.ID != 0 {
		return uint64(u.ID)
	}
	h := field.NewHasher().
		Icon(u.Avatar).
		Icon(u.Banner).
		Bool(u.Bot).
		Int(u.Discriminator).
		String(u.DisplayName).
		Uint64(uint64(u.Flags)).
		String(u.Name)
	if u.PrimaryGuildBadge != nil {
		h.Uint64(u.PrimaryGuildBadge.Hash())
	}
	return h.Sum()
}

// String returns the user representation.
func (u *User) String() string {
	return field.NewRepr("User").
		FieldIf(u.ID != 0, "id", u.ID).
		Field("name", u.FullName()).
		FieldIf(u.Bot, "bot", true).
		FieldIf(u.partial, "partial", true).
		String()
}
