// Package guild models Discord guilds as far as other entities reference
// them: the partial guild object and the guild tag badge.
package guild

import (
	"slices"
	"time"

	"github.com/hata-go/hata/internal/domain/field"
	"github.com/hata-go/hata/internal/domain/shared"
	"github.com/hata-go/hata/pkg/identitymap"
)

// Guilds is the process-wide guild cache.
var Guilds = identitymap.New[*Guild]("guilds", identitymap.DefaultCapacity)

// Guild is a partial guild.
type Guild struct {
	ID                       shared.Snowflake
	ApproximateMemberCount   int
	ApproximatePresenceCount int
	Description              string
	Features                 []Feature
	Icon                     shared.Icon
	Name                     string

	partial bool
}

// Option configures a Guild.
type Option func(*Guild) error

// WithName sets the guild name.
func WithName(name string) Option {
	return func(g *Guild) error {
		name, err := validateName(name)
		if err != nil {
			return err
		}
		g.Name = name
		return nil
	}
}

// WithDescription sets the guild description.
func WithDescription(description string) Option {
	return func(g *Guild) error {
		description, err := validateDescription(description)
		if err != nil {
			return err
		}
		g.Description = description
		return nil
	}
}

// WithIcon sets the guild icon.
func WithIcon(icon shared.Icon) Option {
	return func(g *Guild) error {
		g.Icon = icon
		return nil
	}
}

// WithFeatures sets the guild features.
func WithFeatures(features ...Feature) Option {
	return func(g *Guild) error {
		for _, feature := range features {
			if feature == nil || feature.Kind() != Features.Kind() {
				return shared.NewDomainError("guild", "WithFeatures", shared.ErrInvalidInput,
					"features must be GuildFeature instances")
			}
		}
		g.Features = normalizeFeatures(slices.Clone(features))
		return nil
	}
}

// New creates a partial guild that is not cached.
func New(opts ...Option) (*Guild, error) {
	g := &Guild{partial: true}
	if err := g.apply(opts); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Guild) apply(opts []Option) error {
	for _, opt := range opts {
		if err := opt(g); err != nil {
			return err
		}
	}
	return nil
}

// FromData parses a guild and stores it in Guilds, replacing any cached
// snapshot with the same id.
func FromData(data field.Data) (*Guild, error) {
	id := parseID(data)
	if id == 0 {
		return nil, shared.ErrMissingID
	}
	g := &Guild{ID: id}
	g.updateAttributes(data)
	Guilds.Upsert(id, g)
	return g, nil
}

// Update parses a guild payload and returns the new snapshot along with the
// old values of the fields that changed. A guild that was not cached yet
// reports no changes.
func Update(data field.Data) (*Guild, field.Data, error) {
	old, cached := Guilds.Peek(parseID(data))
	g, err := FromData(data)
	if err != nil {
		return nil, nil, err
	}
	if !cached {
		return g, field.Data{}, nil
	}
	return g, Difference(old, g), nil
}

// Difference returns the old value of every wire field that changed between
// two snapshots of the same guild.
func Difference(old, new *Guild) field.Data {
	return field.Diff(old.ToData(true, false), new.ToData(true, false))
}

// Precreate returns the cached guild with the given id, creating and caching
// a partial one when missing. Options only apply to newly created guilds.
func Precreate(id shared.Snowflake, opts ...Option) (*Guild, error) {
	if g, ok := Guilds.Get(id); ok {
		return g, nil
	}
	g := &Guild{ID: id, partial: true}
	if err := g.apply(opts); err != nil {
		return nil, err
	}
	g, _ = Guilds.GetOrCreate(id, func() *Guild { return g })
	return g, nil
}

func (g *Guild) updateAttributes(data field.Data) {
	g.ApproximateMemberCount = parseApproximateMemberCount(data)
	g.ApproximatePresenceCount = parseApproximatePresenceCount(data)
	g.Description = parseDescription(data)
	g.Features = parseFeatures(data)
	g.Icon = parseIcon(data)
	g.Name = parseName(data)
}

// ToData serializes the guild. The id and approximate counts are written
// only when includeInternals is set.
func (g *Guild) ToData(defaults, includeInternals bool) field.Data {
	data := field.Data{}
	putDescription(g.Description, data, defaults)
	putFeatures(g.Features, data, defaults)
	putIcon(g.Icon, data, defaults)
	putName(g.Name, data, defaults)
	if includeInternals {
		putID(g.ID, data, defaults)
		putApproximateMemberCount(g.ApproximateMemberCount, data, defaults)
		putApproximatePresenceCount(g.ApproximatePresenceCount, data, defaults)
	}
	return data
}

// Partial reports whether the guild was not received from Discord.
func (g *Guild) Partial() bool {
	return g.partial
}

// EntityID returns the guild id.
func (g *Guild) EntityID() shared.Snowflake {
	return g.ID
}

// CreatedAt returns when the guild was created.
func (g *Guild) CreatedAt() time.Time {
	return g.ID.CreatedAt()
}

// HasFeature reports whether the guild has the given feature.
func (g *Guild) HasFeature(feature Feature) bool {
	return slices.Contains(g.Features, feature)
}

// IconURL returns the url of the guild icon, or "" when it has none.
func (g *Guild) IconURL() string {
	return g.Icon.URL("icons", g.ID)
}

// Copy returns an uncached copy of the guild.
func (g *Guild) Copy() *Guild {
	c := *g
	c.Features = slices.Clone(g.Features)
	return &c
}

// CopyWith copies the guild and applies the given options.
func (g *Guild) CopyWith(opts ...Option) (*Guild, error) {
	c := g.Copy()
	if err := c.apply(opts); err != nil {
		return nil, err
	}
	return c, nil
}

// Equal reports whether two guilds hold the same values. Guilds with ids
// compare by id.
func (g *Guild) Equal(other *Guild) bool {
	if g == nil || other == nil {
		return g == other
	}
	if g.ID != 0 || other.ID != 0 {
		return g.ID == other.ID
	}
	return g.Name == other.Name &&
		g.Description == other.Description &&
		g.Icon == other.Icon &&
		slices.Equal(g.Features, other.Features)
}

// Hash returns the guild hash.
func (g *Guild) Hash() uint64 {
	if g.ID != 0 {
		return uint64(g.ID)
	}
	h := field.NewHasher().
		String(g.Name).
		String(g.Description).
		Icon(g.Icon)
	for _, feature := range g.Features {
		h.String(feature.Value())
	}
	return h.Sum()
}

// String returns the guild representation.
func (g *Guild) String() string {
	return field.NewRepr("Guild").
		FieldIf(g.ID != 0, "id", g.ID).
		Field("name", g.Name).
		FieldIf(g.partial, "partial", true).
		String()
}
