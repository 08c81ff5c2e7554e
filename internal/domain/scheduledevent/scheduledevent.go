// Package scheduledevent models guild scheduled events and keeps the
// process-wide scheduled event cache.
package scheduledevent

import (
	"fmt"
	"slices"
	"time"

	"github.com/hata-go/hata/internal/domain/field"
	"github.com/hata-go/hata/internal/domain/shared"
	"github.com/hata-go/hata/internal/domain/user"
	"github.com/hata-go/hata/pkg/identitymap"
)

// ScheduledEvents is the process-wide scheduled event cache.
var ScheduledEvents = identitymap.New[*ScheduledEvent]("scheduled_events", identitymap.DefaultCapacity)

// ScheduledEvent is an event scheduled in a guild.
type ScheduledEvent struct {
	ID           shared.Snowflake
	ChannelID    shared.Snowflake
	Creator      *user.User
	CreatorID    shared.Snowflake
	Description  string
	End          time.Time
	EntityID     shared.Snowflake
	EntityType   EntityType
	GuildID      shared.Snowflake
	Image        shared.Icon
	Location     string
	Name         string
	PrivacyLevel PrivacyLevel
	SKUIDs       []shared.Snowflake
	Start        time.Time
	Status       Status
	UserCount    int

	partial bool
}

// Option configures a ScheduledEvent.
type Option func(*ScheduledEvent) error

// WithName sets the event name.
func WithName(name string) Option {
	return func(e *ScheduledEvent) error {
		name, err := validateName(name)
		if err != nil {
			return err
		}
		e.Name = name
		return nil
	}
}

// WithDescription sets the event description.
func WithDescription(description string) Option {
	return func(e *ScheduledEvent) error {
		description, err := validateDescription(description)
		if err != nil {
			return err
		}
		e.Description = description
		return nil
	}
}

// WithGuild sets the guild. Accepts a snowflake, its string form or a guild.
func WithGuild(guild any) Option {
	return func(e *ScheduledEvent) error {
		id, err := validateGuildID(guild)
		if err != nil {
			return err
		}
		e.GuildID = id
		return nil
	}
}

// WithChannel sets the stage or voice channel of the event.
func WithChannel(channel any) Option {
	return func(e *ScheduledEvent) error {
		id, err := validateChannelID(channel)
		if err != nil {
			return err
		}
		e.ChannelID = id
		return nil
	}
}

// WithLocation sets the location of an external event.
func WithLocation(location string) Option {
	return func(e *ScheduledEvent) error {
		location, err := validateLocation(location)
		if err != nil {
			return err
		}
		e.Location = location
		return nil
	}
}

// WithStart sets the start time.
func WithStart(start time.Time) Option {
	return func(e *ScheduledEvent) error {
		e.Start = start.UTC()
		return nil
	}
}

// WithEnd sets the end time.
func WithEnd(end time.Time) Option {
	return func(e *ScheduledEvent) error {
		e.End = end.UTC()
		return nil
	}
}

// WithEntityType sets where the event takes place.
func WithEntityType(entityType EntityType) Option {
	return func(e *ScheduledEvent) error {
		entityType, err := validateEntityType(entityType)
		if err != nil {
			return err
		}
		e.EntityType = entityType
		return nil
	}
}

// WithPrivacyLevel sets who can see the event.
func WithPrivacyLevel(level PrivacyLevel) Option {
	return func(e *ScheduledEvent) error {
		level, err := validatePrivacyLevel(level)
		if err != nil {
			return err
		}
		e.PrivacyLevel = level
		return nil
	}
}

// WithStatus sets the status without checking transitions.
func WithStatus(status Status) Option {
	return func(e *ScheduledEvent) error {
		status, err := validateStatus(status)
		if err != nil {
			return err
		}
		e.Status = status
		return nil
	}
}

// WithImage sets the cover image.
func WithImage(image shared.Icon) Option {
	return func(e *ScheduledEvent) error {
		e.Image = image
		return nil
	}
}

// WithSKUIDs sets the SKUs linked to the event.
func WithSKUIDs(ids ...shared.Snowflake) Option {
	return func(e *ScheduledEvent) error {
		ids, err := validateSKUIDs(ids)
		if err != nil {
			return err
		}
		e.SKUIDs = ids
		return nil
	}
}

// New creates a guild-only scheduled event that is not cached.
func New(opts ...Option) (*ScheduledEvent, error) {
	e := &ScheduledEvent{
		EntityType:   EntityTypeNone,
		PrivacyLevel: PrivacyLevelGuildOnly,
		Status:       StatusNone,
		partial:      true,
	}
	if err := e.apply(opts); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *ScheduledEvent) apply(opts []Option) error {
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return err
		}
	}
	return nil
}

// FromData parses a scheduled event and stores it in ScheduledEvents,
// replacing any cached snapshot with the same id. The creator goes through
// the user cache.
func FromData(data field.Data) (*ScheduledEvent, error) {
	id := parseID(data)
	if id == 0 {
		return nil, shared.ErrMissingID
	}
	creator, err := parseCreator(data)
	if err != nil {
		return nil, fmt.Errorf("parse scheduled event creator: %w", err)
	}

	e := &ScheduledEvent{
		ID:           id,
		ChannelID:    parseChannelID(data),
		Creator:      creator,
		CreatorID:    parseCreatorID(data),
		Description:  parseDescription(data),
		End:          parseEnd(data),
		EntityID:     parseEntityID(data),
		EntityType:   parseEntityType(data),
		GuildID:      parseGuildID(data),
		Image:        parseImage(data),
		Location:     parseLocation(data),
		Name:         parseName(data),
		PrivacyLevel: parsePrivacyLevel(data),
		SKUIDs:       parseSKUIDs(data),
		Start:        parseStart(data),
		Status:       parseStatus(data),
		UserCount:    parseUserCount(data),
	}
	if e.CreatorID == 0 && creator != nil {
		e.CreatorID = creator.ID
	}
	ScheduledEvents.Upsert(id, e)
	return e, nil
}

// Update parses a scheduled event payload and returns the new snapshot along
// with the old values of the fields that changed.
func Update(data field.Data) (*ScheduledEvent, field.Data, error) {
	old, cached := ScheduledEvents.Peek(parseID(data))
	e, err := FromData(data)
	if err != nil {
		return nil, nil, err
	}
	if !cached {
		return e, field.Data{}, nil
	}
	return e, Difference(old, e), nil
}

// Difference returns the old value of every wire field that changed between
// two snapshots of the same event.
func Difference(old, new *ScheduledEvent) field.Data {
	return field.Diff(old.ToData(true, true), new.ToData(true, true))
}

// Precreate returns the cached event with the given id, creating and caching
// a partial one when missing.
func Precreate(id shared.Snowflake, opts ...Option) (*ScheduledEvent, error) {
	if e, ok := ScheduledEvents.Get(id); ok {
		return e, nil
	}
	e, err := New(opts...)
	if err != nil {
		return nil, err
	}
	e.ID = id
	e, _ = ScheduledEvents.GetOrCreate(id, func() *ScheduledEvent { return e })
	return e, nil
}

// ToData serializes the event. Ids, creator, status and user count are
// written only when includeInternals is set.
func (e *ScheduledEvent) ToData(defaults, includeInternals bool) field.Data {
	data := field.Data{}
	putChannelID(e.ChannelID, data, defaults)
	putDescription(e.Description, data, defaults)
	putEnd(e.End, data, defaults)
	putEntityType(e.EntityType, data, defaults)
	putImage(e.Image, data, defaults)
	putLocation(e.Location, data, defaults)
	putName(e.Name, data, defaults)
	putPrivacyLevel(e.PrivacyLevel, data, defaults)
	putStart(e.Start, data, defaults)
	if includeInternals {
		putID(e.ID, data, defaults)
		putCreator(e.Creator, data, defaults, includeInternals)
		putCreatorID(e.CreatorID, data, defaults)
		putEntityID(e.EntityID, data, defaults)
		putGuildID(e.GuildID, data, defaults)
		putSKUIDs(e.SKUIDs, data, defaults)
		putStatus(e.Status, data, defaults)
		putUserCount(e.UserCount, data, defaults)
	}
	return data
}

// CreateData is the request body for creating the event. Entity type and
// privacy level are required by Discord and always written.
func (e *ScheduledEvent) CreateData() field.Data {
	data := e.ToData(false, false)
	putEntityType(e.EntityType, data, true)
	putPrivacyLevel(e.PrivacyLevel, data, true)
	return data
}

// Validate checks the fields Discord requires for the event's entity type.
func (e *ScheduledEvent) Validate() error {
	if e.Name == "" {
		return &field.ValidationError{Field: "name", Reason: "is required", Kind: shared.ErrInvalidInput}
	}
	if e.Start.IsZero() {
		return &field.ValidationError{Field: "start", Reason: "is required", Kind: shared.ErrInvalidInput}
	}
	if !e.End.IsZero() && !e.End.After(e.Start) {
		return &field.ValidationError{Field: "end", Reason: "must be after the start", Kind: shared.ErrValueOutOfRange}
	}

	switch e.EntityType {
	case EntityTypeNone:
		return &field.ValidationError{Field: "entity_type", Reason: "is required", Kind: shared.ErrInvalidInput}
	case EntityTypeLocation:
		if e.Location == "" || e.End.IsZero() {
			return shared.ErrEventMissingLocation
		}
	case EntityTypeStage, EntityTypeVoice:
		if e.ChannelID == 0 {
			return &field.ValidationError{Field: "channel_id", Reason: "stage and voice events need a channel", Kind: shared.ErrInvalidInput}
		}
	}
	return nil
}

// Transition returns a copy of the event in the given status.
func (e *ScheduledEvent) Transition(to Status) (*ScheduledEvent, error) {
	if !CanTransition(e.Status, to) {
		return nil, shared.WrapError("scheduled_event", "Transition", shared.ErrStateTransition,
			fmt.Sprintf("%s -> %s", e.Status.Name(), to.Name()), shared.ErrEventTransition)
	}
	c := e.Copy()
	c.Status = to
	return c, nil
}

// Partial reports whether the event was not received from Discord.
func (e *ScheduledEvent) Partial() bool {
	return e.partial
}

// CreatedAt returns when the event was created.
func (e *ScheduledEvent) CreatedAt() time.Time {
	return e.ID.CreatedAt()
}

// ImageURL returns the cover image url, or "" when there is none.
func (e *ScheduledEvent) ImageURL() string {
	return e.Image.URL("guild-events", e.ID)
}

// URL returns the link that opens the event in the client.
func (e *ScheduledEvent) URL() string {
	return fmt.Sprintf("https://discord.com/events/%s/%s", e.GuildID, e.ID)
}

// Copy returns an uncached copy of the event.
func (e *ScheduledEvent) Copy() *ScheduledEvent {
	c := *e
	c.SKUIDs = slices.Clone(e.SKUIDs)
	return &c
}

// CopyWith copies the event and applies the given options.
func (e *ScheduledEvent) CopyWith(opts ...Option) (*ScheduledEvent, error) {
	c := e.Copy()
	if err := c.apply(opts); err != nil {
		return nil, err
	}
	return c, nil
}

// Equal reports whether two events are the same. Events with ids compare by
// id, others by their fields.
func (e *ScheduledEvent) Equal(other *ScheduledEvent) bool {
	if e == nil || other == nil {
		return e == other
	}
	if e.ID != 0 || other.ID != 0 {
		return e.ID == other.ID
	}
	return e.ChannelID == other.ChannelID &&
		e.CreatorID == other.CreatorID &&
		e.Description == other.Description &&
		e.End.Equal(other.End) &&
		e.EntityID == other.EntityID &&
		e.EntityType == other.EntityType &&
		e.GuildID == other.GuildID &&
		e.Image == other.Image &&
		e.Location == other.Location &&
		e.Name == other.Name &&
		e.PrivacyLevel == other.PrivacyLevel &&
		slices.Equal(e.SKUIDs, other.SKUIDs) &&
		e.Start.Equal(other.Start) &&
		e.Status == other.Status &&
		e.UserCount == other.UserCount
}

// Hash returns the event hash.
func (e *ScheduledEvent) Hash() uint64 {
	if e.ID != 0 {
		return uint64(e.ID)
	}
	h := field.NewHasher().
		ID(e.ChannelID).
		ID(e.CreatorID).
		String(e.Description).
		Time(e.End).
		ID(e.EntityID).
		Int(e.EntityType.Value()).
		ID(e.GuildID).
		Icon(e.Image).
		String(e.Location).
		String(e.Name).
		Int(e.PrivacyLevel.Value()).
		Time(e.Start).
		Int(e.Status.Value()).
		Int(e.UserCount)
	for _, id := range e.SKUIDs {
		h.ID(id)
	}
	return h.Sum()
}

// String returns the event representation.
func (e *ScheduledEvent) String() string {
	return field.NewRepr("ScheduledEvent").
		FieldIf(e.ID != 0, "id", e.ID).
		Field("name", e.Name).
		Field("status", e.Status.Name()).
		Field("entity_type", e.EntityType.Name()).
		String()
}
