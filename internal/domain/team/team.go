// Package team models application teams and their members and keeps the
// process-wide team cache.
package team

import (
	"fmt"
	"slices"
	"time"

	"github.com/hata-go/hata/internal/domain/field"
	"github.com/hata-go/hata/internal/domain/shared"
	"github.com/hata-go/hata/internal/domain/user"
	"github.com/hata-go/hata/pkg/identitymap"
)

// Teams is the process-wide team cache.
var Teams = identitymap.New[*Team]("teams", identitymap.DefaultCapacity)

// Team is the team owning an application.
type Team struct {
	ID      shared.Snowflake
	Icon    shared.Icon
	Members []*Member
	Name    string
	OwnerID shared.Snowflake

	partial bool
}

// Option configures a Team.
type Option func(*Team) error

// WithName sets the team name.
func WithName(name string) Option {
	return func(t *Team) error {
		name, err := validateName(name)
		if err != nil {
			return err
		}
		t.Name = name
		return nil
	}
}

// WithIcon sets the team icon.
func WithIcon(icon shared.Icon) Option {
	return func(t *Team) error {
		t.Icon = icon
		return nil
	}
}

// WithOwner sets the owner. Accepts a snowflake, its string form or a user.
func WithOwner(owner any) Option {
	return func(t *Team) error {
		id, err := validateOwnerID(owner)
		if err != nil {
			return err
		}
		t.OwnerID = id
		return nil
	}
}

// WithMembers sets the team members.
func WithMembers(members ...*Member) Option {
	return func(t *Team) error {
		for _, member := range members {
			if member == nil {
				return shared.NewDomainError("team", "WithMembers", shared.ErrInvalidInput,
					"members cannot contain nil")
			}
		}
		t.Members = slices.Clone(members)
		return nil
	}
}

// New creates a team that is not cached.
func New(opts ...Option) (*Team, error) {
	t := &Team{partial: true}
	if err := t.apply(opts); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Team) apply(opts []Option) error {
	for _, opt := range opts {
		if err := opt(t); err != nil {
			return err
		}
	}
	return nil
}

// FromData parses a team and stores it in Teams, replacing any cached
// snapshot with the same id.
func FromData(data field.Data) (*Team, error) {
	id := parseID(data)
	if id == 0 {
		return nil, shared.ErrMissingID
	}
	members, err := parseMembers(data)
	if err != nil {
		return nil, fmt.Errorf("parse team members: %w", err)
	}
	t := &Team{
		ID:      id,
		Icon:    parseIcon(data),
		Members: members,
		Name:    parseName(data),
		OwnerID: parseOwnerID(data),
	}
	Teams.Upsert(id, t)
	return t, nil
}

// Difference returns the old value of every wire field that changed between
// two snapshots of the same team.
func Difference(old, new *Team) field.Data {
	return field.Diff(old.ToData(true, false), new.ToData(true, false))
}

// Precreate returns the cached team with the given id, creating and caching
// a partial one when missing.
func Precreate(id shared.Snowflake, opts ...Option) (*Team, error) {
	if t, ok := Teams.Get(id); ok {
		return t, nil
	}
	t := &Team{ID: id, partial: true}
	if err := t.apply(opts); err != nil {
		return nil, err
	}
	t, _ = Teams.GetOrCreate(id, func() *Team { return t })
	return t, nil
}

// ToData serializes the team.
func (t *Team) ToData(defaults, includeInternals bool) field.Data {
	data := field.Data{}
	putIcon(t.Icon, data, defaults)
	putMembers(t.Members, data, defaults, includeInternals)
	putName(t.Name, data, defaults)
	putOwnerID(t.OwnerID, data, defaults)
	if includeInternals {
		putID(t.ID, data, defaults)
	}
	return data
}

// Partial reports whether the team was not received from Discord.
func (t *Team) Partial() bool {
	return t.partial
}

// EntityID returns the team id.
func (t *Team) EntityID() shared.Snowflake {
	return t.ID
}

// CreatedAt returns when the team was created.
func (t *Team) CreatedAt() time.Time {
	return t.ID.CreatedAt()
}

// IconURL returns the url of the team icon, or "" when it has none.
func (t *Team) IconURL() string {
	return t.Icon.URL("team-icons", t.ID)
}

// Owner returns the team owner. The user comes from the members, then from
// the user cache; an unknown owner is precreated.
func (t *Team) Owner() *user.User {
	if t.OwnerID == 0 {
		return nil
	}
	for _, member := range t.Members {
		if member.UserID() == t.OwnerID {
			return member.User
		}
	}
	owner, err := user.Precreate(t.OwnerID)
	if err != nil {
		return nil
	}
	return owner
}

// Role returns the role of the given user in the team. The owner always has
// RoleOwner; users that are not members have RoleNone.
func (t *Team) Role(userID shared.Snowflake) MembershipRole {
	if userID != 0 && userID == t.OwnerID {
		return RoleOwner
	}
	for _, member := range t.Members {
		if member.UserID() == userID {
			return member.Role
		}
	}
	return RoleNone
}

// Accepted returns the users who accepted their invitation.
func (t *Team) Accepted() []*user.User {
	return t.usersWithState(StateAccepted)
}

// Invited returns the users who have a pending invitation.
func (t *Team) Invited() []*user.User {
	return t.usersWithState(StateInvited)
}

func (t *Team) usersWithState(state MembershipState) []*user.User {
	var users []*user.User
	for _, member := range t.Members {
		if member.State == state && member.User != nil {
			users = append(users, member.User)
		}
	}
	return users
}

// Copy returns an uncached copy of the team. Members are copied.
func (t *Team) Copy() *Team {
	c := *t
	if t.Members != nil {
		c.Members = make([]*Member, len(t.Members))
		for i, member := range t.Members {
			c.Members[i] = member.Copy()
		}
	}
	return &c
}

// CopyWith copies the team and applies the given options.
func (t *Team) CopyWith(opts ...Option) (*Team, error) {
	c := t.Copy()
	if err := c.apply(opts); err != nil {
		return nil, err
	}
	return c, nil
}

// Equal reports whether two teams are the same. Teams with ids compare by
// id, others by their fields.
func (t *Team) Equal(other *Team) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.ID != 0 || other.ID != 0 {
		return t.ID == other.ID
	}
	return t.Icon == other.Icon &&
		t.Name == other.Name &&
		t.OwnerID == other.OwnerID &&
		slices.EqualFunc(t.Members, other.Members, (*Member).Equal)
}

// Hash returns the team hash.
func (t *Team) Hash() uint64 {
	if t.ID != 0 {
		return uint64(t.ID)
	}
	h := field.NewHasher().
		Icon(t.Icon).
		String(t.Name).
		ID(t.OwnerID)
	for _, member := range t.Members {
		h.Uint64(member.Hash())
	}
	return h.Sum()
}

// String returns the team representation.
func (t *Team) String() string {
	return field.NewRepr("Team").
		FieldIf(t.ID != 0, "id", t.ID).
		Field("name", t.Name).
		Field("members", len(t.Members)).
		String()
}
