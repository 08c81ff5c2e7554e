package team

import (
	"fmt"

	"github.com/hata-go/hata/internal/domain/field"
	"github.com/hata-go/hata/internal/domain/shared"
	"github.com/hata-go/hata/internal/domain/user"
)

// Member is a user's membership in a team.
type Member struct {
	Role   MembershipRole
	State  MembershipState
	TeamID shared.Snowflake
	User   *user.User
}

// MemberOption configures a Member.
type MemberOption func(*Member) error

// WithRole sets the member role.
func WithRole(role MembershipRole) MemberOption {
	return func(m *Member) error {
		role, err := validateRole(role)
		if err != nil {
			return err
		}
		m.Role = role
		return nil
	}
}

// WithState sets the membership state.
func WithState(state MembershipState) MemberOption {
	return func(m *Member) error {
		state, err := validateState(state)
		if err != nil {
			return err
		}
		m.State = state
		return nil
	}
}

// WithUser sets the member user.
func WithUser(u *user.User) MemberOption {
	return func(m *Member) error {
		m.User = u
		return nil
	}
}

// NewMember creates a team member.
func NewMember(opts ...MemberOption) (*Member, error) {
	m := &Member{Role: RoleNone, State: StateNone}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// MemberFromData parses a team member. The nested user goes through
// user.FromData and therefore the user cache.
func MemberFromData(data field.Data) (*Member, error) {
	u, err := parseMemberUser(data)
	if err != nil {
		return nil, fmt.Errorf("parse team member user: %w", err)
	}
	return &Member{
		Role:   parseRole(data),
		State:  parseState(data),
		TeamID: parseMemberTeamID(data),
		User:   u,
	}, nil
}

// ToData serializes the member.
func (m *Member) ToData(defaults, includeInternals bool) field.Data {
	data := field.Data{}
	putRole(m.Role, data, defaults)
	putState(m.State, data, defaults)
	putMemberUser(m.User, data, defaults, includeInternals)
	if includeInternals {
		putMemberTeamID(m.TeamID, data, defaults)
	}
	return data
}

// UserID returns the id of the member's user.
func (m *Member) UserID() shared.Snowflake {
	if m.User == nil {
		return 0
	}
	return m.User.ID
}

// Copy returns a copy of the member. The user is shared.
func (m *Member) Copy() *Member {
	c := *m
	return &c
}

// CopyWith copies the member and applies the given options.
func (m *Member) CopyWith(opts ...MemberOption) (*Member, error) {
	c := m.Copy()
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Equal reports whether two members hold the same values.
func (m *Member) Equal(other *Member) bool {
	if m == nil || other == nil {
		return m == other
	}
	return m.Role == other.Role &&
		m.State == other.State &&
		m.TeamID == other.TeamID &&
		m.User.Equal(other.User)
}

// Hash returns the member hash.
func (m *Member) Hash() uint64 {
	h := field.NewHasher().
		String(m.Role.Value()).
		Int(m.State.Value()).
		ID(m.TeamID)
	if m.User != nil {
		h.Uint64(m.User.Hash())
	}
	return h.Sum()
}

// String returns the member representation.
func (m *Member) String() string {
	return field.NewRepr("TeamMember").
		Field("user", m.User).
		Field("role", m.Role.Name()).
		Field("state", m.State.Name()).
		String()
}
