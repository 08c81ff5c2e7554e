package team

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hata-go/hata/internal/domain/field"
	"github.com/hata-go/hata/internal/domain/shared"
	"github.com/hata-go/hata/internal/domain/user"
)

func teamPayload() field.Data {
	return field.Data{
		"id":            "500",
		"name":          "hata devs",
		"icon":          "0123456789abcdef0123456789abcdef",
		"owner_user_id": "1",
		"members": []any{
			map[string]any{
				"role":             "admin",
				"membership_state": 2,
				"team_id":          "500",
				"user":             map[string]any{"id": "1", "username": "owner"},
			},
			map[string]any{
				"role":             "developer",
				"membership_state": 1,
				"team_id":          "500",
				"user":             map[string]any{"id": "2", "username": "invitee"},
			},
			map[string]any{
				"role":             "support_staff",
				"membership_state": 2,
				"team_id":          "500",
				"user":             map[string]any{"id": "3", "username": "future"},
			},
		},
	}
}

func cleanup(t *testing.T) {
	t.Cleanup(func() {
		Teams.Purge()
		user.Users.Purge()
	})
}

func TestFromData(t *testing.T) {
	cleanup(t)

	team, err := FromData(teamPayload())
	require.NoError(t, err)

	assert.Equal(t, shared.Snowflake(500), team.ID)
	assert.Equal(t, "hata devs", team.Name)
	require.Len(t, team.Members, 3)
	assert.Same(t, RoleAdmin, team.Members[0].Role)
	assert.Same(t, StateAccepted, team.Members[0].State)

	cached, ok := Teams.Get(500)
	require.True(t, ok)
	assert.Same(t, team, cached)

	member, ok := user.Users.Get(2)
	require.True(t, ok)
	assert.Same(t, member, team.Members[1].User)
}

func TestUnknownRoleSurvives(t *testing.T) {
	cleanup(t)

	team, err := FromData(teamPayload())
	require.NoError(t, err)

	role := team.Members[2].Role
	assert.Equal(t, "support_staff", role.Value())
	assert.Equal(t, "UNDEFINED", role.Name())
	assert.Equal(t, "support_staff", team.Members[2].ToData(false, false)["role"])
}

func TestOwnerAndStates(t *testing.T) {
	cleanup(t)

	team, err := FromData(teamPayload())
	require.NoError(t, err)

	owner := team.Owner()
	require.NotNil(t, owner)
	assert.Equal(t, "owner", owner.Name)

	assert.Same(t, RoleOwner, team.Role(1))
	assert.Same(t, RoleDeveloper, team.Role(2))
	assert.Same(t, RoleNone, team.Role(99))

	accepted := team.Accepted()
	require.Len(t, accepted, 2)
	assert.Equal(t, shared.Snowflake(1), accepted[0].ID)

	invited := team.Invited()
	require.Len(t, invited, 1)
	assert.Equal(t, shared.Snowflake(2), invited[0].ID)
}

func TestOwnerPrecreated(t *testing.T) {
	cleanup(t)

	team, err := New(WithName("solo"), WithOwner("42"))
	require.NoError(t, err)

	owner := team.Owner()
	require.NotNil(t, owner)
	assert.True(t, owner.Partial())
	assert.Equal(t, shared.Snowflake(42), owner.ID)
}

func TestWithOwnerAcceptsUser(t *testing.T) {
	u, err := user.New(user.WithName("someone"))
	require.NoError(t, err)
	u.ID = 7

	team, err := New(WithOwner(u))
	require.NoError(t, err)
	assert.Equal(t, shared.Snowflake(7), team.OwnerID)

	_, err = New(WithOwner(3.5))
	assert.ErrorIs(t, err, shared.ErrInvalidID)
}

func TestToData(t *testing.T) {
	cleanup(t)

	team, err := FromData(teamPayload())
	require.NoError(t, err)

	data := team.ToData(false, false)
	assert.NotContains(t, data, "id")
	assert.Equal(t, "1", data["owner_user_id"])

	members, ok := data["members"].([]any)
	require.True(t, ok)
	require.Len(t, members, 3)
	first := members[0].(field.Data)
	assert.Equal(t, "admin", first["role"])
	assert.Equal(t, 2, first["membership_state"])
	assert.NotContains(t, first, "team_id")

	internal := team.ToData(false, true)
	assert.Equal(t, "500", internal["id"])
}

func TestDifference(t *testing.T) {
	cleanup(t)

	old, err := FromData(teamPayload())
	require.NoError(t, err)

	payload := teamPayload()
	payload["name"] = "renamed"
	updated, err := FromData(payload)
	require.NoError(t, err)

	assert.Equal(t, field.Data{"name": "hata devs"}, Difference(old, updated))
}

func TestMemberValidation(t *testing.T) {
	_, err := NewMember(WithRole(nil))
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = NewMember(WithState(StateAccepted), WithRole(RoleReadOnly))
	assert.NoError(t, err)
}

func TestCopyAndEqual(t *testing.T) {
	member, err := NewMember(WithRole(RoleAdmin), WithState(StateAccepted))
	require.NoError(t, err)

	team, err := New(WithName("team"), WithMembers(member))
	require.NoError(t, err)

	c := team.Copy()
	assert.True(t, team.Equal(c))
	assert.Equal(t, team.Hash(), c.Hash())
	assert.NotSame(t, team.Members[0], c.Members[0])

	renamed, err := team.CopyWith(WithName("other"))
	require.NoError(t, err)
	assert.False(t, team.Equal(renamed))
	assert.Equal(t, `<Team name="team", members=1>`, team.String())

	_, err = New(WithName(""))
	assert.True(t, shared.IsValidation(err))
}
