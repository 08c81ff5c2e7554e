package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hata-go/hata/internal/domain/field"
	"github.com/hata-go/hata/internal/domain/guild"
	"github.com/hata-go/hata/internal/domain/shared"
)

const avatarHash = "0123456789abcdef0123456789abcdef"

func userPayload() field.Data {
	return field.Data{
		"id":            "184287080202297345",
		"username":      "hata",
		"discriminator": "0",
		"global_name":   "Hata",
		"avatar":        avatarHash,
		"bot":           true,
		"public_flags":  float64(FlagVerifiedBot | FlagVerifiedDeveloper),
		"primary_guild": map[string]any{
			"identity_guild_id": "202",
			"identity_enabled":  true,
			"tag":               "HATA",
		},
	}
}

func TestFromData(t *testing.T) {
	t.Cleanup(Users.Purge)

	u, err := FromData(userPayload())
	require.NoError(t, err)

	assert.Equal(t, shared.Snowflake(184287080202297345), u.ID)
	assert.Equal(t, "hata", u.Name)
	assert.Equal(t, "Hata", u.DisplayName)
	assert.True(t, u.Bot)
	assert.True(t, u.Flags.Has(FlagVerifiedBot))
	assert.False(t, u.Flags.Has(FlagStaff))
	assert.Equal(t, []string{"verified_bot", "verified_developer"}, u.Flags.Names())
	require.NotNil(t, u.PrimaryGuildBadge)
	assert.Equal(t, "HATA", u.PrimaryGuildBadge.Tag)
	assert.False(t, u.Partial())

	cached, ok := Users.Get(u.ID)
	require.True(t, ok)
	assert.Same(t, u, cached)
}

func TestToData(t *testing.T) {
	t.Cleanup(Users.Purge)

	u, err := FromData(userPayload())
	require.NoError(t, err)

	public := u.ToData(false, false)
	assert.NotContains(t, public, "id")
	assert.NotContains(t, public, "bot")
	assert.Equal(t, "hata", public["username"])
	assert.Equal(t, "0", public["discriminator"])
	assert.Equal(t, avatarHash, public["avatar"])

	internal := u.ToData(false, true)
	assert.Equal(t, "184287080202297345", internal["id"])
	assert.Equal(t, true, internal["bot"])
	assert.Equal(t, uint64(FlagVerifiedBot|FlagVerifiedDeveloper), internal["public_flags"])
	assert.Equal(t, field.Data{
		"identity_guild_id": "202",
		"identity_enabled":  true,
		"tag":               "HATA",
	}, internal["primary_guild"])
}

func TestLegacyDiscriminator(t *testing.T) {
	t.Cleanup(Users.Purge)

	u, err := FromData(field.Data{"id": "10", "username": "old", "discriminator": "0042"})
	require.NoError(t, err)

	assert.Equal(t, 42, u.Discriminator)
	assert.Equal(t, "old#0042", u.FullName())
	assert.Equal(t, "0042", u.ToData(false, false)["discriminator"])
	assert.Equal(t, shared.CDNEndpoint+"/embed/avatars/2.png", u.AvatarURL())
}

func TestAvatarURL(t *testing.T) {
	u, err := New(WithAvatar(shared.MustParseIcon(avatarHash)))
	require.NoError(t, err)
	u.ID = 1

	assert.Equal(t, shared.CDNEndpoint+"/avatars/1/"+avatarHash+".png", u.AvatarURL())
	assert.Equal(t, "", u.BannerURL())
}

func TestUpdate_ReportsChanges(t *testing.T) {
	t.Cleanup(Users.Purge)

	_, err := FromData(userPayload())
	require.NoError(t, err)

	payload := userPayload()
	payload["global_name"] = "Renamed"
	u, changes, err := Update(payload)
	require.NoError(t, err)

	assert.Equal(t, "Renamed", u.DisplayName)
	assert.Equal(t, field.Data{"global_name": "Hata"}, changes)
}

func TestPrecreate(t *testing.T) {
	t.Cleanup(Users.Purge)

	u, err := Precreate(77, WithName("ghost"))
	require.NoError(t, err)
	assert.True(t, u.Partial())

	loaded, err := FromData(field.Data{"id": "77", "username": "real"})
	require.NoError(t, err)
	assert.False(t, loaded.Partial())

	cached, err := Precreate(77)
	require.NoError(t, err)
	assert.Same(t, loaded, cached)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(WithName("a"))
	assert.True(t, shared.IsValidation(err))

	_, err = New(WithDiscriminator(10000))
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)

	_, err = New(WithDisplayName(""))
	assert.NoError(t, err)
}

func TestCopyWith(t *testing.T) {
	badge, err := guild.NewBadge(guild.WithBadgeTag("AB"))
	require.NoError(t, err)

	u, err := New(WithName("hata"), WithPrimaryGuildBadge(badge))
	require.NoError(t, err)
	assert.NotSame(t, badge, u.PrimaryGuildBadge)

	c, err := u.CopyWith(WithBot(true))
	require.NoError(t, err)
	assert.False(t, u.Bot)
	assert.True(t, c.Bot)
	assert.False(t, u.Equal(c))
	assert.True(t, u.Equal(u.Copy()))
	assert.Equal(t, u.Hash(), u.Copy().Hash())
	assert.NotSame(t, u.PrimaryGuildBadge, u.Copy().PrimaryGuildBadge)
}

func TestMentionAndString(t *testing.T) {
	u, err := New(WithName("hata"), WithBot(true))
	require.NoError(t, err)
	u.ID = 5

	assert.Equal(t, "<@5>", u.Mention())
	assert.Equal(t, `<User id=5, name="hata", bot=true, partial=true>`, u.String())
	assert.Equal(t, "hata", u.DisplayNameOrName())
}
