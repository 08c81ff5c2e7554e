package guild

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hata-go/hata/internal/domain/field"
	"github.com/hata-go/hata/internal/domain/shared"
)

const iconHash = "0123456789abcdef0123456789abcdef"

func TestBadge_FromDataToData(t *testing.T) {
	data := field.Data{
		"badge":             iconHash,
		"identity_enabled":  true,
		"identity_guild_id": "202",
		"tag":               "HATA",
	}

	badge, err := BadgeFromData(data)
	require.NoError(t, err)
	assert.Equal(t, shared.Snowflake(202), badge.GuildID)
	assert.True(t, badge.Enabled)
	assert.Equal(t, "HATA", badge.Tag)
	assert.Equal(t, data, badge.ToData(false, false))
	assert.Equal(t, shared.CDNEndpoint+"/guild-tag-badges/202/"+iconHash+".png", badge.BadgeURL())
}

func TestBadge_Defaults(t *testing.T) {
	badge, err := NewBadge()
	require.NoError(t, err)

	assert.Empty(t, badge.ToData(false, false))
	assert.Equal(t, field.Data{
		"badge":             nil,
		"identity_enabled":  false,
		"identity_guild_id": nil,
		"tag":               nil,
	}, badge.ToData(true, false))
}

func TestBadge_TagTooLong(t *testing.T) {
	_, err := NewBadge(WithBadgeTag("HATA!"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrValueOutOfRange))
}

func TestBadge_CopyWith(t *testing.T) {
	badge, err := NewBadge(WithBadgeGuild("202"), WithBadgeTag("AB"))
	require.NoError(t, err)

	changed, err := badge.CopyWith(WithBadgeTag("CD"))
	require.NoError(t, err)
	assert.Equal(t, "AB", badge.Tag)
	assert.Equal(t, "CD", changed.Tag)
	assert.False(t, badge.Equal(changed))
	assert.True(t, badge.Equal(badge.Copy()))
	assert.Equal(t, badge.Hash(), badge.Copy().Hash())
	assert.NotEqual(t, badge.Hash(), changed.Hash())
}

func TestGuild_FromDataCaches(t *testing.T) {
	t.Cleanup(Guilds.Purge)

	g, err := FromData(field.Data{
		"id":                       "303",
		"name":                     "hata",
		"icon":                     "a_" + iconHash,
		"features":                 []any{"VERIFIED", "COMMUNITY", "SOMETHING_NEW"},
		"approximate_member_count": 12,
	})
	require.NoError(t, err)

	cached, ok := Guilds.Get(303)
	require.True(t, ok)
	assert.Same(t, g, cached)
	assert.False(t, g.Partial())
	assert.Equal(t, 12, g.ApproximateMemberCount)
	assert.True(t, g.HasFeature(FeatureVerified))
	assert.Len(t, g.Features, 3)
	assert.Equal(t, "COMMUNITY", g.Features[0].Value())
	assert.Contains(t, g.IconURL(), ".gif")

	unknown, ok := Features.Lookup("SOMETHING_NEW")
	require.True(t, ok)
	assert.True(t, g.HasFeature(unknown))
}

func TestGuild_FromDataMissingID(t *testing.T) {
	_, err := FromData(field.Data{"name": "hata"})
	assert.ErrorIs(t, err, shared.ErrInvalidID)
}

func TestGuild_Update(t *testing.T) {
	t.Cleanup(Guilds.Purge)

	_, changes, err := Update(field.Data{"id": "1", "name": "before"})
	require.NoError(t, err)
	assert.Empty(t, changes)

	g, changes, err := Update(field.Data{"id": "1", "name": "after", "description": "new"})
	require.NoError(t, err)
	assert.Equal(t, "after", g.Name)
	assert.Equal(t, field.Data{"name": "before", "description": nil}, changes)
}

func TestGuild_Precreate(t *testing.T) {
	t.Cleanup(Guilds.Purge)

	g, err := Precreate(404, WithName("precreated"))
	require.NoError(t, err)
	assert.True(t, g.Partial())
	assert.Equal(t, "precreated", g.Name)

	again, err := Precreate(404, WithName("ignored"))
	require.NoError(t, err)
	assert.Same(t, g, again)
}

func TestGuild_ToDataInternals(t *testing.T) {
	g, err := New(WithName("hata"), WithFeatures(FeatureNews))
	require.NoError(t, err)
	g.ID = 5

	assert.Equal(t, field.Data{"name": "hata", "features": []any{"NEWS"}}, g.ToData(false, false))
	assert.Equal(t, "5", g.ToData(false, true)["id"])
}

func TestGuild_Validation(t *testing.T) {
	_, err := New(WithName("x"))
	assert.True(t, shared.IsValidation(err))

	_, err = New(WithFeatures(nil))
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestGuild_EqualAndHash(t *testing.T) {
	a, err := New(WithName("same"))
	require.NoError(t, err)
	b, err := New(WithName("same"))
	require.NoError(t, err)

	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Hash(), b.Hash())

	c, err := a.CopyWith(WithDescription("different"))
	require.NoError(t, err)
	assert.False(t, a.Equal(c))
	assert.Equal(t, `<Guild name="same", partial=true>`, a.String())
}
