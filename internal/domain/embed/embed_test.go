package embed

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hata-go/hata/internal/domain/field"
	"github.com/hata-go/hata/internal/domain/shared"
)

func receivedPayload() field.Data {
	return field.Data{
		"type":        "rich",
		"title":       "Release",
		"description": "hata 1.0 is out",
		"url":         "https://example.com/release",
		"color":       float64(0x5865F2),
		"timestamp":   "2024-05-01T12:30:00.000000+00:00",
		"author": map[string]any{
			"name":           "hata",
			"icon_url":       "https://example.com/a.png",
			"proxy_icon_url": "https://media.discordapp.net/a.png",
		},
		"footer": map[string]any{"text": "footer"},
		"image": map[string]any{
			"url":       "https://example.com/i.png",
			"proxy_url": "https://media.discordapp.net/i.png",
			"height":    100,
			"width":     200,
		},
		"provider": map[string]any{"name": "Example", "url": "https://example.com"},
		"fields": []any{
			map[string]any{"name": "a", "value": "1", "inline": true},
			map[string]any{"name": "b", "value": "2"},
		},
	}
}

func TestFromData(t *testing.T) {
	e, err := FromData(receivedPayload())
	require.NoError(t, err)

	assert.Same(t, TypeRich, e.Type)
	assert.Equal(t, "Release", e.Title)
	assert.Equal(t, 0x5865F2, e.Color)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC), e.Timestamp)
	require.NotNil(t, e.Author)
	assert.Equal(t, "https://media.discordapp.net/a.png", e.Author.ProxyIconURL)
	require.NotNil(t, e.Image)
	assert.Equal(t, 200, e.Image.Width)
	require.NotNil(t, e.Provider)
	require.Len(t, e.Fields, 2)
	assert.True(t, e.Fields[0].Inline)
	assert.Nil(t, e.Video)
	assert.Nil(t, e.Thumbnail)
}

func TestToData_InternalsOnlyWhenAsked(t *testing.T) {
	e, err := FromData(receivedPayload())
	require.NoError(t, err)

	public := e.ToData(false, false)
	assert.NotContains(t, public, "provider")
	assert.NotContains(t, public, "type")
	assert.Equal(t, field.Data{"url": "https://example.com/i.png"}, public["image"])
	assert.NotContains(t, public["author"], "proxy_icon_url")
	assert.Equal(t, "2024-05-01T12:30:00.000000+00:00", public["timestamp"])

	internal := e.ToData(false, true)
	assert.Contains(t, internal, "provider")
	assert.Equal(t, field.Data{
		"url":       "https://example.com/i.png",
		"proxy_url": "https://media.discordapp.net/i.png",
		"height":    100,
		"width":     200,
	}, internal["image"])

	again, err := FromData(internal)
	require.NoError(t, err)
	assert.True(t, e.Equal(again))
	assert.Equal(t, e.Hash(), again.Hash())
}

func TestNew_Limits(t *testing.T) {
	_, err := New(WithTitle(strings.Repeat("x", TitleLengthMax+1)))
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)

	_, err = New(WithDescription(strings.Repeat("x", DescriptionLengthMax)))
	assert.NoError(t, err)

	_, err = New(WithColor(ColorMax + 1))
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)

	_, err = New(WithURL("ftp://example.com"))
	assert.ErrorIs(t, err, shared.ErrInvalidFormat)

	_, err = New(WithURL("attachment://image.png"))
	assert.NoError(t, err)

	_, err = NewField("", "value", false)
	assert.True(t, shared.IsValidation(err))

	_, err = NewField("name", strings.Repeat("x", FieldValueLengthMax+1), false)
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)

	_, err = NewFooter(WithFooterText(strings.Repeat("x", FooterTextLengthMax+1)))
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)

	_, err = NewAuthor(WithAuthorName(strings.Repeat("x", AuthorNameLengthMax+1)))
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)

	_, err = New(WithType(nil))
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestFieldsLimit(t *testing.T) {
	fields := make([]*Field, FieldsMax+1)
	for i := range fields {
		fields[i] = &Field{Name: "n", Value: "v"}
	}

	_, err := New(WithFields(fields...))
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)

	e, err := New(WithFields(fields[:FieldsMax]...))
	require.NoError(t, err)
	_, err = e.AddField("one", "too many", false)
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)
}

func TestLenAndValidate(t *testing.T) {
	author, err := NewAuthor(WithAuthorName("ab"))
	require.NoError(t, err)
	footer, err := NewFooter(WithFooterText("cde"))
	require.NoError(t, err)

	e, err := New(WithTitle("title"), WithAuthor(author), WithFooter(footer))
	require.NoError(t, err)
	e, err = e.AddField("fg", "h", false)
	require.NoError(t, err)

	assert.Equal(t, 5+2+3+3, e.Len())
	assert.NoError(t, e.Validate())

	long := strings.Repeat("x", DescriptionLengthMax)
	e, err = e.CopyWith(WithDescription(long))
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		e, err = e.AddField(strings.Repeat("n", FieldNameLengthMax), strings.Repeat("v", FieldValueLengthMax), false)
		require.NoError(t, err)
	}

	err = e.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrEmbedTooLong)
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)
}

func TestCopyIsDeep(t *testing.T) {
	e, err := FromData(receivedPayload())
	require.NoError(t, err)

	c := e.Copy()
	assert.True(t, e.Equal(c))
	assert.NotSame(t, e.Author, c.Author)
	assert.NotSame(t, e.Fields[0], c.Fields[0])

	c.Fields[0].Name = "changed"
	assert.Equal(t, "a", e.Fields[0].Name)
	assert.False(t, e.Equal(c))
}

func TestUnknownTypeSurvives(t *testing.T) {
	e, err := FromData(field.Data{"type": "hologram"})
	require.NoError(t, err)

	assert.Equal(t, "hologram", e.Type.Value())
	assert.Equal(t, "hologram", e.ToData(false, false)["type"])
}

func TestString(t *testing.T) {
	e, err := New(WithTitle("hi"))
	require.NoError(t, err)
	assert.Equal(t, `<Embed type="rich", title="hi", length=2>`, e.String())
}
