package embed

import (
	"net/url"

	"github.com/hata-go/hata/internal/domain/field"
	"github.com/hata-go/hata/internal/domain/preinstanced"
	"github.com/hata-go/hata/internal/domain/shared"
)

// Type is the embed type.
type Type = *preinstanced.Instance[string]

// Types is the EmbedType registry.
var Types = preinstanced.NewRegistry[string]("EmbedType")

// Embed types.
var (
	TypeRich                  = Types.Register("rich", "rich")
	TypeImage                 = Types.Register("image", "image")
	TypeVideo                 = Types.Register("video", "video")
	TypeGifv                  = Types.Register("gifv", "gifv")
	TypeArticle               = Types.Register("article", "article")
	TypeLink                  = Types.Register("link", "link")
	TypeAutoModerationMessage = Types.Register("auto_moderation_message", "auto moderation message")
	TypePollResult            = Types.Register("poll_result", "poll result")
)

// Limits Discord enforces on embeds.
const (
	TitleLengthMax       = 256
	DescriptionLengthMax = 4096
	FieldNameLengthMax   = 256
	FieldValueLengthMax  = 1024
	FieldsMax            = 25
	FooterTextLengthMax  = 2048
	AuthorNameLengthMax  = 256
	ProviderNameMax      = 256
	URLLengthMax         = 2048
	ColorMax             = 0xFFFFFF
	TotalLengthMax       = 6000
)

// urlValidator accepts empty values and http, https or attachment urls.
func urlValidator(name string) func(string) (string, error) {
	checkLength := field.NullableStringValidator(name, 0, URLLengthMax)
	return func(value string) (string, error) {
		value, err := checkLength(value)
		if err != nil || value == "" {
			return value, err
		}
		parsed, err := url.Parse(value)
		if err != nil {
			return "", &field.ValidationError{Field: name, Reason: "not an url: " + err.Error(), Kind: shared.ErrInvalidFormat}
		}
		switch parsed.Scheme {
		case "http", "https", "attachment":
			return value, nil
		default:
			return "", &field.ValidationError{Field: name, Reason: "scheme must be http, https or attachment, got " + value, Kind: shared.ErrInvalidFormat}
		}
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// SHARED URL FIELDS
// ══════════════════════════════════════════════════════════════════════════════

var (
	parseURL    = field.NullableStringParser("url")
	putURL      = field.NullableStringPutter("url")
	validateURL = urlValidator("url")

	parseIconURL    = field.NullableStringParser("icon_url")
	putIconURL      = field.NullableStringPutter("icon_url")
	validateIconURL = urlValidator("icon_url")

	parseProxyIconURL = field.NullableStringParser("proxy_icon_url")
	putProxyIconURL   = field.NullableStringPutter("proxy_icon_url")

	parseProxyURL = field.NullableStringParser("proxy_url")
	putProxyURL   = field.NullableStringPutter("proxy_url")

	parseName = field.NullableStringParser("name")
	putName   = field.NullableStringPutter("name")
)

// ══════════════════════════════════════════════════════════════════════════════
// PART FIELDS
// ══════════════════════════════════════════════════════════════════════════════

var (
	validateAuthorName   = field.NullableStringValidator("name", 0, AuthorNameLengthMax)
	validateProviderName = field.NullableStringValidator("name", 0, ProviderNameMax)

	parseFooterText    = field.ForceStringParser("text")
	putFooterText      = field.ForceStringPutter("text")
	validateFooterText = field.ForceStringValidator("text", 1, FooterTextLengthMax)

	parseFieldName    = field.ForceStringParser("name")
	putFieldName      = field.ForceStringPutter("name")
	validateFieldName = field.ForceStringValidator("name", 1, FieldNameLengthMax)

	parseFieldValue    = field.ForceStringParser("value")
	putFieldValue      = field.ForceStringPutter("value")
	validateFieldValue = field.ForceStringValidator("value", 1, FieldValueLengthMax)

	parseFieldInline = field.BoolParser("inline", false)
	putFieldInline   = field.BoolPutter("inline", false)

	parseHeight = field.IntParser("height", 0)
	putHeight   = field.IntPutter("height", 0)

	parseWidth = field.IntParser("width", 0)
	putWidth   = field.IntPutter("width", 0)
)

// ══════════════════════════════════════════════════════════════════════════════
// EMBED FIELDS
// ══════════════════════════════════════════════════════════════════════════════

var (
	parseTitle    = field.NullableStringParser("title")
	putTitle      = field.NullableStringPutter("title")
	validateTitle = field.NullableStringValidator("title", 0, TitleLengthMax)

	parseDescription    = field.NullableStringParser("description")
	putDescription      = field.NullableStringPutter("description")
	validateDescription = field.NullableStringValidator("description", 0, DescriptionLengthMax)

	parseType    = field.PreinstancedParser("type", Types, TypeRich)
	putType      = field.PreinstancedPutter("type", TypeRich)
	validateType = field.PreinstancedValidator("type", Types)

	parseTimestamp = field.NullableDateParser("timestamp")
	putTimestamp   = field.NullableDatePutter("timestamp")

	parseColor    = field.NullableIntParser("color")
	putColor      = field.NullableIntPutter("color")
	validateColor = field.IntConditionalValidator("color", 0, ColorMax)

	parseAuthor = field.NestedParser("author", AuthorFromData)
	putAuthor   = field.NestedPutter[*Author]("author", true)

	parseFooter = field.NestedParser("footer", FooterFromData)
	putFooter   = field.NestedPutter[*Footer]("footer", true)

	parseImage = field.NestedParser("image", ImageFromData)
	putImage   = field.NestedPutter[*Image]("image", true)

	parseThumbnail = field.NestedParser("thumbnail", ImageFromData)
	putThumbnail   = field.NestedPutter[*Image]("thumbnail", true)

	parseVideo = field.NestedParser("video", ImageFromData)
	putVideo   = field.NestedPutter[*Image]("video", true)

	parseProvider = field.NestedParser("provider", ProviderFromData)
	putProvider   = field.NestedPutter[*Provider]("provider", true)

	parseFields = field.NestedArrayParser("fields", FieldFromData)
	putFields   = field.NestedArrayPutter[*Field]("fields")
)
