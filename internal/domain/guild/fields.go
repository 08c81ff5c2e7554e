package guild

import (
	"slices"
	"strings"

	"github.com/hata-go/hata/internal/domain/field"
)

// ══════════════════════════════════════════════════════════════════════════════
// GUILD BADGE FIELDS
// ══════════════════════════════════════════════════════════════════════════════

const (
	// BadgeTagLengthMax is the longest guild tag Discord accepts.
	BadgeTagLengthMax = 4
)

var (
	parseBadge = field.IconParser("badge")
	putBadge   = field.IconPutter("badge")

	parseBadgeEnabled = field.BoolParser("identity_enabled", false)
	putBadgeEnabled   = field.BoolPutter("identity_enabled", false)

	parseBadgeGuildID = field.EntityIDParser("identity_guild_id")
	putBadgeGuildID   = field.EntityIDOptionalPutter("identity_guild_id")

	parseBadgeTag    = field.NullableStringParser("tag")
	putBadgeTag      = field.NullableStringPutter("tag")
	validateBadgeTag = field.NullableStringValidator("tag", 0, BadgeTagLengthMax)

	validateBadgeGuildID = field.EntityIDValidator("guild_id")
)

// ══════════════════════════════════════════════════════════════════════════════
// GUILD FIELDS
// ══════════════════════════════════════════════════════════════════════════════

const (
	NameLengthMin        = 2
	NameLengthMax        = 100
	DescriptionLengthMax = 120
)

var (
	parseID = field.EntityIDParser("id")
	putID   = field.EntityIDPutter("id")

	parseName    = field.ForceStringParser("name")
	putName      = field.ForceStringPutter("name")
	validateName = field.ForceStringValidator("name", NameLengthMin, NameLengthMax)

	parseIcon = field.IconParser("icon")
	putIcon   = field.IconPutter("icon")

	parseDescription    = field.NullableStringParser("description")
	putDescription      = field.NullableStringPutter("description")
	validateDescription = field.NullableStringValidator("description", 0, DescriptionLengthMax)

	parseApproximateMemberCount = field.IntParser("approximate_member_count", 0)
	putApproximateMemberCount   = field.IntPutter("approximate_member_count", 0)

	parseApproximatePresenceCount = field.IntParser("approximate_presence_count", 0)
	putApproximatePresenceCount   = field.IntPutter("approximate_presence_count", 0)
)

func parseFeatures(data field.Data) []Feature {
	raw, ok := field.Array(data["features"])
	if !ok || len(raw) == 0 {
		return nil
	}
	features := make([]Feature, 0, len(raw))
	for _, item := range raw {
		if value, ok := item.(string); ok {
			features = append(features, Features.Get(value))
		}
	}
	return normalizeFeatures(features)
}

func putFeatures(features []Feature, data field.Data, defaults bool) field.Data {
	if len(features) == 0 && !defaults {
		return data
	}
	values := make([]any, len(features))
	for i, feature := range features {
		values[i] = feature.Value()
	}
	data["features"] = values
	return data
}

func normalizeFeatures(features []Feature) []Feature {
	if len(features) == 0 {
		return nil
	}
	slices.SortFunc(features, func(a, b Feature) int {
		return strings.Compare(a.Value(), b.Value())
	})
	return slices.Compact(features)
}
