package emoji

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hata-go/hata/internal/domain/field"
	"github.com/hata-go/hata/internal/domain/preinstanced"
)

// ReactionType tells standard reactions from super (burst) reactions.
type ReactionType = *preinstanced.Instance[int]

// ReactionTypes is the ReactionType registry.
var ReactionTypes = preinstanced.NewRegistry[int]("ReactionType")

// Reaction types.
var (
	ReactionTypeStandard = ReactionTypes.Register(0, "standard")
	ReactionTypeBurst    = ReactionTypes.Register(1, "burst")
)

const (
	NameLengthMin = 1
	NameLengthMax = 32
)

var (
	parseID = field.EntityIDParser("id")
	putID   = field.EntityIDOptionalPutter("id")

	parseName    = field.NullableStringParser("name")
	putName      = field.ForceStringPutter("name")
	validateName = field.ForceStringValidator("name", NameLengthMin, NameLengthMax)

	parseAnimated = field.BoolParser("animated", false)
	putAnimated   = field.BoolPutter("animated", false)

	validateID = field.EntityIDValidator("id")

	parseReactionEmoji = field.NestedParser("emoji", FromData)
	putReactionEmoji   = field.NestedPutter[*Emoji]("emoji", false)

	parseReactionType    = field.PreinstancedParser("type", ReactionTypes, ReactionTypeStandard)
	putReactionType      = field.PreinstancedPutter("type", ReactionTypeStandard)
	validateReactionType = field.PreinstancedValidator("type", ReactionTypes)

	parseCount = field.IntParser("count", 0)
	putCount   = field.IntPutter("count", 0)

	parseMe = field.BoolParser("me", false)
	putMe   = field.BoolPutter("me", false)

	parseMeBurst = field.BoolParser("me_burst", false)
	putMeBurst   = field.BoolPutter("me_burst", false)
)

// Per-type counts live in a nested "count_details" object.
func parseCountDetails(data field.Data) (burst, normal int) {
	details, ok := field.Object(data["count_details"])
	if !ok {
		return 0, 0
	}
	return field.IntParser("burst", 0)(details), field.IntParser("normal", 0)(details)
}

func putCountDetails(burst, normal int, data field.Data, defaults bool) field.Data {
	if !defaults && burst == 0 && normal == 0 {
		return data
	}
	data["count_details"] = field.Data{"burst": burst, "normal": normal}
	return data
}

// Burst colors travel as "#rrggbb" strings.
func parseBurstColors(data field.Data) []int {
	raw, ok := field.Array(data["burst_colors"])
	if !ok || len(raw) == 0 {
		return nil
	}
	colors := make([]int, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			continue
		}
		color, err := strconv.ParseUint(strings.TrimPrefix(s, "#"), 16, 32)
		if err != nil {
			continue
		}
		colors = append(colors, int(color))
	}
	return colors
}

func putBurstColors(colors []int, data field.Data, defaults bool) field.Data {
	if len(colors) == 0 && !defaults {
		return data
	}
	out := make([]any, len(colors))
	for i, color := range colors {
		out[i] = fmt.Sprintf("#%06x", color)
	}
	data["burst_colors"] = out
	return data
}
