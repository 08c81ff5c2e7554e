package user

import (
	"fmt"

	"github.com/hata-go/hata/internal/domain/field"
	"github.com/hata-go/hata/internal/domain/guild"
)

const (
	NameLengthMin        = 2
	NameLengthMax        = 32
	DisplayNameLengthMin = 1
	DisplayNameLengthMax = 32
	DiscriminatorMax     = 9999
)

var (
	parseID = field.EntityIDParser("id")
	putID   = field.EntityIDPutter("id")

	parseName    = field.ForceStringParser("username")
	putName      = field.ForceStringPutter("username")
	validateName = field.ForceStringValidator("name", NameLengthMin, NameLengthMax)

	parseDisplayName    = field.NullableStringParser("global_name")
	putDisplayName      = field.NullableStringPutter("global_name")
	validateDisplayName = field.NullableStringValidator("display_name", DisplayNameLengthMin, DisplayNameLengthMax)

	validateDiscriminator = field.IntConditionalValidator("discriminator", 0, DiscriminatorMax)

	parseAvatar = field.IconParser("avatar")
	putAvatar   = field.IconPutter("avatar")

	parseBanner = field.IconParser("banner")
	putBanner   = field.IconPutter("banner")

	parseBot = field.BoolParser("bot", false)
	putBot   = field.BoolPutter("bot", false)

	parseFlags = field.FlagParser[Flag]("public_flags")
	putFlags   = field.FlagPutter[Flag]("public_flags")

	parsePrimaryGuildBadge = field.NestedParser("primary_guild", guild.BadgeFromData)
	putPrimaryGuildBadge   = field.NestedPutter[*guild.Badge]("primary_guild", true)
)

// The discriminator travels as a string ("0" for migrated usernames, zero
// padded to four digits otherwise).
func parseDiscriminator(data field.Data) int {
	if v, ok := field.Int64(data["discriminator"]); ok && v >= 0 && v <= DiscriminatorMax {
		return int(v)
	}
	return 0
}

func putDiscriminator(value int, data field.Data, defaults bool) field.Data {
	if value == 0 {
		data["discriminator"] = "0"
	} else {
		data["discriminator"] = fmt.Sprintf("%04d", value)
	}
	return data
}
