package scheduledevent

import (
	"github.com/hata-go/hata/internal/domain/field"
	"github.com/hata-go/hata/internal/domain/user"
)

const (
	NameLengthMin        = 1
	NameLengthMax        = 100
	DescriptionLengthMin = 1
	DescriptionLengthMax = 1000
	LocationLengthMax    = 100
)

var (
	parseID = field.EntityIDParser("id")
	putID   = field.EntityIDPutter("id")

	parseGuildID    = field.EntityIDParser("guild_id")
	putGuildID      = field.EntityIDOptionalPutter("guild_id")
	validateGuildID = field.EntityIDValidator("guild_id")

	parseChannelID    = field.EntityIDParser("channel_id")
	putChannelID      = field.EntityIDOptionalPutter("channel_id")
	validateChannelID = field.EntityIDValidator("channel_id")

	parseCreatorID = field.EntityIDParser("creator_id")
	putCreatorID   = field.EntityIDOptionalPutter("creator_id")

	parseCreator = field.NestedParser("creator", user.FromData)
	putCreator   = field.NestedPutter[*user.User]("creator", true)

	parseEntityID = field.EntityIDParser("entity_id")
	putEntityID   = field.EntityIDOptionalPutter("entity_id")

	parseName    = field.ForceStringParser("name")
	putName      = field.ForceStringPutter("name")
	validateName = field.ForceStringValidator("name", NameLengthMin, NameLengthMax)

	parseDescription    = field.NullableStringParser("description")
	putDescription      = field.NullableStringPutter("description")
	validateDescription = field.NullableStringValidator("description", DescriptionLengthMin, DescriptionLengthMax)

	parseStart = field.NullableDateParser("scheduled_start_time")
	putStart   = field.NullableDatePutter("scheduled_start_time")

	parseEnd = field.NullableDateParser("scheduled_end_time")
	putEnd   = field.NullableDatePutter("scheduled_end_time")

	parseEntityType    = field.PreinstancedParser("entity_type", EntityTypes, EntityTypeNone)
	putEntityType      = field.PreinstancedPutter("entity_type", EntityTypeNone)
	validateEntityType = field.PreinstancedValidator("entity_type", EntityTypes)

	parsePrivacyLevel    = field.PreinstancedParser("privacy_level", PrivacyLevels, PrivacyLevelGuildOnly)
	putPrivacyLevel      = field.PreinstancedPutter("privacy_level", PrivacyLevelGuildOnly)
	validatePrivacyLevel = field.PreinstancedValidator("privacy_level", PrivacyLevels)

	parseStatus    = field.PreinstancedParser("status", Statuses, StatusNone)
	putStatus      = field.PreinstancedPutter("status", StatusNone)
	validateStatus = field.PreinstancedValidator("status", Statuses)

	parseImage = field.IconParser("image")
	putImage   = field.IconPutter("image")

	parseUserCount = field.IntParser("user_count", 0)
	putUserCount   = field.IntPutter("user_count", 0)

	parseSKUIDs    = field.EntityIDArrayParser("sku_ids")
	putSKUIDs      = field.EntityIDArrayPutter("sku_ids")
	validateSKUIDs = field.EntityIDArrayValidator("sku_ids")

	validateLocation = field.NullableStringValidator("location", 1, LocationLengthMax)
)

// The location lives in "entity_metadata", which is null for channel events.
func parseLocation(data field.Data) string {
	metadata, ok := field.Object(data["entity_metadata"])
	if !ok {
		return ""
	}
	location, _ := metadata["location"].(string)
	return location
}

func putLocation(location string, data field.Data, defaults bool) field.Data {
	if location != "" {
		data["entity_metadata"] = field.Data{"location": location}
	} else if defaults {
		data["entity_metadata"] = nil
	}
	return data
}
