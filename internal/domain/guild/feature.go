package guild

import "github.com/hata-go/hata/internal/domain/preinstanced"

// Feature is a guild feature flag as sent in the "features" array.
type Feature = *preinstanced.Instance[string]

// Features is the GuildFeature registry.
var Features = preinstanced.NewRegistry[string]("GuildFeature")

// Known guild features.
var (
	FeatureAnimatedBanner       = Features.Register("ANIMATED_BANNER", "animated banner")
	FeatureAnimatedIcon         = Features.Register("ANIMATED_ICON", "animated icon")
	FeatureBanner               = Features.Register("BANNER", "banner")
	FeatureCommunity            = Features.Register("COMMUNITY", "community")
	FeatureDiscoverable         = Features.Register("DISCOVERABLE", "discoverable")
	FeatureGuildTags            = Features.Register("GUILD_TAGS", "guild tags")
	FeatureInviteSplash         = Features.Register("INVITE_SPLASH", "invite splash")
	FeatureNews                 = Features.Register("NEWS", "news")
	FeaturePartnered            = Features.Register("PARTNERED", "partnered")
	FeatureRoleIcons            = Features.Register("ROLE_ICONS", "role icons")
	FeatureVanityURL            = Features.Register("VANITY_URL", "vanity url")
	FeatureVerified             = Features.Register("VERIFIED", "verified")
	FeatureWelcomeScreenEnabled = Features.Register("WELCOME_SCREEN_ENABLED", "welcome screen enabled")
)
