package team

import (
	"github.com/hata-go/hata/internal/domain/field"
	"github.com/hata-go/hata/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// TEAM MEMBER FIELDS
// ══════════════════════════════════════════════════════════════════════════════

var (
	parseRole    = field.PreinstancedParser("role", MembershipRoles, RoleNone)
	putRole      = field.PreinstancedPutter("role", RoleNone)
	validateRole = field.PreinstancedValidator("role", MembershipRoles)

	parseState    = field.PreinstancedParser("membership_state", MembershipStates, StateNone)
	putState      = field.PreinstancedPutter("membership_state", StateNone)
	validateState = field.PreinstancedValidator("state", MembershipStates)

	parseMemberUser = field.NestedParser("user", user.FromData)
	putMemberUser   = field.NestedPutter[*user.User]("user", true)

	parseMemberTeamID = field.EntityIDParser("team_id")
	putMemberTeamID   = field.EntityIDOptionalPutter("team_id")
)

// ══════════════════════════════════════════════════════════════════════════════
// TEAM FIELDS
// ══════════════════════════════════════════════════════════════════════════════

const (
	NameLengthMin = 1
	NameLengthMax = 100
)

var (
	parseID = field.EntityIDParser("id")
	putID   = field.EntityIDPutter("id")

	parseIcon = field.IconParser("icon")
	putIcon   = field.IconPutter("icon")

	parseName    = field.ForceStringParser("name")
	putName      = field.ForceStringPutter("name")
	validateName = field.ForceStringValidator("name", NameLengthMin, NameLengthMax)

	parseOwnerID    = field.EntityIDParser("owner_user_id")
	putOwnerID      = field.EntityIDOptionalPutter("owner_user_id")
	validateOwnerID = field.EntityIDValidator("owner_id")

	parseMembers = field.NestedArrayParser("members", MemberFromData)
	putMembers   = field.NestedArrayPutter[*Member]("members")
)
