package team

import "github.com/hata-go/hata/internal/domain/preinstanced"

// MembershipRole is the role of a team member.
type MembershipRole = *preinstanced.Instance[string]

// MembershipState is the invitation state of a team member.
type MembershipState = *preinstanced.Instance[int]

// Registries.
var (
	MembershipRoles  = preinstanced.NewRegistry[string]("TeamMembershipRole")
	MembershipStates = preinstanced.NewRegistry[int]("TeamMembershipState")
)

// Team membership roles. The owner role is never sent by Discord; it is
// derived from the team's owner id.
var (
	RoleNone      = MembershipRoles.Register("", "none")
	RoleAdmin     = MembershipRoles.Register("admin", "admin")
	RoleDeveloper = MembershipRoles.Register("developer", "developer")
	RoleReadOnly  = MembershipRoles.Register("read_only", "read only")
	RoleOwner     = MembershipRoles.Register("owner", "owner")
)

// Team membership states.
var (
	StateNone     = MembershipStates.Register(0, "none")
	StateInvited  = MembershipStates.Register(1, "invited")
	StateAccepted = MembershipStates.Register(2, "accepted")
)
