package scheduledevent

import "github.com/hata-go/hata/internal/domain/preinstanced"

// EntityType tells where a scheduled event takes place.
type EntityType = *preinstanced.Instance[int]

// PrivacyLevel tells who can see a scheduled event.
type PrivacyLevel = *preinstanced.Instance[int]

// Status is the life-cycle state of a scheduled event.
type Status = *preinstanced.Instance[int]

// Registries.
var (
	EntityTypes   = preinstanced.NewRegistry[int]("ScheduledEventEntityType")
	PrivacyLevels = preinstanced.NewRegistry[int]("PrivacyLevel")
	Statuses      = preinstanced.NewRegistry[int]("ScheduledEventStatus")
)

// Entity types.
var (
	EntityTypeNone     = EntityTypes.Register(0, "none")
	EntityTypeStage    = EntityTypes.Register(1, "stage")
	EntityTypeVoice    = EntityTypes.Register(2, "voice")
	EntityTypeLocation = EntityTypes.Register(3, "location")
)

// Privacy levels.
var (
	PrivacyLevelNone      = PrivacyLevels.Register(0, "none")
	PrivacyLevelPublic    = PrivacyLevels.Register(1, "public")
	PrivacyLevelGuildOnly = PrivacyLevels.Register(2, "guild only")
)

// Statuses.
var (
	StatusNone      = Statuses.Register(0, "none")
	StatusScheduled = Statuses.Register(1, "scheduled")
	StatusActive    = Statuses.Register(2, "active")
	StatusCompleted = Statuses.Register(3, "completed")
	StatusCancelled = Statuses.Register(4, "cancelled")
)

var transitions = map[Status][]Status{
	StatusScheduled: {StatusActive, StatusCancelled},
	StatusActive:    {StatusCompleted},
}

// CanTransition reports whether Discord allows moving an event from one
// status to another. Completed and cancelled events are final.
func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
