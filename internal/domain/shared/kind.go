package shared

// Kind names an entity type in storage keys and tables.
type Kind string

const (
	KindUser           Kind = "user"
	KindGuild          Kind = "guild"
	KindTeam           Kind = "team"
	KindScheduledEvent Kind = "scheduled_event"
)

// String returns the kind as written in keys.
func (k Kind) String() string {
	return string(k)
}
