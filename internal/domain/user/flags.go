package user

// Flag is the bitset of public user flags.
type Flag uint64

// Public user flags.
const (
	FlagStaff               Flag = 1 << 0
	FlagPartner             Flag = 1 << 1
	FlagHypesquad           Flag = 1 << 2
	FlagBugHunterLevel1     Flag = 1 << 3
	FlagHypesquadBravery    Flag = 1 << 6
	FlagHypesquadBrilliance Flag = 1 << 7
	FlagHypesquadBalance    Flag = 1 << 8
	FlagEarlySupporter      Flag = 1 << 9
	FlagTeamUser            Flag = 1 << 10
	FlagSystem              Flag = 1 << 12
	FlagBugHunterLevel2     Flag = 1 << 14
	FlagVerifiedBot         Flag = 1 << 16
	FlagVerifiedDeveloper   Flag = 1 << 17
	FlagCertifiedModerator  Flag = 1 << 18
	FlagBotHTTPInteractions Flag = 1 << 19
	FlagActiveDeveloper     Flag = 1 << 22
)

var flagNames = []struct {
	flag Flag
	name string
}{
	{FlagStaff, "staff"},
	{FlagPartner, "partner"},
	{FlagHypesquad, "hypesquad"},
	{FlagBugHunterLevel1, "bug_hunter_level_1"},
	{FlagHypesquadBravery, "hypesquad_bravery"},
	{FlagHypesquadBrilliance, "hypesquad_brilliance"},
	{FlagHypesquadBalance, "hypesquad_balance"},
	{FlagEarlySupporter, "early_supporter"},
	{FlagTeamUser, "team_user"},
	{FlagSystem, "system"},
	{FlagBugHunterLevel2, "bug_hunter_level_2"},
	{FlagVerifiedBot, "verified_bot"},
	{FlagVerifiedDeveloper, "verified_developer"},
	{FlagCertifiedModerator, "certified_moderator"},
	{FlagBotHTTPInteractions, "bot_http_interactions"},
	{FlagActiveDeveloper, "active_developer"},
}

// Has reports whether every bit of other is set.
func (f Flag) Has(other Flag) bool {
	return f&other == other
}

// Names returns the names of the known flags that are set.
func (f Flag) Names() []string {
	var names []string
	for _, entry := range flagNames {
		if f.Has(entry.flag) {
			names = append(names, entry.name)
		}
	}
	return names
}
