package gamedata

// Faction ids.
const (
	FactionDeltaForce = "usmc"
	FactionGSG9       = "gsg9"
	FactionGIGN       = "gign"
	FactionOpfor      = "opfor"
	FactionSpetsnaz   = "rus"
	FactionMilitia    = "militia"
)

// Factions returns all playable factions.
func Factions() []string {
	return []string{
		FactionDeltaForce, FactionGSG9, FactionGIGN,
		FactionOpfor, FactionSpetsnaz, FactionMilitia,
	}
}

// Bot skill levels.
const (
	BotSkillAuto   = -1
	BotSkillEasy   = 0
	BotSkillNormal = 1
	BotSkillHard   = 2
	BotSkillInsane = 3
	BotSkillGod    = 4
)

// Progression bounds.
const (
	MaxLevel    = 50
	MaxPrestige = 10
)
