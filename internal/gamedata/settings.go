package gamedata

// Settings is the per-lobby game configuration handed to the match engine.
// Private-lobby hosts may patch a whitelisted subset of fields.
type Settings struct {
	Private     bool   `json:"bPrivate"`
	Debug       bool   `json:"bDebug,omitempty"`
	Ranked      bool   `json:"bRanked"`
	Hardcore    bool   `json:"bHardcore,omitempty"`
	AutoBalance bool   `json:"bAutoBalance"`
	Bots        int    `json:"bots"`
	BotSkill    int    `json:"botSkill"`
	BotTeam     int    `json:"botTeam"`
	Difficulty  int    `json:"difficulty,omitempty"`
	TimeLimit   int    `json:"timeLimit"`
	ScoreLimit  int    `json:"scoreLimit"`
	RespawnTime int    `json:"respawnTime"`
	BombTimer   int    `json:"bombTimerMax,omitempty"`
	Factions    [2]string `json:"factions,omitempty"`
}

// DefaultSettings returns the baseline configuration for a mode.
func DefaultSettings(modeID string) Settings {
	s := Settings{
		AutoBalance: true,
		Bots:        0,
		BotSkill:    BotSkillAuto,
		BotTeam:     -1,
		TimeLimit:   10,
		ScoreLimit:  75,
		RespawnTime: 5,
	}
	m := modes[modeID]
	s.Ranked = m.Ranked
	switch modeID {
	case ModeDemolition:
		s.BombTimer = 45
		s.ScoreLimit = 5
	case ModeCaptureTheFlag:
		s.ScoreLimit = 3
	case ModeDomination:
		s.ScoreLimit = 200
	case ModeGunGame:
		s.ScoreLimit = 20
	case ModeBattlezone:
		s.TimeLimit = 15
	case ModeOperation:
		s.Difficulty = 1
	}
	if m.Team {
		s.Factions = [2]string{FactionDeltaForce, FactionOpfor}
	}
	return s
}
