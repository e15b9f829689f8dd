// internal/balance/bots.go
package balance

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/skirmish-io/skirmish-server/internal/gamedata"
	"github.com/skirmish-io/skirmish-server/internal/models"
)

// BackfillSkill resolves the bot skill for a private match. A configured
// skill wins; auto derives from the human average, never above Hard.
func BackfillSkill(configured, avgLevel int) int {
	if configured >= 0 {
		return configured
	}
	skill := avgLevel / 15
	if skill > gamedata.BotSkillHard {
		skill = gamedata.BotSkillHard
	}
	return skill
}

// ReplacementSkill resolves the skill of a bot filling a public slot.
// A maxed-out lobby gets insane bots, except combat training which stays
// capped at Hard.
func ReplacementSkill(avgLevel int, combatTraining bool) int {
	var skill int
	if avgLevel == gamedata.MaxLevel {
		skill = gamedata.BotSkillInsane
	} else {
		skill = avgLevel / 15
		if skill > gamedata.BotSkillHard {
			skill = gamedata.BotSkillHard
		}
	}
	if combatTraining && skill > gamedata.BotSkillHard {
		skill = gamedata.BotSkillHard
	}
	return skill
}

// levelForSkill draws a level from the skill's band.
func levelForSkill(skill int, rng *rand.Rand) (level, prestige int) {
	randRange := func(min, max int) int {
		if rng != nil {
			return min + rng.Intn(max-min+1)
		}
		return min + rand.Intn(max-min+1)
	}
	switch skill {
	case gamedata.BotSkillNormal:
		return randRange(10, 30), 0
	case gamedata.BotSkillHard:
		return randRange(30, 49), 0
	case gamedata.BotSkillInsane:
		return gamedata.MaxLevel, 0
	case gamedata.BotSkillGod:
		return gamedata.MaxLevel, gamedata.MaxPrestige
	default:
		return randRange(1, 10), 0
	}
}

// NewBot synthesizes a bot session at the given skill.
func NewBot(skill int, rng *rand.Rand) *models.PlayerSession {
	intn := func(n int) int {
		if rng != nil {
			return rng.Intn(n)
		}
		return rand.Intn(n)
	}
	level, prestige := levelForSkill(skill, rng)
	factions := gamedata.Factions()
	preferred := factions[intn(len(factions))]

	byFaction := make(map[string]models.Avatar, len(factions))
	for _, f := range factions {
		byFaction[f] = botAvatar(f, intn)
	}

	return &models.PlayerSession{
		ID:       uuid.NewString(),
		Name:     "BOT " + gamedata.BotNames[intn(len(gamedata.BotNames))],
		Level:    level,
		Prestige: prestige,
		Team:     models.NoTeam,
		IsBot:    true,
		BotSkill: skill,
		Card:     "wilkin",
		Callsign: "soldier_1",
		Avatars: models.AvatarSet{
			Preferred: preferred,
			ByFaction: byFaction,
		},
	}
}

// NewDummy synthesizes a standing simulated player. Dummies look human on
// every surface: they count as real players and survive bot stripping.
func NewDummy(skill int, name string, rng *rand.Rand) *models.PlayerSession {
	intn := func(n int) int {
		if rng != nil {
			return rng.Intn(n)
		}
		return rand.Intn(n)
	}
	d := NewBot(skill, rng)
	d.IsDummy = true
	if name != "" {
		d.Name = name
	} else {
		d.Name = fmt.Sprintf("Player%d", 1+intn(999))
	}
	if skill >= gamedata.BotSkillInsane {
		d.Prestige = 1 + intn(gamedata.MaxPrestige)
	}
	d.Latency = 10 + intn(91)
	d.Callsign = ""
	return d
}

var hairStyles = []string{"short", "long", "buzzed", "bald"}
var hairColours = []string{"brown", "brown_light", "black", "blonde", "ginger"}

func botAvatar(faction string, intn func(int) int) models.Avatar {
	return models.Avatar{
		"faction":    faction,
		"head":       "none",
		"hair":       hairStyles[intn(len(hairStyles))],
		"hairColour": hairColours[intn(len(hairColours))],
	}
}
