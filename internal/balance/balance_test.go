package balance

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skirmish-io/skirmish-server/internal/gamedata"
	"github.com/skirmish-io/skirmish-server/internal/models"
)

func loner(id string, level, prestige int) *models.PlayerSession {
	return &models.PlayerSession{
		ID: id, Name: id, Level: level, Prestige: prestige,
		Team: models.NoTeam, DesiredTeam: models.NoTeam,
	}
}

func teamInput(mode string) Input {
	return Input{
		GameModeID: mode,
		MaxPlayers: 8,
		Settings:   gamedata.DefaultSettings(mode),
		Rand:       rand.New(rand.NewSource(1)),
	}
}

func TestPlayerValue(t *testing.T) {
	assert.Equal(t, 50, PlayerValue(loner("p", 50, 0)))
	assert.Equal(t, 100, PlayerValue(loner("p", 50, 1)))
	assert.Equal(t, 1, PlayerValue(nil))
}

func TestAverageLevelCountsPrestigedAsMax(t *testing.T) {
	players := []*models.PlayerSession{
		loner("a", 10, 0),
		loner("b", 3, 2), // prestiged, counts as 50
	}
	assert.Equal(t, 30, AverageLevel(players))
	assert.Equal(t, 1, AverageLevel(nil))
}

func TestSetTeamsTwoTeamBalanced(t *testing.T) {
	levels := []int{50, 40, 30, 20, 10, 1}
	var players []*models.PlayerSession
	for i, lv := range levels {
		players = append(players, loner(string(rune('a'+i)), lv, 0))
	}
	in := teamInput(gamedata.ModeTeamDeathmatch)
	in.RealPlayers = len(players)

	SetTeams(players, in)

	size0 := TeamSize(players, 0)
	size1 := TeamSize(players, 1)
	assert.Equal(t, len(players), size0+size1)
	assert.LessOrEqual(t, abs(size0-size1), 1)
	assert.Greater(t, size0, 0)
	assert.Greater(t, size1, 0)

	// Roster comes back grouped by team.
	for i := 1; i < len(players); i++ {
		assert.GreaterOrEqual(t, players[i].Team, players[i-1].Team)
	}
}

func TestSetTeamsPartiesAlternateSides(t *testing.T) {
	mk := func(id, partyID string) *models.PlayerSession {
		p := loner(id, 20, 0)
		p.CurrentPartyID = partyID
		return p
	}
	players := []*models.PlayerSession{
		mk("a1", "party-a"), mk("a2", "party-a"),
		mk("b1", "party-b"), mk("b2", "party-b"),
	}
	in := teamInput(gamedata.ModeDomination)
	in.RealPlayers = 4
	in.PartySize = func(string) int { return 2 }
	in.PartyIndex = func(id string) int {
		if id == "party-a" {
			return 0
		}
		return 1
	}

	SetTeams(players, in)

	byID := map[string]int{}
	for _, p := range players {
		byID[p.ID] = p.Team
	}
	assert.Equal(t, byID["a1"], byID["a2"])
	assert.Equal(t, byID["b1"], byID["b2"])
	assert.NotEqual(t, byID["a1"], byID["b1"])
}

func TestSetTeamsFreeForAllSlots(t *testing.T) {
	players := []*models.PlayerSession{
		loner("a", 10, 0), loner("b", 20, 0), loner("c", 30, 0),
	}
	in := teamInput(gamedata.ModeDeathmatch)
	in.RealPlayers = 3

	SetTeams(players, in)

	seen := map[int]bool{}
	for _, p := range players {
		seen[p.Team] = true
	}
	assert.Equal(t, map[int]bool{0: true, 1: true, 2: true}, seen)
}

func TestSetTeamsCoOpAllTeamZero(t *testing.T) {
	players := []*models.PlayerSession{loner("a", 10, 0), loner("b", 20, 0)}
	in := teamInput(gamedata.ModeSurvivalUndead)
	in.RealPlayers = 2

	SetTeams(players, in)
	for _, p := range players {
		assert.Equal(t, 0, p.Team)
	}
}

func TestSetTeamsCombatTrainingHumansShareSide(t *testing.T) {
	players := []*models.PlayerSession{
		loner("h1", 10, 0), loner("h2", 12, 0),
	}
	for i := 0; i < 6; i++ {
		b := NewBot(gamedata.BotSkillNormal, rand.New(rand.NewSource(int64(i))))
		players = append(players, b)
	}
	in := teamInput(gamedata.ModeTeamDeathmatch)
	in.RotationID = gamedata.ModeCombatTraining
	in.RealPlayers = 2

	SetTeams(players, in)

	byID := map[string]int{}
	for _, p := range players {
		byID[p.ID] = p.Team
	}
	assert.Equal(t, byID["h1"], byID["h2"])
	assert.LessOrEqual(t, abs(TeamSize(players, 0)-TeamSize(players, 1)), 1)
}

func TestSetTeamsPrivateHonorsDesiredTeam(t *testing.T) {
	a := loner("a", 10, 0)
	a.DesiredTeam = 1
	b := loner("b", 10, 0)
	b.DesiredTeam = 0
	bot := NewBot(gamedata.BotSkillEasy, rand.New(rand.NewSource(7)))
	bot.DesiredTeam = models.NoTeam

	in := teamInput(gamedata.ModeTeamDeathmatch)
	in.Private = true
	in.RealPlayers = 2
	in.Settings.BotTeam = 1

	players := []*models.PlayerSession{a, b, bot}
	SetTeams(players, in)

	assert.Equal(t, 1, a.Team)
	assert.Equal(t, 0, b.Team)
	assert.Equal(t, 1, bot.Team)
}

func TestMidJoinTeamJoinsPartyTeammate(t *testing.T) {
	mate := loner("mate", 10, 0)
	mate.CurrentPartyID = "party-x"
	mate.Team = 1
	other := loner("o", 10, 0)
	other.Team = 0

	joiner := loner("new", 10, 0)
	joiner.CurrentPartyID = "party-x"

	in := teamInput(gamedata.ModeTeamDeathmatch)
	in.PartySize = func(string) int { return 2 }
	roster := []*models.PlayerSession{other, mate, joiner}

	MidJoinTeam(joiner, roster, in, nil)
	assert.Equal(t, 1, joiner.Team)
}

func TestMidJoinTeamFillsSmallerSide(t *testing.T) {
	a := loner("a", 10, 0)
	a.Team = 0
	b := loner("b", 10, 0)
	b.Team = 0
	c := loner("c", 10, 0)
	c.Team = 1

	joiner := loner("new", 10, 0)
	in := teamInput(gamedata.ModeDomination)
	MidJoinTeam(joiner, []*models.PlayerSession{a, b, c, joiner}, in, nil)
	assert.Equal(t, 1, joiner.Team)
}

func TestMidJoinInfectedStartsInfected(t *testing.T) {
	joiner := loner("new", 10, 0)
	in := teamInput(gamedata.ModeInfected)
	MidJoinTeam(joiner, []*models.PlayerSession{joiner}, in, nil)
	assert.Equal(t, 1, joiner.Team)
}

func TestMidJoinFreeForAllTakesFirstFreeSlot(t *testing.T) {
	a := loner("a", 10, 0)
	a.Team = 0
	b := loner("b", 10, 0)
	b.Team = 2

	joiner := loner("new", 10, 0)
	in := teamInput(gamedata.ModeDeathmatch)
	MidJoinTeam(joiner, []*models.PlayerSession{a, b, joiner}, in, nil)
	assert.Equal(t, 1, joiner.Team)
}

func TestBackfillSkill(t *testing.T) {
	assert.Equal(t, gamedata.BotSkillGod, BackfillSkill(gamedata.BotSkillGod, 10))
	assert.Equal(t, gamedata.BotSkillEasy, BackfillSkill(gamedata.BotSkillAuto, 10))
	assert.Equal(t, gamedata.BotSkillHard, BackfillSkill(gamedata.BotSkillAuto, 37))
	// Auto never exceeds Hard even at max level.
	assert.Equal(t, gamedata.BotSkillHard, BackfillSkill(gamedata.BotSkillAuto, 50))
}

func TestReplacementSkill(t *testing.T) {
	assert.Equal(t, gamedata.BotSkillInsane, ReplacementSkill(50, false))
	assert.Equal(t, gamedata.BotSkillHard, ReplacementSkill(50, true))
	assert.Equal(t, gamedata.BotSkillNormal, ReplacementSkill(20, false))
}

func TestNewBotLevelBands(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		b := NewBot(gamedata.BotSkillHard, rng)
		require.True(t, b.IsBot)
		assert.GreaterOrEqual(t, b.Level, 30)
		assert.LessOrEqual(t, b.Level, 49)
		assert.Contains(t, b.Avatars.ByFaction, b.Avatars.Preferred)
	}
	god := NewBot(gamedata.BotSkillGod, rng)
	assert.Equal(t, gamedata.MaxLevel, god.Level)
	assert.Equal(t, gamedata.MaxPrestige, god.Prestige)
}

func TestNewDummyCountsAsReal(t *testing.T) {
	d := NewDummy(gamedata.BotSkillNormal, "", rand.New(rand.NewSource(3)))
	assert.True(t, d.IsDummy)
	assert.True(t, d.IsReal())
	assert.NotEmpty(t, d.Name)
	assert.Greater(t, d.Latency, 0)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
