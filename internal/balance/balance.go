// internal/balance/balance.go
//
// Team assignment and skill math for match setup. Operates on player
// session slices handed over by the lobby state machine; it never touches
// lobby state itself.
package balance

import (
	"math/rand"
	"sort"

	"github.com/skirmish-io/skirmish-server/internal/gamedata"
	"github.com/skirmish-io/skirmish-server/internal/models"
)

// Input carries the lobby-level facts team assignment needs. PartySize and
// PartyIndex may be nil when no party system is in play; every player is
// then treated as a loner.
type Input struct {
	GameModeID string
	RotationID string
	Private    bool
	MaxPlayers int
	Settings   gamedata.Settings

	// RealPlayers is the lobby's human (plus dummy) headcount.
	RealPlayers int

	PartySize  func(partyID string) int
	PartyIndex func(partyID string) int

	// Rand is injectable for deterministic tests; nil uses the global source.
	Rand *rand.Rand
}

func (in Input) intn(n int) int {
	if in.Rand != nil {
		return in.Rand.Intn(n)
	}
	return rand.Intn(n)
}

func (in Input) partySize(id string) int {
	if id == "" || in.PartySize == nil {
		return 0
	}
	return in.PartySize(id)
}

func (in Input) partyIndex(id string) int {
	if id == "" || in.PartyIndex == nil {
		return 0
	}
	return in.PartyIndex(id)
}

// PlayerValue is the matchmaking skill weight of one player.
func PlayerValue(p *models.PlayerSession) int {
	if p == nil {
		return 1
	}
	return p.Level * (p.Prestige + 1)
}

// AverageLevel is the rounded mean level of a roster, with any prestiged
// player counting as max level.
func AverageLevel(players []*models.PlayerSession) int {
	if len(players) == 0 {
		return 1
	}
	sum := 0
	for _, p := range players {
		if p.Prestige >= 1 {
			sum += gamedata.MaxLevel
		} else {
			sum += p.Level
		}
	}
	return (sum + len(players)/2) / len(players)
}

// TeamSize counts roster members currently on a team.
func TeamSize(players []*models.PlayerSession, team int) int {
	n := 0
	for _, p := range players {
		if p.Team == team {
			n++
		}
	}
	return n
}

// bestTeam is the less populated of the two teams, team 0 on a tie.
func bestTeam(players []*models.PlayerSession) int {
	if TeamSize(players, 0) > TeamSize(players, 1) {
		return 1
	}
	return 0
}

// SetTeams assigns every roster member a team slot for a fresh match and
// resolves their faction avatars. Callers reset Team to models.NoTeam
// before invoking; the slice is reordered so teammates sit adjacent.
func SetTeams(players []*models.PlayerSession, in Input) {
	teamMode := gamedata.IsTeamMode(in.GameModeID)

	if !in.Private && teamMode {
		if in.RotationID == gamedata.ModeCombatTraining && in.RealPlayers < in.MaxPlayers/2 {
			// Too few humans for mixed teams: all humans on one random
			// side, bots spread to keep the sides level.
			combatTeam := in.intn(2)
			for _, p := range players {
				if p.IsBot && !p.IsDummy {
					p.Team = bestTeam(players)
				} else {
					p.Team = combatTeam
				}
			}
		} else {
			balancePublicTeams(players, in)
		}
		sort.SliceStable(players, func(i, j int) bool {
			return players[i].Team < players[j].Team
		})
	}

	for i, p := range players {
		usePreferred := assignModeSlot(p, i, players, in, teamMode)
		resolveAvatar(p, in.Settings.Factions, teamMode, usePreferred)
	}

	sort.SliceStable(players, func(i, j int) bool {
		return players[i].Team < players[j].Team
	})
}

// balancePublicTeams splits a public two-team roster: parties alternate
// sides by order of appearance, loners go strongest-first to the lighter
// side.
func balancePublicTeams(players []*models.PlayerSession, in Input) {
	sort.SliceStable(players, func(i, j int) bool {
		a, b := players[i], players[j]
		if a.CurrentPartyID == "" {
			return false
		}
		if b.CurrentPartyID == "" {
			return true
		}
		return a.CurrentPartyID < b.CurrentPartyID
	})

	var partyOrder []string
	var partied, loners []*models.PlayerSession
	for _, p := range players {
		if in.partySize(p.CurrentPartyID) > 1 {
			idx := -1
			for i, id := range partyOrder {
				if id == p.CurrentPartyID {
					idx = i
					break
				}
			}
			if idx < 0 {
				partyOrder = append(partyOrder, p.CurrentPartyID)
				idx = len(partyOrder) - 1
			}
			p.Team = idx % 2
			partied = append(partied, p)
		} else {
			loners = append(loners, p)
		}
	}

	sort.SliceStable(loners, func(i, j int) bool {
		a, b := loners[i], loners[j]
		if a.Prestige != b.Prestige {
			return a.Prestige > b.Prestige
		}
		return a.Level > b.Level
	})
	for _, p := range loners {
		p.Team = bestTeam(players)
	}

	copy(players, append(partied, loners...))
}

// assignModeSlot sets the player's final team slot for the mode and reports
// whether their preferred-faction avatar applies instead of the team's.
func assignModeSlot(p *models.PlayerSession, index int, roster []*models.PlayerSession, in Input, teamMode bool) bool {
	switch in.GameModeID {
	case gamedata.ModeBattlezone:
		if in.partySize(p.CurrentPartyID) > 1 {
			// Party members share a squad slot above the solo range.
			p.Team = len(roster) + in.partyIndex(p.CurrentPartyID)
		} else {
			p.Team = index
		}
		return true

	case gamedata.ModeGunGame, gamedata.ModeDeathmatch:
		p.Team = index
		return true

	case gamedata.ModeInfected,
		gamedata.ModeSurvivalBasic, gamedata.ModeSurvivalUndead,
		gamedata.ModeSurvivalChaos, gamedata.ModeSurvivalStakeout,
		gamedata.ModeSurvivalPro,
		gamedata.ModeOperation, gamedata.ModeSandbox:
		p.Team = 0
		return true

	default:
		if in.Private && teamMode {
			switch {
			case p.HasDesiredTeam():
				p.Team = p.DesiredTeam
			case p.IsBot && in.Settings.BotTeam >= 0:
				p.Team = in.Settings.BotTeam
			default:
				p.Team = bestTeam(roster)
			}
		} else if !p.HasTeam() {
			p.Team = in.intn(2)
		}
		return false
	}
}

// resolveAvatar picks the avatar matching the player's assigned faction,
// or their preferred faction for slot-based and co-op modes.
func resolveAvatar(p *models.PlayerSession, factions [2]string, teamMode, usePreferred bool) {
	factionID := ""
	if teamMode && !usePreferred && p.Team >= 0 && p.Team <= 1 {
		factionID = factions[p.Team]
	}
	if factionID == "" || usePreferred {
		factionID = p.Avatars.Preferred
	}
	p.AvatarData = p.Avatars.For(factionID).Clone()
	if usePreferred && p.AvatarData != nil {
		p.AvatarData["preferred"] = p.Avatars.Preferred
	}
}

// MidJoinTeam picks a team for a player joining an in-progress match.
// enginePreferred, when non-nil, lets the running engine break population
// ties.
func MidJoinTeam(p *models.PlayerSession, roster []*models.PlayerSession, in Input, enginePreferred func() int) {
	teamMode := gamedata.IsTeamMode(in.GameModeID)
	usePreferred := false

	switch in.GameModeID {
	case gamedata.ModeBattlezone:
		if in.partySize(p.CurrentPartyID) > 1 {
			p.Team = in.MaxPlayers + in.partyIndex(p.CurrentPartyID)
		} else {
			p.Team = firstFreeSlot(p, roster, in.MaxPlayers)
		}
		usePreferred = true

	case gamedata.ModeGunGame, gamedata.ModeDeathmatch:
		p.Team = firstFreeSlot(p, roster, in.MaxPlayers)
		usePreferred = true

	case gamedata.ModeSurvivalBasic, gamedata.ModeSurvivalUndead,
		gamedata.ModeSurvivalChaos, gamedata.ModeSurvivalStakeout,
		gamedata.ModeSurvivalPro,
		gamedata.ModeOperation, gamedata.ModeSandbox:
		p.Team = 0
		usePreferred = true

	case gamedata.ModeInfected:
		// Mid-match joiners start infected.
		p.Team = 1
		usePreferred = true

	default:
		perTeam := [2]int{}
		partyTeam := models.NoTeam
		for _, cur := range roster {
			if cur.ID == p.ID {
				continue
			}
			if cur.Team == 0 || cur.Team == 1 {
				perTeam[cur.Team]++
			}
			if p.CurrentPartyID != "" && cur.CurrentPartyID == p.CurrentPartyID && cur.HasTeam() {
				partyTeam = cur.Team
			}
		}
		switch {
		case partyTeam != models.NoTeam:
			p.Team = partyTeam
		case perTeam[0] > perTeam[1]:
			p.Team = 1
		case perTeam[0] < perTeam[1]:
			p.Team = 0
		case enginePreferred != nil:
			p.Team = enginePreferred()
		default:
			p.Team = in.intn(2)
		}
	}

	resolveAvatar(p, in.Settings.Factions, teamMode, usePreferred)
}

// firstFreeSlot finds the lowest slot index no roster member occupies.
func firstFreeSlot(p *models.PlayerSession, roster []*models.PlayerSession, max int) int {
	taken := make(map[int]bool, len(roster))
	for _, cur := range roster {
		if cur.ID != p.ID && cur.HasTeam() {
			taken[cur.Team] = true
		}
	}
	for slot := 0; slot < max; slot++ {
		if !taken[slot] {
			return slot
		}
	}
	return max
}
