// internal/lobby/private.go
//
// Custom lobby host operations. Every entry point re-checks that the
// caller is the lobby host; a non-host issuing host commands is treated
// as a hostile client.
package lobby

import (
	"errors"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/skirmish-io/skirmish-server/internal/gamedata"
	"github.com/skirmish-io/skirmish-server/internal/models"
)

// ErrNotHost means a host-only command came from a regular member.
var ErrNotHost = errors.New("lobby: caller is not the host")

// ErrCustomPoolFull means the custom lobby cap is reached.
var ErrCustomPoolFull = errors.New("lobby: custom lobby limit reached")

// CreatePrivate opens a custom lobby and seats the creator as host.
func (r *Registry) CreatePrivate(p *models.PlayerSession) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.pools[gamedata.PrivatePool]) >= r.opts.MaxCustomLobbies {
		return "", ErrCustomPoolFull
	}

	l := &Lobby{
		ID:         "L-" + uuid.NewString()[:13],
		PoolID:     gamedata.PrivatePool,
		GameModeID: gamedata.ModeTeamDeathmatch,
		State:      StateWaitingHost,
		Timer:      noTimer,
		MinPlayers: 1,
		MaxPlayers: gamedata.MaxPlayersFor(gamedata.ModeTeamDeathmatch),
		Private:    true,
	}
	l.Settings = gamedata.DefaultSettings(l.GameModeID)
	l.Settings.Private = true
	l.Settings.AutoBalance = false
	l.Ranked = false
	l.Settings.Ranked = false
	r.rerollMapsLocked(l)

	r.pools[gamedata.PrivatePool] = append(r.pools[gamedata.PrivatePool], l)
	r.byID[l.ID] = l
	log.WithFields(log.Fields{"lobby_id": l.ID, "host_id": p.ID}).Info("custom lobby created")

	if res := r.joinLocked(l, p); res != JoinSuccess {
		r.destroyLobbyLocked(l, "host_join_failed")
		return "", errors.New("lobby: could not seat host")
	}
	return l.ID, nil
}

// settingsPatch is the whitelisted host-editable subset, with the clamps
// that keep a hostile host from corrupting the match.
func clampSetting(key string, value int) int {
	switch key {
	case "botTeam":
		return clamp(value, -1, 1)
	case "botSkill":
		return clamp(value, gamedata.BotSkillAuto, gamedata.BotSkillGod)
	case "bots":
		if value < 0 {
			return 0
		}
		return value
	case "timeLimit", "respawnTime", "scoreLimit", "bombTimerMax", "difficulty":
		if value < 1 {
			return 1
		}
		return value
	}
	return value
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SettingsPatch carries one host edit: either a game mode switch or a
// numeric/boolean settings change.
type SettingsPatch struct {
	GameModeID string
	Ints       map[string]int
	Bools      map[string]bool
}

// UpdatePrivateSettings applies a host's lobby configuration change. A
// mode switch resets settings to that mode's defaults while carrying over
// the bot and debug configuration.
func (r *Registry) UpdatePrivateSettings(hostID string, patch SettingsPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l := r.lobbyOfLocked(hostID)
	if l == nil || !l.Private {
		return ErrNotHost
	}
	if l.HostPlayerID != hostID {
		return ErrNotHost
	}
	if l.Engine != nil {
		log.WithField("lobby_id", l.ID).Warn("settings change refused while match running")
		return nil
	}

	if patch.GameModeID != "" {
		if _, ok := gamedata.ModeByID(patch.GameModeID); !ok {
			return errors.New("lobby: unknown game mode")
		}
		prev := l.Settings
		l.GameModeID = patch.GameModeID
		l.MaxPlayers = gamedata.MaxPlayersFor(patch.GameModeID)
		s := gamedata.DefaultSettings(patch.GameModeID)
		s.AutoBalance = false
		s.Private = true
		s.Debug = prev.Debug
		s.Bots = prev.Bots
		s.BotSkill = prev.BotSkill
		s.BotTeam = prev.BotTeam

		mode, _ := gamedata.ModeByID(patch.GameModeID)
		l.Survival = mode.Survival
		switch {
		case patch.GameModeID == gamedata.ModeBattlezone:
			s.Bots = 0
		case patch.GameModeID == gamedata.ModeSandbox:
			s.Ranked = false
			s.Bots = 0
		case mode.Survival:
			s.Ranked = false
			s.Bots = 0
		case patch.GameModeID == gamedata.ModeOperation:
			s.Bots = 0
			if prev.Difficulty > 0 {
				s.Difficulty = prev.Difficulty
			}
		}
		l.Settings = s
		l.Ranked = s.Ranked
		r.rerollMapsLocked(l)
	}

	for key, v := range patch.Ints {
		val := clampSetting(key, v)
		switch key {
		case "bots":
			l.Settings.Bots = val
		case "botSkill":
			l.Settings.BotSkill = val
		case "botTeam":
			l.Settings.BotTeam = val
		case "timeLimit":
			l.Settings.TimeLimit = val
		case "scoreLimit":
			l.Settings.ScoreLimit = val
		case "respawnTime":
			l.Settings.RespawnTime = val
		case "bombTimerMax":
			l.Settings.BombTimer = val
		case "difficulty":
			l.Settings.Difficulty = val
		}
	}
	for key, v := range patch.Bools {
		switch key {
		case "bDebug":
			l.Settings.Debug = v
		case "bHardcore":
			l.Settings.Hardcore = v
			l.Hardcore = v
		}
	}

	r.updateLobbyLocked(l)
	return nil
}

// StartPrivate begins (or cancels) the host's match countdown. Validation
// failures surface as client dialogs rather than errors.
func (r *Registry) StartPrivate(hostID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l := r.lobbyOfLocked(hostID)
	if l == nil || !l.Private || l.HostPlayerID != hostID {
		return ErrNotHost
	}

	if l.State == StateStarting {
		// Starting again while counting down cancels the launch.
		r.setStateLocked(l, StateWaitingHost)
		r.updateLobbyLocked(l)
		return nil
	}
	if l.State != StateWaitingHost {
		return nil
	}

	maxPlayers := l.MaxPlayers
	if l.Settings.Debug {
		maxPlayers = 16
	}
	switch {
	case len(l.Members) > maxPlayers:
		r.notify.SendTo(hostID, showWindow("STR_TOO_MANY_PLAYERS", "STR_TOO_MANY_PLAYERS_DESC"))
	case len(l.Members) < 1:
		r.notify.SendTo(hostID, showWindow("STR_NOT_ENOUGH_PLAYERS", "STR_NOT_ENOUGH_PLAYERS_DESC"))
	case !r.verifyPrivateTeamsLocked(l):
		r.notify.SendTo(hostID, showWindow("STR_INVALID_TEAMS", "STR_INVALID_TEAMS_DESC"))
	default:
		r.setStateLocked(l, StateStarting)
		l.Timer = CountdownStarting
		r.scheduleTickLocked(l)
		r.updateLobbyLocked(l)
	}
	return nil
}

// verifyPrivateTeamsLocked checks that the host's team picks produce a
// playable match: with no bots both sides need a player, and a fixed bot
// team needs at least one human opposing it.
func (r *Registry) verifyPrivateTeamsLocked(l *Lobby) bool {
	if l.Settings.Debug {
		return true
	}
	if !l.teamMode() {
		return true
	}
	if l.Settings.Bots == 0 {
		var have [2]bool
		for _, p := range l.Members {
			if p.DesiredTeam == 0 || p.DesiredTeam == 1 {
				have[p.DesiredTeam] = true
			}
		}
		return have[0] && have[1]
	}
	if l.Settings.BotTeam >= 0 {
		for _, p := range l.Members {
			if p.DesiredTeam == 1-l.Settings.BotTeam {
				return true
			}
		}
		return false
	}
	return true
}

// SetPrivateTeam lets the host pin a member to a side. A negative team
// clears the pick.
func (r *Registry) SetPrivateTeam(hostID, targetID string, team int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l := r.lobbyOfLocked(hostID)
	if l == nil || !l.Private || l.HostPlayerID != hostID {
		return ErrNotHost
	}
	p := l.Member(targetID)
	if p == nil {
		return nil
	}
	if team >= 0 {
		p.DesiredTeam = clamp(team, 0, 1)
	} else {
		p.DesiredTeam = models.NoTeam
	}
	r.updateLobbyLocked(l)
	return nil
}

// KickPrivate ejects a member from the host's lobby.
func (r *Registry) KickPrivate(hostID, targetID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l := r.lobbyOfLocked(hostID)
	if l == nil || !l.Private || l.HostPlayerID != hostID {
		return ErrNotHost
	}
	if targetID == hostID {
		return nil
	}
	if l.Member(targetID) != nil {
		r.removeLocked(l, targetID, "kicked")
	}
	return nil
}

func (r *Registry) lobbyOfLocked(playerID string) *Lobby {
	for _, l := range r.byID {
		if l.Member(playerID) != nil {
			return l
		}
	}
	return nil
}
