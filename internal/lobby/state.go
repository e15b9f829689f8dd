// internal/lobby/state.go
//
// State transitions, countdown timers and the match lifecycle. Every
// transition tears down the previous match and its timers first, so a
// lobby can never carry a stale engine or countdown across states.
package lobby

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/skirmish-io/skirmish-server/internal/balance"
	"github.com/skirmish-io/skirmish-server/internal/channel"
	"github.com/skirmish-io/skirmish-server/internal/engine"
	"github.com/skirmish-io/skirmish-server/internal/gamedata"
	"github.com/skirmish-io/skirmish-server/internal/models"
	"github.com/skirmish-io/skirmish-server/internal/stats"
)

func (r *Registry) setStateLocked(l *Lobby, s State) {
	if l.Engine != nil {
		l.Engine.Destroy()
		l.Engine = nil
	}
	l.stopTimers()
	l.ending = false
	prev := l.State
	l.State = s
	log.WithFields(log.Fields{
		"lobby_id": l.ID, "from": prev.String(), "to": s.String(),
	}).Debug("lobby state change")

	switch s {
	case StateWaiting, StateWaitingHost:
		l.stripBots()
		l.Locked = false
		l.Timer = noTimer
		l.resetPlayers()
		l.clearBallots()

	case StatePreparing:
		l.Locked = false

	case StateStarting:
		l.Locked = true
		r.applyStartingLocked(l)
		l.clearBallots()

	case StateInProgress:
		l.Locked = true
		if l.RealCount() == 0 {
			r.setStateLocked(l, StateWaiting)
			return
		}
		r.startWaitTimerLocked(l)

	case StateIntermission:
		l.stripBots()
		l.Locked = false
		l.Timer = IntermissionTimer
		l.resetPlayers()
		r.rerollMapsLocked(l)
		r.scheduleTickLocked(l)
		r.tryMergeLocked(l)
	}
}

// applyStartingLocked freezes the match setup: the map vote resolves,
// rotation lobbies adopt the winning mode, bots fill empty slots, the
// faction pairing rolls and everyone gets a team.
func (r *Registry) applyStartingLocked(l *Lobby) {
	if len(l.MapBallot) == 0 {
		r.rerollMapsLocked(l)
	}

	// First entry with the highest vote count wins.
	winner := 0
	for i, e := range l.MapBallot {
		if e.Votes > l.MapBallot[winner].Votes {
			winner = i
		}
	}
	entry := l.MapBallot[winner]

	if l.RotationID != "" && entry.GameModeID != "" {
		l.GameModeID = entry.GameModeID
		s := gamedata.DefaultSettings(l.GameModeID)
		s.Private = l.Private
		s.Hardcore = l.Hardcore
		s.Ranked = s.Ranked && l.Ranked
		l.Settings = s
	}

	l.MapID = entry.MapID
	if l.MapID == gamedata.MapRandom {
		l.MapID = r.drawUnballotedMapLocked(l)
	}

	real := make([]*models.PlayerSession, 0, len(l.Members))
	for _, p := range l.Members {
		if p.IsReal() {
			real = append(real, p)
		}
	}
	avg := balance.AverageLevel(real)

	if l.Private && l.Settings.Bots > 0 {
		count := l.Settings.Bots
		if count > l.MaxPlayers-1 {
			count = l.MaxPlayers - 1
		}
		skill := balance.BackfillSkill(l.Settings.BotSkill, avg)
		for i := 0; i < count && len(l.Members) < l.MaxPlayers; i++ {
			l.Members = append(l.Members, balance.NewBot(skill, r.rng))
		}
	} else if !l.Private && l.AddBots {
		skill := balance.ReplacementSkill(avg, l.RotationID == gamedata.ModeCombatTraining)
		for len(l.Members) < l.MaxPlayers {
			l.Members = append(l.Members, balance.NewBot(skill, r.rng))
		}
	}

	if l.teamMode() {
		l.Settings.Factions = r.rollFactionPairLocked()
	}

	for _, p := range l.Members {
		p.Team = models.NoTeam
	}
	balance.SetTeams(l.Members, r.balanceInputLocked(l))
}

// drawUnballotedMapLocked picks a standard map that was not on the ballot,
// so "random" never lands on an option the lobby just voted down.
func (r *Registry) drawUnballotedMapLocked(l *Lobby) string {
	onBallot := map[string]bool{}
	for _, e := range l.MapBallot {
		onBallot[e.MapID] = true
	}
	var pool []string
	for _, m := range gamedata.StandardMapPool() {
		if !onBallot[m] {
			pool = append(pool, m)
		}
	}
	if len(pool) == 0 {
		pool = gamedata.StandardMapPool()
	}
	return pool[r.rng.Intn(len(pool))]
}

func (r *Registry) rollFactionPairLocked() [2]string {
	fs := r.shuffledLocked(gamedata.Factions())
	return [2]string{fs[0], fs[1]}
}

// rerollMapsLocked builds a fresh next-map ballot and clears cast votes.
func (r *Registry) rerollMapsLocked(l *Lobby) {
	l.mapVotes = make(map[string]int)

	var ballot []MapBallotEntry
	if l.GameModeID == gamedata.ModeBattlezone || l.PoolID == gamedata.ModeBattlezone {
		// Large-map modes vote across the whole pool minus one, with no
		// random option.
		pool := r.shuffledLocked(gamedata.BattlezoneMapPool())
		for _, m := range pool[:len(pool)-1] {
			ballot = append(ballot, MapBallotEntry{MapID: m})
		}
	} else {
		pool := r.shuffledLocked(gamedata.StandardMapPool())
		ballot = []MapBallotEntry{
			{MapID: pool[0]},
			{MapID: pool[1]},
			{MapID: gamedata.MapRandom},
		}
	}

	if l.RotationID != "" {
		sub := r.shuffledLocked(gamedata.RotationModes(l.RotationID))
		for i := range ballot {
			ballot[i].GameModeID = sub[i%len(sub)]
		}
	}
	l.MapBallot = ballot
}

func (r *Registry) shuffledLocked(src []string) []string {
	out := append([]string(nil), src...)
	r.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// scheduleTickLocked arms the one-second countdown tick.
func (r *Registry) scheduleTickLocked(l *Lobby) {
	l.tickGen++
	gen := l.tickGen
	id := l.ID
	l.tickTimer = r.clock.AfterFunc(time.Second, func() { r.onTick(id, gen) })
}

func (r *Registry) onTick(lobbyID string, gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.byID[lobbyID]
	if !ok || l.tickGen != gen {
		return
	}
	l.Timer--
	if l.Timer > 0 {
		r.notify.BroadcastRoom(l.ID, channel.Message{"type": "updateLobbyTimer", "timer": l.Timer})
		r.scheduleTickLocked(l)
		return
	}
	l.Timer = 0
	r.onTimerCompleteLocked(l)
}

func (r *Registry) onTimerCompleteLocked(l *Lobby) {
	switch l.State {
	case StateIntermission:
		r.setStateLocked(l, StateWaiting)
		r.checkReadyLocked(l)
		r.updateLobbyLocked(l)

	case StatePreparing:
		r.setStateLocked(l, StateStarting)
		l.Timer = CountdownStarting
		r.scheduleTickLocked(l)
		r.updateLobbyLocked(l)

	case StateStarting:
		r.setStateLocked(l, StateInProgress)
		if l.State != StateInProgress {
			// Nobody left; the transition reset the lobby instead.
			return
		}
		r.notify.BroadcastRoom(l.ID, r.startGameMessageLocked(l))
		id := l.ID
		l.gameTimer = r.clock.AfterFunc(EnterGameDelay*time.Second, func() {
			r.notify.BroadcastRoom(id, channel.Message{"type": "enterGame"})
		})
		r.updateLobbyLocked(l)
	}
}

// startWaitTimerLocked arms the in-progress readiness grace window.
// Players who never report ready before it runs out get dropped as idle.
func (r *Registry) startWaitTimerLocked(l *Lobby) {
	l.waitSec = WaitTimer
	r.armWaitTickLocked(l)
}

func (r *Registry) armWaitTickLocked(l *Lobby) {
	l.waitGen++
	gen := l.waitGen
	id := l.ID
	l.waitTimer = r.clock.AfterFunc(time.Second, func() { r.onWaitTick(id, gen) })
}

func (r *Registry) onWaitTick(lobbyID string, gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.byID[lobbyID]
	if !ok || l.waitGen != gen || l.State != StateInProgress {
		return
	}
	if l.Engine != nil {
		// Match already running, the grace window no longer applies.
		return
	}
	l.waitSec--
	if l.waitSec > 0 {
		r.notify.BroadcastRoom(l.ID, channel.Message{"type": "updateWaitTimer", "timer": l.waitSec})
		r.armWaitTickLocked(l)
		return
	}

	idle := make([]string, 0)
	for _, p := range l.Members {
		if !p.IsBot && !p.IsDummy && !p.Ready {
			idle = append(idle, p.ID)
		}
	}
	for _, id := range idle {
		r.removeLocked(l, id, "idle")
	}
	if _, live := r.byID[l.ID]; !live {
		return
	}
	if len(l.Members) > 1 {
		r.onInitGameLocked(l)
	} else {
		r.endLobbyGameLocked(l, false)
	}
}

// RequestGame is the client's match handshake. With a running engine it
// admits the caller mid-match; otherwise it is a ready-up, and the match
// initializes once every human has answered.
func (r *Registry) RequestGame(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.byID {
		if p := l.Member(playerID); p != nil {
			if l.Engine != nil {
				r.midJoinLocked(l, p)
			} else if l.State == StateInProgress {
				r.readyUpLocked(l, p)
			}
			return
		}
	}
}

func (r *Registry) readyUpLocked(l *Lobby, p *models.PlayerSession) {
	p.Ready = true
	needed := l.HumanCount()
	if needed == 0 {
		r.endLobbyGameLocked(l, false)
		return
	}
	ready := 0
	for _, cur := range l.Members {
		if !cur.IsBot && !cur.IsDummy && cur.Ready {
			ready++
		}
	}
	r.notify.BroadcastRoom(l.ID, channel.Message{
		"type":   "updatePlayersReady",
		"ready":  ready,
		"needed": needed,
	})
	if ready >= needed {
		r.onInitGameLocked(l)
	}
}

// midJoinLocked admits a player into a running match: a bot makes room if
// the lobby is over capacity, the joiner gets a team, and the full world
// state ships to them in one batch.
func (r *Registry) midJoinLocked(l *Lobby, p *models.PlayerSession) {
	if len(l.Members) > l.MaxPlayers {
		r.dropBotLocked(l, p.Team)
	}

	balance.MidJoinTeam(p, l.Members, r.balanceInputLocked(l), nil)
	eng := l.Engine
	eng.AddPlayer(p.Snapshot())
	p.InGame = true
	p.Ready = true

	batch := []map[string]interface{}{
		{"name": "init", "data": eng.InitEventData()},
		{"name": "gameMode", "data": eng.GameModeEventData()},
	}
	if eng.MatchInProgress() {
		batch = append(batch, map[string]interface{}{"name": "gameStart", "data": eng.GameStartEventData()})
	}
	for _, st := range eng.PlayerStates() {
		batch = append(batch, map[string]interface{}{"name": "playerJoin", "bSilent": true, "data": st})
	}
	batch = append(batch, map[string]interface{}{"name": "objects", "data": eng.ObjectsEventData()})
	r.notify.SendTo(p.ID, channel.Message{"type": "eventBatch", "events": batch})

	if st, ok := eng.PlayerStateByID(p.ID); ok {
		r.notify.BroadcastRoom(l.ID, channel.Message{"type": "gameEvent", "name": "playerJoin", "data": st})
	}
}

// dropBotLocked removes one bot to free a seat, preferring the joiner's
// own team so the swap keeps sides level.
func (r *Registry) dropBotLocked(l *Lobby, preferTeam int) {
	victim := -1
	for i, cur := range l.Members {
		if cur.IsReal() {
			continue
		}
		if cur.Team == preferTeam {
			victim = i
			break
		}
		if victim < 0 {
			victim = i
		}
	}
	if victim < 0 {
		return
	}
	bot := l.Members[victim]
	l.Members = append(l.Members[:victim], l.Members[victim+1:]...)
	if l.Engine != nil {
		l.Engine.RequestEvent(bot.ID, map[string]interface{}{"type": "playerLeave"})
	}
}

func (r *Registry) onInitGameLocked(l *Lobby) {
	if l.Engine != nil {
		l.Engine.Destroy()
		l.Engine = nil
	}
	l.waitGen++
	if l.waitTimer != nil {
		l.waitTimer.Stop()
		l.waitTimer = nil
	}

	players := make([]models.PlayerSession, 0, len(l.Members))
	for _, p := range l.Members {
		players = append(players, p.Snapshot())
	}
	eng := r.engines()
	stream, err := eng.Init(engine.GameData{
		LobbyID:    l.ID,
		GameModeID: l.GameModeID,
		MapID:      l.MapID,
		Settings:   l.Settings,
		Players:    players,
	})
	if err != nil {
		log.WithFields(log.Fields{"lobby_id": l.ID, "error": err}).Error("match engine init failed")
		r.endLobbyGameLocked(l, false)
		return
	}
	l.Engine = eng
	l.StartedAt = r.clock.Now()
	for _, p := range l.Members {
		p.InGame = true
	}
	go r.pumpEngine(l.ID, eng, stream)
	r.notify.BroadcastRoom(l.ID, channel.Message{"type": "initGame", "data": eng.InitEventData()})
	log.WithFields(log.Fields{"lobby_id": l.ID, "mode": l.GameModeID, "map": l.MapID}).Info("match started")
}

// pumpEngine fans one engine's event stream out to the lobby room until
// the stream closes.
func (r *Registry) pumpEngine(lobbyID string, eng engine.Engine, stream <-chan engine.Event) {
	for ev := range stream {
		msg := channel.Message{"type": "gameEvent", "name": ev.Name, "data": ev.Payload}
		if ev.TargetID != "" {
			r.notify.SendTo(ev.TargetID, msg)
		} else {
			r.notify.BroadcastRoom(lobbyID, msg)
		}
		if ev.Name == "endGame" {
			r.mu.Lock()
			if l, ok := r.byID[lobbyID]; ok && l.Engine == eng {
				r.finishMatchLocked(l, eng.Winner())
			}
			r.mu.Unlock()
		}
	}
}

// finishMatchLocked records the result and schedules the scoreboard
// linger before the lobby resets.
func (r *Registry) finishMatchLocked(l *Lobby, winner int) {
	if l.ending {
		return
	}
	l.ending = true

	record := stats.MatchRecord{
		LobbyID:    l.ID,
		GameModeID: l.GameModeID,
		MapID:      l.MapID,
		Ranked:     l.Settings.Ranked,
		Private:    l.Private,
		StartedAt:  l.StartedAt.Unix(),
		DurationMs: r.clock.Now().Sub(l.StartedAt).Milliseconds(),
		WinnerTeam: winner,
	}
	for _, p := range l.Members {
		score := stats.PlayerScore{
			PlayerID: p.ID,
			Name:     p.Name,
			Clan:     p.Clan,
			Bot:      !p.IsReal(),
			Team:     p.Team,
		}
		if l.Engine != nil {
			if st, ok := l.Engine.PlayerStateByID(p.ID); ok {
				score.Kills = stateInt(st, "kills")
				score.Deaths = stateInt(st, "deaths")
				score.Score = stateInt(st, "score")
			}
		}
		record.Players = append(record.Players, score)
	}
	// PublishMatch also credits clan scores, so it runs even when the
	// telemetry queue itself is disabled.
	if r.stats != nil {
		go r.stats.PublishMatch(context.Background(), record)
	}
	log.WithFields(log.Fields{"lobby_id": l.ID, "winner": winner}).Info("match ended")

	id := l.ID
	l.gameTimer = r.clock.AfterFunc(EndGameLinger*time.Second, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if cur, ok := r.byID[id]; ok {
			r.endLobbyGameLocked(cur, true)
		}
	})
}

// endLobbyGameLocked returns a lobby to its between-matches state. played
// selects intermission (with its map vote) over a plain reset.
func (r *Registry) endLobbyGameLocked(l *Lobby, played bool) {
	switch {
	case l.Private:
		r.setStateLocked(l, StateWaitingHost)
	case played:
		r.setStateLocked(l, StateIntermission)
	default:
		r.setStateLocked(l, StateWaiting)
		r.checkReadyLocked(l)
	}
	r.updateLobbyLocked(l)
}

// RequestEvent forwards one gameplay event into the caller's match. The
// returned flag reports a forged event: a payload claiming another
// player's identity, or a killstreak grant no client may ever send.
func (r *Registry) RequestEvent(playerID string, payload map[string]interface{}) (cheat bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.byID {
		p := l.Member(playerID)
		if p == nil {
			continue
		}
		if l.Engine == nil {
			return false
		}
		if id, ok := payload["playerId"].(string); ok && id != playerID {
			return true
		}
		if id, ok := payload["pawnId"].(string); ok && id != playerID {
			return true
		}
		if t, _ := payload["type"].(string); t == "earnKillstreak" {
			return true
		}
		l.Engine.RequestEvent(playerID, payload)
		return false
	}
	return false
}

func stateInt(st map[string]interface{}, key string) int {
	switch v := st[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
