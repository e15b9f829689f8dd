// internal/handlers/dispatch.go
//
// Inbound event routing. Every frame is charged against the session's
// rate buckets first; a connection that burns its global budget is cut.
package handlers

import (
	log "github.com/sirupsen/logrus"

	"github.com/skirmish-io/skirmish-server/internal/channel"
	"github.com/skirmish-io/skirmish-server/internal/gamedata"
	"github.com/skirmish-io/skirmish-server/internal/gate"
	"github.com/skirmish-io/skirmish-server/internal/lobby"
	"github.com/skirmish-io/skirmish-server/internal/models"
)

func (s *Server) dispatch(client *channel.Client, p *models.PlayerSession, typ string, payload map[string]interface{}) {
	lim := s.gates.For(p.ID)

	var verdict gate.Verdict
	switch typ {
	case "requestEvent":
		verdict = lim.AdmitGame()
	case "sendLobbyChatMessage":
		verdict = lim.AdmitChat()
	case "updatePlayerData", "updateClientLatency", "requestGame":
		verdict = lim.Admit()
	default:
		verdict = lim.AdmitAction()
	}
	switch verdict {
	case gate.Disconnect:
		log.WithFields(log.Fields{"session_id": p.ID, "event": typ}).Warn("rate budget exhausted")
		client.Disconnect("flooding")
		return
	case gate.Drop:
		return
	case gate.Throttle:
		client.Send(channel.Message{"type": "serverMessage", "messageText": "STR_TOO_MANY_MESSAGES"})
		return
	}

	// Nothing but the handshake is accepted from an unnamed session.
	if p.Name == "" && typ != "updatePlayerData" {
		return
	}

	switch typ {
	case "updatePlayerData":
		s.handleUpdatePlayerData(client, p, payload)
	case "updateClientLatency":
		s.handleLatency(client, p, payload)

	case "joinLobby":
		s.handleJoinLobby(client, p, payload)
	case "joinLobbyById", "joinPrivateLobby":
		s.handleJoinLobbyByID(client, p, pStr(payload, "lobbyId"))
	case "createPrivateLobby":
		s.handleCreatePrivateLobby(client, p)
	case "leaveLobby", "requestQuit":
		s.reg.Remove(p.ID, "left")
		s.broadcastServerStats()

	case "requestGame":
		s.reg.RequestGame(p.ID)
	case "requestEvent":
		if s.reg.RequestEvent(p.ID, payload) {
			log.WithField("session_id", p.ID).Warn("forged game event")
			client.Disconnect("kicked")
		}

	case "sendLobbyChatMessage":
		s.handleChat(p, payload)
	case "setLobbyMapVote":
		s.reg.VoteMap(p.ID, pInt(payload, "index", -1))
	case "votekick":
		s.reg.VoteKick(p.ID, pStr(payload, "playerId"))

	case "changePrivateGameSettings":
		s.handlePrivateSettings(client, p, payload)
	case "startPrivateGame":
		if err := s.reg.StartPrivate(p.ID); err != nil {
			client.Disconnect("kicked")
		}
	case "setPrivatePlayerTeam":
		s.reg.SetPrivateTeam(p.ID, pStr(payload, "playerId"), pInt(payload, "team", models.NoTeam))
	case "kickPrivatePlayer":
		s.handleKickPrivate(p, pStr(payload, "playerId"))

	case "createParty":
		s.handleCreateParty(client, p)
	case "joinParty":
		s.handleJoinParty(client, p, pStr(payload, "partyId"))
	case "leaveParty":
		s.leaveParty(p)
	case "inviteToParty":
		s.handleInviteToParty(p, pStr(payload, "playerId"))
	case "requestParty":
		s.sendPartySnapshot(client, p)

	case "createClan":
		s.handleCreateClan(client, p, pStr(payload, "name"))
	case "joinClan":
		s.handleJoinClan(client, p, pStr(payload, "name"))
	case "leaveClan":
		s.handleLeaveClan(client, p)
	case "getClanData":
		s.handleGetClanData(client, p)
	case "completeClanChallenge":
		s.handleCompleteClanChallenge(p)

	case "getLobbyList":
		s.handleGetLobbyList(client)
	case "getPlayerList":
		client.Send(channel.Message{"type": "updatePlayerList", "players": s.sessions.Names()})

	default:
		log.WithFields(log.Fields{"session_id": p.ID, "event": typ}).Debug("unknown event")
	}
}

// handleJoinLobby covers both quick play (explicit mode) and auto-join.
func (s *Server) handleJoinLobby(client *channel.Client, p *models.PlayerSession, payload map[string]interface{}) {
	if p.CurrentLobbyID != "" {
		s.reg.Remove(p.ID, "rejoining")
	}
	group, ok := s.groupFor(p)
	if !ok {
		client.Send(channel.Message{"type": "serverMessage", "messageText": "STR_PARTY_HOST_ONLY"})
		return
	}

	poolID := pStr(payload, "gameModeId")
	if poolID != "" {
		if _, res := s.sched.QuickJoin(poolID, group); res != lobby.JoinSuccess {
			client.Send(joinFailureWindow(res))
		}
		return
	}

	attempts := s.sessions.BumpAttempts(p.ID)
	includeBattlezone := pBool(payload, "bBattlezone")
	if _, ok := s.sched.AutoJoin(group, attempts, includeBattlezone); ok {
		s.sessions.ResetAttempts(p.ID)
	} else {
		client.Send(channel.Message{"type": "serverMessage", "messageText": "STR_SEARCHING_FOR_GAME"})
	}
}

func (s *Server) handleJoinLobbyByID(client *channel.Client, p *models.PlayerSession, lobbyID string) {
	if lobbyID == "" {
		return
	}
	if p.CurrentLobbyID != "" {
		s.reg.Remove(p.ID, "rejoining")
	}
	group, ok := s.groupFor(p)
	if !ok {
		client.Send(channel.Message{"type": "serverMessage", "messageText": "STR_PARTY_HOST_ONLY"})
		return
	}
	if _, exists := s.reg.Get(lobbyID); !exists {
		client.Send(channel.Message{
			"type":            "showWindow",
			"titleText":       "STR_ERROR",
			"messageText":     "STR_CUSTOM_LOBBY_NON_EXISTANT_DESC",
			"messageParams":   []string{lobbyID},
			"bShowOkayButton": true,
		})
		return
	}
	if res := s.sched.JoinGroup(lobbyID, group); res != lobby.JoinSuccess {
		client.Send(joinFailureWindow(res))
	}
}

func (s *Server) handleCreatePrivateLobby(client *channel.Client, p *models.PlayerSession) {
	if p.CurrentLobbyID != "" {
		s.reg.Remove(p.ID, "create_private_lobby")
	}
	group, ok := s.groupFor(p)
	if !ok {
		return
	}
	id, err := s.reg.CreatePrivate(group[0])
	if err != nil {
		client.Send(channel.Message{
			"type":            "showWindow",
			"titleText":       "STR_ERROR",
			"messageText":     "STR_CUSTOM_LOBBY_MAX_CAPACITY_DESC",
			"bShowOkayButton": true,
		})
		return
	}
	for _, m := range group[1:] {
		s.reg.Join(id, m)
	}
}

func (s *Server) handleKickPrivate(p *models.PlayerSession, targetID string) {
	if targetID == "" || targetID == p.ID {
		return
	}
	// A party host may eject party members regardless of lobby ownership.
	if pt, ok := s.parties.ByMember(p.ID); ok && pt.HostID == p.ID && pt.Has(targetID) {
		if target, ok := s.sessions.Get(targetID); ok {
			s.leaveParty(target)
		}
		s.reg.Remove(targetID, "kicked")
		return
	}
	s.reg.KickPrivate(p.ID, targetID)
}

func (s *Server) handlePrivateSettings(client *channel.Client, p *models.PlayerSession, payload map[string]interface{}) {
	patch := lobby.SettingsPatch{
		Ints:  map[string]int{},
		Bools: map[string]bool{},
	}
	for key, raw := range payload {
		switch v := raw.(type) {
		case string:
			if key == "gameModeId" {
				patch.GameModeID = v
			}
		case bool:
			patch.Bools[key] = v
		case float64:
			patch.Ints[key] = int(v)
		}
	}
	if err := s.reg.UpdatePrivateSettings(p.ID, patch); err != nil {
		// Host-only surface; a non-host sending this is a tampered client.
		client.Disconnect("kicked")
	}
}

// handleLatency applies the latency policy: hard ceiling disconnects,
// the softer lobby ceiling just removes from public matchmaking.
func (s *Server) handleLatency(client *channel.Client, p *models.PlayerSession, payload map[string]interface{}) {
	ms := pInt(payload, "latency", 0)
	if ms < 0 {
		return
	}
	s.reg.SetLatency(p.ID, ms)
	if s.cfg.MaxLatency > 0 && ms >= s.cfg.MaxLatency {
		log.WithFields(log.Fields{"session_id": p.ID, "latency_ms": ms}).Info("latency ceiling exceeded")
		client.Disconnect("latency")
		return
	}
	if s.cfg.MaxLobbyLatency > 0 && ms >= s.cfg.MaxLobbyLatency && p.CurrentLobbyID != "" {
		if snap, ok := s.reg.Get(p.CurrentLobbyID); ok {
			if private, _ := snap["bPrivate"].(bool); !private {
				s.reg.Remove(p.ID, "latency")
			}
		}
	}
}

func (s *Server) handleGetLobbyList(client *channel.Client) {
	lobbies := make([]map[string]interface{}, 0)
	for _, sum := range s.reg.Summaries(gamedata.PrivatePool) {
		lobbies = append(lobbies, map[string]interface{}{
			"id":         sum.ID,
			"gameModeId": sum.GameModeID,
			"players":    sum.Players,
			"maxPlayers": sum.MaxPlayers,
			"state":      sum.State.String(),
		})
	}
	client.Send(channel.Message{"type": "updateLobbyList", "lobbies": lobbies})
}

// groupFor resolves the join group: the whole party when the caller hosts
// one, just the caller otherwise. Non-host party members cannot move.
func (s *Server) groupFor(p *models.PlayerSession) ([]*models.PlayerSession, bool) {
	if p.CurrentPartyID == "" {
		return []*models.PlayerSession{p}, true
	}
	pt, ok := s.parties.Get(p.CurrentPartyID)
	if !ok {
		return []*models.PlayerSession{p}, true
	}
	if pt.HostID != p.ID {
		return nil, false
	}
	group := make([]*models.PlayerSession, 0, len(pt.MemberIDs))
	for _, id := range pt.Members() {
		if m, ok := s.sessions.Get(id); ok && m.CurrentLobbyID == "" {
			group = append(group, m)
		}
	}
	if len(group) == 0 {
		return nil, false
	}
	return group, true
}

func joinFailureWindow(res lobby.JoinResult) channel.Message {
	msg := "STR_CUSTOM_LOBBY_NON_EXISTANT_DESC"
	switch res {
	case lobby.JoinFailLocked:
		msg = "STR_CUSTOM_LOBBY_LOCKED_DESC"
	case lobby.JoinFailCapacity:
		msg = "STR_CUSTOM_LOBBY_MAX_CAPACITY_DESC"
	}
	return channel.Message{
		"type":            "showWindow",
		"titleText":       "STR_ERROR",
		"messageText":     msg,
		"bShowOkayButton": true,
	}
}

func pStr(payload map[string]interface{}, key string) string {
	v, _ := payload[key].(string)
	return v
}

func pInt(payload map[string]interface{}, key string, def int) int {
	switch v := payload[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return def
}

func pBool(payload map[string]interface{}, key string) bool {
	v, _ := payload[key].(bool)
	return v
}
