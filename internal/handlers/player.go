// internal/handlers/player.go
//
// Client-state handshake, chat, party and clan operations.
package handlers

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/skirmish-io/skirmish-server/internal/channel"
	"github.com/skirmish-io/skirmish-server/internal/clan"
	"github.com/skirmish-io/skirmish-server/internal/gamedata"
	"github.com/skirmish-io/skirmish-server/internal/models"
	"github.com/skirmish-io/skirmish-server/internal/party"
	"github.com/skirmish-io/skirmish-server/internal/sanitize"
)

const directoryTimeout = 3 * time.Second

// handleUpdatePlayerData is the client-state handshake. Out-of-bounds
// progression, illegal loadouts and malformed avatars mean a tampered
// client; the connection is told why and cut.
func (s *Server) handleUpdatePlayerData(client *channel.Client, p *models.PlayerSession, payload map[string]interface{}) {
	if reason := validatePlayerData(payload); reason != "" {
		log.WithFields(log.Fields{"session_id": p.ID, "reason": reason}).Warn("handshake rejected")
		client.Send(channel.Message{
			"type":            "showWindow",
			"titleText":       "STR_INVALID_DATA",
			"messageText":     reason,
			"bShowOkayButton": true,
		})
		client.Disconnect("kicked")
		return
	}

	p.Name = sanitize.PlayerName(pStr(payload, "name"))
	p.Level = pInt(payload, "level", 1)
	p.Prestige = pInt(payload, "prestige", 0)
	p.Card = pStr(payload, "card")
	p.Callsign = pStr(payload, "callsign")
	if u := pStr(payload, "username"); u != "" {
		p.Username = u
	}

	if avatars, ok := payload["avatars"].(map[string]interface{}); ok {
		p.Avatars = parseAvatarSet(avatars)
	}

	s.attachClan(p)
	client.Send(channel.Message{"type": "updatePlayerData", "player": p.Snapshot()})
	s.broadcastServerStats()
}

// validatePlayerData returns a rejection reason, or empty for a clean
// handshake.
func validatePlayerData(payload map[string]interface{}) string {
	if sanitize.PlayerName(pStr(payload, "name")) == "" {
		return "STR_INVALID_NAME"
	}
	level := pInt(payload, "level", 0)
	if level < 1 || level > gamedata.MaxLevel {
		return "STR_INVALID_LEVEL"
	}
	prestige := pInt(payload, "prestige", 0)
	if prestige < 0 || prestige > gamedata.MaxPrestige {
		return "STR_INVALID_PRESTIGE"
	}

	if raw, ok := payload["loadout"].([]interface{}); ok {
		for _, w := range raw {
			id, _ := w.(string)
			if !gamedata.IsValidWeaponID(id) {
				return "STR_INVALID_LOADOUT"
			}
		}
	}

	if ks, ok := payload["killstreaks"].(map[string]interface{}); ok {
		limits := map[string]int{
			"assault":    gamedata.MaxAssaultKillstreaks,
			"support":    gamedata.MaxSupportKillstreaks,
			"specialist": gamedata.MaxSpecialistKillstreaks,
		}
		for category, limit := range limits {
			if count, ok := ks[category].(float64); ok && int(count) > limit {
				return "STR_INVALID_KILLSTREAKS"
			}
		}
	}

	if avatars, ok := payload["avatars"].(map[string]interface{}); ok {
		byFaction, _ := avatars["byFaction"].(map[string]interface{})
		for faction := range byFaction {
			if !validFaction(faction) {
				return "STR_INVALID_AVATAR"
			}
		}
	}
	return ""
}

func validFaction(id string) bool {
	for _, f := range gamedata.Factions() {
		if f == id {
			return true
		}
	}
	return false
}

func parseAvatarSet(raw map[string]interface{}) models.AvatarSet {
	set := models.AvatarSet{
		Preferred: "",
		ByFaction: make(map[string]models.Avatar),
	}
	set.Preferred, _ = raw["preferred"].(string)
	byFaction, _ := raw["byFaction"].(map[string]interface{})
	for faction, av := range byFaction {
		fields, ok := av.(map[string]interface{})
		if !ok {
			continue
		}
		avatar := make(models.Avatar, len(fields))
		for k, v := range fields {
			if str, ok := v.(string); ok {
				avatar[k] = str
			}
		}
		set.ByFaction[faction] = avatar
	}
	return set
}

// attachClan loads the player's clan membership from the directory.
func (s *Server) attachClan(p *models.PlayerSession) {
	if p.Username == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), directoryTimeout)
	defer cancel()
	info, leader, err := s.clans.FindByPlayer(ctx, p.Username)
	if err != nil {
		if !errors.Is(err, clan.ErrUnavailable) && !errors.Is(err, clan.ErrNotFound) {
			log.WithError(err).Warn("clan lookup failed")
		}
		return
	}
	p.Clan = info.Name
	p.IsClanLeader = leader
}

// handleChat relays a sanitized lobby chat line.
func (s *Server) handleChat(p *models.PlayerSession, payload map[string]interface{}) {
	if p.CurrentLobbyID == "" {
		return
	}
	text := sanitize.ChatMessage(pStr(payload, "messageText"))
	if text == "" {
		return
	}
	s.hub.BroadcastRoom(p.CurrentLobbyID, channel.Message{
		"type":        "receiveLobbyChatMessage",
		"playerId":    p.ID,
		"playerName":  p.Name,
		"messageText": text,
	})
}

// -- parties --

func partyRoom(partyID string) string { return "P-" + partyID }

func (s *Server) handleCreateParty(client *channel.Client, p *models.PlayerSession) {
	pt, err := s.parties.Create(p.ID, p.CurrentLobbyID != "")
	switch {
	case errors.Is(err, party.ErrInLobby):
		client.Send(channel.Message{"type": "serverMessage", "messageText": "STR_LEAVE_LOBBY_FIRST"})
		return
	case errors.Is(err, party.ErrAlreadyInParty):
		return
	case err != nil:
		return
	}
	p.CurrentPartyID = pt.ID
	p.IsPartyHost = true
	s.hub.JoinRoom(partyRoom(pt.ID), p.ID)
	s.broadcastParty(pt)
}

func (s *Server) handleJoinParty(client *channel.Client, p *models.PlayerSession, partyID string) {
	pt, err := s.parties.Join(partyID, p.ID)
	switch {
	case errors.Is(err, party.ErrFull):
		client.Send(channel.Message{"type": "serverMessage", "messageText": "STR_PARTY_FULL"})
		return
	case err != nil:
		return
	}
	p.CurrentPartyID = pt.ID
	s.hub.JoinRoom(partyRoom(pt.ID), p.ID)
	s.broadcastParty(pt)

	// Late joiners follow the host into their current lobby when it still
	// has room.
	if host, ok := s.sessions.Get(pt.HostID); ok && host.CurrentLobbyID != "" {
		s.reg.Join(host.CurrentLobbyID, p)
	}
}

// leaveParty removes p from their party, disbanding it if p hosts it.
func (s *Server) leaveParty(p *models.PlayerSession) {
	if p.CurrentPartyID == "" {
		return
	}
	partyID := p.CurrentPartyID
	pt, disbanded, displaced := s.parties.Leave(p.ID)
	p.CurrentPartyID = ""
	p.IsPartyHost = false
	s.hub.LeaveRoom(partyRoom(partyID), p.ID)
	if pt == nil {
		return
	}
	if disbanded {
		for _, id := range displaced {
			if m, ok := s.sessions.Get(id); ok {
				m.CurrentPartyID = ""
				m.IsPartyHost = false
			}
			s.hub.SendTo(id, channel.Message{"type": "leaveParty"})
			s.hub.LeaveRoom(partyRoom(partyID), id)
		}
		return
	}
	s.broadcastParty(pt)
}

func (s *Server) handleInviteToParty(p *models.PlayerSession, targetID string) {
	pt, ok := s.parties.ByMember(p.ID)
	if !ok || targetID == "" {
		return
	}
	s.hub.SendTo(targetID, channel.Message{
		"type":     "partyInvite",
		"partyId":  pt.ID,
		"fromId":   p.ID,
		"fromName": p.Name,
	})
}

func (s *Server) sendPartySnapshot(client *channel.Client, p *models.PlayerSession) {
	pt, ok := s.parties.ByMember(p.ID)
	if !ok {
		client.Send(channel.Message{"type": "leaveParty"})
		return
	}
	client.Send(s.partyMessage(pt))
}

func (s *Server) broadcastParty(pt *party.Party) {
	s.hub.BroadcastRoom(partyRoom(pt.ID), s.partyMessage(pt))
}

func (s *Server) partyMessage(pt *party.Party) channel.Message {
	players := make([]models.PlayerSession, 0, len(pt.MemberIDs))
	for _, id := range pt.Members() {
		if m, ok := s.sessions.Get(id); ok {
			players = append(players, m.Snapshot())
		}
	}
	return channel.Message{
		"type": "updateParty",
		"party": map[string]interface{}{
			"id":           pt.ID,
			"hostPlayerId": pt.HostID,
			"players":      players,
		},
	}
}

// -- clans --

func (s *Server) handleCreateClan(client *channel.Client, p *models.PlayerSession, name string) {
	if p.Username == "" {
		client.Send(channel.Message{"type": "serverMessage", "messageText": "STR_GUESTS_CANNOT_CLAN"})
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), directoryTimeout)
	defer cancel()
	err := s.clans.Create(ctx, name, p.Username)
	if err != nil {
		client.Send(clanErrorWindow(err))
		return
	}
	p.Clan = name
	p.IsClanLeader = true
	s.handleGetClanData(client, p)
}

func (s *Server) handleJoinClan(client *channel.Client, p *models.PlayerSession, name string) {
	if p.Username == "" {
		client.Send(channel.Message{"type": "serverMessage", "messageText": "STR_GUESTS_CANNOT_CLAN"})
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), directoryTimeout)
	defer cancel()
	if err := s.clans.AddPlayer(ctx, name, p.Username); err != nil {
		client.Send(clanErrorWindow(err))
		return
	}
	p.Clan = name
	p.IsClanLeader = false
	s.handleGetClanData(client, p)
}

func (s *Server) handleLeaveClan(client *channel.Client, p *models.PlayerSession) {
	if p.Username == "" || p.Clan == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), directoryTimeout)
	defer cancel()
	dissolved, clanName, err := s.clans.RemovePlayer(ctx, p.Username)
	if err != nil {
		client.Send(clanErrorWindow(err))
		return
	}
	if dissolved {
		log.WithField("clan", clanName).Info("clan dissolved by leader departure")
	}
	p.Clan = ""
	p.IsClanLeader = false
	client.Send(channel.Message{"type": "updateClanData", "clan": nil})
}

func (s *Server) handleGetClanData(client *channel.Client, p *models.PlayerSession) {
	ctx, cancel := context.WithTimeout(context.Background(), directoryTimeout)
	defer cancel()
	ranked, err := s.clans.ListRanked(ctx)
	if err != nil {
		if !errors.Is(err, clan.ErrUnavailable) {
			log.WithError(err).Warn("clan ranking failed")
		}
		return
	}
	msg := channel.Message{"type": "updateClanData", "clans": ranked}
	if p.Clan != "" {
		if own, err := s.clans.FindByName(ctx, p.Clan); err == nil {
			msg["clan"] = own
		}
	}
	client.Send(msg)
}

// handleCompleteClanChallenge credits one challenge point to the caller's
// clan. The game client reports completions; the tally lives with the
// clan's score.
func (s *Server) handleCompleteClanChallenge(p *models.PlayerSession) {
	if p.Clan == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), directoryTimeout)
	defer cancel()
	s.reporter.CreditChallenge(ctx, p.Clan)
	log.WithFields(log.Fields{"session_id": p.ID, "clan": p.Clan}).Info("clan challenge completed")
}

func clanErrorWindow(err error) channel.Message {
	msg := "STR_CLAN_ERROR_DESC"
	switch {
	case errors.Is(err, clan.ErrNameTaken):
		msg = "STR_CLAN_NAME_TAKEN_DESC"
	case errors.Is(err, clan.ErrInvalidName):
		msg = "STR_CLAN_NAME_INVALID_DESC"
	case errors.Is(err, clan.ErrAlreadyMember):
		msg = "STR_CLAN_ALREADY_MEMBER_DESC"
	case errors.Is(err, clan.ErrNotFound):
		msg = "STR_CLAN_NOT_FOUND_DESC"
	case errors.Is(err, clan.ErrUnavailable):
		msg = "STR_CLAN_UNAVAILABLE_DESC"
	}
	return channel.Message{
		"type":            "showWindow",
		"titleText":       "STR_ERROR",
		"messageText":     msg,
		"bShowOkayButton": true,
	}
}
