// internal/handlers/handlers_test.go
package handlers

import (
	"context"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skirmish-io/skirmish-server/internal/channel"
	"github.com/skirmish-io/skirmish-server/internal/clan"
	"github.com/skirmish-io/skirmish-server/internal/config"
	"github.com/skirmish-io/skirmish-server/internal/gamedata"
	"github.com/skirmish-io/skirmish-server/internal/lobby"
	"github.com/skirmish-io/skirmish-server/internal/matchmaking"
	"github.com/skirmish-io/skirmish-server/internal/models"
	"github.com/skirmish-io/skirmish-server/internal/party"
	"github.com/skirmish-io/skirmish-server/internal/stats"
)

// recordingDirectory counts score credits; everything else is disabled.
type recordingDirectory struct {
	clan.Disabled
	mu     sync.Mutex
	scores map[string]int64
}

func (d *recordingDirectory) IncrementScore(ctx context.Context, name string, score, kills int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.scores == nil {
		d.scores = make(map[string]int64)
	}
	d.scores[name] += score
	return nil
}

func (d *recordingDirectory) scoreOf(name string) int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.scores[name]
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	hub := channel.NewHub()
	parties := party.NewManager()
	reg := lobby.NewRegistry(lobby.Options{AllowVotekick: true}, lobby.Deps{
		Notify:  hub,
		Clock:   lobby.NewManualClock(),
		Parties: parties,
		Rand:    rand.New(rand.NewSource(7)),
	})
	reg.Seed()
	sched := matchmaking.NewScheduler(reg, rand.New(rand.NewSource(7)))
	return NewServer(config.Config{MaxClients: 64}, hub, reg, sched, parties, clan.Disabled{}, nil)
}

// attach registers a connected test client and returns its session.
func attach(t *testing.T, s *Server, id, name string) (*channel.Client, *models.PlayerSession) {
	t.Helper()
	c := channel.NewClient(id, func() {})
	s.hub.Register(c)
	p := s.sessions.Ensure(id)
	p.Name = name
	p.Level = 10
	return c, p
}

func drain(c *channel.Client) []channel.Message {
	var out []channel.Message
	for {
		select {
		case m := <-c.OutChan:
			out = append(out, m)
		default:
			return out
		}
	}
}

func messageTypes(msgs []channel.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		typ, _ := m["type"].(string)
		out = append(out, typ)
	}
	return out
}

func validHandshake(name string) map[string]interface{} {
	return map[string]interface{}{
		"name":     name,
		"level":    float64(12),
		"prestige": float64(1),
	}
}

func TestHandshakeValidation(t *testing.T) {
	const weapon = "m4a1"

	cases := []struct {
		desc    string
		mutate  func(p map[string]interface{})
		rejects string
	}{
		{"clean payload", func(p map[string]interface{}) {}, ""},
		{"markup-only name", func(p map[string]interface{}) { p["name"] = "<b></b>" }, "STR_INVALID_NAME"},
		{"level zero", func(p map[string]interface{}) { p["level"] = float64(0) }, "STR_INVALID_LEVEL"},
		{"level above cap", func(p map[string]interface{}) { p["level"] = float64(gamedata.MaxLevel + 1) }, "STR_INVALID_LEVEL"},
		{"prestige above cap", func(p map[string]interface{}) { p["prestige"] = float64(gamedata.MaxPrestige + 1) }, "STR_INVALID_PRESTIGE"},
		{"unknown weapon", func(p map[string]interface{}) { p["loadout"] = []interface{}{"plasma_rifle"} }, "STR_INVALID_LOADOUT"},
		{"known weapon", func(p map[string]interface{}) { p["loadout"] = []interface{}{weapon} }, ""},
		{"too many specialist killstreaks", func(p map[string]interface{}) {
			p["killstreaks"] = map[string]interface{}{"specialist": float64(gamedata.MaxSpecialistKillstreaks + 1)}
		}, "STR_INVALID_KILLSTREAKS"},
		{"unknown avatar faction", func(p map[string]interface{}) {
			p["avatars"] = map[string]interface{}{"byFaction": map[string]interface{}{"martians": map[string]interface{}{}}}
		}, "STR_INVALID_AVATAR"},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			payload := validHandshake("Dusty")
			tc.mutate(payload)
			assert.Equal(t, tc.rejects, validatePlayerData(payload))
		})
	}
}

func TestHandshakeRejectionDisconnects(t *testing.T) {
	s := newTestServer(t)
	disconnected := false
	c := channel.NewClient("p1", func() { disconnected = true })
	s.hub.Register(c)
	p := s.sessions.Ensure("p1")

	payload := validHandshake("Cheater")
	payload["level"] = float64(999)
	s.handleUpdatePlayerData(c, p, payload)

	assert.True(t, disconnected)
	assert.Empty(t, p.Name, "rejected handshake must not name the session")
}

func TestHandshakePopulatesSession(t *testing.T) {
	s := newTestServer(t)
	c := channel.NewClient("p1", func() {})
	s.hub.Register(c)
	p := s.sessions.Ensure("p1")

	payload := validHandshake("  <i>Dusty</i>  ")
	payload["card"] = "wilkin"
	faction := gamedata.Factions()[0]
	payload["avatars"] = map[string]interface{}{
		"preferred": faction,
		"byFaction": map[string]interface{}{
			faction: map[string]interface{}{"head": "helmet_1"},
		},
	}
	s.handleUpdatePlayerData(c, p, payload)

	assert.Equal(t, "Dusty", p.Name)
	assert.Equal(t, 12, p.Level)
	assert.Equal(t, "wilkin", p.Card)
	require.Contains(t, p.Avatars.ByFaction, faction)
	assert.Equal(t, "helmet_1", p.Avatars.ByFaction[faction]["head"])
	assert.Contains(t, messageTypes(drain(c)), "updatePlayerData")
}

func TestUnnamedSessionOnlyHandshakes(t *testing.T) {
	s := newTestServer(t)
	c := channel.NewClient("p1", func() {})
	s.hub.Register(c)
	p := s.sessions.Ensure("p1")

	s.dispatch(c, p, "joinLobby", map[string]interface{}{"gameModeId": gamedata.ModeDeathmatch})
	assert.Empty(t, p.CurrentLobbyID)

	s.dispatch(c, p, "updatePlayerData", validHandshake("Dusty"))
	require.Equal(t, "Dusty", p.Name)

	s.dispatch(c, p, "joinLobby", map[string]interface{}{"gameModeId": gamedata.ModeDeathmatch})
	assert.NotEmpty(t, p.CurrentLobbyID)
}

func TestChatRelaysSanitizedText(t *testing.T) {
	s := newTestServer(t)
	c1, p1 := attach(t, s, "p1", "Alice")
	c2, p2 := attach(t, s, "p2", "Bob")

	s.dispatch(c1, p1, "joinLobby", map[string]interface{}{"gameModeId": gamedata.ModeDeathmatch})
	s.dispatch(c2, p2, "joinLobby", map[string]interface{}{"gameModeId": gamedata.ModeDeathmatch})
	require.Equal(t, p1.CurrentLobbyID, p2.CurrentLobbyID)
	drain(c1)
	drain(c2)

	s.handleChat(p1, map[string]interface{}{"messageText": "<b>gg</b> :)"})

	var chat channel.Message
	for _, m := range drain(c2) {
		if m["type"] == "receiveLobbyChatMessage" {
			chat = m
		}
	}
	require.NotNil(t, chat)
	assert.Equal(t, "gg \U0001F642", chat["messageText"])
	assert.Equal(t, "Alice", chat["playerName"])
}

func TestChatDropsEmptyAfterStripping(t *testing.T) {
	s := newTestServer(t)
	c1, p1 := attach(t, s, "p1", "Alice")
	s.dispatch(c1, p1, "joinLobby", map[string]interface{}{"gameModeId": gamedata.ModeDeathmatch})
	drain(c1)

	s.handleChat(p1, map[string]interface{}{"messageText": "<b></b>  "})
	assert.NotContains(t, messageTypes(drain(c1)), "receiveLobbyChatMessage")
}

func TestCreatePartyRefusedWhileInLobby(t *testing.T) {
	s := newTestServer(t)
	c, p := attach(t, s, "p1", "Alice")
	s.dispatch(c, p, "joinLobby", map[string]interface{}{"gameModeId": gamedata.ModeDeathmatch})
	require.NotEmpty(t, p.CurrentLobbyID)
	drain(c)

	s.handleCreateParty(c, p)

	assert.Empty(t, p.CurrentPartyID)
	assert.Equal(t, 0, s.parties.Count())
	msgs := drain(c)
	require.NotEmpty(t, msgs)
	assert.Equal(t, "STR_LEAVE_LOBBY_FIRST", msgs[0]["messageText"])
}

func TestPartyLifecycle(t *testing.T) {
	s := newTestServer(t)
	cHost, host := attach(t, s, "host", "Host")
	cMate, mate := attach(t, s, "mate", "Mate")

	s.handleCreateParty(cHost, host)
	require.NotEmpty(t, host.CurrentPartyID)
	assert.True(t, host.IsPartyHost)

	s.handleJoinParty(cMate, mate, host.CurrentPartyID)
	assert.Equal(t, host.CurrentPartyID, mate.CurrentPartyID)

	pt, ok := s.parties.Get(host.CurrentPartyID)
	require.True(t, ok)
	assert.Equal(t, []string{"host", "mate"}, pt.Members())

	// Host departure disbands and notifies the displaced member.
	drain(cMate)
	s.leaveParty(host)
	assert.Empty(t, host.CurrentPartyID)
	assert.Empty(t, mate.CurrentPartyID)
	assert.Equal(t, 0, s.parties.Count())
	assert.Contains(t, messageTypes(drain(cMate)), "leaveParty")
}

func TestPartyGroupFollowsHostIntoLobby(t *testing.T) {
	s := newTestServer(t)
	cHost, host := attach(t, s, "host", "Host")
	cMate, mate := attach(t, s, "mate", "Mate")

	s.handleCreateParty(cHost, host)
	s.handleJoinParty(cMate, mate, host.CurrentPartyID)

	s.dispatch(cHost, host, "joinLobby", map[string]interface{}{"gameModeId": gamedata.ModeDeathmatch})

	require.NotEmpty(t, host.CurrentLobbyID)
	assert.Equal(t, host.CurrentLobbyID, mate.CurrentLobbyID)
}

func TestPartyNonHostCannotMoveGroup(t *testing.T) {
	s := newTestServer(t)
	cHost, host := attach(t, s, "host", "Host")
	cMate, mate := attach(t, s, "mate", "Mate")

	s.handleCreateParty(cHost, host)
	s.handleJoinParty(cMate, mate, host.CurrentPartyID)
	drain(cMate)

	s.dispatch(cMate, mate, "joinLobby", map[string]interface{}{"gameModeId": gamedata.ModeDeathmatch})

	assert.Empty(t, mate.CurrentLobbyID)
	msgs := drain(cMate)
	require.NotEmpty(t, msgs)
	assert.Equal(t, "STR_PARTY_HOST_ONLY", msgs[0]["messageText"])
}

func TestLateJoinerFollowsSeatedHost(t *testing.T) {
	s := newTestServer(t)
	cHost, host := attach(t, s, "host", "Host")
	cMate, mate := attach(t, s, "mate", "Mate")

	s.handleCreateParty(cHost, host)
	s.dispatch(cHost, host, "joinLobby", map[string]interface{}{"gameModeId": gamedata.ModeDeathmatch})
	require.NotEmpty(t, host.CurrentLobbyID)

	s.handleJoinParty(cMate, mate, host.CurrentPartyID)
	assert.Equal(t, host.CurrentLobbyID, mate.CurrentLobbyID)
}

func TestClanOpsDegradeWithoutBackend(t *testing.T) {
	s := newTestServer(t)
	c, p := attach(t, s, "p1", "Alice")
	p.Username = "alice"

	s.handleCreateClan(c, p, "Raiders")
	assert.Empty(t, p.Clan)
	msgs := drain(c)
	require.NotEmpty(t, msgs)
	assert.Equal(t, "showWindow", msgs[0]["type"])
	assert.Equal(t, "STR_CLAN_UNAVAILABLE_DESC", msgs[0]["messageText"])
}

func TestClanOpsRefuseGuests(t *testing.T) {
	s := newTestServer(t)
	c, p := attach(t, s, "p1", "Guest123")

	s.handleJoinClan(c, p, "Raiders")
	msgs := drain(c)
	require.NotEmpty(t, msgs)
	assert.Equal(t, "STR_GUESTS_CANNOT_CLAN", msgs[0]["messageText"])
}

func TestClanChallengeCreditsScore(t *testing.T) {
	dir := &recordingDirectory{}
	reporter, err := stats.NewReporter("", "q", dir)
	require.NoError(t, err)

	hub := channel.NewHub()
	parties := party.NewManager()
	reg := lobby.NewRegistry(lobby.Options{}, lobby.Deps{
		Notify:  hub,
		Clock:   lobby.NewManualClock(),
		Parties: parties,
		Rand:    rand.New(rand.NewSource(7)),
	})
	reg.Seed()
	sched := matchmaking.NewScheduler(reg, rand.New(rand.NewSource(7)))
	s := NewServer(config.Config{MaxClients: 64}, hub, reg, sched, parties, dir, reporter)

	c, p := attach(t, s, "p1", "Alice")
	p.Clan = "Raiders"

	s.dispatch(c, p, "completeClanChallenge", nil)
	assert.Equal(t, int64(1), dir.scoreOf("Raiders"))

	// Clanless players earn nothing.
	c2, p2 := attach(t, s, "p2", "Bob")
	s.dispatch(c2, p2, "completeClanChallenge", nil)
	assert.Equal(t, int64(1), dir.scoreOf("Raiders"))
	assert.Zero(t, dir.scoreOf(""))
}

func TestAutoJoinAttemptCounter(t *testing.T) {
	s := NewSessionStore()
	assert.Equal(t, 1, s.BumpAttempts("p1"))
	assert.Equal(t, 2, s.BumpAttempts("p1"))
	assert.Equal(t, 1, s.BumpAttempts("p2"))
	s.ResetAttempts("p1")
	assert.Equal(t, 1, s.BumpAttempts("p1"))
}

func TestJoinFailureWindowMessages(t *testing.T) {
	assert.Equal(t, "STR_CUSTOM_LOBBY_LOCKED_DESC", joinFailureWindow(lobby.JoinFailLocked)["messageText"])
	assert.Equal(t, "STR_CUSTOM_LOBBY_MAX_CAPACITY_DESC", joinFailureWindow(lobby.JoinFailCapacity)["messageText"])
}

func TestJoinByUnknownIDShowsWindow(t *testing.T) {
	s := newTestServer(t)
	c, p := attach(t, s, "p1", "Alice")

	s.handleJoinLobbyByID(c, p, "L-nope")

	msgs := drain(c)
	require.NotEmpty(t, msgs)
	assert.Equal(t, "showWindow", msgs[0]["type"])
	assert.Equal(t, "STR_CUSTOM_LOBBY_NON_EXISTANT_DESC", msgs[0]["messageText"])
}

func TestLatencyCeilingDisconnects(t *testing.T) {
	hub := channel.NewHub()
	parties := party.NewManager()
	reg := lobby.NewRegistry(lobby.Options{}, lobby.Deps{
		Notify:  hub,
		Clock:   lobby.NewManualClock(),
		Parties: parties,
		Rand:    rand.New(rand.NewSource(7)),
	})
	reg.Seed()
	sched := matchmaking.NewScheduler(reg, rand.New(rand.NewSource(7)))
	s := NewServer(config.Config{MaxClients: 64, MaxLatency: 500}, hub, reg, sched, parties, clan.Disabled{}, nil)

	disconnected := false
	c := channel.NewClient("p1", func() { disconnected = true })
	s.hub.Register(c)
	p := s.sessions.Ensure("p1")
	p.Name = "Laggy"

	s.handleLatency(c, p, map[string]interface{}{"latency": float64(750)})
	assert.True(t, disconnected)
}
