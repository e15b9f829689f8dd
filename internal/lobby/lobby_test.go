package lobby

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skirmish-io/skirmish-server/internal/channel"
	"github.com/skirmish-io/skirmish-server/internal/gamedata"
	"github.com/skirmish-io/skirmish-server/internal/models"
)

type sentMessage struct {
	room   string
	target string
	msg    channel.Message
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (n *recordingNotifier) BroadcastRoom(room string, msg channel.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMessage{room: room, msg: msg})
}

func (n *recordingNotifier) SendTo(sessionID string, msg channel.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMessage{target: sessionID, msg: msg})
}

func (n *recordingNotifier) JoinRoom(room, sessionID string)  {}
func (n *recordingNotifier) LeaveRoom(room, sessionID string) {}

func (n *recordingNotifier) typesFor(target string) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, s := range n.sent {
		if s.target == target {
			out = append(out, fmt.Sprint(s.msg["type"]))
		}
	}
	return out
}

func (n *recordingNotifier) sawBroadcast(room, msgType string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, s := range n.sent {
		if s.room == room && fmt.Sprint(s.msg["type"]) == msgType {
			return true
		}
	}
	return false
}

func newTestRegistry(t *testing.T, opts Options) (*Registry, *ManualClock, *recordingNotifier) {
	t.Helper()
	clock := NewManualClock()
	notify := &recordingNotifier{}
	r := NewRegistry(opts, Deps{
		Notify: notify,
		Clock:  clock,
		Rand:   rand.New(rand.NewSource(11)),
	})
	return r, clock, notify
}

func human(id string) *models.PlayerSession {
	return &models.PlayerSession{
		ID: id, Name: id, Level: 20,
		Team: models.NoTeam, DesiredTeam: models.NoTeam,
	}
}

func stateOf(r *Registry, id string) State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id].State
}

func lobbyOf(r *Registry, id string) *Lobby {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id]
}

func firstLobbyID(r *Registry, pool string) string {
	return r.Summaries(pool)[0].ID
}

func TestSeedCreatesAllPools(t *testing.T) {
	r, _, _ := newTestRegistry(t, Options{})
	r.Seed()
	for _, pool := range gamedata.RotationPools() {
		assert.Equal(t, 1, r.PoolSize(pool), pool)
	}
	for _, pool := range gamedata.PublicModes() {
		assert.Equal(t, 1, r.PoolSize(pool), pool)
	}
	assert.Equal(t, 0, r.PoolSize(gamedata.PrivatePool))
}

func TestCountdownRunsThroughToMatch(t *testing.T) {
	r, clock, notify := newTestRegistry(t, Options{AllowJoinInProgress: true})
	r.Seed()
	id := firstLobbyID(r, gamedata.ModeTeamDeathmatch)

	require.Equal(t, JoinSuccess, r.Join(id, human("p1")))
	assert.Equal(t, StateWaiting, stateOf(r, id))

	require.Equal(t, JoinSuccess, r.Join(id, human("p2")))
	l := lobbyOf(r, id)
	assert.Equal(t, StatePreparing, stateOf(r, id))
	assert.Equal(t, CountdownPreparing, l.Timer)

	clock.Advance(CountdownPreparing * time.Second)
	assert.Equal(t, StateStarting, stateOf(r, id))
	assert.NotEqual(t, gamedata.MapRandom, l.MapID)

	clock.Advance(CountdownStarting * time.Second)
	assert.Equal(t, StateInProgress, stateOf(r, id))
	assert.True(t, notify.sawBroadcast(id, "startGame"))

	clock.Advance(EnterGameDelay * time.Second)
	assert.True(t, notify.sawBroadcast(id, "enterGame"))

	r.RequestGame("p1")
	r.RequestGame("p2")
	assert.True(t, notify.sawBroadcast(id, "initGame"))

	l = lobbyOf(r, id)
	r.mu.Lock()
	require.NotNil(t, l.Engine)
	l.Engine.Destroy()
	r.mu.Unlock()
}

func TestTeamsAssignedAtStart(t *testing.T) {
	r, clock, _ := newTestRegistry(t, Options{})
	r.Seed()
	id := firstLobbyID(r, gamedata.ModeDomination)
	for i := 0; i < 4; i++ {
		require.Equal(t, JoinSuccess, r.Join(id, human(fmt.Sprintf("p%d", i))))
	}
	clock.Advance(CountdownPreparing * time.Second)

	l := lobbyOf(r, id)
	r.mu.Lock()
	defer r.mu.Unlock()
	require.Equal(t, StateStarting, l.State)
	counts := map[int]int{}
	for _, p := range l.Members {
		counts[p.Team]++
	}
	assert.Equal(t, 2, counts[0])
	assert.Equal(t, 2, counts[1])
	assert.NotEmpty(t, l.Settings.Factions[0])
	assert.NotEqual(t, l.Settings.Factions[0], l.Settings.Factions[1])
}

func TestCapacityRejected(t *testing.T) {
	r, _, _ := newTestRegistry(t, Options{})
	r.Seed()
	id := firstLobbyID(r, gamedata.ModeDeathmatch)
	for i := 0; i < 8; i++ {
		require.Equal(t, JoinSuccess, r.Join(id, human(fmt.Sprintf("p%d", i))))
	}
	assert.Equal(t, JoinFailCapacity, r.Join(id, human("late")))
}

func TestLockedLobbyRejectsWithoutJoinInProgress(t *testing.T) {
	r, clock, _ := newTestRegistry(t, Options{AllowJoinInProgress: false})
	r.Seed()
	id := firstLobbyID(r, gamedata.ModeTeamDeathmatch)
	r.Join(id, human("p1"))
	r.Join(id, human("p2"))
	clock.Advance((CountdownPreparing + CountdownStarting) * time.Second)
	require.Equal(t, StateInProgress, stateOf(r, id))

	assert.Equal(t, JoinFailLocked, r.Join(id, human("late")))
}

func TestDuplicateNameSuffixed(t *testing.T) {
	r, _, _ := newTestRegistry(t, Options{})
	r.Seed()
	id := firstLobbyID(r, gamedata.ModeDeathmatch)
	a := human("a")
	a.Name = "Ghost"
	b := human("b")
	b.Name = "Ghost"
	r.Join(id, a)
	r.Join(id, b)
	assert.Equal(t, "Ghost", a.Name)
	assert.Equal(t, "Ghost (2)", b.Name)
}

func TestLeaveDuringPreparingResets(t *testing.T) {
	r, _, _ := newTestRegistry(t, Options{})
	r.Seed()
	id := firstLobbyID(r, gamedata.ModeTeamDeathmatch)
	r.Join(id, human("p1"))
	r.Join(id, human("p2"))
	require.Equal(t, StatePreparing, stateOf(r, id))

	r.Remove("p2", "left")
	assert.Equal(t, StateWaiting, stateOf(r, id))
	assert.Equal(t, noTimer, lobbyOf(r, id).Timer)
}

func TestSeedLobbySurvivesEmpty(t *testing.T) {
	r, _, _ := newTestRegistry(t, Options{})
	r.Seed()
	id := firstLobbyID(r, gamedata.ModeDeathmatch)
	p := human("p1")
	r.Join(id, p)
	r.Remove("p1", "left")

	assert.Equal(t, 1, r.PoolSize(gamedata.ModeDeathmatch))
	assert.Equal(t, "", p.CurrentLobbyID)
}

func TestOverflowLobbyDestroyedWhenEmpty(t *testing.T) {
	r, _, _ := newTestRegistry(t, Options{MaxPublicLobbies: 4})
	r.Seed()
	extra, ok := r.CreateInPool(gamedata.ModeDeathmatch)
	require.True(t, ok)
	r.Join(extra, human("p1"))
	r.Remove("p1", "left")

	assert.Equal(t, 1, r.PoolSize(gamedata.ModeDeathmatch))
	_, exists := r.Get(extra)
	assert.False(t, exists)
}

func TestMergePullsThinnerLobby(t *testing.T) {
	r, _, _ := newTestRegistry(t, Options{MaxPublicLobbies: 4})
	r.Seed()
	seed := firstLobbyID(r, gamedata.ModeTeamDeathmatch)
	donor, ok := r.CreateInPool(gamedata.ModeTeamDeathmatch)
	require.True(t, ok)

	require.Equal(t, JoinSuccess, r.Join(donor, human("solo")))
	r.Join(seed, human("p1"))
	r.Join(seed, human("p2"))

	l := lobbyOf(r, seed)
	r.mu.Lock()
	members := len(l.Members)
	r.mu.Unlock()
	assert.Equal(t, 3, members)
	_, exists := r.Get(donor)
	assert.False(t, exists)
}

func TestVoteKickNeedsMajority(t *testing.T) {
	r, _, notify := newTestRegistry(t, Options{AllowVotekick: true})
	r.Seed()
	id := firstLobbyID(r, gamedata.ModeDeathmatch)
	for i := 0; i < 4; i++ {
		r.Join(id, human(fmt.Sprintf("p%d", i)))
	}

	r.VoteKick("p0", "p3")
	assert.NotNil(t, lobbyOf(r, id).Member("p3"))

	// Same voter again is idempotent.
	r.VoteKick("p0", "p3")
	assert.NotNil(t, lobbyOf(r, id).Member("p3"))

	r.VoteKick("p1", "p3")
	assert.Nil(t, lobbyOf(r, id).Member("p3"))
	assert.Contains(t, notify.typesFor("p3"), "showWindow")
}

func TestVoteKickDisabled(t *testing.T) {
	r, _, _ := newTestRegistry(t, Options{AllowVotekick: false})
	r.Seed()
	id := firstLobbyID(r, gamedata.ModeDeathmatch)
	r.Join(id, human("p0"))
	r.Join(id, human("p1"))

	r.VoteKick("p0", "p1")
	r.VoteKick("p0", "p1")
	assert.NotNil(t, lobbyOf(r, id).Member("p1"))
}

func TestVoteMapMovesBetweenEntries(t *testing.T) {
	r, _, _ := newTestRegistry(t, Options{})
	r.Seed()
	id := firstLobbyID(r, gamedata.ModeDeathmatch)
	r.Join(id, human("p0"))

	r.VoteMap("p0", 0)
	l := lobbyOf(r, id)
	r.mu.Lock()
	assert.Equal(t, 1, l.MapBallot[0].Votes)
	r.mu.Unlock()

	r.VoteMap("p0", 1)
	r.mu.Lock()
	assert.Equal(t, 0, l.MapBallot[0].Votes)
	assert.Equal(t, 1, l.MapBallot[1].Votes)
	r.mu.Unlock()

	// A leaver takes their vote with them.
	r.Remove("p0", "left")
	r.mu.Lock()
	assert.Equal(t, 0, l.MapBallot[1].Votes)
	r.mu.Unlock()
}

func TestVoteMapSameEntryRetracts(t *testing.T) {
	r, _, _ := newTestRegistry(t, Options{})
	r.Seed()
	id := firstLobbyID(r, gamedata.ModeDeathmatch)
	r.Join(id, human("p0"))
	l := lobbyOf(r, id)

	r.VoteMap("p0", 0)
	r.mu.Lock()
	assert.Equal(t, 1, l.MapBallot[0].Votes)
	r.mu.Unlock()

	// Voting the same entry again toggles the vote off.
	r.VoteMap("p0", 0)
	r.mu.Lock()
	assert.Equal(t, 0, l.MapBallot[0].Votes)
	r.mu.Unlock()

	// And a third vote lands it again.
	r.VoteMap("p0", 0)
	r.mu.Lock()
	assert.Equal(t, 1, l.MapBallot[0].Votes)
	r.mu.Unlock()
}

func TestMapVotesClearedAtMatchStart(t *testing.T) {
	r, clock, _ := newTestRegistry(t, Options{})
	r.Seed()
	id := firstLobbyID(r, gamedata.ModeTeamDeathmatch)
	r.Join(id, human("p1"))
	r.Join(id, human("p2"))
	require.Equal(t, StatePreparing, stateOf(r, id))

	r.VoteMap("p1", 0)
	r.VoteMap("p2", 0)
	clock.Advance(CountdownPreparing * time.Second)

	l := lobbyOf(r, id)
	r.mu.Lock()
	require.Equal(t, StateStarting, l.State)
	assert.Equal(t, l.MapBallot[0].MapID, l.MapID)
	for i, e := range l.MapBallot {
		assert.Zero(t, e.Votes, i)
	}
	r.mu.Unlock()
}

func TestVotekickBallotsClearedAcrossMatchCycle(t *testing.T) {
	r, clock, _ := newTestRegistry(t, Options{AllowVotekick: true})
	r.Seed()
	id := firstLobbyID(r, gamedata.ModeDeathmatch)
	for i := 0; i < 5; i++ {
		r.Join(id, human(fmt.Sprintf("p%d", i)))
	}

	// Two of the three needed votes land before the match.
	r.VoteKick("p0", "p4")
	r.VoteKick("p1", "p4")
	require.NotNil(t, lobbyOf(r, id).Member("p4"))

	clock.Advance((CountdownPreparing + CountdownStarting) * time.Second)
	for i := 0; i < 5; i++ {
		r.RequestGame(fmt.Sprintf("p%d", i))
	}
	l := lobbyOf(r, id)
	r.mu.Lock()
	require.NotNil(t, l.Engine)
	r.finishMatchLocked(l, models.NoTeam)
	r.mu.Unlock()
	clock.Advance(EndGameLinger * time.Second)
	require.Equal(t, StateIntermission, stateOf(r, id))
	clock.Advance(IntermissionTimer * time.Second)

	// The cycle passed back through a waiting reset, so the pre-match
	// votes no longer count. One fresh vote must not tip the kick.
	r.VoteKick("p2", "p4")
	assert.NotNil(t, lobbyOf(r, id).Member("p4"))
}

func TestRotationAdoptsWinningBallotMode(t *testing.T) {
	r, clock, _ := newTestRegistry(t, Options{})
	r.Seed()
	id := firstLobbyID(r, gamedata.ModeGroundWar)
	r.Join(id, human("p1"))

	l := lobbyOf(r, id)
	r.mu.Lock()
	wantMode := l.MapBallot[1].GameModeID
	wantMap := l.MapBallot[1].MapID
	r.mu.Unlock()
	require.NotEmpty(t, wantMode)

	r.VoteMap("p1", 1)
	require.Equal(t, StatePreparing, stateOf(r, id)) // min 1 with bot fill
	clock.Advance(CountdownPreparing * time.Second)

	r.mu.Lock()
	defer r.mu.Unlock()
	require.Equal(t, StateStarting, l.State)
	assert.Equal(t, wantMode, l.GameModeID)
	if wantMap != gamedata.MapRandom {
		assert.Equal(t, wantMap, l.MapID)
	}
	// Bot fill brings the lobby to capacity.
	assert.Equal(t, l.MaxPlayers, len(l.Members))
	assert.Equal(t, 1, l.RealCount())
}

func TestIdleMembersDroppedByWaitTimer(t *testing.T) {
	r, clock, notify := newTestRegistry(t, Options{})
	r.Seed()
	id := firstLobbyID(r, gamedata.ModeTeamDeathmatch)
	for i := 0; i < 3; i++ {
		r.Join(id, human(fmt.Sprintf("p%d", i)))
	}
	clock.Advance((CountdownPreparing + CountdownStarting) * time.Second)
	require.Equal(t, StateInProgress, stateOf(r, id))

	r.RequestGame("p0")
	r.RequestGame("p1")
	clock.Advance(WaitTimer * time.Second)

	l := lobbyOf(r, id)
	r.mu.Lock()
	assert.Nil(t, l.Member("p2"))
	require.NotNil(t, l.Engine)
	l.Engine.Destroy()
	r.mu.Unlock()
	assert.Contains(t, notify.typesFor("p2"), "showWindow")
	assert.True(t, notify.sawBroadcast(id, "initGame"))
}

func TestMatchEndRunsIntermissionCycle(t *testing.T) {
	r, clock, _ := newTestRegistry(t, Options{})
	r.Seed()
	id := firstLobbyID(r, gamedata.ModeTeamDeathmatch)
	r.Join(id, human("p1"))
	r.Join(id, human("p2"))
	clock.Advance((CountdownPreparing + CountdownStarting) * time.Second)
	r.RequestGame("p1")
	r.RequestGame("p2")

	l := lobbyOf(r, id)
	r.mu.Lock()
	require.NotNil(t, l.Engine)
	r.finishMatchLocked(l, 0)
	r.mu.Unlock()

	clock.Advance(EndGameLinger * time.Second)
	assert.Equal(t, StateIntermission, stateOf(r, id))
	r.mu.Lock()
	assert.Equal(t, IntermissionTimer, l.Timer)
	assert.Nil(t, l.Engine)
	assert.NotEmpty(t, l.MapBallot)
	r.mu.Unlock()

	// Intermission expiry rolls straight into the next countdown since
	// both players stayed.
	clock.Advance(IntermissionTimer * time.Second)
	assert.Equal(t, StatePreparing, stateOf(r, id))
}

func TestForfeitWhenRosterDropsBelowMinimum(t *testing.T) {
	r, clock, _ := newTestRegistry(t, Options{})
	r.Seed()
	id := firstLobbyID(r, gamedata.ModeTeamDeathmatch)
	r.Join(id, human("p1"))
	r.Join(id, human("p2"))
	clock.Advance((CountdownPreparing + CountdownStarting) * time.Second)
	r.RequestGame("p1")
	r.RequestGame("p2")
	require.Equal(t, StateInProgress, stateOf(r, id))

	r.Remove("p2", "left")
	clock.Advance(EndGameLinger * time.Second)
	assert.Equal(t, StateIntermission, stateOf(r, id))
}

func TestRequestEventOwnershipChecks(t *testing.T) {
	r, clock, _ := newTestRegistry(t, Options{})
	r.Seed()
	id := firstLobbyID(r, gamedata.ModeTeamDeathmatch)
	r.Join(id, human("p1"))
	r.Join(id, human("p2"))
	clock.Advance((CountdownPreparing + CountdownStarting) * time.Second)
	r.RequestGame("p1")
	r.RequestGame("p2")

	assert.False(t, r.RequestEvent("p1", map[string]interface{}{"type": "fire", "playerId": "p1"}))
	assert.True(t, r.RequestEvent("p1", map[string]interface{}{"type": "fire", "playerId": "p2"}))
	assert.True(t, r.RequestEvent("p1", map[string]interface{}{"type": "fire", "pawnId": "p2"}))
	assert.True(t, r.RequestEvent("p1", map[string]interface{}{"type": "earnKillstreak"}))

	l := lobbyOf(r, id)
	r.mu.Lock()
	l.Engine.Destroy()
	r.mu.Unlock()
}

func TestPrivateLobbyLifecycle(t *testing.T) {
	r, clock, notify := newTestRegistry(t, Options{MaxCustomLobbies: 2})
	r.Seed()

	hostP := human("host")
	id, err := r.CreatePrivate(hostP)
	require.NoError(t, err)
	assert.Equal(t, StateWaitingHost, stateOf(r, id))
	assert.True(t, hostP.IsLobbyHost)
	assert.Equal(t, 0, hostP.DesiredTeam)

	guest := human("guest")
	require.Equal(t, JoinSuccess, r.Join(id, guest))
	assert.Equal(t, 1, guest.DesiredTeam)

	// Non-host cannot start or reconfigure.
	assert.ErrorIs(t, r.StartPrivate("guest"), ErrNotHost)
	assert.ErrorIs(t, r.UpdatePrivateSettings("guest", SettingsPatch{}), ErrNotHost)

	require.NoError(t, r.UpdatePrivateSettings("host", SettingsPatch{
		Ints: map[string]int{"bots": 2, "botSkill": -5, "scoreLimit": 0},
	}))
	l := lobbyOf(r, id)
	r.mu.Lock()
	assert.Equal(t, 2, l.Settings.Bots)
	assert.Equal(t, gamedata.BotSkillAuto, l.Settings.BotSkill)
	assert.Equal(t, 1, l.Settings.ScoreLimit)
	r.mu.Unlock()

	require.NoError(t, r.StartPrivate("host"))
	assert.Equal(t, StateStarting, stateOf(r, id))

	// Starting again cancels the countdown.
	require.NoError(t, r.StartPrivate("host"))
	assert.Equal(t, StateWaitingHost, stateOf(r, id))

	require.NoError(t, r.StartPrivate("host"))
	clock.Advance(CountdownStarting * time.Second)
	require.Equal(t, StateInProgress, stateOf(r, id))

	r.mu.Lock()
	// Auto-skill backfill honored the bot count.
	assert.Equal(t, 2, l.BotCount())
	r.mu.Unlock()
	_ = notify
}

func TestPrivateTeamValidationWithoutBots(t *testing.T) {
	r, _, notify := newTestRegistry(t, Options{})
	r.Seed()
	hostP := human("host")
	id, err := r.CreatePrivate(hostP)
	require.NoError(t, err)
	guest := human("guest")
	r.Join(id, guest)

	// Both on team 0: not playable without bots.
	require.NoError(t, r.SetPrivateTeam("host", "guest", 0))
	require.NoError(t, r.StartPrivate("host"))
	assert.Equal(t, StateWaitingHost, stateOf(r, id))
	assert.Contains(t, notify.typesFor("host"), "showWindow")

	require.NoError(t, r.SetPrivateTeam("host", "guest", 1))
	require.NoError(t, r.StartPrivate("host"))
	assert.Equal(t, StateStarting, stateOf(r, id))
}

func TestPrivateHostLeaveDestroysLobby(t *testing.T) {
	r, _, notify := newTestRegistry(t, Options{})
	r.Seed()
	hostP := human("host")
	id, err := r.CreatePrivate(hostP)
	require.NoError(t, err)
	guest := human("guest")
	r.Join(id, guest)

	r.Remove("host", "left")
	_, exists := r.Get(id)
	assert.False(t, exists)
	assert.Equal(t, "", guest.CurrentLobbyID)
	assert.Contains(t, notify.typesFor("guest"), "showWindow")
}

func TestPrivateKick(t *testing.T) {
	r, _, _ := newTestRegistry(t, Options{})
	r.Seed()
	hostP := human("host")
	id, _ := r.CreatePrivate(hostP)
	guest := human("guest")
	r.Join(id, guest)

	assert.ErrorIs(t, r.KickPrivate("guest", "host"), ErrNotHost)
	require.NoError(t, r.KickPrivate("host", "guest"))
	assert.Nil(t, lobbyOf(r, id).Member("guest"))
}

func TestCustomLobbyCap(t *testing.T) {
	r, _, _ := newTestRegistry(t, Options{MaxCustomLobbies: 1})
	r.Seed()
	_, err := r.CreatePrivate(human("h1"))
	require.NoError(t, err)
	_, err = r.CreatePrivate(human("h2"))
	assert.ErrorIs(t, err, ErrCustomPoolFull)
}

func TestManualClockOrdering(t *testing.T) {
	clock := NewManualClock()
	var fired []string
	clock.AfterFunc(2*time.Second, func() { fired = append(fired, "b") })
	clock.AfterFunc(time.Second, func() { fired = append(fired, "a") })
	stopped := clock.AfterFunc(3*time.Second, func() { fired = append(fired, "c") })
	stopped.Stop()

	clock.Advance(5 * time.Second)
	assert.Equal(t, []string{"a", "b"}, fired)
}
