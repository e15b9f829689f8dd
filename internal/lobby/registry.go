// internal/lobby/registry.go
//
// Registry owns every live lobby. One mutex guards all lobby state; timer
// callbacks and the websocket handlers both funnel through it.
package lobby

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/skirmish-io/skirmish-server/internal/balance"
	"github.com/skirmish-io/skirmish-server/internal/channel"
	"github.com/skirmish-io/skirmish-server/internal/engine"
	"github.com/skirmish-io/skirmish-server/internal/gamedata"
	"github.com/skirmish-io/skirmish-server/internal/models"
	"github.com/skirmish-io/skirmish-server/internal/party"
	"github.com/skirmish-io/skirmish-server/internal/stats"
)

// Options are the operator-tunable lobby limits.
type Options struct {
	AllowJoinInProgress bool
	AllowVotekick       bool
	MaxPublicLobbies    int
	MaxCustomLobbies    int
}

// Deps are the registry's collaborators. Zero-value fields get working
// defaults from NewRegistry, except Notify which is required.
type Deps struct {
	Notify  Notifier
	Clock   Clock
	Engines engine.Factory
	Stats   *stats.Reporter
	Parties *party.Manager
	Rand    *rand.Rand
}

// Registry is the authoritative lobby directory and state machine driver.
type Registry struct {
	mu sync.Mutex

	opts Options

	pools map[string][]*Lobby
	byID  map[string]*Lobby

	notify  Notifier
	clock   Clock
	engines engine.Factory
	stats   *stats.Reporter
	parties *party.Manager
	rng     *rand.Rand
}

// NewRegistry builds an empty registry. Call Seed to stand up the public
// pools.
func NewRegistry(opts Options, deps Deps) *Registry {
	if deps.Clock == nil {
		deps.Clock = NewRealClock()
	}
	if deps.Engines == nil {
		deps.Engines = engine.NewRelay
	}
	if deps.Rand == nil {
		deps.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.MaxPublicLobbies <= 0 {
		opts.MaxPublicLobbies = 4
	}
	if opts.MaxCustomLobbies <= 0 {
		opts.MaxCustomLobbies = 16
	}
	return &Registry{
		opts:    opts,
		pools:   make(map[string][]*Lobby),
		byID:    make(map[string]*Lobby),
		notify:  deps.Notify,
		clock:   deps.Clock,
		engines: deps.Engines,
		stats:   deps.Stats,
		parties: deps.Parties,
		rng:     deps.Rand,
	}
}

// Seed stands up one lobby per rotation pool and per public mode, plus the
// empty custom pool.
func (r *Registry) Seed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range gamedata.RotationPools() {
		r.createLobbyLocked(id)
	}
	for _, id := range gamedata.PublicModes() {
		r.createLobbyLocked(id)
	}
	r.pools[gamedata.PrivatePool] = nil
	log.WithField("lobbies", len(r.byID)).Info("lobby pools seeded")
}

// createLobbyLocked builds a lobby for a pool and registers it.
func (r *Registry) createLobbyLocked(poolID string) *Lobby {
	l := &Lobby{
		ID:     "L-" + uuid.NewString()[:13],
		PoolID: poolID,
		State:  StateWaiting,
		Timer:  noTimer,
	}
	if gamedata.IsRotation(poolID) {
		l.RotationID = poolID
		sub := gamedata.RotationModes(poolID)
		l.GameModeID = sub[r.rng.Intn(len(sub))]
	} else {
		l.GameModeID = poolID
	}

	mode, _ := gamedata.ModeByID(l.GameModeID)
	l.MinPlayers = mode.MinPlayers
	l.MaxPlayers = gamedata.MaxPlayersFor(poolID)
	l.Ranked = mode.Ranked
	l.Survival = mode.Survival
	l.Settings = gamedata.DefaultSettings(l.GameModeID)

	switch poolID {
	case gamedata.ModeGroundWar, gamedata.ModeCombatTraining:
		l.MinPlayers = 1
		l.AddBots = true
	case gamedata.ModeRotationSurvival:
		l.MinPlayers = 1
		l.Ranked = false
		l.Survival = true
	case gamedata.ModeHardcore:
		l.Hardcore = true
		l.Settings.Hardcore = true
	case gamedata.ModeBattlezone:
		l.MinPlayers = 1
	}
	l.Settings.Ranked = l.Ranked

	r.rerollMapsLocked(l)
	r.pools[poolID] = append(r.pools[poolID], l)
	r.byID[l.ID] = l
	log.WithFields(log.Fields{"lobby_id": l.ID, "pool": poolID, "mode": l.GameModeID}).Info("lobby created")
	return l
}

// CreateInPool adds another lobby to a public pool, respecting the
// per-pool cap. Used by matchmaking when every existing lobby is full.
func (r *Registry) CreateInPool(poolID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if poolID == gamedata.PrivatePool {
		return "", false
	}
	if len(r.pools[poolID]) >= r.opts.MaxPublicLobbies {
		return "", false
	}
	l := r.createLobbyLocked(poolID)
	return l.ID, true
}

// Summary is a read-only view of one lobby for matchmaking decisions.
type Summary struct {
	ID           string
	PoolID       string
	GameModeID   string
	RotationID   string
	State        State
	Players      int
	RealPlayers  int
	Humans       int
	Bots         int
	MinPlayers   int
	MaxPlayers   int
	AverageLevel int
	Locked       bool
	Private      bool
	Merging      bool
	Accepting    bool
}

// Summaries snapshots a pool for ranking. Results are copies; admission is
// still re-validated under the lock at join time.
func (r *Registry) Summaries(poolID string) []Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Summary, 0, len(r.pools[poolID]))
	for _, l := range r.pools[poolID] {
		out = append(out, r.summaryLocked(l))
	}
	return out
}

func (r *Registry) summaryLocked(l *Lobby) Summary {
	return Summary{
		ID:           l.ID,
		PoolID:       l.PoolID,
		GameModeID:   l.GameModeID,
		RotationID:   l.RotationID,
		State:        l.State,
		Players:      len(l.Members),
		RealPlayers:  l.RealCount(),
		Humans:       l.HumanCount(),
		Bots:         l.BotCount(),
		MinPlayers:   l.MinPlayers,
		MaxPlayers:   l.MaxPlayers,
		AverageLevel: balance.AverageLevel(l.Members),
		Locked:       l.Locked,
		Private:      l.Private,
		Merging:      l.Merging,
		Accepting:    r.canAcceptLocked(l, 1),
	}
}

// PoolSize reports how many lobbies a pool currently holds.
func (r *Registry) PoolSize(poolID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pools[poolID])
}

// Get returns the wire snapshot of a lobby.
func (r *Registry) Get(lobbyID string) (channel.Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.byID[lobbyID]
	if !ok {
		return nil, false
	}
	return l.Snapshot(), true
}

// LobbyOf reports which lobby a player currently sits in.
func (r *Registry) LobbyOf(playerID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.byID {
		if l.Member(playerID) != nil {
			return l.ID, true
		}
	}
	return "", false
}

// CanJoin is the admission gate. incoming is the size of the joining
// group, at least 1.
func (r *Registry) CanJoin(lobbyID string, p *models.PlayerSession, incoming int) JoinResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.byID[lobbyID]
	if !ok {
		return JoinFailError
	}
	return r.canJoinLocked(l, p, incoming)
}

func (r *Registry) canJoinLocked(l *Lobby, p *models.PlayerSession, incoming int) JoinResult {
	if p == nil {
		return JoinFailError
	}
	if p.IsAdmin {
		return JoinSuccess
	}
	if incoming < 1 {
		incoming = 1
	}
	if l.HumanCount()+incoming > l.MaxPlayers {
		return JoinFailCapacity
	}
	if l.Locked && !r.canAcceptLocked(l, incoming) {
		return JoinFailLocked
	}
	return JoinSuccess
}

// canAcceptLocked decides whether a locked or in-progress lobby still
// admits players.
func (r *Registry) canAcceptLocked(l *Lobby, incoming int) bool {
	if !r.opts.AllowJoinInProgress {
		return false
	}
	if l.State == StateStarting {
		return false
	}
	if len(l.Members)+incoming-l.BotCount() > l.MaxPlayers {
		return false
	}
	if l.Private && l.State == StateInProgress {
		return false
	}
	if l.Engine != nil && !l.Engine.CanAcceptNewPlayers() {
		return false
	}
	return true
}

// Join seats a player. On success the player is wired into the lobby room
// and the roster is broadcast; an in-progress lobby also starts the
// player's match handoff.
func (r *Registry) Join(lobbyID string, p *models.PlayerSession) JoinResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.byID[lobbyID]
	if !ok {
		return JoinFailError
	}
	return r.joinLocked(l, p)
}

func (r *Registry) joinLocked(l *Lobby, p *models.PlayerSession) JoinResult {
	if p.CurrentLobbyID != "" {
		return JoinFailError
	}
	if res := r.canJoinLocked(l, p, 1); res != JoinSuccess {
		return res
	}

	p.Name = r.dedupeNameLocked(l, p.Name)
	p.ResetMatchState()
	l.Members = append(l.Members, p)
	p.CurrentLobbyID = l.ID
	r.notify.JoinRoom(l.ID, p.ID)

	if l.Private {
		if l.HostPlayerID == "" {
			l.HostPlayerID = p.ID
			p.IsLobbyHost = true
			p.DesiredTeam = 0
		} else if l.teamMode() {
			if len(l.Members)%2 == 0 {
				p.DesiredTeam = 1
			} else {
				p.DesiredTeam = 0
			}
		}
	}

	log.WithFields(log.Fields{"lobby_id": l.ID, "player_id": p.ID, "name": p.Name}).Info("player joined lobby")

	if l.State == StateInProgress && l.Engine != nil {
		r.handoffInProgressLocked(l, p)
	} else {
		r.checkReadyLocked(l)
	}
	r.updateLobbyLocked(l)
	return JoinSuccess
}

// dedupeNameLocked suffixes a display name already present in the lobby.
func (r *Registry) dedupeNameLocked(l *Lobby, name string) string {
	base := strings.TrimSuffix(name, " (2)")
	for _, cur := range l.Members {
		if cur.Name == base || cur.Name == base+" (2)" {
			return base + " (2)"
		}
	}
	return base
}

// handoffInProgressLocked ships the start/enter sequence to a player who
// joined a running match. The engine admission itself happens when the
// client answers with requestGame.
func (r *Registry) handoffInProgressLocked(l *Lobby, p *models.PlayerSession) {
	r.notify.SendTo(p.ID, r.startGameMessageLocked(l))
	id := p.ID
	r.clock.AfterFunc(EnterGameDelay*time.Second, func() {
		r.notify.SendTo(id, channel.Message{"type": "enterGame"})
	})
}

func (r *Registry) startGameMessageLocked(l *Lobby) channel.Message {
	players := make([]models.PlayerSession, 0, len(l.Members))
	for _, cur := range l.Members {
		players = append(players, cur.Snapshot())
	}
	return channel.Message{
		"type":       "startGame",
		"lobbyId":    l.ID,
		"gameModeId": l.GameModeID,
		"mapId":      l.MapID,
		"settings":   l.Settings,
		"players":    players,
	}
}

// Remove takes a player out of whatever lobby they sit in. reason drives
// the farewell surface: kicked, latency and idle removals get a client
// dialog.
func (r *Registry) Remove(playerID, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.byID {
		if l.Member(playerID) != nil {
			r.removeLocked(l, playerID, reason)
			return
		}
	}
}

func (r *Registry) removeLocked(l *Lobby, playerID, reason string) {
	p := l.Member(playerID)
	if p == nil {
		return
	}

	r.retractMapVoteLocked(l, playerID)
	delete(l.kickVotes, playerID)
	for _, voters := range l.kickVotes {
		delete(voters, playerID)
	}

	for i, cur := range l.Members {
		if cur.ID == playerID {
			l.Members = append(l.Members[:i], l.Members[i+1:]...)
			break
		}
	}
	p.CurrentLobbyID = ""
	p.IsLobbyHost = false
	p.ResetMatchState()
	r.notify.LeaveRoom(l.ID, playerID)

	log.WithFields(log.Fields{"lobby_id": l.ID, "player_id": playerID, "reason": reason}).Info("player left lobby")

	if l.Engine != nil {
		l.Engine.RequestEvent(playerID, map[string]interface{}{"type": "playerLeave"})
	}

	switch reason {
	case "kicked":
		r.notify.SendTo(playerID, showWindow("STR_KICKED", "STR_KICKED_DESC"))
	case "latency":
		r.notify.SendTo(playerID, showWindow("STR_HIGH_LATENCY", "STR_HIGH_LATENCY_DESC"))
	case "idle":
		r.notify.SendTo(playerID, showWindow("STR_IDLE", "STR_IDLE_DESC"))
	}

	// Private host walking away tears the room down.
	if l.Private && l.HostPlayerID == playerID {
		r.destroyLobbyLocked(l, "host_left")
		return
	}

	if l.AddBots && l.Engine != nil && len(l.Members) < l.MaxPlayers {
		r.addReplacementBotLocked(l)
	}

	if len(l.Members) > 0 {
		r.serverChatLocked(l, p.Name+" left the lobby.")
	}

	if reason == "merge" {
		// The merge loop drains the donor; it re-evaluates state itself.
		r.maybeDestroyEmptyLocked(l)
		return
	}

	if l.State == StateInProgress {
		if l.Engine != nil {
			r.afterInProgressLeaveLocked(l)
		} else if l.RealCount() == 0 {
			r.setStateLocked(l, StateWaiting)
		}
	} else {
		if l.Private && l.State == StateStarting {
			r.setStateLocked(l, StateWaitingHost)
		} else if l.RealCount() < l.MinPlayers &&
			!(l.State == StateIntermission && len(l.Members) > 0) &&
			l.State != StateWaiting && l.State != StateWaitingHost {
			if l.Private {
				r.setStateLocked(l, StateWaitingHost)
			} else {
				r.setStateLocked(l, StateWaiting)
			}
		}
		r.checkReadyLocked(l)
	}

	r.maybeDestroyEmptyLocked(l)
	if r.byID[l.ID] != nil {
		r.updateLobbyLocked(l)
	}
}

// afterInProgressLeaveLocked applies forfeit rules once a player leaves a
// running match.
func (r *Registry) afterInProgressLeaveLocked(l *Lobby) {
	if l.RealCount() == 0 {
		if l.Engine != nil {
			l.Engine.Destroy()
			l.Engine = nil
		}
		r.setStateLocked(l, StateWaiting)
		return
	}

	mode, _ := gamedata.ModeByID(l.GameModeID)

	if l.RealCount() < l.MinPlayers {
		if mode.CoOp || mode.Survival {
			// Co-op matches cannot be won by walkover.
			r.finishMatchLocked(l, models.NoTeam)
		} else {
			r.finishMatchLocked(l, r.majorityTeamLocked(l))
		}
		return
	}

	if l.teamMode() {
		for team := 0; team <= 1; team++ {
			if r.realOnTeamLocked(l, team) == 0 {
				r.finishMatchLocked(l, 1-team)
				return
			}
		}
	}
}

func (r *Registry) realOnTeamLocked(l *Lobby, team int) int {
	n := 0
	for _, p := range l.Members {
		if p.IsReal() && p.Team == team {
			n++
		}
	}
	return n
}

func (r *Registry) majorityTeamLocked(l *Lobby) int {
	if r.realOnTeamLocked(l, 1) > r.realOnTeamLocked(l, 0) {
		return 1
	}
	return 0
}

// addReplacementBotLocked backfills one bot for a departed player and
// feeds it into the running match.
func (r *Registry) addReplacementBotLocked(l *Lobby) {
	skill := balance.ReplacementSkill(
		balance.AverageLevel(l.Members),
		l.RotationID == gamedata.ModeCombatTraining,
	)
	bot := balance.NewBot(skill, r.rng)
	balance.MidJoinTeam(bot, append(l.Members, bot), r.balanceInputLocked(l), nil)
	l.Members = append(l.Members, bot)
	if l.Engine != nil {
		l.Engine.AddPlayer(bot.Snapshot())
	}
}

// maybeDestroyEmptyLocked retires an empty lobby. The first lobby of each
// public pool is the standing seed and survives; customs always go.
func (r *Registry) maybeDestroyEmptyLocked(l *Lobby) {
	if len(l.Members) != 0 {
		return
	}
	if l.Private {
		r.destroyLobbyLocked(l, "empty")
		return
	}
	for i, cur := range r.pools[l.PoolID] {
		if cur.ID == l.ID {
			if i > 0 {
				r.destroyLobbyLocked(l, "empty")
			}
			return
		}
	}
}

func (r *Registry) destroyLobbyLocked(l *Lobby, reason string) {
	l.PendingDestroy = true
	if l.Engine != nil {
		l.Engine.Destroy()
		l.Engine = nil
	}
	l.stopTimers()

	for len(l.Members) > 0 {
		p := l.Members[0]
		l.Members = l.Members[1:]
		p.CurrentLobbyID = ""
		p.IsLobbyHost = false
		p.ResetMatchState()
		r.notify.LeaveRoom(l.ID, p.ID)
		if p.IsReal() && !p.IsDummy {
			r.notify.SendTo(p.ID, showWindow("STR_LOBBY_CLOSED", "STR_LOBBY_CLOSED_DESC"))
		}
	}

	delete(r.byID, l.ID)
	pool := r.pools[l.PoolID]
	for i, cur := range pool {
		if cur.ID == l.ID {
			r.pools[l.PoolID] = append(pool[:i], pool[i+1:]...)
			break
		}
	}
	log.WithFields(log.Fields{"lobby_id": l.ID, "reason": reason}).Info("lobby destroyed")
}

// CheckReady re-evaluates a lobby's readiness, typically after an
// external roster change.
func (r *Registry) CheckReady(lobbyID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.byID[lobbyID]; ok {
		r.checkReadyLocked(l)
		r.updateLobbyLocked(l)
	}
}

func (r *Registry) checkReadyLocked(l *Lobby) {
	if l.Private {
		return
	}
	if l.State == StateIntermission && len(l.Members) > 0 {
		return
	}
	if l.State == StateInProgress {
		if len(l.Members) == 0 {
			r.setStateLocked(l, StateWaiting)
		}
		return
	}
	if !l.Locked {
		r.tryMergeLocked(l)
		if l.PendingDestroy {
			return
		}
	}

	minUnits := l.MinPlayers
	if minUnits > 2 {
		minUnits = 2
	}
	ready := (l.RealCount() >= l.MinPlayers && l.realTeamUnits(r.partySizeFn()) >= minUnits) ||
		len(l.Members) == l.MaxPlayers

	if ready {
		if l.State != StatePreparing {
			r.setStateLocked(l, StatePreparing)
			l.Timer = CountdownPreparing
			r.scheduleTickLocked(l)
			r.announceStartingSoonLocked(l)
		}
	} else if l.State != StateWaiting {
		r.setStateLocked(l, StateWaiting)
	}
}

// announceStartingSoonLocked nudges members who are sitting outside the
// lobby screen.
func (r *Registry) announceStartingSoonLocked(l *Lobby) {
	for _, p := range l.Members {
		if p.IsReal() && !p.IsDummy && !p.InGame {
			r.notify.SendTo(p.ID, channel.Message{
				"type":        "serverMessage",
				"messageText": "STR_GAME_STARTING",
			})
		}
	}
}

// tryMergeLocked pulls players from thinner lobbies of the same pool into
// this one so matches actually fill.
func (r *Registry) tryMergeLocked(receiver *Lobby) {
	if receiver.Private || receiver.Locked || receiver.Merging || receiver.PendingDestroy {
		return
	}
	for _, donor := range r.pools[receiver.PoolID] {
		if donor.ID == receiver.ID || donor.Private || donor.Locked || donor.Merging || donor.PendingDestroy {
			continue
		}
		if donor.State != StateWaiting || len(donor.Members) == 0 {
			continue
		}
		if len(donor.Members) >= len(receiver.Members) {
			continue
		}
		combined := donor.RealCount() + receiver.RealCount()
		if combined < 2 || combined > receiver.MaxPlayers {
			continue
		}
		r.mergeLobbiesLocked(donor, receiver)
		return
	}
}

func (r *Registry) mergeLobbiesLocked(donor, receiver *Lobby) {
	receiver.Merging = true
	defer func() { receiver.Merging = false }()

	moved := 0
	for len(donor.Members) > 0 {
		p := donor.Members[0]
		if r.canJoinLocked(receiver, p, 1) != JoinSuccess {
			break
		}
		r.removeLocked(donor, p.ID, "merge")
		if r.joinLocked(receiver, p) != JoinSuccess {
			break
		}
		moved++
	}
	if _, live := r.byID[donor.ID]; live && len(donor.Members) > 0 {
		r.checkReadyLocked(donor)
		r.updateLobbyLocked(donor)
	}
	if moved > 0 {
		log.WithFields(log.Fields{
			"donor": donor.ID, "receiver": receiver.ID, "moved": moved,
		}).Info("lobbies merged")
	}
}

// SetLatency records a player's measured latency and forwards it to any
// running match.
func (r *Registry) SetLatency(playerID string, ms int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.byID {
		if p := l.Member(playerID); p != nil {
			p.Latency = ms
			if l.Engine != nil {
				l.Engine.SetPlayerLatency(playerID, ms)
			}
			return
		}
	}
}

// DashboardData summarizes every pool for the status endpoint.
func (r *Registry) DashboardData() map[string]interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	pools := make(map[string]interface{}, len(r.pools))
	totalPlayers := 0
	inProgress := 0
	for id, lobbies := range r.pools {
		rows := make([]map[string]interface{}, 0, len(lobbies))
		for _, l := range lobbies {
			totalPlayers += l.RealCount()
			if l.State == StateInProgress {
				inProgress++
			}
			rows = append(rows, map[string]interface{}{
				"id":         l.ID,
				"gameModeId": l.GameModeID,
				"mapId":      l.MapID,
				"state":      l.State.String(),
				"players":    len(l.Members),
				"real":       l.RealCount(),
				"max":        l.MaxPlayers,
			})
		}
		pools[id] = rows
	}
	return map[string]interface{}{
		"pools":           pools,
		"players":         totalPlayers,
		"lobbies":         len(r.byID),
		"gamesInProgress": inProgress,
	}
}

func (r *Registry) partySizeFn() func(string) int {
	if r.parties == nil {
		return nil
	}
	return func(id string) int {
		if p, ok := r.parties.Get(id); ok {
			return len(p.MemberIDs)
		}
		return 0
	}
}

func (r *Registry) partyIndexFn() func(string) int {
	if r.parties == nil {
		return nil
	}
	return func(id string) int {
		idx := r.parties.Index(id)
		if idx < 0 {
			return 0
		}
		return idx
	}
}

func (r *Registry) balanceInputLocked(l *Lobby) balance.Input {
	return balance.Input{
		GameModeID:  l.GameModeID,
		RotationID:  l.RotationID,
		Private:     l.Private,
		MaxPlayers:  l.MaxPlayers,
		Settings:    l.Settings,
		RealPlayers: l.RealCount(),
		PartySize:   r.partySizeFn(),
		PartyIndex:  r.partyIndexFn(),
		Rand:        r.rng,
	}
}

func (r *Registry) updateLobbyLocked(l *Lobby) {
	r.notify.BroadcastRoom(l.ID, channel.Message{"type": "updateLobby", "lobby": l.Snapshot()})
}

func (r *Registry) serverChatLocked(l *Lobby, text string) {
	r.notify.BroadcastRoom(l.ID, channel.Message{
		"type":        "chatMessage",
		"bServer":     true,
		"messageText": text,
	})
}

func showWindow(title, message string) channel.Message {
	return channel.Message{
		"type":            "showWindow",
		"titleText":       title,
		"messageText":     message,
		"bShowOkayButton": true,
	}
}
