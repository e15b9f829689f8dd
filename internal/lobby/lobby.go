// internal/lobby/lobby.go
//
// Lobby model and state machine vocabulary. All mutation happens through
// the Registry, which owns the lock.
package lobby

import (
	"time"

	"github.com/skirmish-io/skirmish-server/internal/channel"
	"github.com/skirmish-io/skirmish-server/internal/engine"
	"github.com/skirmish-io/skirmish-server/internal/gamedata"
	"github.com/skirmish-io/skirmish-server/internal/models"
)

// State is a lobby's position in its lifecycle.
type State int

const (
	StateWaiting State = iota
	// StateWaitingHost is the private-lobby idle state; only the host can
	// move the lobby forward.
	StateWaitingHost
	StatePreparing
	StateStarting
	StateInProgress
	StateIntermission
)

func (s State) String() string {
	switch s {
	case StateWaiting:
		return "WAITING"
	case StateWaitingHost:
		return "WAITING_HOST"
	case StatePreparing:
		return "PREPARING"
	case StateStarting:
		return "STARTING"
	case StateInProgress:
		return "IN_PROGRESS"
	case StateIntermission:
		return "INTERMISSION"
	}
	return "UNKNOWN"
}

// Countdown and grace timers, in seconds.
const (
	CountdownPreparing = 15
	CountdownStarting  = 3
	IntermissionTimer  = 15
	WaitTimer          = 33
	EndGameLinger      = 15

	// EnterGameDelay is the pause between the start announcement and the
	// actual map load order.
	EnterGameDelay = 3

	// noTimer marks an idle countdown.
	noTimer = -1
)

// JoinResult is the admission verdict for a join attempt.
type JoinResult int

const (
	JoinSuccess JoinResult = iota
	JoinFailCapacity
	JoinFailLocked
	JoinFailError
)

// MapBallotEntry is one vote-able option on the next-map ballot. Rotation
// lobbies attach the mode that would be played along with the map.
type MapBallotEntry struct {
	MapID      string `json:"mapId"`
	GameModeID string `json:"gameModeId,omitempty"`
	Votes      int    `json:"votes"`
}

// Notifier is the outbound event surface the state machine talks through.
// *channel.Hub satisfies it; tests substitute a recorder.
type Notifier interface {
	BroadcastRoom(room string, msg channel.Message)
	SendTo(sessionID string, msg channel.Message)
	JoinRoom(room, sessionID string)
	LeaveRoom(room, sessionID string)
}

// Lobby is one match room. Everything here is guarded by the Registry
// mutex; nothing outside the lobby package mutates a Lobby directly.
type Lobby struct {
	ID     string
	PoolID string

	GameModeID string
	// RotationID is the pool's rotation id for rotation lobbies, empty
	// otherwise. The concrete GameModeID is re-rolled from the map ballot
	// each cycle.
	RotationID string
	MapID      string

	State State
	Timer int

	MinPlayers int
	MaxPlayers int

	Private        bool
	Locked         bool
	Merging        bool
	PendingDestroy bool
	AddBots        bool
	Ranked         bool
	Hardcore       bool
	Survival       bool

	HostPlayerID string

	Members  []*models.PlayerSession
	Settings gamedata.Settings

	MapBallot []MapBallotEntry
	mapVotes  map[string]int             // player id -> ballot index
	kickVotes map[string]map[string]bool // target id -> voter set

	Engine    engine.Engine
	StartedAt time.Time

	// ending guards against a match being finished twice, once by the
	// engine's own end event and once by a forfeit.
	ending bool

	// Timer generations invalidate stale callbacks after a state change.
	tickGen uint64
	waitGen uint64
	waitSec int

	tickTimer Timer
	waitTimer Timer
	gameTimer Timer
}

// Member returns the seated session with the given id, nil if absent.
func (l *Lobby) Member(id string) *models.PlayerSession {
	for _, p := range l.Members {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// RealCount counts humans and dummies; bots are excluded.
func (l *Lobby) RealCount() int {
	n := 0
	for _, p := range l.Members {
		if p.IsReal() {
			n++
		}
	}
	return n
}

// BotCount counts pure bots.
func (l *Lobby) BotCount() int {
	return len(l.Members) - l.RealCount()
}

// HumanCount counts members that are neither bots nor dummies.
func (l *Lobby) HumanCount() int {
	n := 0
	for _, p := range l.Members {
		if !p.IsBot && !p.IsDummy {
			n++
		}
	}
	return n
}

// realTeamUnits counts the distinct matchmaking units among real members:
// a full party is one unit, a loner is one unit. Readiness gates on units
// so a single party never starts a team match against nobody.
func (l *Lobby) realTeamUnits(partySize func(string) int) int {
	seen := map[string]bool{}
	units := 0
	for _, p := range l.Members {
		if !p.IsReal() {
			continue
		}
		if p.CurrentPartyID != "" && partySize != nil && partySize(p.CurrentPartyID) > 1 {
			if !seen[p.CurrentPartyID] {
				seen[p.CurrentPartyID] = true
				units++
			}
			continue
		}
		units++
	}
	return units
}

func (l *Lobby) teamMode() bool {
	return gamedata.IsTeamMode(l.GameModeID)
}

// stripBots removes every pure bot from the roster. Dummies stay.
func (l *Lobby) stripBots() {
	kept := l.Members[:0]
	for _, p := range l.Members {
		if p.IsReal() {
			kept = append(kept, p)
		}
	}
	l.Members = kept
}

// resetPlayers clears per-match state on every member.
func (l *Lobby) resetPlayers() {
	for _, p := range l.Members {
		p.ResetMatchState()
	}
}

// clearBallots wipes the votekick record and every next-map vote. Runs on
// each reset to a waiting state and once the map vote has resolved at
// match start, so no vote cast for one match can count toward another.
func (l *Lobby) clearBallots() {
	l.kickVotes = nil
	l.mapVotes = nil
	for i := range l.MapBallot {
		l.MapBallot[i].Votes = 0
	}
}

// Snapshot is the wire representation broadcast on updateLobby.
func (l *Lobby) Snapshot() channel.Message {
	players := make([]models.PlayerSession, 0, len(l.Members))
	for _, p := range l.Members {
		players = append(players, p.Snapshot())
	}
	ballot := make([]MapBallotEntry, len(l.MapBallot))
	copy(ballot, l.MapBallot)
	return channel.Message{
		"id":           l.ID,
		"gameModeId":   l.GameModeID,
		"rotationId":   l.RotationID,
		"mapId":        l.MapID,
		"state":        l.State.String(),
		"timer":        l.Timer,
		"minPlayers":   l.MinPlayers,
		"maxPlayers":   l.MaxPlayers,
		"bPrivate":     l.Private,
		"bLocked":      l.Locked,
		"bRanked":      l.Ranked,
		"bHardcore":    l.Hardcore,
		"hostPlayerId": l.HostPlayerID,
		"players":      players,
		"mapBallot":    ballot,
		"settings":     l.Settings,
	}
}

// stopTimers invalidates every scheduled callback for this lobby.
func (l *Lobby) stopTimers() {
	l.tickGen++
	l.waitGen++
	if l.tickTimer != nil {
		l.tickTimer.Stop()
		l.tickTimer = nil
	}
	if l.waitTimer != nil {
		l.waitTimer.Stop()
		l.waitTimer = nil
	}
	if l.gameTimer != nil {
		l.gameTimer.Stop()
		l.gameTimer = nil
	}
}
