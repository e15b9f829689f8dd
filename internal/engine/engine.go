// internal/engine/engine.go
package engine

import (
	"github.com/skirmish-io/skirmish-server/internal/gamedata"
	"github.com/skirmish-io/skirmish-server/internal/models"
)

// Event is one message produced by an engine's stream. An empty TargetID
// fans the event out to the whole lobby room; otherwise it is delivered to
// the named session only.
type Event struct {
	Name     string
	TargetID string
	Payload  map[string]interface{}
}

// GameData is the frozen inputs handed to an engine at init.
type GameData struct {
	LobbyID    string
	GameModeID string
	MapID      string
	Settings   gamedata.Settings
	Players    []models.PlayerSession
}

// Engine is one in-progress match. Exactly one instance exists per lobby
// in the IN_PROGRESS state; every lobby state transition destroys it.
// Implementations must be safe for concurrent use.
type Engine interface {
	// Init starts the match and returns its event stream. The stream is
	// closed by Destroy.
	Init(data GameData) (<-chan Event, error)
	// AddPlayer admits a mid-match joiner.
	AddPlayer(p models.PlayerSession)
	// RequestEvent feeds one client gameplay event into the simulation.
	RequestEvent(playerID string, payload map[string]interface{})

	InitEventData() map[string]interface{}
	GameModeEventData() map[string]interface{}
	GameStartEventData() map[string]interface{}
	PlayerStates() []map[string]interface{}
	ObjectsEventData() map[string]interface{}

	MatchInProgress() bool
	CanAcceptNewPlayers() bool
	SetPlayerLatency(playerID string, ms int)
	// Winner reports the winning team once the match has ended,
	// models.NoTeam before that.
	Winner() int
	PlayerStateByID(id string) (map[string]interface{}, bool)

	// Destroy tears the match down and closes the event stream.
	// Idempotent.
	Destroy()
}

// Factory builds a fresh Engine for a lobby entering a match.
type Factory func() Engine
