// internal/engine/relay.go
package engine

import (
	"sync"

	"github.com/skirmish-io/skirmish-server/internal/models"
)

// Relay is the default Engine. The authoritative simulation runs on the
// clients; the server's job is to admit players, track their last reported
// state, and rebroadcast gameplay events to the room. Kill counts and the
// end-of-match verdict are lifted out of the relayed payloads.
type Relay struct {
	mu sync.Mutex

	data    GameData
	stream  chan Event
	states  map[string]map[string]interface{}
	order   []string
	latency map[string]int

	inProgress bool
	winner     int
	destroyed  bool
}

// NewRelay is the Factory for Relay engines.
func NewRelay() Engine {
	return &Relay{
		states:  make(map[string]map[string]interface{}),
		latency: make(map[string]int),
		winner:  models.NoTeam,
	}
}

func (r *Relay) Init(data GameData) (<-chan Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data = data
	r.stream = make(chan Event, 256)
	r.inProgress = true
	for _, p := range data.Players {
		r.admitLocked(p)
	}
	return r.stream, nil
}

func (r *Relay) AddPlayer(p models.PlayerSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.destroyed {
		return
	}
	r.admitLocked(p)
	r.emitLocked(Event{Name: "gameEvent", Payload: map[string]interface{}{
		"type":   "playerJoined",
		"player": p,
	}})
}

func (r *Relay) admitLocked(p models.PlayerSession) {
	if _, ok := r.states[p.ID]; !ok {
		r.order = append(r.order, p.ID)
	}
	r.states[p.ID] = map[string]interface{}{
		"id":     p.ID,
		"name":   p.Name,
		"team":   p.Team,
		"bot":    p.IsBot,
		"kills":  0,
		"deaths": 0,
		"score":  0,
	}
}

func (r *Relay) RequestEvent(playerID string, payload map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.destroyed {
		return
	}
	evType, _ := payload["type"].(string)
	switch evType {
	case "playerState":
		// Merge the reported fields into the tracked state.
		if st, ok := r.states[playerID]; ok {
			for k, v := range payload {
				if k != "type" {
					st[k] = v
				}
			}
		}
	case "playerLeave", "forfeit":
		delete(r.states, playerID)
		for i, id := range r.order {
			if id == playerID {
				r.order = append(r.order[:i], r.order[i+1:]...)
				break
			}
		}
	case "endGame":
		r.inProgress = false
		if w, ok := payload["winnerTeam"].(float64); ok {
			r.winner = int(w)
		} else if w, ok := payload["winnerTeam"].(int); ok {
			r.winner = w
		}
	}
	r.emitLocked(Event{Name: "gameEvent", Payload: payload})
}

// emitLocked pushes onto the stream non-blockingly; a saturated consumer
// loses events rather than stalling the simulation.
func (r *Relay) emitLocked(ev Event) {
	if r.stream == nil || r.destroyed {
		return
	}
	select {
	case r.stream <- ev:
	default:
	}
}

func (r *Relay) InitEventData() map[string]interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return map[string]interface{}{
		"lobbyId":    r.data.LobbyID,
		"gameModeId": r.data.GameModeID,
		"mapId":      r.data.MapID,
		"settings":   r.data.Settings,
	}
}

func (r *Relay) GameModeEventData() map[string]interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return map[string]interface{}{
		"gameModeId": r.data.GameModeID,
		"timeLimit":  r.data.Settings.TimeLimit,
		"scoreLimit": r.data.Settings.ScoreLimit,
	}
}

func (r *Relay) GameStartEventData() map[string]interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return map[string]interface{}{
		"mapId":   r.data.MapID,
		"players": r.playerStatesLocked(),
	}
}

func (r *Relay) PlayerStates() []map[string]interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playerStatesLocked()
}

func (r *Relay) playerStatesLocked() []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(r.order))
	for _, id := range r.order {
		if st, ok := r.states[id]; ok {
			cp := make(map[string]interface{}, len(st))
			for k, v := range st {
				cp[k] = v
			}
			out = append(out, cp)
		}
	}
	return out
}

func (r *Relay) ObjectsEventData() map[string]interface{} {
	return map[string]interface{}{"objects": []interface{}{}}
}

func (r *Relay) MatchInProgress() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inProgress && !r.destroyed
}

func (r *Relay) CanAcceptNewPlayers() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inProgress && !r.destroyed
}

func (r *Relay) SetPlayerLatency(playerID string, ms int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.states[playerID]; ok {
		r.latency[playerID] = ms
	}
}

func (r *Relay) Winner() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.winner
}

func (r *Relay) PlayerStateByID(id string) (map[string]interface{}, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.states[id]
	if !ok {
		return nil, false
	}
	cp := make(map[string]interface{}, len(st))
	for k, v := range st {
		cp[k] = v
	}
	return cp, true
}

func (r *Relay) Destroy() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.destroyed {
		return
	}
	r.destroyed = true
	r.inProgress = false
	if r.stream != nil {
		close(r.stream)
	}
}
