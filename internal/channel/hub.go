// internal/channel/hub.go
package channel

import (
	"sync"
)

// Hub tracks live channels and their room membership. Rooms are cheap
// string-keyed groups; a lobby and a party each map to one room.
type Hub struct {
	mu       sync.Mutex
	channels map[string]Channel
	rooms    map[string]map[string]Channel
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{
		channels: make(map[string]Channel),
		rooms:    make(map[string]map[string]Channel),
	}
}

// Register adds a channel under its session id, replacing any prior one.
// The displaced channel is returned so the caller can disconnect it.
func (h *Hub) Register(ch Channel) Channel {
	h.mu.Lock()
	defer h.mu.Unlock()
	old := h.channels[ch.SessionID()]
	h.channels[ch.SessionID()] = ch
	return old
}

// Unregister drops the channel and removes it from every room.
func (h *Hub) Unregister(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.channels, sessionID)
	for room, members := range h.rooms {
		delete(members, sessionID)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// JoinRoom places a registered session into a room. No-op if the session
// has no live channel.
func (h *Hub) JoinRoom(room, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch, ok := h.channels[sessionID]
	if !ok {
		return
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[string]Channel)
		h.rooms[room] = members
	}
	members[sessionID] = ch
}

// LeaveRoom removes a session from a room, deleting the room when empty.
func (h *Hub) LeaveRoom(room, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, sessionID)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

// SendTo delivers msg to one session if it has a live channel.
func (h *Hub) SendTo(sessionID string, msg Message) {
	h.mu.Lock()
	ch, ok := h.channels[sessionID]
	h.mu.Unlock()
	if ok {
		ch.Send(msg)
	}
}

// BroadcastRoom fans msg out to every member of a room.
func (h *Hub) BroadcastRoom(room string, msg Message) {
	h.broadcastRoomExcept(room, "", msg)
}

// BroadcastRoomExcept fans msg out to every member of a room except one,
// typically the originator of the event.
func (h *Hub) BroadcastRoomExcept(room, exceptID string, msg Message) {
	h.broadcastRoomExcept(room, exceptID, msg)
}

func (h *Hub) broadcastRoomExcept(room, exceptID string, msg Message) {
	h.mu.Lock()
	targets := make([]Channel, 0, len(h.rooms[room]))
	for id, ch := range h.rooms[room] {
		if id == exceptID {
			continue
		}
		targets = append(targets, ch)
	}
	h.mu.Unlock()

	// Send outside the lock. Channel sends are non-blocking anyway.
	for _, ch := range targets {
		ch.Send(msg)
	}
}

// BroadcastAll sends msg to every registered channel.
func (h *Hub) BroadcastAll(msg Message) {
	h.mu.Lock()
	targets := make([]Channel, 0, len(h.channels))
	for _, ch := range h.channels {
		targets = append(targets, ch)
	}
	h.mu.Unlock()

	for _, ch := range targets {
		ch.Send(msg)
	}
}

// RoomSize reports how many sessions currently sit in a room.
func (h *Hub) RoomSize(room string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[room])
}
