// internal/party/party.go
package party

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// MaxMembers caps a party at the lobby size so a whole party always fits
// into one match.
const MaxMembers = 8

var (
	// ErrNotFound means no party matched the id.
	ErrNotFound = errors.New("party: not found")
	// ErrFull means the party is at MaxMembers.
	ErrFull = errors.New("party: full")
	// ErrAlreadyInParty means the player already belongs to a party.
	ErrAlreadyInParty = errors.New("party: already in a party")
	// ErrInLobby means the player must leave their lobby before creating
	// a party.
	ErrInLobby = errors.New("party: leave your lobby first")
)

// Party is an ordered grouping of players that matchmakes as one unit.
// The host is the first member; only the host triggers lobby transitions
// for the party, and the host leaving disbands it.
type Party struct {
	ID        string
	HostID    string
	MemberIDs []string
}

// Members returns a copy of the ordered member list.
func (p *Party) Members() []string {
	out := make([]string, len(p.MemberIDs))
	copy(out, p.MemberIDs)
	return out
}

// Has reports membership.
func (p *Party) Has(playerID string) bool {
	for _, id := range p.MemberIDs {
		if id == playerID {
			return true
		}
	}
	return false
}

// Manager owns every live party. All mutation goes through its mutex.
type Manager struct {
	mu       sync.Mutex
	parties  map[string]*Party
	order    []string
	byMember map[string]string
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{
		parties:  make(map[string]*Party),
		byMember: make(map[string]string),
	}
}

// Create starts a new party with the player as host. A player seated in a
// lobby is refused; they have to leave the lobby themselves first.
func (m *Manager) Create(playerID string, inLobby bool) (*Party, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if inLobby {
		return nil, ErrInLobby
	}
	if _, ok := m.byMember[playerID]; ok {
		return nil, ErrAlreadyInParty
	}
	p := &Party{
		ID:        uuid.NewString(),
		HostID:    playerID,
		MemberIDs: []string{playerID},
	}
	m.parties[p.ID] = p
	m.order = append(m.order, p.ID)
	m.byMember[playerID] = p.ID
	log.WithFields(log.Fields{"party_id": p.ID, "host_id": playerID}).Info("party created")
	return p, nil
}

// Join adds a player to an existing party.
func (m *Manager) Join(partyID, playerID string) (*Party, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.parties[partyID]
	if !ok {
		return nil, ErrNotFound
	}
	if _, taken := m.byMember[playerID]; taken {
		return nil, ErrAlreadyInParty
	}
	if len(p.MemberIDs) >= MaxMembers {
		return nil, ErrFull
	}
	p.MemberIDs = append(p.MemberIDs, playerID)
	m.byMember[playerID] = partyID
	return p, nil
}

// Leave removes a player from their party. When the host leaves, the party
// disbands and every displaced member id is returned.
func (m *Manager) Leave(playerID string) (p *Party, disbanded bool, displaced []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	partyID, ok := m.byMember[playerID]
	if !ok {
		return nil, false, nil
	}
	p = m.parties[partyID]

	if p.HostID == playerID {
		for _, id := range p.MemberIDs {
			delete(m.byMember, id)
			if id != playerID {
				displaced = append(displaced, id)
			}
		}
		m.removePartyLocked(partyID)
		log.WithField("party_id", partyID).Info("party disbanded by host departure")
		return p, true, displaced
	}

	delete(m.byMember, playerID)
	for i, id := range p.MemberIDs {
		if id == playerID {
			p.MemberIDs = append(p.MemberIDs[:i], p.MemberIDs[i+1:]...)
			break
		}
	}
	if len(p.MemberIDs) == 0 {
		m.removePartyLocked(partyID)
		return p, true, nil
	}
	return p, false, nil
}

func (m *Manager) removePartyLocked(partyID string) {
	delete(m.parties, partyID)
	for i, id := range m.order {
		if id == partyID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// Get resolves a party by id.
func (m *Manager) Get(partyID string) (*Party, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.parties[partyID]
	return p, ok
}

// ByMember resolves the party a player sits in.
func (m *Manager) ByMember(playerID string) (*Party, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	partyID, ok := m.byMember[playerID]
	if !ok {
		return nil, false
	}
	p, ok := m.parties[partyID]
	return p, ok
}

// Index is the party's position in creation order. Team balancing keys
// free-for-all slot offsets and team parity off this.
func (m *Manager) Index(partyID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, id := range m.order {
		if id == partyID {
			return i
		}
	}
	return -1
}

// Count reports the number of live parties.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.parties)
}
