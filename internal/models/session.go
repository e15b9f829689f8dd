// internal/models/session.go
package models

// NoTeam marks a session with no team assignment. Free-for-all slots and
// two-team indices are both >= 0.
const NoTeam = -1

// PlayerSession is the authoritative record for one connected identity.
// It is owned by the connection that created it; lobbies and parties hold
// references but never copy it except through Snapshot.
type PlayerSession struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Level    int    `json:"level"`
	Prestige int    `json:"prestige"`
	Clan     string `json:"clan,omitempty"`
	Username string `json:"-"` // account name, empty for guests

	CurrentLobbyID string `json:"-"`
	CurrentPartyID string `json:"currentPartyId,omitempty"`

	Latency int `json:"latency,omitempty"`

	// Transient per-match state, cleared whenever the lobby resets.
	Ready       bool `json:"ready,omitempty"`
	InGame      bool `json:"-"`
	Team        int  `json:"team"`
	DesiredTeam int  `json:"desiredTeam"`

	IsBot    bool `json:"bot,omitempty"`
	IsDummy  bool `json:"dummy,omitempty"`
	BotSkill int  `json:"-"`

	IsAdmin      bool `json:"-"`
	IsClanLeader bool `json:"clanLeader,omitempty"`
	IsLobbyHost  bool `json:"lobbyHost,omitempty"`
	IsPartyHost  bool `json:"partyHost,omitempty"`

	Avatars AvatarSet `json:"-"`

	// AvatarData is resolved at team assignment from Avatars and the lobby's
	// faction pairing; it is what gets shipped to the match engine.
	AvatarData Avatar `json:"avatarData,omitempty"`

	Card     string `json:"card,omitempty"`
	Callsign string `json:"callsign,omitempty"`
}

// HasTeam reports whether the session currently holds a team assignment.
func (p *PlayerSession) HasTeam() bool { return p.Team != NoTeam }

// HasDesiredTeam reports whether a private-lobby team preference is set.
func (p *PlayerSession) HasDesiredTeam() bool { return p.DesiredTeam != NoTeam }

// IsReal reports whether the session counts toward real-player thresholds.
// Dummies are synthetic but stand in for humans, so they count.
func (p *PlayerSession) IsReal() bool { return !p.IsBot || p.IsDummy }

// ResetMatchState strips the transient per-match flags. The desired team is
// deliberately kept so private-lobby picks survive between matches.
func (p *PlayerSession) ResetMatchState() {
	p.Ready = false
	p.InGame = false
	p.Team = NoTeam
}

// Snapshot returns a value copy safe to hand to outbound payloads; later
// mutation of the live session cannot affect it.
func (p *PlayerSession) Snapshot() PlayerSession {
	cp := *p
	cp.Avatars = p.Avatars.Clone()
	cp.AvatarData = p.AvatarData.Clone()
	return cp
}
