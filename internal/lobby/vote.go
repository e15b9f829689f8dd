// internal/lobby/vote.go
//
// Votekick ballots and the next-map vote.
package lobby

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// VoteKick casts one vote to eject target from the caller's lobby. Votes
// are idempotent per voter; the target is removed once a strict majority
// of the current roster has voted.
func (r *Registry) VoteKick(voterID, targetID string) {
	if !r.opts.AllowVotekick {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	l := r.lobbyOfLocked(voterID)
	if l == nil || l.Private {
		return
	}
	target := l.Member(targetID)
	if target == nil || targetID == voterID || !target.IsReal() {
		return
	}
	if targetID == l.HostPlayerID || target.IsAdmin {
		return
	}

	if l.kickVotes == nil {
		l.kickVotes = make(map[string]map[string]bool)
	}
	voters := l.kickVotes[targetID]
	if voters == nil {
		voters = make(map[string]bool)
		l.kickVotes[targetID] = voters
	}
	if voters[voterID] {
		return
	}
	voters[voterID] = true

	needed := (len(l.Members) + 1) / 2 // ceil(0.5 * roster)
	log.WithFields(log.Fields{
		"lobby_id": l.ID, "target": targetID, "votes": len(voters), "needed": needed,
	}).Info("votekick progress")

	if len(voters) >= needed {
		delete(l.kickVotes, targetID)
		r.serverChatLocked(l, target.Name+" was voted out of the lobby.")
		r.removeLocked(l, targetID, "kicked")
		return
	}
	r.serverChatLocked(l, fmt.Sprintf("%d/%d votes needed to kick %s.", len(voters), needed, target.Name))
}

// VoteMap toggles the caller's next-map vote on the ballot entry at
// index. A vote elsewhere moves here; a vote already here is retracted.
func (r *Registry) VoteMap(playerID string, index int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l := r.lobbyOfLocked(playerID)
	if l == nil {
		return
	}
	if index < 0 || index >= len(l.MapBallot) {
		return
	}
	if l.State == StateStarting || l.State == StateInProgress {
		return
	}
	if l.mapVotes == nil {
		l.mapVotes = make(map[string]int)
	}
	prev, had := l.mapVotes[playerID]
	if had {
		delete(l.mapVotes, playerID)
		if prev >= 0 && prev < len(l.MapBallot) {
			l.MapBallot[prev].Votes--
		}
		if prev == index {
			r.updateLobbyLocked(l)
			return
		}
	}
	l.mapVotes[playerID] = index
	l.MapBallot[index].Votes++
	r.updateLobbyLocked(l)
}

// retractMapVoteLocked pulls a departing player's vote off the ballot.
func (r *Registry) retractMapVoteLocked(l *Lobby, playerID string) {
	idx, ok := l.mapVotes[playerID]
	if !ok {
		return
	}
	delete(l.mapVotes, playerID)
	if idx >= 0 && idx < len(l.MapBallot) {
		l.MapBallot[idx].Votes--
	}
}
