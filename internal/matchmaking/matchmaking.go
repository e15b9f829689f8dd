// internal/matchmaking/matchmaking.go
//
// Lobby selection for quick play and auto-join. The scheduler only ranks
// candidates from registry snapshots; admission is re-validated by the
// registry under its own lock, so a stale snapshot costs one retry at
// worst.
package matchmaking

import (
	"math/rand"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/skirmish-io/skirmish-server/internal/balance"
	"github.com/skirmish-io/skirmish-server/internal/gamedata"
	"github.com/skirmish-io/skirmish-server/internal/lobby"
	"github.com/skirmish-io/skirmish-server/internal/models"
)

// Auto-join gives up on skill matching after this many attempts and takes
// any seat it can find.
const desperationAttempts = 60

// Combat training is gated to genuinely new players.
const (
	combatTrainingMaxLevel = 25
)

// Scheduler places players (and their parties) into lobbies.
type Scheduler struct {
	reg *lobby.Registry
	rng *rand.Rand
}

// NewScheduler wires a scheduler to the lobby registry. rng may be nil.
func NewScheduler(reg *lobby.Registry, rng *rand.Rand) *Scheduler {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Scheduler{reg: reg, rng: rng}
}

// JoinGroup seats a whole group in one lobby, leader first. The leader's
// verdict is returned; trailing members that no longer fit are left out
// rather than failing the group.
func (s *Scheduler) JoinGroup(lobbyID string, group []*models.PlayerSession) lobby.JoinResult {
	if len(group) == 0 {
		return lobby.JoinFailError
	}
	res := s.reg.Join(lobbyID, group[0])
	if res != lobby.JoinSuccess {
		return res
	}
	for _, m := range group[1:] {
		if s.reg.CanJoin(lobbyID, m, 1) == lobby.JoinSuccess {
			s.reg.Join(lobbyID, m)
		}
	}
	return lobby.JoinSuccess
}

// QuickJoin places the group into the fullest joinable lobby of a pool,
// spinning up another lobby when every existing one is full.
func (s *Scheduler) QuickJoin(poolID string, group []*models.PlayerSession) (string, lobby.JoinResult) {
	if len(group) == 0 {
		return "", lobby.JoinFailError
	}
	incoming := len(group)

	sums := s.reg.Summaries(poolID)
	sort.SliceStable(sums, func(i, j int) bool {
		return sums[i].RealPlayers > sums[j].RealPlayers
	})

	for _, sum := range sums {
		if sum.Merging {
			continue
		}
		if sum.Players+incoming-sum.Bots > sum.MaxPlayers {
			continue
		}
		if s.reg.CanJoin(sum.ID, group[0], incoming) != lobby.JoinSuccess {
			continue
		}
		if res := s.JoinGroup(sum.ID, group); res == lobby.JoinSuccess {
			return sum.ID, res
		}
	}

	if id, ok := s.reg.CreateInPool(poolID); ok {
		if res := s.JoinGroup(id, group); res == lobby.JoinSuccess {
			return id, res
		}
	}
	log.WithFields(log.Fields{"pool": poolID, "group": incoming}).Info("quick join found no seat")
	return "", lobby.JoinFailCapacity
}

// AutoJoin scans every public pool for the best-fitting lobby for the
// group's leader. Fit is the distance between the lobby's average level
// and the leader's skill value; ties favor fuller lobbies. Early attempts
// insist on a populated lobby; after enough failures any joinable seat
// will do.
func (s *Scheduler) AutoJoin(group []*models.PlayerSession, attempts int, includeBattlezone bool) (string, bool) {
	if len(group) == 0 {
		return "", false
	}
	leader := group[0]
	value := balance.PlayerValue(leader)
	desperate := attempts >= desperationAttempts

	var candidates []lobby.Summary
	for _, pool := range append(gamedata.RotationPools(), gamedata.PublicModes()...) {
		if pool == gamedata.ModeBattlezone && !includeBattlezone {
			continue
		}
		if pool == gamedata.ModeCombatTraining &&
			(leader.Level > combatTrainingMaxLevel || leader.Prestige > 0) {
			continue
		}
		for _, sum := range s.reg.Summaries(pool) {
			if sum.Merging || sum.Private {
				continue
			}
			if !desperate && sum.RealPlayers == 0 {
				continue
			}
			if s.reg.CanJoin(sum.ID, leader, len(group)) != lobby.JoinSuccess {
				continue
			}
			candidates = append(candidates, sum)
		}
	}
	if len(candidates) == 0 {
		return "", false
	}

	if desperate {
		s.rng.Shuffle(len(candidates), func(i, j int) {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		})
	} else {
		sort.SliceStable(candidates, func(i, j int) bool {
			di := absInt(candidates[i].AverageLevel - value)
			dj := absInt(candidates[j].AverageLevel - value)
			if di != dj {
				return di < dj
			}
			return candidates[i].RealPlayers > candidates[j].RealPlayers
		})
	}

	for _, sum := range candidates {
		if s.JoinGroup(sum.ID, group) == lobby.JoinSuccess {
			log.WithFields(log.Fields{
				"lobby_id": sum.ID, "pool": sum.PoolID, "attempts": attempts,
			}).Info("auto join placed group")
			return sum.ID, true
		}
	}
	return "", false
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
