// internal/stats/stats.go
package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/skirmish-io/skirmish-server/internal/clan"
)

// MatchRecord is the telemetry row pushed after every completed match.
// A separate consumer drains the queue into long-term storage.
type MatchRecord struct {
	LobbyID    string `json:"lobby_id"`
	GameModeID string `json:"game_mode_id"`
	MapID      string `json:"map_id"`
	Ranked     bool   `json:"ranked"`
	Private    bool   `json:"private"`

	StartedAt  int64 `json:"started_at"`
	DurationMs int64 `json:"duration_ms"`

	WinnerTeam int           `json:"winner_team"`
	Players    []PlayerScore `json:"players"`
}

// PlayerScore is one participant's line in a MatchRecord.
type PlayerScore struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Clan     string `json:"clan,omitempty"`
	Bot      bool   `json:"bot,omitempty"`
	Team     int    `json:"team"`
	Kills    int    `json:"kills"`
	Deaths   int    `json:"deaths"`
	Score    int    `json:"score"`
}

// Reporter pushes match telemetry onto a Redis list and credits clan
// kill totals. A nil Reporter or one with no Redis client is a no-op,
// so the server runs fine without the stats backend.
type Reporter struct {
	rdb   *redis.Client
	queue string
	clans clan.Directory
}

// NewReporter connects to Redis at addr. An empty addr disables telemetry.
func NewReporter(addr, queue string, clans clan.Directory) (*Reporter, error) {
	r := &Reporter{queue: queue, clans: clans}
	if addr == "" {
		return r, nil
	}
	r.rdb = redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return r, nil
}

// Enabled reports whether telemetry will actually be published.
func (r *Reporter) Enabled() bool { return r != nil && r.rdb != nil }

// PublishMatch serializes the record and pushes it onto the queue, then
// credits clan scores for the human participants. Errors are logged, not
// propagated; match teardown never blocks on telemetry.
func (r *Reporter) PublishMatch(ctx context.Context, record MatchRecord) {
	if r == nil {
		return
	}
	if r.rdb != nil {
		data, err := json.Marshal(record)
		if err != nil {
			log.Errorf("stats: failed to marshal match record for lobby %s: %v", record.LobbyID, err)
			return
		}
		if err := r.rdb.RPush(ctx, r.queue, data).Err(); err != nil {
			log.Errorf("stats: failed to RPush to Redis list '%s': %v", r.queue, err)
		}
	}
	r.creditClans(ctx, record)
}

// creditClans aggregates kills per clan and, for ranked wins, a score
// point per winning clan member.
func (r *Reporter) creditClans(ctx context.Context, record MatchRecord) {
	if r.clans == nil || record.Private {
		return
	}
	type tally struct {
		kills int64
		score int64
	}
	tallies := make(map[string]*tally)
	for _, p := range record.Players {
		if p.Bot || p.Clan == "" {
			continue
		}
		t, ok := tallies[p.Clan]
		if !ok {
			t = &tally{}
			tallies[p.Clan] = t
		}
		t.kills += int64(p.Kills)
		if record.Ranked && p.Team == record.WinnerTeam {
			t.score++
		}
	}
	for name, t := range tallies {
		if err := r.clans.IncrementScore(ctx, name, t.score, t.kills); err != nil &&
			err != clan.ErrUnavailable && err != clan.ErrNotFound {
			log.Warnf("stats: failed to credit clan %s: %v", name, err)
		}
	}
}

// CreditChallenge adds one challenge-completion point to a clan.
func (r *Reporter) CreditChallenge(ctx context.Context, clanName string) {
	if r == nil || r.clans == nil || clanName == "" {
		return
	}
	if err := r.clans.IncrementScore(ctx, clanName, 1, 0); err != nil &&
		err != clan.ErrUnavailable && err != clan.ErrNotFound {
		log.Warnf("stats: failed to credit clan challenge for %s: %v", clanName, err)
	}
}
