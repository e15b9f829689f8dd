// internal/handlers/server.go
//
// HTTP surface: the websocket endpoint and the JSON status dashboard.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/skirmish-io/skirmish-server/internal/channel"
	"github.com/skirmish-io/skirmish-server/internal/clan"
	"github.com/skirmish-io/skirmish-server/internal/config"
	"github.com/skirmish-io/skirmish-server/internal/gate"
	"github.com/skirmish-io/skirmish-server/internal/lobby"
	"github.com/skirmish-io/skirmish-server/internal/matchmaking"
	"github.com/skirmish-io/skirmish-server/internal/party"
	"github.com/skirmish-io/skirmish-server/internal/stats"
)

// Server binds the transport to the session, lobby, party and clan cores.
type Server struct {
	cfg config.Config

	hub      *channel.Hub
	reg      *lobby.Registry
	sched    *matchmaking.Scheduler
	parties  *party.Manager
	clans    clan.Directory
	gates    *gate.Registry
	sessions *SessionStore
	reporter *stats.Reporter

	startedAt time.Time
}

// NewServer wires the full handler stack.
func NewServer(cfg config.Config, hub *channel.Hub, reg *lobby.Registry, sched *matchmaking.Scheduler, parties *party.Manager, clans clan.Directory, reporter *stats.Reporter) *Server {
	if clans == nil {
		clans = clan.Disabled{}
	}
	return &Server{
		cfg:       cfg,
		hub:       hub,
		reg:       reg,
		sched:     sched,
		parties:   parties,
		clans:     clans,
		gates:     gate.NewRegistry(),
		sessions:  NewSessionStore(),
		reporter:  reporter,
		startedAt: time.Now(),
	}
}

// Routes returns the server's HTTP mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.WSHandler())
	mux.HandleFunc("/data", s.dataHandler)
	mux.HandleFunc("/", s.statusHandler)
	return mux
}

// statusHandler is the public dashboard: pool and lobby summary.
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	body := s.reg.DashboardData()
	body["name"] = "skirmish-server"
	body["clients"] = s.sessions.Count()
	body["uptimeSeconds"] = int(time.Since(s.startedAt).Seconds())
	writeJSON(w, body)
}

// dataHandler is the lightweight counters endpoint used by monitoring.
func (s *Server) dataHandler(w http.ResponseWriter, r *http.Request) {
	dash := s.reg.DashboardData()
	writeJSON(w, map[string]interface{}{
		"uptimeSeconds": int(time.Since(s.startedAt).Seconds()),
		"clients":       s.sessions.Count(),
		"lobbies":       dash["lobbies"],
		"players":       dash["players"],
	})
}

// broadcastServerStats pushes population counters to every client sitting
// outside a lobby. Called on the events that change the counters.
func (s *Server) broadcastServerStats() {
	dash := s.reg.DashboardData()
	msg := channel.Message{
		"type":            "updateServerStats",
		"players":         s.sessions.Count(),
		"maxPlayers":      s.cfg.MaxClients,
		"lobbies":         dash["lobbies"],
		"gamesInProgress": dash["gamesInProgress"],
	}
	for _, id := range s.sessions.OutOfLobbyIDs() {
		s.hub.SendTo(id, msg)
	}
}

func writeJSON(w http.ResponseWriter, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Warn("status encode failed")
	}
}
