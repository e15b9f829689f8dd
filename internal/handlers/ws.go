// internal/handlers/ws.go
//
// Websocket lifecycle: accept, session resume, read/write pumps. One
// goroutine reads, one drains the session's outbound channel; everything
// else happens synchronously inside dispatch.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/skirmish-io/skirmish-server/internal/channel"
)

const (
	wsSubprotocol = "skirmish"
	writeTimeout  = 3 * time.Second
	pingInterval  = 30 * time.Second
	tokenLifetime = 24 * time.Hour
)

// envelope is the inbound wire frame.
type envelope struct {
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// WSHandler upgrades the connection and runs the session until the socket
// closes.
func (s *Server) WSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.sessions.Count() >= s.cfg.MaxClients {
			http.Error(w, "server full", http.StatusServiceUnavailable)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{wsSubprotocol},
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			log.WithError(err).Warn("websocket accept failed")
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler exit")

		if c.Subprotocol() != wsSubprotocol {
			c.Close(websocket.StatusPolicyViolation, "client must use the skirmish subprotocol")
			return
		}

		sessionID := s.sessionFromToken(r)
		if sessionID == "" {
			sessionID = uuid.NewString()
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		client := channel.NewClient(sessionID, cancel)
		if old := s.hub.Register(client); old != nil {
			old.Disconnect("duplicate_login")
		}
		p := s.sessions.Ensure(sessionID)
		log.WithFields(log.Fields{"session_id": sessionID, "remote": r.RemoteAddr}).Info("client connected")

		go s.writePump(ctx, c, client)

		client.Send(channel.Message{
			"type":        "welcome",
			"sessionId":   sessionID,
			"token":       s.mintToken(sessionID),
			"messageText": s.cfg.WelcomeMessage,
		})

		s.readPump(ctx, c, client, sessionID)

		// Teardown. The lobby removal handles forfeits and host-leave.
		s.reg.Remove(sessionID, "disconnected")
		s.leaveParty(p)
		s.hub.Unregister(sessionID)
		s.gates.Release(sessionID)
		s.sessions.Remove(sessionID)
		s.broadcastServerStats()
		log.WithField("session_id", sessionID).Info("client disconnected")
	}
}

func (s *Server) readPump(ctx context.Context, c *websocket.Conn, client *channel.Client, sessionID string) {
	for {
		_, data, err := c.Read(ctx)
		if err != nil {
			return
		}
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			log.WithField("session_id", sessionID).Debug("malformed frame dropped")
			continue
		}
		if env.Type == "" {
			continue
		}
		p, ok := s.sessions.Get(sessionID)
		if !ok {
			return
		}
		s.dispatch(client, p, env.Type, env.Payload)
	}
}

func (s *Server) writePump(ctx context.Context, c *websocket.Conn, client *channel.Client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			c.Close(websocket.StatusNormalClosure, "session over")
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		case msg := <-client.OutChan:
			data, err := json.Marshal(msg)
			if err != nil {
				log.WithError(err).Warn("outbound marshal failed")
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

// mintToken issues the reconnect token echoed back on the next connect.
func (s *Server) mintToken(sessionID string) string {
	if s.cfg.JWTSecret == "" {
		return ""
	}
	claims := jwt.MapClaims{
		"sid": sessionID,
		"exp": time.Now().Add(tokenLifetime).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		log.WithError(err).Warn("token mint failed")
		return ""
	}
	return token
}

// sessionFromToken recovers the session id from a valid reconnect token.
func (s *Server) sessionFromToken(r *http.Request) string {
	raw := r.URL.Query().Get("token")
	if raw == "" || s.cfg.JWTSecret == "" {
		return ""
	}
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return ""
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ""
	}
	sid, _ := claims["sid"].(string)
	return sid
}
