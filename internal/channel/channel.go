// internal/channel/channel.go
package channel

import (
	log "github.com/sirupsen/logrus"
)

// Message is the wire payload shape. Every message carries a "type" key.
type Message = map[string]interface{}

// Channel is one client's outbound half. Implementations must never block
// the caller; slow consumers get messages dropped, not the server stalled.
type Channel interface {
	// SessionID identifies the player session behind this channel.
	SessionID() string
	// Send queues msg for delivery. Non-blocking.
	Send(msg Message)
	// Disconnect tears the connection down after delivering a final
	// "disconnectInfo" message with the given reason.
	Disconnect(reason string)
}

// Client is the buffered-channel implementation used by the websocket
// transport. The write pump drains OutChan; Cancel aborts the connection's
// context which unwinds both pumps.
type Client struct {
	ID      string
	OutChan chan Message
	Cancel  func()
}

// NewClient builds a Client with the standard outbound buffer size.
func NewClient(id string, cancel func()) *Client {
	return &Client{
		ID:      id,
		OutChan: make(chan Message, 64),
		Cancel:  cancel,
	}
}

func (c *Client) SessionID() string { return c.ID }

// Send pushes a message onto OutChan non-blockingly. Logs if dropped.
func (c *Client) Send(msg Message) {
	select {
	case c.OutChan <- msg:
	default:
		msgType, _ := msg["type"].(string)
		log.Warnf("channel: OutChan for session %s closed or full, dropped message type '%s'", c.ID, msgType)
	}
}

// SendError is a convenience to send an error object.
func (c *Client) SendError(msg string) {
	c.Send(Message{"type": "error", "message": msg})
}

// Disconnect notifies the client, then cancels the connection context. The
// read and write pumps observe the cancellation and close the socket.
func (c *Client) Disconnect(reason string) {
	c.Send(Message{"type": "disconnectInfo", "reason": reason})
	if c.Cancel != nil {
		c.Cancel()
	}
}
