package network

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/farolengine/farol/internal/platform/metrics"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// Frames go out as binary messages, control notices as text.
const frameMessage = websocket.BinaryMessage

// outMessage pairs a payload with its websocket message type so both
// kinds can share one send queue per client.
type outMessage struct {
	kind int
	data []byte
}

// ClientCommand represents an incoming control message from a client.
type ClientCommand struct {
	Type    string `json:"type"`    // "claim_pad", "input", "release_pad"
	Buttons uint8  `json:"buttons"` // pad bitmask, used by "input"
}

// PadNotice tells a client how its pad request went. Ok reports whether
// the client owns the pad after the command.
type PadNotice struct {
	Type    string `json:"type"` // always "pad_status"
	Ok      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// Client is one active WebSocket connection, spectator or pad owner.
type Client struct {
	hub           *Hub
	conn          *websocket.Conn
	send          chan outMessage
	remote        string
	lastInputTime time.Time
}

// NewClient creates a new WebSocket client and returns it.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan outMessage, hub.cfg.SendBuffer),
		remote: conn.RemoteAddr().String(),
	}
}

// Register adds the client to the hub.
func (c *Client) Register() {
	c.hub.register <- c
}

// ReadPump pumps messages from the websocket connection to the hub.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warnf("WebSocket read error from %s: %v", c.remote, err)
			}
			break
		}
		metrics.Get().RecordWSMessage(true)

		var cmd ClientCommand
		if err := json.Unmarshal(message, &cmd); err != nil {
			c.hub.logger.Error("Failed to parse ClientCommand from WebSocket. err: " + err.Error())
			continue
		}

		c.handleCommand(cmd)
	}
}

func (c *Client) handleCommand(cmd ClientCommand) {
	switch cmd.Type {
	case "claim_pad":
		ok, already := c.hub.claimPad(c)
		if ok && !already {
			c.hub.pushInput(InputMessage{Kind: InputPadClaimed, Remote: c.remote})
			c.hub.logger.Event("PAD_CLAIMED", c.remote, "Client took the pad")
		}
		notice := PadNotice{Type: "pad_status", Ok: ok}
		if !ok {
			notice.Message = "pad is already claimed"
		}
		c.sendNotice(notice)
	case "input":
		// Inputs from anyone but the pad owner are dropped at the
		// edge, as are inputs beyond the configured rate, so a hot
		// loop in a client cannot flood the engine's input channel.
		if !c.hub.isPadOwner(c) {
			return
		}
		if gap := c.hub.cfg.MinInputGap; gap > 0 && time.Since(c.lastInputTime) < gap {
			return
		}
		c.lastInputTime = time.Now()
		c.hub.pushInput(InputMessage{Kind: InputButtons, Buttons: cmd.Buttons, Remote: c.remote})
	case "release_pad":
		if c.hub.releasePad(c) {
			c.hub.pushInput(InputMessage{Kind: InputPadReleased, Remote: c.remote})
			c.hub.logger.Event("PAD_RELEASED", c.remote, "Client gave up the pad")
		}
		c.sendNotice(PadNotice{Type: "pad_status", Ok: false, Message: "pad released"})
	default:
		c.hub.logger.Warn("Unknown ClientCommand type: " + cmd.Type)
	}
}

func (c *Client) sendNotice(n PadNotice) {
	data, err := json.Marshal(n)
	if err != nil {
		return
	}
	select {
	case c.send <- outMessage{kind: websocket.TextMessage, data: data}:
	default:
		// Send queue full, drop the notice.
	}
}

// WritePump pumps messages from the hub to the websocket connection.
//
// Queued messages are never coalesced into one frame: binary frame
// packets must arrive one per WebSocket message or the decoder on the
// other side loses the header boundaries.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(message.kind, message.data); err != nil {
				return
			}
			metrics.Get().RecordWSMessage(false)
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
