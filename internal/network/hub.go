package network

import (
	"context"
	"sync"
	"time"

	"github.com/farolengine/farol/internal/platform/logger"
	"github.com/farolengine/farol/internal/platform/metrics"
)

// InputKind classifies messages flowing from the hub to the engine.
type InputKind uint8

const (
	// InputButtons carries a fresh pad bitmask.
	InputButtons InputKind = iota
	// InputPadClaimed signals that a spectator now owns the pad.
	InputPadClaimed
	// InputPadReleased signals that the pad owner let go or disconnected.
	InputPadReleased
)

// InputMessage is one pad event funneled from a WebSocket client to the
// engine. The engine drains these at the top of every tick.
type InputMessage struct {
	Kind    InputKind
	Buttons uint8
	Remote  string
}

// HubConfig tunes the hub's channel capacities and admission limits.
type HubConfig struct {
	FrameBuffer int           // capacity of the frame fan-out channel
	InputBuffer int           // capacity of the engine-bound input channel
	SendBuffer  int           // per-client send queue
	MaxClients  int           // 0 means unlimited
	MinInputGap time.Duration // minimum time between input frames per client
}

// Hub maintains the set of active clients, fans rendered frames out to
// them, and funnels pad input back to the engine. Exactly one client may
// own the pad at a time; everyone else spectates.
type Hub struct {
	clients    map[*Client]bool
	frames     chan []byte
	inputs     chan InputMessage
	register   chan *Client
	unregister chan *Client

	cfg HubConfig

	mu       sync.Mutex
	padOwner *Client

	logger *logger.Logger
}

// NewHub initializes a new WebSocket Hub.
func NewHub(cfg HubConfig, log *logger.Logger) *Hub {
	if cfg.FrameBuffer <= 0 {
		cfg.FrameBuffer = 8
	}
	if cfg.InputBuffer <= 0 {
		cfg.InputBuffer = 64
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 32
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		frames:     make(chan []byte, cfg.FrameBuffer),
		inputs:     make(chan InputMessage, cfg.InputBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		cfg:        cfg,
		logger:     log,
	}
}

// Run starts the Hub's main loop to handle client connections and frame
// fan-out. It returns when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("WebSocket Hub shutting down.")
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.padOwner = nil
			h.mu.Unlock()
			return
		case client := <-h.register:
			h.mu.Lock()
			if h.cfg.MaxClients > 0 && len(h.clients) >= h.cfg.MaxClients {
				h.mu.Unlock()
				h.logger.Warnf("Client limit (%d) reached, rejecting %s", h.cfg.MaxClients, client.remote)
				close(client.send)
				client.conn.Close()
				continue
			}
			h.clients[client] = true
			h.mu.Unlock()
			metrics.Get().RecordWSConnection(1)
			h.logger.Info("New WebSocket client connected: " + client.remote)
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				if h.padOwner == client {
					h.padOwner = nil
					h.pushInput(InputMessage{Kind: InputPadReleased, Remote: client.remote})
				}
				metrics.Get().RecordWSConnection(-1)
				h.logger.Info("WebSocket client disconnected: " + client.remote)
			}
			h.mu.Unlock()
		case packet := <-h.frames:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- outMessage{kind: frameMessage, data: packet}:
				default:
					// A slow spectator skips this frame instead of
					// being disconnected; the stream resumes with
					// the next one.
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastFrame queues an encoded frame packet for fan-out to every
// connected client. It never blocks the caller: when the hub is behind,
// the frame is dropped and the next one takes its place.
func (h *Hub) BroadcastFrame(packet []byte) {
	select {
	case h.frames <- packet:
	default:
		metrics.Get().RecordWSError()
	}
}

// Inputs exposes the engine-bound input channel.
func (h *Hub) Inputs() <-chan InputMessage {
	return h.inputs
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// PadOwner returns the remote address of the current pad owner, or ""
// when the pad is unclaimed.
func (h *Hub) PadOwner() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.padOwner == nil {
		return ""
	}
	return h.padOwner.remote
}

// claimPad makes c the pad owner if the pad is free. Claiming a pad you
// already own succeeds without a second claim event.
func (h *Hub) claimPad(c *Client) (ok, already bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.padOwner == c {
		return true, true
	}
	if h.padOwner != nil {
		return false, false
	}
	h.padOwner = c
	return true, false
}

// releasePad clears pad ownership if c holds it.
func (h *Hub) releasePad(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.padOwner != c {
		return false
	}
	h.padOwner = nil
	return true
}

// isPadOwner reports whether c currently owns the pad.
func (h *Hub) isPadOwner(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.padOwner == c
}

// pushInput forwards a message to the engine without blocking. Callers
// hold no locks the engine needs, so a full channel only ever costs us
// one stale pad frame.
func (h *Hub) pushInput(msg InputMessage) {
	select {
	case h.inputs <- msg:
	default:
		metrics.Get().RecordWSError()
		h.logger.Warn("Input channel full, dropping pad message from " + msg.Remote)
	}
}
