// Package network - control.go
// ControlBridge - REST API for operating the engine from outside.
//
// Spectators get the WebSocket stream; operators get these endpoints to
// pause the tick loop, force a state transition, or check what the
// engine is doing without attaching a client.
package network

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/farolengine/farol/internal/platform/logger"
	"github.com/farolengine/farol/internal/platform/metrics"
)

// EngineControl is the slice of the engine the REST bridge drives.
// Pause, Resume and RequestTransition are queued commands: the engine
// picks them up at the top of its next tick.
type EngineControl interface {
	Pause()
	Resume()
	RequestTransition(name string)
	CurrentState() string
	Tick() uint64
	IsPaused() bool
	SessionID() string
}

// ControlBridge handles operator interactions.
type ControlBridge struct {
	director EngineControl
	wsHub    *Hub
	logger   *logger.Logger
}

// NewControlBridge creates a new operator API handler.
func NewControlBridge(director EngineControl, hub *Hub, log *logger.Logger) *ControlBridge {
	return &ControlBridge{
		director: director,
		wsHub:    hub,
		logger:   log,
	}
}

// TransitionRequest is the payload for forcing a state change.
type TransitionRequest struct {
	State string `json:"state"`
}

// HandlePause freezes the tick loop.
// POST /api/control/pause
func (cb *ControlBridge) HandlePause(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		cb.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	cb.director.Pause()
	cb.logger.Event("CONTROL_PAUSE", r.RemoteAddr, "Engine pause requested")

	cb.jsonSuccess(w, map[string]interface{}{
		"success": true,
		"paused":  true,
	})
}

// HandleResume unfreezes the tick loop.
// POST /api/control/resume
func (cb *ControlBridge) HandleResume(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		cb.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	cb.director.Resume()
	cb.logger.Event("CONTROL_RESUME", r.RemoteAddr, "Engine resume requested")

	cb.jsonSuccess(w, map[string]interface{}{
		"success": true,
		"paused":  false,
	})
}

// HandleTransition asks the engine to switch states. The request is
// queued; the engine validates the target on its next tick and keeps
// the current state when the name is unknown.
// POST /api/control/transition
func (cb *ControlBridge) HandleTransition(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		cb.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cb.jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.State == "" {
		cb.jsonError(w, "Missing state", http.StatusBadRequest)
		return
	}

	cb.director.RequestTransition(req.State)
	cb.logger.Event("CONTROL_TRANSITION", r.RemoteAddr, "Requested state "+req.State)

	cb.jsonSuccess(w, map[string]interface{}{
		"success":         true,
		"requested_state": req.State,
	})
}

// HandleStatus returns what the engine is currently doing.
// GET /api/control/status
func (cb *ControlBridge) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		cb.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	cb.jsonSuccess(w, map[string]interface{}{
		"session_id": cb.director.SessionID(),
		"state":      cb.director.CurrentState(),
		"tick":       cb.director.Tick(),
		"paused":     cb.director.IsPaused(),
		"clients":    cb.wsHub.ClientCount(),
		"pad_owner":  cb.wsHub.PadOwner(),
		"started":    humanize.Time(metrics.Get().StartTime),
		"timestamp":  time.Now().Unix(),
	})
}

// RegisterRoutes sets up the control API routes.
func (cb *ControlBridge) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/control/pause", cb.HandlePause)
	mux.HandleFunc("/api/control/resume", cb.HandleResume)
	mux.HandleFunc("/api/control/transition", cb.HandleTransition)
	mux.HandleFunc("/api/control/status", cb.HandleStatus)
}

// jsonError sends an error response.
func (cb *ControlBridge) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// jsonSuccess sends a success response.
func (cb *ControlBridge) jsonSuccess(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(data)
}
