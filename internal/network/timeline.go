// Package network - timeline.go
// Timeline endpoint - JSON export of recorded session history.
//
// This is the session timeline viewer. It reads the immutable event
// ledger out of SQLite, so it works for the live session and for any
// finished one.
package network

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/farolengine/farol/internal/events"
	"github.com/farolengine/farol/internal/infra/storage"
	"github.com/farolengine/farol/internal/platform/logger"
)

// TimelineHandler provides the session timeline API.
type TimelineHandler struct {
	eventRepo storage.EventRepository
	replayer  *storage.Replayer
	logger    *logger.Logger
}

// NewTimelineHandler creates a new timeline handler.
func NewTimelineHandler(repo storage.EventRepository, replayer *storage.Replayer, log *logger.Logger) *TimelineHandler {
	return &TimelineHandler{
		eventRepo: repo,
		replayer:  replayer,
		logger:    log,
	}
}

// TimelineEvent is a sanitized event for public viewing.
type TimelineEvent struct {
	ID        string                 `json:"id"`
	Timestamp string                 `json:"timestamp"`
	Tick      uint64                 `json:"tick"`
	Type      string                 `json:"type"`
	Source    string                 `json:"source"`
	Summary   string                 `json:"summary"`
	Impact    string                 `json:"impact"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// TimelineResponse is the API response for a timeline query.
type TimelineResponse struct {
	SessionID   string          `json:"session_id"`
	TotalEvents int             `json:"total_events"`
	FilteredBy  string          `json:"filtered_by,omitempty"`
	GeneratedAt string          `json:"generated_at"`
	Events      []TimelineEvent `json:"events"`
}

// HandleTimeline returns the event timeline for a session.
// GET /api/timeline?session=XXX&type=STATE_ENTERED&since=N
func (th *TimelineHandler) HandleTimeline(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		th.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		th.jsonError(w, "Missing session", http.StatusBadRequest)
		return
	}

	// Optional filters
	eventType := r.URL.Query().Get("type")
	sinceStr := r.URL.Query().Get("since")

	var (
		rows       []storage.SessionEvent
		err        error
		filterDesc string
	)
	switch {
	case eventType != "":
		rows, err = th.eventRepo.GetByType(r.Context(), sessionID, eventType)
		filterDesc = "type " + eventType
	case sinceStr != "":
		since, convErr := strconv.ParseUint(sinceStr, 10, 64)
		if convErr != nil {
			th.jsonError(w, "Invalid since tick", http.StatusBadRequest)
			return
		}
		rows, err = th.eventRepo.GetSinceTick(r.Context(), sessionID, since)
		filterDesc = "since tick " + sinceStr
	default:
		rows, err = th.eventRepo.GetBySessionID(r.Context(), sessionID)
	}
	if err != nil {
		th.jsonError(w, "Failed to load timeline", http.StatusInternalServerError)
		return
	}

	timelineEvents := make([]TimelineEvent, 0, len(rows))
	for _, e := range rows {
		timelineEvents = append(timelineEvents, th.convertToTimelineEvent(e))
	}

	response := TimelineResponse{
		SessionID:   sessionID,
		TotalEvents: len(timelineEvents),
		FilteredBy:  filterDesc,
		GeneratedAt: time.Now().Format(time.RFC3339),
		Events:      timelineEvents,
	}

	th.logger.Event("TIMELINE_QUERY", r.RemoteAddr, "Session:"+sessionID+" Events:"+strconv.Itoa(len(timelineEvents)))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// HandleEventDetail returns details of a specific event.
// GET /api/timeline/event?id=XXX
func (th *TimelineHandler) HandleEventDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		th.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	eventID := r.URL.Query().Get("id")
	if eventID == "" {
		th.jsonError(w, "Missing id", http.StatusBadRequest)
		return
	}

	event, err := th.eventRepo.GetByID(r.Context(), eventID)
	if err != nil {
		th.jsonError(w, "Failed to load event", http.StatusInternalServerError)
		return
	}
	if event == nil {
		th.jsonError(w, "Event not found", http.StatusNotFound)
		return
	}

	detail := th.convertToTimelineEvent(*event)
	detail.Details = event.Payload

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(detail)
}

// HandleStats returns aggregate statistics for a session.
// GET /api/timeline/stats?session=XXX
func (th *TimelineHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		th.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		th.jsonError(w, "Missing session", http.StatusBadRequest)
		return
	}

	counts, err := th.eventRepo.CountByType(r.Context(), sessionID)
	if err != nil {
		th.jsonError(w, "Failed to load stats", http.StatusInternalServerError)
		return
	}

	recap, err := th.replayer.Recap(r.Context(), sessionID)
	if err != nil {
		th.jsonError(w, "Failed to build recap", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"generated_at":  time.Now().Format(time.RFC3339),
		"session_id":    sessionID,
		"counts":        counts,
		"state_visits":  recap.Visits,
		"input_changes": recap.InputChanges,
		"script_errors": recap.ScriptErrors,
		"last_tick":     recap.LastTick,
	})
}

// RegisterRoutes sets up the timeline API routes.
func (th *TimelineHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/timeline", th.HandleTimeline)
	mux.HandleFunc("/api/timeline/event", th.HandleEventDetail)
	mux.HandleFunc("/api/timeline/stats", th.HandleStats)
}

// convertToTimelineEvent transforms a stored event to public format.
func (th *TimelineHandler) convertToTimelineEvent(e storage.SessionEvent) TimelineEvent {
	return TimelineEvent{
		ID:        e.ID,
		Timestamp: e.Timestamp.Format("15:04:05"),
		Tick:      e.Tick,
		Type:      e.EventType,
		Source:    e.Source,
		Summary:   th.summarizeEvent(e),
		Impact:    th.determineImpact(e),
	}
}

// summarizeEvent creates a human-readable summary.
func (th *TimelineHandler) summarizeEvent(e storage.SessionEvent) string {
	switch e.EventType {
	case string(events.EventSessionStart):
		return "A recording session began."
	case string(events.EventSessionEnd):
		return "The recording session ended."
	case string(events.EventStateEntered):
		return fmt.Sprintf("The engine entered state %v.", e.Payload["state"])
	case string(events.EventStateExited):
		return fmt.Sprintf("The engine left state %v.", e.Payload["state"])
	case string(events.EventInputFrame):
		return "The pad bitmask changed."
	case string(events.EventScriptError):
		return "A script callback failed."
	case string(events.EventPadClaimed):
		return "A client claimed the pad."
	case string(events.EventPadReleased):
		return "The pad was released."
	case string(events.EventEnginePaused):
		return "The tick loop was paused."
	case string(events.EventEngineResume):
		return "The tick loop resumed."
	default:
		return "Something happened."
	}
}

// determineImpact classifies the event impact.
func (th *TimelineHandler) determineImpact(e storage.SessionEvent) string {
	switch e.EventType {
	case string(events.EventScriptError):
		return "NEGATIVE"
	case string(events.EventSessionStart), string(events.EventStateEntered), string(events.EventPadClaimed):
		return "POSITIVE"
	default:
		return "NEUTRAL"
	}
}

// jsonError sends an error response.
func (th *TimelineHandler) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
