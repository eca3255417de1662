// Package ops serves the protected tactical data endpoints. These handlers
// are plain data producers; every admission concern is handled by the guard
// pipeline before they run.
package ops

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/overwatch-ops/tacgate/internal/platform/httpx"
	"github.com/overwatch-ops/tacgate/internal/shared"
)

// Handler wires the tactical data endpoints.
type Handler struct {
	logger    *slog.Logger
	validator *validator.Validate

	mu       sync.RWMutex
	missions map[string]*Mission
	agents   map[string]*Agent
}

// NewHandler constructs a Handler seeded with the standing picture.
func NewHandler(logger *slog.Logger) *Handler {
	h := &Handler{
		logger:    logger,
		validator: validator.New(),
		missions:  make(map[string]*Mission),
		agents:    make(map[string]*Agent),
	}
	h.seed()
	return h
}

func (h *Handler) seed() {
	for _, m := range []*Mission{
		{ID: "m-001", Codename: "OVERWATCH DAWN", Objective: "Establish observation post on northern ridge", Priority: "HIGH", Status: "ACTIVE", CreatedAt: time.Date(2026, 2, 11, 6, 0, 0, 0, time.UTC)},
		{ID: "m-002", Codename: "SILENT HARBOR", Objective: "Secure dockside supply corridor", Priority: "MEDIUM", Status: "PLANNING", CreatedAt: time.Date(2026, 2, 14, 21, 30, 0, 0, time.UTC)},
	} {
		h.missions[m.ID] = m
	}
	for _, a := range []*Agent{
		{ID: "a-101", Callsign: "VIPER-1", Unit: "1st Recon", Status: "DEPLOYED", Position: Position{Lat: 40.7600, Lng: -73.9800}},
		{ID: "a-102", Callsign: "GHOST-2", Unit: "1st Recon", Status: "DEPLOYED", Position: Position{Lat: 40.7589, Lng: -73.9851}},
		{ID: "a-103", Callsign: "RAVEN-3", Unit: "Signals", Status: "STANDBY", Position: Position{Lat: 40.7505, Lng: -73.9934}},
	} {
		h.agents[a.ID] = a
	}
}

// ListMissions returns the mission board.
func (h *Handler) ListMissions(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Mission, 0, len(h.missions))
	for _, m := range h.missions {
		out = append(out, *m)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"missions": out})
}

// ListAgents returns current agent positions.
func (h *Handler) ListAgents(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Agent, 0, len(h.agents))
	for _, a := range h.agents {
		out = append(out, *a)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"agents": out})
}

// Terrain returns the tactical terrain overview.
func (h *Handler) Terrain(w http.ResponseWriter, r *http.Request) {
	sectors := []TerrainSector{
		{Sector: "NORTH-A", Terrain: "urban", ThreatLevel: "ELEVATED", Center: Position{Lat: 40.7680, Lng: -73.9819}},
		{Sector: "EAST-B", Terrain: "riverine", ThreatLevel: "LOW", Center: Position{Lat: 40.7570, Lng: -73.9690}},
		{Sector: "SOUTH-C", Terrain: "industrial", ThreatLevel: "MODERATE", Center: Position{Lat: 40.7420, Lng: -73.9900}},
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"sectors": sectors})
}

type createMissionRequest struct {
	Codename  string `json:"codename" validate:"required,min=3"`
	Objective string `json:"objective" validate:"required"`
	Priority  string `json:"priority" validate:"required,oneof=LOW MEDIUM HIGH CRITICAL"`
}

// CreateMission registers a new mission.
func (h *Handler) CreateMission(w http.ResponseWriter, r *http.Request) {
	var req createMissionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: malformed body", httpx.ErrValidation))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}

	mission := &Mission{
		ID:        uuid.NewString(),
		Codename:  req.Codename,
		Objective: req.Objective,
		Priority:  req.Priority,
		Status:    "PLANNING",
		CreatedAt: time.Now().UTC(),
	}
	h.mu.Lock()
	h.missions[mission.ID] = mission
	h.mu.Unlock()

	httpx.JSON(w, http.StatusCreated, mission)
}

type abortMissionRequest struct {
	// CommandPassword is consumed by the command authorizer upstream; it is
	// decoded here only so unknown-field handling stays lenient.
	CommandPassword string `json:"commandPassword"`
	Reason          string `json:"reason"`
}

// AbortMission terminates an active mission. Command-critical: the guard
// pipeline has already verified the elevated credential by the time this
// runs.
func (h *Handler) AbortMission(w http.ResponseWriter, r *http.Request) {
	missionID := chi.URLParam(r, "missionID")

	var req abortMissionRequest
	_ = httpx.DecodeJSON(r, &req)

	h.mu.Lock()
	defer h.mu.Unlock()
	mission, ok := h.missions[missionID]
	if !ok {
		httpx.RespondError(w, fmt.Errorf("%w: mission %s", httpx.ErrNotFound, missionID))
		return
	}
	mission.Status = "ABORTED"

	if p := shared.PrincipalFromContext(r.Context()); p != nil && h.logger != nil {
		h.logger.Info("mission aborted",
			slog.String("mission", missionID),
			slog.String("by", p.ID),
			slog.String("reason", req.Reason))
	}
	httpx.JSON(w, http.StatusOK, mission)
}

// DeprovisionAgent removes an agent from the field roster. Command-critical.
func (h *Handler) DeprovisionAgent(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentID")

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.agents[agentID]; !ok {
		httpx.RespondError(w, fmt.Errorf("%w: agent %s", httpx.ErrNotFound, agentID))
		return
	}
	delete(h.agents, agentID)

	if p := shared.PrincipalFromContext(r.Context()); p != nil && h.logger != nil {
		h.logger.Info("agent deprovisioned", slog.String("agent", agentID), slog.String("by", p.ID))
	}
	w.WriteHeader(http.StatusNoContent)
}
