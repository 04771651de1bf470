package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ignite/hcp-engage/internal/domain"
	"github.com/ignite/hcp-engage/internal/service/constraints"
	"github.com/ignite/hcp-engage/internal/service/health"
	"github.com/ignite/hcp-engage/internal/service/monitor"
	"github.com/ignite/hcp-engage/internal/service/nba"
	"github.com/ignite/hcp-engage/internal/service/planner"
	"github.com/ignite/hcp-engage/internal/service/saturation"
)

// ComplianceWindowWriter persists new blackout windows.
type ComplianceWindowWriter interface {
	Create(ctx context.Context, w *domain.ComplianceWindow) error
}

// Handlers contains all HTTP handlers
type Handlers struct {
	profiles   nba.ProfileRepository
	nba        *nba.Service
	gate       *constraints.Manager
	planner    *planner.Service
	monitor    *monitor.Service
	saturation *saturation.Provider
	windows    ComplianceWindowWriter
	thresholds health.Thresholds
}

// SetComplianceWriter enables the blackout-window admin endpoint
func (h *Handlers) SetComplianceWriter(w ComplianceWindowWriter) {
	h.windows = w
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	profiles nba.ProfileRepository,
	nbaSvc *nba.Service,
	gate *constraints.Manager,
	plannerSvc *planner.Service,
	monitorSvc *monitor.Service,
	satProvider *saturation.Provider,
	thresholds health.Thresholds,
) *Handlers {
	return &Handlers{
		profiles:   profiles,
		nba:        nbaSvc,
		gate:       gate,
		planner:    plannerSvc,
		monitor:    monitorSvc,
		saturation: satProvider,
		thresholds: thresholds,
	}
}

// HealthCheck reports server liveness
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetChannelHealth classifies every engagement channel for one HCP
func (h *Handlers) GetChannelHealth(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := h.profiles.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, nba.ErrNotFound) {
			respondError(w, http.StatusNotFound, "hcp not found")
			return
		}
		respondSafeError(w, http.StatusInternalServerError, err, "failed to load profile")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"hcp_id":   p.ID,
		"channels": health.ClassifyProfile(p, h.thresholds),
	})
}

// GetNBA returns the next best action for one HCP
func (h *Handlers) GetNBA(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := h.nba.Generate(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, nba.ErrNotFound):
			respondError(w, http.StatusNotFound, "hcp not found")
		case errors.Is(err, nba.ErrNoChannels):
			respondError(w, http.StatusUnprocessableEntity, "profile has no engagement data")
		default:
			respondSafeError(w, http.StatusInternalServerError, err, "failed to generate recommendation")
		}
		return
	}

	respondJSON(w, http.StatusOK, rec)
}

type batchNBARequest struct {
	HCPIDs []string `json:"hcp_ids"`
}

type batchNBAResponse struct {
	Recommendations []domain.NextBestAction `json:"recommendations"`
	Errors          []nba.BatchError        `json:"errors,omitempty"`
	Summary         domain.NBASummary       `json:"summary"`
}

// BatchNBA generates recommendations for a list of HCPs
func (h *Handlers) BatchNBA(w http.ResponseWriter, r *http.Request) {
	var req batchNBARequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.HCPIDs) == 0 {
		respondError(w, http.StatusBadRequest, "hcp_ids is required")
		return
	}

	recs, batchErrs := h.nba.GenerateBatch(r.Context(), req.HCPIDs)
	respondJSON(w, http.StatusOK, batchNBAResponse{
		Recommendations: recs,
		Errors:          batchErrs,
		Summary:         nba.Summarize(recs),
	})
}

type prioritizeRequest struct {
	Recommendations []domain.NextBestAction `json:"recommendations"`
	Limit           int                     `json:"limit"`
}

// PrioritizeNBA orders recommendations by priority score and trims to limit
func (h *Handlers) PrioritizeNBA(w http.ResponseWriter, r *http.Request) {
	var req prioritizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"recommendations": nba.Prioritize(req.Recommendations, req.Limit),
	})
}

// CreateComplianceWindow registers a new blackout window
func (h *Handlers) CreateComplianceWindow(w http.ResponseWriter, r *http.Request) {
	if h.windows == nil {
		respondError(w, http.StatusNotImplemented, "compliance admin is not configured")
		return
	}

	var window domain.ComplianceWindow
	if err := json.NewDecoder(r.Body).Decode(&window); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if window.WindowType == "" || window.StartDate.IsZero() || window.EndDate.IsZero() {
		respondError(w, http.StatusBadRequest, "window_type, start_date and end_date are required")
		return
	}
	if window.ID == "" {
		window.ID = uuid.New().String()
	}

	if err := h.windows.Create(r.Context(), &window); err != nil {
		respondSafeError(w, http.StatusInternalServerError, err, "failed to create compliance window")
		return
	}

	respondJSON(w, http.StatusCreated, window)
}

// CheckConstraints evaluates a proposed action against all constraint dimensions
func (h *Handlers) CheckConstraints(w http.ResponseWriter, r *http.Request) {
	var action domain.ProposedAction
	if err := json.NewDecoder(r.Body).Decode(&action); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.gate.Check(r.Context(), action)
	if err != nil {
		if errors.Is(err, constraints.ErrInvalidChannel) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondSafeError(w, http.StatusInternalServerError, err, "constraint check failed")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Response helpers

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
