package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/hcp-engage/internal/domain"
	"github.com/ignite/hcp-engage/internal/service/planner"
)

type createPlanRequest struct {
	SourceResultID string              `json:"source_result_id"`
	Allocations    []domain.Allocation `json:"allocations"`
	ScheduledStart *time.Time          `json:"scheduled_start_at,omitempty"`
}

// CreatePlan builds a draft execution plan from a batch of allocations
func (h *Handlers) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req createPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	plan, err := h.planner.CreatePlan(r.Context(), req.SourceResultID, req.Allocations, req.ScheduledStart)
	if err != nil {
		if errors.Is(err, planner.ErrNoAllocations) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondSafeError(w, http.StatusInternalServerError, err, "failed to create plan")
		return
	}

	respondJSON(w, http.StatusCreated, plan)
}

// GetPlan returns one plan with its allocations
func (h *Handlers) GetPlan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	plan, err := h.planner.GetPlan(r.Context(), id)
	if err != nil {
		respondPlanError(w, err, "failed to load plan")
		return
	}
	allocs, err := h.planner.ListAllocations(r.Context(), id)
	if err != nil {
		respondSafeError(w, http.StatusInternalServerError, err, "failed to load allocations")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"plan":        plan,
		"allocations": allocs,
	})
}

// DeletePlan removes a draft plan
func (h *Handlers) DeletePlan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.planner.Delete(r.Context(), id); err != nil {
		respondPlanError(w, err, "failed to delete plan")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// BookPlan reserves capacity and budget for every allocation that clears
// the constraint gate
func (h *Handlers) BookPlan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := h.planner.Book(r.Context(), id)
	if err != nil {
		if errors.Is(err, planner.ErrNothingBooked) {
			respondError(w, http.StatusConflict, err.Error())
			return
		}
		respondPlanError(w, err, "failed to book plan")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// ExecutePlan runs every booked allocation and returns the final report
func (h *Handlers) ExecutePlan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	report, err := h.planner.Execute(r.Context(), id)
	if err != nil {
		if errors.Is(err, planner.ErrPlanLocked) {
			respondError(w, http.StatusConflict, err.Error())
			return
		}
		respondPlanError(w, err, "failed to execute plan")
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// PausePlan suspends an executing plan
func (h *Handlers) PausePlan(w http.ResponseWriter, r *http.Request) {
	h.transitionPlan(w, r, h.planner.Pause, "paused")
}

// ResumePlan returns a paused plan to executing
func (h *Handlers) ResumePlan(w http.ResponseWriter, r *http.Request) {
	h.transitionPlan(w, r, h.planner.Resume, "executing")
}

// CancelPlan cancels a plan and releases resources held by pending actions
func (h *Handlers) CancelPlan(w http.ResponseWriter, r *http.Request) {
	h.transitionPlan(w, r, h.planner.Cancel, "cancelled")
}

// ReleasePlan reverts a booked plan to draft, returning all held resources
func (h *Handlers) ReleasePlan(w http.ResponseWriter, r *http.Request) {
	h.transitionPlan(w, r, h.planner.Release, "draft")
}

func (h *Handlers) transitionPlan(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, planID string) error, status string) {
	id := chi.URLParam(r, "id")

	if err := fn(r.Context(), id); err != nil {
		respondPlanError(w, err, "plan transition failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": status})
}

// SuggestRebalance evaluates whether the plan's observed performance
// justifies rebalancing
func (h *Handlers) SuggestRebalance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	suggestion, err := h.planner.SuggestRebalance(r.Context(), id)
	if err != nil {
		respondPlanError(w, err, "failed to evaluate plan")
		return
	}

	respondJSON(w, http.StatusOK, suggestion)
}

// RebalancePlan cancels pending allocations so they can be re-planned
func (h *Handlers) RebalancePlan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	plan, err := h.planner.PerformRebalance(r.Context(), id)
	if err != nil {
		respondPlanError(w, err, "failed to rebalance plan")
		return
	}

	respondJSON(w, http.StatusOK, plan)
}

// GetPlanReport returns the execution report for a plan
func (h *Handlers) GetPlanReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	report, err := h.planner.Report(r.Context(), id)
	if err != nil {
		respondPlanError(w, err, "failed to build report")
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// GetPlanScore returns the weighted performance score for a plan
func (h *Handlers) GetPlanScore(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	score, err := h.monitor.Score(r.Context(), id)
	if err != nil {
		respondPlanError(w, err, "failed to score plan")
		return
	}

	respondJSON(w, http.StatusOK, score)
}

// respondPlanError maps planner sentinel errors to HTTP statuses
func respondPlanError(w http.ResponseWriter, err error, publicMsg string) {
	switch {
	case errors.Is(err, planner.ErrNotFound):
		respondError(w, http.StatusNotFound, "plan not found")
	case errors.Is(err, planner.ErrInvalidTransition):
		respondError(w, http.StatusConflict, err.Error())
	default:
		respondSafeError(w, http.StatusInternalServerError, err, publicMsg)
	}
}
