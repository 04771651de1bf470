package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/hcp-engage/internal/domain"
)

// GetSaturation returns the theme saturation summary for one HCP
func (h *Handlers) GetSaturation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	summary, err := h.saturation.Summary(r.Context(), id)
	if err != nil {
		respondSafeError(w, http.StatusInternalServerError, err, "failed to compute saturation")
		return
	}
	if summary == nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"hcp_id": id,
			"themes": []interface{}{},
		})
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

type recordExposureRequest struct {
	Theme   string         `json:"theme"`
	Channel domain.Channel `json:"channel"`
}

// RecordExposure stores one delivered touch against a message theme
func (h *Handlers) RecordExposure(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req recordExposureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Theme == "" || req.Channel == "" {
		respondError(w, http.StatusBadRequest, "theme and channel are required")
		return
	}

	if err := h.saturation.Record(r.Context(), id, req.Theme, req.Channel); err != nil {
		respondSafeError(w, http.StatusInternalServerError, err, "failed to record exposure")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"status": "recorded"})
}

// ProjectPause simulates pausing one theme for a number of days
func (h *Handlers) ProjectPause(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	theme := r.URL.Query().Get("theme")
	if theme == "" {
		respondError(w, http.StatusBadRequest, "theme is required")
		return
	}
	days, err := strconv.Atoi(r.URL.Query().Get("days"))
	if err != nil || days <= 0 {
		respondError(w, http.StatusBadRequest, "days must be a positive integer")
		return
	}

	proj, err := h.saturation.ProjectPause(r.Context(), id, theme, days)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, proj)
}
