package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/viralforge/mesh/services/data-ai/M62-creative-scoring-engine/internal/application"
	"github.com/viralforge/mesh/services/data-ai/M62-creative-scoring-engine/internal/contracts"
)

type Handler struct {
	service   *application.Service
	jwtSecret string
}

func NewHandler(service *application.Service, jwtSecret string) *Handler {
	return &Handler{service: service, jwtSecret: jwtSecret}
}

func (h *Handler) actorFromRequest(r *http.Request) application.Actor {
	actor := application.Actor{
		RequestID:      requestIDFromContext(r.Context()),
		IdempotencyKey: strings.TrimSpace(r.Header.Get("Idempotency-Key")),
	}
	if claims, ok := claimsFromContext(r.Context()); ok {
		actor.SubjectID = claims.UserID
		actor.Role = claims.Role
	}
	return actor
}

func (h *Handler) predict(w http.ResponseWriter, r *http.Request) {
	actor := h.actorFromRequest(r)
	var req contracts.PredictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error(), actor.RequestID)
		return
	}
	result, err := h.service.Predict(r.Context(), actor, chi.URLParam(r, "ad_id"), req.Traits)
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), actor.RequestID)
		return
	}
	writeSuccess(w, http.StatusOK, "", result)
}

func (h *Handler) recordOutcome(w http.ResponseWriter, r *http.Request) {
	actor := h.actorFromRequest(r)
	var req contracts.OutcomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error(), actor.RequestID)
		return
	}
	result, err := h.service.LearnFromOutcome(r.Context(), actor, chi.URLParam(r, "ad_id"), req)
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), actor.RequestID)
		return
	}
	writeSuccess(w, http.StatusOK, "", result)
}

func (h *Handler) discoverFeatures(w http.ResponseWriter, r *http.Request) {
	actor := h.actorFromRequest(r)
	discovered, err := h.service.DiscoverFeatures(r.Context(), actor, chi.URLParam(r, "ad_id"))
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), actor.RequestID)
		return
	}
	writeSuccess(w, http.StatusOK, "", discovered)
}

func (h *Handler) getDashboard(w http.ResponseWriter, r *http.Request) {
	actor := h.actorFromRequest(r)
	dashboard, err := h.service.GetDashboard(r.Context())
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), actor.RequestID)
		return
	}
	writeSuccess(w, http.StatusOK, "", dashboard)
}

func (h *Handler) undo(w http.ResponseWriter, r *http.Request) {
	actor := h.actorFromRequest(r)
	var req contracts.UndoRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", err.Error(), actor.RequestID)
			return
		}
	}
	done, err := h.service.Undo(r.Context(), actor, req.EntryID)
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), actor.RequestID)
		return
	}
	writeSuccess(w, http.StatusOK, "", map[string]bool{"undone": done})
}

func (h *Handler) redo(w http.ResponseWriter, r *http.Request) {
	actor := h.actorFromRequest(r)
	var req contracts.RedoRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", err.Error(), actor.RequestID)
			return
		}
	}
	done, err := h.service.Redo(r.Context(), actor, req.EntryID)
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), actor.RequestID)
		return
	}
	writeSuccess(w, http.StatusOK, "", map[string]bool{"redone": done})
}

func (h *Handler) listHistory(w http.ResponseWriter, r *http.Request) {
	actor := h.actorFromRequest(r)
	entries, err := h.service.ListHistory(r.Context(), queryLimit(r))
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), actor.RequestID)
		return
	}
	writeSuccess(w, http.StatusOK, "", entries)
}

func (h *Handler) createSnapshot(w http.ResponseWriter, r *http.Request) {
	actor := h.actorFromRequest(r)
	var req contracts.SnapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error(), actor.RequestID)
		return
	}
	snapshot, err := h.service.Snapshot(r.Context(), actor, strings.TrimSpace(req.Name))
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), actor.RequestID)
		return
	}
	writeSuccess(w, http.StatusCreated, "", snapshot)
}

func (h *Handler) listSnapshots(w http.ResponseWriter, r *http.Request) {
	actor := h.actorFromRequest(r)
	snapshots, err := h.service.ListSnapshots(r.Context(), queryLimit(r))
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), actor.RequestID)
		return
	}
	writeSuccess(w, http.StatusOK, "", snapshots)
}

func (h *Handler) restoreSnapshot(w http.ResponseWriter, r *http.Request) {
	actor := h.actorFromRequest(r)
	result, err := h.service.Restore(r.Context(), actor, chi.URLParam(r, "snapshot_id"))
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), actor.RequestID)
		return
	}
	writeSuccess(w, http.StatusOK, "", result)
}

func (h *Handler) setWeightMode(w http.ResponseWriter, r *http.Request) {
	actor := h.actorFromRequest(r)
	var req contracts.WeightModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error(), actor.RequestID)
		return
	}
	mode, err := h.service.SetWeightMode(r.Context(), actor, strings.TrimSpace(req.Mode))
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), actor.RequestID)
		return
	}
	writeSuccess(w, http.StatusOK, "", map[string]string{"mode": string(mode)})
}

func (h *Handler) listWeights(w http.ResponseWriter, r *http.Request) {
	actor := h.actorFromRequest(r)
	weights, err := h.service.ListWeights(r.Context(), queryLimit(r))
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), actor.RequestID)
		return
	}
	writeSuccess(w, http.StatusOK, "", weights)
}

func (h *Handler) validateFeatures(w http.ResponseWriter, r *http.Request) {
	actor := h.actorFromRequest(r)
	var req contracts.ValidateFeaturesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error(), actor.RequestID)
		return
	}
	validation, err := h.service.ValidateFeatures(r.Context(), req.Input)
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), actor.RequestID)
		return
	}
	writeSuccess(w, http.StatusOK, "", validation)
}

func (h *Handler) triggerRecalculation(w http.ResponseWriter, r *http.Request) {
	actor := h.actorFromRequest(r)
	var req contracts.RecalculateRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", err.Error(), actor.RequestID)
			return
		}
	}
	queued := h.service.TriggerRecalculation(r.Context(), actor, strings.TrimSpace(req.Trigger))
	writeSuccess(w, http.StatusAccepted, "", map[string]bool{"queued": queued})
}

func (h *Handler) listRecalculations(w http.ResponseWriter, r *http.Request) {
	actor := h.actorFromRequest(r)
	logs, err := h.service.ListRecalculations(r.Context(), queryLimit(r))
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), actor.RequestID)
		return
	}
	writeSuccess(w, http.StatusOK, "", logs)
}

func (h *Handler) upsertSegment(w http.ResponseWriter, r *http.Request) {
	actor := h.actorFromRequest(r)
	var input application.SegmentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error(), actor.RequestID)
		return
	}
	input.SegmentID = chi.URLParam(r, "segment_id")
	segment, err := h.service.UpsertSegment(r.Context(), actor, input)
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), actor.RequestID)
		return
	}
	writeSuccess(w, http.StatusOK, "", segment)
}

func queryLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}
