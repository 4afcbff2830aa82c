package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/replyscout/replyscout/internal/api/respond"
	"github.com/replyscout/replyscout/internal/model"
	"github.com/replyscout/replyscout/internal/store"
)

// OpportunityHandler serves the opportunity queue and status transitions.
type OpportunityHandler struct {
	opps store.Opportunities
}

func NewOpportunityHandler(opps store.Opportunities) *OpportunityHandler {
	return &OpportunityHandler{opps: opps}
}

// ListQueue GET /api/accounts/{accountId}/opportunities?status=&limit=
func (h *OpportunityHandler) ListQueue(w http.ResponseWriter, r *http.Request) {
	accountID := mux.Vars(r)["accountId"]

	req := model.ListQueueRequest{
		AccountID: accountID,
		Now:       time.Now().UTC(),
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := model.OpportunityStatus(raw)
		if !status.Valid() {
			respond.WriteBadRequest(w, "unknown status: "+raw)
			return
		}
		req.Status = &status
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			respond.WriteBadRequest(w, "invalid limit")
			return
		}
		req.Limit = limit
	}

	opps, err := h.opps.ListQueue(r.Context(), req)
	if err != nil {
		respond.WriteInternalError(w, err.Error())
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"opportunities": opps, "count": len(opps)})
}

// UpdateStatus PATCH /api/accounts/{accountId}/opportunities/{opportunityId}
//
// Clients may mark an opportunity responded or dismissed. Expiry is
// engine-internal and not reachable through the API.
func (h *OpportunityHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	accountID := vars["accountId"]
	opportunityID := vars["opportunityId"]

	var req struct {
		Status model.OpportunityStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if req.Status != model.OpportunityResponded && req.Status != model.OpportunityDismissed {
		respond.WriteBadRequest(w, "status must be responded or dismissed")
		return
	}

	opp, err := h.opps.UpdateStatus(r.Context(), accountID, opportunityID, req.Status)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			respond.WriteNotFound(w, "opportunity not found")
			return
		}
		if errors.Is(err, model.ErrConflict) {
			respond.WriteConflict(w, err.Error())
			return
		}
		respond.WriteInternalError(w, err.Error())
		return
	}
	respond.WriteJSON(w, http.StatusOK, opp)
}
