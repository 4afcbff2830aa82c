package http

import (
	"context"
	"errors"
	"net/http"
	"sort"

	"github.com/gorilla/mux"

	"github.com/replyscout/replyscout/internal/adapter"
	"github.com/replyscout/replyscout/internal/api/respond"
	"github.com/replyscout/replyscout/internal/model"
	"github.com/replyscout/replyscout/internal/scheduler"
)

// JobRunner is the scheduler surface the API needs. Satisfied by
// *scheduler.Scheduler.
type JobRunner interface {
	TriggerNow(ctx context.Context, accountID string, t model.DiscoveryType) ([]*model.Opportunity, error)
	Reload(ctx context.Context) error
	RegisteredJobs() map[string]scheduler.JobHandle
	IsRunning() bool
}

// DiscoveryHandler exposes manual triggers and scheduler introspection.
type DiscoveryHandler struct {
	sched JobRunner
}

func NewDiscoveryHandler(sched JobRunner) *DiscoveryHandler {
	return &DiscoveryHandler{sched: sched}
}

// Trigger POST /api/accounts/{accountId}/discovery/{discoveryType}/trigger
func (h *DiscoveryHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	accountID := vars["accountId"]
	discoveryType := model.DiscoveryType(vars["discoveryType"])

	inserted, err := h.sched.TriggerNow(r.Context(), accountID, discoveryType)
	if err != nil {
		if errors.Is(err, model.ErrValidation) {
			respond.WriteBadRequest(w, err.Error())
			return
		}
		if errors.Is(err, model.ErrNotFound) {
			respond.WriteNotFound(w, "account not found")
			return
		}
		if adapter.IsAdapterError(err) {
			respond.WriteBadGateway(w, string(adapter.Classify(err))+": "+err.Error())
			return
		}
		respond.WriteInternalError(w, err.Error())
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"inserted":      len(inserted),
		"opportunities": inserted,
	})
}

// ReloadJobs POST /api/scheduler/reload
//
// Rebuilds the job registry after account schedules changed externally.
// Individual registration failures are reported as warnings alongside
// the reloaded registry; only a total failure to load accounts is a 500.
func (h *DiscoveryHandler) ReloadJobs(w http.ResponseWriter, r *http.Request) {
	err := h.sched.Reload(r.Context())
	if err != nil && !errors.Is(err, model.ErrValidation) && !errors.Is(err, model.ErrConflict) {
		respond.WriteInternalError(w, err.Error())
		return
	}
	resp := map[string]interface{}{
		"running": h.sched.IsRunning(),
		"count":   len(h.sched.RegisteredJobs()),
	}
	if err != nil {
		resp["warnings"] = err.Error()
	}
	respond.WriteJSON(w, http.StatusOK, resp)
}

// ListJobs GET /api/scheduler/jobs
func (h *DiscoveryHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := h.sched.RegisteredJobs()
	out := make([]scheduler.JobHandle, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, j)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })

	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"running": h.sched.IsRunning(),
		"jobs":    out,
		"count":   len(out),
	})
}
