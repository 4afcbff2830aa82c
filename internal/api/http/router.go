// Package http provides the HTTP transport over the discovery engine:
// a read surface for accounts and the opportunity queue, status
// transitions, manual triggers, and scheduler introspection.
package http

import (
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/replyscout/replyscout/internal/api/recovery"
)

// NewRouter builds the API router with all handlers registered.
func NewRouter(log zerolog.Logger, accounts *AccountHandler, opps *OpportunityHandler, disc *DiscoveryHandler, health *HealthHandler) *mux.Router {
	r := mux.NewRouter()
	r.Use(recovery.Middleware(log))

	r.HandleFunc("/api/accounts", accounts.ListAccounts).Methods("GET")
	r.HandleFunc("/api/accounts/{accountId}", accounts.GetAccount).Methods("GET")
	r.HandleFunc("/api/accounts/{accountId}/opportunities", opps.ListQueue).Methods("GET")
	r.HandleFunc("/api/accounts/{accountId}/opportunities/{opportunityId}", opps.UpdateStatus).Methods("PATCH")
	r.HandleFunc("/api/accounts/{accountId}/discovery/{discoveryType}/trigger", disc.Trigger).Methods("POST")
	r.HandleFunc("/api/scheduler/jobs", disc.ListJobs).Methods("GET")
	r.HandleFunc("/api/scheduler/reload", disc.ReloadJobs).Methods("POST")
	r.HandleFunc("/api/health", health.Health).Methods("GET")

	return r
}
