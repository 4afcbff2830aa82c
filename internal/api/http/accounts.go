package http

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/replyscout/replyscout/internal/api/respond"
	"github.com/replyscout/replyscout/internal/model"
	"github.com/replyscout/replyscout/internal/store"
)

// AccountHandler exposes the read-only account view. Account lifecycle
// is owned by an external system; this API never mutates accounts.
type AccountHandler struct {
	accounts store.Accounts
}

func NewAccountHandler(accounts store.Accounts) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// ListAccounts GET /api/accounts
func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accts, err := h.accounts.ListActive(r.Context())
	if err != nil {
		respond.WriteInternalError(w, err.Error())
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"accounts": accts, "count": len(accts)})
}

// GetAccount GET /api/accounts/{accountId}
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	accountID := mux.Vars(r)["accountId"]
	acct, err := h.accounts.Get(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			respond.WriteNotFound(w, "account not found")
			return
		}
		respond.WriteInternalError(w, err.Error())
		return
	}
	respond.WriteJSON(w, http.StatusOK, acct)
}
