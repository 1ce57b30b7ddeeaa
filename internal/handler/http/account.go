package http

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/ShopyKart/internal/service"
	"github.com/utafrali/ShopyKart/pkg/httputil"
	"github.com/utafrali/ShopyKart/pkg/pagination"
)

// AccountHandler serves the admin account listing.
type AccountHandler struct {
	accounts *service.AccountService
	logger   *slog.Logger
}

// NewAccountHandler creates an account handler.
func NewAccountHandler(accounts *service.AccountService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{accounts: accounts, logger: logger}
}

// ListAccounts handles GET /api/v1/accounts.
func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	page := pagination.FromRequest(r)

	accounts, total, err := h.accounts.ListAccounts(r.Context(), page)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(accounts, total, page))
}
