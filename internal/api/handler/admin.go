package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/olumide-dev/bankledger/internal/service"
)

// AdminHandler exposes manual corrections only administrators may perform.
type AdminHandler struct {
	ledger *service.LedgerService
}

func NewAdminHandler(ledger *service.LedgerService) *AdminHandler {
	return &AdminHandler{ledger: ledger}
}

type adjustBalanceRequest struct {
	Action string `json:"action" validate:"required,oneof=add deduct"`
	Amount int64  `json:"amount" validate:"required,gt=0"`
	Reason string `json:"reason" validate:"required,min=3,max=256"`
}

// AdjustBalance handles POST /v1/admin/accounts/{id}/adjust (admin only).
func (h *AdminHandler) AdjustBalance(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}
	accountID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-account-id", "Invalid account ID")
		return
	}

	var req adjustBalanceRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	tx, err := h.ledger.AdjustBalance(r.Context(), actorID, accountID, req.Action, req.Amount, req.Reason)
	if err != nil {
		zap.L().Warn("balance adjustment failed", zap.Error(err),
			zap.String("account_id", accountID.String()),
			zap.String("action", req.Action))
		respondServiceError(w, r, err, "admin/adjust-failed", "Failed to adjust balance")
		return
	}
	RespondJSON(w, http.StatusCreated, tx)
}
