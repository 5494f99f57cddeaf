package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/olumide-dev/bankledger/internal/service"
)

type TransferHandler struct {
	ledger   *service.LedgerService
	accounts *service.AccountService
}

func NewTransferHandler(ledger *service.LedgerService, accounts *service.AccountService) *TransferHandler {
	return &TransferHandler{ledger: ledger, accounts: accounts}
}

type submitTransferRequest struct {
	RecipientNumber string `json:"recipient_number" validate:"required,len=10,numeric"`
	Amount          int64  `json:"amount" validate:"required,gt=0"`
	Description     string `json:"description,omitempty" validate:"max=256"`
}

// Submit handles POST /v1/transfers. The sender is debited immediately and
// the transfer waits for an admin decision.
func (h *TransferHandler) Submit(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}
	var req submitTransferRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	account, err := h.accounts.GetByUser(r.Context(), actorID)
	if err != nil {
		respondServiceError(w, r, err, "account/read-failed", "Failed to load account")
		return
	}

	tx, err := h.ledger.SubmitTransfer(r.Context(), account.ID, req.RecipientNumber, req.Amount, req.Description)
	if err != nil {
		zap.L().Warn("transfer submission failed", zap.Error(err), zap.String("account_id", account.ID.String()))
		respondServiceError(w, r, err, "transfer/submit-failed", "Failed to submit transfer")
		return
	}
	RespondJSON(w, http.StatusAccepted, tx)
}

// Get handles GET /v1/transfers/{id}.
func (h *TransferHandler) Get(w http.ResponseWriter, r *http.Request) {
	actorID, isAdmin, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}
	transferID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-transfer-id", "Invalid transfer ID")
		return
	}

	tx, err := h.ledger.GetTransaction(r.Context(), transferID)
	if err != nil {
		respondServiceError(w, r, err, "transfer/read-failed", "Failed to load transfer")
		return
	}
	if !isAdmin {
		account, accErr := h.accounts.GetByUser(r.Context(), actorID)
		if accErr != nil {
			respondServiceError(w, r, accErr, "account/read-failed", "Failed to verify ownership")
			return
		}
		involved := tx.AccountID == account.ID ||
			(tx.FromAccountID != nil && *tx.FromAccountID == account.ID) ||
			(tx.ToAccountID != nil && *tx.ToAccountID == account.ID)
		if !involved {
			RespondError(w, r, http.StatusForbidden, "auth/insufficient-permissions", "insufficient permissions")
			return
		}
	}
	RespondJSON(w, http.StatusOK, tx)
}

// ListPending handles GET /v1/admin/transfers/pending (admin only).
func (h *TransferHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pagination(r)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-pagination", err.Error())
		return
	}

	transfers, err := h.ledger.ListPendingTransfers(r.Context(), limit, offset)
	if err != nil {
		zap.L().Error("list pending transfers failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "transfer/list-failed", "Failed to list pending transfers")
		return
	}
	RespondJSON(w, http.StatusOK, map[string]any{
		"items":  transfers,
		"limit":  limit,
		"offset": offset,
		"count":  len(transfers),
	})
}

// Approve handles POST /v1/admin/transfers/{id}/approve (admin only).
func (h *TransferHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, true)
}

// Reject handles POST /v1/admin/transfers/{id}/reject (admin only).
func (h *TransferHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, false)
}

func (h *TransferHandler) resolve(w http.ResponseWriter, r *http.Request, approve bool) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}
	transferID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-transfer-id", "Invalid transfer ID")
		return
	}

	var tx interface{}
	if approve {
		tx, err = h.ledger.ApproveTransfer(r.Context(), transferID, actorID)
	} else {
		tx, err = h.ledger.RejectTransfer(r.Context(), transferID, actorID)
	}
	if err != nil {
		zap.L().Warn("transfer resolution failed", zap.Error(err),
			zap.String("transfer_id", transferID.String()),
			zap.Bool("approve", approve))
		respondServiceError(w, r, err, "transfer/resolve-failed", "Failed to resolve transfer")
		return
	}
	RespondJSON(w, http.StatusOK, tx)
}
