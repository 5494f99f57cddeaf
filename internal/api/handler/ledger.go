package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/olumide-dev/bankledger/internal/service"
)

// LedgerHandler exposes the balance-changing operations on the caller's own
// account.
type LedgerHandler struct {
	ledger   *service.LedgerService
	accounts *service.AccountService
}

func NewLedgerHandler(ledger *service.LedgerService, accounts *service.AccountService) *LedgerHandler {
	return &LedgerHandler{ledger: ledger, accounts: accounts}
}

type amountRequest struct {
	Amount      int64  `json:"amount" validate:"required,gt=0"`
	Description string `json:"description,omitempty" validate:"max=256"`
}

// Deposit handles POST /v1/ledger/deposit.
func (h *LedgerHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}
	var req amountRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	account, err := h.accounts.GetByUser(r.Context(), actorID)
	if err != nil {
		respondServiceError(w, r, err, "account/read-failed", "Failed to load account")
		return
	}

	tx, err := h.ledger.Deposit(r.Context(), account.ID, req.Amount, req.Description)
	if err != nil {
		zap.L().Warn("deposit failed", zap.Error(err), zap.String("account_id", account.ID.String()))
		respondServiceError(w, r, err, "ledger/deposit-failed", "Failed to deposit")
		return
	}
	RespondJSON(w, http.StatusCreated, tx)
}

// Withdraw handles POST /v1/ledger/withdraw.
func (h *LedgerHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}
	var req amountRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	account, err := h.accounts.GetByUser(r.Context(), actorID)
	if err != nil {
		respondServiceError(w, r, err, "account/read-failed", "Failed to load account")
		return
	}

	tx, err := h.ledger.Withdraw(r.Context(), account.ID, req.Amount, req.Description)
	if err != nil {
		zap.L().Warn("withdrawal failed", zap.Error(err), zap.String("account_id", account.ID.String()))
		respondServiceError(w, r, err, "ledger/withdraw-failed", "Failed to withdraw")
		return
	}
	RespondJSON(w, http.StatusCreated, tx)
}

type payBillRequest struct {
	Biller string `json:"biller" validate:"required,min=2,max=64"`
	Amount int64  `json:"amount" validate:"required,gt=0"`
}

// PayBill handles POST /v1/ledger/bill-payments.
func (h *LedgerHandler) PayBill(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}
	var req payBillRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	account, err := h.accounts.GetByUser(r.Context(), actorID)
	if err != nil {
		respondServiceError(w, r, err, "account/read-failed", "Failed to load account")
		return
	}

	payment, err := h.ledger.PayBill(r.Context(), account.ID, req.Biller, req.Amount)
	if err != nil {
		zap.L().Warn("bill payment failed", zap.Error(err),
			zap.String("account_id", account.ID.String()),
			zap.String("biller", req.Biller))
		respondServiceError(w, r, err, "ledger/bill-payment-failed", "Failed to pay bill")
		return
	}
	RespondJSON(w, http.StatusCreated, payment)
}
