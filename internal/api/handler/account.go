package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/olumide-dev/bankledger/internal/models"
	"github.com/olumide-dev/bankledger/internal/service"
)

type AccountHandler struct {
	svc *service.AccountService
}

func NewAccountHandler(svc *service.AccountService) *AccountHandler {
	return &AccountHandler{svc: svc}
}

// authorizeAccount loads the account from the URL and checks the caller owns
// it or is an admin.
func (h *AccountHandler) authorizeAccount(w http.ResponseWriter, r *http.Request) (*models.Account, bool) {
	actorID, isAdmin, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return nil, false
	}

	accountID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-account-id", "Invalid account ID")
		return nil, false
	}

	account, err := h.svc.Get(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			RespondError(w, r, http.StatusNotFound, "account/not-found", "Account not found")
			return nil, false
		}
		zap.L().Error("account lookup failed", zap.Error(err), zap.String("account_id", accountID.String()))
		RespondError(w, r, http.StatusInternalServerError, "account/read-failed", "Failed to load account")
		return nil, false
	}
	if !isAdmin && account.UserID != actorID {
		RespondError(w, r, http.StatusForbidden, "auth/insufficient-permissions", "insufficient permissions")
		return nil, false
	}
	return account, true
}

// Me handles GET /v1/accounts/me.
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	account, err := h.svc.GetByUser(r.Context(), actorID)
	if err != nil {
		respondServiceError(w, r, err, "account/read-failed", "Failed to load account")
		return
	}
	RespondJSON(w, http.StatusOK, account)
}

// GetBalance handles GET /v1/accounts/{id}/balance.
func (h *AccountHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	account, ok := h.authorizeAccount(w, r)
	if !ok {
		return
	}
	RespondJSON(w, http.StatusOK, map[string]any{
		"account_id": account.ID,
		"balance":    account.Balance,
		"currency":   account.Currency,
	})
}

// GetStatement handles GET /v1/accounts/{id}/statement.
func (h *AccountHandler) GetStatement(w http.ResponseWriter, r *http.Request) {
	account, ok := h.authorizeAccount(w, r)
	if !ok {
		return
	}
	limit, offset, err := pagination(r)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-pagination", err.Error())
		return
	}

	entries, err := h.svc.Statement(r.Context(), account.ID, limit, offset)
	if err != nil {
		zap.L().Error("get statement failed", zap.Error(err), zap.String("account_id", account.ID.String()))
		RespondError(w, r, http.StatusInternalServerError, "account/statement-read-failed", "Failed to get statement")
		return
	}
	RespondJSON(w, http.StatusOK, map[string]any{
		"items":  entries,
		"limit":  limit,
		"offset": offset,
		"count":  len(entries),
	})
}

// GetNotifications handles GET /v1/accounts/{id}/notifications.
func (h *AccountHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	account, ok := h.authorizeAccount(w, r)
	if !ok {
		return
	}
	limit, offset, err := pagination(r)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-pagination", err.Error())
		return
	}

	notifications, err := h.svc.Notifications(r.Context(), account.ID, limit, offset)
	if err != nil {
		zap.L().Error("get notifications failed", zap.Error(err), zap.String("account_id", account.ID.String()))
		RespondError(w, r, http.StatusInternalServerError, "account/notifications-read-failed", "Failed to get notifications")
		return
	}
	RespondJSON(w, http.StatusOK, map[string]any{
		"items": notifications,
		"count": len(notifications),
	})
}

// GetCard handles GET /v1/accounts/{id}/card.
func (h *AccountHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	account, ok := h.authorizeAccount(w, r)
	if !ok {
		return
	}
	card, err := h.svc.Card(r.Context(), account.ID)
	if err != nil {
		respondServiceError(w, r, err, "account/card-read-failed", "Failed to load card")
		return
	}
	RespondJSON(w, http.StatusOK, card)
}

// GetBillPayments handles GET /v1/accounts/{id}/bill-payments.
func (h *AccountHandler) GetBillPayments(w http.ResponseWriter, r *http.Request) {
	account, ok := h.authorizeAccount(w, r)
	if !ok {
		return
	}
	payments, err := h.svc.BillPayments(r.Context(), account.ID)
	if err != nil {
		zap.L().Error("get bill payments failed", zap.Error(err), zap.String("account_id", account.ID.String()))
		RespondError(w, r, http.StatusInternalServerError, "account/bill-payments-read-failed", "Failed to get bill payments")
		return
	}
	RespondJSON(w, http.StatusOK, map[string]any{
		"items": payments,
		"count": len(payments),
	})
}
