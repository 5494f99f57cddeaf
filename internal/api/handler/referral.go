package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/olumide-dev/bankledger/internal/service"
)

type ReferralHandler struct {
	referrals *service.ReferralService
	accounts  *service.AccountService
}

func NewReferralHandler(referrals *service.ReferralService, accounts *service.AccountService) *ReferralHandler {
	return &ReferralHandler{referrals: referrals, accounts: accounts}
}

// ListMine handles GET /v1/referrals.
func (h *ReferralHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}
	account, err := h.accounts.GetByUser(r.Context(), actorID)
	if err != nil {
		respondServiceError(w, r, err, "account/read-failed", "Failed to load account")
		return
	}

	referrals, err := h.referrals.ListByReferrer(r.Context(), account.ID)
	if err != nil {
		zap.L().Error("list referrals failed", zap.Error(err), zap.String("account_id", account.ID.String()))
		RespondError(w, r, http.StatusInternalServerError, "referral/list-failed", "Failed to list referrals")
		return
	}
	RespondJSON(w, http.StatusOK, map[string]any{
		"items":         referrals,
		"count":         len(referrals),
		"referral_code": account.ReferralCode,
	})
}
