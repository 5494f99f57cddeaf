package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/olumide-dev/bankledger/internal/repository"
	"github.com/olumide-dev/bankledger/internal/service"
)

// RequestHandler covers the card, KYC, and loan approval workflow.
type RequestHandler struct {
	approvals *service.ApprovalService
	accounts  *service.AccountService
}

func NewRequestHandler(approvals *service.ApprovalService, accounts *service.AccountService) *RequestHandler {
	return &RequestHandler{approvals: approvals, accounts: accounts}
}

func (h *RequestHandler) ownAccount(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return uuid.Nil, false
	}
	account, err := h.accounts.GetByUser(r.Context(), actorID)
	if err != nil {
		respondServiceError(w, r, err, "account/read-failed", "Failed to load account")
		return uuid.Nil, false
	}
	return account.ID, true
}

// SubmitCard handles POST /v1/requests/card.
func (h *RequestHandler) SubmitCard(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.ownAccount(w, r)
	if !ok {
		return
	}
	req, err := h.approvals.SubmitCardRequest(r.Context(), accountID)
	if err != nil {
		respondServiceError(w, r, err, "request/card-submit-failed", "Failed to submit card request")
		return
	}
	RespondJSON(w, http.StatusCreated, req)
}

type submitKYCRequest struct {
	DocumentRefs []string `json:"document_refs" validate:"required,min=1,dive,required"`
}

// SubmitKYC handles POST /v1/requests/kyc.
func (h *RequestHandler) SubmitKYC(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.ownAccount(w, r)
	if !ok {
		return
	}
	var body submitKYCRequest
	if !decodeAndValidate(w, r, &body) {
		return
	}
	req, err := h.approvals.SubmitKYCRequest(r.Context(), accountID, body.DocumentRefs)
	if err != nil {
		respondServiceError(w, r, err, "request/kyc-submit-failed", "Failed to submit KYC request")
		return
	}
	RespondJSON(w, http.StatusCreated, req)
}

type submitLoanRequest struct {
	PrincipalCents int64           `json:"principal_cents" validate:"required,gt=0"`
	AnnualRate     decimal.Decimal `json:"annual_rate"`
	TermYears      int             `json:"term_years" validate:"required,gte=1,lte=30"`
	Purpose        string          `json:"purpose,omitempty" validate:"max=256"`
}

// SubmitLoan handles POST /v1/requests/loan.
func (h *RequestHandler) SubmitLoan(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.ownAccount(w, r)
	if !ok {
		return
	}
	var body submitLoanRequest
	if !decodeAndValidate(w, r, &body) {
		return
	}
	req, err := h.approvals.SubmitLoanRequest(r.Context(), accountID, body.PrincipalCents, body.AnnualRate, body.TermYears, body.Purpose)
	if err != nil {
		respondServiceError(w, r, err, "request/loan-submit-failed", "Failed to submit loan request")
		return
	}
	RespondJSON(w, http.StatusCreated, req)
}

// Get handles GET /v1/requests/{id}.
func (h *RequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	actorID, isAdmin, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}
	requestID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-request-id", "Invalid request ID")
		return
	}

	req, err := h.approvals.Get(r.Context(), requestID)
	if err != nil {
		respondServiceError(w, r, err, "request/read-failed", "Failed to load request")
		return
	}
	if !isAdmin {
		account, accErr := h.accounts.GetByUser(r.Context(), actorID)
		if accErr != nil || account.ID != req.AccountID {
			RespondError(w, r, http.StatusForbidden, "auth/insufficient-permissions", "insufficient permissions")
			return
		}
	}
	RespondJSON(w, http.StatusOK, req)
}

// ListMine handles GET /v1/requests.
func (h *RequestHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.ownAccount(w, r)
	if !ok {
		return
	}
	limit, offset, err := pagination(r)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-pagination", err.Error())
		return
	}

	requests, err := h.approvals.List(r.Context(), repository.RequestFilter{
		AccountID: &accountID,
		Kind:      strings.TrimSpace(r.URL.Query().Get("kind")),
		Status:    strings.TrimSpace(r.URL.Query().Get("status")),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		zap.L().Error("list requests failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "request/list-failed", "Failed to list requests")
		return
	}
	RespondJSON(w, http.StatusOK, map[string]any{
		"items":  requests,
		"limit":  limit,
		"offset": offset,
		"count":  len(requests),
	})
}

// ListAll handles GET /v1/admin/requests (admin only).
func (h *RequestHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pagination(r)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-pagination", err.Error())
		return
	}

	requests, err := h.approvals.List(r.Context(), repository.RequestFilter{
		Kind:   strings.TrimSpace(r.URL.Query().Get("kind")),
		Status: strings.TrimSpace(r.URL.Query().Get("status")),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		zap.L().Error("list requests failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "request/list-failed", "Failed to list requests")
		return
	}
	RespondJSON(w, http.StatusOK, map[string]any{
		"items":  requests,
		"limit":  limit,
		"offset": offset,
		"count":  len(requests),
	})
}

type resolveRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject"`
	Note     string `json:"note,omitempty" validate:"max=512"`
}

// Resolve handles POST /v1/admin/requests/{id}/resolve (admin only).
func (h *RequestHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}
	requestID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-request-id", "Invalid request ID")
		return
	}

	var body resolveRequest
	if !decodeAndValidate(w, r, &body) {
		return
	}

	resolved, err := h.approvals.Resolve(r.Context(), requestID, actorID, body.Decision == "approve", body.Note)
	if err != nil {
		zap.L().Warn("request resolution failed", zap.Error(err),
			zap.String("request_id", requestID.String()),
			zap.String("decision", body.Decision))
		respondServiceError(w, r, err, "request/resolve-failed", "Failed to resolve request")
		return
	}
	RespondJSON(w, http.StatusOK, resolved)
}
