package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/olumide-dev/bankledger/internal/service"
)

type AuthHandler struct {
	svc *service.AuthService
}

func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type registerRequest struct {
	Username     string `json:"username" validate:"required,min=2,max=64"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=8"`
	ReferralCode string `json:"referral_code,omitempty" validate:"omitempty,len=8"`
}

// Register handles POST /v1/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, account, err := h.svc.Register(r.Context(), req.Username, req.Email, req.Password, req.ReferralCode)
	if err != nil {
		zap.L().Warn("registration failed", zap.Error(err), zap.String("email", req.Email))
		respondServiceError(w, r, err, "auth/register-failed", err.Error())
		return
	}

	RespondJSON(w, http.StatusCreated, map[string]any{
		"user":    user,
		"account": account,
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login handles POST /v1/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	token, user, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			RespondError(w, r, http.StatusUnauthorized, "auth/invalid-credentials", "invalid email or password")
			return
		}
		zap.L().Error("login failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "auth/login-failed", "Failed to log in")
		return
	}

	RespondJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  user,
	})
}
