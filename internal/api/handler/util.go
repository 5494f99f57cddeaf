package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/olumide-dev/bankledger/internal/api/middleware"
	"github.com/olumide-dev/bankledger/internal/api/problem"
	"github.com/olumide-dev/bankledger/internal/models"
	"github.com/olumide-dev/bankledger/internal/service"
)

var validate = validator.New()

// RespondJSON writes a JSON response.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// RespondError writes an error response.
func RespondError(w http.ResponseWriter, r *http.Request, status int, problemType, message string) {
	if problemType != "" && problemType != "about:blank" && !strings.HasPrefix(problemType, "http") {
		problemType = problem.Type(problemType)
	}
	problem.Write(w, r, status, problemType, http.StatusText(status), message)
}

// decodeAndValidate parses the JSON body into dst and runs struct validation.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/validation-failed", err.Error())
		return false
	}
	return true
}

func requestActor(r *http.Request) (uuid.UUID, bool, error) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		return uuid.Nil, false, errors.New("missing user in auth context")
	}

	actorID, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil, false, errors.New("invalid user_id in auth context")
	}

	return actorID, middleware.UserRoleFromContext(r.Context()) == "admin", nil
}

// respondServiceError maps the well-known service errors onto problem
// responses; anything else becomes the supplied fallback.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error, fallbackType, fallbackMessage string) {
	switch {
	case errors.Is(err, models.ErrInvalidAmount):
		RespondError(w, r, http.StatusBadRequest, "request/invalid-amount", err.Error())
	case errors.Is(err, models.ErrInsufficientFunds):
		RespondError(w, r, http.StatusBadRequest, "ledger/insufficient-funds", "insufficient funds")
	case errors.Is(err, models.ErrRecipientNotFound):
		RespondError(w, r, http.StatusNotFound, "transfer/recipient-not-found", "recipient account not found")
	case errors.Is(err, models.ErrAlreadyProcessed):
		RespondError(w, r, http.StatusConflict, "request/already-processed", "already processed")
	case errors.Is(err, models.ErrRejectionNoteRequired):
		RespondError(w, r, http.StatusBadRequest, "request/rejection-note-required", "a note is required when rejecting")
	case errors.Is(err, models.ErrNotFound):
		RespondError(w, r, http.StatusNotFound, "resource/not-found", "not found")
	case errors.Is(err, service.ErrForbidden):
		RespondError(w, r, http.StatusForbidden, "auth/insufficient-permissions", "insufficient permissions")
	default:
		if status, pType, msg, ok := mapDBError(err); ok {
			RespondError(w, r, status, pType, msg)
			return
		}
		RespondError(w, r, http.StatusInternalServerError, fallbackType, fallbackMessage)
	}
}

// pagination reads limit/offset query parameters with defaults.
func pagination(r *http.Request) (int32, int32, error) {
	limit := int32(50)
	offset := int32(0)
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			return 0, 0, errors.New("limit must be a positive integer")
		}
		limit = int32(parsed)
	}
	if v := strings.TrimSpace(r.URL.Query().Get("offset")); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			return 0, 0, errors.New("offset must be a non-negative integer")
		}
		offset = int32(parsed)
	}
	return limit, offset, nil
}

func mapDBError(err error) (status int, problemType, message string, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return 0, "", "", false
	}

	switch pgErr.Code {
	case "23505": // unique_violation
		return http.StatusConflict, "db/unique-violation", "resource already exists", true
	case "23503": // foreign_key_violation
		return http.StatusBadRequest, "db/foreign-key-violation", "invalid reference", true
	case "23514": // check_violation
		return http.StatusBadRequest, "db/check-violation", "request violates data constraints", true
	case "23502": // not_null_violation
		return http.StatusBadRequest, "db/not-null-violation", "missing required field", true
	default:
		return 0, "", "", false
	}
}
