package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/olumide-dev/bankledger/internal/api"
	"github.com/olumide-dev/bankledger/internal/api/middleware"
	"github.com/olumide-dev/bankledger/internal/config"
	"github.com/olumide-dev/bankledger/internal/domain"
	"github.com/olumide-dev/bankledger/internal/gateway"
	"github.com/olumide-dev/bankledger/internal/models"
	"github.com/olumide-dev/bankledger/internal/repository"
	"github.com/olumide-dev/bankledger/internal/repository/memory"
	"github.com/olumide-dev/bankledger/internal/service"
)

const (
	testJWTSecret   = "0123456789abcdef0123456789abcdef"
	testJWTIssuer   = "bankledger-test"
	testJWTAudience = "bankledger-api-test"
)

func TestMain(m *testing.M) {
	middleware.SetJWTSecret(testJWTSecret)
	middleware.SetJWTValidation(testJWTIssuer, testJWTAudience)
	os.Exit(m.Run())
}

type testEnv struct {
	t      *testing.T
	store  *memory.Store
	server *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.NewStore()
	notifier := service.NopNotifier{}
	referrals := service.NewReferralService(store, notifier, domain.DefaultReferralReward)
	auth := service.NewAuthService(store, referrals, service.TokenConfig{
		Secret:   testJWTSecret,
		Issuer:   testJWTIssuer,
		Audience: testJWTAudience,
		TTL:      time.Hour,
	}, "USD")
	ledger := service.NewLedgerService(store, notifier, gateway.NewMockBillerGateway())
	ledger.SetCompletionHook(referrals.RewardOnCompletion)
	approvals := service.NewApprovalService(store, notifier)
	accounts := service.NewAccountService(store)

	cfg := &config.Config{
		PublicRateLimitRPS: 1000,
		AuthRateLimitRPS:   1000,
	}
	router := api.NewRouter(cfg, zap.NewNop(), api.Services{
		Auth:      auth,
		Accounts:  accounts,
		Ledger:    ledger,
		Approvals: approvals,
		Referrals: referrals,
	}, nil, nil, nil)

	server := httptest.NewServer(router.Routes())
	t.Cleanup(server.Close)

	return &testEnv{t: t, store: store, server: server}
}

func (e *testEnv) do(method, path, token string, body any) (int, []byte) {
	e.t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(e.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.server.Client().Do(req)
	require.NoError(e.t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)
	return resp.StatusCode, data
}

type testUser struct {
	Token        string
	UserID       uuid.UUID
	AccountID    uuid.UUID
	Number       string
	ReferralCode string
}

func (e *testEnv) register(name, referralCode string) testUser {
	e.t.Helper()

	email := name + "@example.com"
	payload := map[string]any{
		"username": name,
		"email":    email,
		"password": "s3cretpass",
	}
	if referralCode != "" {
		payload["referral_code"] = referralCode
	}
	status, body := e.do(http.MethodPost, "/v1/auth/register", "", payload)
	require.Equal(e.t, http.StatusCreated, status, string(body))

	var created struct {
		User    models.User    `json:"user"`
		Account models.Account `json:"account"`
	}
	require.NoError(e.t, json.Unmarshal(body, &created))

	status, body = e.do(http.MethodPost, "/v1/auth/login", "", map[string]any{
		"email":    email,
		"password": "s3cretpass",
	})
	require.Equal(e.t, http.StatusOK, status, string(body))

	var login struct {
		Token string `json:"token"`
	}
	require.NoError(e.t, json.Unmarshal(body, &login))
	require.NotEmpty(e.t, login.Token)

	return testUser{
		Token:        login.Token,
		UserID:       created.User.ID,
		AccountID:    created.Account.ID,
		Number:       created.Account.Number,
		ReferralCode: created.Account.ReferralCode,
	}
}

// registerAdmin seeds an admin directly in the store. Registration over the
// API always produces regular users.
func (e *testEnv) registerAdmin(name string) testUser {
	e.t.Helper()

	userID := uuid.New()
	accountID := uuid.New()
	err := e.store.RunInTx(context.Background(), func(q repository.Querier) error {
		ctx := context.Background()
		if err := q.CreateUser(ctx, &models.User{
			ID:        userID,
			Username:  name,
			Email:     name + "@example.com",
			Role:      domain.RoleAdmin,
			CreatedAt: time.Now().UTC(),
		}); err != nil {
			return err
		}
		number, err := domain.NewAccountNumber()
		if err != nil {
			return err
		}
		code, err := domain.NewReferralCode()
		if err != nil {
			return err
		}
		return q.CreateAccount(ctx, &models.Account{
			ID:           accountID,
			UserID:       userID,
			Number:       number,
			Currency:     "USD",
			KYCStatus:    domain.KYCStatusPending,
			ReferralCode: code,
			CreatedAt:    time.Now().UTC(),
		})
	})
	require.NoError(e.t, err)

	return testUser{
		Token:     e.mintToken(userID, domain.RoleAdmin),
		UserID:    userID,
		AccountID: accountID,
	}
}

func (e *testEnv) mintToken(userID uuid.UUID, role string) string {
	e.t.Helper()

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID.String(),
		"role":    role,
		"sub":     userID.String(),
		"iss":     testJWTIssuer,
		"aud":     testJWTAudience,
		"iat":     now.Unix(),
		"exp":     now.Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(e.t, err)
	return signed
}

func (e *testEnv) balance(u testUser) int64 {
	e.t.Helper()

	status, body := e.do(http.MethodGet, "/v1/accounts/"+u.AccountID.String()+"/balance", u.Token, nil)
	require.Equal(e.t, http.StatusOK, status, string(body))
	var out struct {
		Balance int64 `json:"balance"`
	}
	require.NoError(e.t, json.Unmarshal(body, &out))
	return out.Balance
}

func TestRegisterLoginAndMe(t *testing.T) {
	env := newTestEnv(t)
	user := env.register("alice", "")

	assert.Len(t, user.Number, 10)
	assert.Len(t, user.ReferralCode, 8)

	status, body := env.do(http.MethodGet, "/v1/accounts/me", user.Token, nil)
	require.Equal(t, http.StatusOK, status, string(body))

	var account models.Account
	require.NoError(t, json.Unmarshal(body, &account))
	assert.Equal(t, user.AccountID, account.ID)
	assert.Equal(t, int64(0), account.Balance)
	assert.Equal(t, "USD", account.Currency)
	assert.Equal(t, domain.KYCStatusPending, account.KYCStatus)
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.do(http.MethodPost, "/v1/auth/register", "", map[string]any{
		"username": "bob",
		"email":    "not-an-email",
		"password": "s3cretpass",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = env.do(http.MethodPost, "/v1/auth/register", "", map[string]any{
		"username": "bob",
		"email":    "bob@example.com",
		"password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.register("carol", "")

	status, _ := env.do(http.MethodPost, "/v1/auth/login", "", map[string]any{
		"email":    "carol@example.com",
		"password": "wrongpassword",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.do(http.MethodGet, "/v1/accounts/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = env.do(http.MethodPost, "/v1/ledger/deposit", "", map[string]any{"amount": 100})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestDepositWithdrawAndStatement(t *testing.T) {
	env := newTestEnv(t)
	user := env.register("dave", "")

	status, body := env.do(http.MethodPost, "/v1/ledger/deposit", user.Token, map[string]any{
		"amount":      10000,
		"description": "payday",
	})
	require.Equal(t, http.StatusCreated, status, string(body))

	var tx models.Transaction
	require.NoError(t, json.Unmarshal(body, &tx))
	assert.Equal(t, domain.TxTypeDeposit, tx.Type)
	assert.Equal(t, domain.TxStatusCompleted, tx.Status)

	status, body = env.do(http.MethodPost, "/v1/ledger/withdraw", user.Token, map[string]any{
		"amount": 2500,
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	assert.Equal(t, int64(7500), env.balance(user))

	// Overdraw is refused and leaves the balance alone.
	status, _ = env.do(http.MethodPost, "/v1/ledger/withdraw", user.Token, map[string]any{
		"amount": 999999,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, int64(7500), env.balance(user))

	status, body = env.do(http.MethodGet, "/v1/accounts/"+user.AccountID.String()+"/statement", user.Token, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	var statement struct {
		Items []models.Transaction `json:"items"`
		Count int                  `json:"count"`
	}
	require.NoError(t, json.Unmarshal(body, &statement))
	assert.Equal(t, 2, statement.Count)
}

func TestDepositRejectsNonPositiveAmount(t *testing.T) {
	env := newTestEnv(t)
	user := env.register("erin", "")

	status, _ := env.do(http.MethodPost, "/v1/ledger/deposit", user.Token, map[string]any{
		"amount": -5,
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestTransferLifecycle(t *testing.T) {
	env := newTestEnv(t)
	sender := env.register("frank", "")
	recipient := env.register("grace", "")
	admin := env.registerAdmin("henry")

	status, body := env.do(http.MethodPost, "/v1/ledger/deposit", sender.Token, map[string]any{
		"amount": 10000,
	})
	require.Equal(t, http.StatusCreated, status, string(body))

	status, body = env.do(http.MethodPost, "/v1/transfers", sender.Token, map[string]any{
		"recipient_number": recipient.Number,
		"amount":           4000,
		"description":      "rent split",
	})
	require.Equal(t, http.StatusAccepted, status, string(body))

	var transfer models.Transaction
	require.NoError(t, json.Unmarshal(body, &transfer))
	assert.Equal(t, domain.TxStatusPending, transfer.Status)

	// Debited on submit, nothing credited yet.
	assert.Equal(t, int64(6000), env.balance(sender))
	assert.Equal(t, int64(0), env.balance(recipient))

	status, body = env.do(http.MethodGet, "/v1/admin/transfers/pending", admin.Token, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	var pending struct {
		Items []models.Transaction `json:"items"`
	}
	require.NoError(t, json.Unmarshal(body, &pending))
	require.Len(t, pending.Items, 1)

	status, body = env.do(http.MethodPost, "/v1/admin/transfers/"+transfer.ID.String()+"/approve", admin.Token, nil)
	require.Equal(t, http.StatusOK, status, string(body))

	var approved models.Transaction
	require.NoError(t, json.Unmarshal(body, &approved))
	assert.Equal(t, domain.TxStatusCompleted, approved.Status)
	assert.Equal(t, int64(4000), env.balance(recipient))

	// Second approval of the same transfer conflicts.
	status, _ = env.do(http.MethodPost, "/v1/admin/transfers/"+transfer.ID.String()+"/approve", admin.Token, nil)
	assert.Equal(t, http.StatusConflict, status)
}

func TestTransferRejectRefundsSender(t *testing.T) {
	env := newTestEnv(t)
	sender := env.register("iris", "")
	recipient := env.register("jack", "")
	admin := env.registerAdmin("kate")

	status, _ := env.do(http.MethodPost, "/v1/ledger/deposit", sender.Token, map[string]any{"amount": 5000})
	require.Equal(t, http.StatusCreated, status)

	status, body := env.do(http.MethodPost, "/v1/transfers", sender.Token, map[string]any{
		"recipient_number": recipient.Number,
		"amount":           3000,
	})
	require.Equal(t, http.StatusAccepted, status, string(body))
	var transfer models.Transaction
	require.NoError(t, json.Unmarshal(body, &transfer))

	status, body = env.do(http.MethodPost, "/v1/admin/transfers/"+transfer.ID.String()+"/reject", admin.Token, nil)
	require.Equal(t, http.StatusOK, status, string(body))

	assert.Equal(t, int64(5000), env.balance(sender))
	assert.Equal(t, int64(0), env.balance(recipient))
}

func TestTransferToUnknownRecipient(t *testing.T) {
	env := newTestEnv(t)
	sender := env.register("liam", "")

	status, _ := env.do(http.MethodPost, "/v1/ledger/deposit", sender.Token, map[string]any{"amount": 5000})
	require.Equal(t, http.StatusCreated, status)

	status, _ = env.do(http.MethodPost, "/v1/transfers", sender.Token, map[string]any{
		"recipient_number": "9999999999",
		"amount":           1000,
	})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, int64(5000), env.balance(sender))
}

func TestAdminRoutesForbiddenForUsers(t *testing.T) {
	env := newTestEnv(t)
	user := env.register("mona", "")

	status, _ := env.do(http.MethodGet, "/v1/admin/transfers/pending", user.Token, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = env.do(http.MethodPost, "/v1/admin/accounts/"+user.AccountID.String()+"/adjust", user.Token, map[string]any{
		"action": "add",
		"amount": 100,
		"reason": "self service",
	})
	assert.Equal(t, http.StatusForbidden, status)
}

// A forged token carrying an admin role for a regular user passes the route
// gate but is rejected by the service's persisted-role check.
func TestForgedAdminRoleRejectedByService(t *testing.T) {
	env := newTestEnv(t)
	user := env.register("nina", "")
	forged := env.mintToken(user.UserID, domain.RoleAdmin)

	status, _ := env.do(http.MethodPost, "/v1/admin/accounts/"+user.AccountID.String()+"/adjust", forged, map[string]any{
		"action": "add",
		"amount": 100000,
		"reason": "privilege escalation",
	})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, int64(0), env.balance(user))
}

func TestCardRequestLifecycle(t *testing.T) {
	env := newTestEnv(t)
	user := env.register("oscar", "")
	admin := env.registerAdmin("pam")

	status, body := env.do(http.MethodPost, "/v1/requests/card", user.Token, nil)
	require.Equal(t, http.StatusCreated, status, string(body))

	var req models.ApprovalRequest
	require.NoError(t, json.Unmarshal(body, &req))
	assert.Equal(t, domain.RequestKindCard, req.Kind)
	assert.Equal(t, domain.RequestStatusPending, req.Status)

	status, body = env.do(http.MethodPost, "/v1/admin/requests/"+req.ID.String()+"/resolve", admin.Token, map[string]any{
		"decision": "approve",
	})
	require.Equal(t, http.StatusOK, status, string(body))

	status, body = env.do(http.MethodGet, "/v1/accounts/"+user.AccountID.String()+"/card", user.Token, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	var card models.Card
	require.NoError(t, json.Unmarshal(body, &card))
	assert.Len(t, card.Number, 16)
}

func TestKYCRequestLifecycle(t *testing.T) {
	env := newTestEnv(t)
	user := env.register("quinn", "")
	admin := env.registerAdmin("rita")

	status, body := env.do(http.MethodPost, "/v1/requests/kyc", user.Token, map[string]any{
		"document_refs": []string{"doc://passport/1"},
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	var req models.ApprovalRequest
	require.NoError(t, json.Unmarshal(body, &req))

	status, body = env.do(http.MethodPost, "/v1/admin/requests/"+req.ID.String()+"/resolve", admin.Token, map[string]any{
		"decision": "approve",
	})
	require.Equal(t, http.StatusOK, status, string(body))

	status, body = env.do(http.MethodGet, "/v1/accounts/me", user.Token, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	var account models.Account
	require.NoError(t, json.Unmarshal(body, &account))
	assert.Equal(t, domain.KYCStatusVerified, account.KYCStatus)
	assert.Equal(t, 100, account.KYCProgress)
}

func TestLoanRequestLifecycle(t *testing.T) {
	env := newTestEnv(t)
	user := env.register("sara", "")
	admin := env.registerAdmin("tom")

	status, body := env.do(http.MethodPost, "/v1/requests/loan", user.Token, map[string]any{
		"principal_cents": 1200000,
		"annual_rate":     5,
		"term_years":      1,
		"purpose":         "equipment",
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	var req models.ApprovalRequest
	require.NoError(t, json.Unmarshal(body, &req))
	assert.Equal(t, int64(102729), req.MonthlyPayment)

	status, body = env.do(http.MethodPost, "/v1/admin/requests/"+req.ID.String()+"/resolve", admin.Token, map[string]any{
		"decision": "approve",
	})
	require.Equal(t, http.StatusOK, status, string(body))

	assert.Equal(t, int64(1200000), env.balance(user))
}

func TestResolveRejectRequiresNote(t *testing.T) {
	env := newTestEnv(t)
	user := env.register("uma", "")
	admin := env.registerAdmin("vic")

	status, body := env.do(http.MethodPost, "/v1/requests/card", user.Token, nil)
	require.Equal(t, http.StatusCreated, status, string(body))
	var req models.ApprovalRequest
	require.NoError(t, json.Unmarshal(body, &req))

	status, _ = env.do(http.MethodPost, "/v1/admin/requests/"+req.ID.String()+"/resolve", admin.Token, map[string]any{
		"decision": "reject",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = env.do(http.MethodGet, "/v1/requests/"+req.ID.String(), user.Token, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	var unchanged models.ApprovalRequest
	require.NoError(t, json.Unmarshal(body, &unchanged))
	assert.Equal(t, domain.RequestStatusPending, unchanged.Status)
}

func TestRequestsVisibility(t *testing.T) {
	env := newTestEnv(t)
	owner := env.register("wes", "")
	other := env.register("xena", "")

	status, body := env.do(http.MethodPost, "/v1/requests/card", owner.Token, nil)
	require.Equal(t, http.StatusCreated, status, string(body))
	var req models.ApprovalRequest
	require.NoError(t, json.Unmarshal(body, &req))

	status, _ = env.do(http.MethodGet, "/v1/requests/"+req.ID.String(), other.Token, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = env.do(http.MethodGet, "/v1/requests", owner.Token, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	var mine struct {
		Items []models.ApprovalRequest `json:"items"`
	}
	require.NoError(t, json.Unmarshal(body, &mine))
	assert.Len(t, mine.Items, 1)
}

func TestBillPayment(t *testing.T) {
	env := newTestEnv(t)
	user := env.register("yuri", "")

	status, _ := env.do(http.MethodPost, "/v1/ledger/deposit", user.Token, map[string]any{"amount": 8000})
	require.Equal(t, http.StatusCreated, status)

	status, body := env.do(http.MethodPost, "/v1/ledger/bill-payments", user.Token, map[string]any{
		"biller": "city-power",
		"amount": 3000,
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	assert.Equal(t, int64(5000), env.balance(user))

	status, body = env.do(http.MethodGet, "/v1/accounts/"+user.AccountID.String()+"/bill-payments", user.Token, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	var payments struct {
		Items []models.BillPayment `json:"items"`
	}
	require.NoError(t, json.Unmarshal(body, &payments))
	require.Len(t, payments.Items, 1)
	assert.Equal(t, "city-power", payments.Items[0].Biller)
	assert.NotEmpty(t, payments.Items[0].Reference)
}

func TestAdminAdjustBalance(t *testing.T) {
	env := newTestEnv(t)
	user := env.register("zane", "")
	admin := env.registerAdmin("abby")

	status, body := env.do(http.MethodPost, "/v1/admin/accounts/"+user.AccountID.String()+"/adjust", admin.Token, map[string]any{
		"action": "add",
		"amount": 2500,
		"reason": "goodwill credit",
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	assert.Equal(t, int64(2500), env.balance(user))

	status, body = env.do(http.MethodPost, "/v1/admin/accounts/"+user.AccountID.String()+"/adjust", admin.Token, map[string]any{
		"action": "deduct",
		"amount": 500,
		"reason": "fee reversal correction",
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	assert.Equal(t, int64(2000), env.balance(user))
}

func TestReferralRewardFlow(t *testing.T) {
	env := newTestEnv(t)
	referrer := env.register("beth", "")
	referred := env.register("cory", referrer.ReferralCode)

	// First completed deposit by the referred account pays the referrer.
	status, _ := env.do(http.MethodPost, "/v1/ledger/deposit", referred.Token, map[string]any{"amount": 1000})
	require.Equal(t, http.StatusCreated, status)

	assert.Equal(t, domain.DefaultReferralReward, env.balance(referrer))

	status, body := env.do(http.MethodGet, "/v1/referrals", referrer.Token, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	var out struct {
		Items []models.Referral `json:"items"`
		Code  string            `json:"referral_code"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	require.Len(t, out.Items, 1)
	assert.Equal(t, domain.ReferralStatusCompleted, out.Items[0].Status)
	assert.Equal(t, referrer.ReferralCode, out.Code)

	// A second deposit does not pay again.
	status, _ = env.do(http.MethodPost, "/v1/ledger/deposit", referred.Token, map[string]any{"amount": 1000})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, domain.DefaultReferralReward, env.balance(referrer))
}

func TestRegisterWithUnknownReferralCode(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.do(http.MethodPost, "/v1/auth/register", "", map[string]any{
		"username":      "dana",
		"email":         "dana@example.com",
		"password":      "s3cretpass",
		"referral_code": "ZZZZZZZZ",
	})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAccountAccessControl(t *testing.T) {
	env := newTestEnv(t)
	owner := env.register("ella", "")
	stranger := env.register("fred", "")
	admin := env.registerAdmin("gail")

	path := "/v1/accounts/" + owner.AccountID.String() + "/balance"

	status, _ := env.do(http.MethodGet, path, stranger.Token, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = env.do(http.MethodGet, path, owner.Token, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = env.do(http.MethodGet, path, admin.Token, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestOperationalEndpoints(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.do(http.MethodGet, "/healthz/live", "", nil)
	assert.Equal(t, http.StatusOK, status)

	status, body := env.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body)

	status, body = env.do(http.MethodGet, "/openapi.yaml", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "Bankledger API")

	status, _ = env.do(http.MethodGet, "/swagger/index.html", "", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestProblemResponseShape(t *testing.T) {
	env := newTestEnv(t)
	user := env.register("hugo", "")

	status, body := env.do(http.MethodPost, "/v1/ledger/withdraw", user.Token, map[string]any{
		"amount": 100,
	})
	require.Equal(t, http.StatusBadRequest, status)

	var prob struct {
		Type   string `json:"type"`
		Title  string `json:"title"`
		Status int    `json:"status"`
		Detail string `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(body, &prob))
	assert.Equal(t, http.StatusBadRequest, prob.Status)
	assert.Contains(t, prob.Type, "insufficient-funds")
	assert.NotEmpty(t, prob.Detail)
}

func TestStatementPaginationValidation(t *testing.T) {
	env := newTestEnv(t)
	user := env.register("ivan", "")

	status, _ := env.do(http.MethodGet, fmt.Sprintf("/v1/accounts/%s/statement?limit=-1", user.AccountID), user.Token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}
