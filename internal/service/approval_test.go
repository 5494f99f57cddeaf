package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olumide-dev/bankledger/internal/domain"
	"github.com/olumide-dev/bankledger/internal/models"
	"github.com/olumide-dev/bankledger/internal/repository"
	"github.com/olumide-dev/bankledger/internal/repository/memory"
)

func TestCardRequestLifecycle(t *testing.T) {
	store := memory.NewStore()
	svc := NewApprovalService(store, NopNotifier{})
	account := seedAccount(t, store, domain.RoleUser)
	admin := seedAccount(t, store, domain.RoleAdmin)
	ctx := context.Background()

	req, err := svc.SubmitCardRequest(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestKindCard, req.Kind)
	assert.Equal(t, domain.RequestStatusPending, req.Status)

	resolved, err := svc.Resolve(ctx, req.ID, admin.UserID, true, "")
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusApproved, resolved.Status)
	require.NotNil(t, resolved.ReviewerID)
	assert.Equal(t, admin.UserID, *resolved.ReviewerID)
	require.NotNil(t, resolved.ProcessedAt)

	card, err := store.Queries().GetCardByAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.Len(t, card.Number, 16)
	assert.Len(t, card.CVV, 3)

	updated, err := store.Queries().GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, updated.CardIssued)

	// A card holder cannot request another card.
	_, err = svc.SubmitCardRequest(ctx, account.ID)
	assert.ErrorIs(t, err, models.ErrAlreadyProcessed)

	// Resolution happens exactly once.
	_, err = svc.Resolve(ctx, req.ID, admin.UserID, true, "")
	assert.ErrorIs(t, err, models.ErrAlreadyProcessed)
	_, err = svc.Resolve(ctx, req.ID, admin.UserID, false, "changed my mind")
	assert.ErrorIs(t, err, models.ErrAlreadyProcessed)
}

func TestCardRequestRejected(t *testing.T) {
	store := memory.NewStore()
	svc := NewApprovalService(store, NopNotifier{})
	account := seedAccount(t, store, domain.RoleUser)
	admin := seedAccount(t, store, domain.RoleAdmin)
	ctx := context.Background()

	req, err := svc.SubmitCardRequest(ctx, account.ID)
	require.NoError(t, err)

	resolved, err := svc.Resolve(ctx, req.ID, admin.UserID, false, "account too new")
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusRejected, resolved.Status)
	assert.Equal(t, "account too new", resolved.Note)

	// No card was issued.
	_, err = store.Queries().GetCardByAccount(ctx, account.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	updated, err := store.Queries().GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.False(t, updated.CardIssued)
}

func TestRejectionRequiresNote(t *testing.T) {
	store := memory.NewStore()
	svc := NewApprovalService(store, NopNotifier{})
	account := seedAccount(t, store, domain.RoleUser)
	admin := seedAccount(t, store, domain.RoleAdmin)
	ctx := context.Background()

	req, err := svc.SubmitCardRequest(ctx, account.ID)
	require.NoError(t, err)

	_, err = svc.Resolve(ctx, req.ID, admin.UserID, false, "   ")
	assert.ErrorIs(t, err, models.ErrRejectionNoteRequired)

	// The request is still pending afterwards.
	current, err := svc.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusPending, current.Status)
}

func TestKYCLifecycle(t *testing.T) {
	store := memory.NewStore()
	svc := NewApprovalService(store, NopNotifier{})
	account := seedAccount(t, store, domain.RoleUser)
	admin := seedAccount(t, store, domain.RoleAdmin)
	ctx := context.Background()

	_, err := svc.SubmitKYCRequest(ctx, account.ID, nil)
	assert.Error(t, err)

	req, err := svc.SubmitKYCRequest(ctx, account.ID, []string{"doc://passport/1"})
	require.NoError(t, err)

	inProgress, err := store.Queries().GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.KYCStatusPending, inProgress.KYCStatus)
	assert.Equal(t, 50, inProgress.KYCProgress)

	_, err = svc.Resolve(ctx, req.ID, admin.UserID, true, "")
	require.NoError(t, err)

	verified, err := store.Queries().GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.KYCStatusVerified, verified.KYCStatus)
	assert.Equal(t, 100, verified.KYCProgress)
}

func TestKYCRejected(t *testing.T) {
	store := memory.NewStore()
	svc := NewApprovalService(store, NopNotifier{})
	account := seedAccount(t, store, domain.RoleUser)
	admin := seedAccount(t, store, domain.RoleAdmin)
	ctx := context.Background()

	req, err := svc.SubmitKYCRequest(ctx, account.ID, []string{"doc://passport/2"})
	require.NoError(t, err)

	_, err = svc.Resolve(ctx, req.ID, admin.UserID, false, "document illegible")
	require.NoError(t, err)

	rejected, err := store.Queries().GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.KYCStatusRejected, rejected.KYCStatus)
	assert.Equal(t, 0, rejected.KYCProgress)
}

func TestLoanApprovalDisbursesPrincipal(t *testing.T) {
	store := memory.NewStore()
	svc := NewApprovalService(store, NopNotifier{})
	account := seedAccount(t, store, domain.RoleUser)
	admin := seedAccount(t, store, domain.RoleAdmin)
	ctx := context.Background()

	req, err := svc.SubmitLoanRequest(ctx, account.ID, 1200000, decimal.NewFromInt(5), 1, "car repair")
	require.NoError(t, err)
	// 12000.00 at 5% over 12 months amortizes to 1027.29 per month.
	assert.Equal(t, int64(102729), req.MonthlyPayment)

	resolved, err := svc.Resolve(ctx, req.ID, admin.UserID, true, "")
	require.NoError(t, err)
	assert.Equal(t, int64(102729), resolved.MonthlyPayment)

	// The full principal lands in the account, not the monthly figure.
	assert.Equal(t, int64(1200000), balanceOf(t, store, account.ID))

	id := account.ID
	txs, err := store.Queries().ListTransactions(ctx, repository.TransactionFilter{AccountID: &id, Limit: 5})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, domain.DescLoanDisbursement, txs[0].Description)
	assert.Equal(t, domain.TxStatusCompleted, txs[0].Status)
	assert.Equal(t, int64(1200000), txs[0].Amount)
}

func TestLoanRejectedDisbursesNothing(t *testing.T) {
	store := memory.NewStore()
	svc := NewApprovalService(store, NopNotifier{})
	account := seedAccount(t, store, domain.RoleUser)
	admin := seedAccount(t, store, domain.RoleAdmin)
	ctx := context.Background()

	req, err := svc.SubmitLoanRequest(ctx, account.ID, 500000, decimal.NewFromFloat(7.5), 2, "business")
	require.NoError(t, err)

	_, err = svc.Resolve(ctx, req.ID, admin.UserID, false, "insufficient history")
	require.NoError(t, err)
	assert.Equal(t, int64(0), balanceOf(t, store, account.ID))
}

func TestLoanValidation(t *testing.T) {
	store := memory.NewStore()
	svc := NewApprovalService(store, NopNotifier{})
	account := seedAccount(t, store, domain.RoleUser)
	ctx := context.Background()

	_, err := svc.SubmitLoanRequest(ctx, account.ID, 0, decimal.NewFromInt(5), 1, "")
	assert.ErrorIs(t, err, models.ErrInvalidAmount)
	_, err = svc.SubmitLoanRequest(ctx, account.ID, 1000, decimal.NewFromInt(5), 0, "")
	assert.ErrorIs(t, err, models.ErrInvalidAmount)
	_, err = svc.SubmitLoanRequest(ctx, account.ID, 1000, decimal.NewFromInt(-1), 1, "")
	assert.ErrorIs(t, err, models.ErrInvalidAmount)
}

func TestResolveRequiresAdmin(t *testing.T) {
	store := memory.NewStore()
	svc := NewApprovalService(store, NopNotifier{})
	account := seedAccount(t, store, domain.RoleUser)
	ctx := context.Background()

	req, err := svc.SubmitCardRequest(ctx, account.ID)
	require.NoError(t, err)

	_, err = svc.Resolve(ctx, req.ID, account.UserID, true, "")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestListApprovalRequests(t *testing.T) {
	store := memory.NewStore()
	svc := NewApprovalService(store, NopNotifier{})
	account := seedAccount(t, store, domain.RoleUser)
	other := seedAccount(t, store, domain.RoleUser)
	ctx := context.Background()

	_, err := svc.SubmitCardRequest(ctx, account.ID)
	require.NoError(t, err)
	_, err = svc.SubmitKYCRequest(ctx, account.ID, []string{"doc://id/1"})
	require.NoError(t, err)
	_, err = svc.SubmitCardRequest(ctx, other.ID)
	require.NoError(t, err)

	all, err := svc.List(ctx, repository.RequestFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	id := account.ID
	mine, err := svc.List(ctx, repository.RequestFilter{AccountID: &id})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	cards, err := svc.List(ctx, repository.RequestFilter{Kind: domain.RequestKindCard})
	require.NoError(t, err)
	assert.Len(t, cards, 2)
}
