package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olumide-dev/bankledger/internal/domain"
	"github.com/olumide-dev/bankledger/internal/gateway"
	"github.com/olumide-dev/bankledger/internal/models"
	"github.com/olumide-dev/bankledger/internal/repository"
	"github.com/olumide-dev/bankledger/internal/repository/memory"
)

var accountSeq int

func seedAccount(t *testing.T, store *memory.Store, role string) *models.Account {
	t.Helper()
	accountSeq++
	user := &models.User{
		ID:       uuid.New(),
		Username: fmt.Sprintf("user%d", accountSeq),
		Email:    fmt.Sprintf("user%d@example.com", accountSeq),
		Role:     role,
	}
	require.NoError(t, store.Queries().CreateUser(context.Background(), user))

	account := &models.Account{
		ID:           uuid.New(),
		UserID:       user.ID,
		Number:       fmt.Sprintf("10000000%02d", accountSeq%100),
		Currency:     "USD",
		KYCStatus:    domain.KYCStatusPending,
		ReferralCode: fmt.Sprintf("CODE%04d", accountSeq),
	}
	require.NoError(t, store.Queries().CreateAccount(context.Background(), account))
	return account
}

func balanceOf(t *testing.T, store *memory.Store, id uuid.UUID) int64 {
	t.Helper()
	account, err := store.Queries().GetAccount(context.Background(), id)
	require.NoError(t, err)
	return account.Balance
}

func TestDepositAndWithdraw(t *testing.T) {
	store := memory.NewStore()
	svc := NewLedgerService(store, NopNotifier{}, nil)
	account := seedAccount(t, store, domain.RoleUser)
	ctx := context.Background()

	tx, err := svc.Deposit(ctx, account.ID, 10000, "salary")
	require.NoError(t, err)
	assert.Equal(t, domain.TxTypeDeposit, tx.Type)
	assert.Equal(t, domain.TxStatusCompleted, tx.Status)
	assert.Equal(t, int64(10000), balanceOf(t, store, account.ID))

	_, err = svc.Withdraw(ctx, account.ID, 3000, "atm")
	require.NoError(t, err)
	assert.Equal(t, int64(7000), balanceOf(t, store, account.ID))

	_, err = svc.Withdraw(ctx, account.ID, 7001, "too much")
	assert.ErrorIs(t, err, models.ErrInsufficientFunds)
	assert.Equal(t, int64(7000), balanceOf(t, store, account.ID))

	_, err = svc.Deposit(ctx, account.ID, 0, "")
	assert.ErrorIs(t, err, models.ErrInvalidAmount)
	_, err = svc.Withdraw(ctx, account.ID, -5, "")
	assert.ErrorIs(t, err, models.ErrInvalidAmount)
}

func TestDepositUnknownAccount(t *testing.T) {
	store := memory.NewStore()
	svc := NewLedgerService(store, NopNotifier{}, nil)

	_, err := svc.Deposit(context.Background(), uuid.New(), 100, "")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestTransferSubmitDebitsSenderOnly(t *testing.T) {
	store := memory.NewStore()
	svc := NewLedgerService(store, NopNotifier{}, nil)
	sender := seedAccount(t, store, domain.RoleUser)
	recipient := seedAccount(t, store, domain.RoleUser)
	ctx := context.Background()

	_, err := svc.Deposit(ctx, sender.ID, 20000, "")
	require.NoError(t, err)

	tx, err := svc.SubmitTransfer(ctx, sender.ID, recipient.Number, 5000, "rent")
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusPending, tx.Status)
	require.NotNil(t, tx.FromAccountID)
	require.NotNil(t, tx.ToAccountID)
	assert.Equal(t, sender.ID, *tx.FromAccountID)
	assert.Equal(t, recipient.ID, *tx.ToAccountID)

	assert.Equal(t, int64(15000), balanceOf(t, store, sender.ID))
	assert.Equal(t, int64(0), balanceOf(t, store, recipient.ID))
}

func TestTransferApprove(t *testing.T) {
	store := memory.NewStore()
	svc := NewLedgerService(store, NopNotifier{}, nil)
	sender := seedAccount(t, store, domain.RoleUser)
	recipient := seedAccount(t, store, domain.RoleUser)
	admin := seedAccount(t, store, domain.RoleAdmin)
	ctx := context.Background()

	_, err := svc.Deposit(ctx, sender.ID, 20000, "")
	require.NoError(t, err)
	tx, err := svc.SubmitTransfer(ctx, sender.ID, recipient.Number, 5000, "rent")
	require.NoError(t, err)

	resolved, err := svc.ApproveTransfer(ctx, tx.ID, admin.UserID)
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusCompleted, resolved.Status)

	assert.Equal(t, int64(15000), balanceOf(t, store, sender.ID))
	assert.Equal(t, int64(5000), balanceOf(t, store, recipient.ID))

	// Resolution is conserved: system total equals the single deposit.
	total, err := store.Queries().SumBalances(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(20000), total)

	_, err = svc.ApproveTransfer(ctx, tx.ID, admin.UserID)
	assert.ErrorIs(t, err, models.ErrAlreadyProcessed)
	_, err = svc.RejectTransfer(ctx, tx.ID, admin.UserID)
	assert.ErrorIs(t, err, models.ErrAlreadyProcessed)
}

func TestTransferReject(t *testing.T) {
	store := memory.NewStore()
	svc := NewLedgerService(store, NopNotifier{}, nil)
	sender := seedAccount(t, store, domain.RoleUser)
	recipient := seedAccount(t, store, domain.RoleUser)
	admin := seedAccount(t, store, domain.RoleAdmin)
	ctx := context.Background()

	_, err := svc.Deposit(ctx, sender.ID, 20000, "")
	require.NoError(t, err)
	tx, err := svc.SubmitTransfer(ctx, sender.ID, recipient.Number, 5000, "rent")
	require.NoError(t, err)

	resolved, err := svc.RejectTransfer(ctx, tx.ID, admin.UserID)
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusRejected, resolved.Status)

	// Full refund to the sender, nothing to the recipient.
	assert.Equal(t, int64(20000), balanceOf(t, store, sender.ID))
	assert.Equal(t, int64(0), balanceOf(t, store, recipient.ID))

	// The refund leg shows up on the sender's statement.
	id := sender.ID
	txs, err := store.Queries().ListTransactions(ctx, repository.TransactionFilter{AccountID: &id, Limit: 10})
	require.NoError(t, err)
	var sawRefund bool
	for _, item := range txs {
		if item.Description == domain.DescTransferRefund {
			sawRefund = true
		}
	}
	assert.True(t, sawRefund)
}

func TestTransferValidation(t *testing.T) {
	store := memory.NewStore()
	svc := NewLedgerService(store, NopNotifier{}, nil)
	sender := seedAccount(t, store, domain.RoleUser)
	ctx := context.Background()

	_, err := svc.Deposit(ctx, sender.ID, 1000, "")
	require.NoError(t, err)

	_, err = svc.SubmitTransfer(ctx, sender.ID, "0000000000", 500, "")
	assert.ErrorIs(t, err, models.ErrRecipientNotFound)

	_, err = svc.SubmitTransfer(ctx, sender.ID, sender.Number, 500, "")
	assert.ErrorIs(t, err, models.ErrRecipientNotFound)

	recipient := seedAccount(t, store, domain.RoleUser)
	_, err = svc.SubmitTransfer(ctx, sender.ID, recipient.Number, 5000, "")
	assert.ErrorIs(t, err, models.ErrInsufficientFunds)
	assert.Equal(t, int64(1000), balanceOf(t, store, sender.ID))
}

func TestResolveTransferRequiresAdmin(t *testing.T) {
	store := memory.NewStore()
	svc := NewLedgerService(store, NopNotifier{}, nil)
	sender := seedAccount(t, store, domain.RoleUser)
	recipient := seedAccount(t, store, domain.RoleUser)
	ctx := context.Background()

	_, err := svc.Deposit(ctx, sender.ID, 10000, "")
	require.NoError(t, err)
	tx, err := svc.SubmitTransfer(ctx, sender.ID, recipient.Number, 1000, "")
	require.NoError(t, err)

	_, err = svc.ApproveTransfer(ctx, tx.ID, sender.UserID)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, int64(9000), balanceOf(t, store, sender.ID))
}

func TestAdjustBalance(t *testing.T) {
	store := memory.NewStore()
	svc := NewLedgerService(store, NopNotifier{}, nil)
	account := seedAccount(t, store, domain.RoleUser)
	admin := seedAccount(t, store, domain.RoleAdmin)
	ctx := context.Background()

	tx, err := svc.AdjustBalance(ctx, admin.UserID, account.ID, domain.AdjustActionAdd, 2500, "goodwill credit")
	require.NoError(t, err)
	assert.Equal(t, domain.TxTypeDeposit, tx.Type)
	require.NotNil(t, tx.ActorID)
	assert.Equal(t, admin.UserID, *tx.ActorID)
	assert.Equal(t, int64(2500), balanceOf(t, store, account.ID))

	tx, err = svc.AdjustBalance(ctx, admin.UserID, account.ID, domain.AdjustActionDeduct, 500, "fee reversal")
	require.NoError(t, err)
	assert.Equal(t, domain.TxTypeWithdrawal, tx.Type)
	assert.Equal(t, int64(2000), balanceOf(t, store, account.ID))

	_, err = svc.AdjustBalance(ctx, admin.UserID, account.ID, domain.AdjustActionDeduct, 99999, "over")
	assert.ErrorIs(t, err, models.ErrInsufficientFunds)

	_, err = svc.AdjustBalance(ctx, account.UserID, account.ID, domain.AdjustActionAdd, 100, "not admin")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.AdjustBalance(ctx, admin.UserID, account.ID, "multiply", 100, "")
	assert.Error(t, err)
}

func TestPayBill(t *testing.T) {
	store := memory.NewStore()
	svc := NewLedgerService(store, NopNotifier{}, gateway.NewMockBillerGateway())
	account := seedAccount(t, store, domain.RoleUser)
	ctx := context.Background()

	_, err := svc.Deposit(ctx, account.ID, 10000, "")
	require.NoError(t, err)

	payment, err := svc.PayBill(ctx, account.ID, "citypower", 4000)
	require.NoError(t, err)
	assert.Equal(t, "citypower", payment.Biller)
	assert.NotEmpty(t, payment.Reference)
	assert.Equal(t, int64(6000), balanceOf(t, store, account.ID))

	tx, err := store.Queries().GetTransaction(ctx, payment.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, domain.TxTypePayment, tx.Type)
	assert.Equal(t, domain.TxStatusCompleted, tx.Status)
	assert.Equal(t, payment.Reference, tx.Reference)

	_, err = svc.PayBill(ctx, account.ID, "citypower", 60001)
	assert.ErrorIs(t, err, models.ErrInsufficientFunds)
	assert.Equal(t, int64(6000), balanceOf(t, store, account.ID))
}

func TestCompletionHookFires(t *testing.T) {
	store := memory.NewStore()
	svc := NewLedgerService(store, NopNotifier{}, nil)
	account := seedAccount(t, store, domain.RoleUser)

	var got []uuid.UUID
	svc.SetCompletionHook(func(ctx context.Context, accountID uuid.UUID) {
		got = append(got, accountID)
	})

	_, err := svc.Deposit(context.Background(), account.ID, 100, "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, account.ID, got[0])
}
