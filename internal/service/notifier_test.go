package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olumide-dev/bankledger/internal/domain"
	"github.com/olumide-dev/bankledger/internal/repository/memory"
)

func TestNotificationServicePersists(t *testing.T) {
	store := memory.NewStore()
	notifier := NewNotificationService(store, 2)
	account := seedAccount(t, store, domain.RoleUser)
	ctx := context.Background()

	notifier.Notify(ctx, account.ID, "deposit", "Deposit received", "Your account was credited.")
	notifier.Notify(ctx, account.ID, "transfer", "Transfer submitted", "Awaiting approval.")

	shutdownCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	require.NoError(t, notifier.Shutdown(shutdownCtx))

	notifications, err := store.Queries().ListNotifications(ctx, account.ID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, notifications, 2)
}

func TestLedgerNotifiesOnDeposit(t *testing.T) {
	store := memory.NewStore()
	notifier := NewNotificationService(store, 1)
	ledger := NewLedgerService(store, notifier, nil)
	account := seedAccount(t, store, domain.RoleUser)
	ctx := context.Background()

	_, err := ledger.Deposit(ctx, account.ID, 1500, "")
	require.NoError(t, err)

	shutdownCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	require.NoError(t, notifier.Shutdown(shutdownCtx))

	notifications, err := store.Queries().ListNotifications(ctx, account.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, "deposit", notifications[0].Kind)
}
