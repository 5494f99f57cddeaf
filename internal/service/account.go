package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/olumide-dev/bankledger/internal/models"
	"github.com/olumide-dev/bankledger/internal/repository"
)

// AccountService exposes read paths over accounts and their history.
type AccountService struct {
	store QueryStore
}

func NewAccountService(store QueryStore) *AccountService {
	return &AccountService{store: store}
}

func (s *AccountService) Get(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	return s.store.Queries().GetAccount(ctx, id)
}

// GetByUser returns the user's account. Every user owns exactly one.
func (s *AccountService) GetByUser(ctx context.Context, userID uuid.UUID) (*models.Account, error) {
	accounts, err := s.store.Queries().GetAccountsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("no account for user %s: %w", userID, models.ErrNotFound)
	}
	return &accounts[0], nil
}

// Statement returns the account's transaction history, newest first. The
// account appears in a record as owner, sender, or recipient.
func (s *AccountService) Statement(ctx context.Context, accountID uuid.UUID, limit, offset int32) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	id := accountID
	return s.store.Queries().ListTransactions(ctx, repository.TransactionFilter{
		AccountID: &id,
		Limit:     limit,
		Offset:    offset,
	})
}

func (s *AccountService) Notifications(ctx context.Context, accountID uuid.UUID, limit, offset int32) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.store.Queries().ListNotifications(ctx, accountID, limit, offset)
}

func (s *AccountService) Card(ctx context.Context, accountID uuid.UUID) (*models.Card, error) {
	return s.store.Queries().GetCardByAccount(ctx, accountID)
}

func (s *AccountService) BillPayments(ctx context.Context, accountID uuid.UUID) ([]models.BillPayment, error) {
	return s.store.Queries().ListBillPayments(ctx, accountID)
}
