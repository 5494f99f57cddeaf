package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/olumide-dev/bankledger/internal/models"
)

// TransactionFilter narrows ListTransactions. Zero values are ignored.
type TransactionFilter struct {
	AccountID *uuid.UUID
	Type      string
	Status    string
	Limit     int32
	Offset    int32
}

// RequestFilter narrows ListApprovalRequests. Zero values are ignored.
type RequestFilter struct {
	AccountID *uuid.UUID
	Kind      string
	Status    string
	Limit     int32
	Offset    int32
}

// ResolveApprovalParams is the check-and-set payload that moves a request
// from PENDING to a terminal state.
type ResolveApprovalParams struct {
	ID             uuid.UUID
	Status         string
	ReviewerID     uuid.UUID
	Note           string
	ProcessedAt    time.Time
	MonthlyPayment int64
}

// Querier is the data access contract shared by the in-memory and Postgres
// stores. Mutating methods that target a single row return the affected row
// count so callers can detect lost check-and-set races.
type Querier interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	CreateAccount(ctx context.Context, account *models.Account) error
	GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error)
	GetAccountForUpdate(ctx context.Context, id uuid.UUID) (*models.Account, error)
	GetAccountByNumber(ctx context.Context, number string) (*models.Account, error)
	GetAccountByReferralCode(ctx context.Context, code string) (*models.Account, error)
	GetAccountsByUser(ctx context.Context, userID uuid.UUID) ([]models.Account, error)
	CreditAccount(ctx context.Context, id uuid.UUID, amount int64) (int64, error)
	DebitAccount(ctx context.Context, id uuid.UUID, amount int64) (int64, error)
	SetAccountCardIssued(ctx context.Context, id uuid.UUID) (int64, error)
	SetAccountKYC(ctx context.Context, id uuid.UUID, status string, progress int) (int64, error)
	SumBalances(ctx context.Context) (int64, error)

	AppendTransaction(ctx context.Context, tx *models.Transaction) error
	GetTransaction(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	GetTransactionForUpdate(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	UpdateTransactionStatus(ctx context.Context, id uuid.UUID, from, to string) (int64, error)
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]models.Transaction, error)

	CreateApprovalRequest(ctx context.Context, req *models.ApprovalRequest) error
	GetApprovalRequest(ctx context.Context, id uuid.UUID) (*models.ApprovalRequest, error)
	GetApprovalRequestForUpdate(ctx context.Context, id uuid.UUID) (*models.ApprovalRequest, error)
	ResolveApprovalRequest(ctx context.Context, params ResolveApprovalParams) (int64, error)
	ListApprovalRequests(ctx context.Context, filter RequestFilter) ([]models.ApprovalRequest, error)

	CreateCard(ctx context.Context, card *models.Card) error
	GetCardByAccount(ctx context.Context, accountID uuid.UUID) (*models.Card, error)

	CreateReferral(ctx context.Context, ref *models.Referral) error
	GetReferralForUpdate(ctx context.Context, id uuid.UUID) (*models.Referral, error)
	CompleteReferral(ctx context.Context, id uuid.UUID) (int64, error)
	GetPendingReferralByReferred(ctx context.Context, referredAccountID uuid.UUID) (*models.Referral, error)
	ListReferralsByReferrer(ctx context.Context, referrerAccountID uuid.UUID) ([]models.Referral, error)

	CreateBillPayment(ctx context.Context, payment *models.BillPayment) error
	ListBillPayments(ctx context.Context, accountID uuid.UUID) ([]models.BillPayment, error)

	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, accountID uuid.UUID, limit, offset int32) ([]models.Notification, error)
}

// Store provides access to queries and transaction scoping.
type Store interface {
	Queries() Querier
	RunInTx(ctx context.Context, fn func(q Querier) error) error
}
