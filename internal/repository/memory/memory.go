// Package memory provides an in-memory Store used by tests and local
// development. RunInTx serializes under a single mutex, which also gives the
// single-writer-per-account guarantee; mutations inside a failed fn are not
// rolled back, so services validate before writing.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/olumide-dev/bankledger/internal/domain"
	"github.com/olumide-dev/bankledger/internal/models"
	"github.com/olumide-dev/bankledger/internal/repository"
)

type Store struct {
	mu   sync.Mutex
	data *data
}

type data struct {
	users         map[uuid.UUID]*models.User
	accounts      map[uuid.UUID]*models.Account
	transactions  map[uuid.UUID]*models.Transaction
	txOrder       []uuid.UUID
	requests      map[uuid.UUID]*models.ApprovalRequest
	reqOrder      []uuid.UUID
	cards         map[uuid.UUID]*models.Card
	referrals     map[uuid.UUID]*models.Referral
	refOrder      []uuid.UUID
	billPayments  map[uuid.UUID]*models.BillPayment
	billOrder     []uuid.UUID
	notifications map[uuid.UUID]*models.Notification
	notifOrder    []uuid.UUID
}

func NewStore() *Store {
	return &Store{
		data: &data{
			users:         make(map[uuid.UUID]*models.User),
			accounts:      make(map[uuid.UUID]*models.Account),
			transactions:  make(map[uuid.UUID]*models.Transaction),
			requests:      make(map[uuid.UUID]*models.ApprovalRequest),
			cards:         make(map[uuid.UUID]*models.Card),
			referrals:     make(map[uuid.UUID]*models.Referral),
			billPayments:  make(map[uuid.UUID]*models.BillPayment),
			notifications: make(map[uuid.UUID]*models.Notification),
		},
	}
}

// Queries returns a query set that locks per call.
func (s *Store) Queries() repository.Querier {
	return &queries{store: s, locking: true}
}

// RunInTx executes fn while holding the store mutex.
func (s *Store) RunInTx(ctx context.Context, fn func(q repository.Querier) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&queries{store: s})
}

type queries struct {
	store   *Store
	locking bool
}

func (q *queries) lock() func() {
	if !q.locking {
		return func() {}
	}
	q.store.mu.Lock()
	return q.store.mu.Unlock
}

func (q *queries) CreateUser(ctx context.Context, user *models.User) error {
	defer q.lock()()
	if _, exists := q.store.data.users[user.ID]; exists {
		return fmt.Errorf("user %s already exists", user.ID)
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	cp := *user
	q.store.data.users[user.ID] = &cp
	return nil
}

func (q *queries) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	defer q.lock()()
	user, ok := q.store.data.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, models.ErrNotFound)
	}
	cp := *user
	return &cp, nil
}

func (q *queries) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	defer q.lock()()
	for _, user := range q.store.data.users {
		if user.Email == email {
			cp := *user
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", email, models.ErrNotFound)
}

func (q *queries) CreateAccount(ctx context.Context, account *models.Account) error {
	defer q.lock()()
	if _, exists := q.store.data.accounts[account.ID]; exists {
		return fmt.Errorf("account %s already exists", account.ID)
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now()
	}
	cp := *account
	q.store.data.accounts[account.ID] = &cp
	return nil
}

func (q *queries) getAccount(id uuid.UUID) (*models.Account, error) {
	account, ok := q.store.data.accounts[id]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", id, models.ErrNotFound)
	}
	cp := *account
	return &cp, nil
}

func (q *queries) GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	defer q.lock()()
	return q.getAccount(id)
}

// GetAccountForUpdate is equivalent to GetAccount here; exclusion comes from
// the store mutex held across RunInTx.
func (q *queries) GetAccountForUpdate(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	defer q.lock()()
	return q.getAccount(id)
}

func (q *queries) GetAccountByNumber(ctx context.Context, number string) (*models.Account, error) {
	defer q.lock()()
	for _, account := range q.store.data.accounts {
		if account.Number == number {
			cp := *account
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("account number %s: %w", number, models.ErrNotFound)
}

func (q *queries) GetAccountByReferralCode(ctx context.Context, code string) (*models.Account, error) {
	defer q.lock()()
	for _, account := range q.store.data.accounts {
		if account.ReferralCode == code {
			cp := *account
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("referral code %s: %w", code, models.ErrNotFound)
}

func (q *queries) GetAccountsByUser(ctx context.Context, userID uuid.UUID) ([]models.Account, error) {
	defer q.lock()()
	var out []models.Account
	for _, account := range q.store.data.accounts {
		if account.UserID == userID {
			out = append(out, *account)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (q *queries) CreditAccount(ctx context.Context, id uuid.UUID, amount int64) (int64, error) {
	defer q.lock()()
	account, ok := q.store.data.accounts[id]
	if !ok {
		return 0, nil
	}
	account.Balance += amount
	return 1, nil
}

func (q *queries) DebitAccount(ctx context.Context, id uuid.UUID, amount int64) (int64, error) {
	defer q.lock()()
	account, ok := q.store.data.accounts[id]
	if !ok || account.Balance < amount {
		return 0, nil
	}
	account.Balance -= amount
	return 1, nil
}

func (q *queries) SetAccountCardIssued(ctx context.Context, id uuid.UUID) (int64, error) {
	defer q.lock()()
	account, ok := q.store.data.accounts[id]
	if !ok {
		return 0, nil
	}
	account.CardIssued = true
	return 1, nil
}

func (q *queries) SetAccountKYC(ctx context.Context, id uuid.UUID, status string, progress int) (int64, error) {
	defer q.lock()()
	account, ok := q.store.data.accounts[id]
	if !ok {
		return 0, nil
	}
	account.KYCStatus = status
	account.KYCProgress = progress
	return 1, nil
}

func (q *queries) SumBalances(ctx context.Context) (int64, error) {
	defer q.lock()()
	var total int64
	for _, account := range q.store.data.accounts {
		total += account.Balance
	}
	return total, nil
}

func (q *queries) AppendTransaction(ctx context.Context, tx *models.Transaction) error {
	defer q.lock()()
	if _, exists := q.store.data.transactions[tx.ID]; exists {
		return fmt.Errorf("transaction %s already exists", tx.ID)
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}
	cp := *tx
	q.store.data.transactions[tx.ID] = &cp
	q.store.data.txOrder = append(q.store.data.txOrder, tx.ID)
	return nil
}

func (q *queries) getTransaction(id uuid.UUID) (*models.Transaction, error) {
	tx, ok := q.store.data.transactions[id]
	if !ok {
		return nil, fmt.Errorf("transaction %s: %w", id, models.ErrNotFound)
	}
	cp := *tx
	return &cp, nil
}

func (q *queries) GetTransaction(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	defer q.lock()()
	return q.getTransaction(id)
}

func (q *queries) GetTransactionForUpdate(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	defer q.lock()()
	return q.getTransaction(id)
}

func (q *queries) UpdateTransactionStatus(ctx context.Context, id uuid.UUID, from, to string) (int64, error) {
	defer q.lock()()
	tx, ok := q.store.data.transactions[id]
	if !ok || tx.Status != from {
		return 0, nil
	}
	tx.Status = to
	return 1, nil
}

func (q *queries) ListTransactions(ctx context.Context, filter repository.TransactionFilter) ([]models.Transaction, error) {
	defer q.lock()()
	var out []models.Transaction
	// Newest first, matching the Postgres ordering.
	for i := len(q.store.data.txOrder) - 1; i >= 0; i-- {
		tx := q.store.data.transactions[q.store.data.txOrder[i]]
		if filter.AccountID != nil {
			id := *filter.AccountID
			involved := tx.AccountID == id ||
				(tx.FromAccountID != nil && *tx.FromAccountID == id) ||
				(tx.ToAccountID != nil && *tx.ToAccountID == id)
			if !involved {
				continue
			}
		}
		if filter.Type != "" && tx.Type != filter.Type {
			continue
		}
		if filter.Status != "" && tx.Status != filter.Status {
			continue
		}
		out = append(out, *tx)
	}
	return paginate(out, filter.Limit, filter.Offset), nil
}

func (q *queries) CreateApprovalRequest(ctx context.Context, req *models.ApprovalRequest) error {
	defer q.lock()()
	if _, exists := q.store.data.requests[req.ID]; exists {
		return fmt.Errorf("request %s already exists", req.ID)
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now()
	}
	cp := *req
	q.store.data.requests[req.ID] = &cp
	q.store.data.reqOrder = append(q.store.data.reqOrder, req.ID)
	return nil
}

func (q *queries) getApprovalRequest(id uuid.UUID) (*models.ApprovalRequest, error) {
	req, ok := q.store.data.requests[id]
	if !ok {
		return nil, fmt.Errorf("request %s: %w", id, models.ErrNotFound)
	}
	cp := *req
	return &cp, nil
}

func (q *queries) GetApprovalRequest(ctx context.Context, id uuid.UUID) (*models.ApprovalRequest, error) {
	defer q.lock()()
	return q.getApprovalRequest(id)
}

func (q *queries) GetApprovalRequestForUpdate(ctx context.Context, id uuid.UUID) (*models.ApprovalRequest, error) {
	defer q.lock()()
	return q.getApprovalRequest(id)
}

func (q *queries) ResolveApprovalRequest(ctx context.Context, params repository.ResolveApprovalParams) (int64, error) {
	defer q.lock()()
	req, ok := q.store.data.requests[params.ID]
	if !ok || req.Status != domain.RequestStatusPending {
		return 0, nil
	}
	req.Status = params.Status
	reviewer := params.ReviewerID
	req.ReviewerID = &reviewer
	processedAt := params.ProcessedAt
	req.ProcessedAt = &processedAt
	if params.Note != "" {
		req.Note = params.Note
	}
	if params.MonthlyPayment > 0 {
		req.MonthlyPayment = params.MonthlyPayment
	}
	return 1, nil
}

func (q *queries) ListApprovalRequests(ctx context.Context, filter repository.RequestFilter) ([]models.ApprovalRequest, error) {
	defer q.lock()()
	var out []models.ApprovalRequest
	for i := len(q.store.data.reqOrder) - 1; i >= 0; i-- {
		req := q.store.data.requests[q.store.data.reqOrder[i]]
		if filter.AccountID != nil && req.AccountID != *filter.AccountID {
			continue
		}
		if filter.Kind != "" && req.Kind != filter.Kind {
			continue
		}
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		out = append(out, *req)
	}
	return paginate(out, filter.Limit, filter.Offset), nil
}

func (q *queries) CreateCard(ctx context.Context, card *models.Card) error {
	defer q.lock()()
	if card.CreatedAt.IsZero() {
		card.CreatedAt = time.Now()
	}
	cp := *card
	q.store.data.cards[card.ID] = &cp
	return nil
}

func (q *queries) GetCardByAccount(ctx context.Context, accountID uuid.UUID) (*models.Card, error) {
	defer q.lock()()
	for _, card := range q.store.data.cards {
		if card.AccountID == accountID {
			cp := *card
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("card for account %s: %w", accountID, models.ErrNotFound)
}

func (q *queries) CreateReferral(ctx context.Context, ref *models.Referral) error {
	defer q.lock()()
	if ref.CreatedAt.IsZero() {
		ref.CreatedAt = time.Now()
	}
	cp := *ref
	q.store.data.referrals[ref.ID] = &cp
	q.store.data.refOrder = append(q.store.data.refOrder, ref.ID)
	return nil
}

func (q *queries) GetReferralForUpdate(ctx context.Context, id uuid.UUID) (*models.Referral, error) {
	defer q.lock()()
	ref, ok := q.store.data.referrals[id]
	if !ok {
		return nil, fmt.Errorf("referral %s: %w", id, models.ErrNotFound)
	}
	cp := *ref
	return &cp, nil
}

func (q *queries) CompleteReferral(ctx context.Context, id uuid.UUID) (int64, error) {
	defer q.lock()()
	ref, ok := q.store.data.referrals[id]
	if !ok || ref.Status != domain.ReferralStatusPending {
		return 0, nil
	}
	ref.Status = domain.ReferralStatusCompleted
	return 1, nil
}

func (q *queries) GetPendingReferralByReferred(ctx context.Context, referredAccountID uuid.UUID) (*models.Referral, error) {
	defer q.lock()()
	for _, ref := range q.store.data.referrals {
		if ref.ReferredAccountID == referredAccountID && ref.Status == domain.ReferralStatusPending {
			cp := *ref
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("pending referral for account %s: %w", referredAccountID, models.ErrNotFound)
}

func (q *queries) ListReferralsByReferrer(ctx context.Context, referrerAccountID uuid.UUID) ([]models.Referral, error) {
	defer q.lock()()
	var out []models.Referral
	for i := len(q.store.data.refOrder) - 1; i >= 0; i-- {
		ref := q.store.data.referrals[q.store.data.refOrder[i]]
		if ref.ReferrerAccountID == referrerAccountID {
			out = append(out, *ref)
		}
	}
	return out, nil
}

func (q *queries) CreateBillPayment(ctx context.Context, payment *models.BillPayment) error {
	defer q.lock()()
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now()
	}
	cp := *payment
	q.store.data.billPayments[payment.ID] = &cp
	q.store.data.billOrder = append(q.store.data.billOrder, payment.ID)
	return nil
}

func (q *queries) ListBillPayments(ctx context.Context, accountID uuid.UUID) ([]models.BillPayment, error) {
	defer q.lock()()
	var out []models.BillPayment
	for i := len(q.store.data.billOrder) - 1; i >= 0; i-- {
		payment := q.store.data.billPayments[q.store.data.billOrder[i]]
		if payment.AccountID == accountID {
			out = append(out, *payment)
		}
	}
	return out, nil
}

func (q *queries) CreateNotification(ctx context.Context, n *models.Notification) error {
	defer q.lock()()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	cp := *n
	q.store.data.notifications[n.ID] = &cp
	q.store.data.notifOrder = append(q.store.data.notifOrder, n.ID)
	return nil
}

func (q *queries) ListNotifications(ctx context.Context, accountID uuid.UUID, limit, offset int32) ([]models.Notification, error) {
	defer q.lock()()
	var out []models.Notification
	for i := len(q.store.data.notifOrder) - 1; i >= 0; i-- {
		n := q.store.data.notifications[q.store.data.notifOrder[i]]
		if n.AccountID == accountID {
			out = append(out, *n)
		}
	}
	return paginate(out, limit, offset), nil
}

func paginate[T any](items []T, limit, offset int32) []T {
	if offset > 0 {
		if int(offset) >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && int(limit) < len(items) {
		items = items[:limit]
	}
	return items
}
