// Package postgres implements the repository contract on pgx. Row locks
// (SELECT ... FOR UPDATE) provide the single-writer-per-account guarantee and
// RunInTx gives each ledger operation all-or-nothing semantics.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/olumide-dev/bankledger/internal/models"
	"github.com/olumide-dev/bankledger/internal/repository"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Queries() repository.Querier {
	return &queries{db: s.pool}
}

// RunInTx executes fn within a database transaction.
func (s *Store) RunInTx(ctx context.Context, fn func(q repository.Querier) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&queries{db: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type queries struct {
	db DBTX
}

func notFound(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, models.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}

func (q *queries) CreateUser(ctx context.Context, user *models.User) error {
	err := q.db.QueryRow(ctx,
		`INSERT INTO users (id, username, email, password_hash, role, created_at)
		 VALUES ($1, $2, $3, $4, $5, NOW()) RETURNING created_at`,
		user.ID, user.Username, user.Email, user.PasswordHash, user.Role,
	).Scan(&user.CreatedAt)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (q *queries) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user := &models.User{}
	err := q.db.QueryRow(ctx,
		`SELECT id, username, email, password_hash, role, created_at FROM users WHERE id = $1`, id,
	).Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if err != nil {
		return nil, notFound(err, "get user")
	}
	return user, nil
}

func (q *queries) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	err := q.db.QueryRow(ctx,
		`SELECT id, username, email, password_hash, role, created_at FROM users WHERE email = $1`, email,
	).Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if err != nil {
		return nil, notFound(err, "get user by email")
	}
	return user, nil
}

const accountColumns = `id, user_id, number, currency, balance, kyc_status, kyc_progress, card_issued, referral_code, created_at`

func scanAccount(row pgx.Row) (*models.Account, error) {
	a := &models.Account{}
	err := row.Scan(&a.ID, &a.UserID, &a.Number, &a.Currency, &a.Balance,
		&a.KYCStatus, &a.KYCProgress, &a.CardIssued, &a.ReferralCode, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (q *queries) CreateAccount(ctx context.Context, account *models.Account) error {
	err := q.db.QueryRow(ctx,
		`INSERT INTO accounts (id, user_id, number, currency, balance, kyc_status, kyc_progress, card_issued, referral_code, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW()) RETURNING created_at`,
		account.ID, account.UserID, account.Number, account.Currency, account.Balance,
		account.KYCStatus, account.KYCProgress, account.CardIssued, account.ReferralCode,
	).Scan(&account.CreatedAt)
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (q *queries) GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	account, err := scanAccount(q.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "get account")
	}
	return account, nil
}

func (q *queries) GetAccountForUpdate(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	account, err := scanAccount(q.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, notFound(err, "lock account")
	}
	return account, nil
}

func (q *queries) GetAccountByNumber(ctx context.Context, number string) (*models.Account, error) {
	account, err := scanAccount(q.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE number = $1`, number))
	if err != nil {
		return nil, notFound(err, "get account by number")
	}
	return account, nil
}

func (q *queries) GetAccountByReferralCode(ctx context.Context, code string) (*models.Account, error) {
	account, err := scanAccount(q.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE referral_code = $1`, code))
	if err != nil {
		return nil, notFound(err, "get account by referral code")
	}
	return account, nil
}

func (q *queries) GetAccountsByUser(ctx context.Context, userID uuid.UUID) ([]models.Account, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts by user: %w", err)
	}
	defer rows.Close()

	var out []models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, *account)
	}
	return out, rows.Err()
}

func (q *queries) CreditAccount(ctx context.Context, id uuid.UUID, amount int64) (int64, error) {
	tag, err := q.db.Exec(ctx,
		`UPDATE accounts SET balance = balance + $1 WHERE id = $2`, amount, id)
	if err != nil {
		return 0, fmt.Errorf("credit account: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (q *queries) DebitAccount(ctx context.Context, id uuid.UUID, amount int64) (int64, error) {
	tag, err := q.db.Exec(ctx,
		`UPDATE accounts SET balance = balance - $1 WHERE id = $2 AND balance >= $1`, amount, id)
	if err != nil {
		return 0, fmt.Errorf("debit account: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (q *queries) SetAccountCardIssued(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx,
		`UPDATE accounts SET card_issued = TRUE WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("set card issued: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (q *queries) SetAccountKYC(ctx context.Context, id uuid.UUID, status string, progress int) (int64, error) {
	tag, err := q.db.Exec(ctx,
		`UPDATE accounts SET kyc_status = $1, kyc_progress = $2 WHERE id = $3`, status, progress, id)
	if err != nil {
		return 0, fmt.Errorf("set account kyc: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (q *queries) SumBalances(ctx context.Context) (int64, error) {
	var total int64
	err := q.db.QueryRow(ctx, `SELECT COALESCE(SUM(balance), 0) FROM accounts`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum balances: %w", err)
	}
	return total, nil
}

const transactionColumns = `id, type, status, amount, currency, account_id, from_account_id, to_account_id, description, reference, actor_id, created_at`

func scanTransaction(row pgx.Row) (*models.Transaction, error) {
	tx := &models.Transaction{}
	err := row.Scan(&tx.ID, &tx.Type, &tx.Status, &tx.Amount, &tx.Currency, &tx.AccountID,
		&tx.FromAccountID, &tx.ToAccountID, &tx.Description, &tx.Reference, &tx.ActorID, &tx.CreatedAt)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

func (q *queries) AppendTransaction(ctx context.Context, tx *models.Transaction) error {
	err := q.db.QueryRow(ctx,
		`INSERT INTO transactions (id, type, status, amount, currency, account_id, from_account_id, to_account_id, description, reference, actor_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW()) RETURNING created_at`,
		tx.ID, tx.Type, tx.Status, tx.Amount, tx.Currency, tx.AccountID,
		tx.FromAccountID, tx.ToAccountID, tx.Description, tx.Reference, tx.ActorID,
	).Scan(&tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("append transaction: %w", err)
	}
	return nil
}

func (q *queries) GetTransaction(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	tx, err := scanTransaction(q.db.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "get transaction")
	}
	return tx, nil
}

func (q *queries) GetTransactionForUpdate(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	tx, err := scanTransaction(q.db.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, notFound(err, "lock transaction")
	}
	return tx, nil
}

func (q *queries) UpdateTransactionStatus(ctx context.Context, id uuid.UUID, from, to string) (int64, error) {
	tag, err := q.db.Exec(ctx,
		`UPDATE transactions SET status = $1 WHERE id = $2 AND status = $3`, to, id, from)
	if err != nil {
		return 0, fmt.Errorf("update transaction status: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (q *queries) ListTransactions(ctx context.Context, filter repository.TransactionFilter) ([]models.Transaction, error) {
	sql := `SELECT ` + transactionColumns + ` FROM transactions WHERE TRUE`
	args := []any{}
	idx := 1
	if filter.AccountID != nil {
		sql += fmt.Sprintf(` AND (account_id = $%d OR from_account_id = $%d OR to_account_id = $%d)`, idx, idx, idx)
		args = append(args, *filter.AccountID)
		idx++
	}
	if filter.Type != "" {
		sql += fmt.Sprintf(` AND type = $%d`, idx)
		args = append(args, filter.Type)
		idx++
	}
	if filter.Status != "" {
		sql += fmt.Sprintf(` AND status = $%d`, idx)
		args = append(args, filter.Status)
		idx++
	}
	sql += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		sql += fmt.Sprintf(` LIMIT $%d`, idx)
		args = append(args, filter.Limit)
		idx++
	}
	if filter.Offset > 0 {
		sql += fmt.Sprintf(` OFFSET $%d`, idx)
		args = append(args, filter.Offset)
	}

	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, *tx)
	}
	return out, rows.Err()
}

const requestColumns = `id, kind, status, account_id, note, reviewer_id, processed_at, document_refs, principal_cents, annual_rate, term_years, monthly_payment, purpose, created_at`

func scanRequest(row pgx.Row) (*models.ApprovalRequest, error) {
	req := &models.ApprovalRequest{}
	var rate string
	err := row.Scan(&req.ID, &req.Kind, &req.Status, &req.AccountID, &req.Note,
		&req.ReviewerID, &req.ProcessedAt, &req.DocumentRefs, &req.PrincipalCents,
		&rate, &req.TermYears, &req.MonthlyPayment, &req.Purpose, &req.CreatedAt)
	if err != nil {
		return nil, err
	}
	req.AnnualRate, err = decimal.NewFromString(rate)
	if err != nil {
		return nil, fmt.Errorf("parse annual rate: %w", err)
	}
	return req, nil
}

func (q *queries) CreateApprovalRequest(ctx context.Context, req *models.ApprovalRequest) error {
	err := q.db.QueryRow(ctx,
		`INSERT INTO approval_requests (id, kind, status, account_id, note, document_refs, principal_cents, annual_rate, term_years, monthly_payment, purpose, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW()) RETURNING created_at`,
		req.ID, req.Kind, req.Status, req.AccountID, req.Note, req.DocumentRefs,
		req.PrincipalCents, req.AnnualRate.String(), req.TermYears, req.MonthlyPayment, req.Purpose,
	).Scan(&req.CreatedAt)
	if err != nil {
		return fmt.Errorf("create approval request: %w", err)
	}
	return nil
}

func (q *queries) GetApprovalRequest(ctx context.Context, id uuid.UUID) (*models.ApprovalRequest, error) {
	req, err := scanRequest(q.db.QueryRow(ctx,
		`SELECT `+requestColumns+` FROM approval_requests WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "get approval request")
	}
	return req, nil
}

func (q *queries) GetApprovalRequestForUpdate(ctx context.Context, id uuid.UUID) (*models.ApprovalRequest, error) {
	req, err := scanRequest(q.db.QueryRow(ctx,
		`SELECT `+requestColumns+` FROM approval_requests WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, notFound(err, "lock approval request")
	}
	return req, nil
}

func (q *queries) ResolveApprovalRequest(ctx context.Context, params repository.ResolveApprovalParams) (int64, error) {
	tag, err := q.db.Exec(ctx,
		`UPDATE approval_requests
		 SET status = $1,
		     reviewer_id = $2,
		     processed_at = $3,
		     note = CASE WHEN $4 <> '' THEN $4 ELSE note END,
		     monthly_payment = CASE WHEN $5 > 0 THEN $5 ELSE monthly_payment END
		 WHERE id = $6 AND status = 'PENDING'`,
		params.Status, params.ReviewerID, params.ProcessedAt, params.Note, params.MonthlyPayment, params.ID)
	if err != nil {
		return 0, fmt.Errorf("resolve approval request: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (q *queries) ListApprovalRequests(ctx context.Context, filter repository.RequestFilter) ([]models.ApprovalRequest, error) {
	sql := `SELECT ` + requestColumns + ` FROM approval_requests WHERE TRUE`
	args := []any{}
	idx := 1
	if filter.AccountID != nil {
		sql += fmt.Sprintf(` AND account_id = $%d`, idx)
		args = append(args, *filter.AccountID)
		idx++
	}
	if filter.Kind != "" {
		sql += fmt.Sprintf(` AND kind = $%d`, idx)
		args = append(args, filter.Kind)
		idx++
	}
	if filter.Status != "" {
		sql += fmt.Sprintf(` AND status = $%d`, idx)
		args = append(args, filter.Status)
		idx++
	}
	sql += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		sql += fmt.Sprintf(` LIMIT $%d`, idx)
		args = append(args, filter.Limit)
		idx++
	}
	if filter.Offset > 0 {
		sql += fmt.Sprintf(` OFFSET $%d`, idx)
		args = append(args, filter.Offset)
	}

	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list approval requests: %w", err)
	}
	defer rows.Close()

	var out []models.ApprovalRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan approval request: %w", err)
		}
		out = append(out, *req)
	}
	return out, rows.Err()
}

func (q *queries) CreateCard(ctx context.Context, card *models.Card) error {
	err := q.db.QueryRow(ctx,
		`INSERT INTO cards (id, account_id, number, expiry, cvv, created_at)
		 VALUES ($1, $2, $3, $4, $5, NOW()) RETURNING created_at`,
		card.ID, card.AccountID, card.Number, card.Expiry, card.CVV,
	).Scan(&card.CreatedAt)
	if err != nil {
		return fmt.Errorf("create card: %w", err)
	}
	return nil
}

func (q *queries) GetCardByAccount(ctx context.Context, accountID uuid.UUID) (*models.Card, error) {
	card := &models.Card{}
	err := q.db.QueryRow(ctx,
		`SELECT id, account_id, number, expiry, cvv, created_at FROM cards WHERE account_id = $1`, accountID,
	).Scan(&card.ID, &card.AccountID, &card.Number, &card.Expiry, &card.CVV, &card.CreatedAt)
	if err != nil {
		return nil, notFound(err, "get card")
	}
	return card, nil
}

func (q *queries) CreateReferral(ctx context.Context, ref *models.Referral) error {
	err := q.db.QueryRow(ctx,
		`INSERT INTO referrals (id, referrer_account_id, referred_account_id, reward_cents, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, NOW()) RETURNING created_at`,
		ref.ID, ref.ReferrerAccountID, ref.ReferredAccountID, ref.RewardCents, ref.Status,
	).Scan(&ref.CreatedAt)
	if err != nil {
		return fmt.Errorf("create referral: %w", err)
	}
	return nil
}

const referralColumns = `id, referrer_account_id, referred_account_id, reward_cents, status, created_at`

func scanReferral(row pgx.Row) (*models.Referral, error) {
	ref := &models.Referral{}
	err := row.Scan(&ref.ID, &ref.ReferrerAccountID, &ref.ReferredAccountID,
		&ref.RewardCents, &ref.Status, &ref.CreatedAt)
	if err != nil {
		return nil, err
	}
	return ref, nil
}

func (q *queries) GetReferralForUpdate(ctx context.Context, id uuid.UUID) (*models.Referral, error) {
	ref, err := scanReferral(q.db.QueryRow(ctx,
		`SELECT `+referralColumns+` FROM referrals WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, notFound(err, "lock referral")
	}
	return ref, nil
}

func (q *queries) CompleteReferral(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx,
		`UPDATE referrals SET status = 'COMPLETED' WHERE id = $1 AND status = 'PENDING'`, id)
	if err != nil {
		return 0, fmt.Errorf("complete referral: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (q *queries) GetPendingReferralByReferred(ctx context.Context, referredAccountID uuid.UUID) (*models.Referral, error) {
	ref, err := scanReferral(q.db.QueryRow(ctx,
		`SELECT `+referralColumns+` FROM referrals WHERE referred_account_id = $1 AND status = 'PENDING'`,
		referredAccountID))
	if err != nil {
		return nil, notFound(err, "get pending referral")
	}
	return ref, nil
}

func (q *queries) ListReferralsByReferrer(ctx context.Context, referrerAccountID uuid.UUID) ([]models.Referral, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+referralColumns+` FROM referrals WHERE referrer_account_id = $1 ORDER BY created_at DESC`,
		referrerAccountID)
	if err != nil {
		return nil, fmt.Errorf("list referrals: %w", err)
	}
	defer rows.Close()

	var out []models.Referral
	for rows.Next() {
		ref, err := scanReferral(rows)
		if err != nil {
			return nil, fmt.Errorf("scan referral: %w", err)
		}
		out = append(out, *ref)
	}
	return out, rows.Err()
}

func (q *queries) CreateBillPayment(ctx context.Context, payment *models.BillPayment) error {
	err := q.db.QueryRow(ctx,
		`INSERT INTO bill_payments (id, account_id, transaction_id, biller, amount, reference, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW()) RETURNING created_at`,
		payment.ID, payment.AccountID, payment.TransactionID, payment.Biller, payment.Amount, payment.Reference,
	).Scan(&payment.CreatedAt)
	if err != nil {
		return fmt.Errorf("create bill payment: %w", err)
	}
	return nil
}

func (q *queries) ListBillPayments(ctx context.Context, accountID uuid.UUID) ([]models.BillPayment, error) {
	rows, err := q.db.Query(ctx,
		`SELECT id, account_id, transaction_id, biller, amount, reference, created_at
		 FROM bill_payments WHERE account_id = $1 ORDER BY created_at DESC`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list bill payments: %w", err)
	}
	defer rows.Close()

	var out []models.BillPayment
	for rows.Next() {
		var p models.BillPayment
		if err := rows.Scan(&p.ID, &p.AccountID, &p.TransactionID, &p.Biller, &p.Amount, &p.Reference, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan bill payment: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (q *queries) CreateNotification(ctx context.Context, n *models.Notification) error {
	err := q.db.QueryRow(ctx,
		`INSERT INTO notifications (id, account_id, kind, title, message, created_at)
		 VALUES ($1, $2, $3, $4, $5, NOW()) RETURNING created_at`,
		n.ID, n.AccountID, n.Kind, n.Title, n.Message,
	).Scan(&n.CreatedAt)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

func (q *queries) ListNotifications(ctx context.Context, accountID uuid.UUID, limit, offset int32) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := q.db.Query(ctx,
		`SELECT id, account_id, kind, title, message, created_at
		 FROM notifications WHERE account_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.AccountID, &n.Kind, &n.Title, &n.Message, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
