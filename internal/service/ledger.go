package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/olumide-dev/bankledger/internal/domain"
	"github.com/olumide-dev/bankledger/internal/gateway"
	"github.com/olumide-dev/bankledger/internal/models"
	"github.com/olumide-dev/bankledger/internal/observability"
	"github.com/olumide-dev/bankledger/internal/repository"
)

// CompletionHook is invoked best-effort after an account's transaction
// reaches COMPLETED. Wired to the referral reward trigger.
type CompletionHook func(ctx context.Context, accountID uuid.UUID)

// LedgerService owns every balance-changing operation. Each operation runs
// inside a store transaction and either fully commits (balance update plus
// transaction record) or fully fails with no persisted side effect.
type LedgerService struct {
	store    QueryStore
	notifier Notifier
	billers  gateway.BillerGateway
	onDone   CompletionHook
}

func NewLedgerService(store QueryStore, notifier Notifier, billers gateway.BillerGateway) *LedgerService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &LedgerService{
		store:    store,
		notifier: notifier,
		billers:  billers,
	}
}

// SetCompletionHook registers the post-completion trigger.
func (s *LedgerService) SetCompletionHook(hook CompletionHook) {
	s.onDone = hook
}

func (s *LedgerService) completed(ctx context.Context, accountID uuid.UUID) {
	if s.onDone != nil {
		s.onDone(ctx, accountID)
	}
}

// Deposit increases the account balance and appends a COMPLETED deposit
// transaction. The only failure path is an invalid amount.
func (s *LedgerService) Deposit(ctx context.Context, accountID uuid.UUID, amount int64, description string) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, models.ErrInvalidAmount
	}

	var tx *models.Transaction
	err := s.store.RunInTx(ctx, func(q repository.Querier) error {
		account, err := q.GetAccountForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		rows, err := q.CreditAccount(ctx, accountID, amount)
		if err != nil {
			return err
		}
		if err := requireExactlyOne(rows, "credit account"); err != nil {
			return err
		}
		tx = &models.Transaction{
			ID:          uuid.New(),
			Type:        domain.TxTypeDeposit,
			Status:      domain.TxStatusCompleted,
			Amount:      amount,
			Currency:    account.Currency,
			AccountID:   accountID,
			Description: description,
		}
		return q.AppendTransaction(ctx, tx)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, accountID, "deposit", "Deposit received",
		fmt.Sprintf("Your account was credited %s.", domain.NewMoney(amount, tx.Currency)))
	s.completed(ctx, accountID)
	return tx, nil
}

// Withdraw decreases the balance, failing with ErrInsufficientFunds when the
// balance does not cover the amount.
func (s *LedgerService) Withdraw(ctx context.Context, accountID uuid.UUID, amount int64, description string) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, models.ErrInvalidAmount
	}

	var tx *models.Transaction
	err := s.store.RunInTx(ctx, func(q repository.Querier) error {
		account, err := q.GetAccountForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		if account.Balance < amount {
			return models.ErrInsufficientFunds
		}
		rows, err := q.DebitAccount(ctx, accountID, amount)
		if err != nil {
			return err
		}
		if rows == 0 {
			return models.ErrInsufficientFunds
		}
		tx = &models.Transaction{
			ID:          uuid.New(),
			Type:        domain.TxTypeWithdrawal,
			Status:      domain.TxStatusCompleted,
			Amount:      amount,
			Currency:    account.Currency,
			AccountID:   accountID,
			Description: description,
		}
		return q.AppendTransaction(ctx, tx)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, accountID, "withdrawal", "Withdrawal completed",
		fmt.Sprintf("Your account was debited %s.", domain.NewMoney(amount, tx.Currency)))
	s.completed(ctx, accountID)
	return tx, nil
}

// SubmitTransfer is phase one of the two-phase transfer: the recipient is
// resolved by account number, the sender is debited immediately, and a
// PENDING transaction linking both parties is appended. The recipient sees
// nothing until an admin resolves the transfer.
func (s *LedgerService) SubmitTransfer(ctx context.Context, senderAccountID uuid.UUID, recipientNumber string, amount int64, description string) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, models.ErrInvalidAmount
	}

	var tx *models.Transaction
	var recipientID uuid.UUID
	err := s.store.RunInTx(ctx, func(q repository.Querier) error {
		recipient, err := q.GetAccountByNumber(ctx, recipientNumber)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return models.ErrRecipientNotFound
			}
			return err
		}
		if recipient.ID == senderAccountID {
			return fmt.Errorf("cannot transfer to the same account: %w", models.ErrRecipientNotFound)
		}
		recipientID = recipient.ID

		sender, err := q.GetAccountForUpdate(ctx, senderAccountID)
		if err != nil {
			return err
		}
		if sender.Currency != recipient.Currency {
			return fmt.Errorf("currency mismatch: sender is %s, recipient is %s", sender.Currency, recipient.Currency)
		}
		if sender.Balance < amount {
			return models.ErrInsufficientFunds
		}
		rows, err := q.DebitAccount(ctx, senderAccountID, amount)
		if err != nil {
			return err
		}
		if rows == 0 {
			return models.ErrInsufficientFunds
		}

		from, to := senderAccountID, recipient.ID
		tx = &models.Transaction{
			ID:            uuid.New(),
			Type:          domain.TxTypeTransfer,
			Status:        domain.TxStatusPending,
			Amount:        amount,
			Currency:      sender.Currency,
			AccountID:     senderAccountID,
			FromAccountID: &from,
			ToAccountID:   &to,
			Description:   description,
		}
		return q.AppendTransaction(ctx, tx)
	})
	if err != nil {
		return nil, err
	}

	observability.IncrementTransferTransition("submitted")
	s.notifier.Notify(ctx, senderAccountID, "transfer", "Transfer submitted",
		fmt.Sprintf("Your transfer of %s is awaiting approval.", domain.NewMoney(amount, tx.Currency)))
	s.notifier.Notify(ctx, recipientID, "transfer", "Incoming transfer",
		fmt.Sprintf("A transfer of %s to your account is awaiting approval.", domain.NewMoney(amount, tx.Currency)))
	return tx, nil
}

// ApproveTransfer is phase two: the recipient is credited, a COMPLETED
// transaction records the credit leg, and the pending transaction is moved
// PENDING -> COMPLETED via check-and-set. Transfers are zero-sum: total
// system balance is unchanged by resolution.
func (s *LedgerService) ApproveTransfer(ctx context.Context, transferID uuid.UUID, actorID uuid.UUID) (*models.Transaction, error) {
	return s.resolveTransfer(ctx, transferID, actorID, true)
}

// RejectTransfer refunds the sender the debited amount, records the refund as
// a COMPLETED transaction, and moves the pending transaction to REJECTED.
func (s *LedgerService) RejectTransfer(ctx context.Context, transferID uuid.UUID, actorID uuid.UUID) (*models.Transaction, error) {
	return s.resolveTransfer(ctx, transferID, actorID, false)
}

func (s *LedgerService) resolveTransfer(ctx context.Context, transferID, actorID uuid.UUID, approve bool) (*models.Transaction, error) {
	var pending *models.Transaction
	var leg *models.Transaction
	err := s.store.RunInTx(ctx, func(q repository.Querier) error {
		if err := requireAdmin(ctx, q, actorID); err != nil {
			return err
		}

		tx, err := q.GetTransactionForUpdate(ctx, transferID)
		if err != nil {
			return err
		}
		if tx.Type != domain.TxTypeTransfer || tx.FromAccountID == nil || tx.ToAccountID == nil {
			return fmt.Errorf("transaction %s is not a transfer: %w", transferID, models.ErrNotFound)
		}
		if tx.Status != domain.TxStatusPending {
			return models.ErrAlreadyProcessed
		}

		terminal := domain.TxStatusCompleted
		beneficiary := *tx.ToAccountID
		description := tx.Description
		if !approve {
			terminal = domain.TxStatusRejected
			beneficiary = *tx.FromAccountID
			description = domain.DescTransferRefund
		}

		// Check-and-set guards against a concurrent resolution that won
		// between the read above and here.
		rows, err := q.UpdateTransactionStatus(ctx, transferID, domain.TxStatusPending, terminal)
		if err != nil {
			return err
		}
		if rows == 0 {
			return models.ErrAlreadyProcessed
		}

		if _, err := q.GetAccountForUpdate(ctx, beneficiary); err != nil {
			return err
		}
		rows, err = q.CreditAccount(ctx, beneficiary, tx.Amount)
		if err != nil {
			return err
		}
		if err := requireExactlyOne(rows, "credit transfer beneficiary"); err != nil {
			return err
		}

		actor := actorID
		leg = &models.Transaction{
			ID:            uuid.New(),
			Type:          domain.TxTypeTransfer,
			Status:        domain.TxStatusCompleted,
			Amount:        tx.Amount,
			Currency:      tx.Currency,
			AccountID:     beneficiary,
			FromAccountID: tx.FromAccountID,
			ToAccountID:   tx.ToAccountID,
			Description:   description,
			ActorID:       &actor,
		}
		if err := q.AppendTransaction(ctx, leg); err != nil {
			return err
		}

		pending = tx
		pending.Status = terminal
		return nil
	})
	if err != nil {
		return nil, err
	}

	money := domain.NewMoney(pending.Amount, pending.Currency)
	if approve {
		observability.IncrementTransferTransition("approved")
		s.notifier.Notify(ctx, *pending.ToAccountID, "transfer", "Transfer received",
			fmt.Sprintf("You received %s.", money))
		s.notifier.Notify(ctx, *pending.FromAccountID, "transfer", "Transfer approved",
			fmt.Sprintf("Your transfer of %s was approved.", money))
		s.completed(ctx, *pending.FromAccountID)
	} else {
		observability.IncrementTransferTransition("rejected")
		s.notifier.Notify(ctx, *pending.FromAccountID, "transfer", "Transfer rejected",
			fmt.Sprintf("Your transfer of %s was rejected and refunded.", money))
	}
	return pending, nil
}

// PayBill debits the account and records both a COMPLETED payment
// transaction and a biller-specific payment record carrying the unique
// reference from the biller gateway.
func (s *LedgerService) PayBill(ctx context.Context, accountID uuid.UUID, biller string, amount int64) (*models.BillPayment, error) {
	if amount <= 0 {
		return nil, models.ErrInvalidAmount
	}
	if biller == "" {
		return nil, errors.New("biller is required")
	}

	account, err := s.store.Queries().GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	// The reference is obtained before the transaction so a gateway failure
	// leaves no persisted side effect.
	reference, err := s.billers.PayBill(ctx, biller, account.Number, amount, account.Currency)
	if err != nil {
		return nil, fmt.Errorf("biller gateway: %w", err)
	}

	var payment *models.BillPayment
	err = s.store.RunInTx(ctx, func(q repository.Querier) error {
		locked, err := q.GetAccountForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		if locked.Balance < amount {
			return models.ErrInsufficientFunds
		}
		rows, err := q.DebitAccount(ctx, accountID, amount)
		if err != nil {
			return err
		}
		if rows == 0 {
			return models.ErrInsufficientFunds
		}

		tx := &models.Transaction{
			ID:          uuid.New(),
			Type:        domain.TxTypePayment,
			Status:      domain.TxStatusCompleted,
			Amount:      amount,
			Currency:    locked.Currency,
			AccountID:   accountID,
			Description: "bill payment: " + biller,
			Reference:   reference,
		}
		if err := q.AppendTransaction(ctx, tx); err != nil {
			return err
		}

		payment = &models.BillPayment{
			ID:            uuid.New(),
			AccountID:     accountID,
			TransactionID: tx.ID,
			Biller:        biller,
			Amount:        amount,
			Reference:     reference,
		}
		return q.CreateBillPayment(ctx, payment)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, accountID, "payment", "Bill paid",
		fmt.Sprintf("Payment of %s to %s (ref %s).", domain.NewMoney(amount, account.Currency), biller, reference))
	s.completed(ctx, accountID)
	return payment, nil
}

// AdjustBalance is the admin-only manual correction: add behaves like a
// deposit, deduct like a withdrawal with the usual funds check. The acting
// admin is recorded on the transaction.
func (s *LedgerService) AdjustBalance(ctx context.Context, actorID, accountID uuid.UUID, action string, amount int64, reason string) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, models.ErrInvalidAmount
	}
	if action != domain.AdjustActionAdd && action != domain.AdjustActionDeduct {
		return nil, fmt.Errorf("unknown adjustment action %q", action)
	}

	var tx *models.Transaction
	err := s.store.RunInTx(ctx, func(q repository.Querier) error {
		if err := requireAdmin(ctx, q, actorID); err != nil {
			return err
		}
		account, err := q.GetAccountForUpdate(ctx, accountID)
		if err != nil {
			return err
		}

		txType := domain.TxTypeDeposit
		if action == domain.AdjustActionAdd {
			rows, err := q.CreditAccount(ctx, accountID, amount)
			if err != nil {
				return err
			}
			if err := requireExactlyOne(rows, "credit adjustment"); err != nil {
				return err
			}
		} else {
			txType = domain.TxTypeWithdrawal
			if account.Balance < amount {
				return models.ErrInsufficientFunds
			}
			rows, err := q.DebitAccount(ctx, accountID, amount)
			if err != nil {
				return err
			}
			if rows == 0 {
				return models.ErrInsufficientFunds
			}
		}

		actor := actorID
		tx = &models.Transaction{
			ID:          uuid.New(),
			Type:        txType,
			Status:      domain.TxStatusCompleted,
			Amount:      amount,
			Currency:    account.Currency,
			AccountID:   accountID,
			Description: "balance adjustment: " + reason,
			ActorID:     &actor,
		}
		return q.AppendTransaction(ctx, tx)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, accountID, "adjustment", "Balance adjusted",
		fmt.Sprintf("An administrator adjusted your balance by %s (%s).", domain.NewMoney(tx.Amount, tx.Currency), action))
	return tx, nil
}

// GetTransaction retrieves a single ledger record.
func (s *LedgerService) GetTransaction(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	return s.store.Queries().GetTransaction(ctx, id)
}

// ListPendingTransfers returns transfers awaiting admin resolution.
func (s *LedgerService) ListPendingTransfers(ctx context.Context, limit, offset int32) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.store.Queries().ListTransactions(ctx, repository.TransactionFilter{
		Type:   domain.TxTypeTransfer,
		Status: domain.TxStatusPending,
		Limit:  limit,
		Offset: offset,
	})
}

// disburseLoan credits the full principal to the borrower inside the
// caller's transaction. The amortized schedule is informational only: no
// repayment liability is tracked.
func disburseLoan(ctx context.Context, q repository.Querier, req *models.ApprovalRequest, actorID uuid.UUID) error {
	account, err := q.GetAccountForUpdate(ctx, req.AccountID)
	if err != nil {
		return err
	}
	rows, err := q.CreditAccount(ctx, req.AccountID, req.PrincipalCents)
	if err != nil {
		return err
	}
	if err := requireExactlyOne(rows, "credit loan principal"); err != nil {
		return err
	}

	actor := actorID
	tx := &models.Transaction{
		ID:          uuid.New(),
		Type:        domain.TxTypeDeposit,
		Status:      domain.TxStatusCompleted,
		Amount:      req.PrincipalCents,
		Currency:    account.Currency,
		AccountID:   req.AccountID,
		Description: domain.DescLoanDisbursement,
		Reference:   req.ID.String(),
		ActorID:     &actor,
	}
	if err := q.AppendTransaction(ctx, tx); err != nil {
		return err
	}
	zap.L().Info("loan disbursed",
		zap.String("request_id", req.ID.String()),
		zap.String("account_id", req.AccountID.String()),
		zap.Int64("principal_cents", req.PrincipalCents),
		zap.Int64("monthly_payment_cents", req.MonthlyPayment))
	return nil
}
