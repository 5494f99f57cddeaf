package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/olumide-dev/bankledger/internal/domain"
	"github.com/olumide-dev/bankledger/internal/models"
	"github.com/olumide-dev/bankledger/internal/observability"
	"github.com/olumide-dev/bankledger/internal/repository"
)

// ApprovalService drives the shared request state machine for card issuance,
// KYC verification, and loans. Every request moves PENDING -> APPROVED or
// PENDING -> REJECTED exactly once; the transition and its side effects
// commit in the same store transaction.
type ApprovalService struct {
	store    QueryStore
	notifier Notifier
	now      func() time.Time
}

func NewApprovalService(store QueryStore, notifier Notifier) *ApprovalService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &ApprovalService{
		store:    store,
		notifier: notifier,
		now:      time.Now,
	}
}

// SubmitCardRequest queues a card issuance request. Accounts that already
// hold a card cannot request another.
func (s *ApprovalService) SubmitCardRequest(ctx context.Context, accountID uuid.UUID) (*models.ApprovalRequest, error) {
	var req *models.ApprovalRequest
	err := s.store.RunInTx(ctx, func(q repository.Querier) error {
		account, err := q.GetAccount(ctx, accountID)
		if err != nil {
			return err
		}
		if account.CardIssued {
			return fmt.Errorf("account %s already has a card: %w", accountID, models.ErrAlreadyProcessed)
		}
		req = &models.ApprovalRequest{
			ID:        uuid.New(),
			Kind:      domain.RequestKindCard,
			Status:    domain.RequestStatusPending,
			AccountID: accountID,
		}
		return q.CreateApprovalRequest(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// SubmitKYCRequest queues identity documents for review and marks the
// account's verification as in progress.
func (s *ApprovalService) SubmitKYCRequest(ctx context.Context, accountID uuid.UUID, documentRefs []string) (*models.ApprovalRequest, error) {
	if len(documentRefs) == 0 {
		return nil, fmt.Errorf("at least one document reference is required: %w", models.ErrInvalidAmount)
	}
	var req *models.ApprovalRequest
	err := s.store.RunInTx(ctx, func(q repository.Querier) error {
		if _, err := q.GetAccount(ctx, accountID); err != nil {
			return err
		}
		req = &models.ApprovalRequest{
			ID:           uuid.New(),
			Kind:         domain.RequestKindKYC,
			Status:       domain.RequestStatusPending,
			AccountID:    accountID,
			DocumentRefs: documentRefs,
		}
		if err := q.CreateApprovalRequest(ctx, req); err != nil {
			return err
		}
		rows, err := q.SetAccountKYC(ctx, accountID, domain.KYCStatusPending, 50)
		if err != nil {
			return err
		}
		return requireExactlyOne(rows, "mark kyc in progress")
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// SubmitLoanRequest queues a loan application. The monthly payment is
// computed up front so the applicant sees the amortized figure immediately;
// it is recomputed at approval time from the persisted terms.
func (s *ApprovalService) SubmitLoanRequest(ctx context.Context, accountID uuid.UUID, principalCents int64, annualRate decimal.Decimal, termYears int, purpose string) (*models.ApprovalRequest, error) {
	if principalCents <= 0 {
		return nil, models.ErrInvalidAmount
	}
	if termYears < 1 {
		return nil, fmt.Errorf("loan term must be at least one year: %w", models.ErrInvalidAmount)
	}
	if annualRate.IsNegative() {
		return nil, fmt.Errorf("annual rate cannot be negative: %w", models.ErrInvalidAmount)
	}

	var req *models.ApprovalRequest
	err := s.store.RunInTx(ctx, func(q repository.Querier) error {
		if _, err := q.GetAccount(ctx, accountID); err != nil {
			return err
		}
		req = &models.ApprovalRequest{
			ID:             uuid.New(),
			Kind:           domain.RequestKindLoan,
			Status:         domain.RequestStatusPending,
			AccountID:      accountID,
			PrincipalCents: principalCents,
			AnnualRate:     annualRate,
			TermYears:      termYears,
			MonthlyPayment: domain.MonthlyPayment(principalCents, annualRate, termYears),
			Purpose:        purpose,
		}
		return q.CreateApprovalRequest(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// Resolve moves a pending request to its terminal status and applies the
// kind-specific side effect: card issuance, KYC verdict, or loan
// disbursement. A rejection must carry a reviewer note. Resolving an
// already-resolved request returns ErrAlreadyProcessed.
func (s *ApprovalService) Resolve(ctx context.Context, requestID, actorID uuid.UUID, approve bool, note string) (*models.ApprovalRequest, error) {
	note = strings.TrimSpace(note)
	if !approve && note == "" {
		return nil, models.ErrRejectionNoteRequired
	}

	var req *models.ApprovalRequest
	err := s.store.RunInTx(ctx, func(q repository.Querier) error {
		if err := requireAdmin(ctx, q, actorID); err != nil {
			return err
		}

		current, err := q.GetApprovalRequestForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if current.Status != domain.RequestStatusPending {
			return models.ErrAlreadyProcessed
		}

		status := domain.RequestStatusApproved
		if !approve {
			status = domain.RequestStatusRejected
		}
		params := repository.ResolveApprovalParams{
			ID:          requestID,
			Status:      status,
			ReviewerID:  actorID,
			Note:        note,
			ProcessedAt: s.now().UTC(),
		}
		if approve && current.Kind == domain.RequestKindLoan {
			params.MonthlyPayment = domain.MonthlyPayment(current.PrincipalCents, current.AnnualRate, current.TermYears)
		}

		rows, err := q.ResolveApprovalRequest(ctx, params)
		if err != nil {
			return err
		}
		if rows == 0 {
			return models.ErrAlreadyProcessed
		}

		if err := s.applyVerdict(ctx, q, current, actorID, approve, params); err != nil {
			return err
		}

		req = current
		req.Status = status
		req.Note = note
		reviewer := actorID
		req.ReviewerID = &reviewer
		processedAt := params.ProcessedAt
		req.ProcessedAt = &processedAt
		if params.MonthlyPayment > 0 {
			req.MonthlyPayment = params.MonthlyPayment
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	outcome := "approved"
	if !approve {
		outcome = "rejected"
	}
	observability.IncrementApprovalTransition(req.Kind, outcome)
	zap.L().Info("approval request resolved",
		zap.String("request_id", req.ID.String()),
		zap.String("kind", req.Kind),
		zap.String("outcome", outcome),
		zap.String("reviewer_id", actorID.String()))

	s.notifyVerdict(ctx, req, approve)
	return req, nil
}

func (s *ApprovalService) applyVerdict(ctx context.Context, q repository.Querier, req *models.ApprovalRequest, actorID uuid.UUID, approve bool, params repository.ResolveApprovalParams) error {
	switch req.Kind {
	case domain.RequestKindCard:
		if !approve {
			return nil
		}
		details, err := domain.IssueCard(s.now())
		if err != nil {
			return err
		}
		card := &models.Card{
			ID:        uuid.New(),
			AccountID: req.AccountID,
			Number:    details.Number,
			Expiry:    details.Expiry,
			CVV:       details.CVV,
		}
		if err := q.CreateCard(ctx, card); err != nil {
			return err
		}
		rows, err := q.SetAccountCardIssued(ctx, req.AccountID)
		if err != nil {
			return err
		}
		return requireExactlyOne(rows, "mark card issued")

	case domain.RequestKindKYC:
		status, progress := domain.KYCStatusVerified, 100
		if !approve {
			status, progress = domain.KYCStatusRejected, 0
		}
		rows, err := q.SetAccountKYC(ctx, req.AccountID, status, progress)
		if err != nil {
			return err
		}
		return requireExactlyOne(rows, "apply kyc verdict")

	case domain.RequestKindLoan:
		if !approve {
			return nil
		}
		req.MonthlyPayment = params.MonthlyPayment
		return disburseLoan(ctx, q, req, actorID)

	default:
		return fmt.Errorf("unknown request kind %q", req.Kind)
	}
}

func (s *ApprovalService) notifyVerdict(ctx context.Context, req *models.ApprovalRequest, approve bool) {
	switch req.Kind {
	case domain.RequestKindCard:
		if approve {
			s.notifier.Notify(ctx, req.AccountID, "card", "Card issued", "Your new card is ready.")
		} else {
			s.notifier.Notify(ctx, req.AccountID, "card", "Card request rejected", req.Note)
		}
	case domain.RequestKindKYC:
		if approve {
			s.notifier.Notify(ctx, req.AccountID, "kyc", "Identity verified", "Your identity verification is complete.")
		} else {
			s.notifier.Notify(ctx, req.AccountID, "kyc", "Verification rejected", req.Note)
		}
	case domain.RequestKindLoan:
		if approve {
			s.notifier.Notify(ctx, req.AccountID, "loan", "Loan approved",
				fmt.Sprintf("Your loan was disbursed. Monthly payment: %d.%02d.", req.MonthlyPayment/100, req.MonthlyPayment%100))
		} else {
			s.notifier.Notify(ctx, req.AccountID, "loan", "Loan rejected", req.Note)
		}
	}
}

// Get retrieves a single request.
func (s *ApprovalService) Get(ctx context.Context, id uuid.UUID) (*models.ApprovalRequest, error) {
	return s.store.Queries().GetApprovalRequest(ctx, id)
}

// List returns requests matching the filter, newest first.
func (s *ApprovalService) List(ctx context.Context, filter repository.RequestFilter) ([]models.ApprovalRequest, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.store.Queries().ListApprovalRequests(ctx, filter)
}
