package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Account carries the balance and the identity flags the approval workflow
// mutates. Balance is in cents and never goes negative.
type Account struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	Number       string    `json:"number"`
	Currency     string    `json:"currency"`
	Balance      int64     `json:"balance"`
	KYCStatus    string    `json:"kyc_status"`
	KYCProgress  int       `json:"kyc_progress"`
	CardIssued   bool      `json:"card_issued"`
	ReferralCode string    `json:"referral_code"`
	CreatedAt    time.Time `json:"created_at"`
}

// Transaction is the append-only ledger record. FromAccountID and ToAccountID
// are set for transfers; ActorID records the admin behind balance adjustments.
type Transaction struct {
	ID            uuid.UUID  `json:"id"`
	Type          string     `json:"type"`
	Status        string     `json:"status"`
	Amount        int64      `json:"amount"`
	Currency      string     `json:"currency"`
	AccountID     uuid.UUID  `json:"account_id"`
	FromAccountID *uuid.UUID `json:"from_account_id,omitempty"`
	ToAccountID   *uuid.UUID `json:"to_account_id,omitempty"`
	Description   string     `json:"description,omitempty"`
	Reference     string     `json:"reference,omitempty"`
	ActorID       *uuid.UUID `json:"actor_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// ApprovalRequest generalizes card, KYC and loan requests: always created
// PENDING, resolved to a terminal state exactly once, with the reviewing
// admin and timestamp recorded.
type ApprovalRequest struct {
	ID          uuid.UUID  `json:"id"`
	Kind        string     `json:"kind"`
	Status      string     `json:"status"`
	AccountID   uuid.UUID  `json:"account_id"`
	Note        string     `json:"note,omitempty"`
	ReviewerID  *uuid.UUID `json:"reviewer_id,omitempty"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`

	// KYC: references to uploaded documents, produced elsewhere.
	DocumentRefs []string `json:"document_refs,omitempty"`

	// Loan terms; MonthlyPayment is informational, computed on approval.
	PrincipalCents int64           `json:"principal_cents,omitempty"`
	AnnualRate     decimal.Decimal `json:"annual_rate,omitempty"`
	TermYears      int             `json:"term_years,omitempty"`
	MonthlyPayment int64           `json:"monthly_payment,omitempty"`
	Purpose        string          `json:"purpose,omitempty"`
}

// Card holds the credentials issued on card approval.
type Card struct {
	ID        uuid.UUID `json:"id"`
	AccountID uuid.UUID `json:"account_id"`
	Number    string    `json:"number"`
	Expiry    time.Time `json:"expiry"`
	CVV       string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

type Referral struct {
	ID                uuid.UUID `json:"id"`
	ReferrerAccountID uuid.UUID `json:"referrer_account_id"`
	ReferredAccountID uuid.UUID `json:"referred_account_id"`
	RewardCents       int64     `json:"reward_cents"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
}

type BillPayment struct {
	ID            uuid.UUID `json:"id"`
	AccountID     uuid.UUID `json:"account_id"`
	TransactionID uuid.UUID `json:"transaction_id"`
	Biller        string    `json:"biller"`
	Amount        int64     `json:"amount"`
	Reference     string    `json:"reference"`
	CreatedAt     time.Time `json:"created_at"`
}

type Notification struct {
	ID        uuid.UUID `json:"id"`
	AccountID uuid.UUID `json:"account_id"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
