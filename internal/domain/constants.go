package domain

const (
	TxTypeDeposit    = "deposit"
	TxTypeWithdrawal = "withdrawal"
	TxTypeTransfer   = "transfer"
	TxTypePayment    = "payment"

	TxStatusPending   = "PENDING"
	TxStatusCompleted = "COMPLETED"
	TxStatusFailed    = "FAILED"
	TxStatusRejected  = "REJECTED"

	RequestKindCard = "card"
	RequestKindKYC  = "kyc"
	RequestKindLoan = "loan"

	RequestStatusPending  = "PENDING"
	RequestStatusApproved = "APPROVED"
	RequestStatusRejected = "REJECTED"

	ReferralStatusPending   = "PENDING"
	ReferralStatusCompleted = "COMPLETED"

	// KYC verification state carried on the account.
	KYCStatusPending  = "pending"
	KYCStatusVerified = "verified"
	KYCStatusRejected = "rejected"

	AdjustActionAdd    = "add"
	AdjustActionDeduct = "deduct"

	RoleUser  = "user"
	RoleAdmin = "admin"
)

// DefaultReferralReward is the reward credited to a referrer, in cents.
const DefaultReferralReward int64 = 5000

// Descriptions the ledger tags onto transactions it creates itself.
const (
	DescLoanDisbursement = "loan disbursement"
	DescTransferRefund   = "transfer refund"
	DescReferralReward   = "referral reward"
)
