package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/olumide-dev/bankledger/internal/domain"
	"github.com/olumide-dev/bankledger/internal/models"
	"github.com/olumide-dev/bankledger/internal/repository"
)

// ReferralService tracks who referred whom and pays the referrer once the
// referred account completes its first transaction. The reward is paid at
// most once per referral, enforced by a check-and-set on the referral row.
type ReferralService struct {
	store    QueryStore
	notifier Notifier
	reward   int64
}

func NewReferralService(store QueryStore, notifier Notifier, rewardCents int64) *ReferralService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if rewardCents <= 0 {
		rewardCents = domain.DefaultReferralReward
	}
	return &ReferralService{
		store:    store,
		notifier: notifier,
		reward:   rewardCents,
	}
}

// Link records a referral relationship inside the caller's transaction.
// Used during registration when the new user supplied a referral code.
func (s *ReferralService) Link(ctx context.Context, q repository.Querier, referralCode string, referredAccountID uuid.UUID) (*models.Referral, error) {
	referrer, err := q.GetAccountByReferralCode(ctx, referralCode)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("referral code %q: %w", referralCode, models.ErrNotFound)
		}
		return nil, err
	}
	if referrer.ID == referredAccountID {
		return nil, fmt.Errorf("cannot refer yourself: %w", models.ErrNotFound)
	}
	referral := &models.Referral{
		ID:                uuid.New(),
		ReferrerAccountID: referrer.ID,
		ReferredAccountID: referredAccountID,
		RewardCents:       s.reward,
		Status:            domain.ReferralStatusPending,
	}
	if err := q.CreateReferral(ctx, referral); err != nil {
		return nil, err
	}
	return referral, nil
}

// RewardOnCompletion is the trigger invoked after an account's transaction
// completes. If the account was referred and the reward is still pending,
// the referrer is credited and the referral moves to COMPLETED. Invoking it
// again, or for an unreferred account, is a no-op.
func (s *ReferralService) RewardOnCompletion(ctx context.Context, referredAccountID uuid.UUID) {
	var referral *models.Referral
	var currency string
	err := s.store.RunInTx(ctx, func(q repository.Querier) error {
		pending, err := q.GetPendingReferralByReferred(ctx, referredAccountID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return nil
			}
			return err
		}
		if _, err := q.GetReferralForUpdate(ctx, pending.ID); err != nil {
			return err
		}
		rows, err := q.CompleteReferral(ctx, pending.ID)
		if err != nil {
			return err
		}
		if rows == 0 {
			// A concurrent completion already paid out.
			return nil
		}

		referrer, err := q.GetAccountForUpdate(ctx, pending.ReferrerAccountID)
		if err != nil {
			return err
		}
		rows, err = q.CreditAccount(ctx, pending.ReferrerAccountID, pending.RewardCents)
		if err != nil {
			return err
		}
		if err := requireExactlyOne(rows, "credit referral reward"); err != nil {
			return err
		}
		currency = referrer.Currency
		tx := &models.Transaction{
			ID:          uuid.New(),
			Type:        domain.TxTypeDeposit,
			Status:      domain.TxStatusCompleted,
			Amount:      pending.RewardCents,
			Currency:    referrer.Currency,
			AccountID:   pending.ReferrerAccountID,
			Description: domain.DescReferralReward,
			Reference:   pending.ID.String(),
		}
		if err := q.AppendTransaction(ctx, tx); err != nil {
			return err
		}
		referral = pending
		return nil
	})
	if err != nil {
		zap.L().Error("referral reward failed",
			zap.String("referred_account_id", referredAccountID.String()),
			zap.Error(err))
		return
	}
	if referral == nil {
		return
	}

	zap.L().Info("referral reward paid",
		zap.String("referral_id", referral.ID.String()),
		zap.String("referrer_account_id", referral.ReferrerAccountID.String()),
		zap.Int64("reward_cents", referral.RewardCents))
	s.notifier.Notify(ctx, referral.ReferrerAccountID, "referral", "Referral reward",
		fmt.Sprintf("You earned %s for a successful referral.", domain.NewMoney(referral.RewardCents, currency)))
}

// ListByReferrer returns the referrals an account has made.
func (s *ReferralService) ListByReferrer(ctx context.Context, referrerAccountID uuid.UUID) ([]models.Referral, error) {
	return s.store.Queries().ListReferralsByReferrer(ctx, referrerAccountID)
}
