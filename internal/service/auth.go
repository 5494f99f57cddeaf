package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"

	"github.com/olumide-dev/bankledger/internal/domain"
	"github.com/olumide-dev/bankledger/internal/models"
	"github.com/olumide-dev/bankledger/internal/repository"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// argon2id parameters. Changing them only affects newly hashed passwords;
// verification re-derives with the stored salt and these same parameters,
// so a change requires a rehash migration.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
	argonSaltLen = 16
)

// TokenConfig carries the JWT signing material.
type TokenConfig struct {
	Secret   string
	Issuer   string
	Audience string
	TTL      time.Duration
}

// AuthService handles registration and login. Registration creates the user
// and their account in one transaction; supplying a valid referral code
// links the referral so the referrer is rewarded later.
type AuthService struct {
	store     QueryStore
	referrals *ReferralService
	tokens    TokenConfig
	currency  string
	now       func() time.Time
}

func NewAuthService(store QueryStore, referrals *ReferralService, tokens TokenConfig, defaultCurrency string) *AuthService {
	if defaultCurrency == "" {
		defaultCurrency = "USD"
	}
	if tokens.TTL <= 0 {
		tokens.TTL = 24 * time.Hour
	}
	return &AuthService{
		store:     store,
		referrals: referrals,
		tokens:    tokens,
		currency:  defaultCurrency,
		now:       time.Now,
	}
}

// Register creates a user with its account. The account starts with a zero
// balance, unverified KYC, no card, and a fresh referral code of its own.
func (s *AuthService) Register(ctx context.Context, username, email, password, referralCode string) (*models.User, *models.Account, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" || email == "" {
		return nil, nil, errors.New("username and email are required")
	}
	if len(password) < 8 {
		return nil, nil, errors.New("password must be at least 8 characters")
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, nil, err
	}
	number, err := domain.NewAccountNumber()
	if err != nil {
		return nil, nil, err
	}
	ownCode, err := domain.NewReferralCode()
	if err != nil {
		return nil, nil, err
	}

	user := &models.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
	}
	account := &models.Account{
		ID:           uuid.New(),
		UserID:       user.ID,
		Number:       number,
		Currency:     s.currency,
		KYCStatus:    domain.KYCStatusPending,
		ReferralCode: ownCode,
	}

	referralCode = strings.TrimSpace(referralCode)
	err = s.store.RunInTx(ctx, func(q repository.Querier) error {
		if _, err := q.GetUserByEmail(ctx, email); err == nil {
			return fmt.Errorf("email %s is already registered", email)
		} else if !errors.Is(err, models.ErrNotFound) {
			return err
		}
		// Validate the code before creating anything so a bad code fails
		// the registration cleanly.
		if referralCode != "" {
			if _, err := q.GetAccountByReferralCode(ctx, referralCode); err != nil {
				return fmt.Errorf("referral code %q: %w", referralCode, err)
			}
		}
		if err := q.CreateUser(ctx, user); err != nil {
			return err
		}
		if err := q.CreateAccount(ctx, account); err != nil {
			return err
		}
		if referralCode != "" {
			if _, err := s.referrals.Link(ctx, q, referralCode, account.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return user, account, nil
}

// Login verifies the password and returns a signed token. A missing user and
// a wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.store.Queries().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if !verifyPassword(password, user.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}
	token, err := s.mintToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *AuthService) mintToken(user *models.User) (string, error) {
	if s.tokens.Secret == "" {
		return "", errors.New("jwt secret is not configured")
	}
	now := s.now()
	claims := struct {
		UserID string `json:"user_id"`
		Role   string `json:"role"`
		jwt.RegisteredClaims
	}{
		UserID: user.ID.String(),
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    s.tokens.Issuer,
			Audience:  jwt.ClaimStrings{s.tokens.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokens.TTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.tokens.Secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func hashPassword(password string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	hash := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return base64.StdEncoding.EncodeToString(salt) + "$" + base64.StdEncoding.EncodeToString(hash), nil
}

func verifyPassword(password, encoded string) bool {
	parts := strings.Split(encoded, "$")
	if len(parts) != 2 {
		return false
	}
	salt, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return false
	}
	want, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return false
	}
	got := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	if len(got) != len(want) {
		return false
	}
	diff := byte(0)
	for i := range got {
		diff |= got[i] ^ want[i]
	}
	return diff == 0
}
