package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const referralAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewAccountNumber generates a 10-digit account number. The first digit is
// never zero so numbers round-trip through systems that strip leading zeros.
func NewAccountNumber() (string, error) {
	var b strings.Builder
	first, err := randDigit(9)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(&b, "%d", first+1)
	for i := 1; i < 10; i++ {
		d, err := randDigit(10)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "%d", d)
	}
	return b.String(), nil
}

// NewReferralCode generates an 8-character code from an alphabet with the
// easily confused characters (0/O, 1/I) removed.
func NewReferralCode() (string, error) {
	code := make([]byte, 8)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(referralAlphabet))))
		if err != nil {
			return "", fmt.Errorf("generate referral code: %w", err)
		}
		code[i] = referralAlphabet[n.Int64()]
	}
	return string(code), nil
}
