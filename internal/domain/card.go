package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// CardDetails holds the credentials issued when a card request is approved.
type CardDetails struct {
	Number string
	Expiry time.Time
	CVV    string
}

const cardBIN = "411111"

// IssueCard generates a fresh 16-digit Luhn-valid card number, a CVV, and an
// expiry four years out.
func IssueCard(now time.Time) (CardDetails, error) {
	digits := make([]int, 16)
	for i, c := range cardBIN {
		digits[i] = int(c - '0')
	}
	for i := len(cardBIN); i < 15; i++ {
		d, err := randDigit(10)
		if err != nil {
			return CardDetails{}, err
		}
		digits[i] = d
	}
	digits[15] = luhnCheckDigit(digits[:15])

	number := ""
	for _, d := range digits {
		number += fmt.Sprintf("%d", d)
	}

	cvv, err := randDigit(1000)
	if err != nil {
		return CardDetails{}, err
	}

	return CardDetails{
		Number: number,
		Expiry: now.AddDate(4, 0, 0),
		CVV:    fmt.Sprintf("%03d", cvv),
	}, nil
}

func randDigit(max int64) (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(max))
	if err != nil {
		return 0, fmt.Errorf("generate digit: %w", err)
	}
	return int(n.Int64()), nil
}

func luhnCheckDigit(digits []int) int {
	sum := 0
	// Double every second digit from the right; the check digit position
	// itself is excluded.
	for i := len(digits) - 1; i >= 0; i-- {
		d := digits[i]
		if (len(digits)-i)%2 == 1 {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
	}
	return (10 - sum%10) % 10
}
