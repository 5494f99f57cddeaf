package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BillerGateway issues the payment reference for a bill payment. It is
// called before the ledger debit so a gateway failure leaves no persisted
// side effect; the reference is recorded on the payment record.
type BillerGateway interface {
	PayBill(ctx context.Context, biller string, accountNumber string, amount int64, currency string) (string, error)
}

// MockBillerGateway simulates a biller network for local runs and tests.
// References are unique per call.
type MockBillerGateway struct{}

func NewMockBillerGateway() *MockBillerGateway {
	return &MockBillerGateway{}
}

// PayBill returns a reference of the form BILLER-YYYYMMDDHHMMSS-XXXXXXXX.
func (g *MockBillerGateway) PayBill(ctx context.Context, biller string, accountNumber string, amount int64, currency string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("biller call canceled: %w", err)
	}

	prefix := strings.ToUpper(strings.ReplaceAll(biller, " ", ""))
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	if prefix == "" {
		prefix = "BILL"
	}
	suffix := strings.ToUpper(uuid.NewString()[:8])
	ref := fmt.Sprintf("%s-%s-%s", prefix, time.Now().Format("20060102150405"), suffix)
	return ref, nil
}
