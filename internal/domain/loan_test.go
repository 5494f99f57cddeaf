package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMonthlyPayment(t *testing.T) {
	// 12000.00 at 5% annual over 1 year: P*r*(1+r)^n/((1+r)^n-1) with
	// r = 0.05/12 and n = 12 gives 1027.29 per month.
	got := MonthlyPayment(1200000, decimal.NewFromInt(5), 1)
	assert.Equal(t, int64(102729), got)
}

func TestMonthlyPaymentZeroRate(t *testing.T) {
	// Interest-free loans divide the principal evenly.
	got := MonthlyPayment(1200000, decimal.Zero, 1)
	assert.Equal(t, int64(100000), got)

	got = MonthlyPayment(1200000, decimal.Zero, 2)
	assert.Equal(t, int64(50000), got)
}

func TestMonthlyPaymentLongerTermCostsLessPerMonth(t *testing.T) {
	oneYear := MonthlyPayment(1000000, decimal.NewFromInt(8), 1)
	fiveYears := MonthlyPayment(1000000, decimal.NewFromInt(8), 5)
	assert.Less(t, fiveYears, oneYear)

	// But more in total.
	assert.Greater(t, fiveYears*60, oneYear*12)
}

func TestMonthlyPaymentHigherRateCostsMore(t *testing.T) {
	cheap := MonthlyPayment(1000000, decimal.NewFromInt(3), 2)
	dear := MonthlyPayment(1000000, decimal.NewFromInt(12), 2)
	assert.Greater(t, dear, cheap)
}
