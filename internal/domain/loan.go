package domain

import (
	"github.com/shopspring/decimal"
)

// MonthlyPayment computes the amortized monthly payment for a loan of
// principalCents at annualRatePercent over termYears:
//
//	P * r * (1+r)^n / ((1+r)^n - 1)
//
// where r is the monthly rate and n the number of monthly installments.
// The result is rounded to the cent. A zero rate degenerates to P / n.
func MonthlyPayment(principalCents int64, annualRatePercent decimal.Decimal, termYears int) int64 {
	if principalCents <= 0 || termYears <= 0 {
		return 0
	}

	n := int64(termYears) * 12
	principal := decimal.NewFromInt(principalCents).Div(decimal.NewFromInt(100))

	if annualRatePercent.IsZero() {
		return FromDecimal(principal.Div(decimal.NewFromInt(n)))
	}

	monthlyRate := annualRatePercent.
		Div(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(12))

	growth := decimal.NewFromInt(1).Add(monthlyRate).Pow(decimal.NewFromInt(n))
	payment := principal.
		Mul(monthlyRate).
		Mul(growth).
		Div(growth.Sub(decimal.NewFromInt(1)))

	return FromDecimal(payment)
}
