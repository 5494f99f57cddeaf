package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMoneyString(t *testing.T) {
	assert.Equal(t, "102.45 USD", NewMoney(10245, "USD").String())
	assert.Equal(t, "0.05 EUR", NewMoney(5, "EUR").String())
	assert.Equal(t, "-3.00 USD", NewMoney(-300, "USD").String())
}

func TestFromDecimalRounds(t *testing.T) {
	assert.Equal(t, int64(10245), FromDecimal(decimal.RequireFromString("102.45")))
	assert.Equal(t, int64(10), FromDecimal(decimal.RequireFromString("0.099")))
	assert.Equal(t, int64(0), FromDecimal(decimal.Zero))
}

func TestToDecimalRoundTrip(t *testing.T) {
	m := NewMoney(123456789, "USD")
	assert.Equal(t, int64(123456789), FromDecimal(m.ToDecimal()))
}
