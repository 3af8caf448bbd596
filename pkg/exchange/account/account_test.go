package account

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestDepositWithdraw(t *testing.T) {
	a := New()
	require.NoError(t, a.Deposit("USDT", d("5250.00")))
	require.NoError(t, a.Deposit("BTC", d("2.3456")))

	require.NoError(t, a.Withdraw("USDT", d("250.00")))
	assert.True(t, a.Balance("USDT").Equal(d("5000.00")))
	assert.True(t, a.Balance("BTC").Equal(d("2.3456")))
	assert.True(t, a.Balance("ETH").IsZero())
}

func TestWithdrawShortFailsWithoutMutation(t *testing.T) {
	a := New()
	require.NoError(t, a.Deposit("USDT", d("100")))

	err := a.Withdraw("USDT", d("100.01"))
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.True(t, a.Balance("USDT").Equal(d("100")))
}

func TestInvalidAmounts(t *testing.T) {
	a := New()
	assert.ErrorIs(t, a.Deposit("USDT", d("0")), ErrInvalidAmount)
	assert.ErrorIs(t, a.Deposit("USDT", d("-5")), ErrInvalidAmount)
	assert.ErrorIs(t, a.Withdraw("USDT", d("0")), ErrInvalidAmount)
}

func TestBalancesOmitsZero(t *testing.T) {
	a := New()
	require.NoError(t, a.Deposit("USDT", d("10")))
	require.NoError(t, a.Deposit("BTC", d("1")))
	require.NoError(t, a.Withdraw("BTC", d("1")))

	got := a.Balances()
	assert.Len(t, got, 1)
	assert.True(t, got["USDT"].Equal(d("10")))

	// The map is a copy.
	got["USDT"] = d("0")
	assert.True(t, a.Balance("USDT").Equal(d("10")))
}
