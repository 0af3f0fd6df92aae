package commission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedule_Calculate(t *testing.T) {
	b, err := DefaultSchedule.Calculate(8_800_000)
	require.NoError(t, err)

	assert.Equal(t, int64(8_800_000), b.TotalPrice)
	assert.Equal(t, int64(88_000), b.TokenAmount)
	assert.Equal(t, int64(176_000), b.TotalCommission)
	assert.Equal(t, int64(105_600), b.AgentShare)
	assert.Equal(t, int64(70_400), b.PlatformShare)
	assert.Equal(t, int64(8_624_000), b.SellerProceeds)
}

func TestSchedule_Calculate_SharesSumExactly(t *testing.T) {
	// prices chosen so the agent share rounds down; the platform
	// absorbs the remainder
	for _, price := range []int64{1, 99, 101, 333_333, 7_777_777, 8_800_001} {
		b, err := DefaultSchedule.Calculate(price)
		require.NoError(t, err)
		assert.Equal(t, b.TotalCommission, b.AgentShare+b.PlatformShare, "price %d", price)
		assert.Equal(t, price, b.SellerProceeds+b.TotalCommission, "price %d", price)
	}
}

func TestSchedule_Calculate_InvalidPrice(t *testing.T) {
	_, err := DefaultSchedule.Calculate(0)
	assert.Error(t, err)
	_, err = DefaultSchedule.Calculate(-100)
	assert.Error(t, err)
}

func TestSchedule_Validate(t *testing.T) {
	assert.NoError(t, DefaultSchedule.Validate())

	bad := Schedule{CommissionBps: 10001}
	assert.Error(t, bad.Validate())

	bad = Schedule{CommissionBps: 200, AgentShareBps: -1}
	assert.Error(t, bad.Validate())

	bad = Schedule{CommissionBps: 200, AgentShareBps: 6000, PlatformFeeBps: 20000}
	assert.Error(t, bad.Validate())
}

func TestSchedule_Calculate_InvalidSchedule(t *testing.T) {
	bad := Schedule{CommissionBps: 10001}
	_, err := bad.Calculate(1_000_000)
	assert.Error(t, err)
}
