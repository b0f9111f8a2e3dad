package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpgradePrice(t *testing.T) {
	tests := []struct {
		typ   UpgradeType
		level int
		want  int64
	}{
		{UpgradeSpeed, 0, 50},
		{UpgradeSpeed, 1, 90},
		{UpgradeSpeed, 2, 162},
		{UpgradeSpeed, 3, 291},
		{UpgradeIncome, 0, 100},
		{UpgradeIncome, 1, 220},
		{UpgradeIncome, 3, 1064},
		{UpgradeMultiplier, 0, 500},
		{UpgradeMultiplier, 2, 3125},
	}
	for _, tt := range tests {
		got, err := UpgradePrice(tt.typ, tt.level)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got.IntPart(), "%s level %d", tt.typ, tt.level)
	}
}

func TestUpgradePriceStrictlyIncreases(t *testing.T) {
	for _, spec := range UpgradeCatalog {
		prev := spec.Price(0)
		for level := 1; level < 15; level++ {
			next := spec.Price(level)
			assert.True(t, next.GreaterThan(prev), "%s level %d", spec.Type, level)
			prev = next
		}
	}
}

func TestUpgradeEffectIdentityAtLevelZero(t *testing.T) {
	for _, spec := range UpgradeCatalog {
		assert.True(t, spec.Effect(0).Equal(decimal.NewFromInt(1)), spec.Type)
	}
}

func TestSpeedEffectFloorsAtThirtyPercent(t *testing.T) {
	assert.Equal(t, "0.9", speedEffect(2).String())
	assert.Equal(t, "0.3", speedEffect(14).String())
	assert.Equal(t, "0.3", speedEffect(100).String())
}

func TestLookupUnknownUpgrade(t *testing.T) {
	_, err := UpgradePrice("luck", 0)
	assert.ErrorIs(t, err, ErrInvalidUpgradeType)
	assert.True(t, IsKind(err, KindInvalidInput))
}

func TestViewUpgrades(t *testing.T) {
	views := ViewUpgrades(UpgradeLevels{UpgradeIncome: 2})
	require.Len(t, views, 3)

	assert.Equal(t, UpgradeSpeed, views[0].Type)
	assert.Equal(t, 0, views[0].Level)
	assert.Equal(t, int64(50), views[0].NextPrice)
	assert.Equal(t, 1.0, views[0].Effect)

	assert.Equal(t, UpgradeIncome, views[1].Type)
	assert.Equal(t, 2, views[1].Level)
	assert.Equal(t, int64(484), views[1].NextPrice)
	assert.InDelta(t, 1.16, views[1].Effect, 1e-9)
}
