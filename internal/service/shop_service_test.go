package service

import (
	"context"
	"testing"

	"github.com/chancov/WebAppMiningGameTG/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBootstrapIsIdempotent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	n, err := e.shop.Bootstrap(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	items, err := e.shop.Catalog(ctx)
	require.NoError(t, err)
	require.Len(t, items, 9)
	assert.Equal(t, "BG 9", items[8].Name)
	assert.Equal(t, "/static/profile_backgrounds/bg9.png", items[8].ImageRef)
	assert.True(t, items[8].Price.Equal(dec("1")))
}

func TestBuyCosmeticTwice(t *testing.T) {
	e := newEnv(t)
	e.register(t, "A")
	ctx := context.Background()

	bal, err := e.shop.Buy(ctx, "A", 2)
	require.NoError(t, err)
	assert.Equal(t, "24", bal.String())

	_, err = e.shop.Buy(ctx, "A", 2)
	assert.ErrorIs(t, err, domain.ErrAlreadyOwned)
	assert.True(t, e.balance(t, "A").Equal(dec("24")))

	owned, err := e.shop.Owned(ctx, "A")
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, int64(2), owned[0].ID)
}

func TestBuyCosmeticRejections(t *testing.T) {
	e := newEnv(t)
	e.register(t, "A")
	e.setBalance(t, "A", "0.5")
	ctx := context.Background()

	_, err := e.shop.Buy(ctx, "A", 99)
	assert.ErrorIs(t, err, domain.ErrItemNotFound)

	_, err = e.shop.Buy(ctx, "missing", 1)
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	_, err = e.shop.Buy(ctx, "A", 1)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	owned, err := e.shop.Owned(ctx, "A")
	require.NoError(t, err)
	assert.Empty(t, owned)
}
