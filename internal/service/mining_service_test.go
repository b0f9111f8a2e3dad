package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/chancov/WebAppMiningGameTG/internal/domain"
	"github.com/chancov/WebAppMiningGameTG/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiningStartThenStatusIsLocked(t *testing.T) {
	e := newEnv(t)
	e.register(t, "A")
	ctx := context.Background()

	st, err := e.mining.Start(ctx, "A")
	require.NoError(t, err)
	require.NotNil(t, st.LockedUntil)
	assert.True(t, st.LockedUntil.Equal(e.clock.Now().Add(8*time.Hour)))
	assert.True(t, st.PendingClaim.IsZero())

	status, err := e.mining.Status(ctx, "A")
	require.NoError(t, err)
	assert.True(t, status.Locked)
	assert.Equal(t, int64(28800), status.SecondsLeft)
	assert.True(t, status.PendingClaim.IsZero())
}

func TestMiningLevelZeroRewardIsThirtyFivePercent(t *testing.T) {
	e := newEnv(t)
	e.register(t, "A")
	e.setBalance(t, "A", "123.45")
	ctx := context.Background()

	_, err := e.mining.Start(ctx, "A")
	require.NoError(t, err)

	e.clock.Advance(8 * time.Hour)
	st, err := e.mining.Status(ctx, "A")
	require.NoError(t, err)
	assert.False(t, st.Locked)
	// 123.45 * 0.35 = 43.2075
	assert.Equal(t, "43.21", st.PendingClaim.String())

	res, err := e.mining.Claim(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, "43.21", res.Claimed.String())
	assert.Equal(t, "166.66", res.Balance.String())

	_, err = e.mining.Claim(ctx, "A")
	assert.ErrorIs(t, err, domain.ErrNothingToClaim)

	assert.Equal(t, []string{
		events.TypeAccountRegistered,
		events.TypeMiningStarted,
		events.TypeMiningClaimable,
		events.TypeMiningClaimed,
	}, e.events.types())
}

func TestMiningRewardUsesBalanceAndLevelsAtObservation(t *testing.T) {
	e := newEnv(t)
	e.register(t, "A")
	e.setBalance(t, "A", "1000")
	ctx := context.Background()

	_, err := e.mining.Start(ctx, "A")
	require.NoError(t, err)

	// bought during the lock: 1000 - 100 = 900 balance, income level 1
	_, err = e.upgrades.Purchase(ctx, "A", domain.UpgradeIncome)
	require.NoError(t, err)

	e.clock.Advance(10 * time.Hour)
	st, err := e.mining.Status(ctx, "A")
	require.NoError(t, err)
	// 900 * 0.35 * 1.08
	assert.Equal(t, "340.2", st.PendingClaim.String())

	// later observations keep the stored value
	e.setBalance(t, "A", "5")
	st, err = e.mining.Status(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, "340.2", st.PendingClaim.String())
}

func TestMiningSpeedUpgradeShortensCycle(t *testing.T) {
	e := newEnv(t)
	e.register(t, "A")
	e.setBalance(t, "A", "1000")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := e.upgrades.Purchase(ctx, "A", domain.UpgradeSpeed)
		require.NoError(t, err)
	}

	st, err := e.mining.Start(ctx, "A")
	require.NoError(t, err)
	// 28800 * 0.85
	assert.Equal(t, int64(24480), st.SecondsLeft)
}

func TestMiningStartRejections(t *testing.T) {
	e := newEnv(t)
	e.register(t, "A")
	ctx := context.Background()

	_, err := e.mining.Start(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	_, err = e.mining.Start(ctx, "A")
	require.NoError(t, err)
	_, err = e.mining.Start(ctx, "A")
	assert.ErrorIs(t, err, domain.ErrAlreadyLocked)

	_, err = e.mining.Claim(ctx, "A")
	assert.ErrorIs(t, err, domain.ErrNothingToClaim)

	e.clock.Advance(8 * time.Hour)
	_, err = e.mining.Status(ctx, "A")
	require.NoError(t, err)

	_, err = e.mining.Start(ctx, "A")
	assert.ErrorIs(t, err, domain.ErrClaimPending)
}

func TestMiningZeroBalanceReturnsToIdle(t *testing.T) {
	e := newEnv(t)
	e.register(t, "A")
	e.setBalance(t, "A", "0")
	ctx := context.Background()

	_, err := e.mining.Start(ctx, "A")
	require.NoError(t, err)
	e.clock.Advance(8 * time.Hour)

	st, err := e.mining.Status(ctx, "A")
	require.NoError(t, err)
	assert.True(t, st.PendingClaim.IsZero())

	_, err = e.mining.Claim(ctx, "A")
	assert.ErrorIs(t, err, domain.ErrNothingToClaim)

	_, err = e.mining.Start(ctx, "A")
	assert.NoError(t, err)
}

func TestConcurrentMiningStartLocksOnce(t *testing.T) {
	e := newEnv(t)
	e.register(t, "A")
	const n = 20

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ok      int
		locked  int
		unknown int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.mining.Start(context.Background(), "A")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrAlreadyLocked):
				locked++
			default:
				unknown++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, locked)
	assert.Zero(t, unknown)
}
