package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/chancov/WebAppMiningGameTG/internal/domain"
	"github.com/chancov/WebAppMiningGameTG/internal/migrations"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPgStore(t *testing.T) *PgStore {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}

	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, migrations.Apply(context.Background(), pool, nil))
	return NewPgStore(pool)
}

func uniqueIdentity() string {
	return uuid.NewString()[:24]
}

func TestPgStoreAccountRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newPgStore(t)

	identity := uniqueIdentity()
	code := uuid.NewString()[:8]
	until := time.Now().UTC().Add(time.Hour).Truncate(time.Microsecond)

	err := s.InTx(ctx, func(q Queries) error {
		a := &domain.Account{
			Identity:     identity,
			FirstName:    "Ann",
			ReferralCode: code,
			Balance:      decimal.RequireFromString("25.00"),
			CreatedAt:    time.Now().UTC(),
		}
		created, err := q.CreateAccount(ctx, a)
		require.NoError(t, err)
		require.True(t, created)

		again, err := q.CreateAccount(ctx, &domain.Account{Identity: identity, ReferralCode: code + "x", CreatedAt: time.Now()})
		require.NoError(t, err)
		assert.False(t, again)

		a.MiningLockedUntil = &until
		a.PendingClaim = decimal.RequireFromString("8.75")
		return q.UpdateAccount(ctx, a)
	})
	require.NoError(t, err)

	_ = s.InTx(ctx, func(q Queries) error {
		a, err := q.LockAccount(ctx, identity)
		require.NoError(t, err)
		assert.Equal(t, "Ann", a.FirstName)
		assert.True(t, a.Balance.Equal(decimal.NewFromInt(25)))
		assert.True(t, a.PendingClaim.Equal(decimal.RequireFromString("8.75")))
		require.NotNil(t, a.MiningLockedUntil)
		assert.True(t, a.MiningLockedUntil.Equal(until))

		byCode, err := q.LockAccountByReferralCode(ctx, code)
		require.NoError(t, err)
		assert.Equal(t, a.ID, byCode.ID)
		return nil
	})
}

func TestPgStoreUpgradeUpsert(t *testing.T) {
	ctx := context.Background()
	s := newPgStore(t)

	identity := uniqueIdentity()
	_ = s.InTx(ctx, func(q Queries) error {
		a := &domain.Account{Identity: identity, ReferralCode: uuid.NewString()[:8], CreatedAt: time.Now()}
		_, err := q.CreateAccount(ctx, a)
		require.NoError(t, err)

		require.NoError(t, q.SetUpgradeLevel(ctx, a.ID, domain.UpgradeIncome, 1))
		require.NoError(t, q.SetUpgradeLevel(ctx, a.ID, domain.UpgradeIncome, 2))

		levels, err := q.UpgradeLevels(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, levels.Level(domain.UpgradeIncome))
		assert.Equal(t, 0, levels.Level(domain.UpgradeSpeed))
		return nil
	})
}

func TestPgStoreDuplicateReferralCode(t *testing.T) {
	ctx := context.Background()
	s := newPgStore(t)
	code := uuid.NewString()[:8]

	require.NoError(t, s.InTx(ctx, func(q Queries) error {
		_, err := q.CreateAccount(ctx, &domain.Account{Identity: uniqueIdentity(), ReferralCode: code, CreatedAt: time.Now()})
		return err
	}))

	err := s.InTx(ctx, func(q Queries) error {
		_, err := q.CreateAccount(ctx, &domain.Account{Identity: uniqueIdentity(), ReferralCode: code, CreatedAt: time.Now()})
		return err
	})
	assert.ErrorIs(t, err, ErrReferralCodeTaken)
}
