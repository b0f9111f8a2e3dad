package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/chancov/WebAppMiningGameTG/internal/domain"
	"github.com/chancov/WebAppMiningGameTG/internal/events"
	"github.com/chancov/WebAppMiningGameTG/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterNewAccount(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	res, err := e.accounts.Register(ctx, RegisterInput{Identity: "100", FirstName: "Ann", AvatarRef: "p.png"})
	require.NoError(t, err)

	assert.True(t, res.WasNew)
	assert.False(t, res.WasBonus)
	assert.True(t, res.Account.Balance.Equal(dec("25")))
	assert.Len(t, res.Account.ReferralCode, 8)
	assert.Nil(t, res.Account.InvitedBy)
	assert.Equal(t, []string{events.TypeAccountRegistered}, e.events.types())

	logs, err := e.audit.UserLogs(ctx, "100", 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, domain.AuditActionSignupBonus, logs[0].Action)
	assert.Equal(t, domain.AuditActionRegister, logs[1].Action)
}

func TestRegisterIsIdempotent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	first := e.register(t, "100")

	res, err := e.accounts.Register(ctx, RegisterInput{Identity: "100", FirstName: "Other"})
	require.NoError(t, err)
	assert.False(t, res.WasNew)
	assert.False(t, res.WasBonus)
	assert.Equal(t, first.ID, res.Account.ID)
	assert.Equal(t, first.ReferralCode, res.Account.ReferralCode)
	assert.Equal(t, "user100", res.Account.FirstName)
}

func TestRegisterRejectsBadIdentity(t *testing.T) {
	e := newEnv(t)

	_, err := e.accounts.Register(context.Background(), RegisterInput{})
	assert.ErrorIs(t, err, domain.ErrInvalidIdentity)

	_, err = e.accounts.Register(context.Background(), RegisterInput{Identity: "123456789012345678901234567890123"})
	assert.ErrorIs(t, err, domain.ErrInvalidIdentity)
}

func TestRegisterWithReferralCreditsInviter(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	inviter := e.register(t, "A")

	res, err := e.accounts.Register(ctx, RegisterInput{Identity: "B", ReferralCode: inviter.ReferralCode})
	require.NoError(t, err)

	assert.True(t, res.WasNew)
	assert.True(t, res.WasBonus)
	require.NotNil(t, res.Account.InvitedBy)
	assert.Equal(t, inviter.ID, *res.Account.InvitedBy)
	assert.True(t, res.Account.Balance.Equal(dec("25")))
	assert.True(t, e.balance(t, "A").Equal(dec("50")))

	refs, err := e.accounts.Referrals(ctx, "A")
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "B", refs[0].Identity)

	stats, err := e.accounts.Stats(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.NumReferrals)

	// registering again never pays twice
	again, err := e.accounts.Register(ctx, RegisterInput{Identity: "B", ReferralCode: inviter.ReferralCode})
	require.NoError(t, err)
	assert.False(t, again.WasBonus)
	assert.True(t, e.balance(t, "A").Equal(dec("50")))
}

func TestRegisterWithUnknownReferralCode(t *testing.T) {
	e := newEnv(t)
	e.register(t, "A")

	res, err := e.accounts.Register(context.Background(), RegisterInput{Identity: "B", ReferralCode: "nope"})
	require.NoError(t, err)
	assert.True(t, res.WasNew)
	assert.False(t, res.WasBonus)
	assert.Nil(t, res.Account.InvitedBy)
	assert.True(t, e.balance(t, "A").Equal(dec("25")))

	refs, err := e.accounts.Referrals(context.Background(), "A")
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestReferralCodeCollisionIsRetried(t *testing.T) {
	e := newEnv(t)
	e.accounts.newCode = sequence("aaaaaaaa", "aaaaaaaa", "bbbbbbbb")

	a := e.register(t, "A")
	b := e.register(t, "B")
	assert.Equal(t, "aaaaaaaa", a.ReferralCode)
	assert.Equal(t, "bbbbbbbb", b.ReferralCode)
}

// staleCodeQueries answers the code check as a transaction would that cannot
// see a concurrent, not yet committed registration.
type staleCodeQueries struct{ repository.Queries }

func (staleCodeQueries) ReferralCodeTaken(context.Context, string) (bool, error) { return false, nil }

type staleCodeStore struct{ *repository.MemoryStore }

func (s staleCodeStore) InTx(ctx context.Context, fn func(q repository.Queries) error) error {
	return s.MemoryStore.InTx(ctx, func(q repository.Queries) error { return fn(staleCodeQueries{q}) })
}

func TestReferralCodeConflictAtInsertIsRetried(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	svc := NewAccountService(staleCodeStore{store}, Deps{})
	svc.newCode = sequence("aaaaaaaa", "aaaaaaaa", "cccccccc")

	_, err := svc.Register(ctx, RegisterInput{Identity: "A"})
	require.NoError(t, err)

	res, err := svc.Register(ctx, RegisterInput{Identity: "B"})
	require.NoError(t, err)
	assert.True(t, res.WasNew)
	assert.Equal(t, "cccccccc", res.Account.ReferralCode)

	b, err := svc.Profile(ctx, "B")
	require.NoError(t, err)
	assert.Equal(t, "cccccccc", b.ReferralCode)
}

func TestReferralCodeGenerationGivesUp(t *testing.T) {
	e := newEnv(t)
	e.accounts.newCode = func() (string, error) { return "aaaaaaaa", nil }
	e.register(t, "A")

	_, err := e.accounts.Register(context.Background(), RegisterInput{Identity: "B"})
	assert.ErrorIs(t, err, errReferralCodeExhausted)

	_, err = e.accounts.Profile(context.Background(), "B")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestConcurrentRegistrationCreatesOneAccount(t *testing.T) {
	e := newEnv(t)
	const n = 16

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		newCnt int
		ids    = map[int64]bool{}
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := e.accounts.Register(context.Background(), RegisterInput{Identity: "same"})
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			ids[res.Account.ID] = true
			if res.WasNew {
				newCnt++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, newCnt)
	assert.Len(t, ids, 1)
}

func TestStatsDaysPlayed(t *testing.T) {
	e := newEnv(t)
	e.register(t, "A")

	stats, err := e.accounts.Stats(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.DaysPlayed)

	e.clock.Advance(50 * time.Hour)
	stats, err = e.accounts.Stats(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.DaysPlayed)

	_, err = e.accounts.Stats(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestSetCosmetic(t *testing.T) {
	e := newEnv(t)
	e.register(t, "A")
	ctx := context.Background()

	require.NoError(t, e.accounts.SetCosmetic(ctx, "A", "/static/profile_backgrounds/bg4.png"))
	acc, err := e.accounts.Profile(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, "/static/profile_backgrounds/bg4.png", acc.CosmeticRef)

	assert.ErrorIs(t, e.accounts.SetCosmetic(ctx, "", "x"), domain.ErrInvalidIdentity)
	assert.ErrorIs(t, e.accounts.SetCosmetic(ctx, "missing", "x"), domain.ErrAccountNotFound)
}

func TestRegisterRollsBackWhenAuditFails(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := NewAccountService(failingAuditStore{store}, Deps{})

	_, err := svc.Register(context.Background(), RegisterInput{Identity: "A"})
	require.Error(t, err)

	_, err = NewAccountService(store, Deps{}).Profile(context.Background(), "A")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

type failingAuditStore struct {
	repository.Store
}

func (s failingAuditStore) InTx(ctx context.Context, fn func(q repository.Queries) error) error {
	return s.Store.InTx(ctx, func(q repository.Queries) error {
		return fn(failingAuditQueries{q})
	})
}

type failingAuditQueries struct {
	repository.Queries
}

func (failingAuditQueries) CreateAuditLog(context.Context, *domain.AuditLog) error {
	return errors.New("audit unavailable")
}

func sequence(codes ...string) func() (string, error) {
	i := 0
	return func() (string, error) {
		c := codes[i]
		if i < len(codes)-1 {
			i++
		}
		return c, nil
	}
}
