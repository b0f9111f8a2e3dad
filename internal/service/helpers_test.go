package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/chancov/WebAppMiningGameTG/internal/domain"
	"github.com/chancov/WebAppMiningGameTG/internal/events"
	"github.com/chancov/WebAppMiningGameTG/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, e events.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type env struct {
	store    *repository.MemoryStore
	clock    *fakeClock
	events   *recorder
	accounts *AccountService
	mining   *MiningService
	upgrades *UpgradeService
	transfer *TransferService
	shop     *ShopService
	audit    *AuditService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := repository.NewMemoryStore()
	clock := &fakeClock{now: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)}
	rec := &recorder{}

	audit := NewAuditService(store)
	audit.Now = clock.Now
	deps := Deps{Audit: audit, Events: rec, Now: clock.Now}

	e := &env{
		store:    store,
		clock:    clock,
		events:   rec,
		accounts: NewAccountService(store, deps),
		mining:   NewMiningService(store, deps),
		upgrades: NewUpgradeService(store, deps),
		transfer: NewTransferService(store, deps, false),
		shop:     NewShopService(store, deps),
		audit:    audit,
	}
	_, err := e.shop.Bootstrap(context.Background())
	require.NoError(t, err)
	return e
}

func (e *env) register(t *testing.T, identity string) *domain.Account {
	t.Helper()
	res, err := e.accounts.Register(context.Background(), RegisterInput{Identity: identity, FirstName: "user" + identity})
	require.NoError(t, err)
	return res.Account
}

// setBalance overwrites a balance directly in the store.
func (e *env) setBalance(t *testing.T, identity string, balance string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.store.InTx(ctx, func(q repository.Queries) error {
		acc, err := q.LockAccount(ctx, identity)
		if err != nil {
			return err
		}
		acc.Balance = decimal.RequireFromString(balance)
		return q.UpdateAccount(ctx, acc)
	}))
}

func (e *env) balance(t *testing.T, identity string) decimal.Decimal {
	t.Helper()
	acc, err := e.accounts.Profile(context.Background(), identity)
	require.NoError(t, err)
	return acc.Balance
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
