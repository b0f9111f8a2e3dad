package service

import (
	"context"

	"github.com/chancov/WebAppMiningGameTG/internal/domain"
	"github.com/chancov/WebAppMiningGameTG/internal/events"
	"github.com/chancov/WebAppMiningGameTG/internal/metrics"
	"github.com/chancov/WebAppMiningGameTG/internal/repository"

	"github.com/shopspring/decimal"
)

type UpgradeService struct {
	store repository.Store
	deps  Deps
}

func NewUpgradeService(store repository.Store, deps Deps) *UpgradeService {
	return &UpgradeService{store: store, deps: deps.withDefaults(store)}
}

// PurchaseResult is returned by Purchase.
type PurchaseResult struct {
	Type    domain.UpgradeType `json:"type"`
	Level   int                `json:"level"`
	Price   decimal.Decimal    `json:"price"`
	Balance decimal.Decimal    `json:"balance"`
}

// Level returns the current level of t, 0 if never bought.
func (s *UpgradeService) Level(ctx context.Context, identity string, t domain.UpgradeType) (int, error) {
	if _, err := domain.LookupUpgrade(t); err != nil {
		return 0, observe(err)
	}
	var level int
	err := s.store.InTx(ctx, func(q repository.Queries) error {
		acc, err := q.GetAccount(ctx, identity)
		if err != nil {
			return err
		}
		levels, err := q.UpgradeLevels(ctx, acc.ID)
		if err != nil {
			return err
		}
		level = levels.Level(t)
		return nil
	})
	return level, observe(err)
}

// List renders the whole catalog for the account.
func (s *UpgradeService) List(ctx context.Context, identity string) ([]domain.UpgradeView, error) {
	var views []domain.UpgradeView
	err := s.store.InTx(ctx, func(q repository.Queries) error {
		acc, err := q.GetAccount(ctx, identity)
		if err != nil {
			return err
		}
		levels, err := q.UpgradeLevels(ctx, acc.ID)
		if err != nil {
			return err
		}
		views = domain.ViewUpgrades(levels)
		return nil
	})
	return views, observe(err)
}

// Purchase debits the price of the next level and raises the level by one,
// both in the same unit of work.
func (s *UpgradeService) Purchase(ctx context.Context, identity string, t domain.UpgradeType) (*PurchaseResult, error) {
	spec, err := domain.LookupUpgrade(t)
	if err != nil {
		return nil, observe(err)
	}

	now := s.deps.now()
	var (
		res PurchaseResult
		out outbox
	)
	err = s.store.InTx(ctx, func(q repository.Queries) error {
		acc, err := q.LockAccount(ctx, identity)
		if err != nil {
			return err
		}
		levels, err := q.UpgradeLevels(ctx, acc.ID)
		if err != nil {
			return err
		}

		current := levels.Level(t)
		price := spec.Price(current)
		if err := acc.Debit(price); err != nil {
			return err
		}
		if err := q.UpdateAccount(ctx, acc); err != nil {
			return err
		}
		if err := q.SetUpgradeLevel(ctx, acc.ID, t, current+1); err != nil {
			return err
		}
		if err := s.deps.Audit.LogBalanceChange(ctx, q, acc, domain.AuditActionUpgradeBuy, domain.AuditCategoryShop, price.Neg(), map[string]interface{}{
			"type":  string(t),
			"level": current + 1,
		}); err != nil {
			return err
		}

		res = PurchaseResult{Type: t, Level: current + 1, Price: price, Balance: acc.Balance}
		out.add(events.TypeUpgradePurchased, acc, price, now, map[string]any{"type": string(t), "level": current + 1})
		return nil
	})
	if err != nil {
		return nil, observe(err)
	}

	metrics.UpgradesPurchased.WithLabelValues(string(t)).Inc()
	metrics.CurrencySpent.WithLabelValues("upgrade").Add(metrics.Amount(res.Price))
	out.flush(ctx, s.deps.Events)
	return &res, nil
}
