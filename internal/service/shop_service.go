package service

import (
	"context"

	"github.com/chancov/WebAppMiningGameTG/internal/domain"
	"github.com/chancov/WebAppMiningGameTG/internal/events"
	"github.com/chancov/WebAppMiningGameTG/internal/logger"
	"github.com/chancov/WebAppMiningGameTG/internal/metrics"
	"github.com/chancov/WebAppMiningGameTG/internal/repository"

	"github.com/shopspring/decimal"
)

// ShopService sells cosmetic card backgrounds.
type ShopService struct {
	store repository.Store
	deps  Deps
}

func NewShopService(store repository.Store, deps Deps) *ShopService {
	return &ShopService{store: store, deps: deps.withDefaults(store)}
}

// Bootstrap seeds the default catalog when it is empty. It must run once
// before the API accepts traffic; running it again is a no-op.
func (s *ShopService) Bootstrap(ctx context.Context) (int, error) {
	var n int
	err := s.store.InTx(ctx, func(q repository.Queries) error {
		var err error
		n, err = q.SeedCosmetics(ctx, domain.DefaultCosmetics())
		return err
	})
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logger.Info("cosmetic catalog seeded", "items", n)
	}
	return n, nil
}

func (s *ShopService) Catalog(ctx context.Context) ([]domain.CosmeticItem, error) {
	var items []domain.CosmeticItem
	err := s.store.InTx(ctx, func(q repository.Queries) error {
		var err error
		items, err = q.ListCosmetics(ctx)
		return err
	})
	return items, err
}

// Buy debits the item price and records ownership. Each item can be owned once.
func (s *ShopService) Buy(ctx context.Context, identity string, itemID int64) (decimal.Decimal, error) {
	now := s.deps.now()
	var (
		balance decimal.Decimal
		price   decimal.Decimal
		out     outbox
	)
	err := s.store.InTx(ctx, func(q repository.Queries) error {
		acc, err := q.LockAccount(ctx, identity)
		if err != nil {
			return err
		}
		item, err := q.GetCosmetic(ctx, itemID)
		if err != nil {
			return err
		}
		owned, err := q.OwnsCosmetic(ctx, acc.ID, item.ID)
		if err != nil {
			return err
		}
		if owned {
			return domain.ErrAlreadyOwned
		}
		if err := acc.Debit(item.Price); err != nil {
			return err
		}
		if err := q.AddOwnedCosmetic(ctx, acc.ID, item.ID); err != nil {
			return err
		}
		if err := q.UpdateAccount(ctx, acc); err != nil {
			return err
		}
		if err := s.deps.Audit.LogBalanceChange(ctx, q, acc, domain.AuditActionCosmeticBuy, domain.AuditCategoryShop, item.Price.Neg(), map[string]interface{}{
			"item_id": item.ID,
			"name":    item.Name,
		}); err != nil {
			return err
		}
		balance = acc.Balance
		price = item.Price
		out.add(events.TypeCosmeticPurchased, acc, item.Price, now, map[string]any{"item_id": item.ID})
		return nil
	})
	if err != nil {
		return decimal.Zero, observe(err)
	}

	metrics.CurrencySpent.WithLabelValues("cosmetic").Add(metrics.Amount(price))
	out.flush(ctx, s.deps.Events)
	return balance, nil
}

// Owned lists the items identity has bought, in purchase order.
func (s *ShopService) Owned(ctx context.Context, identity string) ([]domain.CosmeticItem, error) {
	var items []domain.CosmeticItem
	err := s.store.InTx(ctx, func(q repository.Queries) error {
		acc, err := q.GetAccount(ctx, identity)
		if err != nil {
			return err
		}
		items, err = q.OwnedCosmetics(ctx, acc.ID)
		return err
	})
	return items, observe(err)
}
