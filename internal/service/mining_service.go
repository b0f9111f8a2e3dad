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

// MiningService drives the mining cycle. There is no background timer: an
// expired lock turns into a claimable reward when Status observes it.
type MiningService struct {
	store repository.Store
	deps  Deps
}

func NewMiningService(store repository.Store, deps Deps) *MiningService {
	return &MiningService{store: store, deps: deps.withDefaults(store)}
}

// ClaimResult is returned by Claim.
type ClaimResult struct {
	Claimed decimal.Decimal `json:"claimed"`
	Balance decimal.Decimal `json:"balance"`
}

// Start locks the account for one mining cycle. The duration depends on the
// speed level at the time of the call.
func (s *MiningService) Start(ctx context.Context, identity string) (*domain.MiningStatus, error) {
	now := s.deps.now()
	var (
		st  domain.MiningStatus
		out outbox
	)
	err := s.store.InTx(ctx, func(q repository.Queries) error {
		acc, err := q.LockAccount(ctx, identity)
		if err != nil {
			return err
		}
		levels, err := q.UpgradeLevels(ctx, acc.ID)
		if err != nil {
			return err
		}
		if err := acc.StartMining(levels.Level(domain.UpgradeSpeed), now); err != nil {
			return err
		}
		if err := q.UpdateAccount(ctx, acc); err != nil {
			return err
		}
		if err := s.deps.Audit.Log(ctx, q, acc.ID, domain.AuditActionMiningStart, domain.AuditCategoryMining, map[string]interface{}{
			"locked_until": acc.MiningLockedUntil,
			"speed_level":  levels.Level(domain.UpgradeSpeed),
		}); err != nil {
			return err
		}
		st = acc.StatusAt(now)
		out.add(events.TypeMiningStarted, acc, decimal.Zero, now, map[string]any{"locked_until": acc.MiningLockedUntil})
		return nil
	})
	if err != nil {
		return nil, observe(err)
	}

	metrics.MiningStarted.Inc()
	out.flush(ctx, s.deps.Events)
	return &st, nil
}

// Status reports the cycle and performs the evaluate-on-read transition: the
// first observation after the lock expires computes the reward from the
// balance and upgrade levels as they are at that moment, and persists it.
func (s *MiningService) Status(ctx context.Context, identity string) (*domain.MiningStatus, error) {
	now := s.deps.now()
	var (
		st  domain.MiningStatus
		out outbox
	)
	err := s.store.InTx(ctx, func(q repository.Queries) error {
		acc, err := q.LockAccount(ctx, identity)
		if err != nil {
			return err
		}
		levels, err := q.UpgradeLevels(ctx, acc.ID)
		if err != nil {
			return err
		}
		if acc.EvaluateMining(levels, now) {
			if err := q.UpdateAccount(ctx, acc); err != nil {
				return err
			}
			out.add(events.TypeMiningClaimable, acc, acc.PendingClaim, now, nil)
		}
		st = acc.StatusAt(now)
		return nil
	})
	if err != nil {
		return nil, observe(err)
	}

	out.flush(ctx, s.deps.Events)
	return &st, nil
}

// Claim credits the pending reward and returns the account to idle.
func (s *MiningService) Claim(ctx context.Context, identity string) (*ClaimResult, error) {
	now := s.deps.now()
	var (
		res ClaimResult
		out outbox
	)
	err := s.store.InTx(ctx, func(q repository.Queries) error {
		acc, err := q.LockAccount(ctx, identity)
		if err != nil {
			return err
		}
		claimed, err := acc.ClaimMining(now)
		if err != nil {
			return err
		}
		if err := q.UpdateAccount(ctx, acc); err != nil {
			return err
		}
		if err := s.deps.Audit.LogBalanceChange(ctx, q, acc, domain.AuditActionMiningClaim, domain.AuditCategoryMining, claimed, nil); err != nil {
			return err
		}
		res = ClaimResult{Claimed: claimed, Balance: acc.Balance}
		out.add(events.TypeMiningClaimed, acc, claimed, now, nil)
		return nil
	})
	if err != nil {
		return nil, observe(err)
	}

	metrics.MiningClaimed.Inc()
	metrics.CurrencyIssued.WithLabelValues("mining").Add(metrics.Amount(res.Claimed))
	logger.WithContext(ctx).Debug("mining reward claimed", "telegram_id", identity, "amount", res.Claimed.String())
	out.flush(ctx, s.deps.Events)
	return &res, nil
}
