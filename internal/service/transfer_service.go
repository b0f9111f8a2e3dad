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

// TransferService moves currency between accounts and credits rewards earned
// outside the economy (mini-games).
type TransferService struct {
	store repository.Store
	deps  Deps

	// AllowSelfTransfer permits sender == receiver: a net-zero move that still
	// writes one ledger entry.
	AllowSelfTransfer bool
}

func NewTransferService(store repository.Store, deps Deps, allowSelfTransfer bool) *TransferService {
	return &TransferService{
		store:             store,
		deps:              deps.withDefaults(store),
		AllowSelfTransfer: allowSelfTransfer,
	}
}

// Transfer moves amount from sender to receiver and returns the sender's new
// balance. Both rows are locked in ascending identity order.
func (s *TransferService) Transfer(ctx context.Context, senderIdentity, receiverIdentity string, amount decimal.Decimal) (decimal.Decimal, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return decimal.Zero, observe(err)
	}
	if senderIdentity == "" || receiverIdentity == "" {
		return decimal.Zero, observe(domain.ErrInvalidIdentity)
	}
	self := senderIdentity == receiverIdentity
	if self && !s.AllowSelfTransfer {
		return decimal.Zero, observe(domain.ErrSelfTransfer)
	}

	now := s.deps.now()
	var (
		balance decimal.Decimal
		out     outbox
	)
	err := s.store.InTx(ctx, func(q repository.Queries) error {
		sender, receiver, err := lockPair(ctx, q, senderIdentity, receiverIdentity)
		if err != nil {
			return err
		}

		if err := sender.Debit(amount); err != nil {
			return err
		}
		if self {
			receiver = sender
		}
		receiver.Credit(amount)

		if err := q.UpdateAccount(ctx, sender); err != nil {
			return err
		}
		if !self {
			if err := q.UpdateAccount(ctx, receiver); err != nil {
				return err
			}
		}

		tx := &domain.Transaction{
			SenderID:   sender.ID,
			ReceiverID: receiver.ID,
			Amount:     amount,
			Kind:       domain.TransactionKindTransfer,
			CreatedAt:  now,
		}
		if err := q.CreateTransaction(ctx, tx); err != nil {
			return err
		}

		if err := s.deps.Audit.LogBalanceChange(ctx, q, sender, domain.AuditActionTransferOut, domain.AuditCategoryTransfer, amount.Neg(), map[string]interface{}{
			"transaction_id": tx.ID,
			"to":             receiver.Identity,
		}); err != nil {
			return err
		}
		if err := s.deps.Audit.LogBalanceChange(ctx, q, receiver, domain.AuditActionTransferIn, domain.AuditCategoryTransfer, amount, map[string]interface{}{
			"transaction_id": tx.ID,
			"from":           sender.Identity,
		}); err != nil {
			return err
		}

		balance = sender.Balance
		out.add(events.TypeTransferSent, sender, amount, now, map[string]any{"to": receiver.Identity})
		out.add(events.TypeTransferReceived, receiver, amount, now, map[string]any{"from": sender.Identity})
		return nil
	})
	if err != nil {
		return decimal.Zero, observe(err)
	}

	metrics.Transfers.Inc()
	metrics.TransferVolume.Add(metrics.Amount(amount))
	logger.WithContext(ctx).Info("transfer completed",
		"from", senderIdentity, "to", receiverIdentity, "amount", amount.String())
	out.flush(ctx, s.deps.Events)
	return balance, nil
}

// lockPair locks both accounts in ascending identity order so two opposite
// transfers cannot deadlock. For a self transfer the row is locked once and
// returned as sender.
func lockPair(ctx context.Context, q repository.Queries, senderIdentity, receiverIdentity string) (*domain.Account, *domain.Account, error) {
	if senderIdentity == receiverIdentity {
		acc, err := q.LockAccount(ctx, senderIdentity)
		return acc, nil, err
	}

	first, second := senderIdentity, receiverIdentity
	if first > second {
		first, second = second, first
	}

	a, err := q.LockAccount(ctx, first)
	if err != nil {
		return nil, nil, err
	}
	b, err := q.LockAccount(ctx, second)
	if err != nil {
		return nil, nil, err
	}

	if a.Identity == senderIdentity {
		return a, b, nil
	}
	return b, a, nil
}

// History returns one page of the account's transfers, newest first.
// Pages start at 1; anything lower is treated as 1.
func (s *TransferService) History(ctx context.Context, identity string, page int) (*domain.HistoryPage, error) {
	if page < 1 {
		page = 1
	}

	res := domain.HistoryPage{Items: []domain.HistoryItem{}, Page: page}
	err := s.store.InTx(ctx, func(q repository.Queries) error {
		acc, err := q.GetAccount(ctx, identity)
		if err != nil {
			return err
		}
		total, err := q.CountTransactions(ctx, acc.ID)
		if err != nil {
			return err
		}
		res.Pages = domain.PageCount(total)
		if page > res.Pages {
			return nil
		}

		records, err := q.ListTransactions(ctx, acc.ID, domain.HistoryPageSize, (page-1)*domain.HistoryPageSize)
		if err != nil {
			return err
		}
		for _, rec := range records {
			res.Items = append(res.Items, rec.ViewFor(acc.ID))
		}
		return nil
	})
	if err != nil {
		return nil, observe(err)
	}
	return &res, nil
}

// AddExternalReward credits a reward earned outside the economy and returns
// the new balance.
func (s *TransferService) AddExternalReward(ctx context.Context, identity string, amount decimal.Decimal) (decimal.Decimal, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return decimal.Zero, observe(err)
	}

	now := s.deps.now()
	var (
		balance decimal.Decimal
		out     outbox
	)
	err := s.store.InTx(ctx, func(q repository.Queries) error {
		acc, err := q.LockAccount(ctx, identity)
		if err != nil {
			return err
		}
		acc.Credit(amount)
		if err := q.UpdateAccount(ctx, acc); err != nil {
			return err
		}
		if err := s.deps.Audit.LogBalanceChange(ctx, q, acc, domain.AuditActionExternalReward, domain.AuditCategoryReward, amount, nil); err != nil {
			return err
		}
		balance = acc.Balance
		out.add(events.TypeRewardCredited, acc, amount, now, nil)
		return nil
	})
	if err != nil {
		return decimal.Zero, observe(err)
	}

	metrics.CurrencyIssued.WithLabelValues("external").Add(metrics.Amount(amount))
	out.flush(ctx, s.deps.Events)
	return balance, nil
}
