package service

import (
	"context"
	"time"

	"github.com/chancov/WebAppMiningGameTG/internal/domain"
	"github.com/chancov/WebAppMiningGameTG/internal/events"
	"github.com/chancov/WebAppMiningGameTG/internal/metrics"
	"github.com/chancov/WebAppMiningGameTG/internal/repository"

	"github.com/shopspring/decimal"
)

// Deps are shared by every economy service.
type Deps struct {
	Audit  *AuditService
	Events events.Publisher
	Now    func() time.Time
}

func (d Deps) withDefaults(store repository.Store) Deps {
	if d.Events == nil {
		d.Events = events.Nop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Audit == nil {
		d.Audit = NewAuditService(store)
		d.Audit.Now = d.Now
	}
	return d
}

func (d Deps) now() time.Time {
	return d.Now().UTC()
}

// outbox collects events during a unit of work; they go out only after commit.
type outbox []events.Event

func (o *outbox) add(typ string, acc *domain.Account, amount decimal.Decimal, at time.Time, data map[string]any) {
	*o = append(*o, events.Event{
		Type:      typ,
		AccountID: acc.ID,
		Identity:  acc.Identity,
		Amount:    amount,
		Balance:   acc.Balance,
		Data:      data,
		At:        at,
	})
}

func (o outbox) flush(ctx context.Context, p events.Publisher) {
	for _, e := range o {
		p.Publish(ctx, e)
	}
}

// observe counts business-rule rejections and passes err through.
func observe(err error) error {
	if de, ok := domain.AsError(err); ok {
		metrics.RejectedOperations.WithLabelValues(de.Reason).Inc()
	}
	return err
}
