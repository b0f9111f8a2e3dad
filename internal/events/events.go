// Package events carries committed economy changes to whoever listens:
// the message broker and connected websocket clients.
package events

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Event types. They double as AMQP routing keys.
const (
	TypeAccountRegistered = "account.registered"
	TypeReferralBonus     = "referral.bonus"
	TypeMiningStarted     = "mining.started"
	TypeMiningClaimable   = "mining.claimable"
	TypeMiningClaimed     = "mining.claimed"
	TypeUpgradePurchased  = "upgrade.purchased"
	TypeCosmeticPurchased = "cosmetic.purchased"
	TypeTransferSent      = "transfer.sent"
	TypeTransferReceived  = "transfer.received"
	TypeRewardCredited    = "reward.credited"
)

// Event describes a change that has already been committed.
type Event struct {
	Type      string          `json:"type"`
	AccountID int64           `json:"user_id"`
	Identity  string          `json:"telegram_id"`
	Amount    decimal.Decimal `json:"amount"`
	Balance   decimal.Decimal `json:"balance"`
	Data      map[string]any  `json:"data,omitempty"`
	At        time.Time       `json:"at"`
}

// Publisher delivers events. Delivery is best effort; failures are logged by the
// implementation and never undo the committed change.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Event) {}

// Nop drops every event.
func Nop() Publisher { return nopPublisher{} }

// Multi fans one event out to several publishers in order.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) {
	for _, p := range m {
		if p != nil {
			p.Publish(ctx, e)
		}
	}
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, e Event)

func (f PublisherFunc) Publish(ctx context.Context, e Event) { f(ctx, e) }
