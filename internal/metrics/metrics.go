// Package metrics holds the economy counters exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

var (
	Registrations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "economy_registrations_total",
			Help: "Accounts created, by whether a referral bonus was paid",
		},
		[]string{"referred"},
	)
	MiningStarted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "economy_mining_started_total",
			Help: "Mining cycles started",
		},
	)
	MiningClaimed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "economy_mining_claimed_total",
			Help: "Mining rewards claimed",
		},
	)
	CurrencyIssued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "economy_currency_issued_total",
			Help: "Currency created, by source",
		},
		[]string{"source"},
	)
	CurrencySpent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "economy_currency_spent_total",
			Help: "Currency removed from circulation, by sink",
		},
		[]string{"sink"},
	)
	UpgradesPurchased = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "economy_upgrades_purchased_total",
			Help: "Upgrade levels bought, by type",
		},
		[]string{"type"},
	)
	Transfers = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "economy_transfers_total",
			Help: "Completed peer transfers",
		},
	)
	TransferVolume = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "economy_transfer_volume_total",
			Help: "Sum of transferred amounts",
		},
	)
	RejectedOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "economy_rejected_operations_total",
			Help: "Operations refused by a business rule, by reason",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(
		Registrations,
		MiningStarted,
		MiningClaimed,
		CurrencyIssued,
		CurrencySpent,
		UpgradesPurchased,
		Transfers,
		TransferVolume,
		RejectedOperations,
	)
}

// Amount converts a currency value for a float counter.
func Amount(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}
