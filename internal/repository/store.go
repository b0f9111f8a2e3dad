package repository

import (
	"context"
	"errors"

	"github.com/chancov/WebAppMiningGameTG/internal/domain"
)

// ErrReferralCodeTaken is returned by CreateAccount when another account
// already holds the referral code. The unit of work is no longer usable and
// must be retried as a whole.
var ErrReferralCodeTaken = errors.New("referral code already in use")

// Store runs units of work. Everything fn does through q commits together or not at all.
type Store interface {
	InTx(ctx context.Context, fn func(q Queries) error) error
	Ping(ctx context.Context) error
}

// Queries is the set of reads and writes available inside a unit of work.
// Lock* methods hold the row until the unit of work ends.
type Queries interface {
	// accounts
	CreateAccount(ctx context.Context, a *domain.Account) (bool, error)
	GetAccount(ctx context.Context, identity string) (*domain.Account, error)
	LockAccount(ctx context.Context, identity string) (*domain.Account, error)
	LockAccountByReferralCode(ctx context.Context, code string) (*domain.Account, error)
	ReferralCodeTaken(ctx context.Context, code string) (bool, error)
	UpdateAccount(ctx context.Context, a *domain.Account) error
	TopAccounts(ctx context.Context, limit int) ([]domain.Account, error)

	// upgrades
	UpgradeLevels(ctx context.Context, accountID int64) (domain.UpgradeLevels, error)
	SetUpgradeLevel(ctx context.Context, accountID int64, t domain.UpgradeType, level int) error

	// cosmetics
	SeedCosmetics(ctx context.Context, items []domain.CosmeticItem) (int, error)
	ListCosmetics(ctx context.Context) ([]domain.CosmeticItem, error)
	GetCosmetic(ctx context.Context, id int64) (*domain.CosmeticItem, error)
	OwnsCosmetic(ctx context.Context, accountID, itemID int64) (bool, error)
	AddOwnedCosmetic(ctx context.Context, accountID, itemID int64) error
	OwnedCosmetics(ctx context.Context, accountID int64) ([]domain.CosmeticItem, error)

	// transactions
	CreateTransaction(ctx context.Context, t *domain.Transaction) error
	CountTransactions(ctx context.Context, accountID int64) (int, error)
	ListTransactions(ctx context.Context, accountID int64, limit, offset int) ([]domain.TransferRecord, error)

	// referrals
	CreateReferral(ctx context.Context, r *domain.Referral) error
	ListReferrals(ctx context.Context, inviterID int64) ([]domain.PublicProfile, error)
	CountReferrals(ctx context.Context, inviterID int64) (int, error)

	// audit
	CreateAuditLog(ctx context.Context, l *domain.AuditLog) error
	AuditLogs(ctx context.Context, accountID int64, limit int) ([]domain.AuditLog, error)
}
