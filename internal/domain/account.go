package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// balances go over the wire as JSON numbers, like the original client expects
	decimal.MarshalJSONWithoutQuotes = true
}

// SignupBonus is credited to every new account and, separately, to the inviter
// named by a valid referral code.
var SignupBonus = decimal.NewFromInt(25)

// MaxIdentityLength matches the identity column width.
const MaxIdentityLength = 32

// Account is one per external (Telegram) identity.
type Account struct {
	ID           int64           `db:"id" json:"user_id"`
	Identity     string          `db:"telegram_id" json:"telegram_id"`
	FirstName    string          `db:"first_name" json:"first_name"`
	LastName     string          `db:"last_name" json:"last_name"`
	AvatarRef    string          `db:"photo_url" json:"photo_url"`
	Balance      decimal.Decimal `db:"balance" json:"balance"`
	ReferralCode string          `db:"ref_code" json:"ref_code"`
	InvitedBy    *int64          `db:"ref_by" json:"ref_by"`
	CosmeticRef  string          `db:"card_bg" json:"card_bg"`

	LastMiningStartedAt *time.Time      `db:"last_mining_at" json:"-"`
	MiningLockedUntil   *time.Time      `db:"mining_locked_until" json:"-"`
	PendingClaim        decimal.Decimal `db:"pending_claim" json:"-"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// PublicProfile is what other users may see about an account.
type PublicProfile struct {
	ID          int64  `json:"user_id"`
	Identity    string `json:"telegram_id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	AvatarRef   string `json:"photo_url"`
	CosmeticRef string `json:"card_bg"`
}

func (a *Account) Public() PublicProfile {
	return PublicProfile{
		ID:          a.ID,
		Identity:    a.Identity,
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		AvatarRef:   a.AvatarRef,
		CosmeticRef: a.CosmeticRef,
	}
}

// Credit adds a positive amount to the balance.
func (a *Account) Credit(amount decimal.Decimal) {
	a.Balance = a.Balance.Add(amount)
}

// Debit removes amount from the balance, refusing to go negative.
func (a *Account) Debit(amount decimal.Decimal) error {
	if a.Balance.LessThan(amount) {
		return ErrInsufficientBalance
	}
	a.Balance = a.Balance.Sub(amount)
	return nil
}

// DaysPlayed counts the calendar span since registration, starting at 1 on the first day.
func (a *Account) DaysPlayed(now time.Time) int {
	return int(now.Sub(a.CreatedAt)/(24*time.Hour)) + 1
}

// ValidateIdentity checks the external identity key.
func ValidateIdentity(identity string) error {
	if identity == "" || len(identity) > MaxIdentityLength {
		return ErrInvalidIdentity
	}
	return nil
}

// ValidateAmount accepts strictly positive amounts with at most two fractional digits.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !amount.Equal(amount.Truncate(2)) {
		return ErrInvalidAmount
	}
	return nil
}
