package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BaseMiningDuration is the cycle length with no speed upgrade.
const BaseMiningDuration = 8 * time.Hour

// MiningRewardRate is the share of the current balance paid per cycle.
var MiningRewardRate = decimal.RequireFromString("0.35")

// MiningState is derived from the account's mining fields.
type MiningState string

const (
	MiningIdle      MiningState = "idle"
	MiningLocked    MiningState = "locked"
	MiningExpired   MiningState = "expired"
	MiningClaimable MiningState = "claimable"
)

// MiningStateAt reports where the account is in the mining cycle at now. Expired means
// the lock ran out but the reward has not been evaluated yet.
func (a *Account) MiningStateAt(now time.Time) MiningState {
	if a.MiningLockedUntil != nil && a.MiningLockedUntil.After(now) {
		return MiningLocked
	}
	if a.PendingClaim.IsPositive() {
		return MiningClaimable
	}
	if a.MiningLockedUntil != nil {
		return MiningExpired
	}
	return MiningIdle
}

// MiningDuration applies the speed upgrade to the base cycle, truncated to whole seconds.
func MiningDuration(speedLevel int) time.Duration {
	base := decimal.NewFromInt(int64(BaseMiningDuration / time.Second))
	secs := base.Mul(speedEffect(speedLevel)).Floor().IntPart()
	return time.Duration(secs) * time.Second
}

// MiningReward is balance * rate * income * multiplier rounded to cents.
func MiningReward(balance decimal.Decimal, incomeLevel, multiplierLevel int) decimal.Decimal {
	reward := balance.Mul(MiningRewardRate)
	reward = reward.Mul(incomeEffect(incomeLevel))
	reward = reward.Mul(multiplierEffect(multiplierLevel))
	return reward.Round(2)
}

// StartMining moves an idle account into the locked state.
func (a *Account) StartMining(speedLevel int, now time.Time) error {
	if a.MiningLockedUntil != nil && a.MiningLockedUntil.After(now) {
		return ErrAlreadyLocked
	}
	if a.PendingClaim.IsPositive() {
		return ErrClaimPending
	}
	started := now
	until := now.Add(MiningDuration(speedLevel))
	a.LastMiningStartedAt = &started
	a.MiningLockedUntil = &until
	a.PendingClaim = decimal.Zero
	return nil
}

// EvaluateMining is the evaluate-on-read transition: once the lock has expired
// and nothing is pending, the reward is computed from the balance as it is now
// and stored as the pending claim. It reports whether the account changed.
func (a *Account) EvaluateMining(levels UpgradeLevels, now time.Time) bool {
	if a.MiningLockedUntil == nil || a.MiningLockedUntil.After(now) {
		return false
	}
	if !a.PendingClaim.IsZero() {
		return false
	}
	reward := MiningReward(a.Balance, levels.Level(UpgradeIncome), levels.Level(UpgradeMultiplier))
	if !reward.IsPositive() {
		return false
	}
	a.PendingClaim = reward
	return true
}

// ClaimMining credits the pending reward and returns the account to idle.
func (a *Account) ClaimMining(now time.Time) (decimal.Decimal, error) {
	if !a.PendingClaim.IsPositive() {
		return decimal.Zero, ErrNothingToClaim
	}
	if a.MiningLockedUntil != nil && a.MiningLockedUntil.After(now) {
		return decimal.Zero, ErrMiningNotFinished
	}
	claimed := a.PendingClaim
	a.Balance = a.Balance.Add(claimed)
	a.PendingClaim = decimal.Zero
	a.MiningLockedUntil = nil
	return claimed, nil
}

// MiningStatus is the read model returned by the status operation.
type MiningStatus struct {
	Locked       bool            `json:"locked"`
	SecondsLeft  int64           `json:"seconds_left"`
	LockedUntil  *time.Time      `json:"locked_until,omitempty"`
	Balance      decimal.Decimal `json:"balance"`
	PendingClaim decimal.Decimal `json:"pending_claim"`
}

// StatusAt snapshots the mining fields at now.
func (a *Account) StatusAt(now time.Time) MiningStatus {
	st := MiningStatus{
		LockedUntil:  a.MiningLockedUntil,
		Balance:      a.Balance,
		PendingClaim: a.PendingClaim,
	}
	if a.MiningLockedUntil != nil && a.MiningLockedUntil.After(now) {
		st.Locked = true
		st.SecondsLeft = int64(a.MiningLockedUntil.Sub(now) / time.Second)
	}
	return st
}
