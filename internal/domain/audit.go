package domain

import "time"

// AuditLog represents an audit log entry for tracking balance movements
type AuditLog struct {
	ID        int64                  `db:"id" json:"id"`
	UserID    int64                  `db:"user_id" json:"user_id"`
	Action    string                 `db:"action" json:"action"`
	Category  string                 `db:"category" json:"category"`
	Details   map[string]interface{} `db:"details" json:"details"`
	CreatedAt time.Time              `db:"created_at" json:"created_at"`
}

// Audit action categories
const (
	AuditCategoryAccount  = "account"
	AuditCategoryMining   = "mining"
	AuditCategoryShop     = "shop"
	AuditCategoryTransfer = "transfer"
	AuditCategoryReward   = "reward"
)

// Audit actions
const (
	AuditActionRegister      = "register"
	AuditActionSignupBonus   = "signup_bonus"
	AuditActionReferralBonus = "referral_bonus"

	AuditActionMiningStart = "mining_start"
	AuditActionMiningClaim = "mining_claim"

	AuditActionUpgradeBuy  = "upgrade_buy"
	AuditActionCosmeticBuy = "cosmetic_buy"

	AuditActionTransferOut = "transfer_out"
	AuditActionTransferIn  = "transfer_in"

	AuditActionExternalReward = "external_reward"
)
