package handlers

import (
	"strconv"

	"github.com/chancov/WebAppMiningGameTG/internal/service"

	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	TelegramID flexID `json:"telegram_id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	PhotoURL   string `json:"photo_url"`
	RefCode    string `json:"ref_code"`
}

// Register creates the account on first contact and is a no-op afterwards.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if !bind(c, &req) {
		return
	}
	id, okID := identity(c, req.TelegramID.String())
	if !okID {
		return
	}

	res, err := h.Accounts.Register(c.Request.Context(), service.RegisterInput{
		Identity:     id,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		AvatarRef:    req.PhotoURL,
		ReferralCode: req.RefCode,
	})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{
		"user_id":   res.Account.ID,
		"balance":   res.Account.Balance,
		"ref_code":  res.Account.ReferralCode,
		"was_new":   res.WasNew,
		"was_bonus": res.WasBonus,
	})
}

func (h *Handler) Profile(c *gin.Context) {
	id, okID := identity(c, c.Query("telegram_id"))
	if !okID {
		return
	}
	acc, err := h.Accounts.Profile(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{
		"user_id":     acc.ID,
		"telegram_id": acc.Identity,
		"first_name":  acc.FirstName,
		"last_name":   acc.LastName,
		"photo_url":   acc.AvatarRef,
		"balance":     acc.Balance,
		"card_bg":     acc.CosmeticRef,
		"ref_code":    acc.ReferralCode,
		"ref_by":      acc.InvitedBy,
	})
}

func (h *Handler) Referrals(c *gin.Context) {
	id, okID := identity(c, c.Query("telegram_id"))
	if !okID {
		return
	}
	refs, err := h.Accounts.Referrals(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"referrals": refs})
}

func (h *Handler) UserStats(c *gin.Context) {
	id, okID := identity(c, c.Query("telegram_id"))
	if !okID {
		return
	}
	stats, err := h.Accounts.Stats(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"days_played": stats.DaysPlayed, "num_referrals": stats.NumReferrals})
}

type setCardBgRequest struct {
	TelegramID flexID `json:"telegram_id"`
	CardBg     string `json:"card_bg"`
}

func (h *Handler) SetCardBg(c *gin.Context) {
	var req setCardBgRequest
	if !bind(c, &req) {
		return
	}
	id, okID := identity(c, req.TelegramID.String())
	if !okID {
		return
	}
	if err := h.Accounts.SetCosmetic(c.Request.Context(), id, req.CardBg); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

// Activity returns the caller's most recent audit entries.
func (h *Handler) Activity(c *gin.Context) {
	id, okID := identity(c, c.Query("telegram_id"))
	if !okID {
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(service.DefaultActivityLimit)))
	if err != nil {
		limit = service.DefaultActivityLimit
	}
	logs, err := h.Audit.UserLogs(c.Request.Context(), id, limit)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"logs": logs})
}
