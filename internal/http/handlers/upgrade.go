package handlers

import (
	"github.com/chancov/WebAppMiningGameTG/internal/domain"

	"github.com/gin-gonic/gin"
)

// ListUpgrades lists every upgrade with the caller's level, next price and effect.
func (h *Handler) ListUpgrades(c *gin.Context) {
	id, okID := identity(c, c.Query("telegram_id"))
	if !okID {
		return
	}
	views, err := h.Upgrades.List(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"upgrades": views})
}

type buyUpgradeRequest struct {
	TelegramID flexID `json:"telegram_id"`
	Type       string `json:"type"`
}

func (h *Handler) BuyUpgrade(c *gin.Context) {
	var req buyUpgradeRequest
	if !bind(c, &req) {
		return
	}
	id, okID := identity(c, req.TelegramID.String())
	if !okID {
		return
	}
	res, err := h.Upgrades.Purchase(c.Request.Context(), id, domain.UpgradeType(req.Type))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{
		"new_balance": res.Balance,
		"type":        res.Type,
		"level":       res.Level,
		"price":       res.Price,
	})
}
