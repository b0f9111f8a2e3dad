package handlers

import (
	"strconv"

	"github.com/chancov/WebAppMiningGameTG/internal/domain"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ShopCards(c *gin.Context) {
	items, err := h.Shop.Catalog(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"cards": items})
}

type buyCardRequest struct {
	TelegramID flexID `json:"telegram_id"`
	CardID     flexID `json:"card_id"`
}

func (h *Handler) BuyCard(c *gin.Context) {
	var req buyCardRequest
	if !bind(c, &req) {
		return
	}
	id, okID := identity(c, req.TelegramID.String())
	if !okID {
		return
	}
	cardID, err := strconv.ParseInt(req.CardID.String(), 10, 64)
	if err != nil {
		fail(c, domain.ErrItemNotFound)
		return
	}
	balance, err := h.Shop.Buy(c.Request.Context(), id, cardID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"new_balance": balance})
}

func (h *Handler) MyCards(c *gin.Context) {
	id, okID := identity(c, c.Query("telegram_id"))
	if !okID {
		return
	}
	items, err := h.Shop.Owned(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"cards": items})
}
