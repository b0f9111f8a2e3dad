package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type sendRequest struct {
	From   flexID          `json:"from"`
	To     flexID          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

// Send moves currency from the caller to another account.
func (h *Handler) Send(c *gin.Context) {
	var req sendRequest
	if !bind(c, &req) {
		return
	}
	from, okID := identity(c, req.From.String())
	if !okID {
		return
	}
	balance, err := h.Transfers.Transfer(c.Request.Context(), from, req.To.String(), req.Amount)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"new_balance": balance})
}

// History pages through the caller's transfers, newest first.
func (h *Handler) History(c *gin.Context) {
	id, okID := identity(c, c.Query("telegram_id"))
	if !okID {
		return
	}
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		page = 1
	}
	res, err := h.Transfers.History(c.Request.Context(), id, page)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"items": res.Items, "page": res.Page, "pages": res.Pages})
}

type gameRewardRequest struct {
	TelegramID flexID          `json:"telegram_id"`
	Reward     decimal.Decimal `json:"reward"`
}

func (h *Handler) AddGameReward(c *gin.Context) {
	var req gameRewardRequest
	if !bind(c, &req) {
		return
	}
	id, okID := identity(c, req.TelegramID.String())
	if !okID {
		return
	}
	balance, err := h.Transfers.AddExternalReward(c.Request.Context(), id, req.Reward)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"new_balance": balance})
}
