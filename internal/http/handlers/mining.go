package handlers

import (
	"github.com/gin-gonic/gin"
)

type identityRequest struct {
	TelegramID flexID `json:"telegram_id"`
}

func (h *Handler) Mine(c *gin.Context) {
	var req identityRequest
	if !bind(c, &req) {
		return
	}
	id, okID := identity(c, req.TelegramID.String())
	if !okID {
		return
	}
	st, err := h.Mining.Start(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{
		"locked_until":  st.LockedUntil,
		"seconds_left":  st.SecondsLeft,
		"pending_claim": st.PendingClaim,
		"balance":       st.Balance,
	})
}

// MiningStatus also settles a finished cycle into pending_claim, so it is
// not a pure read.
func (h *Handler) MiningStatus(c *gin.Context) {
	id, okID := identity(c, c.Query("telegram_id"))
	if !okID {
		return
	}
	st, err := h.Mining.Status(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{
		"locked":        st.Locked,
		"seconds_left":  st.SecondsLeft,
		"balance":       st.Balance,
		"pending_claim": st.PendingClaim,
	})
}

func (h *Handler) Claim(c *gin.Context) {
	var req identityRequest
	if !bind(c, &req) {
		return
	}
	id, okID := identity(c, req.TelegramID.String())
	if !okID {
		return
	}
	res, err := h.Mining.Claim(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"balance": res.Balance, "claimed": res.Claimed})
}
