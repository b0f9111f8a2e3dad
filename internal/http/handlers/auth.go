package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type AuthRequest struct {
	InitData string `json:"init_data"`
}

// Auth exchanges Telegram WebApp init_data for a session token. The account
// is registered on first contact.
func (h *Handler) Auth(c *gin.Context) {
	var req AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.InitData == "" {
		reject(c, http.StatusBadRequest, "invalid_request", "init_data is required")
		return
	}

	res, err := h.Authenticator.Authenticate(c.Request.Context(), req.InitData)
	if err != nil {
		fail(c, err)
		return
	}

	acc := res.Account
	ok(c, gin.H{
		"token":   res.Token,
		"was_new": res.WasNew,
		"user": gin.H{
			"user_id":     acc.ID,
			"telegram_id": acc.Identity,
			"first_name":  acc.FirstName,
			"last_name":   acc.LastName,
			"photo_url":   acc.AvatarRef,
			"balance":     acc.Balance,
			"ref_code":    acc.ReferralCode,
		},
	})
}
