package handlers

import (
	"github.com/gin-gonic/gin"
)

// GetLeaderboard returns the top accounts by balance with their trophies.
func (h *Handler) GetLeaderboard(c *gin.Context) {
	entries, err := h.Leaderboard.Top(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"leaderboard": entries})
}
