package handlers

import (
	"github.com/chancov/WebAppMiningGameTG/internal/service"
)

// Handler serves the economy API. Every money-changing decision is made by
// the services; handlers only translate HTTP to calls and back.
type Handler struct {
	Accounts      *service.AccountService
	Mining        *service.MiningService
	Upgrades      *service.UpgradeService
	Transfers     *service.TransferService
	Shop          *service.ShopService
	Leaderboard   *service.LeaderboardService
	Audit         *service.AuditService
	Authenticator *service.AuthService
}
