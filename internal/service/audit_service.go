package service

import (
	"context"
	"time"

	"github.com/chancov/WebAppMiningGameTG/internal/domain"
	"github.com/chancov/WebAppMiningGameTG/internal/repository"

	"github.com/shopspring/decimal"
)

// AuditService records balance movements. Entries are written through the
// caller's unit of work, so they commit or roll back with the change itself.
type AuditService struct {
	store repository.Store
	Now   func() time.Time
}

func NewAuditService(store repository.Store) *AuditService {
	return &AuditService{store: store, Now: time.Now}
}

// Log creates a new audit log entry
func (s *AuditService) Log(ctx context.Context, q repository.Queries, userID int64, action, category string, details map[string]interface{}) error {
	return q.CreateAuditLog(ctx, &domain.AuditLog{
		UserID:    userID,
		Action:    action,
		Category:  category,
		Details:   details,
		CreatedAt: s.Now().UTC(),
	})
}

// LogBalanceChange logs a movement together with the resulting balance
func (s *AuditService) LogBalanceChange(ctx context.Context, q repository.Queries, acc *domain.Account, action, category string, change decimal.Decimal, details map[string]interface{}) error {
	if details == nil {
		details = make(map[string]interface{})
	}
	details["change"] = change
	details["balance"] = acc.Balance

	return s.Log(ctx, q, acc.ID, action, category, details)
}

// Activity page bounds for UserLogs.
const (
	DefaultActivityLimit = 50
	MaxActivityLimit     = 100
)

// UserLogs returns the newest audit entries of an account
func (s *AuditService) UserLogs(ctx context.Context, identity string, limit int) ([]domain.AuditLog, error) {
	switch {
	case limit <= 0:
		limit = DefaultActivityLimit
	case limit > MaxActivityLimit:
		limit = MaxActivityLimit
	}

	var logs []domain.AuditLog
	err := s.store.InTx(ctx, func(q repository.Queries) error {
		acc, err := q.GetAccount(ctx, identity)
		if err != nil {
			return err
		}
		logs, err = q.AuditLogs(ctx, acc.ID, limit)
		return err
	})
	return logs, err
}
