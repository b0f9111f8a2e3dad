package repository

import (
	"context"

	"github.com/chancov/WebAppMiningGameTG/internal/domain"
)

// CreateTransaction appends a ledger entry. Entries are never updated.
func (q *pgQueries) CreateTransaction(ctx context.Context, t *domain.Transaction) error {
	if t.Kind == "" {
		t.Kind = domain.TransactionKindTransfer
	}
	return q.db.QueryRow(ctx,
		`INSERT INTO transactions (from_user_id, to_user_id, amount, type, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		t.SenderID, t.ReceiverID, t.Amount, t.Kind, t.CreatedAt,
	).Scan(&t.ID)
}

func (q *pgQueries) CountTransactions(ctx context.Context, accountID int64) (int, error) {
	var n int
	err := q.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM transactions WHERE from_user_id = $1 OR to_user_id = $1`, accountID,
	).Scan(&n)
	return n, err
}

// ListTransactions returns one page of the account's transfers, newest first, with
// both sides' identities resolved. A deleted counterpart resolves to "".
func (q *pgQueries) ListTransactions(ctx context.Context, accountID int64, limit, offset int) ([]domain.TransferRecord, error) {
	rows, err := q.db.Query(ctx,
		`SELECT t.id, t.from_user_id, t.to_user_id, t.amount, t.type, t.created_at,
		        COALESCE(s.telegram_id, ''), COALESCE(r.telegram_id, '')
		 FROM transactions t
		 LEFT JOIN accounts s ON s.id = t.from_user_id
		 LEFT JOIN accounts r ON r.id = t.to_user_id
		 WHERE t.from_user_id = $1 OR t.to_user_id = $1
		 ORDER BY t.created_at DESC, t.id DESC
		 LIMIT $2 OFFSET $3`,
		accountID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []domain.TransferRecord{}
	for rows.Next() {
		var rec domain.TransferRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.SenderID,
			&rec.ReceiverID,
			&rec.Amount,
			&rec.Kind,
			&rec.CreatedAt,
			&rec.SenderIdentity,
			&rec.ReceiverIdentity,
		); err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}
