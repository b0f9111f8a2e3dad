package repository

import (
	"context"

	"github.com/chancov/WebAppMiningGameTG/internal/domain"
)

func (q *pgQueries) UpgradeLevels(ctx context.Context, accountID int64) (domain.UpgradeLevels, error) {
	rows, err := q.db.Query(ctx, `SELECT type, level FROM upgrades WHERE account_id = $1`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	levels := make(domain.UpgradeLevels)
	for rows.Next() {
		var (
			t     string
			level int
		)
		if err := rows.Scan(&t, &level); err != nil {
			return nil, err
		}
		levels[domain.UpgradeType(t)] = level
	}
	return levels, rows.Err()
}

func (q *pgQueries) SetUpgradeLevel(ctx context.Context, accountID int64, t domain.UpgradeType, level int) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO upgrades (account_id, type, level)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (account_id, type) DO UPDATE SET level = EXCLUDED.level`,
		accountID, string(t), level,
	)
	return err
}
