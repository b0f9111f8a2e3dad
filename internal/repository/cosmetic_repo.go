package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/chancov/WebAppMiningGameTG/internal/domain"

	"github.com/jackc/pgx/v5"
)

// SeedCosmetics inserts items only if the catalog is empty. The exclusive table lock
// makes the check-then-insert atomic across concurrently starting instances.
func (q *pgQueries) SeedCosmetics(ctx context.Context, items []domain.CosmeticItem) (int, error) {
	if _, err := q.db.Exec(ctx, `LOCK TABLE cosmetic_items IN EXCLUSIVE MODE`); err != nil {
		return 0, fmt.Errorf("lock catalog: %w", err)
	}

	var count int
	if err := q.db.QueryRow(ctx, `SELECT COUNT(*) FROM cosmetic_items`).Scan(&count); err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	for i := range items {
		if err := q.db.QueryRow(ctx,
			`INSERT INTO cosmetic_items (name, image_url, price) VALUES ($1, $2, $3) RETURNING id`,
			items[i].Name, items[i].ImageRef, items[i].Price,
		).Scan(&items[i].ID); err != nil {
			return 0, fmt.Errorf("insert cosmetic %q: %w", items[i].Name, err)
		}
	}
	return len(items), nil
}

func (q *pgQueries) ListCosmetics(ctx context.Context) ([]domain.CosmeticItem, error) {
	rows, err := q.db.Query(ctx, `SELECT id, name, image_url, price FROM cosmetic_items ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCosmetics(rows)
}

func (q *pgQueries) GetCosmetic(ctx context.Context, id int64) (*domain.CosmeticItem, error) {
	var it domain.CosmeticItem
	err := q.db.QueryRow(ctx,
		`SELECT id, name, image_url, price FROM cosmetic_items WHERE id = $1`, id,
	).Scan(&it.ID, &it.Name, &it.ImageRef, &it.Price)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (q *pgQueries) OwnsCosmetic(ctx context.Context, accountID, itemID int64) (bool, error) {
	var owned bool
	err := q.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM owned_cosmetics WHERE account_id = $1 AND item_id = $2)`,
		accountID, itemID,
	).Scan(&owned)
	return owned, err
}

func (q *pgQueries) AddOwnedCosmetic(ctx context.Context, accountID, itemID int64) error {
	tag, err := q.db.Exec(ctx,
		`INSERT INTO owned_cosmetics (account_id, item_id) VALUES ($1, $2)
		 ON CONFLICT (account_id, item_id) DO NOTHING`,
		accountID, itemID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyOwned
	}
	return nil
}

func (q *pgQueries) OwnedCosmetics(ctx context.Context, accountID int64) ([]domain.CosmeticItem, error) {
	rows, err := q.db.Query(ctx,
		`SELECT c.id, c.name, c.image_url, c.price
		 FROM owned_cosmetics o
		 JOIN cosmetic_items c ON c.id = o.item_id
		 WHERE o.account_id = $1
		 ORDER BY o.id`,
		accountID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCosmetics(rows)
}

func scanCosmetics(rows pgx.Rows) ([]domain.CosmeticItem, error) {
	items := []domain.CosmeticItem{}
	for rows.Next() {
		var it domain.CosmeticItem
		if err := rows.Scan(&it.ID, &it.Name, &it.ImageRef, &it.Price); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
