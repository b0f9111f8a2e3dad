package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/chancov/WebAppMiningGameTG/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// refCodeConstraint is the name Postgres gives the UNIQUE on accounts.ref_code.
const refCodeConstraint = "accounts_ref_code_key"

func isRefCodeConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == refCodeConstraint
}

const accountColumns = `id, telegram_id, first_name, last_name, photo_url, balance, ref_code, ref_by,
	card_bg, last_mining_at, mining_locked_until, pending_claim, created_at`

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	if err := row.Scan(
		&a.ID,
		&a.Identity,
		&a.FirstName,
		&a.LastName,
		&a.AvatarRef,
		&a.Balance,
		&a.ReferralCode,
		&a.InvitedBy,
		&a.CosmeticRef,
		&a.LastMiningStartedAt,
		&a.MiningLockedUntil,
		&a.PendingClaim,
		&a.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return &a, nil
}

// CreateAccount inserts a, or does nothing when the identity already exists.
// It reports whether a row was inserted.
func (q *pgQueries) CreateAccount(ctx context.Context, a *domain.Account) (bool, error) {
	err := q.db.QueryRow(ctx,
		`INSERT INTO accounts (telegram_id, first_name, last_name, photo_url, balance, ref_code, ref_by, card_bg, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (telegram_id) DO NOTHING
		 RETURNING id`,
		a.Identity,
		a.FirstName,
		a.LastName,
		a.AvatarRef,
		a.Balance,
		a.ReferralCode,
		a.InvitedBy,
		a.CosmeticRef,
		a.CreatedAt,
	).Scan(&a.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if isRefCodeConflict(err) {
		return false, ErrReferralCodeTaken
	}
	if err != nil {
		return false, fmt.Errorf("insert account: %w", err)
	}
	return true, nil
}

func (q *pgQueries) GetAccount(ctx context.Context, identity string) (*domain.Account, error) {
	return scanAccount(q.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE telegram_id = $1`, identity))
}

func (q *pgQueries) LockAccount(ctx context.Context, identity string) (*domain.Account, error) {
	return scanAccount(q.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE telegram_id = $1 FOR UPDATE`, identity))
}

func (q *pgQueries) LockAccountByReferralCode(ctx context.Context, code string) (*domain.Account, error) {
	return scanAccount(q.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE ref_code = $1 FOR UPDATE`, code))
}

func (q *pgQueries) ReferralCodeTaken(ctx context.Context, code string) (bool, error) {
	var taken bool
	err := q.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE ref_code = $1)`, code).Scan(&taken)
	return taken, err
}

// UpdateAccount writes back every mutable column of a.
func (q *pgQueries) UpdateAccount(ctx context.Context, a *domain.Account) error {
	tag, err := q.db.Exec(ctx,
		`UPDATE accounts
		 SET first_name = $2, last_name = $3, photo_url = $4, balance = $5, ref_by = $6, card_bg = $7,
		     last_mining_at = $8, mining_locked_until = $9, pending_claim = $10
		 WHERE id = $1`,
		a.ID,
		a.FirstName,
		a.LastName,
		a.AvatarRef,
		a.Balance,
		a.InvitedBy,
		a.CosmeticRef,
		a.LastMiningStartedAt,
		a.MiningLockedUntil,
		a.PendingClaim,
	)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// TopAccounts returns accounts ordered by balance, richest first.
func (q *pgQueries) TopAccounts(ctx context.Context, limit int) ([]domain.Account, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts ORDER BY balance DESC, id ASC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *a)
	}
	return res, rows.Err()
}
