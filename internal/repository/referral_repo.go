package repository

import (
	"context"

	"github.com/chancov/WebAppMiningGameTG/internal/domain"
)

// CreateReferral records the bonus fact. referred_id is unique, so an account
// can only ever be credited to one inviter.
func (q *pgQueries) CreateReferral(ctx context.Context, r *domain.Referral) error {
	return q.db.QueryRow(ctx,
		`INSERT INTO referrals (user_id, referred_id, bonus, created_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		r.InviterID, r.InvitedID, r.Bonus, r.CreatedAt,
	).Scan(&r.ID)
}

// ListReferrals returns the public profiles of everyone inviterID brought in, oldest first.
func (q *pgQueries) ListReferrals(ctx context.Context, inviterID int64) ([]domain.PublicProfile, error) {
	rows, err := q.db.Query(ctx,
		`SELECT a.id, a.telegram_id, a.first_name, a.last_name, a.photo_url, a.card_bg
		 FROM referrals r
		 JOIN accounts a ON a.id = r.referred_id
		 WHERE r.user_id = $1
		 ORDER BY r.id`,
		inviterID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []domain.PublicProfile{}
	for rows.Next() {
		var p domain.PublicProfile
		if err := rows.Scan(&p.ID, &p.Identity, &p.FirstName, &p.LastName, &p.AvatarRef, &p.CosmeticRef); err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

func (q *pgQueries) CountReferrals(ctx context.Context, inviterID int64) (int, error) {
	var n int
	err := q.db.QueryRow(ctx, `SELECT COUNT(*) FROM referrals WHERE user_id = $1`, inviterID).Scan(&n)
	return n, err
}
