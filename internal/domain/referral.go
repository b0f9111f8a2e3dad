package domain

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Referral records that InviterID was credited for inviting InvitedID.
type Referral struct {
	ID        int64           `db:"id" json:"id"`
	InviterID int64           `db:"user_id" json:"user_id"`
	InvitedID int64           `db:"referred_id" json:"referred_id"`
	Bonus     decimal.Decimal `db:"bonus" json:"bonus"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// AccountStats backs the user_stats endpoint.
type AccountStats struct {
	DaysPlayed   int `json:"days_played"`
	NumReferrals int `json:"num_referrals"`
}

// LeaderboardEntry is one ranked row of the top list.
type LeaderboardEntry struct {
	PublicProfile
	Balance decimal.Decimal `json:"balance"`
	Place   int             `json:"place"`
	Trophy  string          `json:"trophy"`
}

// LeaderboardSize is how many accounts the leaderboard shows.
const LeaderboardSize = 100

// Trophy returns the medal for the podium and "#N" for everyone else.
func Trophy(place int) string {
	switch place {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	default:
		return "#" + strconv.Itoa(place)
	}
}

// RankAccounts turns accounts sorted by balance into leaderboard rows.
func RankAccounts(accounts []Account) []LeaderboardEntry {
	out := make([]LeaderboardEntry, 0, len(accounts))
	for i := range accounts {
		place := i + 1
		out = append(out, LeaderboardEntry{
			PublicProfile: accounts[i].Public(),
			Balance:       accounts[i].Balance.Round(2),
			Place:         place,
			Trophy:        Trophy(place),
		})
	}
	return out
}
