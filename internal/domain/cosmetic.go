package domain

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// CosmeticItem is a catalog entry (profile card background).
type CosmeticItem struct {
	ID       int64           `db:"id" json:"id"`
	Name     string          `db:"name" json:"name"`
	ImageRef string          `db:"image_url" json:"image_url"`
	Price    decimal.Decimal `db:"price" json:"price"`
}

// DefaultCosmetics is the catalog seeded into an empty shop.
func DefaultCosmetics() []CosmeticItem {
	items := make([]CosmeticItem, 0, 9)
	for i := 1; i <= 9; i++ {
		items = append(items, CosmeticItem{
			Name:     "BG " + strconv.Itoa(i),
			ImageRef: "/static/profile_backgrounds/bg" + strconv.Itoa(i) + ".png",
			Price:    decimal.NewFromInt(1),
		})
	}
	return items
}
