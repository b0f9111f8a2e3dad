package domain

import "github.com/shopspring/decimal"

// UpgradeType identifies one of the purchasable mining upgrades.
type UpgradeType string

const (
	UpgradeSpeed      UpgradeType = "speed"
	UpgradeIncome     UpgradeType = "income"
	UpgradeMultiplier UpgradeType = "multiplier"
)

// EffectFunc maps an upgrade level to its factor. Level 0 must yield 1.
type EffectFunc func(level int) decimal.Decimal

// UpgradeSpec is one row of the pricing table.
type UpgradeSpec struct {
	Type            UpgradeType
	Title           string
	Description     string
	BasePrice       decimal.Decimal
	PriceMultiplier decimal.Decimal
	Unit            string
	Effect          EffectFunc
}

var (
	one          = decimal.NewFromInt(1)
	speedFloor   = decimal.RequireFromString("0.3")
	speedStep    = decimal.RequireFromString("0.05")
	incomeStep   = decimal.RequireFromString("0.08")
	multiplyStep = decimal.RequireFromString("0.2")
)

func speedEffect(level int) decimal.Decimal {
	return decimal.Max(speedFloor, one.Sub(speedStep.Mul(decimal.NewFromInt(int64(level)))))
}

func incomeEffect(level int) decimal.Decimal {
	return one.Add(incomeStep.Mul(decimal.NewFromInt(int64(level))))
}

func multiplierEffect(level int) decimal.Decimal {
	return one.Add(multiplyStep.Mul(decimal.NewFromInt(int64(level))))
}

// UpgradeCatalog is ordered the way upgrades are presented to the client.
var UpgradeCatalog = []UpgradeSpec{
	{
		Type:            UpgradeSpeed,
		Title:           "Mining speed",
		Description:     "Shortens the mining cycle",
		BasePrice:       decimal.NewFromInt(50),
		PriceMultiplier: decimal.RequireFromString("1.8"),
		Unit:            "x",
		Effect:          speedEffect,
	},
	{
		Type:            UpgradeIncome,
		Title:           "Income per cycle",
		Description:     "Increases the mining reward",
		BasePrice:       decimal.NewFromInt(100),
		PriceMultiplier: decimal.RequireFromString("2.2"),
		Unit:            "x",
		Effect:          incomeEffect,
	},
	{
		Type:            UpgradeMultiplier,
		Title:           "Multiplier",
		Description:     "Multiplies the mining reward",
		BasePrice:       decimal.NewFromInt(500),
		PriceMultiplier: decimal.RequireFromString("2.5"),
		Unit:            "x",
		Effect:          multiplierEffect,
	},
}

// LookupUpgrade returns the pricing row for t.
func LookupUpgrade(t UpgradeType) (UpgradeSpec, error) {
	for _, spec := range UpgradeCatalog {
		if spec.Type == t {
			return spec, nil
		}
	}
	return UpgradeSpec{}, ErrInvalidUpgradeType
}

// Price is floor(base_price * multiplier^level), computed without float drift.
func (s UpgradeSpec) Price(level int) decimal.Decimal {
	p := s.BasePrice
	for i := 0; i < level; i++ {
		p = p.Mul(s.PriceMultiplier)
	}
	return p.Floor()
}

// UpgradePrice prices the next level of t for an account currently at level.
func UpgradePrice(t UpgradeType, level int) (decimal.Decimal, error) {
	spec, err := LookupUpgrade(t)
	if err != nil {
		return decimal.Zero, err
	}
	return spec.Price(level), nil
}

// UpgradeEffect returns the factor of t at level.
func UpgradeEffect(t UpgradeType, level int) (decimal.Decimal, error) {
	spec, err := LookupUpgrade(t)
	if err != nil {
		return decimal.Zero, err
	}
	return spec.Effect(level), nil
}

// UpgradeLevels holds an account's level per type; missing types are level 0.
type UpgradeLevels map[UpgradeType]int

func (l UpgradeLevels) Level(t UpgradeType) int {
	if l == nil {
		return 0
	}
	return l[t]
}

// UpgradeView is the presentation row for one catalog entry.
type UpgradeView struct {
	Type        UpgradeType `json:"type"`
	Title       string      `json:"title"`
	Description string      `json:"desc"`
	Level       int         `json:"level"`
	NextPrice   int64       `json:"next_price"`
	Effect      float64     `json:"effect"`
	Unit        string      `json:"unit"`
}

// ViewUpgrades renders the full catalog for the given levels.
func ViewUpgrades(levels UpgradeLevels) []UpgradeView {
	out := make([]UpgradeView, 0, len(UpgradeCatalog))
	for _, spec := range UpgradeCatalog {
		lvl := levels.Level(spec.Type)
		out = append(out, UpgradeView{
			Type:        spec.Type,
			Title:       spec.Title,
			Description: spec.Description,
			Level:       lvl,
			NextPrice:   spec.Price(lvl).IntPart(),
			Effect:      spec.Effect(lvl).InexactFloat64(),
			Unit:        spec.Unit,
		})
	}
	return out
}
