package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const TransactionKindTransfer = "transfer"

// Transfer directions relative to the account viewing its history.
const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

// HistoryPageSize is the number of transfers per history page.
const HistoryPageSize = 10

// Transaction is an immutable peer-to-peer transfer record.
type Transaction struct {
	ID         int64           `db:"id" json:"id"`
	SenderID   int64           `db:"from_user_id" json:"from_user_id"`
	ReceiverID int64           `db:"to_user_id" json:"to_user_id"`
	Amount     decimal.Decimal `db:"amount" json:"amount"`
	Kind       string          `db:"type" json:"type"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

// TransferRecord is a Transaction seen from one side, with the other side's identity resolved.
type TransferRecord struct {
	Transaction
	SenderIdentity   string
	ReceiverIdentity string
}

// HistoryItem is one row of the history page.
type HistoryItem struct {
	Direction   string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Date        string          `json:"date"`
	Counterpart string          `json:"peer_id"`
}

// ViewFor projects the record onto the viewer's side.
func (r TransferRecord) ViewFor(accountID int64) HistoryItem {
	item := HistoryItem{
		Amount: r.Amount,
		Date:   r.CreatedAt.UTC().Format("2006-01-02 15:04"),
	}
	if r.SenderID == accountID {
		item.Direction = DirectionOut
		item.Counterpart = r.ReceiverIdentity
	} else {
		item.Direction = DirectionIn
		item.Counterpart = r.SenderIdentity
	}
	if item.Counterpart == "" {
		item.Counterpart = "unknown"
	}
	return item
}

// HistoryPage is a page of transfers plus the total page count.
type HistoryPage struct {
	Items []HistoryItem `json:"items"`
	Page  int           `json:"page"`
	Pages int           `json:"pages"`
}

// PageCount is ceil(total/HistoryPageSize).
func PageCount(total int) int {
	return (total + HistoryPageSize - 1) / HistoryPageSize
}
