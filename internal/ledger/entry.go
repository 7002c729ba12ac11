package ledger

import (
	"time"

	"github.com/google/uuid"
)

type EntryType string

const (
	EntryTypeSaleRevenue EntryType = "sale_revenue"
	EntryTypeDiscount    EntryType = "discount"
)

// Entry is one ledger line derived from a completed sale.
type Entry struct {
	ID        uuid.UUID `json:"id"`
	InvoiceNo string    `json:"invoice_no"`
	EntryType EntryType `json:"entry_type"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	Staff     string    `json:"staff"`
	CreatedAt time.Time `json:"created_at"`
}
