package catalog

import "time"

// Product is master data owned by the catalog. The persisted Stock
// column seeds the inventory store at startup; live reads are served
// from the inventory store, not from here. CostPrice and the min/max
// thresholds are optional in the sense that zero means "not set".
type Product struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	UnitPrice float64   `json:"unit_price"`
	CostPrice float64   `json:"cost_price,omitempty"`
	MinStock  int       `json:"min_stock,omitempty"`
	MaxStock  int       `json:"max_stock,omitempty"`
	Stock     int       `json:"stock"`
	CreatedAt time.Time `json:"created_at"`
}
