package sales

import (
	"time"

	"github.com/sufianahinfo/sufianah-pos/internal/pos"
)

const EventTypeSaleCompleted = "sale.completed"

// EventItem is the wire shape of one sale line inside a Kafka payload.
type EventItem struct {
	ProductID  int64        `json:"product_id"`
	Name       string       `json:"name"`
	Code       string       `json:"code"`
	Quantity   int          `json:"quantity"`
	UnitPrice  float64      `json:"unit_price"`
	FinalPrice float64      `json:"final_price"`
	LineType   pos.LineType `json:"line_type"`
	FreeReason string       `json:"free_reason,omitempty"`
}

// SaleCompletedEvent is published once per persisted sale. Downstream
// consumers (the ledger) key their own idempotency off the invoice
// number.
type SaleCompletedEvent struct {
	InvoiceNo    string      `json:"invoice_no"`
	Staff        string      `json:"staff"`
	CustomerName string      `json:"customer_name"`
	CustomerType string      `json:"customer_type"`
	Items        []EventItem `json:"items"`
	Subtotal     float64     `json:"subtotal"`
	Discount     float64     `json:"discount"`
	Tax          float64     `json:"tax"`
	Total        float64     `json:"total"`
	CompletedAt  time.Time   `json:"completed_at"`
}

func newSaleCompletedEvent(sale *pos.SaleRecord) SaleCompletedEvent {
	items := make([]EventItem, len(sale.Items))
	for i, item := range sale.Items {
		items[i] = EventItem{
			ProductID:  item.ProductID,
			Name:       item.Name,
			Code:       item.Code,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			FinalPrice: item.FinalPrice,
			LineType:   item.LineType,
			FreeReason: item.FreeReason,
		}
	}

	return SaleCompletedEvent{
		InvoiceNo:    sale.InvoiceNo,
		Staff:        sale.Staff,
		CustomerName: sale.Customer.Name,
		CustomerType: string(sale.Customer.Type),
		Items:        items,
		Subtotal:     sale.Subtotal,
		Discount:     sale.Discount,
		Tax:          sale.Tax,
		Total:        sale.Total,
		CompletedAt:  sale.CreatedAt,
	}
}
