package pos

import (
	"time"

	"github.com/google/uuid"
)

type CustomerType string

const (
	CustomerWalkIn  CustomerType = "walk-in"
	CustomerRegular CustomerType = "regular"
	CustomerVIP     CustomerType = "vip"
)

type PaymentStatus string

const (
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusPartial PaymentStatus = "partial"
	PaymentStatusPending PaymentStatus = "pending"
)

type DeliveryStatus string

const (
	DeliveryStatusPickup    DeliveryStatus = "pickup"
	DeliveryStatusDelivered DeliveryStatus = "delivered"
	DeliveryStatusPending   DeliveryStatus = "pending"
	DeliveryStatusCancelled DeliveryStatus = "cancelled"
)

type DeliveryType string

const (
	DeliveryTypePickup   DeliveryType = "pickup"
	DeliveryTypeDelivery DeliveryType = "delivery"
)

type ReturnStatus string

const (
	ReturnStatusNone    ReturnStatus = "none"
	ReturnStatusPartial ReturnStatus = "partial"
	ReturnStatusFull    ReturnStatus = "full"
)

// CanTransitionTo reports whether next is a legal forward move. Return
// status only ever moves none -> partial -> full (or none -> full
// directly); there is no way back.
func (s ReturnStatus) CanTransitionTo(next ReturnStatus) bool {
	switch s {
	case ReturnStatusNone:
		return next == ReturnStatusPartial || next == ReturnStatusFull
	case ReturnStatusPartial:
		return next == ReturnStatusFull || next == ReturnStatusPartial
	default:
		return false
	}
}

func (s ReturnStatus) String() string { return string(s) }

type Customer struct {
	ID    string       `json:"id,omitempty" bson:"id,omitempty"`
	Name  string       `json:"name" bson:"name"`
	Phone string       `json:"phone,omitempty" bson:"phone,omitempty"`
	Type  CustomerType `json:"type" bson:"type"`
}

type Payment struct {
	Method     string        `json:"method" bson:"method"`
	Status     PaymentStatus `json:"status" bson:"status"`
	AmountPaid float64       `json:"amount_paid" bson:"amount_paid"`
}

type Delivery struct {
	Type    DeliveryType   `json:"type" bson:"type"`
	Status  DeliveryStatus `json:"status" bson:"status"`
	Address string         `json:"address,omitempty" bson:"address,omitempty"`
	Date    time.Time      `json:"date,omitempty" bson:"date,omitempty"`
}

// SaleItem is the frozen projection of a CartItem inside a persisted
// sale. ReturnedQuantity is the only field mutated after finalization,
// and only by return processing.
type SaleItem struct {
	ID                string        `json:"id" bson:"id"`
	ProductID         int64         `json:"product_id" bson:"product_id"`
	Name              string        `json:"name" bson:"name"`
	Code              string        `json:"code" bson:"code"`
	UnitPrice         float64       `json:"unit_price" bson:"unit_price"`
	Quantity          int           `json:"quantity" bson:"quantity"`
	Discount          float64       `json:"discount" bson:"discount"`
	FinalPrice        float64       `json:"final_price" bson:"final_price"`
	LineType          LineType      `json:"line_type" bson:"line_type"`
	FreeReason        string        `json:"free_reason,omitempty" bson:"free_reason,omitempty"`
	RelatedPaidItemID string        `json:"related_paid_item_id,omitempty" bson:"related_paid_item_id,omitempty"`
	FreeItems         []FreeItemRef `json:"free_items,omitempty" bson:"free_items,omitempty"`
	ReturnedQuantity  int           `json:"returned_quantity" bson:"returned_quantity"`
}

// SaleRecord is the finalized transaction. The cart engine never touches
// it after creation; returns, payments and discards are explicit
// operations owned by the sales service.
type SaleRecord struct {
	ID           string         `json:"id" bson:"_id"`
	InvoiceNo    string         `json:"invoice_no" bson:"invoice_no"`
	CreatedAt    time.Time      `json:"created_at" bson:"created_at"`
	Customer     Customer       `json:"customer" bson:"customer"`
	Items        []SaleItem     `json:"items" bson:"items"`
	Subtotal     float64        `json:"subtotal" bson:"subtotal"`
	Discount     float64        `json:"discount" bson:"discount"`
	Tax          float64        `json:"tax" bson:"tax"`
	Total        float64        `json:"total" bson:"total"`
	Payment      Payment        `json:"payment" bson:"payment"`
	Delivery     Delivery       `json:"delivery" bson:"delivery"`
	Staff        string         `json:"staff" bson:"staff"`
	Notes        string         `json:"notes,omitempty" bson:"notes,omitempty"`
	ReturnStatus ReturnStatus   `json:"return_status" bson:"return_status"`
	UpdatedAt    time.Time      `json:"updated_at" bson:"updated_at"`
}

type FinalizeInput struct {
	InvoiceNo string
	Customer  Customer
	Payment   Payment
	Delivery  Delivery
	Staff     string
	Notes     string
	Now       time.Time
}

// Finalize converts a validated cart into an immutable SaleRecord. It
// does not persist the record or decrement stock; those belong to the
// sales and inventory services, invoked by the caller after Finalize
// succeeds. Any precondition violation fails atomically with the cart
// unmodified.
func Finalize(c *Cart, in FinalizeInput) (*SaleRecord, error) {
	paid := 0
	for _, item := range c.items {
		if item.LineType == LineTypePaid {
			paid++
		}
	}
	if paid == 0 {
		return nil, ErrEmptyCart
	}

	// Re-validate every free link in case a cascade bug let a dangling
	// reference survive.
	for _, item := range c.items {
		if item.LineType != LineTypeFree || item.RelatedPaidItemID == "" {
			continue
		}
		anchor := c.indexOf(item.RelatedPaidItemID)
		if anchor < 0 || c.items[anchor].LineType != LineTypePaid {
			return nil, ErrDanglingFreeLine
		}
	}

	totals := c.ComputeTotals()

	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}

	payment := in.Payment
	if payment.Status == "" {
		payment.Status = PaymentStatusPending
	}
	delivery := in.Delivery
	if delivery.Type == "" {
		delivery.Type = DeliveryTypePickup
	}
	if delivery.Status == "" {
		delivery.Status = DeliveryStatusPickup
	}
	customer := in.Customer
	if customer.Type == "" {
		customer.Type = CustomerWalkIn
	}

	items := make([]SaleItem, 0, len(c.items))
	for _, item := range c.items {
		items = append(items, SaleItem{
			ID:                item.ID,
			ProductID:         item.ProductID,
			Name:              item.Name,
			Code:              item.Code,
			UnitPrice:         item.UnitPrice,
			Quantity:          item.Quantity,
			Discount:          item.Discount,
			FinalPrice:        item.FinalPrice,
			LineType:          item.LineType,
			FreeReason:        item.FreeReason,
			RelatedPaidItemID: item.RelatedPaidItemID,
			FreeItems:         append([]FreeItemRef(nil), item.FreeItems...),
		})
	}

	return &SaleRecord{
		ID:           uuid.New().String(),
		InvoiceNo:    in.InvoiceNo,
		CreatedAt:    now,
		Customer:     customer,
		Items:        items,
		Subtotal:     totals.Subtotal,
		Discount:     totals.Discount,
		Tax:          totals.Tax,
		Total:        totals.Total,
		Payment:      payment,
		Delivery:     delivery,
		Staff:        in.Staff,
		Notes:        in.Notes,
		ReturnStatus: ReturnStatusNone,
		UpdatedAt:    now,
	}, nil
}
