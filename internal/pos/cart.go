package pos

import (
	"time"

	"github.com/google/uuid"
)

type LineType string

const (
	LineTypePaid LineType = "paid"
	LineTypeFree LineType = "free"
)

// DefaultFreeReason is used when a free line is granted without a note.
const DefaultFreeReason = "Trade Discount"

// ProductSnapshot is what the catalog collaborator resolved at the moment
// of the call. The cart never reads live inventory itself; stock here is
// best-effort and re-checked by the inventory service at persistence time.
type ProductSnapshot struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Code      string  `json:"code"`
	UnitPrice float64 `json:"unit_price"`
	Stock     int     `json:"stock"`
}

// FreeItemRef is stored on a paid line for every free line it justified,
// so the trade-discount link is navigable from either side.
type FreeItemRef struct {
	FreeLineID string `json:"free_line_id" bson:"free_line_id"`
	Quantity   int    `json:"quantity" bson:"quantity"`
}

type CartItem struct {
	ID             string  `json:"id" bson:"id"`
	ProductID      int64   `json:"product_id" bson:"product_id"`
	Name           string  `json:"name" bson:"name"`
	Code           string  `json:"code" bson:"code"`
	UnitPrice      float64 `json:"unit_price" bson:"unit_price"`
	Quantity       int     `json:"quantity" bson:"quantity"`
	Discount       float64 `json:"discount" bson:"discount"`
	FinalPrice     float64 `json:"final_price" bson:"final_price"`
	AvailableStock int     `json:"available_stock" bson:"available_stock"`
	LineType       LineType `json:"line_type" bson:"line_type"`

	// Free lines only.
	FreeReason        string `json:"free_reason,omitempty" bson:"free_reason,omitempty"`
	RelatedPaidItemID string `json:"related_paid_item_id,omitempty" bson:"related_paid_item_id,omitempty"`

	// Paid lines that have spawned free lines.
	FreeItems []FreeItemRef `json:"free_items,omitempty" bson:"free_items,omitempty"`

	AddedAt time.Time `json:"added_at" bson:"added_at"`
}

// TradeDiscountQuantity is the total number of free units this paid line
// has justified.
func (i CartItem) TradeDiscountQuantity() int {
	total := 0
	for _, ref := range i.FreeItems {
		total += ref.Quantity
	}
	return total
}

// Totals is a pure projection of the cart state. Free lines never
// contribute to the subtotal regardless of quantity.
type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Discount float64 `json:"discount"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}

// RemovedQuantities reports, per product, how many units left the cart in
// a single RemoveItem call (cascaded free lines included) so the caller
// can reconcile stock.
type RemovedQuantities map[int64]int

// Cart owns the ordered line items of one in-progress sale. It is not
// safe for concurrent use; callers embedding it in a server must
// serialize access per cart (one cart per checkout session).
type Cart struct {
	items         []CartItem
	orderDiscount float64
	tax           float64
}

func NewCart() *Cart {
	return &Cart{}
}

// Items returns a copy of the line list in insertion order.
func (c *Cart) Items() []CartItem {
	out := make([]CartItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) Len() int { return len(c.items) }

// SetOrderDiscount sets the order-level discount amount applied on top of
// per-line discounts.
func (c *Cart) SetOrderDiscount(amount float64) {
	if amount < 0 {
		amount = 0
	}
	c.orderDiscount = amount
}

// SetTax sets the tax amount added to the total.
func (c *Cart) SetTax(amount float64) {
	if amount < 0 {
		amount = 0
	}
	c.tax = amount
}

// indexOf is an index lookup, never a cached reference: lines can be
// removed independently, so every operation revalidates the id.
func (c *Cart) indexOf(lineID string) int {
	for i := range c.items {
		if c.items[i].ID == lineID {
			return i
		}
	}
	return -1
}

func linePrice(item CartItem) float64 {
	if item.LineType == LineTypeFree {
		return 0
	}
	return float64(item.Quantity)*item.UnitPrice - item.Discount
}

// AddPaidItem adds quantity units of the product as a paid line and
// returns the line id. If a paid line for the same product already exists
// with no trade-discount linkage and an equal per-line discount, the
// quantities merge instead of creating a duplicate line.
func (c *Cart) AddPaidItem(p ProductSnapshot, quantity int) (string, error) {
	if quantity < 1 {
		return "", ErrInvalidQuantity
	}
	if quantity > p.Stock {
		return "", ErrStockInsufficient
	}

	for i := range c.items {
		item := &c.items[i]
		if item.LineType != LineTypePaid || item.ProductID != p.ID {
			continue
		}
		// Lines that anchor free items keep their identity for the
		// audit trail; lines with differing discounts stay separate
		// rather than guessing a merge rule.
		if len(item.FreeItems) > 0 || item.Discount != 0 {
			continue
		}
		merged := item.Quantity + quantity
		if merged > p.Stock {
			return "", ErrStockInsufficient
		}
		item.Quantity = merged
		item.UnitPrice = p.UnitPrice
		item.AvailableStock = p.Stock
		item.FinalPrice = linePrice(*item)
		return item.ID, nil
	}

	item := CartItem{
		ID:             uuid.New().String(),
		ProductID:      p.ID,
		Name:           p.Name,
		Code:           p.Code,
		UnitPrice:      p.UnitPrice,
		Quantity:       quantity,
		AvailableStock: p.Stock,
		LineType:       LineTypePaid,
		AddedAt:        time.Now(),
	}
	item.FinalPrice = linePrice(item)
	c.items = append(c.items, item)
	return item.ID, nil
}

// RemoveItem removes the line and, when the line is paid, cascades to
// every free line that references it, so no free line survives its
// anchor. The removed quantities per product are reported back for stock
// reconciliation.
func (c *Cart) RemoveItem(lineID string) (RemovedQuantities, error) {
	idx := c.indexOf(lineID)
	if idx < 0 {
		return nil, ErrLineNotFound
	}

	removed := RemovedQuantities{}
	target := c.items[idx]

	keep := c.items[:0]
	for _, item := range c.items {
		if item.ID == lineID {
			removed[item.ProductID] += item.Quantity
			continue
		}
		if target.LineType == LineTypePaid &&
			item.LineType == LineTypeFree &&
			item.RelatedPaidItemID == lineID {
			removed[item.ProductID] += item.Quantity
			continue
		}
		keep = append(keep, item)
	}
	c.items = keep

	// If a free line was removed directly, drop its back-reference from
	// the paid anchor.
	if target.LineType == LineTypeFree && target.RelatedPaidItemID != "" {
		if anchor := c.indexOf(target.RelatedPaidItemID); anchor >= 0 {
			refs := c.items[anchor].FreeItems[:0]
			for _, ref := range c.items[anchor].FreeItems {
				if ref.FreeLineID != lineID {
					refs = append(refs, ref)
				}
			}
			c.items[anchor].FreeItems = refs
		}
	}

	return removed, nil
}

// UpdateQuantity changes the quantity of a line, revalidating against the
// stock snapshot taken when the line was added.
func (c *Cart) UpdateQuantity(lineID string, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	idx := c.indexOf(lineID)
	if idx < 0 {
		return ErrLineNotFound
	}
	if quantity > c.items[idx].AvailableStock {
		return ErrStockInsufficient
	}
	c.items[idx].Quantity = quantity
	c.items[idx].FinalPrice = linePrice(c.items[idx])
	return nil
}

// UpdateDiscount sets the per-line discount amount on a paid line.
func (c *Cart) UpdateDiscount(lineID string, amount float64) error {
	idx := c.indexOf(lineID)
	if idx < 0 {
		return ErrLineNotFound
	}
	if c.items[idx].LineType != LineTypePaid {
		return ErrLineNotFound
	}
	if amount < 0 {
		amount = 0
	}
	c.items[idx].Discount = amount
	c.items[idx].FinalPrice = linePrice(c.items[idx])
	return nil
}

// GrantFreeItem adds a free line for the product, optionally tied to an
// existing paid line for auditability, and returns the new line id. Free
// units still consume physical inventory, so stock is checked exactly as
// for paid lines. On any failure the cart is left unchanged.
func (c *Cart) GrantFreeItem(p ProductSnapshot, quantity int, note, relatedPaidItemID string) (string, error) {
	if quantity < 1 {
		return "", ErrInvalidQuantity
	}
	if quantity > p.Stock {
		return "", ErrStockInsufficient
	}

	anchor := -1
	if relatedPaidItemID != "" {
		anchor = c.indexOf(relatedPaidItemID)
		if anchor < 0 || c.items[anchor].LineType != LineTypePaid {
			return "", ErrLineNotFound
		}
	}

	if note == "" {
		note = DefaultFreeReason
	}

	item := CartItem{
		ID:                uuid.New().String(),
		ProductID:         p.ID,
		Name:              p.Name,
		Code:              p.Code,
		UnitPrice:         p.UnitPrice,
		Quantity:          quantity,
		AvailableStock:    p.Stock,
		LineType:          LineTypeFree,
		FreeReason:        note,
		RelatedPaidItemID: relatedPaidItemID,
		AddedAt:           time.Now(),
	}
	item.FinalPrice = 0

	c.items = append(c.items, item)
	if anchor >= 0 {
		c.items[anchor].FreeItems = append(c.items[anchor].FreeItems, FreeItemRef{
			FreeLineID: item.ID,
			Quantity:   quantity,
		})
	}
	return item.ID, nil
}

// ComputeTotals is a pure, idempotent function of the current cart state.
func (c *Cart) ComputeTotals() Totals {
	t := Totals{Tax: c.tax}
	for _, item := range c.items {
		if item.LineType != LineTypePaid {
			continue
		}
		t.Subtotal += item.FinalPrice
		t.Discount += item.Discount
	}
	t.Discount += c.orderDiscount
	t.Total = t.Subtotal - c.orderDiscount + c.tax
	return t
}
