package sales

import (
	"context"
	"errors"
	"time"

	"github.com/sufianahinfo/sufianah-pos/internal/pos"
)

var (
	ErrSaleNotFound     = errors.New("sale not found")
	ErrDuplicateInvoice = errors.New("sale with this invoice number already exists")
	ErrEventNotFound    = errors.New("outbox event not found")
)

// OutboxEvent is a pending integration event written in the same logical
// step as the sale it describes; the poller publishes it to Kafka.
type OutboxEvent struct {
	ID          string     `bson:"_id"`
	AggregateID string     `bson:"aggregate_id"` // invoice number, for partition ordering
	EventType   string     `bson:"event_type"`
	Payload     []byte     `bson:"payload"`
	CreatedAt   time.Time  `bson:"created_at"`
	ProcessedAt *time.Time `bson:"processed_at,omitempty"`
}

// SaleRepository defines the interface for sale persistence.
// Consumers define this interface, not the MongoDB implementation.
type SaleRepository interface {
	SaveSale(ctx context.Context, sale *pos.SaleRecord) error
	GetSale(ctx context.Context, invoiceNo string) (*pos.SaleRecord, error)
	ListSales(ctx context.Context, limit int64) ([]*pos.SaleRecord, error)
	DeleteSale(ctx context.Context, invoiceNo string) error
	UpdateReturnState(ctx context.Context, invoiceNo string, status pos.ReturnStatus, returned map[string]int) error
	UpdatePayment(ctx context.Context, invoiceNo string, payment pos.Payment) error

	AppendOutboxEvent(ctx context.Context, event *OutboxEvent) error
	UnprocessedEvents(ctx context.Context, limit int64) ([]*OutboxEvent, error)
	MarkEventProcessed(ctx context.Context, eventID string) error
}
