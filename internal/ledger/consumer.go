package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sufianahinfo/sufianah-pos/internal/publisher"
	"github.com/sufianahinfo/sufianah-pos/internal/sales"
)

const defaultCurrency = "PKR"

// MessageReader is the slice of kafka.Reader the consumer needs.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Consumer turns sale-completed events into ledger entries. Redelivered
// messages are deduplicated by the unique invoice constraint in the
// repository.
type Consumer struct {
	repo   EntryRepository
	reader MessageReader
}

func NewConsumer(repo EntryRepository, brokers ...string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    publisher.Topic,
		GroupID:  "ledger-service",
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{repo, reader}
}

func (c *Consumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.processMessage(ctx)
	}
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		log.Printf("error closing kafka reader: %v", err)
	}
}

func (c *Consumer) processMessage(ctx context.Context) {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Printf("error reading message: %v", err)
		return
	}

	var event sales.SaleCompletedEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		log.Printf("error parsing message: %v", err)
		return
	}

	if event.InvoiceNo == "" {
		log.Printf("dropping sale event with empty invoice number")
		return
	}

	entries := entriesFromEvent(event)
	if err := c.repo.InsertEntries(ctx, entries); err != nil {
		if errors.Is(err, ErrDuplicateEntry) {
			log.Printf("ledger entries for %s already exist, skipping", event.InvoiceNo)
			return
		}
		log.Printf("failed to insert ledger entries for %s: %v", event.InvoiceNo, err)
		return
	}

	log.Printf("ledger entries recorded for %s", event.InvoiceNo)
}

func entriesFromEvent(event sales.SaleCompletedEvent) []Entry {
	now := time.Now()
	entries := []Entry{{
		ID:        uuid.New(),
		InvoiceNo: event.InvoiceNo,
		EntryType: EntryTypeSaleRevenue,
		Amount:    event.Total,
		Currency:  defaultCurrency,
		Staff:     event.Staff,
		CreatedAt: now,
	}}

	if event.Discount > 0 {
		entries = append(entries, Entry{
			ID:        uuid.New(),
			InvoiceNo: event.InvoiceNo,
			EntryType: EntryTypeDiscount,
			Amount:    event.Discount,
			Currency:  defaultCurrency,
			Staff:     event.Staff,
			CreatedAt: now,
		})
	}

	return entries
}
