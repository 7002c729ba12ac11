package publisher

import (
	"context"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sufianahinfo/sufianah-pos/internal/sales"
)

const Topic = "pos-sales"

// KafkaWriter is the slice of kafka.Writer the poller needs.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OutboxSource is the slice of the sale repository the poller needs.
type OutboxSource interface {
	UnprocessedEvents(ctx context.Context, limit int64) ([]*sales.OutboxEvent, error)
	MarkEventProcessed(ctx context.Context, eventID string) error
}

// OutboxPoller drains the sale outbox into Kafka. Events are published
// at-least-once; consumers dedupe on the invoice number.
type OutboxPoller struct {
	tick   time.Duration
	repo   OutboxSource
	writer KafkaWriter
}

func NewOutboxPoller(repo OutboxSource, brokers ...string) *OutboxPoller {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  Topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &OutboxPoller{tick: time.Second, repo: repo, writer: w}
}

func (p *OutboxPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.processUnpublishedEvents(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) Close() {
	if err := p.writer.Close(); err != nil {
		log.Printf("error closing kafka writer: %v", err)
	}
}

func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) {
	events, err := p.repo.UnprocessedEvents(ctx, 100)
	if err != nil {
		log.Printf("failed to fetch outbox events: %v", err)
		return
	}

	for _, event := range events {
		if errPublish := p.publishToKafka(ctx, event); errPublish != nil {
			log.Printf("failed to publish event id = %v with error %v", event.ID, errPublish)
			continue
		}

		if errMark := p.repo.MarkEventProcessed(ctx, event.ID); errMark != nil {
			log.Printf("failed to mark event as processed id = %v with error %v", event.ID, errMark)
			continue
		}
	}
}

func (p *OutboxPoller) publishToKafka(ctx context.Context, event *sales.OutboxEvent) error {
	msg := kafka.Message{
		Key:   []byte(event.AggregateID), // invoice number for ordering
		Value: event.Payload,             // Already JSON from the outbox
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}

	return p.writer.WriteMessages(ctx, msg)
}
