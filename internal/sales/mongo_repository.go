package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sufianahinfo/sufianah-pos/internal/pos"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100).
		SetMinPoolSize(10)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}

type mongoRepository struct {
	sales  *mongo.Collection
	outbox *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) SaleRepository {
	return &mongoRepository{
		sales:  db.Collection("sales"),
		outbox: db.Collection("sale_outbox"),
	}
}

// EnsureIndexes builds the indexes the repository depends on. Run once at startup.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	repo := &mongoRepository{
		sales:  db.Collection("sales"),
		outbox: db.Collection("sale_outbox"),
	}
	return repo.CreateIndexes(ctx)
}

func (m *mongoRepository) CreateIndexes(ctx context.Context) error {
	_, err := m.sales.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "invoice_no", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create sales indexes: %w", err)
	}

	_, err = m.outbox.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "processed_at", Value: 1}, {Key: "created_at", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create outbox indexes: %w", err)
	}

	return nil
}

// SaveSale inserts a finalized sale. The unique invoice_no index makes
// retries after a lost response idempotent; a duplicate insert surfaces
// as ErrDuplicateInvoice.
func (m *mongoRepository) SaveSale(ctx context.Context, sale *pos.SaleRecord) error {
	_, err := m.sales.InsertOne(ctx, sale)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateInvoice
		}
		return fmt.Errorf("failed to save sale: %w", err)
	}
	return nil
}

func (m *mongoRepository) GetSale(ctx context.Context, invoiceNo string) (*pos.SaleRecord, error) {
	var sale pos.SaleRecord

	err := m.sales.FindOne(ctx, bson.M{"invoice_no": invoiceNo}).Decode(&sale)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSaleNotFound
		}
		return nil, fmt.Errorf("failed to get sale: %w", err)
	}

	return &sale, nil
}

func (m *mongoRepository) ListSales(ctx context.Context, limit int64) ([]*pos.SaleRecord, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := m.sales.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}
	defer cursor.Close(ctx)

	var sales []*pos.SaleRecord
	if err := cursor.All(ctx, &sales); err != nil {
		return nil, fmt.Errorf("failed to decode sales: %w", err)
	}

	return sales, nil
}

func (m *mongoRepository) DeleteSale(ctx context.Context, invoiceNo string) error {
	result, err := m.sales.DeleteOne(ctx, bson.M{"invoice_no": invoiceNo})
	if err != nil {
		return fmt.Errorf("failed to delete sale: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrSaleNotFound
	}
	return nil
}

// UpdateReturnState sets the sale's return status and the cumulative
// returned quantity per line in one update.
func (m *mongoRepository) UpdateReturnState(ctx context.Context, invoiceNo string, status pos.ReturnStatus, returned map[string]int) error {
	set := bson.M{
		"return_status": status,
		"updated_at":    time.Now(),
	}

	update := bson.M{"$set": set}
	result, err := m.sales.UpdateOne(ctx, bson.M{"invoice_no": invoiceNo}, update)
	if err != nil {
		return fmt.Errorf("failed to update return status: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrSaleNotFound
	}

	for lineID, qty := range returned {
		arrayFilters := options.Update().SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{bson.M{"elem.id": lineID}},
		})
		lineUpdate := bson.M{
			"$set": bson.M{"items.$[elem].returned_quantity": qty},
		}
		if _, err := m.sales.UpdateOne(ctx, bson.M{"invoice_no": invoiceNo}, lineUpdate, arrayFilters); err != nil {
			return fmt.Errorf("failed to update returned quantity for line %s: %w", lineID, err)
		}
	}

	return nil
}

func (m *mongoRepository) UpdatePayment(ctx context.Context, invoiceNo string, payment pos.Payment) error {
	update := bson.M{
		"$set": bson.M{
			"payment":    payment,
			"updated_at": time.Now(),
		},
	}

	result, err := m.sales.UpdateOne(ctx, bson.M{"invoice_no": invoiceNo}, update)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrSaleNotFound
	}
	return nil
}

func (m *mongoRepository) AppendOutboxEvent(ctx context.Context, event *OutboxEvent) error {
	_, err := m.outbox.InsertOne(ctx, event)
	if err != nil {
		return fmt.Errorf("failed to append outbox event: %w", err)
	}
	return nil
}

func (m *mongoRepository) UnprocessedEvents(ctx context.Context, limit int64) ([]*OutboxEvent, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(limit)

	cursor, err := m.outbox.Find(ctx, bson.M{"processed_at": nil}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch outbox events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []*OutboxEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode outbox events: %w", err)
	}

	return events, nil
}

func (m *mongoRepository) MarkEventProcessed(ctx context.Context, eventID string) error {
	now := time.Now()
	result, err := m.outbox.UpdateOne(ctx,
		bson.M{"_id": eventID},
		bson.M{"$set": bson.M{"processed_at": now}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark event as processed: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrEventNotFound
	}
	return nil
}
