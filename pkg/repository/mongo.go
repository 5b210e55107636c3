package repository

import (
	"context"
	"time"

	"github.com/example/shopcore/pkg/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Audit actions recorded for the order lifecycle.
const (
	ActionOrderCreated   = "order_created"
	ActionOrderCancelled = "order_cancelled"
	ActionOrderDeleted   = "order_deleted"
)

type MongoRepository struct {
	client   *mongo.Client
	database *mongo.Database
	config   *config.MongoDBConfig
}

func NewMongoRepository(cfg *config.MongoDBConfig) (*MongoRepository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}

	return &MongoRepository{
		client:   client,
		database: client.Database(cfg.Database),
		config:   cfg,
	}, nil
}

func (m *MongoRepository) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

func (m *MongoRepository) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// OrderEvent is one audit entry in the order trail. The audit trail is
// the only thing this service keeps in MongoDB; deleting an order leaves
// its trail behind on purpose.
type OrderEvent struct {
	ID        string    `bson:"_id,omitempty"`
	OrderID   string    `bson:"order_id"`
	UserID    string    `bson:"user_id"`
	Action    string    `bson:"action"`
	Data      bson.M    `bson:"data,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
}

func (m *MongoRepository) RecordOrderEvent(ctx context.Context, event *OrderEvent) error {
	collection := m.database.Collection(m.config.Collection)
	event.CreatedAt = time.Now()
	_, err := collection.InsertOne(ctx, event)
	return err
}

// OrderTrail returns the most recent audit entries for one order.
func (m *MongoRepository) OrderTrail(ctx context.Context, orderID string, limit int64) ([]*OrderEvent, error) {
	collection := m.database.Collection(m.config.Collection)

	filter := bson.M{"order_id": orderID}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []*OrderEvent
	if err = cursor.All(ctx, &events); err != nil {
		return nil, err
	}

	return events, nil
}
