package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/example/zastore/pkg/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AuditRepository stores the order and settings audit trail in MongoDB.
type AuditRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func NewAuditRepository(ctx context.Context, cfg *config.MongoDBConfig) (*AuditRepository, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	repo := &AuditRepository{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
	}
	if err := repo.ensureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return repo, nil
}

func (m *AuditRepository) ensureIndexes(ctx context.Context) error {
	_, err := m.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "entity_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create audit index: %w", err)
	}
	return nil
}

func (m *AuditRepository) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

func (m *AuditRepository) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// AuditEntry is one recorded business event.
type AuditEntry struct {
	ID        string    `bson:"_id,omitempty" json:"-"`
	Action    string    `bson:"action" json:"action"`
	EntityID  string    `bson:"entity_id" json:"entityId"`
	ActorID   string    `bson:"actor_id,omitempty" json:"actorId,omitempty"`
	Data      bson.M    `bson:"data" json:"data"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

func (m *AuditRepository) Record(ctx context.Context, entry AuditEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := m.collection.InsertOne(ctx, entry)
	return err
}

// History returns the newest entries for entityID first.
func (m *AuditRepository) History(ctx context.Context, entityID string, limit int64) ([]AuditEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)

	cursor, err := m.collection.Find(ctx, bson.M{"entity_id": entityID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []AuditEntry
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
