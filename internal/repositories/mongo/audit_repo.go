package mongo

import (
	"context"
	"time"

	"intervuex/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const auditCollection = "audit_logs"

// AuditRepository keeps the audit trail in a Mongo collection instead of the relational store.
type AuditRepository struct{ col *mongo.Collection }

// NewAuditRepository ensures a (session_id, created_at) index on the collection.
func NewAuditRepository(c *Client) (*AuditRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, err
	}
	col := db.Collection(auditCollection)
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{{Key: "session_id", Value: 1}, {Key: "created_at", Value: 1}},
	})
	return &AuditRepository{col: col}, nil
}

func (r *AuditRepository) Append(ctx context.Context, entry *models.AuditLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := r.col.InsertOne(ctx, entry)
	return err
}

func (r *AuditRepository) ListBySession(ctx context.Context, sessionID string) ([]models.AuditLog, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"session_id": sessionID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.AuditLog{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
