package persistence

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"syncsns/domain/model"
	"syncsns/domain/repository"
	"syncsns/infrastructure/logger"
)

// AuditRepository appends publish attempt records to MongoDB. The client
// may be nil when Mongo is not configured; Record is then a no-op so the
// publish path never depends on the audit store.
type AuditRepository struct {
	collection *mongo.Collection
}

func NewAuditRepository(client *mongo.Client, database string) repository.IPublishAudit {
	if client == nil {
		return &AuditRepository{}
	}
	return &AuditRepository{collection: client.Database(database).Collection("publish_audit")}
}

func (r *AuditRepository) Record(ctx context.Context, audit *model.PublishAudit) error {
	if r.collection == nil {
		return nil
	}
	if audit.CreatedAt.IsZero() {
		audit.CreatedAt = time.Now().UTC()
	}
	if _, err := r.collection.InsertOne(ctx, audit); err != nil {
		logger.GetLogger().WithFields(map[string]interface{}{
			"error":    err,
			"post_id":  audit.PostID,
			"platform": audit.Platform,
		}).Warn("publish audit insert failed")
		return err
	}
	return nil
}
