package repository

import (
	"context"

	"taskboard-be/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultAuditLimit = 500

// AuditRepository is append-only: it exposes inserts and queries, nothing
// that updates or deletes an entry.
type AuditRepository struct {
	collection *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{collection: db.Collection("audit_entries")}
}

func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "boardId", Value: 1}, {Key: "ts", Value: -1}}, Options: options.Index().SetName("idx_board_ts")},
		{Keys: bson.D{{Key: "entity", Value: 1}, {Key: "entityId", Value: 1}, {Key: "ts", Value: -1}}, Options: options.Index().SetName("idx_entity_ts")},
	})
	return err
}

// InsertAudit writes one entry. Re-inserting an entry with the same id is a
// no-op, so a retry after an ambiguous failure cannot duplicate it.
func (r *AuditRepository) InsertAudit(ctx context.Context, entry *models.AuditEntry) error {
	_, err := r.collection.InsertOne(ctx, entry)
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	return mapErr(err)
}

// FindAudit returns matching entries, most recent first. Ids are ULIDs, so
// they order entries written within the same timestamp.
func (r *AuditRepository) FindAudit(ctx context.Context, f models.AuditFilter) ([]models.AuditEntry, error) {
	filter := bson.M{}
	if f.Entity != "" {
		filter["entity"] = f.Entity
	}
	if f.EntityID != "" {
		filter["entityId"] = f.EntityID
	}
	if f.BoardID != "" {
		filter["boardId"] = f.BoardID
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	findOptions := options.Find().
		SetSort(bson.D{{Key: "ts", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))

	entries := []models.AuditEntry{}
	err := read(ctx, func(ctx context.Context) error {
		cursor, err := r.collection.Find(ctx, filter, findOptions)
		if err != nil {
			return err
		}
		defer cursor.Close(ctx)
		return cursor.All(ctx, &entries)
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
