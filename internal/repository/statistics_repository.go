package repository

import (
	"context"
	"time"

	"taskboard-be/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// StatisticsRepository runs the dashboard aggregations over tasks and the
// audit trail of one board.
type StatisticsRepository struct {
	taskCollection  *mongo.Collection
	auditCollection *mongo.Collection
}

func NewStatisticsRepository(db *mongo.Database) *StatisticsRepository {
	return &StatisticsRepository{
		taskCollection:  db.Collection("tasks"),
		auditCollection: db.Collection("audit_entries"),
	}
}

func aggregate[T any](ctx context.Context, coll *mongo.Collection, pipeline []bson.M) ([]T, error) {
	results := []T{}
	err := read(ctx, func(ctx context.Context) error {
		cursor, err := coll.Aggregate(ctx, pipeline)
		if err != nil {
			return err
		}
		defer cursor.Close(ctx)
		return cursor.All(ctx, &results)
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// TasksByColumn counts the board's tasks per column
func (r *StatisticsRepository) TasksByColumn(ctx context.Context, boardID string) ([]models.ColumnCount, error) {
	pipeline := []bson.M{
		{"$match": bson.M{"boardId": boardID}},
		{"$group": bson.M{
			"_id":   "$columnId",
			"count": bson.M{"$sum": 1},
		}},
		{"$sort": bson.M{"count": -1}},
	}
	return aggregate[models.ColumnCount](ctx, r.taskCollection, pipeline)
}

// ActivityTrend counts audit entries per day since the given time
func (r *StatisticsRepository) ActivityTrend(ctx context.Context, boardID string, since time.Time) ([]models.ActivityPoint, error) {
	pipeline := []bson.M{
		{"$match": bson.M{
			"boardId": boardID,
			"ts":      bson.M{"$gte": since},
		}},
		{"$group": bson.M{
			"_id": bson.M{
				"$dateToString": bson.M{
					"format": "%Y-%m-%d",
					"date":   "$ts",
				},
			},
			"count": bson.M{"$sum": 1},
		}},
		{"$sort": bson.M{"_id": 1}},
	}
	return aggregate[models.ActivityPoint](ctx, r.auditCollection, pipeline)
}

// TopActors returns the identities with the most audit entries
func (r *StatisticsRepository) TopActors(ctx context.Context, boardID string, since time.Time, limit int) ([]models.ActorCount, error) {
	pipeline := []bson.M{
		{"$match": bson.M{
			"boardId": boardID,
			"ts":      bson.M{"$gte": since},
		}},
		{"$group": bson.M{
			"_id":   "$actor",
			"count": bson.M{"$sum": 1},
		}},
		{"$sort": bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}},
		{"$limit": limit},
	}
	return aggregate[models.ActorCount](ctx, r.auditCollection, pipeline)
}

// HourlyActivity aggregates board activity by day of week and hour
func (r *StatisticsRepository) HourlyActivity(ctx context.Context, boardID string, since time.Time) ([]models.HourlyActivity, error) {
	pipeline := []bson.M{
		{"$match": bson.M{
			"boardId": boardID,
			"ts":      bson.M{"$gte": since},
		}},
		{"$group": bson.M{
			"_id": bson.M{
				"dayOfWeek": bson.M{"$dayOfWeek": "$ts"}, // 1=Sunday in MongoDB
				"hour":      bson.M{"$hour": "$ts"},
			},
			"count": bson.M{"$sum": 1},
		}},
		{"$project": bson.M{
			"dayOfWeek": bson.M{"$subtract": []interface{}{"$_id.dayOfWeek", 1}}, // Convert to 0=Sunday
			"hour":      "$_id.hour",
			"count":     1,
			"_id":       0,
		}},
		{"$sort": bson.D{
			{Key: "dayOfWeek", Value: 1},
			{Key: "hour", Value: 1},
		}},
	}
	return aggregate[models.HourlyActivity](ctx, r.auditCollection, pipeline)
}
