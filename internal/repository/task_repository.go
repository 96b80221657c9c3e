package repository

import (
	"context"
	"time"

	"taskboard-be/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TaskRepository persists tasks as independent documents keyed by
// (boardId, columnId).
type TaskRepository struct {
	collection *mongo.Collection
}

func NewTaskRepository(db *mongo.Database) *TaskRepository {
	return &TaskRepository{collection: db.Collection("tasks")}
}

func (r *TaskRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "boardId", Value: 1}, {Key: "columnId", Value: 1}, {Key: "position", Value: 1}, {Key: "seq", Value: 1}},
			Options: options.Index().SetName("idx_board_column_position_seq"),
		},
		{
			Keys:    bson.D{{Key: "boardId", Value: 1}, {Key: "updatedAt", Value: -1}},
			Options: options.Index().SetName("idx_board_updated"),
		},
	})
	return err
}

// insertion order breaks position ties
var positionOrder = bson.D{{Key: "position", Value: 1}, {Key: "seq", Value: 1}}

func (r *TaskRepository) CreateTask(ctx context.Context, task *models.Task) error {
	_, err := r.collection.InsertOne(ctx, task)
	return mapErr(err)
}

func (r *TaskRepository) GetTask(ctx context.Context, id string) (*models.Task, error) {
	var task models.Task
	err := read(ctx, func(ctx context.Context) error {
		return r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&task)
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// ListBoardTasks returns every task of a board ordered by position.
func (r *TaskRepository) ListBoardTasks(ctx context.Context, boardID string) ([]models.Task, error) {
	return r.find(ctx, bson.M{"boardId": boardID})
}

// ListColumnTasks returns the tasks of one column ordered by position, then
// by creation.
func (r *TaskRepository) ListColumnTasks(ctx context.Context, boardID, columnID string) ([]models.Task, error) {
	return r.find(ctx, bson.M{"boardId": boardID, "columnId": columnID})
}

func (r *TaskRepository) find(ctx context.Context, filter bson.M) ([]models.Task, error) {
	tasks := []models.Task{}
	err := read(ctx, func(ctx context.Context) error {
		cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(positionOrder))
		if err != nil {
			return err
		}
		defer cursor.Close(ctx)
		return cursor.All(ctx, &tasks)
	})
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// UpdateTaskContent writes the editable fields of a task.
func (r *TaskRepository) UpdateTaskContent(ctx context.Context, task *models.Task) error {
	update := bson.M{"$set": bson.M{
		"title":       task.Title,
		"description": task.Description,
		"assigneeId":  task.AssigneeID,
		"dueDate":     task.DueDate,
		"updatedAt":   task.UpdatedAt,
	}}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": task.ID}, update)
	if err != nil {
		return mapErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ApplyPlacements writes new column/position pairs in one ordered bulk write.
func (r *TaskRepository) ApplyPlacements(ctx context.Context, boardID string, placements []models.Placement, at time.Time) error {
	if len(placements) == 0 {
		return nil
	}

	operations := make([]mongo.WriteModel, 0, len(placements))
	for _, p := range placements {
		operations = append(operations, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": p.TaskID, "boardId": boardID}).
			SetUpdate(bson.M{"$set": bson.M{
				"columnId":  p.ColumnID,
				"position":  p.Position,
				"updatedAt": at,
			}}))
	}

	res, err := r.collection.BulkWrite(ctx, operations, options.BulkWrite().SetOrdered(true))
	if err != nil {
		return mapErr(err)
	}
	if res.MatchedCount != int64(len(placements)) {
		return ErrNotFound
	}
	return nil
}

func (r *TaskRepository) DeleteTask(ctx context.Context, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mapErr(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *TaskRepository) DeleteColumnTasks(ctx context.Context, boardID, columnID string) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"boardId": boardID, "columnId": columnID})
	if err != nil {
		return 0, mapErr(err)
	}
	return res.DeletedCount, nil
}

func (r *TaskRepository) DeleteBoardTasks(ctx context.Context, boardID string) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"boardId": boardID})
	if err != nil {
		return 0, mapErr(err)
	}
	return res.DeletedCount, nil
}

// TaskStats counts a board's tasks, the ones in done columns and the most
// recent task activity.
func (r *TaskRepository) TaskStats(ctx context.Context, boardID string, doneColumnIDs []string) (models.TaskStats, error) {
	var stats models.TaskStats
	err := read(ctx, func(ctx context.Context) error {
		total, err := r.collection.CountDocuments(ctx, bson.M{"boardId": boardID})
		if err != nil {
			return err
		}
		stats.Total = int(total)

		stats.Done = 0
		if len(doneColumnIDs) > 0 {
			done, err := r.collection.CountDocuments(ctx, bson.M{
				"boardId":  boardID,
				"columnId": bson.M{"$in": doneColumnIDs},
			})
			if err != nil {
				return err
			}
			stats.Done = int(done)
		}

		var last models.Task
		err = r.collection.FindOne(ctx, bson.M{"boardId": boardID},
			options.FindOne().SetSort(bson.D{{Key: "updatedAt", Value: -1}})).Decode(&last)
		switch {
		case err == mongo.ErrNoDocuments:
			stats.LastActivity = nil
		case err != nil:
			return err
		default:
			at := last.UpdatedAt
			stats.LastActivity = &at
		}
		return nil
	})
	return stats, err
}
