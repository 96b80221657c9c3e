package repository

import (
	"context"
	"errors"

	"taskboard-be/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// BoardRepository persists boards with their embedded columns, labels and
// members. A board is always written as a whole document. Fences live in
// their own collection so SaveBoard never rewrites them.
type BoardRepository struct {
	collection *mongo.Collection
	fences     *mongo.Collection
}

func NewBoardRepository(db *mongo.Database) *BoardRepository {
	return &BoardRepository{
		collection: db.Collection("boards"),
		fences:     db.Collection("board_fences"),
	}
}

// EnsureIndexes creates the lookup indexes: owner and member identity for the
// board list, and columns.id so a column resolves to its board without a scan.
func (r *BoardRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "ownerEmailLower", Value: 1}}, Options: options.Index().SetName("idx_owner")},
		{Keys: bson.D{{Key: "members.emailLower", Value: 1}}, Options: options.Index().SetName("idx_members")},
		{Keys: bson.D{{Key: "columns.id", Value: 1}}, Options: options.Index().SetName("idx_column_id").SetSparse(true)},
	})
	return err
}

func (r *BoardRepository) CreateBoard(ctx context.Context, board *models.Board) error {
	_, err := r.collection.InsertOne(ctx, board)
	return mapErr(err)
}

func (r *BoardRepository) GetBoard(ctx context.Context, id string) (*models.Board, error) {
	var board models.Board
	err := read(ctx, func(ctx context.Context) error {
		return r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&board)
	})
	if err != nil {
		return nil, err
	}
	board.Normalize()
	return &board, nil
}

// GetBoardByColumnID returns the board that contains the column.
func (r *BoardRepository) GetBoardByColumnID(ctx context.Context, columnID string) (*models.Board, error) {
	var board models.Board
	err := read(ctx, func(ctx context.Context) error {
		return r.collection.FindOne(ctx, bson.M{"columns.id": columnID}).Decode(&board)
	})
	if err != nil {
		return nil, err
	}
	board.Normalize()
	return &board, nil
}

// ListBoardsForMember returns the boards the identity owns or is a member of.
func (r *BoardRepository) ListBoardsForMember(ctx context.Context, emailLower string) ([]models.Board, error) {
	filter := bson.M{"$or": []bson.M{
		{"ownerEmailLower": emailLower},
		{"members.emailLower": emailLower},
	}}
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})

	var boards []models.Board
	err := read(ctx, func(ctx context.Context) error {
		cursor, err := r.collection.Find(ctx, filter, findOptions)
		if err != nil {
			return err
		}
		defer cursor.Close(ctx)
		return cursor.All(ctx, &boards)
	})
	if err != nil {
		return nil, err
	}
	for i := range boards {
		boards[i].Normalize()
	}
	return boards, nil
}

// SaveBoard replaces the whole board document.
func (r *BoardRepository) SaveBoard(ctx context.Context, board *models.Board) error {
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": board.ID}, board)
	if err != nil {
		return mapErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

type boardFence struct {
	BoardID string `bson:"_id"`
	Version int64  `bson:"version"`
}

// BoardVersion returns the board's fence version, 0 for a board that was
// never mutated under its lock.
func (r *BoardRepository) BoardVersion(ctx context.Context, boardID string) (int64, error) {
	var fence boardFence
	err := read(ctx, func(ctx context.Context) error {
		return r.fences.FindOne(ctx, bson.M{"_id": boardID}).Decode(&fence)
	})
	if errors.Is(err, ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return fence.Version, nil
}

// AdvanceBoardVersion moves the fence from expected to expected+1. When the
// fence is elsewhere the upsert collides on _id and ErrStale is returned.
func (r *BoardRepository) AdvanceBoardVersion(ctx context.Context, boardID string, expected int64) error {
	_, err := r.fences.UpdateOne(ctx,
		bson.M{"_id": boardID, "version": expected},
		bson.M{"$inc": bson.M{"version": 1}},
		options.Update().SetUpsert(true),
	)
	if mongo.IsDuplicateKeyError(err) {
		return ErrStale
	}
	return mapErr(err)
}

func (r *BoardRepository) DeleteBoard(ctx context.Context, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mapErr(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
