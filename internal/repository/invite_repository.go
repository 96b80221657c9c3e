package repository

import (
	"context"
	"time"

	"taskboard-be/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type InviteRepository struct {
	collection *mongo.Collection
}

func NewInviteRepository(db *mongo.Database) *InviteRepository {
	return &InviteRepository{collection: db.Collection("board_invites")}
}

func (r *InviteRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "boardId", Value: 1}, {Key: "emailLower", Value: 1}, {Key: "status", Value: 1}}, Options: options.Index().SetName("idx_board_invitee_status")},
		{Keys: bson.D{{Key: "emailLower", Value: 1}, {Key: "createdAt", Value: -1}}, Options: options.Index().SetName("idx_invitee")},
		{Keys: bson.D{{Key: "invitedByEmailLower", Value: 1}, {Key: "createdAt", Value: -1}}, Options: options.Index().SetName("idx_inviter")},
	})
	return err
}

func (r *InviteRepository) CreateInvite(ctx context.Context, invite *models.BoardInvite) error {
	_, err := r.collection.InsertOne(ctx, invite)
	return mapErr(err)
}

func (r *InviteRepository) GetInvite(ctx context.Context, id string) (*models.BoardInvite, error) {
	var invite models.BoardInvite
	err := read(ctx, func(ctx context.Context) error {
		return r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&invite)
	})
	if err != nil {
		return nil, err
	}
	return &invite, nil
}

// FindPendingInvite returns the pending invite of an identity to a board.
func (r *InviteRepository) FindPendingInvite(ctx context.Context, boardID, emailLower string) (*models.BoardInvite, error) {
	var invite models.BoardInvite
	err := read(ctx, func(ctx context.Context) error {
		return r.collection.FindOne(ctx, bson.M{
			"boardId":    boardID,
			"emailLower": emailLower,
			"status":     models.InvitePending,
		}).Decode(&invite)
	})
	if err != nil {
		return nil, err
	}
	return &invite, nil
}

// ListInvites returns matching invites, newest first.
func (r *InviteRepository) ListInvites(ctx context.Context, f models.InviteFilter) ([]models.BoardInvite, error) {
	filter := bson.M{}
	if f.EmailLower != "" {
		filter["emailLower"] = f.EmailLower
	}
	if f.InvitedByEmailLower != "" {
		filter["invitedByEmailLower"] = f.InvitedByEmailLower
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}

	invites := []models.BoardInvite{}
	err := read(ctx, func(ctx context.Context) error {
		cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
		if err != nil {
			return err
		}
		defer cursor.Close(ctx)
		return cursor.All(ctx, &invites)
	})
	if err != nil {
		return nil, err
	}
	return invites, nil
}

// UpdateInvite stores the invite's status transition.
func (r *InviteRepository) UpdateInvite(ctx context.Context, invite *models.BoardInvite) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": invite.ID}, bson.M{"$set": bson.M{
		"status":     invite.Status,
		"acceptedAt": invite.AcceptedAt,
		"revokedAt":  invite.RevokedAt,
	}})
	if err != nil {
		return mapErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// RevokePendingFor revokes every pending invite of an identity to a board.
func (r *InviteRepository) RevokePendingFor(ctx context.Context, boardID, emailLower string, at time.Time) (int64, error) {
	res, err := r.collection.UpdateMany(ctx,
		bson.M{"boardId": boardID, "emailLower": emailLower, "status": models.InvitePending},
		bson.M{"$set": bson.M{"status": models.InviteRevoked, "revokedAt": at}})
	if err != nil {
		return 0, mapErr(err)
	}
	return res.ModifiedCount, nil
}

func (r *InviteRepository) DeleteBoardInvites(ctx context.Context, boardID string) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"boardId": boardID})
	if err != nil {
		return 0, mapErr(err)
	}
	return res.DeletedCount, nil
}
