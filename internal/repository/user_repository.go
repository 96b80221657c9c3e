package repository

import (
	"context"
	"time"

	"taskboard-be/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type UserRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		collection: db.Collection("users"),
	}
}

func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "emailLower", Value: 1}},
		Options: options.Index().SetName("idx_email_lower").SetUnique(true),
	})
	return err
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt

	_, err := r.collection.InsertOne(ctx, user)
	return mapErr(err)
}

// FindByEmail looks a user up by the folded email.
func (r *UserRepository) FindByEmail(ctx context.Context, emailLower string) (*models.User, error) {
	var user models.User
	err := read(ctx, func(ctx context.Context) error {
		return r.collection.FindOne(ctx, bson.M{"emailLower": emailLower}).Decode(&user)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := read(ctx, func(ctx context.Context) error {
		return r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}
