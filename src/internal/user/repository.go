package user

import (
	"context"
	"time"

	"forumhub-activity-svc/src/clients"
	"forumhub-activity-svc/src/internal/models"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	regexKey   = "$regex"
	optionsKey = "$options"
)

type Repository interface {
	GetAllUsers(ctx context.Context, req *GetAllUsersRequest) ([]*User, int64, error)
	UpdateStatus(ctx context.Context, userID, status string) error
	SoftDelete(ctx context.Context, userID string) error
}

type userRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(mongoClient *clients.MongoDB, collectionName string) Repository {
	collection := mongoClient.Database.Collection(collectionName)
	return &userRepository{
		collection: collection,
	}
}

func (r *userRepository) GetAllUsers(ctx context.Context, req *GetAllUsersRequest) ([]*User, int64, error) {
	collection := r.collection

	// Build filter
	filter := bson.M{"deleted_at": bson.M{"$exists": false}}

	if req.Role != "" {
		filter["role"] = req.Role
	}

	if req.Status != "" {
		filter["status"] = req.Status
	}

	if req.Search != "" {
		filter["$or"] = []bson.M{
			{"username": bson.M{regexKey: req.Search, optionsKey: "i"}},
			{"full_name": bson.M{regexKey: req.Search, optionsKey: "i"}},
			{"email": bson.M{regexKey: req.Search, optionsKey: "i"}},
		}
	}

	totalCount, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		logrus.WithError(err).Error("Failed to count users")
		return nil, 0, models.ErrDatabaseQuery
	}

	skip := (req.Page - 1) * req.Limit

	opts := options.Find().
		SetLimit(int64(req.Limit)).
		SetSkip(int64(skip)).
		SetSort(bson.M{"created_at": -1})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		logrus.WithError(err).Error("Failed to find users")
		return nil, 0, models.ErrDatabaseQuery
	}
	defer cursor.Close(ctx)

	var users []*User
	for cursor.Next(ctx) {
		var user User
		if err := cursor.Decode(&user); err != nil {
			logrus.WithError(err).Error("Failed to decode user")
			continue
		}
		users = append(users, &user)
	}

	if err := cursor.Err(); err != nil {
		logrus.WithError(err).Error("Cursor error")
		return nil, 0, models.ErrDatabaseQuery
	}

	logrus.WithFields(logrus.Fields{
		"count": len(users),
		"total": totalCount,
		"page":  req.Page,
		"limit": req.Limit,
	}).Debug("Retrieved users successfully")

	return users, totalCount, nil
}

func (r *userRepository) UpdateStatus(ctx context.Context, userID, status string) error {
	userOID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return models.ErrInvalidParams
	}

	filter := bson.M{
		"_id":        userOID,
		"deleted_at": bson.M{"$exists": false},
	}
	update := bson.M{
		"$set": bson.M{
			"status":     status,
			"updated_at": time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"user_id": userID,
			"status":  status,
		}).Error("Failed to update user status")
		return models.ErrDatabaseUpdate
	}
	if result.MatchedCount == 0 {
		return models.ErrUserNotFound
	}

	return nil
}

func (r *userRepository) SoftDelete(ctx context.Context, userID string) error {
	userOID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return models.ErrInvalidParams
	}

	filter := bson.M{
		"_id":        userOID,
		"deleted_at": bson.M{"$exists": false},
	}
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"deleted_at": now,
			"updated_at": now,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to delete user")
		return models.ErrDatabaseUpdate
	}
	if result.MatchedCount == 0 {
		return models.ErrUserNotFound
	}

	return nil
}
