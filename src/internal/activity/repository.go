package activity

import (
	"context"
	"errors"
	"time"

	"forumhub-activity-svc/src/clients"
	"forumhub-activity-svc/src/internal/models"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository is the durable, append-only per-user activity log.
type Repository interface {
	Append(ctx context.Context, userID string, entry *Entry) error
	GetByUserID(ctx context.Context, userID string) (*Log, error)
	FindAll(ctx context.Context, userID string) ([]*Log, error)
	Clear(ctx context.Context, userID string) error
}

type activityRepository struct {
	collection *mongo.Collection
}

func NewActivityRepository(mongoClient *clients.MongoDB, collectionName string) Repository {
	collection := mongoClient.Database.Collection(collectionName)
	return &activityRepository{
		collection: collection,
	}
}

// Append pushes one entry onto the user's log document, creating the document
// if absent. The upsert-with-push is a single atomic operation, so concurrent
// appends for the same user never lose an entry.
func (r *activityRepository) Append(ctx context.Context, userID string, entry *Entry) error {
	userOID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		logrus.WithField("user_id", userID).Error("Invalid user id for activity append")
		return models.ErrInvalidParams
	}

	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}

	filter := bson.M{"user_id": userOID}
	update := bson.M{
		"$push":        bson.M{"activities": entry},
		"$set":         bson.M{"updated_at": entry.CreatedAt},
		"$setOnInsert": bson.M{"created_at": entry.CreatedAt},
	}
	opts := options.Update().SetUpsert(true)

	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"user_id":    userID,
			"event_type": entry.EventType,
		}).Error("Failed to append activity entry")
		return models.ErrDatabaseUpdate
	}

	return nil
}

func (r *activityRepository) GetByUserID(ctx context.Context, userID string) (*Log, error) {
	userOID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, models.ErrInvalidParams
	}

	var log Log
	filter := bson.M{"user_id": userOID}

	err = r.collection.FindOne(ctx, filter).Decode(&log)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrRecordNotFound
		}
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to get activity log")
		return nil, models.ErrDatabaseQuery
	}

	return &log, nil
}

// FindAll returns all activity logs, optionally narrowed to a single user.
func (r *activityRepository) FindAll(ctx context.Context, userID string) ([]*Log, error) {
	filter := bson.M{}
	if userID != "" {
		userOID, err := primitive.ObjectIDFromHex(userID)
		if err != nil {
			return nil, models.ErrInvalidParams
		}
		filter["user_id"] = userOID
	}

	opts := options.Find().SetSort(bson.M{"updated_at": -1})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		logrus.WithError(err).Error("Failed to find activity logs")
		return nil, models.ErrDatabaseQuery
	}
	defer cursor.Close(ctx)

	var logs []*Log
	for cursor.Next(ctx) {
		var log Log
		if err := cursor.Decode(&log); err != nil {
			logrus.WithError(err).Error("Failed to decode activity log")
			continue
		}
		logs = append(logs, &log)
	}

	if err := cursor.Err(); err != nil {
		logrus.WithError(err).Error("Cursor error")
		return nil, models.ErrDatabaseQuery
	}

	return logs, nil
}

// Clear empties one user's activity array. The log document itself is kept so
// subsequent appends do not race a delete.
func (r *activityRepository) Clear(ctx context.Context, userID string) error {
	userOID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return models.ErrInvalidParams
	}

	filter := bson.M{"user_id": userOID}
	update := bson.M{
		"$set": bson.M{
			"activities": []Entry{},
			"updated_at": time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to clear activity log")
		return models.ErrDatabaseUpdate
	}
	if result.MatchedCount == 0 {
		return models.ErrRecordNotFound
	}

	return nil
}
