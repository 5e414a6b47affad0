package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"forumhub-activity-svc/src/internal/activity"
	"forumhub-activity-svc/src/internal/config"
	"forumhub-activity-svc/src/internal/models"
	"forumhub-activity-svc/src/internal/session"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type Service interface {
	GetActiveSession(ctx context.Context, key string) (*session.Session, error)
	UpdateSessionActivity(ctx context.Context, key string) error
	CacheActiveSession(ctx context.Context, session *session.Session) error
	GetRecentActivities(ctx context.Context, userID string) ([]activity.EntryView, error)
	SaveRecentActivities(ctx context.Context, userID string, views []activity.EntryView) error
	InvalidateRecentActivities(ctx context.Context, userID string) error
}

type cacheService struct {
	client *redis.Client
	cfg    *config.CacheConfig
}

func NewCacheService(client *redis.Client, cfg *config.Configuration) Service {
	return &cacheService{
		client: client,
		cfg:    &cfg.Cache}
}

func (c *cacheService) GetActiveSession(ctx context.Context, key string) (*session.Session, error) {
	logrus.WithField("key", key).Debug("Getting active session from cache")

	data, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			logrus.WithField("key", key).Debug("Session not found in cache")
			return nil, nil // Not an error, just not found
		}
		logrus.WithError(err).WithField("key", key).Error("Failed to get session from cache")
		return nil, models.ErrRedisGet
	}

	var session session.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		logrus.WithError(err).WithField("key", key).Error("Failed to unmarshal session from cache")
		return nil, models.ErrRedisGet
	}

	return &session, nil
}

func (c *cacheService) UpdateSessionActivity(ctx context.Context, key string) error {
	session, err := c.GetActiveSession(ctx, key)
	if err != nil || session == nil {
		return err
	}

	session.LastActiveAt = time.Now()

	data, err := json.Marshal(session)
	if err != nil {
		logrus.WithError(err).Error("Failed to marshal session for activity update")
		return models.ErrRedisSet
	}

	extendedTTL := time.Duration(c.cfg.SessionExpirationMinutes) * time.Minute
	err = c.client.Set(ctx, key, data, extendedTTL).Err()
	if err != nil {
		logrus.WithError(err).WithField("key", key).Error("Failed to update session activity")
		return models.ErrRedisSet
	}

	return nil
}

func (c *cacheService) CacheActiveSession(ctx context.Context, session *session.Session) error {
	key := fmt.Sprintf("session:%s:%s", session.UserID, session.SessionID)

	data, err := json.Marshal(session)
	if err != nil {
		logrus.WithError(err).WithField("session_id", session.SessionID).Error("Failed to marshal session for cache")
		return models.ErrRedisSet
	}

	expiration := time.Until(session.LastActiveAt.Add(time.Minute * time.Duration(c.cfg.SessionExpirationMinutes)))
	if expiration <= 0 {
		logrus.WithField("session_id", session.SessionID).Warn("Session already expired, not caching")
		return nil
	}

	err = c.client.Set(ctx, key, data, expiration).Err()
	if err != nil {
		logrus.WithError(err).WithField("session_id", session.SessionID).Error("Failed to cache session")
		return models.ErrRedisSet
	}

	logrus.WithField("session_id", session.SessionID).Debug("Session cached successfully")
	return nil
}

func (c *cacheService) activityKey(userID string) string {
	prefix := c.cfg.ActivityKeyPrefix
	if prefix == "" {
		prefix = "activity:recent"
	}
	return fmt.Sprintf("%s:%s", prefix, userID)
}

func (c *cacheService) GetRecentActivities(ctx context.Context, userID string) ([]activity.EntryView, error) {
	data, err := c.client.Get(ctx, c.activityKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Not an error, just not found
		}
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to get recent activities from cache")
		return nil, models.ErrRedisGet
	}

	var views []activity.EntryView
	if err := json.Unmarshal([]byte(data), &views); err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to unmarshal cached activities")
		return nil, models.ErrRedisGet
	}

	return views, nil
}

func (c *cacheService) SaveRecentActivities(ctx context.Context, userID string, views []activity.EntryView) error {
	data, err := json.Marshal(views)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to marshal activities for cache")
		return models.ErrRedisSet
	}

	expiration := time.Duration(c.cfg.ActivityExpirationMinutes) * time.Minute
	if expiration <= 0 {
		expiration = 5 * time.Minute
	}

	err = c.client.Set(ctx, c.activityKey(userID), data, expiration).Err()
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to cache recent activities")
		return models.ErrRedisSet
	}

	return nil
}

func (c *cacheService) InvalidateRecentActivities(ctx context.Context, userID string) error {
	err := c.client.Del(ctx, c.activityKey(userID)).Err()
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to invalidate recent activities")
		return models.ErrRedisDelete
	}
	return nil
}
