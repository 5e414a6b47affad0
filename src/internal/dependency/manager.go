package dependency

import (
	"context"
	"time"

	"forumhub-activity-svc/src/clients"
	"forumhub-activity-svc/src/internal/activity"
	"forumhub-activity-svc/src/internal/cache"
	"forumhub-activity-svc/src/internal/config"
	"forumhub-activity-svc/src/internal/publisher"
	"forumhub-activity-svc/src/internal/session"
	"forumhub-activity-svc/src/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Manager struct {
	Router          *gin.Engine
	Config          *config.Configuration
	Mongodb         *clients.MongoDB
	Redis           *clients.RedisClient
	Publisher       *publisher.Publisher
	CacheService    cache.Service
	SessionRepo     session.Repository
	ActivityRepo    activity.Repository
	Recorder        activity.Recorder
	ActivityService activity.Service
	ActivityHandler activity.Handler
	UserService     user.Service
	UserHandler     user.Handler
}

func NewDependencyManager(router *gin.Engine,
	mongodb *clients.MongoDB,
	redisClient *clients.RedisClient,
	cfg *config.Configuration) *Manager {
	cacheService := cache.NewCacheService(redisClient.Client, cfg)
	sessionRepo := session.NewSessionRepository(mongodb, cfg.Database.SessionCollection)
	activityRepo := activity.NewActivityRepository(mongodb, cfg.Database.ActivityCollection)

	eventPublisher := publisher.New(&cfg.Kafka, func(kafkaCfg *config.KafkaConfig) (publisher.Client, error) {
		return clients.NewKafkaProducer(kafkaCfg)
	})

	recorder := activity.NewRecorder(activityRepo, eventPublisher, cacheService)
	activityService := activity.NewActivityService(activityRepo, cfg)
	activityHandler := activity.NewHandler(cfg, activityService, recorder, cacheService)

	userRepo := user.NewUserRepository(mongodb, cfg.Database.UserCollection)
	userService := user.NewUserService(userRepo, cfg)
	userHandler := user.NewHandler(cfg, userService, recorder)

	return &Manager{
		Router:          router,
		Config:          cfg,
		Mongodb:         mongodb,
		Redis:           redisClient,
		Publisher:       eventPublisher,
		CacheService:    cacheService,
		SessionRepo:     sessionRepo,
		ActivityRepo:    activityRepo,
		Recorder:        recorder,
		ActivityService: activityService,
		ActivityHandler: activityHandler,
		UserService:     userService,
		UserHandler:     userHandler,
	}
}

// Close shuts the shared resources down in dependency order: the publisher
// drains first so queued events still have live connections behind them.
func (m *Manager) Close() {
	m.Publisher.Close()

	if err := m.Redis.Close(); err != nil {
		logrus.WithError(err).Error("Error closing Redis client")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := m.Mongodb.Close(ctx); err != nil {
		logrus.WithError(err).Error("Error closing MongoDB client")
	}
}
