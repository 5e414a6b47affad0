package activity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"forumhub-activity-svc/src/internal/config"
	"forumhub-activity-svc/src/internal/models"
	"forumhub-activity-svc/src/internal/requestmeta"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RecentActivitiesCache is the cached read path for a user's recent entries.
type RecentActivitiesCache interface {
	RecentCacheInvalidator
	GetRecentActivities(ctx context.Context, userID string) ([]EntryView, error)
	SaveRecentActivities(ctx context.Context, userID string, views []EntryView) error
}

type Handler interface {
	GetMyActivities(c *gin.Context)
	GetAllActivities(c *gin.Context)
	ClearUserLog(c *gin.Context)
}

type handler struct {
	config       *config.Configuration
	service      Service
	recorder     Recorder
	cacheService RecentActivitiesCache
}

func NewHandler(cfg *config.Configuration, service Service, recorder Recorder, cacheService RecentActivitiesCache) Handler {
	return &handler{
		config:       cfg,
		service:      service,
		recorder:     recorder,
		cacheService: cacheService,
	}
}

// GetMyActivities returns the authenticated user's recent activity, newest
// first.
func (h *handler) GetMyActivities(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Duration(h.config.App.Timeout)*time.Second)
	defer cancel()

	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	cached, err := h.cacheService.GetRecentActivities(ctx, userID)
	if err == nil && cached != nil {
		logrus.WithField("user_id", userID).Debug("Recent activities served from cache")
		c.JSON(http.StatusOK, gin.H{
			"success":    true,
			"activities": cached,
		})
		return
	}

	views, err := h.service.GetRecentActivities(ctx, userID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to get activities")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to retrieve activity logs",
			"message": err.Error(),
		})
		return
	}

	h.cacheService.SaveRecentActivities(ctx, userID, views)

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"activities": views,
	})
}

// GetAllActivities returns activity logs for the admin view, filtered by the
// optional userId and action query parameters.
func (h *handler) GetAllActivities(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Duration(h.config.App.Timeout)*time.Second)
	defer cancel()

	userID := c.Query("userId")
	action := c.Query("action")

	logrus.WithFields(logrus.Fields{
		"user_id": userID,
		"action":  action,
	}).Info("GetAllActivities request received")

	views, err := h.service.GetAllLogs(ctx, userID, action)
	if err != nil {
		if errors.Is(err, models.ErrInvalidParams) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid user id",
				"message": "Please provide a valid user id",
			})
			return
		}
		logrus.WithError(err).Error("Failed to get activity logs")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to retrieve activity logs",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"logs":    views,
	})
}

// ClearUserLog empties one user's activity log and records the moderation
// action itself on the acting admin's log.
func (h *handler) ClearUserLog(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Duration(h.config.App.Timeout)*time.Second)
	defer cancel()

	userID := c.Param("id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "User ID is required",
			"message": "Please provide a valid user ID",
		})
		return
	}

	err := h.service.ClearUserLog(ctx, userID)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrRecordNotFound):
			c.JSON(http.StatusOK, gin.H{
				"success": true,
				"message": "No logs found for this user",
			})
			return
		case errors.Is(err, models.ErrInvalidParams):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid user id",
				"message": "Please provide a valid user id",
			})
			return
		default:
			logrus.WithError(err).WithField("user_id", userID).Error("Failed to clear activity log")
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Failed to clear activity logs",
				"message": err.Error(),
			})
			return
		}
	}

	adminID := c.GetString("user_id")
	h.recorder.Record(ctx, adminID, EventClearLogs,
		fmt.Sprintf("Admin cleared activity logs for user %s", userID),
		requestmeta.FromHTTP(c.Request),
		&RecordOptions{
			EntityType: EntityUser,
			EntityID:   userID,
			SessionID:  c.GetString("session_id"),
		})

	h.cacheService.InvalidateRecentActivities(ctx, userID)

	logrus.WithFields(logrus.Fields{
		"admin_user_id": adminID,
		"user_id":       userID,
	}).Info("Activity logs cleared")

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Activity logs cleared successfully",
	})
}
