package user

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"forumhub-activity-svc/src/internal/activity"
	"forumhub-activity-svc/src/internal/config"
	"forumhub-activity-svc/src/internal/models"
	"forumhub-activity-svc/src/internal/requestmeta"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Handler interface {
	GetAllUsers(c *gin.Context)
	ActivateUser(c *gin.Context)
	SuspendUser(c *gin.Context)
	BanUser(c *gin.Context)
	DeleteUser(c *gin.Context)
}

type handler struct {
	config   *config.Configuration
	service  Service
	recorder activity.Recorder
}

func NewHandler(cfg *config.Configuration, service Service, recorder activity.Recorder) Handler {
	return &handler{
		config:   cfg,
		service:  service,
		recorder: recorder,
	}
}

func (h *handler) GetAllUsers(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Duration(h.config.App.Timeout)*time.Second)
	defer cancel()

	req := &GetAllUsersRequest{
		Page:   parseIntParam(c, "page", 1),
		Limit:  parseIntParam(c, "limit", 20),
		Role:   c.Query("role"),
		Status: c.Query("status"),
		Search: c.Query("search"),
	}

	logrus.WithFields(logrus.Fields{
		"page":   req.Page,
		"limit":  req.Limit,
		"role":   req.Role,
		"status": req.Status,
		"search": req.Search,
	}).Info("GetAllUsers request received")

	response, err := h.service.GetAllUsers(ctx, req)
	if err != nil {
		logrus.WithError(err).Error("Failed to get all users")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to retrieve users",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    response,
		"message": "Users retrieved successfully",
	})
}

func (h *handler) ActivateUser(c *gin.Context) {
	h.updateUserStatusHandler(c, StatusActive, "User activated successfully")
}

func (h *handler) SuspendUser(c *gin.Context) {
	h.updateUserStatusHandler(c, StatusSuspended, "User suspended successfully")
}

func (h *handler) BanUser(c *gin.Context) {
	h.updateUserStatusHandler(c, StatusBanned, "User banned successfully")
}

// DeleteUser soft-deletes the account and records the moderation action on
// the acting admin's activity log.
func (h *handler) DeleteUser(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Duration(h.config.App.Timeout)*time.Second)
	defer cancel()

	userID := c.Param("id")
	if userID == "" {
		h.sendErrorResponse(c, http.StatusBadRequest, "User ID is required", "Please provide a valid user ID")
		return
	}

	if err := h.service.DeleteUser(ctx, userID); err != nil {
		h.handleStatusUpdateError(c, userID, "deleted", err)
		return
	}

	h.recorder.Record(ctx, c.GetString("user_id"), activity.EventAdminDeleteUser,
		fmt.Sprintf("Admin deleted user %s", userID),
		requestmeta.FromHTTP(c.Request),
		&activity.RecordOptions{
			EntityType: activity.EntityUser,
			EntityID:   userID,
			SessionID:  c.GetString("session_id"),
		})

	logrus.WithFields(logrus.Fields{
		"admin_user_id": c.GetString("user_id"),
		"user_id":       userID,
	}).Info("User deleted successfully")

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User deleted successfully",
	})
}

func (h *handler) updateUserStatusHandler(c *gin.Context, status, successMessage string) {
	ctx, cancel := context.WithTimeout(c.Request.Context(),
		time.Duration(h.config.App.Timeout)*time.Second)
	defer cancel()

	userID := c.Param("id")
	if userID == "" {
		logrus.Error("User ID is required")
		h.sendErrorResponse(c, http.StatusBadRequest, "User ID is required", "Please provide a valid user ID")
		return
	}

	logrus.WithFields(logrus.Fields{
		"user_id": userID,
		"status":  status,
	}).Info("Updating user status")

	err := h.executeStatusUpdate(ctx, userID, status)
	if err != nil {
		h.handleStatusUpdateError(c, userID, status, err)
		return
	}

	h.recorder.Record(ctx, c.GetString("user_id"), activity.EventAdminUpdateProfile,
		fmt.Sprintf("Admin set status of user %s to %s", userID, status),
		requestmeta.FromHTTP(c.Request),
		&activity.RecordOptions{
			EntityType: activity.EntityUser,
			EntityID:   userID,
			SessionID:  c.GetString("session_id"),
			Props:      map[string]interface{}{"new_status": status},
		})

	logrus.WithFields(logrus.Fields{
		"user_id": userID,
		"status":  status,
	}).Info("User status updated successfully")

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": successMessage,
	})
}

func (h *handler) executeStatusUpdate(ctx context.Context, userID, status string) error {
	switch status {
	case StatusActive:
		return h.service.ActivateUser(ctx, userID)
	case StatusSuspended:
		return h.service.SuspendUser(ctx, userID)
	case StatusBanned:
		return h.service.BanUser(ctx, userID)
	default:
		return models.ErrInvalidUserStatus
	}
}

func (h *handler) handleStatusUpdateError(c *gin.Context, userID, status string, err error) {
	logrus.WithError(err).WithFields(logrus.Fields{
		"user_id": userID,
		"status":  status,
	}).Error("Failed to update user status")

	switch {
	case errors.Is(err, models.ErrUserNotFound):
		h.sendErrorResponse(c, http.StatusNotFound, "User not found", "No user found with the provided ID")
	case errors.Is(err, models.ErrInvalidParams):
		h.sendErrorResponse(c, http.StatusBadRequest, "Invalid user ID", "Please provide a valid user ID")
	default:
		h.sendErrorResponse(c, http.StatusInternalServerError, "Failed to update user status", err.Error())
	}
}

func (h *handler) sendErrorResponse(c *gin.Context, statusCode int, error, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error":   error,
		"message": message,
	})
}

func parseIntParam(c *gin.Context, param string, defaultValue int) int {
	value := c.Query(param)
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"param": param,
			"value": value,
			"error": err,
		}).Warn("Invalid integer parameter, using default")

		return defaultValue
	}
	return parsed
}
