package activity

import (
	"context"
	"errors"

	"forumhub-activity-svc/src/internal/config"
	"forumhub-activity-svc/src/internal/models"

	"github.com/sirupsen/logrus"
)

// Service shapes stored activity logs for the read API.
type Service interface {
	GetRecentActivities(ctx context.Context, userID string) ([]EntryView, error)
	GetAllLogs(ctx context.Context, userID, action string) ([]LogView, error)
	ClearUserLog(ctx context.Context, userID string) error
}

type activityService struct {
	repository Repository
	cfg        *config.Configuration
}

func NewActivityService(repository Repository, cfg *config.Configuration) Service {
	return &activityService{
		repository: repository,
		cfg:        cfg,
	}
}

// GetRecentActivities returns the user's most recent entries, newest first.
// A user without a log yet gets an empty list, not an error.
func (s *activityService) GetRecentActivities(ctx context.Context, userID string) ([]EntryView, error) {
	log, err := s.repository.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrRecordNotFound) {
			return []EntryView{}, nil
		}
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to get recent activities")
		return nil, err
	}

	limit := s.cfg.Activity.RecentLimit
	if limit <= 0 {
		limit = 50
	}

	return RecentViews(log, limit), nil
}

// GetAllLogs returns activity logs for the admin view, optionally narrowed to
// one user and one event type.
func (s *activityService) GetAllLogs(ctx context.Context, userID, action string) ([]LogView, error) {
	logs, err := s.repository.FindAll(ctx, userID)
	if err != nil {
		logrus.WithError(err).Error("Failed to get activity logs")
		return nil, err
	}

	views := make([]LogView, 0, len(logs))
	for _, log := range logs {
		view := LogView{
			ID:         log.ID,
			UserID:     log.UserID.Hex(),
			Activities: make([]EntryView, 0, len(log.Activities)),
		}
		for _, entry := range log.Activities {
			if action != "" && entry.EventType != action {
				continue
			}
			view.Activities = append(view.Activities, toEntryView(log.UserID.Hex(), entry))
		}
		views = append(views, view)
	}

	return views, nil
}

func (s *activityService) ClearUserLog(ctx context.Context, userID string) error {
	return s.repository.Clear(ctx, userID)
}

// RecentViews projects the last limit entries of a log, newest first.
func RecentViews(log *Log, limit int) []EntryView {
	if log == nil {
		return []EntryView{}
	}

	entries := log.Activities
	if len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}

	views := make([]EntryView, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		views = append(views, toEntryView(log.UserID.Hex(), entries[i]))
	}
	return views
}

func toEntryView(userID string, entry Entry) EntryView {
	entityID := ""
	if entry.EntityID != nil {
		entityID = entry.EntityID.Hex()
	}

	return EntryView{
		EventID:     entry.ID,
		EventType:   entry.EventType,
		Description: entry.Description,
		UserID:      userID,
		SessionID:   entry.SessionID,
		EntityType:  entry.EntityType,
		EntityID:    entityID,
		Props:       entry.Props,
		Timestamp:   entry.CreatedAt,
	}
}
