package user

import (
	"context"
	"errors"
	"math"

	"forumhub-activity-svc/src/internal/config"

	"github.com/sirupsen/logrus"
)

type Service interface {
	GetAllUsers(ctx context.Context, req *GetAllUsersRequest) (*GetAllUsersResponse, error)
	ActivateUser(ctx context.Context, userID string) error
	SuspendUser(ctx context.Context, userID string) error
	BanUser(ctx context.Context, userID string) error
	DeleteUser(ctx context.Context, userID string) error
}

type userService struct {
	userRepository Repository
	cfg            *config.Configuration
}

func NewUserService(userRepository Repository, cfg *config.Configuration) Service {
	return &userService{
		userRepository: userRepository,
		cfg:            cfg,
	}
}

func (s *userService) GetAllUsers(ctx context.Context, req *GetAllUsersRequest) (*GetAllUsersResponse, error) {
	// Validate and set defaults
	if req.Limit <= 0 {
		req.Limit = 20
	}
	if req.Limit > 100 {
		req.Limit = 100
	}
	if req.Page <= 0 {
		req.Page = 1
	}

	if req.Role != "" && !isValidRole(req.Role) {
		return nil, errors.New("invalid role filter")
	}

	if req.Status != "" && !isValidStatus(req.Status) {
		return nil, errors.New("invalid status filter")
	}

	users, totalCount, err := s.userRepository.GetAllUsers(ctx, req)
	if err != nil {
		logrus.WithError(err).Error("Failed to get users from repository")
		return nil, err
	}

	profiles := make([]*Profile, len(users))
	for i, user := range users {
		profiles[i] = user.ToProfile()
	}

	totalPages := int(math.Ceil(float64(totalCount) / float64(req.Limit)))

	response := &GetAllUsersResponse{
		Users:      profiles,
		TotalCount: totalCount,
		Page:       req.Page,
		Limit:      req.Limit,
		TotalPages: totalPages,
	}

	logrus.WithFields(logrus.Fields{
		"users_count": len(profiles),
		"total_count": totalCount,
		"total_pages": totalPages,
	}).Info("Successfully retrieved users")

	return response, nil
}

func (s *userService) ActivateUser(ctx context.Context, userID string) error {
	return s.userRepository.UpdateStatus(ctx, userID, StatusActive)
}

func (s *userService) SuspendUser(ctx context.Context, userID string) error {
	return s.userRepository.UpdateStatus(ctx, userID, StatusSuspended)
}

func (s *userService) BanUser(ctx context.Context, userID string) error {
	return s.userRepository.UpdateStatus(ctx, userID, StatusBanned)
}

func (s *userService) DeleteUser(ctx context.Context, userID string) error {
	return s.userRepository.SoftDelete(ctx, userID)
}

// isValidRole validates if role is valid
func isValidRole(role string) bool {
	validRoles := []string{RoleAdmin, RoleModerator, RoleUser}
	for _, validRole := range validRoles {
		if validRole == role {
			return true
		}
	}
	return false
}

// isValidStatus validates if status is valid
func isValidStatus(status string) bool {
	validStatuses := []string{StatusActive, StatusSuspended, StatusBanned}
	for _, validStatus := range validStatuses {
		if validStatus == status {
			return true
		}
	}
	return false
}
