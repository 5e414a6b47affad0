package user

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Username        string             `json:"username" bson:"username"`
	Email           string             `json:"email" bson:"email"`
	FullName        string             `json:"fullName" bson:"full_name"`
	Role            string             `json:"role" bson:"role"`
	Status          string             `json:"status" bson:"status"`
	IsEmailVerified bool               `json:"isEmailVerified" bson:"is_email_verified"`
	Karma           int64              `json:"karma" bson:"karma"`
	Avatar          *string            `json:"avatar,omitempty" bson:"avatar,omitempty"`
	LastLoginAt     *time.Time         `json:"lastLoginAt,omitempty" bson:"last_login_at,omitempty"`
	CreatedAt       time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt       time.Time          `json:"updatedAt" bson:"updated_at"`
	DeletedAt       *time.Time         `json:"deletedAt,omitempty" bson:"deleted_at,omitempty"`
}

type Profile struct {
	ID              primitive.ObjectID `json:"id"`
	Username        string             `json:"username"`
	Email           string             `json:"email"`
	FullName        string             `json:"fullName"`
	Role            string             `json:"role"`
	Status          string             `json:"status"`
	IsEmailVerified bool               `json:"isEmailVerified"`
	Karma           int64              `json:"karma"`
	Avatar          *string            `json:"avatar,omitempty"`
	LastLoginAt     *time.Time         `json:"lastLoginAt,omitempty"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

// Role constants
const (
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
	RoleUser      = "user"
)

// Status constants
const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
	StatusBanned    = "banned"
)

// GetAllUsersRequest represents request for getting all users
type GetAllUsersRequest struct {
	Page   int    `json:"page" form:"page"`
	Limit  int    `json:"limit" form:"limit"`
	Role   string `json:"role" form:"role"`
	Status string `json:"status" form:"status"`
	Search string `json:"search" form:"search"`
}

// GetAllUsersResponse represents response for getting all users
type GetAllUsersResponse struct {
	Users      []*Profile `json:"users"`
	TotalCount int64      `json:"totalCount"`
	Page       int        `json:"page"`
	Limit      int        `json:"limit"`
	TotalPages int        `json:"totalPages"`
}

// ToProfile converts User to Profile
func (u *User) ToProfile() *Profile {
	return &Profile{
		ID:              u.ID,
		Username:        u.Username,
		Email:           u.Email,
		FullName:        u.FullName,
		Role:            u.Role,
		Status:          u.Status,
		IsEmailVerified: u.IsEmailVerified,
		Karma:           u.Karma,
		Avatar:          u.Avatar,
		LastLoginAt:     u.LastLoginAt,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

// IsAdmin checks if user is admin
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsActive checks if user is active
func (u *User) IsActive() bool {
	return u.Status == StatusActive && u.DeletedAt == nil
}
