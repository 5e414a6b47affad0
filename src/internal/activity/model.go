package activity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Entry is one recorded user action embedded in the per-user log document.
type Entry struct {
	ID          primitive.ObjectID  `json:"event_id" bson:"_id,omitempty"`
	EventType   string              `json:"event_type" bson:"event_type"`
	Description string              `json:"description" bson:"description"`
	EntityType  string              `json:"entity_type,omitempty" bson:"entity_type,omitempty"`
	EntityID    *primitive.ObjectID `json:"entity_id,omitempty" bson:"entity_id,omitempty"`
	SessionID   string              `json:"session_id,omitempty" bson:"session_id,omitempty"`
	Props       map[string]string   `json:"props" bson:"props"`
	CreatedAt   time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at" bson:"updated_at"`
}

// Log is the single growing activity document kept per user. Entries are
// append-only and insertion-ordered.
type Log struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID     primitive.ObjectID `json:"user_id" bson:"user_id"`
	Activities []Entry            `json:"activities" bson:"activities"`
	CreatedAt  time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at" bson:"updated_at"`
}

// Event type constants
const (
	EventLogin              = "login"
	EventLogout             = "logout"
	EventRegister           = "register"
	EventResetPassword      = "reset-password"
	EventChangePassword     = "change-password"
	EventUpdateProfile      = "update-profile"
	EventPost               = "post"
	EventUpdatePost         = "update-post"
	EventDeletePost         = "delete-post"
	EventSavePost           = "save-post"
	EventUnsavePost         = "unsave-post"
	EventReply              = "reply"
	EventUpdateReply        = "update-reply"
	EventDeleteReply        = "delete-reply"
	EventUpvote             = "upvote"
	EventDownvote           = "downvote"
	EventCommunity          = "community"
	EventUpdateCommunity    = "update-community"
	EventDeleteCommunity    = "delete-community"
	EventJoinCommunity      = "join-community"
	EventLeaveCommunity     = "leave-community"
	EventReadNotification   = "read-notification"
	EventDeleteNotification = "delete-notification"
	EventAdminUpdateProfile = "admin-update-profile"
	EventAdminDeleteUser    = "admin-delete-user"
	EventClearLogs          = "clear-logs"
)

// Entity type constants for the optional weak reference on an entry.
const (
	EntityPost         = "post"
	EntityComment      = "comment"
	EntityCommunity    = "community"
	EntityUser         = "user"
	EntityNotification = "notification"
)

// EntryView is the read-API projection of an entry.
type EntryView struct {
	EventID     primitive.ObjectID `json:"event_id"`
	EventType   string             `json:"event_type"`
	Description string             `json:"description"`
	UserID      string             `json:"user_id"`
	SessionID   string             `json:"session_id,omitempty"`
	EntityType  string             `json:"entity_type,omitempty"`
	EntityID    string             `json:"entity_id,omitempty"`
	Props       map[string]string  `json:"props"`
	Timestamp   time.Time          `json:"timestamp"`
}

// LogView is the admin read-API projection of one user's log.
type LogView struct {
	ID         primitive.ObjectID `json:"_id"`
	UserID     string             `json:"user_id"`
	Activities []EntryView        `json:"activities"`
}
