package models

import "errors"

var (
	ErrRedisConnection = errors.New("redis connection error")
	ErrRedisGet        = errors.New("redis get error")
	ErrRedisSet        = errors.New("redis set error")
	ErrRedisDelete     = errors.New("redis delete error")
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrSessionInvalid  = errors.New("session invalid")
	ErrSessionUpdating = errors.New("error updating session")
)

var (
	ErrDatabaseConnection = errors.New("database connection error")
	ErrDatabaseQuery      = errors.New("database query error")
	ErrDatabaseInsert     = errors.New("database insert error")
	ErrDatabaseUpdate     = errors.New("database update error")
	ErrRecordNotFound     = errors.New("record not found")
	ErrInvalidParams      = errors.New("invalid parameters")
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrInvalidUserStatus = errors.New("invalid user status")
)

var (
	ErrPublisherDisabled = errors.New("event publisher is disabled")
	ErrPublisherClosed   = errors.New("event publisher is closed")
	ErrPublisherConnect  = errors.New("broker connection error")
	ErrPublishFailed     = errors.New("failed to publish event")
	ErrPublishQueueFull  = errors.New("publish queue is full")
)
