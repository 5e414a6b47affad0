package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"forumhub-activity-svc/src/internal/models"
	"forumhub-activity-svc/src/internal/requestmeta"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EventPublisher is the broker side of a recording. Publish must not block
// and must not fail the caller.
type EventPublisher interface {
	Publish(payload models.EventPayload)
}

// RecentCacheInvalidator drops a user's cached recent-activity view after an
// append so reads do not serve a stale list.
type RecentCacheInvalidator interface {
	InvalidateRecentActivities(ctx context.Context, userID string) error
}

// RecordOptions carries the optional parts of a recording: the weak entity
// reference, a fallback session id, and caller-supplied props.
type RecordOptions struct {
	EntityType string
	EntityID   string
	SessionID  string
	Props      map[string]interface{}
}

// Recorder is the entry point every mutating handler calls to record a user
// action. Record never fails the caller: all internal errors are logged and
// swallowed.
type Recorder interface {
	Record(ctx context.Context, userID, eventType, description string, req *requestmeta.Request, opts *RecordOptions)
}

type recorder struct {
	repository  Repository
	publisher   EventPublisher
	invalidator RecentCacheInvalidator
}

func NewRecorder(repository Repository, publisher EventPublisher, invalidator RecentCacheInvalidator) Recorder {
	return &recorder{
		repository:  repository,
		publisher:   publisher,
		invalidator: invalidator,
	}
}

// Record appends one entry to the user's activity log and hands the mirrored
// payload to the publisher. The store write is awaited; the publish is not.
// A store failure suppresses the publish, so the broker never sees an event
// the log cannot show.
func (r *recorder) Record(ctx context.Context, userID, eventType, description string, req *requestmeta.Request, opts *RecordOptions) {
	defer func() {
		if rec := recover(); rec != nil {
			logrus.WithFields(logrus.Fields{
				"user_id":    userID,
				"event_type": eventType,
				"panic":      rec,
			}).Error("Recovered from panic while recording activity")
		}
	}()

	if opts == nil {
		opts = &RecordOptions{}
	}

	meta := requestmeta.Extract(req, opts.SessionID)
	client := requestmeta.ParseUserAgent(meta.UserAgent)
	props := buildProps(meta, client, requestmeta.GeoHint(req), opts.Props)

	occurredAt := time.Now().UTC()

	entry := &Entry{
		EventType:   eventType,
		Description: description,
		EntityType:  opts.EntityType,
		EntityID:    entityRef(opts.EntityID),
		SessionID:   meta.Token,
		Props:       props,
		CreatedAt:   occurredAt,
		UpdatedAt:   occurredAt,
	}

	if err := r.repository.Append(ctx, userID, entry); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"user_id":    userID,
			"event_type": eventType,
		}).Error("Failed to record activity")
		return
	}

	if r.invalidator != nil {
		if err := r.invalidator.InvalidateRecentActivities(ctx, userID); err != nil {
			logrus.WithError(err).WithField("user_id", userID).
				Debug("Failed to invalidate recent activity cache")
		}
	}

	r.publisher.Publish(models.EventPayload{
		UserID:      userID,
		EventType:   eventType,
		Description: description,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		SessionID:   meta.Token,
		Props:       props,
		OccurredAt:  occurredAt.Format(time.RFC3339Nano),
	})
}

// buildProps merges the derived request fields with caller-supplied props.
// Every value is stringified so the store never sees a non-string prop:
// objects are JSON-encoded, nils become empty strings. Caller props win on
// key collisions.
func buildProps(meta requestmeta.Context, client requestmeta.Client, geoHint string, extra map[string]interface{}) map[string]string {
	props := map[string]string{
		"geo_location": geoHint,
		"ip_address":   meta.IPAddress,
		"device":       client.Device,
		"browser":      client.Browser,
		"platform":     client.Platform,
	}

	for key, value := range extra {
		props[key] = stringifyValue(value)
	}

	return props
}

func stringifyValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	}
}

// entityRef validates the optional entity id. Malformed ids embed as null
// rather than failing the recording.
func entityRef(entityID string) *primitive.ObjectID {
	if entityID == "" {
		return nil
	}

	oid, err := primitive.ObjectIDFromHex(entityID)
	if err != nil {
		logrus.WithField("entity_id", entityID).Debug("Invalid entity id, storing null reference")
		return nil
	}
	return &oid
}
