package models

// EventPayload is the wire-format mirror of a stored activity entry, sent to
// the broker for downstream analytics and notification consumers. It is never
// read back by this service.
type EventPayload struct {
	UserID      string            `json:"user_id"`
	EventType   string            `json:"event_type"`
	Description string            `json:"description"`
	EntityType  string            `json:"entity_type,omitempty"`
	EntityID    string            `json:"entity_id,omitempty"`
	SessionID   string            `json:"session_id,omitempty"`
	Props       map[string]string `json:"props,omitempty"`
	OccurredAt  string            `json:"occurred_at"`
}
