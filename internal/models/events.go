package models

// NotificationEvent is the best-effort event published to dashboard
// subscribers on every protocol or quarantine state change. The audit
// log remains the source of truth if an event is dropped.
type NotificationEvent struct {
	EventType AuditAction            `json:"event_type"`
	UserID    string                 `json:"user_id"`
	Timestamp int64                  `json:"timestamp"`
	Summary   map[string]interface{} `json:"summary,omitempty"`
}
