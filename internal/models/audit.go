package models

import "time"

// Audit event tags. The ledger is append-only; presence of an
// OWNER_NOTIFIED_<event> row for a message id is the sole dedup signal for
// that notification.
const (
	EventMessageReceived       = "MESSAGE_RECEIVED"
	EventDraftCreated          = "DRAFT_CREATED"
	EventDraftEdited           = "DRAFT_EDITED"
	EventMessageApproved       = "MESSAGE_APPROVED"
	EventMessageRejected       = "MESSAGE_REJECTED"
	EventMessageSent           = "MESSAGE_SENT"
	EventSendBlockedKillSwitch = "SEND_BLOCKED_KILL_SWITCH"

	OwnerNotifiedPrefix = "OWNER_NOTIFIED_"
)

// OwnerActor is the actor recorded on audit entries produced by owner
// commands.
const OwnerActor = "OWNER"

// Operator notification event types.
const (
	NotificationNeedsReview = "NEEDS_REVIEW"
	NotificationDraftReady  = "DRAFT_READY"
)

// OwnerNotifiedEvent returns the audit tag recording that the owner was
// alerted for the given notification event type.
func OwnerNotifiedEvent(eventType string) string {
	return OwnerNotifiedPrefix + eventType
}

// AuditEntry is one row of the append-only event ledger. MessageID is a
// dedicated column so dedup lookups are keyed (event, message_id) instead of
// scanning metadata text.
type AuditEntry struct {
	ID        string            `json:"id"`
	Event     string            `json:"event"`
	Actor     string            `json:"actor"`
	MessageID string            `json:"messageId,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}
