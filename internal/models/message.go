package models

import (
	"encoding/json"
	"strings"
	"time"
)

// MessageStatus is the lifecycle state of a message.
type MessageStatus string

const (
	StatusReceived             MessageStatus = "RECEIVED"
	StatusNeedsReview          MessageStatus = "NEEDS_REVIEW"
	StatusDraftPendingApproval MessageStatus = "DRAFT_PENDING_APPROVAL"
	StatusApprovedToSend       MessageStatus = "APPROVED_TO_SEND"
	StatusRejected             MessageStatus = "REJECTED"
	StatusSent                 MessageStatus = "SENT"
	StatusFailedSend           MessageStatus = "FAILED_SEND"
)

// MessageType distinguishes inbound traffic from system-authored drafts.
type MessageType string

const (
	TypeInbound MessageType = "INBOUND"
	TypeDraft   MessageType = "DRAFT"
)

// SystemActor is the sender recorded on drafts and the actor on
// system-originated audit entries.
const SystemActor = "SYSTEM"

// validTransitions is the full set of allowed status changes. Edits map a
// pending or reviewed message back to DRAFT_PENDING_APPROVAL; the kill switch
// maps APPROVED_TO_SEND back to NEEDS_REVIEW so the operator can re-approve.
var validTransitions = map[MessageStatus][]MessageStatus{
	StatusReceived:             {StatusNeedsReview, StatusDraftPendingApproval},
	StatusNeedsReview:          {StatusApprovedToSend, StatusRejected, StatusDraftPendingApproval},
	StatusDraftPendingApproval: {StatusApprovedToSend, StatusRejected, StatusDraftPendingApproval},
	StatusApprovedToSend:       {StatusSent, StatusFailedSend, StatusNeedsReview, StatusRejected},
	StatusRejected:             {},
	StatusSent:                 {},
	StatusFailedSend:           {},
}

// CanTransition reports whether moving a message from one status to another
// is part of the lifecycle.
func CanTransition(from, to MessageStatus) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Message is the central entity. For inbound messages ID equals the
// transport's delivery identifier; drafts get a generated identifier and an
// InReplyToID back-reference.
type Message struct {
	ID           string        `json:"id"`
	ThreadID     string        `json:"threadId"`
	InReplyToID  *string       `json:"inReplyToId,omitempty"`
	Sender       string        `json:"sender"`
	Receiver     string        `json:"receiver"`
	Body         string        `json:"body"`
	Media        string        `json:"media"`
	Status       MessageStatus `json:"status"`
	Type         MessageType   `json:"type"`
	Timestamp    time.Time     `json:"timestamp"`
	DraftVersion int           `json:"draftVersion"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// EmptyMediaMarker means "no media attached".
const EmptyMediaMarker = "{}"

// MediaRef is the structured media marker stored on a message.
type MediaRef struct {
	URL string `json:"url"`
}

// EncodeMedia builds the media marker for an inbound payload.
func EncodeMedia(numMedia int, mediaURL string) string {
	if numMedia <= 0 || mediaURL == "" {
		return EmptyMediaMarker
	}
	data, err := json.Marshal(MediaRef{URL: mediaURL})
	if err != nil {
		return EmptyMediaMarker
	}
	return string(data)
}

// HasMedia reports whether a media marker references an attachment.
func HasMedia(media string) bool {
	trimmed := strings.TrimSpace(media)
	return trimmed != "" && trimmed != EmptyMediaMarker
}

// ThreadControl is the per-thread override. A paused thread forces all
// inbound traffic to human review.
type ThreadControl struct {
	ThreadID     string    `json:"threadId"`
	Paused       bool      `json:"paused"`
	PausedReason string    `json:"pausedReason"`
	LastUpdated  time.Time `json:"lastUpdated"`
}
