package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    MessageStatus
		to      MessageStatus
		allowed bool
	}{
		{"received to review", StatusReceived, StatusNeedsReview, true},
		{"received to draft pending", StatusReceived, StatusDraftPendingApproval, true},
		{"received to sent", StatusReceived, StatusSent, false},
		{"pending to approved", StatusDraftPendingApproval, StatusApprovedToSend, true},
		{"pending to rejected", StatusDraftPendingApproval, StatusRejected, true},
		{"pending edit keeps status", StatusDraftPendingApproval, StatusDraftPendingApproval, true},
		{"review to approved", StatusNeedsReview, StatusApprovedToSend, true},
		{"review to pending via edit", StatusNeedsReview, StatusDraftPendingApproval, true},
		{"approved to sent", StatusApprovedToSend, StatusSent, true},
		{"approved to failed", StatusApprovedToSend, StatusFailedSend, true},
		{"approved back to review via kill switch", StatusApprovedToSend, StatusNeedsReview, true},
		{"sent is terminal", StatusSent, StatusApprovedToSend, false},
		{"rejected is terminal", StatusRejected, StatusApprovedToSend, false},
		{"failed is terminal", StatusFailedSend, StatusApprovedToSend, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to))
		})
	}
}

func TestEncodeMedia(t *testing.T) {
	assert.Equal(t, EmptyMediaMarker, EncodeMedia(0, ""))
	assert.Equal(t, EmptyMediaMarker, EncodeMedia(1, ""))
	assert.Equal(t, EmptyMediaMarker, EncodeMedia(0, "https://example.com/img.jpg"))
	assert.JSONEq(t, `{"url":"https://example.com/img.jpg"}`, EncodeMedia(1, "https://example.com/img.jpg"))
}

func TestHasMedia(t *testing.T) {
	assert.False(t, HasMedia(""))
	assert.False(t, HasMedia("{}"))
	assert.False(t, HasMedia(" {} "))
	assert.True(t, HasMedia(`{"url":"https://example.com/img.jpg"}`))
}

func TestOwnerNotifiedEvent(t *testing.T) {
	assert.Equal(t, "OWNER_NOTIFIED_NEEDS_REVIEW", OwnerNotifiedEvent(NotificationNeedsReview))
	assert.Equal(t, "OWNER_NOTIFIED_DRAFT_READY", OwnerNotifiedEvent(NotificationDraftReady))
}
