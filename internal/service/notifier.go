package service

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"replygate/internal/constants"
	"replygate/internal/metrics"
	"replygate/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Notifier alerts the supervising operator. Notifications bypass the send
// kill switch and are deduplicated through the audit ledger: at most one
// alert per (inbound message, event type) pair.
type Notifier struct {
	store       Store
	sms         SMSClient
	ownerNumber string
	logger      *logrus.Logger
}

func NewNotifier(store Store, sms SMSClient, ownerNumber string, logger *logrus.Logger) *Notifier {
	return &Notifier{
		store:       store,
		sms:         sms,
		ownerNumber: ownerNumber,
		logger:      logger,
	}
}

// NotifyNeedsReview alerts the operator that a message was routed to human
// review, with the guardrail reason and a short body snippet.
func (n *Notifier) NotifyNeedsReview(ctx context.Context, msg *models.Message, reason string) {
	alert := fmt.Sprintf("[REVIEW] %s from %s: %s. Reason: %s",
		msg.ID, msg.Sender, truncate(msg.Body, constants.BodySnippetMaxChars), reason)
	n.notify(ctx, models.NotificationNeedsReview, msg.ID, alert)
}

// NotifyDraftReady alerts the operator that a draft is awaiting approval,
// carrying a preview and the command hints.
func (n *Notifier) NotifyDraftReady(ctx context.Context, original, draft *models.Message) {
	alert := fmt.Sprintf("[DRAFT] For %s from %s: %q. Reply A %s / R %s / E %s <text>",
		original.ID, original.Sender, truncate(draft.Body, constants.DraftPreviewMaxChars),
		draft.ID, draft.ID, draft.ID)
	n.notify(ctx, models.NotificationDraftReady, original.ID, alert)
}

// notify performs the dedup check, sends the alert, and records the
// OWNER_NOTIFIED_<event> audit row only after a successful send so a failed
// delivery can be retried on a later pass. Failures never propagate.
func (n *Notifier) notify(ctx context.Context, eventType, messageID, alert string) {
	tag := models.OwnerNotifiedEvent(eventType)

	notified, err := n.store.HasAuditEvent(ctx, tag, messageID)
	if err != nil {
		n.logger.WithError(err).WithField("message_id", messageID).
			Error("Failed to check notification dedup")
		return
	}
	if notified {
		n.logger.WithFields(logrus.Fields{
			"message_id": messageID,
			"event":      eventType,
		}).Debug("Owner already notified, skipping")
		return
	}

	deliveryID, err := n.sms.Send(ctx, n.ownerNumber, alert)
	if err != nil {
		n.logger.WithError(err).WithFields(logrus.Fields{
			"message_id": messageID,
			"event":      eventType,
		}).Error("Failed to send owner notification")
		metrics.IncrementCounter("notifications_failed_total", map[string]string{"event": eventType})
		return
	}

	entry := &models.AuditEntry{
		ID:        uuid.NewString(),
		Event:     tag,
		Actor:     models.SystemActor,
		MessageID: messageID,
		Metadata:  map[string]string{"delivery_id": deliveryID},
		Timestamp: time.Now().UTC(),
	}
	if err := n.store.InsertAuditEntry(ctx, entry); err != nil {
		// The alert went out but the dedup row did not stick; a later pass
		// may notify again.
		n.logger.WithError(err).WithField("message_id", messageID).
			Error("Failed to record notification audit entry")
		return
	}

	metrics.IncrementCounter("notifications_sent_total", map[string]string{"event": eventType})
	n.logger.WithFields(logrus.Fields{
		"message_id":  messageID,
		"event":       eventType,
		"delivery_id": deliveryID,
	}).Info("Owner notified")
}

// truncate bounds s to max characters, never splitting a multibyte rune.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
