package service

import (
	"context"
	"time"

	"replygate/internal/metrics"
	"replygate/internal/models"
	"replygate/internal/privacy"
	smstypes "replygate/pkg/sms/types"

	"github.com/sirupsen/logrus"
)

// IngestStage persists inbound deliveries. It is idempotent on the transport
// delivery id and never lets a failure escape to the webhook caller.
type IngestStage struct {
	store  Store
	logger *logrus.Logger
}

func NewIngestStage(store Store, logger *logrus.Logger) *IngestStage {
	return &IngestStage{
		store:  store,
		logger: logger,
	}
}

// Ingest saves an inbound payload as a RECEIVED message. Duplicate delivery
// ids are silently ignored. Persistence failures are logged and leave no
// partial state behind.
func (s *IngestStage) Ingest(ctx context.Context, payload *smstypes.InboundPayload) {
	exists, err := s.store.MessageExists(ctx, payload.MessageSid)
	if err != nil {
		s.logger.WithError(err).WithField("message_id", payload.MessageSid).
			Error("Failed to check message existence")
		return
	}
	if exists {
		s.logger.WithField("message_id", payload.MessageSid).Info("Duplicate delivery, ignoring")
		metrics.IncrementCounter("ingest_duplicates_total", nil)
		return
	}

	msg := &models.Message{
		ID:        payload.MessageSid,
		ThreadID:  payload.From,
		Sender:    payload.From,
		Receiver:  payload.To,
		Body:      payload.Body,
		Media:     models.EncodeMedia(payload.NumMedia, payload.MediaURL),
		Status:    models.StatusReceived,
		Type:      models.TypeInbound,
		Timestamp: time.Now().UTC(),
	}

	if err := s.store.SaveInboundMessage(ctx, msg); err != nil {
		s.logger.WithError(err).WithField("message_id", payload.MessageSid).
			Error("Failed to ingest message")
		return
	}

	metrics.IncrementCounter("messages_ingested_total", nil)
	s.logger.WithFields(logrus.Fields{
		"message_id": msg.ID,
		"sender":     privacy.MaskPhoneNumber(msg.Sender),
	}).Info("Ingested inbound message")
}
