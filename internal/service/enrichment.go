package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"replygate/internal/constants"
	"replygate/internal/metrics"
	"replygate/internal/models"
	"replygate/internal/tracing"
	aitypes "replygate/pkg/ai/types"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// EnrichmentStage runs the guardrail engine over newly received messages.
// Guardrails apply in a fixed order and short-circuit to human review; only
// a message that clears all of them gets an automatic draft. A message never
// stays in RECEIVED after a pass.
type EnrichmentStage struct {
	store    Store
	ai       AIClient
	notifier *Notifier
	logger   *logrus.Logger
}

func NewEnrichmentStage(store Store, ai AIClient, notifier *Notifier, logger *logrus.Logger) *EnrichmentStage {
	return &EnrichmentStage{
		store:    store,
		ai:       ai,
		notifier: notifier,
		logger:   logger,
	}
}

// Enrich processes every RECEIVED inbound message. Each message is handled
// independently; one failure does not stop the pass.
func (s *EnrichmentStage) Enrich(ctx context.Context) {
	ctx, span := tracing.StartSpan(ctx, "enrichment_pass")
	defer span.End()

	msgs, err := s.store.GetInboundMessagesByStatus(ctx, models.StatusReceived)
	if err != nil {
		s.logger.WithError(err).Error("Failed to scan received messages")
		tracing.RecordError(ctx, err)
		return
	}

	tracing.AddSpanAttributes(ctx, attribute.Int("messages.count", len(msgs)))
	for _, msg := range msgs {
		s.processMessage(ctx, msg)
	}
}

func (s *EnrichmentStage) processMessage(ctx context.Context, msg *models.Message) {
	tc, err := s.store.GetThreadControl(ctx, msg.ThreadID)
	if err != nil {
		s.logger.WithError(err).WithField("message_id", msg.ID).
			Error("Failed to read thread control")
		s.routeToReview(ctx, msg, fmt.Sprintf("Enrichment Exception: %s", err))
		return
	}
	if tc != nil && tc.Paused {
		s.routeToReview(ctx, msg, "Thread Paused")
		return
	}

	if models.HasMedia(msg.Media) || strings.TrimSpace(msg.Body) == "" {
		s.routeToReview(ctx, msg, "Media/Empty Body context")
		return
	}

	classification, err := s.ai.Classify(ctx, msg.Body)
	if err != nil {
		s.routeToReview(ctx, msg, fmt.Sprintf("Enrichment Exception: %s", err))
		return
	}

	applyFailSafeDefaults(classification)
	s.logger.WithFields(logrus.Fields{
		"message_id": msg.ID,
		"language":   classification.Language,
		"confidence": classification.LanguageConfidence,
		"risk":       classification.Risk,
		"intent":     classification.Intent,
	}).Info("Classified inbound message")

	if reason, blocked := guardrailReason(classification); blocked {
		s.routeToReview(ctx, msg, reason)
		return
	}

	draftBody, err := s.ai.Draft(ctx, msg.Body, classification.Language, classification.Intent)
	if err != nil {
		s.routeToReview(ctx, msg, fmt.Sprintf("Enrichment Exception: %s", err))
		return
	}

	inReplyTo := msg.ID
	draft := &models.Message{
		ID:           uuid.NewString(),
		ThreadID:     msg.ThreadID,
		InReplyToID:  &inReplyTo,
		Sender:       models.SystemActor,
		Receiver:     msg.Sender,
		Body:         draftBody,
		Media:        models.EmptyMediaMarker,
		Status:       models.StatusDraftPendingApproval,
		Type:         models.TypeDraft,
		Timestamp:    time.Now().UTC(),
		DraftVersion: 1,
	}

	if err := s.store.SaveDraft(ctx, draft); err != nil {
		s.logger.WithError(err).WithField("message_id", msg.ID).
			Error("Failed to save draft")
		s.routeToReview(ctx, msg, fmt.Sprintf("Enrichment Exception: %s", err))
		return
	}

	metrics.IncrementCounter("drafts_created_total", nil)
	s.logger.WithFields(logrus.Fields{
		"message_id": msg.ID,
		"draft_id":   draft.ID,
	}).Info("Draft generated")

	s.notifier.NotifyDraftReady(ctx, msg, draft)
}

// guardrailReason evaluates the classification guardrails in order and
// returns the first blocking reason.
func guardrailReason(c *aitypes.Classification) (string, bool) {
	supported := c.Language == aitypes.LanguageEnglish || c.Language == aitypes.LanguageSpanish
	if !supported || c.Language == aitypes.LanguageUnclear {
		return fmt.Sprintf("Language %s not supported (confidence %.2f)", c.Language, c.LanguageConfidence), true
	}
	if c.LanguageConfidence < constants.LanguageConfidenceThreshold {
		return fmt.Sprintf("Language confidence low (%.2f)", c.LanguageConfidence), true
	}
	if c.Risk == aitypes.RiskHigh {
		return fmt.Sprintf("Risk HIGH (%s)", c.RiskReason), true
	}
	if c.Intent == aitypes.IntentUnknown {
		return "Intent UNKNOWN", true
	}
	return "", false
}

// applyFailSafeDefaults fills missing classification fields with the most
// conservative values so malformed output triggers the guardrails instead of
// slipping through to drafting.
func applyFailSafeDefaults(c *aitypes.Classification) {
	if c.Language == "" {
		c.Language = aitypes.LanguageUnclear
	}
	if c.Risk == "" {
		c.Risk = aitypes.RiskHigh
	}
	if c.RiskReason == "" {
		c.RiskReason = aitypes.RiskReasonNone
	}
	if c.Intent == "" {
		c.Intent = aitypes.IntentUnknown
	}
}

func (s *EnrichmentStage) routeToReview(ctx context.Context, msg *models.Message, reason string) {
	if err := s.store.TransitionMessageStatus(ctx, msg.ID, models.StatusNeedsReview); err != nil {
		s.logger.WithError(err).WithField("message_id", msg.ID).
			Error("Failed to route message to review")
		return
	}

	metrics.IncrementCounter("review_routed_total", nil)
	s.logger.WithFields(logrus.Fields{
		"message_id": msg.ID,
		"reason":     reason,
	}).Info("Routed message to human review")

	s.notifier.NotifyNeedsReview(ctx, msg, reason)
}
