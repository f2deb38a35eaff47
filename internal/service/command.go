package service

import (
	"context"
	"strings"

	"replygate/internal/metrics"
	"replygate/internal/models"
	"replygate/internal/privacy"

	"github.com/sirupsen/logrus"
)

// CommandOutcome is the result of handling an operator command.
type CommandOutcome string

const (
	OutcomeApproved     CommandOutcome = "approved"
	OutcomeRejected     CommandOutcome = "rejected"
	OutcomeEdited       CommandOutcome = "edited"
	OutcomeIgnored      CommandOutcome = "ignored"
	OutcomeUnauthorized CommandOutcome = "unauthorized"
)

// CommandStage handles the owner control protocol: A <id>, R <id>,
// E <id> <text>. Verbs are case-insensitive; malformed commands and unknown
// message ids are silently ignored.
type CommandStage struct {
	store       Store
	ownerNumber string
	logger      *logrus.Logger
}

func NewCommandStage(store Store, ownerNumber string, logger *logrus.Logger) *CommandStage {
	return &CommandStage{
		store:       store,
		ownerNumber: ownerNumber,
		logger:      logger,
	}
}

// HandleCommand parses and applies an owner command. Only the configured
// owner number is authorized.
func (s *CommandStage) HandleCommand(ctx context.Context, sender, body string) CommandOutcome {
	if sender != s.ownerNumber {
		s.logger.WithField("sender", privacy.MaskPhoneNumber(sender)).
			Warn("Unauthorized command sender")
		return OutcomeUnauthorized
	}

	parts := strings.SplitN(strings.TrimSpace(body), " ", 3)
	if len(parts) < 2 {
		s.logger.Info("Malformed owner command, ignoring")
		return OutcomeIgnored
	}

	verb := strings.ToUpper(parts[0])
	msgID := parts[1]

	var outcome CommandOutcome
	switch verb {
	case "A":
		outcome = s.approve(ctx, msgID)
	case "R":
		outcome = s.reject(ctx, msgID)
	case "E":
		if len(parts) < 3 {
			s.logger.Info("Edit command missing text, ignoring")
			return OutcomeIgnored
		}
		outcome = s.edit(ctx, msgID, parts[2])
	default:
		s.logger.WithField("verb", verb).Info("Unknown command verb, ignoring")
		return OutcomeIgnored
	}

	metrics.IncrementCounter("owner_commands_total", map[string]string{"outcome": string(outcome)})
	return outcome
}

func (s *CommandStage) approve(ctx context.Context, msgID string) CommandOutcome {
	err := s.store.TransitionMessageStatusWithAudit(ctx, msgID, models.StatusApprovedToSend,
		models.EventMessageApproved, models.OwnerActor, nil)
	if err != nil {
		s.logger.WithError(err).WithField("message_id", msgID).Info("Approve command had no effect")
		return OutcomeIgnored
	}

	s.logger.WithField("message_id", msgID).Info("Owner approved message")
	return OutcomeApproved
}

func (s *CommandStage) reject(ctx context.Context, msgID string) CommandOutcome {
	err := s.store.TransitionMessageStatusWithAudit(ctx, msgID, models.StatusRejected,
		models.EventMessageRejected, models.OwnerActor, nil)
	if err != nil {
		s.logger.WithError(err).WithField("message_id", msgID).Info("Reject command had no effect")
		return OutcomeIgnored
	}

	s.logger.WithField("message_id", msgID).Info("Owner rejected message")
	return OutcomeRejected
}

// edit replaces the draft body verbatim and re-queues it for approval. No
// guardrail re-check happens here: the operator has taken responsibility for
// the text.
func (s *CommandStage) edit(ctx context.Context, msgID, text string) CommandOutcome {
	updated, err := s.store.UpdateDraftBody(ctx, msgID, text, models.OwnerActor)
	if err != nil {
		s.logger.WithError(err).WithField("message_id", msgID).Error("Edit command failed")
		return OutcomeIgnored
	}
	if !updated {
		s.logger.WithField("message_id", msgID).Info("Edit command for unknown message, ignoring")
		return OutcomeIgnored
	}

	s.logger.WithField("message_id", msgID).Info("Owner edited draft")
	return OutcomeEdited
}
