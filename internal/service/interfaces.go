package service

import (
	"context"

	"replygate/internal/models"
	aitypes "replygate/pkg/ai/types"
)

// Store is the transactional persistence surface the stages operate on.
type Store interface {
	SaveInboundMessage(ctx context.Context, msg *models.Message) error
	SaveDraft(ctx context.Context, draft *models.Message) error
	TransitionMessageStatus(ctx context.Context, id string, to models.MessageStatus) error
	TransitionMessageStatusWithAudit(ctx context.Context, id string, to models.MessageStatus, event, actor string, metadata map[string]string) error
	UpdateDraftBody(ctx context.Context, id, body, actor string) (bool, error)
	MessageExists(ctx context.Context, id string) (bool, error)
	GetMessage(ctx context.Context, id string) (*models.Message, error)
	GetMessagesByStatus(ctx context.Context, status models.MessageStatus) ([]*models.Message, error)
	GetInboundMessagesByStatus(ctx context.Context, status models.MessageStatus) ([]*models.Message, error)
	GetThreadControl(ctx context.Context, threadID string) (*models.ThreadControl, error)
	SetThreadControl(ctx context.Context, tc *models.ThreadControl) error
	InsertAuditEntry(ctx context.Context, entry *models.AuditEntry) error
	HasAuditEvent(ctx context.Context, event, messageID string) (bool, error)
}

// AIClient classifies inbound text and drafts replies.
type AIClient interface {
	Classify(ctx context.Context, body string) (*aitypes.Classification, error)
	Draft(ctx context.Context, body, language, intent string) (string, error)
}

// SMSClient delivers outbound SMS messages.
type SMSClient interface {
	Send(ctx context.Context, to, body string) (string, error)
}
