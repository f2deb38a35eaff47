package service

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"replygate/internal/database"
	"replygate/internal/models"
	aitypes "replygate/pkg/ai/types"
)

type mockAIClient struct {
	mock.Mock
}

func (m *mockAIClient) Classify(ctx context.Context, body string) (*aitypes.Classification, error) {
	args := m.Called(ctx, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*aitypes.Classification), args.Error(1)
}

func (m *mockAIClient) Draft(ctx context.Context, body, language, intent string) (string, error) {
	args := m.Called(ctx, body, language, intent)
	return args.String(0), args.Error(1)
}

type mockSMSClient struct {
	mock.Mock
}

func (m *mockSMSClient) Send(ctx context.Context, to, body string) (string, error) {
	args := m.Called(ctx, to, body)
	return args.String(0), args.Error(1)
}

const testOwnerNumber = "+15559998888"

func setupStore(t *testing.T) *database.Database {
	t.Helper()
	t.Setenv("REPLYGATE_ENCRYPTION_SECRET", "")

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func inboundMessage(id, sender, body string) *models.Message {
	return &models.Message{
		ID:        id,
		ThreadID:  sender,
		Sender:    sender,
		Receiver:  "+15550001111",
		Body:      body,
		Media:     models.EmptyMediaMarker,
		Status:    models.StatusReceived,
		Type:      models.TypeInbound,
		Timestamp: time.Now().UTC(),
	}
}

func saveInbound(t *testing.T, db *database.Database, msg *models.Message) {
	t.Helper()
	require.NoError(t, db.SaveInboundMessage(context.Background(), msg))
}

func okClassification() *aitypes.Classification {
	return &aitypes.Classification{
		Language:           aitypes.LanguageEnglish,
		LanguageConfidence: 0.95,
		Risk:               aitypes.RiskLow,
		RiskReason:         aitypes.RiskReasonNone,
		Intent:             aitypes.IntentKnown,
	}
}
