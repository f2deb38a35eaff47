package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"replygate/internal/models"
	smstypes "replygate/pkg/sms/types"
)

func TestIngest(t *testing.T) {
	db := setupStore(t)
	stage := NewIngestStage(db, testLogger())
	ctx := context.Background()

	stage.Ingest(ctx, &smstypes.InboundPayload{
		MessageSid: "SM1",
		From:       "+15551230000",
		To:         "+15550001111",
		Body:       "Can I book an appointment?",
	})

	msg, err := db.GetMessage(ctx, "SM1")
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, models.StatusReceived, msg.Status)
	assert.Equal(t, models.TypeInbound, msg.Type)
	assert.Equal(t, "+15551230000", msg.ThreadID)
	assert.Equal(t, models.EmptyMediaMarker, msg.Media)

	received, err := db.CountAuditEvents(ctx, models.EventMessageReceived, "SM1")
	require.NoError(t, err)
	assert.Equal(t, 1, received)
}

func TestIngestIdempotent(t *testing.T) {
	db := setupStore(t)
	stage := NewIngestStage(db, testLogger())
	ctx := context.Background()

	payload := &smstypes.InboundPayload{
		MessageSid: "SM1",
		From:       "+15551230000",
		Body:       "first delivery",
	}

	stage.Ingest(ctx, payload)

	// Redelivery with different body must be a no-op.
	payload.Body = "second delivery"
	stage.Ingest(ctx, payload)

	msg, err := db.GetMessage(ctx, "SM1")
	require.NoError(t, err)
	assert.Equal(t, "first delivery", msg.Body)

	received, err := db.CountAuditEvents(ctx, models.EventMessageReceived, "SM1")
	require.NoError(t, err)
	assert.Equal(t, 1, received)
}

func TestIngestMediaPayload(t *testing.T) {
	db := setupStore(t)
	stage := NewIngestStage(db, testLogger())
	ctx := context.Background()

	stage.Ingest(ctx, &smstypes.InboundPayload{
		MessageSid: "SM2",
		From:       "+15551230000",
		Body:       "",
		NumMedia:   1,
		MediaURL:   "https://api.example.com/media/1",
	})

	msg, err := db.GetMessage(ctx, "SM2")
	require.NoError(t, err)
	assert.True(t, models.HasMedia(msg.Media))
}
