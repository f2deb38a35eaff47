package tracing

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"replygate/internal/models"
)

func TestGenerateRequestID(t *testing.T) {
	id1 := GenerateRequestID()
	id2 := GenerateRequestID()

	assert.True(t, strings.HasPrefix(id1, "req_"))
	assert.NotEqual(t, id1, id2)
}

func TestGenerateTraceID(t *testing.T) {
	id := GenerateTraceID()
	assert.Len(t, id, 32)
	assert.NotEqual(t, id, GenerateTraceID())
}

func TestGenerateSpanID(t *testing.T) {
	id := GenerateSpanID()
	assert.Len(t, id, 16)
}

func TestContextRoundTrip(t *testing.T) {
	ctx := context.Background()
	start := time.Now()

	ctx = WithRequestID(ctx, "req_abc")
	ctx = WithTraceID(ctx, "trace_abc")
	ctx = WithSpanID(ctx, "span_abc")
	ctx = WithStartTime(ctx, start)

	assert.Equal(t, "req_abc", GetRequestID(ctx))
	assert.Equal(t, "trace_abc", GetTraceID(ctx))
	assert.Equal(t, "span_abc", GetSpanID(ctx))
	assert.Equal(t, start, GetStartTime(ctx))
}

func TestContextEmptyValues(t *testing.T) {
	ctx := context.Background()

	assert.Empty(t, GetRequestID(ctx))
	assert.Empty(t, GetTraceID(ctx))
	assert.Empty(t, GetSpanID(ctx))
	assert.True(t, GetStartTime(ctx).IsZero())
	assert.Equal(t, time.Duration(0), Duration(ctx))
}

func TestWithFullTracing(t *testing.T) {
	ctx := WithFullTracing(context.Background())

	assert.NotEmpty(t, GetRequestID(ctx))
	assert.NotEmpty(t, GetTraceID(ctx))
	assert.NotEmpty(t, GetSpanID(ctx))
	assert.False(t, GetStartTime(ctx).IsZero())
}

func TestTracingManagerDisabled(t *testing.T) {
	logger := logrus.New()
	tm := NewTracingManager(models.TracingConfig{Enabled: false}, logger)

	require.NoError(t, tm.Initialize(context.Background()))
	require.NoError(t, tm.Shutdown(context.Background()))
}

func TestTracingManagerStdout(t *testing.T) {
	logger := logrus.New()
	tm := NewTracingManager(models.TracingConfig{
		Enabled:     true,
		ServiceName: "replygate-test",
		UseStdout:   true,
		SampleRate:  1.0,
	}, logger)

	require.NoError(t, tm.Initialize(context.Background()))

	ctx, span := StartSpan(context.Background(), "test-span")
	assert.NotEmpty(t, GetOtelTraceID(ctx))
	assert.NotEmpty(t, GetOtelSpanID(ctx))
	span.End()

	require.NoError(t, tm.Shutdown(context.Background()))
}

func TestWithOtelTracingMirrorsIDs(t *testing.T) {
	logger := logrus.New()
	tm := NewTracingManager(models.TracingConfig{
		Enabled:     true,
		ServiceName: "replygate-test",
		UseStdout:   true,
		SampleRate:  1.0,
	}, logger)
	require.NoError(t, tm.Initialize(context.Background()))
	defer func() { _ = tm.Shutdown(context.Background()) }()

	ctx, span := WithOtelTracing(context.Background(), "mirror-span")
	defer span.End()

	assert.Equal(t, GetOtelTraceID(ctx), GetTraceID(ctx))
	assert.Equal(t, GetOtelSpanID(ctx), GetSpanID(ctx))
}
