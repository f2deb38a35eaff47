package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"replygate/internal/metrics"
	"replygate/internal/models"
	"replygate/internal/tracing"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// Dispatcher is the outbound gate. A background loop scans for approved
// messages on a fixed interval; the kill switch is consulted fresh on every
// message and, when off, reverts the message to the human queue instead of
// sending.
type Dispatcher struct {
	store          Store
	sms            SMSClient
	sendingEnabled bool
	interval       time.Duration
	sendTimeout    time.Duration
	logger         *logrus.Logger
	ctx            context.Context
	cancel         context.CancelFunc
	wg             sync.WaitGroup
	running        bool
	mu             sync.RWMutex
}

func NewDispatcher(store Store, sms SMSClient, sendingEnabled bool, pollIntervalSec, sendTimeoutSec int, logger *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		store:          store,
		sms:            sms,
		sendingEnabled: sendingEnabled,
		interval:       time.Duration(pollIntervalSec) * time.Second,
		sendTimeout:    time.Duration(sendTimeoutSec) * time.Second,
		logger:         logger,
	}
}

// Start begins the background dispatch loop.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return fmt.Errorf("dispatcher is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	d.running = true

	d.wg.Add(1)
	go d.loop()

	d.logger.WithFields(logrus.Fields{
		"interval":        d.interval,
		"sending_enabled": d.sendingEnabled,
	}).Info("Dispatcher started")

	return nil
}

// Stop gracefully stops the dispatch loop.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return
	}

	d.cancel()
	d.wg.Wait()
	d.running = false
	d.logger.Info("Dispatcher stopped")
}

// IsRunning returns whether the dispatch loop is active.
func (d *Dispatcher) IsRunning() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.running
}

func (d *Dispatcher) loop() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			d.Dispatch(d.ctx)
		}
	}
}

// Dispatch runs a single pass over all approved messages. Each message's
// outcome is committed independently; one failure does not block the rest of
// the pass.
func (d *Dispatcher) Dispatch(ctx context.Context) {
	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, "dispatch_pass")
	defer span.End()

	msgs, err := d.store.GetMessagesByStatus(ctx, models.StatusApprovedToSend)
	if err != nil {
		d.logger.WithError(err).Error("Failed to scan approved messages")
		tracing.RecordError(ctx, err)
		return
	}

	tracing.AddSpanAttributes(ctx, attribute.Int("messages.count", len(msgs)))
	if len(msgs) > 0 {
		d.logger.WithField("count", len(msgs)).Info("Found messages to send")
	}

	for _, msg := range msgs {
		d.dispatchOne(ctx, msg)
	}

	metrics.RecordTimer("dispatch_pass_duration", time.Since(start), nil)
}

func (d *Dispatcher) dispatchOne(ctx context.Context, msg *models.Message) {
	if !d.sendingEnabled {
		d.logger.WithField("message_id", msg.ID).Warn("Send blocked by kill switch")

		err := d.store.TransitionMessageStatusWithAudit(ctx, msg.ID, models.StatusNeedsReview,
			models.EventSendBlockedKillSwitch, models.SystemActor, nil)
		if err != nil {
			d.logger.WithError(err).WithField("message_id", msg.ID).
				Error("Failed to revert blocked message")
		}
		metrics.IncrementCounter("sends_blocked_total", nil)
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	deliveryID, err := d.sms.Send(sendCtx, msg.Receiver, msg.Body)
	if err != nil {
		d.logger.WithError(err).WithField("message_id", msg.ID).Error("Failed to send message")

		if terr := d.store.TransitionMessageStatus(ctx, msg.ID, models.StatusFailedSend); terr != nil {
			d.logger.WithError(terr).WithField("message_id", msg.ID).
				Error("Failed to mark message as failed")
		}
		metrics.IncrementCounter("sends_failed_total", nil)
		return
	}

	err = d.store.TransitionMessageStatusWithAudit(ctx, msg.ID, models.StatusSent,
		models.EventMessageSent, models.SystemActor, map[string]string{"delivery_id": deliveryID})
	if err != nil {
		d.logger.WithError(err).WithField("message_id", msg.ID).
			Error("Failed to mark message as sent")
		return
	}

	metrics.IncrementCounter("messages_sent_total", nil)
	d.logger.WithFields(logrus.Fields{
		"message_id":  msg.ID,
		"delivery_id": deliveryID,
	}).Info("Message sent")
}
