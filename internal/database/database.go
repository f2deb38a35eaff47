package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"time"

	apperrors "replygate/internal/errors"
	"replygate/internal/migrations"
	"replygate/internal/models"
	"replygate/internal/security"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Database is the durable relational store for messages, audit events, and
// per-thread pause flags. Every state transition is scoped to one
// transactional unit per message.
type Database struct {
	db        *sql.DB
	encryptor *encryptor
}

func New(dbPath string) (*Database, error) {
	if len(dbPath) == 0 || dbPath[0] == '\x00' {
		return nil, fmt.Errorf("invalid database path")
	}

	// Validate database path to prevent directory traversal
	if err := security.ValidateFilePath(dbPath); err != nil {
		return nil, fmt.Errorf("invalid database path: %w", err)
	}

	file, err := os.OpenFile(dbPath, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to create database file: %w", err)
	}
	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("failed to close database file: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to ping database: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(migrations.GetInitialSchema()); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to initialize schema: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	enc, err := newEncryptor()
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to initialize encryptor: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to initialize encryptor: %w", err)
	}

	return &Database{db: db, encryptor: enc}, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

// SaveInboundMessage inserts an inbound message and its MESSAGE_RECEIVED
// audit row in a single transaction; a failure rolls back both.
func (d *Database) SaveInboundMessage(ctx context.Context, msg *models.Message) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := d.insertMessageTx(ctx, tx, msg); err != nil {
		return err
	}

	audit := &models.AuditEntry{
		Event:     models.EventMessageReceived,
		Actor:     models.SystemActor,
		MessageID: msg.ID,
		Metadata:  map[string]string{"sender": msg.Sender},
		Timestamp: msg.Timestamp,
	}
	if err := d.insertAuditTx(ctx, tx, audit); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit inbound message: %w", err)
	}
	return nil
}

// SaveDraft inserts a draft reply and flips the inbound message it answers to
// DRAFT_PENDING_APPROVAL, atomically, with a DRAFT_CREATED audit row.
func (d *Database) SaveDraft(ctx context.Context, draft *models.Message) error {
	if draft.InReplyToID == nil {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "draft has no in-reply-to reference")
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := d.insertMessageTx(ctx, tx, draft); err != nil {
		return err
	}

	if err := d.transitionTx(ctx, tx, *draft.InReplyToID, models.StatusDraftPendingApproval, draft.Timestamp); err != nil {
		return err
	}

	audit := &models.AuditEntry{
		Event:     models.EventDraftCreated,
		Actor:     models.SystemActor,
		MessageID: *draft.InReplyToID,
		Metadata:  map[string]string{"draft_id": draft.ID},
		Timestamp: draft.Timestamp,
	}
	if err := d.insertAuditTx(ctx, tx, audit); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit draft: %w", err)
	}
	return nil
}

// TransitionMessageStatus moves a message to a new lifecycle status. The
// current status is read and validated against the transition table inside
// the same transaction.
func (d *Database) TransitionMessageStatus(ctx context.Context, id string, to models.MessageStatus) error {
	return d.TransitionMessageStatusWithAudit(ctx, id, to, "", "", nil)
}

// TransitionMessageStatusWithAudit performs a validated status transition and
// appends an audit row in the same transaction. An empty event skips the
// audit row.
func (d *Database) TransitionMessageStatusWithAudit(ctx context.Context, id string, to models.MessageStatus, event, actor string, metadata map[string]string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	if err := d.transitionTx(ctx, tx, id, to, now); err != nil {
		return err
	}

	if event != "" {
		if actor == "" {
			actor = models.SystemActor
		}
		audit := &models.AuditEntry{
			Event:     event,
			Actor:     actor,
			MessageID: id,
			Metadata:  metadata,
			Timestamp: now,
		}
		if err := d.insertAuditTx(ctx, tx, audit); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transition: %w", err)
	}
	return nil
}

// UpdateDraftBody replaces a draft's body, resets it to
// DRAFT_PENDING_APPROVAL, and bumps draft_version. Returns false when no
// message with the id exists. No transition validation applies: an operator
// edit may pull a message out of any non-terminal state.
func (d *Database) UpdateDraftBody(ctx context.Context, id, body, actor string) (bool, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var one int
	err = tx.QueryRowContext(ctx, selectMessageExistsQuery, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check message existence: %w", err)
	}

	encryptedBody, err := d.encryptor.EncryptIfEnabled(body)
	if err != nil {
		return false, fmt.Errorf("failed to encrypt body: %w", err)
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, updateMessageBodyQuery, encryptedBody, models.StatusDraftPendingApproval, now, id); err != nil {
		return false, fmt.Errorf("failed to update draft body: %w", err)
	}

	audit := &models.AuditEntry{
		Event:     models.EventDraftEdited,
		Actor:     actor,
		MessageID: id,
		Timestamp: now,
	}
	if err := d.insertAuditTx(ctx, tx, audit); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit draft edit: %w", err)
	}
	return true, nil
}

func (d *Database) MessageExists(ctx context.Context, id string) (bool, error) {
	var one int
	err := d.db.QueryRowContext(ctx, selectMessageExistsQuery, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check message existence: %w", err)
	}
	return true, nil
}

func (d *Database) GetMessage(ctx context.Context, id string) (*models.Message, error) {
	row := d.db.QueryRowContext(ctx, selectMessageByIDQuery, id)
	msg, err := d.scanMessage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return msg, nil
}

func (d *Database) GetMessagesByStatus(ctx context.Context, status models.MessageStatus) ([]*models.Message, error) {
	rows, err := d.db.QueryContext(ctx, selectMessagesByStatusQuery, status)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages by status: %w", err)
	}
	defer rows.Close()
	return d.collectMessages(rows)
}

func (d *Database) GetInboundMessagesByStatus(ctx context.Context, status models.MessageStatus) ([]*models.Message, error) {
	rows, err := d.db.QueryContext(ctx, selectInboundMessagesByStatusQuery, status, models.TypeInbound)
	if err != nil {
		return nil, fmt.Errorf("failed to query inbound messages: %w", err)
	}
	defer rows.Close()
	return d.collectMessages(rows)
}

func (d *Database) GetThreadControl(ctx context.Context, threadID string) (*models.ThreadControl, error) {
	var tc models.ThreadControl
	var reason sql.NullString
	err := d.db.QueryRowContext(ctx, selectThreadControlQuery, threadID).Scan(
		&tc.ThreadID, &tc.Paused, &reason, &tc.LastUpdated,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get thread control: %w", err)
	}
	tc.PausedReason = reason.String
	return &tc, nil
}

func (d *Database) SetThreadControl(ctx context.Context, tc *models.ThreadControl) error {
	if tc.LastUpdated.IsZero() {
		tc.LastUpdated = time.Now().UTC()
	}
	_, err := d.db.ExecContext(ctx, upsertThreadControlQuery,
		tc.ThreadID, tc.Paused, tc.PausedReason, tc.LastUpdated)
	if err != nil {
		return fmt.Errorf("failed to set thread control: %w", err)
	}
	return nil
}

func (d *Database) InsertAuditEntry(ctx context.Context, entry *models.AuditEntry) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := d.insertAuditTx(ctx, tx, entry); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit audit entry: %w", err)
	}
	return nil
}

// HasAuditEvent is the structured dedup lookup keyed (event, message_id).
func (d *Database) HasAuditEvent(ctx context.Context, event, messageID string) (bool, error) {
	var one int
	err := d.db.QueryRowContext(ctx, selectAuditEventExistsQuery, event, messageID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check audit event: %w", err)
	}
	return true, nil
}

func (d *Database) CountAuditEvents(ctx context.Context, event, messageID string) (int, error) {
	var count int
	err := d.db.QueryRowContext(ctx, countAuditEventsQuery, event, messageID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count audit events: %w", err)
	}
	return count, nil
}

func (d *Database) insertMessageTx(ctx context.Context, tx *sql.Tx, msg *models.Message) error {
	encryptedBody, err := d.encryptor.EncryptIfEnabled(msg.Body)
	if err != nil {
		return fmt.Errorf("failed to encrypt body: %w", err)
	}

	if msg.Media == "" {
		msg.Media = models.EmptyMediaMarker
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	var inReplyTo interface{}
	if msg.InReplyToID != nil {
		inReplyTo = *msg.InReplyToID
	}

	_, err = tx.ExecContext(ctx, insertMessageQuery,
		msg.ID, msg.ThreadID, inReplyTo, msg.Sender, msg.Receiver,
		encryptedBody, msg.Media, msg.Status, msg.Type, msg.Timestamp, msg.DraftVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// transitionTx validates the status change against the lifecycle table before
// writing it. The read and the write share the caller's transaction.
func (d *Database) transitionTx(ctx context.Context, tx *sql.Tx, id string, to models.MessageStatus, now time.Time) error {
	var current models.MessageStatus
	err := tx.QueryRowContext(ctx, selectMessageStatusForUpdateQuery, id).Scan(&current)
	if err == sql.ErrNoRows {
		return apperrors.New(apperrors.ErrCodeNotFound, "message not found").WithContext("id", id)
	}
	if err != nil {
		return fmt.Errorf("failed to read current status: %w", err)
	}

	if !models.CanTransition(current, to) {
		return apperrors.New(apperrors.ErrCodeInvalidTransition, "status transition not allowed").
			WithContext("from", string(current)).
			WithContext("to", string(to))
	}

	if _, err := tx.ExecContext(ctx, updateMessageStatusQuery, to, now, id); err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	return nil
}

func (d *Database) insertAuditTx(ctx context.Context, tx *sql.Tx, entry *models.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	var metadata interface{}
	if len(entry.Metadata) > 0 {
		data, err := json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal audit metadata: %w", err)
		}
		metadata = string(data)
	}

	var messageID interface{}
	if entry.MessageID != "" {
		messageID = entry.MessageID
	}

	_, err := tx.ExecContext(ctx, insertAuditEntryQuery,
		entry.ID, entry.Event, entry.Actor, messageID, metadata, entry.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (d *Database) scanMessage(row rowScanner) (*models.Message, error) {
	msg := &models.Message{}
	var inReplyTo sql.NullString
	var body sql.NullString

	err := row.Scan(
		&msg.ID, &msg.ThreadID, &inReplyTo, &msg.Sender, &msg.Receiver,
		&body, &msg.Media, &msg.Status, &msg.Type, &msg.Timestamp, &msg.DraftVersion,
		&msg.CreatedAt, &msg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if inReplyTo.Valid {
		msg.InReplyToID = &inReplyTo.String
	}

	msg.Body, err = d.encryptor.DecryptIfEnabled(body.String)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt body: %w", err)
	}

	return msg, nil
}

func (d *Database) collectMessages(rows *sql.Rows) ([]*models.Message, error) {
	var messages []*models.Message
	for rows.Next() {
		msg, err := d.scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return messages, nil
}
