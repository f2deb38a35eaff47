package database

// Message queries
const (
	insertMessageQuery = `
		INSERT INTO messages (
			id, thread_id, in_reply_to_id, sender, receiver,
			body, media, status, type, timestamp, draft_version
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	selectMessageByIDQuery = `
		SELECT id, thread_id, in_reply_to_id, sender, receiver,
		       body, media, status, type, timestamp, draft_version,
		       created_at, updated_at
		FROM messages
		WHERE id = ?
	`

	selectMessageExistsQuery = `
		SELECT 1 FROM messages WHERE id = ?
	`

	selectMessagesByStatusQuery = `
		SELECT id, thread_id, in_reply_to_id, sender, receiver,
		       body, media, status, type, timestamp, draft_version,
		       created_at, updated_at
		FROM messages
		WHERE status = ?
		ORDER BY created_at ASC
	`

	selectInboundMessagesByStatusQuery = `
		SELECT id, thread_id, in_reply_to_id, sender, receiver,
		       body, media, status, type, timestamp, draft_version,
		       created_at, updated_at
		FROM messages
		WHERE status = ? AND type = ?
		ORDER BY created_at ASC
	`

	selectMessageStatusForUpdateQuery = `
		SELECT status FROM messages WHERE id = ?
	`

	updateMessageStatusQuery = `
		UPDATE messages SET status = ?, timestamp = ? WHERE id = ?
	`

	updateMessageBodyQuery = `
		UPDATE messages
		SET body = ?, status = ?, draft_version = draft_version + 1, timestamp = ?
		WHERE id = ?
	`
)

// Thread control queries
const (
	selectThreadControlQuery = `
		SELECT thread_id, paused, paused_reason, last_updated
		FROM thread_controls
		WHERE thread_id = ?
	`

	upsertThreadControlQuery = `
		INSERT INTO thread_controls (thread_id, paused, paused_reason, last_updated)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(thread_id) DO UPDATE SET
			paused = excluded.paused,
			paused_reason = excluded.paused_reason,
			last_updated = excluded.last_updated
	`
)

// Audit queries
const (
	insertAuditEntryQuery = `
		INSERT INTO audit_log (id, event, actor, message_id, metadata, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	selectAuditEventExistsQuery = `
		SELECT 1 FROM audit_log WHERE event = ? AND message_id = ? LIMIT 1
	`

	countAuditEventsQuery = `
		SELECT COUNT(*) FROM audit_log WHERE event = ? AND message_id = ?
	`
)
