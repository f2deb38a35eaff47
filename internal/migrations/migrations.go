package migrations

// InitialSchema is applied on every database open; all statements are
// idempotent so an existing database is left untouched.
const InitialSchema = `
CREATE TABLE IF NOT EXISTS messages (
    id TEXT PRIMARY KEY,
    thread_id TEXT NOT NULL,
    in_reply_to_id TEXT,
    sender TEXT NOT NULL,
    receiver TEXT NOT NULL,
    body TEXT,
    media TEXT NOT NULL DEFAULT '{}',
    status TEXT NOT NULL,
    type TEXT NOT NULL,
    timestamp DATETIME NOT NULL,
    draft_version INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_messages_status_type ON messages(status, type);
CREATE INDEX IF NOT EXISTS idx_messages_thread ON messages(thread_id, timestamp);
CREATE INDEX IF NOT EXISTS idx_messages_in_reply_to ON messages(in_reply_to_id);

CREATE TRIGGER IF NOT EXISTS messages_updated_at
AFTER UPDATE ON messages
BEGIN
    UPDATE messages SET updated_at = CURRENT_TIMESTAMP
    WHERE id = NEW.id;
END;

CREATE TABLE IF NOT EXISTS thread_controls (
    thread_id TEXT PRIMARY KEY,
    paused BOOLEAN NOT NULL DEFAULT FALSE,
    paused_reason TEXT,
    last_updated DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS audit_log (
    id TEXT PRIMARY KEY,
    event TEXT NOT NULL,
    actor TEXT NOT NULL,
    message_id TEXT,
    metadata TEXT,
    timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_audit_event_message ON audit_log(event, message_id);
CREATE INDEX IF NOT EXISTS idx_audit_message ON audit_log(message_id);
`

// GetInitialSchema returns the initial database schema.
func GetInitialSchema() string {
	return InitialSchema
}
