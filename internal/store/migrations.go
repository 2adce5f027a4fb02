package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS chat_sessions (
	id            TEXT PRIMARY KEY,
	user_name     TEXT NOT NULL,
	user_role     TEXT NOT NULL DEFAULT 'patient',
	started_at    DATETIME NOT NULL,
	ended_at      DATETIME NOT NULL,
	rating        INTEGER NOT NULL DEFAULT 0,
	feedback      TEXT NOT NULL DEFAULT '',
	message_count INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_chat_sessions_ended ON chat_sessions(ended_at);

CREATE TABLE IF NOT EXISTS chat_messages (
	id          TEXT PRIMARY KEY,
	session_id  TEXT NOT NULL REFERENCES chat_sessions(id) ON DELETE CASCADE,
	seq         INTEGER NOT NULL,
	text        TEXT NOT NULL,
	sender      TEXT NOT NULL,
	sender_name TEXT NOT NULL DEFAULT '',
	sender_role TEXT NOT NULL DEFAULT '',
	timestamp   DATETIME NOT NULL,
	status      TEXT NOT NULL DEFAULT 'sent',
	UNIQUE(session_id, seq)
);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS seen_alerts (
	feed     TEXT NOT NULL,
	alert_id TEXT NOT NULL,
	seen_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (feed, alert_id)
);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
