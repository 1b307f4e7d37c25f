package memstream

// Schema contains the SQL statements to create the journal database schema.
const Schema = `
-- Streams table: one row per stream, config stored as JSON
CREATE TABLE IF NOT EXISTS streams (
    name       TEXT PRIMARY KEY,
    config     TEXT NOT NULL,
    created_at DATETIME NOT NULL,
    last_seq   INTEGER NOT NULL DEFAULT 0
);

-- Messages table: the journaled log, payloads stored as published
CREATE TABLE IF NOT EXISTS messages (
    stream    TEXT NOT NULL,
    seq       INTEGER NOT NULL,
    subject   TEXT NOT NULL,
    headers   TEXT,
    data      BLOB,
    stored_at DATETIME NOT NULL,
    PRIMARY KEY (stream, seq),
    FOREIGN KEY (stream) REFERENCES streams(name) ON DELETE CASCADE
);

-- Indexes for performance
CREATE INDEX IF NOT EXISTS idx_messages_subject ON messages(stream, subject);
`
