package memstream

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"streamfs/pkg/stream"

	_ "modernc.org/sqlite"
)

// ErrJournal indicates a journal database failure.
var ErrJournal = errors.New("journal error")

// journal persists stream state write-through to SQLite. Every mutation
// lands in the journal before the in-memory log changes, so a replayed
// journal never claims messages the caller was told about but lost.
type journal struct {
	db *sql.DB
	mu sync.Mutex
}

func openJournal(path string) (*journal, error) {
	database, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %w", ErrJournal, err)
	}

	ctx := context.Background()

	if _, err := database.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("%w: failed to enable foreign keys: %w", ErrJournal, err)
	}

	if _, err := database.ExecContext(ctx, "PRAGMA journal_mode = WAL"); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("%w: failed to enable WAL mode: %w", ErrJournal, err)
	}

	if _, err := database.ExecContext(ctx, Schema); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("%w: failed to initialize schema: %w", ErrJournal, err)
	}

	return &journal{db: database}, nil
}

// Close closes the database connection.
func (j *journal) Close() error {
	return j.db.Close()
}

func (j *journal) insertStream(ctx context.Context, st *streamState) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	cfg, err := json.Marshal(st.cfg)
	if err != nil {
		return fmt.Errorf("%w: failed to encode stream config: %w", ErrJournal, err)
	}
	_, err = j.db.ExecContext(ctx,
		`INSERT INTO streams (name, config, created_at, last_seq) VALUES (?, ?, ?, ?)`,
		st.cfg.Name, string(cfg), st.created, st.lastSeq)
	if err != nil {
		return fmt.Errorf("%w: failed to insert stream: %w", ErrJournal, err)
	}
	return nil
}

func (j *journal) deleteStream(ctx context.Context, name string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	// ON DELETE CASCADE drops the stream's messages with it.
	if _, err := j.db.ExecContext(ctx, `DELETE FROM streams WHERE name = ?`, name); err != nil {
		return fmt.Errorf("%w: failed to delete stream: %w", ErrJournal, err)
	}
	return nil
}

// applyPublish records one publish atomically: removals from rollup or
// eviction, the new message, and the stream's sequence high-water mark.
func (j *journal) applyPublish(ctx context.Context, name string, removed []uint64, m *storedMsg) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %w", ErrJournal, err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, seq := range removed {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM messages WHERE stream = ? AND seq = ?`, name, seq); err != nil {
			return fmt.Errorf("%w: failed to delete message %d: %w", ErrJournal, seq, err)
		}
	}

	headers, err := encodeHeader(m.header)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO messages (stream, seq, subject, headers, data, stored_at) VALUES (?, ?, ?, ?, ?, ?)`,
		name, m.seq, m.subject, headers, m.data, m.ts); err != nil {
		return fmt.Errorf("%w: failed to insert message: %w", ErrJournal, err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE streams SET last_seq = ? WHERE name = ?`, m.seq, name); err != nil {
		return fmt.Errorf("%w: failed to update sequence: %w", ErrJournal, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit publish: %w", ErrJournal, err)
	}
	return nil
}

func (j *journal) deleteMsgs(ctx context.Context, name string, seqs []uint64) error {
	if len(seqs) == 0 {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %w", ErrJournal, err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, seq := range seqs {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM messages WHERE stream = ? AND seq = ?`, name, seq); err != nil {
			return fmt.Errorf("%w: failed to delete message %d: %w", ErrJournal, seq, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit deletions: %w", ErrJournal, err)
	}
	return nil
}

// load reads every journaled stream and its messages, oldest first.
func (j *journal) load(ctx context.Context) ([]*streamState, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	rows, err := j.db.QueryContext(ctx,
		`SELECT name, config, created_at, last_seq FROM streams`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query streams: %w", ErrJournal, err)
	}
	defer func() { _ = rows.Close() }()

	var states []*streamState
	for rows.Next() {
		var (
			name    string
			rawCfg  string
			created time.Time
			lastSeq uint64
		)
		if err := rows.Scan(&name, &rawCfg, &created, &lastSeq); err != nil {
			return nil, fmt.Errorf("%w: failed to scan stream: %w", ErrJournal, err)
		}
		var cfg stream.StreamConfig
		if err := json.Unmarshal([]byte(rawCfg), &cfg); err != nil {
			return nil, fmt.Errorf("%w: failed to decode config for %q: %w", ErrJournal, name, err)
		}
		states = append(states, &streamState{
			cfg:     cfg,
			created: created,
			lastSeq: lastSeq,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to iterate streams: %w", ErrJournal, err)
	}

	for _, st := range states {
		if err := j.loadMessages(ctx, st); err != nil {
			return nil, err
		}
	}
	return states, nil
}

func (j *journal) loadMessages(ctx context.Context, st *streamState) error {
	rows, err := j.db.QueryContext(ctx,
		`SELECT seq, subject, headers, data, stored_at FROM messages WHERE stream = ? ORDER BY seq ASC`,
		st.cfg.Name)
	if err != nil {
		return fmt.Errorf("%w: failed to query messages for %q: %w", ErrJournal, st.cfg.Name, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		m := &storedMsg{}
		var headers sql.NullString
		if err := rows.Scan(&m.seq, &m.subject, &headers, &m.data, &m.ts); err != nil {
			return fmt.Errorf("%w: failed to scan message: %w", ErrJournal, err)
		}
		if headers.Valid && headers.String != "" {
			if err := json.Unmarshal([]byte(headers.String), &m.header); err != nil {
				return fmt.Errorf("%w: failed to decode headers for seq %d: %w", ErrJournal, m.seq, err)
			}
		}
		st.msgs = append(st.msgs, m)
		st.bytes += uint64(len(m.data))
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: failed to iterate messages for %q: %w", ErrJournal, st.cfg.Name, err)
	}
	return nil
}

// encodeHeader renders headers as JSON, or NULL when empty.
func encodeHeader(h stream.Header) (any, error) {
	if len(h) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(h)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode headers: %w", ErrJournal, err)
	}
	return string(raw), nil
}
