// Package memstream implements the stream contract entirely in process.
//
// It exists so the object store can run, demo and test without an external
// messaging deployment: streams are kept in memory, optionally journaled
// write-through to SQLite so a dev server survives restarts. Semantics
// follow the contract: per-stream sequencing, subject matching with
// wildcards, rollup-on-publish, header-filtered purge, push consumers with
// pending counts, bounded delivery windows and idle heartbeats. Delivery is
// at-most-once; AckExplicit consumers are rejected.
package memstream

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"streamfs/pkg/log"
	"streamfs/pkg/stream"
)

// Client is an in-process stream substrate.
type Client struct {
	mu      sync.RWMutex
	streams map[string]*streamState

	journal     *journal
	journalPath string
	now         func() time.Time
	logger      zerolog.Logger
}

// streamState holds one stream's configuration, message log and consumers.
// Sequences start at 1 and never regress, even after purges empty the log.
type streamState struct {
	mu        sync.RWMutex
	cfg       stream.StreamConfig
	created   time.Time
	msgs      []*storedMsg
	bytes     uint64
	lastSeq   uint64
	consumers map[string]*subscription
}

// storedMsg is one message at rest. Data is stored compressed when the
// stream opted in; it is decoded on every read path.
type storedMsg struct {
	seq     uint64
	subject string
	header  stream.Header
	data    []byte
	ts      time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithJournal persists streams and messages write-through to a SQLite
// database at path, and replays it on startup.
func WithJournal(path string) Option {
	return func(c *Client) {
		c.journalPath = path
	}
}

// WithNowFunc overrides the clock, for tests.
func WithNowFunc(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// New creates a Client and, when journaling is configured, replays any
// previously journaled state.
func New(opts ...Option) (*Client, error) {
	c := &Client{
		streams: make(map[string]*streamState),
		now:     time.Now,
		logger:  log.With("memstream"),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.journalPath != "" {
		j, err := openJournal(c.journalPath)
		if err != nil {
			return nil, fmt.Errorf("opening journal: %w", err)
		}
		c.journal = j
		if err := c.replay(context.Background()); err != nil {
			_ = j.Close()
			return nil, fmt.Errorf("replaying journal: %w", err)
		}
	}

	return c, nil
}

// Close releases every consumer and the journal. The Client must not be
// used afterwards.
func (c *Client) Close() error {
	c.mu.Lock()
	streams := c.streams
	c.streams = make(map[string]*streamState)
	c.mu.Unlock()

	for _, st := range streams {
		st.closeConsumers()
	}

	if c.journal != nil {
		return c.journal.Close()
	}
	return nil
}

// CreateStream creates a stream. Re-creating an existing stream with an
// identical configuration returns the existing stream; a different
// configuration fails with ErrStreamExists.
func (c *Client) CreateStream(ctx context.Context, cfg stream.StreamConfig) (*stream.StreamInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cfg.Name == "" {
		return nil, fmt.Errorf("%w: name required", stream.ErrInvalidStreamConfig)
	}
	if len(cfg.Subjects) == 0 {
		return nil, fmt.Errorf("%w: at least one subject required", stream.ErrInvalidStreamConfig)
	}
	for _, subj := range cfg.Subjects {
		if !stream.ValidSubject(subj) {
			return nil, fmt.Errorf("%w: bad subject %q", stream.ErrInvalidStreamConfig, subj)
		}
	}
	if cfg.Replicas == 0 {
		cfg.Replicas = 1
	}
	if cfg.Replicas < 0 {
		return nil, fmt.Errorf("%w: negative replicas", stream.ErrInvalidStreamConfig)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.streams[cfg.Name]; ok {
		existing.mu.RLock()
		same := reflect.DeepEqual(existing.cfg, cfg)
		existing.mu.RUnlock()
		if same {
			return c.snapshotInfo(existing), nil
		}
		return nil, fmt.Errorf("%w: %q", stream.ErrStreamExists, cfg.Name)
	}

	for name, other := range c.streams {
		for _, theirs := range other.cfg.Subjects {
			for _, ours := range cfg.Subjects {
				if stream.MatchSubject(theirs, ours) || stream.MatchSubject(ours, theirs) {
					return nil, fmt.Errorf("%w: subject %q overlaps with stream %q",
						stream.ErrInvalidStreamConfig, ours, name)
				}
			}
		}
	}

	st := &streamState{
		cfg:       cfg,
		created:   c.now().UTC(),
		consumers: make(map[string]*subscription),
	}

	if c.journal != nil {
		if err := c.journal.insertStream(ctx, st); err != nil {
			return nil, fmt.Errorf("journaling stream %q: %w", cfg.Name, err)
		}
	}

	c.streams[cfg.Name] = st
	c.logger.Debug().Str("stream", cfg.Name).Strs("subjects", cfg.Subjects).Msg("stream created")
	return c.snapshotInfo(st), nil
}

// DeleteStream removes a stream with its messages and consumers.
func (c *Client) DeleteStream(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	st, ok := c.streams[name]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %q", stream.ErrStreamNotFound, name)
	}
	delete(c.streams, name)
	c.mu.Unlock()

	if c.journal != nil {
		if err := c.journal.deleteStream(ctx, name); err != nil {
			return fmt.Errorf("deleting stream %q from journal: %w", name, err)
		}
	}

	st.closeConsumers()
	c.logger.Debug().Str("stream", name).Msg("stream deleted")
	return nil
}

// StreamInfo reports a stream's configuration and usage counters.
func (c *Client) StreamInfo(ctx context.Context, name string) (*stream.StreamInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	st, err := c.getStream(name)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	c.expireLocked(st)
	st.mu.Unlock()

	return c.snapshotInfo(st), nil
}

// StreamNames lists all stream names in lexical order.
func (c *Client) StreamNames(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.streams))
	for name := range c.streams {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (c *Client) snapshotInfo(st *streamState) *stream.StreamInfo {
	st.mu.RLock()
	defer st.mu.RUnlock()

	var firstSeq uint64
	if len(st.msgs) > 0 {
		firstSeq = st.msgs[0].seq
	}
	cfg := st.cfg
	cfg.Subjects = append([]string(nil), st.cfg.Subjects...)

	return &stream.StreamInfo{
		Config:  cfg,
		Created: st.created,
		State: stream.StreamState{
			Msgs:      uint64(len(st.msgs)),
			Bytes:     st.bytes,
			FirstSeq:  firstSeq,
			LastSeq:   st.lastSeq,
			Consumers: len(st.consumers),
		},
	}
}

func (c *Client) getStream(name string) (*streamState, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	st, ok := c.streams[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", stream.ErrStreamNotFound, name)
	}
	return st, nil
}

// streamForSubject finds the stream whose subject bindings cover subject.
func (c *Client) streamForSubject(subject string) (*streamState, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, st := range c.streams {
		for _, binding := range st.cfg.Subjects {
			if stream.MatchSubject(binding, subject) {
				return st, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: no stream binds subject %q", stream.ErrStreamNotFound, subject)
}

// expireLocked drops messages older than the stream's MaxAge. Callers hold
// st.mu. Journal deletions are best-effort maintenance.
func (c *Client) expireLocked(st *streamState) {
	if st.cfg.MaxAge <= 0 || len(st.msgs) == 0 {
		return
	}
	cutoff := c.now().Add(-st.cfg.MaxAge)

	var expired []uint64
	i := 0
	for ; i < len(st.msgs); i++ {
		if st.msgs[i].ts.After(cutoff) {
			break
		}
		st.bytes -= uint64(len(st.msgs[i].data))
		expired = append(expired, st.msgs[i].seq)
	}
	if i == 0 {
		return
	}
	st.msgs = append([]*storedMsg(nil), st.msgs[i:]...)

	if c.journal != nil {
		if err := c.journal.deleteMsgs(context.Background(), st.cfg.Name, expired); err != nil {
			c.logger.Warn().Err(err).Str("stream", st.cfg.Name).Msg("journal expiry failed")
		}
	}
}

// closeConsumers tears down every subscription on the stream.
func (st *streamState) closeConsumers() {
	st.mu.Lock()
	consumers := st.consumers
	st.consumers = make(map[string]*subscription)
	st.mu.Unlock()

	for _, sub := range consumers {
		sub.stop()
	}
}

// replay loads journaled streams and messages into memory.
func (c *Client) replay(ctx context.Context) error {
	states, err := c.journal.load(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, st := range states {
		st.consumers = make(map[string]*subscription)
		c.streams[st.cfg.Name] = st
		c.logger.Debug().
			Str("stream", st.cfg.Name).
			Int("messages", len(st.msgs)).
			Msg("stream replayed from journal")
	}
	return nil
}
