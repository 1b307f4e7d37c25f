package memstream

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/klauspost/compress/s2"

	"streamfs/pkg/stream"
)

// Publish stores msg in the stream binding its subject and returns after
// both the in-memory log and the journal (when configured) accepted it.
func (c *Client) Publish(ctx context.Context, msg *stream.Msg) (*stream.PubAck, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if msg == nil || !literalSubject(msg.Subject) {
		return nil, fmt.Errorf("%w: %q", stream.ErrInvalidSubject, subjectOf(msg))
	}

	st, err := c.streamForSubject(msg.Subject)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	c.expireLocked(st)

	rollup := msg.Header.Get(stream.RollupHeader)
	if rollup != "" {
		if !st.cfg.AllowRollup {
			return nil, fmt.Errorf("%w: stream %q", stream.ErrRollupNotAllowed, st.cfg.Name)
		}
		if rollup != stream.RollupSubject {
			return nil, fmt.Errorf("%w: unsupported rollup value %q", stream.ErrRollupNotAllowed, rollup)
		}
	}

	var data []byte
	if st.cfg.Compression {
		data = s2.Encode(nil, msg.Data)
	} else {
		data = bytes.Clone(msg.Data)
	}

	// A rollup replaces every earlier message on the same subject in the
	// same step that stores the new one.
	var (
		removedSeqs  []uint64
		removedBytes uint64
	)
	if rollup == stream.RollupSubject {
		for _, m := range st.msgs {
			if m.subject == msg.Subject {
				removedSeqs = append(removedSeqs, m.seq)
				removedBytes += uint64(len(m.data))
			}
		}
	}

	newBytes := st.bytes - removedBytes + uint64(len(data))
	if st.cfg.MaxBytes > 0 && newBytes > uint64(st.cfg.MaxBytes) {
		if st.cfg.Discard == stream.DiscardNew {
			return nil, fmt.Errorf("%w: stream %q", stream.ErrStreamFull, st.cfg.Name)
		}
		// DiscardOld evicts from the front until the new message fits.
		for _, m := range st.msgs {
			if newBytes <= uint64(st.cfg.MaxBytes) {
				break
			}
			if slices.Contains(removedSeqs, m.seq) {
				continue
			}
			removedSeqs = append(removedSeqs, m.seq)
			removedBytes += uint64(len(m.data))
			newBytes -= uint64(len(m.data))
		}
		if newBytes > uint64(st.cfg.MaxBytes) {
			return nil, fmt.Errorf("%w: stream %q", stream.ErrStreamFull, st.cfg.Name)
		}
	}

	stored := &storedMsg{
		seq:     st.lastSeq + 1,
		subject: msg.Subject,
		header:  msg.Header.Clone(),
		data:    data,
		ts:      c.now().UTC(),
	}

	if c.journal != nil {
		if err := c.journal.applyPublish(ctx, st.cfg.Name, removedSeqs, stored); err != nil {
			return nil, fmt.Errorf("journaling publish on %q: %w", msg.Subject, err)
		}
	}

	if len(removedSeqs) > 0 {
		kept := st.msgs[:0]
		for _, m := range st.msgs {
			if slices.Contains(removedSeqs, m.seq) {
				continue
			}
			kept = append(kept, m)
		}
		st.msgs = kept
	}
	st.msgs = append(st.msgs, stored)
	st.bytes = newBytes
	st.lastSeq = stored.seq

	for _, sub := range st.consumers {
		sub.wake()
	}

	return &stream.PubAck{Stream: st.cfg.Name, Sequence: stored.seq}, nil
}

// LastMsgForSubject returns the newest message in the named stream whose
// subject matches subject.
func (c *Client) LastMsgForSubject(ctx context.Context, name, subject string) (*stream.StoredMsg, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !stream.ValidSubject(subject) {
		return nil, fmt.Errorf("%w: %q", stream.ErrInvalidSubject, subject)
	}

	st, err := c.getStream(name)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	c.expireLocked(st)

	for i := len(st.msgs) - 1; i >= 0; i-- {
		m := st.msgs[i]
		if !stream.MatchSubject(subject, m.subject) {
			continue
		}
		data, err := decodePayload(st, m)
		if err != nil {
			return nil, err
		}
		return &stream.StoredMsg{
			Subject:  m.subject,
			Sequence: m.seq,
			Header:   m.header.Clone(),
			Data:     data,
			Time:     m.ts,
		}, nil
	}
	return nil, fmt.Errorf("%w: subject %q in stream %q", stream.ErrMessageNotFound, subject, name)
}

// PurgeSubject removes every message matching subject from the named
// stream. A non-nil match narrows removal to messages whose headers carry
// all the given key/value pairs. Purging nothing is not an error.
func (c *Client) PurgeSubject(ctx context.Context, name, subject string, match stream.Header) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !stream.ValidSubject(subject) {
		return fmt.Errorf("%w: %q", stream.ErrInvalidSubject, subject)
	}

	st, err := c.getStream(name)
	if err != nil {
		return err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	var (
		removedSeqs  []uint64
		removedBytes uint64
	)
	for _, m := range st.msgs {
		if stream.MatchSubject(subject, m.subject) && headerContains(m.header, match) {
			removedSeqs = append(removedSeqs, m.seq)
			removedBytes += uint64(len(m.data))
		}
	}
	if len(removedSeqs) == 0 {
		return nil
	}

	if c.journal != nil {
		if err := c.journal.deleteMsgs(ctx, st.cfg.Name, removedSeqs); err != nil {
			return fmt.Errorf("journaling purge of %q: %w", subject, err)
		}
	}

	kept := make([]*storedMsg, 0, len(st.msgs)-len(removedSeqs))
	for _, m := range st.msgs {
		if !slices.Contains(removedSeqs, m.seq) {
			kept = append(kept, m)
		}
	}
	st.msgs = kept
	st.bytes -= removedBytes
	return nil
}

// decodePayload returns a private copy of a stored payload, decompressed
// when the stream stores compressed data. Callers hold st.mu.
func decodePayload(st *streamState, m *storedMsg) ([]byte, error) {
	if !st.cfg.Compression {
		return bytes.Clone(m.data), nil
	}
	data, err := s2.Decode(nil, m.data)
	if err != nil {
		return nil, fmt.Errorf("decompressing message %d on %q: %w", m.seq, m.subject, err)
	}
	return data, nil
}

// headerContains reports whether h carries every key/value pair in match.
func headerContains(h, match stream.Header) bool {
	for key, values := range match {
		for _, value := range values {
			if !slices.Contains(h[key], value) {
				return false
			}
		}
	}
	return true
}

// literalSubject reports whether s is valid and wildcard-free, i.e. usable
// as a publish subject.
func literalSubject(s string) bool {
	if !stream.ValidSubject(s) {
		return false
	}
	for _, tok := range strings.Split(s, ".") {
		if tok == "*" || tok == ">" {
			return false
		}
	}
	return true
}

func subjectOf(msg *stream.Msg) string {
	if msg == nil {
		return ""
	}
	return msg.Subject
}
