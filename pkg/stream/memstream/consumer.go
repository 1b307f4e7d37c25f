package memstream

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"streamfs/pkg/stream"
)

// deliveryWindow bounds in-flight deliveries per consumer. When the
// consumer stops draining, the window fills and delivery blocks; that
// blocking is the flow-control pacing the contract promises.
const deliveryWindow = 16

type subscription struct {
	client *Client
	st     *streamState
	name   string
	cfg    stream.ConsumerConfig

	msgs     chan *stream.Delivery
	notify   chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	// Delivery cursor, owned by the loop goroutine. snapshot serves
	// DeliverLastPerSubject before the live tail at nextSeq takes over.
	nextSeq  uint64
	snapshot []*storedMsg
}

// Subscribe creates an ephemeral push consumer on the named stream.
func (c *Client) Subscribe(ctx context.Context, name string, cfg stream.ConsumerConfig) (stream.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	st, err := c.getStream(name)
	if err != nil {
		return nil, err
	}

	if cfg.DeliverSubject == "" {
		return nil, fmt.Errorf("%w: deliver subject required", stream.ErrInvalidConsumer)
	}
	if cfg.AckPolicy != stream.AckNone {
		return nil, fmt.Errorf("%w: only AckNone delivery is supported", stream.ErrInvalidConsumer)
	}
	if cfg.FlowControl && cfg.IdleHeartbeat <= 0 {
		return nil, fmt.Errorf("%w: flow control requires an idle heartbeat", stream.ErrInvalidConsumer)
	}
	if cfg.FilterSubject != "" && !stream.ValidSubject(cfg.FilterSubject) {
		return nil, fmt.Errorf("%w: bad filter subject %q", stream.ErrInvalidConsumer, cfg.FilterSubject)
	}

	sub := &subscription{
		client: c,
		st:     st,
		name:   uuid.NewString(),
		cfg:    cfg,
		msgs:   make(chan *stream.Delivery, deliveryWindow),
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}

	st.mu.Lock()
	c.expireLocked(st)
	switch cfg.DeliverPolicy {
	case stream.DeliverAll:
		sub.nextSeq = 1
	case stream.DeliverNew:
		sub.nextSeq = st.lastSeq + 1
	case stream.DeliverLastPerSubject:
		last := make(map[string]*storedMsg)
		for _, m := range st.msgs {
			if sub.matches(m.subject) {
				last[m.subject] = m
			}
		}
		for _, m := range last {
			sub.snapshot = append(sub.snapshot, m)
		}
		sort.Slice(sub.snapshot, func(i, j int) bool {
			return sub.snapshot[i].seq < sub.snapshot[j].seq
		})
		sub.nextSeq = st.lastSeq + 1
	default:
		st.mu.Unlock()
		return nil, fmt.Errorf("%w: unknown deliver policy %d", stream.ErrInvalidConsumer, cfg.DeliverPolicy)
	}
	st.consumers[sub.name] = sub
	st.mu.Unlock()

	go sub.loop()

	c.logger.Debug().
		Str("stream", name).
		Str("consumer", sub.name).
		Str("filter", cfg.FilterSubject).
		Msg("consumer created")
	return sub, nil
}

// Msgs returns the bounded delivery channel.
func (sub *subscription) Msgs() <-chan *stream.Delivery {
	return sub.msgs
}

// Unsubscribe releases the consumer. Idempotent.
func (sub *subscription) Unsubscribe() error {
	sub.st.mu.Lock()
	delete(sub.st.consumers, sub.name)
	sub.st.mu.Unlock()
	sub.stop()
	return nil
}

// stop ends the delivery loop; the loop closes the channel on its way out.
func (sub *subscription) stop() {
	sub.stopOnce.Do(func() {
		close(sub.done)
	})
}

// wake nudges the loop after a publish. Non-blocking: one pending token is
// enough, the loop rescans the log each pass.
func (sub *subscription) wake() {
	select {
	case sub.notify <- struct{}{}:
	default:
	}
}

func (sub *subscription) matches(subject string) bool {
	if sub.cfg.FilterSubject == "" {
		return true
	}
	return stream.MatchSubject(sub.cfg.FilterSubject, subject)
}

func (sub *subscription) loop() {
	defer close(sub.msgs)
	for {
		if d, ok := sub.next(); ok {
			select {
			case sub.msgs <- d:
				continue
			case <-sub.done:
				return
			}
		}

		if sub.cfg.IdleHeartbeat > 0 {
			select {
			case <-sub.notify:
			case <-time.After(sub.cfg.IdleHeartbeat):
				sub.heartbeat()
			case <-sub.done:
				return
			}
		} else {
			select {
			case <-sub.notify:
			case <-sub.done:
				return
			}
		}
	}
}

// next finds the next deliverable message and advances the cursor past it.
func (sub *subscription) next() (*stream.Delivery, bool) {
	st := sub.st
	st.mu.Lock()
	defer st.mu.Unlock()
	sub.client.expireLocked(st)

	for len(sub.snapshot) > 0 {
		m := sub.snapshot[0]
		sub.snapshot = sub.snapshot[1:]
		data, err := decodePayload(st, m)
		if err != nil {
			sub.client.logger.Error().Err(err).Msg("skipping undecodable message")
			continue
		}
		pending := uint64(len(sub.snapshot)) + sub.pendingLocked(sub.nextSeq-1)
		return sub.delivery(m, data, pending), true
	}

	for _, m := range st.msgs {
		if m.seq < sub.nextSeq || !sub.matches(m.subject) {
			continue
		}
		data, err := decodePayload(st, m)
		if err != nil {
			sub.client.logger.Error().Err(err).Msg("skipping undecodable message")
			sub.nextSeq = m.seq + 1
			continue
		}
		sub.nextSeq = m.seq + 1
		return sub.delivery(m, data, sub.pendingLocked(m.seq)), true
	}
	return nil, false
}

// pendingLocked counts matching messages with sequences above afterSeq.
// Callers hold st.mu.
func (sub *subscription) pendingLocked(afterSeq uint64) uint64 {
	var n uint64
	for i := len(sub.st.msgs) - 1; i >= 0; i-- {
		m := sub.st.msgs[i]
		if m.seq <= afterSeq {
			break
		}
		if sub.matches(m.subject) {
			n++
		}
	}
	return n
}

func (sub *subscription) delivery(m *storedMsg, data []byte, pending uint64) *stream.Delivery {
	return &stream.Delivery{
		Msg: stream.Msg{
			Subject: m.subject,
			Header:  m.header.Clone(),
			Data:    data,
		},
		Sequence:  m.seq,
		Pending:   pending,
		Timestamp: m.ts,
	}
}

// heartbeat emits an idle-liveness delivery. Skipped, never queued, when
// the window is full: a stalled consumer gains nothing from buffered
// heartbeats.
func (sub *subscription) heartbeat() {
	d := &stream.Delivery{
		Heartbeat: true,
		Timestamp: sub.client.now().UTC(),
	}
	select {
	case sub.msgs <- d:
	default:
	}
}
