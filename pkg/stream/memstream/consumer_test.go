package memstream

import (
	"time"

	"streamfs/pkg/stream"
)

const recvTimeout = 2 * time.Second

// recv waits for one delivery, failing the test on close or timeout.
func (s *MemstreamTestSuite) recv(ch <-chan *stream.Delivery) *stream.Delivery {
	select {
	case d, ok := <-ch:
		s.Require().True(ok, "delivery channel closed early")
		return d
	case <-time.After(recvTimeout):
		s.Require().FailNow("timed out waiting for delivery")
		return nil
	}
}

// recvData waits for the next non-heartbeat delivery.
func (s *MemstreamTestSuite) recvData(ch <-chan *stream.Delivery) *stream.Delivery {
	for {
		if d := s.recv(ch); !d.Heartbeat {
			return d
		}
	}
}

// drainClosed asserts the channel closes once buffered deliveries are read.
func (s *MemstreamTestSuite) drainClosed(ch <-chan *stream.Delivery) {
	deadline := time.After(recvTimeout)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			s.Require().FailNow("delivery channel never closed")
		}
	}
}

func (s *MemstreamTestSuite) subscribe(name string, cfg stream.ConsumerConfig) stream.Subscription {
	if cfg.DeliverSubject == "" {
		cfg.DeliverSubject = "_INBOX.test"
	}
	sub, err := s.client.Subscribe(s.ctx, name, cfg)
	s.Require().NoError(err)
	return sub
}

// TestSubscribeValidation tests rejected consumer configurations.
func (s *MemstreamTestSuite) TestSubscribeValidation() {
	s.createStream("EVENTS", "events.>")

	testCases := []struct {
		cfg     stream.ConsumerConfig
		want    error
		message string
	}{
		{stream.ConsumerConfig{}, stream.ErrInvalidConsumer, "missing deliver subject"},
		{stream.ConsumerConfig{DeliverSubject: "_INBOX.x", AckPolicy: stream.AckExplicit},
			stream.ErrInvalidConsumer, "explicit acks unsupported"},
		{stream.ConsumerConfig{DeliverSubject: "_INBOX.x", FlowControl: true},
			stream.ErrInvalidConsumer, "flow control without heartbeat"},
		{stream.ConsumerConfig{DeliverSubject: "_INBOX.x", FilterSubject: "events..a"},
			stream.ErrInvalidConsumer, "bad filter subject"},
	}
	for _, tc := range testCases {
		_, err := s.client.Subscribe(s.ctx, "EVENTS", tc.cfg)
		s.ErrorIs(err, tc.want, tc.message)
	}

	_, err := s.client.Subscribe(s.ctx, "NOPE", stream.ConsumerConfig{DeliverSubject: "_INBOX.x"})
	s.ErrorIs(err, stream.ErrStreamNotFound)
}

// TestDeliverAll tests ordered replay of the whole log with pending counts.
func (s *MemstreamTestSuite) TestDeliverAll() {
	s.createStream("EVENTS", "events.>")
	s.publish("events.a", "one", nil)
	s.publish("events.b", "two", nil)
	s.publish("events.a", "three", nil)

	sub := s.subscribe("EVENTS", stream.ConsumerConfig{DeliverPolicy: stream.DeliverAll})
	defer sub.Unsubscribe()

	for i, want := range []struct {
		data    string
		seq     uint64
		pending uint64
	}{
		{"one", 1, 2},
		{"two", 2, 1},
		{"three", 3, 0},
	} {
		d := s.recvData(sub.Msgs())
		s.Equal([]byte(want.data), d.Msg.Data, "delivery %d", i)
		s.Equal(want.seq, d.Sequence, "delivery %d", i)
		s.Equal(want.pending, d.Pending, "delivery %d", i)
		s.False(d.Timestamp.IsZero())
	}
}

// TestDeliverLive tests that publishes after subscribing are delivered.
func (s *MemstreamTestSuite) TestDeliverLive() {
	s.createStream("EVENTS", "events.>")

	sub := s.subscribe("EVENTS", stream.ConsumerConfig{DeliverPolicy: stream.DeliverAll})
	defer sub.Unsubscribe()

	s.publish("events.a", "live", stream.Header{"X-Rev": []string{"7"}})

	d := s.recvData(sub.Msgs())
	s.Equal("events.a", d.Msg.Subject)
	s.Equal([]byte("live"), d.Msg.Data)
	s.Equal("7", d.Msg.Header.Get("X-Rev"))
	s.Zero(d.Pending)
}

// TestDeliverFilter tests subject-filtered consumers.
func (s *MemstreamTestSuite) TestDeliverFilter() {
	s.createStream("EVENTS", "events.>")
	s.publish("events.a.1", "a1", nil)
	s.publish("events.b.1", "b1", nil)
	s.publish("events.a.2", "a2", nil)

	sub := s.subscribe("EVENTS", stream.ConsumerConfig{
		DeliverPolicy: stream.DeliverAll,
		FilterSubject: "events.a.>",
	})
	defer sub.Unsubscribe()

	first := s.recvData(sub.Msgs())
	s.Equal([]byte("a1"), first.Msg.Data)
	s.Equal(uint64(1), first.Pending)

	second := s.recvData(sub.Msgs())
	s.Equal([]byte("a2"), second.Msg.Data)
	s.Zero(second.Pending)
}

// TestDeliverNew tests that DeliverNew skips the existing log.
func (s *MemstreamTestSuite) TestDeliverNew() {
	s.createStream("EVENTS", "events.>")
	s.publish("events.a", "old-1", nil)
	s.publish("events.a", "old-2", nil)

	sub := s.subscribe("EVENTS", stream.ConsumerConfig{DeliverPolicy: stream.DeliverNew})
	defer sub.Unsubscribe()

	s.publish("events.a", "new-1", nil)

	d := s.recvData(sub.Msgs())
	s.Equal([]byte("new-1"), d.Msg.Data)
	s.Equal(uint64(3), d.Sequence)
	s.Zero(d.Pending)
}

// TestDeliverLastPerSubject tests the newest-per-subject snapshot policy.
func (s *MemstreamTestSuite) TestDeliverLastPerSubject() {
	s.createStream("EVENTS", "events.>")
	s.publish("events.a", "a-old", nil)
	s.publish("events.a", "a-new", nil)
	s.publish("events.b", "b-only", nil)

	sub := s.subscribe("EVENTS", stream.ConsumerConfig{DeliverPolicy: stream.DeliverLastPerSubject})
	defer sub.Unsubscribe()

	first := s.recvData(sub.Msgs())
	s.Equal([]byte("a-new"), first.Msg.Data)
	s.Equal(uint64(2), first.Sequence)
	s.Equal(uint64(1), first.Pending)

	second := s.recvData(sub.Msgs())
	s.Equal([]byte("b-only"), second.Msg.Data)
	s.Zero(second.Pending)
}

// TestIdleHeartbeat tests liveness deliveries on an idle consumer.
func (s *MemstreamTestSuite) TestIdleHeartbeat() {
	s.createStream("EVENTS", "events.>")

	sub := s.subscribe("EVENTS", stream.ConsumerConfig{
		DeliverPolicy: stream.DeliverAll,
		FlowControl:   true,
		IdleHeartbeat: 20 * time.Millisecond,
	})
	defer sub.Unsubscribe()

	d := s.recv(sub.Msgs())
	s.True(d.Heartbeat)
	s.Empty(d.Msg.Data)
	s.False(d.Timestamp.IsZero())
}

// TestUnsubscribe tests that releasing a consumer closes its channel.
func (s *MemstreamTestSuite) TestUnsubscribe() {
	s.createStream("EVENTS", "events.>")
	s.publish("events.a", "one", nil)

	sub := s.subscribe("EVENTS", stream.ConsumerConfig{DeliverPolicy: stream.DeliverAll})

	info, err := s.client.StreamInfo(s.ctx, "EVENTS")
	s.Require().NoError(err)
	s.Equal(1, info.State.Consumers)

	s.Require().NoError(sub.Unsubscribe())
	s.drainClosed(sub.Msgs())

	info, err = s.client.StreamInfo(s.ctx, "EVENTS")
	s.Require().NoError(err)
	s.Zero(info.State.Consumers)

	s.NoError(sub.Unsubscribe(), "unsubscribe is idempotent")
}

// TestCloseStopsConsumers tests that closing the client ends delivery.
func (s *MemstreamTestSuite) TestCloseStopsConsumers() {
	client, err := New()
	s.Require().NoError(err)

	_, err = client.CreateStream(s.ctx, stream.StreamConfig{Name: "EVENTS", Subjects: []string{"events.>"}})
	s.Require().NoError(err)

	sub, err := client.Subscribe(s.ctx, "EVENTS", stream.ConsumerConfig{
		DeliverSubject: "_INBOX.close",
		DeliverPolicy:  stream.DeliverAll,
	})
	s.Require().NoError(err)

	s.Require().NoError(client.Close())
	s.drainClosed(sub.Msgs())
}

// TestBackpressure tests that a bounded window still drains every message.
func (s *MemstreamTestSuite) TestBackpressure() {
	s.createStream("EVENTS", "events.>")
	const total = 100
	for i := 0; i < total; i++ {
		s.publish("events.a", "x", nil)
	}

	sub := s.subscribe("EVENTS", stream.ConsumerConfig{DeliverPolicy: stream.DeliverAll})
	defer sub.Unsubscribe()

	// Let the loop fill the window before draining.
	time.Sleep(50 * time.Millisecond)
	s.LessOrEqual(len(sub.Msgs()), deliveryWindow)

	for i := uint64(1); i <= total; i++ {
		d := s.recvData(sub.Msgs())
		s.Equal(i, d.Sequence)
	}
}
