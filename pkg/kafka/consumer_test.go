package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeReader serves queued messages and then blocks until ctx is done.
type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []kafka.Message
	closed    int
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		msg := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed++
	return nil
}

func (r *fakeReader) commits() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.committed)
}

type fakeDLQ struct {
	mu    sync.Mutex
	msgs  []kafka.Message
	cause []error
}

func (d *fakeDLQ) Publish(_ context.Context, msg kafka.Message, lastErr error, _ string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.msgs = append(d.msgs, msg)
	d.cause = append(d.cause, lastErr)
	return nil
}

func message(topic string, offset int64, value string) kafka.Message {
	return kafka.Message{Topic: topic, Offset: offset, Value: []byte(value)}
}

func runConsumer(t *testing.T, c *Consumer, r *fakeReader, wantCommits int) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	require.Eventually(t, func() bool { return r.commits() == wantCommits }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, 1, r.closed)
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "marketplace.listing.created", Topic("listing", "created"))
}

func TestConsumer_DispatchesAndCommits(t *testing.T) {
	topic := Topic("listing", "created")
	r := &fakeReader{queue: []kafka.Message{
		message(topic, 1, `{"event_id":"e1","event_type":"listing.created","aggregate_id":"l1","data":{}}`),
		message(topic, 2, `{"event_id":"e2","event_type":"listing.created","aggregate_id":"l2","data":{}}`),
	}}

	var mu sync.Mutex
	var seen []string
	handler := func(_ context.Context, e *Event) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, e.AggregateID)
		return nil
	}

	before := testutil.ToFloat64(consumerMessagesProcessed.WithLabelValues(topic, "search"))
	c := newConsumer(r, "search", []string{topic}, handler, testLogger())
	runConsumer(t, c, r, 2)

	assert.Equal(t, []string{"l1", "l2"}, seen)
	assert.Equal(t, before+2, testutil.ToFloat64(consumerMessagesProcessed.WithLabelValues(topic, "search")))
}

func TestConsumer_RetriesThenDeadLetters(t *testing.T) {
	topic := Topic("listing", "updated")
	r := &fakeReader{queue: []kafka.Message{
		message(topic, 7, `{"event_id":"e1","event_type":"listing.updated","aggregate_id":"l1"}`),
	}}
	dlq := &fakeDLQ{}

	attempts := 0
	boom := errors.New("engine unavailable")
	c := newConsumer(r, "search", []string{topic}, func(context.Context, *Event) error {
		attempts++
		return boom
	}, testLogger())
	c.dlq = dlq
	c.backoff = time.Millisecond

	runConsumer(t, c, r, 1)

	assert.Equal(t, maxHandlerRetries, attempts)
	require.Len(t, dlq.msgs, 1)
	assert.Equal(t, int64(7), dlq.msgs[0].Offset)
	assert.ErrorIs(t, dlq.cause[0], boom)
}

func TestConsumer_MalformedEnvelopeIsCommitted(t *testing.T) {
	topic := Topic("listing", "deleted")
	r := &fakeReader{queue: []kafka.Message{
		message(topic, 1, `not-json`),
		message(topic, 2, `{"event_id":"e2"}`),
	}}

	called := false
	c := newConsumer(r, "search", []string{topic}, func(context.Context, *Event) error {
		called = true
		return nil
	}, testLogger())

	runConsumer(t, c, r, 2)
	assert.False(t, called)
}

func TestWithDLQ_IgnoresNil(t *testing.T) {
	c := newConsumer(&fakeReader{}, "g", nil, nil, testLogger(), WithDLQ(nil))
	assert.Nil(t, c.dlq)
}

func TestEvent_UnmarshalData(t *testing.T) {
	e, err := UnmarshalEvent([]byte(`{"event_id":"e1","event_type":"listing.created","data":{"id":"l1"}}`))
	require.NoError(t, err)

	var payload struct {
		ID string `json:"id"`
	}
	require.NoError(t, e.UnmarshalData(&payload))
	assert.Equal(t, "l1", payload.ID)

	empty := &Event{EventID: "e2"}
	assert.Error(t, empty.UnmarshalData(&payload))
}
