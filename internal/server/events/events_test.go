package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophaccounts/internal/logging"
	"github.com/dmitrijs2005/gophaccounts/internal/server/metrics"
	"github.com/dmitrijs2005/gophaccounts/internal/server/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeChannel struct {
	mu       sync.Mutex
	exchange string
	keys     []string
	msgs     []amqp.Publishing
	err      error
	closed   bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.exchange = exchange
	f.keys = append(f.keys, key)
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestAMQPPublisher_PublishJSON(t *testing.T) {
	ch := &fakeChannel{}
	p := &AMQPPublisher{ch: ch, exchange: "accounts"}

	payload := VerificationRequested{Email: "a@x.com", Token: "tok", Username: "alice", Role: models.RoleCustomer}
	require.NoError(t, p.Publish(context.Background(), TopicVerificationRequested, payload))

	require.Len(t, ch.msgs, 1)
	assert.Equal(t, "accounts", ch.exchange)
	assert.Equal(t, []string{TopicVerificationRequested}, ch.keys)
	assert.Equal(t, "application/json", ch.msgs[0].ContentType)
	assert.Equal(t, amqp.Persistent, ch.msgs[0].DeliveryMode)

	var got VerificationRequested
	require.NoError(t, json.Unmarshal(ch.msgs[0].Body, &got))
	assert.Equal(t, payload, got)

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestAMQPPublisher_Errors(t *testing.T) {
	ch := &fakeChannel{err: errors.New("channel closed")}
	p := &AMQPPublisher{ch: ch, exchange: "accounts"}

	err := p.Publish(context.Background(), TopicAccountChanged, AccountChanged{Kind: ChangeCreated})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel closed")

	err = p.Publish(context.Background(), TopicAccountChanged, make(chan int))
	assert.Error(t, err)
}

func TestAccountChanged_JSON(t *testing.T) {
	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	ev := AccountChanged{
		Kind:       ChangeVerified,
		Account:    models.Snapshot{ID: "a1", Username: "alice", Role: models.RoleAdmin, Verified: true},
		OccurredAt: at,
	}
	b, err := json.Marshal(ev)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.Equal(t, "VERIFIED", raw["kind"])
	account := raw["account"].(map[string]any)
	assert.Equal(t, "ADMIN", account["role"])
	assert.NotContains(t, account, "password_hash")
}

type recordingPublisher struct {
	mu      sync.Mutex
	topics  []string
	err     error
	delay   time.Duration
	sawDone bool
}

func (r *recordingPublisher) Publish(ctx context.Context, topic string, _ any) error {
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			r.mu.Lock()
			r.sawDone = true
			r.mu.Unlock()
			return ctx.Err()
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = append(r.topics, topic)
	return r.err
}

func TestNotifier_DeliversAfterCallerCancels(t *testing.T) {
	pub := &recordingPublisher{delay: 10 * time.Millisecond}
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	n := NewNotifier(pub, logging.NopLogger{}, m, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	n.Notify(ctx, TopicAccountChanged, AccountChanged{Kind: ChangeCreated})
	cancel()
	n.Wait()

	assert.Equal(t, []string{TopicAccountChanged}, pub.topics)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsPublished.WithLabelValues(TopicAccountChanged, metrics.ResultOK)))
}

func TestNotifier_FailureIsSwallowed(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	n := NewNotifier(pub, logging.NopLogger{}, m, time.Second)

	n.Notify(context.Background(), TopicVerificationRequested, VerificationRequested{})
	n.Wait()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsPublished.WithLabelValues(TopicVerificationRequested, metrics.ResultError)))
}

func TestNotifier_Timeout(t *testing.T) {
	pub := &recordingPublisher{delay: time.Minute}
	n := NewNotifier(pub, logging.NopLogger{}, nil, 5*time.Millisecond)

	n.Notify(context.Background(), TopicAccountChanged, nil)
	n.Wait()

	assert.True(t, pub.sawDone)
	assert.Empty(t, pub.topics)
}

func TestLogPublisher(t *testing.T) {
	p := NewLogPublisher(logging.NopLogger{})
	assert.NoError(t, p.Publish(context.Background(), TopicAccountChanged, AccountChanged{}))
	assert.Error(t, p.Publish(context.Background(), TopicAccountChanged, func() {}))
}
