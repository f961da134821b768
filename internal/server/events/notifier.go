package events

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophaccounts/internal/logging"
	"github.com/dmitrijs2005/gophaccounts/internal/server/metrics"
)

// DefaultPublishTimeout bounds a single delivery attempt.
const DefaultPublishTimeout = 5 * time.Second

// Notifier delivers events in the background. Delivery is at most once:
// failures are logged and counted, never retried and never reported to the
// caller.
type Notifier struct {
	pub     Publisher
	log     logging.Logger
	metrics *metrics.Metrics
	timeout time.Duration

	wg sync.WaitGroup
}

func NewNotifier(pub Publisher, log logging.Logger, m *metrics.Metrics, timeout time.Duration) *Notifier {
	if timeout <= 0 {
		timeout = DefaultPublishTimeout
	}
	return &Notifier{pub: pub, log: log, metrics: m, timeout: timeout}
}

// Notify schedules delivery of payload and returns immediately. The delivery
// outlives cancellation of ctx but keeps its values.
func (n *Notifier) Notify(ctx context.Context, topic string, payload any) {
	ctx = context.WithoutCancel(ctx)

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		ctx, cancel := context.WithTimeout(ctx, n.timeout)
		defer cancel()

		if err := n.pub.Publish(ctx, topic, payload); err != nil {
			n.log.Warn(ctx, "event dropped", "topic", topic, "error", err)
			n.metrics.EventPublished(topic, metrics.ResultError)
			return
		}
		n.metrics.EventPublished(topic, metrics.ResultOK)
	}()
}

// Wait blocks until every scheduled delivery has finished.
func (n *Notifier) Wait() {
	n.wg.Wait()
}
