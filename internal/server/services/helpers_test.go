package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophaccounts/internal/cryptox"
	"github.com/dmitrijs2005/gophaccounts/internal/logging"
	"github.com/dmitrijs2005/gophaccounts/internal/server/config"
	"github.com/dmitrijs2005/gophaccounts/internal/server/events"
	"github.com/dmitrijs2005/gophaccounts/internal/server/idgen"
	"github.com/dmitrijs2005/gophaccounts/internal/server/metrics"
	"github.com/dmitrijs2005/gophaccounts/internal/server/repositories/repomanager"
	"github.com/prometheus/client_golang/prometheus"
)

type sentEvent struct {
	topic   string
	payload any
}

// recordingNotifier delivers synchronously so tests can inspect events.
type recordingNotifier struct {
	mu     sync.Mutex
	events []sentEvent
}

func (n *recordingNotifier) Notify(_ context.Context, topic string, payload any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, sentEvent{topic: topic, payload: payload})
}

func (n *recordingNotifier) byTopic(topic string) []any {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []any
	for _, e := range n.events {
		if e.topic == topic {
			out = append(out, e.payload)
		}
	}
	return out
}

// lastToken returns the token of the latest verification request.
func (n *recordingNotifier) lastToken(t *testing.T) string {
	t.Helper()
	reqs := n.byTopic(events.TopicVerificationRequested)
	if len(reqs) == 0 {
		t.Fatal("no verification requested")
	}
	return reqs[len(reqs)-1].(events.VerificationRequested).Token
}

type fixture struct {
	repos     *repomanager.MemoryRepositoryManager
	notifier  *recordingNotifier
	metrics   *metrics.Metrics
	accounts  *AccountService
	addresses *AddressService
	sessions  *SessionService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, idgen.NewRandom(""))
}

func newFixtureWith(t *testing.T, ids idgen.Generator) *fixture {
	t.Helper()

	repos := repomanager.NewMemoryRepositoryManager()
	n := &recordingNotifier{}
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	cfg := &config.Config{
		SecretKey:                    "k",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 2 * time.Hour,
	}

	return &fixture{
		repos:     repos,
		notifier:  n,
		metrics:   m,
		accounts:  NewAccountService(repos, cryptox.NewFastHasher(), ids, n, logging.NopLogger{}, m),
		addresses: NewAddressService(repos, ids, logging.NopLogger{}, m),
		sessions:  NewSessionService(repos, cfg),
	}
}

func ptr[T any](v T) *T { return &v }
