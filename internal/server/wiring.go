package server

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophaccounts/internal/cryptox"
	"github.com/dmitrijs2005/gophaccounts/internal/logging"
	"github.com/dmitrijs2005/gophaccounts/internal/server/config"
	"github.com/dmitrijs2005/gophaccounts/internal/server/events"
	"github.com/dmitrijs2005/gophaccounts/internal/server/idgen"
	"github.com/dmitrijs2005/gophaccounts/internal/server/metrics"
	"github.com/dmitrijs2005/gophaccounts/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophaccounts/internal/server/services"
)

// OpenStore opens the configured store and brings its schema up to date.
func OpenStore(ctx context.Context, c *config.Config) (repomanager.RepositoryManager, error) {
	switch c.StoreKind {
	case config.StoreMemory:
		return repomanager.NewMemoryRepositoryManager(), nil
	case config.StorePostgres:
		pg, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		if err := pg.RunMigrations(ctx); err != nil {
			_ = pg.Close()
			return nil, fmt.Errorf("db migration error: %w", err)
		}
		return pg, nil
	default:
		return nil, fmt.Errorf("unknown store kind %q", c.StoreKind)
	}
}

// OpenPublisher connects to the configured broker. Without a broker URL
// events only go to the log. The returned close func is never nil.
func OpenPublisher(c *config.Config, l logging.Logger) (events.Publisher, func() error, error) {
	if c.AMQPURL == "" {
		return events.NewLogPublisher(l.With("module", "events")), func() error { return nil }, nil
	}
	pub, err := events.NewAMQPPublisher(c.AMQPURL, c.AMQPExchange)
	if err != nil {
		return nil, nil, fmt.Errorf("amqp init error: %w", err)
	}
	return pub, pub.Close, nil
}

// Services groups the business services sharing one store.
type Services struct {
	Accounts  *services.AccountService
	Addresses *services.AddressService
	Sessions  *services.SessionService
}

func NewServices(c *config.Config, repos repomanager.RepositoryManager, notifier services.Notifier, l logging.Logger, m *metrics.Metrics) *Services {
	ids := idgen.NewRandom(c.DisplayIDPrefix)
	return &Services{
		Accounts:  services.NewAccountService(repos, cryptox.NewArgon2idHasher(), ids, notifier, l, m),
		Addresses: services.NewAddressService(repos, ids, l, m),
		Sessions:  services.NewSessionService(repos, c),
	}
}
