package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/gophaccounts/internal/logging"
	"github.com/dmitrijs2005/gophaccounts/internal/server"
	"github.com/dmitrijs2005/gophaccounts/internal/server/config"
	"github.com/dmitrijs2005/gophaccounts/internal/server/events"
	"github.com/dmitrijs2005/gophaccounts/internal/server/repositories/repomanager"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Test seams.
var (
	loadConfig   = config.LoadEnvConfig
	openStore    = server.OpenStore
	readPassword = term.ReadPassword
)

type options struct {
	store    string
	dsn      string
	logLevel string
}

// NewRootCmd creates the root command of accountctl.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:          "accountctl",
		Short:        "Administer the accounts service store",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.store, "store", "", "store kind (postgres|memory), overrides ACCOUNTS_STORE")
	cmd.PersistentFlags().StringVar(&opts.dsn, "dsn", "", "database DSN, overrides ACCOUNTS_DATABASE_DSN")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug|info|warn|error)")

	cmd.AddCommand(newMigrateCmd(opts))
	cmd.AddCommand(newRegisterCmd(opts))
	cmd.AddCommand(newVerifyCmd(opts))
	cmd.AddCommand(newValidateCmd(opts))

	return cmd
}

// runtime is what a command needs to talk to the store.
type runtime struct {
	repos          repomanager.RepositoryManager
	services       *server.Services
	notifier       *events.Notifier
	closePublisher func() error
	log            logging.Logger
}

func (o *options) open(ctx context.Context, stderr io.Writer) (*runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if o.store != "" {
		cfg.StoreKind = o.store
	}
	if o.dsn != "" {
		cfg.DatabaseDSN = o.dsn
	}

	log := logging.New(stderr, o.logLevel, "text")

	repos, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	pub, closePublisher, err := server.OpenPublisher(cfg, log)
	if err != nil {
		_ = repos.Close()
		return nil, err
	}

	notifier := events.NewNotifier(pub, log, nil, cfg.PublishTimeout)

	return &runtime{
		repos:          repos,
		services:       server.NewServices(cfg, repos, notifier, log, nil),
		notifier:       notifier,
		closePublisher: closePublisher,
		log:            log,
	}, nil
}

// Close waits for pending events and releases the store.
func (r *runtime) Close() {
	r.notifier.Wait()
	_ = r.closePublisher()
	_ = r.repos.Close()
}

// promptPassword reads a password from the terminal without echo.
func promptPassword(w io.Writer, prompt string) (string, error) {
	if _, err := fmt.Fprint(w, prompt); err != nil {
		return "", err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}
