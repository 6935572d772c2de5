package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/evcraddock/rental-bridge/internal/config"
	"github.com/evcraddock/rental-bridge/internal/db"
	"github.com/evcraddock/rental-bridge/internal/kv"
	"github.com/evcraddock/rental-bridge/internal/logging"
	"github.com/evcraddock/rental-bridge/internal/marketplace"
	"github.com/evcraddock/rental-bridge/internal/notify"
)

// app holds what a command needs for one invocation.
type app struct {
	cfg     config.Config
	svc     *marketplace.Service
	closers []closer
}

type closer struct {
	what string
	c    io.Closer
}

// runFunc is a command body that needs an open app.
type runFunc func(cmd *cobra.Command, args []string, a *app) error

// withApp opens the configured backend around fn and logs the command.
func withApp(fn runFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		return logging.Command(cmd.Context(), cmd.CommandPath(), func() error {
			return fn(cmd, args, a)
		})
	}
}

// loadConfig reads the config named by --config and applies --db.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return config.Config{}, fmt.Errorf("loading config: %w", err)
	}
	if flagDB != "" {
		cfg.DBPath = flagDB
	}
	return cfg, nil
}

func openApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg}
	if err := a.setupLogging(cmd.ErrOrStderr()); err != nil {
		return nil, err
	}

	store, c, err := openStore(cmd.Context(), cfg)
	if err != nil {
		a.close()
		return nil, err
	}
	if c != nil {
		a.closers = append(a.closers, closer{cfg.Backend, c})
	}

	a.svc = marketplace.New(kv.Prefixed(store, cfg.Namespace), kv.NewMemory(), marketplace.Options{
		HashCost: cfg.HashCost,
		Notifier: newNotifier(cmd.ErrOrStderr()),
		Mailer:   newMailer(cfg),
	})
	return a, nil
}

func (a *app) setupLogging(stderr io.Writer) error {
	if a.cfg.DevMode || a.cfg.LogFile == "" {
		logging.Setup(a.cfg.DevMode, stderr)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(a.cfg.LogFile), 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(a.cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	logging.Setup(false, f)
	a.closers = append(a.closers, closer{"log file", f})
	return nil
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		closeQuietly(a.closers[i].c, a.closers[i].what)
	}
	a.closers = nil
}

// openStore opens the configured backend. The returned closer is nil when
// there is nothing to release.
func openStore(ctx context.Context, cfg config.Config) (kv.Store, io.Closer, error) {
	switch cfg.Backend {
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			closeQuietly(client, "redis")
			return nil, nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Redis.Addr, err)
		}
		return kv.NewRedis(client), client, nil
	case config.BackendMemory:
		return kv.NewMemory(), nil, nil
	default:
		database, err := db.Open(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		return kv.NewSQLite(database), database, nil
	}
}

func newMailer(cfg config.Config) notify.Mailer {
	switch cfg.MailMode {
	case config.MailSMTP:
		return notify.SMTPMailer{Config: cfg.SMTP}
	case config.MailAMQP:
		return notify.NewAMQPMailer(cfg.AMQPURL)
	}
	return notify.LogMailer{}
}

// newNotifier prints user-facing messages to w in text mode. JSON output
// keeps them in the log so stdout stays parseable.
func newNotifier(w io.Writer) notify.Notifier {
	if isJSON() {
		return notify.Log{}
	}
	return notify.Func(func(_ context.Context, level notify.Level, msg string) {
		switch level {
		case notify.LevelSuccess:
			fmt.Fprintf(w, "✓ %s\n", msg)
		case notify.LevelError:
			fmt.Fprintf(w, "✗ %s\n", msg)
		default:
			fmt.Fprintln(w, msg)
		}
	})
}
