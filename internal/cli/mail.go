package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/evcraddock/rental-bridge/internal/notify"
)

func newMailCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mail",
		Short: "Outgoing email delivery",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "worker",
		Short: "Deliver queued inquiry emails",
		Long: `Consumes the inquiry email queue on the configured AMQP broker and sends
each message over SMTP. Without SMTP settings messages are only logged.
Runs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMailWorker(cmd)
		},
	})

	return cmd
}

func runMailWorker(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a := &app{cfg: cfg}
	if err := a.setupLogging(cmd.ErrOrStderr()); err != nil {
		return err
	}
	defer a.close()

	var mailer notify.Mailer = notify.LogMailer{}
	if cfg.SMTP.IsConfigured() {
		mailer = notify.SMTPMailer{Config: cfg.SMTP}
	}

	queue := notify.NewAMQPMailer(cfg.AMQPURL)
	w := &notify.MailWorker{URL: queue.URL, Queue: queue.Queue, Mailer: mailer}

	fmt.Fprintf(cmd.ErrOrStderr(), "Delivering mail from queue %s. Press Ctrl+C to stop.\n", w.Queue)
	slog.Info("mail worker started", "queue", w.Queue, "smtp", cfg.SMTP.IsConfigured())

	err = w.Run(cmd.Context())
	if errors.Is(err, context.Canceled) {
		slog.Info("mail worker stopped")
		return nil
	}
	return err
}
