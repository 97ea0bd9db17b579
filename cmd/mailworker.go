/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/larswaechter/aionic-api/config"
	"github.com/larswaechter/aionic-api/internal/mail"
	"github.com/spf13/cobra"
)

// mailworkerCmd represents the mailworker command. It consumes queued
// invitation mails and delivers them via SMTP.
var mailworkerCmd = &cobra.Command{
	Use:   "mailworker",
	Short: "Starts the invitation mail worker",
	Long: `Starts the invitation mail worker. It subscribes to the
user-invitations channel and delivers queued mails. Usage:

	aionic-api mailworker
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var (
			queue mail.Queue
			err   error
		)
		switch cfg.Mail.Backend {
		case "rabbitmq":
			queue, err = mail.NewRabbitMQQueue(cfg.RabbitMQ)
		case "pubsub":
			queue, err = mail.NewPubSubQueue(ctx, cfg.PubSub)
		default:
			return fmt.Errorf("mailworker requires MAIL_BACKEND rabbitmq or pubsub, got %q", cfg.Mail.Backend)
		}
		if err != nil {
			return fmt.Errorf("connect queue: %w", err)
		}
		defer func() {
			_ = queue.Close()
		}()

		worker := mail.NewWorker(queue, cfg.Mail, logger)
		return worker.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mailworkerCmd)
}
