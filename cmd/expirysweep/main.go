// Command expirysweep notifies members whose membership ends soon. It is
// meant to run once a day from cron; re-running on the same day sends nothing new.
package main

import (
	"alcyxob/gym-membership/internal/config"
	"alcyxob/gym-membership/internal/email"
	"alcyxob/gym-membership/internal/repository/mongo"
	"alcyxob/gym-membership/internal/service"
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/pflag"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("FATAL: %v", err)
	}
}

func run() error {
	var configPath string
	var days int
	var timeout time.Duration

	flagSet := pflag.NewFlagSet("expirysweep", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", ".", "directory containing config.yaml and an optional .env")
	flagSet.IntVar(&days, "days", 0, "look this many days ahead (default notifications.expiry_reminder_days)")
	flagSet.DurationVar(&timeout, "timeout", 2*time.Minute, "overall time limit for the sweep")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if args := flagSet.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("could not load config: %w", err)
	}
	if days == 0 {
		days = cfg.Notifications.ExpiryReminderDays
	}

	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		return fmt.Errorf("could not connect to MongoDB: %w", err)
	}
	defer func() {
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)

	var mailer email.Sender
	if cfg.Email.ResendAPIKey != "" {
		mailer = email.NewResendSender(cfg.Email.ResendAPIKey, cfg.Email.From)
	}
	notifications := service.NewNotificationService(
		mongo.NewMongoNotificationRepository(appDB),
		mongo.NewMongoUserRepository(appDB),
		mailer,
	)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	sent, err := notifications.SendExpiryReminders(ctx, time.Now(), days)
	if err != nil {
		return err
	}
	log.Printf("INFO: Expiry sweep (%d days ahead) sent %d reminder(s)", days, sent)
	return nil
}
