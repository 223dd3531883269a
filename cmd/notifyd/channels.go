package main

import (
	"context"
	"log/slog"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/dmitrymomot/notifykit/pkg/email"
	"github.com/dmitrymomot/notifykit/pkg/notifications"
	"github.com/dmitrymomot/notifykit/pkg/push"
	"github.com/dmitrymomot/notifykit/pkg/sms"
	"github.com/dmitrymomot/notifykit/pkg/webhook"
)

// deliverers builds the channel transports. Email falls back to the file
// based dev sender without Postmark credentials; SMS falls back to logging
// without an AWS region.
func deliverers(ctx context.Context, cfg AppConfig, db *mongo.Database, log *slog.Logger) ([]notifications.DispatcherOption, error) {
	contacts := notifications.NewContactDirectory(
		notifications.WithContactResolver("User",
			notifications.NewMongoContactResolver(db.Collection(cfg.UsersCollection), notifications.DefaultContactFields)),
		notifications.WithContactDirectoryLogger(log),
	)
	nav := notifications.NewNavigationBuilder(cfg.DeepLinkScheme)
	dopts := []notifications.DelivererOption{notifications.WithDelivererLogger(log)}

	var mailer email.EmailSender
	if cfg.Email.Enabled() {
		m, err := email.NewPostmarkClient(cfg.Email)
		if err != nil {
			return nil, err
		}
		mailer = m
	} else {
		log.Warn("postmark is not configured, writing emails to disk",
			slog.String("dir", cfg.Email.DevOutputDir))
		mailer = email.NewDevSender(cfg.Email.DevOutputDir)
	}

	var texter sms.Sender
	if cfg.SMS.Enabled() {
		s, err := sms.NewSNSSender(ctx, cfg.SMS, sms.WithSNSLogger(log))
		if err != nil {
			return nil, err
		}
		texter = s
	} else {
		log.Warn("sms region is not configured, logging text messages instead")
		texter = sms.NewLogSender(log)
	}

	hookOpts := []webhook.Option{webhook.WithWebhookLogger(log)}
	if cfg.WebhookSecret != "" {
		hookOpts = append(hookOpts, webhook.WithSigningSecret(cfg.WebhookSecret))
	}

	log.Debug("channel transports ready",
		slog.Bool("postmark", cfg.Email.Enabled()),
		slog.Bool("sns", cfg.SMS.Enabled()),
	)

	return []notifications.DispatcherOption{
		notifications.WithDeliverer(notifications.ChannelEmail, notifications.NewEmailDeliverer(mailer, contacts, dopts...)),
		notifications.WithDeliverer(notifications.ChannelSMS, notifications.NewSMSDeliverer(texter, contacts, dopts...)),
		notifications.WithDeliverer(notifications.ChannelPush, notifications.NewPushDeliverer(
			push.NewExpoClient(cfg.Push, push.WithExpoLogger(log)), contacts, nav, dopts...)),
		notifications.WithDeliverer(notifications.ChannelWebhook, notifications.NewWebhookDeliverer(
			webhook.NewSender(hookOpts...), contacts, nav, dopts...)),
	}, nil
}
