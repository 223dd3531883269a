package main

import (
	"time"

	"github.com/dmitrymomot/notifykit/pkg/email"
	"github.com/dmitrymomot/notifykit/pkg/httpserver"
	"github.com/dmitrymomot/notifykit/pkg/mongo"
	"github.com/dmitrymomot/notifykit/pkg/push"
	"github.com/dmitrymomot/notifykit/pkg/ratelimiter"
	"github.com/dmitrymomot/notifykit/pkg/redis"
	"github.com/dmitrymomot/notifykit/pkg/sms"
)

// AppConfig is the whole process configuration, read from the environment
// and an optional .env file.
type AppConfig struct {
	Env       string `env:"APP_ENV" envDefault:"development"`
	Service   string `env:"APP_SERVICE" envDefault:"notifyd"`
	LogLevel  string `env:"LOG_LEVEL"`
	Templates string `env:"TEMPLATES_FILE"`

	UsersCollection string `env:"USERS_COLLECTION" envDefault:"users"`
	OrgsCollection  string `env:"ORGS_COLLECTION" envDefault:"organizations"`
	DeepLinkScheme  string `env:"DEEP_LINK_SCHEME" envDefault:"meridian"`
	ActionBaseURL   string `env:"ACTION_BASE_URL"`

	ChannelTimeout    time.Duration `env:"CHANNEL_TIMEOUT" envDefault:"10s"`
	SchedulerInterval time.Duration `env:"SCHEDULER_INTERVAL" envDefault:"1m"`
	DueBatchSize      int           `env:"SCHEDULER_BATCH_SIZE" envDefault:"100"`
	RecipientCap      int           `env:"OUTREACH_RECIPIENT_CAP" envDefault:"50000"`
	OperatorRoles     []string      `env:"OPERATOR_ROLES" envDefault:"admin,root,oie" envSeparator:","`

	RedisEnabled  bool          `env:"REDIS_ENABLED" envDefault:"false"`
	GuardTTL      time.Duration `env:"DISPATCH_GUARD_TTL" envDefault:"1m"`
	WebhookSecret string        `env:"WEBHOOK_SIGNING_SECRET"`

	Mongo mongo.Config
	Redis redis.Config
	Email email.Config
	SMS   sms.Config
	Push  push.Config
	HTTP  httpserver.Config

	// ActionLimit throttles notification action execution per caller.
	ActionLimit ratelimiter.Config
}
