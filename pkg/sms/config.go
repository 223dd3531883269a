package sms

// Config holds SNS settings. Region empty means SMS delivery is disabled.
type Config struct {
	Region   string `env:"SMS_AWS_REGION"`
	SenderID string `env:"SMS_SENDER_ID" envDefault:"Meridian"`
	SMSType  string `env:"SMS_TYPE" envDefault:"Transactional"`
	MaxChars int    `env:"SMS_MAX_CHARS" envDefault:"480"`
}

// Enabled reports whether an AWS region is configured.
func (c Config) Enabled() bool {
	return c.Region != ""
}
