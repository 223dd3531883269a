package sms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/sanitizer"
)

type snsPublisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSSender publishes text messages with Amazon SNS.
type SNSSender struct {
	client snsPublisher
	config Config
	logger *slog.Logger
}

// SNSOption configures an SNSSender.
type SNSOption func(*SNSSender)

// WithSNSLogger sets the logger.
func WithSNSLogger(log *slog.Logger) SNSOption {
	return func(s *SNSSender) {
		if log != nil {
			s.logger = log
		}
	}
}

// WithSNSClient replaces the SNS client, typically with a fake in tests.
func WithSNSClient(client snsPublisher) SNSOption {
	return func(s *SNSSender) {
		s.client = client
	}
}

// NewSNSSender loads the default AWS credential chain for cfg.Region.
func NewSNSSender(ctx context.Context, cfg Config, opts ...SNSOption) (*SNSSender, error) {
	if cfg.Region == "" {
		return nil, fmt.Errorf("%w: region is required", ErrInvalidConfig)
	}
	s := &SNSSender{config: cfg, logger: logger.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, errors.Join(ErrInvalidConfig, err)
		}
		s.client = sns.NewFromConfig(awsCfg)
	}
	return s, nil
}

// SendSMS publishes to the phone number. Messages longer than
// Config.MaxChars are truncated.
func (s *SNSSender) SendSMS(ctx context.Context, params SendSMSParams) error {
	params = params.Normalize()
	if err := params.Validate(); err != nil {
		return err
	}
	message := sanitizer.Truncate(params.Message, s.config.MaxChars, "")

	attrs := map[string]types.MessageAttributeValue{}
	if s.config.SMSType != "" {
		attrs["AWS.SNS.SMS.SMSType"] = types.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(s.config.SMSType),
		}
	}
	if s.config.SenderID != "" {
		attrs["AWS.SNS.SMS.SenderID"] = types.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(s.config.SenderID),
		}
	}

	out, err := s.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber:       aws.String(params.To),
		Message:           aws.String(message),
		MessageAttributes: attrs,
	})
	if err != nil {
		return errors.Join(ErrFailedToSendSMS, err)
	}

	s.logger.LogAttrs(ctx, slog.LevelDebug, "sms published",
		slog.String("to", sanitizer.MaskPhone(params.To)),
		slog.String("message_id", aws.ToString(out.MessageId)),
	)
	return nil
}
