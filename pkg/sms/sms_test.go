package sms_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/sms"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*sns.PublishOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestSendSMSParams_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		params  sms.SendSMSParams
		wantErr bool
	}{
		{"valid", sms.SendSMSParams{To: "+1 (555) 123-4567", Message: "hi"}, false},
		{"missing plus", sms.SendSMSParams{To: "5551234567", Message: "hi"}, true},
		{"too short", sms.SendSMSParams{To: "+123", Message: "hi"}, true},
		{"empty message", sms.SendSMSParams{To: "+15551234567", Message: "   "}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.params.Normalize().Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, sms.ErrInvalidParams)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewSNSSender_RequiresRegion(t *testing.T) {
	t.Parallel()
	_, err := sms.NewSNSSender(context.Background(), sms.Config{})
	assert.ErrorIs(t, err, sms.ErrInvalidConfig)
}

func TestSNSSender_SendSMS(t *testing.T) {
	t.Parallel()

	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(in *sns.PublishInput) bool {
		return aws.ToString(in.PhoneNumber) == "+15551234567" &&
			aws.ToString(in.Message) == "hello" &&
			aws.ToString(in.MessageAttributes["AWS.SNS.SMS.SMSType"].StringValue) == "Transactional"
	})).Return(&sns.PublishOutput{MessageId: aws.String("m-1")}, nil).Once()

	sender, err := sms.NewSNSSender(context.Background(),
		sms.Config{Region: "us-east-1", SMSType: "Transactional", SenderID: "Meridian", MaxChars: 480},
		sms.WithSNSClient(pub))
	require.NoError(t, err)

	require.NoError(t, sender.SendSMS(context.Background(), sms.SendSMSParams{To: "+1 555 123 4567", Message: " hello "}))
	pub.AssertExpectations(t)
}

func TestSNSSender_SendSMS_Truncates(t *testing.T) {
	t.Parallel()

	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(in *sns.PublishInput) bool {
		return aws.ToString(in.Message) == "abcde"
	})).Return(&sns.PublishOutput{}, nil).Once()

	sender, err := sms.NewSNSSender(context.Background(), sms.Config{Region: "us-east-1", MaxChars: 5}, sms.WithSNSClient(pub))
	require.NoError(t, err)
	require.NoError(t, sender.SendSMS(context.Background(), sms.SendSMSParams{To: "+15551234567", Message: "abcdefgh"}))
	pub.AssertExpectations(t)
}

func TestSNSSender_SendSMS_PublishError(t *testing.T) {
	t.Parallel()

	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil, errors.New("throttled")).Once()

	sender, err := sms.NewSNSSender(context.Background(), sms.Config{Region: "us-east-1"}, sms.WithSNSClient(pub))
	require.NoError(t, err)

	err = sender.SendSMS(context.Background(), sms.SendSMSParams{To: "+15551234567", Message: "hi"})
	assert.ErrorIs(t, err, sms.ErrFailedToSendSMS)
	assert.Contains(t, err.Error(), "throttled")

	err = sender.SendSMS(context.Background(), sms.SendSMSParams{To: "bad", Message: "hi"})
	assert.ErrorIs(t, err, sms.ErrInvalidParams)
	pub.AssertNumberOfCalls(t, "Publish", 1)
}

func TestLogSender(t *testing.T) {
	t.Parallel()

	sender := sms.NewLogSender(nil)
	assert.NoError(t, sender.SendSMS(context.Background(), sms.SendSMSParams{To: "+15551234567", Message: "hi"}))
	assert.ErrorIs(t, sender.SendSMS(context.Background(), sms.SendSMSParams{To: "", Message: "hi"}), sms.ErrInvalidParams)
}
