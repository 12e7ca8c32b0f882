package sms

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	input *sns.PublishInput
	err   error
}

func (f *fakePublisher) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("m-1")}, nil
}

func TestAWSSNSProviderSendSMS(t *testing.T) {
	pub := &fakePublisher{}
	p := &AWSSNSProvider{client: pub, senderID: "DISPATCH"}

	resp, err := p.SendSMS(context.Background(), &SMSRequest{To: "+911234567890", Message: "Accident reported"})
	require.NoError(t, err)
	assert.Equal(t, "m-1", resp.MessageID)
	assert.Equal(t, "sent", resp.Status)

	require.NotNil(t, pub.input)
	assert.Equal(t, "Accident reported", aws.ToString(pub.input.Message))
	assert.Equal(t, "+911234567890", aws.ToString(pub.input.PhoneNumber))
	assert.Equal(t, "Transactional", aws.ToString(pub.input.MessageAttributes["AWS.SNS.SMS.SMSType"].StringValue))
	assert.Equal(t, "DISPATCH", aws.ToString(pub.input.MessageAttributes["AWS.SNS.SMS.SenderID"].StringValue))
}

func TestAWSSNSProviderSendSMSError(t *testing.T) {
	p := &AWSSNSProvider{client: &fakePublisher{err: errors.New("throttled")}}

	resp, err := p.SendSMS(context.Background(), &SMSRequest{To: "+1", Message: "x"})
	require.Error(t, err)
	assert.Equal(t, "failed", resp.Status)
	assert.Equal(t, "throttled", resp.Error)
}
