package publishers

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

type fakeSNSClient struct {
	input *sns.PublishInput
	err   error
}

func (f *fakeSNSClient) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("sns-1")}, nil
}

func TestSNSPublisherPublishSuccess(t *testing.T) {
	client := &fakeSNSClient{}
	pub := newAWSPublisher("topic", TypeSNS, snsSender{client: client, topicARN: "arn:aws:sns:us-east-1:123456789012:iss"}, nil)

	if err := pub.Publish(context.Background(), NewEvent(KindISSPosition, "iss-now", nil)); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if client.input == nil {
		t.Fatalf("client was not called")
	}
	if got := aws.ToString(client.input.TopicArn); got != "arn:aws:sns:us-east-1:123456789012:iss" {
		t.Fatalf("TopicArn = %s", got)
	}
	if attr := client.input.MessageAttributes["kind"]; aws.ToString(attr.StringValue) != "iss_position" {
		t.Fatalf("kind attribute = %#v", attr)
	}
	if _, ok := client.input.MessageAttributes["location_id"]; ok {
		t.Fatalf("location_id should be absent for events without a location")
	}
	if msg := aws.ToString(client.input.Message); !strings.Contains(msg, `"source":"iss-now"`) {
		t.Fatalf("Message missing source: %s", msg)
	}
}

func TestSNSSenderReturnsMessageID(t *testing.T) {
	id, err := snsSender{client: &fakeSNSClient{}, topicARN: "arn"}.send(context.Background(), "{}", nil)
	if err != nil || id != "sns-1" {
		t.Fatalf("send = %q, %v", id, err)
	}
}

func TestSNSPublisherPublishError(t *testing.T) {
	pub := newAWSPublisher("topic", TypeSNS, snsSender{client: &fakeSNSClient{err: errors.New("throttled")}, topicARN: "arn"}, nil)
	err := pub.Publish(context.Background(), NewEvent(KindAstros, "astros", nil))
	if err == nil || !strings.Contains(err.Error(), "throttled") {
		t.Fatalf("expected wrapped client error, got %v", err)
	}
}
