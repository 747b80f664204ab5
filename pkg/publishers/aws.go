package publishers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// messageSender delivers one JSON body with string attributes to an AWS
// queue or topic and returns the service-assigned message id.
type messageSender interface {
	send(ctx context.Context, body string, attrs map[string]string) (string, error)
}

// awsPublisher is the Publisher shared by the SQS and SNS sinks.
type awsPublisher struct {
	id     string
	typ    string
	sender messageSender
	log    Logger
}

func newAWSPublisher(id, typ string, sender messageSender, log Logger) *awsPublisher {
	return &awsPublisher{id: id, typ: typ, sender: sender, log: ensureLogger(log)}
}

func (p *awsPublisher) ID() string   { return p.id }
func (p *awsPublisher) Type() string { return p.typ }
func (p *awsPublisher) Close() error { return nil }

func (p *awsPublisher) Publish(ctx context.Context, evt Event) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msgID, err := p.sender.send(ctx, string(body), evt.attributes())
	if err != nil {
		p.log.ErrorObj("aws delivery failed", "publisher_"+p.typ+"_error", map[string]any{
			"publisher_id": p.id,
			"event_id":     evt.ID,
			"error":        err.Error(),
		})
		return fmt.Errorf("%s send: %w", p.typ, err)
	}
	p.log.DebugObj("aws delivery succeeded", "publisher_"+p.typ+"_delivery", map[string]any{
		"publisher_id": p.id,
		"event_id":     evt.ID,
		"kind":         evt.Kind,
		"message_id":   msgID,
	})
	return nil
}

// loadAWSConfig resolves region and credentials for the AWS sinks. Static keys
// win over the default chain when both halves are present.
func loadAWSConfig(ctx context.Context, region string, creds *AWSCredentials) (aws.Config, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	opts := []func(*awscfg.LoadOptions) error{awscfg.WithRegion(region)}
	if creds != nil && creds.AccessKeyID != "" && creds.SecretAccessKey != "" {
		opts = append(opts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(creds.AccessKeyID, creds.SecretAccessKey, creds.SessionToken),
		))
	}
	cfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return cfg, nil
}
