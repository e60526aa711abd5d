package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type queueAPI interface {
	ListQueues(ctx context.Context, in *sqs.ListQueuesInput, optFns ...func(*sqs.Options)) (*sqs.ListQueuesOutput, error)
	SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

var newSQSClient = func(ctx context.Context, endpoint string) (queueAPI, error) {
	if endpoint != "" {
		// Local queue emulators accept any static credentials.
		cfg, err := config.LoadDefaultConfig(ctx,
			config.WithRegion("us-east-1"),
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("dummy", "dummy", "")),
		)
		if err != nil {
			return nil, err
		}
		return sqs.NewFromConfig(cfg, func(o *sqs.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		}), nil
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	return sqs.NewFromConfig(cfg), nil
}

// SQSSender enqueues JSON-encoded messages for an outbound mail relay.
type SQSSender struct {
	client   queueAPI
	queueURL string
}

// NewSQSSender resolves queueName to its URL. An empty endpoint uses AWS.
func NewSQSSender(ctx context.Context, endpoint, queueName string) (*SQSSender, error) {
	client, err := newSQSClient(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	out, err := client.ListQueues(ctx, &sqs.ListQueuesInput{QueueNamePrefix: aws.String(queueName)})
	if err != nil {
		return nil, err
	}

	for _, q := range out.QueueUrls {
		if strings.HasSuffix(q, "/"+queueName) {
			return &SQSSender{client: client, queueURL: q}, nil
		}
	}

	return nil, fmt.Errorf("given queue name '%s' not found in SQS", queueName)
}

func (s *SQSSender) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	_, err = s.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueURL),
		MessageBody: aws.String(string(body)),
	})
	return err
}
