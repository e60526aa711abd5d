package mail

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueue struct {
	urls    []string
	listErr error
	sendErr error
	sent    []*sqs.SendMessageInput
}

func (f *fakeQueue) ListQueues(ctx context.Context, in *sqs.ListQueuesInput, _ ...func(*sqs.Options)) (*sqs.ListQueuesOutput, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return &sqs.ListQueuesOutput{QueueUrls: f.urls}, nil
}

func (f *fakeQueue) SendMessage(ctx context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.sent = append(f.sent, in)
	return &sqs.SendMessageOutput{}, f.sendErr
}

func withQueue(t *testing.T, q *fakeQueue) {
	t.Helper()
	orig := newSQSClient
	newSQSClient = func(ctx context.Context, endpoint string) (queueAPI, error) { return q, nil }
	t.Cleanup(func() { newSQSClient = orig })
}

func TestNewSQSSender_ResolvesQueue(t *testing.T) {
	q := &fakeQueue{urls: []string{
		"http://localhost:4566/000000000000/mail-dlq",
		"http://localhost:4566/000000000000/mail",
	}}
	withQueue(t, q)

	s, err := NewSQSSender(context.Background(), "http://localhost:4566", "mail")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:4566/000000000000/mail", s.queueURL)
}

func TestNewSQSSender_QueueMissing(t *testing.T) {
	withQueue(t, &fakeQueue{})

	_, err := NewSQSSender(context.Background(), "", "mail")
	assert.EqualError(t, err, "given queue name 'mail' not found in SQS")
}

func TestNewSQSSender_ListError(t *testing.T) {
	withQueue(t, &fakeQueue{listErr: errors.New("denied")})

	_, err := NewSQSSender(context.Background(), "", "mail")
	assert.EqualError(t, err, "denied")
}

func TestSQSSender_Send(t *testing.T) {
	q := &fakeQueue{}
	s := &SQSSender{client: q, queueURL: "q-url"}

	msg := Message{From: "f@x", To: "a@b.c", Subject: "s", Text: "t", HTML: "<b>t</b>"}
	require.NoError(t, s.Send(context.Background(), msg))
	require.Len(t, q.sent, 1)
	assert.Equal(t, "q-url", aws.ToString(q.sent[0].QueueUrl))

	var got Message
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(q.sent[0].MessageBody)), &got))
	assert.Equal(t, msg, got)
}

func TestSQSSender_SendError(t *testing.T) {
	s := &SQSSender{client: &fakeQueue{sendErr: errors.New("throttled")}, queueURL: "q"}
	assert.EqualError(t, s.Send(context.Background(), Message{}), "throttled")
}
