package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/realty-crm/pkg/logging"
)

type fakeSQS struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (f *fakeSQS) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSQSPublisherSendsJSON(t *testing.T) {
	client := &fakeSQS{}
	pub := NewSQSPublisher(client, "https://sqs.local/activity")
	evt := ClientActivityV1{
		EventID:    "evt-1",
		Type:       ClientNoteAdded,
		ClientID:   "client-1",
		ActorID:    "agent-x",
		OccurredAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	require.NoError(t, pub.Publish(context.Background(), evt))
	require.Len(t, client.inputs, 1)
	assert.Equal(t, "https://sqs.local/activity", aws.ToString(client.inputs[0].QueueUrl))
	assert.Equal(t, ClientNoteAdded, aws.ToString(client.inputs[0].MessageAttributes["event_type"].StringValue))

	var decoded ClientActivityV1
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(client.inputs[0].MessageBody)), &decoded))
	assert.Equal(t, evt, decoded)
}

func TestSQSPublisherWrapsError(t *testing.T) {
	boom := errors.New("throttled")
	pub := NewSQSPublisher(&fakeSQS{err: boom}, "https://sqs.local/activity")
	err := pub.Publish(context.Background(), ClientActivityV1{Type: ClientDeleted})
	assert.ErrorIs(t, err, boom)
}

func TestNewSQSPublisherPanicsWithoutQueue(t *testing.T) {
	assert.Panics(t, func() { NewSQSPublisher(&fakeSQS{}, "") })
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	pub := NewLogPublisher(logging.NewWithWriter("info", &buf))
	require.NoError(t, pub.Publish(context.Background(), ClientActivityV1{EventID: "evt-2", Type: ClientCreated, ClientID: "c-1"}))
	assert.Contains(t, buf.String(), `"type":"client.created"`)
	assert.Contains(t, buf.String(), `"client_id":"c-1"`)
}
