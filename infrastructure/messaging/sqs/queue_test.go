package sqs

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockSQS struct {
	mock.Mock
}

func (m *mockSQS) SendMessage(ctx context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*sqs.SendMessageOutput)
	return out, args.Error(1)
}

func TestQueue_Send(t *testing.T) {
	client := new(mockSQS)
	client.On("SendMessage", mock.Anything, mock.MatchedBy(func(in *sqs.SendMessageInput) bool {
		var body map[string]any
		if err := json.Unmarshal([]byte(aws.ToString(in.MessageBody)), &body); err != nil {
			return false
		}
		attr := in.MessageAttributes["action"]
		return aws.ToString(in.QueueUrl) == "https://queue" &&
			body["PK"] == "CARD#x" &&
			aws.ToString(attr.StringValue) == "CardCreated"
	})).Return(&sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil)

	q := NewQueue(client, "https://queue", zap.NewNop())
	err := q.Send(context.Background(), map[string]any{"PK": "CARD#x", "action": "CardCreated"})
	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestQueue_SendError(t *testing.T) {
	client := new(mockSQS)
	client.On("SendMessage", mock.Anything, mock.Anything).Return(nil, errors.New("access denied"))

	err := NewQueue(client, "https://queue", zap.NewNop()).Send(context.Background(), map[string]any{"PK": "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}
