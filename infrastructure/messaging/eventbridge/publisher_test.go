package eventbridge

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockEventBridge struct {
	mock.Mock
}

func (m *mockEventBridge) PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, _ ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*eventbridge.PutEventsOutput)
	return out, args.Error(1)
}

func TestPublisher_Publish(t *testing.T) {
	client := new(mockEventBridge)
	client.On("PutEvents", mock.Anything, mock.MatchedBy(func(in *eventbridge.PutEventsInput) bool {
		if len(in.Entries) != 1 {
			return false
		}
		e := in.Entries[0]
		return aws.ToString(e.EventBusName) == "bus" &&
			aws.ToString(e.Source) == "marketplace.api" &&
			aws.ToString(e.DetailType) == "ListingCreated" &&
			aws.ToString(e.Detail) == `{"PK":"LISTING#x"}`
	})).Return(&eventbridge.PutEventsOutput{}, nil)

	p := NewPublisher(client, "bus", "marketplace.api", zap.NewNop())
	require.NoError(t, p.Publish(context.Background(), "ListingCreated", map[string]any{"PK": "LISTING#x"}))
	client.AssertExpectations(t)
}

func TestPublisher_FailedEntry(t *testing.T) {
	client := new(mockEventBridge)
	client.On("PutEvents", mock.Anything, mock.Anything).Return(&eventbridge.PutEventsOutput{
		FailedEntryCount: 1,
		Entries:          []types.PutEventsResultEntry{{ErrorCode: aws.String("InternalFailure"), ErrorMessage: aws.String("try later")}},
	}, nil)

	err := NewPublisher(client, "bus", "src", zap.NewNop()).Publish(context.Background(), "X", map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "InternalFailure")
}

func TestPublisher_CallError(t *testing.T) {
	client := new(mockEventBridge)
	client.On("PutEvents", mock.Anything, mock.Anything).Return(nil, errors.New("no such bus"))

	err := NewPublisher(client, "bus", "src", zap.NewNop()).Publish(context.Background(), "X", map[string]any{})
	assert.ErrorContains(t, err, "no such bus")
}
