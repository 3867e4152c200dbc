package logsink

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSink_CapturesBothChannels(t *testing.T) {
	s := New(zap.NewNop())
	ctx := context.Background()

	require.NoError(t, s.Send(ctx, map[string]any{"action": "CardCreated", "PK": "CARD#1"}))
	require.NoError(t, s.Publish(ctx, "CardCreated", map[string]any{"PK": "CARD#1"}))

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "queue", msgs[0].Channel)
	assert.Equal(t, "CardCreated", msgs[0].DetailType)
	assert.Equal(t, "events", msgs[1].Channel)
}
