package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"marketplace-backend/application/ports/mocks"
	"marketplace-backend/infrastructure/persistence/memory"
	"marketplace-backend/pkg/cipher"
	"marketplace-backend/pkg/observability"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errGatewayDown = errors.New("gateway unavailable")

// cipherGateway runs the real field cipher in process and counts calls.
type cipherGateway struct {
	c *cipher.FieldCipher

	mu       sync.Mutex
	encrypts int
	failEnc  bool
}

func (g *cipherGateway) EncryptText(ctx context.Context, plaintext string) (string, error) {
	out, err := g.EncryptFields(ctx, map[string]string{"text": plaintext})
	if err != nil {
		return "", err
	}
	return out["text"], nil
}

func (g *cipherGateway) EncryptFields(_ context.Context, fields map[string]string) (map[string]string, error) {
	g.mu.Lock()
	g.encrypts++
	fail := g.failEnc
	g.mu.Unlock()
	if fail {
		return nil, errGatewayDown
	}
	return g.c.EncryptFields(fields)
}

func (g *cipherGateway) DecryptText(_ context.Context, ciphertext string) (string, error) {
	return g.c.Decrypt(ciphertext)
}

func (g *cipherGateway) DecryptFields(_ context.Context, fields map[string]string) (map[string]string, error) {
	return g.c.DecryptFields(fields)
}

func (g *cipherGateway) enc(t *testing.T, plaintext string) string {
	t.Helper()
	out, err := g.c.Encrypt(plaintext)
	require.NoError(t, err)
	return out
}

// staticTokens issues "token-<id>".
type staticTokens struct{}

func (staticTokens) Issue(userID string) (string, error) { return "token-" + userID, nil }

type harness struct {
	gateway *cipherGateway
	store   *memory.RecordStore
	queue   *mocks.MockQueue
	bus     *mocks.MockEventBus
	svc     *Services
	now     time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	c, err := cipher.New("test-secret-key", "test-secret-iv")
	require.NoError(t, err)

	h := &harness{
		gateway: &cipherGateway{c: c},
		store:   memory.NewRecordStore(),
		queue:   new(mocks.MockQueue),
		bus:     new(mocks.MockEventBus),
		now:     time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	logger := zap.NewNop()
	metrics := observability.NopRecorder{}
	notifier := NewNotifier(h.queue, h.bus, metrics, logger)
	p := NewPipeline(h.gateway, h.store, notifier, metrics, logger)
	p.now = func() time.Time { return h.now }

	h.svc = New(p, staticTokens{})
	h.svc.Users.bcryptCost = 4
	return h
}

// accept makes both notification channels succeed.
func (h *harness) accept() {
	h.queue.On("Send", mock.Anything, mock.Anything).Return(nil)
	h.bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)
}

func (h *harness) sends() int {
	n := 0
	for _, c := range h.queue.Calls {
		if c.Method == "Send" {
			n++
		}
	}
	return n
}

func (h *harness) publishes() int {
	n := 0
	for _, c := range h.bus.Calls {
		if c.Method == "Publish" {
			n++
		}
	}
	return n
}
