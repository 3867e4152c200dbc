package ports

import (
	"context"
	"time"

	"marketplace-backend/domain/records"
)

// Encrypter turns plaintext into deterministic ciphertext. Implementations
// pass empty values through unchanged.
type Encrypter interface {
	EncryptText(ctx context.Context, plaintext string) (string, error)
	// EncryptFields encrypts a whole batch in a single round trip.
	EncryptFields(ctx context.Context, fields map[string]string) (map[string]string, error)
}

// Decrypter reverses Encrypter.
type Decrypter interface {
	DecryptText(ctx context.Context, ciphertext string) (string, error)
	DecryptFields(ctx context.Context, fields map[string]string) (map[string]string, error)
}

// Gateway is the encryption indirection. Handlers never see key material.
type Gateway interface {
	Encrypter
	Decrypter
}

// RecordStore is the single table every entity is stored in. Conditional
// failures are reported as records.ErrConditionFailed.
type RecordStore interface {
	// Get returns found=false when no item exists under key.
	Get(ctx context.Context, key records.KeyPair) (rec records.Record, found bool, err error)
	Put(ctx context.Context, rec records.Record, cond records.Condition) error
	// Update applies the SET clauses and returns the item as stored afterwards.
	Update(ctx context.Context, upd records.Update) (records.Record, error)
	Delete(ctx context.Context, key records.KeyPair, cond records.Condition) error
	Query(ctx context.Context, q records.Query) ([]records.Record, error)
	// Scan reads the whole table keeping items whose attributes equal filter.
	Scan(ctx context.Context, filter map[string]any) ([]records.Record, error)
	TransactWrite(ctx context.Context, items []records.TransactItem) error
}

// Queue is the downstream work queue.
type Queue interface {
	Send(ctx context.Context, payload map[string]any) error
}

// EventBus is the domain event bus. Source and bus name are fixed by the
// implementation.
type EventBus interface {
	Publish(ctx context.Context, detailType string, payload map[string]any) error
}

// Metrics receives operation, gateway and notification counters.
type Metrics interface {
	RecordOperation(operation, outcome string, duration time.Duration)
	RecordGatewayCall(direction, outcome string)
	RecordNotification(channel, outcome string)
}
