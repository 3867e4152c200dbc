// Package mocks provides testify mocks of the application ports.
package mocks

import (
	"context"
	"time"

	"marketplace-backend/domain/records"

	"github.com/stretchr/testify/mock"
)

// MockGateway is a mock of ports.Gateway.
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) EncryptText(ctx context.Context, plaintext string) (string, error) {
	args := m.Called(ctx, plaintext)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) EncryptFields(ctx context.Context, fields map[string]string) (map[string]string, error) {
	args := m.Called(ctx, fields)
	if out := args.Get(0); out != nil {
		return out.(map[string]string), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGateway) DecryptText(ctx context.Context, ciphertext string) (string, error) {
	args := m.Called(ctx, ciphertext)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) DecryptFields(ctx context.Context, fields map[string]string) (map[string]string, error) {
	args := m.Called(ctx, fields)
	if out := args.Get(0); out != nil {
		return out.(map[string]string), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockRecordStore is a mock of ports.RecordStore.
type MockRecordStore struct {
	mock.Mock
}

func (m *MockRecordStore) Get(ctx context.Context, key records.KeyPair) (records.Record, bool, error) {
	args := m.Called(ctx, key)
	rec, _ := args.Get(0).(records.Record)
	return rec, args.Bool(1), args.Error(2)
}

func (m *MockRecordStore) Put(ctx context.Context, rec records.Record, cond records.Condition) error {
	args := m.Called(ctx, rec, cond)
	return args.Error(0)
}

func (m *MockRecordStore) Update(ctx context.Context, upd records.Update) (records.Record, error) {
	args := m.Called(ctx, upd)
	rec, _ := args.Get(0).(records.Record)
	return rec, args.Error(1)
}

func (m *MockRecordStore) Delete(ctx context.Context, key records.KeyPair, cond records.Condition) error {
	args := m.Called(ctx, key, cond)
	return args.Error(0)
}

func (m *MockRecordStore) Query(ctx context.Context, q records.Query) ([]records.Record, error) {
	args := m.Called(ctx, q)
	recs, _ := args.Get(0).([]records.Record)
	return recs, args.Error(1)
}

func (m *MockRecordStore) Scan(ctx context.Context, filter map[string]any) ([]records.Record, error) {
	args := m.Called(ctx, filter)
	recs, _ := args.Get(0).([]records.Record)
	return recs, args.Error(1)
}

func (m *MockRecordStore) TransactWrite(ctx context.Context, items []records.TransactItem) error {
	args := m.Called(ctx, items)
	return args.Error(0)
}

// MockQueue is a mock of ports.Queue.
type MockQueue struct {
	mock.Mock
}

func (m *MockQueue) Send(ctx context.Context, payload map[string]any) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

// MockEventBus is a mock of ports.EventBus.
type MockEventBus struct {
	mock.Mock
}

func (m *MockEventBus) Publish(ctx context.Context, detailType string, payload map[string]any) error {
	args := m.Called(ctx, detailType, payload)
	return args.Error(0)
}

// MockMetrics is a mock of ports.Metrics.
type MockMetrics struct {
	mock.Mock
}

func (m *MockMetrics) RecordOperation(operation, outcome string, duration time.Duration) {
	m.Called(operation, outcome, duration)
}

func (m *MockMetrics) RecordGatewayCall(direction, outcome string) {
	m.Called(direction, outcome)
}

func (m *MockMetrics) RecordNotification(channel, outcome string) {
	m.Called(channel, outcome)
}
