package di

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"marketplace-backend/infrastructure/config"
	"marketplace-backend/infrastructure/gateway"
	"marketplace-backend/infrastructure/messaging/eventbridge"
	"marketplace-backend/infrastructure/messaging/logsink"
	"marketplace-backend/infrastructure/messaging/sqs"
	"marketplace-backend/infrastructure/persistence/dynamodb"
	"marketplace-backend/infrastructure/persistence/memory"
	"marketplace-backend/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func localConfig() *config.Config {
	return &config.Config{
		Environment:      "development",
		StorageBackend:   config.StorageBackendMemory,
		AWSRegion:        "us-east-1",
		EncryptionMode:   config.EncryptionModeLocal,
		CipherSecretKey:  "di-secret-key",
		CipherSecretIV:   "di-secret-iv",
		JWTSecret:        "di-jwt-secret",
		JWTIssuer:        "marketplace-test",
		JWTTTLMinutes:    5,
		LogLevel:         "error",
		EnableMetrics:    true,
		EnableCORS:       true,
		MetricsNamespace: "di_test",
	}
}

func TestInitializeContainer_Local(t *testing.T) {
	c, err := InitializeContainer(context.Background(), localConfig())
	require.NoError(t, err)

	assert.IsType(t, &memory.RecordStore{}, c.Store)
	assert.IsType(t, &gateway.LocalGateway{}, c.Gateway)
	assert.IsType(t, &logsink.Sink{}, c.Queue)
	assert.IsType(t, &logsink.Sink{}, c.EventBus)
	require.NotNil(t, c.Telemetry.Collector)
	assert.NoError(t, c.FlushMetrics(context.Background()))

	token, err := c.Tokens.Issue("u1")
	require.NoError(t, err)

	mux := SetupRouter(c)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cards",
		strings.NewReader(`{"id":"c1","title":"Foo","userId":"u1","status":"ACTIVE"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Len(t, c.Sink.Messages(), 2)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "di_test")
}

func TestInitializeContainer_MissingCipherSecrets(t *testing.T) {
	cfg := localConfig()
	cfg.CipherSecretIV = ""

	_, err := InitializeContainer(context.Background(), cfg)
	assert.Error(t, err)
}

func TestProvideLogLevel_RejectsUnknownLevel(t *testing.T) {
	cfg := localConfig()
	cfg.LogLevel = "chatty"

	_, err := ProvideLogLevel(cfg)
	assert.Error(t, err)
}

func TestProvideTelemetry(t *testing.T) {
	logger := zap.NewNop()

	cfg := localConfig()
	cfg.EnableMetrics = false
	tel := ProvideTelemetry(cfg, aws.Config{}, logger)
	assert.IsType(t, observability.NopRecorder{}, tel.Recorder)

	cfg.EnableMetrics = true
	cfg.IsLambda = true
	tel = ProvideTelemetry(cfg, aws.Config{Region: "us-east-1"}, logger)
	assert.NotNil(t, tel.CloudWatch)
	assert.Nil(t, tel.Collector)
}

func TestProvideAWSBackends(t *testing.T) {
	logger := zap.NewNop()
	awsCfg := aws.Config{Region: "us-east-1"}

	cfg := localConfig()
	cfg.StorageBackend = config.StorageBackendDynamoDB
	cfg.EncryptionMode = config.EncryptionModeLambda
	cfg.TableName = "marketplace"
	cfg.QueueURL = "https://sqs.us-east-1.amazonaws.com/123/marketplace"
	cfg.EventBusName = "marketplace"
	cfg.EncryptFunctionName = "encrypt"
	cfg.DecryptFunctionName = "decrypt"

	assert.IsType(t, &dynamodb.RecordStore{}, ProvideRecordStore(cfg, awsCfg, logger))

	gw, err := ProvideGateway(context.Background(), cfg, awsCfg, ProvideTracer(cfg), observability.NopRecorder{}, logger)
	require.NoError(t, err)
	assert.IsType(t, &gateway.Breaker{}, gw)

	sink := ProvideLogSink(logger)
	assert.IsType(t, &sqs.Queue{}, ProvideQueue(cfg, awsCfg, sink, logger))
	assert.IsType(t, &eventbridge.Publisher{}, ProvideEventBus(cfg, awsCfg, sink, logger))
}
