package di

import (
	"context"
	"fmt"
	"time"

	"marketplace-backend/application/ports"
	"marketplace-backend/domain/records"
	"marketplace-backend/infrastructure/config"
	"marketplace-backend/infrastructure/gateway"
	"marketplace-backend/infrastructure/messaging/eventbridge"
	"marketplace-backend/infrastructure/messaging/logsink"
	"marketplace-backend/infrastructure/messaging/sqs"
	"marketplace-backend/infrastructure/persistence/dynamodb"
	"marketplace-backend/infrastructure/persistence/memory"
	"marketplace-backend/infrastructure/secrets"
	"marketplace-backend/pkg/auth"
	"marketplace-backend/pkg/cipher"
	"marketplace-backend/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	awslambda "github.com/aws/aws-sdk-go-v2/service/lambda"
	awssecretsmanager "github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-xray-sdk-go/instrumentation/awsv2"
	"go.uber.org/zap"
)

const serviceName = "marketplace-backend"

// Telemetry holds the metrics recorder and whichever concrete backend sits
// behind it. Collector is set for the local server, CloudWatch inside Lambda.
type Telemetry struct {
	Recorder   ports.Metrics
	Collector  *observability.Collector
	CloudWatch *observability.CloudWatchRecorder
}

// ProvideLogLevel parses LOG_LEVEL into a level that can be changed while
// the process runs.
func ProvideLogLevel(cfg *config.Config) (zap.AtomicLevel, error) {
	if cfg.LogLevel == "" {
		if cfg.IsProduction() {
			return zap.NewAtomicLevelAt(zap.InfoLevel), nil
		}
		return zap.NewAtomicLevelAt(zap.DebugLevel), nil
	}
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return zap.AtomicLevel{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	return level, nil
}

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config, level zap.AtomicLevel) (*zap.Logger, error) {
	zcfg := zap.NewDevelopmentConfig()
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.Level = level

	return zcfg.Build(zap.Fields(zap.String("service", serviceName)))
}

// ProvideAWSConfig creates AWS configuration. With tracing enabled every
// SDK call becomes an X-Ray subsegment.
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	if cfg.EnableTracing {
		awsv2.AWSV2Instrumentor(&awsCfg.APIOptions)
	}
	return awsCfg, nil
}

// ProvideTracer creates the X-Ray tracer.
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	return observability.NewTracer(serviceName, cfg.EnableTracing)
}

// ProvideTelemetry picks the metrics backend.
func ProvideTelemetry(cfg *config.Config, awsCfg aws.Config, logger *zap.Logger) *Telemetry {
	switch {
	case !cfg.EnableMetrics:
		return &Telemetry{Recorder: observability.NopRecorder{}}
	case cfg.IsLambda:
		cw := observability.NewCloudWatchRecorder(awscloudwatch.NewFromConfig(awsCfg), cfg.MetricsNamespace, logger)
		return &Telemetry{Recorder: cw, CloudWatch: cw}
	default:
		collector := observability.NewCollector(cfg.MetricsNamespace)
		return &Telemetry{Recorder: collector, Collector: collector}
	}
}

// ProvideMetrics exposes the chosen recorder to the services.
func ProvideMetrics(t *Telemetry) ports.Metrics {
	return t.Recorder
}

// ProvideFieldCipher creates the in-process cipher. It is only built when
// encryption runs locally or for the gateway functions themselves.
func ProvideFieldCipher(ctx context.Context, cfg *config.Config, awsCfg aws.Config) (*cipher.FieldCipher, error) {
	var client secrets.GetSecretValueAPI
	if cfg.CipherSecretID != "" {
		client = awssecretsmanager.NewFromConfig(awsCfg)
	}

	s, err := secrets.Load(ctx, client, secrets.Source{
		SecretID:  cfg.CipherSecretID,
		SecretKey: cfg.CipherSecretKey,
		SecretIV:  cfg.CipherSecretIV,
	})
	if err != nil {
		return nil, err
	}
	return cipher.New(s.SecretKey, s.SecretIV)
}

// ProvideGateway creates the encryption gateway client. The Lambda client
// is wrapped in a circuit breaker; the local cipher is not.
func ProvideGateway(
	ctx context.Context,
	cfg *config.Config,
	awsCfg aws.Config,
	tracer *observability.Tracer,
	metrics ports.Metrics,
	logger *zap.Logger,
) (ports.Gateway, error) {
	if cfg.UsesLocalGateway() {
		c, err := ProvideFieldCipher(ctx, cfg, awsCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create local gateway: %w", err)
		}
		logger.Info("Using in-process encryption gateway")
		return gateway.NewLocalGateway(c, metrics), nil
	}

	client := gateway.NewLambdaGateway(
		awslambda.NewFromConfig(awsCfg),
		cfg.EncryptFunctionName,
		cfg.DecryptFunctionName,
		tracer,
		metrics,
		logger,
	)
	breaker := gateway.DefaultBreakerConfig()
	breaker.MaxRequests = uint32(cfg.BreakerMaxRequests)
	breaker.Interval = time.Duration(cfg.BreakerIntervalSeconds) * time.Second
	breaker.Timeout = time.Duration(cfg.BreakerTimeoutSeconds) * time.Second
	breaker.ConsecutiveFailures = uint32(cfg.BreakerConsecutiveFailures)
	return gateway.NewBreaker(client, breaker, logger), nil
}

// ProvideRecordStore creates the record store.
func ProvideRecordStore(cfg *config.Config, awsCfg aws.Config, logger *zap.Logger) ports.RecordStore {
	if cfg.UsesMemoryBackend() {
		logger.Warn("Using in-memory record store; data is lost on restart")
		return memory.NewRecordStore()
	}

	return dynamodb.NewRecordStore(awsdynamodb.NewFromConfig(awsCfg), dynamodb.Config{
		TableName: cfg.TableName,
		Indexes: map[records.IndexName]string{
			records.GSI1:              cfg.GSI1IndexName,
			records.StatusIndex:       cfg.StatusIndexName,
			records.ReviewStatusIndex: cfg.ReviewStatusIndexName,
		},
	}, logger)
}

// ProvideLogSink creates the sink that stands in for the queue and the
// event bus on the memory backend.
func ProvideLogSink(logger *zap.Logger) *logsink.Sink {
	return logsink.New(logger)
}

// ProvideQueue creates the notification queue.
func ProvideQueue(cfg *config.Config, awsCfg aws.Config, sink *logsink.Sink, logger *zap.Logger) ports.Queue {
	if cfg.UsesMemoryBackend() {
		return sink
	}
	return sqs.NewQueue(awssqs.NewFromConfig(awsCfg), cfg.QueueURL, logger)
}

// ProvideEventBus creates the event bus publisher.
func ProvideEventBus(cfg *config.Config, awsCfg aws.Config, sink *logsink.Sink, logger *zap.Logger) ports.EventBus {
	if cfg.UsesMemoryBackend() {
		return sink
	}
	return eventbridge.NewPublisher(awseventbridge.NewFromConfig(awsCfg), cfg.EventBusName, cfg.EventSource, logger)
}

// ProvideTokenService creates the session token service.
func ProvideTokenService(cfg *config.Config) (*auth.TokenService, error) {
	return auth.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL())
}
