package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// maxDatumsPerCall is the PutMetricData request limit.
const maxDatumsPerCall = 1000

// PutMetricDataAPI is the subset of the CloudWatch client the recorder needs.
type PutMetricDataAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

var _ PutMetricDataAPI = (*cloudwatch.Client)(nil)

// CloudWatchRecorder buffers datums for the lifetime of a Lambda invocation.
// Flush must be called before the invocation returns.
type CloudWatchRecorder struct {
	mu        sync.Mutex
	client    PutMetricDataAPI
	namespace string
	logger    *zap.Logger
	now       func() time.Time
	data      []cwtypes.MetricDatum
}

// NewCloudWatchRecorder creates a recorder that publishes into namespace.
func NewCloudWatchRecorder(client PutMetricDataAPI, namespace string, logger *zap.Logger) *CloudWatchRecorder {
	return &CloudWatchRecorder{
		client:    client,
		namespace: namespace,
		logger:    logger,
		now:       time.Now,
	}
}

func (r *CloudWatchRecorder) RecordOperation(operation, outcome string, duration time.Duration) {
	r.add(
		r.datum("OperationCount", cwtypes.StandardUnitCount, 1, "Operation", operation, "Outcome", outcome),
		r.datum("OperationLatency", cwtypes.StandardUnitMilliseconds, float64(duration.Milliseconds()), "Operation", operation),
	)
}

func (r *CloudWatchRecorder) RecordGatewayCall(direction, outcome string) {
	r.add(r.datum("GatewayCalls", cwtypes.StandardUnitCount, 1, "Direction", direction, "Outcome", outcome))
}

func (r *CloudWatchRecorder) RecordNotification(channel, outcome string) {
	r.add(r.datum("Notifications", cwtypes.StandardUnitCount, 1, "Channel", channel, "Outcome", outcome))
}

// Pending reports the number of buffered datums.
func (r *CloudWatchRecorder) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.data)
}

// Flush publishes all buffered datums. The buffer is cleared even when the
// publish fails so a broken endpoint cannot grow it without bound.
func (r *CloudWatchRecorder) Flush(ctx context.Context) error {
	r.mu.Lock()
	data := r.data
	r.data = nil
	r.mu.Unlock()

	for start := 0; start < len(data); start += maxDatumsPerCall {
		end := start + maxDatumsPerCall
		if end > len(data) {
			end = len(data)
		}

		_, err := r.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(r.namespace),
			MetricData: data[start:end],
		})
		if err != nil {
			r.logger.Warn("Failed to publish metrics",
				zap.Error(err),
				zap.Int("datums", end-start),
			)
			return fmt.Errorf("failed to put metric data: %w", err)
		}
	}

	return nil
}

func (r *CloudWatchRecorder) add(datums ...cwtypes.MetricDatum) {
	r.mu.Lock()
	r.data = append(r.data, datums...)
	r.mu.Unlock()
}

func (r *CloudWatchRecorder) datum(name string, unit cwtypes.StandardUnit, value float64, dims ...string) cwtypes.MetricDatum {
	dimensions := make([]cwtypes.Dimension, 0, len(dims)/2)
	for i := 0; i+1 < len(dims); i += 2 {
		dimensions = append(dimensions, cwtypes.Dimension{
			Name:  aws.String(dims[i]),
			Value: aws.String(dims[i+1]),
		})
	}

	return cwtypes.MetricDatum{
		MetricName: aws.String(name),
		Dimensions: dimensions,
		Unit:       unit,
		Value:      aws.Float64(value),
		Timestamp:  aws.Time(r.now()),
	}
}
