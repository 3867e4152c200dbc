// Package di wires the application together from configuration.
package di

import (
	"context"

	"marketplace-backend/application/ports"
	"marketplace-backend/application/services"
	"marketplace-backend/infrastructure/config"
	"marketplace-backend/infrastructure/messaging/logsink"
	"marketplace-backend/pkg/auth"
	"marketplace-backend/pkg/observability"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config    *config.Config
	Logger    *zap.Logger
	LogLevel  zap.AtomicLevel
	Tracer    *observability.Tracer
	Telemetry *Telemetry
	Gateway   ports.Gateway
	Store     ports.RecordStore
	Queue     ports.Queue
	EventBus  ports.EventBus
	Sink      *logsink.Sink
	Tokens    *auth.TokenService
	Services  *services.Services
}

// FlushMetrics pushes buffered CloudWatch metrics. It is a no-op for the
// other metrics backends.
func (c *Container) FlushMetrics(ctx context.Context) error {
	if c.Telemetry == nil || c.Telemetry.CloudWatch == nil {
		return nil
	}
	return c.Telemetry.CloudWatch.Flush(ctx)
}

// Shutdown flushes metrics and the logger.
func (c *Container) Shutdown(ctx context.Context) {
	if err := c.FlushMetrics(ctx); err != nil {
		c.Logger.Warn("Failed to flush metrics", zap.Error(err))
	}
	_ = c.Logger.Sync()
}
