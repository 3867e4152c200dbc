//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"marketplace-backend/application/services"
	"marketplace-backend/infrastructure/config"
	"marketplace-backend/pkg/auth"

	"github.com/google/wire"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogLevel,
	ProvideLogger,
	ProvideAWSConfig,
	ProvideTracer,
	ProvideTelemetry,
	ProvideMetrics,
	ProvideGateway,
	ProvideRecordStore,
	ProvideLogSink,
	ProvideQueue,
	ProvideEventBus,
	ProvideTokenService,
	services.NewNotifier,
	services.NewPipeline,
	services.New,
	wire.Bind(new(services.TokenIssuer), new(*auth.TokenService)),
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil
}
