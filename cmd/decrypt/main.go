package main

import (
	"context"
	"log"
	"time"

	"marketplace-backend/infrastructure/config"
	"marketplace-backend/infrastructure/di"
	"marketplace-backend/interfaces/lambda/cryptofn"

	"github.com/aws/aws-lambda-go/lambda"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg, err := config.LoadUnvalidated()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	level, err := di.ProvideLogLevel(cfg)
	if err != nil {
		log.Fatalf("Failed to parse log level: %v", err)
	}
	logger, err := di.ProvideLogger(cfg, level)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	awsCfg, err := di.ProvideAWSConfig(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to load AWS config: %v", err)
	}

	c, err := di.ProvideFieldCipher(ctx, cfg, awsCfg)
	if err != nil {
		log.Fatalf("Failed to load cipher secrets: %v", err)
	}

	lambda.Start(cryptofn.NewHandler(c, logger).Decrypt)
}
