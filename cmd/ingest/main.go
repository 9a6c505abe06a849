package main

import (
	"context"
	"errors"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/bbernstein/surfcast/backend-go/internal/cache"
	"github.com/bbernstein/surfcast/backend-go/internal/config"
	"github.com/bbernstein/surfcast/backend-go/internal/forecast"
	"github.com/bbernstein/surfcast/backend-go/internal/handler"
	"github.com/bbernstein/surfcast/backend-go/internal/ndbc"
	"github.com/bbernstein/surfcast/backend-go/pkg/http/client"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

var (
	ingestHandler *handler.IngestHandler
	setupErr      error
	setupOnce     sync.Once
	lambdaStart   = lambda.Start
)

func setup() {
	setupOnce.Do(func() {
		ctx := context.Background()

		cfg := config.LoadFromEnv()
		cfg.InitializeLogging()
		log.Info().
			Str("env", cfg.Environment).
			Strs("stations", cfg.Stations).
			Msg("Environment")

		if cfg.SnapshotBucket == "" {
			setupErr = errors.New("SNAPSHOT_BUCKET is required for ingest")
			return
		}

		httpClient := client.New(client.Options{
			BaseURL:    cfg.NDBCBaseURL,
			Timeout:    cfg.HTTPTimeout,
			MaxRetries: cfg.MaxRetries,
		})
		clock := clockwork.NewRealClock()

		s3Client, err := cache.NewS3Client(ctx)
		if err != nil {
			setupErr = err
			return
		}
		opts := []forecast.Option{
			forecast.WithClock(clock),
			forecast.WithSnapshotStore(cache.NewS3SnapshotStore(s3Client, cfg.SnapshotBucket, clock)),
		}

		cacheConfig := config.GetCacheConfig()
		var dynamoClient cache.DynamoDBClient
		if cacheConfig.EnableDynamoCache {
			dc, err := cache.NewDynamoClient(ctx)
			if err != nil {
				log.Error().Err(err).Msg("Failed to create DynamoDB client, disabling DynamoDB cache")
				cacheConfig.EnableDynamoCache = false
			} else {
				dynamoClient = dc
			}
		}
		forecastCache, err := cache.NewForecastCacheService(dynamoClient, cacheConfig, clock)
		if err != nil {
			log.Error().Err(err).Msg("Failed to create forecast cache, skipping cache warm-up")
		} else {
			opts = append(opts, forecast.WithCache(forecastCache))
		}

		service := forecast.NewService(ndbc.NewFetcher(httpClient), opts...)
		ingestHandler = handler.NewIngestHandler(service, cfg.Stations, cfg.DefaultHorizon)
	})
}

func handleEvent(ctx context.Context, event events.CloudWatchEvent) error {
	if ingestHandler == nil {
		if setupErr != nil {
			return setupErr
		}
		return errors.New("ingest handler not initialized")
	}
	return ingestHandler.HandleEvent(ctx, event)
}

func main() {
	setup()
	lambdaStart(handleEvent)
}
