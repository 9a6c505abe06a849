package main

import (
	"context"
	"net/http"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/bbernstein/surfcast/backend-go/internal/api"
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
	forecastHandler *handler.ForecastHandler
	setupOnce       sync.Once
	lambdaStart     = lambda.Start
)

func setup() {
	setupOnce.Do(func() {
		ctx := context.Background()

		cfg := config.LoadFromEnv()
		cfg.InitializeLogging()
		log.Info().Str("env", cfg.Environment).Msg("Environment")

		httpClient := client.New(client.Options{
			BaseURL:    cfg.NDBCBaseURL,
			Timeout:    cfg.HTTPTimeout,
			MaxRetries: cfg.MaxRetries,
		})
		clock := clockwork.NewRealClock()

		opts := []forecast.Option{forecast.WithClock(clock)}

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
			log.Error().Err(err).Msg("Failed to create forecast cache, continuing without it")
		} else {
			opts = append(opts, forecast.WithCache(forecastCache))
		}

		if cfg.SnapshotBucket != "" {
			s3Client, err := cache.NewS3Client(ctx)
			if err != nil {
				log.Error().Err(err).Msg("Failed to create S3 client, snapshot fallback disabled")
			} else {
				opts = append(opts, forecast.WithSnapshotStore(cache.NewS3SnapshotStore(s3Client, cfg.SnapshotBucket, clock)))
			}
		}

		service := forecast.NewService(ndbc.NewFetcher(httpClient), opts...)
		forecastHandler = handler.NewForecastHandler(service, cfg.DefaultHorizon, cfg.MaxHorizon)
	})
}

func handleRequest(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	log.Info().Msg("Handling forecast request")

	if forecastHandler == nil {
		return api.Error("Service not initialized", http.StatusInternalServerError)
	}
	return forecastHandler.HandleRequest(ctx, request)
}

func main() {
	setup()
	lambdaStart(handleRequest)
}
